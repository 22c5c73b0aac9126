package member

import (
	"time"

	"go-chms/pkg/condition"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Member struct {
	ID               primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	FirstName        string             `json:"first_name" bson:"first_name"`
	LastName         string             `json:"last_name" bson:"last_name"`
	Email            string             `json:"email" bson:"email"`
	Phone            string             `json:"phone" bson:"phone"`
	Gender           string             `json:"gender" bson:"gender"`
	MembershipStatus string             `json:"membership_status" bson:"membership_status"`
	Tags             []string           `json:"tags" bson:"tags"`
	IsBaptized       bool               `json:"is_baptized" bson:"is_baptized"`
	BirthDate        *time.Time         `json:"birth_date,omitempty" bson:"birth_date,omitempty"`
	AnniversaryDate  *time.Time         `json:"anniversary_date,omitempty" bson:"anniversary_date,omitempty"`
	JoinedAt         *time.Time         `json:"joined_at,omitempty" bson:"joined_at,omitempty"`
	LastAttendanceAt *time.Time         `json:"last_attendance_at,omitempty" bson:"last_attendance_at,omitempty"`
	AbsenceCount     int                `json:"absence_count" bson:"absence_count"`
	TotalGiving      float64            `json:"total_giving" bson:"total_giving"`
	LastGivingAt     *time.Time         `json:"last_giving_at,omitempty" bson:"last_giving_at,omitempty"`
	IsFirstTimer     bool               `json:"is_first_timer" bson:"is_first_timer"`
	IsNewConvert     bool               `json:"is_new_convert" bson:"is_new_convert"`
	CreatedAt        time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt        time.Time          `json:"updated_at" bson:"updated_at"`
}

// ToRecord flattens a member into the field record shape the condition
// evaluator consumes. Keys match the field catalog.
func (m *Member) ToRecord() map[string]interface{} {
	rec := map[string]interface{}{
		"member_id":         m.ID.Hex(),
		"first_name":        m.FirstName,
		"last_name":         m.LastName,
		"email":             m.Email,
		"phone":             m.Phone,
		"gender":            m.Gender,
		"membership_status": m.MembershipStatus,
		"tags":              toInterfaceSlice(m.Tags),
		"is_baptized":       m.IsBaptized,
		"absence_count":     float64(m.AbsenceCount),
		"total_giving":      m.TotalGiving,
		"is_first_timer":    m.IsFirstTimer,
		"is_new_convert":    m.IsNewConvert,
	}
	putTime(rec, "birth_date", m.BirthDate)
	putTime(rec, "anniversary_date", m.AnniversaryDate)
	putTime(rec, "joined_at", m.JoinedAt)
	putTime(rec, "last_attendance_at", m.LastAttendanceAt)
	putTime(rec, "last_giving_at", m.LastGivingAt)
	return rec
}

func putTime(rec map[string]interface{}, key string, t *time.Time) {
	if t != nil {
		rec[key] = *t
	}
}

func toInterfaceSlice(in []string) []interface{} {
	out := make([]interface{}, len(in))
	for i, s := range in {
		out[i] = s
	}
	return out
}

// FieldDef describes one entry of the field catalog exposed to the condition
// builder and checked by automation validation.
type FieldDef struct {
	Name  string              `json:"name"`
	Label string              `json:"label"`
	Type  condition.FieldType `json:"type"`
}

// FieldCatalog is the closed set of member, attendance and giving fields a
// condition may reference.
func FieldCatalog() []FieldDef {
	return []FieldDef{
		{Name: "first_name", Label: "First Name", Type: condition.FieldTypeString},
		{Name: "last_name", Label: "Last Name", Type: condition.FieldTypeString},
		{Name: "email", Label: "Email", Type: condition.FieldTypeString},
		{Name: "phone", Label: "Phone", Type: condition.FieldTypeString},
		{Name: "gender", Label: "Gender", Type: condition.FieldTypeEnum},
		{Name: "membership_status", Label: "Membership Status", Type: condition.FieldTypeEnum},
		{Name: "tags", Label: "Tags", Type: condition.FieldTypeArray},
		{Name: "is_baptized", Label: "Baptized", Type: condition.FieldTypeBoolean},
		{Name: "birth_date", Label: "Birth Date", Type: condition.FieldTypeDate},
		{Name: "anniversary_date", Label: "Anniversary Date", Type: condition.FieldTypeDate},
		{Name: "joined_at", Label: "Joined At", Type: condition.FieldTypeDate},
		{Name: "last_attendance_at", Label: "Last Attendance", Type: condition.FieldTypeDate},
		{Name: "absence_count", Label: "Consecutive Absences", Type: condition.FieldTypeNumber},
		{Name: "total_giving", Label: "Total Giving", Type: condition.FieldTypeNumber},
		{Name: "last_giving_at", Label: "Last Giving", Type: condition.FieldTypeDate},
		{Name: "is_first_timer", Label: "First Timer", Type: condition.FieldTypeBoolean},
		{Name: "is_new_convert", Label: "New Convert", Type: condition.FieldTypeBoolean},
	}
}

// FieldTypes returns the catalog keyed by field name.
func FieldTypes() map[string]condition.FieldType {
	defs := FieldCatalog()
	out := make(map[string]condition.FieldType, len(defs))
	for _, d := range defs {
		out[d.Name] = d.Type
	}
	return out
}
