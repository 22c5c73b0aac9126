package event

import "time"

type EventType string

const (
	EventMemberCreated      EventType = "MEMBER_CREATED"
	EventMemberUpdated      EventType = "MEMBER_UPDATED"
	EventAttendanceRecorded EventType = "ATTENDANCE_RECORDED"
	EventAttendanceAbsent   EventType = "ATTENDANCE_ABSENT"
	EventPaymentReceived    EventType = "PAYMENT_RECEIVED"
	EventFirstVisit         EventType = "FIRST_VISIT"
	EventConversionRecorded EventType = "CONVERSION_RECORDED"
	EventMemberReturned     EventType = "MEMBER_RETURNED"
)

func (t EventType) Valid() bool {
	switch t {
	case EventMemberCreated, EventMemberUpdated, EventAttendanceRecorded,
		EventAttendanceAbsent, EventPaymentReceived, EventFirstVisit,
		EventConversionRecorded, EventMemberReturned:
		return true
	default:
		return false
	}
}

// DomainEvent is what the upstream API layer pushes into the feed: something
// happened to one member.
type DomainEvent struct {
	Type            EventType              `json:"type"`
	SubjectMemberID string                 `json:"subject_member_id"`
	Payload         map[string]interface{} `json:"payload,omitempty"`
	OccurredAt      time.Time              `json:"occurred_at"`
}
