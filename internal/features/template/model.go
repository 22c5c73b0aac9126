package template

import (
	"time"

	common_models "go-chms/internal/common/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type MessageTemplate struct {
	ID          primitive.ObjectID      `json:"id" bson:"_id,omitempty"`
	Name        string                  `json:"name" bson:"name"`
	Slug        string                  `json:"slug" bson:"slug"`
	Subject     string                  `json:"subject" bson:"subject"`
	Body        string                  `json:"body" bson:"body"`
	Channels    []common_models.Channel `json:"channels" bson:"channels"`
	Description string                  `json:"description" bson:"description"`
	IsActive    bool                    `json:"is_active" bson:"is_active"`
	CreatedBy   string                  `json:"created_by" bson:"created_by"`
	CreatedAt   time.Time               `json:"created_at" bson:"created_at"`
	UpdatedAt   time.Time               `json:"updated_at" bson:"updated_at"`
}
