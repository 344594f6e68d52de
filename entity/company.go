package entity

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Company is a partner moving company in the marketplace.
type Company struct {
	ID        primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Name      string             `json:"name" bson:"name"`
	Phone     string             `json:"phone" bson:"phone"`
	WhatsApp  string             `json:"whatsapp" bson:"whatsapp"`
	States    []string           `json:"states" bson:"states"` // two-letter state codes the company serves
	Active    bool               `json:"active" bson:"active"`
	CreatedAt time.Time          `json:"created_at" bson:"created_at"`
}
