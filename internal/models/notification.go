package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Notification is a user-facing message produced after an order transition
// or an account/payout event. Created by the dispatcher, consumed by the
// client apps; its lifecycle ends when the user marks it read.
type Notification struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID         primitive.ObjectID `bson:"userId" json:"userId"`
	Title          string             `bson:"title" json:"title"`
	Message        string             `bson:"message" json:"message"`
	RelatedOrderID primitive.ObjectID `bson:"relatedOrderId,omitempty" json:"relatedOrderId,omitempty"`
	Read           bool               `bson:"read" json:"read"`
	CreatedAt      time.Time          `bson:"createdAt" json:"createdAt"`
}
