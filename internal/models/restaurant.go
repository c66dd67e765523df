package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Restaurant represents a vendor stall in the food court. CommissionRate is
// the authoritative per-vendor rate; every commission computation reads it
// from here at call time.
type Restaurant struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	OwnerID        primitive.ObjectID `bson:"ownerId" json:"ownerId"`
	Name           string             `bson:"name" json:"name"`
	Description    string             `bson:"description,omitempty" json:"description,omitempty"`
	CommissionRate float64            `bson:"commissionRate" json:"commissionRate"`
	Approved       bool               `bson:"approved" json:"approved"`
	Suspended      bool               `bson:"suspended" json:"suspended"`
	CreatedAt      time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt      time.Time          `bson:"updatedAt" json:"updatedAt"`
}
