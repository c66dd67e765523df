package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// Role determines which state transitions an actor may trigger.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleVendor   Role = "vendor"
	RoleAdmin    Role = "admin"
)

// Actor is the resolved identity attached to every request reaching the
// transition engine. Authentication happens upstream; the core trusts this.
// RestaurantID is set for vendor actors only and names the restaurant they
// operate.
type Actor struct {
	UserID       primitive.ObjectID
	Role         Role
	RestaurantID primitive.ObjectID
}
