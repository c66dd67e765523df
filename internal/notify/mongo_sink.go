package notify

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"foodcourt-backend/internal/models"
)

// MongoSink writes notifications to the "notifications" collection, where
// the client apps poll or stream them. Upserting on the pre-assigned id
// keeps at-least-once redelivery idempotent by content.
type MongoSink struct {
	notifications *mongo.Collection
}

func NewMongoSink(db *mongo.Database) *MongoSink {
	return &MongoSink{notifications: db.Collection("notifications")}
}

func (s *MongoSink) Deliver(ctx context.Context, n *models.Notification) error {
	opts := options.Replace().SetUpsert(true)
	_, err := s.notifications.ReplaceOne(ctx, bson.M{"_id": n.ID}, n, opts)
	return err
}

// MongoOwnerResolver resolves a restaurant's owning vendor account.
type MongoOwnerResolver struct {
	restaurants *mongo.Collection
}

func NewMongoOwnerResolver(db *mongo.Database) *MongoOwnerResolver {
	return &MongoOwnerResolver{restaurants: db.Collection("restaurants")}
}

func (r *MongoOwnerResolver) RestaurantOwner(ctx context.Context, restaurantID primitive.ObjectID) (primitive.ObjectID, error) {
	var restaurant models.Restaurant
	err := r.restaurants.FindOne(ctx, bson.M{"_id": restaurantID}).Decode(&restaurant)
	if err != nil {
		return primitive.NilObjectID, err
	}
	return restaurant.OwnerID, nil
}
