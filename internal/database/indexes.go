package database

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"foodcourt-backend/internal/logger"
)

func EnsureOrderIndexes(db *mongo.Database, log logger.ILogger) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	indexes := db.Collection("orders").Indexes()

	orderModels := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "orderNumber", Value: 1}},
			Options: options.Index().
				SetName("orderNumber_unique").
				SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "userId", Value: 1}, {Key: "createdAt", Value: -1}},
			Options: options.Index().SetName("userId_createdAt"),
		},
		{
			Keys:    bson.D{{Key: "restaurantId", Value: 1}, {Key: "createdAt", Value: -1}},
			Options: options.Index().SetName("restaurantId_createdAt"),
		},
	}

	log.Info("ensuring order indexes")
	_, err := indexes.CreateMany(ctx, orderModels)
	if err != nil {
		log.Error("order index error", logger.Err(err))
		return err
	}
	return nil
}

func EnsureNotificationIndexes(db *mongo.Database, log logger.ILogger) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	indexes := db.Collection("notifications").Indexes()

	userIndex := mongo.IndexModel{
		Keys:    bson.D{{Key: "userId", Value: 1}, {Key: "createdAt", Value: -1}},
		Options: options.Index().SetName("userId_createdAt"),
	}

	log.Info("ensuring notification indexes")
	_, err := indexes.CreateOne(ctx, userIndex)
	if err != nil {
		log.Error("notification index error", logger.Err(err))
		return err
	}
	return nil
}

func EnsureRestaurantIndexes(db *mongo.Database, log logger.ILogger) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	indexes := db.Collection("restaurants").Indexes()

	ownerIndex := mongo.IndexModel{
		Keys:    bson.D{{Key: "ownerId", Value: 1}},
		Options: options.Index().SetName("ownerId_index"),
	}

	log.Info("ensuring restaurant indexes")
	_, err := indexes.CreateOne(ctx, ownerIndex)
	if err != nil {
		log.Error("restaurant index error", logger.Err(err))
		return err
	}
	return nil
}

func EnsureUserIndexes(db *mongo.Database, log logger.ILogger) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	indexes := db.Collection("users").Indexes()

	emailIndex := mongo.IndexModel{
		Keys: bson.D{{Key: "email", Value: 1}},
		Options: options.Index().
			SetName("email_unique").
			SetUnique(true),
	}

	log.Info("ensuring user indexes")
	_, err := indexes.CreateOne(ctx, emailIndex)
	if err != nil {
		log.Error("user index error", logger.Err(err))
		return err
	}
	return nil
}
