package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"foodcourt-backend/internal/logger"
	"foodcourt-backend/internal/middleware"
	"foodcourt-backend/internal/models"
)

// GetNotifications lists the authenticated user's notifications, newest
// first.
func GetNotifications(db *mongo.Database, log logger.ILogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /notifications"
		defer handlePanic(c, log, route)

		actor, ok := middleware.ActorFrom(c)
		if !ok {
			respondWithError(c, log, http.StatusUnauthorized, route, "unauthorized")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}).SetLimit(100)
		cursor, err := db.Collection("notifications").Find(ctx, bson.M{"userId": actor.UserID}, opts)
		if err != nil {
			respondWithError(c, log, http.StatusServiceUnavailable, route, "store unavailable, retry later")
			return
		}
		defer cursor.Close(ctx)

		var notifications []models.Notification
		if err := cursor.All(ctx, &notifications); err != nil {
			respondWithError(c, log, http.StatusInternalServerError, route, "failed to parse notifications")
			return
		}
		c.JSON(http.StatusOK, notifications)
	}
}

// MarkNotificationRead ends a notification's lifecycle for its owner.
// Idempotent: marking an already-read notification succeeds.
func MarkNotificationRead(db *mongo.Database, log logger.ILogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PUT /notifications/:id/read"
		defer handlePanic(c, log, route)

		notificationID, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			respondWithError(c, log, http.StatusBadRequest, route, "invalid id")
			return
		}
		actor, ok := middleware.ActorFrom(c)
		if !ok {
			respondWithError(c, log, http.StatusUnauthorized, route, "unauthorized")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		res, err := db.Collection("notifications").UpdateOne(ctx,
			bson.M{"_id": notificationID, "userId": actor.UserID},
			bson.M{"$set": bson.M{"read": true}},
		)
		if err != nil {
			respondWithError(c, log, http.StatusServiceUnavailable, route, "store unavailable, retry later")
			return
		}
		if res.MatchedCount == 0 {
			respondWithError(c, log, http.StatusNotFound, route, "notification not found")
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "notification read"})
	}
}
