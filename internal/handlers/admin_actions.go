package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"foodcourt-backend/internal/logger"
	"foodcourt-backend/internal/models"
	"foodcourt-backend/internal/notify"
	"foodcourt-backend/internal/store"
)

type decisionRequest struct {
	Approved bool   `json:"approved"`
	Reason   string `json:"reason"`
}

// ReviewVendor approves or rejects a restaurant application and notifies its
// owner.
func ReviewVendor(db *mongo.Database, dispatcher *notify.Dispatcher, log logger.ILogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /admin/api/restaurants/:id/review"
		defer handlePanic(c, log, route)

		restaurantID, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			respondWithError(c, log, http.StatusBadRequest, route, "invalid id")
			return
		}
		var req decisionRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondWithError(c, log, http.StatusBadRequest, route, "invalid request body")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		var restaurant models.Restaurant
		err = db.Collection("restaurants").FindOneAndUpdate(ctx,
			bson.M{"_id": restaurantID},
			bson.M{"$set": bson.M{"approved": req.Approved, "updatedAt": time.Now().UTC()}},
		).Decode(&restaurant)
		if err == mongo.ErrNoDocuments {
			respondWithError(c, log, http.StatusNotFound, route, "restaurant not found")
			return
		}
		if err != nil {
			respondWithError(c, log, http.StatusServiceUnavailable, route, "store unavailable, retry later")
			return
		}

		template := notify.TemplateVendorApproved
		if !req.Approved {
			template = notify.TemplateVendorRejected
		}
		dispatcher.Dispatch(restaurant.OwnerID, template, notify.Context{Detail: req.Reason}, primitive.NilObjectID)

		c.JSON(http.StatusOK, gin.H{"message": "vendor reviewed"})
	}
}

// ReviewPayout records the admin's payout decision for a vendor and notifies
// the owner. Payout execution itself happens in the payments system.
func ReviewPayout(db *mongo.Database, dispatcher *notify.Dispatcher, log logger.ILogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /admin/api/restaurants/:id/payout"
		defer handlePanic(c, log, route)

		restaurantID, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			respondWithError(c, log, http.StatusBadRequest, route, "invalid id")
			return
		}
		var req decisionRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondWithError(c, log, http.StatusBadRequest, route, "invalid request body")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		var restaurant models.Restaurant
		err = db.Collection("restaurants").FindOne(ctx, bson.M{"_id": restaurantID}).Decode(&restaurant)
		if err == mongo.ErrNoDocuments {
			respondWithError(c, log, http.StatusNotFound, route, "restaurant not found")
			return
		}
		if err != nil {
			respondWithError(c, log, http.StatusServiceUnavailable, route, "store unavailable, retry later")
			return
		}

		template := notify.TemplatePayoutApproved
		if !req.Approved {
			template = notify.TemplatePayoutRejected
		}
		dispatcher.Dispatch(restaurant.OwnerID, template, notify.Context{Detail: req.Reason}, primitive.NilObjectID)

		c.JSON(http.StatusOK, gin.H{"message": "payout reviewed"})
	}
}

// SetAccountSuspension suspends or reactivates a user account and notifies
// the affected user.
func SetAccountSuspension(db *mongo.Database, dispatcher *notify.Dispatcher, suspend bool, log logger.ILogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		route := routeLabel(c)
		defer handlePanic(c, log, route)

		userID, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			respondWithError(c, log, http.StatusBadRequest, route, "invalid id")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		res, err := db.Collection("users").UpdateOne(ctx,
			bson.M{"_id": userID},
			bson.M{"$set": bson.M{"suspended": suspend, "updatedAt": time.Now().UTC()}},
		)
		if err != nil {
			respondWithError(c, log, http.StatusServiceUnavailable, route, "store unavailable, retry later")
			return
		}
		if res.MatchedCount == 0 {
			respondWithError(c, log, http.StatusNotFound, route, "user not found")
			return
		}

		template := notify.TemplateAccountActivated
		if suspend {
			template = notify.TemplateAccountSuspended
		}
		dispatcher.Dispatch(userID, template, notify.Context{}, primitive.NilObjectID)

		c.JSON(http.StatusOK, gin.H{"message": "account updated"})
	}
}

type settlePaymentRequest struct {
	Status        string `json:"status" binding:"required"`
	TransactionID string `json:"transactionId"`
}

// SettlePayment records the payment gateway's outcome on an order. Stands in
// for the gateway callback, which is outside this service. The settled total
// is frozen: only the payment block changes.
func SettlePayment(st store.OrderStore, log logger.ILogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /admin/api/orders/:id/payment"
		defer handlePanic(c, log, route)

		orderID, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			respondWithError(c, log, http.StatusBadRequest, route, "invalid id")
			return
		}
		var req settlePaymentRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondWithError(c, log, http.StatusBadRequest, route, "invalid request body")
			return
		}
		newStatus := models.PaymentStatus(req.Status)
		switch newStatus {
		case models.PaymentCompleted, models.PaymentFailed, models.PaymentRefunded:
		default:
			respondWithError(c, log, http.StatusBadRequest, route, "unknown payment status")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		order, err := st.Get(ctx, orderID)
		if err != nil {
			respondCoreError(c, log, route, err)
			return
		}
		if order.Payment.Status == newStatus {
			c.JSON(http.StatusOK, orderView(order))
			return
		}

		updated := order.Clone()
		updated.Payment.Status = newStatus
		if req.TransactionID != "" {
			updated.Payment.TransactionID = req.TransactionID
		}

		if err := st.Replace(ctx, updated, order.Status); err != nil {
			respondCoreError(c, log, route, err)
			return
		}
		c.JSON(http.StatusOK, orderView(updated))
	}
}
