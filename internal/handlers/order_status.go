package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"foodcourt-backend/internal/engine"
	"foodcourt-backend/internal/logger"
	"foodcourt-backend/internal/middleware"
	"foodcourt-backend/internal/models"
)

type transitionRequest struct {
	Status string `json:"status" binding:"required"`
}

// RequestTransition exposes the transition engine: customers cancel, vendors
// advance their orders, admins override. Accepts both the canonical and the
// legacy status vocabulary.
func RequestTransition(eng *engine.Engine, log logger.ILogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /orders/:id/status"
		defer handlePanic(c, log, route)

		orderID, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			respondWithError(c, log, http.StatusBadRequest, route, "invalid id")
			return
		}

		var req transitionRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondWithError(c, log, http.StatusBadRequest, route, "invalid request body")
			return
		}
		target, ok := models.ParseStatus(req.Status)
		if !ok {
			respondWithError(c, log, http.StatusBadRequest, route, "unknown status")
			return
		}

		actor, ok := middleware.ActorFrom(c)
		if !ok {
			respondWithError(c, log, http.StatusUnauthorized, route, "unauthorized")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		order, err := eng.RequestTransition(ctx, orderID, target, actor)
		if err != nil {
			respondCoreError(c, log, route, err)
			return
		}

		c.JSON(http.StatusOK, orderView(order))
	}
}

// orderView renders an order with the legacy status label alongside the
// canonical one; clients on the old vocabulary read legacyStatus only.
func orderView(order *models.Order) gin.H {
	return gin.H{
		"order":        order,
		"legacyStatus": order.Status.LegacyLabel(),
	}
}
