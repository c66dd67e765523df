package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"foodcourt-backend/internal/logger"
	"foodcourt-backend/internal/middleware"
	"foodcourt-backend/internal/models"
	"foodcourt-backend/internal/store"
)

// GetMyOrders lists the authenticated customer's orders.
func GetMyOrders(st store.OrderStore, log logger.ILogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /orders"
		listOrders(c, st, log, route, func(actor models.Actor) store.Filter {
			return store.ForCustomer(actor.UserID)
		})
	}
}

// GetVendorOrders lists the orders of the vendor's restaurant.
func GetVendorOrders(st store.OrderStore, log logger.ILogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /vendor/orders"
		listOrders(c, st, log, route, func(actor models.Actor) store.Filter {
			return store.ForRestaurant(actor.RestaurantID)
		})
	}
}

// GetRestaurantOrders lets an admin inspect any restaurant's orders.
func GetRestaurantOrders(st store.OrderStore, log logger.ILogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /admin/api/restaurants/:id/orders"
		defer handlePanic(c, log, route)

		restaurantID, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			respondWithError(c, log, http.StatusBadRequest, route, "invalid id")
			return
		}
		listOrders(c, st, log, route, func(models.Actor) store.Filter {
			return store.ForRestaurant(restaurantID)
		})
	}
}

// GetOrder returns one order, restricted to its parties.
func GetOrder(st store.OrderStore, log logger.ILogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /orders/:id"
		defer handlePanic(c, log, route)

		orderID, err := primitive.ObjectIDFromHex(c.Param("id"))
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

		order, err := st.Get(ctx, orderID)
		if err != nil {
			respondCoreError(c, log, route, err)
			return
		}
		if !actorMayView(order, actor) {
			respondWithError(c, log, http.StatusForbidden, route, "forbidden")
			return
		}
		c.JSON(http.StatusOK, orderView(order))
	}
}

func actorMayView(order *models.Order, actor models.Actor) bool {
	switch actor.Role {
	case models.RoleAdmin:
		return true
	case models.RoleVendor:
		return actor.RestaurantID == order.RestaurantID
	case models.RoleCustomer:
		return actor.UserID == order.UserID
	}
	return false
}

func listOrders(c *gin.Context, st store.OrderStore, log logger.ILogger, route string, toFilter func(models.Actor) store.Filter) {
	defer handlePanic(c, log, route)

	actor, ok := middleware.ActorFrom(c)
	if !ok {
		respondWithError(c, log, http.StatusUnauthorized, route, "unauthorized")
		return
	}

	page, limit, err := parsePaginationParams(c.Query("page"), c.Query("limit"))
	if err != nil {
		respondWithError(c, log, http.StatusBadRequest, route, "invalid pagination")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	orders, err := st.Query(ctx, toFilter(actor))
	if err != nil {
		respondCoreError(c, log, route, err)
		return
	}

	start := (page - 1) * limit
	if start > int64(len(orders)) {
		start = int64(len(orders))
	}
	end := start + limit
	if end > int64(len(orders)) {
		end = int64(len(orders))
	}

	c.JSON(http.StatusOK, gin.H{
		"orders": orders[start:end],
		"page":   page,
		"total":  len(orders),
	})
}
