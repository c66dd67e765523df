package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"foodcourt-backend/internal/finance"
	"foodcourt-backend/internal/logger"
	"foodcourt-backend/internal/middleware"
	"foodcourt-backend/internal/models"
	"foodcourt-backend/internal/store"
)

// GetOrderSplit returns the commission breakdown of one settled order for
// the owning vendor. The split is derived on read; nothing is cached.
func GetOrderSplit(st store.OrderStore, db *mongo.Database, platformFeePercent, defaultCommissionPercent float64, log logger.ILogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		route := routeLabel(c)
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
		if actor.Role == models.RoleVendor && actor.RestaurantID != order.RestaurantID {
			respondWithError(c, log, http.StatusForbidden, route, "forbidden")
			return
		}

		rate, err := commissionRateFor(ctx, db, order.RestaurantID, defaultCommissionPercent)
		if err != nil {
			respondWithError(c, log, http.StatusServiceUnavailable, route, "store unavailable, retry later")
			return
		}

		split, err := finance.SplitForOrder(order, rate, platformFeePercent)
		if err != nil {
			respondCoreError(c, log, route, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"orderNumber":    order.OrderNumber,
			"totalAmount":    order.Pricing.TotalAmount,
			"commissionRate": rate,
			"split":          split,
		})
	}
}

// GetLedger returns the admin transaction ledger for one restaurant: every
// settled order with its derived split, plus aggregate totals. Uses the same
// ComputeSplit as the vendor view, so the figures always agree.
func GetLedger(st store.OrderStore, db *mongo.Database, platformFeePercent, defaultCommissionPercent float64, log logger.ILogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		route := routeLabel(c)
		defer handlePanic(c, log, route)

		restaurantID, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			respondWithError(c, log, http.StatusBadRequest, route, "invalid id")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
		defer cancel()

		rate, err := commissionRateFor(ctx, db, restaurantID, defaultCommissionPercent)
		if err != nil {
			respondWithError(c, log, http.StatusServiceUnavailable, route, "store unavailable, retry later")
			return
		}

		orders, err := st.Query(ctx, store.ForRestaurant(restaurantID))
		if err != nil {
			respondCoreError(c, log, route, err)
			return
		}

		type ledgerEntry struct {
			OrderNumber string        `json:"orderNumber"`
			TotalAmount float64       `json:"totalAmount"`
			Split       finance.Split `json:"split"`
		}
		entries := make([]ledgerEntry, 0, len(orders))
		var totals finance.Split
		var grossTotal float64

		for i := range orders {
			order := &orders[i]
			split, err := finance.SplitForOrder(order, rate, platformFeePercent)
			if err != nil {
				// Unsettled orders never contribute speculative figures.
				continue
			}
			entries = append(entries, ledgerEntry{
				OrderNumber: order.OrderNumber,
				TotalAmount: order.Pricing.TotalAmount,
				Split:       split,
			})
			grossTotal += order.Pricing.TotalAmount
			totals.Commission += split.Commission
			totals.PlatformFee += split.PlatformFee
			totals.NetAmount += split.NetAmount
		}

		c.JSON(http.StatusOK, gin.H{
			"restaurantId":   restaurantID.Hex(),
			"commissionRate": rate,
			"entries":        entries,
			"grossTotal":     grossTotal,
			"totals":         totals,
		})
	}
}

// commissionRateFor reads the vendor's rate at computation time. A missing
// or zero rate falls back to the platform default.
func commissionRateFor(ctx context.Context, db *mongo.Database, restaurantID primitive.ObjectID, defaultRate float64) (float64, error) {
	var restaurant models.Restaurant
	err := db.Collection("restaurants").FindOne(ctx, bson.M{"_id": restaurantID}).Decode(&restaurant)
	if err == mongo.ErrNoDocuments {
		return defaultRate, nil
	}
	if err != nil {
		return 0, err
	}
	if restaurant.CommissionRate <= 0 {
		return defaultRate, nil
	}
	return restaurant.CommissionRate, nil
}
