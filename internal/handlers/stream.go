package handlers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"foodcourt-backend/internal/logger"
	"foodcourt-backend/internal/middleware"
	"foodcourt-backend/internal/models"
	"foodcourt-backend/internal/realtime"
	"foodcourt-backend/internal/store"
)

// StreamOrders serves the live order view over server-sent events. Customers
// stream their own orders, vendors their restaurant's. Each event carries a
// full snapshot; the client replaces its view wholesale.
func StreamOrders(hub *realtime.Hub, log logger.ILogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /streams/orders"
		defer handlePanic(c, log, route)

		actor, ok := middleware.ActorFrom(c)
		if !ok {
			respondWithError(c, log, http.StatusUnauthorized, route, "unauthorized")
			return
		}

		var filter store.Filter
		switch actor.Role {
		case models.RoleVendor:
			filter = store.ForRestaurant(actor.RestaurantID)
		case models.RoleCustomer:
			filter = store.ForCustomer(actor.UserID)
		default:
			respondWithError(c, log, http.StatusForbidden, route, "streaming requires a customer or vendor view")
			return
		}

		snapshots, unsubscribe, err := hub.Subscribe(c.Request.Context(), filter)
		if err != nil {
			respondCoreError(c, log, route, err)
			return
		}
		// Subscriptions are billed resources; release on every exit path.
		defer unsubscribe()

		c.Writer.Header().Set("Cache-Control", "no-cache")
		c.Stream(func(w io.Writer) bool {
			select {
			case snap, ok := <-snapshots:
				if !ok {
					return false
				}
				c.SSEvent("snapshot", snap)
				return true
			case <-c.Request.Context().Done():
				return false
			}
		})
	}
}
