package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"foodcourt-backend/internal/logger"
	"foodcourt-backend/internal/middleware"
	"foodcourt-backend/internal/models"
	"foodcourt-backend/internal/notify"
	"foodcourt-backend/internal/store"
)

type createOrderItemRequest struct {
	ProductID string  `json:"productId" binding:"required"`
	Name      string  `json:"name" binding:"required"`
	Price     float64 `json:"price"`
	Quantity  int     `json:"quantity" binding:"required"`
}

type createOrderPricingRequest struct {
	Subtotal    float64 `json:"subtotal"`
	Taxes       float64 `json:"taxes"`
	DeliveryFee float64 `json:"deliveryFee"`
	Discount    float64 `json:"discount"`
	TotalAmount float64 `json:"totalAmount"`
}

type createOrderPaymentRequest struct {
	Method        string `json:"method" binding:"required"`
	TransactionID string `json:"transactionId"`
}

type createOrderRequest struct {
	RestaurantID string                    `json:"restaurantId" binding:"required"`
	Items        []createOrderItemRequest  `json:"items" binding:"required"`
	Pricing      createOrderPricingRequest `json:"pricing" binding:"required"`
	Payment      createOrderPaymentRequest `json:"payment" binding:"required"`
}

// PlaceOrder creates a new order in the placed state on behalf of the
// authenticated customer and notifies the vendor.
func PlaceOrder(st store.OrderStore, dispatcher *notify.Dispatcher, owners notify.OwnerResolver, log logger.ILogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /orders"
		defer handlePanic(c, log, route)

		var req createOrderRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondWithError(c, log, http.StatusBadRequest, route, "invalid request body")
			return
		}

		actor, ok := middleware.ActorFrom(c)
		if !ok {
			respondWithError(c, log, http.StatusUnauthorized, route, "unauthorized")
			return
		}

		order, err := buildOrderFromRequest(req, actor.UserID)
		if err != nil {
			respondWithError(c, log, http.StatusBadRequest, route, err.Error())
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		if err := st.Insert(ctx, order); err != nil {
			respondCoreError(c, log, route, err)
			return
		}

		log.Info("order placed",
			logger.String("orderNumber", order.OrderNumber),
			logger.String("userId", actor.UserID.Hex()))

		if owner, err := owners.RestaurantOwner(ctx, order.RestaurantID); err == nil {
			dispatcher.Dispatch(owner, notify.TemplateStatusChange, notify.Context{
				OrderNumber: order.OrderNumber,
				StatusName:  order.Status.DisplayName(),
			}, order.ID)
		} else {
			log.Error("cannot resolve restaurant owner", logger.Err(err))
		}

		c.JSON(http.StatusCreated, gin.H{
			"orderId":     order.ID.Hex(),
			"orderNumber": order.OrderNumber,
			"status":      order.Status,
		})
	}
}

func buildOrderFromRequest(req createOrderRequest, userID primitive.ObjectID) (*models.Order, error) {
	restaurantID, err := primitive.ObjectIDFromHex(req.RestaurantID)
	if err != nil {
		return nil, errors.New("invalid restaurantId")
	}
	if len(req.Items) == 0 {
		return nil, errors.New("at least one item is required")
	}

	items := make([]models.OrderItem, 0, len(req.Items))
	subtotal := 0.0
	for _, item := range req.Items {
		productID, err := primitive.ObjectIDFromHex(item.ProductID)
		if err != nil {
			return nil, errors.New("invalid productId")
		}
		if item.Quantity <= 0 {
			return nil, errors.New("quantity must be greater than zero")
		}
		if item.Price < 0 {
			return nil, errors.New("price cannot be negative")
		}
		items = append(items, models.OrderItem{
			ProductID: productID,
			Name:      strings.TrimSpace(item.Name),
			Price:     item.Price,
			Quantity:  item.Quantity,
		})
		subtotal += item.Price * float64(item.Quantity)
	}

	pricing := models.Pricing{
		Subtotal:    req.Pricing.Subtotal,
		Taxes:       req.Pricing.Taxes,
		DeliveryFee: req.Pricing.DeliveryFee,
		Discount:    req.Pricing.Discount,
		TotalAmount: req.Pricing.TotalAmount,
	}
	// Cent tolerance: the client's subtotal and ours can disagree in the
	// last bits depending on summation order.
	if !models.SameAmount(pricing.Subtotal, subtotal) {
		return nil, errors.New("subtotal does not match items")
	}
	if !pricing.Consistent() {
		return nil, errors.New("totalAmount does not match pricing components")
	}

	if req.Payment.Method != models.PaymentMethodCash && req.Payment.Method != "card" {
		return nil, errors.New("invalid payment method")
	}

	now := time.Now().UTC()
	order := &models.Order{
		OrderNumber:  newOrderNumber(now),
		UserID:       userID,
		RestaurantID: restaurantID,
		Items:        items,
		Pricing:      pricing,
		Status:       models.StatusPlaced,
		StatusHistory: []models.StatusHistoryEntry{
			{Status: models.StatusPlaced, Timestamp: now, Note: "order placed"},
		},
		Payment: models.Payment{
			Method:        req.Payment.Method,
			Status:        models.PaymentPending,
			TransactionID: req.Payment.TransactionID,
		},
		Timing:    models.Timing{PlacedAt: now},
		CreatedAt: now,
	}
	return order, nil
}

func newOrderNumber(now time.Time) string {
	fragment := strings.Split(uuid.NewString(), "-")[0]
	return fmt.Sprintf("FC_%s_%s", now.Format("20060102"), strings.ToUpper(fragment))
}
