package models

import (
	"math"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PaymentStatus tracks settlement of an order's payment.
type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
	PaymentRefunded  PaymentStatus = "refunded"
	PaymentFailed    PaymentStatus = "failed"
)

// PaymentMethodCash marks cash-on-delivery orders, which may be served
// before the payment settles.
const PaymentMethodCash = "cash"

// OrderItem represents a single menu entry within an order.
type OrderItem struct {
	ProductID primitive.ObjectID `bson:"productId" json:"productId"`
	Name      string             `bson:"name" json:"name"`
	Price     float64            `bson:"price" json:"price"`
	Quantity  int                `bson:"quantity" json:"quantity"`
}

// Pricing is the settled monetary breakdown of an order.
// TotalAmount must equal Subtotal + Taxes + DeliveryFee - Discount and is
// frozen once the payment completes.
type Pricing struct {
	Subtotal    float64 `bson:"subtotal" json:"subtotal"`
	Taxes       float64 `bson:"taxes" json:"taxes"`
	DeliveryFee float64 `bson:"deliveryFee" json:"deliveryFee"`
	Discount    float64 `bson:"discount" json:"discount"`
	TotalAmount float64 `bson:"totalAmount" json:"totalAmount"`
}

// amountEpsilon is half a cent: amounts closer than this are the same
// money value, whatever float summation order produced them.
const amountEpsilon = 0.005

// SameAmount reports whether two monetary amounts agree to the cent.
func SameAmount(a, b float64) bool {
	return math.Abs(a-b) < amountEpsilon
}

// Consistent reports whether the total matches its components.
func (p Pricing) Consistent() bool {
	return SameAmount(p.TotalAmount, p.Subtotal+p.Taxes+p.DeliveryFee-p.Discount)
}

// Payment captures how and whether the order was paid.
type Payment struct {
	Method        string        `bson:"method" json:"method"`
	Status        PaymentStatus `bson:"status" json:"status"`
	TransactionID string        `bson:"transactionId,omitempty" json:"transactionId,omitempty"`
}

// Settled reports whether the payment has completed.
func (p Payment) Settled() bool {
	return p.Status == PaymentCompleted
}

// StatusHistoryEntry is one step of an order's append-only lifecycle trace.
type StatusHistoryEntry struct {
	Status    OrderStatus `bson:"status" json:"status"`
	Timestamp time.Time   `bson:"timestamp" json:"timestamp"`
	Note      string      `bson:"note,omitempty" json:"note,omitempty"`
}

// Timing holds lifecycle timestamps, each set exactly once.
type Timing struct {
	PlacedAt    time.Time  `bson:"placedAt" json:"placedAt"`
	EstimatedAt *time.Time `bson:"estimatedAt,omitempty" json:"estimatedAt,omitempty"`
	ReadyAt     *time.Time `bson:"readyAt,omitempty" json:"readyAt,omitempty"`
	ServedAt    *time.Time `bson:"servedAt,omitempty" json:"servedAt,omitempty"`
	CompletedAt *time.Time `bson:"completedAt,omitempty" json:"completedAt,omitempty"`
	CancelledAt *time.Time `bson:"cancelledAt,omitempty" json:"cancelledAt,omitempty"`
}

// Order defines the persisted order document. UserID and RestaurantID are
// immutable after creation; Items are immutable once the order has left the
// placed state; StatusHistory is append-only and its last entry always
// matches Status.
type Order struct {
	ID            primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	OrderNumber   string               `bson:"orderNumber" json:"orderNumber"`
	UserID        primitive.ObjectID   `bson:"userId" json:"userId"`
	RestaurantID  primitive.ObjectID   `bson:"restaurantId" json:"restaurantId"`
	Items         []OrderItem          `bson:"items" json:"items"`
	Pricing       Pricing              `bson:"pricing" json:"pricing"`
	Status        OrderStatus          `bson:"status" json:"status"`
	StatusHistory []StatusHistoryEntry `bson:"statusHistory" json:"statusHistory"`
	Payment       Payment              `bson:"payment" json:"payment"`
	Timing        Timing               `bson:"timing" json:"timing"`
	CreatedAt     time.Time            `bson:"createdAt" json:"createdAt"`
}

// Clone returns a deep copy so callers can mutate a candidate document
// without touching the snapshot they read.
func (o *Order) Clone() *Order {
	cp := *o
	cp.Items = append([]OrderItem(nil), o.Items...)
	cp.StatusHistory = append([]StatusHistoryEntry(nil), o.StatusHistory...)
	return &cp
}
