package store

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"foodcourt-backend/internal/models"
)

var (
	// ErrNotFound is returned when no order matches the requested id.
	ErrNotFound = errors.New("order not found")
	// ErrStale is returned by Replace when the stored status no longer
	// matches the expected one, i.e. another writer landed first.
	ErrStale = errors.New("stored status changed since read")
)

// UnavailableError wraps a driver or transport failure. Callers retry with
// backoff; the store itself never retries, a duplicate replace could append
// history twice.
type UnavailableError struct {
	Op  string
	Err error
}

func (e UnavailableError) Error() string {
	return fmt.Sprintf("store unavailable during %s: %v", e.Op, e.Err)
}

func (e UnavailableError) Unwrap() error { return e.Err }

// Filter selects the orders of one restaurant or one customer. Exactly one
// of the two ids is set.
type Filter struct {
	RestaurantID primitive.ObjectID
	CustomerID   primitive.ObjectID
}

// ForRestaurant builds a filter over a vendor's orders.
func ForRestaurant(id primitive.ObjectID) Filter {
	return Filter{RestaurantID: id}
}

// ForCustomer builds a filter over a customer's orders.
func ForCustomer(id primitive.ObjectID) Filter {
	return Filter{CustomerID: id}
}

// Matches reports whether the order belongs to the filtered view.
func (f Filter) Matches(o *models.Order) bool {
	if !f.RestaurantID.IsZero() {
		return o.RestaurantID == f.RestaurantID
	}
	if !f.CustomerID.IsZero() {
		return o.UserID == f.CustomerID
	}
	return false
}

// Event signals that an order within a watched view changed.
type Event struct {
	OrderID primitive.ObjectID
}

// OrderStore is the persistence boundary for orders. Writes are
// whole-document replaces; single-document writes are assumed atomic, no
// cross-document transaction is assumed.
type OrderStore interface {
	Get(ctx context.Context, id primitive.ObjectID) (*models.Order, error)
	Insert(ctx context.Context, order *models.Order) error
	// Replace swaps the stored document for order, guarded on the status the
	// caller read. A lost race yields ErrStale and leaves the store untouched.
	Replace(ctx context.Context, order *models.Order, expected models.OrderStatus) error
	Query(ctx context.Context, filter Filter) ([]models.Order, error)
	// Watch streams change events for orders matching the filter until stop
	// is called or ctx ends. stop is idempotent.
	Watch(ctx context.Context, filter Filter) (events <-chan Event, stop func(), err error)
}
