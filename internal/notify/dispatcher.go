package notify

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"foodcourt-backend/internal/logger"
	"foodcourt-backend/internal/models"
)

// Sink accepts notifications for downstream delivery. Push, SMS or email
// fan-out happens behind it and is out of scope here.
type Sink interface {
	Deliver(ctx context.Context, n *models.Notification) error
}

// OwnerResolver maps a restaurant to the vendor account that should receive
// its notifications.
type OwnerResolver interface {
	RestaurantOwner(ctx context.Context, restaurantID primitive.ObjectID) (primitive.ObjectID, error)
}

// DispatchFailedError reports delivery failure after all attempts. It is
// logged, never returned into the transition path: the order's committed
// state is not held hostage to notification delivery.
type DispatchFailedError struct {
	UserID   primitive.ObjectID
	Template Template
	Err      error
}

func (e DispatchFailedError) Error() string {
	return fmt.Sprintf("dispatch of %s to %s failed: %v", e.Template, e.UserID.Hex(), e.Err)
}

func (e DispatchFailedError) Unwrap() error { return e.Err }

// Dispatcher turns transition and account events into user-facing
// notifications, delivered at-least-once with bounded retry, decoupled from
// the triggering write.
type Dispatcher struct {
	sink     Sink
	owners   OwnerResolver
	log      logger.ILogger
	wg       sync.WaitGroup
	attempts int
	backoff  time.Duration
}

func NewDispatcher(sink Sink, owners OwnerResolver, log logger.ILogger) *Dispatcher {
	return &Dispatcher{
		sink:     sink,
		owners:   owners,
		log:      log,
		attempts: 3,
		backoff:  500 * time.Millisecond,
	}
}

// Dispatch builds a notification from a fixed template and queues it for
// delivery. Returns the built record immediately; delivery proceeds in the
// background.
func (d *Dispatcher) Dispatch(userID primitive.ObjectID, template Template, tctx Context, relatedOrderID primitive.ObjectID) *models.Notification {
	title, message := render(template, tctx)
	n := &models.Notification{
		ID:             primitive.NewObjectID(),
		UserID:         userID,
		Title:          title,
		Message:        message,
		RelatedOrderID: relatedOrderID,
		Read:           false,
		CreatedAt:      time.Now().UTC(),
	}

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		d.deliverWithRetry(n, template)
	}()
	return n
}

// NotifyStatusChange implements the transition engine's notifier contract.
// A vendor or admin change notifies the customer; a customer change (a
// cancellation) notifies the vendor; an admin override notifies both.
func (d *Dispatcher) NotifyStatusChange(ctx context.Context, order *models.Order, actor models.Actor) {
	tctx := Context{
		OrderNumber: order.OrderNumber,
		StatusName:  order.Status.DisplayName(),
	}

	notifyCustomer := actor.Role == models.RoleVendor || actor.Role == models.RoleAdmin
	notifyVendor := actor.Role == models.RoleCustomer || actor.Role == models.RoleAdmin

	if notifyCustomer {
		d.Dispatch(order.UserID, TemplateStatusChange, tctx, order.ID)
	}
	if notifyVendor {
		owner, err := d.owners.RestaurantOwner(ctx, order.RestaurantID)
		if err != nil {
			d.log.Error("cannot resolve restaurant owner",
				logger.String("restaurantId", order.RestaurantID.Hex()),
				logger.Err(err))
			return
		}
		d.Dispatch(owner, TemplateStatusChange, tctx, order.ID)
	}
}

func (d *Dispatcher) deliverWithRetry(n *models.Notification, template Template) {
	var lastErr error
	for attempt := 1; attempt <= d.attempts; attempt++ {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		lastErr = d.sink.Deliver(ctx, n)
		cancel()
		if lastErr == nil {
			return
		}
		d.log.Warning("notification delivery failed, retrying",
			logger.String("userId", n.UserID.Hex()),
			logger.Int("attempt", attempt),
			logger.Err(lastErr))
		time.Sleep(d.backoff * time.Duration(attempt))
	}
	d.log.Error("notification dropped",
		logger.Err(DispatchFailedError{UserID: n.UserID, Template: template, Err: lastErr}))
}

// Wait blocks until all queued deliveries finish. Used on shutdown and in
// tests.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}
