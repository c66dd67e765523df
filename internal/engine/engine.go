package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"foodcourt-backend/internal/logger"
	"foodcourt-backend/internal/models"
	"foodcourt-backend/internal/store"
)

// prepEstimate is the default kitchen estimate stamped when an order enters
// preparation.
const prepEstimate = 15 * time.Minute

// Notifier receives the committed transition for counter-party messaging.
// Implementations must not block and must never fail the transition.
type Notifier interface {
	NotifyStatusChange(ctx context.Context, order *models.Order, actor models.Actor)
}

// Engine validates and applies order status transitions. It is stateless:
// every request read-validates-writes against the latest stored document,
// never against a snapshot held by the caller.
type Engine struct {
	store    store.OrderStore
	notifier Notifier
	log      logger.ILogger
	now      func() time.Time
}

func New(st store.OrderStore, notifier Notifier, log logger.ILogger) *Engine {
	return &Engine{
		store:    st,
		notifier: notifier,
		log:      log,
		now:      time.Now,
	}
}

// RequestTransition moves an order to target on behalf of actor.
//
// Re-issuing an already-applied transition is a no-op returning the current
// record, so duplicate network retries never duplicate history. A request
// that loses a race to a concurrent writer returns StaleWriteError without
// touching the store.
func (e *Engine) RequestTransition(ctx context.Context, orderID primitive.ObjectID, target models.OrderStatus, actor models.Actor) (*models.Order, error) {
	if !models.IsValidStatus(target) {
		return nil, InvalidTransitionError{
			Target: target,
			Role:   actor.Role,
			Reason: "unknown target status",
		}
	}

	order, err := e.store.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}

	// Party membership is checked before the idempotence short-circuit so a
	// no-op never hands the order document to a stranger.
	if !owns(order, actor) {
		return nil, InvalidTransitionError{
			Current: order.Status,
			Target:  target,
			Role:    actor.Role,
			Reason:  "actor is not a party to this order",
		}
	}

	// Duplicate of an already-applied request.
	if order.Status == target {
		return order, nil
	}
	if ok, reason := authorize(order.Status, target, actor.Role); !ok {
		return nil, InvalidTransitionError{
			Current: order.Status,
			Target:  target,
			Role:    actor.Role,
			Reason:  reason,
		}
	}
	if ok, reason := paymentGate(order, target); !ok {
		return nil, InvalidTransitionError{
			Current: order.Status,
			Target:  target,
			Role:    actor.Role,
			Reason:  reason,
		}
	}

	updated := e.apply(order, target, actor)

	if err := e.store.Replace(ctx, updated, order.Status); err != nil {
		if errors.Is(err, store.ErrStale) {
			return e.resolveStale(ctx, orderID, target)
		}
		return nil, err
	}

	e.log.Info("order transition applied",
		logger.String("orderNumber", updated.OrderNumber),
		logger.String("from", string(order.Status)),
		logger.String("to", string(target)),
		logger.String("role", string(actor.Role)))

	e.notifier.NotifyStatusChange(ctx, updated, actor)
	return updated, nil
}

// apply builds the candidate document: new status, one appended history
// entry with a server timestamp, and the matching timing stamp set once.
func (e *Engine) apply(order *models.Order, target models.OrderStatus, actor models.Actor) *models.Order {
	updated := order.Clone()
	now := e.now().UTC()

	// History timestamps are strictly increasing even under clock skew.
	if n := len(updated.StatusHistory); n > 0 {
		if last := updated.StatusHistory[n-1].Timestamp; !now.After(last) {
			now = last.Add(time.Millisecond)
		}
	}

	updated.Status = target
	updated.StatusHistory = append(updated.StatusHistory, models.StatusHistoryEntry{
		Status:    target,
		Timestamp: now,
		Note:      fmt.Sprintf("set by %s", actor.Role),
	})

	switch target {
	case models.StatusPreparing:
		if updated.Timing.EstimatedAt == nil {
			est := now.Add(prepEstimate)
			updated.Timing.EstimatedAt = &est
		}
	case models.StatusReady:
		if updated.Timing.ReadyAt == nil {
			updated.Timing.ReadyAt = &now
		}
	case models.StatusServed:
		if updated.Timing.ServedAt == nil {
			updated.Timing.ServedAt = &now
		}
	case models.StatusCompleted:
		if updated.Timing.CompletedAt == nil {
			updated.Timing.CompletedAt = &now
		}
	case models.StatusCancelled:
		if updated.Timing.CancelledAt == nil {
			updated.Timing.CancelledAt = &now
		}
	}
	return updated
}

// resolveStale re-reads after a lost race. A retry that raced itself (the
// store already holds the target) stays idempotent; anything else surfaces
// StaleWriteError with the status that actually won.
func (e *Engine) resolveStale(ctx context.Context, orderID primitive.ObjectID, target models.OrderStatus) (*models.Order, error) {
	current, err := e.store.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if current.Status == target {
		return current, nil
	}
	return nil, StaleWriteError{Current: current.Status, Target: target}
}
