package realtime

import (
	"context"
	"sync"

	"foodcourt-backend/internal/logger"
	"foodcourt-backend/internal/models"
	"foodcourt-backend/internal/store"
)

// Snapshot is a full materialization of the orders matching a subscription
// filter. Consumers replace their view wholesale; Seq is non-decreasing
// within one subscription.
type Snapshot struct {
	Seq    uint64         `json:"seq"`
	Orders []models.Order `json:"orders"`
}

// Hub turns store change events into per-subscriber snapshot streams. Every
// mutation of a watched order triggers a fresh query, so subscribers
// converge on the authoritative store state without polling.
type Hub struct {
	store store.OrderStore
	log   logger.ILogger
}

func NewHub(st store.OrderStore, log logger.ILogger) *Hub {
	return &Hub{store: st, log: log}
}

// Subscribe opens a snapshot stream for one restaurant's or one customer's
// orders. The returned unsubscribe func is idempotent and must be called on
// every exit path; an abandoned subscription leaks a live change stream.
//
// Delivery is latest-wins: if the consumer lags, intermediate snapshots are
// dropped, never reordered.
func (h *Hub) Subscribe(ctx context.Context, filter store.Filter) (<-chan Snapshot, func(), error) {
	events, stopWatch, err := h.store.Watch(ctx, filter)
	if err != nil {
		return nil, nil, err
	}

	out := make(chan Snapshot, 1)

	go func() {
		defer close(out)

		var seq uint64
		// Initial materialization so the subscriber starts from the current
		// state rather than the first mutation.
		if snap, ok := h.materialize(ctx, filter, &seq); ok {
			deliver(out, snap)
		}
		for range events {
			snap, ok := h.materialize(ctx, filter, &seq)
			if !ok {
				continue
			}
			deliver(out, snap)
		}
	}()

	var once sync.Once
	unsubscribe := func() {
		once.Do(stopWatch)
	}
	return out, unsubscribe, nil
}

func (h *Hub) materialize(ctx context.Context, filter store.Filter, seq *uint64) (Snapshot, bool) {
	orders, err := h.store.Query(ctx, filter)
	if err != nil {
		// The next change event triggers another query; subscribers keep
		// their last consistent view meanwhile.
		h.log.Error("snapshot query failed", logger.Err(err))
		return Snapshot{}, false
	}
	*seq++
	return Snapshot{Seq: *seq, Orders: orders}, true
}

// deliver replaces a stale undelivered snapshot instead of blocking on a
// slow consumer.
func deliver(out chan Snapshot, snap Snapshot) {
	for {
		select {
		case out <- snap:
			return
		default:
			select {
			case <-out:
			default:
			}
		}
	}
}
