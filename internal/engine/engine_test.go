package engine

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"foodcourt-backend/internal/logger"
	"foodcourt-backend/internal/models"
	"foodcourt-backend/internal/store"
)

type recordingNotifier struct {
	mu     sync.Mutex
	orders []*models.Order
	actors []models.Actor
}

func (n *recordingNotifier) NotifyStatusChange(_ context.Context, order *models.Order, actor models.Actor) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.orders = append(n.orders, order)
	n.actors = append(n.actors, actor)
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.orders)
}

func newTestOrder(status models.OrderStatus, paymentMethod string, paymentStatus models.PaymentStatus) *models.Order {
	now := time.Now().UTC().Add(-time.Minute)
	return &models.Order{
		ID:           primitive.NewObjectID(),
		OrderNumber:  "FC_20260830_TEST",
		UserID:       primitive.NewObjectID(),
		RestaurantID: primitive.NewObjectID(),
		Items: []models.OrderItem{
			{ProductID: primitive.NewObjectID(), Name: "Pad Thai", Price: 500, Quantity: 2},
		},
		Pricing: models.Pricing{Subtotal: 1000, TotalAmount: 1000},
		Status:  status,
		StatusHistory: []models.StatusHistoryEntry{
			{Status: status, Timestamp: now, Note: "seeded"},
		},
		Payment:   models.Payment{Method: paymentMethod, Status: paymentStatus},
		Timing:    models.Timing{PlacedAt: now},
		CreatedAt: now,
	}
}

func setupEngine(t *testing.T, order *models.Order) (*Engine, *store.MemoryStore, *recordingNotifier) {
	t.Helper()
	st := store.NewMemoryStore()
	require.NoError(t, st.Insert(context.Background(), order))
	notifier := &recordingNotifier{}
	return New(st, notifier, logger.Nop()), st, notifier
}

func vendorFor(order *models.Order) models.Actor {
	return models.Actor{UserID: primitive.NewObjectID(), Role: models.RoleVendor, RestaurantID: order.RestaurantID}
}

func customerFor(order *models.Order) models.Actor {
	return models.Actor{UserID: order.UserID, Role: models.RoleCustomer}
}

func adminActor() models.Actor {
	return models.Actor{UserID: primitive.NewObjectID(), Role: models.RoleAdmin}
}

func TestVendorConfirmsPlacedOrder(t *testing.T) {
	order := newTestOrder(models.StatusPlaced, "card", models.PaymentPending)
	eng, _, notifier := setupEngine(t, order)

	updated, err := eng.RequestTransition(context.Background(), order.ID, models.StatusConfirmed, vendorFor(order))
	require.NoError(t, err)

	assert.Equal(t, models.StatusConfirmed, updated.Status)
	assert.Len(t, updated.StatusHistory, 2)
	assert.Equal(t, models.StatusConfirmed, updated.StatusHistory[1].Status)
	assert.Equal(t, 1, notifier.count())
}

func TestCustomerCannotSkipToServed(t *testing.T) {
	order := newTestOrder(models.StatusPreparing, "card", models.PaymentCompleted)
	eng, _, _ := setupEngine(t, order)

	_, err := eng.RequestTransition(context.Background(), order.ID, models.StatusServed, customerFor(order))

	var invalid InvalidTransitionError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, models.StatusPreparing, invalid.Current)
}

func TestTerminalStateRejectsFurtherTransitions(t *testing.T) {
	order := newTestOrder(models.StatusConfirmed, "card", models.PaymentPending)
	eng, _, _ := setupEngine(t, order)

	cancelled, err := eng.RequestTransition(context.Background(), order.ID, models.StatusCancelled, adminActor())
	require.NoError(t, err)
	assert.Equal(t, models.StatusCancelled, cancelled.Status)

	_, err = eng.RequestTransition(context.Background(), order.ID, models.StatusConfirmed, vendorFor(order))
	var invalid InvalidTransitionError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, models.StatusCancelled, invalid.Current)
}

func TestTransitionIdempotence(t *testing.T) {
	order := newTestOrder(models.StatusPlaced, "card", models.PaymentPending)
	eng, _, notifier := setupEngine(t, order)
	vendor := vendorFor(order)

	first, err := eng.RequestTransition(context.Background(), order.ID, models.StatusConfirmed, vendor)
	require.NoError(t, err)
	require.Len(t, first.StatusHistory, 2)

	second, err := eng.RequestTransition(context.Background(), order.ID, models.StatusConfirmed, vendor)
	require.NoError(t, err)
	assert.Equal(t, models.StatusConfirmed, second.Status)
	assert.Len(t, second.StatusHistory, 2, "a duplicate request must not append history")
	assert.Equal(t, 1, notifier.count(), "a duplicate request must not re-notify")
}

func TestPaymentGate(t *testing.T) {
	t.Run("card order cannot be served before settlement", func(t *testing.T) {
		order := newTestOrder(models.StatusReady, "card", models.PaymentPending)
		eng, _, _ := setupEngine(t, order)

		_, err := eng.RequestTransition(context.Background(), order.ID, models.StatusServed, vendorFor(order))
		var invalid InvalidTransitionError
		require.ErrorAs(t, err, &invalid)
	})

	t.Run("cash order may be served before settlement", func(t *testing.T) {
		order := newTestOrder(models.StatusReady, models.PaymentMethodCash, models.PaymentPending)
		eng, _, _ := setupEngine(t, order)

		updated, err := eng.RequestTransition(context.Background(), order.ID, models.StatusServed, vendorFor(order))
		require.NoError(t, err)
		assert.Equal(t, models.StatusServed, updated.Status)
	})
}

func TestNonPartyCannotReadOrderViaCurrentStatus(t *testing.T) {
	order := newTestOrder(models.StatusPlaced, "card", models.PaymentPending)
	eng, _, _ := setupEngine(t, order)

	// Requesting the order's current status must not become a read channel
	// for actors who are not a party to the order.
	stranger := models.Actor{UserID: primitive.NewObjectID(), Role: models.RoleCustomer}
	got, err := eng.RequestTransition(context.Background(), order.ID, models.StatusPlaced, stranger)
	var invalid InvalidTransitionError
	require.ErrorAs(t, err, &invalid)
	assert.Nil(t, got)

	foreignVendor := models.Actor{UserID: primitive.NewObjectID(), Role: models.RoleVendor, RestaurantID: primitive.NewObjectID()}
	got, err = eng.RequestTransition(context.Background(), order.ID, models.StatusPlaced, foreignVendor)
	require.ErrorAs(t, err, &invalid)
	assert.Nil(t, got)

	// Legitimate parties still get the idempotent no-op.
	current, err := eng.RequestTransition(context.Background(), order.ID, models.StatusPlaced, customerFor(order))
	require.NoError(t, err)
	assert.Equal(t, models.StatusPlaced, current.Status)
	assert.Len(t, current.StatusHistory, 1)
}

func TestVendorOfAnotherRestaurantIsRejected(t *testing.T) {
	order := newTestOrder(models.StatusPlaced, "card", models.PaymentPending)
	eng, _, _ := setupEngine(t, order)

	stranger := models.Actor{UserID: primitive.NewObjectID(), Role: models.RoleVendor, RestaurantID: primitive.NewObjectID()}
	_, err := eng.RequestTransition(context.Background(), order.ID, models.StatusConfirmed, stranger)

	var invalid InvalidTransitionError
	require.ErrorAs(t, err, &invalid)
}

// TestAuthorityTable checks the accept/reject decision for the full
// cartesian product of (from, to, role) against the documented rules.
func TestAuthorityTable(t *testing.T) {
	statuses := []models.OrderStatus{
		models.StatusPlaced, models.StatusConfirmed, models.StatusPreparing,
		models.StatusReady, models.StatusServed, models.StatusCompleted,
		models.StatusCancelled,
	}
	roles := []models.Role{models.RoleCustomer, models.RoleVendor, models.RoleAdmin}

	index := map[models.OrderStatus]int{
		models.StatusPlaced: 0, models.StatusConfirmed: 1, models.StatusPreparing: 2,
		models.StatusReady: 3, models.StatusServed: 4, models.StatusCompleted: 5,
	}

	expected := func(from, to models.OrderStatus, role models.Role) bool {
		if from.IsTerminal() {
			return false
		}
		if to == models.StatusCancelled {
			if role == models.RoleAdmin {
				return true
			}
			return from == models.StatusPlaced || from == models.StatusConfirmed
		}
		fromIdx, toIdx := index[from], index[to]
		if toIdx <= fromIdx {
			return false
		}
		switch role {
		case models.RoleAdmin:
			return true
		case models.RoleVendor:
			return toIdx == fromIdx+1
		default:
			return false
		}
	}

	for _, from := range statuses {
		for _, to := range statuses {
			if from == to {
				continue // same-status requests are idempotent no-ops, not edges
			}
			for _, role := range roles {
				got, _ := authorize(from, to, role)
				assert.Equalf(t, expected(from, to, role), got,
					"authorize(%s -> %s, %s)", from, to, role)
			}
		}
	}
}

func TestHistoryMonotonicity(t *testing.T) {
	order := newTestOrder(models.StatusPlaced, models.PaymentMethodCash, models.PaymentPending)
	eng, st, _ := setupEngine(t, order)
	vendor := vendorFor(order)

	path := []models.OrderStatus{
		models.StatusConfirmed, models.StatusPreparing, models.StatusReady,
		models.StatusServed, models.StatusCompleted,
	}
	for _, target := range path {
		_, err := eng.RequestTransition(context.Background(), order.ID, target, vendor)
		require.NoError(t, err)
	}

	final, err := st.Get(context.Background(), order.ID)
	require.NoError(t, err)
	require.Len(t, final.StatusHistory, len(path)+1)

	for i := 1; i < len(final.StatusHistory); i++ {
		prev, curr := final.StatusHistory[i-1], final.StatusHistory[i]
		assert.True(t, curr.Timestamp.After(prev.Timestamp),
			"history timestamps must be strictly increasing")
		next, ok := prev.Status.NextForward()
		require.True(t, ok)
		assert.Equal(t, next, curr.Status, "history must trace the legal forward chain")
	}
	assert.Equal(t, final.Status, final.StatusHistory[len(final.StatusHistory)-1].Status)
	require.NotNil(t, final.Timing.CompletedAt)
}

// barrierStore holds the first two readers at the read until each has its
// snapshot, so the replace phase genuinely races. Later reads (the loser's
// stale re-read) pass through.
type barrierStore struct {
	*store.MemoryStore
	mu        sync.Mutex
	remaining int
	release   chan struct{}
}

func newBarrierStore(mem *store.MemoryStore, racers int) *barrierStore {
	return &barrierStore{MemoryStore: mem, remaining: racers, release: make(chan struct{})}
}

func (s *barrierStore) Get(ctx context.Context, id primitive.ObjectID) (*models.Order, error) {
	order, err := s.MemoryStore.Get(ctx, id)
	if err != nil {
		return order, err
	}
	s.mu.Lock()
	if s.remaining > 0 {
		s.remaining--
		if s.remaining == 0 {
			close(s.release)
		}
		s.mu.Unlock()
		<-s.release
	} else {
		s.mu.Unlock()
	}
	return order, err
}

func TestConcurrentTransitionsExactlyOneWins(t *testing.T) {
	order := newTestOrder(models.StatusPreparing, "card", models.PaymentCompleted)
	mem := store.NewMemoryStore()
	require.NoError(t, mem.Insert(context.Background(), order))

	st := newBarrierStore(mem, 2)
	eng := New(st, &recordingNotifier{}, logger.Nop())

	type outcome struct {
		target models.OrderStatus
		err    error
	}
	results := make(chan outcome, 2)

	go func() {
		_, err := eng.RequestTransition(context.Background(), order.ID, models.StatusReady, vendorFor(order))
		results <- outcome{models.StatusReady, err}
	}()
	go func() {
		_, err := eng.RequestTransition(context.Background(), order.ID, models.StatusCancelled, adminActor())
		results <- outcome{models.StatusCancelled, err}
	}()

	var winners []models.OrderStatus
	for i := 0; i < 2; i++ {
		res := <-results
		if res.err == nil {
			winners = append(winners, res.target)
			continue
		}
		var stale StaleWriteError
		require.ErrorAs(t, res.err, &stale, "the loser must observe the concurrent write")
	}
	require.Len(t, winners, 1, "exactly one of two racing transitions may win")

	final, err := mem.Get(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, winners[0], final.Status)
	assert.Len(t, final.StatusHistory, 2, "the losing request must not append history")
}

func TestStaleRetryOfSameTargetStaysIdempotent(t *testing.T) {
	order := newTestOrder(models.StatusPlaced, "card", models.PaymentPending)
	mem := store.NewMemoryStore()
	require.NoError(t, mem.Insert(context.Background(), order))

	st := newBarrierStore(mem, 2)
	eng := New(st, &recordingNotifier{}, logger.Nop())

	// Two identical retries race each other; both must succeed and history
	// must gain exactly one entry.
	results := make(chan error, 2)
	for i := 0; i < 2; i++ {
		go func() {
			_, err := eng.RequestTransition(context.Background(), order.ID, models.StatusConfirmed, adminActor())
			results <- err
		}()
	}
	require.NoError(t, <-results)
	require.NoError(t, <-results)

	final, err := mem.Get(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusConfirmed, final.Status)
	assert.Len(t, final.StatusHistory, 2)
}

func TestUnknownOrderReturnsNotFound(t *testing.T) {
	eng := New(store.NewMemoryStore(), &recordingNotifier{}, logger.Nop())
	_, err := eng.RequestTransition(context.Background(), primitive.NewObjectID(), models.StatusConfirmed, adminActor())
	assert.ErrorIs(t, err, store.ErrNotFound)
}
