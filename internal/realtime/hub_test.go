package realtime

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"foodcourt-backend/internal/logger"
	"foodcourt-backend/internal/models"
	"foodcourt-backend/internal/store"
)

func placedOrder(restaurantID primitive.ObjectID, createdAt time.Time) *models.Order {
	return &models.Order{
		OrderNumber:  "FC_20260830_HUB",
		UserID:       primitive.NewObjectID(),
		RestaurantID: restaurantID,
		Status:       models.StatusPlaced,
		StatusHistory: []models.StatusHistoryEntry{
			{Status: models.StatusPlaced, Timestamp: createdAt},
		},
		CreatedAt: createdAt,
	}
}

func waitForSnapshot(t *testing.T, snapshots <-chan Snapshot) Snapshot {
	t.Helper()
	select {
	case snap, ok := <-snapshots:
		require.True(t, ok, "snapshot stream closed unexpectedly")
		return snap
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for snapshot")
		return Snapshot{}
	}
}

func TestSubscribeDeliversInitialSnapshot(t *testing.T) {
	st := store.NewMemoryStore()
	restaurantID := primitive.NewObjectID()
	require.NoError(t, st.Insert(context.Background(), placedOrder(restaurantID, time.Now().UTC())))

	hub := NewHub(st, logger.Nop())
	snapshots, unsubscribe, err := hub.Subscribe(context.Background(), store.ForRestaurant(restaurantID))
	require.NoError(t, err)
	defer unsubscribe()

	snap := waitForSnapshot(t, snapshots)
	assert.Len(t, snap.Orders, 1)
}

func TestSubscriberConvergesToLatestState(t *testing.T) {
	st := store.NewMemoryStore()
	restaurantID := primitive.NewObjectID()
	hub := NewHub(st, logger.Nop())

	snapshots, unsubscribe, err := hub.Subscribe(context.Background(), store.ForRestaurant(restaurantID))
	require.NoError(t, err)
	defer unsubscribe()

	first := waitForSnapshot(t, snapshots)
	assert.Empty(t, first.Orders)

	order := placedOrder(restaurantID, time.Now().UTC())
	require.NoError(t, st.Insert(context.Background(), order))

	// Latest-wins delivery: keep reading until the insert is visible.
	deadline := time.After(2 * time.Second)
	var lastSeq uint64 = first.Seq
	for {
		select {
		case snap, ok := <-snapshots:
			require.True(t, ok)
			assert.GreaterOrEqual(t, snap.Seq, lastSeq, "sequence must be non-decreasing")
			lastSeq = snap.Seq
			if len(snap.Orders) == 1 && snap.Orders[0].ID == order.ID {
				return
			}
		case <-deadline:
			t.Fatal("subscriber never observed the inserted order")
		}
	}
}

func TestUnsubscribeClosesStreamAndIsIdempotent(t *testing.T) {
	st := store.NewMemoryStore()
	hub := NewHub(st, logger.Nop())

	snapshots, unsubscribe, err := hub.Subscribe(context.Background(), store.ForRestaurant(primitive.NewObjectID()))
	require.NoError(t, err)

	unsubscribe()
	unsubscribe()

	deadline := time.After(2 * time.Second)
	for {
		select {
		case _, open := <-snapshots:
			if !open {
				return
			}
		case <-deadline:
			t.Fatal("snapshot stream did not close after unsubscribe")
		}
	}
}

func TestContextCancellationReleasesSubscription(t *testing.T) {
	st := store.NewMemoryStore()
	hub := NewHub(st, logger.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	snapshots, unsubscribe, err := hub.Subscribe(ctx, store.ForRestaurant(primitive.NewObjectID()))
	require.NoError(t, err)
	defer unsubscribe()

	cancel()

	deadline := time.After(2 * time.Second)
	for {
		select {
		case _, open := <-snapshots:
			if !open {
				return
			}
		case <-deadline:
			t.Fatal("snapshot stream did not close after context cancellation")
		}
	}
}
