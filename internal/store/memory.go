package store

import (
	"context"
	"sort"
	"sync"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"foodcourt-backend/internal/models"
)

// MemoryStore is a mutex-guarded in-memory OrderStore. It backs tests and
// local development and mirrors the concurrency semantics of the mongo
// adapter: atomic single-document writes, status-guarded replace, change
// events fanned out to watchers.
type MemoryStore struct {
	mu       sync.Mutex
	orders   map[primitive.ObjectID]*models.Order
	watchers map[int]*memoryWatcher
	nextID   int
}

type memoryWatcher struct {
	filter Filter
	events chan Event
	done   chan struct{}
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		orders:   make(map[primitive.ObjectID]*models.Order),
		watchers: make(map[int]*memoryWatcher),
	}
}

func (s *MemoryStore) Get(_ context.Context, id primitive.ObjectID) (*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	order, ok := s.orders[id]
	if !ok {
		return nil, ErrNotFound
	}
	return order.Clone(), nil
}

func (s *MemoryStore) Insert(_ context.Context, order *models.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if order.ID.IsZero() {
		order.ID = primitive.NewObjectID()
	}
	s.orders[order.ID] = order.Clone()
	s.notifyLocked(order)
	return nil
}

func (s *MemoryStore) Replace(_ context.Context, order *models.Order, expected models.OrderStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.orders[order.ID]
	if !ok {
		return ErrNotFound
	}
	if current.Status != expected {
		return ErrStale
	}
	s.orders[order.ID] = order.Clone()
	s.notifyLocked(order)
	return nil
}

func (s *MemoryStore) Query(_ context.Context, filter Filter) ([]models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var orders []models.Order
	for _, order := range s.orders {
		if filter.Matches(order) {
			orders = append(orders, *order.Clone())
		}
	}
	sort.Slice(orders, func(i, j int) bool {
		return orders[i].CreatedAt.After(orders[j].CreatedAt)
	})
	return orders, nil
}

func (s *MemoryStore) Watch(ctx context.Context, filter Filter) (<-chan Event, func(), error) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	w := &memoryWatcher{
		filter: filter,
		events: make(chan Event, 16),
		done:   make(chan struct{}),
	}
	s.watchers[id] = w
	s.mu.Unlock()

	var once sync.Once
	stop := func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.watchers, id)
			s.mu.Unlock()
			close(w.done)
			close(w.events)
		})
	}

	if ctx.Done() != nil {
		go func() {
			select {
			case <-ctx.Done():
				stop()
			case <-w.done:
			}
		}()
	}
	return w.events, stop, nil
}

// notifyLocked fans the change out to matching watchers. Sends never block;
// a watcher with a full buffer misses an event, which is acceptable because
// consumers re-query full snapshots.
func (s *MemoryStore) notifyLocked(order *models.Order) {
	for _, w := range s.watchers {
		if !w.filter.Matches(order) {
			continue
		}
		select {
		case w.events <- Event{OrderID: order.ID}:
		default:
		}
	}
}
