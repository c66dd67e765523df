package notify

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"foodcourt-backend/internal/logger"
	"foodcourt-backend/internal/models"
)

type fakeSink struct {
	mu        sync.Mutex
	delivered []*models.Notification
	failures  int
}

func (s *fakeSink) Deliver(_ context.Context, n *models.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failures > 0 {
		s.failures--
		return errors.New("sink down")
	}
	s.delivered = append(s.delivered, n)
	return nil
}

func (s *fakeSink) recipients() []primitive.ObjectID {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]primitive.ObjectID, 0, len(s.delivered))
	for _, n := range s.delivered {
		ids = append(ids, n.UserID)
	}
	return ids
}

type fakeOwners struct {
	owner primitive.ObjectID
}

func (o fakeOwners) RestaurantOwner(context.Context, primitive.ObjectID) (primitive.ObjectID, error) {
	return o.owner, nil
}

func newTestDispatcher(sink Sink, owners OwnerResolver) *Dispatcher {
	d := NewDispatcher(sink, owners, logger.Nop())
	d.backoff = time.Millisecond
	return d
}

func notifiedOrder() *models.Order {
	return &models.Order{
		ID:           primitive.NewObjectID(),
		OrderNumber:  "FC_20260830_NTFY",
		UserID:       primitive.NewObjectID(),
		RestaurantID: primitive.NewObjectID(),
		Status:       models.StatusConfirmed,
	}
}

func TestDispatchRetriesUntilDelivered(t *testing.T) {
	sink := &fakeSink{failures: 2}
	d := newTestDispatcher(sink, fakeOwners{})

	userID := primitive.NewObjectID()
	n := d.Dispatch(userID, TemplatePayoutApproved, Context{Detail: "450.00 credited."}, primitive.NilObjectID)
	require.NotNil(t, n)
	assert.Equal(t, "Payout approved", n.Title)

	d.Wait()
	require.Len(t, sink.delivered, 1)
	assert.Equal(t, userID, sink.delivered[0].UserID)
}

func TestDispatchGivesUpAfterMaxAttempts(t *testing.T) {
	sink := &fakeSink{failures: 100}
	d := newTestDispatcher(sink, fakeOwners{})

	d.Dispatch(primitive.NewObjectID(), TemplateAccountSuspended, Context{}, primitive.NilObjectID)
	d.Wait()

	assert.Empty(t, sink.delivered, "delivery must stop after the attempt budget")
}

func TestVendorChangeNotifiesCustomerOnly(t *testing.T) {
	sink := &fakeSink{}
	owner := primitive.NewObjectID()
	d := newTestDispatcher(sink, fakeOwners{owner: owner})

	order := notifiedOrder()
	vendor := models.Actor{UserID: primitive.NewObjectID(), Role: models.RoleVendor, RestaurantID: order.RestaurantID}
	d.NotifyStatusChange(context.Background(), order, vendor)
	d.Wait()

	require.Len(t, sink.delivered, 1)
	assert.Equal(t, order.UserID, sink.delivered[0].UserID)
	assert.Equal(t, order.ID, sink.delivered[0].RelatedOrderID)
}

func TestCustomerCancellationNotifiesVendorOnly(t *testing.T) {
	sink := &fakeSink{}
	owner := primitive.NewObjectID()
	d := newTestDispatcher(sink, fakeOwners{owner: owner})

	order := notifiedOrder()
	customer := models.Actor{UserID: order.UserID, Role: models.RoleCustomer}
	d.NotifyStatusChange(context.Background(), order, customer)
	d.Wait()

	require.Len(t, sink.delivered, 1)
	assert.Equal(t, owner, sink.delivered[0].UserID)
}

func TestAdminOverrideNotifiesBothParties(t *testing.T) {
	sink := &fakeSink{}
	owner := primitive.NewObjectID()
	d := newTestDispatcher(sink, fakeOwners{owner: owner})

	order := notifiedOrder()
	admin := models.Actor{UserID: primitive.NewObjectID(), Role: models.RoleAdmin}
	d.NotifyStatusChange(context.Background(), order, admin)
	d.Wait()

	recipients := sink.recipients()
	require.Len(t, recipients, 2)
	assert.Contains(t, recipients, order.UserID)
	assert.Contains(t, recipients, owner)
}

func TestRedeliveryKeepsContentIdentical(t *testing.T) {
	tctx := Context{OrderNumber: "FC_20260830_NTFY", StatusName: "Confirmed"}
	firstTitle, firstMessage := render(TemplateStatusChange, tctx)
	secondTitle, secondMessage := render(TemplateStatusChange, tctx)
	assert.Equal(t, firstTitle, secondTitle)
	assert.Equal(t, firstMessage, secondMessage)
}
