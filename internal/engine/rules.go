package engine

import "foodcourt-backend/internal/models"

// chainIndex orders the forward lifecycle chain. Cancelled sits outside the
// chain and is reachable only through the cancellation rules.
var chainIndex = map[models.OrderStatus]int{
	models.StatusPlaced:    0,
	models.StatusConfirmed: 1,
	models.StatusPreparing: 2,
	models.StatusReady:     3,
	models.StatusServed:    4,
	models.StatusCompleted: 5,
}

// authorize decides whether actor may move an order from one status to
// another. It returns a human-readable rejection reason on failure.
//
// The rules:
//   - terminal states accept nothing;
//   - cancellation: customer or vendor only from placed/confirmed, admin
//     from any non-terminal state;
//   - forward steps: the owning vendor advances one step at a time, the
//     admin may also skip ahead (override); customers never advance;
//   - backward moves are never reachable, the history is append-only.
func authorize(from, to models.OrderStatus, role models.Role) (ok bool, reason string) {
	if from.IsTerminal() {
		return false, "order is in a terminal state"
	}

	if to == models.StatusCancelled {
		switch role {
		case models.RoleAdmin:
			return true, ""
		case models.RoleCustomer, models.RoleVendor:
			if from == models.StatusPlaced || from == models.StatusConfirmed {
				return true, ""
			}
			return false, "order can no longer be cancelled at this stage"
		}
		return false, "unknown role"
	}

	fromIdx, okFrom := chainIndex[from]
	toIdx, okTo := chainIndex[to]
	if !okFrom || !okTo || toIdx <= fromIdx {
		return false, "target status is not reachable from the current one"
	}

	switch role {
	case models.RoleAdmin:
		return true, ""
	case models.RoleVendor:
		if toIdx == fromIdx+1 {
			return true, ""
		}
		return false, "states cannot be skipped"
	case models.RoleCustomer:
		return false, "customers cannot advance an order"
	}
	return false, "unknown role"
}

// owns reports whether the actor is a party to the order at all. Admins act
// on any order; vendors only on their restaurant's orders; customers only on
// their own.
func owns(order *models.Order, actor models.Actor) bool {
	switch actor.Role {
	case models.RoleAdmin:
		return true
	case models.RoleVendor:
		return actor.RestaurantID == order.RestaurantID
	case models.RoleCustomer:
		return actor.UserID == order.UserID
	}
	return false
}

// paymentGate reports whether the payment state permits reaching target.
// Serving or completing a non-cash order requires a settled payment.
func paymentGate(order *models.Order, target models.OrderStatus) (ok bool, reason string) {
	if target != models.StatusServed && target != models.StatusCompleted {
		return true, ""
	}
	if order.Payment.Method == models.PaymentMethodCash || order.Payment.Settled() {
		return true, ""
	}
	return false, "payment has not settled"
}
