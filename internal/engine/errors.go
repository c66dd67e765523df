package engine

import (
	"fmt"

	"foodcourt-backend/internal/models"
)

// InvalidTransitionError rejects a transition whose edge is not reachable
// from the current state or whose actor lacks authority for it. Carries the
// current status so the caller can show the true state and re-decide.
type InvalidTransitionError struct {
	Current models.OrderStatus
	Target  models.OrderStatus
	Role    models.Role
	Reason  string
}

func (e InvalidTransitionError) Error() string {
	return fmt.Sprintf("cannot move order from %s to %s as %s: %s",
		e.Current, e.Target, e.Role, e.Reason)
}

// StaleWriteError rejects a transition that validated against a snapshot
// which was overtaken by another writer before the replace landed. The
// caller re-fetches and re-decides; the engine never retries on its own.
type StaleWriteError struct {
	Current models.OrderStatus
	Target  models.OrderStatus
}

func (e StaleWriteError) Error() string {
	return fmt.Sprintf("order changed concurrently while moving to %s, current status is now %s",
		e.Target, e.Current)
}
