package models

// OrderStatus is the canonical lifecycle state of an order. The legacy
// vocabulary (pending/accepted/...) is mapped at the HTTP boundary only.
type OrderStatus string

const (
	StatusPlaced    OrderStatus = "placed"
	StatusConfirmed OrderStatus = "confirmed"
	StatusPreparing OrderStatus = "preparing"
	StatusReady     OrderStatus = "ready"
	StatusServed    OrderStatus = "served"
	StatusCompleted OrderStatus = "completed"
	StatusCancelled OrderStatus = "cancelled"
)

// forwardNext holds the single legal forward step from each state.
var forwardNext = map[OrderStatus]OrderStatus{
	StatusPlaced:    StatusConfirmed,
	StatusConfirmed: StatusPreparing,
	StatusPreparing: StatusReady,
	StatusReady:     StatusServed,
	StatusServed:    StatusCompleted,
}

// IsValidStatus reports whether s is one of the canonical states.
func IsValidStatus(s OrderStatus) bool {
	switch s {
	case StatusPlaced, StatusConfirmed, StatusPreparing, StatusReady,
		StatusServed, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// IsTerminal reports whether no further transition may leave s.
func (s OrderStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// NextForward returns the single legal forward step from s, if any.
func (s OrderStatus) NextForward() (OrderStatus, bool) {
	next, ok := forwardNext[s]
	return next, ok
}

// legacyStatus is the vocabulary the mobile clients still speak.
var legacyStatus = map[OrderStatus]string{
	StatusPlaced:    "pending",
	StatusConfirmed: "accepted",
	StatusPreparing: "preparing",
	StatusReady:     "ready",
	StatusServed:    "collected",
	StatusCompleted: "completed",
	StatusCancelled: "cancelled",
}

var canonicalStatus = func() map[string]OrderStatus {
	m := make(map[string]OrderStatus, len(legacyStatus))
	for canonical, legacy := range legacyStatus {
		m[legacy] = canonical
	}
	return m
}()

// LegacyLabel renders s in the legacy client vocabulary.
func (s OrderStatus) LegacyLabel() string {
	if label, ok := legacyStatus[s]; ok {
		return label
	}
	return string(s)
}

// ParseStatus accepts both the canonical and the legacy vocabulary.
func ParseStatus(raw string) (OrderStatus, bool) {
	if IsValidStatus(OrderStatus(raw)) {
		return OrderStatus(raw), true
	}
	if canonical, ok := canonicalStatus[raw]; ok {
		return canonical, true
	}
	return "", false
}

// DisplayName renders s for user-facing notification messages.
func (s OrderStatus) DisplayName() string {
	switch s {
	case StatusPlaced:
		return "Placed"
	case StatusConfirmed:
		return "Confirmed"
	case StatusPreparing:
		return "Preparing"
	case StatusReady:
		return "Ready to Serve"
	case StatusServed:
		return "Served"
	case StatusCompleted:
		return "Completed"
	case StatusCancelled:
		return "Cancelled"
	}
	return string(s)
}
