package order

// Status is the fulfillment state of an order.
type Status string

const (
	// StatusProcessing is the initial state of every order.
	StatusProcessing Status = "Processing"
	// StatusShipped means at least one vendor has handed the order to a
	// carrier. Entering this state triggers a shipment notification.
	StatusShipped Status = "Shipped"
	// StatusDelivered is terminal. Requires the order to be paid.
	StatusDelivered Status = "Delivered"
	// StatusCancelled is terminal.
	StatusCancelled Status = "Cancelled"
)

// transitions is the explicit state graph. Anything outside it is rejected
// with InvalidTransitionError.
var transitions = map[Status][]Status{
	StatusProcessing: {StatusShipped, StatusCancelled},
	StatusShipped:    {StatusDelivered, StatusCancelled},
	StatusDelivered:  {},
	StatusCancelled:  {},
}

// Valid reports whether s is one of the four known statuses.
func (s Status) Valid() bool {
	_, ok := transitions[s]
	return ok
}

// Terminal reports whether no further transitions are possible from s.
func (s Status) Terminal() bool {
	return len(transitions[s]) == 0 && s.Valid()
}

// CanTransitionTo reports whether the state graph permits moving from s
// to the target status.
func (s Status) CanTransitionTo(to Status) bool {
	for _, allowed := range transitions[s] {
		if allowed == to {
			return true
		}
	}
	return false
}
