package orders

// transitions is the single authority on order/item status changes.
// Every status mutation in this package consults it; handlers never
// assign a status directly.
var transitions = map[string][]string{
	StatusAwaitingPayment: {StatusPending, StatusFailed, StatusCancelled},
	StatusFailed:          {StatusPending},
	StatusPending:         {StatusProcessing, StatusCancelled, StatusFailed},
	StatusProcessing:      {StatusShipped, StatusCancelled},
	StatusShipped:         {StatusDelivered, StatusCancelled},
	StatusDelivered:       {StatusReturned, StatusExchanged},
	StatusCancelled:       {},
	StatusReturned:        {},
	StatusExchanged:       {},
}

// CanTransition reports whether from -> to is a legal status change.
func CanTransition(from, to string) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// cancellable statuses: anything pre-delivery that is not already
// terminal.
var nonCancellable = map[string]bool{
	StatusDelivered: true,
	StatusCancelled: true,
	StatusReturned:  true,
	StatusExchanged: true,
}

// Cancellable reports whether an order in the given status may still be
// cancelled.
func Cancellable(status string) bool {
	return !nonCancellable[status]
}
