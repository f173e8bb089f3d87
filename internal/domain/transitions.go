package domain

// transitions holds the authoritative pipeline edges. Completed is terminal.
var transitions = map[Status][]Status{
	StatusPending:             {StatusInProgress},
	StatusInProgress:          {StatusAwaitingReview},
	StatusAwaitingReview:      {StatusInReview},
	StatusInReview:            {StatusAwaitingFinalReview, StatusRejected},
	StatusAwaitingFinalReview: {StatusFinalReview},
	StatusFinalReview:         {StatusCompleted, StatusRejected},
	StatusRejected:            {StatusInProgress, StatusAwaitingReview},
	StatusCompleted:           {},
}

// CanTransition reports whether the edge from -> to appears in the
// transition table. Unknown statuses have no edges.
func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// NextStatuses returns the statuses reachable directly from the given one.
func NextStatuses(from Status) []Status {
	next := transitions[from]
	out := make([]Status, len(next))
	copy(out, next)
	return out
}

func (s Status) Valid() bool {
	_, ok := transitions[s]
	return ok
}

// Terminal reports whether no further transitions are possible.
func (s Status) Terminal() bool {
	next, ok := transitions[s]
	return ok && len(next) == 0
}
