package cases

import (
	"fmt"

	"collections_console/platform/apperr"
)

// Status is a case's position in its resolution workflow. Values are a
// closed set; anything else fails ParseStatus.
type Status string

const (
	StatusPending     Status = "PENDING"
	StatusInProgress  Status = "IN_PROGRESS"
	StatusUnderReview Status = "UNDER_REVIEW"
	StatusResolved    Status = "RESOLVED"
	StatusEscalated   Status = "ESCALATED"
	StatusClosed      Status = "CLOSED"
)

// Transition errors. The validator runs before any network call; the
// ledger re-validates independently and its rejections surface through
// the same errors.
var (
	ErrIllegalTransition  = apperr.Validation("illegal status transition")
	ErrMissingCloseReason = apperr.Validation("closing a case requires a reason")
)

// transitions is the directed graph of legal status moves. CLOSED is
// absorbing: it has no outgoing edges.
var transitions = map[Status][]Status{
	StatusPending:     {StatusInProgress, StatusClosed},
	StatusInProgress:  {StatusUnderReview, StatusResolved, StatusClosed, StatusEscalated},
	StatusUnderReview: {StatusInProgress, StatusResolved, StatusEscalated},
	StatusResolved:    {StatusClosed},
	StatusEscalated:   {StatusUnderReview, StatusClosed},
	StatusClosed:      {},
}

// ParseStatus validates a wire-format status string.
func ParseStatus(s string) (Status, error) {
	status := Status(s)
	if _, ok := transitions[status]; !ok {
		return "", apperr.Validation(fmt.Sprintf("unknown status %q", s))
	}
	return status, nil
}

// Transitions returns the legal next statuses from current. The slice
// is a copy; callers may mutate it freely.
func Transitions(current Status) []Status {
	next := transitions[current]
	out := make([]Status, len(next))
	copy(out, next)
	return out
}

// ValidateTransition rejects a move that is not an edge of the
// transition graph, and a move to CLOSED without a reason. It performs
// no network access.
func ValidateTransition(current, next Status, reason string) error {
	legal := false
	for _, s := range transitions[current] {
		if s == next {
			legal = true
			break
		}
	}
	if !legal {
		return fmt.Errorf("cannot move %s to %s: %w", current, next, ErrIllegalTransition)
	}
	if next == StatusClosed && reason == "" {
		return ErrMissingCloseReason
	}
	return nil
}

// IsTerminal reports whether the status has no outgoing transitions.
func (s Status) IsTerminal() bool {
	return len(transitions[s]) == 0
}
