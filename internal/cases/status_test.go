package cases

import (
	"errors"
	"testing"
)

func TestValidateTransitionTable(t *testing.T) {
	tests := []struct {
		name    string
		from    Status
		to      Status
		reason  string
		wantErr error
	}{
		{"pending to in_progress", StatusPending, StatusInProgress, "", nil},
		{"pending to closed with reason", StatusPending, StatusClosed, "paid before contact", nil},
		{"in_progress to under_review", StatusInProgress, StatusUnderReview, "", nil},
		{"in_progress to resolved", StatusInProgress, StatusResolved, "", nil},
		{"in_progress to closed", StatusInProgress, StatusClosed, "written off", nil},
		{"in_progress to escalated", StatusInProgress, StatusEscalated, "", nil},
		{"under_review back to in_progress", StatusUnderReview, StatusInProgress, "", nil},
		{"under_review to resolved", StatusUnderReview, StatusResolved, "", nil},
		{"under_review to escalated", StatusUnderReview, StatusEscalated, "", nil},
		{"resolved to closed", StatusResolved, StatusClosed, "settled", nil},
		{"escalated to under_review", StatusEscalated, StatusUnderReview, "", nil},
		{"escalated to closed", StatusEscalated, StatusClosed, "legal action", nil},
		{"optional reason accepted", StatusPending, StatusInProgress, "first contact", nil},

		{"pending skips to under_review", StatusPending, StatusUnderReview, "", ErrIllegalTransition},
		{"pending skips to resolved", StatusPending, StatusResolved, "", ErrIllegalTransition},
		{"pending to escalated", StatusPending, StatusEscalated, "", ErrIllegalTransition},
		{"under_review to closed", StatusUnderReview, StatusClosed, "r", ErrIllegalTransition},
		{"resolved reopened", StatusResolved, StatusInProgress, "", ErrIllegalTransition},
		{"resolved to escalated", StatusResolved, StatusEscalated, "", ErrIllegalTransition},
		{"escalated to in_progress", StatusEscalated, StatusInProgress, "", ErrIllegalTransition},
		{"self transition", StatusPending, StatusPending, "", ErrIllegalTransition},

		{"close without reason", StatusResolved, StatusClosed, "", ErrMissingCloseReason},
		{"close from pending without reason", StatusPending, StatusClosed, "", ErrMissingCloseReason},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateTransition(tt.from, tt.to, tt.reason)
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("expected transition to be legal, got %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestClosedIsAbsorbing(t *testing.T) {
	for _, to := range []Status{
		StatusPending, StatusInProgress, StatusUnderReview,
		StatusResolved, StatusEscalated, StatusClosed,
	} {
		err := ValidateTransition(StatusClosed, to, "reason")
		if !errors.Is(err, ErrIllegalTransition) {
			t.Fatalf("CLOSED -> %s should be illegal, got %v", to, err)
		}
	}
	if !StatusClosed.IsTerminal() {
		t.Fatal("CLOSED should be terminal")
	}
	if StatusResolved.IsTerminal() {
		t.Fatal("RESOLVED still has an outgoing edge, not terminal")
	}
}

func TestParseStatus(t *testing.T) {
	got, err := ParseStatus("UNDER_REVIEW")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != StatusUnderReview {
		t.Fatalf("got %s", got)
	}

	if _, err := ParseStatus("DONE"); err == nil {
		t.Fatal("expected unknown status to be rejected")
	}
}

func TestTransitionsReturnsCopy(t *testing.T) {
	first := Transitions(StatusInProgress)
	if len(first) != 4 {
		t.Fatalf("IN_PROGRESS should have 4 outgoing edges, got %d", len(first))
	}
	first[0] = Status("MUTATED")

	second := Transitions(StatusInProgress)
	for _, s := range second {
		if s == Status("MUTATED") {
			t.Fatal("Transitions must not expose internal state")
		}
	}
}
