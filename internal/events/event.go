// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"collections_console/platform/events"
)

// Re-export platform types for convenience
type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
)

// Re-export platform functions
var NewBaseEvent = events.NewBaseEvent

// =============================================================================
// Session Events
// =============================================================================

// SessionOpened is published when an agent signs in (or a persisted
// session is restored at startup).
type SessionOpened struct {
	BaseEvent
	Username string `json:"username"`
}

func (e SessionOpened) EventName() string { return "session.opened" }

// SessionClosed is published synchronously when the credential is
// cleared, whether by explicit logout or an upstream 401. Subscribers
// that hold background timers must stop them before returning.
type SessionClosed struct {
	BaseEvent
	Username string `json:"username"`
	Reason   string `json:"reason"` // "logout" or "expired"
}

func (e SessionClosed) EventName() string { return "session.closed" }

// =============================================================================
// Case Events
// =============================================================================

// CasesRefreshed is published after every successful case store refresh.
type CasesRefreshed struct {
	BaseEvent
	Count   int    `json:"count"`
	Trigger string `json:"trigger"` // "initial", "interval", "manual", "batch", "post_call"
}

func (e CasesRefreshed) EventName() string { return "cases.refreshed" }

// CaseStatusChanged is published after the ledger accepts a transition.
type CaseStatusChanged struct {
	BaseEvent
	CaseID string `json:"caseId"`
	From   string `json:"from"`
	To     string `json:"to"`
	Reason string `json:"reason,omitempty"`
}

func (e CaseStatusChanged) EventName() string { return "cases.status_changed" }

// =============================================================================
// Analysis Events
// =============================================================================

// AnalysisBatchCompleted is published when a scoring batch settles.
type AnalysisBatchCompleted struct {
	BaseEvent
	BatchID   string `json:"batchId"`
	Submitted int    `json:"submitted"`
	Failed    int    `json:"failed"`
}

func (e AnalysisBatchCompleted) EventName() string { return "analysis.batch_completed" }

// =============================================================================
// Call Bridge Events
// =============================================================================

// CallEnded is published when a call session reaches its terminal phase.
type CallEnded struct {
	BaseEvent
	SessionID string `json:"sessionId"`
	CaseID    string `json:"caseId,omitempty"`
	Cause     string `json:"cause"` // "local_hangup", "remote_hangup", "error", "capability_denied"
	WasLive   bool   `json:"wasLive"`
}

func (e CallEnded) EventName() string { return "call.ended" }

// =============================================================================
// Payment Events
// =============================================================================

// PaymentLinkCreated is published when the provider returns a usable
// checkout URL for a case.
type PaymentLinkCreated struct {
	BaseEvent
	CaseID string `json:"caseId"`
	URL    string `json:"url"`
}

func (e PaymentLinkCreated) EventName() string { return "payments.link_created" }
