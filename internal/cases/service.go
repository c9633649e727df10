package cases

import (
	"context"
	"errors"
	"io"

	"collections_console/internal/events"
	"collections_console/internal/ledger"
	"collections_console/internal/session"
	"collections_console/platform/apperr"
	"collections_console/platform/logger"
	"collections_console/platform/phone"
)

// Service exposes the case operations behind the console surface. Every
// mutating flow ends by asking the store to refresh rather than guessing
// the ledger's new state; the phone patch is the store's one documented
// optimistic exception.
type Service struct {
	store   *Store
	client  *ledger.Client
	session *session.Manager
	bus     events.Bus
	log     *logger.Logger
}

// NewService creates the case service.
func NewService(store *Store, client *ledger.Client, sess *session.Manager, bus events.Bus, log *logger.Logger) *Service {
	return &Service{
		store:   store,
		client:  client,
		session: sess,
		bus:     bus,
		log:     log,
	}
}

// Store returns the underlying case store for read access and direct
// collaborators (analysis, call bridge).
func (s *Service) Store() *Store {
	return s.store
}

// List returns the prioritized worklist.
func (s *Service) List() []Case {
	return s.store.List()
}

// Get returns one case.
func (s *Service) Get(caseID string) (Case, error) {
	c, ok := s.store.Get(caseID)
	if !ok {
		return Case{}, apperr.NotFound("unknown case " + caseID)
	}
	return c, nil
}

// Create registers a new case in the ledger, then refreshes so the
// worklist reflects the ledger's view of it.
func (s *Service) Create(ctx context.Context, in ledger.CreateCaseRequest) (Case, error) {
	token, ok := s.session.Token()
	if !ok {
		return Case{}, ErrNoSession
	}

	if in.Amount < 0 {
		return Case{}, apperr.Validation("amount must be non-negative")
	}
	if in.Phone != "" {
		if !phone.IsValid(in.Phone) {
			return Case{}, apperr.Validation("invalid phone number")
		}
		in.Phone = phone.NormalizeE164(in.Phone)
	}

	rec, err := s.client.CreateCase(ctx, token, in)
	if err != nil {
		return Case{}, s.handleAuth(ctx, err)
	}

	if _, err := s.store.Refresh(ctx, "manual"); err != nil {
		s.log.Warn("post-create refresh failed", "error", err.Error())
	}
	return fromRecord(rec), nil
}

// UpdateStatus applies a status transition. The transition is validated
// locally before any network call; the ledger re-validates and its
// rejection surfaces through the same error taxonomy.
func (s *Service) UpdateStatus(ctx context.Context, caseID string, next Status, reason string) (Case, error) {
	current, ok := s.store.Get(caseID)
	if !ok {
		return Case{}, apperr.NotFound("unknown case " + caseID)
	}

	if err := ValidateTransition(current.Status, next, reason); err != nil {
		return Case{}, err
	}

	token, ok := s.session.Token()
	if !ok {
		return Case{}, ErrNoSession
	}

	rec, err := s.client.UpdateStatus(ctx, token, caseID, string(next), reason)
	if err != nil {
		return Case{}, s.handleAuth(ctx, err)
	}

	s.bus.Publish(ctx, events.CaseStatusChanged{
		BaseEvent: events.NewBaseEvent(),
		CaseID:    caseID,
		From:      string(current.Status),
		To:        string(next),
		Reason:    reason,
	})

	if _, err := s.store.Refresh(ctx, "manual"); err != nil {
		s.log.Warn("post-transition refresh failed", "error", err.Error())
	}
	return fromRecord(rec), nil
}

// LogInteraction records a text interaction against a case and returns
// the compliance verdict. The subsequent refresh makes the new log
// entry visible in the worklist.
func (s *Service) LogInteraction(ctx context.Context, caseID, text string) (ledger.ComplianceResult, error) {
	if text == "" {
		return ledger.ComplianceResult{}, apperr.Validation("interaction text is required")
	}
	if _, ok := s.store.Get(caseID); !ok {
		return ledger.ComplianceResult{}, apperr.NotFound("unknown case " + caseID)
	}

	token, ok := s.session.Token()
	if !ok {
		return ledger.ComplianceResult{}, ErrNoSession
	}

	result, err := s.client.LogInteraction(ctx, token, caseID, text)
	if err != nil {
		return ledger.ComplianceResult{}, s.handleAuth(ctx, err)
	}

	if _, err := s.store.Refresh(ctx, "manual"); err != nil {
		s.log.Warn("post-interaction refresh failed", "error", err.Error())
	}
	return result, nil
}

// PatchContact updates a case's contact phone (optimistic local patch,
// see Store.PatchContact).
func (s *Service) PatchContact(ctx context.Context, caseID, rawPhone string) error {
	return s.store.PatchContact(ctx, caseID, rawPhone)
}

// Ingest forwards a CSV export to the ledger for bulk import and
// refreshes afterwards so the imported cases appear.
func (s *Service) Ingest(ctx context.Context, filename string, file io.Reader) (ledger.IngestResult, error) {
	token, ok := s.session.Token()
	if !ok {
		return ledger.IngestResult{}, ErrNoSession
	}

	result, err := s.client.Ingest(ctx, token, filename, file)
	if err != nil {
		return ledger.IngestResult{}, s.handleAuth(ctx, err)
	}

	if _, err := s.store.Refresh(ctx, "manual"); err != nil {
		s.log.Warn("post-ingest refresh failed", "error", err.Error())
	}
	return result, nil
}

// handleAuth invalidates the session on a 401 and passes the error
// through unchanged.
func (s *Service) handleAuth(ctx context.Context, err error) error {
	if errors.Is(err, ledger.ErrAuthExpired) {
		if invErr := s.session.Invalidate(ctx); invErr != nil {
			s.log.Warn("session invalidation failed", "error", invErr.Error())
		}
	}
	return err
}
