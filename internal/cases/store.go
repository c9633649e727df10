package cases

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"collections_console/internal/events"
	"collections_console/internal/ledger"
	"collections_console/internal/session"
	"collections_console/platform/apperr"
	"collections_console/platform/logger"
	"collections_console/platform/metrics"
	"collections_console/platform/phone"
)

// ErrNoSession is returned when an operation needs a credential and
// none is held.
var ErrNoSession = apperr.Unauthorized("not signed in")

// Store owns the authoritative local copy of the case collection. It is
// the collection's sole mutator: refreshes replace it wholesale, and the
// only per-case local patch is the contact phone (kept optimistic so a
// patch does not discard a score that landed between refreshes).
type Store struct {
	mu    sync.RWMutex
	cases map[string]Case

	client   *ledger.Client
	session  *session.Manager
	interval time.Duration
	bus      events.Bus
	log      *logger.Logger
	metrics  *metrics.Metrics

	pollMu   sync.Mutex
	stopPoll chan struct{}
}

// NewStore creates a case store polling at the given interval once a
// session opens.
func NewStore(client *ledger.Client, sess *session.Manager, interval time.Duration, bus events.Bus, log *logger.Logger, m *metrics.Metrics) *Store {
	return &Store{
		cases:    make(map[string]Case),
		client:   client,
		session:  sess,
		interval: interval,
		bus:      bus,
		log:      log,
		metrics:  m,
	}
}

// Refresh fetches the full case collection and replaces the local copy
// wholesale on success. On a 401 it invalidates the session (which
// stops polling and clears local state); on any other failure the
// existing local collection is left untouched. It returns the fresh
// collection so callers can act on exactly what this refresh produced.
func (s *Store) Refresh(ctx context.Context, trigger string) ([]Case, error) {
	token, ok := s.session.Token()
	if !ok {
		return nil, ErrNoSession
	}

	records, err := s.client.ListCases(ctx, token)
	if err != nil {
		if errors.Is(err, ledger.ErrAuthExpired) {
			s.recordRefresh("auth_expired")
			s.log.RefreshEvent(trigger, 0, err)
			if invErr := s.session.Invalidate(ctx); invErr != nil {
				s.log.Warn("session invalidation failed", "error", invErr.Error())
			}
			return nil, err
		}
		s.recordRefresh("error")
		s.log.RefreshEvent(trigger, 0, err)
		return nil, err
	}

	fresh := make(map[string]Case, len(records))
	out := make([]Case, 0, len(records))
	for _, rec := range records {
		c := fromRecord(rec)
		fresh[rec.CaseID] = c
		out = append(out, c)
	}
	// Sort the private slice before installing the map; once installed,
	// other goroutines may mutate the map's entries.
	sortCases(out)

	s.mu.Lock()
	s.cases = fresh
	s.mu.Unlock()

	s.recordRefresh("ok")
	s.log.RefreshEvent(trigger, len(fresh), nil)
	s.bus.Publish(ctx, events.CasesRefreshed{
		BaseEvent: events.NewBaseEvent(),
		Count:     len(fresh),
		Trigger:   trigger,
	})

	return out, nil
}

// PatchContact sends the new phone number to the ledger and, on
// success, mutates only that case's phone locally. No full refresh: a
// refresh here could discard a score still in flight.
func (s *Store) PatchContact(ctx context.Context, caseID, rawPhone string) error {
	if !phone.IsValid(rawPhone) {
		return apperr.Validation(fmt.Sprintf("invalid phone number %q", rawPhone))
	}
	normalized := phone.NormalizeE164(rawPhone)

	token, ok := s.session.Token()
	if !ok {
		return ErrNoSession
	}

	s.mu.RLock()
	_, exists := s.cases[caseID]
	s.mu.RUnlock()
	if !exists {
		return apperr.NotFound("unknown case " + caseID)
	}

	if err := s.client.UpdateContact(ctx, token, caseID, normalized); err != nil {
		if errors.Is(err, ledger.ErrAuthExpired) {
			if invErr := s.session.Invalidate(ctx); invErr != nil {
				s.log.Warn("session invalidation failed", "error", invErr.Error())
			}
		}
		return err
	}

	s.mu.Lock()
	if c, ok := s.cases[caseID]; ok {
		c.Phone = normalized
		s.cases[caseID] = c
	}
	s.mu.Unlock()

	return nil
}

// Get returns one case by id.
func (s *Store) Get(caseID string) (Case, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.cases[caseID]
	return c, ok
}

// FindByPhone returns the case whose contact phone matches the number,
// used to associate an outbound call with a case.
func (s *Store) FindByPhone(rawPhone string) (Case, bool) {
	normalized := phone.NormalizeE164(rawPhone)

	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.cases {
		if c.Phone != "" && phone.NormalizeE164(c.Phone) == normalized {
			return c, true
		}
	}
	return Case{}, false
}

// List returns the worklist: scored cases first in descending score
// order, unscored cases after, ties broken by id for stable output.
func (s *Store) List() []Case {
	s.mu.RLock()
	out := make([]Case, 0, len(s.cases))
	for _, c := range s.cases {
		out = append(out, c)
	}
	s.mu.RUnlock()
	sortCases(out)
	return out
}

// Len returns the number of cases held locally.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.cases)
}

// sortCases orders the worklist in place: scored cases by descending
// score, then unscored, ties broken by id.
func sortCases(out []Case) {
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		switch {
		case a.Scored() && !b.Scored():
			return true
		case !a.Scored() && b.Scored():
			return false
		case a.Scored() && b.Scored() && *a.Score != *b.Score:
			return *a.Score > *b.Score
		default:
			return a.ID < b.ID
		}
	})
}

// startPolling begins the fixed-interval reconciliation loop. The first
// refresh runs immediately. Idempotent while a loop is already running.
func (s *Store) startPolling() {
	s.pollMu.Lock()
	defer s.pollMu.Unlock()
	if s.stopPoll != nil {
		return
	}
	stop := make(chan struct{})
	s.stopPoll = stop
	go s.pollLoop(stop)
}

// stopPolling cancels the loop. It returns only after the timer is
// stopped, so no new refresh can start once the credential is cleared.
func (s *Store) stopPolling() {
	s.pollMu.Lock()
	defer s.pollMu.Unlock()
	if s.stopPoll != nil {
		close(s.stopPoll)
		s.stopPoll = nil
	}
}

func (s *Store) pollLoop(stop <-chan struct{}) {
	ctx := context.Background()
	if _, err := s.Refresh(ctx, "initial"); err != nil {
		s.log.Warn("initial refresh failed", "error", err.Error())
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			// Errors are already logged and metered inside Refresh;
			// the loop keeps going until the session closes.
			_, _ = s.Refresh(ctx, "interval")
		}
	}
}

// clearLocal drops the in-memory collection (401 path: stale data must
// not outlive the credential that fetched it).
func (s *Store) clearLocal() {
	s.mu.Lock()
	s.cases = make(map[string]Case)
	s.mu.Unlock()
}

func (s *Store) recordRefresh(outcome string) {
	if s.metrics != nil {
		s.metrics.RefreshTotal.WithLabelValues(outcome).Inc()
	}
}
