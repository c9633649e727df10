package session

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"collections_console/internal/events"
	"collections_console/internal/ledger"
	"collections_console/platform/logger"

	"github.com/golang-jwt/jwt/v5"
)

// signedToken builds a JWT whose exp claim the manager can read. The
// signature is never verified client-side, only the claim matters.
func signedToken(t *testing.T, expiresAt time.Time) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "agent",
		"exp": expiresAt.Unix(),
	})
	signed, err := tok.SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("could not sign token: %v", err)
	}
	return signed
}

type eventRecorder struct {
	mu     sync.Mutex
	opened int
	closed []events.SessionClosed
}

func (r *eventRecorder) attach(bus events.Bus) {
	bus.Subscribe(events.SessionOpened{}.EventName(), events.HandlerFunc(func(ctx context.Context, e events.Event) error {
		r.mu.Lock()
		r.opened++
		r.mu.Unlock()
		return nil
	}))
	bus.Subscribe(events.SessionClosed{}.EventName(), events.HandlerFunc(func(ctx context.Context, e events.Event) error {
		if closed, ok := e.(events.SessionClosed); ok {
			r.mu.Lock()
			r.closed = append(r.closed, closed)
			r.mu.Unlock()
		}
		return nil
	}))
}

func newLoginServer(t *testing.T, token string) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("POST /token", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil || r.PostForm.Get("username") == "" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		json.NewEncoder(w).Encode(ledger.TokenResponse{AccessToken: token, TokenType: "bearer"})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestOpenAndClose(t *testing.T) {
	srv := newLoginServer(t, "opaque-token")
	log := logger.New("development")
	bus := events.NewInMemoryBus(log)
	rec := &eventRecorder{}
	rec.attach(bus)

	mgr := New(ledger.New(srv.URL, 2*time.Second, log), nil, bus, log, nil)

	if _, ok := mgr.Token(); ok {
		t.Fatal("fresh manager must hold no credential")
	}
	if err := mgr.Open(context.Background(), "agent", "secret"); err != nil {
		t.Fatalf("open failed: %v", err)
	}

	tok, ok := mgr.Token()
	if !ok || tok != "opaque-token" {
		t.Fatalf("expected adopted token, got %q / %v", tok, ok)
	}
	if mgr.Username() != "agent" {
		t.Fatalf("got username %q", mgr.Username())
	}
	if rec.opened != 1 {
		t.Fatalf("expected one SessionOpened, got %d", rec.opened)
	}

	if err := mgr.Close(context.Background()); err != nil {
		t.Fatalf("close failed: %v", err)
	}
	if _, ok := mgr.Token(); ok {
		t.Fatal("credential must be gone after close")
	}
	if len(rec.closed) != 1 || rec.closed[0].Reason != "logout" {
		t.Fatalf("expected one SessionClosed(logout), got %+v", rec.closed)
	}

	// Closing again is a no-op, not a second event.
	if err := mgr.Close(context.Background()); err != nil {
		t.Fatalf("second close failed: %v", err)
	}
	if len(rec.closed) != 1 {
		t.Fatalf("idempotent close must not re-publish, got %d events", len(rec.closed))
	}
}

func TestInvalidateReason(t *testing.T) {
	srv := newLoginServer(t, "opaque-token")
	log := logger.New("development")
	bus := events.NewInMemoryBus(log)
	rec := &eventRecorder{}
	rec.attach(bus)

	mgr := New(ledger.New(srv.URL, 2*time.Second, log), nil, bus, log, nil)
	if err := mgr.Open(context.Background(), "agent", "secret"); err != nil {
		t.Fatalf("open failed: %v", err)
	}

	if err := mgr.Invalidate(context.Background()); err != nil {
		t.Fatalf("invalidate failed: %v", err)
	}
	if len(rec.closed) != 1 || rec.closed[0].Reason != "expired" {
		t.Fatalf("expected SessionClosed(expired), got %+v", rec.closed)
	}
}

func TestTokenExpiryIsHonored(t *testing.T) {
	expired := signedToken(t, time.Now().Add(-time.Minute))
	srv := newLoginServer(t, expired)
	log := logger.New("development")
	bus := events.NewInMemoryBus(log)

	mgr := New(ledger.New(srv.URL, 2*time.Second, log), nil, bus, log, nil)
	if err := mgr.Open(context.Background(), "agent", "secret"); err != nil {
		t.Fatalf("open failed: %v", err)
	}

	if _, ok := mgr.Token(); ok {
		t.Fatal("an expired JWT must not be served as a credential")
	}
}

func TestRestorePersistedSession(t *testing.T) {
	valid := signedToken(t, time.Now().Add(time.Hour))
	log := logger.New("development")
	bus := events.NewInMemoryBus(log)
	rec := &eventRecorder{}
	rec.attach(bus)

	store := newMemStore()
	store.state = State{Token: valid, Username: "agent", CallerID: "+919876543210"}

	mgr := New(nil, store, bus, log, nil)
	if err := mgr.Restore(context.Background()); err != nil {
		t.Fatalf("restore failed: %v", err)
	}

	if _, ok := mgr.Token(); !ok {
		t.Fatal("restored session must hold the persisted credential")
	}
	if mgr.CallerID() != "+919876543210" {
		t.Fatalf("caller id not restored, got %q", mgr.CallerID())
	}
	if rec.opened != 1 {
		t.Fatal("restore must announce the session like a fresh login")
	}
}

func TestRestoreDropsExpiredToken(t *testing.T) {
	expired := signedToken(t, time.Now().Add(-time.Hour))
	log := logger.New("development")
	bus := events.NewInMemoryBus(log)
	rec := &eventRecorder{}
	rec.attach(bus)

	store := newMemStore()
	store.state = State{Token: expired, Username: "agent"}

	mgr := New(nil, store, bus, log, nil)
	if err := mgr.Restore(context.Background()); err != nil {
		t.Fatalf("restore failed: %v", err)
	}

	if _, ok := mgr.Token(); ok {
		t.Fatal("an expired persisted token must be dropped")
	}
	if store.state.Token != "" {
		t.Fatal("the stale persisted state must be cleared")
	}
	if rec.opened != 0 {
		t.Fatal("no session event for a dropped token")
	}
}

// memStore is an in-memory StateStore for tests.
type memStore struct {
	mu    sync.Mutex
	state State
}

func newMemStore() *memStore { return &memStore{} }

func (s *memStore) Save(ctx context.Context, state State) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = state
	return nil
}

func (s *memStore) Load(ctx context.Context) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state, nil
}

func (s *memStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = State{}
	return nil
}
