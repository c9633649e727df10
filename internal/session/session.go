// Package session owns the agent's credential lifecycle. It holds the
// bearer token issued by the ledger's /token boundary and exposes it to
// every other component; no case or business logic lives here.
package session

import (
	"context"
	"sync"
	"time"

	"collections_console/internal/events"
	"collections_console/internal/ledger"
	"collections_console/platform/logger"
	"collections_console/platform/metrics"

	"github.com/golang-jwt/jwt/v5"
)

// State is the client-side state retained across sessions: the bearer
// token and the agent's caller-identity string. Both are opaque.
type State struct {
	Token    string
	Username string
	CallerID string
}

// StateStore persists State across console restarts.
type StateStore interface {
	Save(ctx context.Context, s State) error
	Load(ctx context.Context) (State, error)
	Clear(ctx context.Context) error
}

// Manager holds the current credential. All mutation paths publish
// session events synchronously so that credential-scoped background
// work (the case poller) stops before the mutation returns.
type Manager struct {
	mu        sync.RWMutex
	token     string
	username  string
	callerID  string
	expiresAt time.Time // zero when the token carries no readable expiry

	client  *ledger.Client
	store   StateStore // optional
	bus     events.Bus
	log     *logger.Logger
	metrics *metrics.Metrics
}

// New creates a session manager. store may be nil when no persistence
// backend is configured.
func New(client *ledger.Client, store StateStore, bus events.Bus, log *logger.Logger, m *metrics.Metrics) *Manager {
	return &Manager{
		client:  client,
		store:   store,
		bus:     bus,
		log:     log,
		metrics: m,
	}
}

// Open signs the agent in at the ledger's credential boundary and
// adopts the returned bearer token.
func (m *Manager) Open(ctx context.Context, username, password string) error {
	resp, err := m.client.Login(ctx, username, password)
	if err != nil {
		m.log.AuthEvent("login", username, false, err.Error())
		return err
	}

	m.mu.Lock()
	m.token = resp.AccessToken
	m.username = username
	m.expiresAt = tokenExpiry(resp.AccessToken)
	callerID := m.callerID
	m.mu.Unlock()

	m.persist(ctx, State{Token: resp.AccessToken, Username: username, CallerID: callerID})
	m.log.AuthEvent("login", username, true, "")

	return m.bus.PublishSync(ctx, events.SessionOpened{
		BaseEvent: events.NewBaseEvent(),
		Username:  username,
	})
}

// Restore adopts a previously persisted session at startup. It is a
// no-op when nothing usable was persisted.
func (m *Manager) Restore(ctx context.Context) error {
	if m.store == nil {
		return nil
	}
	state, err := m.store.Load(ctx)
	if err != nil || state.Token == "" {
		return err
	}

	expiry := tokenExpiry(state.Token)
	if !expiry.IsZero() && time.Now().After(expiry) {
		// Persisted token already expired; drop it.
		return m.store.Clear(ctx)
	}

	m.mu.Lock()
	m.token = state.Token
	m.username = state.Username
	m.callerID = state.CallerID
	m.expiresAt = expiry
	m.mu.Unlock()

	m.log.AuthEvent("restore", state.Username, true, "")
	return m.bus.PublishSync(ctx, events.SessionOpened{
		BaseEvent: events.NewBaseEvent(),
		Username:  state.Username,
	})
}

// Token returns the current credential. ok is false when no valid
// credential is held.
func (m *Manager) Token() (token string, ok bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.token == "" {
		return "", false
	}
	if !m.expiresAt.IsZero() && time.Now().After(m.expiresAt) {
		return "", false
	}
	return m.token, true
}

// Username returns the signed-in agent's username, empty when signed out.
func (m *Manager) Username() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.username
}

// CallerID returns the agent's caller-identity string.
func (m *Manager) CallerID() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.callerID
}

// SetCallerID stores the caller identity used when placing calls.
func (m *Manager) SetCallerID(ctx context.Context, callerID string) {
	m.mu.Lock()
	m.callerID = callerID
	state := State{Token: m.token, Username: m.username, CallerID: callerID}
	m.mu.Unlock()

	m.persist(ctx, state)
}

// Close signs the agent out. The credential is cleared and subscribers
// are notified synchronously before Close returns.
func (m *Manager) Close(ctx context.Context) error {
	return m.clear(ctx, "logout")
}

// Invalidate handles an upstream 401: the credential is discarded and
// every credential-scoped activity stops. In-memory case state is
// dropped by the store's own SessionClosed subscription.
func (m *Manager) Invalidate(ctx context.Context) error {
	if m.metrics != nil {
		m.metrics.SessionExpiries.Inc()
	}
	return m.clear(ctx, "expired")
}

func (m *Manager) clear(ctx context.Context, reason string) error {
	m.mu.Lock()
	username := m.username
	alreadyClear := m.token == ""
	m.token = ""
	m.username = ""
	m.expiresAt = time.Time{}
	m.mu.Unlock()

	if alreadyClear {
		return nil
	}

	if m.store != nil {
		if err := m.store.Clear(ctx); err != nil {
			m.log.Warn("failed to clear persisted session", "error", err.Error())
		}
	}
	m.log.AuthEvent(reason, username, reason == "logout", reason)

	return m.bus.PublishSync(ctx, events.SessionClosed{
		BaseEvent: events.NewBaseEvent(),
		Username:  username,
		Reason:    reason,
	})
}

func (m *Manager) persist(ctx context.Context, state State) {
	if m.store == nil {
		return
	}
	if err := m.store.Save(ctx, state); err != nil {
		m.log.Warn("failed to persist session state", "error", err.Error())
	}
}

// tokenExpiry reads the exp claim without verifying the signature. The
// token is opaque by contract; when it happens to be a JWT the expiry
// lets the console drop a stale credential before the ledger rejects it.
func tokenExpiry(token string) time.Time {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}
	}
	return exp.Time
}
