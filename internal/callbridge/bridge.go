// Package callbridge manages the single outbound voice-call session:
// capability acquisition, signaling negotiation, the live phase, and
// teardown on every exit path.
package callbridge

import (
	"context"
	"errors"
	"sync"
	"time"

	"collections_console/internal/cases"
	"collections_console/internal/events"
	"collections_console/internal/ledger"
	"collections_console/internal/session"
	"collections_console/platform/apperr"
	"collections_console/platform/logger"
	"collections_console/platform/metrics"
	"collections_console/platform/phone"

	"github.com/google/uuid"
)

// Bridge errors.
var (
	// ErrCallActive is returned when a second call is attempted while a
	// session is holding the bridge. Calls are rejected, never queued.
	ErrCallActive = apperr.Conflict("a call session is already active")

	// ErrNoCall is returned when ending or inspecting a call and none
	// exists.
	ErrNoCall = apperr.NotFound("no active call session")
)

const auditTimeout = 5 * time.Second

// CallSession is the ephemeral state of the one outbound call. It is
// never persisted.
type CallSession struct {
	ID                string    `json:"id"`
	Number            string    `json:"number"`
	CaseID            string    `json:"caseId,omitempty"`
	Phase             Phase     `json:"phase"`
	CapabilityGranted bool      `json:"capabilityGranted"`
	StartedAt         time.Time `json:"startedAt"`
}

// Resyncer schedules one delayed store refresh after a live call ends,
// giving the ledger's post-call analysis time to land.
type Resyncer interface {
	ScheduleResync(ctx context.Context, delay time.Duration) error
}

// Bridge owns the single call session. All phase changes go through
// transition, which enforces the lifecycle graph; the exclusive-session
// invariant is held by the mutex around state.
type Bridge struct {
	mu    sync.Mutex
	state *callState

	capability  CapabilityProvider
	signaler    Signaler
	client      *ledger.Client
	session     *session.Manager
	store       *cases.Store
	resync      Resyncer
	resyncDelay time.Duration
	bus         events.Bus
	log         *logger.Logger
	metrics     *metrics.Metrics
}

type callState struct {
	sess    CallSession
	release func()
	conn    SignalConn
	wasLive bool
}

// New creates the call bridge.
func New(capability CapabilityProvider, signaler Signaler, client *ledger.Client, sess *session.Manager, store *cases.Store, resync Resyncer, resyncDelay time.Duration, bus events.Bus, log *logger.Logger, m *metrics.Metrics) *Bridge {
	return &Bridge{
		capability:  capability,
		signaler:    signaler,
		client:      client,
		session:     sess,
		store:       store,
		resync:      resync,
		resyncDelay: resyncDelay,
		bus:         bus,
		log:         log,
		metrics:     m,
	}
}

// PlaceCall starts an outbound call to the given number. It fails with
// ErrCallActive while any session holds the bridge, and with
// ErrCapabilityDenied when the local audio capability is not granted.
// On success the session is in SIGNALING; the LIVE transition arrives
// through the signaling leg.
func (b *Bridge) PlaceCall(ctx context.Context, number string) (CallSession, error) {
	if !phone.IsValid(number) {
		return CallSession{}, apperr.Validation("invalid phone number")
	}
	normalized := phone.NormalizeE164(number)

	caseID := ""
	if c, ok := b.store.FindByPhone(normalized); ok {
		caseID = c.ID
	}

	b.mu.Lock()
	if b.state != nil {
		b.mu.Unlock()
		return CallSession{}, ErrCallActive
	}
	st := &callState{
		sess: CallSession{
			ID:        uuid.NewString(),
			Number:    normalized,
			CaseID:    caseID,
			Phase:     PhaseRequestingCapability,
			StartedAt: time.Now(),
		},
	}
	b.state = st
	b.mu.Unlock()

	if b.metrics != nil {
		b.metrics.CallsPlaced.Inc()
	}
	b.log.CallEvent(st.sess.ID, string(PhaseRequestingCapability), normalized)

	release, err := b.capability.Acquire(ctx)
	if err != nil {
		b.end(ctx, st.sess.ID, "capability_denied")
		return CallSession{}, ErrCapabilityDenied
	}
	b.mu.Lock()
	if b.state != st {
		// The session ended while the grant was pending. The detached
		// state never passes through end again, so release here.
		b.mu.Unlock()
		release()
		return CallSession{}, ErrNoCall
	}
	st.release = release
	st.sess.CapabilityGranted = true
	b.mu.Unlock()

	if !b.transition(st.sess.ID, PhaseAwaitingAuth) {
		return CallSession{}, ErrNoCall
	}

	token, ok := b.session.Token()
	if !ok {
		b.end(ctx, st.sess.ID, "error")
		return CallSession{}, cases.ErrNoSession
	}

	voiceToken, err := b.client.VoiceToken(ctx, token)
	if err != nil {
		if errors.Is(err, ledger.ErrAuthExpired) {
			if invErr := b.session.Invalidate(ctx); invErr != nil {
				b.log.Warn("session invalidation failed", "error", invErr.Error())
			}
		}
		b.end(ctx, st.sess.ID, "error")
		return CallSession{}, err
	}

	if !b.transition(st.sess.ID, PhaseSignaling) {
		return CallSession{}, ErrNoCall
	}

	conn, err := b.signaler.Dial(ctx, voiceToken, b.session.CallerID(), normalized)
	if err != nil {
		b.end(ctx, st.sess.ID, "error")
		return CallSession{}, apperr.Wrap(apperr.KindUnavailable, "signaling failed", err)
	}

	b.mu.Lock()
	if b.state != st {
		// The session ended while dialing; drop the late connection.
		b.mu.Unlock()
		conn.Close()
		return CallSession{}, ErrNoCall
	}
	st.conn = conn
	snapshot := st.sess
	b.mu.Unlock()

	go b.watch(st.sess.ID, conn)
	go b.reportCall(token, snapshot)

	return snapshot, nil
}

// EndCall hangs up the current session locally.
func (b *Bridge) EndCall(ctx context.Context) error {
	b.mu.Lock()
	if b.state == nil {
		b.mu.Unlock()
		return ErrNoCall
	}
	id := b.state.sess.ID
	b.mu.Unlock()

	b.end(ctx, id, "local_hangup")
	return nil
}

// Current returns the active session, if any.
func (b *Bridge) Current() (CallSession, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state == nil {
		return CallSession{}, false
	}
	return b.state.sess, true
}

// transition is the single mutation entry point for phase changes. It
// no-ops (returning false) when the session is gone or the move is not
// an edge of the lifecycle graph.
func (b *Bridge) transition(sessionID string, to Phase) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state == nil || b.state.sess.ID != sessionID {
		return false
	}
	if !canTransition(b.state.sess.Phase, to) {
		return false
	}
	b.state.sess.Phase = to
	if to == PhaseLive {
		b.state.wasLive = true
	}
	b.log.CallEvent(sessionID, string(to), b.state.sess.Number)
	return true
}

// watch pumps signaling events into the state machine until the leg
// reports the call over.
func (b *Bridge) watch(sessionID string, conn SignalConn) {
	ctx := context.Background()
	for sig := range conn.Events() {
		switch sig.Type {
		case SignalConnected:
			b.transition(sessionID, PhaseLive)
		case SignalEnded:
			b.end(ctx, sessionID, "remote_hangup")
			return
		case SignalError:
			b.log.Warn("signaling error", "session_id", sessionID, "reason", sig.Reason)
			b.end(ctx, sessionID, "error")
			return
		}
	}
}

// end tears the session down. It runs at most once per session: the
// state is detached under the lock, so a second caller finds nothing.
// The audio capability is released exactly once, on every exit path.
func (b *Bridge) end(ctx context.Context, sessionID, cause string) {
	b.mu.Lock()
	st := b.state
	if st == nil || st.sess.ID != sessionID {
		b.mu.Unlock()
		return
	}
	wasLive := st.wasLive
	st.sess.Phase = PhaseEnded
	b.state = nil
	b.mu.Unlock()

	if st.conn != nil {
		_ = st.conn.Hangup()
		_ = st.conn.Close()
	}
	if st.release != nil {
		st.release()
	}

	b.log.CallEvent(sessionID, string(PhaseEnded), st.sess.Number)
	if b.metrics != nil {
		b.metrics.CallsEnded.WithLabelValues(cause).Inc()
	}
	b.bus.Publish(ctx, events.CallEnded{
		BaseEvent: events.NewBaseEvent(),
		SessionID: sessionID,
		CaseID:    st.sess.CaseID,
		Cause:     cause,
		WasLive:   wasLive,
	})

	// One delayed refresh after a live call, so the ledger's post-call
	// analysis has landed by the time the worklist re-syncs.
	if wasLive && b.resync != nil {
		if err := b.resync.ScheduleResync(ctx, b.resyncDelay); err != nil {
			b.log.Warn("post-call resync scheduling failed", "error", err.Error())
		}
	}
}

// reportCall tells the ledger a call was placed. Best-effort telemetry:
// a failure never aborts the call.
func (b *Bridge) reportCall(token string, sess CallSession) {
	ctx, cancel := context.WithTimeout(context.Background(), auditTimeout)
	defer cancel()

	if err := b.client.ReportCall(ctx, token, sess.CaseID, sess.Number); err != nil {
		b.log.Warn("call audit report failed", "session_id", sess.ID, "error", err.Error())
	}
}
