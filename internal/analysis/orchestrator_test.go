package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"collections_console/internal/cases"
	"collections_console/internal/events"
	"collections_console/internal/ledger"
	"collections_console/internal/session"
	"collections_console/platform/logger"
)

type fakeScoring struct {
	mu           sync.Mutex
	cases        []ledger.CaseRecord
	listCalls    int
	analyzed     []string
	failCaseIDs  map[string]bool
	rejectAuthOn string // case id whose analyze call answers 401
}

func (f *fakeScoring) server(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("POST /token", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(ledger.TokenResponse{AccessToken: "test-token"})
	})
	mux.HandleFunc("GET /api/v1/cases", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.listCalls++
		json.NewEncoder(w).Encode(f.cases)
	})
	mux.HandleFunc("POST /api/v1/analyze", func(w http.ResponseWriter, r *http.Request) {
		var req ledger.AnalyzeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		f.mu.Lock()
		f.analyzed = append(f.analyzed, req.CaseID)
		fail := f.failCaseIDs[req.CaseID]
		authFail := f.rejectAuthOn == req.CaseID
		f.mu.Unlock()

		if authFail {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if fail {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		json.NewEncoder(w).Encode(ledger.AnalyzeResponse{
			CaseID: req.CaseID,
			Score:  0.5,
			AllocationDecision: ledger.AllocationDecision{
				Action: "CALL",
			},
		})
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func (f *fakeScoring) analyzedIDs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.analyzed))
	copy(out, f.analyzed)
	return out
}

func scorePtr(v float64) *float64 { return &v }

func newTestOrchestrator(t *testing.T, fake *fakeScoring) (*Orchestrator, *session.Manager) {
	t.Helper()
	log := logger.New("development")
	bus := events.NewInMemoryBus(log)
	client := ledger.New(fake.server(t).URL, 2*time.Second, log)
	sess := session.New(client, nil, bus, log, nil)
	store := cases.NewStore(client, sess, time.Hour, bus, log, nil)
	orch := NewOrchestrator(store, client, sess, bus, log, nil, 3, 2*time.Second, 1000)

	if err := sess.Open(context.Background(), "agent", "secret"); err != nil {
		t.Fatalf("login failed: %v", err)
	}
	return orch, sess
}

func TestRunBatchScoresOnlyUnscoredCases(t *testing.T) {
	fake := &fakeScoring{cases: []ledger.CaseRecord{
		{CaseID: "c1", Status: "PENDING"},
		{CaseID: "c2", Status: "PENDING", PScore: scorePtr(0.9), Decision: "CALL"},
		{CaseID: "c3", Status: "PENDING"},
	}}
	orch, _ := newTestOrchestrator(t, fake)

	result, err := orch.RunBatch(context.Background())
	if err != nil {
		t.Fatalf("batch failed: %v", err)
	}
	if result.Submitted != 2 {
		t.Fatalf("expected 2 submissions, got %d", result.Submitted)
	}
	if result.Failed != 0 {
		t.Fatalf("expected no failures, got %d", result.Failed)
	}

	seen := map[string]int{}
	for _, id := range fake.analyzedIDs() {
		seen[id]++
	}
	if seen["c2"] != 0 {
		t.Fatal("already scored case must never be re-submitted")
	}
	if seen["c1"] != 1 || seen["c3"] != 1 {
		t.Fatalf("each unscored case must be submitted exactly once, got %v", seen)
	}
}

func TestRunBatchRefreshesExactlyTwice(t *testing.T) {
	fake := &fakeScoring{cases: []ledger.CaseRecord{
		{CaseID: "c1", Status: "PENDING"},
	}}
	orch, _ := newTestOrchestrator(t, fake)

	if _, err := orch.RunBatch(context.Background()); err != nil {
		t.Fatalf("batch failed: %v", err)
	}
	if fake.listCalls != 2 {
		t.Fatalf("a batch performs exactly 2 refreshes, got %d", fake.listCalls)
	}
}

func TestRunBatchPartialFailureSettles(t *testing.T) {
	fake := &fakeScoring{
		cases: []ledger.CaseRecord{
			{CaseID: "c1", Status: "PENDING"},
			{CaseID: "c2", Status: "PENDING"},
			{CaseID: "c3", Status: "PENDING"},
		},
		failCaseIDs: map[string]bool{"c2": true},
	}
	orch, sess := newTestOrchestrator(t, fake)

	result, err := orch.RunBatch(context.Background())
	if err != nil {
		t.Fatalf("a failing member must not fail the batch: %v", err)
	}
	if result.Submitted != 3 || result.Failed != 1 {
		t.Fatalf("want 3 submitted / 1 failed, got %d / %d", result.Submitted, result.Failed)
	}
	if len(fake.analyzedIDs()) != 3 {
		t.Fatal("the failing member must not cancel its siblings")
	}
	if _, ok := sess.Token(); !ok {
		t.Fatal("a plain scoring failure must not invalidate the session")
	}
}

func TestRunBatchAuthExpiryForcesSignOut(t *testing.T) {
	fake := &fakeScoring{
		cases: []ledger.CaseRecord{
			{CaseID: "c1", Status: "PENDING"},
			{CaseID: "c2", Status: "PENDING"},
		},
		rejectAuthOn: "c1",
	}
	orch, sess := newTestOrchestrator(t, fake)

	result, err := orch.RunBatch(context.Background())
	if err != nil {
		t.Fatalf("batch should settle even on an auth failure: %v", err)
	}
	if result.Failed < 1 {
		t.Fatalf("the 401 member counts as failed, got %d", result.Failed)
	}
	if _, ok := sess.Token(); ok {
		t.Fatal("a 401 inside the batch must force sign-out after settlement")
	}
}

func TestRunBatchWithoutSession(t *testing.T) {
	fake := &fakeScoring{}
	orch, sess := newTestOrchestrator(t, fake)
	if err := sess.Close(context.Background()); err != nil {
		t.Fatalf("logout failed: %v", err)
	}

	if _, err := orch.RunBatch(context.Background()); !errors.Is(err, cases.ErrNoSession) {
		t.Fatalf("expected ErrNoSession, got %v", err)
	}
	if len(fake.analyzedIDs()) != 0 {
		t.Fatal("no scoring requests may leave without a credential")
	}
}
