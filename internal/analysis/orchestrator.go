// Package analysis runs scoring batches: one request per unscored case,
// fanned out concurrently against the remote scoring service.
package analysis

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"collections_console/internal/cases"
	"collections_console/internal/events"
	"collections_console/internal/ledger"
	"collections_console/internal/session"
	"collections_console/platform/logger"
	"collections_console/platform/metrics"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// BatchResult summarizes one batch run.
type BatchResult struct {
	BatchID   string `json:"batchId"`
	Submitted int    `json:"submitted"`
	Failed    int    `json:"failed"`
}

// Orchestrator computes the set of cases lacking a score and submits
// one scoring request per case. A batch is best-effort, not atomic: a
// single request's failure never cancels the others.
type Orchestrator struct {
	store   *cases.Store
	client  *ledger.Client
	session *session.Manager
	bus     events.Bus
	log     *logger.Logger
	metrics *metrics.Metrics

	concurrency int
	perRequest  time.Duration
	limiter     *rate.Limiter
}

// NewOrchestrator creates a batch orchestrator. concurrency bounds the
// in-flight scoring requests; perRequest bounds each request so one
// stalled call cannot hold the batch open forever; requestRate paces
// submissions to the scoring service.
func NewOrchestrator(store *cases.Store, client *ledger.Client, sess *session.Manager, bus events.Bus, log *logger.Logger, m *metrics.Metrics, concurrency int, perRequest time.Duration, requestRate float64) *Orchestrator {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Orchestrator{
		store:       store,
		client:      client,
		session:     sess,
		bus:         bus,
		log:         log,
		metrics:     m,
		concurrency: concurrency,
		perRequest:  perRequest,
		limiter:     rate.NewLimiter(rate.Limit(requestRate), concurrency),
	}
}

// RunBatch executes one full batch:
//
//  1. refresh the store so the batch starts from ground truth;
//  2. snapshot the unscored case ids from exactly that refresh's result;
//  3. submit one scoring request per snapshot entry, concurrently;
//  4. wait until every request settles (success or failure);
//  5. refresh again so whatever succeeded becomes visible.
//
// A case already scored at snapshot time is never re-submitted, even if
// the store changes under the batch.
func (o *Orchestrator) RunBatch(ctx context.Context) (BatchResult, error) {
	fresh, err := o.store.Refresh(ctx, "batch")
	if err != nil {
		return BatchResult{}, err
	}

	token, ok := o.session.Token()
	if !ok {
		return BatchResult{}, cases.ErrNoSession
	}

	snapshot := make([]cases.Case, 0, len(fresh))
	for _, c := range fresh {
		if !c.Scored() {
			snapshot = append(snapshot, c)
		}
	}

	result := BatchResult{
		BatchID:   uuid.NewString(),
		Submitted: len(snapshot),
	}
	if o.metrics != nil {
		o.metrics.BatchRuns.Inc()
	}

	var failed atomic.Int64
	var authExpired atomic.Bool

	g := new(errgroup.Group)
	g.SetLimit(o.concurrency)
	now := time.Now()

	for _, c := range snapshot {
		g.Go(func() error {
			if err := o.scoreOne(ctx, token, c, now); err != nil {
				failed.Add(1)
				if errors.Is(err, ledger.ErrAuthExpired) {
					authExpired.Store(true)
				}
				o.recordRequest("error")
				o.log.Warn("scoring request failed", "case_id", c.ID, "error", err.Error())
				return nil
			}
			o.recordRequest("ok")
			return nil
		})
	}
	// Workers always return nil: the batch settles, it never cancels.
	_ = g.Wait()

	if authExpired.Load() {
		if invErr := o.session.Invalidate(ctx); invErr != nil {
			o.log.Warn("session invalidation failed", "error", invErr.Error())
		}
	}

	// Final refresh regardless of individual outcomes, so the scores
	// that did land become visible.
	if _, err := o.store.Refresh(ctx, "batch"); err != nil {
		o.log.Warn("post-batch refresh failed", "error", err.Error())
	}

	result.Failed = int(failed.Load())
	o.log.BatchEvent(result.BatchID, result.Submitted, result.Failed)
	o.bus.Publish(ctx, events.AnalysisBatchCompleted{
		BaseEvent: events.NewBaseEvent(),
		BatchID:   result.BatchID,
		Submitted: result.Submitted,
		Failed:    result.Failed,
	})

	return result, nil
}

func (o *Orchestrator) scoreOne(ctx context.Context, token string, c cases.Case, now time.Time) error {
	if err := o.limiter.Wait(ctx); err != nil {
		return err
	}

	reqCtx := ctx
	if o.perRequest > 0 {
		var cancel context.CancelFunc
		reqCtx, cancel = context.WithTimeout(ctx, o.perRequest)
		defer cancel()
	}

	_, err := o.client.Analyze(reqCtx, token, ledger.AnalyzeRequest{
		CaseID:       c.ID,
		CompanyName:  c.CompanyName,
		Amount:       c.Amount,
		InitialScore: c.InitialScore,
		AgeDays:      c.AgeDays,
		HistoryLogs:  c.InteractionDayOffsets(now),
	})
	return err
}

func (o *Orchestrator) recordRequest(outcome string) {
	if o.metrics != nil {
		o.metrics.BatchRequests.WithLabelValues(outcome).Inc()
	}
}
