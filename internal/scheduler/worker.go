package scheduler

import (
	"context"
	"errors"
	"fmt"

	"collections_console/internal/cases"
	"collections_console/platform/config"
	"collections_console/platform/logger"

	"github.com/hibiken/asynq"
)

type Worker struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	store  *cases.Store
	log    *logger.Logger
}

func NewWorker(cfg config.SchedulerConfig, store *cases.Store, log *logger.Logger) (*Worker, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL)
	if err != nil {
		return nil, err
	}

	queue := cfg.GetSchedulerQueue()
	if queue == "" {
		queue = "default"
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: 1,
		Queues: map[string]int{
			queue: 1,
		},
	})

	mux := asynq.NewServeMux()
	w := &Worker{
		server: server,
		mux:    mux,
		store:  store,
		log:    log,
	}

	mux.HandleFunc(TaskCaseResync, w.handleCaseResync)

	return w, nil
}

func (w *Worker) handleCaseResync(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseCaseResyncPayload(task)
	if err != nil {
		return err
	}

	if _, err := w.store.Refresh(ctx, payload.Trigger); err != nil {
		// Without a session there is nothing to resync; the task is
		// dropped rather than retried against a logged-out console.
		if errors.Is(err, cases.ErrNoSession) {
			return nil
		}
		return err
	}
	return nil
}

func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("scheduler worker stopped", "error", err)
	}
}
