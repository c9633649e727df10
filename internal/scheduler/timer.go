package scheduler

import (
	"context"
	"time"

	"collections_console/internal/cases"
	"collections_console/platform/logger"
)

// TimerResync is the in-process fallback used when redis is not
// configured. The delayed refresh does not survive a restart, which is
// acceptable for a single-operator console.
type TimerResync struct {
	store *cases.Store
	log   *logger.Logger
}

func NewTimerResync(store *cases.Store, log *logger.Logger) *TimerResync {
	return &TimerResync{store: store, log: log}
}

func (t *TimerResync) ScheduleResync(_ context.Context, delay time.Duration) error {
	time.AfterFunc(delay, func() {
		if _, err := t.store.Refresh(context.Background(), "post_call"); err != nil {
			t.log.Warn("post-call resync failed", "error", err.Error())
		}
	})
	return nil
}
