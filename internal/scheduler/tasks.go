package scheduler

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

// TaskCaseResync is enqueued with a delay after a live call ends, so
// the worklist re-syncs once the ledger's post-call analysis has landed.
const TaskCaseResync = "cases.resync"

type CaseResyncPayload struct {
	Trigger string `json:"trigger"`
}

func NewCaseResyncTask(payload CaseResyncPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskCaseResync, data), nil
}

func ParseCaseResyncPayload(task *asynq.Task) (CaseResyncPayload, error) {
	var payload CaseResyncPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return CaseResyncPayload{}, err
	}
	return payload, nil
}
