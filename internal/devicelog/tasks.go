// Package devicelog reconciles the device's native call log against stored
// call history: a background job patches records whose duration or outcome
// the live event stream got wrong or never saw.
package devicelog

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const TaskCallLogResync = "devicelog.resync"

// CallLogEntry is one row of the device's native call log.
type CallLogEntry struct {
	Phone           string `json:"phone"`
	Direction       string `json:"direction"`
	TimestampMs     int64  `json:"timestampMs"`
	DurationSeconds int    `json:"durationSeconds"`
	Outcome         string `json:"outcome,omitempty"`
}

type ResyncPayload struct {
	DeviceID string         `json:"deviceId"`
	Entries  []CallLogEntry `json:"entries"`
}

func NewResyncTask(payload ResyncPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskCallLogResync, data), nil
}

func ParseResyncPayload(task *asynq.Task) (ResyncPayload, error) {
	var payload ResyncPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return ResyncPayload{}, err
	}
	return payload, nil
}
