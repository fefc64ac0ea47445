package devicelog

import (
	"context"
	"errors"
	"fmt"

	"leadline_backend/internal/calls/engine"
	"leadline_backend/internal/leads/repository"
	"leadline_backend/platform/config"
	"leadline_backend/platform/logger"

	"github.com/hibiken/asynq"
)

// CallPatcher applies authoritative call-log corrections to stored history.
type CallPatcher interface {
	UpdateCallFromCallLog(ctx context.Context, p engine.CallLogCorrectionParams) error
}

type Worker struct {
	server  *asynq.Server
	mux     *asynq.ServeMux
	patcher CallPatcher
	log     *logger.Logger
}

func NewWorker(cfg config.SchedulerConfig, patcher CallPatcher, log *logger.Logger) (*Worker, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	queue := cfg.GetAsynqQueueName()
	if queue == "" {
		queue = "default"
	}

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 10
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queue: 1,
		},
	})

	mux := asynq.NewServeMux()
	w := &Worker{
		server:  server,
		mux:     mux,
		patcher: patcher,
		log:     log,
	}

	mux.HandleFunc(TaskCallLogResync, w.handleResync)

	return w, nil
}

// handleResync patches stored call records from the uploaded call log.
// Entries without a stored counterpart are skipped: the resync never
// fabricates history the event stream did not produce.
func (w *Worker) handleResync(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseResyncPayload(task)
	if err != nil {
		return err
	}

	var patched, skipped int
	for _, entry := range payload.Entries {
		correction, ok := ToCorrection(entry)
		if !ok {
			skipped++
			continue
		}

		err := w.patcher.UpdateCallFromCallLog(ctx, correction)
		switch {
		case err == nil:
			patched++
		case errors.Is(err, repository.ErrNoMatch):
			skipped++
		default:
			w.log.StorageError("call log resync", correction.Phone, err)
			return err
		}
	}

	w.log.Info("call log resync complete",
		"deviceId", payload.DeviceID,
		"entries", len(payload.Entries),
		"patched", patched,
		"skipped", skipped,
	)
	return nil
}

func (w *Worker) Run(ctx context.Context) error {
	if w == nil || w.server == nil {
		return nil
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	return w.server.Run(w.mux)
}
