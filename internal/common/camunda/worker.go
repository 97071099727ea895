// internal/common/camunda/worker.go
package camunda

import (
	"context"
	"time"

	"brokerage-matchmaking/internal/common/config"
	"brokerage-matchmaking/internal/common/logger"
	"brokerage-matchmaking/internal/common/metrics"
	"brokerage-matchmaking/internal/common/observability"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
)

// JobHandler must return an error so the outcome can be recorded; the job has
// already been completed or failed by the time it returns.
type JobHandler func(client worker.JobClient, job entities.Job) error

// Instrument records active-job gauges, durations and otel job counts around h.
func Instrument(taskType string, obs *observability.Observability, h JobHandler) worker.JobHandler {
	return func(client worker.JobClient, job entities.Job) {
		start := time.Now()
		metrics.WorkerJobsActive.WithLabelValues(taskType).Inc()
		defer func() {
			metrics.WorkerJobsActive.WithLabelValues(taskType).Dec()
			elapsed := time.Since(start)
			metrics.WorkerJobDuration.WithLabelValues(taskType).Observe(elapsed.Seconds())
			if obs != nil {
				obs.RecordJobDuration(context.Background(), taskType, elapsed)
			}
		}()

		status := "completed"
		if err := h(client, job); err != nil {
			status = "failed"
		}
		if obs != nil {
			obs.RecordJobProcessed(context.Background(), taskType, status)
		}
	}
}

// StartWorker opens a job worker for taskType unless it is disabled.
func StartWorker(
	client zbc.Client,
	taskType string,
	wcfg config.WorkerConfig,
	handler JobHandler,
	obs *observability.Observability,
	log logger.Logger,
) worker.JobWorker {
	if !wcfg.Enabled {
		log.Info("worker disabled", map[string]interface{}{"taskType": taskType})
		return nil
	}

	jw := client.NewJobWorker().
		JobType(taskType).
		Handler(Instrument(taskType, obs, handler)).
		MaxJobsActive(wcfg.MaxJobsActive).
		Timeout(config.GetDuration(wcfg.Timeout)).
		Open()

	log.Info("worker started", map[string]interface{}{
		"taskType":      taskType,
		"maxJobsActive": wcfg.MaxJobsActive,
		"timeout_ms":    wcfg.Timeout,
	})
	return jw
}
