// internal/common/camunda/jobs.go
package camunda

import (
	"context"
	"encoding/json"
	"fmt"

	apperrors "brokerage-matchmaking/internal/common/errors"
	"brokerage-matchmaking/internal/common/logger"
	"brokerage-matchmaking/internal/common/metrics"
	"brokerage-matchmaking/internal/common/validation"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

// Responder completes or fails jobs on behalf of a worker handler.
type Responder struct {
	taskType string
	errors   *apperrors.ErrorHandler
	logger   logger.Logger
}

func NewResponder(taskType string, log logger.Logger) *Responder {
	return &Responder{
		taskType: taskType,
		errors:   apperrors.NewErrorHandler(log),
		logger:   log,
	}
}

// Complete sends output as the job's result variables.
func (r *Responder) Complete(ctx context.Context, client worker.JobClient, job entities.Job, output interface{}) error {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		r.logger.Error("failed to create complete job command", map[string]interface{}{
			"jobKey": job.Key,
			"error":  err,
		})
		return r.Fail(ctx, client, job, apperrors.NewInternalError(fmt.Errorf("encode output: %w", err)))
	}

	if _, err := cmd.Send(ctx); err != nil {
		r.logger.Error("failed to send complete job command", map[string]interface{}{
			"jobKey": job.Key,
			"error":  err,
		})
		return err
	}

	metrics.WorkerJobsCompleted.WithLabelValues(r.taskType).Inc()
	r.logger.Info("job completed successfully", map[string]interface{}{"jobKey": job.Key})
	return nil
}

// Fail records the failure and fails or throws the job according to its error code.
func (r *Responder) Fail(ctx context.Context, client worker.JobClient, job entities.Job, err error) error {
	stdErr := apperrors.Normalize(err)
	metrics.WorkerJobsFailed.WithLabelValues(r.taskType, string(stdErr.Code)).Inc()
	r.errors.HandleJobError(ctx, client, job, stdErr)
	return stdErr
}

// DecodeVariables validates the job's variables against schema and decodes
// them into out.
func DecodeVariables(job entities.Job, schema map[string]interface{}, out interface{}) error {
	if err := validation.ValidateJSON(schema, job.Variables); err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(job.Variables), out); err != nil {
		return apperrors.NewValidationError(fmt.Sprintf("parse input: %v", err))
	}
	return nil
}
