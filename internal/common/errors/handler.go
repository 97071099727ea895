// internal/common/errors/handler.go
package errors

import (
	"context"
	"encoding/json"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

// ErrorHandler turns handler errors into failed jobs (retryable) or thrown BPMN errors.
type ErrorHandler struct {
	logger Logger
}

type Logger interface {
	Error(msg string, fields map[string]interface{})
}

func NewErrorHandler(logger Logger) *ErrorHandler {
	return &ErrorHandler{logger: logger}
}

// JobOutcome is what the broker is told about a failed job.
type JobOutcome struct {
	// Fail reports a job failure with Retries left; otherwise a BPMN error is thrown.
	Fail    bool
	Retries int32
	Error   *BPMNError
	Cause   *StandardError
}

// ResolveJobError decides how a job with jobRetries remaining reacts to err.
// Retryable codes fail the job while both the job and the code still have
// retries; everything else is thrown so a boundary event can route it.
func ResolveJobError(jobRetries int32, err error) JobOutcome {
	stdErr := Normalize(err)
	bpmnErr := ConvertToBPMNError(stdErr)
	out := JobOutcome{Error: bpmnErr, Cause: stdErr}

	if bpmnErr.Retries > 0 && jobRetries > 1 {
		out.Fail = true
		out.Retries = min(jobRetries-1, int32(bpmnErr.Retries))
	}
	return out
}

// Normalize ensures we always have a StandardError.
func Normalize(err error) *StandardError {
	if stdErr, ok := AsStandardError(err); ok {
		return stdErr
	}
	return NewInternalError(err)
}

// HandleJobError reports err to the broker for job.
func (h *ErrorHandler) HandleJobError(ctx context.Context, client worker.JobClient, job entities.Job, err error) {
	out := ResolveJobError(job.Retries, err)
	h.logError(job, out)

	vars := h.errorVariables(out.Error)
	var sendErr error
	if out.Fail {
		cmd := client.NewFailJobCommand().
			JobKey(job.Key).
			Retries(out.Retries).
			ErrorMessage(out.Error.Message)
		if vars != "" {
			if withVars, err := cmd.VariablesFromString(vars); err == nil {
				_, sendErr = withVars.Send(ctx)
				h.logSendFailure(job, "fail", sendErr)
				return
			}
		}
		_, sendErr = cmd.Send(ctx)
		h.logSendFailure(job, "fail", sendErr)
		return
	}

	cmd := client.NewThrowErrorCommand().
		JobKey(job.Key).
		ErrorCode(out.Error.Code).
		ErrorMessage(out.Error.Message)
	if vars != "" {
		if withVars, err := cmd.VariablesFromString(vars); err == nil {
			_, sendErr = withVars.Send(ctx)
			h.logSendFailure(job, "throw", sendErr)
			return
		}
	}
	_, sendErr = cmd.Send(ctx)
	h.logSendFailure(job, "throw", sendErr)
}

func (h *ErrorHandler) errorVariables(bpmnErr *BPMNError) string {
	data, err := json.Marshal(bpmnErr.ToErrorVariables())
	if err != nil {
		return ""
	}
	return string(data)
}

func (h *ErrorHandler) logSendFailure(job entities.Job, command string, err error) {
	if err == nil {
		return
	}
	h.logger.Error("Failed to report job error to broker", map[string]interface{}{
		"jobKey":  job.Key,
		"jobType": job.Type,
		"command": command,
		"error":   err.Error(),
	})
}

func (h *ErrorHandler) logError(job entities.Job, out JobOutcome) {
	h.logger.Error("Job failed", map[string]interface{}{
		"jobKey":           job.Key,
		"jobType":          job.Type,
		"errorCode":        string(out.Cause.Code),
		"bpmnErrorCode":    out.Error.Code,
		"message":          out.Error.Message,
		"details":          out.Cause.Details,
		"retryable":        out.Cause.Retryable,
		"failJob":          out.Fail,
		"retriesLeft":      out.Retries,
		"errorCategory":    GetErrorCategory(out.Cause.Code),
		"workflowInstance": job.ProcessInstanceKey,
	})
}
