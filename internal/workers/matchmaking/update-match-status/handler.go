package updatematchstatus

import (
	"context"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"brokerage-matchmaking/internal/common/camunda"
	"brokerage-matchmaking/internal/common/logger"
	"brokerage-matchmaking/internal/matchmaking/lifecycle"
	"brokerage-matchmaking/internal/models"
	"brokerage-matchmaking/pkg/registry"
)

const TaskType = "update-match-status"

type Lifecycle interface {
	GetMatch(ctx context.Context, id string) (*models.Match, error)
	UpdateStatus(ctx context.Context, u lifecycle.StatusUpdate) (*models.Match, error)
}

type Handler struct {
	config    *Config
	lifecycle Lifecycle
	schema    map[string]interface{}
	responder *camunda.Responder
	logger    logger.Logger
}

func NewHandler(config *Config, lc Lifecycle, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:    config,
		lifecycle: lc,
		schema:    registry.MustDefault().InputSchema(TaskType),
		responder: camunda.NewResponder(TaskType, log),
		logger:    log,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) error {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	input, err := h.parseInput(job)
	if err != nil {
		return h.responder.Fail(ctx, client, job, err)
	}

	output, err := h.execute(ctx, input)
	if err != nil {
		return h.responder.Fail(ctx, client, job, err)
	}
	return h.responder.Complete(ctx, client, job, output)
}

func (h *Handler) parseInput(job entities.Job) (*Input, error) {
	var input Input
	if err := camunda.DecodeVariables(job, h.schema, &input); err != nil {
		return nil, err
	}
	return &input, nil
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	before, err := h.lifecycle.GetMatch(ctx, input.MatchID)
	if err != nil {
		return nil, err
	}

	updated, err := h.lifecycle.UpdateStatus(ctx, lifecycle.StatusUpdate{
		MatchID: input.MatchID,
		Status:  models.MatchStatus(input.Status),
		UserID:  input.UserID,
		Notes:   input.Notes,
	})
	if err != nil {
		return nil, err
	}

	return &Output{
		MatchID:        updated.ID,
		Status:         string(updated.Status),
		PreviousStatus: string(before.Status),
		Changed:        updated.Status != before.Status,
		UpdatedAt:      updated.UpdatedAt,
	}, nil
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
