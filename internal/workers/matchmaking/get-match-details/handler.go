package getmatchdetails

import (
	"context"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"brokerage-matchmaking/internal/common/camunda"
	"brokerage-matchmaking/internal/common/logger"
	"brokerage-matchmaking/internal/matchmaking/lifecycle"
	"brokerage-matchmaking/pkg/registry"
)

const TaskType = "get-match-details"

type DetailsReader interface {
	GetMatchDetails(ctx context.Context, matchID string) (*lifecycle.MatchDetails, error)
}

type Handler struct {
	config    *Config
	details   DetailsReader
	schema    map[string]interface{}
	responder *camunda.Responder
	logger    logger.Logger
}

func NewHandler(config *Config, details DetailsReader, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:    config,
		details:   details,
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

	var input Input
	if err := camunda.DecodeVariables(job, h.schema, &input); err != nil {
		return h.responder.Fail(ctx, client, job, err)
	}

	details, err := h.details.GetMatchDetails(ctx, input.MatchID)
	if err != nil {
		return h.responder.Fail(ctx, client, job, err)
	}
	return h.responder.Complete(ctx, client, job, &Output{Details: details})
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	details, err := h.details.GetMatchDetails(ctx, input.MatchID)
	if err != nil {
		return nil, err
	}
	return &Output{Details: details}, nil
}
