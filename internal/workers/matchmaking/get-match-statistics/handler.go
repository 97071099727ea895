package getmatchstatistics

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

const TaskType = "get-match-statistics"

type StatisticsReader interface {
	GetStatistics(ctx context.Context, userID string, role models.Role) (*lifecycle.Statistics, error)
}

type Handler struct {
	config    *Config
	stats     StatisticsReader
	schema    map[string]interface{}
	responder *camunda.Responder
	logger    logger.Logger
}

func NewHandler(config *Config, stats StatisticsReader, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:    config,
		stats:     stats,
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

	output, err := h.execute(ctx, &input)
	if err != nil {
		return h.responder.Fail(ctx, client, job, err)
	}
	return h.responder.Complete(ctx, client, job, output)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	stats, err := h.stats.GetStatistics(ctx, input.UserID, models.Role(input.Role))
	if err != nil {
		return nil, err
	}
	return &Output{Statistics: stats}, nil
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
