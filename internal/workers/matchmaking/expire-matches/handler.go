package expirematches

import (
	"context"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"brokerage-matchmaking/internal/common/camunda"
	"brokerage-matchmaking/internal/common/logger"
	"brokerage-matchmaking/pkg/registry"
)

const TaskType = "expire-matches"

// Expirer moves open matches older than maxAge to expired.
type Expirer interface {
	ExpireStale(ctx context.Context, maxAge time.Duration) (int, error)
}

type Handler struct {
	config    *Config
	expirer   Expirer
	schema    map[string]interface{}
	responder *camunda.Responder
	logger    logger.Logger
}

func NewHandler(config *Config, expirer Expirer, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:    config,
		expirer:   expirer,
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
	days := input.MaxAgeDays
	if days <= 0 {
		days = h.config.MaxAgeDays
	}

	n, err := h.expirer.ExpireStale(ctx, time.Duration(days)*24*time.Hour)
	if err != nil {
		return nil, err
	}
	return &Output{Expired: n, MaxAgeDays: days}, nil
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
