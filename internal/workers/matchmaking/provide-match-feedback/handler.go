package providematchfeedback

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

const TaskType = "provide-match-feedback"

type FeedbackRecorder interface {
	ProvideFeedback(ctx context.Context, in lifecycle.FeedbackInput) (*lifecycle.FeedbackResult, error)
}

type Handler struct {
	config    *Config
	feedback  FeedbackRecorder
	schema    map[string]interface{}
	responder *camunda.Responder
	logger    logger.Logger
}

func NewHandler(config *Config, feedback FeedbackRecorder, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:    config,
		feedback:  feedback,
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
	res, err := h.feedback.ProvideFeedback(ctx, lifecycle.FeedbackInput{
		MatchID:  input.MatchID,
		UserID:   input.UserID,
		Rating:   input.Rating,
		Type:     models.FeedbackType(input.FeedbackType),
		Comments: input.Comments,
		Helpful:  input.Helpful,
		Reasons:  input.Reasons,
	})
	if err != nil {
		return nil, err
	}

	return &Output{
		FeedbackID:   res.Feedback.ID,
		FeedbackType: string(res.Feedback.FeedbackType),
		QualityScore: res.QualityScore,
	}, nil
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
