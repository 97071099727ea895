package generatematches

import (
	"context"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"brokerage-matchmaking/internal/common/camunda"
	apperrors "brokerage-matchmaking/internal/common/errors"
	"brokerage-matchmaking/internal/common/logger"
	"brokerage-matchmaking/internal/matchmaking/generator"
	"brokerage-matchmaking/pkg/registry"
)

const TaskType = "generate-matches"

type Generator interface {
	GenerateForBuyer(ctx context.Context, buyerID string, opts generator.Options) (*generator.Result, error)
	GenerateForSeller(ctx context.Context, sellerID, listingID string, opts generator.Options) (*generator.Result, error)
}

type Handler struct {
	config    *Config
	generator Generator
	schema    map[string]interface{}
	responder *camunda.Responder
	logger    logger.Logger
}

func NewHandler(config *Config, gen Generator, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:    config,
		generator: gen,
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
	opts := generator.Options{Limit: input.Limit, Force: input.Force}
	if h.config.MaxLimit > 0 && opts.Limit > h.config.MaxLimit {
		opts.Limit = h.config.MaxLimit
	}

	var (
		result *generator.Result
		err    error
	)
	switch input.Direction {
	case "", DirectionBuyer:
		result, err = h.generator.GenerateForBuyer(ctx, input.UserID, opts)
	case DirectionSeller:
		if input.ListingID == "" {
			return nil, apperrors.NewValidationError("listingId is required for seller generation")
		}
		result, err = h.generator.GenerateForSeller(ctx, input.UserID, input.ListingID, opts)
	default:
		return nil, apperrors.NewValidationError("direction must be buyer or seller")
	}
	if err != nil {
		return nil, err
	}

	out := &Output{
		MatchIDs:            make([]string, 0, len(result.Matches)),
		Matches:             make([]MatchSummary, 0, len(result.Matches)),
		MatchCount:          len(result.Matches),
		TotalCandidates:     result.TotalCandidates,
		QualifiedCandidates: result.QualifiedCandidates,
		Skipped:             result.Skipped,
		Failed:              result.Failed,
	}
	for _, m := range result.Matches {
		out.MatchIDs = append(out.MatchIDs, m.ID)
		out.Matches = append(out.Matches, MatchSummary{
			MatchID:            m.ID,
			BuyerID:            m.BuyerID,
			ListingID:          m.ListingID,
			CompatibilityScore: m.CompatibilityScore,
		})
		if m.CompatibilityScore > out.TopScore {
			out.TopScore = m.CompatibilityScore
		}
	}
	return out, nil
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
