package getmatchdetails

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/pb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"brokerage-matchmaking/internal/common/camunda"
	"brokerage-matchmaking/internal/common/config"
	apperrors "brokerage-matchmaking/internal/common/errors"
	"brokerage-matchmaking/internal/common/logger"
	"brokerage-matchmaking/internal/matchmaking/lifecycle"
	"brokerage-matchmaking/internal/models"
)

type MockDetailsReader struct {
	mock.Mock
}

func (m *MockDetailsReader) GetMatchDetails(ctx context.Context, matchID string) (*lifecycle.MatchDetails, error) {
	args := m.Called(ctx, matchID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*lifecycle.MatchDetails), args.Error(1)
}

func createMockJob(key int64, variables map[string]interface{}) entities.Job {
	variablesJSON, _ := json.Marshal(variables)

	activatedJob := &pb.ActivatedJob{
		Key:                      key,
		Type:                     TaskType,
		ProcessInstanceKey:       key * 10,
		BpmnProcessId:            "deal-pipeline",
		ProcessDefinitionVersion: 1,
		ProcessDefinitionKey:     1,
		ElementId:                "Activity_GetMatchDetails",
		ElementInstanceKey:       1,
		CustomHeaders:            "{}",
		Worker:                   "test-worker",
		Retries:                  3,
		Variables:                string(variablesJSON),
	}

	return entities.Job{ActivatedJob: activatedJob}
}

func TestHandler_ValidatesVariables(t *testing.T) {
	h := NewHandler(LoadConfig(config.WorkerConfig{}), &MockDetailsReader{}, logger.NewTestLogger(t))

	var input Input
	err := camunda.DecodeVariables(createMockJob(1, map[string]interface{}{}), h.schema, &input)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeValidationFailed))

	err = camunda.DecodeVariables(createMockJob(2, map[string]interface{}{"matchId": "m-1"}), h.schema, &input)
	require.NoError(t, err)
	assert.Equal(t, "m-1", input.MatchID)
}

func TestHandler_Execute(t *testing.T) {
	quality := 90
	details := &lifecycle.MatchDetails{
		Match:        &models.Match{ID: "m-1", CompatibilityScore: 88},
		Buyer:        &models.ProfileSummary{ID: "buyer-1", FullName: "Dana Buyer"},
		QualityScore: &quality,
		Interactions: lifecycle.InteractionSummary{Total: 2},
	}
	reader := &MockDetailsReader{}
	reader.On("GetMatchDetails", mock.Anything, "m-1").Return(details, nil)
	reader.On("GetMatchDetails", mock.Anything, "gone").Return(nil, apperrors.NewNotFoundError("match", "gone"))

	h := NewHandler(&Config{Timeout: time.Second}, reader, logger.NewTestLogger(t))

	out, err := h.Execute(context.Background(), &Input{MatchID: "m-1"})
	require.NoError(t, err)
	assert.Same(t, details, out.Details)

	_, err = h.Execute(context.Background(), &Input{MatchID: "gone"})
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeNotFound))
	reader.AssertExpectations(t)
}
