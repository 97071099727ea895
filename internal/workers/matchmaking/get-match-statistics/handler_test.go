package getmatchstatistics

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/pb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"brokerage-matchmaking/internal/common/camunda"
	"brokerage-matchmaking/internal/common/config"
	apperrors "brokerage-matchmaking/internal/common/errors"
	"brokerage-matchmaking/internal/common/logger"
	"brokerage-matchmaking/internal/matchmaking/lifecycle"
	"brokerage-matchmaking/internal/models"
	"brokerage-matchmaking/internal/store/memstore"
)

func createMockJob(key int64, variables map[string]interface{}) entities.Job {
	variablesJSON, _ := json.Marshal(variables)

	activatedJob := &pb.ActivatedJob{
		Key:                      key,
		Type:                     TaskType,
		ProcessInstanceKey:       key * 10,
		BpmnProcessId:            "dashboard",
		ProcessDefinitionVersion: 1,
		ProcessDefinitionKey:     1,
		ElementId:                "Activity_GetMatchStatistics",
		ElementInstanceKey:       1,
		CustomHeaders:            "{}",
		Worker:                   "test-worker",
		Retries:                  3,
		Variables:                string(variablesJSON),
	}

	return entities.Job{ActivatedJob: activatedJob}
}

var now = time.Date(2026, 7, 1, 8, 0, 0, 0, time.UTC)

func createTestHandler(t *testing.T) *Handler {
	t.Helper()
	st := memstore.New()
	for i, score := range []int{93, 71, 58} {
		st.PutMatch(&models.Match{
			ID:                 []string{"m-1", "m-2", "m-3"}[i],
			BuyerID:            "buyer-1",
			SellerID:           "seller-1",
			ListingID:          []string{"l-1", "l-2", "l-3"}[i],
			CompatibilityScore: score,
			Status:             models.StatusGenerated,
			GeneratedAt:        now.Add(-time.Duration(i*5) * 24 * time.Hour),
		})
	}

	mgr := lifecycle.NewManager(lifecycle.Deps{Matches: st, Feedback: st}, lifecycle.Policy{}, nil).
		WithClock(func() time.Time { return now })
	return NewHandler(LoadConfig(config.WorkerConfig{}), mgr, logger.NewTestLogger(t))
}

func TestHandler_ValidatesVariables(t *testing.T) {
	h := createTestHandler(t)

	var input Input
	err := camunda.DecodeVariables(createMockJob(1, map[string]interface{}{"userId": "buyer-1"}), h.schema, &input)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeValidationFailed), "role is required")

	err = camunda.DecodeVariables(createMockJob(2, map[string]interface{}{"userId": "buyer-1", "role": "vendor"}), h.schema, &input)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeValidationFailed))

	err = camunda.DecodeVariables(createMockJob(3, map[string]interface{}{"userId": "buyer-1", "role": "buyer"}), h.schema, &input)
	require.NoError(t, err)
	assert.Equal(t, "buyer", input.Role)
}

func TestHandler_Execute(t *testing.T) {
	h := createTestHandler(t)

	out, err := h.Execute(context.Background(), &Input{UserID: "buyer-1", Role: "buyer"})
	require.NoError(t, err)

	stats := out.Statistics
	assert.Equal(t, 3, stats.TotalMatches)
	assert.Equal(t, 74.0, stats.AverageScore)
	assert.Equal(t, 1, stats.ScoreBands["90-100"])
	assert.Equal(t, 1, stats.ScoreBands["70-79"])
	assert.Equal(t, 1, stats.ScoreBands["<60"])
	assert.Equal(t, 2, stats.RecentMatches)
	assert.Equal(t, 1, stats.HighQualityMatches)
}

func TestHandler_Execute_NoMatches(t *testing.T) {
	h := createTestHandler(t)

	out, err := h.Execute(context.Background(), &Input{UserID: "seller-9", Role: "seller"})
	require.NoError(t, err)
	assert.Zero(t, out.Statistics.TotalMatches)
	assert.Zero(t, out.Statistics.AverageScore)
}
