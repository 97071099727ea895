package providematchfeedback

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/pb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"brokerage-matchmaking/internal/common/config"
	apperrors "brokerage-matchmaking/internal/common/errors"
	"brokerage-matchmaking/internal/common/logger"
	"brokerage-matchmaking/internal/matchmaking/lifecycle"
	"brokerage-matchmaking/internal/models"
	"brokerage-matchmaking/internal/store/memstore"
)

// ==========================
// Mock Job Helper
// ==========================

func createMockJob(key int64, variables map[string]interface{}) entities.Job {
	variablesJSON, _ := json.Marshal(variables)

	activatedJob := &pb.ActivatedJob{
		Key:                      key,
		Type:                     TaskType,
		ProcessInstanceKey:       key * 10,
		BpmnProcessId:            "match-review",
		ProcessDefinitionVersion: 1,
		ProcessDefinitionKey:     1,
		ElementId:                "Activity_ProvideMatchFeedback",
		ElementInstanceKey:       1,
		CustomHeaders:            "{}",
		Worker:                   "test-worker",
		Retries:                  3,
		Variables:                string(variablesJSON),
	}

	return entities.Job{ActivatedJob: activatedJob}
}

// ==========================
// Test Helpers
// ==========================

func createTestHandler(t *testing.T) (*Handler, *memstore.Store) {
	t.Helper()
	st := memstore.New()
	st.PutMatch(&models.Match{
		ID: "m-1", BuyerID: "buyer-1", SellerID: "seller-1", ListingID: "listing-1",
		CompatibilityScore: 84, Status: models.StatusInterested, AlgorithmVersion: "v1.0",
	})

	mgr := lifecycle.NewManager(lifecycle.Deps{
		Matches:      st,
		Feedback:     st,
		Interactions: st,
		Learning:     st,
	}, lifecycle.Policy{}, logger.NewTestLogger(t))
	return NewHandler(LoadConfig(config.WorkerConfig{}), mgr, logger.NewTestLogger(t)), st
}

// ==========================
// Input Parsing Tests
// ==========================

func TestHandler_ParseInput(t *testing.T) {
	h, _ := createTestHandler(t)

	tests := []struct {
		name      string
		variables map[string]interface{}
		wantErr   bool
	}{
		{"minimal", map[string]interface{}{"matchId": "m-1", "userId": "buyer-1", "rating": 4}, false},
		{"full", map[string]interface{}{
			"matchId": "m-1", "userId": "buyer-1", "rating": 5, "feedbackType": "relevance",
			"comments": "spot on", "helpful": true, "reasons": []string{"location", "price"},
		}, false},
		{"rating below range", map[string]interface{}{"matchId": "m-1", "userId": "buyer-1", "rating": 0}, true},
		{"rating above range", map[string]interface{}{"matchId": "m-1", "userId": "buyer-1", "rating": 6}, true},
		{"fractional rating", map[string]interface{}{"matchId": "m-1", "userId": "buyer-1", "rating": 3.5}, true},
		{"unknown type", map[string]interface{}{"matchId": "m-1", "userId": "buyer-1", "rating": 3, "feedbackType": "vibes"}, true},
		{"missing rating", map[string]interface{}{"matchId": "m-1", "userId": "buyer-1"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.parseInput(createMockJob(1, tt.variables))
			if tt.wantErr {
				assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeValidationFailed))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

// ==========================
// Execute Tests
// ==========================

func TestHandler_Execute_UpdatesQualityScore(t *testing.T) {
	h, st := createTestHandler(t)
	ctx := context.Background()

	out, err := h.Execute(ctx, &Input{MatchID: "m-1", UserID: "buyer-1", Rating: 5})
	require.NoError(t, err)
	assert.NotEmpty(t, out.FeedbackID)
	assert.Equal(t, "overall", out.FeedbackType)
	assert.Equal(t, 100, out.QualityScore)

	out, err = h.Execute(ctx, &Input{MatchID: "m-1", UserID: "seller-1", Rating: 3, FeedbackType: "accuracy"})
	require.NoError(t, err)
	assert.Equal(t, 80, out.QualityScore)

	m, _ := st.GetMatch(ctx, "m-1")
	require.NotNil(t, m.QualityScore)
	assert.Equal(t, 80, *m.QualityScore)
	assert.Len(t, st.LearningRecords(), 2)
}

func TestHandler_Execute_UnknownMatch(t *testing.T) {
	h, _ := createTestHandler(t)

	_, err := h.Execute(context.Background(), &Input{MatchID: "ghost", UserID: "buyer-1", Rating: 4})
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeNotFound))
}
