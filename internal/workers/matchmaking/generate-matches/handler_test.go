package generatematches

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

	"brokerage-matchmaking/internal/common/config"
	apperrors "brokerage-matchmaking/internal/common/errors"
	"brokerage-matchmaking/internal/common/logger"
	"brokerage-matchmaking/internal/matchmaking/generator"
	"brokerage-matchmaking/internal/models"
)

// ==========================
// Mock Generator Implementation
// ==========================

type MockGenerator struct {
	mock.Mock
}

func (m *MockGenerator) GenerateForBuyer(ctx context.Context, buyerID string, opts generator.Options) (*generator.Result, error) {
	args := m.Called(ctx, buyerID, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*generator.Result), args.Error(1)
}

func (m *MockGenerator) GenerateForSeller(ctx context.Context, sellerID, listingID string, opts generator.Options) (*generator.Result, error) {
	args := m.Called(ctx, sellerID, listingID, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*generator.Result), args.Error(1)
}

// ==========================
// Mock Job Helper
// ==========================

func createMockJob(key int64, variables map[string]interface{}) entities.Job {
	variablesJSON, _ := json.Marshal(variables)

	activatedJob := &pb.ActivatedJob{
		Key:                      key,
		Type:                     TaskType,
		ProcessInstanceKey:       key * 10,
		BpmnProcessId:            "buyer-onboarding",
		ProcessDefinitionVersion: 1,
		ProcessDefinitionKey:     1,
		ElementId:                "Activity_GenerateMatches",
		ElementInstanceKey:       1,
		CustomHeaders:            "{}",
		Worker:                   "test-worker",
		Retries:                  3,
		Deadline:                 0,
		Variables:                string(variablesJSON),
	}

	return entities.Job{ActivatedJob: activatedJob}
}

// ==========================
// Test Helpers
// ==========================

func createTestHandler(t *testing.T, gen Generator) *Handler {
	return NewHandler(LoadConfig(config.WorkerConfig{}), gen, logger.NewTestLogger(t))
}

func sampleResult() *generator.Result {
	return &generator.Result{
		Matches: []*models.Match{
			{ID: "m-1", BuyerID: "b-1", ListingID: "l-1", CompatibilityScore: 91},
			{ID: "m-2", BuyerID: "b-1", ListingID: "l-2", CompatibilityScore: 74},
		},
		TotalCandidates:     12,
		QualifiedCandidates: 3,
		Skipped:             1,
	}
}

// ==========================
// Input Parsing Tests
// ==========================

func TestHandler_ParseInput(t *testing.T) {
	h := createTestHandler(t, &MockGenerator{})

	tests := []struct {
		name      string
		variables map[string]interface{}
		wantErr   bool
	}{
		{"buyer defaults", map[string]interface{}{"userId": "b-1"}, false},
		{"seller with listing", map[string]interface{}{"userId": "s-1", "direction": "seller", "listingId": "l-1", "limit": 5}, false},
		{"missing user", map[string]interface{}{"direction": "buyer"}, true},
		{"unknown direction", map[string]interface{}{"userId": "b-1", "direction": "vendor"}, true},
		{"limit too large", map[string]interface{}{"userId": "b-1", "limit": 500}, true},
		{"limit not an integer", map[string]interface{}{"userId": "b-1", "limit": "ten"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input, err := h.parseInput(createMockJob(1, tt.variables))
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeValidationFailed))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.variables["userId"], input.UserID)
		})
	}
}

// ==========================
// Execute Tests
// ==========================

func TestHandler_Execute_Buyer(t *testing.T) {
	gen := &MockGenerator{}
	gen.On("GenerateForBuyer", mock.Anything, "b-1", generator.Options{Limit: 5}).Return(sampleResult(), nil)
	h := createTestHandler(t, gen)

	out, err := h.Execute(context.Background(), &Input{UserID: "b-1", Limit: 5})
	require.NoError(t, err)

	assert.Equal(t, []string{"m-1", "m-2"}, out.MatchIDs)
	assert.Equal(t, 2, out.MatchCount)
	assert.Equal(t, 91, out.TopScore)
	assert.Equal(t, 12, out.TotalCandidates)
	assert.Equal(t, 3, out.QualifiedCandidates)
	assert.Equal(t, 1, out.Skipped)
	assert.Equal(t, "l-2", out.Matches[1].ListingID)
	gen.AssertExpectations(t)
}

func TestHandler_Execute_SellerCapsLimitAndForwardsForce(t *testing.T) {
	gen := &MockGenerator{}
	gen.On("GenerateForSeller", mock.Anything, "s-1", "l-1", generator.Options{Limit: 50, Force: true}).
		Return(&generator.Result{TotalCandidates: 4}, nil)
	h := createTestHandler(t, gen)

	out, err := h.Execute(context.Background(), &Input{
		UserID: "s-1", Direction: DirectionSeller, ListingID: "l-1", Limit: 80, Force: true,
	})
	require.NoError(t, err)
	assert.Empty(t, out.MatchIDs)
	assert.NotNil(t, out.MatchIDs)
	assert.Zero(t, out.TopScore)
	gen.AssertExpectations(t)
}

func TestHandler_Execute_SellerRequiresListing(t *testing.T) {
	gen := &MockGenerator{}
	h := createTestHandler(t, gen)

	_, err := h.Execute(context.Background(), &Input{UserID: "s-1", Direction: DirectionSeller})
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeValidationFailed))
	gen.AssertNotCalled(t, "GenerateForSeller", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestHandler_Execute_PropagatesGeneratorErrors(t *testing.T) {
	gen := &MockGenerator{}
	gen.On("GenerateForBuyer", mock.Anything, "b-1", generator.Options{}).
		Return(nil, apperrors.NewDuplicateGenerationError("b-1"))
	h := createTestHandler(t, gen)

	_, err := h.Execute(context.Background(), &Input{UserID: "b-1"})
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeDuplicateGeneration))
}

func TestLoadConfig(t *testing.T) {
	assert.Equal(t, 60*time.Second, LoadConfig(config.WorkerConfig{}).Timeout)
	assert.Equal(t, 5*time.Second, LoadConfig(config.WorkerConfig{Timeout: 5000}).Timeout)
}
