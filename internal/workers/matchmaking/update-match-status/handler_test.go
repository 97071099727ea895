package updatematchstatus

import (
	"context"
	"encoding/json"
	"testing"
	"time"

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
		BpmnProcessId:            "deal-pipeline",
		ProcessDefinitionVersion: 1,
		ProcessDefinitionKey:     1,
		ElementId:                "Activity_UpdateMatchStatus",
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

var generatedAt = time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)

func createTestHandler(t *testing.T) (*Handler, *memstore.Store) {
	t.Helper()
	st := memstore.New()
	st.AddProfile(&models.Profile{ID: "buyer-1", Role: models.RoleBuyer, FullName: "Dana Buyer"})
	st.AddProfile(&models.Profile{ID: "seller-1", Role: models.RoleSeller, FullName: "Sam Seller"})
	st.AddListing(&models.Listing{ID: "listing-1", SellerID: "seller-1", Title: "Corner Cafe"})
	st.PutMatch(&models.Match{
		ID: "m-1", BuyerID: "buyer-1", SellerID: "seller-1", ListingID: "listing-1",
		CompatibilityScore: 82, Status: models.StatusViewed, GeneratedAt: generatedAt, UpdatedAt: generatedAt,
	})

	mgr := lifecycle.NewManager(lifecycle.Deps{
		Matches:      st,
		Feedback:     st,
		Interactions: st,
		Profiles:     st,
		Listings:     st,
		Notifier:     st,
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
		{"valid", map[string]interface{}{"matchId": "m-1", "status": "interested", "userId": "buyer-1"}, false},
		{"with notes", map[string]interface{}{"matchId": "m-1", "status": "contacted", "userId": "buyer-1", "notes": "called"}, false},
		{"unknown status", map[string]interface{}{"matchId": "m-1", "status": "archived", "userId": "buyer-1"}, true},
		{"missing user", map[string]interface{}{"matchId": "m-1", "status": "interested"}, true},
		{"empty match id", map[string]interface{}{"matchId": "", "status": "interested", "userId": "buyer-1"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.parseInput(createMockJob(7, tt.variables))
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

func TestHandler_Execute_AppliesTransition(t *testing.T) {
	h, st := createTestHandler(t)

	out, err := h.Execute(context.Background(), &Input{MatchID: "m-1", Status: "interested", UserID: "buyer-1", Notes: "looks promising"})
	require.NoError(t, err)

	assert.Equal(t, "interested", out.Status)
	assert.Equal(t, "viewed", out.PreviousStatus)
	assert.True(t, out.Changed)

	m, _ := st.GetMatch(context.Background(), "m-1")
	assert.Equal(t, "looks promising", m.Notes)
	assert.Len(t, st.Sent(), 2, "both parties are told about interest")
}

func TestHandler_Execute_SameStatusIsUnchanged(t *testing.T) {
	h, st := createTestHandler(t)

	out, err := h.Execute(context.Background(), &Input{MatchID: "m-1", Status: "viewed", UserID: "buyer-1"})
	require.NoError(t, err)
	assert.False(t, out.Changed)
	assert.Empty(t, st.Interactions())
}

func TestHandler_Execute_Errors(t *testing.T) {
	h, _ := createTestHandler(t)

	_, err := h.Execute(context.Background(), &Input{MatchID: "m-1", Status: "deal_created", UserID: "buyer-1"})
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeValidationFailed), "viewed cannot jump to deal_created")

	_, err = h.Execute(context.Background(), &Input{MatchID: "missing", Status: "viewed", UserID: "buyer-1"})
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeNotFound))
}
