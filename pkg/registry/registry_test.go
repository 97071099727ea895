package registry

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_ListsMatchmakingTasks(t *testing.T) {
	reg, err := Default()
	require.NoError(t, err)
	require.NoError(t, reg.Validate())

	for _, task := range []string{
		"generate-matches",
		"update-match-status",
		"record-match-interaction",
		"provide-match-feedback",
		"get-match-statistics",
		"get-match-details",
		"expire-matches",
	} {
		a, ok := reg.Find(task)
		require.True(t, ok, task)
		assert.NotEmpty(t, a.InputSchema, task)
		assert.Contains(t, a.ErrorCodes, "VALIDATION_FAILED", task)
	}

	_, ok := reg.Find("send-notification")
	assert.False(t, ok)
	assert.Nil(t, reg.InputSchema("send-notification"))
}

func TestSaveAndLoadRegistry(t *testing.T) {
	path := filepath.Join(t.TempDir(), "activity-registry.json")
	reg := &ActivityRegistry{
		Version: "1.0.0",
		Activities: []Activity{
			{ID: "generate-matches", DisplayName: "Generate Matches", TaskType: "generate-matches", Timeout: "60s"},
		},
	}

	require.NoError(t, SaveRegistry(reg, path))
	assert.NotEmpty(t, reg.LastUpdated)

	loaded, err := LoadRegistry(path)
	require.NoError(t, err)
	assert.Equal(t, reg.Activities, loaded.Activities)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		reg     ActivityRegistry
		wantErr string
	}{
		{
			name:    "missing version",
			reg:     ActivityRegistry{},
			wantErr: "version",
		},
		{
			name: "duplicate task type",
			reg: ActivityRegistry{Version: "1", Activities: []Activity{
				{ID: "a", DisplayName: "A", TaskType: "t"},
				{ID: "b", DisplayName: "B", TaskType: "t"},
			}},
			wantErr: "duplicate task type",
		},
		{
			name: "bad timeout",
			reg: ActivityRegistry{Version: "1", Activities: []Activity{
				{ID: "a", DisplayName: "A", TaskType: "t", Timeout: "soon"},
			}},
			wantErr: "invalid timeout",
		},
		{
			name: "missing display name",
			reg: ActivityRegistry{Version: "1", Activities: []Activity{
				{ID: "a", TaskType: "t"},
			}},
			wantErr: "required",
		},
		{
			name: "unknown implementation status",
			reg: ActivityRegistry{Version: "1", Activities: []Activity{
				{ID: "a", DisplayName: "A", TaskType: "t", ImplementationStatus: "shipped"},
			}},
			wantErr: "implementation status",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.reg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
