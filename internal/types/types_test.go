package types

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseScopeMode(t *testing.T) {
	cases := map[string]ScopeMode{
		"window":      ScopeWindow,
		"Workspace":   ScopeWorkspace,
		" ALL ":       ScopeAll,
		"workspace\n": ScopeWorkspace,
	}
	for raw, want := range cases {
		got, err := ParseScopeMode(raw)
		require.NoError(t, err, raw)
		assert.Equal(t, want, got, raw)
	}

	_, err := ParseScopeMode("screen")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownScopeMode))
}

func TestScopeModeJSON(t *testing.T) {
	payload, err := json.Marshal(struct {
		Mode ScopeMode `json:"mode"`
	}{Mode: ScopeAll})
	require.NoError(t, err)
	assert.JSONEq(t, `{"mode":"all"}`, string(payload))

	var decoded struct {
		Mode ScopeMode `json:"mode"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"mode":"workspace"}`), &decoded))
	assert.Equal(t, ScopeWorkspace, decoded.Mode)

	_, err = json.Marshal(ScopeMode(7))
	assert.Error(t, err)
}

func TestScopeModesOrderedNarrowestFirst(t *testing.T) {
	require.Len(t, ScopeModes, 3)
	for i := 1; i < len(ScopeModes); i++ {
		assert.Less(t, int(ScopeModes[i-1]), int(ScopeModes[i]))
	}
	assert.False(t, ScopeMode(-1).Valid())
	assert.Equal(t, "camera", ProjectionCamera.String())
}
