package config

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/viewport-sync/internal/types"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "viewport-sync", cfg.AppName)
	assert.Equal(t, types.ScopeWindow, cfg.SyncMode)
	assert.Equal(t, time.Second/30, cfg.FrameInterval)
	assert.Equal(t, 3, cfg.SimWindows)
	assert.False(t, cfg.Policy().Paused)
}

func TestLoadPolicyFromEnvironment(t *testing.T) {
	t.Setenv("SYNC_MODE", "Workspace")
	t.Setenv("SYNC_PAUSED", "true")
	t.Setenv("SYNC_IN_CAMERA_VIEW", "1")
	t.Setenv("FRAME_INTERVAL", "50ms")
	t.Setenv("SIM_WINDOWS", "not-a-number")

	cfg, err := Load()
	require.NoError(t, err)

	policy := cfg.Policy()
	assert.Equal(t, types.ScopeWorkspace, policy.Mode)
	assert.True(t, policy.Paused)
	assert.True(t, policy.SyncInCameraView)
	assert.False(t, policy.SyncDuringPlayback)
	assert.Equal(t, 50*time.Millisecond, cfg.FrameInterval)
	assert.Equal(t, 3, cfg.SimWindows, "unparsable values fall back to defaults")
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	t.Run("mode", func(t *testing.T) {
		t.Setenv("SYNC_MODE", "galaxy")
		_, err := Load()
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrInvalidConfig))
		assert.True(t, errors.Is(err, types.ErrUnknownScopeMode))
	})
	t.Run("frame interval", func(t *testing.T) {
		t.Setenv("FRAME_INTERVAL", "-1s")
		_, err := Load()
		assert.ErrorIs(t, err, ErrInvalidConfig)
	})
	t.Run("empty session", func(t *testing.T) {
		t.Setenv("SIM_VIEWPORTS_PER_WINDOW", "0")
		_, err := Load()
		assert.ErrorIs(t, err, ErrInvalidConfig)
	})
}
