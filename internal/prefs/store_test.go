package prefs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/viewport-sync/internal/types"
)

func TestStoreNotifiesOnlyOnChange(t *testing.T) {
	store := NewStore(Default())

	var changes []Change
	unsubscribe := store.Subscribe(func(c Change) { changes = append(changes, c) })

	store.SetMode(types.ScopeWindow)
	assert.Empty(t, changes, "same value is not a change")

	store.SetMode(types.ScopeAll)
	require.Len(t, changes, 1)
	assert.True(t, changes[0].ModeChanged())
	assert.Equal(t, types.ScopeWindow, changes[0].Old.Mode)
	assert.Equal(t, types.ScopeAll, changes[0].New.Mode)

	store.SetPaused(true)
	require.Len(t, changes, 2)
	assert.False(t, changes[1].ModeChanged())

	unsubscribe()
	store.SetSyncDuringPlayback(true)
	assert.Len(t, changes, 2)
	assert.True(t, store.Policy().SyncDuringPlayback)
}

func TestStoreRejectsInvalidMode(t *testing.T) {
	store := NewStore(Policy{Mode: types.ScopeMode(42)})
	assert.Equal(t, types.ScopeWindow, store.Policy().Mode)

	store.SetMode(types.ScopeWorkspace)
	store.SetMode(types.ScopeMode(-3))
	assert.Equal(t, types.ScopeWorkspace, store.Policy().Mode)
}

func TestStoreListenerMayUnsubscribeItself(t *testing.T) {
	store := NewStore(Default())

	calls := 0
	var unsubscribe func()
	unsubscribe = store.Subscribe(func(Change) {
		calls++
		unsubscribe()
	})

	store.SetSyncInCameraView(true)
	store.SetSyncInCameraView(false)
	assert.Equal(t, 1, calls)
}
