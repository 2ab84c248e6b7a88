package store

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func countingFetch(calls *int32, value string, err error) Fetch[string] {
	return func(context.Context) (string, error) {
		atomic.AddInt32(calls, 1)
		return value, err
	}
}

func TestEntry_LoadGuard(t *testing.T) {
	e := NewEntry("test.field", "")
	var calls int32

	require.NoError(t, e.Load(context.Background(), countingFetch(&calls, "v1", nil)))
	require.NoError(t, e.Load(context.Background(), countingFetch(&calls, "v2", nil)))

	assert.Equal(t, int32(1), calls)
	assert.Equal(t, "v1", e.Value())
	assert.Equal(t, StateReady, e.State())
	assert.True(t, e.Loaded())
}

func TestEntry_ConcurrentLoadSingleFetch(t *testing.T) {
	e := NewEntry("test.field", "")
	var calls int32
	release := make(chan struct{})
	fetch := func(context.Context) (string, error) {
		atomic.AddInt32(&calls, 1)
		<-release
		return "v", nil
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = e.Load(context.Background(), fetch)
	}()
	require.Eventually(t, func() bool { return e.State() == StateLoading }, time.Second, time.Millisecond)

	for i := 0; i < 5; i++ {
		require.NoError(t, e.Load(context.Background(), fetch))
	}
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestEntry_LoadFailureIsNotSticky(t *testing.T) {
	e := NewEntry("test.field", "default")
	var calls int32
	boom := errors.New("boom")

	err := e.Load(context.Background(), countingFetch(&calls, "fallback", boom))
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, StateFailed, e.State())
	assert.Equal(t, "fallback", e.Value())
	assert.False(t, e.Loaded())

	require.NoError(t, e.Load(context.Background(), countingFetch(&calls, "ok", nil)))
	assert.Equal(t, int32(2), calls)
	assert.Equal(t, StateReady, e.State())
	assert.NoError(t, e.Err())
}

func TestEntry_RefreshBypassesGuard(t *testing.T) {
	e := NewEntry("test.field", "")
	var calls int32

	require.NoError(t, e.Load(context.Background(), countingFetch(&calls, "v1", nil)))
	require.NoError(t, e.Refresh(context.Background(), countingFetch(&calls, "v2", nil)))
	require.NoError(t, e.Refresh(context.Background(), countingFetch(&calls, "v3", nil)))

	assert.Equal(t, int32(3), calls)
	assert.Equal(t, "v3", e.Value())
	assert.True(t, e.Loaded())
}

func TestEntry_RefreshFailureKeepsValue(t *testing.T) {
	e := NewEntry("test.field", "")
	var calls int32

	require.NoError(t, e.Load(context.Background(), countingFetch(&calls, "good", nil)))
	err := e.Refresh(context.Background(), countingFetch(&calls, "", errors.New("down")))

	assert.Error(t, err)
	assert.Equal(t, "good", e.Value())
	assert.Equal(t, StateFailed, e.State())
	assert.True(t, e.Loaded())
}

func TestEntry_SettlePolicies(t *testing.T) {
	boom := errors.New("boom")
	tests := []struct {
		name       string
		err        error
		policy     Policy
		wantLoaded bool
		wantState  State
	}{
		{"success attempted", nil, PolicyAttempted, true, StateReady},
		{"success succeeded", nil, PolicySucceeded, true, StateReady},
		{"failure attempted", boom, PolicyAttempted, true, StateFailed},
		{"failure succeeded", boom, PolicySucceeded, false, StateFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := NewEntry("test.field", "")
			e.Settle("value", tt.err, tt.policy)

			assert.Equal(t, tt.wantLoaded, e.Loaded())
			assert.Equal(t, tt.wantState, e.State())
			assert.Equal(t, "value", e.Value())
			assert.Equal(t, tt.err, e.Err())
		})
	}
}

func TestEntry_Reset(t *testing.T) {
	e := NewEntry("test.field", "")
	var calls int32

	require.NoError(t, e.Load(context.Background(), countingFetch(&calls, "v1", nil)))
	e.Reset()
	assert.False(t, e.Loaded())
	assert.Equal(t, "v1", e.Value())

	require.NoError(t, e.Load(context.Background(), countingFetch(&calls, "v2", nil)))
	assert.Equal(t, int32(2), calls)
}

func TestEntry_Snapshot(t *testing.T) {
	e := NewEntry("test.field", []int{})
	e.Settle([]int{1, 2}, errors.New("partial"), PolicyAttempted)

	snap := e.Snapshot()
	assert.Equal(t, []int{1, 2}, snap.Value)
	assert.Equal(t, "partial", snap.Error)
	assert.True(t, snap.Loaded)

	data, err := json.Marshal(snap)
	require.NoError(t, err)
	assert.JSONEq(t, `{"value":[1,2],"state":"failed","error":"partial","loaded":true}`, string(data))
}

func TestParsePolicy(t *testing.T) {
	p, err := ParsePolicy("succeeded")
	require.NoError(t, err)
	assert.Equal(t, PolicySucceeded, p)

	p, err = ParsePolicy("")
	require.NoError(t, err)
	assert.Equal(t, PolicyAttempted, p)

	_, err = ParsePolicy("sometimes")
	assert.Error(t, err)
}
