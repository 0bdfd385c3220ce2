package evaluate_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/ideascore/internal/cache"
	"github.com/ppiankov/ideascore/internal/evaluate"
	"github.com/ppiankov/ideascore/internal/testutils"
)

func TestCachedOracle_ServesRepeatRequests(t *testing.T) {
	oracle := testutils.NewScriptedOracle(map[string]float64{"A": 70, "B": 30})
	cached := evaluate.NewCachedOracle(oracle, cache.NewMemoryCache(time.Minute, time.Minute), 0, nil)

	req := evaluate.BuildRequest(input, factors("A", "B"))

	first, err := cached.Score(context.Background(), req)
	require.NoError(t, err)
	second, err := cached.Score(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, 1, oracle.Calls())
	assert.Equal(t, first.Scores, second.Scores)
	assert.Equal(t, "scripted", cached.Name())
}

func TestCachedOracle_DoesNotCacheFailures(t *testing.T) {
	oracle := testutils.NewScriptedOracle(map[string]float64{"A": 70})
	oracle.FailFirst = 1
	cached := evaluate.NewCachedOracle(oracle, cache.NewMemoryCache(time.Minute, time.Minute), 0, nil)

	req := evaluate.BuildRequest(input, factors("A"))

	_, err := cached.Score(context.Background(), req)
	require.Error(t, err)

	resp, err := cached.Score(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 70.0, resp.Scores["A"].Score)
	assert.Equal(t, 2, oracle.Calls())
}

type recordingWaiter struct {
	keys []string
	err  error
}

func (w *recordingWaiter) Wait(ctx context.Context, key string) error {
	w.keys = append(w.keys, key)
	return w.err
}

func TestRateLimitedOracle(t *testing.T) {
	oracle := testutils.NewScriptedOracle(map[string]float64{"A": 70})
	oracle.OracleName = "openai/gpt-4o-mini"
	waiter := &recordingWaiter{}

	limited := evaluate.NewRateLimitedOracle(oracle, waiter)
	_, err := limited.Score(context.Background(), evaluate.BuildRequest(input, factors("A")))
	require.NoError(t, err)
	assert.Equal(t, []string{"openai/gpt-4o-mini"}, waiter.keys)

	waiter.err = context.DeadlineExceeded
	_, err = limited.Score(context.Background(), evaluate.BuildRequest(input, factors("A")))
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	assert.Equal(t, 1, oracle.Calls())
}
