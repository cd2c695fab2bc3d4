package submission

import (
	"fmt"
	"testing"

	"github.com/cyclopcam/logs"
	"github.com/stretchr/testify/require"
	"github.com/tilevec/tilevec/pkg/mask"
)

type countingSegmenter struct {
	calls int
	fail  bool
}

func (s *countingSegmenter) Predict(imageID string) (*mask.Prob, error) {
	s.calls++
	if s.fail {
		return nil, fmt.Errorf("model exploded on '%v'", imageID)
	}
	return testMask(), nil
}

func (s *countingSegmenter) Close() {
}

// A cached mask must not trigger another inference call. This is what makes
// an interrupted run resumable.
func TestPredictMasksSkipsCached(t *testing.T) {
	cfg := testConfig(t, []string{"a", "b"})
	require.NoError(t, cfg.Store.Put("a", testMask()))

	model := &countingSegmenter{}
	require.NoError(t, PredictMasks(logs.NewTestingLog(t), model, cfg.Store, []string{"a", "b"}))
	require.Equal(t, 1, model.calls)
	require.True(t, cfg.Store.Has("a"))
	require.True(t, cfg.Store.Has("b"))

	// A second run over the same ids is a no-op
	require.NoError(t, PredictMasks(logs.NewTestingLog(t), model, cfg.Store, []string{"a", "b"}))
	require.Equal(t, 1, model.calls)
}

func TestPredictMasksError(t *testing.T) {
	cfg := testConfig(t, []string{"a"})
	model := &countingSegmenter{fail: true}
	require.Error(t, PredictMasks(logs.NewTestingLog(t), model, cfg.Store, []string{"a"}))
	require.False(t, cfg.Store.Has("a"))
}
