package trace

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStepOrderIsExact(t *testing.T) {
	tr := New("run-1", nil)

	tr.StageStarted("analysts", "")
	tr.StageSucceeded("analysts", "")
	tr.StageStarted("investment_debate", "")
	tr.StageFailed("investment_debate", errors.New("boom"))

	steps := tr.Steps()
	require.Len(t, steps, 4)

	want := []struct {
		stage  string
		status Status
	}{
		{"analysts", StatusStarted},
		{"analysts", StatusSucceeded},
		{"investment_debate", StatusStarted},
		{"investment_debate", StatusFailed},
	}
	for i, w := range want {
		assert.Equal(t, i+1, steps[i].Seq)
		assert.Equal(t, w.stage, steps[i].Stage)
		assert.Equal(t, w.status, steps[i].Status)
	}
	assert.Equal(t, "boom", steps[3].Error)
}

func TestWarningsAreNotSteps(t *testing.T) {
	tr := New("run-1", nil)

	tr.StageStarted("trader", "")
	tr.Warn("trader", "memory retrieval degraded")
	tr.StageSucceeded("trader", "")

	assert.Len(t, tr.Steps(), 2)
	require.Len(t, tr.Warnings(), 1)
	assert.Contains(t, tr.Warnings()[0], "memory retrieval degraded")
}

func TestConcurrentRecordingKeepsTotalOrder(t *testing.T) {
	tr := New("run-1", nil)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			stage := fmt.Sprintf("analyst.%d", i)
			tr.StageStarted(stage, "")
			tr.StageSucceeded(stage, "")
		}(i)
	}
	wg.Wait()

	steps := tr.Steps()
	require.Len(t, steps, 16)
	for i, step := range steps {
		assert.Equal(t, i+1, step.Seq, "sequence numbers must be gapless")
	}
	for _, step := range steps {
		if step.Status == StatusSucceeded {
			started := false
			for _, prev := range steps[:step.Seq-1] {
				if prev.Stage == step.Stage && prev.Status == StatusStarted {
					started = true
				}
			}
			assert.True(t, started, "stage %s succeeded before starting", step.Stage)
		}
	}
}

type recordingSink struct{ steps []Step }

func (s *recordingSink) Write(step Step) error {
	s.steps = append(s.steps, step)
	return nil
}

func TestSinksReceiveStepsInSequenceOrder(t *testing.T) {
	sink := &recordingSink{}
	tr := New("run-1", nil, sink)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			stage := fmt.Sprintf("analyst.%d", i)
			tr.StageStarted(stage, "")
			tr.StageSucceeded(stage, "")
		}(i)
	}
	wg.Wait()

	require.Len(t, sink.steps, 16)
	for i, step := range sink.steps {
		assert.Equal(t, i+1, step.Seq, "sink must observe steps in sequence order")
	}
}

type failingSink struct{ writes int }

func (s *failingSink) Write(Step) error {
	s.writes++
	return errors.New("sink down")
}

func TestSinkFailureDoesNotAbort(t *testing.T) {
	sink := &failingSink{}
	tr := New("run-1", nil, sink)

	tr.StageStarted("analysts", "")
	tr.StageSucceeded("analysts", "")

	assert.Equal(t, 2, sink.writes)
	assert.Len(t, tr.Steps(), 2)
}

func TestSummarize(t *testing.T) {
	tr := New("run-7", nil)

	tr.StageStarted("a", "")
	tr.StageSucceeded("a", "")
	tr.StageStarted("b", "")
	tr.StageFailed("b", errors.New("x"))
	tr.Warn("b", "degraded")

	summary := tr.Summarize()
	assert.Equal(t, "run-7", summary.RunID)
	assert.Equal(t, 4, summary.TotalSteps)
	assert.Equal(t, 2, summary.StatusCounts[StatusStarted])
	assert.Equal(t, 1, summary.StatusCounts[StatusSucceeded])
	assert.Equal(t, 1, summary.StatusCounts[StatusFailed])
	assert.Equal(t, 2, summary.StageSteps["a"])
	assert.Equal(t, 2, summary.StageSteps["b"])
	assert.Len(t, summary.Warnings, 1)

	data, err := tr.Export()
	require.NoError(t, err)
	assert.Contains(t, string(data), `"run_id": "run-7"`)
}
