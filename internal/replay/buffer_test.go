package replay

import (
	"fmt"
	"math/rand/v2"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridianlab/meridian/internal/domain"
)

// newTestBuffer creates a deterministic buffer for tests.
func newTestBuffer(t *testing.T, maxSize int) *Buffer {
	t.Helper()
	buf, err := NewWithSource(maxSize, rand.NewPCG(1, 2), zerolog.Nop())
	require.NoError(t, err)
	return buf
}

func makeExp(agent, episode string, step int, reward float64) Experience {
	return Experience{
		EpisodeID: episode,
		Step:      step,
		AgentName: agent,
		State:     domain.Payload{"position": "flat"},
		Action:    domain.Payload{"side": "buy"},
		Reward:    reward,
		NextState: domain.Payload{"position": "long"},
	}
}

func TestNew(t *testing.T) {
	t.Run("valid capacity", func(t *testing.T) {
		buf, err := New(10, zerolog.Nop())
		require.NoError(t, err)
		assert.Equal(t, 0, buf.Size())
	})

	t.Run("zero capacity rejected", func(t *testing.T) {
		_, err := New(0, zerolog.Nop())
		assert.Error(t, err)
	})

	t.Run("negative capacity rejected", func(t *testing.T) {
		_, err := New(-5, zerolog.Nop())
		assert.Error(t, err)
	})
}

func TestBuffer_Add_DefaultsTimestamp(t *testing.T) {
	buf := newTestBuffer(t, 4)

	buf.Add(makeExp("ideas", "ep1", 1, 0.5))
	got := buf.AgentExperiences("ideas", 1)
	require.Len(t, got, 1)
	assert.WithinDuration(t, time.Now().UTC(), got[0].Timestamp, time.Second)

	// An explicit timestamp is preserved.
	stamped := makeExp("ideas", "ep1", 2, 0.5)
	stamped.Timestamp = time.Date(2026, 1, 15, 9, 30, 0, 0, time.UTC)
	buf.Add(stamped)
	got = buf.AgentExperiences("ideas", 1)
	require.Len(t, got, 1)
	assert.Equal(t, stamped.Timestamp, got[0].Timestamp)
}

func TestBuffer_FIFOEviction(t *testing.T) {
	buf := newTestBuffer(t, 3)

	for step := 1; step <= 5; step++ {
		buf.Add(makeExp("ideas", "ep1", step, float64(step)))
	}

	assert.Equal(t, 3, buf.Size())

	// Only the last three survive, most recent first.
	got := buf.AgentExperiences("ideas", 10)
	require.Len(t, got, 3)
	assert.Equal(t, 5, got[0].Step)
	assert.Equal(t, 4, got[1].Step)
	assert.Equal(t, 3, got[2].Step)
}

func TestBuffer_FIFOEviction_IgnoresReward(t *testing.T) {
	buf := newTestBuffer(t, 2)

	buf.Add(makeExp("ideas", "ep1", 1, 100.0)) // high reward, still evicted first
	buf.Add(makeExp("ideas", "ep1", 2, 0.0))
	buf.Add(makeExp("ideas", "ep1", 3, 0.0))

	got := buf.AgentExperiences("ideas", 10)
	require.Len(t, got, 2)
	assert.Equal(t, 3, got[0].Step)
	assert.Equal(t, 2, got[1].Step)
}

func TestBuffer_Sample(t *testing.T) {
	t.Run("empty buffer returns empty slice", func(t *testing.T) {
		buf := newTestBuffer(t, 8)
		assert.Empty(t, buf.Sample(4))
	})

	t.Run("non-positive batch returns empty slice", func(t *testing.T) {
		buf := newTestBuffer(t, 8)
		buf.Add(makeExp("ideas", "ep1", 1, 1.0))
		assert.Empty(t, buf.Sample(0))
		assert.Empty(t, buf.Sample(-3))
	})

	t.Run("oversized batch returns everything", func(t *testing.T) {
		buf := newTestBuffer(t, 8)
		for step := 1; step <= 5; step++ {
			buf.Add(makeExp("ideas", "ep1", step, 0.0))
		}
		got := buf.Sample(100)
		assert.Len(t, got, 5)
	})

	t.Run("without replacement", func(t *testing.T) {
		buf := newTestBuffer(t, 16)
		for step := 1; step <= 10; step++ {
			buf.Add(makeExp("ideas", "ep1", step, 0.0))
		}

		got := buf.Sample(6)
		require.Len(t, got, 6)

		seen := make(map[int]bool)
		for _, exp := range got {
			assert.False(t, seen[exp.Step], "step %d sampled twice", exp.Step)
			seen[exp.Step] = true
			assert.GreaterOrEqual(t, exp.Step, 1)
			assert.LessOrEqual(t, exp.Step, 10)
		}
	})
}

func TestBuffer_SamplePrioritized(t *testing.T) {
	t.Run("empty buffer returns empty slice", func(t *testing.T) {
		buf := newTestBuffer(t, 8)
		assert.Empty(t, buf.SamplePrioritized(4, DefaultAlpha))
	})

	t.Run("all-zero rewards sample without error", func(t *testing.T) {
		buf := newTestBuffer(t, 8)
		for step := 1; step <= 4; step++ {
			buf.Add(makeExp("ideas", "ep1", step, 0.0))
		}

		got := buf.SamplePrioritized(4, DefaultAlpha)
		require.Len(t, got, 4)

		seen := make(map[int]bool)
		for _, exp := range got {
			assert.False(t, seen[exp.Step])
			seen[exp.Step] = true
		}
	})

	t.Run("all-zero rewards are sampled uniformly", func(t *testing.T) {
		buf := newTestBuffer(t, 4)
		for step := 1; step <= 4; step++ {
			buf.Add(makeExp("ideas", "ep1", step, 0.0))
		}

		const trials = 2000
		counts := make(map[int]int)
		for i := 0; i < trials; i++ {
			got := buf.SamplePrioritized(1, DefaultAlpha)
			require.Len(t, got, 1)
			counts[got[0].Step]++
		}

		// Expected 500 per entry; allow a generous band.
		for step := 1; step <= 4; step++ {
			assert.Greater(t, counts[step], 350, "step %d undersampled", step)
			assert.Less(t, counts[step], 650, "step %d oversampled", step)
		}
	})

	t.Run("high rewards sampled more often", func(t *testing.T) {
		buf := newTestBuffer(t, 2)
		buf.Add(makeExp("ideas", "ep1", 1, 0.01))
		buf.Add(makeExp("ideas", "ep1", 2, 10.0))

		const trials = 1000
		highFirst := 0
		for i := 0; i < trials; i++ {
			got := buf.SamplePrioritized(1, 1.0)
			require.Len(t, got, 1)
			if got[0].Step == 2 {
				highFirst++
			}
		}

		// Weight ratio is ~1000:1; the high-reward entry should dominate.
		assert.Greater(t, highFirst, 900)
	})

	t.Run("alpha zero is uniform over skewed rewards", func(t *testing.T) {
		buf := newTestBuffer(t, 2)
		buf.Add(makeExp("ideas", "ep1", 1, 0.0))
		buf.Add(makeExp("ideas", "ep1", 2, 1000.0))

		const trials = 2000
		low := 0
		for i := 0; i < trials; i++ {
			got := buf.SamplePrioritized(1, 0.0)
			require.Len(t, got, 1)
			if got[0].Step == 1 {
				low++
			}
		}

		assert.Greater(t, low, 850)
		assert.Less(t, low, 1150)
	})

	t.Run("oversized batch returns everything", func(t *testing.T) {
		buf := newTestBuffer(t, 8)
		buf.Add(makeExp("ideas", "ep1", 1, -1.0))
		buf.Add(makeExp("ideas", "ep1", 2, 2.0))

		got := buf.SamplePrioritized(50, DefaultAlpha)
		assert.Len(t, got, 2)
	})
}

func TestBuffer_Clear(t *testing.T) {
	buf := newTestBuffer(t, 8)
	for step := 1; step <= 5; step++ {
		buf.Add(makeExp("ideas", "ep1", step, 1.0))
	}

	buf.Clear()

	assert.Equal(t, 0, buf.Size())
	assert.Empty(t, buf.Sample(5))
	assert.Empty(t, buf.AgentExperiences("ideas", 5))

	// The buffer remains usable after clearing.
	buf.Add(makeExp("ideas", "ep2", 1, 1.0))
	assert.Equal(t, 1, buf.Size())
}

func TestBuffer_AgentExperiences(t *testing.T) {
	buf := newTestBuffer(t, 16)

	// Interleave two agents.
	buf.Add(makeExp("ideas", "ep1", 1, 0.0))
	buf.Add(makeExp("risk", "ep1", 1, 0.0))
	buf.Add(makeExp("ideas", "ep1", 2, 0.0))
	buf.Add(makeExp("risk", "ep1", 2, 0.0))
	buf.Add(makeExp("ideas", "ep1", 3, 0.0))

	t.Run("most recent first", func(t *testing.T) {
		got := buf.AgentExperiences("ideas", 2)
		require.Len(t, got, 2)
		assert.Equal(t, 3, got[0].Step)
		assert.Equal(t, 2, got[1].Step)
	})

	t.Run("limit beyond matches returns all matches", func(t *testing.T) {
		got := buf.AgentExperiences("risk", 10)
		require.Len(t, got, 2)
		assert.Equal(t, 2, got[0].Step)
		assert.Equal(t, 1, got[1].Step)
	})

	t.Run("unknown agent returns empty slice", func(t *testing.T) {
		assert.Empty(t, buf.AgentExperiences("unknown", 5))
	})

	t.Run("non-positive limit returns empty slice", func(t *testing.T) {
		assert.Empty(t, buf.AgentExperiences("ideas", 0))
	})
}

func TestBuffer_ConcurrentAdd(t *testing.T) {
	buf := newTestBuffer(t, 500)

	var wg sync.WaitGroup
	for g := 0; g < 10; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for step := 0; step < 100; step++ {
				buf.Add(makeExp(fmt.Sprintf("agent-%d", g), "ep1", step, 0.0))
			}
		}(g)
	}
	wg.Wait()

	assert.Equal(t, 500, buf.Size())
}

func TestNewEpisodeID(t *testing.T) {
	a := NewEpisodeID()
	b := NewEpisodeID()

	assert.NotEmpty(t, a)
	assert.NotEqual(t, a, b)
}
