// Package replay implements the bounded in-memory experience store that
// feeds agent training. The buffer keeps the most recent experiences up to
// a fixed capacity (strict FIFO eviction) and offers uniform and
// reward-weighted sampling without replacement.
package replay

import (
	"fmt"
	"math"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/stat/sampleuv"
)

const (
	// priorityEpsilon keeps zero-reward experiences sampleable under
	// prioritized sampling.
	priorityEpsilon = 1e-6

	// DefaultAlpha is the standard prioritization exponent: 0 is uniform,
	// 1 is fully proportional to absolute reward magnitude.
	DefaultAlpha = 0.6
)

// Buffer is a fixed-capacity experience store. All methods are safe for
// concurrent use. Degenerate inputs (empty buffer, oversized batch) return
// empty results rather than errors, so training loops never need to guard
// their calls.
type Buffer struct {
	mu      sync.RWMutex
	items   []Experience // circular buffer, capacity maxSize
	head    int          // index of the oldest entry
	count   int
	maxSize int
	src     rand.Source
	rng     *rand.Rand
	log     zerolog.Logger
}

// New creates a buffer holding at most maxSize experiences.
func New(maxSize int, log zerolog.Logger) (*Buffer, error) {
	return NewWithSource(maxSize, rand.NewPCG(uint64(time.Now().UnixNano()), rand.Uint64()), log)
}

// NewWithSource creates a buffer with an injected random source.
// This is primarily used for deterministic tests.
func NewWithSource(maxSize int, src rand.Source, log zerolog.Logger) (*Buffer, error) {
	if maxSize < 1 {
		return nil, fmt.Errorf("replay buffer capacity must be at least 1, got %d", maxSize)
	}
	return &Buffer{
		items:   make([]Experience, maxSize),
		maxSize: maxSize,
		src:     src,
		rng:     rand.New(src),
		log:     log.With().Str("component", "replay_buffer").Logger(),
	}, nil
}

// Add appends an experience, evicting the oldest entry when the buffer is
// full. Eviction is strict FIFO, independent of reward or agent. The
// timestamp is defaulted to now (UTC) when unset. Payload contents are not
// validated; the buffer is deliberately schema-agnostic.
func (b *Buffer) Add(exp Experience) {
	if exp.Timestamp.IsZero() {
		exp.Timestamp = time.Now().UTC()
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.count == b.maxSize {
		// Overwrite the oldest slot and advance the head.
		b.items[b.head] = exp
		b.head = (b.head + 1) % b.maxSize
		return
	}

	b.items[(b.head+b.count)%b.maxSize] = exp
	b.count++
}

// Size returns the current number of stored experiences.
func (b *Buffer) Size() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.count
}

// Clear empties the buffer.
func (b *Buffer) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.items = make([]Experience, b.maxSize)
	b.head = 0
	b.count = 0
	b.log.Debug().Msg("Replay buffer cleared")
}

// Sample returns min(batchSize, size) experiences drawn uniformly at random
// without replacement, in randomized order. It never fails: an empty buffer
// or non-positive batch size yields an empty slice, and an oversized batch
// degrades to returning everything, shuffled.
func (b *Buffer) Sample(batchSize int) []Experience {
	b.mu.Lock()
	defer b.mu.Unlock()

	n := min(batchSize, b.count)
	if n <= 0 {
		return []Experience{}
	}

	perm := b.rng.Perm(b.count)
	out := make([]Experience, 0, n)
	for _, idx := range perm[:n] {
		out = append(out, b.at(idx))
	}
	return out
}

// SamplePrioritized returns min(batchSize, size) experiences drawn without
// replacement with probability proportional to (|reward|+eps)^alpha. The
// epsilon term guarantees zero-reward entries remain sampleable, so a buffer
// of all-zero rewards degenerates to uniform sampling instead of dividing by
// zero. Weights are renormalized after each draw (classic weighted sampling
// without replacement). Shares Sample's no-error guarantees.
func (b *Buffer) SamplePrioritized(batchSize int, alpha float64) []Experience {
	b.mu.Lock()
	defer b.mu.Unlock()

	n := min(batchSize, b.count)
	if n <= 0 {
		return []Experience{}
	}

	weights := make([]float64, b.count)
	for i := range weights {
		weights[i] = math.Pow(math.Abs(b.at(i).Reward)+priorityEpsilon, alpha)
	}

	// sampleuv.Weighted zeroes each taken weight, which is exactly the
	// draw-remove-renormalize scheme.
	w := sampleuv.NewWeighted(weights, b.src)
	out := make([]Experience, 0, n)
	for len(out) < n {
		idx, ok := w.Take()
		if !ok {
			break
		}
		out = append(out, b.at(idx))
	}
	return out
}

// AgentExperiences returns up to limit experiences recorded by the named
// agent, most recently added first. No sampling or randomization.
func (b *Buffer) AgentExperiences(agentName string, limit int) []Experience {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := []Experience{}
	if limit <= 0 {
		return out
	}
	for i := b.count - 1; i >= 0 && len(out) < limit; i-- {
		exp := b.at(i)
		if exp.AgentName == agentName {
			out = append(out, exp)
		}
	}
	return out
}

// at returns the i-th oldest experience. Caller must hold the lock.
func (b *Buffer) at(i int) Experience {
	return b.items[(b.head+i)%b.maxSize]
}
