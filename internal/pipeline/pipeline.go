// Package pipeline aggregates heterogeneous market, news and social data
// sources into one consistent snapshot per collection round. Collectors run
// concurrently and fail independently: a broken source contributes zero
// items to the round instead of taking it down.
package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/meridianlab/meridian/internal/domain"
)

// DefaultCollectTimeout bounds how long one collector may stall a round.
const DefaultCollectTimeout = 30 * time.Second

// Pipeline owns an ordered set of uniquely-named collectors and produces one
// snapshot per Collect call. The pipeline holds no state between rounds;
// callers own the returned snapshots.
type Pipeline struct {
	mu         sync.Mutex
	collectors []Collector
	timeout    time.Duration
	log        zerolog.Logger
}

// New creates a pipeline with the default per-collector timeout.
func New(log zerolog.Logger) *Pipeline {
	return NewWithTimeout(DefaultCollectTimeout, log)
}

// NewWithTimeout creates a pipeline with a custom per-collector timeout.
func NewWithTimeout(timeout time.Duration, log zerolog.Logger) *Pipeline {
	return &Pipeline{
		timeout: timeout,
		log:     log.With().Str("component", "data_pipeline").Logger(),
	}
}

// AddCollector appends a collector to the registration order. Names must be
// unique within one pipeline; a duplicate is rejected. Only future Collect
// calls see the new collector.
func (p *Pipeline) AddCollector(c Collector) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, existing := range p.collectors {
		if existing.Name() == c.Name() {
			return fmt.Errorf("collector already registered: %s", c.Name())
		}
	}
	p.collectors = append(p.collectors, c)
	p.log.Debug().Str("collector", c.Name()).Msg("Collector registered")
	return nil
}

// CollectorNames returns the registered collector names in registration order.
func (p *Pipeline) CollectorNames() []string {
	p.mu.Lock()
	defer p.mu.Unlock()

	names := make([]string, len(p.collectors))
	for i, c := range p.collectors {
		names[i] = c.Name()
	}
	return names
}

// collectResult is the per-collector outcome of one round: either a
// contribution or a reason it failed, never both.
type collectResult struct {
	contribution *Contribution
	err          error
}

// Collect runs one collection round: fan out to every collector
// concurrently, wait for all of them (a failure never cancels siblings),
// then merge in registration order. Failed collectors are logged and
// recorded with a zero source count; the returned snapshot is always
// well-formed, so there is no error path.
func (p *Pipeline) Collect(ctx context.Context) *Snapshot {
	p.mu.Lock()
	collectors := make([]Collector, len(p.collectors))
	copy(collectors, p.collectors)
	timeout := p.timeout
	p.mu.Unlock()

	start := time.Now()

	results := make([]collectResult, len(collectors))
	var wg sync.WaitGroup
	for i, c := range collectors {
		wg.Add(1)
		go func(i int, c Collector) {
			defer wg.Done()
			results[i] = runCollector(ctx, c, timeout)
		}(i, c)
	}
	wg.Wait()

	snap := &Snapshot{
		NewsItems:     []domain.Payload{},
		SocialSignals: []domain.Payload{},
		ScreenResults: []domain.Payload{},
		MarketData:    map[string]domain.Payload{},
		CommodityData: map[string]domain.Payload{},
		CryptoData:    map[string]domain.Payload{},
	}
	counts := make(map[string]int, len(collectors))

	// Merge in registration order, not completion order, so concatenation
	// and map overwrites are deterministic.
	for i, res := range results {
		name := collectors[i].Name()
		if res.err != nil {
			p.log.Warn().Err(res.err).Str("collector", name).Msg("Collector failed, contributing zero items")
			counts[name] = 0
			continue
		}

		contrib := res.contribution
		snap.NewsItems = append(snap.NewsItems, contrib.NewsItems...)
		snap.SocialSignals = append(snap.SocialSignals, contrib.SocialSignals...)
		snap.ScreenResults = append(snap.ScreenResults, contrib.ScreenResults...)
		for k, v := range contrib.MarketData {
			snap.MarketData[k] = v
		}
		for k, v := range contrib.CommodityData {
			snap.CommodityData[k] = v
		}
		for k, v := range contrib.CryptoData {
			snap.CryptoData[k] = v
		}
		counts[name] = contrib.ItemCount()
	}

	snap.Timestamp = time.Now().UTC()
	snap.Metadata = Metadata{
		SourceCounts:   counts,
		CollectorCount: len(collectors),
		CollectionTime: time.Since(start),
	}

	p.log.Debug().
		Int("collectors", len(collectors)).
		Int("news_items", len(snap.NewsItems)).
		Int("social_signals", len(snap.SocialSignals)).
		Int("screen_results", len(snap.ScreenResults)).
		Dur("elapsed", snap.Metadata.CollectionTime).
		Msg("Collection round completed")

	return snap
}

// runCollector executes one collector with a bounded wait and panic
// isolation. A collector that outlives its timeout is abandoned (its
// goroutine finishes in the background); the round records it as failed
// instead of stalling.
func runCollector(ctx context.Context, c Collector, timeout time.Duration) collectResult {
	cctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	done := make(chan collectResult, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- collectResult{err: fmt.Errorf("collector panicked: %v", r)}
			}
		}()
		contrib, err := c.Collect(cctx)
		if err != nil {
			done <- collectResult{err: err}
			return
		}
		if contrib == nil {
			contrib = &Contribution{}
		}
		done <- collectResult{contribution: contrib}
	}()

	select {
	case res := <-done:
		return res
	case <-cctx.Done():
		return collectResult{err: fmt.Errorf("collect did not finish: %w", cctx.Err())}
	}
}
