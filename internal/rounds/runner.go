// Package rounds drives periodic collection rounds: collect a snapshot from
// the data pipeline, transform it to agent input, and deliver it to every
// registered consumer.
package rounds

import (
	"context"
	"sync"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/meridianlab/meridian/internal/pipeline"
)

// Consumer receives the merged agent input produced by each round. A failing
// consumer is logged and skipped; it never blocks delivery to the others.
type Consumer interface {
	Name() string
	OnAgentInput(ctx context.Context, input *pipeline.AgentInput) error
}

// Runner owns the round schedule. It is constructed by the composition root
// and shared with nothing else; there is no process-global instance.
type Runner struct {
	pipeline *pipeline.Pipeline
	cron     *cron.Cron

	mu        sync.Mutex
	consumers []Consumer

	log zerolog.Logger
}

// New creates a runner for the given pipeline.
func New(p *pipeline.Pipeline, log zerolog.Logger) *Runner {
	return &Runner{
		pipeline: p,
		cron:     cron.New(),
		log:      log.With().Str("component", "round_runner").Logger(),
	}
}

// AddConsumer registers a consumer for future rounds.
func (r *Runner) AddConsumer(c Consumer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.consumers = append(r.consumers, c)
	r.log.Debug().Str("consumer", c.Name()).Msg("Consumer registered")
}

// Schedule registers the collection round on a cron schedule.
// Examples: "@every 5m", "0 9 * * MON-FRI".
func (r *Runner) Schedule(spec string) error {
	_, err := r.cron.AddFunc(spec, func() {
		r.RunOnce(context.Background())
	})
	if err != nil {
		return err
	}
	r.log.Info().Str("schedule", spec).Msg("Collection round scheduled")
	return nil
}

// Start starts the schedule.
func (r *Runner) Start() {
	r.cron.Start()
	r.log.Info().Msg("Round runner started")
}

// Stop stops the schedule and waits for an in-flight round to finish.
func (r *Runner) Stop() {
	ctx := r.cron.Stop()
	<-ctx.Done()
	r.log.Info().Msg("Round runner stopped")
}

// RunOnce executes one collection round immediately and returns the
// snapshot. Each consumer receives its own detached copy of the agent
// input, so consumers cannot affect each other through shared data.
func (r *Runner) RunOnce(ctx context.Context) *pipeline.Snapshot {
	snap := r.pipeline.Collect(ctx)

	r.mu.Lock()
	consumers := make([]Consumer, len(r.consumers))
	copy(consumers, r.consumers)
	r.mu.Unlock()

	for _, c := range consumers {
		if err := c.OnAgentInput(ctx, snap.AgentInput()); err != nil {
			r.log.Error().Err(err).Str("consumer", c.Name()).Msg("Consumer failed to process agent input")
		}
	}

	return snap
}
