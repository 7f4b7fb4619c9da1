// Package main is the entry point for the meridian research core: the
// experience replay buffer and the data collection pipeline that feed the
// research agents.
//
// The application follows explicit dependency injection: every component is
// constructed here and passed to whatever needs it. There are no
// process-global instances.
package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/meridianlab/meridian/internal/collectors/static"
	"github.com/meridianlab/meridian/internal/config"
	"github.com/meridianlab/meridian/internal/pipeline"
	"github.com/meridianlab/meridian/internal/replay"
	"github.com/meridianlab/meridian/internal/rounds"
	"github.com/meridianlab/meridian/pkg/logger"
)

// roundLogger is the built-in consumer: it logs what each round delivered.
// Real agent consumers are registered by the surrounding application.
type roundLogger struct {
	log zerolog.Logger
}

func (r *roundLogger) Name() string {
	return "round_logger"
}

func (r *roundLogger) OnAgentInput(_ context.Context, input *pipeline.AgentInput) error {
	r.log.Info().
		Int("market_entries", len(input.MarketData)).
		Int("news_items", len(input.NewsItems)).
		Int("social_signals", len(input.SocialSignals)).
		Int("screen_results", len(input.ScreenResults)).
		Msg("Agent input delivered")
	return nil
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		// Use fallback logger if config fails
		fallbackLog := logger.New(logger.Config{
			Level:  "info",
			Pretty: true,
		})
		fallbackLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.LogPretty,
	})

	log.Info().Msg("Starting meridian research core")

	buffer, err := replay.New(cfg.ReplayBufferSize, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create replay buffer")
	}
	log.Info().Int("capacity", cfg.ReplayBufferSize).Msg("Replay buffer initialized")

	pipe := pipeline.NewWithTimeout(cfg.CollectTimeout, log)
	if cfg.FixturesDir != "" {
		if err := registerFixtureCollectors(pipe, cfg.FixturesDir, log); err != nil {
			log.Fatal().Err(err).Msg("Failed to register fixture collectors")
		}
	}
	log.Info().Strs("collectors", pipe.CollectorNames()).Msg("Data pipeline initialized")

	runner := rounds.New(pipe, log)
	runner.AddConsumer(&roundLogger{log: log})
	if err := runner.Schedule(cfg.RoundSchedule); err != nil {
		log.Fatal().Err(err).Str("schedule", cfg.RoundSchedule).Msg("Invalid round schedule")
	}
	runner.Start()

	// Run one round immediately so operators see data without waiting for
	// the first scheduled tick.
	runner.RunOnce(context.Background())

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down...")
	runner.Stop()
	log.Info().Int("buffered_experiences", buffer.Size()).Msg("Shutdown complete")
}

// registerFixtureCollectors registers one static collector per fixture file
// in dir. The collector name is the file name without its extension.
func registerFixtureCollectors(pipe *pipeline.Pipeline, dir string, log zerolog.Logger) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := filepath.Ext(entry.Name())
		if ext != ".json" && ext != ".msgpack" {
			continue
		}
		name := strings.TrimSuffix(entry.Name(), ext)
		collector := static.New(name, filepath.Join(dir, entry.Name()), log)
		if err := pipe.AddCollector(collector); err != nil {
			return err
		}
	}

	return nil
}
