// Package static provides a fixture-backed collector that serves a fixed
// contribution loaded from a local file. It exists for demo wiring and
// tests; it is not a connector to any external service.
package static

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/meridianlab/meridian/internal/pipeline"
)

// Collector reads a contribution-shaped mapping from a fixture file on
// every Collect call. Supported formats: .json and .msgpack.
type Collector struct {
	name string
	path string
	log  zerolog.Logger
}

// New creates a fixture-backed collector.
func New(name, path string, log zerolog.Logger) *Collector {
	return &Collector{
		name: name,
		path: path,
		log:  log.With().Str("component", "static_collector").Str("collector", name).Logger(),
	}
}

// Name returns the collector name.
func (c *Collector) Name() string {
	return c.name
}

// Collect loads and decodes the fixture file.
func (c *Collector) Collect(ctx context.Context) (*pipeline.Contribution, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(c.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read fixture: %w", err)
	}

	var raw map[string]any
	switch ext := filepath.Ext(c.path); ext {
	case ".json":
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("failed to parse JSON fixture: %w", err)
		}
	case ".msgpack":
		if err := msgpack.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("failed to parse msgpack fixture: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported fixture format: %s", ext)
	}

	contrib, dropped := pipeline.ContributionFromMap(raw)
	if len(dropped) > 0 {
		c.log.Debug().Strs("keys", dropped).Msg("Dropped unrecognized fixture keys")
	}
	return contrib, nil
}
