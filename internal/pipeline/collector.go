package pipeline

import (
	"context"

	"github.com/meridianlab/meridian/internal/domain"
)

// Collector is one independently-failing data source. Collect blocks until
// the source responds (or ctx is done) and returns the items it gathered.
// A collector may fail or panic; the pipeline isolates both, so collectors
// never need to worry about taking down a collection round. Retries, if
// desired, are the collector's own responsibility.
type Collector interface {
	Name() string
	Collect(ctx context.Context) (*Contribution, error)
}

// Recognized keys for raw collector mappings (see ContributionFromMap).
const (
	KeyNewsItems     = "news_items"
	KeySocialSignals = "social_signals"
	KeyScreenResults = "screen_results"
	KeyMarketData    = "market_data"
	KeyCommodityData = "commodity_data"
	KeyCryptoData    = "crypto_data"
)

// Contribution is the output of a single collection call. List categories
// are concatenated across collectors during the merge; map categories are
// merged by key with later-registered collectors winning.
type Contribution struct {
	NewsItems     []domain.Payload
	SocialSignals []domain.Payload
	ScreenResults []domain.Payload
	MarketData    map[string]domain.Payload
	CommodityData map[string]domain.Payload
	CryptoData    map[string]domain.Payload
}

// ItemCount returns the number of items across all categories. This is the
// per-source count recorded in snapshot metadata.
func (c *Contribution) ItemCount() int {
	if c == nil {
		return 0
	}
	return len(c.NewsItems) + len(c.SocialSignals) + len(c.ScreenResults) +
		len(c.MarketData) + len(c.CommodityData) + len(c.CryptoData)
}

// ContributionFromMap adapts a raw key/value mapping (the shape upstream
// connectors naturally produce) into a typed contribution. Only the
// recognized keys are extracted; anything else is dropped and reported in
// the second return value so callers can log it. Values of the wrong shape
// for their key are treated as unrecognized.
func ContributionFromMap(raw map[string]any) (*Contribution, []string) {
	contrib := &Contribution{}
	var dropped []string

	for key, value := range raw {
		switch key {
		case KeyNewsItems:
			if items, ok := toPayloadSlice(value); ok {
				contrib.NewsItems = items
				continue
			}
		case KeySocialSignals:
			if items, ok := toPayloadSlice(value); ok {
				contrib.SocialSignals = items
				continue
			}
		case KeyScreenResults:
			if items, ok := toPayloadSlice(value); ok {
				contrib.ScreenResults = items
				continue
			}
		case KeyMarketData:
			if m, ok := toPayloadMap(value); ok {
				contrib.MarketData = m
				continue
			}
		case KeyCommodityData:
			if m, ok := toPayloadMap(value); ok {
				contrib.CommodityData = m
				continue
			}
		case KeyCryptoData:
			if m, ok := toPayloadMap(value); ok {
				contrib.CryptoData = m
				continue
			}
		}
		dropped = append(dropped, key)
	}

	return contrib, dropped
}

// toPayloadSlice converts a list-valued category. Accepts []domain.Payload
// directly or the []any/map[string]any shapes produced by generic decoders.
func toPayloadSlice(value any) ([]domain.Payload, bool) {
	switch v := value.(type) {
	case []domain.Payload:
		return v, true
	case []map[string]any:
		out := make([]domain.Payload, len(v))
		for i, item := range v {
			out[i] = domain.Payload(item)
		}
		return out, true
	case []any:
		out := make([]domain.Payload, 0, len(v))
		for _, item := range v {
			m, ok := item.(map[string]any)
			if !ok {
				return nil, false
			}
			out = append(out, domain.Payload(m))
		}
		return out, true
	default:
		return nil, false
	}
}

// toPayloadMap converts a map-valued category.
func toPayloadMap(value any) (map[string]domain.Payload, bool) {
	switch v := value.(type) {
	case map[string]domain.Payload:
		return v, true
	case map[string]map[string]any:
		out := make(map[string]domain.Payload, len(v))
		for k, m := range v {
			out[k] = domain.Payload(m)
		}
		return out, true
	case map[string]any:
		out := make(map[string]domain.Payload, len(v))
		for k, item := range v {
			m, ok := item.(map[string]any)
			if !ok {
				return nil, false
			}
			out[k] = domain.Payload(m)
		}
		return out, true
	default:
		return nil, false
	}
}
