package pipeline

import (
	"fmt"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/meridianlab/meridian/internal/domain"
)

// Metadata records collection-round bookkeeping for observability.
type Metadata struct {
	SourceCounts   map[string]int `json:"source_counts"`
	CollectorCount int            `json:"collector_count"`
	CollectionTime time.Duration  `json:"collection_time"`
}

// Snapshot is the merged result of one collection round. It is immutable
// after construction: the pipeline never retains a reference, and consumers
// must treat the contained slices and maps as read-only (use AgentInput for
// a detached copy).
type Snapshot struct {
	Timestamp     time.Time                 `json:"timestamp"`
	NewsItems     []domain.Payload          `json:"news_items"`
	SocialSignals []domain.Payload          `json:"social_signals"`
	ScreenResults []domain.Payload          `json:"screen_results"`
	MarketData    map[string]domain.Payload `json:"market_data"`
	CommodityData map[string]domain.Payload `json:"commodity_data"`
	CryptoData    map[string]domain.Payload `json:"crypto_data"`
	Metadata      Metadata                  `json:"metadata"`
}

// AgentInput is the bookkeeping-free view of a snapshot handed to agents:
// market, commodity and crypto quotes merged into one map, the list
// categories carried over, metadata and timestamp discarded.
type AgentInput struct {
	MarketData    map[string]domain.Payload `json:"market_data"`
	NewsItems     []domain.Payload          `json:"news_items"`
	SocialSignals []domain.Payload          `json:"social_signals"`
	ScreenResults []domain.Payload          `json:"screen_results"`
}

// AgentInput builds the agent-facing view. Everything is deep-copied, so
// reading has no side effects and repeated calls yield structurally equal
// results regardless of what consumers do with earlier copies.
func (s *Snapshot) AgentInput() *AgentInput {
	merged := make(map[string]domain.Payload, len(s.MarketData)+len(s.CommodityData)+len(s.CryptoData))
	for k, v := range s.MarketData {
		merged[k] = v.Clone()
	}
	for k, v := range s.CommodityData {
		merged[k] = v.Clone()
	}
	for k, v := range s.CryptoData {
		merged[k] = v.Clone()
	}

	return &AgentInput{
		MarketData:    merged,
		NewsItems:     domain.ClonePayloadSlice(s.NewsItems),
		SocialSignals: domain.ClonePayloadSlice(s.SocialSignals),
		ScreenResults: domain.ClonePayloadSlice(s.ScreenResults),
	}
}

// EncodeBinary serializes the agent input with msgpack for hand-off to
// out-of-process agent runtimes.
func (a *AgentInput) EncodeBinary() ([]byte, error) {
	raw, err := msgpack.Marshal(a)
	if err != nil {
		return nil, fmt.Errorf("failed to encode agent input: %w", err)
	}
	return raw, nil
}

// DecodeAgentInput deserializes a msgpack-encoded agent input.
func DecodeAgentInput(raw []byte) (*AgentInput, error) {
	var a AgentInput
	if err := msgpack.Unmarshal(raw, &a); err != nil {
		return nil, fmt.Errorf("failed to decode agent input: %w", err)
	}
	return &a, nil
}
