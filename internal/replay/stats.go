package replay

import (
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Histogram buckets rewards into five fixed ranges for observability.
type Histogram struct {
	StronglyNegative int `json:"strongly_negative"` // reward < -1
	Negative         int `json:"negative"`          // -1 <= reward < 0
	Zero             int `json:"zero"`              // reward == 0
	Positive         int `json:"positive"`          // 0 < reward <= 1
	StronglyPositive int `json:"strongly_positive"` // reward > 1
}

// Stats is a point-in-time summary of buffer contents. All numeric fields
// are zero and Agents is empty when the buffer is empty.
type Stats struct {
	Size            int       `json:"size"`
	MaxSize         int       `json:"max_size"`
	UtilizationPct  float64   `json:"utilization_pct"`
	AvgReward       float64   `json:"avg_reward"`
	RewardStd       float64   `json:"reward_std"`
	RewardMin       float64   `json:"reward_min"`
	RewardMax       float64   `json:"reward_max"`
	RewardHistogram Histogram `json:"reward_histogram"`
	Agents          []string  `json:"agents"`
	Episodes        int       `json:"episodes"`
}

// Stats computes a summary of the current buffer contents. Reward spread is
// the population standard deviation (divide by n, not n-1). Agent names are
// returned sorted for deterministic output.
func (b *Buffer) Stats() Stats {
	b.mu.RLock()
	defer b.mu.RUnlock()

	s := Stats{
		Size:    b.count,
		MaxSize: b.maxSize,
		Agents:  []string{},
	}
	if b.count == 0 {
		return s
	}

	rewards := make([]float64, b.count)
	agents := make(map[string]struct{})
	episodes := make(map[string]struct{})
	var hist Histogram

	for i := 0; i < b.count; i++ {
		exp := b.at(i)
		rewards[i] = exp.Reward
		agents[exp.AgentName] = struct{}{}
		episodes[exp.EpisodeID] = struct{}{}

		switch r := exp.Reward; {
		case r < -1:
			hist.StronglyNegative++
		case r < 0:
			hist.Negative++
		case r == 0:
			hist.Zero++
		case r <= 1:
			hist.Positive++
		default:
			hist.StronglyPositive++
		}
	}

	s.UtilizationPct = float64(b.count) / float64(b.maxSize) * 100
	s.AvgReward = stat.Mean(rewards, nil)
	s.RewardStd = stat.PopStdDev(rewards, nil)
	s.RewardMin = floats.Min(rewards)
	s.RewardMax = floats.Max(rewards)
	s.RewardHistogram = hist

	for name := range agents {
		s.Agents = append(s.Agents, name)
	}
	sort.Strings(s.Agents)
	s.Episodes = len(episodes)

	return s
}
