package replay

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/meridianlab/meridian/internal/domain"
)

// Experience is one recorded decision transition: the state an agent saw,
// the action it took, the reward it earned, and the state that followed.
// Experiences are immutable once stored in a buffer.
type Experience struct {
	EpisodeID string         `json:"episode_id"`
	Step      int            `json:"step"`
	AgentName string         `json:"agent_name"`
	State     domain.Payload `json:"state"`
	Action    domain.Payload `json:"action"`
	Reward    float64        `json:"reward"`
	NextState domain.Payload `json:"next_state"`
	Done      bool           `json:"done"`
	Metadata  domain.Payload `json:"metadata,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// NewEpisodeID returns a fresh opaque episode identifier.
func NewEpisodeID() string {
	return uuid.New().String()
}

// EncodeBinary serializes the experience with msgpack for out-of-process
// hand-off (e.g. an external experience log).
func (e Experience) EncodeBinary() ([]byte, error) {
	raw, err := msgpack.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("failed to encode experience: %w", err)
	}
	return raw, nil
}

// DecodeExperience deserializes a msgpack-encoded experience.
func DecodeExperience(raw []byte) (Experience, error) {
	var e Experience
	if err := msgpack.Unmarshal(raw, &e); err != nil {
		return Experience{}, fmt.Errorf("failed to decode experience: %w", err)
	}
	return e, nil
}
