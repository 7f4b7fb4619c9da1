// Package domain holds the shared value types passed between the replay
// buffer, the data pipeline, and the agents that consume their output.
package domain

// Payload is a schema-agnostic structured record. Agent states, actions,
// news items and market quotes all carry arbitrary key/value data; the
// buffer and the pipeline store and copy payloads without interpreting them.
type Payload map[string]any

// Clone returns a deep copy of the payload. Nested maps and slices are
// copied recursively so mutations on the copy never reach the original.
// A nil payload clones to nil.
func (p Payload) Clone() Payload {
	if p == nil {
		return nil
	}
	out := make(Payload, len(p))
	for k, v := range p {
		out[k] = cloneValue(v)
	}
	return out
}

// cloneValue deep-copies the JSON-like value kinds a payload can hold.
// Scalars are returned as-is.
func cloneValue(v any) any {
	switch t := v.(type) {
	case Payload:
		return t.Clone()
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = cloneValue(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = cloneValue(val)
		}
		return out
	case []Payload:
		return ClonePayloadSlice(t)
	default:
		return v
	}
}

// ClonePayloadSlice deep-copies a slice of payloads. A nil slice clones to nil.
func ClonePayloadSlice(items []Payload) []Payload {
	if items == nil {
		return nil
	}
	out := make([]Payload, len(items))
	for i, item := range items {
		out[i] = item.Clone()
	}
	return out
}

// ClonePayloadMap deep-copies a string-keyed map of payloads. A nil map
// clones to nil.
func ClonePayloadMap(m map[string]Payload) map[string]Payload {
	if m == nil {
		return nil
	}
	out := make(map[string]Payload, len(m))
	for k, v := range m {
		out[k] = v.Clone()
	}
	return out
}
