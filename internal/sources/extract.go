package sources

import (
	"encoding/json"
	"fmt"

	"github.com/tidwall/gjson"
)

// Envelope identifies which of the two supported response shapes carried an
// item list. Upstream endpoints disagree on their envelope, so detection is
// modeled as a closed variant instead of ad-hoc field probing.
type Envelope int

const (
	// EnvelopeUnknown means neither supported shape matched
	EnvelopeUnknown Envelope = iota

	// EnvelopeNested is {"data": {"designs": [...]}}
	EnvelopeNested

	// EnvelopeFlat is {"designs": [...]}
	EnvelopeFlat
)

func (e Envelope) String() string {
	switch e {
	case EnvelopeNested:
		return "data.designs"
	case EnvelopeFlat:
		return "designs"
	default:
		return "unknown"
	}
}

// DetectEnvelope probes a JSON document for the two supported shapes,
// preferring the nested one.
func DetectEnvelope(data []byte) Envelope {
	if gjson.GetBytes(data, "data.designs").Exists() {
		return EnvelopeNested
	}
	if gjson.GetBytes(data, "designs").Exists() {
		return EnvelopeFlat
	}
	return EnvelopeUnknown
}

// ExtractItems pulls the item list out of a JSON document using the tolerant
// two-shape rule. An unknown envelope yields an empty list and
// EnvelopeUnknown; the caller reports it. A document that is not valid JSON,
// or whose item list is not an array of objects, is an error.
func ExtractItems(data []byte) ([]Item, Envelope, error) {
	if !gjson.ValidBytes(data) {
		return nil, EnvelopeUnknown, fmt.Errorf("response is not valid JSON")
	}

	env := DetectEnvelope(data)
	var raw string
	switch env {
	case EnvelopeNested:
		raw = gjson.GetBytes(data, "data.designs").Raw
	case EnvelopeFlat:
		raw = gjson.GetBytes(data, "designs").Raw
	default:
		return nil, EnvelopeUnknown, nil
	}

	var items []Item
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil, env, fmt.Errorf("item list under %q is malformed: %w", env, err)
	}
	return items, env, nil
}
