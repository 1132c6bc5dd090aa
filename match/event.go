// Package match implements the match lifecycle manager: it consumes normalized FACEIT
// webhook events, resolves rosters to linked Discord accounts, and creates or tears down
// the per-faction voice channels, keeping the in-memory cache and the active_matches
// table consistent under duplicate and out-of-order delivery.
package match

import (
	"encoding/json"
	"fmt"
)

// Kind classifies a lifecycle event after normalization.
type Kind int

const (
	KindUnknown Kind = iota
	KindMatchCreated
	KindMatchFinished
)

func (k Kind) String() string {
	switch k {
	case KindMatchCreated:
		return "match_created"
	case KindMatchFinished:
		return "match_finished"
	default:
		return "unknown"
	}
}

// Event is the manager's sole input: a classified kind, the match id (possibly empty when
// the payload shape is unrecognized), and the raw payload for diagnostics.
type Event struct {
	Kind    Kind
	Name    string // upstream event name as delivered, for logging
	MatchID string
	Raw     map[string]any
}

// extractFunc probes one plausible location for a string field in the payload.
// The exact FACEIT webhook shape is not pinned down, so normalization tries an ordered
// list of strategies instead of assuming a single schema.
type extractFunc func(map[string]any) string

func fromKey(key string) extractFunc {
	return func(payload map[string]any) string {
		if s, ok := payload[key].(string); ok {
			return s
		}
		return ""
	}
}

func fromNested(outer, inner string) extractFunc {
	return func(payload map[string]any) string {
		if nested, ok := payload[outer].(map[string]any); ok {
			if s, ok := nested[inner].(string); ok {
				return s
			}
		}
		return ""
	}
}

var kindExtractors = []extractFunc{
	fromKey("event"),
	fromKey("type"),
	fromKey("event_type"),
	fromNested("payload", "event"),
}

var matchIDExtractors = []extractFunc{
	fromNested("payload", "id"),
	fromNested("payload", "match_id"),
	fromKey("match_id"),
	fromKey("id"),
}

func firstMatch(extractors []extractFunc, payload map[string]any) string {
	for _, ex := range extractors {
		if v := ex(payload); v != "" {
			return v
		}
	}
	return ""
}

func kindFromName(name string) Kind {
	switch name {
	case "match_status_ready", "match_status_created", "match_object_created":
		return KindMatchCreated
	case "match_status_finished", "match_status_aborted", "match_status_cancelled":
		return KindMatchFinished
	default:
		return KindUnknown
	}
}

// Normalize classifies a decoded webhook payload into an Event. It never fails: an
// unrecognized shape yields KindUnknown and/or an empty MatchID, which callers treat as
// a logged no-op rather than an error.
func Normalize(payload map[string]any) Event {
	name := firstMatch(kindExtractors, payload)
	return Event{
		Kind:    kindFromName(name),
		Name:    name,
		MatchID: firstMatch(matchIDExtractors, payload),
		Raw:     payload,
	}
}

// ParseEvent decodes a raw webhook body and normalizes it.
func ParseEvent(body []byte) (Event, error) {
	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		return Event{}, fmt.Errorf("decode webhook payload: %w", err)
	}
	return Normalize(payload), nil
}
