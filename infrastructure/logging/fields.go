package logging

import (
	"strconv"
	"time"

	"github.com/felixgeelhaar/bolt/v3"

	"github.com/voxmind/voxmind/domain/agent"
	"github.com/voxmind/voxmind/domain/action"
	"github.com/voxmind/voxmind/domain/plan"
	"github.com/voxmind/voxmind/domain/reactive"
)

// Field is a function that applies structured data to a log event.
type Field func(*bolt.Event) *bolt.Event

// AgentID adds an agent ID field.
func AgentID(id string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("agent_id", id)
	}
}

// ActionID adds an action ID field.
func ActionID(id string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("action_id", id)
	}
}

// Kind adds an action kind field.
func Kind(k action.Kind) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("kind", string(k))
	}
}

// State adds a state field.
func State(s agent.State) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("state", string(s))
	}
}

// FromState adds a from_state field for transitions.
func FromState(s agent.State) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("from_state", string(s))
	}
}

// ToState adds a to_state field for transitions.
func ToState(s agent.State) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("to_state", string(s))
	}
}

// Fingerprint adds a plan fingerprint field.
func Fingerprint(fp plan.Fingerprint) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("fingerprint", string(fp))
	}
}

// Command adds a normalized command field.
func Command(cmd string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("command", cmd)
	}
}

// CorrelationID adds a planning correlation ID field.
func CorrelationID(id string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("correlation_id", id)
	}
}

// Severity adds an interrupt severity field.
func Severity(s reactive.Severity) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("severity", string(s))
	}
}

// Utility adds a utility score field.
func Utility(u float64) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("utility", strconv.FormatFloat(u, 'f', 4, 64))
	}
}

// Duration adds a duration field in milliseconds.
func Duration(d time.Duration) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Int64("duration_ms", d.Milliseconds())
	}
}

// Cached adds a cached field.
func Cached(cached bool) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Bool("cached", cached)
	}
}

// Stale adds a stale field for fallback plans.
func Stale(stale bool) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Bool("stale", stale)
	}
}

// Attempt adds a retry attempt field.
func Attempt(n int) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Int("attempt", n)
	}
}

// Tick adds a tick counter field.
func Tick(n int) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Int("tick", n)
	}
}

// QueueLen adds a queue length field.
func QueueLen(n int) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Int("queue_len", n)
	}
}

// Steps adds a plan step count field.
func Steps(n int) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Int("steps", n)
	}
}

// Reason adds a reason field.
func Reason(reason string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("reason", reason)
	}
}

// Component adds a component field for categorization.
func Component(name string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("component", name)
	}
}

// ErrorField adds an error field.
func ErrorField(err error) Field {
	return func(e *bolt.Event) *bolt.Event {
		if err == nil {
			return e
		}
		return e.Err(err)
	}
}

// Str adds a string field with custom key.
func Str(key, value string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str(key, value)
	}
}
