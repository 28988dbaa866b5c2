package interceptor

import (
	"github.com/voxmind/voxmind/domain/action"
	"github.com/voxmind/voxmind/domain/event"
	"github.com/voxmind/voxmind/domain/interceptor"
	"github.com/voxmind/voxmind/infrastructure/logging"
)

// actionPayload is the event payload describing an action lifecycle step.
type actionPayload struct {
	ActionID   string `json:"action_id"`
	Kind       string `json:"kind"`
	Status     string `json:"status,omitempty"`
	Error      string `json:"error,omitempty"`
	DurationMS int64  `json:"duration_ms,omitempty"`
}

// Events publishes action lifecycle events to the agent's event bus.
type Events struct {
	interceptor.Base
	bus *event.Bus
}

// NewEvents creates an event-publishing interceptor.
func NewEvents(bus *event.Bus) *Events {
	return &Events{bus: bus}
}

// Name identifies the interceptor in fault logs.
func (e *Events) Name() string { return "events" }

// BeforeStart publishes an action_started event.
func (e *Events) BeforeStart(info interceptor.Info) {
	e.publish(info, event.TypeActionStarted, actionPayload{
		ActionID: info.ActionID,
		Kind:     string(info.Kind),
	})
}

// OnComplete publishes action_completed or action_failed.
func (e *Events) OnComplete(info interceptor.Info, status action.Status) {
	eventType := event.TypeActionCompleted
	if status == action.StatusFailed {
		eventType = event.TypeActionFailed
	}
	e.publish(info, eventType, actionPayload{
		ActionID:   info.ActionID,
		Kind:       string(info.Kind),
		Status:     string(status),
		DurationMS: info.Elapsed().Milliseconds(),
	})
}

// OnError publishes action_failed with the behavior error attached.
func (e *Events) OnError(info interceptor.Info, err error) {
	e.publish(info, event.TypeActionFailed, actionPayload{
		ActionID: info.ActionID,
		Kind:     string(info.Kind),
		Error:    err.Error(),
	})
}

func (e *Events) publish(info interceptor.Info, eventType event.Type, payload actionPayload) {
	evt, err := event.New(info.AgentID, eventType, payload)
	if err != nil {
		logging.Warn().
			Add(logging.Component("interceptor")).
			Add(logging.ErrorField(err)).
			Msg("event payload encoding failed")
		return
	}
	e.bus.Publish(evt)
}

var _ interceptor.Interceptor = (*Events)(nil)
