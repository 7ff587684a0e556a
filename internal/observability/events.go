package observability

import "context"

// SessionEvent is the envelope published for session lifecycle events
// (connect, reconnect, disconnect, transport errors).
type SessionEvent struct {
	EventType string      `json:"event_type"`
	EventName string      `json:"event_name"`
	Payload   interface{} `json:"payload"`
}

// PublishSessionEvent fans a lifecycle event out to the ops exchange. Failures
// are counted, never fatal: telemetry must not take the session down.
func PublishSessionEvent(ctx context.Context, name string, payload interface{}) {
	_ = PublishEvent(ctx, "session_events."+name, SessionEvent{
		EventType: "session_events",
		EventName: name,
		Payload:   payload,
	})
}
