package httpserver

import (
	"context"

	"github.com/Skotchmaster/shopcart/internal/logging"
)

type EventPublisher interface {
	PublishEvent(ctx context.Context, topic, key string, event any) error
}

type Event struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// publish is best effort: a failed publish is logged and the request
// carries on.
func publish(ctx context.Context, p EventPublisher, topic, key, typ string, data any) {
	if p == nil {
		return
	}
	if err := p.PublishEvent(ctx, topic, key, Event{Type: typ, Data: data}); err != nil {
		logging.FromContext(ctx).Warn("publish_event_failed", "topic", topic, "type", typ, "error", err)
	}
}
