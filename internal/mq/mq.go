package mq

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/jobtracker/apiserver/config"
	"github.com/jobtracker/apiserver/types"
	"github.com/samber/oops"
)

// Backend is a broker that can publish to a named topic or queue.
type Backend interface {
	Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error)
	Close() error
}

// NewBackend selects the broker named by cfg.MQBackend. "none" (or empty)
// returns Discard.
func NewBackend(ctx context.Context, cfg config.Config) (Backend, error) {
	switch cfg.MQBackend {
	case "", "none":
		return Discard{}, nil
	case "rabbitmq":
		return NewRabbitMQClient(cfg.RabbitMQ)
	case "pubsub":
		return NewPubSubClient(ctx, cfg.PubSub)
	default:
		return nil, fmt.Errorf("unknown mq backend %q", cfg.MQBackend)
	}
}

// Discard drops every message. Used when no broker is configured.
type Discard struct{}

func (Discard) Publish(context.Context, string, []byte, map[string]string) (string, error) {
	return "", nil
}

func (Discard) Close() error { return nil }

// Events publishes domain events as JSON.
type Events struct {
	backend Backend
	logger  *slog.Logger
}

func NewEvents(backend Backend, logger *slog.Logger) *Events {
	return &Events{backend: backend, logger: logger}
}

// ProfileSignedUp announces a new profile so a mailer can deliver the
// activation link.
func (e *Events) ProfileSignedUp(ctx context.Context, event types.ProfileSignedUp) error {
	data, err := json.Marshal(event)
	if err != nil {
		return oops.Code("EVENT_ENCODE_FAILED").With("topic", types.ProfileSignedUpTopic).Wrap(err)
	}

	id, err := e.backend.Publish(ctx, types.ProfileSignedUpTopic, data, map[string]string{
		"event":      types.ProfileSignedUpTopic,
		"profile_id": event.ProfileID,
	})
	if err != nil {
		return oops.Code("EVENT_PUBLISH_FAILED").
			With("topic", types.ProfileSignedUpTopic).
			With("profile_id", event.ProfileID).
			Wrap(err)
	}

	e.logger.Debug("event published", "topic", types.ProfileSignedUpTopic, "message_id", id)
	return nil
}

func (e *Events) Close() error {
	return e.backend.Close()
}
