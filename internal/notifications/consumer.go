package notifications

import (
	"context"
	"encoding/json"
	"fmt"

	goredis "github.com/redis/go-redis/v9"

	"github.com/angelmondragon/importgroups-backend/pkg/logger"
)

// Handler receives decoded envelopes.
type Handler func(ctx context.Context, envelope Envelope) error

// Consumer reads group events back off a Redis subscription.
type Consumer struct {
	logg    *logger.Logger
	handler Handler
}

func NewConsumer(handler Handler, logg *logger.Logger) (*Consumer, error) {
	if handler == nil {
		return nil, fmt.Errorf("handler required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Consumer{logg: logg, handler: handler}, nil
}

// Decode parses one published payload.
func Decode(payload []byte) (Envelope, error) {
	var envelope Envelope
	if err := json.Unmarshal(payload, &envelope); err != nil {
		return Envelope{}, fmt.Errorf("decode group event: %w", err)
	}
	if envelope.Type == "" {
		return Envelope{}, fmt.Errorf("decode group event: missing type")
	}
	return envelope, nil
}

// Run consumes messages until ctx is done or the channel closes. Malformed
// payloads are logged and skipped; a handler error stops the loop.
func (c *Consumer) Run(ctx context.Context, messages <-chan *goredis.Message) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-messages:
			if !ok {
				return nil
			}
			envelope, err := Decode([]byte(msg.Payload))
			if err != nil {
				c.logg.Warn(c.logg.WithField(ctx, "channel", msg.Channel), err.Error())
				continue
			}
			if err := c.handler(ctx, envelope); err != nil {
				return fmt.Errorf("handle %s event: %w", envelope.Type, err)
			}
		}
	}
}
