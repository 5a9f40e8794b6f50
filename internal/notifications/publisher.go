package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/importgroups-backend/internal/groups"
	"github.com/angelmondragon/importgroups-backend/pkg/enums"
	"github.com/angelmondragon/importgroups-backend/pkg/logger"
	"github.com/angelmondragon/importgroups-backend/pkg/redis"
)

// Envelope is the message published for every group lifecycle event.
type Envelope struct {
	ID         uuid.UUID            `json:"id"`
	Type       enums.GroupEventType `json:"type"`
	OccurredAt time.Time            `json:"occurredAt"`
	Role       enums.Role           `json:"role,omitempty"`
	Group      groups.GroupView     `json:"group"`
}

// Publisher fans group events out to a Redis channel.
type Publisher struct {
	client  redis.Publisher
	channel string
	logg    *logger.Logger
	types   map[enums.GroupEventType]struct{}
	newID   func() uuid.UUID
}

var _ groups.Listener = (*Publisher)(nil)

type PublisherParams struct {
	Client  redis.Publisher
	Channel string
	Logger  *logger.Logger
	// Types limits which events are published. Empty publishes all of them.
	Types []enums.GroupEventType
}

func NewPublisher(params PublisherParams) (*Publisher, error) {
	if params.Client == nil {
		return nil, fmt.Errorf("redis publisher required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	channel := strings.TrimSpace(params.Channel)
	if channel == "" {
		return nil, fmt.Errorf("event channel required")
	}

	var types map[enums.GroupEventType]struct{}
	if len(params.Types) > 0 {
		types = make(map[enums.GroupEventType]struct{}, len(params.Types))
		for _, typ := range params.Types {
			types[typ] = struct{}{}
		}
	}
	return &Publisher{
		client:  params.Client,
		channel: channel,
		logg:    params.Logger,
		types:   types,
		newID:   uuid.New,
	}, nil
}

func (p *Publisher) HandleGroupEvent(ctx context.Context, event groups.Event) error {
	if p.types != nil {
		if _, ok := p.types[event.Type]; !ok {
			return nil
		}
	}

	envelope := Envelope{
		ID:         p.newID(),
		Type:       event.Type,
		OccurredAt: event.At,
		Role:       event.Role,
		Group:      groups.NewView(event.Group),
	}
	payload, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", event.Type, err)
	}
	if err := p.client.Publish(ctx, p.channel, payload); err != nil {
		return fmt.Errorf("publish %s event: %w", event.Type, err)
	}

	p.logg.Debug(p.logg.WithFields(ctx, map[string]any{
		"event_id":   envelope.ID.String(),
		"event_type": string(event.Type),
		"group_id":   event.Group.ID.String(),
		"channel":    p.channel,
	}), "group event published")
	return nil
}
