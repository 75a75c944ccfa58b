package kafka

import (
	"context"
	"time"

	"github.com/NordCoder/Chateaux/internal/domain/chateau"
	"github.com/NordCoder/Chateaux/internal/obs/retry"
	"go.uber.org/zap"
)

const (
	EventChateauCreated = "chateau.created"
	EventChateauUpdated = "chateau.updated"
	EventChateauDeleted = "chateau.deleted"
)

// ChateauEvent is the JSON payload written for every chateau mutation.
type ChateauEvent struct {
	Type        string    `json:"type"`
	ChateauID   int64     `json:"chateauId"`
	ChateauName string    `json:"chateauName,omitempty"`
	Theme       string    `json:"theme,omitempty"`
	Actor       string    `json:"actor"`
	OccurredAt  time.Time `json:"occurredAt"`
}

type ChateauEvents struct {
	p      *Producer
	policy retry.Policy
	now    func() time.Time
}

var _ chateau.Events = (*ChateauEvents)(nil)

func NewChateauEvents(p *Producer, log *zap.Logger) *ChateauEvents {
	return &ChateauEvents{p: p, policy: retry.DefaultPublishPolicy(log), now: time.Now}
}

func (e *ChateauEvents) Created(ctx context.Context, c *chateau.Chateau, actor string) error {
	return e.publish(ctx, EventChateauCreated, c.ID, c.ChateauName, c.Theme, actor)
}

func (e *ChateauEvents) Updated(ctx context.Context, c *chateau.Chateau, actor string) error {
	return e.publish(ctx, EventChateauUpdated, c.ID, c.ChateauName, c.Theme, actor)
}

func (e *ChateauEvents) Deleted(ctx context.Context, id int64, actor string) error {
	return e.publish(ctx, EventChateauDeleted, id, "", "", actor)
}

func (e *ChateauEvents) publish(ctx context.Context, typ string, id int64, name, theme, actor string) error {
	ev := ChateauEvent{
		Type:        typ,
		ChateauID:   id,
		ChateauName: name,
		Theme:       theme,
		Actor:       actor,
		OccurredAt:  e.now().UTC(),
	}
	return retry.Do(ctx, func(ctx context.Context) error { return e.Forward(ctx, ev) }, e.policy)
}

// Forward writes an already built event once. The outbox relay calls it with
// its own retry policy.
func (e *ChateauEvents) Forward(ctx context.Context, ev ChateauEvent) error {
	return e.p.PublishJSON(ctx, KeyFromInt64(ev.ChateauID), ev.Type, ev)
}

// NopChateauEvents is used when publishing is disabled.
type NopChateauEvents struct{}

var _ chateau.Events = NopChateauEvents{}

func (NopChateauEvents) Created(context.Context, *chateau.Chateau, string) error { return nil }
func (NopChateauEvents) Updated(context.Context, *chateau.Chateau, string) error { return nil }
func (NopChateauEvents) Deleted(context.Context, int64, string) error            { return nil }
