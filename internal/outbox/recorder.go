package outbox

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/NordCoder/Chateaux/internal/domain/chateau"
	"github.com/NordCoder/Chateaux/internal/domain/outbox"
	kafkax "github.com/NordCoder/Chateaux/internal/repository/kafka"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

// ChateauRecorder stores chateau events in the outbox. Called inside a
// transaction, a failed enqueue rolls the chateau write back with it.
type ChateauRecorder struct {
	repo outbox.Repository
	now  func() time.Time
}

var _ chateau.Events = (*ChateauRecorder)(nil)

func NewChateauRecorder(repo outbox.Repository) *ChateauRecorder {
	return &ChateauRecorder{repo: repo, now: time.Now}
}

func (r *ChateauRecorder) Created(ctx context.Context, c *chateau.Chateau, actor string) error {
	return r.record(ctx, kafkax.EventChateauCreated, c.ID, c.ChateauName, c.Theme, actor)
}

func (r *ChateauRecorder) Updated(ctx context.Context, c *chateau.Chateau, actor string) error {
	return r.record(ctx, kafkax.EventChateauUpdated, c.ID, c.ChateauName, c.Theme, actor)
}

func (r *ChateauRecorder) Deleted(ctx context.Context, id int64, actor string) error {
	return r.record(ctx, kafkax.EventChateauDeleted, id, "", "", actor)
}

func (r *ChateauRecorder) record(ctx context.Context, typ string, id int64, name, theme, actor string) error {
	ev := kafkax.ChateauEvent{
		Type:        typ,
		ChateauID:   id,
		ChateauName: name,
		Theme:       theme,
		Actor:       actor,
		OccurredAt:  r.now().UTC(),
	}
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", typ, err)
	}

	carrier := propagation.MapCarrier{}
	otel.GetTextMapPropagator().Inject(ctx, carrier)

	return r.repo.Enqueue(ctx, outbox.Message{
		IdempotencyKey: fmt.Sprintf("%s:%d:%s", typ, id, uuid.NewString()),
		Kind:           outbox.KindChateauEvent,
		Data:           data,
		Traceparent:    carrier.Get("traceparent"),
		Tracestate:     carrier.Get("tracestate"),
		Baggage:        carrier.Get("baggage"),
	})
}
