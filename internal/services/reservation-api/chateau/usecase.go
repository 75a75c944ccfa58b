package chateau

import (
	"context"
	"fmt"
	"strings"

	coreauth "github.com/NordCoder/Chateaux/internal/auth"
	"github.com/NordCoder/Chateaux/internal/domain/chateau"
	pg "github.com/NordCoder/Chateaux/internal/repository/postgres"
	"go.uber.org/zap"
)

type Usecase struct {
	repo   chateau.Repo
	tx     pg.Transactor
	events chateau.Events
	outbox chateau.Events
	log    *zap.Logger
}

func NewUsecase(repo chateau.Repo, tx pg.Transactor, events chateau.Events, log *zap.Logger) *Usecase {
	if log == nil {
		log = zap.NewNop()
	}
	return &Usecase{
		repo:   repo,
		tx:     tx,
		events: events,
		log:    log.With(zap.String("component", "chateau.usecase")),
	}
}

// WithOutbox makes every write also record its event through rec inside the
// write's transaction. A failed record fails the write.
func (u *Usecase) WithOutbox(rec chateau.Events) *Usecase {
	u.outbox = rec
	return u
}

// List returns every chateau, or those whose theme matches case-insensitively
// when theme has text.
func (u *Usecase) List(ctx context.Context, theme string) ([]*chateau.Chateau, error) {
	theme = strings.TrimSpace(theme)
	if theme == "" {
		return u.repo.List(ctx)
	}
	return u.repo.ListByTheme(ctx, theme)
}

func (u *Usecase) Get(ctx context.Context, id int64) (*chateau.Chateau, error) {
	return u.repo.GetByID(ctx, id)
}

func (u *Usecase) Create(ctx context.Context, c *chateau.Chateau) (*chateau.Chateau, error) {
	c.ID = 0
	c.Normalize()
	actor := actorOf(ctx)
	err := u.tx.WithTx(ctx, func(ctx context.Context) error {
		if err := u.repo.Create(ctx, c); err != nil {
			return err
		}
		return u.record(func() error { return u.outbox.Created(ctx, c, actor) })
	})
	if err != nil {
		return nil, err
	}

	u.log.Info("chateau created", zap.Int64("id", c.ID), zap.String("name", c.ChateauName), zap.String("email", actor))
	u.publish(ctx, "created", c.ID, func(ctx context.Context) error { return u.events.Created(ctx, c, actor) })
	return c, nil
}

// Update overwrites scalar fields and replaces the collections upd carries.
func (u *Usecase) Update(ctx context.Context, id int64, upd *chateau.Chateau) (*chateau.Chateau, error) {
	var cur *chateau.Chateau
	actor := actorOf(ctx)
	err := u.tx.WithTx(ctx, func(ctx context.Context) error {
		var err error
		if cur, err = u.repo.GetByID(ctx, id); err != nil {
			return err
		}
		cur.Apply(upd)
		cur.Normalize()
		if err := u.repo.Update(ctx, cur); err != nil {
			return err
		}
		return u.record(func() error { return u.outbox.Updated(ctx, cur, actor) })
	})
	if err != nil {
		return nil, err
	}

	u.log.Info("chateau updated", zap.Int64("id", id), zap.String("email", actor))
	u.publish(ctx, "updated", id, func(ctx context.Context) error { return u.events.Updated(ctx, cur, actor) })
	return cur, nil
}

func (u *Usecase) Delete(ctx context.Context, id int64) error {
	actor := actorOf(ctx)
	err := u.tx.WithTx(ctx, func(ctx context.Context) error {
		if err := u.repo.Delete(ctx, id); err != nil {
			return err
		}
		return u.record(func() error { return u.outbox.Deleted(ctx, id, actor) })
	})
	if err != nil {
		return err
	}

	u.log.Warn("chateau deleted", zap.Int64("id", id), zap.String("email", actor))
	u.publish(ctx, "deleted", id, func(ctx context.Context) error { return u.events.Deleted(ctx, id, actor) })
	return nil
}

func (u *Usecase) record(fn func() error) error {
	if u.outbox == nil {
		return nil
	}
	if err := fn(); err != nil {
		return fmt.Errorf("record chateau event: %w", err)
	}
	return nil
}

// publish never fails the request; the write is already committed.
func (u *Usecase) publish(ctx context.Context, kind string, id int64, fn func(context.Context) error) {
	if u.events == nil {
		return
	}
	if err := fn(ctx); err != nil {
		u.log.Error("chateau event not published", zap.String("event", kind), zap.Int64("id", id), zap.Error(err))
	}
}

func actorOf(ctx context.Context) string {
	if id, ok := coreauth.IdentityFromCtx(ctx); ok {
		return id.Email
	}
	return ""
}
