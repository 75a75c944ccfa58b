package chateau

import "context"

type Repo interface {
	Create(ctx context.Context, c *Chateau) error
	GetByID(ctx context.Context, id int64) (*Chateau, error)
	List(ctx context.Context) ([]*Chateau, error)
	ListByTheme(ctx context.Context, theme string) ([]*Chateau, error)
	Update(ctx context.Context, c *Chateau) error
	Delete(ctx context.Context, id int64) error
}

// Events receives chateau lifecycle notifications after a successful write.
type Events interface {
	Created(ctx context.Context, c *Chateau, actor string) error
	Updated(ctx context.Context, c *Chateau, actor string) error
	Deleted(ctx context.Context, id int64, actor string) error
}
