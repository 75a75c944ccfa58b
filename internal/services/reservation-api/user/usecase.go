package user

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	coreauth "github.com/NordCoder/Chateaux/internal/auth"
	"github.com/NordCoder/Chateaux/internal/domain/user"
	pg "github.com/NordCoder/Chateaux/internal/repository/postgres"
	"go.uber.org/zap"
)

type Config struct {
	DefaultRole string
	Now         func() time.Time
}

type Usecase struct {
	users  user.Repo
	tx     pg.Transactor
	hasher coreauth.PasswordHasher
	cfg    Config
	log    *zap.Logger
}

func NewUsecase(users user.Repo, tx pg.Transactor, hasher coreauth.PasswordHasher, cfg Config, log *zap.Logger) *Usecase {
	if cfg.Now == nil {
		cfg.Now = func() time.Time { return time.Now().UTC() }
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Usecase{
		users:  users,
		tx:     tx,
		hasher: hasher,
		cfg:    cfg,
		log:    log.With(zap.String("component", "user.usecase")),
	}
}

type RegisterInput struct {
	FirstName string
	LastName  string
	Email     string
	Password  string
}

// Register stores a new user with the default role. The email is kept as
// given; lookups are exact.
func (u *Usecase) Register(ctx context.Context, in RegisterInput) (*user.User, error) {
	role := strings.TrimSpace(u.cfg.DefaultRole)
	if role == "" {
		return nil, user.ErrInvalidRole
	}

	hash, err := u.hasher.Hash(in.Password)
	if err != nil {
		return nil, err
	}
	now := u.cfg.Now()
	nu := &user.User{
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Email:     in.Email,
		Password:  hash,
		Role:      role,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err = u.tx.WithTx(ctx, func(ctx context.Context) error {
		_, err := u.users.GetByEmail(ctx, in.Email)
		switch {
		case err == nil:
			return user.ErrEmailExists
		case !errors.Is(err, user.ErrNotFound):
			return fmt.Errorf("lookup email: %w", err)
		}
		return u.users.Create(ctx, nu)
	})
	if err != nil {
		if errors.Is(err, user.ErrEmailExists) {
			u.log.Info("registration rejected", zap.String("email", in.Email), zap.String("reason", "email_exists"))
		}
		return nil, err
	}

	u.log.Info("user registered", zap.String("email", nu.Email), zap.Int64("id", nu.ID))
	return nu, nil
}

// Me loads the user behind the identity attached to ctx.
func (u *Usecase) Me(ctx context.Context) (*user.User, error) {
	id, ok := coreauth.IdentityFromCtx(ctx)
	if !ok {
		return nil, coreauth.ErrUnauthenticated
	}
	return u.users.GetByEmail(ctx, id.Email)
}
