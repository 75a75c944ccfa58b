package user

import "context"

// CredentialStore is the read side used on every login and every
// authenticated request. GetByEmail returns ErrNotFound for unknown emails.
type CredentialStore interface {
	GetByEmail(ctx context.Context, email string) (*User, error)
}

type Repo interface {
	CredentialStore
	Create(ctx context.Context, u *User) error
}
