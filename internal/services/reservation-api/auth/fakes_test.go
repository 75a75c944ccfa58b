package auth

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	coreauth "github.com/NordCoder/Chateaux/internal/auth"
	"github.com/NordCoder/Chateaux/internal/domain/user"
	"github.com/stretchr/testify/require"
)

const testSecret = "MDEyMzQ1Njc4OWFiY2RlZjAxMjM0NTY3ODlhYmNkZWY="

type memUsers struct {
	mu    sync.RWMutex
	users map[string]*user.User
	err   error
	calls int
}

func newMemUsers(us ...*user.User) *memUsers {
	m := &memUsers{users: map[string]*user.User{}}
	for _, u := range us {
		m.users[u.Email] = u
	}
	return m
}

func (m *memUsers) GetByEmail(_ context.Context, email string) (*user.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	u, ok := m.users[email]
	if !ok {
		return nil, user.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func newClock() *clock {
	return &clock{t: time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)}
}

func newCodec(t *testing.T, c *clock, ttl time.Duration) *coreauth.Codec {
	t.Helper()
	codec, err := coreauth.NewCodec(coreauth.CodecConfig{Secret: testSecret, Expiration: ttl, Now: c.Now})
	require.NoError(t, err)
	return codec
}

var hasher = coreauth.NewBcryptHasher(4)

func mustUser(t *testing.T, email, password, role string) *user.User {
	t.Helper()
	hash, err := hasher.Hash(password)
	require.NoError(t, err)
	return &user.User{ID: int64(len(email)), Email: email, Password: hash, Role: role}
}

// countingHasher records how many verifications ran.
type countingHasher struct {
	coreauth.PasswordHasher
	mu       sync.Mutex
	verifies int
}

func (h *countingHasher) Verify(plain, hash string) bool {
	h.mu.Lock()
	h.verifies++
	h.mu.Unlock()
	return h.PasswordHasher.Verify(plain, hash)
}

var errStoreDown = errors.New("store down")
