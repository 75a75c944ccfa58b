package reservationapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	coreauth "github.com/NordCoder/Chateaux/internal/auth"
	"github.com/NordCoder/Chateaux/internal/domain/chateau"
	"github.com/NordCoder/Chateaux/internal/domain/user"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "MDEyMzQ1Njc4OWFiY2RlZjAxMjM0NTY3ODlhYmNkZWY="

type memUsers struct {
	mu   sync.Mutex
	rows map[string]user.User
}

func (m *memUsers) Create(_ context.Context, u *user.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[u.Email]; ok {
		return user.ErrEmailExists
	}
	u.ID = int64(len(m.rows) + 1)
	m.rows[u.Email] = *u
	return nil
}

func (m *memUsers) GetByEmail(_ context.Context, email string) (*user.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.rows[email]
	if !ok {
		return nil, user.ErrNotFound
	}
	return &u, nil
}

type memChateaus struct {
	mu   sync.Mutex
	rows []chateau.Chateau
}

func (m *memChateaus) Create(_ context.Context, c *chateau.Chateau) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c.ID = int64(len(m.rows) + 1)
	m.rows = append(m.rows, *c)
	return nil
}

func (m *memChateaus) GetByID(_ context.Context, id int64) (*chateau.Chateau, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.rows {
		if c.ID == id {
			return &c, nil
		}
	}
	return nil, chateau.ErrNotFound
}

func (m *memChateaus) List(context.Context) ([]*chateau.Chateau, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*chateau.Chateau, 0, len(m.rows))
	for i := range m.rows {
		c := m.rows[i]
		out = append(out, &c)
	}
	return out, nil
}

func (m *memChateaus) ListByTheme(ctx context.Context, theme string) ([]*chateau.Chateau, error) {
	all, _ := m.List(ctx)
	var out []*chateau.Chateau
	for _, c := range all {
		if strings.EqualFold(c.Theme, theme) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *memChateaus) Update(_ context.Context, c *chateau.Chateau) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.rows {
		if m.rows[i].ID == c.ID {
			m.rows[i] = *c
			return nil
		}
	}
	return chateau.ErrNotFound
}

func (m *memChateaus) Delete(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.rows {
		if m.rows[i].ID == id {
			m.rows = append(m.rows[:i], m.rows[i+1:]...)
			return nil
		}
	}
	return chateau.ErrNotFound
}

type inlineTx struct{}

func (inlineTx) WithTx(ctx context.Context, fn func(ctx context.Context) error) error { return fn(ctx) }

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

type env struct {
	srv   *httptest.Server
	clock *clock
	users *memUsers
}

func newEnv(t *testing.T) *env {
	t.Helper()
	clk := &clock{t: time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)}
	codec, err := coreauth.NewCodec(coreauth.CodecConfig{Secret: testSecret, Expiration: 15 * time.Minute, Now: clk.Now})
	require.NoError(t, err)

	users := &memUsers{rows: map[string]user.User{}}
	h, err := NewHandler(Deps{
		Users:           users,
		Chateaus:        &memChateaus{},
		Tx:              inlineTx{},
		Codec:           codec,
		Hasher:          coreauth.NewBcryptHasher(4),
		DefaultRole:     user.DefaultRole,
		AllowedOrigins:  []string{"http://localhost:3000"},
		LoginRatePerSec: 100,
		LoginBurst:      100,
		Health:          func(context.Context) error { return nil },
		Now:             clk.Now,
	})
	require.NoError(t, err)

	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return &env{srv: srv, clock: clk, users: users}
}

func (e *env) do(t *testing.T, method, path, token, body string) (*http.Response, string) {
	t.Helper()
	req, err := http.NewRequest(method, e.srv.URL+path, strings.NewReader(body))
	require.NoError(t, err)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := e.srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(raw)
}

func (e *env) registerAndLogin(t *testing.T, email, password string) string {
	t.Helper()
	resp, _ := e.do(t, http.MethodPost, "/api/user/register", "",
		fmt.Sprintf(`{"firstName":"F","lastName":"L","email":%q,"password":%q}`, email, password))
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	return e.login(t, email, password)
}

func (e *env) login(t *testing.T, email, password string) string {
	t.Helper()
	resp, body := e.do(t, http.MethodPost, "/api/auth/login", "", fmt.Sprintf(`{"email":%q,"password":%q}`, email, password))
	require.Equal(t, http.StatusOK, resp.StatusCode, body)
	var out struct {
		AccessToken string `json:"accessToken"`
	}
	require.NoError(t, json.Unmarshal([]byte(body), &out))
	require.NotEmpty(t, out.AccessToken)
	return out.AccessToken
}

func TestPipeline_RegisterLoginAndCallProtected(t *testing.T) {
	e := newEnv(t)
	token := e.registerAndLogin(t, "a@x.com", "secret1")

	resp, body := e.do(t, http.MethodGet, "/api/test/hello", token, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Helloa@x.com!", body)

	resp, body = e.do(t, http.MethodGet, "/api/user/me", token, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `"email":"a@x.com"`)
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
}

func TestPipeline_NoHeaderIs401(t *testing.T) {
	e := newEnv(t)

	resp, body := e.do(t, http.MethodGet, "/api/test/hello", "", "")
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	var eb struct {
		Status  int    `json:"status"`
		Message string `json:"message"`
		Path    string `json:"path"`
	}
	require.NoError(t, json.Unmarshal([]byte(body), &eb))
	assert.Equal(t, http.StatusUnauthorized, eb.Status)
	assert.Equal(t, "/api/test/hello", eb.Path)
}

func TestPipeline_GarbageTokenIs401(t *testing.T) {
	e := newEnv(t)

	resp, _ := e.do(t, http.MethodGet, "/api/user/me", "garbage", "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = e.do(t, http.MethodPost, "/api/chateaus", "a.b.c", `{"chateauName":"x"}`)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestPipeline_ExpiredTokenIs401(t *testing.T) {
	e := newEnv(t)
	token := e.registerAndLogin(t, "a@x.com", "secret1")

	e.clock.Advance(15*time.Minute - time.Second)
	resp, _ := e.do(t, http.MethodGet, "/api/test/hello", token, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	e.clock.Advance(time.Second)
	resp, _ = e.do(t, http.MethodGet, "/api/test/hello", token, "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestPipeline_BadCredentials(t *testing.T) {
	e := newEnv(t)
	e.registerAndLogin(t, "a@x.com", "secret1")

	r1, b1 := e.do(t, http.MethodPost, "/api/auth/login", "", `{"email":"a@x.com","password":"wrong1"}`)
	r2, b2 := e.do(t, http.MethodPost, "/api/auth/login", "", `{"email":"b@x.com","password":"secret1"}`)
	assert.Equal(t, http.StatusUnauthorized, r1.StatusCode)
	assert.Equal(t, http.StatusUnauthorized, r2.StatusCode)

	var m1, m2 map[string]any
	require.NoError(t, json.Unmarshal([]byte(b1), &m1))
	require.NoError(t, json.Unmarshal([]byte(b2), &m2))
	assert.Equal(t, m1["message"], m2["message"])
}

func TestPipeline_DeletedUserTokenStopsWorking(t *testing.T) {
	e := newEnv(t)
	token := e.registerAndLogin(t, "a@x.com", "secret1")

	e.users.mu.Lock()
	delete(e.users.rows, "a@x.com")
	e.users.mu.Unlock()

	resp, _ := e.do(t, http.MethodGet, "/api/user/me", token, "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestPipeline_ChateauAccess(t *testing.T) {
	e := newEnv(t)

	resp, _ := e.do(t, http.MethodPost, "/api/chateaus", "", `{"chateauName":"Chambord","theme":"Castle"}`)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	token := e.registerAndLogin(t, "a@x.com", "secret1")
	resp, _ = e.do(t, http.MethodPost, "/api/chateaus", token, `{"chateauName":"Chambord","theme":"Castle"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "/api/chateaus/1", resp.Header.Get("Location"))

	resp, body := e.do(t, http.MethodGet, "/api/chateaus?theme=castle", "", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Chambord")

	resp, _ = e.do(t, http.MethodGet, "/api/chateaus/1", "", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = e.do(t, http.MethodDelete, "/api/chateaus/1", "", "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp, _ = e.do(t, http.MethodDelete, "/api/chateaus/1", token, "")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}

func TestPipeline_PreflightSkipsAuth(t *testing.T) {
	e := newEnv(t)

	req, err := http.NewRequest(http.MethodOptions, e.srv.URL+"/api/chateaus/1", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodDelete)
	resp, err := e.srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, "http://localhost:3000", resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestPipeline_PublicProbes(t *testing.T) {
	e := newEnv(t)

	resp, body := e.do(t, http.MethodGet, "/healthz", "", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", body)

	resp, body = e.do(t, http.MethodGet, "/metrics", "", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "http_requests_total")
}

func TestPipeline_ConcurrentLoginsDoNotCross(t *testing.T) {
	e := newEnv(t)
	e.registerAndLogin(t, "a@x.com", "secret1")
	e.registerAndLogin(t, "b@x.com", "secret2")

	creds := map[string]string{"a@x.com": "secret1", "b@x.com": "secret2"}
	var wg sync.WaitGroup
	errs := make(chan error, 40)
	for i := 0; i < 10; i++ {
		for email, pw := range creds {
			wg.Add(1)
			go func(email, pw string) {
				defer wg.Done()
				if err := e.checkOwnIdentity(email, pw); err != nil {
					errs <- err
				}
			}(email, pw)
		}
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}
}

// checkOwnIdentity logs in and asks /api/user/me who it is, without
// touching t from a goroutine.
func (e *env) checkOwnIdentity(email, password string) error {
	resp, err := e.srv.Client().Post(e.srv.URL+"/api/auth/login", "application/json",
		strings.NewReader(fmt.Sprintf(`{"email":%q,"password":%q}`, email, password)))
	if err != nil {
		return err
	}
	var out struct {
		AccessToken string `json:"accessToken"`
	}
	err = json.NewDecoder(resp.Body).Decode(&out)
	resp.Body.Close()
	if err != nil {
		return err
	}

	req, _ := http.NewRequest(http.MethodGet, e.srv.URL+"/api/user/me", nil)
	req.Header.Set("Authorization", "Bearer "+out.AccessToken)
	resp, err = e.srv.Client().Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	var me user.User
	if err := json.NewDecoder(resp.Body).Decode(&me); err != nil {
		return err
	}
	if me.Email != email {
		return errors.New("identity crossed: " + email + " resolved as " + me.Email)
	}
	return nil
}
