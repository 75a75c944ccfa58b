package auth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/NordCoder/Chateaux/internal/services/reservation-api/httpx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLoginMux(t *testing.T, limit httpx.Stage) *http.ServeMux {
	t.Helper()
	users := newMemUsers(mustUser(t, "a@x.com", "secret1", "USER"))
	a := newAuthenticator(t, users, hasher, newCodec(t, newClock(), time.Hour))
	mux := http.NewServeMux()
	NewServer(a, Opts{LoginLimit: limit}).Register(mux)
	return mux
}

func postLogin(mux http.Handler, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func TestServer_Login(t *testing.T) {
	mux := newLoginMux(t, nil)

	rec := postLogin(mux, `{"email":"a@x.com","password":"secret1"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var resp LoginResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 3, len(strings.Split(resp.AccessToken, ".")))
}

func TestServer_LoginFailures(t *testing.T) {
	mux := newLoginMux(t, nil)

	tests := []struct {
		name   string
		body   string
		status int
		field  string
	}{
		{name: "wrong password", body: `{"email":"a@x.com","password":"nope"}`, status: http.StatusUnauthorized},
		{name: "unknown email", body: `{"email":"z@x.com","password":"secret1"}`, status: http.StatusUnauthorized},
		{name: "missing email", body: `{"password":"secret1"}`, status: http.StatusBadRequest, field: "email"},
		{name: "bad email", body: `{"email":"nope","password":"secret1"}`, status: http.StatusBadRequest, field: "email"},
		{name: "missing password", body: `{"email":"a@x.com"}`, status: http.StatusBadRequest, field: "password"},
		{name: "not json", body: `{`, status: http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := postLogin(mux, tt.body)
			require.Equal(t, tt.status, rec.Code)

			var body httpx.ErrorBody
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			if tt.field != "" {
				assert.Contains(t, body.ValidationErrors, tt.field)
			}
			if tt.status == http.StatusUnauthorized {
				assert.Equal(t, "invalid email or password", body.Message)
			}
		})
	}
}

func TestServer_LoginIsRateLimited(t *testing.T) {
	mux := newLoginMux(t, httpx.RateLimit(0.01, 1, nil))

	assert.Equal(t, http.StatusUnauthorized, postLogin(mux, `{"email":"a@x.com","password":"nope"}`).Code)
	assert.Equal(t, http.StatusTooManyRequests, postLogin(mux, `{"email":"a@x.com","password":"secret1"}`).Code)
}
