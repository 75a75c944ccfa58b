package auth

import (
	"encoding/base64"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testSecret  = "MDEyMzQ1Njc4OWFiY2RlZjAxMjM0NTY3ODlhYmNkZWY="
	otherSecret = "ZmVkY2JhOTg3NjU0MzIxMGZlZGNiYTk4NzY1NDMyMTA="
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestCodec(t *testing.T, secret string, ttl time.Duration, clk *fakeClock) *Codec {
	t.Helper()
	c, err := NewCodec(CodecConfig{Secret: secret, Expiration: ttl, Now: clk.Now})
	require.NoError(t, err)
	return c
}

func TestCodec_RoundTrip(t *testing.T) {
	for _, ttl := range []time.Duration{time.Second, 15 * time.Minute, 24 * time.Hour} {
		clk := newFakeClock()
		c := newTestCodec(t, testSecret, ttl, clk)

		token, err := c.Issue("a@x.com", nil)
		require.NoError(t, err)
		assert.Len(t, strings.Split(token, "."), 3)

		claim, err := c.Decode(token)
		require.NoError(t, err)
		assert.Equal(t, "a@x.com", claim.Subject)
		assert.Equal(t, ttl, claim.Expiration.Sub(claim.IssuedAt))
		assert.True(t, claim.IssuedAt.Equal(clk.Now()))
		assert.NotEmpty(t, claim.ID)
	}
}

func TestCodec_ExtraClaims(t *testing.T) {
	c := newTestCodec(t, testSecret, time.Hour, newFakeClock())

	token, err := c.Issue("a@x.com", map[string]any{"tenant": "north", "beta": true})
	require.NoError(t, err)

	claim, err := c.Decode(token)
	require.NoError(t, err)
	assert.Equal(t, "north", claim.Extra["tenant"])
	assert.Equal(t, true, claim.Extra["beta"])

	_, err = c.Issue("a@x.com", map[string]any{"nested": map[string]string{"k": "v"}})
	assert.Error(t, err)
}

func TestCodec_IssueRequiresSubject(t *testing.T) {
	c := newTestCodec(t, testSecret, time.Hour, newFakeClock())
	_, err := c.Issue("  ", nil)
	assert.Error(t, err)
}

func TestCodec_ZeroValueIsConfigError(t *testing.T) {
	var c Codec
	_, err := c.Issue("a@x.com", nil)
	assert.ErrorIs(t, err, ErrConfiguration)
}

func TestCodec_Expiry(t *testing.T) {
	clk := newFakeClock()
	c := newTestCodec(t, testSecret, time.Minute, clk)

	token, err := c.Issue("a@x.com", nil)
	require.NoError(t, err)

	clk.Advance(time.Minute - time.Second)
	_, err = c.Decode(token)
	require.NoError(t, err)
	assert.True(t, c.IsValid(token, "a@x.com"))

	clk.Advance(time.Second)
	_, err = c.Decode(token)
	assert.ErrorIs(t, err, ErrExpiredToken)
	assert.False(t, c.IsValid(token, "a@x.com"))

	clk.Advance(time.Hour)
	_, err = c.ExtractSubject(token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestCodec_ForeignSecret(t *testing.T) {
	clk := newFakeClock()
	mine := newTestCodec(t, testSecret, time.Hour, clk)
	theirs := newTestCodec(t, otherSecret, time.Hour, clk)

	token, err := theirs.Issue("a@x.com", nil)
	require.NoError(t, err)

	_, err = mine.Decode(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
	assert.False(t, errors.Is(err, ErrExpiredToken))
	assert.False(t, mine.IsValid(token, "a@x.com"))
}

func TestCodec_Malformed(t *testing.T) {
	c := newTestCodec(t, testSecret, time.Hour, newFakeClock())

	for _, tok := range []string{"", "garbage", "a.b.c", "a.b", "....."} {
		_, err := c.Decode(tok)
		assert.ErrorIs(t, err, ErrInvalidToken, "token %q", tok)
		assert.False(t, c.IsValid(tok, "a@x.com"))
	}
}

func TestCodec_TamperedPayload(t *testing.T) {
	c := newTestCodec(t, testSecret, time.Hour, newFakeClock())

	token, err := c.Issue("a@x.com", nil)
	require.NoError(t, err)

	parts := strings.Split(token, ".")
	forged := base64.RawURLEncoding.EncodeToString([]byte(`{"sub":"admin@x.com","iat":1741944413,"exp":4102444800}`))
	_, err = c.Decode(parts[0] + "." + forged + "." + parts[2])
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestCodec_RejectsNoneAlgorithm(t *testing.T) {
	clk := newFakeClock()
	c := newTestCodec(t, testSecret, time.Hour, clk)

	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{
		Subject:   "a@x.com",
		IssuedAt:  jwt.NewNumericDate(clk.Now()),
		ExpiresAt: jwt.NewNumericDate(clk.Now().Add(time.Hour)),
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = c.Decode(unsigned)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestCodec_IsValidSubjectMismatch(t *testing.T) {
	c := newTestCodec(t, testSecret, time.Hour, newFakeClock())

	token, err := c.Issue("a@x.com", nil)
	require.NoError(t, err)

	assert.True(t, c.IsValid(token, "a@x.com"))
	assert.False(t, c.IsValid(token, "A@x.com"))
	assert.False(t, c.IsValid(token, "b@x.com"))
	assert.False(t, c.IsValid(token, ""))
}

func TestNewCodec_ConfigErrors(t *testing.T) {
	cases := []struct {
		name   string
		secret string
		ttl    time.Duration
		field  string
	}{
		{"empty secret", "", time.Hour, "jwt_secret"},
		{"not base64", "not base64!!", time.Hour, "jwt_secret"},
		{"short key", "c2hvcnQtc2VjcmV0", time.Hour, "jwt_secret"},
		{"zero ttl", testSecret, 0, "jwt_expiration"},
		{"negative ttl", testSecret, -time.Minute, "jwt_expiration"},
		{"sub-second ttl", testSecret, 1500 * time.Millisecond, "jwt_expiration"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewCodec(CodecConfig{Secret: tc.secret, Expiration: tc.ttl})
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrConfiguration)

			var cfgErr *ConfigError
			require.ErrorAs(t, err, &cfgErr)
			assert.Equal(t, tc.field, cfgErr.Field)
		})
	}
}

func TestDecodeSecret_UnpaddedBase64(t *testing.T) {
	key, err := DecodeSecret(strings.TrimRight(testSecret, "="))
	require.NoError(t, err)
	assert.Len(t, key, 32)
}
