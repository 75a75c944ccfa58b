package auth

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// MinSecretBytes is the smallest HS256 key accepted.
const MinSecretBytes = 32

type CodecConfig struct {
	// Secret is the base64-encoded HMAC key.
	Secret string
	// Expiration is the validity window of every issued token.
	Expiration time.Duration
	Now        func() time.Time
}

// Codec issues and verifies HS256 access tokens. It is immutable after
// construction and safe for concurrent use.
type Codec struct {
	key    []byte
	ttl    time.Duration
	now    func() time.Time
	parser *jwt.Parser
}

func NewCodec(cfg CodecConfig) (*Codec, error) {
	key, err := DecodeSecret(cfg.Secret)
	if err != nil {
		return nil, err
	}
	if err := ValidateExpiration(cfg.Expiration); err != nil {
		return nil, err
	}
	now := cfg.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &Codec{
		key: key,
		ttl: cfg.Expiration,
		now: now,
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithExpirationRequired(),
			jwt.WithTimeFunc(now),
		),
	}, nil
}

// DecodeSecret turns the configured base64 secret into an HMAC key.
func DecodeSecret(secret string) ([]byte, error) {
	secret = strings.TrimSpace(secret)
	if secret == "" {
		return nil, configErr("jwt_secret", "secret is empty")
	}
	key, err := base64.StdEncoding.DecodeString(secret)
	if err != nil {
		if key, err = base64.RawStdEncoding.DecodeString(secret); err != nil {
			return nil, configErr("jwt_secret", "secret is not valid base64: %v", err)
		}
	}
	if len(key) < MinSecretBytes {
		return nil, configErr("jwt_secret", "secret decodes to %d bytes, need at least %d", len(key), MinSecretBytes)
	}
	return key, nil
}

// ValidateExpiration rejects non-positive windows and windows with a
// sub-second part, which NumericDate cannot carry.
func ValidateExpiration(d time.Duration) error {
	if d <= 0 {
		return configErr("jwt_expiration", "must be positive, got %s", d)
	}
	if d%time.Second != 0 {
		return configErr("jwt_expiration", "must be a whole number of seconds, got %s", d)
	}
	return nil
}

// Issue signs a new token for subject, valid from now for the configured window.
func (c *Codec) Issue(subject string, extra map[string]any) (string, error) {
	if c == nil || len(c.key) == 0 {
		return "", configErr("jwt_secret", "codec has no signing key")
	}
	if strings.TrimSpace(subject) == "" {
		return "", errors.New("subject is required")
	}
	ext, err := copyExtra(extra)
	if err != nil {
		return "", err
	}

	now := c.now().UTC().Truncate(time.Second)
	claims := &accessClaims{
		Extra: ext,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.ttl)),
			ID:        uuid.NewString(),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.key)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Decode verifies the signature and the validity window. Any failure other
// than expiry is reported as ErrInvalidToken.
func (c *Codec) Decode(token string) (*IdentityClaim, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrInvalidToken
	}

	parsed, err := c.parser.ParseWithClaims(token, &accessClaims{}, func(*jwt.Token) (any, error) {
		return c.key, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := parsed.Claims.(*accessClaims)
	if !ok || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Subject == "" || claims.IssuedAt == nil {
		return nil, fmt.Errorf("%w: subject or issued-at missing", ErrInvalidToken)
	}
	return claims.toIdentity(), nil
}

func (c *Codec) ExtractSubject(token string) (string, error) {
	claim, err := c.Decode(token)
	if err != nil {
		return "", err
	}
	return claim.Subject, nil
}

// IsValid reports whether token decodes, belongs to expectedSubject and is
// not expired. It never returns an error.
func (c *Codec) IsValid(token, expectedSubject string) bool {
	claim, err := c.Decode(token)
	if err != nil {
		return false
	}
	return claim.Subject == expectedSubject && c.now().Before(claim.Expiration)
}

func copyExtra(extra map[string]any) (map[string]any, error) {
	if len(extra) == 0 {
		return nil, nil
	}
	out := make(map[string]any, len(extra))
	for k, v := range extra {
		switch v.(type) {
		case nil, string, bool, int, int32, int64, uint, uint32, uint64, float32, float64:
			out[k] = v
		default:
			return nil, fmt.Errorf("extra claim %q: unsupported type %T", k, v)
		}
	}
	return out, nil
}
