package reservation_api_config

import (
	"net/netip"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/NordCoder/Chateaux/internal/auth"
	pg "github.com/NordCoder/Chateaux/internal/repository/postgres"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "MDEyMzQ1Njc4OWFiY2RlZjAxMjM0NTY3ODlhYmNkZWY="

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_FileAndDefaults(t *testing.T) {
	path := writeConfig(t, `
auth:
  jwt_secret: "`+testSecret+`"
  jwt_expiration_ms: 3600000
kafka:
  brokers: ["k1:9092", "k2:9092"]
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.HTTPAddr)
	assert.Equal(t, 15*time.Second, cfg.Server.GracefulTimeout)
	assert.Equal(t, 2*time.Second, cfg.DB.QueryTimeout)
	assert.Equal(t, "USER", cfg.Auth.DefaultRole)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.CORS.AllowedOrigins)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)

	cc := cfg.AuthCodecConfig()
	assert.Equal(t, testSecret, cc.Secret)
	assert.Equal(t, time.Hour, cc.Expiration)
}

func TestLoad_EnvOverride(t *testing.T) {
	path := writeConfig(t, "auth:\n  jwt_secret: \""+testSecret+"\"\n")
	t.Setenv("AUTH_JWT_EXPIRATION_MS", "120000")
	t.Setenv("SERVER_HTTP_ADDR", ":9999")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9999", cfg.Server.HTTPAddr)
	assert.Equal(t, 2*time.Minute, cfg.Auth.Expiration())
}

func TestLoad_MissingSecretIsConfigError(t *testing.T) {
	path := writeConfig(t, "app:\n  name: reservation-api\n")

	_, err := Load(path)
	require.Error(t, err)
	assert.ErrorIs(t, err, auth.ErrConfiguration)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			DB:   pg.Config{DSN: "postgres://x"},
			Auth: Auth{JWTSecret: testSecret, JWTExpirationMS: 60_000, DefaultRole: "USER"},
		}
	}

	tests := []struct {
		name   string
		mutate func(c *Config)
		field  string
	}{
		{name: "short secret", mutate: func(c *Config) { c.Auth.JWTSecret = "c2hvcnQtc2VjcmV0" }, field: "jwt_secret"},
		{name: "zero expiration", mutate: func(c *Config) { c.Auth.JWTExpirationMS = 0 }, field: "jwt_expiration"},
		{name: "sub-second expiration", mutate: func(c *Config) { c.Auth.JWTExpirationMS = 1500 }, field: "jwt_expiration"},
		{name: "overflowing expiration", mutate: func(c *Config) { c.Auth.JWTExpirationMS = 9223372036855776 }, field: "jwt_expiration"},
		{name: "blank default role", mutate: func(c *Config) { c.Auth.DefaultRole = "  " }, field: "default_role"},
	}

	require.NoError(t, valid().Validate())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			err := c.Validate()
			var ce *auth.ConfigError
			require.ErrorAs(t, err, &ce)
			assert.Equal(t, tt.field, ce.Field)
		})
	}

	t.Run("kafka without topic", func(t *testing.T) {
		c := valid()
		c.Kafka = Kafka{Enable: true, Brokers: []string{"k:9092"}}
		assert.Error(t, c.Validate())
	})

	t.Run("bad trusted proxy", func(t *testing.T) {
		c := valid()
		c.Auth.TrustedProxies = []string{"10.0.0.0/33"}
		assert.Error(t, c.Validate())
	})

	t.Run("outbox without workers", func(t *testing.T) {
		c := valid()
		c.Kafka = Kafka{Enable: true, Brokers: []string{"k:9092"}, Topic: "t",
			Outbox: Outbox{Enable: true, BatchSize: 10, PollInterval: time.Second}}
		assert.Error(t, c.Validate())
	})
}

func TestRead_OutboxDefaults(t *testing.T) {
	cfg, err := Read("")
	require.NoError(t, err)
	assert.False(t, cfg.Kafka.Outbox.Enable)
	assert.Equal(t, 2, cfg.Kafka.Outbox.Workers)
	assert.Equal(t, 100, cfg.Kafka.Outbox.BatchSize)
	assert.Equal(t, 2*time.Second, cfg.Kafka.Outbox.PollInterval)
	assert.Equal(t, 30*time.Second, cfg.Kafka.Outbox.InProgressTTL)
}

func TestRead_SkipsValidation(t *testing.T) {
	path := writeConfig(t, "kafka:\n  topic: custom.topic\n")

	cfg, err := Read(path)
	require.NoError(t, err)
	assert.Equal(t, "custom.topic", cfg.Kafka.Topic)
	assert.Empty(t, cfg.Auth.JWTSecret)
}

func TestAuth_ExpirationOverflow(t *testing.T) {
	assert.Equal(t, 24*time.Hour, Auth{JWTExpirationMS: 86_400_000}.Expiration())
	assert.Zero(t, Auth{JWTExpirationMS: 9223372036855776}.Expiration())
	assert.Zero(t, Auth{JWTExpirationMS: -9223372036855776}.Expiration())
}

func TestAuth_TrustedProxyPrefixes(t *testing.T) {
	got, err := Auth{TrustedProxies: []string{"10.1.2.3/16", " 192.0.2.9 ", "::ffff:198.51.100.4", "2001:db8::/32"}}.TrustedProxyPrefixes()
	require.NoError(t, err)
	assert.Equal(t, []netip.Prefix{
		netip.MustParsePrefix("10.1.0.0/16"),
		netip.MustParsePrefix("192.0.2.9/32"),
		netip.MustParsePrefix("198.51.100.4/32"),
		netip.MustParsePrefix("2001:db8::/32"),
	}, got)

	_, err = Auth{TrustedProxies: []string{"proxy.local"}}.TrustedProxyPrefixes()
	assert.Error(t, err)
}

func TestRead_TrustedProxiesFromFile(t *testing.T) {
	path := writeConfig(t, "auth:\n  trusted_proxies:\n    - 10.0.0.0/8\n")
	cfg, err := Read(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"10.0.0.0/8"}, cfg.Auth.TrustedProxies)
}
