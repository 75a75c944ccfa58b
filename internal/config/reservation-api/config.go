package reservation_api_config

import (
	"errors"
	"fmt"
	"math"
	"net/netip"
	"strings"
	"time"

	"github.com/NordCoder/Chateaux/internal/auth"
	"github.com/NordCoder/Chateaux/internal/obs"
	pg "github.com/NordCoder/Chateaux/internal/repository/postgres"
)

type App struct {
	Name    string `mapstructure:"name"`
	Env     string `mapstructure:"env"`
	Version string `mapstructure:"version"`
}

type Server struct {
	HTTPAddr        string        `mapstructure:"http_addr"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	GracefulTimeout time.Duration `mapstructure:"graceful_timeout"`
}

type OTEL struct {
	Enable       bool    `mapstructure:"enable"`
	OTLPEndpoint string  `mapstructure:"otlp_endpoint"`
	ServiceName  string  `mapstructure:"service_name"`
	SampleRatio  float64 `mapstructure:"sample_ratio"`
}

func (oc OTEL) AsOTELConfig() obs.OTELConfig {
	return obs.OTELConfig{
		Enable:      oc.Enable,
		Endpoint:    oc.OTLPEndpoint,
		ServiceName: oc.ServiceName,
		SampleRatio: oc.SampleRatio,
	}
}

type Log struct {
	Level  string `mapstructure:"level"`
	Pretty bool   `mapstructure:"pretty"`
}

type Auth struct {
	JWTSecret       string  `mapstructure:"jwt_secret"`
	JWTExpirationMS int64   `mapstructure:"jwt_expiration_ms"`
	BcryptCost      int     `mapstructure:"bcrypt_cost"`
	DefaultRole     string  `mapstructure:"default_role"`
	LoginRatePerSec float64 `mapstructure:"login_rate_per_sec"`
	LoginBurst      int     `mapstructure:"login_burst"`
	// TrustedProxies lists peers (IPs or CIDRs) whose X-Forwarded-For is
	// believed when keying the login rate limit.
	TrustedProxies []string `mapstructure:"trusted_proxies"`
}

const maxExpirationMS = math.MaxInt64 / int64(time.Millisecond)

// Expiration is the token validity window. Values that do not fit a
// time.Duration come back as 0 so validation rejects them.
func (a Auth) Expiration() time.Duration {
	if a.JWTExpirationMS > maxExpirationMS || a.JWTExpirationMS < -maxExpirationMS {
		return 0
	}
	return time.Duration(a.JWTExpirationMS) * time.Millisecond
}

// TrustedProxyPrefixes parses TrustedProxies. A bare address is a single-host prefix.
func (a Auth) TrustedProxyPrefixes() ([]netip.Prefix, error) {
	out := make([]netip.Prefix, 0, len(a.TrustedProxies))
	for _, raw := range a.TrustedProxies {
		raw = strings.TrimSpace(raw)
		if strings.Contains(raw, "/") {
			p, err := netip.ParsePrefix(raw)
			if err != nil {
				return nil, fmt.Errorf("config: auth.trusted_proxies %q: %w", raw, err)
			}
			out = append(out, p.Masked())
			continue
		}
		addr, err := netip.ParseAddr(raw)
		if err != nil {
			return nil, fmt.Errorf("config: auth.trusted_proxies %q: %w", raw, err)
		}
		addr = addr.Unmap()
		out = append(out, netip.PrefixFrom(addr, addr.BitLen()))
	}
	return out, nil
}

type CORS struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type Outbox struct {
	Enable        bool          `mapstructure:"enable"`
	Workers       int           `mapstructure:"workers"`
	BatchSize     int           `mapstructure:"batch_size"`
	PollInterval  time.Duration `mapstructure:"poll_interval"`
	InProgressTTL time.Duration `mapstructure:"in_progress_ttl"`
}

type Kafka struct {
	Enable  bool     `mapstructure:"enable"`
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
	Outbox  Outbox   `mapstructure:"outbox"`
}

type Config struct {
	App    App       `mapstructure:"app"`
	Server Server    `mapstructure:"server"`
	DB     pg.Config `mapstructure:"db"`
	OTEL   OTEL      `mapstructure:"otel"`
	Log    Log       `mapstructure:"log"`
	Auth   Auth      `mapstructure:"auth"`
	CORS   CORS      `mapstructure:"cors"`
	Kafka  Kafka     `mapstructure:"kafka"`
}

func (c *Config) AsLoggerConfig() obs.LogConfig {
	return obs.LogConfig{
		Level:  c.Log.Level,
		Pretty: c.Log.Pretty,
		App:    c.App.Name,
		Env:    c.App.Env,
		Ver:    c.App.Version,
	}
}

// AuthCodecConfig is built once at startup and handed to the token codec.
func (c *Config) AuthCodecConfig() auth.CodecConfig {
	return auth.CodecConfig{
		Secret:     c.Auth.JWTSecret,
		Expiration: c.Auth.Expiration(),
	}
}

// Validate fails fast on settings the process cannot start without. Auth
// problems come back as *auth.ConfigError.
func (c *Config) Validate() error {
	if c.DB.DSN == "" {
		return errors.New("config: db.dsn is required")
	}
	if _, err := auth.DecodeSecret(c.Auth.JWTSecret); err != nil {
		return err
	}
	if ms := c.Auth.JWTExpirationMS; ms > maxExpirationMS {
		return &auth.ConfigError{Field: "jwt_expiration", Err: fmt.Errorf("%d ms overflows a duration", ms)}
	}
	if err := auth.ValidateExpiration(c.Auth.Expiration()); err != nil {
		return err
	}
	if strings.TrimSpace(c.Auth.DefaultRole) == "" {
		return &auth.ConfigError{Field: "default_role", Err: errors.New("must not be blank")}
	}
	if _, err := c.Auth.TrustedProxyPrefixes(); err != nil {
		return err
	}
	if c.Kafka.Enable && (len(c.Kafka.Brokers) == 0 || c.Kafka.Topic == "") {
		return fmt.Errorf("config: kafka enabled but brokers=%v topic=%q", c.Kafka.Brokers, c.Kafka.Topic)
	}
	if o := c.Kafka.Outbox; c.Kafka.Enable && o.Enable && (o.Workers <= 0 || o.BatchSize <= 0 || o.PollInterval <= 0) {
		return fmt.Errorf("config: kafka.outbox needs positive workers, batch_size and poll_interval")
	}
	return nil
}
