package app

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/magicontap/tapdash/pkg/httpx"
)

// BaseConfig is what every command needs, including the ones that only
// touch the database.
type BaseConfig struct {
	DatabaseFile string `env:"DATABASE_FILE" envDefault:"invites.db"`
	Env          string `env:"ENV"           envDefault:"dev"`
	LogLevel     string `env:"LOG_LEVEL"     envDefault:"info"`
	LogFormat    string `env:"LOG_FORMAT"    envDefault:"json"`

	HousekeepingInterval time.Duration `env:"HOUSEKEEPING_INTERVAL" envDefault:"1h"`
}

type Config struct {
	BaseConfig

	SupabaseURL     string        `env:"SUPABASE_URL,required,notEmpty"`
	ServiceRoleKey  string        `env:"SUPABASE_SERVICE_ROLE_KEY,required,notEmpty"`
	SupabaseTimeout time.Duration `env:"SUPABASE_TIMEOUT" envDefault:"10s"`

	// Tokens are verified against the project JWKS. Set the secret as well
	// for projects still signing with the legacy HS256 secret.
	JWTSecret   string        `env:"SUPABASE_JWT_SECRET"`
	JWTIssuer   string        `env:"SUPABASE_JWT_ISSUER"`
	JWTAudience []string      `env:"SUPABASE_JWT_AUDIENCE" envDefault:"authenticated" envSeparator:","`
	JWKSRefresh time.Duration `env:"JWKS_REFRESH"          envDefault:"15m"`

	DefaultRedirectURL string        `env:"INVITE_DEFAULT_REDIRECT_URL" envDefault:"https://tap-magic-dashboard.lovable.app/signin"`
	InviteTTL          time.Duration `env:"INVITE_TTL"                  envDefault:"168h"`
	InviteSender       string        `env:"INVITE_SENDER"               envDefault:"supabase"` // supabase or log

	AllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envDefault:"https://tap-magic-dashboard.lovable.app" envSeparator:","`

	Port                int           `env:"PORT"                  envDefault:"8080"`
	ShutdownGracePeriod time.Duration `env:"SHUTDOWN_GRACE_PERIOD" envDefault:"10s"`

	OutboxInterval    time.Duration `env:"OUTBOX_INTERVAL"     envDefault:"30s"`
	OutboxLease       time.Duration `env:"OUTBOX_LEASE"        envDefault:"2m"`
	OutboxBatchSize   int           `env:"OUTBOX_BATCH_SIZE"   envDefault:"20"`
	OutboxMaxAttempts int           `env:"OUTBOX_MAX_ATTEMPTS" envDefault:"8"`

	IssueLimit httpx.RateLimitConfig `envPrefix:"RATELIMIT_ISSUE_"`
	ReadLimit  httpx.RateLimitConfig `envPrefix:"RATELIMIT_READ_"`
}

var (
	defaultIssueLimit = httpx.RateLimitConfig{Requests: 20, Window: time.Minute, Burst: 5}
	defaultReadLimit  = httpx.RateLimitConfig{Requests: 120, Window: time.Minute, Burst: 30}
)

// JWKSURL is where the project publishes its signing keys.
func (c Config) JWKSURL() string {
	return c.SupabaseURL + "/auth/v1/.well-known/jwks.json"
}

// LoadConfig reads the service configuration from the environment.
func LoadConfig() (Config, error) {
	return parseConfig(env.Options{})
}

// LoadConfigFrom is LoadConfig over a fixed set of variables.
func LoadConfigFrom(vars map[string]string) (Config, error) {
	return parseConfig(env.Options{Environment: vars})
}

// LoadBaseConfig reads only the settings the maintenance commands use.
func LoadBaseConfig() (BaseConfig, error) {
	var cfg BaseConfig
	if err := env.Parse(&cfg); err != nil {
		return BaseConfig{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

func parseConfig(opts env.Options) (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	cfg.SupabaseURL = strings.TrimRight(strings.TrimSpace(cfg.SupabaseURL), "/")
	if u, err := url.Parse(cfg.SupabaseURL); err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return Config{}, fmt.Errorf("SUPABASE_URL must be an absolute http(s) URL, got %q", cfg.SupabaseURL)
	}
	if cfg.JWTIssuer == "" {
		cfg.JWTIssuer = cfg.SupabaseURL + "/auth/v1"
	}

	switch cfg.InviteSender {
	case "supabase", "log":
	default:
		return Config{}, fmt.Errorf("INVITE_SENDER must be supabase or log, got %q", cfg.InviteSender)
	}

	if cfg.InviteTTL <= 0 {
		return Config{}, errors.New("INVITE_TTL must be positive")
	}

	if cfg.IssueLimit == (httpx.RateLimitConfig{}) {
		cfg.IssueLimit = defaultIssueLimit
	}
	if cfg.ReadLimit == (httpx.RateLimitConfig{}) {
		cfg.ReadLimit = defaultReadLimit
	}

	return cfg, nil
}
