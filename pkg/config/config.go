package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	FeatureFlags FeatureFlagsConfig
	Groups       GroupsConfig
	CORS         CORSConfig
	RateLimit    RateLimitConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if err := cfg.Groups.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"IMPORTGROUPS_APP_ENV" required:"true"`
	Port         string `envconfig:"IMPORTGROUPS_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"IMPORTGROUPS_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"IMPORTGROUPS_LOG_WARN_STACK" default:"false"`
	LogFormat    string `envconfig:"IMPORTGROUPS_LOG_FORMAT"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	Driver string `envconfig:"IMPORTGROUPS_DB_DRIVER" default:"sqlite"`
	DSN    string `envconfig:"IMPORTGROUPS_DB_DSN"`

	LegacyHost     string `envconfig:"IMPORTGROUPS_DB_HOST"`
	LegacyPort     int    `envconfig:"IMPORTGROUPS_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"IMPORTGROUPS_DB_USER"`
	LegacyPassword string `envconfig:"IMPORTGROUPS_DB_PASSWORD"`
	LegacyName     string `envconfig:"IMPORTGROUPS_DB_NAME"`
	LegacySSLMode  string `envconfig:"IMPORTGROUPS_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"IMPORTGROUPS_DB_MAX_OPEN_CONNS" default:"10"`
	MaxIdleConns    int           `envconfig:"IMPORTGROUPS_DB_MAX_IDLE_CONNS" default:"5"`
	ConnMaxLifetime time.Duration `envconfig:"IMPORTGROUPS_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"IMPORTGROUPS_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

// IsSQLite reports whether the archive store runs on the embedded driver.
func (db DBConfig) IsSQLite() bool {
	return strings.EqualFold(strings.TrimSpace(db.Driver), DriverSQLite)
}

type RedisConfig struct {
	URL          string        `envconfig:"IMPORTGROUPS_REDIS_URL"`
	Address      string        `envconfig:"IMPORTGROUPS_REDIS_ADDR"`
	Password     string        `envconfig:"IMPORTGROUPS_REDIS_PASSWORD"`
	DB           int           `envconfig:"IMPORTGROUPS_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"IMPORTGROUPS_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"IMPORTGROUPS_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"IMPORTGROUPS_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"IMPORTGROUPS_REDIS_READ_TIMEOUT" default:"3s"`
	WriteTimeout time.Duration `envconfig:"IMPORTGROUPS_REDIS_WRITE_TIMEOUT" default:"3s"`
}

// Enabled reports whether a Redis endpoint was configured.
func (r RedisConfig) Enabled() bool {
	return strings.TrimSpace(r.URL) != "" || strings.TrimSpace(r.Address) != ""
}

type JWTConfig struct {
	Secret            string `envconfig:"IMPORTGROUPS_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"IMPORTGROUPS_JWT_ISSUER" default:"importgroups"`
	ExpirationMinutes int    `envconfig:"IMPORTGROUPS_JWT_EXPIRATION_MINUTES" default:"60"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"IMPORTGROUPS_AUTO_MIGRATE" default:"false"`
	DemoMode    bool `envconfig:"IMPORTGROUPS_DEMO_MODE" default:"true"`
	Archive     bool `envconfig:"IMPORTGROUPS_ARCHIVE_ENABLED" default:"true"`
	// SharedDemoLock makes replicas behind one Redis take turns ticking.
	SharedDemoLock bool `envconfig:"IMPORTGROUPS_SHARED_DEMO_LOCK" default:"false"`
}

// GroupsConfig carries the engine tunables.
type GroupsConfig struct {
	TickInterval        time.Duration `envconfig:"IMPORTGROUPS_GROUPS_TICK_INTERVAL" default:"3s"`
	RetireDelay         time.Duration `envconfig:"IMPORTGROUPS_GROUPS_RETIRE_DELAY" default:"3s"`
	MaxDemoGroups       int           `envconfig:"IMPORTGROUPS_GROUPS_MAX_DEMO" default:"5"`
	CreateProbability   float64       `envconfig:"IMPORTGROUPS_GROUPS_CREATE_PROBABILITY" default:"0.3"`
	MaxInitialOccupants int           `envconfig:"IMPORTGROUPS_GROUPS_MAX_INITIAL_OCCUPANTS" default:"3"`
	Seed                uint64        `envconfig:"IMPORTGROUPS_GROUPS_SEED" default:"0"`
	CatalogFile         string        `envconfig:"IMPORTGROUPS_GROUPS_CATALOG_FILE"`
	EventChannel        string        `envconfig:"IMPORTGROUPS_GROUPS_EVENT_CHANNEL" default:"import-groups.events"`
	DemoLockKey         string        `envconfig:"IMPORTGROUPS_GROUPS_DEMO_LOCK_KEY" default:"demo-tick"`
	DemoLockTTL         time.Duration `envconfig:"IMPORTGROUPS_GROUPS_DEMO_LOCK_TTL" default:"10s"`
	ArchiveRetention    time.Duration `envconfig:"IMPORTGROUPS_GROUPS_ARCHIVE_RETENTION" default:"720h"`
	MaintenanceInterval time.Duration `envconfig:"IMPORTGROUPS_GROUPS_MAINTENANCE_INTERVAL" default:"1h"`
}

func (g GroupsConfig) validate() error {
	if g.TickInterval <= 0 {
		return fmt.Errorf("%s must be positive", EnvTickEvery)
	}
	if g.RetireDelay <= 0 {
		return fmt.Errorf("%s must be positive", EnvRetireAfter)
	}
	if g.MaxDemoGroups <= 0 {
		return fmt.Errorf("%s must be positive", EnvMaxDemo)
	}
	if g.CreateProbability < 0 || g.CreateProbability > 1 {
		return fmt.Errorf("%s must be within [0,1]", EnvCreateProb)
	}
	if g.MaxInitialOccupants < 0 {
		return fmt.Errorf("initial occupants must not be negative")
	}
	if g.ArchiveRetention < 0 {
		return fmt.Errorf("archive retention must not be negative")
	}
	return nil
}

// RateLimitConfig throttles the demo and dev-token endpoints per client IP.
// A zero limit disables that policy.
type RateLimitConfig struct {
	Window     time.Duration `envconfig:"IMPORTGROUPS_RATE_LIMIT_WINDOW" default:"1m"`
	DemoLimit  int           `envconfig:"IMPORTGROUPS_RATE_LIMIT_DEMO" default:"120"`
	TokenLimit int           `envconfig:"IMPORTGROUPS_RATE_LIMIT_TOKEN" default:"20"`
}

type CORSConfig struct {
	AllowedOrigins []string `envconfig:"IMPORTGROUPS_CORS_ALLOWED_ORIGINS" default:"http://localhost:5000,http://localhost:3000"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}
	if db.IsSQLite() {
		db.DSN = "file:importgroups.db?cache=shared&_fk=1"
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
