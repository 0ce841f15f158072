package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = ""

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvDBDSN  = "HAUNTWORKS_DB_DSN"
	EnvDBHost = "HAUNTWORKS_DB_HOST"
	EnvDBUser = "HAUNTWORKS_DB_USER"
	EnvDBName = "HAUNTWORKS_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Audit        AuditConfig
	FeatureFlags FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"HAUNTWORKS_APP_ENV" required:"true"`
	Port         string `envconfig:"HAUNTWORKS_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"HAUNTWORKS_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"HAUNTWORKS_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"HAUNTWORKS_DB_DSN"`
	Driver string `envconfig:"HAUNTWORKS_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"HAUNTWORKS_DB_HOST"`
	LegacyPort     int    `envconfig:"HAUNTWORKS_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"HAUNTWORKS_DB_USER"`
	LegacyPassword string `envconfig:"HAUNTWORKS_DB_PASSWORD"`
	LegacyName     string `envconfig:"HAUNTWORKS_DB_NAME"`
	LegacySSLMode  string `envconfig:"HAUNTWORKS_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"HAUNTWORKS_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"HAUNTWORKS_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"HAUNTWORKS_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"HAUNTWORKS_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"HAUNTWORKS_REDIS_URL" required:"true"`
	Address      string        `envconfig:"HAUNTWORKS_REDIS_ADDR"`
	Password     string        `envconfig:"HAUNTWORKS_REDIS_PASSWORD"`
	DB           int           `envconfig:"HAUNTWORKS_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"HAUNTWORKS_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"HAUNTWORKS_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"HAUNTWORKS_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"HAUNTWORKS_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"HAUNTWORKS_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret string `envconfig:"HAUNTWORKS_JWT_SECRET" required:"true"`
	Issuer string `envconfig:"HAUNTWORKS_JWT_ISSUER" required:"true"`
}

type AuditConfig struct {
	Stream    string `envconfig:"HAUNTWORKS_AUDIT_STREAM" default:"hw:audit:inventory"`
	MaxStream int64  `envconfig:"HAUNTWORKS_AUDIT_STREAM_MAXLEN" default:"100000"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"HAUNTWORKS_AUTO_MIGRATE" default:"false"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
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
