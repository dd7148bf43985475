package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Load reads the YAML file at configPath, applies BLOG_* environment
// overrides and validates the result. A missing file is an error unless
// allowMissing is set, in which case defaults plus environment are used.
func Load(configPath string, allowMissing bool) (*AppConfig, error) {
	path := strings.TrimSpace(configPath)
	if path == "" {
		path = DefaultConfigPath
	}

	raw := rawAppConfig{}
	content, err := os.ReadFile(path)
	switch {
	case err == nil:
		decoder := yaml.NewDecoder(bytes.NewReader(content))
		decoder.KnownFields(true)
		if err := decoder.Decode(&raw); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("parse config file %q: %w", path, err)
		}
	case allowMissing && errors.Is(err, os.ErrNotExist):
	default:
		return nil, fmt.Errorf("read config file %q: %w", path, err)
	}

	cfg := Default()
	if err := applyRawAppConfig(&cfg, raw); err != nil {
		return nil, fmt.Errorf("config %q: %w", path, err)
	}
	if err := applyEnv(&cfg, os.LookupEnv); err != nil {
		return nil, err
	}
	cfg.resolve()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %q: %w", path, err)
	}
	return &cfg, nil
}

// Default returns the configuration used when nothing is set.
func Default() AppConfig {
	cfg := AppConfig{
		Port: defaultPort,
		Env:  defaultEnv,
		Database: DatabaseRuntimeConfig{
			Driver:    defaultDBDriver,
			Host:      defaultDBHost,
			Port:      defaultDBPort,
			User:      defaultDBUser,
			Password:  defaultDBPassword,
			Name:      defaultDBName,
			Charset:   defaultDBCharset,
			ParseTime: true,
			Loc:       defaultDBLoc,
			File:      defaultSQLiteFile,
		},
		Redis: RedisRuntimeConfig{
			Host: defaultRedisHost,
			Port: defaultRedisPort,
			DB:   defaultRedisDB,
		},
		JWTExpiresIn: defaultJWTExpiresIn,
		RateLimit: RateLimitConfig{
			Max:    defaultRateLimitMax,
			Window: defaultRateLimitWindow,
		},
		Backup: BackupConfig{S3: S3Config{
			Region: defaultS3Region,
			Prefix: defaultS3Prefix,
		}},
	}
	cfg.resolve()
	return cfg
}

func (c *AppConfig) resolve() {
	c.Database = normalizeDatabaseConfig(c.Database)
	c.Redis = normalizeRedisConfig(c.Redis)
	c.DSN = c.Database.DSNValue()
	c.RedisURL = ""
	if c.Redis.Enable {
		c.RedisURL = c.Redis.URLValue()
	}
	c.Env = normalizeEnv(c.Env)
	c.AllowedOrigins = normalizeOrigins(c.AllowedOrigins)
	c.Paths = normalizeRuntimePaths(c.Paths)
	c.Backup.S3 = normalizeS3Config(c.Backup.S3)
}

// Validate reports the first invalid key.
func (c *AppConfig) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d, expected 1-65535", c.Port)
	}
	switch c.Database.Driver {
	case DriverMySQL:
		if c.Database.Port < 1 || c.Database.Port > 65535 {
			return fmt.Errorf("invalid database.port %d, expected 1-65535", c.Database.Port)
		}
	case DriverSQLite:
	default:
		return fmt.Errorf("invalid database.driver %q, expected %s or %s", c.Database.Driver, DriverMySQL, DriverSQLite)
	}
	if c.Redis.Enable {
		if c.Redis.Port < 1 || c.Redis.Port > 65535 {
			return fmt.Errorf("invalid redis.port %d, expected 1-65535", c.Redis.Port)
		}
		if c.Redis.DB < 0 {
			return fmt.Errorf("invalid redis.db %d, expected >= 0", c.Redis.DB)
		}
	}
	if c.IsProduction() && c.JWTSecret == "" {
		return errors.New("jwt_secret is required in production")
	}
	if c.JWTExpiresIn <= 0 {
		return fmt.Errorf("invalid jwt_expires_in %s, expected > 0", c.JWTExpiresIn)
	}
	if c.RateLimit.Max < 0 {
		return fmt.Errorf("invalid rate_limit.max %d, expected >= 0", c.RateLimit.Max)
	}
	if c.RateLimit.Window <= 0 {
		return fmt.Errorf("invalid rate_limit.window %s, expected > 0", c.RateLimit.Window)
	}
	if c.Admin.Email != "" && len(c.Admin.Password) < 6 {
		return errors.New("admin.password must be at least 6 characters")
	}
	return nil
}

func applyRawAppConfig(cfg *AppConfig, raw rawAppConfig) error {
	if raw.Port != 0 {
		cfg.Port = raw.Port
	}
	if v := strings.TrimSpace(raw.Env); v != "" {
		cfg.Env = v
	}
	cfg.Database = applyRawDatabaseConfig(cfg.Database, raw)
	cfg.Redis = applyRawRedisConfig(cfg.Redis, raw)
	if v := strings.TrimSpace(raw.Paths.Logs); v != "" {
		cfg.Paths.Logs = v
	}
	if v := strings.TrimSpace(raw.Paths.Backups); v != "" {
		cfg.Paths.Backups = v
	}
	if len(raw.AllowedOrigins) > 0 {
		cfg.AllowedOrigins = raw.AllowedOrigins
	}
	if v := strings.TrimSpace(raw.JWTSecret); v != "" {
		cfg.JWTSecret = v
	}
	if v := strings.TrimSpace(raw.JWTExpiresIn); v != "" {
		d, err := parseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid jwt_expires_in %q: %w", v, err)
		}
		cfg.JWTExpiresIn = d
	}
	if v := strings.TrimSpace(raw.Timezone); v != "" {
		cfg.Timezone = v
	}
	if raw.RateLimit.Max != 0 {
		cfg.RateLimit.Max = raw.RateLimit.Max
	}
	if v := strings.TrimSpace(raw.RateLimit.Window); v != "" {
		d, err := parseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid rate_limit.window %q: %w", v, err)
		}
		cfg.RateLimit.Window = d
	}
	cfg.Admin = AdminSeedConfig{
		Name:     strings.TrimSpace(raw.Admin.Name),
		Email:    strings.ToLower(strings.TrimSpace(raw.Admin.Email)),
		Password: raw.Admin.Password,
	}
	cfg.Backup.S3 = applyRawS3Config(cfg.Backup.S3, raw.Backup.S3)
	return nil
}

func applyRawDatabaseConfig(current DatabaseRuntimeConfig, raw rawAppConfig) DatabaseRuntimeConfig {
	db := raw.Database
	if v := strings.TrimSpace(db.Driver); v != "" {
		current.Driver = strings.ToLower(v)
	}
	if v := strings.TrimSpace(raw.DSN); v != "" {
		current.DSN = v
	}
	if v := strings.TrimSpace(db.DSN); v != "" {
		current.DSN = v
	}
	if v := strings.TrimSpace(db.Host); v != "" {
		current.Host = v
	}
	if db.Port != 0 {
		current.Port = db.Port
	}
	if v := strings.TrimSpace(db.User); v != "" {
		current.User = v
	}
	if db.Password != "" {
		current.Password = db.Password
	}
	if v := strings.TrimSpace(db.Name); v != "" {
		current.Name = v
	}
	if v := strings.TrimSpace(db.Charset); v != "" {
		current.Charset = v
	}
	if db.ParseTime != nil {
		current.ParseTime = *db.ParseTime
	}
	if v := strings.TrimSpace(db.Loc); v != "" {
		current.Loc = v
	}
	if len(db.Params) > 0 {
		current.Params = db.Params
	}
	if v := strings.TrimSpace(db.File); v != "" {
		current.File = v
	}
	return current
}

func applyRawRedisConfig(current RedisRuntimeConfig, raw rawAppConfig) RedisRuntimeConfig {
	r := raw.Redis
	if v := strings.TrimSpace(raw.RedisURL); v != "" {
		current.URL = v
		current.Enable = true
	}
	if v := strings.TrimSpace(r.URL); v != "" {
		current.URL = v
		current.Enable = true
	}
	if v := strings.TrimSpace(r.Host); v != "" {
		current.Host = v
		current.Enable = true
	}
	if r.Port != 0 {
		current.Port = r.Port
	}
	if v := strings.TrimSpace(r.Username); v != "" {
		current.Username = v
	}
	if r.Password != "" {
		current.Password = r.Password
	}
	if r.DB != nil {
		current.DB = *r.DB
	}
	if r.TLS != nil {
		current.TLS = *r.TLS
	}
	if len(r.Params) > 0 {
		current.Params = r.Params
	}
	if r.Enable != nil {
		current.Enable = *r.Enable
	}
	return current
}

func applyRawS3Config(current S3Config, raw rawS3Config) S3Config {
	if v := strings.TrimSpace(raw.Bucket); v != "" {
		current.Bucket = v
	}
	if v := strings.TrimSpace(raw.Region); v != "" {
		current.Region = v
	}
	if v := strings.TrimSpace(raw.Endpoint); v != "" {
		current.Endpoint = v
	}
	if v := strings.TrimSpace(raw.AccessKeyID); v != "" {
		current.AccessKeyID = v
	}
	if v := strings.TrimSpace(raw.SecretAccessKey); v != "" {
		current.SecretAccessKey = v
	}
	if v := strings.TrimSpace(raw.Prefix); v != "" {
		current.Prefix = v
	}
	if raw.PathStyle != nil {
		current.PathStyle = *raw.PathStyle
	}
	return current
}

type lookupFunc func(key string) (string, bool)

// applyEnv overrides file values with BLOG_* variables.
func applyEnv(cfg *AppConfig, lookup lookupFunc) error {
	get := func(name string) (string, bool) {
		v, ok := lookup(envPrefix + name)
		v = strings.TrimSpace(v)
		return v, ok && v != ""
	}

	if v, ok := get("PORT"); ok {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %sPORT %q: %w", envPrefix, v, err)
		}
		cfg.Port = port
	}
	if v, ok := get("ENV"); ok {
		cfg.Env = v
	}
	if v, ok := get("DB_DRIVER"); ok {
		cfg.Database.Driver = strings.ToLower(v)
	}
	if v, ok := get("DSN"); ok {
		cfg.Database.DSN = v
	}
	if v, ok := get("REDIS_URL"); ok {
		cfg.Redis.URL = v
		cfg.Redis.Enable = true
	}
	if v, ok := get("JWT_SECRET"); ok {
		cfg.JWTSecret = v
	}
	if v, ok := get("JWT_EXPIRES_IN"); ok {
		d, err := parseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid %sJWT_EXPIRES_IN %q: %w", envPrefix, v, err)
		}
		cfg.JWTExpiresIn = d
	}
	return nil
}

// parseDuration accepts time.ParseDuration syntax plus a whole-day "d" suffix ("7d").
func parseDuration(v string) (time.Duration, error) {
	if strings.HasSuffix(v, "d") {
		days, err := strconv.Atoi(strings.TrimSuffix(v, "d"))
		if err != nil {
			return 0, err
		}
		return time.Duration(days) * 24 * time.Hour, nil
	}
	return time.ParseDuration(v)
}

func (c *AppConfig) IsDev() bool {
	return strings.EqualFold(c.Env, defaultEnv)
}

func (c *AppConfig) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

func (c *AppConfig) LogDir() string {
	if c == nil {
		return ResolveRuntimePath("", "logs")
	}
	return ResolveRuntimePath(c.Paths.Logs, "logs")
}

func (c *AppConfig) BackupDir() string {
	if c == nil {
		return ResolveRuntimePath("", "backups")
	}
	return ResolveRuntimePath(c.Paths.Backups, "backups")
}
