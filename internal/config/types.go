package config

import "time"

// AppConfig holds runtime startup configuration loaded from YAML.
type AppConfig struct {
	Port           int
	Env            string // "development" | "production" | "test"
	Database       DatabaseRuntimeConfig
	Redis          RedisRuntimeConfig
	DSN            string // resolved from Database
	RedisURL       string // resolved from Redis, empty when disabled
	Paths          RuntimePathsConfig
	AllowedOrigins []string
	JWTSecret      string
	JWTExpiresIn   time.Duration
	Timezone       string
	RateLimit      RateLimitConfig
	Admin          AdminSeedConfig
	Backup         BackupConfig
}

type DatabaseRuntimeConfig struct {
	Driver    string
	DSN       string
	Host      string
	Port      int
	User      string
	Password  string
	Name      string
	Charset   string
	ParseTime bool
	Loc       string
	Params    map[string]string
	File      string // sqlite database file
}

type RedisRuntimeConfig struct {
	Enable   bool
	URL      string
	Host     string
	Port     int
	Username string
	Password string
	DB       int
	TLS      bool
	Params   map[string]string
}

type RuntimePathsConfig struct {
	Logs    string
	Backups string
}

type RateLimitConfig struct {
	Max    int
	Window time.Duration
}

// AdminSeedConfig describes an admin account created at startup when its
// email is not registered yet. Empty email disables seeding.
type AdminSeedConfig struct {
	Name     string
	Email    string
	Password string
}

type BackupConfig struct {
	S3 S3Config
}

// S3Config enables uploading backup archives when Bucket is set.
type S3Config struct {
	Bucket          string
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	Prefix          string
	PathStyle       bool
}

func (c S3Config) Enabled() bool { return c.Bucket != "" }

type rawAppConfig struct {
	Port           int                `yaml:"port"`
	Env            string             `yaml:"env"`
	DSN            string             `yaml:"dsn"`
	RedisURL       string             `yaml:"redis_url"`
	Database       rawDatabaseConfig  `yaml:"database"`
	Redis          rawRedisConfig     `yaml:"redis"`
	Paths          rawPathsConfig     `yaml:"paths"`
	AllowedOrigins []string           `yaml:"allowed_origins"`
	JWTSecret      string             `yaml:"jwt_secret"`
	JWTExpiresIn   string             `yaml:"jwt_expires_in"`
	Timezone       string             `yaml:"timezone"`
	RateLimit      rawRateLimitConfig `yaml:"rate_limit"`
	Admin          rawAdminConfig     `yaml:"admin"`
	Backup         rawBackupConfig    `yaml:"backup"`
}

type rawDatabaseConfig struct {
	Driver    string            `yaml:"driver"`
	DSN       string            `yaml:"dsn"`
	Host      string            `yaml:"host"`
	Port      int               `yaml:"port"`
	User      string            `yaml:"user"`
	Password  string            `yaml:"password"`
	Name      string            `yaml:"name"`
	Charset   string            `yaml:"charset"`
	ParseTime *bool             `yaml:"parse_time"`
	Loc       string            `yaml:"loc"`
	Params    map[string]string `yaml:"params"`
	File      string            `yaml:"file"`
}

type rawRedisConfig struct {
	Enable   *bool             `yaml:"enable"`
	URL      string            `yaml:"url"`
	Host     string            `yaml:"host"`
	Port     int               `yaml:"port"`
	Username string            `yaml:"username"`
	Password string            `yaml:"password"`
	DB       *int              `yaml:"db"`
	TLS      *bool             `yaml:"tls"`
	Params   map[string]string `yaml:"params"`
}

type rawPathsConfig struct {
	Logs    string `yaml:"logs"`
	Backups string `yaml:"backups"`
}

type rawRateLimitConfig struct {
	Max    int    `yaml:"max"`
	Window string `yaml:"window"`
}

type rawAdminConfig struct {
	Name     string `yaml:"name"`
	Email    string `yaml:"email"`
	Password string `yaml:"password"`
}

type rawBackupConfig struct {
	S3 rawS3Config `yaml:"s3"`
}

type rawS3Config struct {
	Bucket          string `yaml:"bucket"`
	Region          string `yaml:"region"`
	Endpoint        string `yaml:"endpoint"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
	Prefix          string `yaml:"prefix"`
	PathStyle       *bool  `yaml:"path_style"`
}
