package config

import "time"

const (
	// DefaultConfigPath is used when --config is not provided.
	DefaultConfigPath = "config.yml"
	defaultPort       = 5000
	defaultEnv        = "development"

	DriverMySQL  = "mysql"
	DriverSQLite = "sqlite"

	defaultDBDriver   = DriverMySQL
	defaultDBHost     = "127.0.0.1"
	defaultDBPort     = 3306
	defaultDBUser     = "root"
	defaultDBPassword = "password"
	defaultDBName     = "quillpost"
	defaultDBCharset  = "utf8mb4"
	defaultDBLoc      = "Local"
	defaultSQLiteFile = "quillpost.db"

	defaultRedisHost = "localhost"
	defaultRedisPort = 6379
	defaultRedisDB   = 0

	defaultJWTExpiresIn    = 7 * 24 * time.Hour
	defaultRateLimitMax    = 100
	defaultRateLimitWindow = time.Minute
	defaultS3Region        = "us-east-1"
	defaultS3Prefix        = "backups/"

	envPrefix = "BLOG_"
)
