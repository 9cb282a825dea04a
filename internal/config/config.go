// Package config loads application configuration from the environment.
//
// A .env file in the working directory is read first (godotenv) so local
// development doesn't need exported variables; real environment variables
// always win because godotenv.Load never overwrites existing ones.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds everything the server needs at startup. Secrets are read
// once here and handed to constructors explicitly — nothing else in the
// codebase touches os.Getenv.
type Config struct {
	Port   int
	DBPath string

	// Token signing. The two secrets MUST differ: compromise of the
	// access-token secret must not allow forging refresh tokens.
	AccessTokenSecret  string
	RefreshTokenSecret string
	AccessTokenTTL     time.Duration
	RefreshTokenTTL    time.Duration

	// Blob storage (S3-compatible endpoint, e.g. MinIO).
	S3Endpoint      string
	S3Region        string
	S3Bucket        string
	S3AccessKey     string
	S3SecretKey     string
	S3PublicBaseURL string // prefix for public object URLs; defaults to endpoint/bucket

	// UploadDir is where multipart files are staged before the blob upload.
	UploadDir string
}

// Load reads configuration from the environment.
func Load() (*Config, error) {
	// Best effort: absent .env is fine, env vars may come from the shell.
	_ = godotenv.Load()

	cfg := &Config{
		Port:            8080,
		DBPath:          "data/streamtube.db",
		AccessTokenTTL:  time.Hour,
		RefreshTokenTTL: 240 * time.Hour, // 10 days
		S3Region:        "us-east-1",
		UploadDir:       os.TempDir(),
	}

	if portStr := os.Getenv("PORT"); portStr != "" {
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return nil, fmt.Errorf("config: invalid PORT %q: %w", portStr, err)
		}
		cfg.Port = port
	}

	if v := os.Getenv("DB_PATH"); v != "" {
		cfg.DBPath = v
	}

	cfg.AccessTokenSecret = os.Getenv("ACCESS_TOKEN_SECRET")
	if cfg.AccessTokenSecret == "" {
		return nil, fmt.Errorf("config: ACCESS_TOKEN_SECRET environment variable is required")
	}
	cfg.RefreshTokenSecret = os.Getenv("REFRESH_TOKEN_SECRET")
	if cfg.RefreshTokenSecret == "" {
		return nil, fmt.Errorf("config: REFRESH_TOKEN_SECRET environment variable is required")
	}
	if cfg.AccessTokenSecret == cfg.RefreshTokenSecret {
		return nil, fmt.Errorf("config: ACCESS_TOKEN_SECRET and REFRESH_TOKEN_SECRET must differ")
	}

	var err error
	if cfg.AccessTokenTTL, err = durationEnv("ACCESS_TOKEN_TTL", cfg.AccessTokenTTL); err != nil {
		return nil, err
	}
	if cfg.RefreshTokenTTL, err = durationEnv("REFRESH_TOKEN_TTL", cfg.RefreshTokenTTL); err != nil {
		return nil, err
	}

	cfg.S3Endpoint = os.Getenv("S3_ENDPOINT")
	cfg.S3Bucket = os.Getenv("S3_BUCKET")
	cfg.S3AccessKey = os.Getenv("S3_ACCESS_KEY")
	cfg.S3SecretKey = os.Getenv("S3_SECRET_KEY")
	if v := os.Getenv("S3_REGION"); v != "" {
		cfg.S3Region = v
	}
	cfg.S3PublicBaseURL = os.Getenv("S3_PUBLIC_BASE_URL")
	if cfg.S3PublicBaseURL == "" && cfg.S3Endpoint != "" {
		cfg.S3PublicBaseURL = cfg.S3Endpoint + "/" + cfg.S3Bucket
	}

	if v := os.Getenv("UPLOAD_DIR"); v != "" {
		cfg.UploadDir = v
	}

	return cfg, nil
}

// durationEnv parses a Go duration string ("45m", "240h") from the
// environment, returning def when the variable is unset.
func durationEnv(name string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(name)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("config: invalid %s %q: %w", name, v, err)
	}
	return d, nil
}
