package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	// DriverS3 selects the S3-compatible backend (AWS S3, MinIO).
	DriverS3 = "s3"
	// DriverGCS selects Google Cloud Storage.
	DriverGCS = "gcs"
)

var (
	// ErrMissingBucket is returned when no bucket name is configured.
	ErrMissingBucket = errors.New("bucket name is required")
	// ErrUnknownDriver is returned for an unsupported STORAGE_DRIVER value.
	ErrUnknownDriver = errors.New("unknown storage driver")
)

// Config aggregates runtime configuration for the gateway.
type Config struct {
	Server  ServerConfig
	Storage StorageConfig
	CORS    CORSPolicy
	Log     LogConfig
	Metrics MetricsConfig
}

// ServerConfig parameterizes the HTTP server.
type ServerConfig struct {
	Host           string
	Port           int
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	MaxUploadBytes int64
}

// Address returns the listen address in host:port form.
func (s ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// StorageConfig carries object-storage connection and bucket information.
type StorageConfig struct {
	Driver          string
	Bucket          string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	Endpoint        string
	UseSSL          bool
	EnsureBucket    bool
	CredentialsFile string
}

// LogConfig groups logging settings.
type LogConfig struct {
	Level string
}

// MetricsConfig groups observability settings.
type MetricsConfig struct {
	PrometheusPath string
}

// LoadEnvFile merges variables from a dotenv file into the process
// environment. A missing default .env is not an error.
func LoadEnvFile(path string) error {
	if path == "" {
		if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("load .env: %w", err)
		}
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// Load reads configuration values from environment variables, applying defaults.
func Load() (Config, error) {
	cfg := Config{
		Server: ServerConfig{
			Host:           getString("FILEGATE_HOST", "0.0.0.0"),
			Port:           getInt("FILEGATE_PORT", 3000),
			ReadTimeout:    getDuration("FILEGATE_READ_TIMEOUT", 30*time.Second),
			WriteTimeout:   getDuration("FILEGATE_WRITE_TIMEOUT", 60*time.Second),
			IdleTimeout:    getDuration("FILEGATE_IDLE_TIMEOUT", 60*time.Second),
			MaxUploadBytes: int64(getInt("FILEGATE_MAX_UPLOAD_BYTES", 100*1024*1024)),
		},
		Storage: StorageConfig{
			Driver:          strings.ToLower(getString("STORAGE_DRIVER", DriverS3)),
			Bucket:          getString("S3_BUCKET", ""),
			Region:          getString("AWS_REGION", "us-east-1"),
			AccessKeyID:     getString("AWS_ACCESS_KEY_ID", ""),
			SecretAccessKey: getString("AWS_SECRET_ACCESS_KEY", ""),
			Endpoint:        getString("S3_ENDPOINT", "s3.amazonaws.com"),
			UseSSL:          getBool("S3_USE_SSL", true),
			EnsureBucket:    getBool("S3_ENSURE_BUCKET", false),
			CredentialsFile: getString("GCS_CREDENTIALS_FILE", ""),
		},
		CORS: DefaultCORSPolicy(getList("CORS_ALLOWED_ORIGINS", []string{"*"})),
		Log: LogConfig{
			Level: strings.ToLower(getString("LOG_LEVEL", "info")),
		},
		Metrics: MetricsConfig{
			PrometheusPath: getString("FILEGATE_METRICS_PATH", "/metrics"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports configuration the gateway cannot start with.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Storage.Bucket) == "" {
		return ErrMissingBucket
	}
	switch c.Storage.Driver {
	case DriverS3, DriverGCS:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownDriver, c.Storage.Driver)
	}
	return nil
}

func getString(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok && val != "" {
		return val
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if val, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	if val, ok := os.LookupEnv(key); ok {
		val = strings.ToLower(strings.TrimSpace(val))
		switch val {
		case "1", "true", "t", "yes", "y":
			return true
		case "0", "false", "f", "no", "n":
			return false
		}
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if val, ok := os.LookupEnv(key); ok {
		if parsed, err := time.ParseDuration(val); err == nil {
			return parsed
		}
	}
	return fallback
}

func getList(key string, fallback []string) []string {
	val, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	var out []string
	for _, item := range strings.Split(val, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
