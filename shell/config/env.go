package config

import (
	"errors"
	"io/fs"
	"os"
	"time"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
)

// DefaultEnvFile is the .env file read when no other files are given.
const DefaultEnvFile = ".env"

var (
	// ErrLoadingEnvFileFailed is returned when an existing .env file cannot be parsed.
	ErrLoadingEnvFileFailed = errors.New("loading env file failed")

	// ErrDecodingEnvFailed is returned when environment values do not fit the config fields.
	ErrDecodingEnvFailed = errors.New("decoding environment failed")

	// ErrMissingJWTSecret is returned when the catalog service is started without a signing secret.
	ErrMissingJWTSecret = errors.New("jwt secret must not be empty")

	// ErrInvalidTokenTTL is returned when the token lifetime is not positive.
	ErrInvalidTokenTTL = errors.New("token ttl must be positive")
)

// ClientConfig configures the bookshelf CLI.
type ClientConfig struct {
	BaseURL      string        `env:"BOOKSHELF_API_URL,default=http://localhost:8080"`
	Timeout      time.Duration `env:"BOOKSHELF_TIMEOUT,default=30s"`
	PageSize     int           `env:"BOOKSHELF_PAGE_SIZE,default=10"`
	TokenPath    string        `env:"BOOKSHELF_TOKEN_PATH"`
	LogLevel     string        `env:"BOOKSHELF_LOG_LEVEL,default=warn"`
	OTLPEndpoint string        `env:"BOOKSHELF_OTLP_ENDPOINT"`
}

// ServerConfig configures the catalog service.
type ServerConfig struct {
	ListenAddr      string        `env:"CATALOGD_LISTEN_ADDR,default=:8080"`
	JWTSecret       string        `env:"CATALOGD_JWT_SECRET"`
	TokenTTL        time.Duration `env:"CATALOGD_TOKEN_TTL,default=10h"`
	DBDriver        string        `env:"CATALOGD_DB_DRIVER,default=pgxpool"`
	ShutdownTimeout time.Duration `env:"CATALOGD_SHUTDOWN_TIMEOUT,default=10s"`
	OTLPEndpoint    string        `env:"CATALOGD_OTLP_ENDPOINT"`
	AdminUsername   string        `env:"CATALOGD_ADMIN_USERNAME"`
	AdminPassword   string        `env:"CATALOGD_ADMIN_PASSWORD"`
	Postgres        PostgresConfig
}

// LoadEnv reads the given .env files into the process environment.
// Missing files are ignored, variables already set in the environment win.
func LoadEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{DefaultEnvFile}
	}

	for _, file := range files {
		if _, err := os.Stat(file); errors.Is(err, fs.ErrNotExist) {
			continue
		}

		if err := godotenv.Load(file); err != nil {
			return errors.Join(ErrLoadingEnvFileFailed, err)
		}
	}

	return nil
}

// LoadClientConfig loads the .env files and decodes a ClientConfig from the environment.
func LoadClientConfig(files ...string) (ClientConfig, error) {
	var cfg ClientConfig

	if err := LoadEnv(files...); err != nil {
		return cfg, err
	}

	if err := decode(&cfg); err != nil {
		return cfg, err
	}

	return cfg, nil
}

// LoadServerConfig loads the .env files and decodes a ServerConfig from the environment.
func LoadServerConfig(files ...string) (ServerConfig, error) {
	var cfg ServerConfig

	if err := LoadEnv(files...); err != nil {
		return cfg, err
	}

	if err := decode(&cfg); err != nil {
		return cfg, err
	}

	return cfg, cfg.Validate()
}

// Validate checks the values that have no usable default.
func (c ServerConfig) Validate() error {
	if c.JWTSecret == "" {
		return ErrMissingJWTSecret
	}

	if c.TokenTTL <= 0 {
		return ErrInvalidTokenTTL
	}

	return nil
}

func decode(target any) error {
	if err := envdecode.Decode(target); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return errors.Join(ErrDecodingEnvFailed, err)
	}

	return nil
}
