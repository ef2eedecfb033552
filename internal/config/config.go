package config // package config loads application configuration from environment variables

import (
	"errors"
	"fmt"
	"net/url"
	"os"

	"github.com/joho/godotenv"
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.  The value is built once at process start and
// passed explicitly into constructors; nothing reads it as a global.
type Config struct {
	Env             string // application environment (e.g. "dev", "prod")
	Port            string // HTTP port to listen on
	DatabaseURL     string // Postgres DSN, assembled from DB_* when DATABASE_URL is unset
	JWTSecret       string // secret used to sign bearer tokens
	AccessTTLMin    int    // bearer token time-to-live in minutes
	BcryptCost      int    // bcrypt cost for password hashing
	UploadDir       string // directory uploaded files are written to
	UploadURLPrefix string // static path prefix uploaded files are served from
	LogLevel        string // zerolog level name
	AMQPURL         string // RabbitMQ URL; empty disables project events
}

// Load reads configuration values from the environment and returns a Config.
// A .env file in the working directory is loaded first when present; values
// already set in the process environment take precedence.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		Env:             envStr("APP_ENV", "dev"),
		Port:            envStr("APP_PORT", "3000"),
		AccessTTLMin:    envInt("ACCESS_TOKEN_TTL_MIN", 120),
		BcryptCost:      envInt("BCRYPT_COST", 10),
		UploadDir:       envStr("UPLOAD_DIR", "uploads"),
		UploadURLPrefix: envStr("UPLOAD_URL_PREFIX", "/uploads"),
		LogLevel:        envStr("LOG_LEVEL", "info"),
		AMQPURL:         envStr("AMQP_URL", os.Getenv("RABBITMQ_URL")),
	}

	secret, err := must("JWT_SECRET")
	if err != nil {
		return Config{}, err
	}
	cfg.JWTSecret = secret

	dsn, err := databaseURL()
	if err != nil {
		return Config{}, err
	}
	cfg.DatabaseURL = dsn

	if cfg.AccessTTLMin <= 0 {
		return Config{}, fmt.Errorf("invalid ACCESS_TOKEN_TTL_MIN: %d", cfg.AccessTTLMin)
	}
	return cfg, nil
}

// databaseURL returns DATABASE_URL verbatim or builds a postgres:// URL from
// the individual DB_* variables.
func databaseURL() (string, error) {
	if v := os.Getenv("DATABASE_URL"); v != "" {
		return v, nil
	}
	var missing []error
	get := func(k string) string {
		v, err := must(k)
		if err != nil {
			missing = append(missing, err)
		}
		return v
	}
	host, port, user, name := get("DB_HOST"), get("DB_PORT"), get("DB_USER"), get("DB_NAME")
	if len(missing) > 0 {
		return "", errors.Join(missing...)
	}

	u := url.URL{
		Scheme: "postgres",
		Host:   host + ":" + port,
		Path:   "/" + name,
	}
	if pass := os.Getenv("DB_PASS"); pass != "" {
		u.User = url.UserPassword(user, pass)
	} else {
		u.User = url.User(user)
	}
	q := url.Values{}
	q.Set("sslmode", envStr("DB_SSLMODE", "disable"))
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// must retrieves the value of a required environment variable.
func must(key string) (string, error) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return "", fmt.Errorf("missing required env var: %s", key)
	}
	return v, nil
}
