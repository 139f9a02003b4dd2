package app

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/aussiebroadwan/jwtauth/pkg/jwtx"
	"github.com/go-playground/validator/v10"
)

type Config struct {
	SiteURL   string        `validate:"required,url"` // Required: canonical site URL, the default issuer (default: http://localhost:8080)
	Issuer    string        `validate:"omitempty"`    // Optional: issuer override
	Algorithm string        `validate:"jwtalg"`       // Optional: signing algorithm (default: HS256)
	TokenTTL  time.Duration `validate:"gt=0"`         // Optional: token lifetime (default: 168h)

	SecretKey         string        // Optional: HMAC secret. Missing material surfaces per request as bad_config
	SecretKeyFile     string        // Optional: file holding the HMAC secret
	PrivateKeyFile    string        // Optional: PEM private key for RS*, ES* and PS*
	PublicKeyFile     string        // Optional: PEM public key, defaults to the private key's
	KeyReloadInterval time.Duration `validate:"gte=0"` // Optional: how often key files are re-read, 0 disables (default: 0)

	AltHeader    string // Optional: header read when Authorization is missing (default: X-Authorization)
	CORSEnabled  bool   // Optional: send CORS headers (default: false)
	BasicEnabled bool   // Optional: accept HTTP Basic credentials (default: false)
	APIPrefix    string `validate:"startswith=/"` // Optional: protected API surface (default: /api/)

	TrustedProxies []string `validate:"dive,cidr|ip"` // Optional: proxies allowed to set X-Forwarded-For (default: none)

	DatabaseFile string `validate:"required"` // Optional: path to SQLite database file (default: ./auth.db)
	PepperFile   string `validate:"required"` // Optional: path to file containing pepper for password hashing (default: ./pepper)

	BootstrapUsername    string // Optional: initial user created on an empty store
	BootstrapPassword    string // Optional: generated and logged once when empty
	BootstrapEmail       string `validate:"omitempty,email"`
	BootstrapDisplayName string

	Env                 string        `validate:"oneof=dev test staging prod"`    // Environment (dev, test, staging, prod) (default: dev)
	LogLevel            string        `validate:"oneof=debug info warn error"`    // Log level (debug, info, warn, error) (default: info)
	LogFormat           string        `validate:"oneof=json text"`                // Log format (json, text) (default: json)
	Port                int           `validate:"min=1,max=65535"`                // HTTP server port (default: 8080)
	ShutdownGracePeriod time.Duration `validate:"gt=0"`                           // Graceful shutdown timeout (default: 10s)
}

func LoadConfig() Config {
	return Config{
		SiteURL:   getEnvOrDefault("AUTH_SITE_URL", "http://localhost:8080"),
		Issuer:    os.Getenv("AUTH_ISSUER"),
		Algorithm: getEnvOrDefault("AUTH_ALGORITHM", string(jwtx.DefaultAlgorithm)),
		TokenTTL:  getEnvDurationOrDefault("AUTH_TOKEN_TTL", jwtx.DefaultTokenTTL),

		SecretKey:         os.Getenv("AUTH_SECRET_KEY"),
		SecretKeyFile:     os.Getenv("AUTH_SECRET_KEY_FILE"),
		PrivateKeyFile:    os.Getenv("AUTH_PRIVATE_KEY_FILE"),
		PublicKeyFile:     os.Getenv("AUTH_PUBLIC_KEY_FILE"),
		KeyReloadInterval: getEnvDurationOrDefault("AUTH_KEY_RELOAD_INTERVAL", 0),

		AltHeader:    getEnvOrDefault("AUTH_ALT_HEADER", "X-Authorization"),
		CORSEnabled:  getEnvBoolOrDefault("AUTH_CORS_ENABLED", false),
		BasicEnabled: getEnvBoolOrDefault("AUTH_BASIC_ENABLED", false),
		APIPrefix:    getEnvOrDefault("AUTH_API_PREFIX", "/api/"),

		TrustedProxies: getEnvListOrDefault("AUTH_TRUSTED_PROXIES", nil),

		DatabaseFile: getEnvOrDefault("AUTH_DATABASE_FILE", "auth.db"),
		PepperFile:   getEnvOrDefault("AUTH_PEPPER_FILE", "pepper"),

		BootstrapUsername:    os.Getenv("AUTH_BOOTSTRAP_USERNAME"),
		BootstrapPassword:    os.Getenv("AUTH_BOOTSTRAP_PASSWORD"),
		BootstrapEmail:       os.Getenv("AUTH_BOOTSTRAP_EMAIL"),
		BootstrapDisplayName: os.Getenv("AUTH_BOOTSTRAP_DISPLAY_NAME"),

		Env:                 getEnvOrDefault("ENV", "dev"),
		LogLevel:            getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:           getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                getEnvIntOrDefault("PORT", 8080),
		ShutdownGracePeriod: getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
	}
}

// Validate checks the configuration. Missing key material is not an error:
// the service starts and answers token requests with bad_config until
// material is supplied.
func (c Config) Validate() error {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("jwtalg", func(fl validator.FieldLevel) bool {
		_, err := jwtx.ResolveAlgorithm(fl.Field().String())
		return err == nil
	})

	err := v.Struct(c)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s failed %q (got %v)", fe.Field(), fe.Tag(), fe.Value()))
	}
	return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvListOrDefault splits a comma separated value, dropping empty items.
func getEnvListOrDefault(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if b, err := strconv.ParseBool(value); err == nil {
		return b
	}

	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	// Try parsing as duration (e.g., "1h", "30m", "90s")
	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	// Bare integers are seconds, matching how the lifetime was historically configured
	if seconds, err := strconv.Atoi(value); err == nil {
		return time.Duration(seconds) * time.Second
	}

	return defaultValue
}
