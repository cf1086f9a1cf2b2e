package config

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
)

// SecretRefPrefix marks a value that must be read from Secret Manager,
// e.g. sm://projects/p/secrets/stripe-key/versions/latest.
const SecretRefPrefix = "sm://"

type Config struct {
	Environment string `envconfig:"ENV" default:"development" validate:"oneof=development test staging production"`
	Port        string `envconfig:"PORT" default:"8080"`
	AppURL      string `envconfig:"APP_URL" default:"http://localhost:8080" validate:"url"`

	// Database
	DatabaseURL     string        `envconfig:"DATABASE_URL" required:"true" validate:"required"`
	DBMaxConns      int32         `envconfig:"DB_MAX_CONNS" default:"10"`
	DBRetryAttempts int           `envconfig:"DB_RETRY_ATTEMPTS" default:"5"`
	DBRetryInterval time.Duration `envconfig:"DB_RETRY_INTERVAL" default:"2s"`

	// Auth
	AuthSecret           string        `envconfig:"AUTH_SECRET" required:"true" validate:"min=32"`
	GoogleClientID       string        `envconfig:"GOOGLE_CLIENT_ID" required:"true" validate:"required"`
	GoogleClientSecret   string        `envconfig:"GOOGLE_CLIENT_SECRET" required:"true" validate:"required"`
	SessionTTL           time.Duration `envconfig:"SESSION_TTL" default:"720h"`
	SessionSweepInterval time.Duration `envconfig:"SESSION_SWEEP_INTERVAL" default:"1h"`

	// Stripe
	StripeSecretKey      string `envconfig:"STRIPE_SECRET_KEY" required:"true" validate:"startswith=sk_"`
	StripePublishableKey string `envconfig:"STRIPE_PUBLISHABLE_KEY" required:"true" validate:"startswith=pk_"`
	StripeWebhookSecret  string `envconfig:"STRIPE_WEBHOOK_SECRET" required:"true" validate:"startswith=whsec_"`
	StripePriceID        string `envconfig:"STRIPE_PRICE_ID" required:"true" validate:"startswith=price_"`

	CORSAllowedOrigins []string `envconfig:"CORS_ALLOWED_ORIGINS"`

	// GCP, optional
	GCPProjectID       string `envconfig:"GCP_PROJECT_ID"`
	PubSubStatusTopic  string `envconfig:"PUBSUB_STATUS_TOPIC"`
	PubSubEmulatorHost string `envconfig:"PUBSUB_EMULATOR_HOST"`
}

// SecretResolver reads the value behind an sm:// reference.
type SecretResolver interface {
	Resolve(ctx context.Context, ref string) (string, error)
}

// Load reads the environment. Values may still be secret references; call
// ResolveSecrets and then Validate before using them.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// NotificationsEnabled reports whether status changes should be published.
func (c *Config) NotificationsEnabled() bool {
	return c.GCPProjectID != "" && c.PubSubStatusTopic != ""
}

func (c *Config) secretFields() map[string]*string {
	return map[string]*string{
		"DATABASE_URL":          &c.DatabaseURL,
		"AUTH_SECRET":           &c.AuthSecret,
		"GOOGLE_CLIENT_SECRET":  &c.GoogleClientSecret,
		"STRIPE_SECRET_KEY":     &c.StripeSecretKey,
		"STRIPE_WEBHOOK_SECRET": &c.StripeWebhookSecret,
	}
}

// HasSecretRefs reports whether any secret field points at Secret Manager.
func (c *Config) HasSecretRefs() bool {
	for _, v := range c.secretFields() {
		if strings.HasPrefix(*v, SecretRefPrefix) {
			return true
		}
	}
	return false
}

// ResolveSecrets replaces every sm:// value with the secret it names.
func (c *Config) ResolveSecrets(ctx context.Context, r SecretResolver) error {
	for name, v := range c.secretFields() {
		if !strings.HasPrefix(*v, SecretRefPrefix) {
			continue
		}
		resolved, err := r.Resolve(ctx, strings.TrimPrefix(*v, SecretRefPrefix))
		if err != nil {
			return fmt.Errorf("resolve %s: %w", name, err)
		}
		*v = resolved
	}
	return nil
}

// Validate checks the formats of the loaded values.
func (c *Config) Validate() error {
	validate := validator.New(validator.WithRequiredStructEnabled())
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s: failed %s=%s", fe.Field(), fe.Tag(), fe.Param()))
	}
	return fmt.Errorf("invalid configuration:\n%s", strings.Join(msgs, "\n"))
}
