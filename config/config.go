package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds every tunable the server reads from the environment.
type Config struct {
	Port         string        `envconfig:"PORT" default:"8000"`
	ReadTimeout  time.Duration `envconfig:"HTTP_READ_TIMEOUT" default:"15s"`
	WriteTimeout time.Duration `envconfig:"HTTP_WRITE_TIMEOUT" default:"15s"`
	IdleTimeout  time.Duration `envconfig:"HTTP_IDLE_TIMEOUT" default:"60s"`

	MongoURI string `envconfig:"MONGODB_URI" default:"mongodb://localhost:27017"`
	Database string `envconfig:"MONGODB_DATABASE" default:"shopora"`

	JWTSecret string        `envconfig:"JWT_SECRET" required:"true"`
	JWTExpiry time.Duration `envconfig:"JWT_EXPIRY" default:"24h"`

	PostmarkToken string `envconfig:"POSTMARK_API_TOKEN"`
	EmailSender   string `envconfig:"EMAIL_SENDER"`

	StripeKey           string `envconfig:"STRIPE_SECRET_KEY"`
	StripeWebhookSecret string `envconfig:"STRIPE_WEBHOOK_SECRET"`
	PaymentSuccessURL   string `envconfig:"PAYMENT_SUCCESS_URL" default:"http://localhost:3000/success-payment"`
	PaymentCancelURL    string `envconfig:"PAYMENT_CANCEL_URL" default:"http://localhost:3000/canceled-payment"`

	AWSRegion string `envconfig:"AWS_REGION" default:"us-east-1"`
	S3Bucket  string `envconfig:"S3_BUCKET"`

	// OrderRateEvery throttles order creation per client address.
	OrderRateEvery time.Duration `envconfig:"ORDER_RATE_EVERY" default:"3s"`
	OrderRateBurst int           `envconfig:"ORDER_RATE_BURST" default:"1"`

	SweepInterval time.Duration `envconfig:"SWEEP_INTERVAL" default:"1h"`
}

// Load reads the configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process configuration: %w", err)
	}
	return &cfg, nil
}
