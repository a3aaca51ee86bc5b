// Package config provides node configuration loaded from environment variables.
package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const logPrefix = "config:LoadConfig"

// Config holds skillbus node configuration. Rate limit quota/window and the
// manifest interval are configuration, not constants, so operators can tune
// them per deployment.
type Config struct {
	// COMMS: connect to the channel network at COMMSURL.
	COMMSURL string `envconfig:"COMMS_URL" default:"nats://127.0.0.1:4222"`
	// NodeName is this node's identity: the "from" on replies, compared
	// against inbound senders, and treated as local by access control.
	NodeName string `envconfig:"NODE_NAME" default:"skillbus"`

	// SubjectPrefix for skill and discovery channels.
	SubjectPrefix string `envconfig:"SUBJECT_PREFIX" default:"skillbus"`

	// Rate limiting (fixed window per caller)
	RateLimitQuota  int           `envconfig:"RATE_LIMIT_QUOTA" default:"30"`
	RateLimitWindow time.Duration `envconfig:"RATE_LIMIT_WINDOW" default:"60s"`

	// Discovery
	ManifestInterval time.Duration `envconfig:"MANIFEST_INTERVAL" default:"5m"`

	// HTTP binding
	HTTPPort int `envconfig:"HTTP_PORT" default:"8090"`

	// ProfileFile points at an optional node profile JSON that extends the
	// emotion vocabulary. Empty means built-ins only.
	ProfileFile string `envconfig:"PROFILE_FILE"`

	// LLM bridge used inside handlers. Empty key disables the bridge.
	LLMAPIKey  string `envconfig:"LLM_API_KEY"`
	LLMBaseURL string `envconfig:"LLM_BASE_URL"`
	LLMModel   string `envconfig:"LLM_MODEL"`

	// Logging
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
}

// LoadConfig loads configuration from environment variables.
func LoadConfig() (*Config, error) {
	var c Config
	if err := envconfig.Process("", &c); err != nil {
		return nil, err
	}
	return &c, nil
}

// ValidateForServe checks required config when running the node.
func (c *Config) ValidateForServe() error {
	if c.NodeName == "" {
		return fmt.Errorf("%s - NODE_NAME must not be empty", logPrefix)
	}
	if c.RateLimitQuota <= 0 {
		return fmt.Errorf("%s - RATE_LIMIT_QUOTA must be positive", logPrefix)
	}
	if c.RateLimitWindow <= 0 {
		return fmt.Errorf("%s - RATE_LIMIT_WINDOW must be positive", logPrefix)
	}
	if c.ManifestInterval <= 0 {
		return fmt.Errorf("%s - MANIFEST_INTERVAL must be positive", logPrefix)
	}
	return nil
}
