package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Validate chequea reglas entre campos y resuelve Clinic.Location.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range (got %d)", c.Server.Port)
	}

	if c.Database.Enabled() && c.Database.MinConns > c.Database.MaxConns {
		return fmt.Errorf("database.min_conns (%d) must be <= max_conns (%d)", c.Database.MinConns, c.Database.MaxConns)
	}

	if err := c.Auth.validate(); err != nil {
		return fmt.Errorf("auth: %w", err)
	}
	if err := c.Notify.validate(); err != nil {
		return fmt.Errorf("notify: %w", err)
	}

	loc, err := time.LoadLocation(strings.TrimSpace(c.Clinic.Timezone))
	if err != nil {
		return fmt.Errorf("clinic.timezone: %w", err)
	}
	c.Clinic.Location = loc

	if !strings.HasPrefix(c.Metrics.Path, "/") {
		return fmt.Errorf("metrics.path must start with / (got %q)", c.Metrics.Path)
	}
	return nil
}

func (a *AuthConfig) validate() error {
	a.Mode = strings.ToLower(strings.TrimSpace(a.Mode))
	switch a.Mode {
	case AuthModeDev:
	case AuthModeJWT:
		if len(a.JWTSecret) < 32 {
			return fmt.Errorf("jwt_secret must be at least 32 characters (got %d)", len(a.JWTSecret))
		}
	case AuthModeOdin:
		if _, err := url.ParseRequestURI(a.OdinBaseURL); err != nil {
			return fmt.Errorf("odin_base_url: %w", err)
		}
		if strings.TrimSpace(a.OdinAPIKey) == "" {
			return fmt.Errorf("odin_api_key is required in odin mode")
		}
	default:
		return fmt.Errorf("unknown mode %q (dev|jwt|odin)", a.Mode)
	}
	return nil
}

func (n *NotifyConfig) validate() error {
	n.Driver = strings.ToLower(strings.TrimSpace(n.Driver))
	switch n.Driver {
	case NotifyDriverLog:
	case NotifyDriverKafka:
		if len(n.Brokers()) == 0 {
			return fmt.Errorf("kafka_brokers is required for the kafka driver")
		}
		if strings.TrimSpace(n.KafkaTopic) == "" {
			return fmt.Errorf("kafka_topic is required for the kafka driver")
		}
	case NotifyDriverSQS:
		if strings.TrimSpace(n.SQSQueueURL) == "" {
			return fmt.Errorf("sqs_queue_url is required for the sqs driver")
		}
	default:
		return fmt.Errorf("unknown driver %q (log|kafka|sqs)", n.Driver)
	}
	return nil
}
