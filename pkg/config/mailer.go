package config

import "time"

// MailerConfig configures the outgoing email transport.
type MailerConfig struct {
	// Provider selects the transport: "ses" or "console".
	Provider string

	// FromAddress must be a sender address verified with the provider.
	FromAddress string
	FromName    string

	AWSRegion          string
	AWSAccessKeyID     string
	AWSSecretAccessKey string

	// IdempotencyTTL is how long a send idempotency key is held in Redis.
	IdempotencyTTL time.Duration
}

func loadMailerConfig() MailerConfig {
	return MailerConfig{
		Provider:           getEnv("MAILER_PROVIDER", "console"),
		FromAddress:        getEnv("MAILER_FROM_ADDRESS", getEnv("EMAIL_FROM_ADDRESS", "noreply@caremail.local")),
		FromName:           getEnv("MAILER_FROM_NAME", getEnv("EMAIL_FROM_NAME", "Caremail")),
		AWSRegion:          getEnv("MAILER_AWS_REGION", getEnv("AWS_REGION", "us-east-1")),
		AWSAccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
		IdempotencyTTL:     getEnvDuration("MAILER_IDEMPOTENCY_TTL", 24*time.Hour),
	}
}
