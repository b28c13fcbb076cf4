package config

import (
	"strconv"
	"time"

	"github.com/dmitrijs2005/shopkeeper/internal/flagx"
)

// parseEnv overlays values from environment variables. Secrets are normally
// supplied this way. Unparseable numeric values are ignored and the previous
// value is kept.
func parseEnv(config *Config) {
	envString(&config.EndpointAddrGRPC, "ENDPOINT_ADDR_GRPC")
	envString(&config.MetricsAddr, "METRICS_ADDR")
	envString(&config.DatabaseDSN, "DATABASE_DSN", "DATABASE_URL")
	envString(&config.LogLevel, "LOG_LEVEL")
	envString(&config.EmailPepper, "EMAIL_PEPPER")
	envString(&config.EncryptionKey, "ENCRYPTION_KEY")
	envString(&config.JWTSecretKey, "JWT_SECRET_KEY")
	envString(&config.SecretsS3Bucket, "SECRETS_S3_BUCKET")
	envString(&config.SecretsS3Key, "SECRETS_S3_KEY")
	envString(&config.S3Region, "S3_REGION")
	envString(&config.S3BaseEndpoint, "S3_BASE_ENDPOINT")
	envString(&config.S3AccessKey, "S3_ACCESS_KEY")
	envString(&config.S3SecretKey, "S3_SECRET_KEY")

	envInt(&config.MinPasswordLength, "MIN_PASSWORD_LENGTH")
	envInt(&config.MaxFailedAttempts, "MAX_FAILED_ATTEMPTS")
	envDuration(&config.LockoutDuration, "LOCKOUT_DURATION")
	envDuration(&config.AccessTokenValidityDuration, "ACCESS_TOKEN_VALIDITY_DURATION")
}

func envString(dst *string, keys ...string) {
	if v, ok := flagx.LookupEnv(keys...); ok {
		*dst = v
	}
}

func envInt(dst *int, key string) {
	v, ok := flagx.LookupEnv(key)
	if !ok {
		return
	}
	if n, err := strconv.Atoi(v); err == nil {
		*dst = n
	}
}

func envDuration(dst *time.Duration, key string) {
	v, ok := flagx.LookupEnv(key)
	if !ok {
		return
	}
	if d, err := time.ParseDuration(v); err == nil {
		*dst = d
	}
}
