package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/shopkeeper/internal/flagx"
	"github.com/dmitrijs2005/shopkeeper/internal/timex"
)

// JsonConfig is the on-disk shape of the config file. Interval fields use
// timex.Duration so both "15m" and integer nanoseconds are accepted.
// Fields left out of the file keep their current values.
type JsonConfig struct {
	EndpointAddrGRPC            *string         `json:"endpoint_addr_grpc"`
	MetricsAddr                 *string         `json:"metrics_addr"`
	DatabaseDSN                 *string         `json:"database_dsn"`
	LogLevel                    *string         `json:"log_level"`
	EmailPepper                 *string         `json:"email_pepper"`
	EncryptionKey               *string         `json:"encryption_key"`
	JWTSecretKey                *string         `json:"jwt_secret_key"`
	SecretsS3Bucket             *string         `json:"secrets_s3_bucket"`
	SecretsS3Key                *string         `json:"secrets_s3_key"`
	S3Region                    *string         `json:"s3_region"`
	S3BaseEndpoint              *string         `json:"s3_base_endpoint"`
	S3AccessKey                 *string         `json:"s3_access_key"`
	S3SecretKey                 *string         `json:"s3_secret_key"`
	MinPasswordLength           *int            `json:"min_password_length"`
	MaxFailedAttempts           *int            `json:"max_failed_attempts"`
	LockoutDuration             *timex.Duration `json:"lockout_duration"`
	AccessTokenValidityDuration *timex.Duration `json:"access_token_validity_duration"`
}

// parseJson overlays values from the file named by -c / -config. Without
// the flag nothing is loaded. An unreadable or malformed file panics: the
// operator asked for it explicitly.
func parseJson(config *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	c.apply(config)
}

func (c *JsonConfig) apply(config *Config) {
	setString(&config.EndpointAddrGRPC, c.EndpointAddrGRPC)
	setString(&config.MetricsAddr, c.MetricsAddr)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.LogLevel, c.LogLevel)
	setString(&config.EmailPepper, c.EmailPepper)
	setString(&config.EncryptionKey, c.EncryptionKey)
	setString(&config.JWTSecretKey, c.JWTSecretKey)
	setString(&config.SecretsS3Bucket, c.SecretsS3Bucket)
	setString(&config.SecretsS3Key, c.SecretsS3Key)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)
	setString(&config.S3AccessKey, c.S3AccessKey)
	setString(&config.S3SecretKey, c.S3SecretKey)

	if c.MinPasswordLength != nil {
		config.MinPasswordLength = *c.MinPasswordLength
	}
	if c.MaxFailedAttempts != nil {
		config.MaxFailedAttempts = *c.MaxFailedAttempts
	}
	if c.LockoutDuration != nil {
		config.LockoutDuration = c.LockoutDuration.Duration
	}
	if c.AccessTokenValidityDuration != nil {
		config.AccessTokenValidityDuration = c.AccessTokenValidityDuration.Duration
	}
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}
