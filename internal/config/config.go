/**
 * @description
 * This package handles the configuration management for the service. It uses the
 * Viper library to read configuration from environment variables, providing a
 * centralized and straightforward way to manage application settings.
 *
 * @dependencies
 * - github.com/spf13/viper: A popular library for Go application configuration.
 */

package config

import (
	"log"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all the configuration variables for the medley-service.
// These values are loaded from environment variables.
type Config struct {
	ServerPort                 string `mapstructure:"SERVER_PORT"`
	DatabaseURL                string `mapstructure:"DATABASE_URL"`
	RedisURL                   string `mapstructure:"REDIS_URL"`
	RedisRateLimitPrefix       string `mapstructure:"REDIS_RATE_LIMIT_PREFIX"`
	RabbitMQURL                string `mapstructure:"RABBITMQ_URL"`
	PayPalMode                 string `mapstructure:"PAYPAL_MODE"`
	PayPalClientID             string `mapstructure:"PAYPAL_CLIENT_ID"`
	PayPalClientSecret         string `mapstructure:"PAYPAL_CLIENT_SECRET"`
	AuthJWKSURL                string `mapstructure:"AUTH_JWKS_URL"`
	AllowedOrigins             string `mapstructure:"ALLOWED_ORIGINS"`
	S3Region                   string `mapstructure:"S3_REGION"`
	S3AudioBucket              string `mapstructure:"S3_AUDIO_BUCKET"`
	DownloadURLTTLHours        int    `mapstructure:"DOWNLOAD_URL_TTL_HOURS"`
	OrderRateLimitPerMinute    int    `mapstructure:"ORDER_RATE_LIMIT_PER_MINUTE"`
	CaptureRateLimitPerMinute  int    `mapstructure:"CAPTURE_RATE_LIMIT_PER_MINUTE"`
	PendingOrderExpiryHours    int    `mapstructure:"PENDING_ORDER_EXPIRY_HOURS"`
}

// OriginList splits the configured ALLOWED_ORIGINS value into a slice suitable
// for CORS middleware. An empty value falls back to allowing any origin, which
// suits local development.
func (c Config) OriginList() []string {
	raw := strings.TrimSpace(c.AllowedOrigins)
	if raw == "" {
		return []string{"*"}
	}
	parts := strings.Split(raw, ",")
	origins := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	if len(origins) == 0 {
		return []string{"*"}
	}
	return origins
}

// LoadConfig reads configuration from environment variables from the given path.
// It uses Viper to automatically bind environment variables to the Config struct.
func LoadConfig(path string) (config Config, err error) {
	// Tell viper the path to look for the optional .env file.
	viper.AddConfigPath(path)
	viper.SetConfigName(".env")
	viper.SetConfigType("env")

	// Enable automatic binding of environment variables.
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Set default values
	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("PAYPAL_MODE", "sandbox")
	viper.SetDefault("REDIS_RATE_LIMIT_PREFIX", "medley:rate_limit")
	viper.SetDefault("DOWNLOAD_URL_TTL_HOURS", 24)
	viper.SetDefault("ORDER_RATE_LIMIT_PER_MINUTE", 30)
	viper.SetDefault("CAPTURE_RATE_LIMIT_PER_MINUTE", 30)
	viper.SetDefault("PENDING_ORDER_EXPIRY_HOURS", 72)

	// Bind environment variables explicitly to ensure they appear in Unmarshal
	_ = viper.BindEnv("SERVER_PORT")
	_ = viper.BindEnv("PORT")
	_ = viper.BindEnv("DATABASE_URL")
	_ = viper.BindEnv("REDIS_URL", "REDIS_URL", "MEDLEY_REDIS_URL")
	_ = viper.BindEnv("REDIS_RATE_LIMIT_PREFIX")
	_ = viper.BindEnv("RABBITMQ_URL")
	_ = viper.BindEnv("PAYPAL_MODE")
	_ = viper.BindEnv("PAYPAL_CLIENT_ID")
	_ = viper.BindEnv("PAYPAL_CLIENT_SECRET")
	_ = viper.BindEnv("AUTH_JWKS_URL")
	_ = viper.BindEnv("ALLOWED_ORIGINS")
	_ = viper.BindEnv("S3_REGION", "S3_REGION", "AWS_REGION")
	_ = viper.BindEnv("S3_AUDIO_BUCKET")
	_ = viper.BindEnv("DOWNLOAD_URL_TTL_HOURS")
	_ = viper.BindEnv("ORDER_RATE_LIMIT_PER_MINUTE")
	_ = viper.BindEnv("CAPTURE_RATE_LIMIT_PER_MINUTE")
	_ = viper.BindEnv("PENDING_ORDER_EXPIRY_HOURS")

	// Attempt to read the config file. It's okay if it doesn't exist.
	if err = viper.ReadInConfig(); err != nil {
		// If the config file is not found, we can ignore the error.
		// For other errors, we should return them.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Printf("level=warn component=config msg=\"failed to read config file; using environment values\" err=%v", err)
		}
	}

	// Unmarshal the configuration into the Config struct.
	err = viper.Unmarshal(&config)
	if err != nil {
		return
	}

	if port := strings.TrimSpace(os.Getenv("PORT")); port != "" {
		config.ServerPort = port
	}
	config.RedisURL = strings.TrimSpace(config.RedisURL)
	config.RedisRateLimitPrefix = strings.TrimSpace(config.RedisRateLimitPrefix)
	if config.RedisRateLimitPrefix == "" {
		config.RedisRateLimitPrefix = "medley:rate_limit"
	}

	config.PayPalMode = strings.ToLower(strings.TrimSpace(config.PayPalMode))
	if config.PayPalMode != "live" && config.PayPalMode != "sandbox" {
		log.Printf("level=warn component=config msg=\"unknown PAYPAL_MODE; defaulting to sandbox\" mode=%q", config.PayPalMode)
		config.PayPalMode = "sandbox"
	}

	if config.DownloadURLTTLHours <= 0 {
		config.DownloadURLTTLHours = 24
	}
	if config.OrderRateLimitPerMinute <= 0 {
		config.OrderRateLimitPerMinute = 30
	}
	if config.CaptureRateLimitPerMinute <= 0 {
		config.CaptureRateLimitPerMinute = 30
	}
	if config.PendingOrderExpiryHours <= 0 {
		config.PendingOrderExpiryHours = 72
	}

	return
}
