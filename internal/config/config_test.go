package config

import (
	"os"
	"reflect"
	"testing"

	"github.com/spf13/viper"
)

func TestLoadConfig_Defaults(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	unsetEnvWithCleanup(t, "PAYPAL_MODE")
	unsetEnvWithCleanup(t, "DOWNLOAD_URL_TTL_HOURS")
	unsetEnvWithCleanup(t, "ORDER_RATE_LIMIT_PER_MINUTE")
	unsetEnvWithCleanup(t, "REDIS_RATE_LIMIT_PREFIX")

	cfg, err := LoadConfig(t.TempDir())
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.PayPalMode != "sandbox" {
		t.Fatalf("expected default PayPalMode sandbox, got %q", cfg.PayPalMode)
	}
	if cfg.DownloadURLTTLHours != 24 {
		t.Fatalf("expected default DownloadURLTTLHours 24, got %d", cfg.DownloadURLTTLHours)
	}
	if cfg.OrderRateLimitPerMinute != 30 {
		t.Fatalf("expected default OrderRateLimitPerMinute 30, got %d", cfg.OrderRateLimitPerMinute)
	}
	if cfg.RedisRateLimitPrefix != "medley:rate_limit" {
		t.Fatalf("expected default RedisRateLimitPrefix, got %q", cfg.RedisRateLimitPrefix)
	}
}

func TestLoadConfig_UnknownPayPalModeFallsBackToSandbox(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	setEnvWithCleanup(t, "PAYPAL_MODE", "Production")

	cfg, err := LoadConfig(t.TempDir())
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.PayPalMode != "sandbox" {
		t.Fatalf("expected unknown mode to coerce to sandbox, got %q", cfg.PayPalMode)
	}
}

func TestLoadConfig_LiveModeIsCaseInsensitive(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	setEnvWithCleanup(t, "PAYPAL_MODE", "LIVE")

	cfg, err := LoadConfig(t.TempDir())
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.PayPalMode != "live" {
		t.Fatalf("expected live mode, got %q", cfg.PayPalMode)
	}
}

func TestLoadConfig_PortEnvOverridesServerPort(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	setEnvWithCleanup(t, "SERVER_PORT", "8080")
	setEnvWithCleanup(t, "PORT", "9000")

	cfg, err := LoadConfig(t.TempDir())
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.ServerPort != "9000" {
		t.Fatalf("expected PORT to win, got %q", cfg.ServerPort)
	}
}

func TestLoadConfig_NonPositiveLimitsAreCoerced(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	setEnvWithCleanup(t, "DOWNLOAD_URL_TTL_HOURS", "0")
	setEnvWithCleanup(t, "CAPTURE_RATE_LIMIT_PER_MINUTE", "-5")
	setEnvWithCleanup(t, "PENDING_ORDER_EXPIRY_HOURS", "0")

	cfg, err := LoadConfig(t.TempDir())
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.DownloadURLTTLHours != 24 {
		t.Fatalf("expected DownloadURLTTLHours coerced to 24, got %d", cfg.DownloadURLTTLHours)
	}
	if cfg.CaptureRateLimitPerMinute != 30 {
		t.Fatalf("expected CaptureRateLimitPerMinute coerced to 30, got %d", cfg.CaptureRateLimitPerMinute)
	}
	if cfg.PendingOrderExpiryHours != 72 {
		t.Fatalf("expected PendingOrderExpiryHours coerced to 72, got %d", cfg.PendingOrderExpiryHours)
	}
}

func TestOriginList(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want []string
	}{
		{name: "empty falls back to wildcard", raw: "", want: []string{"*"}},
		{name: "single origin", raw: "https://4track.io", want: []string{"https://4track.io"}},
		{name: "trims and drops blanks", raw: " https://4track.io , ,http://localhost:3000 ", want: []string{"https://4track.io", "http://localhost:3000"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Config{AllowedOrigins: tc.raw}
			got := cfg.OriginList()
			if !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("OriginList(%q) = %v, want %v", tc.raw, got, tc.want)
			}
		})
	}
}

func setEnvWithCleanup(t *testing.T, key string, value string) {
	t.Helper()
	prev, hadPrev := os.LookupEnv(key)
	if err := os.Setenv(key, value); err != nil {
		t.Fatalf("failed to set env %s: %v", key, err)
	}
	t.Cleanup(func() {
		if hadPrev {
			_ = os.Setenv(key, prev)
			return
		}
		_ = os.Unsetenv(key)
	})
}

func unsetEnvWithCleanup(t *testing.T, key string) {
	t.Helper()
	prev, hadPrev := os.LookupEnv(key)
	if err := os.Unsetenv(key); err != nil {
		t.Fatalf("failed to unset env %s: %v", key, err)
	}
	t.Cleanup(func() {
		if hadPrev {
			_ = os.Setenv(key, prev)
			return
		}
		_ = os.Unsetenv(key)
	})
}
