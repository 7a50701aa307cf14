package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

const (
	defaultGatewayTimeout    = "10s"
	defaultWorkerInterval    = "1m"
	defaultPendingMaxAge     = "30m"
	defaultGatewayFee        = "5000"
	defaultRefundMaxAttempts = "5"
	defaultTimezone          = "Asia/Jakarta"
)

// RuntimeConfig carries the engine's environment-driven settings.
type RuntimeConfig struct {
	DatabaseURL       string
	JWTSecret         string
	ServerKey         string
	GatewayFee        int64
	GatewayTimeout    time.Duration
	WorkerInterval    time.Duration
	PendingMaxAge     time.Duration
	RefundMaxAttempts int
	Location          *time.Location
}

func LoadRuntimeConfig() (*RuntimeConfig, error) {
	cfg := &RuntimeConfig{}

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is empty")
	}
	cfg.JWTSecret = os.Getenv("JWT_SECRET")
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is empty")
	}
	cfg.ServerKey = os.Getenv("MIDTRANS_SERVER_KEY")
	if cfg.ServerKey == "" {
		return nil, fmt.Errorf("MIDTRANS_SERVER_KEY is empty")
	}

	fee, err := strconv.ParseInt(getEnv("GATEWAY_FEE", defaultGatewayFee), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("GATEWAY_FEE: %w", err)
	}
	cfg.GatewayFee = fee

	if cfg.GatewayTimeout, err = parseDurationEnv("GATEWAY_TIMEOUT", defaultGatewayTimeout); err != nil {
		return nil, err
	}
	if cfg.WorkerInterval, err = parseDurationEnv("WORKER_INTERVAL", defaultWorkerInterval); err != nil {
		return nil, err
	}
	if cfg.PendingMaxAge, err = parseDurationEnv("PENDING_MAX_AGE", defaultPendingMaxAge); err != nil {
		return nil, err
	}

	attempts, err := strconv.Atoi(getEnv("REFUND_MAX_ATTEMPTS", defaultRefundMaxAttempts))
	if err != nil || attempts <= 0 {
		return nil, fmt.Errorf("REFUND_MAX_ATTEMPTS must be a positive integer")
	}
	cfg.RefundMaxAttempts = attempts

	loc, err := time.LoadLocation(getEnv("TIMEZONE", defaultTimezone))
	if err != nil {
		return nil, fmt.Errorf("TIMEZONE: %w", err)
	}
	cfg.Location = loc

	return cfg, nil
}

func getEnv(name, def string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return def
}

func parseDurationEnv(name, def string) (time.Duration, error) {
	d, err := time.ParseDuration(getEnv(name, def))
	if err != nil {
		return 0, fmt.Errorf("%s: %w", name, err)
	}
	return d, nil
}
