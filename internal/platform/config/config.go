// Package config loads process-wide configuration once at startup.
// Defaults cover local development; a yaml file and GRANTGATE_-prefixed
// environment variables override them in that order.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Database  DatabaseConfig  `koanf:"database"`
	Redis     RedisConfig     `koanf:"redis"`
	Auth      AuthConfig      `koanf:"auth"`
	RateLimit RateLimitConfig `koanf:"rate_limit"`
	Security  SecurityConfig  `koanf:"security"`
	Retention RetentionConfig `koanf:"retention"`
	SelfTest  SelfTestConfig  `koanf:"self_test"`
	Audit     AuditConfig     `koanf:"audit"`
}

type ServerConfig struct {
	Addr            string        `koanf:"addr"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	RequestTimeout  time.Duration `koanf:"request_timeout"`
	CORSOrigins     []string      `koanf:"cors_origins"`
}

type DatabaseConfig struct {
	DSN          string `koanf:"dsn"`
	MaxOpenConns int    `koanf:"max_open_conns"`
	MaxIdleConns int    `koanf:"max_idle_conns"`
}

type RedisConfig struct {
	URL          string        `koanf:"url"`
	PoolSize     int           `koanf:"pool_size"`
	MinIdleConns int           `koanf:"min_idle_conns"`
	DialTimeout  time.Duration `koanf:"dial_timeout"`
	ReadTimeout  time.Duration `koanf:"read_timeout"`
	WriteTimeout time.Duration `koanf:"write_timeout"`
}

type AuthConfig struct {
	JWTSigningKey string `koanf:"jwt_signing_key"`
	MFARequired   bool   `koanf:"mfa_required"`
}

// RateLimitConfig drives the fixed-window request limiter.
type RateLimitConfig struct {
	Window      time.Duration `koanf:"window"`
	MaxRequests int           `koanf:"max_requests"`
	FailOpen    bool          `koanf:"fail_open"`
}

// SecurityConfig drives the failed-login tracker and activity monitor.
type SecurityConfig struct {
	FailedLoginThreshold int           `koanf:"failed_login_threshold"`
	FailedLoginWindow    time.Duration `koanf:"failed_login_window"`
	ActivityThreshold    int           `koanf:"activity_threshold"`
	ActivityWindow       time.Duration `koanf:"activity_window"`
	AlertOncePerWindow   bool          `koanf:"alert_once_per_window"`
	CountRateLimited     bool          `koanf:"count_rate_limited"`
	FailOpen             bool          `koanf:"fail_open"`
}

// RetentionConfig maps data categories to retention periods in days.
type RetentionConfig struct {
	PersonalInfoDays int           `koanf:"personal_info_days"`
	DocumentDays     int           `koanf:"document_days"`
	AuditLogDays     int           `koanf:"audit_log_days"`
	SweepInterval    time.Duration `koanf:"sweep_interval"`
}

type SelfTestConfig struct {
	RunInterval time.Duration `koanf:"run_interval"`
	ProbeRate   float64       `koanf:"probe_rate"`
}

type AuditConfig struct {
	// EncryptionKey, when set, enables at-rest encryption of audit change
	// sets. Empty disables encryption.
	EncryptionKey string `koanf:"encryption_key"`
}

// Load builds the configuration from defaults, an optional yaml file, and
// GRANTGATE_-prefixed environment variables, in increasing precedence.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaults(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load config defaults: %w", err)
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("GRANTGATE_", ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, "GRANTGATE_")), "_", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("load config environment: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	return &cfg, nil
}

// defaults mirror the deployment the original system shipped with: one minute
// rate windows at 100 requests, five failed logins in thirty minutes, fifty
// actions in five minutes, and 365/730/1825-day retention.
func defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            ":8080",
			ShutdownTimeout: 10 * time.Second,
			RequestTimeout:  30 * time.Second,
			CORSOrigins:     []string{"http://localhost:3000"},
		},
		Database: DatabaseConfig{
			MaxOpenConns: 25,
			MaxIdleConns: 5,
		},
		Redis: RedisConfig{
			PoolSize:     10,
			MinIdleConns: 2,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
		Auth: AuthConfig{
			// Development only; deployments must override.
			JWTSigningKey: "dev-secret-key-change-in-production",
			MFARequired:   true,
		},
		RateLimit: RateLimitConfig{
			Window:      time.Minute,
			MaxRequests: 100,
			FailOpen:    true,
		},
		Security: SecurityConfig{
			FailedLoginThreshold: 5,
			FailedLoginWindow:    30 * time.Minute,
			ActivityThreshold:    50,
			ActivityWindow:       5 * time.Minute,
			FailOpen:             true,
		},
		Retention: RetentionConfig{
			PersonalInfoDays: 365,
			DocumentDays:     730,
			AuditLogDays:     1825,
			SweepInterval:    24 * time.Hour,
		},
		SelfTest: SelfTestConfig{
			RunInterval: 7 * 24 * time.Hour,
			ProbeRate:   5,
		},
	}
}
