package config

import (
	"strings"
	"testing"
	"time"
)

func setValidEnv(t *testing.T) {
	t.Helper()
	for _, name := range GetEnvVars() {
		t.Setenv(name, "")
	}
	t.Setenv("PORT", "8002")
	t.Setenv("ADDRESS", "127.0.0.1")
	t.Setenv("ENV", "dev")
	t.Setenv("LOG_LEVEL", "info")
}

func TestLoadValidConfig(t *testing.T) {
	setValidEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if cfg.Port != "8002" {
		t.Errorf("Expected port 8002, got %s", cfg.Port)
	}
	if cfg.Address != "127.0.0.1" {
		t.Errorf("Expected address 127.0.0.1, got %s", cfg.Address)
	}
	if cfg.Env != EnvDevelopment {
		t.Errorf("Expected env dev, got %s", cfg.Env)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("Expected log level info, got %s", cfg.LogLevel)
	}
}

func TestLoadWithDefaults(t *testing.T) {
	for _, name := range GetEnvVars() {
		t.Setenv(name, "")
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if cfg.Port != "8000" {
		t.Errorf("Expected default port 8000, got %s", cfg.Port)
	}
	if cfg.LogDir != "logs" {
		t.Errorf("Expected default log dir logs, got %s", cfg.LogDir)
	}
	if cfg.ReplyDelay != 1500*time.Millisecond {
		t.Errorf("Expected default reply delay 1.5s, got %v", cfg.ReplyDelay)
	}
	if cfg.MaxMessageLength != 500 {
		t.Errorf("Expected default max message length 500, got %d", cfg.MaxMessageLength)
	}
	if cfg.MaxSessions != 1000 || cfg.MaxMessagesPerSession != 200 {
		t.Errorf("Unexpected session caps: %d sessions, %d messages", cfg.MaxSessions, cfg.MaxMessagesPerSession)
	}
	if cfg.SessionTTL != 30*time.Minute || cfg.SessionSweepInterval != 5*time.Minute {
		t.Errorf("Unexpected session timings: ttl %v, sweep %v", cfg.SessionTTL, cfg.SessionSweepInterval)
	}
}

func TestReplyDelayCanBeDisabled(t *testing.T) {
	setValidEnv(t)
	t.Setenv("REPLY_DELAY_MS", "0")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if cfg.ReplyDelay != 0 {
		t.Errorf("Expected zero reply delay, got %v", cfg.ReplyDelay)
	}
}

func TestInvalidValues(t *testing.T) {
	testCases := []struct {
		name     string
		key      string
		value    string
		expected string
	}{
		{"port not a number", "PORT", "abc", "PORT must be a valid number"},
		{"port zero", "PORT", "0", "PORT must be between 1 and 65535"},
		{"port too high", "PORT", "65536", "PORT must be between 1 and 65535"},
		{"privileged port", "PORT", "80", "PORT 80 is privileged"},
		{"bad address", "ADDRESS", "invalid", "ADDRESS must be a valid IP address"},
		{"public address", "ADDRESS", "8.8.8.8", "is a public IP"},
		{"bad env", "ENV", "invalid", "ENV must be one of"},
		{"bad log level", "LOG_LEVEL", "invalid", "LOG_LEVEL must be one of"},
		{"negative delay", "REPLY_DELAY_MS", "-5", "REPLY_DELAY_MS"},
		{"delay too long", "REPLY_DELAY_MS", "20000", "REPLY_DELAY_MS"},
		{"message length zero", "MAX_MESSAGE_LENGTH", "0", "MAX_MESSAGE_LENGTH must be between"},
		{"too many sessions", "MAX_SESSIONS", "1000000", "MAX_SESSIONS must be between"},
		{"messages too low", "MAX_MESSAGES_PER_SESSION", "1", "MAX_MESSAGES_PER_SESSION must be between"},
		{"sweep longer than ttl", "SESSION_SWEEP_MINUTES", "60", "SESSION_SWEEP_MINUTES"},
		{"retention too long", "LOG_RETENTION_WEEKS", "100", "LOG_RETENTION_WEEKS is too large"},
		{"log file too small", "MAX_LOG_FILE_SIZE", "1024", "MAX_LOG_FILE_SIZE is too small"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			setValidEnv(t)
			t.Setenv(tc.key, tc.value)

			_, err := Load()
			if err == nil {
				t.Fatalf("Expected error for %s=%s, got nil", tc.key, tc.value)
			}
			if !strings.Contains(err.Error(), tc.expected) {
				t.Errorf("Expected error containing %q, got %v", tc.expected, err)
			}
		})
	}
}

func TestParseEnvironment(t *testing.T) {
	tests := []struct {
		input    string
		expected Environment
		hasError bool
	}{
		{"dev", EnvDevelopment, false},
		{"development", EnvDevelopment, false},
		{"staging", EnvStaging, false},
		{"prod", EnvProduction, false},
		{"production", EnvProduction, false},
		{"TEST", EnvTest, false},
		{"invalid", EnvDevelopment, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			env, err := ParseEnvironment(tt.input)
			if tt.hasError {
				if err == nil {
					t.Errorf("Expected error for %s, got none", tt.input)
				}
			} else {
				if err != nil {
					t.Errorf("Unexpected error for %s: %v", tt.input, err)
				}
				if env != tt.expected {
					t.Errorf("Expected %v, got %v", tt.expected, env)
				}
			}
		})
	}
}

func TestEnvironmentString(t *testing.T) {
	tests := []struct {
		env      Environment
		expected string
	}{
		{EnvDevelopment, "dev"},
		{EnvStaging, "staging"},
		{EnvProduction, "prod"},
		{EnvTest, "test"},
	}

	for _, tt := range tests {
		if got := tt.env.String(); got != tt.expected {
			t.Errorf("Expected %s, got %s", tt.expected, got)
		}
	}
}
