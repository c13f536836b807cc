package fastlyos

import (
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
)

func validConfig() Config {
	return Config{
		Endpoint:        "https://us-east.object.fastlystorage.app",
		AccessKeyID:     "k",
		SecretAccessKey: "s",
	}
}

func assertInvalidConfig(t *testing.T, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("expected InvalidConfig error")
	}
	var e *Error
	if !errors.As(err, &e) {
		t.Fatalf("expected *Error, got %T", err)
	}
	if e.Code != CodeInvalidConfig {
		t.Errorf("expected code %s, got %s", CodeInvalidConfig, e.Code)
	}
}

func TestResolveConfig_Defaults(t *testing.T) {
	cfg, err := resolveConfig(validConfig())
	if err != nil {
		t.Fatalf("resolveConfig failed: %v", err)
	}

	if cfg.Region != "us-east-1" {
		t.Errorf("expected default region us-east-1, got %q", cfg.Region)
	}
	if got := *cfg.MaxRetries; got != 3 {
		t.Errorf("expected default max retries 3, got %d", got)
	}
	if cfg.Timeout != 30*time.Second {
		t.Errorf("expected default timeout 30s, got %v", cfg.Timeout)
	}
	if !*cfg.ForcePathStyle {
		t.Error("expected path style to default to true")
	}
	if cfg.Retry != DefaultRetryPolicy() {
		t.Errorf("expected default retry policy, got %+v", cfg.Retry)
	}
	if cfg.Logger == nil {
		t.Error("expected a default logger")
	}
}

func TestResolveConfig_EnvFallback(t *testing.T) {
	t.Setenv(EnvEndpoint, "https://env.object.fastlystorage.app")
	t.Setenv(EnvAccessKeyID, "env-key")
	t.Setenv(EnvSecretAccessKey, "env-secret")
	t.Setenv(EnvRegion, "eu-central")

	cfg, err := resolveConfig(Config{})
	if err != nil {
		t.Fatalf("resolveConfig failed: %v", err)
	}

	if cfg.Endpoint != "https://env.object.fastlystorage.app" {
		t.Errorf("endpoint not read from env, got %q", cfg.Endpoint)
	}
	if cfg.AccessKeyID != "env-key" || cfg.SecretAccessKey != "env-secret" {
		t.Error("credentials not read from env")
	}
	if cfg.Region != "eu-central" {
		t.Errorf("region not read from env, got %q", cfg.Region)
	}
}

func TestResolveConfig_ExplicitBeatsEnv(t *testing.T) {
	t.Setenv(EnvEndpoint, "https://env.object.fastlystorage.app")

	cfg, err := resolveConfig(validConfig())
	if err != nil {
		t.Fatalf("resolveConfig failed: %v", err)
	}
	if cfg.Endpoint != "https://us-east.object.fastlystorage.app" {
		t.Errorf("explicit endpoint overridden by env, got %q", cfg.Endpoint)
	}
}

func TestResolveConfig_MissingRequired(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"missing endpoint", Config{AccessKeyID: "k", SecretAccessKey: "s"}},
		{"missing access key", Config{Endpoint: "https://x", SecretAccessKey: "s"}},
		{"missing secret", Config{Endpoint: "https://x", AccessKeyID: "k"}},
		{"all missing", Config{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := resolveConfig(tt.cfg)
			assertInvalidConfig(t, err)
		})
	}
}

func TestResolveConfig_MalformedEndpoint(t *testing.T) {
	cfg := validConfig()
	cfg.Endpoint = "not a url"
	_, err := resolveConfig(cfg)
	assertInvalidConfig(t, err)
}

func TestResolveConfig_NegativeMaxRetries(t *testing.T) {
	cfg := validConfig()
	cfg.MaxRetries = aws.Int(-1)
	_, err := resolveConfig(cfg)
	assertInvalidConfig(t, err)
}

func TestResolveConfig_NonPositiveTimeout(t *testing.T) {
	cfg := validConfig()
	cfg.Timeout = -time.Second
	_, err := resolveConfig(cfg)
	assertInvalidConfig(t, err)
}

func TestResolveConfig_BadLogLevel(t *testing.T) {
	cfg := validConfig()
	cfg.LogLevel = "verbose"
	_, err := resolveConfig(cfg)
	assertInvalidConfig(t, err)
}

func TestNewWithClient_InvalidConfigFailsConstruction(t *testing.T) {
	_, err := NewWithClient(NewMockS3Client(), NewMockS3Client(), Config{})
	assertInvalidConfig(t, err)
}

func TestMaxBackoff(t *testing.T) {
	p := RetryPolicy{MaxRetries: 3, RetryDelay: time.Second, Multiplier: 2}
	if got := maxBackoff(p); got != 8*time.Second {
		t.Errorf("expected 8s, got %v", got)
	}
}
