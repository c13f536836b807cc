package fastlyos

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/aws/retry"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Configuration defaults.
const (
	DefaultRegion     = "us-east-1"
	DefaultMaxRetries = 3
	DefaultTimeout    = 30 * time.Second
)

// Environment variables consulted when the corresponding Config field is
// left empty.
const (
	EnvEndpoint        = "FASTLY_ENDPOINT"
	EnvAccessKeyID     = "FASTLY_ACCESS_KEY_ID"
	EnvSecretAccessKey = "FASTLY_SECRET_ACCESS_KEY"
	EnvRegion          = "FASTLY_REGION"
)

// RetryPolicy describes the backoff applied by the wrapped SDK client.
// This layer never retries on its own.
type RetryPolicy struct {
	MaxRetries int           `validate:"gte=0"`
	RetryDelay time.Duration `validate:"gt=0"`
	Multiplier float64       `validate:"gt=0"`
}

// DefaultRetryPolicy returns the retry policy applied when none is set.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries: DefaultMaxRetries,
		RetryDelay: time.Second,
		Multiplier: 2,
	}
}

// Config holds connection settings for the client. Fields left at their zero
// value are filled from the environment where an env var exists, else from
// hardcoded defaults. The resolved configuration is immutable after New.
type Config struct {
	// Endpoint is the object storage endpoint URL. Required.
	// Falls back to FASTLY_ENDPOINT.
	Endpoint string `validate:"required,url"`

	// AccessKeyID is the access key. Required.
	// Falls back to FASTLY_ACCESS_KEY_ID.
	AccessKeyID string `validate:"required"`

	// SecretAccessKey is the secret key. Required.
	// Falls back to FASTLY_SECRET_ACCESS_KEY.
	SecretAccessKey string `validate:"required"`

	// Region is the signing region. Falls back to FASTLY_REGION,
	// then to us-east-1.
	Region string `validate:"required"`

	// MaxRetries is the SDK retry attempt budget. Nil means 3.
	MaxRetries *int `validate:"omitempty,gte=0"`

	// Timeout bounds each HTTP request. Zero means 30s.
	Timeout time.Duration `validate:"gt=0"`

	// ForcePathStyle selects path-style addressing. Nil means true, which
	// is what S3-compatible endpoints generally require.
	ForcePathStyle *bool

	// Retry configures the SDK's backoff. Zero value means the default
	// policy {3 retries, 1s delay, 2x multiplier}.
	Retry RetryPolicy

	// LogLevel is one of debug, info, warn, error. Empty means warn, so
	// routine operation logs stay quiet unless explicitly enabled.
	LogLevel string `validate:"omitempty,oneof=debug info warn error"`

	// Logger overrides the default sink. Nil means a tint handler on
	// stderr at LogLevel.
	Logger *slog.Logger
}

var structValidator = validator.New(validator.WithRequiredStructEnabled())

// resolveConfig merges explicit fields, environment fallback, and defaults,
// then validates the result. A validation failure is fatal: the caller must
// not construct any underlying client.
func resolveConfig(cfg Config) (Config, error) {
	v := viper.New()
	bindings := map[string]string{
		"endpoint":        EnvEndpoint,
		"accessKeyId":     EnvAccessKeyID,
		"secretAccessKey": EnvSecretAccessKey,
		"region":          EnvRegion,
	}
	for key, env := range bindings {
		_ = v.BindEnv(key, env)
	}
	v.SetDefault("region", DefaultRegion)

	if cfg.Endpoint == "" {
		cfg.Endpoint = v.GetString("endpoint")
	}
	if cfg.AccessKeyID == "" {
		cfg.AccessKeyID = v.GetString("accessKeyId")
	}
	if cfg.SecretAccessKey == "" {
		cfg.SecretAccessKey = v.GetString("secretAccessKey")
	}
	if cfg.Region == "" {
		cfg.Region = v.GetString("region")
	}
	if cfg.MaxRetries == nil {
		cfg.MaxRetries = aws.Int(DefaultMaxRetries)
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.ForcePathStyle == nil {
		cfg.ForcePathStyle = aws.Bool(true)
	}
	if cfg.Retry == (RetryPolicy{}) {
		cfg.Retry = DefaultRetryPolicy()
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "warn"
	}
	if cfg.Logger == nil {
		cfg.Logger = newDefaultLogger(cfg.LogLevel)
	}

	if err := structValidator.Struct(cfg); err != nil {
		return Config{}, &Error{
			Op:      "Config",
			Code:    CodeInvalidConfig,
			Message: err.Error(),
			Err:     err,
		}
	}
	return cfg, nil
}

// newS3Client builds the wrapped SDK client from a resolved configuration.
// Credentials are static; retries, pooling, and signing all live in the SDK.
func newS3Client(ctx context.Context, cfg Config, httpClient *http.Client) (*s3.Client, error) {
	awsCfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(cfg.Region),
		config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		),
		config.WithHTTPClient(httpClient),
		config.WithRetryer(func() aws.Retryer {
			return retry.NewStandard(func(o *retry.StandardOptions) {
				o.MaxAttempts = *cfg.MaxRetries + 1
				o.Backoff = retry.NewExponentialJitterBackoff(maxBackoff(cfg.Retry))
			})
		}),
	)
	if err != nil {
		return nil, &Error{Op: "Config", Code: CodeInvalidConfig, Message: err.Error(), Err: err}
	}

	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(cfg.Endpoint)
		o.UsePathStyle = *cfg.ForcePathStyle
	}), nil
}

// maxBackoff caps the SDK's jittered backoff at the policy's final delay:
// retryDelay * multiplier^maxRetries.
func maxBackoff(p RetryPolicy) time.Duration {
	d := float64(p.RetryDelay)
	for i := 0; i < p.MaxRetries; i++ {
		d *= p.Multiplier
	}
	return time.Duration(d)
}
