package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	Port     string `env:"PORT" envDefault:"8080"`
	Env      string `env:"ENV" envDefault:"production"`
	LogLevel string `env:"LOG_LEVEL"`

	// Record store
	CacheBackend   string        `env:"CACHE_BACKEND" envDefault:"memory"` // memory | redis | dynamodb
	CacheWriteMode string        `env:"CACHE_WRITE_MODE" envDefault:"overwrite"`
	CachePrefix    string        `env:"CACHE_PREFIX" envDefault:"tts"`
	CacheTTL       time.Duration `env:"CACHE_TTL"` // redis only; 0 keeps records forever
	RedisAddr      string        `env:"REDIS_ADDR" envDefault:"127.0.0.1:6379"`
	RedisPassword  string        `env:"REDIS_PASSWORD"`
	RedisDB        int           `env:"REDIS_DB"`
	DynamoDBTable  string        `env:"DYNAMODB_TABLE"`

	// AWS
	AWSRegion      string `env:"AWS_REGION" envDefault:"us-east-1"`
	AWSEndpointURL string `env:"AWS_ENDPOINT_URL"`
	AWSAccessKeyID string `env:"AWS_ACCESS_KEY_ID"`
	AWSSecretKey   string `env:"AWS_SECRET_ACCESS_KEY"`

	// Audio storage
	StorageBackend string `env:"STORAGE_BACKEND" envDefault:"memory"` // memory | s3
	S3Bucket       string `env:"S3_BUCKET"`
	S3KeyPrefix    string `env:"S3_KEY_PREFIX" envDefault:"audio/"`
	PublicBaseURL  string `env:"PUBLIC_BASE_URL"`

	// Synthesis
	TTSEngine      string        `env:"TTS_ENGINE" envDefault:"polly"` // polly | openai | google
	TTSVoice       string        `env:"TTS_VOICE"`
	TTSLanguage    string        `env:"TTS_LANGUAGE"`
	TTSNeural      bool          `env:"TTS_NEURAL"`
	OpenAIAPIKey   string        `env:"OPENAI_API_KEY"`
	OpenAIBaseURL  string        `env:"OPENAI_BASE_URL"`
	OpenAITTSModel string        `env:"OPENAI_TTS_MODEL"`
	SynthTimeout   time.Duration `env:"SYNTH_TIMEOUT" envDefault:"20s"`

	// HTTP
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT" envDefault:"30s"`
	MaxBodyBytes   int64         `env:"MAX_BODY_BYTES" envDefault:"65536"`
	RateLimitRPM   int           `env:"RATE_LIMIT_RPM"`
	RateLimitBurst int           `env:"RATE_LIMIT_BURST" envDefault:"10"`
}

// Load parses the environment and validates the result.
func Load() (Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadFrom parses vars instead of the process environment. Used by tests.
func LoadFrom(vars map[string]string) (Config, error) {
	cfg, err := env.ParseAsWithOptions[Config](env.Options{Environment: vars})
	if err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Validate checks cross-field requirements.
func (c Config) Validate() error {
	var errs []error

	switch c.CacheBackend {
	case "memory", "redis":
	case "dynamodb":
		if c.DynamoDBTable == "" {
			errs = append(errs, errors.New("DYNAMODB_TABLE is required for the dynamodb cache backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown CACHE_BACKEND %q", c.CacheBackend))
	}

	switch c.CacheWriteMode {
	case "overwrite", "conditional":
	default:
		errs = append(errs, fmt.Errorf("unknown CACHE_WRITE_MODE %q", c.CacheWriteMode))
	}

	switch c.StorageBackend {
	case "memory":
	case "s3":
		if c.S3Bucket == "" {
			errs = append(errs, errors.New("S3_BUCKET is required for the s3 storage backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown STORAGE_BACKEND %q", c.StorageBackend))
	}

	switch c.TTSEngine {
	case "polly", "google":
	case "openai":
		if c.OpenAIAPIKey == "" {
			errs = append(errs, errors.New("OPENAI_API_KEY is required for the openai engine"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown TTS_ENGINE %q", c.TTSEngine))
	}

	if c.MaxBodyBytes <= 0 {
		errs = append(errs, errors.New("MAX_BODY_BYTES must be positive"))
	}
	if c.RequestTimeout <= 0 {
		errs = append(errs, errors.New("REQUEST_TIMEOUT must be positive"))
	}

	return errors.Join(errs...)
}

// NeedsAWS reports whether any configured component talks to AWS.
func (c Config) NeedsAWS() bool {
	return c.CacheBackend == "dynamodb" || c.StorageBackend == "s3" || c.TTSEngine == "polly"
}
