package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	texttospeech "cloud.google.com/go/texttospeech/apiv1"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/polly"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/redis/go-redis/v9"
	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"tts-gateway/internal/cache"
	"tts-gateway/internal/config"
	"tts-gateway/internal/handlers"
	"tts-gateway/internal/httpserver"
	"tts-gateway/internal/orchestrator"
	"tts-gateway/internal/synth"
)

// app is everything the server mounts, plus what has to be closed on exit.
type app struct {
	tts     *handlers.TTSHandler
	media   http.Handler // nil unless audio is kept in memory
	closers []func() error
}

func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	return errors.Join(errs...)
}

func buildApp(ctx context.Context, cfg config.Config, logger *zap.Logger) (*app, error) {
	a := &app{}
	ok := false
	defer func() {
		if !ok {
			_ = a.Close()
		}
	}()

	var awsCfg aws.Config
	if cfg.NeedsAWS() {
		var err error
		awsCfg, err = loadAWSConfig(ctx, cfg)
		if err != nil {
			return nil, err
		}
	}

	store, err := buildRecordStore(ctx, cfg, awsCfg, logger, a)
	if err != nil {
		return nil, err
	}

	engine, err := buildEngine(ctx, cfg, awsCfg, a)
	if err != nil {
		return nil, err
	}

	publisher, err := buildPublisher(cfg, awsCfg, a)
	if err != nil {
		return nil, err
	}

	adapter := synth.NewAdapter(engine, publisher, synth.AdapterConfig{
		KeyPrefix: cfg.S3KeyPrefix,
		Timeout:   cfg.SynthTimeout,
	})
	o := orchestrator.New(store, adapter,
		orchestrator.WithWriteMode(orchestrator.WriteMode(cfg.CacheWriteMode)),
	)
	a.tts = handlers.NewTTSHandler(o)

	logger.Info("components ready",
		zap.String("engine", engine.Name()),
		zap.String("cache_backend", cfg.CacheBackend),
		zap.String("storage_backend", cfg.StorageBackend),
	)

	ok = true
	return a, nil
}

func loadAWSConfig(ctx context.Context, cfg config.Config) (aws.Config, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.AWSRegion),
	}
	if cfg.AWSAccessKeyID != "" && cfg.AWSSecretKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AWSAccessKeyID, cfg.AWSSecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("load aws config: %w", err)
	}
	if cfg.AWSEndpointURL != "" {
		awsCfg.BaseEndpoint = aws.String(cfg.AWSEndpointURL)
	}
	return awsCfg, nil
}

func buildRecordStore(ctx context.Context, cfg config.Config, awsCfg aws.Config, logger *zap.Logger, a *app) (cache.RecordStore, error) {
	var clients cache.Clients

	switch cfg.CacheBackend {
	case cache.BackendRedis:
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		a.closers = append(a.closers, rdb.Close)
		clients.Redis = rdb
	case cache.BackendDynamoDB:
		clients.DynamoDB = dynamodb.NewFromConfig(awsCfg)
	}

	store, err := cache.NewRecordStore(cache.Config{
		Backend: cfg.CacheBackend,
		Prefix:  cfg.CachePrefix,
		TTL:     cfg.CacheTTL,
		Table:   cfg.DynamoDBTable,
	}, clients)
	if err != nil {
		return nil, err
	}

	// Fail fast if the backend is misconfigured
	if p, ok := store.(interface{ Ping(context.Context) error }); ok {
		if err := p.Ping(ctx); err != nil {
			logger.Error("record store unreachable", zap.String("backend", cfg.CacheBackend), zap.Error(err))
			return nil, err
		}
		logger.Info("record store connection established", zap.String("backend", cfg.CacheBackend))
	}
	return cache.NewLoggingRecordStore(store), nil
}

func buildEngine(ctx context.Context, cfg config.Config, awsCfg aws.Config, a *app) (synth.Engine, error) {
	switch cfg.TTSEngine {
	case "polly":
		return synth.NewPollyEngine(polly.NewFromConfig(awsCfg), synth.PollyConfig{
			Voice:    cfg.TTSVoice,
			Language: cfg.TTSLanguage,
			Neural:   cfg.TTSNeural,
		}), nil
	case "openai":
		oc := openai.DefaultConfig(cfg.OpenAIAPIKey)
		if cfg.OpenAIBaseURL != "" {
			oc.BaseURL = strings.TrimRight(cfg.OpenAIBaseURL, "/")
		}
		return synth.NewOpenAIEngine(openai.NewClientWithConfig(oc), synth.OpenAIConfig{
			Model: cfg.OpenAITTSModel,
			Voice: cfg.TTSVoice,
		}), nil
	case "google":
		client, err := texttospeech.NewClient(ctx)
		if err != nil {
			return nil, fmt.Errorf("google text-to-speech client: %w", err)
		}
		a.closers = append(a.closers, client.Close)
		return synth.NewGoogleEngine(client, synth.GoogleConfig{
			Language: cfg.TTSLanguage,
			Voice:    cfg.TTSVoice,
		}), nil
	default:
		return nil, fmt.Errorf("unknown tts engine %q", cfg.TTSEngine)
	}
}

func buildPublisher(cfg config.Config, awsCfg aws.Config, a *app) (synth.Publisher, error) {
	switch cfg.StorageBackend {
	case "s3":
		client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
			// custom endpoints (localstack, minio) rarely support virtual hosts
			o.UsePathStyle = cfg.AWSEndpointURL != ""
		})
		return synth.NewS3Publisher(manager.NewUploader(client), synth.S3Config{
			Bucket:        cfg.S3Bucket,
			Region:        cfg.AWSRegion,
			PublicBaseURL: cfg.PublicBaseURL,
		})
	case "memory":
		base := cfg.PublicBaseURL
		if base == "" {
			base = "http://localhost:" + cfg.Port
		}
		pub := synth.NewMemoryPublisher(strings.TrimRight(base, "/") + httpserver.MediaPath)
		a.media = pub
		return pub, nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
	}
}
