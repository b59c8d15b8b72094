package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/parishpush/internal/config"
	"github.com/parishpush/internal/infrastructure/awsconfig"
	"github.com/parishpush/internal/infrastructure/dynamo"
	jwtinfra "github.com/parishpush/internal/infrastructure/jwt"
	redisinfra "github.com/parishpush/internal/infrastructure/redis"
	s3infra "github.com/parishpush/internal/infrastructure/s3"
	snsinfra "github.com/parishpush/internal/infrastructure/sns"
	webpushinfra "github.com/parishpush/internal/infrastructure/webpush"
	"github.com/parishpush/internal/pkg/logger"
	"github.com/parishpush/internal/pkg/metrics"
	"github.com/parishpush/internal/pkg/worker"
	"github.com/parishpush/internal/stream"
	transporthttp "github.com/parishpush/internal/transport/http"
)

func main() {
	envErr := godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(logger.Options{
		ServiceName: "parishpush",
		Level:       logger.ParseLevel(cfg.LogLevel),
		Format:      cfg.LogFormat,
	})
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if envErr != nil {
		log.Info(ctx, "no .env file found, reading from environment")
	}
	fatal := func(msg string, err error) {
		log.Error(ctx, msg, err)
		os.Exit(1)
	}

	awsCfg, err := awsconfig.Load(ctx, cfg)
	if err != nil {
		fatal("aws config", err)
	}

	// Bootstrap DynamoDB tables (creates them if they don't exist).
	dynamoClient := dynamo.NewClient(awsCfg, cfg.AWSEndpointURL)
	dynamo.Bootstrap(ctx, dynamoClient, cfg.DynamoTables, log)

	pusher, err := webpushinfra.NewSender(webpushinfra.Options{
		PublicKey:  cfg.VAPIDPublicKey,
		PrivateKey: cfg.VAPIDPrivateKey,
		Subject:    cfg.VAPIDSubject,
		TTL:        cfg.PushTTL,
	})
	if err != nil {
		fatal("web push sender (generate keys with cmd/vapidkeys)", err)
	}

	// JWT provider (optional: user routes answer 401 without it).
	var jwtProvider *jwtinfra.Provider
	if p, err := jwtinfra.NewProvider(cfg); err == nil {
		jwtProvider = p
	} else {
		log.Warn(ctx, "JWT provider not available", err)
	}
	if cfg.APISecretKey == "" {
		log.Warn(ctx, "API_SECRET_KEY is empty, /notifications/send rejects every call", nil)
	}

	blobs := s3infra.NewStore(s3infra.NewClient(awsCfg, cfg.AWSEndpointURL), cfg.S3BucketName, cfg.S3PresignTTL)
	topic := snsinfra.NewPublisher(snsinfra.NewClient(awsCfg, cfg.AWSEndpointURL), cfg.SNSTopicARN)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	pushMetrics := metrics.NewPushMetrics(reg)

	pool, err := worker.New("broadcast", cfg.Broadcast.Workers, log)
	if err != nil {
		fatal("worker pool", err)
	}
	defer pool.Shutdown(10 * time.Second)

	hub := stream.NewHub(log)
	var events transporthttp.EventPublisher = hub
	if cfg.RedisURL != "" {
		relay, err := redisinfra.New(ctx, cfg.RedisURL, hub, log)
		if err != nil {
			fatal("redis relay", err)
		}
		defer relay.Close()
		go func() {
			if err := relay.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error(ctx, "redis relay stopped", err)
			}
		}()
		events = relay
	}

	deps := &transporthttp.Deps{
		NotificationRepo: dynamo.NewNotificationRepo(dynamoClient, cfg.DynamoTables.Notifications),
		PreferenceRepo:   dynamo.NewPreferenceRepo(dynamoClient, cfg.DynamoTables.Preferences),
		SubscriptionRepo: dynamo.NewSubscriptionRepo(dynamoClient, cfg.DynamoTables.Subscriptions),
		ReceiptRepo:      dynamo.NewReceiptRepo(dynamoClient, cfg.DynamoTables.ReadReceipts),
		FollowerRepo:     dynamo.NewFollowerRepo(dynamoClient, cfg.DynamoTables.ParishFollowers),
		OwnerRepo:        dynamo.NewOwnerRepo(dynamoClient, cfg.DynamoTables.ParishOwners),
		Blobs:            blobs,
		Pusher:           pusher,
		Events:           events,
		Topic:            topic,
		Hub:              hub,
		JWTProvider:      jwtProvider,
		Pool:             pool,
		Metrics:          pushMetrics,
		MetricsHandler:   promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		Log:              log,
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.AppPort),
		Handler:           transporthttp.NewRouter(cfg, deps),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		// A broadcast answers only after its deadline at worst.
		WriteTimeout: cfg.Broadcast.Deadline + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Zerolog(ctx).Info().Str("port", cfg.AppPort).Str("env", cfg.AppEnv).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			fatal("server error", err)
		}
	}()

	<-ctx.Done()

	log.Info(context.Background(), "shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(shutdownCtx, "forced shutdown", err)
	}
	log.Info(shutdownCtx, "server stopped")
}
