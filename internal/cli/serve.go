package cli

import (
	"context"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/mmynk/splitledger/internal/auth"
	"github.com/mmynk/splitledger/internal/cache"
	"github.com/mmynk/splitledger/internal/config"
	"github.com/mmynk/splitledger/internal/events"
	"github.com/mmynk/splitledger/internal/ledger"
	"github.com/mmynk/splitledger/internal/server"
	"github.com/mmynk/splitledger/internal/service"
	"github.com/mmynk/splitledger/internal/storage/sqlite"
)

func init() {
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the Connect API server",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadServerConfig()
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	store, err := sqlite.New(cfg.Database.Path)
	if err != nil {
		return err
	}
	defer store.Close()
	slog.Info("Storage initialized", "database", cfg.Database.Path)

	plans, closePlans, err := newPlanCache(ctx, cfg.Cache)
	if err != nil {
		return err
	}
	defer closePlans()

	emitter, closeEmitter, err := newEmitter(cfg.Events, store)
	if err != nil {
		return err
	}
	defer closeEmitter()

	l := ledger.New(store, ledger.WithEmitter(emitter), ledger.WithPlanCache(plans))
	jwtManager := auth.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)

	srv := server.New(
		service.NewLedgerService(l),
		service.NewAuthService(auth.NewPasswordAuthenticator(store), store, jwtManager),
		jwtManager,
	)
	srv.SetCORSOrigin(cfg.Server.CORSOrigin)
	if cfg.Metrics.Enabled {
		srv.EnableMetrics()
	}

	return srv.ListenAndServe(ctx, cfg.Addr(), cfg.Server.ShutdownTimeout)
}

// newPlanCache picks Redis when an address is configured and the in-process
// LRU otherwise.
func newPlanCache(ctx context.Context, cfg config.CacheConfig) (cache.PlanCache, func(), error) {
	if cfg.RedisAddr == "" {
		slog.Info("Using in-memory plan cache", "max_groups", cfg.MaxGroups, "ttl", cfg.PlanTTL)
		return cache.NewMemoryPlanCache(cfg.MaxGroups, cfg.PlanTTL), func() {}, nil
	}

	c, err := cache.NewRedisPlanCache(ctx, cache.RedisConfig{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}, cfg.PlanTTL)
	if err != nil {
		return nil, nil, err
	}
	slog.Info("Using Redis plan cache", "addr", cfg.RedisAddr, "ttl", cfg.PlanTTL)
	return c, func() { c.Close() }, nil
}

// newEmitter always records activities in the store and also publishes them
// to RabbitMQ when configured.
func newEmitter(cfg config.EventsConfig, store *sqlite.SQLiteStore) (events.Emitter, func(), error) {
	recorder := events.NewStoreRecorder(store)
	if cfg.AMQPURL == "" {
		return recorder, func() {}, nil
	}

	publisher, err := events.NewAMQPPublisher(cfg.AMQPURL, cfg.AMQPExchange)
	if err != nil {
		return nil, nil, err
	}
	slog.Info("Publishing activities to AMQP", "exchange", cfg.AMQPExchange)
	return events.Multi{recorder, publisher}, func() { publisher.Close() }, nil
}
