package app

import (
	"context"
	"fmt"
	"log/slog"

	s3blob "github.com/stylelend/rentbond/internal/blob/s3"
	"github.com/stylelend/rentbond/internal/bus"
	"github.com/stylelend/rentbond/internal/cache/redis"
	"github.com/stylelend/rentbond/internal/config"
	"github.com/stylelend/rentbond/internal/domain"
	"github.com/stylelend/rentbond/internal/feed"
	"github.com/stylelend/rentbond/internal/ledger"
	"github.com/stylelend/rentbond/internal/notify"
	"github.com/stylelend/rentbond/internal/store/memory"
	"github.com/stylelend/rentbond/internal/store/postgres"
)

// Dependencies bundles the concrete backings the services run on. Everything
// defaults to the in-process implementation; config flags swap in Redis,
// Postgres, S3, and chain-backed collaborators.
type Dependencies struct {
	// Stores
	QuoteStore   domain.QuoteStore
	BondStore    domain.BondStore
	ItemStore    domain.ItemProfileStore
	UserStore    domain.UserProfileStore
	HistoryStore domain.HistoryStore

	// Infrastructure
	SignalBus   domain.SignalBus
	RateLimiter domain.RateLimiter

	// External collaborators
	Ledger domain.PointsLedger
	Feed   domain.PriceFeed

	// Blob storage (nil unless S3 is enabled)
	BlobWriter domain.BlobWriter
	BlobReader domain.BlobReader
	Archiver   domain.Archiver

	// Notifications (nil when no sender is configured)
	Notifier *notify.Notifier
}

// Wire constructs all concrete dependency implementations from the given
// configuration and returns them together with a cleanup function to be
// called on shutdown.
func Wire(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	// In-process defaults. The core targets single-process, best-effort
	// semantics; the external backings below override selectively.
	deps := &Dependencies{
		QuoteStore:   memory.NewQuoteStore(),
		BondStore:    memory.NewBondStore(),
		ItemStore:    memory.NewItemProfileStore(),
		UserStore:    memory.NewUserProfileStore(),
		HistoryStore: memory.NewHistoryStore(),
		SignalBus:    bus.NewMemoryBus(),
		Ledger:       ledger.NewMemoryLedger(),
		Feed:         feed.NewMockFeed(),
	}

	// --- Redis: shared quote cache, rate limiter, cross-instance bus ---
	if cfg.Redis.Enabled {
		redisClient, err := redis.New(ctx, redis.ClientConfig{
			Addr:       cfg.Redis.Addr,
			Password:   cfg.Redis.Password,
			DB:         cfg.Redis.DB,
			PoolSize:   cfg.Redis.PoolSize,
			MaxRetries: cfg.Redis.MaxRetries,
			TLSEnabled: cfg.Redis.TLSEnabled,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: redis: %w", err)
		}
		closers = append(closers, func() { _ = redisClient.Close() })

		deps.QuoteStore = redis.NewQuoteStore(redisClient)
		deps.RateLimiter = redis.NewRateLimiter(redisClient)
		deps.SignalBus = redis.NewSignalBus(redisClient)
	}

	// --- Postgres: durable bond ledger and audit log ---
	if cfg.Postgres.Enabled {
		pgClient, err := postgres.New(ctx, postgres.ClientConfig{
			DSN:           cfg.Postgres.DSN,
			Host:          cfg.Postgres.Host,
			Port:          cfg.Postgres.Port,
			Database:      cfg.Postgres.Database,
			User:          cfg.Postgres.User,
			Password:      cfg.Postgres.Password,
			SSLMode:       cfg.Postgres.SSLMode,
			MaxConns:      cfg.Postgres.PoolMaxConns,
			MinConns:      cfg.Postgres.PoolMinConns,
			RunMigrations: cfg.Postgres.RunMigrations,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: postgres: %w", err)
		}
		closers = append(closers, pgClient.Close)

		deps.BondStore = postgres.NewBondStore(pgClient)
		deps.HistoryStore = postgres.NewHistoryStore(pgClient)
	}

	// --- S3: audit log exports ---
	if cfg.S3.Enabled {
		s3Client, err := s3blob.New(ctx, s3blob.ClientConfig{
			Endpoint:       cfg.S3.Endpoint,
			Region:         cfg.S3.Region,
			Bucket:         cfg.S3.Bucket,
			AccessKey:      cfg.S3.AccessKey,
			SecretKey:      cfg.S3.SecretKey,
			UseSSL:         cfg.S3.UseSSL,
			ForcePathStyle: cfg.S3.ForcePathStyle,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: s3: %w", err)
		}
		closers = append(closers, func() { _ = s3Client.Close() })

		deps.BlobWriter = s3blob.NewWriter(s3Client)
		deps.BlobReader = s3blob.NewReader(s3Client)
		deps.Archiver = s3blob.NewArchiver(deps.BlobWriter, deps.HistoryStore)
	}

	// --- Chain collaborators: points token ledger and FTSO FX feed ---
	if cfg.Chain.Enabled {
		if cfg.Chain.PointsContract != "" {
			chainLedger, err := ledger.NewChainLedger(ctx, cfg.Chain.RPCURL, cfg.Chain.PointsContract, cfg.Chain.PointsDecimals)
			if err != nil {
				cleanup()
				return nil, nil, fmt.Errorf("wire: chain ledger: %w", err)
			}
			closers = append(closers, chainLedger.Close)
			deps.Ledger = chainLedger
		}
		if cfg.Chain.FTSORegistry != "" {
			ftso, err := feed.NewFTSOFeed(ctx, cfg.Chain.RPCURL, cfg.Chain.FTSORegistry)
			if err != nil {
				cleanup()
				return nil, nil, fmt.Errorf("wire: ftso feed: %w", err)
			}
			closers = append(closers, ftso.Close)
			deps.Feed = ftso
		}
	}

	// --- Notifications ---
	var senders []notify.Sender
	if cfg.Notify.TelegramToken != "" && cfg.Notify.TelegramChatID != "" {
		senders = append(senders, notify.NewTelegramSender(cfg.Notify.TelegramToken, cfg.Notify.TelegramChatID))
	}
	if cfg.Notify.DiscordWebhookURL != "" {
		senders = append(senders, notify.NewDiscordSender(cfg.Notify.DiscordWebhookURL))
	}
	if len(senders) > 0 {
		deps.Notifier = notify.NewNotifier(senders, cfg.Notify.Events, logger)
	}

	return deps, cleanup, nil
}
