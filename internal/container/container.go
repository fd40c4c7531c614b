package container

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/storage"
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/tapvote/config"
	"github.com/oksasatya/tapvote/internal/application"
	"github.com/oksasatya/tapvote/internal/domain/repository"
	"github.com/oksasatya/tapvote/internal/infrastructure/memory"
	pginfra "github.com/oksasatya/tapvote/internal/infrastructure/postgres"
	"github.com/oksasatya/tapvote/internal/infrastructure/redisstore"
	"github.com/oksasatya/tapvote/pkg/helpers"
)

// Container owns every infrastructure handle of the process. It is built
// once by Build, passed explicitly to the router and workers, and released
// with Close.
type Container struct {
	Config *config.Config
	Logger *logrus.Logger

	PGPool *pgxpool.Pool
	Redis  *redis.Client
	GCS    *storage.Client
	ES     *elasticsearch.Client
	Rabbit *helpers.RabbitPublisher

	Store       repository.Store
	Idempotency repository.IdempotencyStore
	PollIndex   *application.PollIndex

	Economy *application.EconomyService
	Polls   *application.PollService

	closers []func()
}

// Options selects which optional integrations Build connects.
type Options struct {
	RunMigrations bool
	WithRedis     bool
	WithGCS       bool
	WithRabbit    bool
	WithSearch    bool
}

// Build wires storage, integrations and services from cfg. Postgres (or the
// memory driver) is required; Redis, GCS, RabbitMQ and Elasticsearch are
// optional and skipped with a warning when unavailable.
func Build(ctx context.Context, cfg *config.Config, logger *logrus.Logger, opts Options) (*Container, error) {
	c := &Container{Config: cfg, Logger: logger}

	switch cfg.StorageDriver {
	case "memory":
		c.Store = memory.NewStore()
		logger.Warn("using in-memory storage; data is lost on restart")
	case "postgres", "":
		pool, err := pginfra.NewPool(ctx, cfg.PostgresDSN(), pginfra.PoolOptions{
			MaxConns:    cfg.DBMaxConns,
			MinConns:    cfg.DBMinConns,
			MaxConnLife: cfg.DBMaxConnLife,
		})
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		c.PGPool = pool
		c.addCloser(pool.Close)
		if opts.RunMigrations {
			if err := pginfra.RunMigrations(cfg.PostgresDSN(), cfg.MigrationsDir, logger); err != nil {
				c.Close()
				return nil, fmt.Errorf("migrations: %w", err)
			}
		}
		c.Store = pginfra.NewStore(pool)
	default:
		return nil, errors.New("unknown STORAGE_DRIVER " + cfg.StorageDriver)
	}

	if opts.WithRedis && cfg.RedisAddr != "" {
		rdb := helpers.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.WithError(err).Warn("redis unavailable; rate limits and idempotency keys use fallbacks")
			_ = rdb.Close()
		} else {
			c.Redis = rdb
			c.addCloser(func() { _ = rdb.Close() })
		}
	}
	if c.Redis != nil {
		c.Idempotency = redisstore.NewIdempotencyStore(c.Redis, "idem:poll:")
	} else {
		c.Idempotency = memory.NewIdempotencyStore()
	}

	var avatars application.AvatarUploader
	if opts.WithGCS && cfg.GCSBucket != "" {
		gcs, err := helpers.NewGCSClient(ctx, cfg.GCSCredentialsJSONPath)
		if err != nil {
			logger.WithError(err).Warn("gcs unavailable; avatar upload disabled")
		} else {
			c.GCS = gcs
			c.addCloser(func() { _ = gcs.Close() })
			avatars = helpers.NewGCSUploader(gcs, cfg.GCSBucket)
		}
	}

	if opts.WithSearch && len(cfg.ESAddrs()) > 0 {
		es, err := helpers.NewESClient(cfg.ESAddrs(), cfg.ElasticsearchUser, cfg.ElasticsearchPass)
		if err != nil {
			logger.WithError(err).Warn("elasticsearch unavailable; poll search disabled")
		} else {
			c.ES = es
		}
	}
	c.PollIndex = application.NewPollIndex(c.ES, cfg.ESPollsIndex, logger)

	var events application.EventPublisher
	if opts.WithRabbit && cfg.RabbitMQURL != "" {
		pub, err := helpers.NewRabbitPublisher(cfg.RabbitMQURL, cfg.RabbitMQPollEventsQueue)
		if err != nil {
			logger.WithError(err).Warn("rabbitmq unavailable; poll events are indexed inline")
		} else {
			c.Rabbit = pub
			c.addCloser(pub.Close)
			events = pub
		}
	}

	loc := helpers.LoadLocation(cfg.EconomyTimezone)
	c.Economy = application.NewEconomyService(c.Store, avatars, logger, loc)
	c.Polls = application.NewPollService(c.Store, c.Idempotency, cfg.IdempotencyTTL, events, c.PollIndex, logger)
	return c, nil
}

func (c *Container) addCloser(fn func()) {
	c.closers = append(c.closers, fn)
}

// Close releases resources in reverse order of acquisition.
func (c *Container) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
	c.closers = nil
}
