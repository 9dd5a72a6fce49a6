package server

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/avast/retry-go"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/dmitrijs2005/plantops/internal/clock"
	"github.com/dmitrijs2005/plantops/internal/logging"
	"github.com/dmitrijs2005/plantops/internal/server/config"
	"github.com/dmitrijs2005/plantops/internal/server/generator"
	"github.com/dmitrijs2005/plantops/internal/server/lock"
	"github.com/dmitrijs2005/plantops/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/plantops/internal/server/repositories/taskinstances"
	"github.com/dmitrijs2005/plantops/internal/server/repositories/taskmasters"
)

const lockPrefix = "plantops:"

// Stores may come up after the server; connecting is retried.
var (
	connectAttempts uint = 5
	connectDelay         = time.Second
	openDB               = repomanager.Open
)

func withRetry(ctx context.Context, fn func() error) error {
	return retry.Do(fn,
		retry.Context(ctx),
		retry.Attempts(connectAttempts),
		retry.Delay(connectDelay),
		retry.LastErrorOnly(true),
	)
}

// Stores holds the open connections of one process.
type Stores struct {
	DB          *sql.DB
	Repos       repomanager.RepositoryManager
	Mongo       *mongo.Client
	TaskMasters *taskmasters.MongoRepository
	Instances   *taskinstances.MongoRepository
	Redis       *redis.Client
	Locker      lock.Locker
}

// OpenPostgres connects to the relational store and applies the embedded
// migrations.
func OpenPostgres(ctx context.Context, cfg *config.Config) (*sql.DB, repomanager.RepositoryManager, error) {
	var db *sql.DB
	err := withRetry(ctx, func() error {
		var err error
		db, err = openDB(ctx, cfg.DatabaseDSN)
		return err
	})
	if err != nil {
		return nil, nil, fmt.Errorf("db init error: %w", err)
	}

	rm, err := repomanager.NewPostgresRepositoryManager(db)
	if err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("db init error: %w", err)
	}

	if err := rm.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("migrations error: %w", err)
	}
	return db, rm, nil
}

// OpenMongo connects to the document store and makes sure its indexes exist.
func OpenMongo(ctx context.Context, cfg *config.Config) (*mongo.Client, *taskmasters.MongoRepository, *taskinstances.MongoRepository, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		return nil, nil, nil, fmt.Errorf("mongo init error: %w", err)
	}
	if err := withRetry(ctx, func() error { return client.Ping(ctx, readpref.Primary()) }); err != nil {
		_ = client.Disconnect(context.WithoutCancel(ctx))
		return nil, nil, nil, fmt.Errorf("mongo init error: %w", err)
	}

	db := client.Database(cfg.MongoDatabase)
	tm := taskmasters.NewMongoRepository(db)
	ti := taskinstances.NewMongoRepository(db)

	if err := tm.EnsureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.WithoutCancel(ctx))
		return nil, nil, nil, fmt.Errorf("mongo indexes: %w", err)
	}
	if err := ti.EnsureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.WithoutCancel(ctx))
		return nil, nil, nil, fmt.Errorf("mongo indexes: %w", err)
	}
	return client, tm, ti, nil
}

// NewLocker returns a Redis-backed locker when RedisAddr is set and an
// in-process one otherwise. The returned client is nil in the latter case.
func NewLocker(ctx context.Context, cfg *config.Config, c clock.Clock) (lock.Locker, *redis.Client, error) {
	if cfg.RedisAddr == "" {
		return lock.NewMemoryLocker(c), nil, nil
	}

	client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("redis init error: %w", err)
	}
	return lock.NewRedisLocker(client, lockPrefix), client, nil
}

// OpenStores opens every backing store named in cfg.
func OpenStores(ctx context.Context, cfg *config.Config, c clock.Clock) (*Stores, error) {
	s := &Stores{}

	var err error
	if s.DB, s.Repos, err = OpenPostgres(ctx, cfg); err != nil {
		return nil, err
	}
	if s.Mongo, s.TaskMasters, s.Instances, err = OpenMongo(ctx, cfg); err != nil {
		s.Close(ctx)
		return nil, err
	}
	if s.Locker, s.Redis, err = NewLocker(ctx, cfg, c); err != nil {
		s.Close(ctx)
		return nil, err
	}
	return s, nil
}

// Close releases every open connection. It is safe on a partially opened value.
func (s *Stores) Close(ctx context.Context) {
	if s.Redis != nil {
		_ = s.Redis.Close()
	}
	if s.Mongo != nil {
		_ = s.Mongo.Disconnect(context.WithoutCancel(ctx))
	}
	if s.DB != nil {
		_ = s.DB.Close()
	}
}

// NewGenerator builds the task generator over the open stores.
func NewGenerator(s *Stores, cfg *config.Config, logger logging.Logger) (*generator.Generator, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	return generator.New(s.TaskMasters, s.Instances, s.Locker, logger, generator.Options{
		Location:    loc,
		StepTimeout: cfg.GenerationStepTimeout,
		LockTTL:     cfg.GenerationLockTTL,
	}), nil
}
