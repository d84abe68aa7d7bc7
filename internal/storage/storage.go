// Package storage opens the configured book store.
package storage

import (
	"context"
	"fmt"
	"strings"

	"bookreview/internal/book"
	"bookreview/internal/config"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// Store is an open connection to the backing store.
type Store struct {
	Driver string
	Books  book.Repository

	// Pool is set for the postgres driver only.
	Pool *pgxpool.Pool

	close func(context.Context) error
}

// Close releases the store connection.
func (s *Store) Close(ctx context.Context) error {
	if s.close == nil {
		return nil
	}
	return s.close(ctx)
}

// Open connects to the store named by cfg.Driver and verifies it answers.
func Open(ctx context.Context, cfg config.StoreConfig) (*Store, error) {
	switch cfg.Driver {
	case config.DriverMongo:
		return openMongo(ctx, cfg)
	case config.DriverPostgres:
		return openPostgres(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}

func openMongo(ctx context.Context, cfg config.StoreConfig) (*Store, error) {
	opts := options.Client().
		ApplyURI(cfg.MongoURI).
		SetConnectTimeout(cfg.ConnectTimeout.Std()).
		SetServerSelectionTimeout(cfg.ConnectTimeout.Std())

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("connect mongo (%s): %w", RedactDSN(cfg.MongoURI), err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout.Std())
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo (%s): %w", RedactDSN(cfg.MongoURI), err)
	}

	return &Store{
		Driver: config.DriverMongo,
		Books:  book.NewMongoRepo(client.Database(cfg.Database), cfg.QueryTimeout.Std()),
		close:  client.Disconnect,
	}, nil
}

func openPostgres(ctx context.Context, cfg config.StoreConfig) (*Store, error) {
	pool, err := pgxpool.New(ctx, cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("create db pool (%s): %w", RedactDSN(cfg.PostgresDSN), err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout.Std())
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database (%s): %w", RedactDSN(cfg.PostgresDSN), err)
	}

	return &Store{
		Driver: config.DriverPostgres,
		Books:  book.NewPostgresRepo(pool, cfg.QueryTimeout.Std()),
		Pool:   pool,
		close: func(context.Context) error {
			pool.Close()
			return nil
		},
	}, nil
}

// RedactDSN hides the credentials of a connection string.
func RedactDSN(dsn string) string {
	const marker = "://"
	start := strings.Index(dsn, marker)
	if start < 0 {
		return dsn
	}
	start += len(marker)
	end := strings.Index(dsn[start:], "@")
	if end < 0 {
		return dsn
	}
	return dsn[:start] + "***" + dsn[start+end:]
}
