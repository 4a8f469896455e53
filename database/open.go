package database

import (
	"context"
	"fmt"

	"github.com/krishkalaria12/snap-gallery/config"
	"github.com/krishkalaria12/snap-gallery/store"
	"github.com/krishkalaria12/snap-gallery/store/gormstore"
	"github.com/krishkalaria12/snap-gallery/store/mongostore"
)

// Open connects to the configured backend, prepares its schema and returns
// the store. Callers release it with Store.Close.
func Open(ctx context.Context, cfg *config.Config) (store.Store, error) {
	switch cfg.DBDriver {
	case config.DriverMongo:
		client, err := ConnectMongo(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		s := mongostore.New(client, cfg.MongoDatabase)
		if err := s.EnsureIndexes(ctx); err != nil {
			_ = s.Close(ctx)
			return nil, fmt.Errorf("ensure indexes: %w", err)
		}
		return s, nil

	case config.DriverPostgres:
		db, err := ConnectPostgres(cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		s := gormstore.New(db)
		if err := s.Migrate(); err != nil {
			_ = s.Close(ctx)
			return nil, fmt.Errorf("auto migrate: %w", err)
		}
		return s, nil

	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.DBDriver)
	}
}
