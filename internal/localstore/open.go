package localstore

import (
	"context"
	"fmt"

	"github.com/chrisdamba/menusync/internal/cloudwriter"
	"github.com/chrisdamba/menusync/internal/models"
	"github.com/chrisdamba/menusync/internal/repositories"
)

// Open builds the local store selected by cfg.LocalStore. The returned close func is
// never nil.
func Open(ctx context.Context, cfg *models.Config) (repositories.LocalStore, func() error, error) {
	noop := func() error { return nil }
	switch cfg.LocalStore.Driver {
	case "", "bolt":
		store, err := OpenBolt(cfg.LocalStore.Path)
		if err != nil {
			return nil, noop, err
		}
		return store, store.Close, nil
	case "s3":
		client, err := cloudwriter.NewS3Client(ctx, cfg.CloudStorage.Region)
		if err != nil {
			return nil, noop, err
		}
		return NewS3Store(client, cfg.CloudStorage.BucketName, cfg.CloudStorage.Prefix), noop, nil
	case "memory":
		return NewMemoryStore(), noop, nil
	default:
		return nil, noop, fmt.Errorf("unsupported local store driver: %s", cfg.LocalStore.Driver)
	}
}
