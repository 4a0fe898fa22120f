// Package core wires configuration to a concrete storage backend.
package core

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"fishlog/internal/blob"
	"fishlog/internal/config"
	"fishlog/internal/infra/storage/local"
	"fishlog/internal/infra/storage/memory"
	"fishlog/internal/infra/storage/postgres"
	"fishlog/internal/infra/storage/remote"
	"fishlog/internal/infra/storage/sqlite"
	"fishlog/internal/logging"
	"fishlog/internal/storage"
)

// ShutdownFunc releases a provider; it drains background transfers when the
// backend has any.
type ShutdownFunc func(ctx context.Context) error

// OpenProvider selects a backend from cfg.Storage.Driver:
//
//	local:    files under cfg.Storage.DataDir (default)
//	remote:   asynchronous object store (cfg.S3)
//	sqlite:   cfg.Storage.SQLitePath
//	postgres: cfg.Storage.PostgresDSN
//	memory:   in-process, nothing survives the process
//
// reg may be nil; it only receives the remote backend metrics.
func OpenProvider(ctx context.Context, cfg *config.Config, logger logging.Logger, reg prometheus.Registerer) (storage.Provider, ShutdownFunc, error) {
	logger = logging.OrNoop(logger)
	switch storage.Driver(cfg.Storage.Driver) {
	case storage.DriverLocal, "":
		p, err := local.New(cfg.Storage.DataDir, local.WithLogger(logger))
		if err != nil {
			return nil, nil, fmt.Errorf("open local storage: %w", err)
		}
		return p, noShutdown, nil
	case storage.DriverRemote:
		objects, err := blob.Open(ctx, cfg.S3.BlobDriver, blob.S3Config{
			Region:          cfg.S3.Region,
			Bucket:          cfg.S3.Bucket,
			Prefix:          cfg.S3.Prefix,
			Endpoint:        cfg.S3.Endpoint,
			AccessKeyID:     cfg.S3.AccessKey,
			SecretAccessKey: cfg.S3.SecretKey,
			PathStyle:       cfg.S3.PathStyle,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("open object store: %w", err)
		}
		p := remote.New(objects,
			remote.WithLogger(logger),
			remote.WithPipeCapacity(cfg.Remote.PipeCapacity),
			remote.WithDrainTimeout(cfg.Remote.DrainTimeout),
			remote.WithMetrics(remote.NewMetrics(reg)),
		)
		return p, p.Shutdown, nil
	case storage.DriverSQLite:
		p, err := sqlite.New(ctx, cfg.Storage.SQLitePath, logger)
		if err != nil {
			return nil, nil, err
		}
		return p, p.Shutdown, nil
	case storage.DriverPostgres:
		p, err := postgres.New(ctx, cfg.Storage.PostgresDSN, logger)
		if err != nil {
			return nil, nil, err
		}
		return p, p.Shutdown, nil
	case storage.DriverMemory:
		return memory.New(), noShutdown, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage driver %s", cfg.Storage.Driver)
	}
}

func noShutdown(context.Context) error { return nil }
