package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/rmax-ai/schedgraph/pkg/api"
	"github.com/rmax-ai/schedgraph/pkg/blob"
	"github.com/rmax-ai/schedgraph/pkg/instance"
	"github.com/rmax-ai/schedgraph/pkg/ledger"
	"github.com/rmax-ai/schedgraph/pkg/persist"
	"github.com/rmax-ai/schedgraph/pkg/store"
	storeredis "github.com/rmax-ai/schedgraph/pkg/store/redis"
)

func main() {
	cfg, err := LoadConfig(os.Args[1:])
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		slog.Error("invalid_config", "error", err)
		os.Exit(2)
	}

	logger := newLogger(cfg, os.Stdout)
	slog.SetDefault(logger)
	logger.Info("system_started", "instance", cfg.InstancePath, "db", cfg.DBPath)

	if err := run(cfg, logger); err != nil {
		logger.Error("fatal", "error", err)
		os.Exit(1)
	}
	logger.Info("shutdown_complete")
}

func run(cfg Config, logger *slog.Logger) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	st, err := store.NewStore(cfg.DBPath)
	if err != nil {
		return err
	}
	defer func() {
		if err := st.Close(); err != nil {
			logger.Error("failed_to_close_store", "error", err)
		} else {
			logger.Info("store_closed")
		}
	}()
	logger.Info("store_initialized", "path", cfg.DBPath)

	// The ledger and the writer lease live in Redis when configured, so
	// several daemons can share them; otherwise in memory and SQLite.
	var (
		resources ledger.ResourceStore = ledger.NewMemoryResourceStore()
		leases    store.LeaseStore     = st
	)
	if cfg.RedisAddr != "" {
		rdb := goredis.NewClient(&goredis.Options{Addr: cfg.RedisAddr})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			return err
		}
		redisResources := storeredis.NewRedisResourceStore(rdb, logger)
		redisResources.Clear()
		resources = redisResources
		leases = storeredis.NewRedisLeaseStore(rdb)
		logger.Info("redis_connected", "addr", cfg.RedisAddr)
	}

	inst, err := instance.Load(cfg.InstancePath)
	if err != nil {
		return err
	}
	res, err := instance.Build(inst, instance.BuildOptions{Logger: logger, Resources: resources})
	if err != nil {
		return err
	}
	res.Graph.Freeze()

	if cfg.Restore {
		snap, err := ledger.LoadLatestSnapshot(ctx, st, res.Parameters)
		if err != nil {
			return err
		}
		if snap == nil {
			logger.Warn("no_snapshot_to_restore")
		} else {
			logger.Info("snapshot_restored", "snapshot_id", snap.SnapshotID, "ts", snap.TsSnapshot)
		}
	}

	election := persist.NewElectionManager(leases, cfg.HolderID, persist.WriterLease, cfg.LeaseTTL, logger, nil, nil)
	election.Start(ctx)

	worker := persist.NewSnapshotWorker(st, res.Parameters, election.IsLeader, cfg.InstancePath, cfg.SnapshotInterval, cfg.SnapshotKeep, logger)
	if cfg.ArchiveDir != "" {
		worker.SetArchive(blob.NewLocalBlobStore(cfg.ArchiveDir))
		logger.Info("snapshot_archive_enabled", "dir", cfg.ArchiveDir)
	}
	if !cfg.Restore {
		if _, err := worker.TakeSnapshot(ctx); err != nil {
			logger.Error("initial_snapshot_failed", "error", err)
		}
	}
	go worker.Run(ctx)

	srv := api.NewServer(res.Graph, res.Parameters, cfg.Addr, logger)
	srv.SetWriterStatus(election)
	srvErr := make(chan error, 1)
	go func() { srvErr <- srv.Start() }()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	var runErr error
	select {
	case sig := <-sigs:
		logger.Info("shutdown_initiated", "signal", sig.String())
	case runErr = <-srvErr:
		logger.Error("server_failed", "error", runErr)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Stop(shutdownCtx); err != nil {
		logger.Error("server_shutdown_failed", "error", err)
	}
	cancel()

	if _, err := worker.TakeSnapshot(shutdownCtx); err != nil {
		logger.Error("final_snapshot_failed", "error", err)
	}
	election.Stop(shutdownCtx)

	return runErr
}
