package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	defaultAddr             = "127.0.0.1:8091"
	defaultSnapshotInterval = 5 * time.Minute
	defaultSnapshotKeep     = 10
	defaultLeaseTTL         = 30 * time.Second
)

type Config struct {
	InstancePath     string
	DBPath           string
	Addr             string
	RedisAddr        string
	Restore          bool
	LogLevel         slog.Level
	LogFormat        string
	SnapshotInterval time.Duration
	SnapshotKeep     int
	LeaseTTL         time.Duration
	HolderID         string
	ArchiveDir       string
}

func LoadConfig(args []string) (Config, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return Config{}, fmt.Errorf("failed to get cwd: %w", err)
	}

	instancePath := envOrDefault("SCHEDGRAPH_INSTANCE_PATH", filepath.Join(cwd, "instance.json"))
	dbPath := envOrDefault("SCHEDGRAPH_DB_PATH", filepath.Join(cwd, "schedgraph.db"))
	addr := addrFromEnv(defaultAddr)
	redisAddr := os.Getenv("SCHEDGRAPH_REDIS_ADDR")
	logLevel := envOrDefault("SCHEDGRAPH_LOG_LEVEL", "info")
	logFormat := envOrDefault("SCHEDGRAPH_LOG_FORMAT", "json")
	holderID := envOrDefault("SCHEDGRAPH_HOLDER_ID", defaultHolderID())
	archiveDir := os.Getenv("SCHEDGRAPH_ARCHIVE_DIR")

	restore := false
	if v := os.Getenv("SCHEDGRAPH_RESTORE"); v != "" {
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid SCHEDGRAPH_RESTORE: %w", err)
		}
		restore = parsed
	}

	snapshotInterval, err := durationFromEnv("SCHEDGRAPH_SNAPSHOT_INTERVAL", defaultSnapshotInterval)
	if err != nil {
		return Config{}, err
	}
	leaseTTL, err := durationFromEnv("SCHEDGRAPH_LEASE_TTL", defaultLeaseTTL)
	if err != nil {
		return Config{}, err
	}
	snapshotKeep := defaultSnapshotKeep
	if v := os.Getenv("SCHEDGRAPH_SNAPSHOT_KEEP"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid SCHEDGRAPH_SNAPSHOT_KEEP: %w", err)
		}
		snapshotKeep = parsed
	}

	flagSet := flag.NewFlagSet("schedgraph-d", flag.ContinueOnError)
	flagSet.SetOutput(io.Discard)
	flagInstance := flagSet.String("instance", instancePath, "path to the instance JSON file")
	flagDB := flagSet.String("db", dbPath, "path to SQLite database")
	flagAddr := flagSet.String("addr", addr, "HTTP listen address")
	flagRedis := flagSet.String("redis-addr", redisAddr, "Redis address for the capacity ledger (empty keeps it in memory)")
	flagRestore := flagSet.Bool("restore", restore, "restore the ledger from the latest snapshot")
	flagLogLevel := flagSet.String("log-level", logLevel, "log level: debug|info|warn|error")
	flagLogFormat := flagSet.String("log-format", logFormat, "log format: json|text")
	flagSnapshotInterval := flagSet.Duration("snapshot-interval", snapshotInterval, "interval between ledger snapshots")
	flagSnapshotKeep := flagSet.Int("snapshot-keep", snapshotKeep, "number of snapshots kept after pruning")
	flagLeaseTTL := flagSet.Duration("lease-ttl", leaseTTL, "snapshot writer lease TTL")
	flagHolder := flagSet.String("holder-id", holderID, "identity used when acquiring the writer lease")
	flagArchive := flagSet.String("archive-dir", archiveDir, "directory receiving pruned snapshots (empty disables archiving)")

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			flagSet.SetOutput(os.Stdout)
			flagSet.PrintDefaults()
			return Config{}, err
		}
		return Config{}, err
	}

	level, err := parseLogLevel(*flagLogLevel)
	if err != nil {
		return Config{}, err
	}

	config := Config{
		InstancePath:     resolvePath(*flagInstance, cwd),
		DBPath:           resolvePath(*flagDB, cwd),
		Addr:             strings.TrimSpace(*flagAddr),
		RedisAddr:        strings.TrimSpace(*flagRedis),
		Restore:          *flagRestore,
		LogLevel:         level,
		LogFormat:        strings.ToLower(strings.TrimSpace(*flagLogFormat)),
		SnapshotInterval: *flagSnapshotInterval,
		SnapshotKeep:     *flagSnapshotKeep,
		LeaseTTL:         *flagLeaseTTL,
		HolderID:         strings.TrimSpace(*flagHolder),
		ArchiveDir:       resolvePath(*flagArchive, cwd),
	}

	if config.Addr == "" {
		return Config{}, errors.New("addr cannot be empty")
	}
	if config.InstancePath == "" {
		return Config{}, errors.New("instance path cannot be empty")
	}
	if config.LogFormat != "json" && config.LogFormat != "text" {
		return Config{}, fmt.Errorf("unsupported log format: %s", config.LogFormat)
	}
	if config.SnapshotInterval <= 0 {
		return Config{}, errors.New("snapshot interval must be positive")
	}
	if config.SnapshotKeep < 1 {
		return Config{}, errors.New("snapshot keep must be at least 1")
	}
	if config.LeaseTTL < time.Second {
		return Config{}, errors.New("lease ttl must be at least 1s")
	}
	if config.HolderID == "" {
		return Config{}, errors.New("holder id cannot be empty")
	}

	return config, nil
}

func envOrDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func durationFromEnv(key string, fallback time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return parsed, nil
}

func addrFromEnv(fallback string) string {
	if value := os.Getenv("SCHEDGRAPH_ADDR"); value != "" {
		return value
	}
	if port := os.Getenv("SCHEDGRAPH_PORT"); port != "" {
		return fmt.Sprintf("127.0.0.1:%s", port)
	}
	return fallback
}

func resolvePath(path string, cwd string) string {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return trimmed
	}
	if filepath.IsAbs(trimmed) {
		return trimmed
	}
	return filepath.Join(cwd, trimmed)
}

func parseLogLevel(raw string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(raw))); err != nil {
		return 0, fmt.Errorf("invalid log level %q: %w", raw, err)
	}
	return level, nil
}

// defaultHolderID is unique per process start, so a restarted daemon never
// renews a lease its previous run held.
func defaultHolderID() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "schedgraph"
	}
	return fmt.Sprintf("%s-%s", host, uuid.NewString()[:8])
}
