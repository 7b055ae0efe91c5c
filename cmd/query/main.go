// Command query scans every address of one wallet type with keyset
// pagination and prints how long it took. QUERY_COMPARE_RAW repeats the scan
// with hand-written SQL and QUERY_COMPARE_OFFSET with LIMIT/OFFSET.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/Alp4ka/addrscan"
	"github.com/Alp4ka/addrscan/internal/config"
	"github.com/Alp4ka/addrscan/internal/database"
	"github.com/Alp4ka/addrscan/internal/logging"
	"github.com/Alp4ka/addrscan/internal/metrics"
	"github.com/Alp4ka/addrscan/internal/report"
)

func main() {
	os.Exit(runMain(os.Stdout, os.Stderr))
}

// runMain returns the process exit code instead of exiting, so its deferred
// calls run before main exits.
func runMain(stdout, stderr io.Writer) int {
	bootLog := logrus.New()
	bootLog.SetOutput(stderr)

	cfg, err := config.Load()
	if err != nil {
		bootLog.Errorf("load config: %v", err)
		return 1
	}

	log, err := logging.New(stderr, cfg.Log.Level)
	if err != nil {
		bootLog.Errorf("setup logger: %v", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err = run(ctx, cfg, log, stdout); err != nil {
		log.Errorf("query failed: %v", err)
		return 1
	}

	return 0
}

func run(ctx context.Context, cfg *config.Config, log logrus.FieldLogger, out io.Writer) error {
	db, err := database.Open(cfg.DB)
	if err != nil {
		return err
	}
	defer func() {
		if err := database.Close(db); err != nil {
			log.Warnf("close database: %v", err)
		}
	}()

	if err = addrscan.Migrate(ctx, db); err != nil {
		return err
	}

	checkpoint, closeCheckpoint, err := openCheckpoint(ctx, cfg.Checkpoint)
	if err != nil {
		return err
	}
	defer closeCheckpoint()

	start, err := checkpoint.Load(ctx)
	if err != nil {
		return err
	}
	if start != nil {
		log.WithField("cursor", *start).Info("resuming scan from checkpoint")
	}

	var opts []addrscan.PaginatorOption
	if cfg.Query.Lookahead {
		opts = append(opts, addrscan.WithPageLookahead())
	}
	paginator, err := addrscan.NewKeysetPaginator(db, cfg.Query.WalletType, cfg.Query.PageSize, opts...)
	if err != nil {
		return err
	}

	log.WithFields(logrus.Fields{
		"wallet_type": paginator.WalletType(),
		"page_size":   paginator.PageSize(),
		"lookahead":   cfg.Query.Lookahead,
	}).Info("scanning wallet addresses")

	m := metrics.New()
	stats, err := addrscan.Scan(ctx, paginator, start,
		addrscan.WithPageObserver(m.PageObserver(metrics.StrategyKeyset)),
		addrscan.WithCheckpoint(checkpoint),
		addrscan.WithScanLogger(log),
	)
	if err != nil {
		return fmt.Errorf("keyset scan after %d rows: %w", stats.Rows, err)
	}

	timings := []report.Timing{
		{Label: "keyset", Count: int64(stats.Rows), Unit: "rows", Elapsed: stats.Elapsed},
		{Label: "keyset", Count: int64(stats.Queries), Unit: "queries", Elapsed: stats.Elapsed},
	}

	if cfg.Query.CompareRaw {
		raw, err := addrscan.NewRawKeysetPaginator(db, cfg.Query.WalletType, cfg.Query.PageSize)
		if err != nil {
			return err
		}

		rawStats, err := addrscan.Scan(ctx, raw, nil,
			addrscan.WithPageObserver(m.PageObserver(metrics.StrategyRaw)),
			addrscan.WithScanLogger(log),
		)
		if err != nil {
			return fmt.Errorf("raw keyset scan after %d rows: %w", rawStats.Rows, err)
		}

		timings = append(timings,
			report.Timing{Label: "raw", Count: int64(rawStats.Rows), Unit: "rows", Elapsed: rawStats.Elapsed},
			report.Timing{Label: "raw", Count: int64(rawStats.Queries), Unit: "queries", Elapsed: rawStats.Elapsed},
		)
	}

	if cfg.Query.CompareOffset {
		offset, err := addrscan.NewOffsetPaginator(db, cfg.Query.WalletType, cfg.Query.PageSize)
		if err != nil {
			return err
		}

		offsetStats, err := addrscan.ScanOffset(ctx, offset,
			addrscan.WithPageObserver(m.PageObserver(metrics.StrategyOffset)),
			addrscan.WithScanLogger(log),
		)
		if err != nil {
			return fmt.Errorf("offset scan after %d rows: %w", offsetStats.Rows, err)
		}

		timings = append(timings,
			report.Timing{Label: "offset", Count: int64(offsetStats.Rows), Unit: "rows", Elapsed: offsetStats.Elapsed},
			report.Timing{Label: "offset", Count: int64(offsetStats.Queries), Unit: "queries", Elapsed: offsetStats.Elapsed},
		)
	}

	if err = report.Print(out, timings...); err != nil {
		return err
	}

	if cfg.Metrics.File != "" {
		if err = m.WriteTextfile(cfg.Metrics.File); err != nil {
			return fmt.Errorf("write metrics: %w", err)
		}
	}

	return nil
}

// openCheckpoint returns the Redis checkpoint when an address is configured
// and an in-memory one otherwise.
func openCheckpoint(ctx context.Context, cfg config.CheckpointConfig) (addrscan.CheckpointStore, func(), error) {
	if cfg.RedisAddr == "" {
		return addrscan.NewMemoryCheckpoint(), func() {}, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("connect to checkpoint redis: %w", err)
	}

	return addrscan.NewRedisCheckpoint(client, cfg.Key, cfg.TTL), func() { _ = client.Close() }, nil
}
