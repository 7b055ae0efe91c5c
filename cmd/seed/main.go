// Command seed fills wallet_addresses with synthetic records in fixed-size
// batches and prints how long it took.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

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
		log.Errorf("seed failed: %v", err)
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

	if cfg.Seed.Reset {
		err = addrscan.Reset(ctx, db)
	} else {
		err = addrscan.Migrate(ctx, db)
	}
	if err != nil {
		return err
	}

	gen := addrscan.NewGenerator()
	gen.IDPrefix = cfg.Seed.IDPrefix
	gen.IDWidth = cfg.Seed.IDWidth
	gen.AddressesPerWallet = cfg.Seed.AddressesPerWallet

	m := metrics.New()
	loader, err := addrscan.NewBulkLoader(db, gen, cfg.Seed.BatchSize,
		addrscan.WithBatchObserver(m),
		addrscan.WithLoaderLogger(log),
	)
	if err != nil {
		return err
	}

	log.WithFields(logrus.Fields{
		"total":      cfg.Seed.Total,
		"batch_size": cfg.Seed.BatchSize,
		"dialect":    cfg.DB.Dialect,
	}).Info("seeding wallet addresses")

	stats, err := loader.Load(ctx, cfg.Seed.Total)
	if err != nil {
		return fmt.Errorf("after %d rows: %w", stats.Rows, err)
	}

	err = report.Print(out,
		report.Timing{Label: "insert", Count: int64(stats.Rows), Unit: "rows", Elapsed: stats.Elapsed},
		report.Timing{Label: "commit", Count: int64(stats.Batches), Unit: "batches", Elapsed: stats.Elapsed},
	)
	if err != nil {
		return err
	}

	if cfg.Metrics.File != "" {
		if err = m.WriteTextfile(cfg.Metrics.File); err != nil {
			return fmt.Errorf("write metrics: %w", err)
		}
	}

	return nil
}
