// Command update sets the balance of every address of one wallet type in a
// single statement and prints how long it took.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

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
		log.Errorf("update failed: %v", err)
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

	log.WithFields(logrus.Fields{
		"wallet_type": cfg.Update.WalletType,
		"balance":     cfg.Update.Balance,
	}).Info("updating balances")

	started := time.Now()
	affected, err := addrscan.NewBulkUpdater(db).UpdateBalance(ctx, cfg.Update.WalletType, cfg.Update.Balance)
	if err != nil {
		return err
	}
	elapsed := time.Since(started)

	m := metrics.New()
	m.ObserveUpdate(affected, elapsed)

	err = report.Print(out, report.Timing{Label: "update", Count: affected, Unit: "rows", Elapsed: elapsed})
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
