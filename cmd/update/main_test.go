package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/samber/lo"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alp4ka/addrscan"
	"github.com/Alp4ka/addrscan/internal/config"
	"github.com/Alp4ka/addrscan/internal/database"
)

// seedDatabase loads 25 records in wallets of 5; 10 of them are api.
func seedDatabase(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()

	cfg := &config.Config{
		DB: config.DBConfig{
			Dialect:  config.DialectSQLite,
			DSN:      filepath.Join(dir, "wallet.db"),
			LogLevel: "silent",
		},
		Update: config.UpdateConfig{
			WalletType: addrscan.WalletTypeAPI,
			Balance:    "100.000000",
		},
		Metrics: config.MetricsConfig{
			File: filepath.Join(dir, "update.prom"),
		},
	}

	db, err := database.Open(cfg.DB)
	require.NoError(t, err)
	defer func() { _ = database.Close(db) }()

	require.NoError(t, addrscan.Migrate(context.Background(), db))

	gen := addrscan.NewGenerator()
	gen.AddressesPerWallet = 5
	loader, err := addrscan.NewBulkLoader(db, gen, 100)
	require.NoError(t, err)
	_, err = loader.Load(context.Background(), 25)
	require.NoError(t, err)

	return cfg
}

func balances(t *testing.T, cfg config.DBConfig) map[string]string {
	t.Helper()

	db, err := database.Open(cfg)
	require.NoError(t, err)
	defer func() { _ = database.Close(db) }()

	var rows []addrscan.AddressRecord
	require.NoError(t, db.Find(&rows).Error)

	return lo.SliceToMap(rows, func(r addrscan.AddressRecord) (string, string) {
		return r.ID, lo.FromPtr(r.Balance)
	})
}

func TestRun(t *testing.T) {
	cfg := seedDatabase(t)
	log, _ := test.NewNullLogger()

	var out bytes.Buffer
	require.NoError(t, run(context.Background(), cfg, log, &out))
	assert.Contains(t, out.String(), "update")
	assert.Contains(t, out.String(), "10 rows")

	after := balances(t, cfg.DB)
	updated := lo.Filter(lo.Values(after), func(b string, _ int) bool { return b == "100.000000" })
	assert.Len(t, updated, 10)

	prom, err := os.ReadFile(cfg.Metrics.File)
	require.NoError(t, err)
	assert.Contains(t, string(prom), "addrscan_update_rows_affected_total 10")

	require.NoError(t, run(context.Background(), cfg, log, &bytes.Buffer{}))
	assert.Equal(t, after, balances(t, cfg.DB), "a second run changes nothing")
}

func TestRun_EmptyWalletType(t *testing.T) {
	cfg := seedDatabase(t)
	cfg.Update.WalletType = ""
	log, _ := test.NewNullLogger()

	err := run(context.Background(), cfg, log, &bytes.Buffer{})
	require.ErrorIs(t, err, addrscan.ErrEmptyWalletType)
}

func TestRunMain(t *testing.T) {
	cfg := seedDatabase(t)
	t.Setenv("DB_DSN", cfg.DB.DSN)
	t.Setenv("DB_LOG_LEVEL", "silent")
	t.Setenv("UPDATE_BALANCE", "7.5")

	var stdout, stderr bytes.Buffer
	require.Equal(t, 0, runMain(&stdout, &stderr), stderr.String())
	assert.Contains(t, stdout.String(), "10 rows")
	assert.Equal(t, "7.5", balances(t, cfg.DB)["w_00000000"])
}

func TestRunMain_Failures(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		val     string
		wantErr string
	}{
		{"malformed ttl", "CHECKPOINT_TTL", "soon", "load config"},
		{"unknown log level", "LOG_LEVEL", "loud", "setup logger"},
		{"missing database directory", "DB_DSN", filepath.Join(os.TempDir(), "addrscan-missing", "x", "wallet.db"), "update failed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("DB_DSN", filepath.Join(t.TempDir(), "wallet.db"))
			t.Setenv("DB_LOG_LEVEL", "silent")
			t.Setenv(tt.key, tt.val)

			var stdout, stderr bytes.Buffer
			assert.Equal(t, 1, runMain(&stdout, &stderr))
			assert.Contains(t, stderr.String(), tt.wantErr)
		})
	}
}
