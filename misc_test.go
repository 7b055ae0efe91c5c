package addrscan

import (
	"context"
	"fmt"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/samber/lo"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newGORMMySQLMock() (string, *gorm.DB, sqlmock.Sqlmock, error) {
	mockDB, mock, err := sqlmock.New()
	if err != nil {
		return "", nil, nil, err
	}

	dialector := mysql.New(mysql.Config{
		Conn:                      mockDB,
		SkipInitializeWithVersion: true,
	})

	db, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		return "", nil, nil, err
	}

	return "mysql", db.Debug(), mock, nil
}

func newGORMPostgresMock() (string, *gorm.DB, sqlmock.Sqlmock, error) {
	mockDB, mock, err := sqlmock.New()
	if err != nil {
		return "", nil, nil, err
	}

	dialector := postgres.New(postgres.Config{
		Conn: mockDB,
	})

	db, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		return "", nil, nil, err
	}

	return "postgres", db.Debug(), mock, nil
}

// newSQLiteDB returns a migrated in-memory database. The pool is pinned to one
// connection because every new SQLite connection to :memory: is a new,
// empty database.
func newSQLiteDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, Migrate(context.Background(), db))

	return db
}

func newRecord(id, walletType string) AddressRecord {
	return AddressRecord{
		ID:         id,
		WalletID:   "wallet-" + walletType,
		WalletType: walletType,
		ChainCode:  "eth",
		Address:    "0x" + id,
		Balance:    lo.ToPtr("0"),
		UpdatedAt:  lo.ToPtr("2024-01-01T00:00:00Z"),
	}
}

// seedIDs inserts one record per id, all of walletType.
func seedIDs(t *testing.T, db *gorm.DB, walletType string, ids ...string) {
	t.Helper()

	records := lo.Map(ids, func(id string, _ int) AddressRecord {
		return newRecord(id, walletType)
	})
	if len(records) > 0 {
		require.NoError(t, db.Create(&records).Error)
	}
}

// seqIDs returns "<prefix>_0".."<prefix>_<n-1>" zero-padded to width.
func seqIDs(prefix string, width, n int) []string {
	return lo.Times(n, func(i int) string {
		return fmt.Sprintf("%s_%0*d", prefix, width, i)
	})
}

func recordIDs(records []AddressRecord) []string {
	return lo.Map(records, func(r AddressRecord, _ int) string { return r.ID })
}
