package addrscan

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func loadAll(t *testing.T, db *gorm.DB) []AddressRecord {
	t.Helper()

	var rows []AddressRecord
	require.NoError(t, db.Order("id").Find(&rows).Error)

	return rows
}

func TestBulkUpdater_UpdateBalance(t *testing.T) {
	db := newSQLiteDB(t)

	gen := fixedGenerator()
	gen.AddressesPerWallet = 2
	loader, err := NewBulkLoader(db, gen, 100)
	require.NoError(t, err)
	_, err = loader.Load(context.Background(), 30)
	require.NoError(t, err)

	updater := NewBulkUpdater(db)

	affected, err := updater.UpdateBalance(context.Background(), WalletTypeAPI, "100.000000")
	require.NoError(t, err)
	assert.Equal(t, int64(10), affected)

	first := loadAll(t, db)
	for _, row := range first {
		require.NotNil(t, row.Balance)
		if row.WalletType == WalletTypeAPI {
			assert.Equal(t, "100.000000", *row.Balance, row.ID)
		} else {
			assert.Equal(t, "0", *row.Balance, row.ID)
		}
		assert.Equal(t, "2024-03-01T12:00:00Z", *row.UpdatedAt, row.ID)
	}

	_, err = updater.UpdateBalance(context.Background(), WalletTypeAPI, "100.000000")
	require.NoError(t, err)
	assert.Equal(t, first, loadAll(t, db), "a repeated update changes nothing")
}

func TestBulkUpdater_UpdateBalance_NoMatches(t *testing.T) {
	db := newSQLiteDB(t)
	seedIDs(t, db, WalletTypeNormal, "w_0")

	affected, err := NewBulkUpdater(db).UpdateBalance(context.Background(), WalletTypeWithdrawal, "1")
	require.NoError(t, err)
	assert.Zero(t, affected)
}

func TestBulkUpdater_UpdateBalance_EmptyWalletType(t *testing.T) {
	_, err := NewBulkUpdater(nil).UpdateBalance(context.Background(), "", "1")
	require.ErrorIs(t, err, ErrEmptyWalletType)
}

func TestBulkUpdater_UpdateBalance_SQL(t *testing.T) {
	sqlMockFnList := []func() (string, *gorm.DB, sqlmock.Sqlmock, error){
		newGORMMySQLMock,
		newGORMPostgresMock,
	}

	for _, sqlMockFn := range sqlMockFnList {
		dialect, db, dbMock, err := sqlMockFn()
		t.Run(fmt.Sprintf("%s commit", dialect), func(t *testing.T) {
			require.NoError(t, err, "gorm open")

			dbMock.ExpectBegin()
			dbMock.ExpectExec("^UPDATE [`\"]wallet_addresses[`\"] SET [`\"]balance[`\"]=(?:\\$\\d|\\?) WHERE wallet_type = (?:\\$\\d|\\?)$").
				WithArgs("100.000000", WalletTypeAPI).
				WillReturnResult(sqlmock.NewResult(0, 3))
			dbMock.ExpectCommit()

			affected, err := NewBulkUpdater(db).UpdateBalance(context.Background(), WalletTypeAPI, "100.000000")
			require.NoError(t, err)
			assert.Equal(t, int64(3), affected)
			assert.NoError(t, dbMock.ExpectationsWereMet())
		})
	}

	for _, sqlMockFn := range sqlMockFnList {
		dialect, db, dbMock, err := sqlMockFn()
		t.Run(fmt.Sprintf("%s rollback", dialect), func(t *testing.T) {
			require.NoError(t, err, "gorm open")

			dbMock.ExpectBegin()
			dbMock.ExpectExec("^UPDATE").WillReturnError(errors.New("lock wait timeout"))
			dbMock.ExpectRollback()

			affected, err := NewBulkUpdater(db).UpdateBalance(context.Background(), WalletTypeAPI, "100.000000")
			require.Error(t, err)
			assert.Zero(t, affected)
			assert.NoError(t, dbMock.ExpectationsWereMet())
		})
	}
}
