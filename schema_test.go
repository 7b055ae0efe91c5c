package addrscan

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrate(t *testing.T) {
	db := newSQLiteDB(t)

	migrator := db.Migrator()
	assert.True(t, migrator.HasTable(TableWalletAddresses))
	assert.True(t, migrator.HasIndex(&AddressRecord{}, IndexWalletTypeID))

	for _, column := range []string{ColumnID, ColumnWalletType, ColumnAddressIndex, ColumnBalance, "wallet_id", "chain_code", "address", "updated_at"} {
		assert.True(t, migrator.HasColumn(&AddressRecord{}, column), column)
	}

	// Migrating twice keeps existing rows.
	seedIDs(t, db, WalletTypeAPI, "w_0")
	require.NoError(t, Migrate(context.Background(), db))

	var count int64
	require.NoError(t, db.Model(&AddressRecord{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestReset(t *testing.T) {
	db := newSQLiteDB(t)
	seedIDs(t, db, WalletTypeAPI, "w_0", "w_1")

	require.NoError(t, Reset(context.Background(), db))

	var count int64
	require.NoError(t, db.Model(&AddressRecord{}).Count(&count).Error)
	assert.Zero(t, count)
	assert.True(t, db.Migrator().HasIndex(&AddressRecord{}, IndexWalletTypeID))
}
