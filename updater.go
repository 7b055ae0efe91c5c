package addrscan

import (
	"context"
	"fmt"

	"gorm.io/gorm"
)

// BulkUpdater sets the balance of every address of a wallet type.
type BulkUpdater struct {
	db *gorm.DB
}

func NewBulkUpdater(db *gorm.DB) *BulkUpdater {
	return &BulkUpdater{db: db}
}

// UpdateBalance issues one unconditional UPDATE for walletType and commits
// it. Repeating the call leaves the table unchanged. The returned count is
// whatever the driver reports; MySQL counts only rows whose value changed.
func (u *BulkUpdater) UpdateBalance(ctx context.Context, walletType, balance string) (int64, error) {
	if walletType == "" {
		return 0, ErrEmptyWalletType
	}

	var affected int64
	err := u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&AddressRecord{}).
			Where(ColumnWalletType+" = ?", walletType).
			Update(ColumnBalance, balance)
		affected = res.RowsAffected

		return res.Error
	})
	if err != nil {
		return 0, fmt.Errorf("update %s balance: %w", walletType, err)
	}

	return affected, nil
}
