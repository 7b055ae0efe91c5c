package addrscan

import (
	"context"
	"fmt"

	"gorm.io/gorm"
)

// Migrate creates wallet_addresses and idx_wallet_type_id if they are
// missing. Existing tables are left as they are.
func Migrate(ctx context.Context, db *gorm.DB) error {
	if err := db.WithContext(ctx).AutoMigrate(&AddressRecord{}); err != nil {
		return fmt.Errorf("migrate %s: %w", TableWalletAddresses, err)
	}

	return nil
}

// Reset drops wallet_addresses and creates it again, empty.
func Reset(ctx context.Context, db *gorm.DB) error {
	migrator := db.WithContext(ctx).Migrator()
	if err := migrator.DropTable(&AddressRecord{}); err != nil {
		return fmt.Errorf("drop %s: %w", TableWalletAddresses, err)
	}

	return Migrate(ctx, db)
}
