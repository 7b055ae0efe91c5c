package addrscan

const (
	TableWalletAddresses = "wallet_addresses"

	ColumnID           = "id"
	ColumnWalletType   = "wallet_type"
	ColumnAddressIndex = "address_index"
	ColumnBalance      = "balance"

	// IndexWalletTypeID backs the keyset scan: equality on wallet_type,
	// range and order on id.
	IndexWalletTypeID = "idx_wallet_type_id"
)

// AddressRecord is one row of wallet_addresses.
//
// ID is the primary key and the keyset cursor, so it must be unique and
// compare consistently as a string. Balance and UpdatedAt are stored as TEXT
// and are never parsed.
type AddressRecord struct {
	ID           string  `gorm:"column:id;primaryKey;size:191;index:idx_wallet_type_id,priority:2" json:"id"`
	WalletID     string  `gorm:"column:wallet_id;not null" json:"walletId"`
	WalletType   string  `gorm:"column:wallet_type;size:191;not null;index:idx_wallet_type_id,priority:1" json:"walletType"`
	ChainCode    string  `gorm:"column:chain_code;not null" json:"chainCode"`
	AddressIndex int64   `gorm:"column:address_index;not null" json:"addressIndex"`
	Address      string  `gorm:"column:address;not null" json:"address"`
	Balance      *string `gorm:"column:balance" json:"balance"`
	UpdatedAt    *string `gorm:"column:updated_at" json:"updatedAt"`
}

func (AddressRecord) TableName() string {
	return TableWalletAddresses
}

// addressGetters covers every column an address scan may be ordered by.
var addressGetters = Getters[AddressRecord]{
	ColumnID:           func(last AddressRecord) any { return last.ID },
	ColumnWalletType:   func(last AddressRecord) any { return last.WalletType },
	ColumnAddressIndex: func(last AddressRecord) any { return last.AddressIndex },
}
