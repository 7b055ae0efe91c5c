package addrscan

import (
	"context"
	"fmt"

	"github.com/samber/lo"
	"gorm.io/gorm"
)

// RawKeysetPaginator runs the KeysetPaginator scan as a hand-written SELECT,
// rendered by KeysetCursor.ToSQL and Orderings.ToSQL, instead of through the
// GORM clause builders. It lets the query program time the two side by side.
type RawKeysetPaginator struct {
	db         *gorm.DB
	walletType string
	pageSize   int
}

func NewRawKeysetPaginator(db *gorm.DB, walletType string, pageSize int) (*RawKeysetPaginator, error) {
	if walletType == "" {
		return nil, ErrEmptyWalletType
	}
	if pageSize <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidPageSize, pageSize)
	}

	return &RawKeysetPaginator{
		db:         db,
		walletType: walletType,
		pageSize:   pageSize,
	}, nil
}

// Query renders the page query after cursor together with its bind values.
//
//	SELECT * FROM wallet_addresses WHERE wallet_type = ? AND ((id > ?)) ORDER BY id ASC LIMIT 100
func (p *RawKeysetPaginator) Query(cursor *string) (string, []any, error) {
	pager := p.pager(cursor)
	if err := pager.validate(); err != nil {
		return "", nil, fmt.Errorf("cannot paginate: %w", err)
	}

	where, values := pager.GetCursor().ToSQL()
	query := fmt.Sprintf("SELECT * FROM %s WHERE %s = ? AND %s ORDER BY %s LIMIT %d",
		TableWalletAddresses, ColumnWalletType, where, pager.GetSort().ToSQL(), pager.GetDatasetLimit())

	return query, append([]any{p.walletType}, lo.ToAnySlice(values)...), nil
}

// FetchPage implements PageFetcher with the same contract as
// KeysetPaginator.FetchPage.
func (p *RawKeysetPaginator) FetchPage(ctx context.Context, cursor *string) ([]AddressRecord, *string, error) {
	query, args, err := p.Query(cursor)
	if err != nil {
		return nil, nil, err
	}

	var rows []AddressRecord
	if err = p.db.WithContext(ctx).Raw(query, args...).Scan(&rows).Error; err != nil {
		return nil, nil, fmt.Errorf("fetch %s raw page after %q: %w", p.walletType, lo.FromPtr(cursor), err)
	}

	items, next, err := NextKeysetCursor(p.pager(cursor), rows, addressGetters)
	if err != nil {
		return nil, nil, err
	}

	id, err := nextID(next)
	if err != nil {
		return nil, nil, err
	}

	return items, id, nil
}

func (p *RawKeysetPaginator) pager(cursor *string) *Pager[*KeysetCursor] {
	var start *KeysetCursor
	if cursor != nil {
		start = AfterID(*cursor)
	}

	return NewPager[*KeysetCursor]().
		WithLimitMax(p.pageSize, p.pageSize).
		WithCursor(start).
		WithSort(_idAscending)
}

var _ PageFetcher = (*RawKeysetPaginator)(nil)
