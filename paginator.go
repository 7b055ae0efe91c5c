package addrscan

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
)

var (
	ErrInvalidPageSize = errors.New("page size must be positive")
	ErrEmptyWalletType = errors.New("wallet type filter is empty")
)

var _idAscending = OrderBy{Column: ColumnID, Direction: DirectionASC}

// KeysetPaginator walks the addresses of one wallet type in ascending id
// order. It holds no scan state: the cursor is passed to and returned from
// every FetchPage call.
type KeysetPaginator struct {
	db         *gorm.DB
	walletType string
	pageSize   int
	lookahead  bool
}

type PaginatorOption func(*KeysetPaginator)

// WithPageLookahead fetches pageSize+1 rows per query and reports a nil next
// cursor on the final non-empty page, saving the trailing empty query.
func WithPageLookahead() PaginatorOption {
	return func(p *KeysetPaginator) {
		p.lookahead = true
	}
}

// NewKeysetPaginator validates the filter and page size. Any positive page
// size is used as given.
func NewKeysetPaginator(db *gorm.DB, walletType string, pageSize int, opts ...PaginatorOption) (*KeysetPaginator, error) {
	if walletType == "" {
		return nil, ErrEmptyWalletType
	}
	if pageSize <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidPageSize, pageSize)
	}

	p := &KeysetPaginator{
		db:         db,
		walletType: walletType,
		pageSize:   pageSize,
	}
	for _, opt := range opts {
		opt(p)
	}

	return p, nil
}

func (p *KeysetPaginator) WalletType() string {
	return p.walletType
}

func (p *KeysetPaginator) PageSize() int {
	return p.pageSize
}

// FetchPage returns up to PageSize rows of the wallet type with id greater
// than *cursor (from the start when cursor is nil), ordered by id. next is
// the id of the last returned row, or nil once the page is empty.
func (p *KeysetPaginator) FetchPage(ctx context.Context, cursor *string) ([]AddressRecord, *string, error) {
	var start *KeysetCursor
	if cursor != nil {
		start = AfterID(*cursor)
	}

	page, err := p.fetch(ctx, p.pager(start))
	if err != nil {
		return nil, nil, err
	}

	next, err := nextID(page.Next)
	if err != nil {
		return nil, nil, err
	}

	return page.Items, next, nil
}

// nextID unwraps the id boundary of an id-ordered cursor.
func nextID(next *KeysetCursor) (*string, error) {
	if next == nil {
		return nil, nil
	}

	value, ok := next.Value(ColumnID)
	if !ok {
		return nil, fmt.Errorf("next cursor has no %s element", ColumnID)
	}
	id, ok := value.(string)
	if !ok {
		return nil, fmt.Errorf("next cursor %s is %T, want string", ColumnID, value)
	}

	return &id, nil
}

// FetchPageToken is FetchPage keyed by an opaque token, as produced by
// KeysetCursor.String on a previous page's Next.
func (p *KeysetPaginator) FetchPageToken(ctx context.Context, token string) (Page[AddressRecord, *KeysetCursor], error) {
	pager, err := DecodeKeysetPager(p.pageSize, token, _idAscending)
	if err != nil {
		return Page[AddressRecord, *KeysetCursor]{}, fmt.Errorf("decode page token: %w", err)
	}
	pager = pager.WithLimitMax(p.pageSize, p.pageSize)
	if p.lookahead {
		pager = pager.WithLookahead()
	}

	return p.fetch(ctx, pager)
}

func (p *KeysetPaginator) pager(cursor *KeysetCursor) *Pager[*KeysetCursor] {
	pager := NewPager[*KeysetCursor]().
		WithLimitMax(p.pageSize, p.pageSize).
		WithCursor(cursor).
		WithSort(_idAscending)

	if p.lookahead {
		pager = pager.WithLookahead()
	}

	return pager
}

func (p *KeysetPaginator) fetch(ctx context.Context, pager *Pager[*KeysetCursor]) (Page[AddressRecord, *KeysetCursor], error) {
	var empty Page[AddressRecord, *KeysetCursor]

	query, err := pager.Paginate(filterByWalletType(ctx, p.db, p.walletType))
	if err != nil {
		return empty, err
	}

	var rows []AddressRecord
	if err = query.Find(&rows).Error; err != nil {
		return empty, fmt.Errorf("fetch %s page after %q: %w", p.walletType, pager.GetCursor().String(), err)
	}

	items, next, err := NextKeysetCursor(pager, rows, addressGetters)
	if err != nil {
		return empty, err
	}

	return Page[AddressRecord, *KeysetCursor]{
		Items:        items,
		AppliedLimit: pager.GetDatasetLimit(),
		Next:         next,
	}, nil
}

// OffsetPaginator is the LIMIT/OFFSET counterpart of KeysetPaginator. Each
// page costs a scan over every row before the offset.
type OffsetPaginator struct {
	db         *gorm.DB
	walletType string
	pageSize   int
}

func NewOffsetPaginator(db *gorm.DB, walletType string, pageSize int) (*OffsetPaginator, error) {
	if walletType == "" {
		return nil, ErrEmptyWalletType
	}
	if pageSize <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidPageSize, pageSize)
	}

	return &OffsetPaginator{
		db:         db,
		walletType: walletType,
		pageSize:   pageSize,
	}, nil
}

// FetchPage returns the page starting at cursor's offset. Next is nil once
// the page is empty.
func (p *OffsetPaginator) FetchPage(ctx context.Context, cursor *OffsetCursor) (Page[AddressRecord, *OffsetCursor], error) {
	pager := NewPager[*OffsetCursor]().
		WithLimitMax(p.pageSize, p.pageSize).
		WithCursor(cursor).
		WithSort(_idAscending)

	return p.fetch(ctx, pager)
}

// FetchPageToken is FetchPage keyed by an OffsetCursor token.
func (p *OffsetPaginator) FetchPageToken(ctx context.Context, token string) (Page[AddressRecord, *OffsetCursor], error) {
	pager, err := DecodeOffsetPager(p.pageSize, token, _idAscending)
	if err != nil {
		return Page[AddressRecord, *OffsetCursor]{}, fmt.Errorf("decode page token: %w", err)
	}
	pager = pager.WithLimitMax(p.pageSize, p.pageSize)

	return p.fetch(ctx, pager)
}

func (p *OffsetPaginator) fetch(ctx context.Context, pager *Pager[*OffsetCursor]) (Page[AddressRecord, *OffsetCursor], error) {
	var empty Page[AddressRecord, *OffsetCursor]

	query, err := pager.Paginate(filterByWalletType(ctx, p.db, p.walletType))
	if err != nil {
		return empty, err
	}

	var rows []AddressRecord
	if err = query.Find(&rows).Error; err != nil {
		return empty, fmt.Errorf("fetch %s page at offset %d: %w", p.walletType, pager.GetCursor().GetOffset(), err)
	}

	items, next, err := NextOffsetCursor(pager, rows)
	if err != nil {
		return empty, err
	}

	return Page[AddressRecord, *OffsetCursor]{
		Items:        items,
		AppliedLimit: pager.GetDatasetLimit(),
		Next:         next,
	}, nil
}

func filterByWalletType(ctx context.Context, db *gorm.DB, walletType string) *gorm.DB {
	return db.WithContext(ctx).
		Model(&AddressRecord{}).
		Where(ColumnWalletType+" = ?", walletType)
}
