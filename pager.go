package addrscan

import (
	"fmt"
	"slices"

	"github.com/samber/lo"
	"gorm.io/gorm"
)

// Pager applies orderings, a cursor and a limit to a GORM query.
type Pager[CursorType Cursor] struct {
	lookahead bool
	limit     int
	cursor    CursorType
	sort      Orderings
}

func NewPager[CursorType Cursor]() *Pager[CursorType] {
	return new(Pager[CursorType])
}

// DecodeKeysetPager decodes a keyset token into a *Pager. An empty token
// starts from the beginning of the dataset.
func DecodeKeysetPager(pageSize int, rawStartToken string, orderBy ...OrderBy) (*Pager[*KeysetCursor], error) {
	cursor, err := DecodeKeysetCursor(rawStartToken)
	if err != nil {
		return nil, err
	}

	return (&Pager[*KeysetCursor]{
		cursor: cursor,
	}).WithSubstitutedSort(orderBy...).WithLimit(pageSize), nil
}

// DecodeOffsetPager decodes an offset token into a *Pager.
func DecodeOffsetPager(pageSize int, rawStartToken string, orderBy ...OrderBy) (*Pager[*OffsetCursor], error) {
	cursor, err := DecodeOffsetCursor(rawStartToken)
	if err != nil {
		return nil, err
	}

	return (&Pager[*OffsetCursor]{
		cursor: cursor,
	}).WithSubstitutedSort(orderBy...).WithLimit(pageSize), nil
}

// WithLookahead fetches one extra row so the last page can be recognised
// without issuing a trailing empty query.
//
// IMPORTANT:
// Cannot be used together with WithUnlimited() or WithLimit(NoLimit).
func (c *Pager[CursorType]) WithLookahead() *Pager[CursorType] {
	if c == nil {
		c = new(Pager[CursorType])
	}

	c.lookahead = true

	return c
}

// WithUnlimited allows returning all records without a limit.
//
// IMPORTANT:
// Cannot be used together with WithLookahead.
func (c *Pager[CursorType]) WithUnlimited() *Pager[CursorType] {
	if c == nil {
		c = new(Pager[CursorType])
	}

	c.limit = NoLimit

	return c
}

// WithLimit sets the page size. Anything other than NoLimit goes through
// NormalizePageSize.
func (c *Pager[CursorType]) WithLimit(limit int) *Pager[CursorType] {
	return c.WithLimitMax(limit, MaxPageSize)
}

// WithLimitMax is WithLimit bounded by maxLimit instead of MaxPageSize.
func (c *Pager[CursorType]) WithLimitMax(limit, maxLimit int) *Pager[CursorType] {
	if c == nil {
		c = new(Pager[CursorType])
	}

	if limit == NoLimit {
		return c.WithUnlimited()
	}
	c.limit = NormalizePageSizeMax(limit, maxLimit)

	return c
}

// WithCursor sets the cursor explicitly.
func (c *Pager[CursorType]) WithCursor(cursor CursorType) *Pager[CursorType] {
	if c == nil {
		c = new(Pager[CursorType])
	}

	c.cursor = cursor

	return c
}

// WithSubstitutedSort resets previous orderings and applies the provided ones.
func (c *Pager[CursorType]) WithSubstitutedSort(orderBy ...OrderBy) *Pager[CursorType] {
	if c == nil {
		c = new(Pager[CursorType])
	}

	c.sort = nil

	return c.WithSort(orderBy...)
}

// WithSort appends orderings. A column that is already present moves to the
// end with its new direction.
func (c *Pager[CursorType]) WithSort(orderBy ...OrderBy) *Pager[CursorType] {
	if c == nil {
		c = new(Pager[CursorType])
	}

	for _, o := range orderBy {
		idx := slices.IndexFunc(c.sort, func(processed OrderBy) bool {
			return processed.Column == o.Column
		})

		if idx != -1 {
			c.sort = slices.Delete(c.sort, idx, idx+1)
		}

		c.sort = append(c.sort, o)
	}

	return c
}

// Paginate applies ordering, cursor and limit to db.
func (c *Pager[CursorType]) Paginate(db *gorm.DB) (*gorm.DB, error) {
	if err := c.validate(); err != nil {
		return nil, fmt.Errorf("cannot paginate: %w", err)
	}

	db = c.sort.Apply(db)
	db = c.cursor.Apply(db)

	if c.limit != NoLimit {
		db = db.Limit(c.GetDatasetLimit())
	}

	return db, nil
}

func (c *Pager[CursorType]) GetSort() Orderings {
	if c == nil {
		return nil
	}

	return c.sort
}

func (c *Pager[CursorType]) IsUnlimited() bool {
	if c == nil {
		return false
	}

	return c.limit == NoLimit
}

func (c *Pager[CursorType]) IsLookahead() bool {
	if c == nil {
		return false
	}

	return c.lookahead
}

// GetLimit returns the page size as stored. NoLimit means unbounded.
func (c *Pager[CursorType]) GetLimit() int {
	if c == nil {
		return 0
	}

	return c.limit
}

func (c *Pager[CursorType]) GetCursor() CursorType {
	if c == nil {
		return lo.Empty[CursorType]()
	}

	return c.cursor
}

// GetDatasetLimit returns the LIMIT sent to the database: GetLimit()+1 with
// lookahead, GetLimit() otherwise.
func (c *Pager[CursorType]) GetDatasetLimit() int {
	limit := c.GetLimit()

	return lo.Ternary(c.IsLookahead(), limit+1, limit)
}

func (c *Pager[_]) validate() error {
	if c == nil {
		return fmt.Errorf("pager is nil")
	}

	if c.limit == NoLimit && c.lookahead {
		return fmt.Errorf("cannot apply lookahead to unlimited paging")
	}

	if err := c.sort.validate(); err != nil {
		return err
	}

	return c.cursor.validate(c.sort)
}

// IsLastPage reports whether resultSet ends the scan:
//  1. the page is empty, or
//  2. lookahead is enabled and the extra row did not come back.
//
// Without lookahead a short page is not treated as the last one; the scan
// ends on the following empty page.
func IsLastPage[CursorType Cursor, T any](initialPager *Pager[CursorType], resultSet []T) bool {
	return len(resultSet) == 0 ||
		(initialPager.lookahead && len(resultSet) <= initialPager.limit)
}

// TrimResultSet drops the lookahead row, if it was returned.
//
// With lookahead and limit 2, [a, b, c] becomes [a, b]; [a, b] is unchanged.
func TrimResultSet[CursorType Cursor, T any](initialPager *Pager[CursorType], resultSet []T) []T {
	if initialPager.lookahead && initialPager.limit != NoLimit && len(resultSet) > initialPager.limit {
		resultSet = resultSet[:initialPager.limit]
	}

	return resultSet
}
