package addrscan

import (
	"fmt"
	"strconv"

	"gorm.io/gorm"
)

// OffsetCursor pages with LIMIT/OFFSET. It is what the wallet list endpoints
// historically used, and the query benchmark runs it next to the keyset scan
// to show how OFFSET cost grows with depth.
type OffsetCursor struct {
	offset int
}

func NewOffsetCursor(offset int) *OffsetCursor {
	return &OffsetCursor{
		offset: offset,
	}
}

// DecodeOffsetCursor parses a token produced by OffsetCursor.String.
func DecodeOffsetCursor(b64String string) (*OffsetCursor, error) {
	if len(b64String) == 0 {
		return nil, nil
	}

	offsetBytes, err := _encoder.DecodeString(b64String)
	if err != nil {
		return nil, fmt.Errorf("failed to decode base64 encoded offset cursor: %w", err)
	}

	offset, err := strconv.Atoi(string(offsetBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to decode offset cursor value: %w", err)
	}

	if offset < 0 {
		return nil, fmt.Errorf("negative offset cursor value %d", offset)
	}

	return &OffsetCursor{
		offset: offset,
	}, nil
}

// String - implements fmt.Stringer.
func (p *OffsetCursor) String() string {
	if p == nil || p.offset == 0 {
		return ""
	}

	return _encoder.EncodeToString([]byte(strconv.Itoa(p.offset)))
}

// IsEmpty - implements Cursor.
func (p *OffsetCursor) IsEmpty() bool {
	return p == nil || p.offset == 0
}

// Apply - implements Cursor.
func (p *OffsetCursor) Apply(db *gorm.DB) *gorm.DB {
	return db.Offset(p.GetOffset())
}

func (p *OffsetCursor) GetOffset() int {
	if p != nil {
		return p.offset
	}

	return 0
}

func (p *OffsetCursor) WithOffset(offset int) *OffsetCursor {
	if p == nil {
		p = new(OffsetCursor)
	}

	p.offset = offset

	return p
}

// validate - implements Cursor.
func (p *OffsetCursor) validate(_ Orderings) error {
	return nil
}

var (
	_ Cursor       = (*OffsetCursor)(nil)
	_ fmt.Stringer = (*OffsetCursor)(nil)
)

// NextOffsetCursor builds the offset cursor for the page after resultSet,
// following the same termination rules as NextKeysetCursor.
func NextOffsetCursor[T any](
	initialPager *Pager[*OffsetCursor],
	resultSet []T,
) ([]T, *OffsetCursor, error) {
	if err := initialPager.validate(); err != nil {
		return nil, nil, fmt.Errorf("cannot build next page offset cursor: %w", err)
	}

	if IsLastPage(initialPager, resultSet) {
		return resultSet, nil, nil
	}
	resultSet = TrimResultSet(initialPager, resultSet)

	return resultSet,
		&OffsetCursor{
			offset: initialPager.cursor.GetOffset() + len(resultSet),
		},
		nil
}
