package addrscan

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"github.com/samber/lo"
	"gorm.io/gorm"
)

// KeysetCursor marks the position after which the next page starts. An empty
// cursor means the beginning of the dataset.
//
// IMPORTANT:
// The last element MUST be a unique column (id for wallet_addresses),
// otherwise rows sharing the boundary value are skipped.
//
// A cursor is a list of conditions:
//
//	[(C1, O1, V1), (C2, O2, V2)... (Cn, On, Vn)]
type KeysetCursor struct {
	elements []CursorElement
}

func NewKeysetCursor(elements ...CursorElement) *KeysetCursor {
	return &KeysetCursor{
		elements: elements,
	}
}

// AfterID returns the single-column cursor "id > lastID".
func AfterID(lastID string) *KeysetCursor {
	return NewKeysetCursor(CursorElement{
		Column:   ColumnID,
		Value:    lastID,
		Operator: OperatorGT,
	})
}

// DecodeKeysetCursor parses a token produced by KeysetCursor.String.
func DecodeKeysetCursor(b64String string) (*KeysetCursor, error) {
	if len(b64String) == 0 {
		return nil, nil
	}

	jsonData, err := _encoder.DecodeString(b64String)
	if err != nil {
		return nil, fmt.Errorf("failed to decode base64 encoded cursor: %w", err)
	}

	var elems []CursorElement
	if err = json.Unmarshal(jsonData, &elems); err != nil {
		return nil, fmt.Errorf("failed to unmarshal json encoded cursor: %w", err)
	}

	return &KeysetCursor{
		elements: elems,
	}, nil
}

// String - implements fmt.Stringer.
func (c *KeysetCursor) String() string {
	if c == nil || len(c.elements) == 0 {
		return ""
	}

	jTok, err := json.Marshal(c.elements)
	if err != nil {
		panic(fmt.Errorf("cannot marshal cursor value: %w", err))
	}

	var buf bytes.Buffer
	if err = json.Compact(&buf, jTok); err != nil {
		panic(fmt.Errorf("cannot compact cursor value: %w", err))
	}

	return _encoder.EncodeToString(buf.Bytes())
}

// IsEmpty - implements Cursor.
func (c *KeysetCursor) IsEmpty() bool {
	return c == nil || len(c.elements) == 0
}

// GetElements returns the compressed conditions of the cursor. They are not
// a complete filter on their own; Apply expands them first.
func (c *KeysetCursor) GetElements() []CursorElement {
	if c == nil {
		return nil
	}

	return c.elements
}

// Value returns the boundary value of column, if the cursor has one.
func (c *KeysetCursor) Value(column string) (any, bool) {
	elem, ok := lo.Find(c.GetElements(), func(e CursorElement) bool {
		return e.Column == column
	})

	return elem.Value, ok
}

// Apply - implements Cursor.
func (c *KeysetCursor) Apply(db *gorm.DB) *gorm.DB {
	exp := c.toDNF().toGORMExpression()
	if exp == nil {
		return db
	}

	return db.Clauses(exp)
}

// ToSQL renders the cursor as a WHERE fragment with placeholders, as used by
// RawKeysetPaginator. An empty cursor renders as TRUE.
func (c *KeysetCursor) ToSQL() (string, []driver.Value) {
	if c.IsEmpty() {
		return "TRUE", nil
	}

	return c.toDNF().toSQLClause()
}

// toDNF expands
//
//	[(C1, O1, V1), (C2, O2, V2)]
//
// into
//
//	(C1 O1 V1) OR (C1 = V1 AND C2 O2 V2)
//
// which selects exactly the rows strictly after the boundary row in the
// (C1, C2) ordering.
func (c *KeysetCursor) toDNF() tDNF {
	if c.IsEmpty() {
		return nil
	}

	dnf := make(tDNF, 0, len(c.elements))
	for i := range c.elements {
		previous := lo.Map(c.elements[:i], func(item CursorElement, _ int) tConjunct {
			return item.toConjunctWithEqualityCondition()
		})

		disjunct := make([]tConjunct, 0, len(previous)+1)
		disjunct = append(disjunct, previous...)
		disjunct = append(disjunct, tConjunct(c.elements[i]))

		dnf = append(dnf, disjunct)
	}

	return dnf
}

// validate - implements Cursor.
func (c *KeysetCursor) validate(orderings Orderings) error {
	if c.IsEmpty() {
		return nil
	}

	if len(c.elements) != len(orderings) {
		return fmt.Errorf("cursor column number mismatch")
	}

	for i := range c.elements {
		cond := c.elements[i]
		orderBy := orderings[i]

		if cond.Column != orderBy.Column {
			return fmt.Errorf("unexpected cursor column '%s'", cond.Column)
		}

		if !cond.Operator.Valid() {
			return fmt.Errorf("invalid cursor operator '%s'", cond.Operator)
		} else if cond.Operator.ForOrdering() != orderBy.Direction {
			return fmt.Errorf("unexpected cursor operator '%s'", cond.Operator)
		}
	}

	return nil
}

var (
	_ Cursor       = (*KeysetCursor)(nil)
	_ fmt.Stringer = (*KeysetCursor)(nil)
)

// Getters maps each ordering column to an accessor on the row type:
//
//	addrscan.Getters[addrscan.AddressRecord]{
//		"address_index": func(last addrscan.AddressRecord) any { return last.AddressIndex },
//		"id":            func(last addrscan.AddressRecord) any { return last.ID },
//	}
type Getters[T any] map[string]func(T) any

// NextKeysetCursor builds the cursor for the page after resultSet. It returns
// the rows to hand to the caller (lookahead row removed) and a nil cursor
// when the scan is over.
func NextKeysetCursor[T any](
	initialPager *Pager[*KeysetCursor],
	resultSet []T,
	getters Getters[T],
) ([]T, *KeysetCursor, error) {
	if err := initialPager.validate(); err != nil {
		return nil, nil, fmt.Errorf("cannot build next page cursor: %w", err)
	}

	if IsLastPage(initialPager, resultSet) {
		return resultSet, nil, nil
	}
	resultSet = TrimResultSet(initialPager, resultSet)
	last := lo.LastOrEmpty(resultSet)

	ret := KeysetCursor{elements: make([]CursorElement, 0, len(initialPager.sort))}
	for _, orderBy := range initialPager.sort {
		getter, ok := getters[orderBy.Column]
		if !ok {
			return nil, nil, fmt.Errorf("cannot find getter for column '%s' met in ordering", orderBy.Column)
		}

		ret.elements = append(ret.elements, CursorElement{
			Column:   orderBy.Column,
			Value:    getter(last),
			Operator: orderBy.Direction.ForOperator(),
		})
	}

	return resultSet, &ret, nil
}

// CursorElement is a (c v o) triple: column, boundary value, operator.
type CursorElement struct {
	Column   string   `json:"c"`
	Value    any      `json:"v"`
	Operator Operator `json:"o"`
}

func (c *CursorElement) toConjunctWithEqualityCondition() tConjunct {
	return tConjunct{
		Column:   c.Column,
		Value:    c.Value,
		Operator: operatorEq,
	}
}
