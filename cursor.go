package addrscan

import (
	"encoding/base64"

	"gorm.io/gorm"
)

var _encoder = base64.RawURLEncoding

type Cursor interface {
	String() string
	IsEmpty() bool
	Apply(*gorm.DB) *gorm.DB
	validate(orderings Orderings) error
}

// Page is a single page of a scan together with the cursor of the next one.
type Page[T any, CursorType Cursor] struct {
	// Items page elements.
	Items []T
	// AppliedLimit effective limit used for the query.
	AppliedLimit int
	// Next cursor for the next page. Zero value when the scan is over.
	Next CursorType
}
