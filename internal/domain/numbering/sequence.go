package numbering

import (
	"context"
	"fmt"

	"gorm.io/gorm"
)

// NumberWidth is the fixed width of formatted document numbers
const NumberWidth = 8

// SequenceCounter is the per (document type, branch) counter backing
// comprobante numbering. Rows are seeded by an administrative flow;
// the allocator only reads and increments them under a row lock.
type SequenceCounter struct {
	DocumentType string `gorm:"column:document_type;primaryKey;size:10"`
	Branch       string `gorm:"primaryKey;size:10"`
	NextNumber   int64  `gorm:"column:next_number;not null;default:1"`
	// CopiesToPrint is carried for the printing flow and never consulted
	// by numbering logic.
	CopiesToPrint int `gorm:"column:copies_to_print;not null;default:1"`
}

// TableName returns the counter table name
func (SequenceCounter) TableName() string {
	return "comprobante_sequences"
}

// Format left-zero-pads a sequence value to the fixed document number width
func Format(n int64) string {
	return fmt.Sprintf("%0*d", NumberWidth, n)
}

// Allocator hands out gapless, strictly increasing document numbers per
// (document type, branch) key.
type Allocator interface {
	// Allocate reserves the next number inside the caller-supplied
	// transaction. The returned value is the pre-increment counter,
	// formatted. The row lock is held until the caller commits.
	Allocate(ctx context.Context, tx *gorm.DB, docType, branch string) (string, error)

	// AllocateNew reserves a number in its own short transaction for
	// callers that do not already hold one. The number is consumed even
	// if the caller later discards it.
	AllocateNew(ctx context.Context, db *gorm.DB, docType, branch string) (string, error)
}
