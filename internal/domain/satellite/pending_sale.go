package satellite

import (
	"time"

	"github.com/shopspring/decimal"
)

// PendingSaleDocType is the document type under which provisional sales
// are captured on the satellite side.
const PendingSaleDocType = "PRV"

// PendingSale is the header of a provisional sale captured on the
// satellite database, keyed by (document type, branch, number) there.
// During migration it is re-created in the primary database under the
// destination document type with a freshly allocated number.
type PendingSale struct {
	DocumentType string          `gorm:"column:document_type;primaryKey;size:10"`
	Branch       string          `gorm:"primaryKey;size:10"`
	Number       string          `gorm:"primaryKey;size:10"`
	Date         time.Time       `gorm:"not null"`
	ClientCode   string          `gorm:"size:20;not null"`
	ClientName   string          `gorm:"size:200"`
	PaymentType  string          `gorm:"size:20"`
	Subtotal     decimal.Decimal `gorm:"type:decimal(15,2);not null"`
	TaxAmount    decimal.Decimal `gorm:"type:decimal(15,2);not null"`
	Total        decimal.Decimal `gorm:"type:decimal(15,2);not null"`
	Notes        string          `gorm:"size:500"`
	CreatedAt    time.Time

	Items []PendingSaleItem `gorm:"foreignKey:DocumentType,Branch,Number;references:DocumentType,Branch,Number"`
}

// TableName returns the pending sale header table name
func (PendingSale) TableName() string {
	return "pending_sales"
}

// Key identifies the header on its origin database
func (s *PendingSale) Key() DocumentKey {
	return DocumentKey{DocumentType: s.DocumentType, Branch: s.Branch, Number: s.Number}
}

// PendingSaleItem is one line of a pending sale
type PendingSaleItem struct {
	DocumentType string          `gorm:"column:document_type;primaryKey;size:10"`
	Branch       string          `gorm:"primaryKey;size:10"`
	Number       string          `gorm:"primaryKey;size:10"`
	LineNumber   int             `gorm:"column:line_number;primaryKey"`
	ArticleCode  string          `gorm:"size:20;not null"`
	Description  string          `gorm:"size:200"`
	Quantity     decimal.Decimal `gorm:"type:decimal(15,3);not null"`
	UnitPrice    decimal.Decimal `gorm:"type:decimal(15,2);not null"`
	LineTotal    decimal.Decimal `gorm:"type:decimal(15,2);not null"`
}

// TableName returns the pending sale item table name
func (PendingSaleItem) TableName() string {
	return "pending_sale_items"
}

// DocumentKey is the composite identity of a numbered document
type DocumentKey struct {
	DocumentType string
	Branch       string
	Number       string
}

// CleanupBacklogEntry records a pending sale that was durably migrated
// into the primary database but whose satellite copy could not yet be
// deleted. Rows live on the primary database and are retried at the
// start of every sync run, so a cleanup failure can never cause the
// same sale to be migrated twice.
type CleanupBacklogEntry struct {
	DocumentType string    `gorm:"column:document_type;primaryKey;size:10"`
	Branch       string    `gorm:"primaryKey;size:10"`
	Number       string    `gorm:"primaryKey;size:10"`
	MigratedAt   time.Time `gorm:"not null"`
}

// TableName returns the backlog table name
func (CleanupBacklogEntry) TableName() string {
	return "sync_cleanup_backlog"
}
