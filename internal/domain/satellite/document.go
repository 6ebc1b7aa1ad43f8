package satellite

import (
	"time"

	"github.com/shopspring/decimal"
)

// Document is the migrated form of a pending sale on the primary
// database: same business fields, destination document type, freshly
// allocated number.
type Document struct {
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
	// SourceNumber preserves the satellite-side number for traceability
	SourceNumber string `gorm:"column:source_number;size:10"`
	CreatedAt    time.Time

	Items []DocumentItem `gorm:"foreignKey:DocumentType,Branch,Number;references:DocumentType,Branch,Number"`
}

// TableName returns the migrated document header table name
func (Document) TableName() string {
	return "documents"
}

// DocumentItem is one line of a migrated document
type DocumentItem struct {
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

// TableName returns the migrated document item table name
func (DocumentItem) TableName() string {
	return "document_items"
}

// NewDocumentFromPendingSale builds the destination header and items
// for a pending sale under the given document type and number.
func NewDocumentFromPendingSale(s *PendingSale, docType, number string) *Document {
	doc := &Document{
		DocumentType: docType,
		Branch:       s.Branch,
		Number:       number,
		Date:         s.Date,
		ClientCode:   s.ClientCode,
		ClientName:   s.ClientName,
		PaymentType:  s.PaymentType,
		Subtotal:     s.Subtotal,
		TaxAmount:    s.TaxAmount,
		Total:        s.Total,
		Notes:        s.Notes,
		SourceNumber: s.Number,
	}
	for _, item := range s.Items {
		doc.Items = append(doc.Items, DocumentItem{
			DocumentType: docType,
			Branch:       s.Branch,
			Number:       number,
			LineNumber:   item.LineNumber,
			ArticleCode:  item.ArticleCode,
			Description:  item.Description,
			Quantity:     item.Quantity,
			UnitPrice:    item.UnitPrice,
			LineTotal:    item.LineTotal,
		})
	}
	return doc
}
