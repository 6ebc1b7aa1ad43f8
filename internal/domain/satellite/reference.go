package satellite

import (
	"time"

	"github.com/shopspring/decimal"
)

// Reference rows are mirrored from the primary database into the
// satellite as full snapshots, active rows only. The satellite never
// writes them back.

// Article is a sellable catalog item snapshot
type Article struct {
	Code        string          `gorm:"primaryKey;size:20"`
	Description string          `gorm:"size:200;not null"`
	Price       decimal.Decimal `gorm:"type:decimal(15,2);not null"`
	TaxRate     decimal.Decimal `gorm:"column:tax_rate;type:decimal(5,2);not null"`
	Active      bool            `gorm:"not null;default:true"`
	UpdatedAt   time.Time
}

// TableName returns the article table name
func (Article) TableName() string {
	return "articles"
}

// Client is a customer account snapshot
type Client struct {
	Code      string `gorm:"primaryKey;size:20"`
	Name      string `gorm:"size:200;not null"`
	TaxID     string `gorm:"column:tax_id;size:20"`
	Address   string `gorm:"size:200"`
	Active    bool   `gorm:"not null;default:true"`
	UpdatedAt time.Time
}

// TableName returns the client table name
func (Client) TableName() string {
	return "clients"
}

// Vendor is a sales agent snapshot
type Vendor struct {
	Code      string `gorm:"primaryKey;size:20"`
	Name      string `gorm:"size:200;not null"`
	Active    bool   `gorm:"not null;default:true"`
	UpdatedAt time.Time
}

// TableName returns the vendor table name
func (Vendor) TableName() string {
	return "vendors"
}
