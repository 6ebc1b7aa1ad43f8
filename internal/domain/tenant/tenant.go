package tenant

import (
	"context"
	"fmt"
	"net/url"
	"time"
)

// Status represents the routing status of a tenant
type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

// Tenant holds the connection parameters for one isolated tenant database.
// Rows live in the shared catalog database and are maintained by an
// out-of-band administrative flow; this core only reads them.
type Tenant struct {
	ID         string `gorm:"primaryKey;size:50"`
	Name       string `gorm:"size:200;not null"`
	DBHost     string `gorm:"column:db_host;size:255;not null"`
	DBPort     int    `gorm:"column:db_port;not null;default:5432"`
	DBName     string `gorm:"column:db_name;size:100;not null"`
	DBUser     string `gorm:"column:db_user;size:100;not null"`
	DBPassword string `gorm:"column:db_password;size:255;not null"`
	Status     Status `gorm:"size:20;not null;default:'active'"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// TableName returns the catalog table name
func (Tenant) TableName() string {
	return "tenants"
}

// IsActive reports whether the tenant may be routed
func (t *Tenant) IsActive() bool {
	return t.Status == StatusActive
}

// DSN returns the postgres connection URL for the tenant database.
// URL form so credential values survive any character the catalog
// stores; the driver decodes the percent-escaping.
func (t *Tenant) DSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(t.DBUser, t.DBPassword),
		Host:     fmt.Sprintf("%s:%d", t.DBHost, t.DBPort),
		Path:     t.DBName,
		RawQuery: "sslmode=disable",
	}
	return u.String()
}

// ConfigStore is the durable lookup for tenant connection parameters
type ConfigStore interface {
	// FindByID returns the tenant row or shared.ErrTenantNotFound
	FindByID(ctx context.Context, id string) (*Tenant, error)
}

// ConfigCache is a bounded-TTL cache in front of a ConfigStore.
// A nil, nil return from Get means a cache miss.
type ConfigCache interface {
	Get(ctx context.Context, id string) (*Tenant, error)
	Set(ctx context.Context, t *Tenant, ttl time.Duration) error
	// Invalidate evicts the entry so the next resolution re-reads the
	// catalog. Called after any connection failure for the tenant.
	Invalidate(ctx context.Context, id string) error
}
