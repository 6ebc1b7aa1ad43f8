package shared

// DomainError represents a domain-level error
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Common domain errors
var (
	ErrTenantNotFound        = NewDomainError("TENANT_NOT_FOUND", "Tenant is not registered in the catalog")
	ErrTenantInactive        = NewDomainError("TENANT_INACTIVE", "Tenant exists but is not active")
	ErrConnectFailed         = NewDomainError("CONNECT_FAILED", "Could not establish a database connection for the tenant")
	ErrSequenceNotConfigured = NewDomainError("SEQUENCE_NOT_CONFIGURED", "No sequence counter configured for this document type and branch")
	ErrLockTimeout           = NewDomainError("LOCK_TIMEOUT", "Timed out waiting for a row lock; the operation may be retried")
	ErrSyncRunning           = NewDomainError("SYNC_RUNNING", "A sync batch is already in progress")
	ErrNotFound              = NewDomainError("NOT_FOUND", "Resource not found")
	ErrInvalidInput          = NewDomainError("INVALID_INPUT", "Invalid input provided")
)
