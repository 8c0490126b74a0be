package tenant

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Status is the lifecycle state of a tenant. It is a closed enumeration so
// that an "active but deleted" combination is unrepresentable.
type Status string

const (
	// StatusActive tenants are routable by domain and identifier.
	StatusActive Status = "active"
	// StatusDeactivated tenants are excluded from routing but still
	// retrievable by administrative lookups.
	StatusDeactivated Status = "deactivated"
	// StatusDeleted tenants are logically deleted. The row is kept for
	// forensic access to historical databases; it never routes again.
	StatusDeleted Status = "deleted"
)

// Valid reports whether s is one of the known states.
func (s Status) Valid() bool {
	switch s {
	case StatusActive, StatusDeactivated, StatusDeleted:
		return true
	}
	return false
}

// Record is a tenant registry row as persisted in the master store.
type Record struct {
	ID               uuid.UUID       `json:"id"`
	Identifier       string          `json:"identifier"`
	Domain           string          `json:"domain"`
	Name             string          `json:"name"`
	DatabaseName     string          `json:"database_name"`
	ConnectionString string          `json:"connection_string"`
	Status           Status          `json:"status"`
	Features         json.RawMessage `json:"features,omitempty"`
	Isolation        json.RawMessage `json:"isolation,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// Active reports whether the tenant may be served traffic.
func (r *Record) Active() bool {
	return r.Status == StatusActive
}

// Session is the request-scoped snapshot of a resolved tenant. It is copied
// from a Record at resolution time and never mutated afterwards.
type Session struct {
	tenantID   uuid.UUID
	name       string
	domain     string
	connString string
}

// NewSession builds an immutable session from a registry record.
func NewSession(r *Record) *Session {
	return &Session{
		tenantID:   r.ID,
		name:       r.Name,
		domain:     r.Domain,
		connString: r.ConnectionString,
	}
}

// TenantID returns the stable tenant id.
func (s *Session) TenantID() uuid.UUID { return s.tenantID }

// Name returns the tenant display name.
func (s *Session) Name() string { return s.name }

// Domain returns the routing domain the tenant was resolved by.
func (s *Session) Domain() string { return s.domain }

// ConnectionString returns the tenant database connection string.
func (s *Session) ConnectionString() string { return s.connString }
