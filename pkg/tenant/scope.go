package tenant

import (
	"context"
	"sync"

	"github.com/jackc/pgx/v5/pgxpool"
)

// HandleFactory manufactures tenant database handles from connection strings.
// Implemented by pg.ContextFactory.
type HandleFactory interface {
	Create(ctx context.Context, connString string) (*pgxpool.Pool, error)
}

// Scope is the per-request tenant cell. It holds at most one Session, set
// once by the resolving middleware and cleared at request teardown, plus the
// lazily created tenant database handle memoized for the request lifetime.
//
// A Scope is owned by exactly one request and must never be shared across
// requests. Readers within the request may be concurrent.
type Scope struct {
	factory HandleFactory

	mu      sync.Mutex
	session *Session
	handle  *pgxpool.Pool
}

// NewScope creates an empty request scope. The factory may be nil when the
// request never touches a tenant database.
func NewScope(factory HandleFactory) *Scope {
	return &Scope{factory: factory}
}

// Attach binds a session to the scope. A second call fails with
// ErrAlreadyAttached and leaves the first session untouched: silently
// switching tenants mid-request is the bug class this guards against.
func (s *Scope) Attach(session *Session) error {
	if session == nil {
		return ErrNotResolved
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session != nil {
		return ErrAlreadyAttached
	}
	s.session = session
	return nil
}

// Detach clears the session and closes the memoized handle. Called at
// request teardown. The handle is a per-request instance minted by the
// factory, so the scope owns its lifetime; leaving it open would leak the
// pool's background goroutine on every request.
func (s *Scope) Detach() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.handle != nil {
		s.handle.Close()
	}
	s.session = nil
	s.handle = nil
}

// HasTenant reports whether a session is attached.
func (s *Scope) HasTenant() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session != nil
}

// Session returns the attached session, or nil.
func (s *Scope) Session() *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session
}

// ConnectionString returns the attached session's connection string, or empty.
func (s *Scope) ConnectionString() string {
	if sess := s.Session(); sess != nil {
		return sess.ConnectionString()
	}
	return ""
}

// Conn returns the tenant database handle for this request, creating it on
// first use and reusing it afterwards. The check-then-create step runs under
// the scope mutex so concurrent callers within one request observe exactly
// one handle. Creation errors are not memoized; a later call may retry.
func (s *Scope) Conn(ctx context.Context) (*pgxpool.Pool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.handle != nil {
		return s.handle, nil
	}
	if s.session == nil || s.session.ConnectionString() == "" {
		return nil, ErrNotResolved
	}
	if s.factory == nil {
		return nil, ErrNotResolved
	}

	handle, err := s.factory.Create(ctx, s.session.ConnectionString())
	if err != nil {
		return nil, err
	}
	s.handle = handle
	return handle, nil
}
