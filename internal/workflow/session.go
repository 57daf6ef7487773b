package workflow

import (
	"context"
	"sync"

	"github.com/jiratool/jiratool/internal/jira"
)

// Dialer opens a verified connection.
type Dialer func(ctx context.Context) (*jira.Connection, error)

// Session connects on first use and reuses the connection for the rest of
// the process. Failed attempts are not cached.
type Session struct {
	dial Dialer

	mu   sync.Mutex
	conn *jira.Connection
}

// NewSession creates a session that connects with dial.
func NewSession(dial Dialer) *Session {
	return &Session{dial: dial}
}

// Connection returns the shared connection, dialing if needed.
func (s *Session) Connection(ctx context.Context) (*jira.Connection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn != nil {
		return s.conn, nil
	}
	conn, err := s.dial(ctx)
	if err != nil {
		return nil, err
	}
	s.conn = conn
	return conn, nil
}

// Reset drops the cached connection so the next call dials again, e.g.
// after the credentials changed.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conn = nil
}
