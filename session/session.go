// Package session tracks who is signed in. A session is a registry entry named by the jti
// of an HS256 token; closing the entry invalidates the token even before it expires.
package session

import (
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/nemopss/budgetly/logging"
	"github.com/nemopss/budgetly/models"
)

type State int

const (
	Anonymous State = iota
	AuthenticatedUser
	AuthenticatedAdmin
)

func (s State) String() string {
	switch s {
	case AuthenticatedUser:
		return "user"
	case AuthenticatedAdmin:
		return "admin"
	default:
		return "anonymous"
	}
}

// ErrNoSession covers missing, malformed, expired and closed sessions alike.
var ErrNoSession = errors.New("no active session")

type Session struct {
	ID                string
	User              models.User
	Role              models.Role
	LastSelectedMonth string
	CreatedAt         time.Time
	ExpiresAt         time.Time
}

// StateOf maps a possibly nil session to its gate state.
func StateOf(s *Session) State {
	switch {
	case s == nil:
		return Anonymous
	case s.Role == models.RoleAdmin:
		return AuthenticatedAdmin
	default:
		return AuthenticatedUser
	}
}

func (s *Session) Public() models.Session {
	return models.Session{ID: s.ID, User: s.User, Role: s.Role, LastSelectedMonth: s.LastSelectedMonth}
}

type claims struct {
	Role models.Role `json:"role"`
	jwt.RegisteredClaims
}

type Manager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
	logger *logging.Logger

	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewManager(secret string, ttl time.Duration, logger *logging.Logger) *Manager {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Manager{
		secret:   []byte(secret),
		ttl:      ttl,
		now:      time.Now,
		logger:   logger.WithComponent(logging.ComponentSession),
		sessions: make(map[string]*Session),
	}
}

// Open starts a session for user and returns its bearer token.
func (m *Manager) Open(user models.User) (string, *Session, error) {
	now := m.now()
	s := &Session{
		ID:        uuid.NewString(),
		User:      user,
		Role:      user.Role,
		CreatedAt: now,
		ExpiresAt: now.Add(m.ttl),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Role: user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        s.ID,
			Subject:   strconv.FormatInt(user.ID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(s.ExpiresAt),
		},
	})
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", nil, fmt.Errorf("sign token: %w", err)
	}

	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()

	m.logger.Info("Session opened", logging.FieldSessionID, s.ID, logging.FieldUserID, user.ID, "role", user.Role)
	out := *s
	return signed, &out, nil
}

// Resolve returns a snapshot of the session behind token.
func (m *Manager) Resolve(token string) (*Session, error) {
	if token == "" {
		return nil, ErrNoSession
	}

	var c claims
	_, err := jwt.ParseWithClaims(token, &c, func(t *jwt.Token) (interface{}, error) {
		return m.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(m.now))
	if err != nil {
		return nil, ErrNoSession
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.sessions[c.ID]
	if !ok || !m.now().Before(s.ExpiresAt) {
		return nil, ErrNoSession
	}
	out := *s
	return &out, nil
}

// Close ends one session. Closing an unknown session is not an error.
func (m *Manager) Close(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[id]; ok {
		delete(m.sessions, id)
		m.logger.Info("Session closed", logging.FieldSessionID, id)
	}
}

// CloseUser ends every session of userID and reports how many were open.
func (m *Manager) CloseUser(userID int64) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for id, s := range m.sessions {
		if s.User.ID == userID {
			delete(m.sessions, id)
			n++
		}
	}
	if n > 0 {
		m.logger.Info("User sessions closed", logging.FieldUserID, userID, "count", n)
	}
	return n
}

// RememberMonth records the last month the session worked on.
func (m *Manager) RememberMonth(id, month string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return ErrNoSession
	}
	s.LastSelectedMonth = month
	return nil
}

// RefreshUser replaces the cached user on every session of u.ID.
func (m *Manager) RefreshUser(u models.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.sessions {
		if s.User.ID == u.ID {
			s.User = u
		}
	}
}

// Sweep drops expired sessions and returns how many were removed.
func (m *Manager) Sweep() int {
	now := m.now()
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for id, s := range m.sessions {
		if !now.Before(s.ExpiresAt) {
			delete(m.sessions, id)
			n++
		}
	}
	return n
}

func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
