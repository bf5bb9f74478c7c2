// Package auth signs the site owner in with email and password and keeps
// their session. Only the configured admin uid may use the admin API.
package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"
)

const (
	CookieName        = "pearl_session"
	DefaultSessionTTL = 7 * 24 * time.Hour
)

var (
	ErrInvalidCredentials = errors.New("Invalid login credentials")
	ErrSessionNotFound    = errors.New("session not found or expired")
)

type User struct {
	UID          string `yaml:"uid"`
	Email        string `yaml:"email"`
	PasswordHash string `yaml:"password_hash"`
}

type Session struct {
	Token     string    `json:"-"`
	UserID    string    `json:"user_id"`
	Email     string    `json:"email"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Provider is the session side of the managed backend.
type Provider interface {
	SignIn(ctx context.Context, email, password string) (Session, error)
	Lookup(ctx context.Context, token string) (Session, error)
	SignOut(ctx context.Context, token string) error
}

// IsAdmin compares the signed-in user against the configured admin uid.
func IsAdmin(s Session, adminUID string) bool {
	return adminUID != "" && s.UserID == adminUID
}

func HashPassword(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Local checks passwords against configured bcrypt hashes and keeps sessions
// in memory, so they do not survive a restart.
type Local struct {
	users map[string]User
	ttl   time.Duration
	now   func() time.Time

	mu       sync.Mutex
	sessions map[string]Session
}

func NewLocal(users []User, ttl time.Duration) *Local {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	byEmail := make(map[string]User, len(users))
	for _, u := range users {
		byEmail[normalizeEmail(u.Email)] = u
	}
	return &Local{
		users:    byEmail,
		ttl:      ttl,
		now:      time.Now,
		sessions: make(map[string]Session),
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func generateToken() (string, error) {
	var b [32]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b[:]), nil
}

func (l *Local) SignIn(ctx context.Context, email, password string) (Session, error) {
	_ = ctx

	u, ok := l.users[normalizeEmail(email)]
	if !ok {
		return Session{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return Session{}, ErrInvalidCredentials
	}

	token, err := generateToken()
	if err != nil {
		return Session{}, err
	}
	s := Session{
		Token:     token,
		UserID:    u.UID,
		Email:     u.Email,
		ExpiresAt: l.now().Add(l.ttl),
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.sessions[hashToken(token)] = s
	return s, nil
}

func (l *Local) Lookup(ctx context.Context, token string) (Session, error) {
	_ = ctx

	if token == "" {
		return Session{}, ErrSessionNotFound
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	key := hashToken(token)
	s, ok := l.sessions[key]
	if !ok {
		return Session{}, ErrSessionNotFound
	}
	if l.now().After(s.ExpiresAt) {
		delete(l.sessions, key)
		return Session{}, ErrSessionNotFound
	}
	return s, nil
}

func (l *Local) SignOut(ctx context.Context, token string) error {
	_ = ctx

	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.sessions, hashToken(token))
	return nil
}
