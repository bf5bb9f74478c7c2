// Package localstore holds small per-browser values such as the favorites
// list and the like fingerprint. In the HTTP server those values live in
// cookies; tests and the CLI use the in-memory store.
package localstore

import (
	"encoding/base64"
	"errors"
	"net/http"
	"sync"
	"time"
)

var ErrNotFound = errors.New("localstore: key not found")

type Store interface {
	Get(key string) (string, error)
	Set(key, value string) error
}

type MemoryStore struct {
	mu     sync.Mutex
	values map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string]string)}
}

func (s *MemoryStore) Get(key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.values[key]
	if !ok {
		return "", ErrNotFound
	}
	return v, nil
}

func (s *MemoryStore) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.values[key] = value
	return nil
}

const cookieMaxAge = 365 * 24 * time.Hour

// CookieStore reads values from request cookies and writes them back as
// response cookies. Values are base64url encoded so JSON survives cookie
// sanitising. A value set during the request is visible to later Gets.
type CookieStore struct {
	w      http.ResponseWriter
	r      *http.Request
	secure bool
	cache  map[string]string
}

func NewCookieStore(w http.ResponseWriter, r *http.Request, secure bool) *CookieStore {
	return &CookieStore{w: w, r: r, secure: secure, cache: make(map[string]string)}
}

// Preset makes key resolve to value for the rest of the request without
// writing a cookie.
func (s *CookieStore) Preset(key, value string) {
	s.cache[key] = value
}

func (s *CookieStore) Get(key string) (string, error) {
	if v, ok := s.cache[key]; ok {
		return v, nil
	}
	c, err := s.r.Cookie(key)
	if err != nil {
		return "", ErrNotFound
	}
	b, err := base64.RawURLEncoding.DecodeString(c.Value)
	if err != nil {
		return "", err
	}
	v := string(b)
	s.cache[key] = v
	return v, nil
}

func (s *CookieStore) Set(key, value string) error {
	s.cache[key] = value
	http.SetCookie(s.w, &http.Cookie{
		Name:     key,
		Value:    base64.RawURLEncoding.EncodeToString([]byte(value)),
		Path:     "/",
		MaxAge:   int(cookieMaxAge.Seconds()),
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}
