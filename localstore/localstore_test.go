package localstore

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore(t *testing.T) {
	s := NewMemoryStore()

	_, err := s.Get("k")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Set("k", "v"))
	v, err := s.Get("k")
	require.NoError(t, err)
	assert.Equal(t, "v", v)
}

func TestCookieStore_RoundTripsThroughCookies(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	s := NewCookieStore(rec, req, false)

	_, err := s.Get("apop_favorites")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Set("apop_favorites", `["a","b, c"]`))
	v, err := s.Get("apop_favorites")
	require.NoError(t, err)
	assert.Equal(t, `["a","b, c"]`, v)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.True(t, cookies[0].HttpOnly)

	// A later request carrying the cookie sees the same value.
	next := httptest.NewRequest(http.MethodGet, "/", nil)
	next.AddCookie(cookies[0])
	s2 := NewCookieStore(httptest.NewRecorder(), next, false)
	v, err = s2.Get("apop_favorites")
	require.NoError(t, err)
	assert.Equal(t, `["a","b, c"]`, v)
}

func TestCookieStore_PresetWinsOverCookie(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "k", Value: "Y29va2ll"})
	rec := httptest.NewRecorder()
	s := NewCookieStore(rec, req, false)
	s.Preset("k", "header")

	v, err := s.Get("k")
	require.NoError(t, err)
	assert.Equal(t, "header", v)
	assert.Empty(t, rec.Result().Cookies())
}
