package fingerprint

import (
	"encoding/base64"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pearl_backend/localstore"
)

func TestHash_MatchesThirtyOneRollingHash(t *testing.T) {
	assert.Equal(t, int32(0), Hash(""))
	assert.Equal(t, int32(99162322), Hash("hello"))
	// Wraps to the minimum int32; the absolute value must not overflow.
	assert.Equal(t, int32(-2147483648), Hash("polygenelubricants"))
	assert.Equal(t, int64(2147483648), abs(Hash("polygenelubricants")))
}

func TestGet_IsIdempotentAfterFirstCall(t *testing.T) {
	store := localstore.NewMemoryStore()
	g := New(store, Env{UserAgent: "Mozilla/5.0", Language: "en-US"})

	first := g.Get()
	second := g.Get()

	assert.NotEmpty(t, first)
	assert.True(t, strings.HasPrefix(first, Prefix))
	assert.Equal(t, first, second)
	assert.True(t, Valid(first))

	stored, err := store.Get(Key)
	require.NoError(t, err)
	assert.Equal(t, first, stored)

	// A fresh generator over the same store returns the stored value.
	assert.Equal(t, first, New(store, Env{UserAgent: "other"}).Get())
}

func TestGet_DeterministicWithFixedSources(t *testing.T) {
	g := New(localstore.NewMemoryStore(), Env{
		UserAgent:      "UA",
		Language:       "en-US",
		ScreenWidth:    1920,
		ScreenHeight:   1080,
		ColorDepth:     24,
		TimezoneOffset: -120,
	},
		WithRand(func(int) int { return 0 }),
		WithClock(func() time.Time { return time.UnixMilli(0) }),
	)

	assert.Equal(t, "fp_iqsoi3_000000", g.Get())
}

func TestGet_ReturnsExistingValueUnchanged(t *testing.T) {
	store := localstore.NewMemoryStore()
	require.NoError(t, store.Set(Key, "fp_abc_123456"))

	assert.Equal(t, "fp_abc_123456", New(store, Env{}).Get())
}

func TestGet_ReplacesMalformedStoredValue(t *testing.T) {
	for _, bad := range []string{"recipes/other", "fp_" + strings.Repeat("a", 2000), "fp_", "plain"} {
		store := localstore.NewMemoryStore()
		require.NoError(t, store.Set(Key, bad))

		fp := New(store, Env{}).Get()
		assert.True(t, Valid(fp), bad)
		assert.NotEqual(t, bad, fp)

		stored, err := store.Get(Key)
		require.NoError(t, err)
		assert.Equal(t, fp, stored, "the replacement is persisted")
	}
}

func TestForRequest_TamperedCookieIsReplaced(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{
		Name:  Key,
		Value: base64.RawURLEncoding.EncodeToString([]byte("fp_x/../../recipes/abc")),
	})
	rec := httptest.NewRecorder()

	fp := ForRequest(rec, req, false).Get()
	assert.True(t, Valid(fp))

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, Key, cookies[0].Name)
}

type brokenStore struct{}

func (brokenStore) Get(string) (string, error) { return "", errors.New("quota exceeded") }
func (brokenStore) Set(string, string) error   { return errors.New("quota exceeded") }

func TestGet_SwallowsStorageFailures(t *testing.T) {
	fp := New(brokenStore{}, Env{}).Get()
	assert.True(t, Valid(fp))
}

func TestValid(t *testing.T) {
	assert.True(t, Valid("fp_iqsoi3_000000"))
	assert.False(t, Valid("fp_"))
	assert.False(t, Valid("iqsoi3_000000"))
	assert.False(t, Valid("fp_<script>"))
	assert.False(t, Valid("fp_"+strings.Repeat("a", 80)))
}

func TestForRequest_UsesHeaderThenCookie(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderFingerprint, "fp_fromheader_abcdef")
	assert.Equal(t, "fp_fromheader_abcdef", ForRequest(httptest.NewRecorder(), req, false).Get())

	rec := httptest.NewRecorder()
	fresh := httptest.NewRequest(http.MethodGet, "/", nil)
	fresh.Header.Set(HeaderFingerprint, "not-a-fingerprint")
	fp := ForRequest(rec, fresh, false).Get()
	require.True(t, Valid(fp))

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	again := httptest.NewRequest(http.MethodGet, "/", nil)
	again.AddCookie(cookies[0])
	assert.Equal(t, fp, ForRequest(httptest.NewRecorder(), again, false).Get())
}

func TestEnvFromRequest(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("User-Agent", "TestAgent/1.0")
	req.Header.Set("Accept-Language", "fr-CA,fr;q=0.9,en;q=0.8")
	req.Header.Set(HeaderScreenWidth, "390")
	req.Header.Set(HeaderScreenHeight, "844")
	req.Header.Set(HeaderColorDepth, "junk")
	req.Header.Set(HeaderTimezoneOffset, "300")

	assert.Equal(t, Env{
		UserAgent:      "TestAgent/1.0",
		Language:       "fr-CA",
		ScreenWidth:    390,
		ScreenHeight:   844,
		TimezoneOffset: 300,
	}, EnvFromRequest(req))
}
