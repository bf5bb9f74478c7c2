package fingerprint

import (
	"net/http"
	"strconv"
	"strings"

	"pearl_backend/localstore"
)

// Client hint headers a frontend may send alongside requests.
const (
	HeaderFingerprint    = "X-Browser-Fingerprint"
	HeaderScreenWidth    = "X-Screen-Width"
	HeaderScreenHeight   = "X-Screen-Height"
	HeaderColorDepth     = "X-Color-Depth"
	HeaderTimezoneOffset = "X-Timezone-Offset"
)

func EnvFromRequest(r *http.Request) Env {
	return Env{
		UserAgent:      r.UserAgent(),
		Language:       primaryLanguage(r.Header.Get("Accept-Language")),
		ScreenWidth:    headerInt(r, HeaderScreenWidth),
		ScreenHeight:   headerInt(r, HeaderScreenHeight),
		ColorDepth:     headerInt(r, HeaderColorDepth),
		TimezoneOffset: headerInt(r, HeaderTimezoneOffset),
	}
}

// ForRequest builds a generator backed by the request's cookies. A
// well-formed fingerprint sent in HeaderFingerprint takes precedence.
func ForRequest(w http.ResponseWriter, r *http.Request, secure bool, opts ...Option) *Generator {
	store := localstore.NewCookieStore(w, r, secure)
	if v := strings.TrimSpace(r.Header.Get(HeaderFingerprint)); Valid(v) {
		store.Preset(Key, v)
	}
	return New(store, EnvFromRequest(r), opts...)
}

func primaryLanguage(accept string) string {
	tag, _, _ := strings.Cut(accept, ",")
	tag, _, _ = strings.Cut(tag, ";")
	return strings.TrimSpace(tag)
}

func headerInt(r *http.Request, name string) int {
	n, err := strconv.Atoi(strings.TrimSpace(r.Header.Get(name)))
	if err != nil {
		return 0
	}
	return n
}
