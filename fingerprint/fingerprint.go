// Package fingerprint derives a best-effort anonymous identity for a browser.
// It only exists to keep likes to one per browser per recipe and is not a
// security boundary: clearing the stored value yields a new identity.
package fingerprint

import (
	"math/rand/v2"
	"strconv"
	"strings"
	"time"
	"unicode/utf16"

	"go.uber.org/zap"

	"pearl_backend/localstore"
)

const (
	Key    = "apop_fingerprint"
	Prefix = "fp_"
)

// Env is what the browser reports about itself.
type Env struct {
	UserAgent      string
	Language       string
	ScreenWidth    int
	ScreenHeight   int
	ColorDepth     int
	TimezoneOffset int
}

type Generator struct {
	store  localstore.Store
	env    Env
	intn   func(n int) int
	now    func() time.Time
	logger *zap.Logger
}

type Option func(*Generator)

func WithRand(intn func(n int) int) Option {
	return func(g *Generator) { g.intn = intn }
}

func WithClock(now func() time.Time) Option {
	return func(g *Generator) { g.now = now }
}

func WithLogger(logger *zap.Logger) Option {
	return func(g *Generator) { g.logger = logger }
}

func New(store localstore.Store, env Env, opts ...Option) *Generator {
	g := &Generator{
		store:  store,
		env:    env,
		intn:   rand.IntN,
		now:    time.Now,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Get returns the stored fingerprint, creating and storing one on first use
// or when the stored value is malformed. It never fails; storage errors only
// mean the value will not stick.
func (g *Generator) Get() string {
	if v, err := g.store.Get(Key); err == nil && Valid(v) {
		return v
	}

	data := strings.Join([]string{
		g.env.UserAgent,
		g.env.Language,
		strconv.Itoa(g.env.ScreenWidth),
		strconv.Itoa(g.env.ScreenHeight),
		strconv.Itoa(g.env.ColorDepth),
		strconv.Itoa(g.env.TimezoneOffset),
		g.randomBase36(11),
		strconv.FormatInt(g.now().UnixMilli(), 36),
	}, "|")

	fp := Prefix + strconv.FormatInt(abs(Hash(data)), 36) + "_" + g.randomBase36(6)

	if err := g.store.Set(Key, fp); err != nil {
		g.logger.Debug("fingerprint not persisted", zap.Error(err))
	}
	return fp
}

// Hash is a 31-multiplier rolling hash over UTF-16 code units that wraps at
// 32 bits.
func Hash(s string) int32 {
	var h int32
	for _, c := range utf16.Encode([]rune(s)) {
		h = h*31 + int32(c)
	}
	return h
}

func abs(h int32) int64 {
	v := int64(h)
	if v < 0 {
		return -v
	}
	return v
}

const base36 = "0123456789abcdefghijklmnopqrstuvwxyz"

func (g *Generator) randomBase36(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = base36[g.intn(len(base36))]
	}
	return string(b)
}

// Valid reports whether s looks like a value this package produced.
func Valid(s string) bool {
	if !strings.HasPrefix(s, Prefix) || len(s) > 64 {
		return false
	}
	for _, c := range s[len(Prefix):] {
		if c != '_' && !strings.ContainsRune(base36, c) {
			return false
		}
	}
	return len(s) > len(Prefix)
}
