package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"pearl_backend/auth"
	"pearl_backend/fingerprint"
	"pearl_backend/localstore"
	"pearl_backend/media"
	"pearl_backend/middleware"
	"pearl_backend/store"
)

const viewTimeout = 5 * time.Second

type Options struct {
	Store         store.Store
	Auth          auth.Provider
	Uploader      *media.Uploader
	Logger        *zap.Logger
	AdminUID      string
	SessionTTL    time.Duration
	SecureCookies bool
	MaxUploadMB   int

	// HTTPClient fetches remote images for /image. The default refuses
	// non-public destinations.
	HTTPClient *http.Client
}

type Handler struct {
	store         store.Store
	auth          auth.Provider
	uploader      *media.Uploader
	logger        *zap.Logger
	adminUID      string
	sessionTTL    time.Duration
	secureCookies bool
	maxUpload     int64
	httpClient    *http.Client

	background sync.WaitGroup
}

func New(opts Options) *Handler {
	h := &Handler{
		store:         opts.Store,
		auth:          opts.Auth,
		uploader:      opts.Uploader,
		logger:        opts.Logger,
		adminUID:      opts.AdminUID,
		sessionTTL:    opts.SessionTTL,
		secureCookies: opts.SecureCookies,
		maxUpload:     int64(opts.MaxUploadMB) << 20,
		httpClient:    opts.HTTPClient,
	}
	if h.logger == nil {
		h.logger = zap.NewNop()
	}
	if h.sessionTTL <= 0 {
		h.sessionTTL = auth.DefaultSessionTTL
	}
	if h.maxUpload <= 0 {
		h.maxUpload = 10 << 20
	}
	if h.httpClient == nil {
		h.httpClient = media.NewFetchClient(15 * time.Second)
	}
	return h
}

// Wait blocks until background work such as view counting has finished.
func (h *Handler) Wait() {
	h.background.Wait()
}

type RouteConfig struct {
	CORSOrigins []string
	WriteRate   int
	WriteBurst  int

	// Proxies may set X-Forwarded-For for rate limiting.
	Proxies middleware.TrustedProxies

	// Uploads serves locally stored photos under /uploads/ when set.
	Uploads http.Handler
}

func (h *Handler) Routes(rc RouteConfig) http.Handler {
	r := mux.NewRouter()

	limit := middleware.NewRateLimiter(rc.WriteRate, rc.WriteBurst, rc.Proxies).Middleware
	admin := middleware.RequireAdmin(h.auth, h.adminUID)

	r.HandleFunc("/healthz", h.Health).Methods("GET")

	r.HandleFunc("/recipes", h.GetRecipes).Methods("GET")
	r.HandleFunc("/recipe", h.GetRecipe).Methods("GET")
	r.HandleFunc("/categories", h.GetCategories).Methods("GET")
	r.HandleFunc("/fingerprint", h.GetFingerprint).Methods("GET")
	r.Handle("/recipe/like", limit(http.HandlerFunc(h.ToggleLike))).Methods("POST")
	r.HandleFunc("/recipe/comments", h.GetComments).Methods("GET")
	r.Handle("/recipe/comments", limit(http.HandlerFunc(h.PostComment))).Methods("POST")
	r.HandleFunc("/favorites", h.GetFavorites).Methods("GET")
	r.HandleFunc("/favorites/toggle", h.ToggleFavorite).Methods("POST")
	r.HandleFunc("/image", h.FetchImageHandler).Methods("GET")

	r.Handle("/admin/login", limit(http.HandlerFunc(h.Login))).Methods("POST")
	r.HandleFunc("/admin/logout", h.Logout).Methods("POST")
	r.HandleFunc("/admin/session", h.CurrentSession).Methods("GET")
	r.Handle("/admin/stats", admin(http.HandlerFunc(h.GetStats))).Methods("GET")
	r.Handle("/admin/upload", admin(http.HandlerFunc(h.UploadPhotos))).Methods("POST")
	r.Handle("/recipe", admin(http.HandlerFunc(h.CreateRecipe))).Methods("POST")
	r.Handle("/recipe", admin(http.HandlerFunc(h.UpdateRecipe))).Methods("PUT")
	r.Handle("/update/recipe", admin(http.HandlerFunc(h.UpdateRecipeField))).Methods("PUT")
	r.Handle("/delete/recipe", admin(http.HandlerFunc(h.DeleteRecipe))).Methods("DELETE")

	if rc.Uploads != nil {
		r.PathPrefix("/uploads/").Handler(rc.Uploads).Methods("GET", "HEAD")
	}

	c := cors.New(cors.Options{
		AllowedOrigins: rc.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{
			"Content-Type",
			"Authorization",
			fingerprint.HeaderFingerprint,
			fingerprint.HeaderScreenWidth,
			fingerprint.HeaderScreenHeight,
			fingerprint.HeaderColorDepth,
			fingerprint.HeaderTimezoneOffset,
		},
		AllowCredentials: true,
	})

	return middleware.Chain(c.Handler(r),
		middleware.WithRequestID,
		middleware.WithAccessLog(h.logger),
		middleware.WithRecover(h.logger),
	)
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	middleware.WriteError(w, status, msg)
}

func (h *Handler) localStore(w http.ResponseWriter, r *http.Request) *localstore.CookieStore {
	return localstore.NewCookieStore(w, r, h.secureCookies)
}

func (h *Handler) fingerprint(w http.ResponseWriter, r *http.Request) string {
	return fingerprint.ForRequest(w, r, h.secureCookies, fingerprint.WithLogger(h.logger)).Get()
}

// trackView bumps the view counter without holding up the response.
// Failures are only logged.
func (h *Handler) trackView(recipeID string) {
	h.background.Add(1)
	go func() {
		defer h.background.Done()
		ctx, cancel := context.WithTimeout(context.Background(), viewTimeout)
		defer cancel()
		if err := h.store.IncrementViews(ctx, recipeID); err != nil {
			h.logger.Debug("view count not updated", zap.String("recipe_id", recipeID), zap.Error(err))
		}
	}()
}

func requireID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := r.URL.Query().Get("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "Missing 'id' query parameter")
		return "", false
	}
	return id, true
}
