package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"pearl_backend/auth"
	"pearl_backend/middleware"
)

type Config struct {
	Addr string `yaml:"addr"`

	Firestore FirestoreConfig `yaml:"firestore"`
	Storage   StorageConfig   `yaml:"storage"`
	Auth      AuthConfig      `yaml:"auth"`
	HTTP      HTTPConfig      `yaml:"http"`
}

type FirestoreConfig struct {
	ProjectID       string `yaml:"project_id"`
	CredentialsFile string `yaml:"credentials_file"`
}

// StorageConfig picks where uploaded photos go: a Cloud Storage bucket when
// Bucket is set, otherwise UploadDir served under /uploads/.
type StorageConfig struct {
	Bucket        string `yaml:"bucket"`
	UploadDir     string `yaml:"upload_dir"`
	PublicBaseURL string `yaml:"public_base_url"`
	MaxWidth      int    `yaml:"max_width"`
	MaxUploadMB   int    `yaml:"max_upload_mb"`
}

type AuthConfig struct {
	AdminUID   string      `yaml:"admin_uid"`
	SessionTTL string      `yaml:"session_ttl"`
	Users      []auth.User `yaml:"users"`
}

type HTTPConfig struct {
	CORSOrigins   []string `yaml:"cors_origins"`
	SecureCookies bool     `yaml:"secure_cookies"`

	// WriteRate is the per-IP allowance for likes and comments, per minute.
	WriteRate  int `yaml:"write_rate"`
	WriteBurst int `yaml:"write_burst"`

	// TrustedProxies may report the client address in X-Forwarded-For.
	// Addresses or CIDR prefixes; empty trusts nobody.
	TrustedProxies []string `yaml:"trusted_proxies"`
}

func Default() Config {
	return Config{
		Addr: ":8080",
		Storage: StorageConfig{
			UploadDir:   "uploads",
			MaxWidth:    1600,
			MaxUploadMB: 10,
		},
		Auth: AuthConfig{
			SessionTTL: "168h",
		},
		HTTP: HTTPConfig{
			CORSOrigins: []string{"*"},
			WriteRate:   middleware.DefaultWriteRate,
			WriteBurst:  middleware.DefaultWriteBurst,
		},
	}
}

// Load reads path if it exists, then applies environment overrides. A
// missing file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		b, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return Config{}, fmt.Errorf("read config: %w", err)
		default:
			if err := yaml.Unmarshal(b, &cfg); err != nil {
				return Config{}, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}

	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("PEARL_ADDR"); v != "" {
		c.Addr = v
	}
	if v := os.Getenv("PORT"); v != "" && os.Getenv("PEARL_ADDR") == "" {
		c.Addr = ":" + v
	}
	if v := os.Getenv("PEARL_PROJECT_ID"); v != "" {
		c.Firestore.ProjectID = v
	}
	if v := os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"); v != "" && c.Firestore.CredentialsFile == "" {
		c.Firestore.CredentialsFile = v
	}
	if v := os.Getenv("PEARL_ADMIN_UID"); v != "" {
		c.Auth.AdminUID = v
	}
	if v := os.Getenv("PEARL_BUCKET"); v != "" {
		c.Storage.Bucket = v
	}
	if v := os.Getenv("PEARL_UPLOAD_DIR"); v != "" {
		c.Storage.UploadDir = v
	}
	if v := os.Getenv("PEARL_PUBLIC_BASE_URL"); v != "" {
		c.Storage.PublicBaseURL = v
	}
	if v := os.Getenv("PEARL_CORS_ORIGINS"); v != "" {
		c.HTTP.CORSOrigins = splitList(v)
	}
	if v := os.Getenv("PEARL_TRUSTED_PROXIES"); v != "" {
		c.HTTP.TrustedProxies = splitList(v)
	}
	if v, err := strconv.ParseBool(os.Getenv("PEARL_SECURE_COOKIES")); err == nil {
		c.HTTP.SecureCookies = v
	}
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Validate checks settings needed to serve. memory skips the Firestore
// requirement for local development.
func (c Config) Validate(memory bool) error {
	if c.Addr == "" {
		return errors.New("config: addr is required")
	}
	if !memory && c.Firestore.ProjectID == "" {
		return errors.New("config: firestore.project_id is required")
	}
	if c.Storage.Bucket == "" && c.Storage.UploadDir == "" {
		return errors.New("config: storage.bucket or storage.upload_dir is required")
	}
	if _, err := c.SessionTTL(); err != nil {
		return err
	}
	if c.Auth.AdminUID == "" {
		return errors.New("config: auth.admin_uid is required")
	}
	for i, u := range c.Auth.Users {
		if u.UID == "" || u.Email == "" || u.PasswordHash == "" {
			return fmt.Errorf("config: auth.users[%d] needs uid, email and password_hash", i)
		}
	}
	if _, err := c.Proxies(); err != nil {
		return err
	}
	if c.HTTP.WriteRate <= 0 || c.HTTP.WriteBurst <= 0 {
		return errors.New("config: http.write_rate and http.write_burst must be positive")
	}
	return nil
}

func (c Config) SessionTTL() (time.Duration, error) {
	if c.Auth.SessionTTL == "" {
		return auth.DefaultSessionTTL, nil
	}
	d, err := time.ParseDuration(c.Auth.SessionTTL)
	if err != nil {
		return 0, fmt.Errorf("config: auth.session_ttl: %w", err)
	}
	return d, nil
}

func (c Config) Proxies() (middleware.TrustedProxies, error) {
	p, err := middleware.ParseTrustedProxies(c.HTTP.TrustedProxies)
	if err != nil {
		return nil, fmt.Errorf("config: http.trusted_proxies: %w", err)
	}
	return p, nil
}
