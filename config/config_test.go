package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, "uploads", cfg.Storage.UploadDir)
	assert.Equal(t, 1600, cfg.Storage.MaxWidth)
}

func TestLoad_FileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pearl.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
addr: ":9000"
firestore:
  project_id: recipes-dev
auth:
  admin_uid: uid-file
  session_ttl: 2h
  users:
    - uid: uid-file
      email: pearl@example.com
      password_hash: "$2a$10$abc"
http:
  cors_origins: ["https://pinchofpearl.example"]
`), 0o600))

	t.Setenv("PEARL_ADMIN_UID", "uid-env")
	t.Setenv("PEARL_CORS_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("PEARL_SECURE_COOKIES", "true")
	t.Setenv("PEARL_TRUSTED_PROXIES", "10.0.0.0/8, 192.0.2.7")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9000", cfg.Addr)
	assert.Equal(t, "recipes-dev", cfg.Firestore.ProjectID)
	assert.Equal(t, "uid-env", cfg.Auth.AdminUID)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.HTTP.CORSOrigins)
	assert.True(t, cfg.HTTP.SecureCookies)
	proxies, err := cfg.Proxies()
	require.NoError(t, err)
	assert.Len(t, proxies, 2)
	require.Len(t, cfg.Auth.Users, 1)

	ttl, err := cfg.SessionTTL()
	require.NoError(t, err)
	assert.Equal(t, 2*time.Hour, ttl)
	assert.NoError(t, cfg.Validate(false))
}

func TestLoad_BadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pearl.yaml")
	require.NoError(t, os.WriteFile(path, []byte("addr: [unclosed"), 0o600))
	_, err := Load(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Auth.AdminUID = "uid"

	assert.ErrorContains(t, cfg.Validate(false), "project_id")
	assert.NoError(t, cfg.Validate(true))

	bad := cfg
	bad.Auth.SessionTTL = "forever"
	assert.ErrorContains(t, bad.Validate(true), "session_ttl")

	bad = cfg
	bad.Auth.AdminUID = ""
	assert.ErrorContains(t, bad.Validate(true), "admin_uid")

	bad = cfg
	bad.HTTP.TrustedProxies = []string{"lb.internal"}
	assert.ErrorContains(t, bad.Validate(true), "trusted_proxies")

	bad = cfg
	bad.Storage.UploadDir = ""
	assert.ErrorContains(t, bad.Validate(true), "storage")
}
