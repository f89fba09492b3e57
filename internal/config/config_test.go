package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"worklog/internal/config"
)

func TestLoadDefaults(t *testing.T) {
	c := config.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Equal(t, ":8000", c.Addr())
	assert.Equal(t, "info", c.Log.Level)
	assert.Equal(t, []string{"*"}, c.CORSOriginList())
}

func TestLoadFileAndEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	data := `
server:
  port: 9100
auth:
  provider_url: https://auth.example.com
  cors_origins: "http://a.example, http://b.example"
log:
  level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))
	t.Setenv("AUTH_JWT_SECRET", "from-env")
	t.Setenv("PORT", "9200")

	c := config.Load(path)
	assert.Equal(t, ":9200", c.Addr()) // env wins over file
	assert.Equal(t, "https://auth.example.com", c.Auth.ProviderURL)
	assert.Equal(t, "from-env", c.Auth.JWTSecret)
	assert.Equal(t, "debug", c.Log.Level)
	assert.Equal(t, []string{"http://a.example", "http://b.example"}, c.CORSOriginList())
}
