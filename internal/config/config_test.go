package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"DATABASE_URL", "WEB_BIND", "DISCORD_REDIRECT_URI", "CORS_ORIGINS", "APP_ENV", "DISCORD_TOKEN"} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0:3000", cfg.WebBind)
	assert.Equal(t, "http://localhost:3000", cfg.WebUIBaseURL)
	assert.Equal(t, []string{"*"}, cfg.CORSOrigins)
	assert.Equal(t, "development", cfg.AppEnv)
	assert.Error(t, cfg.RequireDatabase())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/billdividr")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("DISCORD_REDIRECT_URI", "https://split.example/api/auth/callback")
	t.Setenv("APP_ENV", "production")
	t.Setenv("JWT_SECRET", "")
	t.Setenv("DISCORD_CLIENT_ID", "id")
	t.Setenv("DISCORD_CLIENT_SECRET", "secret")

	cfg, err := Load()
	require.NoError(t, err)
	assert.NoError(t, cfg.RequireDatabase())
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
	assert.Equal(t, "https://split.example", cfg.WebUIBaseURL)
	assert.ErrorContains(t, cfg.RequireOAuth(), "JWT_SECRET")
}

func TestLoadRejectsUnknownEnv(t *testing.T) {
	t.Setenv("APP_ENV", "staging")
	_, err := Load()
	assert.Error(t, err)
}

func TestExtractBaseURL(t *testing.T) {
	assert.Equal(t, "http://localhost:3000", extractBaseURL("::bad"))
	assert.Equal(t, "https://x.example:8443", extractBaseURL("https://x.example:8443/cb"))
}
