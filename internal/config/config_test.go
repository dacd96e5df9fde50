//nolint:paralleltest
package config_test

import (
	"testing"
	"time"

	"github.com/andyle182810/dogview/internal/config"
	"github.com/stretchr/testify/require"
)

func TestNew_Defaults(t *testing.T) {
	cfg, err := config.New()
	require.NoError(t, err)

	require.Equal(t, "info", cfg.LogLevel)
	require.Equal(t, 8080, cfg.HTTPServerPort)
	require.Equal(t, "1M", cfg.HTTPBodyLimit)
	require.Equal(t, "https://dog.ceo/api", cfg.DogAPIBaseURL)
	require.Equal(t, time.Second, cfg.PageRenderWait)
	require.Equal(t, 30*time.Minute, cfg.SessionTTL)
	require.Empty(t, cfg.DefaultBreed)
	require.False(t, cfg.SessionCookieSecure)
	require.Equal(t, 10000, cfg.SessionMax)
}

func TestNew_FromEnvironment(t *testing.T) {
	t.Setenv("HTTP_SERVER_PORT", "9000")
	t.Setenv("HTTP_ALLOW_ORIGINS", "https://a.example,https://b.example")
	t.Setenv("DOG_API_TIMEOUT", "2s")
	t.Setenv("DEFAULT_BREED", "hound/afghan")
	t.Setenv("PAGE_RENDER_WAIT", "0s")
	t.Setenv("SESSION_COOKIE_SECURE", "true")
	t.Setenv("SESSION_MAX", "50")

	cfg, err := config.New()
	require.NoError(t, err)

	require.Equal(t, 9000, cfg.HTTPServerPort)
	require.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.HTTPAllowOrigins)
	require.Equal(t, 2*time.Second, cfg.DogAPITimeout)
	require.Equal(t, "hound/afghan", cfg.DefaultBreed)
	require.Zero(t, cfg.PageRenderWait)
	require.True(t, cfg.SessionCookieSecure)
	require.Equal(t, 50, cfg.SessionMax)
}

func TestNew_InvalidValue(t *testing.T) {
	t.Setenv("SESSION_TTL", "forever")

	_, err := config.New()
	require.Error(t, err)
}
