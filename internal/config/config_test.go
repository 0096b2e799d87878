package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv unsets every variable the loaders read so the host environment
// cannot leak into a test.
func clearEnv(t *testing.T) {
	t.Helper()
	names := []string{
		"AUTH_SERVICE_URL", "APP1_URL", "APP2_URL", "LOG_LEVEL", "LOG_FORMAT", "LOG_FILE", "PRETTY",
		"VITE_AUTH_SERVICE_URL", "VITE_APP1_URL", "VITE_APP2_URL",
		"SECRET_KEY", "ALGORITHM", "ACCESS_TOKEN_EXPIRE_MINUTES", "ALLOWED_ORIGINS", "PROXY_TIMEOUT", "PORT",
		"AUTH_PORT", "APP1_PORT", "APP2_PORT",
	}
	for _, n := range names {
		if v, ok := os.LookupEnv(n); ok {
			require.NoError(t, os.Unsetenv(n))
			t.Cleanup(func() { _ = os.Setenv(n, v) })
		}
	}
	// Keep a stray .env in the working directory out of the picture.
	t.Chdir(t.TempDir())
}

func TestLoadClientDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := LoadClient("")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8000", cfg.AuthServiceURL)
	assert.Equal(t, "http://localhost:8001", cfg.App1URL)
	assert.Equal(t, "http://localhost:8002", cfg.App2URL)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.False(t, cfg.Pretty)
}

func TestLoadClientYAMLThenEnv(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "console.yaml")
	yaml := `
auth_service_url: "http://auth.internal"
app1_url: "http://app1.internal"
app2_url: "http://app2.internal"
pretty: true
log_file: "/tmp/console.log"
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))
	t.Setenv("APP2_URL", "http://override")

	cfg, err := LoadClient(path)
	require.NoError(t, err)
	assert.Equal(t, "http://auth.internal", cfg.AuthServiceURL)
	assert.Equal(t, "http://app1.internal", cfg.App1URL)
	assert.Equal(t, "http://override", cfg.App2URL)
	assert.True(t, cfg.Pretty)
	assert.Equal(t, "/tmp/console.log", cfg.LogFile)
}

func TestLoadClientViteFallback(t *testing.T) {
	clearEnv(t)
	t.Setenv("VITE_AUTH_SERVICE_URL", "http://vite-auth")
	t.Setenv("VITE_APP1_URL", "http://vite-app1")
	t.Setenv("APP1_URL", "http://plain-app1")

	cfg, err := LoadClient("")
	require.NoError(t, err)
	assert.Equal(t, "http://vite-auth", cfg.AuthServiceURL)
	assert.Equal(t, "http://plain-app1", cfg.App1URL)
}

func TestLoadClientURLsNotValidated(t *testing.T) {
	clearEnv(t)
	t.Setenv("AUTH_SERVICE_URL", "not a url at all")

	cfg, err := LoadClient("")
	require.NoError(t, err)
	assert.Equal(t, "not a url at all", cfg.AuthServiceURL)
}

func TestLoadClientMissingFile(t *testing.T) {
	clearEnv(t)
	_, err := LoadClient(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoadServicesRequiresSecret(t *testing.T) {
	clearEnv(t)
	_, err := LoadServices()
	assert.ErrorContains(t, err, "SECRET_KEY")
}

func TestLoadServicesDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("SECRET_KEY", "s3cret")

	cfg, err := LoadServices()
	require.NoError(t, err)
	assert.Equal(t, "HS256", cfg.Algorithm)
	assert.Equal(t, 30*time.Minute, cfg.TokenTTL())
	assert.Equal(t, []string{"http://localhost:8003"}, cfg.Origins())
	assert.Equal(t, "http://fastapi-app2-service", cfg.App2URL)
	assert.Equal(t, 5*time.Second, cfg.ProxyTimeout)
	assert.Equal(t, "8000", cfg.ListenPort("auth"))
	assert.Equal(t, "8001", cfg.ListenPort("app1"))
	assert.Equal(t, "8002", cfg.ListenPort("app2"))
}

func TestLoadServicesPorts(t *testing.T) {
	clearEnv(t)
	t.Setenv("SECRET_KEY", "s3cret")
	t.Setenv("APP1_PORT", "9001")

	cfg, err := LoadServices()
	require.NoError(t, err)
	assert.Equal(t, "8000", cfg.ListenPort("auth"))
	assert.Equal(t, "9001", cfg.ListenPort("app1"))

	t.Setenv("PORT", "7000")
	cfg, err = LoadServices()
	require.NoError(t, err)
	assert.Equal(t, "7000", cfg.ListenPort("app2"))
}

func TestLoadServicesOrigins(t *testing.T) {
	clearEnv(t)
	t.Setenv("SECRET_KEY", "s3cret")
	t.Setenv("ALLOWED_ORIGINS", "http://a, http://b,,")

	cfg, err := LoadServices()
	require.NoError(t, err)
	assert.Equal(t, []string{"http://a", "http://b"}, cfg.Origins())
}

func TestLoadServicesRejectsAlgorithm(t *testing.T) {
	clearEnv(t)
	t.Setenv("SECRET_KEY", "s3cret")
	t.Setenv("ALGORITHM", "RS256")

	_, err := LoadServices()
	assert.ErrorContains(t, err, "ALGORITHM")
}
