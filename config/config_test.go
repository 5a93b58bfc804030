package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	c, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8080/api", c.API.BaseURL)
	assert.Equal(t, 10*time.Second, c.API.Timeout)
	assert.Equal(t, "user", c.Session.Key)
	assert.Equal(t, 4*time.Second, c.UI.ToastDuration)
	assert.Equal(t, "localhost:8080", c.DevAPI.Addr())
	assert.False(t, c.IsProduction())
}

func TestLoadFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "eventdesk.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
app:
  environment: production
api:
  base_url: https://events.example.edu/api/
  timeout: 3s
ui:
  toast_duration: 1500ms
`), 0o644))

	t.Setenv("EVENTDESK_API_BASE_URL", "https://override.example.edu/api")
	t.Setenv("EVENTDESK_SESSION_KEY", "session")

	c, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "https://override.example.edu/api", c.API.BaseURL)
	assert.Equal(t, 3*time.Second, c.API.Timeout)
	assert.Equal(t, "session", c.Session.Key)
	assert.Equal(t, 1500*time.Millisecond, c.UI.ToastDuration)
	assert.True(t, c.IsProduction())
}

func TestLoadTrimsTrailingSlash(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "eventdesk.yaml")
	require.NoError(t, os.WriteFile(path, []byte("api:\n  base_url: http://h/api/\n"), 0o644))

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "http://h/api", c.API.BaseURL)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
