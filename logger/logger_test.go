package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestInitWritesToFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "logs", "client.log")

	l, err := Init("development", "debug", file)
	require.NoError(t, err)
	t.Cleanup(func() { zap.ReplaceGlobals(zap.NewNop()) })

	zap.L().Info("hello from test")
	_ = l.Sync()

	data, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Contains(t, string(data), "hello from test")
}

func TestInitRejectsBadLevel(t *testing.T) {
	_, err := Init("production", "loud", "")
	assert.Error(t, err)
}
