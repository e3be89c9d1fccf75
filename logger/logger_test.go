package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileName(t *testing.T) {
	assert.Equal(t, "logs/acl-cli.log", FileName("logs/acl.log", ModeCLI))
	assert.Equal(t, "logs/acl-server", FileName("logs/acl", ModeServer))
	assert.Equal(t, "logs/acl.log", FileName("logs/acl.log", ""))
}

func TestNewWritesRotatingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "acl.log")

	l, err := New(Options{Level: "info", File: path, Mode: ModeCLI})
	require.NoError(t, err)
	l.Info("role has permission changes")
	_ = l.Sync()

	data, err := os.ReadFile(FileName(path, ModeCLI))
	require.NoError(t, err)
	assert.Contains(t, string(data), "role has permission changes")
}

func TestNewRejectsBadLevel(t *testing.T) {
	_, err := New(Options{Level: "loud"})
	assert.Error(t, err)
}
