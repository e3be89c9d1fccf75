package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"acl-center/repositories"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, extra string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	body := "database_driver: sqlite\n" +
		"database_url: " + filepath.Join(dir, "acl.db") + "\n" +
		"log_level: error\n" +
		"seed:\n  skip_admin: true\n" + extra
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := NewRootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestUpdateACLFlags(t *testing.T) {
	cmd := newUpdateACLCommand(&rootOptions{})
	require.NoError(t, cmd.ParseFlags([]string{"--sync", "--pretend"}))

	sync, err := cmd.Flags().GetBool("sync")
	require.NoError(t, err)
	pretend, err := cmd.Flags().GetBool("pretend")
	require.NoError(t, err)
	assert.True(t, sync)
	assert.True(t, pretend)
}

func TestUpdateACLBeforeSeedFails(t *testing.T) {
	cfg := writeConfig(t, "")

	_, err := run(t, "--config", cfg, "permission:update-acl")
	assert.ErrorIs(t, err, repositories.ErrUnknownRole)
}

func TestSeedThenUpdateACL(t *testing.T) {
	cfg := writeConfig(t, "")

	out, err := run(t, "--config", cfg, "db:seed")
	require.NoError(t, err)
	assert.Contains(t, out, "[ + ] Step 6 finish seeder.")

	out, err = run(t, "--config", cfg, "permission:update-acl", "--pretend")
	require.NoError(t, err)
	assert.Equal(t, "pretending...\nadmin's permissions not changed\npremium's permissions not changed\n", out)

	out, err = run(t, "--config", cfg, "permission:update-acl", "--sync")
	require.NoError(t, err)
	assert.NotContains(t, out, "pretending")
	assert.Contains(t, out, "premium's permissions not changed")
}

func TestScheduleRejectsInvalidExpression(t *testing.T) {
	cfg := writeConfig(t, "acl:\n  sync_schedule: \"every now and then\"\n")

	_, err := run(t, "--config", cfg, "schedule")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid acl.sync_schedule")
}

func TestUnknownConfigFile(t *testing.T) {
	_, err := run(t, "--config", filepath.Join(t.TempDir(), "missing.yaml"), "permission:update-acl")
	assert.ErrorContains(t, err, "read config file")
}
