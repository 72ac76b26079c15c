package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDefaults(t *testing.T) {
	t.Setenv("HOCKEY_DATA_DIR", "/var/lib/hockey")

	cfg, err := Parse()
	require.NoError(t, err)
	assert.Equal(t, "/var/lib/hockey/hockey.db", cfg.DbPath)
	assert.Equal(t, "/var/lib/hockey/cache", cfg.CacheDir)
	assert.Equal(t, 50, cfg.ApprovalThreshold)
	assert.Equal(t, 30*time.Minute, cfg.PendingTTL)
	assert.Equal(t, 'f', cfg.LogOutputRune())
}

func TestParseRejectsBadValues(t *testing.T) {
	t.Setenv("HOCKEY_DATA_DIR", t.TempDir())
	t.Setenv("HOCKEY_FEED_PARALLEL", "0")

	_, err := Parse()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "FeedParallel")

	t.Setenv("HOCKEY_FEED_PARALLEL", "4")
	t.Setenv("HOCKEY_FEED_RECAP_URL", "https://www.nhl.com/gamecenter/recap")
	_, err = Parse()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "FeedRecapURL")
}

func TestLoadReadsDotenv(t *testing.T) {
	dir := t.TempDir()
	dotenv := filepath.Join(dir, "test.env")
	require.NoError(t, os.WriteFile(dotenv, []byte("HOCKEY_APPROVAL_THRESHOLD=7\n"), 0644))
	t.Setenv("HOCKEY_DATA_DIR", dir)
	// godotenv never overrides variables that are already set
	t.Setenv("HOCKEY_APPROVAL_THRESHOLD", "")
	os.Unsetenv("HOCKEY_APPROVAL_THRESHOLD")

	cfg, err := Load(dotenv)
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.ApprovalThreshold)
}

func TestLoadMissingDotenvIsFine(t *testing.T) {
	t.Setenv("HOCKEY_DATA_DIR", t.TempDir())
	_, err := Load(filepath.Join(t.TempDir(), "absent.env"))
	assert.NoError(t, err)
}
