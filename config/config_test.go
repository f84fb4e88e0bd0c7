package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odvcencio/furry-live/config"
)

func TestDefault(t *testing.T) {
	cfg := config.Default()
	assert.Equal(t, time.Second, cfg.TypingTimeout)
	assert.Equal(t, 99999, cfg.CursorZIndex)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.False(t, cfg.QueryKeepLoadingOnNull)
}

func TestParse_FromEnvironment(t *testing.T) {
	t.Setenv("FURRY_TYPING_TIMEOUT", "250ms")
	t.Setenv("FURRY_CURSOR_CLAMP", "true")
	t.Setenv("FURRY_ROOM_ID", "standup")

	cfg, err := config.Parse()
	require.NoError(t, err)
	assert.Equal(t, 250*time.Millisecond, cfg.TypingTimeout)
	assert.True(t, cfg.CursorClamp)
	assert.Equal(t, "standup", cfg.RoomID)
}

func TestParse_InvalidValue(t *testing.T) {
	t.Setenv("FURRY_CURSOR_Z_INDEX", "high")
	_, err := config.Parse()
	assert.ErrorIs(t, err, config.ErrParsingConfig)
}

func TestLoad_DotEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("FURRY_ROOM_TYPE=chat\n"), 0o600))
	t.Setenv("FURRY_ROOM_TYPE", "")
	os.Unsetenv("FURRY_ROOM_TYPE")

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "chat", cfg.RoomType)
}
