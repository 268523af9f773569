package config_test

import (
	"testing"

	"github.com/jwyoon/noticebot/internal/config"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("LISTEN_ADDR", "")
	t.Setenv("REDIS_ADDR", "")
	t.Setenv("QDRANT_HOST", "")
	t.Setenv("QDRANT_PORT", "")
	t.Setenv("OPENAI_MODEL", "")

	cfg, err := config.Load()
	require.NoError(t, err)

	require.Equal(t, ":3000", cfg.ListenAddr)
	require.Equal(t, "127.0.0.1:6379", cfg.RedisAddr)
	require.Equal(t, "127.0.0.1", cfg.QdrantHost)
	require.Equal(t, 6334, cfg.QdrantPort)
	require.False(t, cfg.QdrantUseTLS)
	require.Equal(t, "gpt-4o-mini", cfg.OpenAIModel)
	require.Contains(t, cfg.PageURLTemplate, "%s")
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("LISTEN_ADDR", ":8081")
	t.Setenv("REDIS_ADDR", "redis:6379")
	t.Setenv("QDRANT_HOST", "qdrant.internal")
	t.Setenv("QDRANT_PORT", "7000")
	t.Setenv("QDRANT_USE_TLS", "true")
	t.Setenv("PAGE_URL_TEMPLATE", "https://example.org/board/%s")

	cfg, err := config.Load()
	require.NoError(t, err)

	require.Equal(t, ":8081", cfg.ListenAddr)
	require.Equal(t, "redis:6379", cfg.RedisAddr)
	require.Equal(t, "qdrant.internal", cfg.QdrantHost)
	require.Equal(t, 7000, cfg.QdrantPort)
	require.True(t, cfg.QdrantUseTLS)
	require.Equal(t, "https://example.org/board/%s", cfg.PageURLTemplate)
}

func TestLoadBadPort(t *testing.T) {
	t.Setenv("QDRANT_PORT", "not-a-port")

	_, err := config.Load()
	require.Error(t, err)
}
