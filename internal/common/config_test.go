package common

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaultConfig_IsValid(t *testing.T) {
	config := NewDefaultConfig()

	require.NoError(t, config.Validate())
	assert.Equal(t, "lexical", config.Retrieval.Mode)
	assert.Equal(t, LLMProviderClaude, config.LLM.DefaultProvider)
}

func TestLoadFromFiles_FileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "maggid.toml")
	data := `
[server]
port = 9999

[retrieval]
mode = "llm"
k = 5
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	config, err := LoadFromFiles(path)

	require.NoError(t, err)
	assert.Equal(t, 9999, config.Server.Port)
	assert.Equal(t, "llm", config.Retrieval.Mode)
	assert.Equal(t, 5, config.Retrieval.K)
	// Untouched sections keep defaults
	assert.Equal(t, 10, config.Enrichment.Concurrency)
}

func TestLoadFromFiles_LaterFileWins(t *testing.T) {
	dir := t.TempDir()
	first := filepath.Join(dir, "first.toml")
	second := filepath.Join(dir, "second.toml")
	require.NoError(t, os.WriteFile(first, []byte("[server]\nport = 1111\n"), 0o644))
	require.NoError(t, os.WriteFile(second, []byte("[server]\nport = 2222\n"), 0o644))

	config, err := LoadFromFiles(first, second)

	require.NoError(t, err)
	assert.Equal(t, 2222, config.Server.Port)
}

func TestLoadFromFiles_EnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "maggid.toml")
	require.NoError(t, os.WriteFile(path, []byte("[server]\nport = 1111\n"), 0o644))
	t.Setenv("MAGGID_SERVER_PORT", "3333")
	t.Setenv("ANTHROPIC_API_KEY", "env-key")

	config, err := LoadFromFiles(path)

	require.NoError(t, err)
	assert.Equal(t, 3333, config.Server.Port)
	assert.Equal(t, "env-key", config.Claude.APIKey)
}

func TestLoadFromFiles_RejectsInvalidMode(t *testing.T) {
	path := filepath.Join(t.TempDir(), "maggid.toml")
	require.NoError(t, os.WriteFile(path, []byte("[retrieval]\nmode = \"vector\"\n"), 0o644))

	_, err := LoadFromFiles(path)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid configuration")
}

func TestLoadFromFiles_MissingFile(t *testing.T) {
	_, err := LoadFromFiles("/nonexistent/maggid.toml")

	require.Error(t, err)
}
