package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "local", cfg.VectorStore.Type)
	assert.Equal(t, "bhagvatgeeta_new", cfg.VectorStore.Local.Path)
	assert.Equal(t, "GROQ_API_KEY", cfg.Completion.APIKeyEnv)
	assert.Equal(t, "gemma2-9b-it", cfg.Completion.Model)
	assert.Equal(t, 4096, cfg.Completion.MaxTokens)
	assert.Equal(t, 4, cfg.Retrieval.TopK)
	assert.Nil(t, cfg.Stream.DelayMillis)
	assert.Equal(t, 30*time.Millisecond, cfg.Stream.Delay())
	assert.Equal(t, ":8501", cfg.Web.Addr)
}

func TestParse_ExpandsEnvVars(t *testing.T) {
	t.Setenv("GITAGPT_TEST_QDRANT", "http://qdrant:6333")

	cfg, err := Parse([]byte(`
vector_store:
  type: qdrant
  qdrant:
    url: ${GITAGPT_TEST_QDRANT}
    collection: ${GITAGPT_TEST_COLLECTION:-gita}
completion:
  model: llama3-8b-8192
`))
	require.NoError(t, err)

	assert.Equal(t, "http://qdrant:6333", cfg.VectorStore.Qdrant.URL)
	assert.Equal(t, "gita", cfg.VectorStore.Qdrant.Collection)
	assert.Equal(t, 15, cfg.VectorStore.Qdrant.TimeoutSecs)
	assert.Equal(t, "llama3-8b-8192", cfg.Completion.Model)
	assert.Equal(t, "GROQ_API_KEY", cfg.Completion.APIKeyEnv)
}

func TestParse_Validation(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"unknown store", "vector_store:\n  type: faiss\n"},
		{"qdrant without url", "vector_store:\n  type: qdrant\n  qdrant:\n    collection: gita\n"},
		{"bad env", "env: staging\n"},
		{"negative delay", "stream:\n  delay_ms: -5\n"},
		{"malformed", "vector_store: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			assert.Error(t, err)
		})
	}
}

func TestSaveAndLoad_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := Default()
	cfg.Retrieval.TopK = 7
	cfg.Cache.Addrs = []string{"localhost:6379"}

	require.NoError(t, Save(path, cfg))
	_, err := os.Stat(path)
	require.NoError(t, err)

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 7, loaded.Retrieval.TopK)
	assert.Equal(t, []string{"localhost:6379"}, loaded.Cache.Addrs)
}

func TestParse_StreamDelay(t *testing.T) {
	cfg, err := Parse([]byte("stream:\n  delay_ms: 0\n"))
	require.NoError(t, err)
	require.NotNil(t, cfg.Stream.DelayMillis)
	assert.Zero(t, cfg.Stream.Delay())

	cfg, err = Parse([]byte("stream:\n  delay_ms: 75\n"))
	require.NoError(t, err)
	assert.Equal(t, 75*time.Millisecond, cfg.Stream.Delay())

	cfg, err = Parse([]byte("env: dev\n"))
	require.NoError(t, err)
	assert.Equal(t, 30*time.Millisecond, cfg.Stream.Delay())
}

func TestLoadDefault_WritesNothing(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	cfg, path, err := LoadDefault()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".config", "gitagpt", "config.yaml"), path)
	assert.Equal(t, "gemma2-9b-it", cfg.Completion.Model)
	_, err = os.Stat(path)
	assert.ErrorIs(t, err, os.ErrNotExist)

	require.NoError(t, SaveIfMissing(path, cfg))
	_, err = os.Stat(path)
	require.NoError(t, err)
}

func TestSaveIfMissing_KeepsExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("env: prod\n"), 0o644))

	require.NoError(t, SaveIfMissing(path, Default()))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "env: prod\n", string(data))
}
