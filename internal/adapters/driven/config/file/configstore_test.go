package file

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleConfig = `
[server]
addr = ":9090"

[llm]
provider = "openai"
api_keys = ["k1", "k2"]
requests_per_second = 1.5
burst = 3

[ingest]
workers = 5
extract_requirements = false
`

func writeConfig(t *testing.T, dir, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte(content), 0600))
}

func TestNewConfigStore_Success(t *testing.T) {
	tmpDir := t.TempDir()

	store, err := NewConfigStore(tmpDir)

	require.NoError(t, err)
	require.NotNil(t, store)
	assert.Equal(t, filepath.Join(tmpDir, "config.toml"), store.Path())
}

func TestNewConfigStore_DefaultDir(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	store, err := NewConfigStore("")

	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".apiforge", "config.toml"), store.Path())
}

func TestNewConfigStoreAt_CreatesDirectoryOnSave(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "apiforge.toml")

	store, err := NewConfigStoreAt(path)
	require.NoError(t, err)
	require.NoError(t, store.Set("server.addr", ":1234"))

	_, err = os.Stat(path)
	assert.NoError(t, err)
}

func TestConfigStore_FlattensSections(t *testing.T) {
	tmpDir := t.TempDir()
	writeConfig(t, tmpDir, sampleConfig)

	store, err := NewConfigStore(tmpDir)
	require.NoError(t, err)

	assert.Equal(t, ":9090", store.GetString("server.addr"))
	assert.Equal(t, "openai", store.GetString("llm.provider"))
	assert.Equal(t, []string{"k1", "k2"}, store.GetStringSlice("llm.api_keys"))
	assert.Equal(t, 1.5, store.GetFloat("llm.requests_per_second"))
	assert.Equal(t, 3, store.GetInt("llm.burst"))
	assert.Equal(t, 5, store.GetInt("ingest.workers"))
	assert.False(t, store.GetBool("ingest.extract_requirements"))

	_, ok := store.Get("ingest.extract_requirements")
	assert.True(t, ok)
}

func TestConfigStore_TypedGetters_WrongType(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.Set("llm.provider", "ollama"))
	require.NoError(t, store.Set("ingest.workers", 3))

	assert.Equal(t, "", store.GetString("ingest.workers"))
	assert.Equal(t, 0, store.GetInt("llm.provider"))
	assert.Equal(t, 0.0, store.GetFloat("llm.provider"))
	assert.False(t, store.GetBool("llm.provider"))
	assert.Nil(t, store.GetStringSlice("llm.provider"))
	assert.Equal(t, "", store.GetString("missing"))
}

func TestConfigStore_GetFloat_WidensIntegers(t *testing.T) {
	tmpDir := t.TempDir()
	writeConfig(t, tmpDir, "[llm]\nrequests_per_second = 2\n")

	store, err := NewConfigStore(tmpDir)
	require.NoError(t, err)
	assert.Equal(t, 2.0, store.GetFloat("llm.requests_per_second"))
}

func TestConfigStore_Persistence(t *testing.T) {
	tmpDir := t.TempDir()

	store, err := NewConfigStore(tmpDir)
	require.NoError(t, err)
	require.NoError(t, store.Set("storage.backend", "postgres"))
	require.NoError(t, store.Set("generation.workers", 8))

	reopened, err := NewConfigStore(tmpDir)
	require.NoError(t, err)
	assert.Equal(t, "postgres", reopened.GetString("storage.backend"))
	assert.Equal(t, 8, reopened.GetInt("generation.workers"))
}

func TestConfigStore_FilePermissions(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, store.Set("llm.api_keys", []string{"secret"}))

	info, err := os.Stat(store.Path())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestConfigStore_CorruptedFile(t *testing.T) {
	tmpDir := t.TempDir()
	writeConfig(t, tmpDir, "this is not valid TOML {{{[[")

	store, err := NewConfigStore(tmpDir)
	assert.Error(t, err)
	assert.Nil(t, store)
}

func TestConfigStore_MkdirAllError(t *testing.T) {
	store, err := NewConfigStore("/dev/null/cannot/create/dirs")
	assert.Error(t, err)
	assert.Nil(t, store)
}

func TestConfigStore_UnmarshallableValue(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)

	assert.Error(t, store.Set("channel", make(chan int)))
}

func TestConfigStore_Concurrency(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			_ = store.Set("ingest.workers", i)
		}(i)
		go func() {
			defer wg.Done()
			_ = store.GetInt("ingest.workers")
		}()
	}
	wg.Wait()

	_, ok := store.Get("ingest.workers")
	assert.True(t, ok)
}

func TestConfigStore_WritesTables(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, store.Set("llm.provider", "ollama"))
	require.NoError(t, store.Set("server.addr", ":8080"))

	data, err := os.ReadFile(store.Path())
	require.NoError(t, err)
	assert.Contains(t, string(data), "[llm]")
	assert.Contains(t, string(data), "[server]")
}

func TestNest(t *testing.T) {
	tree := nest(map[string]any{
		"a":     "plain",
		"a.b":   1,
		"x.y.z": true,
		"x.w":   "v",
	})

	assert.Equal(t, "plain", tree["a"])
	assert.Equal(t, 1, tree["a.b"])
	assert.Equal(t, map[string]any{"y": map[string]any{"z": true}, "w": "v"}, tree["x"])

	out := make(map[string]any)
	flatten(tree, "", out)
	assert.Equal(t, "v", out["x.w"])
	assert.Equal(t, true, out["x.y.z"])
}
