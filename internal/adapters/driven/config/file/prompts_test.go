package file

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/apiforge/internal/core/ports/driven"
)

var allPrompts = []string{
	driven.PromptCollect,
	driven.PromptStandardize,
	driven.PromptGenerate,
	driven.PromptRequirements,
}

func TestNewPromptStore_DefaultDir(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	store, err := NewPromptStore("")

	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".apiforge", "prompts"), store.Dir())
}

func TestPromptStore_Load_CreatesDefaultFiles(t *testing.T) {
	dir := t.TempDir()
	store, err := NewPromptStore(dir)
	require.NoError(t, err)

	_, err = store.Load(driven.PromptCollect)
	require.NoError(t, err)

	for _, name := range allPrompts {
		_, err := os.Stat(filepath.Join(dir, name+".txt"))
		assert.NoError(t, err, "expected prompt file %s", name)
	}
	_, err = os.Stat(filepath.Join(dir, "README.md"))
	assert.NoError(t, err)
}

func TestPromptStore_Defaults(t *testing.T) {
	store, err := NewPromptStore(t.TempDir())
	require.NoError(t, err)

	for _, name := range allPrompts {
		t.Run(name, func(t *testing.T) {
			prompt, err := store.Load(name)
			require.NoError(t, err)
			assert.NotEmpty(t, prompt)
		})
	}

	generate, err := store.Load(driven.PromptGenerate)
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(generate, "%s"))
	assert.Contains(t, fmt.Sprintf(generate, "Vietnamese"), "Vietnamese")

	standardize, err := store.Load(driven.PromptStandardize)
	require.NoError(t, err)
	assert.Contains(t, standardize, "```json")
}

func TestPromptStore_Load_ReturnsCustomContent(t *testing.T) {
	dir := t.TempDir()
	custom := "Generate in %s, terse."
	require.NoError(t, os.WriteFile(filepath.Join(dir, "generate.txt"), []byte(custom+"\n\n"), 0600))

	store, err := NewPromptStore(dir)
	require.NoError(t, err)

	prompt, err := store.Load(driven.PromptGenerate)
	require.NoError(t, err)
	assert.Equal(t, custom, prompt)
}

func TestPromptStore_Load_FallsBackToDefault(t *testing.T) {
	dir := t.TempDir()
	store, err := NewPromptStore(dir)
	require.NoError(t, err)

	_, _ = store.Load(driven.PromptCollect)
	require.NoError(t, os.Remove(filepath.Join(dir, "collect.txt")))
	store.Reload()

	prompt, err := store.Load(driven.PromptCollect)
	require.NoError(t, err)
	assert.Equal(t, defaultPrompts[driven.PromptCollect], prompt)
}

func TestPromptStore_Load_UnknownPrompt(t *testing.T) {
	store, err := NewPromptStore(t.TempDir())
	require.NoError(t, err)

	_, err = store.Load("nonexistent_prompt")
	assert.Error(t, err)
}

func TestPromptStore_Reload_PicksUpEdits(t *testing.T) {
	dir := t.TempDir()
	store, err := NewPromptStore(dir)
	require.NoError(t, err)

	_, err = store.Load(driven.PromptRequirements)
	require.NoError(t, err)

	path := filepath.Join(dir, "requirements.txt")
	require.NoError(t, os.WriteFile(path, []byte("edited"), 0600))

	cached, err := store.Load(driven.PromptRequirements)
	require.NoError(t, err)
	assert.NotEqual(t, "edited", cached)

	store.Reload()
	fresh, err := store.Load(driven.PromptRequirements)
	require.NoError(t, err)
	assert.Equal(t, "edited", fresh)
}

func TestPromptStore_DoesNotOverwriteExistingFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "standardize.txt")
	require.NoError(t, os.WriteFile(path, []byte("mine"), 0600))

	store, err := NewPromptStore(dir)
	require.NoError(t, err)
	_, err = store.Load(driven.PromptCollect)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "mine", string(data))
}

func TestPromptStore_Load_ConcurrentAccess(t *testing.T) {
	store, err := NewPromptStore(t.TempDir())
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := store.Load(allPrompts[i%len(allPrompts)])
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()
}

func TestPromptStore_Load_InvalidGenerateOverride(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "generate.txt"), []byte("no placeholder here"), 0600))

	store, err := NewPromptStore(dir)
	require.NoError(t, err)

	prompt, err := store.Load(driven.PromptGenerate)
	require.NoError(t, err)
	assert.Equal(t, defaultPrompts[driven.PromptGenerate], prompt)
}

func TestValidatePrompt(t *testing.T) {
	assert.NoError(t, validatePrompt(driven.PromptCollect, "pick headings"))
	assert.Error(t, validatePrompt(driven.PromptCollect, ""))
	assert.NoError(t, validatePrompt(driven.PromptGenerate, "in %s"))
	assert.Error(t, validatePrompt(driven.PromptGenerate, "in %s and %s"))
}
