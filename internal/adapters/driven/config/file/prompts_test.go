package file

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
)

func TestNewPromptStore_WithCustomDir(t *testing.T) {
	dir := t.TempDir()

	store, err := NewPromptStore(dir)

	require.NoError(t, err)
	assert.Equal(t, dir, store.Dir())
}

func TestNewPromptStore_DefaultDir(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("cannot determine home directory")
	}

	store, err := NewPromptStore("")

	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".sercha-rag", "prompts"), store.Dir())
}

func TestPromptStore_Load_CreatesDefaultFiles(t *testing.T) {
	dir := t.TempDir()
	store, err := NewPromptStore(dir)
	require.NoError(t, err)

	_, err = store.Load(driven.PromptGroundedContext)
	require.NoError(t, err)

	for _, f := range []string{"grounded_context.txt", "no_context.txt", "README.md"} {
		_, err := os.Stat(filepath.Join(dir, f))
		assert.NoError(t, err, "expected file %s to exist", f)
	}
}

func TestPromptStore_DefaultTemplatesFormat(t *testing.T) {
	store, err := NewPromptStore(t.TempDir())
	require.NoError(t, err)

	grounded, err := store.Load(driven.PromptGroundedContext)
	require.NoError(t, err)
	out := fmt.Sprintf(grounded, "EXCERPTS", "QUESTION")
	assert.Contains(t, out, "EXCERPTS")
	assert.Contains(t, out, "QUESTION")
	assert.NotContains(t, out, "%!")

	none, err := store.Load(driven.PromptNoContext)
	require.NoError(t, err)
	out = fmt.Sprintf(none, "QUESTION")
	assert.Contains(t, out, "QUESTION")
	assert.NotContains(t, out, "%!")
}

func TestPromptStore_Load_ReturnsCustomContent(t *testing.T) {
	dir := t.TempDir()
	custom := "Context:\n%s\n\nQ: %s"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "grounded_context.txt"), []byte(custom+"\n\n"), 0600))

	store, err := NewPromptStore(dir)
	require.NoError(t, err)

	prompt, err := store.Load(driven.PromptGroundedContext)

	require.NoError(t, err)
	assert.Equal(t, custom, prompt)
}

func TestPromptStore_Load_EmptyFileFallsBackToDefault(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "no_context.txt"), []byte("   \n"), 0600))

	store, err := NewPromptStore(dir)
	require.NoError(t, err)

	prompt, err := store.Load(driven.PromptNoContext)

	require.NoError(t, err)
	assert.Equal(t, defaultPrompts[driven.PromptNoContext], prompt)
}

func TestPromptStore_Load_DeletedFileFallsBackToDefault(t *testing.T) {
	dir := t.TempDir()
	store, err := NewPromptStore(dir)
	require.NoError(t, err)

	_, _ = store.Load(driven.PromptGroundedContext)
	require.NoError(t, os.Remove(filepath.Join(dir, "grounded_context.txt")))
	store.Reload()

	prompt, err := store.Load(driven.PromptGroundedContext)

	require.NoError(t, err)
	assert.Equal(t, defaultPrompts[driven.PromptGroundedContext], prompt)
}

func TestPromptStore_Load_UnknownPrompt(t *testing.T) {
	store, err := NewPromptStore(t.TempDir())
	require.NoError(t, err)

	_, err = store.Load("nonexistent_prompt")

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "nonexistent_prompt")
}

func TestPromptStore_Load_InitFailureUsesDefaults(t *testing.T) {
	store, err := NewPromptStore("/dev/null/prompts")
	require.NoError(t, err)

	prompt, err := store.Load(driven.PromptNoContext)
	require.NoError(t, err)
	assert.Equal(t, defaultPrompts[driven.PromptNoContext], prompt)

	_, err = store.Load("unknown")
	assert.Error(t, err)
}

func TestPromptStore_CacheAndReload(t *testing.T) {
	dir := t.TempDir()
	store, err := NewPromptStore(dir)
	require.NoError(t, err)

	first, err := store.Load(driven.PromptGroundedContext)
	require.NoError(t, err)

	path := filepath.Join(dir, "grounded_context.txt")
	require.NoError(t, os.WriteFile(path, []byte("edited %s %s"), 0600))

	cached, err := store.Load(driven.PromptGroundedContext)
	require.NoError(t, err)
	assert.Equal(t, first, cached)

	store.Reload()
	fresh, err := store.Load(driven.PromptGroundedContext)
	require.NoError(t, err)
	assert.Equal(t, "edited %s %s", fresh)
}

func TestPromptStore_DoesNotOverwriteExistingFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "no_context.txt")
	require.NoError(t, os.WriteFile(path, []byte("keep me %s"), 0600))

	store, err := NewPromptStore(dir)
	require.NoError(t, err)
	_, _ = store.Load(driven.PromptGroundedContext)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "keep me %s", string(data))
}

func TestPromptStore_Load_ConcurrentAccess(t *testing.T) {
	store, err := NewPromptStore(t.TempDir())
	require.NoError(t, err)

	const goroutines = 50
	var wg sync.WaitGroup
	results := make([]string, goroutines)

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			p, err := store.Load(driven.PromptGroundedContext)
			assert.NoError(t, err)
			results[i] = p
		}(i)
	}
	wg.Wait()

	for _, p := range results {
		assert.Equal(t, results[0], p)
	}
}
