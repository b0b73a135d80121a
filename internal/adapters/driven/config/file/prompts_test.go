package file

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/caresync/internal/core/ports/driven"
)

func TestPromptStore_ImplementsInterface(t *testing.T) {
	var _ driven.PromptStore = (*PromptStore)(nil)
}

func TestNewPromptStore_WithCustomDir(t *testing.T) {
	dir := t.TempDir()

	store, err := NewPromptStore(dir)

	require.NoError(t, err)
	assert.Equal(t, dir, store.Dir())

	// No I/O until the first Load.
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestPromptStore_Load_CreatesDefaultFiles(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "prompts")
	store, err := NewPromptStore(dir)
	require.NoError(t, err)

	_, err = store.Load(driven.PromptAnswerWithContext)
	require.NoError(t, err)

	for _, f := range []string{"answer_with_context.txt", "answer_without_context.txt", "README.md"} {
		assert.FileExists(t, filepath.Join(dir, f))
	}
}

func TestPromptStore_DefaultContent(t *testing.T) {
	store, err := NewPromptStore(t.TempDir())
	require.NoError(t, err)

	withContext, err := store.Load(driven.PromptAnswerWithContext)
	require.NoError(t, err)
	assert.Contains(t, withContext, "You are CareSync AI, a helpful clinic assistant.")
	assert.Contains(t, withContext, "say that you don't know")
	assert.Contains(t, withContext, "{{context}}")
	assert.Contains(t, withContext, "{{question}}")

	withoutContext, err := store.Load(driven.PromptAnswerWithoutContext)
	require.NoError(t, err)
	assert.Contains(t, withoutContext, "to the best of your ability")
	assert.Contains(t, withoutContext, "{{question}}")
	assert.NotContains(t, withoutContext, "{{context}}")
}

func TestPromptStore_Load_ReturnsCustomContent(t *testing.T) {
	dir := t.TempDir()
	custom := "Reply briefly.\n{{context}}\nQ: {{question}}"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "answer_with_context.txt"), []byte(custom+"\n\n"), 0600))

	store, err := NewPromptStore(dir)
	require.NoError(t, err)

	prompt, err := store.Load(driven.PromptAnswerWithContext)
	require.NoError(t, err)
	assert.Equal(t, custom, prompt)
}

func TestPromptStore_Load_FallsBackToDefault(t *testing.T) {
	dir := t.TempDir()
	store, err := NewPromptStore(dir)
	require.NoError(t, err)

	_, _ = store.Load(driven.PromptAnswerWithoutContext)
	require.NoError(t, os.Remove(filepath.Join(dir, "answer_without_context.txt")))
	store.Reload()

	prompt, err := store.Load(driven.PromptAnswerWithoutContext)
	require.NoError(t, err)
	want, _ := DefaultPrompt(driven.PromptAnswerWithoutContext)
	assert.Equal(t, want, prompt)
}

func TestPromptStore_Load_EmptyFileFallsBackToDefault(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "answer_with_context.txt"), []byte("   \n"), 0600))

	store, err := NewPromptStore(dir)
	require.NoError(t, err)

	prompt, err := store.Load(driven.PromptAnswerWithContext)
	require.NoError(t, err)
	assert.Contains(t, prompt, "CareSync AI")
}

func TestPromptStore_Load_UnknownPrompt(t *testing.T) {
	store, err := NewPromptStore(t.TempDir())
	require.NoError(t, err)

	_, err = store.Load("nonexistent_prompt")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "nonexistent_prompt")
}

func TestPromptStore_Reload_PicksUpEdits(t *testing.T) {
	dir := t.TempDir()
	store, err := NewPromptStore(dir)
	require.NoError(t, err)

	first, err := store.Load(driven.PromptAnswerWithContext)
	require.NoError(t, err)

	path := filepath.Join(dir, "answer_with_context.txt")
	require.NoError(t, os.WriteFile(path, []byte("edited {{question}}"), 0600))

	cached, err := store.Load(driven.PromptAnswerWithContext)
	require.NoError(t, err)
	assert.Equal(t, first, cached)

	store.Reload()
	fresh, err := store.Load(driven.PromptAnswerWithContext)
	require.NoError(t, err)
	assert.Equal(t, "edited {{question}}", fresh)
}

func TestPromptStore_DoesNotOverwriteExistingFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "answer_without_context.txt")
	require.NoError(t, os.WriteFile(path, []byte("mine {{question}}"), 0600))

	store, err := NewPromptStore(dir)
	require.NoError(t, err)
	_, err = store.Load(driven.PromptAnswerWithContext)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "mine {{question}}", string(data))
}

func TestPromptStore_Load_ConcurrentAccess(t *testing.T) {
	store, err := NewPromptStore(t.TempDir())
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make(chan error, 40)
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, err := store.Load(driven.PromptAnswerWithContext)
			errs <- err
		}()
		go func() {
			defer wg.Done()
			store.Reload()
			_, err := store.Load(driven.PromptAnswerWithoutContext)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}
}
