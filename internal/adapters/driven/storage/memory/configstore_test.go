package memory

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfigStore(t *testing.T) {
	store := NewConfigStore()
	require.NotNil(t, store)
	assert.NotNil(t, store.values)
	assert.Equal(t, ":memory:", store.Path())
	assert.NoError(t, store.Load())
}

func TestConfigStore_SetAndGet(t *testing.T) {
	store := NewConfigStore()

	require.NoError(t, store.Set("llm.model", "gpt-4o-mini"))
	require.NoError(t, store.Set("llm.model", "llama3.2"))

	val, ok := store.Get("llm.model")
	assert.True(t, ok)
	assert.Equal(t, "llama3.2", val)

	_, ok = store.Get("missing")
	assert.False(t, ok)
}

func TestConfigStore_TypedGetters(t *testing.T) {
	store := NewConfigStore()
	require.NoError(t, store.Set("s", "text"))
	require.NoError(t, store.Set("i", 42))
	require.NoError(t, store.Set("i64", int64(7)))
	require.NoError(t, store.Set("f", 0.25))
	require.NoError(t, store.Set("b", true))

	assert.Equal(t, "text", store.GetString("s"))
	assert.Equal(t, "", store.GetString("i"))

	assert.Equal(t, 42, store.GetInt("i"))
	assert.Equal(t, 7, store.GetInt("i64"))
	assert.Equal(t, 0, store.GetInt("f"))
	assert.Equal(t, 0, store.GetInt("s"))

	assert.InDelta(t, 0.25, store.GetFloat("f"), 1e-9)
	assert.InDelta(t, 42.0, store.GetFloat("i"), 1e-9)
	assert.Zero(t, store.GetFloat("s"))

	assert.True(t, store.GetBool("b"))
	assert.False(t, store.GetBool("s"))
	assert.False(t, store.GetBool("missing"))
}

func TestConfigStore_Keys(t *testing.T) {
	store := NewConfigStore()
	assert.Empty(t, store.Keys())

	require.NoError(t, store.Set("llm.provider", "openai"))
	require.NoError(t, store.Set("chunker.size", 500))
	require.NoError(t, store.Set("embedding.model", "nomic-embed-text"))

	assert.Equal(t, []string{"chunker.size", "embedding.model", "llm.provider"}, store.Keys())
}

func TestConfigStore_ConcurrentAccess(t *testing.T) {
	store := NewConfigStore()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func(n int) {
			defer wg.Done()
			_ = store.Set("retrieval.top_k", n)
		}(i)
		go func() {
			defer wg.Done()
			_ = store.GetInt("retrieval.top_k")
		}()
	}
	wg.Wait()

	_, ok := store.Get("retrieval.top_k")
	assert.True(t, ok)
}
