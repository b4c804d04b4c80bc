package file

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/helpdesk/internal/core/domain"
	"github.com/custodia-labs/helpdesk/internal/core/ports/driven"
)

func TestPromptStore_ImplementsInterface(t *testing.T) {
	var _ driven.PromptStore = (*PromptStore)(nil)
}

func TestNewPromptStore_DefaultDir(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("cannot determine home directory")
	}

	store, err := NewPromptStore("")

	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".helpdesk", "prompts"), store.Dir())
}

func TestPromptStore_Load_CreatesDefaultFiles(t *testing.T) {
	dir := t.TempDir()
	store, err := NewPromptStore(dir)
	require.NoError(t, err)

	_, err = store.Load(domain.PromptIntentSystem)
	require.NoError(t, err)

	for _, name := range domain.PromptNames() {
		_, err := os.Stat(filepath.Join(dir, name+".txt"))
		assert.NoError(t, err, "expected prompt file for %s", name)
	}
	_, err = os.Stat(filepath.Join(dir, "README.md"))
	assert.NoError(t, err)
}

func TestPromptStore_Load_ReturnsDefaultContent(t *testing.T) {
	store, err := NewPromptStore(t.TempDir())
	require.NoError(t, err)

	for _, name := range domain.PromptNames() {
		t.Run(name, func(t *testing.T) {
			prompt, err := store.Load(name)
			require.NoError(t, err)

			def, ok := domain.DefaultPrompt(name)
			require.True(t, ok)
			assert.Equal(t, def, prompt)
		})
	}
}

func TestPromptStore_Load_ReturnsCustomContent(t *testing.T) {
	dir := t.TempDir()
	custom := "Label this IT question: %s"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "intent_user.txt"), []byte(custom+"\n\n"), 0600))

	store, err := NewPromptStore(dir)
	require.NoError(t, err)

	prompt, err := store.Load(domain.PromptIntentUser)

	require.NoError(t, err)
	assert.Equal(t, custom, prompt)
}

func TestPromptStore_Load_RejectsChangedPlaceholders(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "rag_user.txt"), []byte("Only one: %s"), 0600))

	store, err := NewPromptStore(dir)
	require.NoError(t, err)

	prompt, err := store.Load(domain.PromptRAGUser)

	require.ErrorIs(t, err, domain.ErrInvalidConfig)
	def, _ := domain.DefaultPrompt(domain.PromptRAGUser)
	assert.Equal(t, def, prompt)
}

func TestPromptStore_Load_FallsBackToDefault(t *testing.T) {
	dir := t.TempDir()
	store, err := NewPromptStore(dir)
	require.NoError(t, err)

	_, _ = store.Load(domain.PromptGenericSystem)
	require.NoError(t, os.Remove(filepath.Join(dir, "generic_system.txt")))
	store.Reload()

	prompt, err := store.Load(domain.PromptGenericSystem)

	require.NoError(t, err)
	assert.Contains(t, prompt, "IT support assistant")
}

func TestPromptStore_Load_UnknownPrompt(t *testing.T) {
	store, err := NewPromptStore(t.TempDir())
	require.NoError(t, err)

	_, err = store.Load("nonexistent_prompt")

	require.ErrorIs(t, err, domain.ErrNotFound)
	assert.Contains(t, err.Error(), "nonexistent_prompt")
}

func TestPromptStore_Reload_ClearsCache(t *testing.T) {
	dir := t.TempDir()
	store, err := NewPromptStore(dir)
	require.NoError(t, err)

	_, err = store.Load(domain.PromptConfidenceUser)
	require.NoError(t, err)

	updated := "Q: %s\nA: %s\nScore:"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "confidence_user.txt"), []byte(updated), 0600))

	cached, err := store.Load(domain.PromptConfidenceUser)
	require.NoError(t, err)
	assert.NotEqual(t, updated, cached)

	store.Reload()
	fresh, err := store.Load(domain.PromptConfidenceUser)
	require.NoError(t, err)
	assert.Equal(t, updated, fresh)
}

func TestPromptStore_DoesNotOverwriteExistingFiles(t *testing.T) {
	dir := t.TempDir()
	custom := "Be brief."
	path := filepath.Join(dir, "rag_system.txt")
	require.NoError(t, os.WriteFile(path, []byte(custom), 0600))

	store, err := NewPromptStore(dir)
	require.NoError(t, err)
	_, err = store.Load(domain.PromptIntentSystem)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, custom, string(data))
}

func TestPromptStore_Load_ConcurrentAccess(t *testing.T) {
	store, err := NewPromptStore(t.TempDir())
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			names := domain.PromptNames()
			_, err := store.Load(names[i%len(names)])
			assert.NoError(t, err)
			if i%5 == 0 {
				store.Reload()
			}
		}(i)
	}
	wg.Wait()
}

func TestVerbs(t *testing.T) {
	tests := []struct {
		tmpl string
		want string
	}{
		{"no placeholders", ""},
		{"%s and %s", "%s%s"},
		{"100%% sure: %s", "%s"},
		{"count %d of %s", "%d%s"},
	}

	for _, tt := range tests {
		t.Run(tt.tmpl, func(t *testing.T) {
			assert.Equal(t, tt.want, verbs(tt.tmpl))
		})
	}
}

func TestPromptStore_WatchReloadsEditedPrompt(t *testing.T) {
	dir := t.TempDir()
	store, err := NewPromptStore(dir)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, store.Watch(ctx, nil))

	before, err := store.Load(domain.PromptGenericSystem)
	require.NoError(t, err)

	path := filepath.Join(dir, domain.PromptGenericSystem+".txt")
	require.NoError(t, os.WriteFile(path, []byte("You are the night-shift help desk."), 0600))

	assert.Eventually(t, func() bool {
		got, err := store.Load(domain.PromptGenericSystem)
		return err == nil && got != before && got == "You are the night-shift help desk."
	}, 5*time.Second, 20*time.Millisecond)
}

func TestPromptStore_WatchUnusableDir(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "blocker")
	require.NoError(t, os.WriteFile(blocker, nil, 0600))
	store, err := NewPromptStore(filepath.Join(blocker, "prompts"))
	require.NoError(t, err)

	assert.Error(t, store.Watch(context.Background(), nil))
}
