package file

import (
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfigStore(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "helpdesk")

	store, err := NewConfigStore(dir)

	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "config.toml"), store.Path())
	assert.DirExists(t, dir)
	assert.NoFileExists(t, store.Path(), "nothing is written until a value is set")
}

func TestNewConfigStore_DefaultDir(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	if runtime.GOOS == "windows" {
		t.Setenv("USERPROFILE", home)
	}

	store, err := NewConfigStore("")

	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".helpdesk", "config.toml"), store.Path())
}

func TestNewConfigStore_DirIsAFile(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "blocker")
	require.NoError(t, os.WriteFile(blocker, nil, 0600))

	_, err := NewConfigStore(filepath.Join(blocker, "sub"))

	assert.Error(t, err)
}

func TestNewConfigStore_InvalidTOML(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte("[llm\nprovider = "), 0600))

	_, err := NewConfigStore(dir)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse")
}

func TestNewConfigStore_EmptyFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), nil, 0600))

	store, err := NewConfigStore(dir)
	require.NoError(t, err)

	_, ok := store.Get("llm.provider")
	assert.False(t, ok)
}

func TestConfigStore_LoadsHandWrittenFile(t *testing.T) {
	dir := t.TempDir()
	content := `
verbose = true

[source.confluence]
base_url = "https://example.atlassian.net/wiki"
space_key = "IT"
page_limit = 200

[answer]
confidence_threshold = 0.7
use_llm_judge = false
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte(content), 0600))

	store, err := NewConfigStore(dir)
	require.NoError(t, err)

	tests := []struct {
		key  string
		want any
	}{
		{"verbose", true},
		{"source.confluence.base_url", "https://example.atlassian.net/wiki"},
		{"source.confluence.space_key", "IT"},
		{"source.confluence.page_limit", int64(200)},
		{"answer.confidence_threshold", 0.7},
		{"answer.use_llm_judge", false},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			got, ok := store.Get(tt.key)
			require.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestConfigStore_SetPersistsNestedTables(t *testing.T) {
	dir := t.TempDir()
	store, err := NewConfigStore(dir)
	require.NoError(t, err)

	require.NoError(t, store.Set("llm.provider", "openai"))
	require.NoError(t, store.Set("llm.model", "gpt-4o-mini"))
	require.NoError(t, store.Set("index.backend", "chromem"))
	require.NoError(t, store.Set("answer.top_k", int64(8)))

	data, err := os.ReadFile(store.Path())
	require.NoError(t, err)
	assert.Contains(t, string(data), "[llm]")
	assert.Contains(t, string(data), "[index]")
	assert.NotContains(t, string(data), "llm.provider")

	reloaded, err := NewConfigStore(dir)
	require.NoError(t, err)
	for key, want := range map[string]any{
		"llm.provider":  "openai",
		"llm.model":     "gpt-4o-mini",
		"index.backend": "chromem",
		"answer.top_k":  int64(8),
	} {
		got, ok := reloaded.Get(key)
		assert.True(t, ok, key)
		assert.Equal(t, want, got, key)
	}
}

func TestConfigStore_SetOverwrites(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.Set("llm.model", "a"))
	require.NoError(t, store.Set("llm.model", "b"))

	got, _ := store.Get("llm.model")
	assert.Equal(t, "b", got)
}

func TestConfigStore_FilePermissions(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("unix permissions")
	}
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.Set("llm.api_key", "sk-secret"))

	info, err := os.Stat(store.Path())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestConfigStore_SetRollsBackOnWriteFailure(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("unix permissions")
	}
	if os.Geteuid() == 0 {
		t.Skip("root ignores directory permissions")
	}
	dir := t.TempDir()
	store, err := NewConfigStore(dir)
	require.NoError(t, err)
	require.NoError(t, store.Set("llm.model", "kept"))

	require.NoError(t, os.Chmod(dir, 0500))
	t.Cleanup(func() { _ = os.Chmod(dir, 0700) })

	assert.Error(t, store.Set("llm.model", "lost"))
	assert.Error(t, store.Set("llm.provider", "lost"))

	got, _ := store.Get("llm.model")
	assert.Equal(t, "kept", got)
	_, ok := store.Get("llm.provider")
	assert.False(t, ok)
}

func TestConfigStore_SetUnencodableValue(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)

	err = store.Set("bad", make(chan int))

	assert.Error(t, err)
	_, ok := store.Get("bad")
	assert.False(t, ok)
}

func TestConfigStore_ConcurrentSet(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = store.Set("answer.top_k", int64(i))
			_, _ = store.Get("answer.top_k")
		}(i)
	}
	wg.Wait()

	_, ok := store.Get("answer.top_k")
	assert.True(t, ok)
}

func TestNest(t *testing.T) {
	tests := []struct {
		name string
		flat map[string]any
		want map[string]any
	}{
		{
			name: "top level",
			flat: map[string]any{"a": 1},
			want: map[string]any{"a": 1},
		},
		{
			name: "shared prefix",
			flat: map[string]any{"a.b": 1, "a.c": "x"},
			want: map[string]any{"a": map[string]any{"b": 1, "c": "x"}},
		},
		{
			name: "deep",
			flat: map[string]any{"a.b.c": true},
			want: map[string]any{"a": map[string]any{"b": map[string]any{"c": true}}},
		},
		{
			name: "value shadows table",
			flat: map[string]any{"a": 1, "a.b": 2},
			want: map[string]any{"a": 1, "a.b": 2},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, nest(tt.flat))
		})
	}
}

func TestFlatten(t *testing.T) {
	out := make(map[string]any)
	flatten(map[string]any{
		"llm":     map[string]any{"provider": "ollama"},
		"verbose": true,
	}, "", out)

	assert.Equal(t, map[string]any{"llm.provider": "ollama", "verbose": true}, out)
}
