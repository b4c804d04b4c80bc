package file

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/helpdesk/internal/core/domain"
	"github.com/custodia-labs/helpdesk/internal/core/ports/driven"
	"github.com/custodia-labs/helpdesk/internal/logger"
)

// Ensure PromptStore implements the interface.
var _ driven.PromptStore = (*PromptStore)(nil)

// PromptStore loads LLM prompts from user-editable files on disk, one
// <name>.txt per template, falling back to the built-in defaults.
//
// Files are created lazily on first Load, not in the constructor.
// A customised template whose fmt verbs no longer match the default is
// rejected, so a broken edit cannot garble a prompt.
type PromptStore struct {
	mu        sync.RWMutex
	promptDir string
	cache     map[string]string
	initOnce  sync.Once
	initErr   error
}

// NewPromptStore creates a new file-based prompt store.
// If promptDir is empty, defaults to ~/.helpdesk/prompts/.
func NewPromptStore(promptDir string) (*PromptStore, error) {
	if promptDir == "" {
		dir, err := DefaultDir()
		if err != nil {
			return nil, err
		}
		promptDir = filepath.Join(dir, "prompts")
	}

	return &PromptStore{
		promptDir: promptDir,
		cache:     make(map[string]string),
	}, nil
}

// Load returns the prompt template for the given name.
func (s *PromptStore) Load(name string) (string, error) {
	def, known := domain.DefaultPrompt(name)
	if !known {
		return "", fmt.Errorf("%w: prompt %q", domain.ErrNotFound, name)
	}

	s.initOnce.Do(s.initialise)
	if s.initErr != nil {
		return def, nil
	}

	s.mu.RLock()
	if prompt, ok := s.cache[name]; ok {
		s.mu.RUnlock()
		return prompt, nil
	}
	s.mu.RUnlock()

	prompt, err := s.loadFromFile(name)
	if err != nil || prompt == "" {
		return def, nil
	}
	if verbs(prompt) != verbs(def) {
		return def, fmt.Errorf("%w: prompt %q must keep the placeholders %q",
			domain.ErrInvalidConfig, name, verbs(def))
	}

	s.mu.Lock()
	if cached, ok := s.cache[name]; ok {
		prompt = cached
	} else {
		s.cache[name] = prompt
	}
	s.mu.Unlock()

	return prompt, nil
}

// Reload clears the prompt cache, forcing fresh loads from disk.
func (s *PromptStore) Reload() {
	s.mu.Lock()
	s.cache = make(map[string]string)
	s.mu.Unlock()
}

// Watch reloads the cache whenever a template file is written, created,
// removed or renamed, until ctx is cancelled. It returns once the watcher is
// registered.
func (s *PromptStore) Watch(ctx context.Context, log *logger.Logger) error {
	s.initOnce.Do(s.initialise)
	if s.initErr != nil {
		return s.initErr
	}
	if log == nil {
		log = logger.Nop()
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create prompt watcher: %w", err)
	}
	if err := watcher.Add(s.promptDir); err != nil {
		watcher.Close()
		return fmt.Errorf("watch %s: %w", s.promptDir, err)
	}

	go func() {
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Ext(ev.Name) != ".txt" || ev.Op == fsnotify.Chmod {
					continue
				}
				s.Reload()
				log.Info("prompts reloaded", "file", filepath.Base(ev.Name))
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Warn("prompt watcher error", "error", err)
			}
		}
	}()
	return nil
}

// Dir returns the prompt directory path.
func (s *PromptStore) Dir() string {
	return s.promptDir
}

// initialise creates the prompt directory, default files and a README.
func (s *PromptStore) initialise() {
	if err := os.MkdirAll(s.promptDir, 0700); err != nil {
		s.initErr = fmt.Errorf("create prompt directory: %w", err)
		return
	}

	for _, name := range domain.PromptNames() {
		path := filepath.Join(s.promptDir, name+".txt")
		if _, err := os.Stat(path); !os.IsNotExist(err) {
			continue
		}
		content, _ := domain.DefaultPrompt(name)
		if err := os.WriteFile(path, []byte(content+"\n"), 0600); err != nil {
			s.initErr = fmt.Errorf("create default prompt %q: %w", name, err)
			return
		}
	}

	if err := s.createReadme(); err != nil {
		s.initErr = err
	}
}

func (s *PromptStore) loadFromFile(name string) (string, error) {
	data, err := os.ReadFile(filepath.Join(s.promptDir, name+".txt"))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

// verbs returns the fmt verbs of a template in order, ignoring "%%".
func verbs(tmpl string) string {
	var b strings.Builder
	for i := 0; i < len(tmpl)-1; i++ {
		if tmpl[i] != '%' {
			continue
		}
		next := tmpl[i+1]
		i++
		if next == '%' {
			continue
		}
		b.WriteByte('%')
		b.WriteByte(next)
	}
	return b.String()
}

func (s *PromptStore) createReadme() error {
	path := filepath.Join(s.promptDir, "README.md")
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		return nil
	}

	content := `# Helpdesk Prompts

This directory contains the prompts the help desk assistant sends to its language model.

## Files

- ` + "`intent_system.txt`" + ` - Instructs the classifier to answer with one intent label
- ` + "`intent_user.txt`" + ` - Wraps the user's message for classification (` + "`%s`" + `: message)
- ` + "`rag_system.txt`" + ` - Rules for answers grounded in the knowledge base
- ` + "`rag_user.txt`" + ` - Carries the context and question (` + "`%s`" + `: context, ` + "`%s`" + `: question)
- ` + "`confidence_system.txt`" + ` - Asks for a 0-1 confidence score
- ` + "`confidence_user.txt`" + ` - Carries question and answer (` + "`%s`" + `: question, ` + "`%s`" + `: answer)
- ` + "`generic_system.txt`" + ` - Persona for general IT questions

## Customisation

Edit any file to customise behaviour. Changes take effect on the next command;
a running server reloads them as soon as the file is saved. Keep every ` + "`%s`" + ` placeholder in place: a file
whose placeholders differ from the default is ignored. Delete a file to restore
its default.
`
	return os.WriteFile(path, []byte(content), 0600)
}
