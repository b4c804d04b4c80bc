package driven

// PromptStore resolves prompt templates by name (the domain.Prompt*
// constants). A missing template returns domain.ErrNotFound and the caller
// falls back to its built-in text.
type PromptStore interface {
	Load(name string) (string, error)

	// Reload drops cached templates so edits on disk take effect.
	Reload()
}

// PromptStoreAware is implemented by the services whose prompts can be
// overridden.
type PromptStoreAware interface {
	SetPromptStore(store PromptStore)
}
