// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
//   - LLMService: Completion calls for classification, generation and scoring
//   - SectionExtractor: Turns page markup into ordered sections
//   - Chunker: Turns sections into bounded chunks
//   - TokenCounter: The single token measure shared by chunking and scoring
//   - ConfigStore: Application configuration
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - SearchIndex: Without it, knowledge-base questions escalate immediately.
//   - EmbeddingService: Without it, retrieval and ingestion are disabled.
//   - PageSource: Without it, ingestion is disabled.
//   - ConversationStore: Without it, turns are answered but not recorded.
//   - PromptStore: Without it, built-in prompts are used.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter, connector, or normaliser package
package driven
