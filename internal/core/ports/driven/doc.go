// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the application to function:
//
//   - Extractor: Converts uploaded bytes into plain text
//   - ExtractorRegistry: Selects an extractor by file extension
//   - EmbeddingService: Maps text to fixed-length vectors
//   - VectorIndex: Persists vectors with chunk payloads and searches them
//   - LLMService: Generates answers from prompts
//   - BlobStore: Keeps the original uploaded bytes
//   - DocumentStore: Document record persistence
//   - ConfigStore: Application configuration
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - ConversationStore: Records completed turns. Without it, history is unavailable.
//   - PromptStore: User-editable prompt templates. Without it, built-in prompts are used.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter, extractor, or chunker package
package driven
