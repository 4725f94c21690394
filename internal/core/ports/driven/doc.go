// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for retrieval to function:
//
//   - VectorStore: Similarity search over previously ingested documents
//   - DocumentSource: Searches for and downloads fresh documents
//   - PostProcessorPipeline: Splits document text into chunks
//   - ConfigStore: Application configuration
//
// # Supporting Interfaces
//
//   - EmbeddingService: Used by vector stores to embed queries and documents
//   - TextExtractor: Used by document sources to turn downloads into text
//   - PromptStore: Context templates for downstream generation
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter, connector, or normaliser package
package driven
