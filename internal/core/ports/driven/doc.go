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
//   - Normaliser / NormaliserRegistry: Extract text from uploaded documents
//   - PostProcessor / PostProcessorPipeline: Split text into sections
//   - DocumentStore: Document metadata and section persistence
//   - RequirementStore: Functional requirement groups
//   - TestCaseStore: Generated test suites and cases
//   - RunStore: Generation run status
//   - ConfigStore: Application configuration
//   - PromptStore: LLM prompt templates
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - LLMService: Without it, generation and requirement extraction are disabled.
//   - EmbeddingService: Without it, sections are stored unembedded and heading
//     lookups have no vector fallback.
//   - Cache: Without it, every LLM call goes to the provider.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter or normaliser package
package driven
