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
//   - Extractor: Converts one media kind into plain text
//   - ExtractorRegistry: Dispatches an upload to its extractor
//   - PostProcessorPipeline: Turns document text into chunks
//   - DocumentStore: Document and chunk persistence
//   - ConversationStore: Conversation history persistence
//   - LLMService: The answer model
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - SelectionOracle: Picks relevant chunk IDs. Without it, answers carry no reference context.
//   - Recorder: Metrics sink. Without it, nothing is recorded.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter, extractor, or postprocessor package
package driven
