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
//   - Stores: the bundle of relational stores (jobs, documents, findings,
//     exposure, access, policies, diff cache, interactions)
//   - UnitOfWork: runs a pipeline stage's writes in one transaction
//   - FileContentProvider: reads file bytes from the scanning collaborator
//   - ExtractorRegistry: selects a text extractor by MIME type
//
// # Optional Interfaces
//
// These degrade gracefully when backed by the deterministic local
// fallback:
//
//   - Intelligence: classification, structured extraction and
//     summarisation. Without a remote provider the heuristic
//     implementation keeps the pipeline forward-progressing.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter or service package
package driven
