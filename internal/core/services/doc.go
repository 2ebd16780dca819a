// Package services implements the driving port interfaces.
// Services contain the core business logic and orchestrate
// calls to driven ports (adapters).
//
// The pipeline stages (extraction, enrichment, semantics) are
// JobProcessors driven by the Worker; retrieval, diffing and ingestion
// are called directly by the CLI.
package services
