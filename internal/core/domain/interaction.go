package domain

import "time"

// RetrievedChunk records one chunk's part in an interaction: its rank,
// the view it was served in, and whether policy filtered it out.
type RetrievedChunk struct {
	ChunkID      string   `json:"chunk_id"`
	Rank         int      `json:"rank"`
	View         ViewType `json:"view"`
	Filtered     bool     `json:"filtered,omitempty"`
	FilterReason string   `json:"filter_reason,omitempty"`
}

// Interaction is an append-only audit record of one retrieval decision.
// Recording is fire-and-forget: a failure to persist an interaction never
// fails the retrieval path.
type Interaction struct {
	ID       string
	TenantID string
	AgentID  string

	// Type names the operation, e.g. "retrieve_chunks".
	Type string

	Query  string
	Chunks []RetrievedChunk

	// Answer holds generated output when the interaction produced one.
	Answer string

	LatencyMS int64
	CreatedAt time.Time
}
