package domain

import "time"

// ChangeType classifies one field or section change between versions.
type ChangeType string

const (
	ChangeAdded    ChangeType = "added"
	ChangeRemoved  ChangeType = "removed"
	ChangeModified ChangeType = "modified"
)

// FieldChange is a change to one structured field between two document
// versions.
type FieldChange struct {
	Field    string     `json:"field"`
	OldValue any        `json:"old_value"`
	NewValue any        `json:"new_value"`
	Change   ChangeType `json:"change"`
}

// SectionChange is a change to a document section between two versions.
type SectionChange struct {
	SectionPath []string   `json:"section_path"`
	Change      ChangeType `json:"change"`
	Summary     string     `json:"summary,omitempty"`
}

// SemanticDiff is the cached result of comparing two document versions.
// Keyed uniquely by (FromVersionID, ToVersionID); written once and then
// served verbatim from the cache.
type SemanticDiff struct {
	FromVersionID  string
	ToVersionID    string
	FieldChanges   []FieldChange
	SectionChanges []SectionChange
	Summary        string
	CreatedAt      time.Time
}
