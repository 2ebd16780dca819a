package domain

import (
	"fmt"
	"time"
)

// Agent is an AI or automated consumer of the retrieval API, subject to
// policy evaluation.
type Agent struct {
	ID        string
	TenantID  string
	Name      string
	CreatedAt time.Time
}

// VisibilityRules control which documents a policy lets an agent see.
// Empty lists impose no constraint.
type VisibilityRules struct {
	// IncludeDocTypes, when non-empty, allows only the listed types.
	IncludeDocTypes []string `json:"include_doc_types,omitempty"`

	// ExcludeDocTypes rejects the listed types.
	ExcludeDocTypes []string `json:"exclude_doc_types,omitempty"`

	// IncludePaths, when non-empty, allows only paths starting with one
	// of the listed prefixes.
	IncludePaths []string `json:"include_paths,omitempty"`

	// ExcludePaths rejects paths starting with any listed prefix.
	ExcludePaths []string `json:"exclude_paths,omitempty"`
}

// RedactionRules control how visible content is transformed before an
// agent receives it.
type RedactionRules struct {
	MaskPII      bool `json:"mask_pii,omitempty"`
	MaskSecrets  bool `json:"mask_secrets,omitempty"`
	UseSummaries bool `json:"use_summaries,omitempty"`
}

// PolicyConfig is the explicit, versioned policy configuration. It is
// validated once when a policy is loaded, not on every evaluation.
type PolicyConfig struct {
	Visibility VisibilityRules `json:"visibility"`
	Redaction  RedactionRules  `json:"redaction"`
}

// knownDocTypes is the set of values accepted in doc-type rules.
var knownDocTypes = map[string]struct{}{
	string(DocTypeContract): {},
	string(DocTypePolicy):   {},
	string(DocTypeRFC):      {},
	string(DocTypeOther):    {},
}

// Validate checks the configuration for unknown doc types and empty path
// prefixes. Called once at load time.
func (c *PolicyConfig) Validate() error {
	for _, list := range [][]string{c.Visibility.IncludeDocTypes, c.Visibility.ExcludeDocTypes} {
		for _, dt := range list {
			if _, ok := knownDocTypes[dt]; !ok {
				return fmt.Errorf("%w: unknown doc type %q", ErrInvalidInput, dt)
			}
		}
	}
	for _, list := range [][]string{c.Visibility.IncludePaths, c.Visibility.ExcludePaths} {
		for _, p := range list {
			if p == "" {
				return fmt.Errorf("%w: empty path prefix", ErrInvalidInput)
			}
		}
	}
	return nil
}

// Policy is a named rule set controlling which documents an agent may see
// and in what transformed view. Policies are read-only from the pipeline's
// perspective.
type Policy struct {
	ID       string
	TenantID string
	Name     string

	// Priority orders evaluation; higher priorities are checked first.
	Priority int

	Config PolicyConfig
	Active bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

// PolicyDecision is the outcome of evaluating an agent's policies against
// one chunk.
type PolicyDecision struct {
	// Allowed is false when any applied policy rejected the chunk.
	Allowed bool

	// View is the text representation to serve when allowed.
	View ViewType

	// FilterReason names why the chunk was rejected; empty when allowed.
	FilterReason string

	// AppliedPolicies lists the names of the policies that were evaluated.
	AppliedPolicies []string
}

// DefaultDecision is the open decision used when no agent identity is
// supplied or the agent has no active policy assignments.
func DefaultDecision() PolicyDecision {
	return PolicyDecision{Allowed: true, View: ViewRaw}
}
