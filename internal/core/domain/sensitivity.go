package domain

// SensitivityType categorises detected sensitive content.
type SensitivityType string

const (
	SensitivityPersonalData  SensitivityType = "PERSONAL_DATA"
	SensitivityHealthData    SensitivityType = "HEALTH_DATA"
	SensitivityFinancialData SensitivityType = "FINANCIAL_DATA"
	SensitivitySecrets       SensitivityType = "SECRETS"
)

// SensitivityLevel grades how severe a finding is.
type SensitivityLevel string

const (
	SensitivityLow    SensitivityLevel = "LOW"
	SensitivityMedium SensitivityLevel = "MEDIUM"
	SensitivityHigh   SensitivityLevel = "HIGH"
)

// SensitivityFinding is one detected occurrence of sensitive content in a
// document. Findings are fully replaced per document on every enrichment
// run, never partially updated.
type SensitivityFinding struct {
	ID         string
	TenantID   string
	DocumentID string

	// ChunkID links to the chunk the match was found in; empty for
	// document-level findings.
	ChunkID string

	Type  SensitivityType
	Level SensitivityLevel

	// Snippet is a redacted context window around the match; the matched
	// substring itself is never stored.
	Snippet string
}
