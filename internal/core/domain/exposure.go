package domain

// ExposureLevel buckets an exposure score for display and filtering.
type ExposureLevel string

const (
	ExposureLow    ExposureLevel = "LOW"
	ExposureMedium ExposureLevel = "MEDIUM"
	ExposureHigh   ExposureLevel = "HIGH"
)

// AccessSummary explains how an exposure score was derived.
type AccessSummary struct {
	// BroadGroups lists configured broad-group names found with read
	// access (e.g. "Everyone").
	BroadGroups []string `json:"broad_groups"`

	// PrincipalCountBucket is the breadth bucket label, e.g. "11-100".
	PrincipalCountBucket string `json:"principal_count_bucket"`
}

// DocumentExposure is the derived risk assessment for one document.
// Exactly one live row exists per document; it is replaced wholesale on
// each enrichment run. Score always lies in [0, 100].
type DocumentExposure struct {
	ID         string
	TenantID   string
	DocumentID string
	Level      ExposureLevel
	Score      int
	Summary    AccessSummary
}
