package domain

import "time"

// JobType identifies what kind of pipeline work a job carries.
type JobType string

const (
	// JobTypeExtractContent extracts text from a file and builds chunks.
	JobTypeExtractContent JobType = "EXTRACT_CONTENT"

	// JobTypeEnrichChunks runs sensitivity detection and exposure scoring.
	JobTypeEnrichChunks JobType = "ENRICH_CHUNKS"

	// JobTypeExtractSemantics pulls structured fields from classified documents.
	JobTypeExtractSemantics JobType = "EXTRACT_SEMANTICS"

	// JobTypeClassifyDocument is declared for compatibility with the job
	// enumeration but no worker claims it: classification runs inline
	// during extraction.
	JobTypeClassifyDocument JobType = "CLASSIFY_DOCUMENT"

	// JobTypeComputeDiff is declared for compatibility with the job
	// enumeration but no worker claims it: diffs are computed
	// synchronously on request.
	JobTypeComputeDiff JobType = "COMPUTE_DIFF"
)

// JobStatus is the lifecycle state of a job.
// Transitions only move forward: PENDING → IN_PROGRESS → SUCCEEDED or FAILED.
// FAILED and SUCCEEDED are terminal; failed jobs are never re-enqueued.
type JobStatus string

const (
	JobPending    JobStatus = "PENDING"
	JobInProgress JobStatus = "IN_PROGRESS"
	JobSucceeded  JobStatus = "SUCCEEDED"
	JobFailed     JobStatus = "FAILED"
)

// Job is a claimable unit of asynchronous pipeline work.
// Jobs are created by the ingestion collaborator or by a pipeline stage
// enqueuing its successor, mutated only by the queue (claim) and by the
// worker that owns them, and never deleted in normal operation.
type Job struct {
	// ID is the unique identifier for the job.
	ID string

	// TenantID scopes the job to a tenant.
	TenantID string

	// Type selects which processor handles the job.
	Type JobType

	// FileID references the target file for extraction jobs.
	FileID string

	// DocumentID references the target document for enrichment and
	// semantics jobs.
	DocumentID string

	// Status is the current lifecycle state.
	Status JobStatus

	// Attempts counts how many times the job has been claimed.
	Attempts int

	// LastError preserves the most recent failure message verbatim.
	LastError string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// TargetRef returns whichever reference the job carries, preferring the
// document. Used for logging only.
func (j *Job) TargetRef() string {
	if j.DocumentID != "" {
		return j.DocumentID
	}
	return j.FileID
}
