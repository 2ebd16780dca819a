package domain

import (
	"path"
	"strings"
	"time"
)

// Share is a scanned content root. Provisioning is handled by the
// administration surface; the pipeline only reads shares to resolve paths.
type Share struct {
	ID       string
	TenantID string
	Name     string

	// RootPath is the absolute path the share's files are resolved under.
	RootPath string

	CreatedAt time.Time
}

// File is the ingestion collaborator's record of a discovered file.
// The pipeline treats files as read-only input.
type File struct {
	ID       string
	TenantID string
	ShareID  string

	// RelativePath locates the file under the share root.
	RelativePath string

	// Name is the base file name, kept separately for title fallbacks.
	Name string

	SizeBytes int64

	// MIMEType is the declared content type; extraction falls back to the
	// filename extension when it is unknown.
	MIMEType string

	// ContentHash changes whenever the file's bytes change and drives
	// document versioning.
	ContentHash string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// PathUnder returns the file's full path beneath the given share root.
func (f *File) PathUnder(share *Share) string {
	return path.Join(share.RootPath, strings.TrimPrefix(f.RelativePath, "/"))
}

// PrincipalType distinguishes kinds of access principals.
type PrincipalType string

const (
	PrincipalUser    PrincipalType = "USER"
	PrincipalGroup   PrincipalType = "GROUP"
	PrincipalService PrincipalType = "SERVICE"
)

// Principal is a user, group, or service identity with file access rights.
type Principal struct {
	ID          string
	TenantID    string
	Type        PrincipalType
	DisplayName string
}

// FileAccess records one principal's effective access to one file, as
// resolved by the ingestion collaborator.
type FileAccess struct {
	ID          string
	TenantID    string
	FileID      string
	PrincipalID string
	CanRead     bool
}
