package services

import (
	"fmt"
	"strings"

	"github.com/quarry-labs/quarry/internal/core/domain"
)

// PolicyService evaluates an agent's policies against candidate chunks.
// Evaluation is pure: the caller loads the agent's active policies once per
// query and reuses them for every candidate.
type PolicyService struct{}

func NewPolicyService() *PolicyService {
	return &PolicyService{}
}

// Decide evaluates the policies, ordered highest priority first, against a
// chunk of the given document type and file path. The first policy that
// rejects the chunk decides the outcome; when every policy admits it, the
// strictest redaction across all policies picks the view.
func (s *PolicyService) Decide(policies []*domain.Policy, docType domain.DocType, filePath string) domain.PolicyDecision {
	if len(policies) == 0 {
		return domain.DefaultDecision()
	}

	names := make([]string, len(policies))
	for i, policy := range policies {
		names[i] = policy.Name
	}

	for _, policy := range policies {
		if reason := rejectReason(&policy.Config.Visibility, docType, filePath); reason != "" {
			return domain.PolicyDecision{
				Allowed:         false,
				FilterReason:    reason,
				AppliedPolicies: names,
			}
		}
	}

	return domain.PolicyDecision{
		Allowed:         true,
		View:            resolveView(policies),
		AppliedPolicies: names,
	}
}

// rejectReason returns why the visibility rules reject the chunk, or empty
// when they admit it. Exclusions are checked before inclusions.
func rejectReason(rules *domain.VisibilityRules, docType domain.DocType, filePath string) string {
	for _, dt := range rules.ExcludeDocTypes {
		if dt == string(docType) {
			return fmt.Sprintf("doc_type %s excluded by policy", docType)
		}
	}
	if len(rules.IncludeDocTypes) > 0 && !contains(rules.IncludeDocTypes, string(docType)) {
		return "doc_type not in allowed list"
	}

	for _, prefix := range rules.ExcludePaths {
		if strings.HasPrefix(filePath, prefix) {
			return fmt.Sprintf("path excluded: %s", prefix)
		}
	}
	if len(rules.IncludePaths) > 0 {
		allowed := false
		for _, prefix := range rules.IncludePaths {
			if strings.HasPrefix(filePath, prefix) {
				allowed = true
				break
			}
		}
		if !allowed {
			return "path not in allowed list"
		}
	}

	return ""
}

// resolveView picks the strictest view any policy demands: summaries beat
// redaction, redaction beats raw.
func resolveView(policies []*domain.Policy) domain.ViewType {
	view := domain.ViewRaw
	for _, policy := range policies {
		redaction := policy.Config.Redaction
		if redaction.UseSummaries {
			return domain.ViewSummary
		}
		if redaction.MaskPII || redaction.MaskSecrets {
			view = domain.ViewRedacted
		}
	}
	return view
}

func contains(list []string, value string) bool {
	for _, v := range list {
		if v == value {
			return true
		}
	}
	return false
}
