// Package exposure scores how exposed a document is, combining how broadly
// its file is shared with how sensitive its content turned out to be.
package exposure

import "github.com/quarry-labs/quarry/internal/core/domain"

// Input carries the access and sensitivity facts the score derives from.
type Input struct {
	// PrincipalCount is the number of principals with read access to the
	// document's file.
	PrincipalCount int

	// BroadGroups lists the configured broad group names that hold read
	// access, like "All Employees".
	BroadGroups []string

	// Findings are the document's sensitivity findings.
	Findings []*domain.SensitivityFinding
}

// Result is the computed exposure for a document.
type Result struct {
	Level   domain.ExposureLevel
	Score   int
	Summary domain.AccessSummary
}

// Score computes the exposure result. The score is the sum of an access
// breadth component and a content sensitivity component, capped at 100.
func Score(in Input) Result {
	breadth, bucket := breadthScore(in.PrincipalCount)
	if len(in.BroadGroups) > 0 {
		breadth += 20
	}

	score := sensitivityScore(in.Findings) + breadth
	if score > 100 {
		score = 100
	}

	var level domain.ExposureLevel
	switch {
	case score < 40:
		level = domain.ExposureLow
	case score < 70:
		level = domain.ExposureMedium
	default:
		level = domain.ExposureHigh
	}

	return Result{
		Level: level,
		Score: score,
		Summary: domain.AccessSummary{
			BroadGroups:          in.BroadGroups,
			PrincipalCountBucket: bucket,
		},
	}
}

func breadthScore(principals int) (int, string) {
	switch {
	case principals <= 10:
		return 20, "0-10"
	case principals <= 100:
		return 50, "11-100"
	default:
		return 80, ">100"
	}
}

// sensitivityScore is the severity of the worst finding. Documents with no
// findings still carry a floor of 20.
func sensitivityScore(findings []*domain.SensitivityFinding) int {
	score := 20
	for _, f := range findings {
		switch f.Type {
		case domain.SensitivitySecrets, domain.SensitivityFinancialData:
			if f.Level == domain.SensitivityHigh && score < 80 {
				score = 80
			}
		case domain.SensitivityPersonalData:
			if score < 60 {
				score = 60
			}
		case domain.SensitivityHealthData:
			if score < 70 {
				score = 70
			}
		}
	}
	return score
}
