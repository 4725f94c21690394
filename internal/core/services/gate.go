package services

import (
	"fmt"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

// QualityGate decides whether cached vector matches are good enough to
// answer a query. Every threshold must pass; one strong match among noise
// is not enough, and neither is a pile of mediocre ones.
type QualityGate struct {
	thresholds domain.GateSettings
}

// NewQualityGate creates a gate with the given thresholds.
func NewQualityGate(thresholds domain.GateSettings) *QualityGate {
	return &QualityGate{thresholds: thresholds}
}

// Assess measures matches against the thresholds.
func (g *QualityGate) Assess(matches []domain.VectorMatch) domain.QualityAssessment {
	if len(matches) == 0 {
		return domain.QualityAssessment{Sufficient: false, Reason: domain.ReasonNoResults}
	}

	var sum float64
	maxScore := matches[0].Score
	for _, m := range matches {
		sum += m.Score
		maxScore = max(maxScore, m.Score)
	}

	t := g.thresholds
	metrics := &domain.QualityMetrics{
		AvgScore:     sum / float64(len(matches)),
		MaxScore:     maxScore,
		ResultCount:  len(matches),
		ThresholdMet: maxScore >= t.MaxScore,
	}

	var reason string
	switch {
	case !metrics.ThresholdMet:
		reason = fmt.Sprintf("max score %.3f below %.3f", metrics.MaxScore, t.MaxScore)
	case metrics.AvgScore < t.MinAvgScore:
		reason = fmt.Sprintf("average score %.3f below %.3f", metrics.AvgScore, t.MinAvgScore)
	case metrics.ResultCount < t.MinResults:
		reason = fmt.Sprintf("%d results, need %d", metrics.ResultCount, t.MinResults)
	default:
		return domain.QualityAssessment{Sufficient: true, Reason: "all thresholds met", Metrics: metrics}
	}

	return domain.QualityAssessment{Sufficient: false, Reason: reason, Metrics: metrics}
}
