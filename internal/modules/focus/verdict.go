package focus

import (
	"math"
	"strings"

	types "github.com/yungbote/focustube-backend/internal/domain"
)

// ClampConfidence maps any judge output into [0,1]; NaN becomes 0.
func ClampConfidence(c float64) float64 {
	switch {
	case math.IsNaN(c), c < 0:
		return 0
	case c > 1:
		return 1
	default:
		return c
	}
}

// Threshold turns a raw confidence into a verdict.
func (p Policy) Threshold(confidence float64, reason, source string) types.Verdict {
	confidence = ClampConfidence(confidence)
	decision := types.DecisionInvalid
	if confidence >= p.ValidThreshold {
		decision = types.DecisionValid
	}
	return types.Verdict{
		Decision:   decision,
		Confidence: confidence,
		Reason:     strings.TrimSpace(reason),
		Source:     source,
	}
}
