package classify

import (
	"strings"

	"github.com/clearhaul/docvalidator/pkg/logger"
)

// Result is the classification outcome. Type is empty when no category
// scored above zero. Confidence is score / sum of the winning category's
// positive weights, capped at 1; callers must treat confidence <= 0 as an
// undetermined type.
type Result struct {
	Type       string  `json:"type,omitempty"`
	Confidence float64 `json:"confidence"`
}

// Classifier scores extracted text against the configured document
// categories. Categories are evaluated in configured order and a candidate
// replaces the current best only on a strictly greater score, so ties
// resolve to the earlier category deterministically.
type Classifier struct {
	rules  *Rules
	logger logger.Logger
}

func NewClassifier(rules *Rules, log logger.Logger) *Classifier {
	return &Classifier{
		rules:  rules,
		logger: log,
	}
}

// Classify scores text against every category and returns the best match.
func (c *Classifier) Classify(text string) Result {
	lowered := strings.ToLower(text)

	best := Result{}
	bestScore := 0.0

	for _, cat := range c.rules.Categories {
		score := 0.0
		totalWeight := 0.0
		for keyword, weight := range cat.PositiveKeywords {
			totalWeight += weight
			if strings.Contains(lowered, strings.ToLower(keyword)) {
				score += weight
			}
		}
		for _, keyword := range cat.NegativeKeywords {
			if strings.Contains(lowered, strings.ToLower(keyword)) {
				score -= 1.0
			}
		}

		if score > bestScore && totalWeight > 0 {
			bestScore = score
			confidence := score / totalWeight
			if confidence > 1 {
				confidence = 1
			}
			best = Result{Type: cat.Name, Confidence: confidence}
		}
	}

	if best.Type != "" {
		c.logger.Debug("classified document text",
			logger.String("type", best.Type),
			logger.Float64("confidence", best.Confidence),
		)
	}

	return best
}
