package match

import (
	"math"
	"strings"

	"github.com/clearhaul/docvalidator/internal/models"
	"github.com/clearhaul/docvalidator/pkg/logger"
)

// FieldMatchThreshold is the engine-level similarity floor for a single
// field to count as matched. The per-document-type content similarity
// threshold gates the aggregate percentage instead, not individual fields.
const FieldMatchThreshold = 0.5

// maxWindow is the widest candidate span in whitespace-delimited tokens.
const maxWindow = 4

// Matcher locates the best-matching span for each required key field and
// attempts literal value extraction through the section pattern library.
type Matcher struct {
	logger logger.Logger
}

func NewMatcher(log logger.Logger) *Matcher {
	return &Matcher{logger: log}
}

// Match scores every key field against the extracted text and returns the
// per-field diagnostics plus the aggregate match percentage.
func (m *Matcher) Match(text string, fields []models.KeyField) (map[string]models.FieldMatch, float64) {
	results := make(map[string]models.FieldMatch, len(fields))
	if len(fields) == 0 {
		return results, 100
	}

	tokens := strings.Fields(text)
	matched := 0

	for _, field := range fields {
		fm := m.matchField(text, tokens, field)
		if fm.Matched {
			matched++
		}
		results[field.Name] = fm
	}

	percentage := float64(matched) / float64(len(fields)) * 100
	return results, percentage
}

func (m *Matcher) matchField(text string, tokens []string, field models.KeyField) models.FieldMatch {
	target := normalizeFieldName(field.Name)

	best := 0.0
	bestSpan := ""
	for width := 1; width <= maxWindow; width++ {
		for i := 0; i+width <= len(tokens); i++ {
			span := strings.Join(tokens[i:i+width], " ")
			score := similarity(target, strings.ToLower(span))
			if score > best {
				best = score
				bestSpan = span
			}
		}
	}

	fm := models.FieldMatch{
		Matched:    best >= FieldMatchThreshold,
		Similarity: best,
		Section:    field.Section,
	}
	if fm.Matched {
		fm.MatchedWith = bestSpan
	}
	// Value extraction is independent of the similarity outcome.
	fm.ExtractedValues = extractValues(text, field)
	return fm
}

// normalizeFieldName turns configured names like "invoice_number" into the
// form they appear in documents.
func normalizeFieldName(name string) string {
	return strings.ToLower(strings.ReplaceAll(strings.ReplaceAll(name, "_", " "), "-", " "))
}

// similarity is the cosine of the character-bigram frequency vectors of the
// two strings. Single-character strings fall back to the character itself
// as the only feature.
func similarity(a, b string) float64 {
	va := bigrams(a)
	vb := bigrams(b)
	if len(va) == 0 || len(vb) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for g, ca := range va {
		normA += ca * ca
		if cb, ok := vb[g]; ok {
			dot += ca * cb
		}
	}
	for _, cb := range vb {
		normB += cb * cb
	}

	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// TextSimilarity is the cosine of the token frequency vectors of two whole
// texts, in [0,1]. It backs the document-level similarity percentage.
func TextSimilarity(a, b string) float64 {
	va := tokenFreq(a)
	vb := tokenFreq(b)
	if len(va) == 0 || len(vb) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for tok, ca := range va {
		normA += ca * ca
		if cb, ok := vb[tok]; ok {
			dot += ca * cb
		}
	}
	for _, cb := range vb {
		normB += cb * cb
	}

	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

func tokenFreq(s string) map[string]float64 {
	freq := make(map[string]float64)
	for _, tok := range strings.Fields(strings.ToLower(s)) {
		freq[tok]++
	}
	return freq
}

func bigrams(s string) map[string]float64 {
	runes := []rune(s)
	grams := make(map[string]float64)
	if len(runes) == 1 {
		grams[string(runes)] = 1
		return grams
	}
	for i := 0; i+2 <= len(runes); i++ {
		grams[string(runes[i:i+2])]++
	}
	return grams
}
