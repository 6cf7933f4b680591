package match

import (
	"regexp"
	"strings"

	"github.com/clearhaul/docvalidator/internal/models"
)

// Section-scoped literal value extraction. Each rule pairs a field-name hint
// with the value shapes that field takes in real documents; the labeled-value
// pattern built from the field name itself is always tried first.

var (
	datePattern = regexp.MustCompile(
		`\b(\d{1,2}[/.-]\d{1,2}[/.-]\d{2,4}|\d{4}[/.-]\d{1,2}[/.-]\d{1,2}|\d{1,2}\s+(?i:jan|feb|mar|apr|may|jun|jul|aug|sep|oct|nov|dec)[a-z]*\s+\d{2,4})\b`)
	amountPattern = regexp.MustCompile(
		`(?:(?i:usd|eur|gbp|cny|jpy|aud|\$|€|£|¥)\s*)?\b\d{1,3}(?:[,.]\d{3})*(?:\.\d{1,2})?\b`)
	referencePattern = regexp.MustCompile(`\b[A-Z]{2,}[A-Z0-9/-]*\d[A-Z0-9/-]*\b`)
)

var dateHints = []string{"date", "issued", "expiry", "eta", "etd"}
var amountHints = []string{"amount", "total", "value", "price", "charge", "weight", "freight"}

// extractValues runs the pattern rules for a field inside its section of the
// text. Body fields accumulate every found value, since repeated line items
// are expected there; header and footer fields keep the first hit only.
func extractValues(text string, field models.KeyField) []string {
	scope := sectionSlice(text, field.Section)
	firstOnly := field.Section != models.SectionBody

	if vals := labeledValues(scope, field.Name, firstOnly); len(vals) > 0 {
		return vals
	}

	name := strings.ToLower(field.Name)
	if hasHint(name, dateHints) {
		return findAll(datePattern, scope, firstOnly)
	}
	if hasHint(name, amountHints) {
		return findAll(amountPattern, scope, firstOnly)
	}
	return findAll(referencePattern, scope, firstOnly)
}

// labeledValues matches "Field Name: value" shapes built from the field
// name, tolerating underscores, separators, and flexible spacing.
func labeledValues(scope, fieldName string, firstOnly bool) []string {
	label := regexp.QuoteMeta(normalizeFieldName(fieldName))
	label = strings.ReplaceAll(label, ` `, `[\s_-]+`)
	re, err := regexp.Compile(`(?i)` + label + `\s*[:#=]?\s*(\S(?:[^\n]*\S)?)`)
	if err != nil {
		return nil
	}

	var values []string
	for _, m := range re.FindAllStringSubmatch(scope, -1) {
		values = append(values, strings.TrimSpace(m[1]))
		if firstOnly {
			break
		}
	}
	return values
}

func findAll(re *regexp.Regexp, scope string, firstOnly bool) []string {
	matches := re.FindAllString(scope, -1)
	if len(matches) == 0 {
		return nil
	}
	if firstOnly {
		return matches[:1]
	}
	return matches
}

func hasHint(name string, hints []string) bool {
	for _, h := range hints {
		if strings.Contains(name, h) {
			return true
		}
	}
	return false
}

// sectionSlice scopes the text to the configured section by line position:
// the first third of lines is the header, the last third the footer, the
// rest the body. Short texts fall back to the whole text.
func sectionSlice(text string, section models.Section) string {
	lines := strings.Split(text, "\n")
	if len(lines) < 3 {
		return text
	}

	third := len(lines) / 3
	switch section {
	case models.SectionHeader:
		return strings.Join(lines[:third], "\n")
	case models.SectionFooter:
		return strings.Join(lines[len(lines)-third:], "\n")
	case models.SectionBody:
		return strings.Join(lines[third:len(lines)-third], "\n")
	default:
		return text
	}
}
