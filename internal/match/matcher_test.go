package match

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clearhaul/docvalidator/internal/models"
	"github.com/clearhaul/docvalidator/pkg/logger"
)

const invoiceText = `Commercial Invoice
Invoice Number: INV-2024-001
Date: 12/03/2024
Bill To: Acme Trading Co
Item 1 Steel Pipes Amount: 1,200.00
Item 2 Copper Wire Amount: 850.50
Total Amount: 2,050.50
Thank you for your business`

func TestMatchFindsConfiguredFields(t *testing.T) {
	m := NewMatcher(logger.NewTestLogger())
	fields := []models.KeyField{
		{Name: "invoice_number", Section: models.SectionHeader},
		{Name: "total_amount", Section: models.SectionFooter},
	}

	results, pct := m.Match(invoiceText, fields)

	require.Len(t, results, 2)
	assert.Equal(t, 100.0, pct)

	inv := results["invoice_number"]
	assert.True(t, inv.Matched)
	assert.GreaterOrEqual(t, inv.Similarity, FieldMatchThreshold)
	assert.Equal(t, models.SectionHeader, inv.Section)
	assert.NotEmpty(t, inv.MatchedWith)

	total := results["total_amount"]
	assert.True(t, total.Matched)
	assert.NotEmpty(t, total.ExtractedValues)
}

func TestMatchUnrelatedFieldDoesNotMatch(t *testing.T) {
	m := NewMatcher(logger.NewTestLogger())
	fields := []models.KeyField{
		{Name: "invoice_number", Section: models.SectionHeader},
		{Name: "vessel_voyage", Section: models.SectionHeader},
	}

	results, pct := m.Match(invoiceText, fields)

	assert.True(t, results["invoice_number"].Matched)
	assert.False(t, results["vessel_voyage"].Matched)
	assert.Equal(t, 50.0, pct)
}

func TestMatchExtractsValuesForUnmatchedFields(t *testing.T) {
	m := NewMatcher(logger.NewTestLogger())
	// "shipment_date" has no span above the similarity floor, but its section
	// still holds a date literal.
	fields := []models.KeyField{
		{Name: "shipment_date", Section: models.SectionBody},
	}

	results, pct := m.Match(invoiceText, fields)

	fm := results["shipment_date"]
	assert.False(t, fm.Matched)
	assert.Zero(t, pct)
	assert.Empty(t, fm.MatchedWith)
	require.NotEmpty(t, fm.ExtractedValues)
	assert.Equal(t, "12/03/2024", fm.ExtractedValues[0])
}

func TestMatchNoFieldsIsFullMatch(t *testing.T) {
	m := NewMatcher(logger.NewTestLogger())

	results, pct := m.Match(invoiceText, nil)

	assert.Empty(t, results)
	assert.Equal(t, 100.0, pct)
}

func TestMatchEmptyTextMatchesNothing(t *testing.T) {
	m := NewMatcher(logger.NewTestLogger())
	fields := []models.KeyField{
		{Name: "invoice_number", Section: models.SectionHeader},
	}

	results, pct := m.Match("", fields)

	assert.False(t, results["invoice_number"].Matched)
	assert.Zero(t, pct)
}

func TestSimilarityBounds(t *testing.T) {
	assert.InDelta(t, 1.0, similarity("invoice number", "invoice number"), 1e-9)
	assert.Zero(t, similarity("invoice", ""))
	assert.Zero(t, similarity("", ""))

	near := similarity("invoice number", "invoice number:")
	assert.Greater(t, near, 0.8)

	far := similarity("gross weight", "thanks")
	assert.Less(t, far, FieldMatchThreshold)
}

func TestTextSimilarity(t *testing.T) {
	assert.InDelta(t, 1.0, TextSimilarity(invoiceText, invoiceText), 1e-9)
	assert.Zero(t, TextSimilarity(invoiceText, ""))

	partial := TextSimilarity("invoice number total", "invoice number date")
	assert.Greater(t, partial, 0.0)
	assert.Less(t, partial, 1.0)
}

func TestExtractLabeledValue(t *testing.T) {
	field := models.KeyField{Name: "invoice_number", Section: models.SectionHeader}

	values := extractValues(invoiceText, field)

	require.NotEmpty(t, values)
	assert.Equal(t, "INV-2024-001", values[0])
}

func TestExtractDateByHint(t *testing.T) {
	// No labeled "issue date" in the text; the date hint patterns kick in.
	text := "Issued 12/03/2024 by the carrier\nmore lines here\nfooter"
	field := models.KeyField{Name: "issue_date", Section: models.SectionHeader}

	values := extractValues(text, field)

	require.NotEmpty(t, values)
	assert.Equal(t, "12/03/2024", values[0])
}

func TestExtractBodyAccumulatesAllValues(t *testing.T) {
	field := models.KeyField{Name: "amount", Section: models.SectionBody}

	values := extractValues(invoiceText, field)

	// The body section holds both line items; both amounts are kept.
	require.GreaterOrEqual(t, len(values), 2)
}

func TestSectionSlice(t *testing.T) {
	text := "h1\nh2\nh3\nb1\nb2\nb3\nf1\nf2\nf3"

	assert.Equal(t, "h1\nh2\nh3", sectionSlice(text, models.SectionHeader))
	assert.Equal(t, "b1\nb2\nb3", sectionSlice(text, models.SectionBody))
	assert.Equal(t, "f1\nf2\nf3", sectionSlice(text, models.SectionFooter))

	short := "one line"
	assert.Equal(t, short, sectionSlice(short, models.SectionHeader))
}
