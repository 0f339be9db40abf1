package enricher

import (
	"testing"

	"github.com/adverant/ocrservice/internal/model"
)

func TestExtractKeyValuePairs(t *testing.T) {
	blocks := []model.Block{{
		Paragraphs: []model.Paragraph{{
			Lines: []model.Line{
				{Text: "Customer Name: Acme Corp"},
				{Text: "Order Date: 2024-01-15"},
				{Text: "This is just a sentence without a label."},
			},
		}},
	}}

	pairs := ExtractKeyValuePairs(blocks)
	if len(pairs) != 2 {
		t.Fatalf("expected 2 key-value pairs, got %d: %+v", len(pairs), pairs)
	}
	if pairs[0].Key != "Customer Name" || pairs[0].Value != "Acme Corp" {
		t.Errorf("unexpected first pair: %+v", pairs[0])
	}
}
