package enricher

import (
	"testing"

	"github.com/adverant/ocrservice/internal/model"
)

func TestEnrichBuildsFullTextAndStructure(t *testing.T) {
	result := &model.Result{
		Blocks: []model.Block{
			{
				Page:        1,
				BoundingBox: model.BoundingBox{Width: 500},
				Confidence:  0.9,
				PageWidth:   600,
				PageHeight:  800,
				Paragraphs: []model.Paragraph{
					{
						Text:        "Invoice Summary",
						BoundingBox: model.BoundingBox{X0: 10, Y0: 20, X1: 200, Y1: 62, Width: 190, Height: 42},
						Lines: []model.Line{{
							Text:        "Invoice Summary",
							BoundingBox: model.BoundingBox{X0: 10, X1: 200, Width: 190, Height: 42},
						}},
					},
					{
						Text:        "Total: $99.00",
						BoundingBox: model.BoundingBox{X0: 10, Y0: 400, X1: 300, Y1: 414, Width: 290, Height: 14},
						Lines: []model.Line{{
							Text:        "Total: $99.00",
							BoundingBox: model.BoundingBox{X0: 10, X1: 300, Width: 290, Height: 14},
						}},
					},
				},
			},
		},
	}
	result.Blocks[0].Text = "Invoice Summary\nTotal: $99.00"

	e := New()
	e.Enrich(result)

	if result.Text == "" {
		t.Fatal("expected non-empty full text")
	}
	if result.Confidence != 0.9 {
		t.Errorf("expected confidence 0.9, got %v", result.Confidence)
	}
	if result.Structure.Title != "Invoice Summary" {
		t.Errorf("expected title %q, got %q", "Invoice Summary", result.Structure.Title)
	}
}
