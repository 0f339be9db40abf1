package enricher

import (
	"testing"

	"github.com/adverant/ocrservice/internal/model"
)

func makeLine(y0, y1 float64, words ...string) model.Line {
	line := model.Line{BoundingBox: model.BoundingBox{Y0: y0, Y1: y1, X0: 0, X1: 500}}
	x := 0.0
	for _, w := range words {
		box := model.BoundingBox{X0: x, X1: x + 80, Y0: y0, Y1: y1}
		line.Words = append(line.Words, model.Word{Text: w, BoundingBox: box})
		line.Text += w + " "
		x += 160
	}
	return line
}

func TestDetectTablesFindsRegularGrid(t *testing.T) {
	lines := []model.Line{
		makeLine(0, 10, "Item", "Qty", "Price"),
		makeLine(20, 30, "Widget", "3", "9.00"),
		makeLine(40, 50, "Gadget", "1", "19.99"),
		makeLine(60, 70, "Gizmo", "2", "4.50"),
	}

	blocks := []model.Block{{
		Page:        1,
		BoundingBox: model.BoundingBox{Width: 500},
		Paragraphs:  []model.Paragraph{{Lines: lines}},
	}}

	tables := DetectTables(blocks)
	if len(tables) != 1 {
		t.Fatalf("expected 1 table, got %d", len(tables))
	}

	got := tables[0]
	if got.Rows != 4 {
		t.Errorf("expected 4 rows, got %d", got.Rows)
	}
	if got.Columns < 2 {
		t.Errorf("expected at least 2 columns, got %d", got.Columns)
	}
}

func TestDetectTablesIgnoresIrregularProse(t *testing.T) {
	lines := []model.Line{
		makeLine(0, 10, "This", "is"),
		makeLine(14, 24, "a"),
		makeLine(55, 65, "paragraph", "of", "prose", "text"),
	}

	blocks := []model.Block{{
		Page:        1,
		BoundingBox: model.BoundingBox{Width: 500},
		Paragraphs:  []model.Paragraph{{Lines: lines}},
	}}

	tables := DetectTables(blocks)
	if len(tables) != 0 {
		t.Fatalf("expected no tables detected for irregular spacing, got %d", len(tables))
	}
}

func TestDetectTablesRequiresMinimumLines(t *testing.T) {
	lines := []model.Line{
		makeLine(0, 10, "A", "B"),
	}

	blocks := []model.Block{{
		Page:        1,
		BoundingBox: model.BoundingBox{Width: 500},
		Paragraphs:  []model.Paragraph{{Lines: lines}},
	}}

	if tables := DetectTables(blocks); len(tables) != 0 {
		t.Fatalf("expected no tables below minTableLines, got %d", len(tables))
	}
}

func TestDetectTablesFindsTwoLineGrid(t *testing.T) {
	lines := []model.Line{
		makeLine(0, 10, "A", "B"),
		makeLine(20, 30, "C", "D"),
	}

	blocks := []model.Block{{
		Page:        1,
		BoundingBox: model.BoundingBox{Width: 500},
		Paragraphs:  []model.Paragraph{{Lines: lines}},
	}}

	tables := DetectTables(blocks)
	if len(tables) != 1 {
		t.Fatalf("expected 1 table from a 2-line regular grid, got %d", len(tables))
	}
}
