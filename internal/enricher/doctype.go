/**
 * Document-type labeling and page-layout classification.
 */

package enricher

import (
	"regexp"
	"strings"

	"github.com/adverant/ocrservice/internal/model"
)

var (
	invoiceWordRE = regexp.MustCompile(`(?i)\binvoice\b`)
	receiptWordRE = regexp.MustCompile(`(?i)\breceipt\b`)
)

// ClassifyDocumentType implements §4.4's document-type conjunctions,
// evaluated in the order the spec lists them: invoice, receipt, form,
// report, letter, else unknown.
func ClassifyDocumentType(text string, structure *model.Structure, blocks []model.Block) string {
	hasSmartField := func(name string) bool {
		for _, f := range structure.SmartFields {
			if f.Name == name {
				return true
			}
		}
		return false
	}

	hasTotal := hasSmartField("total")

	switch {
	case (invoiceWordRE.MatchString(text) || hasSmartField("invoiceNumber")) && hasTotal:
		return "invoice"
	case receiptWordRE.MatchString(text) && hasTotal:
		return "receipt"
	case len(structure.SmartFields) > 5:
		return "form"
	case hasHeadingBlock(blocks) && len(structure.Tables) >= 1:
		return "report"
	case hasSmartField("address") && len(blocks) > 3:
		return "letter"
	default:
		return "unknown"
	}
}

func hasHeadingBlock(blocks []model.Block) bool {
	for i := range blocks {
		if blocks[i].BlockType == "heading" {
			return true
		}
	}
	return false
}

// largeColumnGap is the x-gap (in page pixels) between consecutive block
// start positions above which §4.4 counts a new column.
const largeColumnGap = 50

// ClassifyPageLayout implements §4.4's page-layout formulas: column
// count from large x-gaps between block starts, header/footer presence
// from paragraph classifications, and text density as the ratio of
// summed paragraph area to the largest paragraph extent.
func ClassifyPageLayout(blocks []model.Block) model.PageLayout {
	if len(blocks) == 0 {
		return model.PageLayout{Columns: 1}
	}

	starts := make([]float64, 0, len(blocks))
	for _, b := range blocks {
		starts = append(starts, b.BoundingBox.X0)
	}

	columns := 1
	for i := 1; i < len(starts); i++ {
		gap := starts[i] - starts[i-1]
		if gap < 0 {
			gap = -gap
		}
		if gap > largeColumnGap {
			columns++
		}
	}

	hasHeader := false
	hasFooter := false
	var areaSum float64
	var maxExtent float64

	for _, b := range blocks {
		for _, para := range b.Paragraphs {
			if para.TextType == "footer" {
				hasFooter = true
			}

			box := para.BoundingBox
			areaSum += box.Width * box.Height
			extent := box.X1 * box.Y1
			if extent > maxExtent {
				maxExtent = extent
			}
		}
		if strings.EqualFold(b.BlockType, "header") {
			hasHeader = true
		}
		if strings.EqualFold(b.BlockType, "footer") {
			hasFooter = true
		}
	}

	var density float64
	if maxExtent > 0 {
		density = areaSum / maxExtent
	}

	return model.PageLayout{
		Columns:     columns,
		HasHeader:   hasHeader,
		HasFooter:   hasFooter,
		TextDensity: density,
	}
}
