/**
 * Enricher: turns a raw OCR block tree into the Structure section of a
 * Result — titles, headings, lists, tables, key-value pairs, smart
 * fields, notable data entities, a document-type label, and a page
 * layout classification.
 *
 * Modeled on the original worker's LayoutAnalyzer: a single Analyze-
 * style entry point that dispatches to per-concern strategies and
 * falls back to text heuristics when no richer signal is available.
 */

package enricher

import (
	"strings"

	"github.com/adverant/ocrservice/internal/model"
)

// Enricher derives document structure from an OCR block tree.
type Enricher struct{}

// New creates an Enricher.
func New() *Enricher {
	return &Enricher{}
}

// Enrich classifies every word/line/paragraph/block in result.Blocks and
// populates result.Structure and result.Text/Confidence. Each block
// carries its own page's pixel dimensions (Block.PageWidth/PageHeight,
// set by the OCR/PDF layer), since §4.4's alignment and classification
// thresholds are expressed as a fraction of the page the block came
// from rather than of the block's own bounding box.
func (e *Enricher) Enrich(result *model.Result) {
	var allText []string
	var confSum float64
	var confCount int
	var wordCount, lineCount int

	for bi := range result.Blocks {
		block := &result.Blocks[bi]
		block.ReadingOrder = bi + 1
		classifyBlock(block, block.PageWidth, block.PageHeight)
		allText = append(allText, block.Text)
		if block.Confidence > 0 {
			confSum += block.Confidence
			confCount++
		}
		for _, para := range block.Paragraphs {
			for _, line := range para.Lines {
				lineCount++
				wordCount += len(line.Words)
			}
		}
	}

	result.Text = strings.Join(allText, "\n\n")
	if confCount > 0 {
		result.Confidence = confSum / float64(confCount)
	}
	result.Metadata.WordCount = wordCount
	result.Metadata.LineCount = lineCount

	structure := &result.Structure
	structure.Title, structure.Headings = extractTitleAndHeadings(result.Blocks)
	structure.Lists = extractLists(result.Blocks)
	structure.Tables = DetectTables(result.Blocks)
	markTableBlocks(result.Blocks, structure.Tables)
	structure.KeyValuePairs = ExtractKeyValuePairs(result.Blocks)
	structure.SmartFields = ExtractSmartFields(result.Text, structure.KeyValuePairs)
	structure.NotableData = ExtractNotableData(result.Text)
	structure.DocumentType = ClassifyDocumentType(result.Text, structure, result.Blocks)
	structure.PageLayout = ClassifyPageLayout(result.Blocks)
}

// extractTitleAndHeadings scans paragraphs classified as headings and
// returns the first one as the title and all of them, the title
// included, as the heading list, preserving document order.
func extractTitleAndHeadings(blocks []model.Block) (string, []string) {
	var headings []string
	for _, block := range blocks {
		for _, para := range block.Paragraphs {
			if para.TextType == "heading" {
				headings = append(headings, strings.TrimSpace(para.Text))
			}
		}
	}
	if len(headings) == 0 {
		return "", nil
	}
	return headings[0], headings
}

// markTableBlocks relabels every block on a page where a table was
// detected (matched by page number, not by the table's own block) so
// downstream page-layout/document-type classification can recognize
// tabular pages.
func markTableBlocks(blocks []model.Block, tables []model.Table) {
	for _, t := range tables {
		for bi := range blocks {
			if blocks[bi].Page == t.Page {
				blocks[bi].BlockType = "table"
			}
		}
	}
}

// extractLists groups consecutive list-item paragraphs into lists.
func extractLists(blocks []model.Block) [][]string {
	var lists [][]string
	var current []string

	flush := func() {
		if len(current) > 0 {
			lists = append(lists, current)
			current = nil
		}
	}

	for _, block := range blocks {
		for _, para := range block.Paragraphs {
			if para.TextType == "list" {
				current = append(current, strings.TrimSpace(para.Text))
			} else {
				flush()
			}
		}
	}
	flush()

	return lists
}
