/**
 * Word/line/paragraph/block classification heuristics.
 */

package enricher

import (
	"math"
	"regexp"
	"strings"

	"github.com/adverant/ocrservice/internal/model"
)

// contentTypePatterns are tried in order; the first anchored match wins.
// Every pattern is anchored at the start and all but url at the end, so a
// word gets a type only when the whole word has that shape. Words are
// classified as the OCR layer produced them: only surrounding whitespace
// is trimmed, punctuation is not stripped.
var contentTypePatterns = []struct {
	name string
	re   *regexp.Regexp
}{
	{"email", regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)},
	{"url", regexp.MustCompile(`^(https?://|www\.)`)},
	{"phone", regexp.MustCompile(`^[\d\s\-()+]{7,}$`)},
	{"currency", regexp.MustCompile(`^[$€£¥]?\s*\d+([,.]\d+)*(\.\d{2})?$`)},
	{"date", regexp.MustCompile(`^\d{1,2}[/-]\d{1,2}[/-]\d{2,4}$|^\d{4}[/-]\d{1,2}[/-]\d{1,2}$`)},
	{"number", regexp.MustCompile(`^\d+([,.]\d+)*$`)},
}

// threeConsecutiveDigitsRE guards the "phone" pattern: a bare run of
// dashes and spaces with no digits at all shouldn't classify as a phone
// number.
var threeConsecutiveDigitsRE = regexp.MustCompile(`\d{3}`)

func classifyWordContentType(text string) string {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return ""
	}
	for _, p := range contentTypePatterns {
		if !p.re.MatchString(trimmed) {
			continue
		}
		if p.name == "phone" && !threeConsecutiveDigitsRE.MatchString(trimmed) {
			continue
		}
		return p.name
	}
	return "text"
}

// wordFontSize infers a word's font size from its bounding-box height,
// per §4.4: fontSize := round(bbox.height * 0.75).
func wordFontSize(box model.BoundingBox) int {
	return int(math.Round(box.Height * 0.75))
}

// classifyBlock walks a block's full paragraph/line/word tree, assigning
// content types to words, alignment to lines, text types to paragraphs,
// and an overall blockType to the block. pageWidth/pageHeight are the
// dimensions of the page the block was read from; every threshold below
// is expressed as a fraction of one or the other.
func classifyBlock(block *model.Block, pageWidth, pageHeight float64) {
	for pi := range block.Paragraphs {
		para := &block.Paragraphs[pi]
		for li := range para.Lines {
			line := &para.Lines[li]
			for wi := range line.Words {
				w := &line.Words[wi]
				w.ContentType = classifyWordContentType(w.Text)
				w.FontSize = wordFontSize(w.BoundingBox)
			}
			line.Alignment = classifyLineAlignment(line, pageWidth)
		}

		fontSize := int(math.Round(para.BoundingBox.Height * 0.75))
		para.TextType, para.HeadingLevel = classifyParagraph(para, fontSize, pageHeight)
	}

	block.BlockType = classifyBlockType(block.Paragraphs, pageHeight)
}

// classifyLineAlignment implements §4.4's line-alignment rules, checked
// in the order the spec lists them: center, then right, then justified,
// else left.
func classifyLineAlignment(line *model.Line, pageWidth float64) string {
	if pageWidth <= 0 {
		return "left"
	}

	leftMargin := line.BoundingBox.X0
	rightMargin := pageWidth - line.BoundingBox.X1
	centerX := (line.BoundingBox.X0 + line.BoundingBox.X1) / 2
	pageCenter := pageWidth / 2

	switch {
	case math.Abs(centerX-pageCenter) < pageWidth*0.10:
		return "center"
	case rightMargin < pageWidth*0.10 && leftMargin > pageWidth*0.20:
		return "right"
	case math.Abs(leftMargin-rightMargin) < pageWidth*0.05 && leftMargin < pageWidth*0.10 && rightMargin < pageWidth*0.10:
		return "justified"
	default:
		return "left"
	}
}

// listItemRE matches the spec's list-prefix pattern: a digit, dot,
// paren, dash, bullet, or asterisk followed by whitespace.
var listItemRE = regexp.MustCompile(`^[\d.)\-•*]\s`)

// classifyParagraph implements §4.4's six ordered paragraph rules.
// fontSize is the paragraph's own inferred font size (round(bbox.height
// * 0.75)); pageHeight is the page the paragraph was read from.
func classifyParagraph(para *model.Paragraph, fontSize int, pageHeight float64) (string, int) {
	text := strings.TrimSpace(para.Text)
	y0 := para.BoundingBox.Y0

	if pageHeight <= 0 {
		pageHeight = 1
	}
	yFrac := y0 / pageHeight

	switch {
	case yFrac < 0.10:
		if fontSize > 16 {
			return "heading", 1
		}
		return "heading", 2
	case yFrac > 0.90:
		return "footer", 0
	case fontSize > 24:
		return "heading", 1
	case fontSize > 20:
		return "heading", 2
	case fontSize > 16:
		return "heading", 3
	case listItemRE.MatchString(text):
		return "list", 0
	case len(text) < 100 && (yFrac < 0.15 || yFrac > 0.85):
		return "caption", 0
	default:
		return "body", 0
	}
}

// classifyBlockType implements §4.4's block-classification rule:
// header/footer win when every paragraph sits in the corresponding
// page band, otherwise the presence of a heading or list paragraph
// decides, else plain text. Tables are classified separately by
// markTableBlocks once DetectTables has run.
func classifyBlockType(paragraphs []model.Paragraph, pageHeight float64) string {
	if len(paragraphs) == 0 {
		return "text"
	}
	if pageHeight <= 0 {
		pageHeight = 1
	}

	allHeader := true
	allFooter := true
	anyHeading := false
	anyList := false

	for i := range paragraphs {
		yFrac := paragraphs[i].BoundingBox.Y0 / pageHeight
		if yFrac >= 0.10 {
			allHeader = false
		}
		if yFrac <= 0.90 {
			allFooter = false
		}
		switch paragraphs[i].TextType {
		case "heading":
			anyHeading = true
		case "list":
			anyList = true
		}
	}

	switch {
	case allHeader:
		return "header"
	case allFooter:
		return "footer"
	case anyHeading:
		return "heading"
	case anyList:
		return "list"
	default:
		return "text"
	}
}
