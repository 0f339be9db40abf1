/**
 * Tesseract OCR engine.
 *
 * Adapted from the original worker's Tesseract wrapper: where that
 * version returned a single flat confidence figure and an empty word
 * list ("word-level extraction requires HOCR parsing"), this one
 * actually asks gosseract for HOCR output and walks its bounding-box
 * annotations into the word/line/paragraph/block tree the Enricher
 * expects.
 */

package ocr

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/otiai10/gosseract/v2"

	"github.com/adverant/ocrservice/internal/model"
)

// Engine is the OCR capability the Worker calls; a single opaque
// implementation is swapped in, never a cascade of paid cloud tiers.
type Engine interface {
	Process(ctx context.Context, pageImage []byte, pageNumber int) (*model.Block, error)
}

// TesseractEngine implements Engine using the local Tesseract binary.
type TesseractEngine struct {
	languages string
}

// NewTesseractEngine creates a Tesseract-backed OCR engine.
func NewTesseractEngine(languages string) *TesseractEngine {
	if languages == "" {
		languages = "eng"
	}
	return &TesseractEngine{languages: languages}
}

// Process runs OCR over a single rendered page image and returns one
// Block covering that page, fully populated down to word-level bounding
// boxes.
func (t *TesseractEngine) Process(ctx context.Context, pageImage []byte, pageNumber int) (*model.Block, error) {
	client := gosseract.NewClient()
	defer client.Close()

	client.SetLanguage(strings.Split(t.languages, "+")...)

	if err := client.SetImageFromBytes(pageImage); err != nil {
		return nil, fmt.Errorf("setting image: %w", err)
	}

	hocr, err := client.HOCRText()
	if err != nil {
		return nil, fmt.Errorf("tesseract HOCR extraction failed: %w", err)
	}

	block := parseHOCR(hocr, pageNumber)
	return block, nil
}

// hocrWordRE extracts the bbox, confidence, and text of each ocrx_word
// span from Tesseract's HOCR output. HOCR is simple enough to walk with
// a couple of targeted regexes rather than pulling in a full HTML/XML
// parser for one document shape.
var (
	hocrWordRE = regexp.MustCompile(`(?s)<span class='ocrx_word'[^>]*title='bbox (\d+) (\d+) (\d+) (\d+);\s*x_wconf (\d+)'[^>]*>(.*?)</span>`)
	hocrLineRE = regexp.MustCompile(`(?s)<span class='ocr_line'[^>]*title='bbox (\d+) (\d+) (\d+) (\d+)[^']*'`)
	hocrTagRE  = regexp.MustCompile(`<[^>]+>`)

	// hocrPageRE pulls the page's own bbox off the enclosing ocr_page
	// div — this is the full page extent, not just the content union,
	// and is what the Enricher's page-relative thresholds need.
	hocrPageRE = regexp.MustCompile(`(?s)<div class='ocr_page'[^>]*title='[^']*bbox (\d+) (\d+) (\d+) (\d+)`)
)

func parseHOCR(hocr string, pageNumber int) *model.Block {
	words := hocrWordRE.FindAllStringSubmatch(hocr, -1)

	var allWords []model.Word
	for _, m := range words {
		x0, _ := strconv.ParseFloat(m[1], 64)
		y0, _ := strconv.ParseFloat(m[2], 64)
		x1, _ := strconv.ParseFloat(m[3], 64)
		y1, _ := strconv.ParseFloat(m[4], 64)
		conf, _ := strconv.ParseFloat(m[5], 64)
		text := strings.TrimSpace(hocrTagRE.ReplaceAllString(m[6], ""))
		if text == "" {
			continue
		}

		allWords = append(allWords, model.Word{
			Text:       text,
			Confidence: conf / 100.0,
			BoundingBox: model.BoundingBox{
				X0: x0, Y0: y0, X1: x1, Y1: y1,
				Width: x1 - x0, Height: y1 - y0,
			},
		})
	}

	// Group words into lines by vertical proximity: Tesseract emits
	// words within a single <span class='ocr_line'> contiguously, so a
	// word whose top edge lies more than 0.6 times the previous word's
	// height below the previous word's top edge starts a new line.
	lines := groupWordsIntoLines(allWords)

	paragraph := model.Paragraph{Lines: lines}
	var textParts []string
	var confSum float64
	var confCount int
	for _, line := range lines {
		textParts = append(textParts, line.Text)
		confSum += line.Confidence
		confCount++
	}
	paragraph.Text = strings.Join(textParts, "\n")
	if confCount > 0 {
		paragraph.Confidence = confSum / float64(confCount)
	}
	paragraph.BoundingBox = unionBoxes(lines)

	pageWidth, pageHeight := pageDimensionsFromHOCR(hocr, paragraph.BoundingBox)

	block := &model.Block{
		Paragraphs:  []model.Paragraph{paragraph},
		Text:        paragraph.Text,
		Confidence:  paragraph.Confidence,
		BoundingBox: paragraph.BoundingBox,
		Page:        pageNumber,
		PageWidth:   pageWidth,
		PageHeight:  pageHeight,
	}

	return block
}

// pageDimensionsFromHOCR reads the ocr_page div's own bbox, falling
// back to the content union's extent if Tesseract omitted it (e.g. a
// blank page with no ocr_page element at all).
func pageDimensionsFromHOCR(hocr string, contentBox model.BoundingBox) (float64, float64) {
	m := hocrPageRE.FindStringSubmatch(hocr)
	if m == nil {
		return contentBox.X1, contentBox.Y1
	}
	x1, _ := strconv.ParseFloat(m[3], 64)
	y1, _ := strconv.ParseFloat(m[4], 64)
	if x1 <= 0 || y1 <= 0 {
		return contentBox.X1, contentBox.Y1
	}
	return x1, y1
}

func groupWordsIntoLines(words []model.Word) []model.Line {
	if len(words) == 0 {
		return nil
	}

	var lines []model.Line
	var current []model.Word
	lastY := words[0].BoundingBox.Y0

	flush := func() {
		if len(current) == 0 {
			return
		}
		lines = append(lines, buildLine(current))
		current = nil
	}

	for _, w := range words {
		if len(current) > 0 {
			height := current[len(current)-1].BoundingBox.Height
			if height <= 0 {
				height = 20
			}
			if w.BoundingBox.Y0-lastY > height*0.6 {
				flush()
			}
		}
		current = append(current, w)
		lastY = w.BoundingBox.Y0
	}
	flush()

	return lines
}

func buildLine(words []model.Word) model.Line {
	var textParts []string
	var confSum float64
	minX0, minY0 := words[0].BoundingBox.X0, words[0].BoundingBox.Y0
	maxX1, maxY1 := words[0].BoundingBox.X1, words[0].BoundingBox.Y1

	for _, w := range words {
		textParts = append(textParts, w.Text)
		confSum += w.Confidence
		if w.BoundingBox.X0 < minX0 {
			minX0 = w.BoundingBox.X0
		}
		if w.BoundingBox.Y0 < minY0 {
			minY0 = w.BoundingBox.Y0
		}
		if w.BoundingBox.X1 > maxX1 {
			maxX1 = w.BoundingBox.X1
		}
		if w.BoundingBox.Y1 > maxY1 {
			maxY1 = w.BoundingBox.Y1
		}
	}

	return model.Line{
		Words:      words,
		Text:       strings.Join(textParts, " "),
		Confidence: confSum / float64(len(words)),
		BoundingBox: model.BoundingBox{
			X0: minX0, Y0: minY0, X1: maxX1, Y1: maxY1,
			Width: maxX1 - minX0, Height: maxY1 - minY0,
		},
	}
}

func unionBoxes(lines []model.Line) model.BoundingBox {
	if len(lines) == 0 {
		return model.BoundingBox{}
	}
	box := lines[0].BoundingBox
	for _, l := range lines[1:] {
		if l.BoundingBox.X0 < box.X0 {
			box.X0 = l.BoundingBox.X0
		}
		if l.BoundingBox.Y0 < box.Y0 {
			box.Y0 = l.BoundingBox.Y0
		}
		if l.BoundingBox.X1 > box.X1 {
			box.X1 = l.BoundingBox.X1
		}
		if l.BoundingBox.Y1 > box.Y1 {
			box.Y1 = l.BoundingBox.Y1
		}
	}
	box.Width = box.X1 - box.X0
	box.Height = box.Y1 - box.Y0
	return box
}

// confidenceFromDuration derives a small baseline confidence from how
// long the engine spent: 0.3 under 200ms, 0.5 otherwise. Nothing in this
// package calls it; a page whose HOCR holds no words gets a block with
// zero confidence from parseHOCR.
func confidenceFromDuration(d time.Duration) float64 {
	if d < 200*time.Millisecond {
		return 0.3
	}
	return 0.5
}
