/**
 * PDF page handling.
 *
 * Two paths, per spec §4.5:
 *   - text PDFs extract their embedded text directly (fast path, no
 *     OCR engine call at all);
 *   - image PDFs are rasterized page-by-page at 300 DPI via poppler's
 *     pdftoppm and each page is OCR'd independently, bounded by a
 *     worker pool sized PDFPageConcurrency so a 500-page PDF cannot
 *     spawn 500 concurrent rasterizer processes.
 */

package ocr

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/adverant/ocrservice/internal/model"
)

// textPageMinChars is the threshold below which a page is treated as
// image-only and routed to rasterization + OCR instead of direct text
// extraction.
const textPageMinChars = 40

// PDFProcessor handles both text and image PDF pages.
type PDFProcessor struct {
	engine         Engine
	pageConcurrency int
}

// NewPDFProcessor creates a PDFProcessor bounded to pageConcurrency
// simultaneous rasterize+OCR operations.
func NewPDFProcessor(engine Engine, pageConcurrency int) *PDFProcessor {
	if pageConcurrency < 1 {
		pageConcurrency = 4
	}
	return &PDFProcessor{engine: engine, pageConcurrency: pageConcurrency}
}

// Process walks every page of the PDF, taking the text fast path where
// possible and falling back to rasterize+OCR otherwise, and returns one
// Block per page in page order.
func (p *PDFProcessor) Process(ctx context.Context, data []byte) ([]model.Block, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("opening PDF: %w", err)
	}

	numPages := reader.NumPage()
	blocks := make([]model.Block, numPages)
	errs := make([]error, numPages)

	sem := make(chan struct{}, p.pageConcurrency)
	done := make(chan int, numPages)

	var tmpFile string
	if hasImagePages(reader, numPages) {
		f, err := writeTempPDF(data)
		if err != nil {
			return nil, err
		}
		tmpFile = f
		defer os.Remove(tmpFile)
	}

	for i := 1; i <= numPages; i++ {
		go func(pageNum int) {
			sem <- struct{}{}
			defer func() { <-sem; done <- pageNum }()

			block, err := p.processPage(ctx, reader, tmpFile, pageNum)
			if err != nil {
				errs[pageNum-1] = fmt.Errorf("page %d: %w", pageNum, err)
				return
			}
			blocks[pageNum-1] = *block
		}(i)
	}

	for i := 0; i < numPages; i++ {
		select {
		case <-done:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	for _, e := range errs {
		if e != nil {
			return nil, e
		}
	}

	return blocks, nil
}

func (p *PDFProcessor) processPage(ctx context.Context, reader *pdf.Reader, tmpFile string, pageNum int) (*model.Block, error) {
	page := reader.Page(pageNum)
	if page.V.IsNull() {
		return &model.Block{Page: pageNum}, nil
	}

	pageWidth, pageHeight := mediaBoxDimensions(page)

	text, _ := page.GetPlainText(nil)
	if len(strings.TrimSpace(text)) >= textPageMinChars {
		paragraphs := approximateTextParagraphs(text, pageWidth, pageHeight)
		return &model.Block{
			Text:        text,
			Confidence:  1.0,
			Page:        pageNum,
			PageWidth:   pageWidth,
			PageHeight:  pageHeight,
			Paragraphs:  paragraphs,
			BoundingBox: model.BoundingBox{X0: 0, Y0: 0, X1: pageWidth, Y1: pageHeight, Width: pageWidth, Height: pageHeight},
		}, nil
	}

	if tmpFile == "" {
		// No rasterizable content and too little text: an effectively
		// blank page.
		return &model.Block{Page: pageNum, PageWidth: pageWidth, PageHeight: pageHeight}, nil
	}

	img, err := rasterizePage(ctx, tmpFile, pageNum)
	if err != nil {
		return nil, fmt.Errorf("rasterizing: %w", err)
	}

	return p.engine.Process(ctx, img, pageNum)
}

// defaultPageWidth/defaultPageHeight are US Letter dimensions at 72
// DPI (the PDF user-space default), used as the page extent for the
// text-extraction fast path. ledongthuc/pdf does not expose a page's
// MediaBox through a typed accessor, and walking its untyped Value
// tree for an inherited attribute is more failure-prone than assuming
// the overwhelmingly common page size — the Enricher only needs a
// stable extent to compute page-relative fractions against, not the
// document's literal paper size.
const (
	defaultPageWidth  = 612.0
	defaultPageHeight = 792.0
)

// mediaBoxDimensions returns the page extent used for the Enricher's
// page-relative thresholds. See defaultPageWidth's doc comment for why
// this doesn't attempt to read the PDF's actual MediaBox.
func mediaBoxDimensions(page pdf.Page) (float64, float64) {
	return defaultPageWidth, defaultPageHeight
}

// approximateTextParagraphs synthesizes a block's paragraph/line tree
// from extracted PDF text for the text-fast-path (§4.5): bounding boxes
// are approximate, built from sequential y-offsets down the page rather
// than true glyph positions, since no recognition occurred.
func approximateTextParagraphs(text string, pageWidth, pageHeight float64) []model.Paragraph {
	chunks := strings.Split(text, "\n\n")
	var nonEmpty []string
	for _, c := range chunks {
		if strings.TrimSpace(c) != "" {
			nonEmpty = append(nonEmpty, c)
		}
	}
	if len(nonEmpty) == 0 {
		return nil
	}

	paras := make([]model.Paragraph, 0, len(nonEmpty))
	for i, chunk := range nonEmpty {
		y0 := pageHeight * float64(i) / float64(len(nonEmpty))
		y1 := pageHeight * float64(i+1) / float64(len(nonEmpty))
		box := model.BoundingBox{
			X0: pageWidth * 0.1, Y0: y0,
			X1: pageWidth * 0.9, Y1: y1,
			Width: pageWidth * 0.8, Height: y1 - y0,
		}
		paras = append(paras, model.Paragraph{
			Lines:       approximateLines(chunk, box),
			Text:        strings.TrimSpace(chunk),
			Confidence:  1.0,
			BoundingBox: box,
		})
	}
	return paras
}

// approximateLines divides a paragraph's bounding box evenly among its
// non-blank text lines.
func approximateLines(chunk string, box model.BoundingBox) []model.Line {
	var raw []string
	for _, l := range strings.Split(chunk, "\n") {
		if strings.TrimSpace(l) != "" {
			raw = append(raw, l)
		}
	}
	if len(raw) == 0 {
		return nil
	}

	lineHeight := box.Height / float64(len(raw))
	lines := make([]model.Line, 0, len(raw))
	for i, lt := range raw {
		y0 := box.Y0 + lineHeight*float64(i)
		y1 := y0 + lineHeight
		lines = append(lines, model.Line{
			Text:       strings.TrimSpace(lt),
			Confidence: 1.0,
			BoundingBox: model.BoundingBox{
				X0: box.X0, Y0: y0, X1: box.X1, Y1: y1,
				Width: box.Width, Height: lineHeight,
			},
		})
	}
	return lines
}

// hasImagePages is a quick pre-check so purely text-native PDFs never
// shell out to pdftoppm at all.
func hasImagePages(reader *pdf.Reader, numPages int) bool {
	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, _ := page.GetPlainText(nil)
		if len(strings.TrimSpace(text)) < textPageMinChars {
			return true
		}
	}
	return false
}

func writeTempPDF(data []byte) (string, error) {
	f, err := os.CreateTemp("", "ocr-*.pdf")
	if err != nil {
		return "", fmt.Errorf("creating temp PDF: %w", err)
	}
	defer f.Close()
	if _, err := f.Write(data); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("writing temp PDF: %w", err)
	}
	return f.Name(), nil
}

// rasterizePage shells out to poppler's pdftoppm at 300 DPI, the
// resolution spec §4.5 specifies for the image-PDF path.
func rasterizePage(ctx context.Context, pdfPath string, pageNum int) ([]byte, error) {
	outDir, err := os.MkdirTemp("", "ocr-page-*")
	if err != nil {
		return nil, fmt.Errorf("creating raster dir: %w", err)
	}
	defer os.RemoveAll(outDir)

	outPrefix := filepath.Join(outDir, "page")
	cmd := exec.CommandContext(ctx, "pdftoppm",
		"-r", "300",
		"-f", fmt.Sprintf("%d", pageNum),
		"-l", fmt.Sprintf("%d", pageNum),
		"-png",
		"-singlefile",
		pdfPath, outPrefix,
	)
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("pdftoppm failed: %w", err)
	}

	data, err := os.ReadFile(outPrefix + ".png")
	if err != nil {
		return nil, fmt.Errorf("reading rasterized page: %w", err)
	}
	return data, nil
}
