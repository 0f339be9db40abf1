/**
 * DocumentProcessor runs the OCR + enrichment steps of a worker task:
 * route the file to the image engine or the PDF processor, enrich the
 * resulting block tree, and return a complete Result.
 *
 * Adapted from the original worker's DocumentProcessor: the 10-step
 * MageAgent/GraphRAG/VoyageAI pipeline is replaced with the spec's
 * opaque local OCR engine plus the Enricher, but the constructor-does-
 * validation-then-build shape and the ProcessorConfig/NewDocument
 * Processor naming are kept.
 */

package processor

import (
	"context"
	"fmt"
	"time"

	"github.com/adverant/ocrservice/internal/enricher"
	"github.com/adverant/ocrservice/internal/model"
	"github.com/adverant/ocrservice/internal/ocr"
)

// ProcessorConfig configures a DocumentProcessor.
type ProcessorConfig struct {
	Engine             ocr.Engine
	PDFPageConcurrency int
	Language           string
}

// DocumentProcessor implements scheduler.Processor.
type DocumentProcessor struct {
	engine   ocr.Engine
	pdf      *ocr.PDFProcessor
	enricher *enricher.Enricher
	language string
}

// NewDocumentProcessor builds a DocumentProcessor from cfg.
func NewDocumentProcessor(cfg *ProcessorConfig) (*DocumentProcessor, error) {
	if cfg.Engine == nil {
		return nil, fmt.Errorf("OCR engine is required")
	}

	language := cfg.Language
	if language == "" {
		language = "eng"
	}

	return &DocumentProcessor{
		engine:   cfg.Engine,
		pdf:      ocr.NewPDFProcessor(cfg.Engine, cfg.PDFPageConcurrency),
		enricher: enricher.New(),
		language: language,
	}, nil
}

// Process runs the full worker task pipeline for one job: OCR (routed
// by MIME type) followed by enrichment.
func (d *DocumentProcessor) Process(ctx context.Context, j *model.Job) (*model.Result, error) {
	start := time.Now()

	var blocks []model.Block
	var err error

	switch j.MimeType {
	case "application/pdf":
		blocks, err = d.pdf.Process(ctx, j.FileData)
	default:
		block, ocrErr := d.engine.Process(ctx, j.FileData, 1)
		err = ocrErr
		if block != nil {
			blocks = []model.Block{*block}
		}
	}
	if err != nil {
		return nil, fmt.Errorf("OCR failed for job %s: %w", j.ID, err)
	}

	result := &model.Result{
		Blocks: blocks,
		Metadata: model.Metadata{
			Language:  d.language,
			PageCount: len(blocks),
		},
	}

	d.enricher.Enrich(result)
	result.Metadata.AverageConfidence = result.Confidence
	result.Metadata.ProcessingMs = time.Since(start).Milliseconds()

	return result, nil
}
