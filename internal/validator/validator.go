/**
 * Validator for the OCR service.
 *
 * Runs before a Job is queued and again, narrowly, before a worker
 * begins OCR (re-validation). Rejects oversized files, mismatched or
 * disallowed MIME types, decompression-bomb images, and encrypted or
 * oversized PDFs. Magic-number detection runs gabriel-vasile/mimetype
 * over the complete in-memory file content.
 */

package validator

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/disintegration/imaging"
	"github.com/gabriel-vasile/mimetype"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	apperrors "github.com/adverant/ocrservice/internal/errors"
	"github.com/adverant/ocrservice/internal/logging"
)

const (
	// MaxUploadBytes is the hard ceiling on accepted file size.
	MaxUploadBytes = 50 * 1024 * 1024 // 50 MiB

	// MaxImagePixels guards against decompression-bomb images.
	MaxImagePixels = 178956970

	// MaxImageDimension bounds width and height independently.
	MaxImageDimension = 50000

	// MinPDFPages and MaxPDFPages bound accepted PDF page counts.
	MinPDFPages = 1
	MaxPDFPages = 500
)

// AllowedMimeTypes is the allow-list of document types the service accepts.
var AllowedMimeTypes = map[string]bool{
	"application/pdf": true,
	"image/png":       true,
	"image/jpeg":      true,
	"image/tiff":      true,
	"image/bmp":       true,
	"image/webp":      true,
}

// normalizeMime maps informal/legacy MIME strings onto their canonical
// IANA form so claim/detect comparisons aren't defeated by spelling.
var mimeAliases = map[string]string{
	"image/jpg": "image/jpeg",
	"image/tif": "image/tiff",
}

func normalizeMime(m string) string {
	if canon, ok := mimeAliases[m]; ok {
		return canon
	}
	return m
}

// Validator inspects uploaded file content before it is admitted to the
// queue, and again narrowly before a worker processes it.
type Validator struct {
	log *logging.Logger
}

// New creates a Validator.
func New() *Validator {
	return &Validator{log: logging.NewLogger("validator")}
}

// Result carries the outcome of validating a single file.
type Result struct {
	DetectedMimeType string
	PageCount        int // 0 for non-paginated formats
	Warnings         []string
}

// Validate runs the full size/type/structure gate described in spec §4.1.
// claimedMimeType is the type the uploader asserted (e.g. the multipart
// Content-Type); data is the complete file content.
func (v *Validator) Validate(jobID string, data []byte, claimedMimeType string) (*Result, error) {
	if int64(len(data)) > MaxUploadBytes {
		return nil, apperrors.NewFileTooLargeError(jobID, int64(len(data)), MaxUploadBytes)
	}

	if len(data) == 0 {
		return nil, apperrors.NewValidationError("empty file", nil)
	}

	detected := mimetype.Detect(data).String()
	detectedBase := stripParams(detected)
	claimedBase := normalizeMime(stripParams(claimedMimeType))

	if !AllowedMimeTypes[detectedBase] {
		return nil, apperrors.NewUnsupportedTypeError(jobID, detectedBase)
	}

	if claimedBase != "" && normalizeMime(claimedBase) != detectedBase {
		return nil, apperrors.NewTypeMismatchError(jobID, claimedBase, detectedBase)
	}

	result := &Result{DetectedMimeType: detectedBase}

	switch detectedBase {
	case "application/pdf":
		if err := v.validatePDF(jobID, data, result); err != nil {
			return nil, err
		}
	case "image/png", "image/jpeg", "image/tiff", "image/bmp", "image/webp":
		if err := v.validateImage(jobID, data); err != nil {
			return nil, err
		}
	}

	return result, nil
}

func stripParams(mimeType string) string {
	for i, c := range mimeType {
		if c == ';' {
			return mimeType[:i]
		}
	}
	return mimeType
}

// validateImage decodes just the image config (not the full raster) to
// check declared dimensions against the decompression-bomb thresholds,
// then performs a bounded trial decode to catch images that lie about
// their header dimensions.
func (v *Validator) validateImage(jobID string, data []byte) error {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return apperrors.NewValidationError(fmt.Sprintf("unreadable image: %v", err), nil)
	}

	if cfg.Width > MaxImageDimension || cfg.Height > MaxImageDimension {
		return apperrors.NewDecompressionBombError(jobID, int64(cfg.Width)*int64(cfg.Height), MaxImagePixels)
	}

	pixels := int64(cfg.Width) * int64(cfg.Height)
	if pixels > MaxImagePixels {
		return apperrors.NewDecompressionBombError(jobID, pixels, MaxImagePixels)
	}

	// Trial decode + thumbnail transform: catches crafted headers that
	// under-report dimensions by actually walking the full pixel data
	// once (via imaging, which also handles TIFF/BMP/WebP that the
	// stdlib image package does not register by default) and forcing a
	// resample pass rather than trusting the decode alone.
	decoded, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return apperrors.NewValidationError(fmt.Sprintf("image failed trial decode: %v", err), nil)
	}
	_ = imaging.Thumbnail(decoded, 256, 256, imaging.Lanczos)

	return nil
}

// validatePDF inspects PDF structure: rejects encrypted documents,
// enforces the page-count bounds, and scans (non-fatally) for active
// content tokens.
func (v *Validator) validatePDF(jobID string, data []byte, result *Result) error {
	info, err := inspectPDF(data)
	if err != nil {
		return apperrors.NewValidationError(fmt.Sprintf("unreadable PDF: %v", err), nil)
	}

	if info.Encrypted {
		return apperrors.NewEncryptedDocumentError(jobID)
	}

	if info.PageCount < MinPDFPages || info.PageCount > MaxPDFPages {
		return apperrors.NewPageLimitExceededError(jobID, info.PageCount, MaxPDFPages)
	}

	result.PageCount = info.PageCount

	if info.HasActiveContent {
		v.log.Warn("PDF contains active-content tokens", "job_id", jobID, "tokens", info.ActiveContentTokens)
		result.Warnings = append(result.Warnings, "pdf_active_content_detected")
	}

	return nil
}
