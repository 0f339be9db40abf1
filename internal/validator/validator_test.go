package validator

import (
	"encoding/base64"
	"strings"
	"testing"
)

// tinyPNG is a 1x1 opaque black PNG, used to exercise the image path
// without shipping a binary fixture.
const tinyPNGBase64 = "iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAQAAAC1HAwCAAAAC0lEQVR42mNk+A8AAQUBAScY42YAAAAASUVORK5CYII="

func tinyPNG(t *testing.T) []byte {
	t.Helper()
	data, err := base64.StdEncoding.DecodeString(tinyPNGBase64)
	if err != nil {
		t.Fatalf("failed to decode fixture: %v", err)
	}
	return data
}

func TestValidateAcceptsWellFormedPNG(t *testing.T) {
	v := New()
	result, err := v.Validate("job-1", tinyPNG(t), "image/png")
	if err != nil {
		t.Fatalf("expected valid PNG to pass, got %v", err)
	}
	if result.DetectedMimeType != "image/png" {
		t.Errorf("expected detected type image/png, got %s", result.DetectedMimeType)
	}
}

func TestValidateNormalizesMimeAlias(t *testing.T) {
	for alias, canonical := range map[string]string{"image/jpg": "image/jpeg", "image/tif": "image/tiff"} {
		if got := normalizeMime(alias); got != canonical {
			t.Errorf("expected %s to normalize to %s, got %s", alias, canonical, got)
		}
	}

	v := New()
	if _, err := v.Validate("job-1", tinyPNG(t), "image/png"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateRejectsClaimedTypeMismatch(t *testing.T) {
	v := New()
	_, err := v.Validate("job-1", tinyPNG(t), "application/pdf")
	if err == nil {
		t.Fatal("expected a type-mismatch error")
	}
	if !strings.Contains(err.Error(), "CLAIMED_TYPE_MISMATCH") {
		t.Errorf("expected CLAIMED_TYPE_MISMATCH error code, got %v", err)
	}
}

func TestValidateRejectsOversizedFile(t *testing.T) {
	v := New()
	oversized := make([]byte, MaxUploadBytes+1)
	_, err := v.Validate("job-1", oversized, "image/png")
	if err == nil {
		t.Fatal("expected oversized file to be rejected")
	}
}

func TestValidateRejectsEmptyFile(t *testing.T) {
	v := New()
	if _, err := v.Validate("job-1", nil, "image/png"); err == nil {
		t.Fatal("expected empty file to be rejected")
	}
}

func TestValidateRejectsUnsupportedType(t *testing.T) {
	v := New()
	textFile := []byte("plain text content, not a supported document type")
	if _, err := v.Validate("job-1", textFile, "text/plain"); err == nil {
		t.Fatal("expected unsupported type to be rejected")
	}
}
