/**
 * Smart fields: strongly-typed, named values extracted via dedicated
 * regexes, per the Glossary's smart-field definitions (invoice number,
 * PO number, total, date, etc).
 */

package enricher

import (
	"regexp"
	"strings"

	"github.com/adverant/ocrservice/internal/model"
)

type smartFieldPattern struct {
	name string
	re   *regexp.Regexp
}

// smartFieldPatterns is ordered; each name keeps only its first match,
// so a document with multiple candidate lines keeps the one that appears
// earliest in the text.
var smartFieldPatterns = []smartFieldPattern{
	{"invoiceNumber", regexp.MustCompile(`(?i)invoice\s*(?:#|no\.?|number)?\s*[:#]?\s*([A-Z0-9\-/]{3,25})`)},
	{"poNumber", regexp.MustCompile(`(?i)\b(?:p\.?o\.?|purchase\s+order)\s*(?:#|no\.?|number)?\s*[:#]?\s*([A-Z0-9\-/]{3,25})`)},
	{"total", regexp.MustCompile(`(?i)\b(?:total|amount\s+due|grand\s+total)\b\s*[:#]?\s*[$€£¥]?\s*(-?[\d,]+\.\d{2})`)},
	{"subtotal", regexp.MustCompile(`(?i)\bsub\s*-?\s*total\b\s*[:#]?\s*[$€£¥]?\s*(-?[\d,]+\.\d{2})`)},
	{"tax", regexp.MustCompile(`(?i)\b(?:tax|vat|sales\s+tax)\b\s*[:#]?\s*[$€£¥]?\s*(-?[\d,]+\.\d{2})`)},
	{"date", regexp.MustCompile(`(?i)\b(?:date|dated)\s*[:#]?\s*(\d{1,4}[/.\-]\d{1,2}[/.\-]\d{1,4})`)},
	{"dueDate", regexp.MustCompile(`(?i)\b(?:due\s+date|payment\s+due)\s*[:#]?\s*(\d{1,4}[/.\-]\d{1,2}[/.\-]\d{1,4})`)},
	{"customerName", regexp.MustCompile(`(?i)\b(?:bill\s+to|customer|client)\s*[:#]?\s*([A-Z][A-Za-z .,&'\-]{2,60})`)},
}

// kvSmartFieldKeywords maps a keyword that may appear in a key-value
// pair's key to the smart field name it should be surfaced under, per
// §4.4's "additionally, for every key-value pair whose key contains..."
// rule. Checked in order; the first match wins for a given pair.
var kvSmartFieldKeywords = []struct {
	keyword string
	name    string
}{
	{"email", "email"},
	{"phone", "phone"},
	{"tel", "phone"},
	{"address", "address"},
	{"bill to", "customerName"},
	{"customer", "customerName"},
	{"vendor", "vendorName"},
	{"from", "vendorName"},
}

// ExtractSmartFields scans the full document text (not per-line) so
// multi-word values spanning OCR line breaks can still be captured by
// the surrounding regex context, then layers on any key-value pair
// whose key names a recognized smart field.
func ExtractSmartFields(text string, kvPairs []model.KeyValuePair) []model.SmartField {
	var fields []model.SmartField
	seen := map[string]bool{}

	for _, p := range smartFieldPatterns {
		if seen[p.name] {
			continue
		}
		m := p.re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		value := strings.TrimSpace(m[1])
		if value == "" {
			continue
		}
		fields = append(fields, model.SmartField{
			Name:       p.name,
			Value:      value,
			Confidence: 0.75,
		})
		seen[p.name] = true
	}

	for _, kv := range kvPairs {
		key := strings.ToLower(kv.Key)
		for _, kw := range kvSmartFieldKeywords {
			if !strings.Contains(key, kw.keyword) {
				continue
			}
			if seen[kw.name] {
				break
			}
			fields = append(fields, model.SmartField{
				Name:       kw.name,
				Value:      kv.Value,
				Confidence: kv.Confidence,
			})
			seen[kw.name] = true
			break
		}
	}

	return fields
}
