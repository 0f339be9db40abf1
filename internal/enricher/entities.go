/**
 * Notable-data entity extraction.
 *
 * Order is load-bearing: the Dutch BTW (VAT) number pattern is matched
 * before IBAN, because a BTW number's digit run can otherwise be
 * swallowed by the more permissive IBAN pattern and misclassified.
 * Credit-card and SSN values are masked in DisplayValue but kept raw in
 * Value so downstream systems can still act on them when authorized;
 * routing numbers require a nearby keyword window since a bare 9-digit
 * run is otherwise indistinguishable from many other numeric IDs.
 */

package enricher

import (
	"regexp"
	"strings"

	"github.com/adverant/ocrservice/internal/model"
)

// bucket names which of NotableData's four slices an entity type feeds.
type bucket int

const (
	bucketEntity bucket = iota
	bucketCurrency
	bucketDate
	bucketIdentifier
)

type entityPattern struct {
	entityType      string
	bucket          bucket
	re              *regexp.Regexp
	requiresKeyword []string // if non-empty, a match only counts within keywordWindow chars of one of these (case-insensitive)
}

const keywordWindow = 20

var entityPatterns = []entityPattern{
	// BTW (Dutch VAT) must run before IBAN — see package doc comment.
	{"btw", bucketIdentifier, regexp.MustCompile(`\b[A-Z]{2}\d{9}B\d{2}\b`), nil},
	{"iban", bucketIdentifier, regexp.MustCompile(`\b[A-Z]{2}\d{2}[A-Z0-9]{11,30}\b`), nil},
	{"swift", bucketIdentifier, regexp.MustCompile(`\b[A-Z]{6}[A-Z0-9]{2}(?:[A-Z0-9]{3})?\b`), nil},
	{"ein", bucketIdentifier, regexp.MustCompile(`\b\d{2}-\d{7}\b`), nil},
	{"ssn", bucketIdentifier, regexp.MustCompile(`\b\d{3}-\d{2}-\d{4}\b`), nil},
	{"creditCard", bucketIdentifier, regexp.MustCompile(`\b(?:\d[ -]?){15,18}\d\b`), nil},
	// Routing numbers run before phone: a bare 9-digit run also fits the
	// phone pattern, and a keyword-qualified one must stay a routing number.
	{"routingNumber", bucketIdentifier, regexp.MustCompile(`\b\d{9}\b`), []string{"routing", "aba", "rtn"}},
	{"percentage", bucketEntity, regexp.MustCompile(`\b\d{1,3}(?:\.\d+)?\s?%`), nil},
	{"email", bucketEntity, regexp.MustCompile(`\b[\w.+-]+@[\w-]+\.[\w.-]+\b`), nil},
	{"phone", bucketEntity, regexp.MustCompile(`\b\+?\d{1,3}[-.\s]?\(?\d{2,4}\)?[-.\s]?\d{3,4}[-.\s]?\d{3,4}\b`), nil},
	{"url", bucketEntity, regexp.MustCompile(`\bhttps?://[^\s]+\b`), nil},
	{"ipv4", bucketEntity, regexp.MustCompile(`\b(?:\d{1,3}\.){3}\d{1,3}\b`), nil},

	// Currency amounts: five pattern families per §4.4 (symbol-before,
	// symbol-after, ISO code, currency name, parenthesized negative).
	{"currencySymbolBefore", bucketCurrency, regexp.MustCompile(`[$€£¥]\s?-?\d[\d,]*(?:\.\d{2})?`), nil},
	{"currencySymbolAfter", bucketCurrency, regexp.MustCompile(`\d[\d,]*(?:\.\d{2})?\s?[$€£¥]`), nil},
	{"currencyISOCode", bucketCurrency, regexp.MustCompile(`(?i)\b(?:USD|EUR|GBP|JPY|CAD|AUD|CHF)\s?\d[\d,]*(?:\.\d{2})?\b|\b\d[\d,]*(?:\.\d{2})?\s?(?:USD|EUR|GBP|JPY|CAD|AUD|CHF)\b`), nil},
	{"currencyName", bucketCurrency, regexp.MustCompile(`(?i)\d[\d,]*(?:\.\d{2})?\s?(?:dollars|euros|pounds|yen)\b`), nil},
	{"currencyParenthesizedNegative", bucketCurrency, regexp.MustCompile(`\(\s?[$€£¥]?\s?\d[\d,]*(?:\.\d{2})?\s?\)`), nil},

	{"date", bucketDate, regexp.MustCompile(`\b\d{1,4}[/.\-]\d{1,2}[/.\-]\d{1,4}\b`), nil},
	{"referenceNumber", bucketIdentifier, regexp.MustCompile(`(?i)\bref(?:erence)?\s*#?\s*:?\s*([A-Z0-9\-]{4,20})\b`), nil},
	{"serialNumber", bucketIdentifier, regexp.MustCompile(`(?i)\bs(?:erial)?\s*\.?\s*n(?:o|umber)?\.?\s*:?\s*([A-Z0-9\-]{4,20})\b`), nil},
}

// ExtractNotableData scans document text for the entity types named in
// the Glossary, in the fixed order above, and groups the hits into the
// four buckets the Result tree exposes (entities/currencyAmounts/
// dates/identifiers), collapsing duplicate type+value pairs.
func ExtractNotableData(text string) model.NotableData {
	var data model.NotableData
	consumed := make([]bool, len(text))
	seen := make(map[string]bool)

	for _, p := range entityPatterns {
		matches := p.re.FindAllStringIndex(text, -1)
		for _, loc := range matches {
			if rangeConsumed(consumed, loc[0], loc[1]) {
				continue
			}

			value := text[loc[0]:loc[1]]

			if len(p.requiresKeyword) > 0 && !hasNearbyKeyword(text, loc[0], loc[1], p.requiresKeyword) {
				continue
			}

			dedupeKey := p.entityType + "\x00" + value
			if seen[dedupeKey] {
				continue
			}
			seen[dedupeKey] = true

			entity := model.NotableDatum{
				Type:    p.entityType,
				Value:   value,
				Context: surroundingContext(text, loc[0], loc[1]),
			}

			switch p.entityType {
			case "creditCard":
				entity.DisplayValue = maskCreditCard(value)
			case "ssn":
				entity.DisplayValue = maskSSN(value)
			}

			switch p.bucket {
			case bucketCurrency:
				data.CurrencyAmounts = append(data.CurrencyAmounts, entity)
			case bucketDate:
				data.Dates = append(data.Dates, entity)
			case bucketIdentifier:
				data.Identifiers = append(data.Identifiers, entity)
			default:
				data.Entities = append(data.Entities, entity)
			}

			markConsumed(consumed, loc[0], loc[1])
		}
	}

	return data
}

func rangeConsumed(consumed []bool, start, end int) bool {
	for i := start; i < end && i < len(consumed); i++ {
		if consumed[i] {
			return true
		}
	}
	return false
}

func markConsumed(consumed []bool, start, end int) {
	for i := start; i < end && i < len(consumed); i++ {
		consumed[i] = true
	}
}

func surroundingContext(text string, start, end int) string {
	ctxStart := start - keywordWindow
	if ctxStart < 0 {
		ctxStart = 0
	}
	ctxEnd := end + keywordWindow
	if ctxEnd > len(text) {
		ctxEnd = len(text)
	}
	return strings.TrimSpace(text[ctxStart:ctxEnd])
}

func hasNearbyKeyword(text string, start, end int, keywords []string) bool {
	ctx := strings.ToLower(surroundingContext(text, start, end))
	for _, kw := range keywords {
		if strings.Contains(ctx, kw) {
			return true
		}
	}
	return false
}

// maskCreditCard keeps only the last four digits visible, grouped into
// dash-separated blocks of four asterisks (e.g. "****-****-****-1111"),
// per standard PCI display conventions.
func maskCreditCard(raw string) string {
	digits := onlyDigits(raw)
	if len(digits) < 4 {
		return strings.Repeat("*", len(digits))
	}

	last4 := digits[len(digits)-4:]
	masked := len(digits) - 4

	var groups []string
	for masked > 0 {
		n := 4
		if masked < n {
			n = masked
		}
		groups = append(groups, strings.Repeat("*", n))
		masked -= n
	}
	groups = append(groups, last4)

	return strings.Join(groups, "-")
}

// maskSSN shows only the last four digits, masking the area/group
// numbers.
func maskSSN(raw string) string {
	digits := onlyDigits(raw)
	if len(digits) != 9 {
		return strings.Repeat("*", len(digits))
	}
	return "***-**-" + digits[5:]
}

func onlyDigits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
