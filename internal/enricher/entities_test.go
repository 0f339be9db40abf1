package enricher

import (
	"testing"

	"github.com/adverant/ocrservice/internal/model"
)

func allNotableData(d model.NotableData) []model.NotableDatum {
	var all []model.NotableDatum
	all = append(all, d.Entities...)
	all = append(all, d.CurrencyAmounts...)
	all = append(all, d.Dates...)
	all = append(all, d.Identifiers...)
	return all
}

// TestExtractNotableDataBTWBeforeIBAN locks in the ordering invariant
// documented in entities.go: a Dutch BTW number must be classified as
// "btw", not swallowed by the more permissive IBAN pattern.
func TestExtractNotableDataBTWBeforeIBAN(t *testing.T) {
	text := "BTW number: NL123456789B01"

	data := ExtractNotableData(text)
	entities := allNotableData(data)

	var sawBTW bool
	for _, e := range entities {
		if e.Type == "iban" && e.Value == "NL123456789B01" {
			t.Fatalf("BTW value %q was misclassified as iban", e.Value)
		}
		if e.Type == "btw" {
			sawBTW = true
		}
	}
	if !sawBTW {
		t.Fatalf("expected a btw entity, got %+v", entities)
	}
	if len(data.Identifiers) == 0 {
		t.Fatalf("expected btw to land in the identifiers bucket, got %+v", data)
	}
}

func TestExtractNotableDataMasksCreditCard(t *testing.T) {
	text := "Card on file: 4111 1111 1111 1111"

	data := ExtractNotableData(text)

	var found bool
	for _, e := range data.Identifiers {
		if e.Type != "creditCard" {
			continue
		}
		found = true
		if e.DisplayValue == e.Value {
			t.Errorf("expected masked display value, got raw value %q", e.DisplayValue)
		}
		if e.DisplayValue != "****-****-****-1111" {
			t.Errorf("expected grouped mask ****-****-****-1111, got %q", e.DisplayValue)
		}
	}
	if !found {
		t.Fatalf("expected a creditCard entity, got %+v", data.Identifiers)
	}
}

func TestExtractNotableDataRoutingNumberRequiresKeyword(t *testing.T) {
	withKeyword := ExtractNotableData("routing number 123456789 for deposits")
	withoutKeyword := ExtractNotableData("an unrelated 123456789 on the invoice")

	foundWith := false
	for _, e := range withKeyword.Identifiers {
		if e.Type == "routingNumber" {
			foundWith = true
		}
	}
	if !foundWith {
		t.Errorf("expected routingNumber entity when keyword is nearby")
	}

	for _, e := range withoutKeyword.Identifiers {
		if e.Type == "routingNumber" {
			t.Errorf("did not expect routingNumber entity without a nearby keyword, got %+v", e)
		}
	}
}

func TestExtractNotableDataGroupsCurrencyAmounts(t *testing.T) {
	data := ExtractNotableData("Total due: $1,250.00 (refund of $50.00 pending)")

	if len(data.CurrencyAmounts) == 0 {
		t.Fatalf("expected currency amounts to be extracted, got %+v", data)
	}
}
