package enricher

import "testing"

func TestExtractSmartFieldsInvoiceAndTotal(t *testing.T) {
	text := "Invoice #: INV-2024-001\nTotal: $1,234.56\nTax: $98.76"

	fields := ExtractSmartFields(text, nil)

	byName := map[string]string{}
	for _, f := range fields {
		byName[f.Name] = f.Value
	}

	if byName["invoiceNumber"] != "INV-2024-001" {
		t.Errorf("expected invoiceNumber INV-2024-001, got %q", byName["invoiceNumber"])
	}
	if byName["total"] != "1,234.56" {
		t.Errorf("expected total 1,234.56, got %q", byName["total"])
	}
	if byName["tax"] != "98.76" {
		t.Errorf("expected tax 98.76, got %q", byName["tax"])
	}
}

func TestExtractSmartFieldsKeepsFirstMatchOnly(t *testing.T) {
	text := "Total: $10.00\nGrand Total: $20.00"

	fields := ExtractSmartFields(text, nil)

	count := 0
	var value string
	for _, f := range fields {
		if f.Name == "total" {
			count++
			value = f.Value
		}
	}
	if count != 1 {
		t.Fatalf("expected exactly one total field, got %d", count)
	}
	if value != "10.00" {
		t.Errorf("expected first match 10.00 to win, got %q", value)
	}
}
