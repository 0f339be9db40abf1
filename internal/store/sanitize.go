package store

import "regexp"

// sanitizeJSONForPostgres strips Unicode escape sequences that
// PostgreSQL's JSONB type rejects outright ( ) or that otherwise
// cause ingestion problems (other C0 control characters, whose escapes
// are replaced with a space rather than removed), adapted from the
// document-DNA storage path of the original worker.
func sanitizeJSONForPostgres(jsonBytes []byte) []byte {
	nullPattern := regexp.MustCompile(`\\u0000`)
	result := nullPattern.ReplaceAll(jsonBytes, []byte{})

	controlPattern := regexp.MustCompile(`\\u00[01][0-9a-fA-F]`)
	result = controlPattern.ReplaceAll(result, []byte(" "))

	return result
}
