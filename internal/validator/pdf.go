package validator

import (
	"bytes"
	"fmt"

	"github.com/ledongthuc/pdf"
)

// pdfInfo is the structural summary produced by inspectPDF.
type pdfInfo struct {
	Encrypted           bool
	PageCount           int
	HasActiveContent    bool
	ActiveContentTokens []string
}

// activeContentTokens are raw PDF object tokens that indicate embedded
// scripting or auto-run actions. Their presence is logged, not fatal,
// per spec §4.1 — PDF scripting is common in legitimate forms.
var activeContentTokens = [][]byte{
	[]byte("/JavaScript"),
	[]byte("/JS"),
	[]byte("/OpenAction"),
	[]byte("/AA"),
}

func inspectPDF(data []byte) (*pdfInfo, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		if isEncryptedErr(err) {
			return &pdfInfo{Encrypted: true}, nil
		}
		return nil, fmt.Errorf("parsing PDF: %w", err)
	}

	info := &pdfInfo{
		PageCount: reader.NumPage(),
	}

	for _, tok := range activeContentTokens {
		if bytes.Contains(data, tok) {
			info.HasActiveContent = true
			info.ActiveContentTokens = append(info.ActiveContentTokens, string(tok))
		}
	}

	return info, nil
}

func isEncryptedErr(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return bytes.Contains([]byte(msg), []byte("encrypt")) || bytes.Contains([]byte(msg), []byte("password"))
}
