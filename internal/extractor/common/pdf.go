// Package common holds the shared text-extraction and parsing helpers used by
// the bill extractors.
package common

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dslipak/pdf"
)

// ExtractRowsFromPDF opens a PDF file and returns its text rows.
func ExtractRowsFromPDF(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return ExtractRowsFromPDFReader(file)
}

// ExtractRowsFromPDFReader returns the text rows of a PDF, page by page, each
// row's fragments joined with single spaces. Pages that fail text extraction
// are skipped; scanned-image bills simply yield no rows for those pages.
func ExtractRowsFromPDFReader(reader io.Reader) ([]string, error) {
	buf := new(bytes.Buffer)
	if _, err := buf.ReadFrom(reader); err != nil {
		return nil, fmt.Errorf("pdf rows: read: %w", err)
	}
	data := buf.Bytes()

	doc, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("pdf rows: open: %w", err)
	}

	var out []string
	for no := 1; no <= doc.NumPage(); no++ {
		rows, err := doc.Page(no).GetTextByRow()
		if err != nil {
			continue
		}
		for _, row := range rows {
			var builder strings.Builder
			for i, text := range row.Content {
				builder.WriteString(text.S)
				if i < len(row.Content)-1 {
					builder.WriteByte(' ')
				}
			}
			if builder.Len() > 0 {
				out = append(out, builder.String())
			}
		}
	}
	return out, nil
}
