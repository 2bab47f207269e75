package render

import (
	"bytes"
	"encoding/csv"
	"fmt"
)

func renderCSV(doc *document) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	records := [][]string{
		{doc.Title},
		{fmt.Sprintf("%s - generated %s", doc.TypeLabel, doc.GeneratedAt.UTC().Format("Jan 2, 2006 15:04 MST"))},
		{},
	}

	for _, item := range doc.Summary {
		records = append(records, []string{item.Label, item.Value})
	}
	if len(doc.Summary) > 0 {
		records = append(records, []string{})
	}

	if len(doc.Headers) > 0 {
		records = append(records, doc.Headers)
		records = append(records, doc.Rows...)
	}

	if err := w.WriteAll(records); err != nil {
		return nil, fmt.Errorf("writing csv: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flushing csv: %w", err)
	}

	return buf.Bytes(), nil
}
