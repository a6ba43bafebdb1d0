package session

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

// ParseUpload turns an uploaded study file into the text stored on a
// dashboard chat. CSV rows become JSON objects keyed by the header row; any
// other file must be UTF-8 text and is kept as is.
func ParseUpload(filename string, data []byte) (string, error) {
	if strings.EqualFold(filepath.Ext(filename), ".csv") {
		return csvToJSON(data)
	}
	if !utf8.Valid(data) {
		return "", fmt.Errorf("read %s: not a text file", filename)
	}
	return string(data), nil
}

func csvToJSON(data []byte) (string, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	records, err := r.ReadAll()
	if err != nil {
		return "", fmt.Errorf("parse csv: %w", err)
	}
	if len(records) == 0 {
		return "[]", nil
	}

	header := records[0]
	rows := make([]map[string]string, 0, len(records)-1)
	for _, rec := range records[1:] {
		row := make(map[string]string, len(header))
		for i, key := range header {
			if i < len(rec) {
				row[key] = rec[i]
			} else {
				row[key] = ""
			}
		}
		rows = append(rows, row)
	}

	out, err := json.Marshal(rows)
	if err != nil {
		return "", fmt.Errorf("encode csv rows: %w", err)
	}
	return string(out), nil
}
