package csvio

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ErrNoHeader is returned for input without a header line.
var ErrNoHeader = errors.New("csv has no header row")

// Row is one decoded record keyed by lower-cased header name. Line is the
// 1-based physical line of the record in the source.
type Row struct {
	Line   int
	Fields map[string]string
}

// Get returns the trimmed value for the first present key.
func (r Row) Get(keys ...string) string {
	for _, key := range keys {
		if v, ok := r.Fields[key]; ok {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

// Decode reads a header line followed by records. Headers are trimmed and
// lower-cased, a leading UTF-8 BOM is dropped and short or long rows are
// tolerated. Entirely blank records are skipped.
func Decode(r io.Reader) ([]Row, error) {
	br := bufio.NewReader(r)
	if head, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(head, utf8BOM) {
		_, _ = br.Discard(len(utf8BOM))
	}

	reader := csv.NewReader(br)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrNoHeader
	}
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	for i := range header {
		header[i] = strings.ToLower(strings.TrimSpace(header[i]))
	}

	var rows []Row
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv record: %w", err)
		}
		if blank(record) {
			continue
		}
		line, _ := reader.FieldPos(0)

		fields := make(map[string]string, len(header))
		for i, name := range header {
			if name == "" || i >= len(record) {
				continue
			}
			fields[name] = record[i]
		}
		rows = append(rows, Row{Line: line, Fields: fields})
	}

	return rows, nil
}

func blank(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
