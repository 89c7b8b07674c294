package source

import (
	"bufio"
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/rpattn/trackgrid/internal/domain"
)

// ErrUnsupportedFormat is returned for files that are not CSV, XLSX or JSON.
var ErrUnsupportedFormat = errors.New("unsupported file format")

var byteOrderMark = []byte{0xEF, 0xBB, 0xBF}

// Files reads screen records from local files.
type Files struct {
	// Override replaces the path of every file-backed screen when set.
	Override string
}

// NewFiles returns a file fetcher. An empty override keeps each screen's own path.
func NewFiles(override string) *Files {
	return &Files{Override: strings.TrimSpace(override)}
}

// Fetch reads the screen's file. Files without data rows answer 204 like the
// API does for empty reports.
func (f *Files) Fetch(ctx context.Context, def domain.ScreenDefinition, _ domain.FetchParams) (domain.FetchResult, error) {
	path := f.Override
	if path == "" {
		path = def.Source.Path
	}
	if path == "" {
		return domain.FetchResult{}, fmt.Errorf("screen %s: no file path configured", def.Name)
	}
	if err := ctx.Err(); err != nil {
		return domain.FetchResult{}, err
	}
	records, err := ReadFile(path)
	if err != nil {
		return domain.FetchResult{}, err
	}
	if len(records) == 0 {
		return domain.FetchResult{StatusCode: http.StatusNoContent}, nil
	}
	return domain.FetchResult{StatusCode: http.StatusOK, Records: records}, nil
}

// ReadFile decodes the records stored at path.
func ReadFile(path string) ([]domain.Record, error) {
	payload, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return Read(filepath.Base(path), payload)
}

// Read decodes payload according to the extension of fileName.
func Read(fileName string, payload []byte) ([]domain.Record, error) {
	ext := strings.ToLower(filepath.Ext(fileName))
	switch ext {
	case ".csv":
		rows, err := parseCSV(payload)
		if err != nil {
			return nil, err
		}
		return tableRecords(rows)
	case ".xlsx":
		rows, err := parseExcel(payload)
		if err != nil {
			return nil, err
		}
		return tableRecords(rows)
	case ".json":
		records, err := domain.DecodeRecords(bytes.NewReader(bytes.TrimPrefix(payload, byteOrderMark)))
		if err != nil {
			return nil, fmt.Errorf("failed to read json: %w", err)
		}
		return records, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
}

func parseCSV(payload []byte) ([][]string, error) {
	reader := bufio.NewReader(bytes.NewReader(payload))
	if prefix, err := reader.Peek(len(byteOrderMark)); err == nil && bytes.Equal(prefix, byteOrderMark) {
		_, _ = reader.Discard(len(byteOrderMark))
	}

	csvReader := csv.NewReader(reader)
	csvReader.TrimLeadingSpace = true
	csvReader.FieldsPerRecord = -1

	rows, err := csvReader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read csv: %w", err)
	}
	return rows, nil
}

func parseExcel(payload []byte) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to open xlsx: %w", err)
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("excel file has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read rows from xlsx: %w", err)
	}
	return rows, nil
}

// tableRecords treats the first non-blank row as the header. Dotted headers
// such as "work_type.name" build nested records.
func tableRecords(rows [][]string) ([]domain.Record, error) {
	var headers []domain.FieldPath
	var records []domain.Record
	for _, row := range rows {
		if blankRow(row) {
			continue
		}
		if headers == nil {
			var err error
			if headers, err = parseHeaders(row); err != nil {
				return nil, err
			}
			continue
		}
		record := domain.Record{}
		for i, path := range headers {
			cell := ""
			if i < len(row) {
				cell = row[i]
			}
			setPath(record, path, cellValue(cell))
		}
		records = append(records, record)
	}
	if records == nil {
		records = []domain.Record{}
	}
	return records, nil
}

func parseHeaders(row []string) ([]domain.FieldPath, error) {
	headers := make([]domain.FieldPath, len(row))
	seen := make(map[string]struct{}, len(row))
	for i, raw := range row {
		name := strings.TrimSpace(raw)
		if name == "" {
			name = fmt.Sprintf("column_%d", i+1)
		}
		if _, dup := seen[name]; dup {
			return nil, fmt.Errorf("duplicate header %q", name)
		}
		seen[name] = struct{}{}
		headers[i] = domain.ParseFieldPath(name)
	}
	// A header cannot be both a leaf and the parent of another header.
	for _, path := range headers {
		for depth := 1; depth < len(path); depth++ {
			prefix := path[:depth].String()
			if _, ok := seen[prefix]; ok {
				return nil, fmt.Errorf("header %q conflicts with %q", path.String(), prefix)
			}
		}
	}
	return headers, nil
}

func blankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// cellValue maps empty cells to null, true/false to booleans and numeric
// text to numbers.
func cellValue(raw string) domain.Value {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return domain.Null()
	}
	switch strings.ToLower(trimmed) {
	case "true":
		return domain.Bool(true)
	case "false":
		return domain.Bool(false)
	}
	if n, err := strconv.ParseFloat(trimmed, 64); err == nil && !strings.ContainsAny(trimmed, "xXpP_") && looksDecimal(trimmed) {
		return domain.Number(n)
	}
	return domain.String(trimmed)
}

// looksDecimal rejects codes with leading zeros ("0010") and forms like
// "Inf" or "NaN" that ParseFloat accepts.
func looksDecimal(text string) bool {
	digits := strings.TrimLeft(text, "+-")
	if digits == "" || digits[0] < '0' || digits[0] > '9' {
		return false
	}
	if len(digits) > 1 && digits[0] == '0' && digits[1] != '.' {
		return false
	}
	return true
}

func setPath(record domain.Record, path domain.FieldPath, value domain.Value) {
	if len(path) == 0 {
		return
	}
	if len(path) == 1 {
		record[path[0]] = value
		return
	}
	child, ok := record[path[0]].AsRecord()
	if !ok {
		child = domain.Record{}
	}
	setPath(child, path[1:], value)
	record[path[0]] = domain.Nested(child)
}
