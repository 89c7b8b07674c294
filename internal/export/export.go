package export

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/rpattn/trackgrid/internal/domain"
	"github.com/rpattn/trackgrid/internal/grid"
)

// ErrUnsupportedFormat is returned for formats other than csv and xlsx.
var ErrUnsupportedFormat = errors.New("unsupported export format")

type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// ParseFormat accepts "csv" and "xlsx" in any case. Empty means csv.
func ParseFormat(raw string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(raw))) {
	case "", FormatCSV:
		return FormatCSV, nil
	case FormatXLSX:
		return FormatXLSX, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, raw)
	}
}

// ContentType is the response media type of the format.
func (f Format) ContentType() string {
	if f == FormatXLSX {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "text/csv"
}

// FileName builds "<prefix>-<yyyy-mm-dd>.<ext>".
func FileName(prefix string, format Format, downloadDate time.Time) string {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		prefix = "export"
	}
	return fmt.Sprintf("%s-%s.%s", prefix, downloadDate.Format("2006-01-02"), format)
}

// Write renders the visible columns of rows. Rows are written in the order given.
func Write(w io.Writer, format Format, columns grid.Columns, rows []domain.Record) error {
	visible := columns.Visible()
	switch format {
	case FormatCSV:
		return writeCSV(w, visible, rows)
	case FormatXLSX:
		return writeXLSX(w, visible, rows)
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}

// Save writes the export into dir and returns the file path.
func Save(dir, prefix string, format Format, columns grid.Columns, rows []domain.Record, now time.Time) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create export directory: %w", err)
	}
	var buf bytes.Buffer
	if err := Write(&buf, format, columns, rows); err != nil {
		return "", err
	}
	path := filepath.Join(dir, FileName(prefix, format, now))
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return "", fmt.Errorf("write export file: %w", err)
	}
	return path, nil
}

func headers(columns grid.Columns) []string {
	labels := make([]string, len(columns))
	for i, column := range columns {
		labels[i] = column.Label
	}
	return labels
}

func writeCSV(w io.Writer, columns grid.Columns, rows []domain.Record) error {
	csvWriter := csv.NewWriter(w)
	if err := csvWriter.Write(headers(columns)); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	line := make([]string, len(columns))
	for idx, row := range rows {
		for i, column := range columns {
			line[i] = column.Value(row).TextOrEmpty()
		}
		if err := csvWriter.Write(line); err != nil {
			return fmt.Errorf("write csv row %d: %w", idx+1, err)
		}
	}
	csvWriter.Flush()
	if err := csvWriter.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

func writeXLSX(w io.Writer, columns grid.Columns, rows []domain.Record) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()
	sheet := f.GetSheetName(0)

	header := make([]any, len(columns))
	for i, label := range headers(columns) {
		header[i] = label
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("write xlsx header: %w", err)
	}
	for idx, row := range rows {
		cells := make([]any, len(columns))
		for i, column := range columns {
			cells[i] = cellValue(column.Value(row))
		}
		cell, err := excelize.CoordinatesToCellName(1, idx+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &cells); err != nil {
			return fmt.Errorf("write xlsx row %d: %w", idx+1, err)
		}
	}
	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write xlsx: %w", err)
	}
	return nil
}

// Numbers and booleans keep their cell type; everything else is text.
func cellValue(value domain.Value) any {
	if n, ok := value.AsNumber(); ok {
		return n
	}
	if b, ok := value.AsBool(); ok {
		return b
	}
	return value.TextOrEmpty()
}
