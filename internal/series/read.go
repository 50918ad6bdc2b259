package series

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

var ErrNoTimestamp = errors.New("missing timestamp column")

var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	"02.01.2006 15:04",
	"2006-01-02",
}

// ParseTimestamp accepts RFC 3339 and the common naive layouts; naive values
// are interpreted in loc.
func ParseTimestamp(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("parse timestamp %q: unsupported layout", s)
}

// ReadCSV reads a header row containing "timestamp" followed by data rows.
func ReadCSV(r io.Reader, loc *time.Location) (*Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	return fromRows(records, func(cell string) (time.Time, error) {
		return ParseTimestamp(cell, loc)
	})
}

// ReadXLSX reads the first sheet of a workbook, or the named one.
func ReadXLSX(r io.Reader, sheet string, loc *time.Location) (*Table, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer f.Close()

	if sheet == "" {
		sheet = f.GetSheetName(0)
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	return fromRows(rows, func(cell string) (time.Time, error) {
		// Unformatted date cells come back as Excel serial numbers.
		if serial, err := strconv.ParseFloat(strings.TrimSpace(cell), 64); err == nil {
			t, err := excelize.ExcelDateToTime(serial, false)
			if err != nil {
				return time.Time{}, err
			}
			return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, loc), nil
		}
		return ParseTimestamp(cell, loc)
	})
}

func fromRows(rows [][]string, parseTS func(string) (time.Time, error)) (*Table, error) {
	if len(rows) == 0 {
		return nil, ErrNoTimestamp
	}
	header := rows[0]
	tsIdx := -1
	for i, h := range header {
		if strings.TrimSpace(h) == TimestampColumn {
			tsIdx = i
			break
		}
	}
	if tsIdx < 0 {
		return nil, ErrNoTimestamp
	}

	var (
		timestamps []time.Time
		body       [][]string
	)
	for n, row := range rows[1:] {
		if tsIdx >= len(row) || strings.TrimSpace(row[tsIdx]) == "" {
			continue
		}
		ts, err := parseTS(row[tsIdx])
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", n+2, err)
		}
		timestamps = append(timestamps, ts)
		body = append(body, row)
	}

	t := NewTable(timestamps)
	for col, name := range header {
		name = strings.TrimSpace(name)
		if col == tsIdx || name == "" {
			continue
		}
		cells := make([]any, len(body))
		for i, row := range body {
			if col < len(row) && strings.TrimSpace(row[col]) != "" {
				cells[i] = row[col]
			}
		}
		if err := t.AddColumn(name, cells); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// ReadFile dispatches on the file extension (.csv or .xlsx).
func ReadFile(path string, loc *time.Location) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open table: %w", err)
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return ReadCSV(f, loc)
	case ".xlsx":
		return ReadXLSX(f, "", loc)
	default:
		return nil, fmt.Errorf("read table %s: unsupported extension", path)
	}
}

// FileProvider serves windows of a table stored on disk. The file is read on
// every fetch so replacing it takes effect without a restart.
type FileProvider struct {
	Path     string
	Location *time.Location
}

func (p *FileProvider) Fetch(ctx context.Context, start, end time.Time) (*Table, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	loc := p.Location
	if loc == nil {
		loc = time.UTC
	}
	t, err := ReadFile(p.Path, loc)
	if err != nil {
		return nil, err
	}
	w := t.Window(start, end)
	if w.Len() == 0 {
		return nil, ErrNotFound
	}
	return w, nil
}
