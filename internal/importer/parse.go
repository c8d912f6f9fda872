// Package importer reads league schedules from CSV or XLSX files and turns
// them into match drafts. A single bad line rejects the whole file.
package importer

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/mauv0809/refgrade/internal/match"
	"github.com/xuri/excelize/v2"
)

// maxFileSize caps uploads read into memory.
const maxFileSize = 10 << 20

// FormatFromFilename picks the format from the file extension.
func FormatFromFilename(name string) (Format, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv", ".txt":
		return FormatCSV, nil
	case ".xlsx":
		return FormatXLSX, nil
	default:
		return "", fmt.Errorf("%w: unsupported file type %q", match.ErrValidation, filepath.Ext(name))
	}
}

// record is one row of the source file with its 1-based line number.
type record struct {
	line   int
	fields []string
}

// Parse reads every row from r. Blank lines are skipped and a first row
// starting with "date" is treated as a header.
func Parse(r io.Reader, format Format) ([]Row, error) {
	var (
		records []record
		err     error
	)
	switch format {
	case FormatCSV:
		records, err = readCSV(r)
	case FormatXLSX:
		records, err = readXLSX(r)
	default:
		return nil, fmt.Errorf("%w: unsupported format %q", match.ErrValidation, format)
	}
	if err != nil {
		return nil, err
	}

	var rows []Row
	for i, rec := range records {
		if isBlank(rec.fields) {
			continue
		}
		if i == 0 && strings.EqualFold(strings.TrimSpace(rec.fields[0]), "date") {
			continue
		}
		if len(rec.fields) != fieldCount {
			return nil, lineErr(rec.line, "expected %d fields, got %d", fieldCount, len(rec.fields))
		}
		f := rec.fields
		for j := range f {
			f[j] = strings.TrimSpace(f[j])
		}
		rows = append(rows, Row{
			Line:     rec.line,
			Date:     f[0],
			Time:     f[1],
			HomeTeam: f[2],
			AwayTeam: f[3],
			Referee:  f[4],
			Observer: f[5],
			Stadium:  f[6],
		})
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: schedule is empty", match.ErrValidation)
	}
	return rows, nil
}

// readCSV keeps the physical line each record starts on; the reader skips
// blank lines and folds quoted newlines.
func readCSV(r io.Reader) ([]record, error) {
	reader := csv.NewReader(io.LimitReader(r, maxFileSize))
	reader.Comma = ';'
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	var records []record
	for {
		fields, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", match.ErrValidation, err)
		}
		line, _ := reader.FieldPos(0)
		records = append(records, record{line: line, fields: fields})
	}
	return records, nil
}

func readXLSX(r io.Reader) ([]record, error) {
	b, err := io.ReadAll(io.LimitReader(r, maxFileSize))
	if err != nil {
		return nil, err
	}
	f, err := excelize.OpenReader(bytes.NewReader(b))
	if err != nil {
		return nil, fmt.Errorf("%w: not a valid xlsx file: %v", match.ErrValidation, err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, fmt.Errorf("%w: workbook has no sheets", match.ErrValidation)
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, err
	}
	records := make([]record, 0, len(rows))
	for i, row := range rows {
		// GetRows drops trailing empty cells.
		if !isBlank(row) && len(row) < fieldCount {
			row = append(row, make([]string, fieldCount-len(row))...)
		}
		records = append(records, record{line: i + 1, fields: row})
	}
	return records, nil
}

func isBlank(rec []string) bool {
	return strings.TrimSpace(strings.Join(rec, "")) == ""
}
