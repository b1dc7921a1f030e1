package dataset

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/soltixdb/txcast/internal/utils"
)

// column identifiers after header normalization
const (
	colYear    = "year"
	colQuarter = "quarter"
	colDate    = "date"
	colState   = "state"
	colType    = "transactiontype"
	colBrand   = "brand"
	colCount   = "transactioncount"
	colAmount  = "transactionamount"
)

// headerAliases maps normalized header names to columns
var headerAliases = map[string]string{
	"year":              colYear,
	"quarter":           colQuarter,
	"date":              colDate,
	"month":             colDate,
	"period":            colDate,
	"state":             colState,
	"transactiontype":   colType,
	"type":              colType,
	"brand":             colBrand,
	"brands":            colBrand,
	"transactioncount":  colCount,
	"count":             colCount,
	"transactionamount": colAmount,
	"amount":            colAmount,
}

// dateLayouts are tried in order for the date column (day first)
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	time.RFC3339,
	"02-01-2006",
	"02/01/2006",
	"2006/01/02",
	"2006-01",
	"Jan 2006",
	"January 2006",
}

// ctxCheckRows is how many rows are parsed between context checks
const ctxCheckRows = 4096

// ReadFile loads records from a .csv or .xlsx file and returns them
// together with the raw file content. Parsing stops when ctx is done.
func ReadFile(ctx context.Context, path string) ([]Record, []byte, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	var rows [][]string
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv", ".txt", "":
		rows, err = readCSVRows(bytes.NewReader(content))
	case ".xlsx", ".xlsm":
		rows, err = readXLSXRows(bytes.NewReader(content))
	default:
		return nil, nil, fmt.Errorf("unsupported dataset format: %s", filepath.Ext(path))
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	records, err := parseRows(ctx, rows)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return records, content, nil
}

// ReadCSV parses records from CSV with a header row
func ReadCSV(r io.Reader) ([]Record, error) {
	rows, err := readCSVRows(r)
	if err != nil {
		return nil, err
	}
	return parseRows(context.Background(), rows)
}

func readCSVRows(r io.Reader) ([][]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	return reader.ReadAll()
}

// readXLSXRows returns the rows of the first sheet
func readXLSXRows(r io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}
	return f.GetRows(sheets[0])
}

func normalizeHeader(h string) string {
	h = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
	return strings.NewReplacer("_", "", " ", "", "-", "").Replace(h)
}

// parseRows maps a header row plus data rows to records. Unusable time
// markers are left zero and unparseable amounts become NaN, so the
// aggregation policy decides whether to skip or reject them.
func parseRows(ctx context.Context, rows [][]string) ([]Record, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("missing header row")
	}

	columns := make(map[string]int)
	for i, h := range rows[0] {
		if col, ok := headerAliases[normalizeHeader(h)]; ok {
			if _, dup := columns[col]; !dup {
				columns[col] = i
			}
		}
	}

	_, hasYear := columns[colYear]
	_, hasDate := columns[colDate]
	if !hasYear && !hasDate {
		return nil, fmt.Errorf("no time column: need Year/Quarter or date")
	}
	if _, ok := columns[colCount]; !ok {
		return nil, fmt.Errorf("missing Transaction_count column")
	}

	cell := func(row []string, col string) string {
		idx, ok := columns[col]
		if !ok || idx >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[idx])
	}

	records := make([]Record, 0, len(rows)-1)
	for i, row := range rows[1:] {
		if i%ctxCheckRows == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		if isBlank(row) {
			continue
		}
		rec := Record{
			Year:    parseInt(cell(row, colYear)),
			Quarter: parseInt(cell(row, colQuarter)),
			Date:    parseDate(cell(row, colDate)),
			State:   cell(row, colState),
			Type:    cell(row, colType),
			Brand:   cell(row, colBrand),
			Count:   parseFloat(cell(row, colCount)),
			Amount:  parseFloat(cell(row, colAmount)),
		}
		if rec.Year == 0 && !rec.Date.IsZero() {
			rec.Year = rec.Date.Year()
			rec.Quarter = (int(rec.Date.Month())-1)/3 + 1
		}
		records = append(records, rec)
	}
	return records, nil
}

func isBlank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func parseInt(s string) int {
	f, ok := utils.ParseNumber(s)
	if !ok {
		return 0
	}
	v, ok := utils.WholeNumber(f)
	if !ok {
		return 0
	}
	return v
}

// parseFloat returns 0 for an empty cell and NaN for an unparseable one
func parseFloat(s string) float64 {
	if strings.TrimSpace(s) == "" {
		return 0
	}
	v, ok := utils.ParseNumber(s)
	if !ok {
		return math.NaN()
	}
	return v
}

func parseDate(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
