package export

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"time"

	"github.com/xuri/excelize/v2"
)

// Write renders tables in format f. CSV holds a single table, so only
// the first one is written; JSON keys each table by name; XLSX writes
// one sheet per table.
func Write(w io.Writer, f Format, tables ...Table) error {
	if len(tables) == 0 {
		return fmt.Errorf("nothing to export")
	}

	switch f {
	case FormatCSV:
		return writeCSV(w, tables[0])
	case FormatJSON:
		return writeJSON(w, tables)
	case FormatXLSX:
		return writeXLSX(w, tables)
	default:
		return fmt.Errorf("unsupported export format: %s", f)
	}
}

func writeCSV(w io.Writer, t Table) error {
	bufferedWriter := bufio.NewWriterSize(w, 64*1024)
	csvWriter := csv.NewWriter(bufferedWriter)

	if err := csvWriter.Write(t.Header); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	record := make([]string, len(t.Header))
	for _, row := range t.Rows {
		for i := range record {
			record[i] = ""
			if i < len(row) {
				record[i] = formatCell(row[i])
			}
		}
		if err := csvWriter.Write(record); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	csvWriter.Flush()
	if err := csvWriter.Error(); err != nil {
		return fmt.Errorf("failed to flush CSV: %w", err)
	}
	return bufferedWriter.Flush()
}

func writeJSON(w io.Writer, tables []Table) error {
	out := make(map[string][]map[string]interface{}, len(tables))
	for _, t := range tables {
		rows := make([]map[string]interface{}, len(t.Rows))
		for r, row := range t.Rows {
			obj := make(map[string]interface{}, len(t.Header))
			for i, h := range t.Header {
				if i < len(row) {
					obj[h] = jsonCell(row[i])
				}
			}
			rows[r] = obj
		}
		out[t.Name] = rows
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("failed to encode JSON export: %w", err)
	}
	return nil
}

func writeXLSX(w io.Writer, tables []Table) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	dateStyle, err := f.NewStyle(&excelize.Style{NumFmt: 14})
	if err != nil {
		return fmt.Errorf("failed to create date style: %w", err)
	}

	for i, t := range tables {
		sheet := t.Name
		if i == 0 {
			if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
				return fmt.Errorf("failed to name sheet %s: %w", sheet, err)
			}
		} else if _, err := f.NewSheet(sheet); err != nil {
			return fmt.Errorf("failed to create sheet %s: %w", sheet, err)
		}

		if err := writeSheet(f, sheet, t, dateStyle); err != nil {
			return err
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func writeSheet(f *excelize.File, sheet string, t Table, dateStyle int) error {
	header := make([]interface{}, len(t.Header))
	for i, h := range t.Header {
		header[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("failed to write header of %s: %w", sheet, err)
	}

	for r, row := range t.Rows {
		cells := make([]interface{}, len(row))
		for i, v := range row {
			// Spreadsheets cannot hold NaN or Inf
			if fv, ok := v.(float64); ok && (math.IsNaN(fv) || math.IsInf(fv, 0)) {
				v = ""
			}
			cells[i] = v
		}

		cell, err := excelize.CoordinatesToCellName(1, r+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &cells); err != nil {
			return fmt.Errorf("failed to write row %d of %s: %w", r+2, sheet, err)
		}

		for i, v := range row {
			if _, ok := v.(time.Time); !ok {
				continue
			}
			dateCell, err := excelize.CoordinatesToCellName(i+1, r+2)
			if err != nil {
				return err
			}
			if err := f.SetCellStyle(sheet, dateCell, dateCell, dateStyle); err != nil {
				return fmt.Errorf("failed to style %s: %w", dateCell, err)
			}
		}
	}
	return nil
}
