package export

import (
	"math"
	"strconv"
	"time"

	"github.com/soltixdb/txcast/internal/analytics"
	"github.com/soltixdb/txcast/internal/analytics/forecast"
	"github.com/soltixdb/txcast/internal/dataset"
)

// DateLayout is how period ends are written
const DateLayout = "2006-01-02"

// Table is a named, header-first block of cells. Cells hold string,
// int, float64 or time.Time values.
type Table struct {
	Name   string
	Header []string
	Rows   [][]interface{}
}

// ForecastTable lays out forecast points as date,forecast rows
func ForecastTable(fc *forecast.Forecast) Table {
	return pointsTable("forecast", []string{"date", "forecast"}, fc.Points)
}

// HistoryTable lays out the observed series as date,value rows
func HistoryTable(series analytics.Series) Table {
	return pointsTable("history", []string{"date", "value"}, series.Points)
}

func pointsTable(name string, header []string, points analytics.TimeSeriesData) Table {
	rows := make([][]interface{}, len(points))
	for i, p := range points {
		rows[i] = []interface{}{p.Time, p.Value}
	}
	return Table{Name: name, Header: header, Rows: rows}
}

// RecordsTable lays out raw records with the column names of the
// aggregated transactions file
func RecordsTable(records []dataset.Record) Table {
	rows := make([][]interface{}, len(records))
	for i, r := range records {
		rows[i] = []interface{}{r.Year, r.Quarter, r.State, r.Type, r.Count, r.Amount}
	}
	return Table{
		Name:   "transactions",
		Header: []string{"Year", "Quarter", "State", "Transaction_type", "Transaction_count", "Transaction_amount"},
		Rows:   rows,
	}
}

// formatCell renders a cell for text formats
func formatCell(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case int:
		return strconv.Itoa(val)
	case float64:
		if math.IsNaN(val) || math.IsInf(val, 0) {
			return ""
		}
		return strconv.FormatFloat(val, 'f', -1, 64)
	case time.Time:
		return val.Format(DateLayout)
	default:
		return ""
	}
}

// jsonCell converts a cell for JSON output. Non-finite numbers become null.
func jsonCell(v interface{}) interface{} {
	switch val := v.(type) {
	case time.Time:
		return val.Format(DateLayout)
	case float64:
		if math.IsNaN(val) || math.IsInf(val, 0) {
			return nil
		}
	}
	return v
}
