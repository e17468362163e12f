// Package csvload bulk-loads a CSV file into a table.Table, inferring
// each column's type from a sample of its values.
package csvload

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/QuerthDP/mimdb/pkg/mimdberrors"
	"github.com/QuerthDP/mimdb/pkg/table"
)

const sampleSize = 100

// Load reads a CSV file (first row as headers) from r and returns a
// Table with one column per header, typed Int64 if the sample holds at
// least one non-empty value and every non-empty sampled value in that
// column parses as an integer, Varchar otherwise.
func Load(r io.Reader) (*table.Table, error) {
	reader := csv.NewReader(r)

	headers, err := reader.Read()
	if err == io.EOF {
		return table.New(), nil
	}
	if err != nil {
		return nil, mimdberrors.Wrap(err, mimdberrors.IoFailure, "reading csv header row")
	}

	rows := make([][]string, 0, 1024)
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, mimdberrors.Wrap(err, mimdberrors.IoFailure, "reading csv row").
				WithDetail("row_number", len(rows)+2)
		}
		rows = append(rows, row)
	}

	tbl := table.New()
	for col, header := range headers {
		if inferColumnType(rows, col) == table.Int64 {
			values := make([]int64, len(rows))
			for i, row := range rows {
				if col < len(row) && row[col] != "" {
					v, _ := strconv.ParseInt(row[col], 10, 64)
					values[i] = v
				}
			}
			if err := tbl.AddColumn(header, values); err != nil {
				return nil, err
			}
			continue
		}

		values := make([][]byte, len(rows))
		for i, row := range rows {
			if col < len(row) {
				values[i] = []byte(row[col])
			}
		}
		if err := tbl.AddVarcharColumn(header, values); err != nil {
			return nil, err
		}
	}
	return tbl, nil
}

// inferColumnType samples up to sampleSize values of column col and
// classifies it Int64 only if every non-empty sampled value parses as a
// base-10 signed integer.
func inferColumnType(rows [][]string, col int) table.ColumnType {
	n := sampleSize
	if len(rows) < n {
		n = len(rows)
	}

	sawValue := false
	for i := 0; i < n; i++ {
		if col >= len(rows[i]) {
			continue
		}
		val := rows[i][col]
		if val == "" {
			continue
		}
		sawValue = true
		if _, err := strconv.ParseInt(val, 10, 64); err != nil {
			return table.Varchar
		}
	}
	if !sawValue {
		return table.Varchar
	}
	return table.Int64
}
