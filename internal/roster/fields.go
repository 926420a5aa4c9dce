package roster

import (
	"fmt"
	"strings"
)

// column identifies a recognized roster column.
type column int

const (
	colName column = iota
	colID
	colMobile
	colBloodGroup
	colWebsite
	colJoining
	colValidTill
)

// columnLabels are the canonical header names, used in error messages and in
// the downloadable CSV template.
var columnLabels = map[column]string{
	colName:       "Name",
	colID:         "Employee ID",
	colMobile:     "Mobile",
	colBloodGroup: "Blood Group",
	colWebsite:    "Website",
	colJoining:    "Joining Date",
	colValidTill:  "Valid Till",
}

// headerSynonyms maps cleaned header cells to columns. Matching is
// case-insensitive and tolerant of column order; HR exports name these
// columns inconsistently.
var headerSynonyms = map[string]column{
	"name":          colName,
	"employee name": colName,
	"full name":     colName,
	"employee id":   colID,
	"emp id":        colID,
	"id":            colID,
	"mobile":        colMobile,
	"mobile no":     colMobile,
	"mobile number": colMobile,
	"phone":         colMobile,
	"blood group":   colBloodGroup,
	"bloodgroup":    colBloodGroup,
	"website":       colWebsite,
	"joining date":  colJoining,
	"date of joining": colJoining,
	"doj":           colJoining,
	"valid till":    colValidTill,
	"valid until":   colValidTill,
	"expiry date":   colValidTill,
}

// requiredColumns must all be present in the header row; a missing one fails
// the whole parse, not individual rows. Website is optional.
var requiredColumns = []column{colName, colID, colMobile, colBloodGroup, colJoining, colValidTill}

// TemplateHeader returns the canonical header row for the CSV template
// download, required columns first.
func TemplateHeader() []string {
	return []string{
		columnLabels[colName],
		columnLabels[colID],
		columnLabels[colMobile],
		columnLabels[colBloodGroup],
		columnLabels[colJoining],
		columnLabels[colValidTill],
		columnLabels[colWebsite],
	}
}

// headerIndex maps recognized columns to their position in the header row.
type headerIndex map[column]int

// mapHeader resolves a candidate header row to column positions.
// Unrecognized cells are ignored; the first cell claiming a column wins.
func mapHeader(row []string) headerIndex {
	idx := make(headerIndex, len(row))
	for i, cell := range row {
		key := strings.ToLower(cleanCell(cell))
		col, ok := headerSynonyms[key]
		if !ok {
			continue
		}
		if _, taken := idx[col]; !taken {
			idx[col] = i
		}
	}
	return idx
}

// missingColumns returns the canonical labels of required columns absent
// from idx, in declaration order.
func missingColumns(idx headerIndex) []string {
	var missing []string
	for _, col := range requiredColumns {
		if _, ok := idx[col]; !ok {
			missing = append(missing, columnLabels[col])
		}
	}
	return missing
}

// locateHeader scans the first maxHeaderSearchRows rows for one containing
// every required column. Returns the header row index and its mapping, or an
// error naming the columns missing from the best candidate.
func locateHeader(rows [][]string) (int, headerIndex, error) {
	limit := maxHeaderSearchRows
	if len(rows) < limit {
		limit = len(rows)
	}

	bestMissing := -1
	var bestLabels []string
	for i := 0; i < limit; i++ {
		idx := mapHeader(rows[i])
		missing := missingColumns(idx)
		if len(missing) == 0 {
			return i, idx, nil
		}
		if bestMissing == -1 || len(missing) < bestMissing {
			bestMissing = len(missing)
			bestLabels = missing
		}
	}

	if bestLabels == nil {
		return 0, nil, fmt.Errorf("missing required columns: no header row found")
	}
	return 0, nil, fmt.Errorf("missing required columns: %s", strings.Join(bestLabels, ", "))
}

// cell returns the cleaned value of col in row, or "" when the column is
// absent or the row is short.
func (idx headerIndex) cell(row []string, col column) string {
	pos, ok := idx[col]
	if !ok || pos >= len(row) {
		return ""
	}
	return cleanCell(row[pos])
}
