// Package roster parses tabular employee files (CSV or XLSX) into validated
// card records. This package has no HTTP or UI dependencies and can be used
// by any frontend.
package roster

import (
	"errors"
	"time"
)

// FileFormat identifies the source file type of a parsed batch.
type FileFormat string

const (
	FormatCSV  FileFormat = "csv"
	FormatXLSX FileFormat = "xlsx"
)

// Fatal parse failures. These abort the whole parse; no partial result is
// produced and the caller must re-supply a corrected file.
var (
	ErrEmptyFile         = errors.New("empty file")
	ErrUnsupportedFormat = errors.New("unsupported file format")
	ErrNoDataRows        = errors.New("no data rows found after header")
)

// Employee is one person's card data, created from a single input row.
// PhotoBase64 stays empty until the matcher (or a manual upload) assigns it.
type Employee struct {
	ID          string    `json:"employeeId"`
	Name        string    `json:"name"`
	Mobile      string    `json:"mobile"`
	BloodGroup  string    `json:"bloodGroup"`
	Website     string    `json:"website,omitempty"`
	JoiningDate time.Time `json:"joiningDate"`
	ValidTill   time.Time `json:"validTill"`
	PhotoBase64 string    `json:"photoBase64,omitempty"`
}

// InvalidRow reports one rejected source row. All failed checks for the row
// are collapsed into a single entry; the row is never partially accepted.
type InvalidRow struct {
	// RowNumber is the row's 1-based position below the header row, blank
	// rows included, so it matches the user's spreadsheet.
	RowNumber int      `json:"rowNumber"`
	Errors    []string `json:"errors"`
}

// ParsedResult is the outcome of parsing one roster file.
//
// Invariant: every Employee.ID is unique within Employees. A row that would
// duplicate an already-accepted ID is demoted to InvalidRows instead, never
// silently overwriting the earlier one. Both slices preserve source row order.
type ParsedResult struct {
	Employees   []*Employee  `json:"employees"`
	InvalidRows []InvalidRow `json:"invalidRows"`
	FileFormat  FileFormat   `json:"fileFormat"`
}

// Clone returns a deep copy of the result. The reconciliation controller
// hands clones to matcher passes so a stale pass can never mutate state
// observed by readers.
func (r *ParsedResult) Clone() *ParsedResult {
	if r == nil {
		return nil
	}
	out := &ParsedResult{
		Employees:   make([]*Employee, len(r.Employees)),
		InvalidRows: make([]InvalidRow, len(r.InvalidRows)),
		FileFormat:  r.FileFormat,
	}
	for i, e := range r.Employees {
		cp := *e
		out.Employees[i] = &cp
	}
	for i, ir := range r.InvalidRows {
		cp := ir
		cp.Errors = append([]string(nil), ir.Errors...)
		out.InvalidRows[i] = cp
	}
	return out
}
