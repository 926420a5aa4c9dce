package roster

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Parse turns roster file bytes into a ParsedResult. The extension of
// filename selects the reader (.csv or .xlsx); anything else is a fatal
// error, as are unreadable bytes and a header missing required columns.
//
// Row-level failures never abort the parse: a row failing any check becomes
// exactly one InvalidRow listing every failed check, and partial success is
// the expected outcome.
func Parse(filename string, data []byte) (*ParsedResult, error) {
	if len(data) == 0 {
		return nil, ErrEmptyFile
	}

	var (
		rows   [][]string
		format FileFormat
		err    error
	)
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv":
		format = FormatCSV
		rows, err = readCSV(data)
	case ".xlsx":
		format = FormatXLSX
		rows, err = readXLSX(data)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(filename))
	}
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrEmptyFile
	}

	headerRow, idx, err := locateHeader(rows)
	if err != nil {
		return nil, err
	}

	result := &ParsedResult{
		Employees:   []*Employee{},
		InvalidRows: []InvalidRow{},
		FileFormat:  format,
	}
	seen := make(map[string]struct{})
	dataRows := 0

	// Rows are numbered by position below the header, blanks included, so
	// reported numbers line up with the user's spreadsheet.
	for rowNum, row := range rows[headerRow+1:] {
		if isEmptyRow(row) {
			continue
		}
		dataRows++

		emp, errs := buildEmployee(row, idx)
		if len(errs) == 0 {
			if _, dup := seen[emp.ID]; dup {
				errs = append(errs, fmt.Sprintf("duplicate employee ID %q", emp.ID))
			}
		}
		if len(errs) > 0 {
			result.InvalidRows = append(result.InvalidRows, InvalidRow{
				RowNumber: rowNum + 1,
				Errors:    errs,
			})
			continue
		}

		seen[emp.ID] = struct{}{}
		result.Employees = append(result.Employees, emp)
	}

	if dataRows == 0 {
		return nil, ErrNoDataRows
	}
	return result, nil
}

// buildEmployee validates one data row. Every check runs even after the
// first failure so the InvalidRow carries the complete list of problems.
func buildEmployee(row []string, idx headerIndex) (*Employee, []string) {
	var errs []string
	emp := &Employee{}

	emp.Name = idx.cell(row, colName)
	if emp.Name == "" {
		errs = append(errs, "name is empty")
	}

	emp.ID = idx.cell(row, colID)
	if err := ValidateID(emp.ID); err != nil {
		errs = append(errs, err.Error())
	}

	mobile, err := NormalizeMobile(idx.cell(row, colMobile))
	if err != nil {
		errs = append(errs, err.Error())
	} else {
		emp.Mobile = mobile
	}

	bg, err := CanonicalBloodGroup(idx.cell(row, colBloodGroup))
	if err != nil {
		errs = append(errs, err.Error())
	} else {
		emp.BloodGroup = bg
	}

	emp.Website = idx.cell(row, colWebsite)

	joining, joinErr := ParseDate(idx.cell(row, colJoining))
	if joinErr != nil {
		errs = append(errs, fmt.Sprintf("joining date: %v", joinErr))
	} else {
		emp.JoiningDate = joining
	}

	validTill, tillErr := ParseDate(idx.cell(row, colValidTill))
	if tillErr != nil {
		errs = append(errs, fmt.Sprintf("valid till: %v", tillErr))
	} else {
		emp.ValidTill = validTill
	}

	if joinErr == nil && tillErr == nil && !validTill.After(joining) {
		errs = append(errs, "valid till must be strictly after joining date")
	}

	if len(errs) > 0 {
		return nil, errs
	}
	return emp, nil
}
