package roster

// validate.go holds the per-field validation rules. Each validator returns a
// normalized value so downstream code never re-cleans input.

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// employeeIDPattern: alphanumeric, 2-20 characters. IDs are compared
// byte-for-byte against photo filenames, so case is preserved as-is.
var employeeIDPattern = regexp.MustCompile(`^[A-Za-z0-9]{2,20}$`)

// BloodGroups are the eight canonical values. Input is matched
// case-insensitively and stored canonical.
var BloodGroups = []string{"A+", "A-", "B+", "B-", "AB+", "AB-", "O+", "O-"}

// mobileStrip removes the separators people paste into phone columns.
var mobileStrip = strings.NewReplacer(" ", "", "-", "", ".", "", "(", "", ")", "")

// twoDigitYearPivot defines how 2-digit years are interpreted: years that
// would land more than this many years in the future are assumed to be in
// the previous century.
var twoDigitYearPivot = 20

// Date layouts split by year format for proper 2-digit year handling.
var (
	twoDigitYearLayouts = []string{
		"1/2/06", "01/02/06", "1-2-06", "1.2.06", "01.02.06",
	}
	fourDigitYearLayouts = []string{
		"1/2/2006", "01/02/2006", "1-2-2006", "01-02-2006", "1.2.2006", "01.02.2006",
		"2006-01-02", "2006/01/02", "2006.01.02",
		"Jan 2, 2006", "2 Jan 2006",
		"20060102",
	}
)

// ValidateID checks the employee identifier format.
func ValidateID(id string) error {
	if !employeeIDPattern.MatchString(id) {
		return fmt.Errorf("employee ID %q must be 2-20 alphanumeric characters", id)
	}
	return nil
}

// NormalizeMobile reduces a phone cell to exactly 10 digits. Separators are
// stripped; a leading "+<country code>" or single "0" trunk prefix is dropped
// when the remainder is 10 digits. Anything else is an error.
func NormalizeMobile(s string) (string, error) {
	raw := mobileStrip.Replace(s)

	digits := raw
	if strings.HasPrefix(digits, "+") {
		digits = digits[1:]
	}
	for _, r := range digits {
		if r < '0' || r > '9' {
			return "", fmt.Errorf("mobile %q contains non-digit characters", s)
		}
	}

	switch {
	case len(digits) == 10:
	case strings.HasPrefix(raw, "+") && len(digits) > 10:
		digits = digits[len(digits)-10:]
	case len(digits) == 11 && digits[0] == '0':
		digits = digits[1:]
	default:
		return "", fmt.Errorf("mobile %q must normalize to exactly 10 digits", s)
	}
	return digits, nil
}

// CanonicalBloodGroup resolves a blood group cell to its canonical form.
func CanonicalBloodGroup(s string) (string, error) {
	cleaned := strings.ToUpper(strings.ReplaceAll(s, " ", ""))
	for _, bg := range BloodGroups {
		if cleaned == bg {
			return bg, nil
		}
	}
	return "", fmt.Errorf("blood group %q must be one of: %s", s, strings.Join(BloodGroups, ", "))
}

// ParseDate parses a date cell against the known layouts. 4-digit year
// layouts are tried first (unambiguous); 2-digit years get the pivot
// adjustment.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}

	for _, layout := range fourDigitYearLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}

	// Go parses 2-digit years as 00-68 → 2000-2068, 69-99 → 1969-1999.
	// Apply a consistent pivot instead: too far in the future means the
	// previous century.
	pivotYear := time.Now().Year() + twoDigitYearPivot
	for _, layout := range twoDigitYearLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			if t.Year() > pivotYear {
				t = t.AddDate(-100, 0, 0)
			}
			return t, nil
		}
	}

	return time.Time{}, fmt.Errorf("invalid date %q", s)
}
