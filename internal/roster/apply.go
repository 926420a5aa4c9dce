package roster

// apply.go supports single-field edits made from the card editor after a
// batch is loaded. Edits go through the same validators as the parser.

import (
	"fmt"
	"strings"
)

// Editable field names accepted by ApplyField, matching the JSON field names
// of Employee.
const (
	FieldID          = "employeeId"
	FieldName        = "name"
	FieldMobile      = "mobile"
	FieldBloodGroup  = "bloodGroup"
	FieldWebsite     = "website"
	FieldJoiningDate = "joiningDate"
	FieldValidTill   = "validTill"
)

// ApplyField validates value against the rules for field and applies it to
// emp. The employee is left untouched on error.
func ApplyField(emp *Employee, field, value string) error {
	value = cleanCell(value)

	switch field {
	case FieldID:
		if err := ValidateID(value); err != nil {
			return err
		}
		emp.ID = value

	case FieldName:
		if strings.TrimSpace(value) == "" {
			return fmt.Errorf("name is empty")
		}
		emp.Name = value

	case FieldMobile:
		mobile, err := NormalizeMobile(value)
		if err != nil {
			return err
		}
		emp.Mobile = mobile

	case FieldBloodGroup:
		bg, err := CanonicalBloodGroup(value)
		if err != nil {
			return err
		}
		emp.BloodGroup = bg

	case FieldWebsite:
		emp.Website = value

	case FieldJoiningDate:
		t, err := ParseDate(value)
		if err != nil {
			return err
		}
		if !emp.ValidTill.IsZero() && !emp.ValidTill.After(t) {
			return fmt.Errorf("joining date must be strictly before valid till")
		}
		emp.JoiningDate = t

	case FieldValidTill:
		t, err := ParseDate(value)
		if err != nil {
			return err
		}
		if !t.After(emp.JoiningDate) {
			return fmt.Errorf("valid till must be strictly after joining date")
		}
		emp.ValidTill = t

	default:
		return fmt.Errorf("unknown field %q", field)
	}
	return nil
}
