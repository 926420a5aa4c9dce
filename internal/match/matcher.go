// Package match reconciles parsed employees against extracted photo entries.
// A pass is pure with respect to its inputs except for assigning
// Employee.PhotoBase64; callers that need isolation hand it a clone.
package match

import (
	"context"
	"encoding/base64"
	"fmt"
	"path"
	"strings"

	"github.com/cardpress/cardpress/internal/archive"
	"github.com/cardpress/cardpress/internal/photo"
	"github.com/cardpress/cardpress/internal/roster"
)

// Severity classifies a reconciliation issue. Only error-severity issues
// block batch validity; warnings are advisory.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Issue is one problem found during a reconciliation pass.
type Issue struct {
	Severity   Severity `json:"severity"`
	EmployeeID string   `json:"employeeId,omitempty"`
	FileName   string   `json:"fileName,omitempty"`
	Message    string   `json:"message"`
}

// Match records one employee-to-photo pairing.
type Match struct {
	EmployeeID string `json:"employeeId"`
	FileName   string `json:"fileName"`
}

// Result is the complete outcome of one reconciliation pass.
type Result struct {
	Matches            []Match  `json:"matches"`
	Issues             []Issue  `json:"issues"`
	TotalEmployees     int      `json:"totalEmployees"`
	TotalImages        int      `json:"totalImages"`
	MissingEmployeeIDs []string `json:"missingEmployeeIds"`
	Valid              bool     `json:"valid"`
}

// Clone returns a deep copy of the result for handing to concurrent readers.
func (r *Result) Clone() *Result {
	if r == nil {
		return nil
	}
	out := *r
	out.Matches = append([]Match(nil), r.Matches...)
	out.Issues = make([]Issue, len(r.Issues))
	copy(out.Issues, r.Issues)
	out.MissingEmployeeIDs = append([]string(nil), r.MissingEmployeeIDs...)
	return &out
}

// ProgressFunc receives per-employee progress during a pass. processed counts
// employees attempted so far; total is the employee count for the pass.
type ProgressFunc func(processed, total int, employeeID string)

// Options tunes one reconciliation pass. Zero-value Options uses the
// passthrough processor and the default image policy.
type Options struct {
	Processor photo.Processor
	Policy    ImagePolicy
	Progress  ProgressFunc
}

// Run reconciles employees against archive entries.
//
// Matching is exact and case-sensitive: an entry pairs with an employee only
// when its filename minus extension is byte-for-byte equal to the employee ID.
// An employee matched by more than one entry gets an error issue and no match;
// entries matched by no employee become warning-severity orphans. Matched
// photos are decoded, policy-checked, post-processed and stored on the
// employee as base64. Every pass starts by clearing previously assigned
// photos so re-running over the same inputs is idempotent. A canceled
// context aborts the pass and returns nil.
func Run(ctx context.Context, employees []*roster.Employee, entries []archive.Entry, opts Options) *Result {
	if opts.Processor == nil {
		opts.Processor = photo.Passthrough{}
	}
	if opts.Policy.isZero() {
		opts.Policy = DefaultPolicy()
	}

	res := &Result{
		Matches:        []Match{},
		Issues:         []Issue{},
		TotalEmployees: len(employees),
		TotalImages:    len(entries),
	}

	// Index entries by filename stem. The stem keeps its original case.
	byStem := make(map[string][]int, len(entries))
	for i, e := range entries {
		stem := strings.TrimSuffix(e.FileName, path.Ext(e.FileName))
		byStem[stem] = append(byStem[stem], i)
	}

	claimed := make([]bool, len(entries))
	for n, emp := range employees {
		if ctx.Err() != nil {
			return nil
		}
		emp.PhotoBase64 = ""

		candidates := byStem[emp.ID]
		switch {
		case len(candidates) == 0:
			res.MissingEmployeeIDs = append(res.MissingEmployeeIDs, emp.ID)
			res.Issues = append(res.Issues, Issue{
				Severity:   SeverityError,
				EmployeeID: emp.ID,
				Message:    fmt.Sprintf("no photo found for employee %s", emp.ID),
			})

		case len(candidates) > 1:
			// The candidates belong to this employee, just ambiguously;
			// claiming them keeps the orphan loop honest.
			names := make([]string, len(candidates))
			for i, c := range candidates {
				names[i] = entries[c].FileName
				claimed[c] = true
			}
			res.Issues = append(res.Issues, Issue{
				Severity:   SeverityError,
				EmployeeID: emp.ID,
				Message:    fmt.Sprintf("ambiguous photos for employee %s: %s", emp.ID, strings.Join(names, ", ")),
			})

		default:
			entry := entries[candidates[0]]
			claimed[candidates[0]] = true
			matchOne(ctx, emp, entry, opts, res)
		}

		if opts.Progress != nil {
			opts.Progress(n+1, len(employees), emp.ID)
		}
	}

	// Orphans come after the employee loop so issue order is stable:
	// per-employee issues in roster order, then unclaimed files in
	// archive order.
	for i, e := range entries {
		if !claimed[i] {
			res.Issues = append(res.Issues, Issue{
				Severity: SeverityWarning,
				FileName: e.FileName,
				Message:  fmt.Sprintf("photo %q does not match any employee", e.FileName),
			})
		}
	}

	res.Valid = isValid(res)
	return res
}

// matchOne validates, post-processes and stores one matched photo.
func matchOne(ctx context.Context, emp *roster.Employee, entry archive.Entry, opts Options, res *Result) {
	warnings, err := checkImage(entry.Data, opts.Policy)
	if err != nil {
		res.Issues = append(res.Issues, Issue{
			Severity:   SeverityError,
			EmployeeID: emp.ID,
			FileName:   entry.FileName,
			Message:    fmt.Sprintf("photo %q is not a readable image: %v", entry.FileName, err),
		})
		return
	}
	for _, w := range warnings {
		res.Issues = append(res.Issues, Issue{
			Severity:   SeverityWarning,
			EmployeeID: emp.ID,
			FileName:   entry.FileName,
			Message:    w,
		})
	}

	// Processor failure degrades to the raw photo; the match survives.
	stored := entry.Data
	if processed, err := opts.Processor.Process(ctx, emp.ID, entry.Data); err != nil {
		res.Issues = append(res.Issues, Issue{
			Severity:   SeverityWarning,
			EmployeeID: emp.ID,
			FileName:   entry.FileName,
			Message:    fmt.Sprintf("photo post-processing failed, using original image: %v", err),
		})
	} else {
		stored = processed
	}

	emp.PhotoBase64 = base64.StdEncoding.EncodeToString(stored)
	res.Matches = append(res.Matches, Match{EmployeeID: emp.ID, FileName: entry.FileName})
}

// isValid is the single validity rule: every employee has exactly one match
// and nothing error-severity happened.
func isValid(res *Result) bool {
	if len(res.Matches) != res.TotalEmployees {
		return false
	}
	for _, iss := range res.Issues {
		if iss.Severity == SeverityError {
			return false
		}
	}
	return true
}
