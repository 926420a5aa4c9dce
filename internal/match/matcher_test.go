package match

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image"
	"image/png"
	"strings"
	"testing"

	"github.com/cardpress/cardpress/internal/archive"
	"github.com/cardpress/cardpress/internal/roster"
)

// pngBytes renders a blank PNG of the given dimensions.
func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h))); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func employees(ids ...string) []*roster.Employee {
	emps := make([]*roster.Employee, len(ids))
	for i, id := range ids {
		emps[i] = &roster.Employee{ID: id, Name: "Employee " + id}
	}
	return emps
}

func errorIssues(res *Result) []Issue {
	var out []Issue
	for _, iss := range res.Issues {
		if iss.Severity == SeverityError {
			out = append(out, iss)
		}
	}
	return out
}

func TestRun_AllMatched(t *testing.T) {
	photo := pngBytes(t, 300, 400)
	emps := employees("24EMP001", "24EMP002")
	entries := []archive.Entry{
		{FileName: "24EMP001.png", Data: photo},
		{FileName: "24EMP002.png", Data: photo},
	}

	res := Run(context.Background(), emps, entries, Options{})

	if len(res.Matches) != 2 {
		t.Fatalf("Matches = %d, want 2", len(res.Matches))
	}
	if !res.Valid {
		t.Errorf("Valid = false, issues = %v", res.Issues)
	}
	if res.TotalEmployees != 2 || res.TotalImages != 2 {
		t.Errorf("totals = %d/%d", res.TotalEmployees, res.TotalImages)
	}

	want := base64.StdEncoding.EncodeToString(photo)
	for _, emp := range emps {
		if emp.PhotoBase64 != want {
			t.Errorf("employee %s photo not assigned", emp.ID)
		}
	}
}

func TestRun_MatchingIsCaseSensitive(t *testing.T) {
	emps := employees("24EMP001")
	entries := []archive.Entry{
		{FileName: "24emp001.png", Data: pngBytes(t, 300, 400)},
	}

	res := Run(context.Background(), emps, entries, Options{})

	if len(res.Matches) != 0 {
		t.Fatalf("Matches = %v, want none (case differs)", res.Matches)
	}
	if len(res.MissingEmployeeIDs) != 1 || res.MissingEmployeeIDs[0] != "24EMP001" {
		t.Errorf("MissingEmployeeIDs = %v", res.MissingEmployeeIDs)
	}
	if res.Valid {
		t.Error("Valid = true, want false")
	}
	// The unmatched file is reported as an orphan alongside the missing
	// employee, so the user sees both halves of the near-miss.
	var orphan bool
	for _, iss := range res.Issues {
		if iss.Severity == SeverityWarning && iss.FileName == "24emp001.png" {
			orphan = true
		}
	}
	if !orphan {
		t.Errorf("Issues = %v, want orphan warning for 24emp001.png", res.Issues)
	}
}

func TestRun_AmbiguousPhotos(t *testing.T) {
	emps := employees("24EMP001")
	entries := []archive.Entry{
		{FileName: "24EMP001.png", Data: pngBytes(t, 300, 400)},
		{FileName: "24EMP001.jpg", Data: pngBytes(t, 300, 400)},
	}

	res := Run(context.Background(), emps, entries, Options{})

	if len(res.Matches) != 0 {
		t.Fatalf("Matches = %v, want none for ambiguous stem", res.Matches)
	}
	errs := errorIssues(res)
	if len(errs) != 1 || !strings.Contains(errs[0].Message, "ambiguous") {
		t.Errorf("error issues = %v, want one ambiguity error", errs)
	}
	// Ambiguous candidates belong to an employee; they must not also be
	// reported as orphans.
	if len(res.Issues) != 1 {
		t.Errorf("Issues = %v, want the ambiguity error only", res.Issues)
	}
	if emps[0].PhotoBase64 != "" {
		t.Error("ambiguous employee must not receive a photo")
	}
	if res.Valid {
		t.Error("Valid = true, want false")
	}
}

func TestRun_OrphanIsWarningOnly(t *testing.T) {
	emps := employees("24EMP001")
	entries := []archive.Entry{
		{FileName: "24EMP001.png", Data: pngBytes(t, 300, 400)},
		{FileName: "stray.png", Data: pngBytes(t, 300, 400)},
	}

	res := Run(context.Background(), emps, entries, Options{})

	if !res.Valid {
		t.Errorf("Valid = false, orphans must not block validity: %v", res.Issues)
	}
	if len(res.Issues) != 1 || res.Issues[0].FileName != "stray.png" {
		t.Errorf("Issues = %v, want single orphan warning", res.Issues)
	}
}

func TestRun_PolicyViolationsAreWarnings(t *testing.T) {
	emps := employees("24EMP001")
	entries := []archive.Entry{
		// Tiny and landscape: below min size and outside portrait range.
		{FileName: "24EMP001.png", Data: pngBytes(t, 200, 100)},
	}

	res := Run(context.Background(), emps, entries, Options{})

	if len(res.Matches) != 1 {
		t.Fatalf("Matches = %d, want 1 despite quality warnings", len(res.Matches))
	}
	if !res.Valid {
		t.Errorf("Valid = false, warnings must not block validity: %v", res.Issues)
	}

	var sizeWarn, aspectWarn bool
	for _, iss := range res.Issues {
		if iss.Severity != SeverityWarning {
			t.Errorf("unexpected severity: %v", iss)
		}
		if strings.Contains(iss.Message, "below the recommended minimum") {
			sizeWarn = true
		}
		if strings.Contains(iss.Message, "aspect ratio") {
			aspectWarn = true
		}
	}
	if !sizeWarn || !aspectWarn {
		t.Errorf("Issues = %v, want size and aspect warnings", res.Issues)
	}
}

func TestRun_UnreadableImage(t *testing.T) {
	emps := employees("24EMP001")
	entries := []archive.Entry{
		{FileName: "24EMP001.png", Data: []byte("not an image")},
	}

	res := Run(context.Background(), emps, entries, Options{})

	if len(res.Matches) != 0 {
		t.Fatalf("Matches = %v, want none for undecodable photo", res.Matches)
	}
	errs := errorIssues(res)
	if len(errs) != 1 || !strings.Contains(errs[0].Message, "not a readable image") {
		t.Errorf("error issues = %v", errs)
	}
	if res.Valid {
		t.Error("Valid = true, want false")
	}
}

// stubProcessor lets tests control post-processing outcomes.
type stubProcessor struct {
	out []byte
	err error
}

func (p stubProcessor) Process(_ context.Context, _ string, img []byte) ([]byte, error) {
	if p.err != nil {
		return nil, p.err
	}
	return p.out, nil
}

func TestRun_ProcessorOutputStored(t *testing.T) {
	emps := employees("24EMP001")
	entries := []archive.Entry{
		{FileName: "24EMP001.png", Data: pngBytes(t, 300, 400)},
	}
	processed := []byte("cleaned-image-bytes")

	res := Run(context.Background(), emps, entries, Options{
		Processor: stubProcessor{out: processed},
	})

	if !res.Valid {
		t.Fatalf("Valid = false: %v", res.Issues)
	}
	if emps[0].PhotoBase64 != base64.StdEncoding.EncodeToString(processed) {
		t.Error("stored photo is not the processed output")
	}
}

func TestRun_ProcessorFailureFallsBack(t *testing.T) {
	raw := pngBytes(t, 300, 400)
	emps := employees("24EMP001")
	entries := []archive.Entry{{FileName: "24EMP001.png", Data: raw}}

	res := Run(context.Background(), emps, entries, Options{
		Processor: stubProcessor{err: fmt.Errorf("service unavailable")},
	})

	if len(res.Matches) != 1 {
		t.Fatalf("Matches = %d, want match to survive processor failure", len(res.Matches))
	}
	if !res.Valid {
		t.Errorf("Valid = false, processor failure is a warning: %v", res.Issues)
	}
	if emps[0].PhotoBase64 != base64.StdEncoding.EncodeToString(raw) {
		t.Error("fallback photo should be the original bytes")
	}
	var warned bool
	for _, iss := range res.Issues {
		if iss.Severity == SeverityWarning && strings.Contains(iss.Message, "post-processing failed") {
			warned = true
		}
	}
	if !warned {
		t.Errorf("Issues = %v, want post-processing warning", res.Issues)
	}
}

func TestRun_ClearsStalePhotos(t *testing.T) {
	emps := employees("24EMP001")
	emps[0].PhotoBase64 = "stale-from-previous-pass"

	res := Run(context.Background(), emps, []archive.Entry{
		{FileName: "other.png", Data: pngBytes(t, 300, 400)},
	}, Options{})

	if emps[0].PhotoBase64 != "" {
		t.Error("stale photo survived a pass with no match")
	}
	if res.Valid {
		t.Error("Valid = true, want false")
	}
}

func TestRun_Idempotent(t *testing.T) {
	photo := pngBytes(t, 300, 400)
	emps := employees("24EMP001")
	entries := []archive.Entry{{FileName: "24EMP001.png", Data: photo}}

	first := Run(context.Background(), emps, entries, Options{})
	second := Run(context.Background(), emps, entries, Options{})

	if len(first.Matches) != len(second.Matches) ||
		len(first.Issues) != len(second.Issues) ||
		first.Valid != second.Valid {
		t.Errorf("re-running over same inputs diverged: %+v vs %+v", first, second)
	}
	if emps[0].PhotoBase64 != base64.StdEncoding.EncodeToString(photo) {
		t.Error("photo lost on second pass")
	}
}

func TestRun_ProgressOrder(t *testing.T) {
	photo := pngBytes(t, 300, 400)
	emps := employees("24EMP003", "24EMP001", "24EMP002")
	entries := []archive.Entry{{FileName: "24EMP001.png", Data: photo}}

	var seen []string
	var counts []int
	Run(context.Background(), emps, entries, Options{
		Progress: func(processed, total int, employeeID string) {
			if total != 3 {
				t.Errorf("total = %d, want 3", total)
			}
			counts = append(counts, processed)
			seen = append(seen, employeeID)
		},
	})

	if len(seen) != 3 {
		t.Fatalf("progress calls = %d, want 3", len(seen))
	}
	for i, id := range []string{"24EMP003", "24EMP001", "24EMP002"} {
		if seen[i] != id {
			t.Errorf("progress[%d] = %s, want roster order %s", i, seen[i], id)
		}
		if counts[i] != i+1 {
			t.Errorf("processed[%d] = %d, want %d", i, counts[i], i+1)
		}
	}
}

func TestResultClone(t *testing.T) {
	res := &Result{
		Matches:            []Match{{EmployeeID: "A", FileName: "A.png"}},
		Issues:             []Issue{{Severity: SeverityWarning, Message: "w"}},
		MissingEmployeeIDs: []string{"B"},
		TotalEmployees:     2,
		TotalImages:        1,
	}

	clone := res.Clone()
	clone.Matches[0].EmployeeID = "X"
	clone.Issues[0].Message = "changed"
	clone.MissingEmployeeIDs[0] = "Y"

	if res.Matches[0].EmployeeID != "A" || res.Issues[0].Message != "w" || res.MissingEmployeeIDs[0] != "B" {
		t.Error("mutating clone leaked into original")
	}
}
