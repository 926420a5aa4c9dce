// Package session holds the single in-memory batch a browser session works
// on: the parsed roster, the retained photo archive, and the latest
// reconciliation result. Nothing is persisted; closing the server discards
// the batch.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/cardpress/cardpress/internal/archive"
	"github.com/cardpress/cardpress/internal/match"
	"github.com/cardpress/cardpress/internal/photo"
	"github.com/cardpress/cardpress/internal/roster"
)

// PassTimeout bounds one reconciliation pass.
var PassTimeout = 5 * time.Minute

// Phase is the lifecycle stage reported in progress events.
type Phase string

const (
	PhaseStarting Phase = "starting"
	PhaseMatching Phase = "matching"
	PhaseComplete Phase = "complete"
	PhaseFailed   Phase = "failed"
)

// State is the coarse batch state reported to the UI.
type State string

const (
	// StateEmpty: no roster loaded yet.
	StateEmpty State = "empty"
	// StateRoster: roster loaded, no archive yet, nothing to reconcile.
	StateRoster State = "roster"
	// StateReconciling: a pass is running; the visible snapshot is the
	// previous committed one.
	StateReconciling State = "reconciling"
	// StateReady: a pass has committed; snapshot is current.
	StateReady State = "ready"
)

// Progress is one reconciliation progress event.
type Progress struct {
	PassID     string `json:"passId"`
	Phase      Phase  `json:"phase"`
	Processed  int    `json:"processed"`
	Total      int    `json:"total"`
	EmployeeID string `json:"employeeId,omitempty"`
	Error      string `json:"error,omitempty"`
}

// Snapshot is an atomic view of the batch: the roster and the reconciliation
// result always come from the same committed pass (Result is nil before the
// first one). Both are deep copies; callers may read them without locking.
type Snapshot struct {
	State       State                `json:"state"`
	RosterName  string               `json:"rosterName,omitempty"`
	ArchiveName string               `json:"archiveName,omitempty"`
	Parsed      *roster.ParsedResult `json:"parsed,omitempty"`
	Result      *match.Result        `json:"result,omitempty"`
}

// Batch operation errors surfaced to the API layer.
var (
	ErrNoRoster  = errors.New("no roster loaded")
	ErrNoArchive = errors.New("no photo archive loaded")
)

// Controller owns the batch and serializes all mutations. Reconciliation
// passes run in the background; when inputs change mid-pass the newest pass
// wins and stale passes are discarded on completion.
type Controller struct {
	processor photo.Processor
	policy    match.ImagePolicy
	log       *slog.Logger

	mu          sync.RWMutex
	parsed      *roster.ParsedResult
	result      *match.Result
	rosterName  string
	archiveName string
	archiveData []byte
	reconciling bool

	// generation identifies the newest pass. A completing pass commits
	// only when its generation still matches; anything older is stale.
	generation uint64

	listenerMu sync.Mutex
	listeners  map[string]chan Progress
}

// New creates an empty batch controller.
func New(processor photo.Processor, policy match.ImagePolicy, log *slog.Logger) *Controller {
	if processor == nil {
		processor = photo.Passthrough{}
	}
	return &Controller{
		processor: processor,
		policy:    policy,
		log:       log,
		listeners: make(map[string]chan Progress),
	}
}

// LoadRoster parses a roster file and replaces the batch's employee data.
// A fatal parse error leaves the existing batch untouched. When a photo
// archive is already loaded, a fresh reconciliation pass starts immediately.
func (c *Controller) LoadRoster(filename string, data []byte) (*roster.ParsedResult, error) {
	parsed, err := roster.Parse(filename, data)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.parsed = parsed
	c.rosterName = filename
	c.result = nil
	hasArchive := c.archiveData != nil
	if hasArchive {
		c.startPassLocked()
	} else {
		c.reconciling = false
	}
	c.mu.Unlock()

	c.log.Info("roster loaded",
		"file", filename,
		"employees", len(parsed.Employees),
		"invalidRows", len(parsed.InvalidRows),
		"reconciling", hasArchive,
	)
	return parsed.Clone(), nil
}

// LoadArchive validates and retains a photo archive, then starts a
// reconciliation pass. A fatal extraction error (unreadable zip, no images)
// leaves the existing batch untouched. Requires a loaded roster.
func (c *Controller) LoadArchive(filename string, data []byte) error {
	c.mu.RLock()
	hasRoster := c.parsed != nil
	c.mu.RUnlock()
	if !hasRoster {
		return ErrNoRoster
	}

	// Validate up front so bad archives never replace a good one.
	entries, _, err := archive.Extract(data)
	if err != nil {
		return err
	}

	c.mu.Lock()
	if c.parsed == nil {
		c.mu.Unlock()
		return ErrNoRoster
	}
	c.archiveData = data
	c.archiveName = filename
	c.startPassLocked()
	c.mu.Unlock()

	c.log.Info("archive loaded", "file", filename, "images", len(entries))
	return nil
}

// Rematch forces a fresh reconciliation pass over the current inputs.
func (c *Controller) Rematch() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.parsed == nil {
		return ErrNoRoster
	}
	if c.archiveData == nil {
		return ErrNoArchive
	}
	c.startPassLocked()
	return nil
}

// UpdateEmployee applies a single-field edit to one employee. Edits are
// validated with the same rules as parsing and rejected wholesale on
// failure. Any edit while an archive is loaded triggers a fresh pass, since
// even non-ID fields may have been fixed in response to a warning.
func (c *Controller) UpdateEmployee(employeeID, field, value string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.parsed == nil {
		return ErrNoRoster
	}

	var target *roster.Employee
	for _, emp := range c.parsed.Employees {
		if emp.ID == employeeID {
			target = emp
			break
		}
	}
	if target == nil {
		return fmt.Errorf("employee %q not found", employeeID)
	}

	if field == roster.FieldID && value != employeeID {
		for _, emp := range c.parsed.Employees {
			if emp.ID == value {
				return fmt.Errorf("employee ID %q already exists", value)
			}
		}
	}

	if err := roster.ApplyField(target, field, value); err != nil {
		return err
	}

	// The pre-edit result no longer describes this roster. Readers see the
	// pair go away together; the fresh pass commits a new one.
	c.result = nil

	c.log.Info("employee updated", "employee", target.ID, "field", field)

	if c.archiveData != nil {
		c.startPassLocked()
	}
	return nil
}

// Snapshot returns the current atomic view of the batch.
func (c *Controller) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()

	snap := Snapshot{
		State:       StateEmpty,
		RosterName:  c.rosterName,
		ArchiveName: c.archiveName,
		Parsed:      c.parsed.Clone(),
		Result:      c.result.Clone(),
	}
	switch {
	case c.parsed == nil:
	case c.reconciling:
		snap.State = StateReconciling
	case c.result != nil:
		snap.State = StateReady
	default:
		snap.State = StateRoster
	}
	return snap
}

// Subscribe registers a progress listener. The returned cancel func must be
// called when the listener goes away. Slow listeners drop events rather
// than stall a pass.
func (c *Controller) Subscribe() (<-chan Progress, func()) {
	ch := make(chan Progress, 16)
	id := uuid.New().String()

	c.listenerMu.Lock()
	c.listeners[id] = ch
	c.listenerMu.Unlock()

	return ch, func() {
		c.listenerMu.Lock()
		delete(c.listeners, id)
		c.listenerMu.Unlock()
	}
}

func (c *Controller) notify(p Progress) {
	c.listenerMu.Lock()
	defer c.listenerMu.Unlock()

	for _, ch := range c.listeners {
		select {
		case ch <- p:
		default:
			// Listener is slow, skip this update.
		}
	}
}

// startPassLocked launches a reconciliation pass for the current inputs.
// Caller holds c.mu. The pass works on a clone of the roster; the live
// batch stays readable and unchanged until the pass commits.
func (c *Controller) startPassLocked() {
	c.generation++
	gen := c.generation
	passID := uuid.New().String()
	working := c.parsed.Clone()
	archiveData := c.archiveData
	c.reconciling = true

	go c.runPass(gen, passID, working, archiveData)
}

func (c *Controller) runPass(gen uint64, passID string, working *roster.ParsedResult, archiveData []byte) {
	ctx, cancel := context.WithTimeout(context.Background(), PassTimeout)
	defer cancel()

	start := time.Now()
	c.notify(Progress{PassID: passID, Phase: PhaseStarting, Total: len(working.Employees)})

	entries, warnings, err := archive.Extract(archiveData)
	if err != nil {
		// Archive bytes were validated at load time, so this is
		// unexpected. Fail the pass; the committed snapshot survives.
		c.log.Error("archive re-extraction failed", "pass", passID, "error", err)
		c.finishPass(gen, passID, nil, nil)
		c.notify(Progress{PassID: passID, Phase: PhaseFailed, Error: err.Error()})
		return
	}

	res := match.Run(ctx, working.Employees, entries, match.Options{
		Processor: c.processor,
		Policy:    c.policy,
		Progress: func(processed, total int, employeeID string) {
			if !c.isCurrent(gen) {
				return
			}
			c.notify(Progress{
				PassID:     passID,
				Phase:      PhaseMatching,
				Processed:  processed,
				Total:      total,
				EmployeeID: employeeID,
			})
		},
	})

	if res == nil {
		c.log.Warn("pass aborted", "pass", passID, "error", ctx.Err())
		c.finishPass(gen, passID, nil, nil)
		c.notify(Progress{PassID: passID, Phase: PhaseFailed, Error: "reconciliation pass timed out"})
		return
	}

	for _, w := range warnings {
		res.Issues = append(res.Issues, match.Issue{
			Severity: match.SeverityWarning,
			Message:  w,
		})
	}

	committed := c.finishPass(gen, passID, working, res)
	if !committed {
		c.log.Info("stale pass discarded", "pass", passID)
		return
	}

	c.log.Info("reconciliation pass committed",
		"pass", passID,
		"matches", len(res.Matches),
		"issues", len(res.Issues),
		"valid", res.Valid,
		"duration", time.Since(start),
	)
	c.notify(Progress{
		PassID:    passID,
		Phase:     PhaseComplete,
		Processed: res.TotalEmployees,
		Total:     res.TotalEmployees,
	})
}

// finishPass commits a completed pass if it is still the newest one.
// The roster clone and result are installed together so readers never see
// a roster from one pass paired with a result from another.
func (c *Controller) finishPass(gen uint64, passID string, working *roster.ParsedResult, res *match.Result) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.generation {
		return false
	}
	c.reconciling = false
	if res == nil {
		return false
	}
	c.parsed = working
	c.result = res
	return true
}

func (c *Controller) isCurrent(gen uint64) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return gen == c.generation
}
