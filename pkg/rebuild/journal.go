package rebuild

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"
)

// Status is the state of a journaled rebuild.
type Status string

// Rebuild states.
const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusFailed    Status = "failed"
	StatusCompleted Status = "completed"
)

// ErrRecordNotFound is returned by Journal.Load for an unknown id.
var ErrRecordNotFound = errors.New("rebuild not found")

// Record is the persisted progress of one plan.
type Record struct {
	Plan Plan

	// NextStep is the index of the first step not yet completed and
	// NextStatement the index of its first statement not yet applied.
	NextStep      int
	NextStatement int
	Status        Status
	LastError string
	UpdatedAt time.Time
}

// CurrentStep returns the name of the next step to run, or "" when done.
func (r Record) CurrentStep() string {
	if r.NextStep < 0 || r.NextStep >= len(r.Plan.Steps) {
		return ""
	}
	return r.Plan.Steps[r.NextStep].Name
}

// Journal persists rebuild progress.
type Journal interface {
	// Begin records a new plan with no completed steps.
	Begin(ctx context.Context, plan *Plan) error
	// Advance records that every step before step, and the first
	// statement statements of step, have been applied.
	Advance(ctx context.Context, id string, step, statement int) error
	// Fail records a failure at the current step.
	Fail(ctx context.Context, id string, cause error) error
	// Complete marks the plan as finished.
	Complete(ctx context.Context, id string) error
	// Load returns the record for id.
	Load(ctx context.Context, id string) (*Record, error)
	// List returns every record, newest first.
	List(ctx context.Context) ([]Record, error)
}

// MemoryJournal keeps records in memory. It is used when no state store is
// configured and in tests.
type MemoryJournal struct {
	mu      sync.Mutex
	records map[string]*Record
}

// NewMemoryJournal creates an empty journal.
func NewMemoryJournal() *MemoryJournal {
	return &MemoryJournal{records: make(map[string]*Record)}
}

// Begin implements Journal.
func (j *MemoryJournal) Begin(_ context.Context, plan *Plan) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if _, ok := j.records[plan.ID]; ok {
		return fmt.Errorf("rebuild %s already journaled", plan.ID)
	}
	j.records[plan.ID] = &Record{Plan: *plan, Status: StatusPending, UpdatedAt: time.Now().UTC()}
	return nil
}

// Advance implements Journal.
func (j *MemoryJournal) Advance(_ context.Context, id string, step, statement int) error {
	return j.update(id, func(r *Record) {
		r.NextStep = step
		r.NextStatement = statement
		r.Status = StatusRunning
		r.LastError = ""
	})
}

// Fail implements Journal.
func (j *MemoryJournal) Fail(_ context.Context, id string, cause error) error {
	return j.update(id, func(r *Record) {
		r.Status = StatusFailed
		if cause != nil {
			r.LastError = cause.Error()
		}
	})
}

// Complete implements Journal.
func (j *MemoryJournal) Complete(_ context.Context, id string) error {
	return j.update(id, func(r *Record) {
		r.NextStep = len(r.Plan.Steps)
		r.NextStatement = 0
		r.Status = StatusCompleted
		r.LastError = ""
	})
}

// Load implements Journal.
func (j *MemoryJournal) Load(_ context.Context, id string) (*Record, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	r, ok := j.records[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrRecordNotFound, id)
	}
	out := *r
	return &out, nil
}

// List implements Journal.
func (j *MemoryJournal) List(context.Context) ([]Record, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	out := make([]Record, 0, len(j.records))
	for _, r := range j.records {
		out = append(out, *r)
	}
	sort.Slice(out, func(a, b int) bool { return out[a].Plan.CreatedAt.After(out[b].Plan.CreatedAt) })
	return out, nil
}

func (j *MemoryJournal) update(id string, fn func(*Record)) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	r, ok := j.records[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrRecordNotFound, id)
	}
	fn(r)
	r.UpdatedAt = time.Now().UTC()
	return nil
}
