// Package saga models the compensation log of the order fulfillment workflow.
package saga

import (
	"context"
	"time"
)

type Action string

const (
	ActionReserve    Action = "reserve"
	ActionCompensate Action = "compensate"
)

type StepStatus string

const (
	StatusApplied            StepStatus = "applied"
	StatusFailed             StepStatus = "failed"
	StatusCompensated        StepStatus = "compensated"
	StatusCompensationFailed StepStatus = "compensation_failed"
)

// Step is one row of the compensation log. Rows are appended, never rewritten.
type Step struct {
	SagaID    string
	Seq       int
	ProductID string
	Delta     int
	Action    Action
	Status    StepStatus
	Reason    string
	At        time.Time
}

type Log interface {
	Append(ctx context.Context, s Step) error
	List(ctx context.Context, sagaID string) ([]Step, error)
}

// Compensation undoes one applied step.
type Compensation struct {
	ProductID string
	Delta     int
	Undo      func(ctx context.Context) error
}

// Result reports how a single compensation went.
type Result struct {
	Compensation
	Err error
}

// Execution tracks the undo stack of a running saga.
type Execution struct {
	ID    string
	seq   int
	stack []Compensation
}

func NewExecution(id string) *Execution {
	return &Execution{ID: id}
}

// NextSeq hands out monotonically increasing sequence numbers for log rows.
func (e *Execution) NextSeq() int {
	e.seq++
	return e.seq
}

func (e *Execution) Push(c Compensation) {
	e.stack = append(e.stack, c)
}

func (e *Execution) Pending() int { return len(e.stack) }

// Compensate runs every pushed compensation in reverse order, once each.
// A failing compensation does not stop the ones below it.
func (e *Execution) Compensate(ctx context.Context) []Result {
	results := make([]Result, 0, len(e.stack))
	for i := len(e.stack) - 1; i >= 0; i-- {
		c := e.stack[i]
		results = append(results, Result{Compensation: c, Err: c.Undo(ctx)})
	}
	e.stack = nil
	return results
}

// Failed reports whether any result carries an error.
func Failed(results []Result) bool {
	for _, r := range results {
		if r.Err != nil {
			return true
		}
	}
	return false
}
