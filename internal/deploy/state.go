// Package deploy implements spec.md §4.J: the asynchronous, bounded-
// concurrency task scheduler that drives the exported graph through its CRUD
// state machine. Grounded on the teacher's goroutine-based test runner
// (internal/interp's fixture harness dispatches fixtures across worker
// goroutines) for the overall worker-pool shape, generalized with
// golang.org/x/sync's errgroup+semaphore pair — exactly the library the
// teacher's own go.mod already carries for this — to get per-task
// cancellation propagation and a parallelism cap without hand-rolled
// channel plumbing.
package deploy

import (
	"github.com/kazaamjt/eikobot/internal/diag"
	"github.com/kazaamjt/eikobot/internal/export"
)

// Status is one state of spec.md §4.J's per-task state machine.
type Status int

const (
	Pending Status = iota
	Ready
	Running
	Deployed
	Failed
	Skipped
)

func (s Status) String() string {
	switch s {
	case Pending:
		return "Pending"
	case Ready:
		return "Ready"
	case Running:
		return "Running"
	case Deployed:
		return "Deployed"
	case Failed:
		return "Failed"
	case Skipped:
		return "Skipped"
	default:
		return "?"
	}
}

// TaskState is one task's accumulated outcome: its terminal status, the
// error that produced it (if any), and its change set. Log is not filled by
// Deployer.Run: handler log lines go straight to the deployer's Logger.
type TaskState struct {
	Task    *export.Task
	Status  Status
	Err     error
	Changes map[string]string
	Log     []diag.LogLine
}
