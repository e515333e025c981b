// Package supervisor composes the relay flows into the four CLI modes
// spec.md §4.C10 describes and owns their shared lifetime: first error
// cancels every sibling, and a cancelled task is distinguished from a
// faulted one at the join point.
package supervisor

import (
	"context"
	"errors"
	"fmt"

	"github.com/btcsuite/btclog"
	"golang.org/x/sync/errgroup"
)

var supervisorLog = btclog.Disabled

// UseLogger sets the package-wide logger used by supervisor.
func UseLogger(logger btclog.Logger) {
	supervisorLog = logger
}

// Mode selects which subset of flows a relayer process runs.
type Mode int

const (
	ModePOA Mode = iota
	ModeSidechain
	ModeOnemoney
	ModeAll
)

func (m Mode) String() string {
	switch m {
	case ModePOA:
		return "poa"
	case ModeSidechain:
		return "sidechain"
	case ModeOnemoney:
		return "onemoney"
	case ModeAll:
		return "all"
	default:
		return "unknown"
	}
}

// Task is a single named flow's Run method, e.g. (*flows.DepositFlow).Run.
type Task struct {
	Name string
	Run  func(ctx context.Context) error
}

// Supervisor runs a set of tasks concurrently under one cancellation scope.
type Supervisor struct {
	tasks []Task
}

// New builds a Supervisor over the given tasks.
func New(tasks ...Task) *Supervisor {
	return &Supervisor{tasks: tasks}
}

// Run starts every task and blocks until either all complete, or one
// returns a non-nil error that is not context.Canceled — at which point
// every other task's context is cancelled and Run returns the triggering
// error (spec.md §4.C10: "first error aborts siblings and propagates").
func (s *Supervisor) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	for _, task := range s.tasks {
		task := task
		g.Go(func() error {
			err := task.Run(gctx)
			if err == nil {
				supervisorLog.Infof("task %s completed", task.Name)
				return nil
			}
			if errors.Is(err, context.Canceled) {
				supervisorLog.Debugf("task %s cancelled", task.Name)
				return nil
			}
			supervisorLog.Errorf("task %s faulted: %v", task.Name, err)
			return fmt.Errorf("supervisor: task %s: %w", task.Name, err)
		})
	}

	return g.Wait()
}
