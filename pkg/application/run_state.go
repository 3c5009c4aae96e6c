package application

import (
	"fmt"

	"github.com/felixgeelhaar/statekit"
)

// Run lifecycle states.
const (
	StateLoading    = "loading"
	StatePlanning   = "planning"
	StateApplying   = "applying"
	StatePersisting = "persisting"
	StateCompleted  = "completed"
	StateFailed     = "failed"
)

// RunContext carries the run identifier through the machine.
type RunContext struct {
	RunID string
}

// RunStateMachine sequences one sync run. It exists to make illegal phase
// orders unrepresentable: a dry run finishes from planning, an apply run
// must pass through applying and persisting.
type RunStateMachine struct {
	interpreter *statekit.Interpreter[RunContext]
}

func NewRunStateMachine(runID string) (*RunStateMachine, error) {
	builder := statekit.NewMachine[RunContext]("sync-run").
		WithInitial(statekit.StateID(StateLoading)).
		WithContext(RunContext{RunID: runID})

	builder.State(StateLoading).
		On("plan").Target(StatePlanning).
		On("fail").Target(StateFailed).
		Done()

	builder.State(StatePlanning).
		On("apply").Target(StateApplying).
		On("preview").Target(StateCompleted).
		On("fail").Target(StateFailed).
		Done()

	builder.State(StateApplying).
		On("persist").Target(StatePersisting).
		On("fail").Target(StateFailed).
		Done()

	builder.State(StatePersisting).
		On("finish").Target(StateCompleted).
		On("fail").Target(StateFailed).
		Done()

	builder.State(StateCompleted).Done()
	builder.State(StateFailed).Done()

	machine, err := builder.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build run state machine: %w", err)
	}

	interpreter := statekit.NewInterpreter(machine)
	interpreter.Start()

	return &RunStateMachine{interpreter: interpreter}, nil
}

// Advance sends an event and fails if it produced no transition.
func (m *RunStateMachine) Advance(event string) error {
	before := m.Current()
	m.interpreter.Send(statekit.Event{Type: statekit.EventType(event)})
	if m.Current() == before {
		return fmt.Errorf("event %q is not valid in run state %q", event, before)
	}
	return nil
}

func (m *RunStateMachine) Current() string {
	return string(m.interpreter.State().Value)
}
