package agent

import (
	"errors"
	"fmt"
)

var (
	// ErrContextGather means history or knowledge retrieval failed
	ErrContextGather = errors.New("context gathering failed")
	// ErrTransport means the model could not be reached
	ErrTransport = errors.New("model transport failed")
	// ErrSessionSetup means the agent could not be prepared for a dialog
	ErrSessionSetup  = errors.New("session setup failed")
	ErrAgentNotFound = errors.New("agent not found")
)

// Stage names the dispatcher state a turn failed in
type Stage string

const (
	StageContextGather Stage = "context_gather"
	StageStrategyExec  Stage = "strategy_exec"
	StageToolResolve   Stage = "tool_resolve"
	StageStream        Stage = "stream"
)

// DispatchError is the single error a caller sees when a turn aborts
type DispatchError struct {
	Stage Stage
	Err   error
}

func (e *DispatchError) Error() string {
	return fmt.Sprintf("dispatch %s: %v", e.Stage, e.Err)
}

func (e *DispatchError) Unwrap() error {
	return e.Err
}

func contextGatherError(err error) error {
	return &DispatchError{Stage: StageContextGather, Err: fmt.Errorf("%w: %w", ErrContextGather, err)}
}

func transportError(stage Stage, err error) error {
	return &DispatchError{Stage: stage, Err: fmt.Errorf("%w: %w", ErrTransport, err)}
}
