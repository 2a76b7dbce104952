package workflow

import "fmt"

// WorkflowError reports an unexpected failure during a workflow run. Failures
// local to one server, one tool call or one parse attempt never surface as a
// WorkflowError; only faults that abort the run do.
type WorkflowError struct {
	// Workflow identifies the run.
	Workflow string
	// Stage names the phase that failed (init, round, completion).
	Stage string
	// Err is the underlying cause.
	Err error
}

// Error implements the error interface.
func (e *WorkflowError) Error() string {
	return fmt.Sprintf("workflow %s failed during %s: %v", e.Workflow, e.Stage, e.Err)
}

// Unwrap returns the wrapped error.
func (e *WorkflowError) Unwrap() error { return e.Err }

func newWorkflowError(workflow, stage string, err error) *WorkflowError {
	return &WorkflowError{Workflow: workflow, Stage: stage, Err: err}
}
