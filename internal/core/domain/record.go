package domain

import "time"

// StepStatus is the lifecycle status of a step within a run.
type StepStatus string

const (
	// StatusPending indicates the step has not started.
	StatusPending StepStatus = "Pending"
	// StatusRunning indicates the step's action is executing.
	StatusRunning StepStatus = "Running"
	// StatusSucceeded indicates the action completed successfully.
	StatusSucceeded StepStatus = "Succeeded"
	// StatusSkipped indicates the idempotency check found the step's effect
	// already present, so the action was not executed.
	StatusSkipped StepStatus = "SkippedAlreadySatisfied"
	// StatusFailed indicates the action failed or timed out.
	StatusFailed StepStatus = "Failed"
	// StatusBlocked indicates a transitive dependency failed under the
	// continue-independent policy, so the step was not attempted.
	StatusBlocked StepStatus = "Blocked"
)

// Terminal reports whether the status is final for this run. Failed and
// Blocked steps are re-attempted on the next run; Succeeded and Skipped
// steps are not.
func (s StepStatus) Terminal() bool {
	switch s {
	case StatusSucceeded, StatusSkipped, StatusFailed, StatusBlocked:
		return true
	}
	return false
}

// Satisfied reports whether a persisted status lets a later run skip the
// step entirely.
func (s StepStatus) Satisfied() bool {
	return s == StatusSucceeded || s == StatusSkipped
}

// ExecutionRecord is the persisted outcome of one step. A Succeeded or
// Skipped record is final and lets later runs skip the step; a Failed or
// Blocked record is superseded when the next run re-attempts the step.
// Records are replaced whole, never edited in place.
type ExecutionRecord struct {
	StepID     string     `json:"step_id"`
	Status     StepStatus `json:"status"`
	StartedAt  time.Time  `json:"started_at,omitzero"`
	FinishedAt time.Time  `json:"finished_at,omitzero"`
	ExitCode   int        `json:"exit_code"`
	OutputTail string     `json:"output_tail,omitempty"`
	Error      string     `json:"error,omitempty"`
}

// State maps step identifiers to their latest execution record. It is owned
// by the state store; the engine reads it at the start of a run and routes
// every transition back through the store.
type State struct {
	Records map[string]ExecutionRecord `json:"records"`
}

// NewState returns an empty provisioning state.
func NewState() *State {
	return &State{Records: make(map[string]ExecutionRecord)}
}

// Record returns the record for a step id and whether one exists.
func (s *State) Record(id string) (ExecutionRecord, bool) {
	rec, ok := s.Records[id]
	return rec, ok
}

// Set stores a record, replacing any previous one for the same step.
func (s *State) Set(rec ExecutionRecord) {
	if s.Records == nil {
		s.Records = make(map[string]ExecutionRecord)
	}
	s.Records[rec.StepID] = rec
}
