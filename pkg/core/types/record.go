package types

import "time"

// ExecutionStatus is the lifecycle state of one tool invocation.
type ExecutionStatus string

const (
	StatusPending   ExecutionStatus = "pending"
	StatusExecuting ExecutionStatus = "executing"
	StatusSuccess   ExecutionStatus = "success"
	StatusFailed    ExecutionStatus = "failed"
	StatusTimeout   ExecutionStatus = "timeout"
)

// Terminal reports whether the status is a terminal state.
func (s ExecutionStatus) Terminal() bool {
	switch s {
	case StatusSuccess, StatusFailed, StatusTimeout:
		return true
	default:
		return false
	}
}

// ToolExecutionRecord tracks one tool invocation from dispatch to its
// single terminal state. A record is owned by the turn that created it and
// is never resurrected after reaching a terminal status.
type ToolExecutionRecord struct {
	ToolName  string          `json:"tool_name"`
	ToolID    string          `json:"tool_id"`
	Status    ExecutionStatus `json:"status"`
	Input     map[string]any  `json:"input,omitempty"`
	Result    string          `json:"result,omitempty"`
	Err       string          `json:"error,omitempty"`
	StartedAt time.Time       `json:"started_at"`
	EndedAt   time.Time       `json:"ended_at,omitzero"`
}

// NewExecutionRecord creates a record in the pending state.
func NewExecutionRecord(call ToolCall) *ToolExecutionRecord {
	return &ToolExecutionRecord{
		ToolName:  call.Name,
		ToolID:    call.ID,
		Status:    StatusPending,
		Input:     call.Input,
		StartedAt: time.Now(),
	}
}

// MarkExecuting transitions a pending record to executing.
func (r *ToolExecutionRecord) MarkExecuting() {
	if r.Status == StatusPending {
		r.Status = StatusExecuting
	}
}

// Finish moves the record to a terminal status. Later transitions are
// ignored so a record ends exactly once.
func (r *ToolExecutionRecord) Finish(status ExecutionStatus, result, errMsg string) {
	if r.Status.Terminal() || !status.Terminal() {
		return
	}
	r.Status = status
	r.Result = result
	r.Err = errMsg
	r.EndedAt = time.Now()
}

// ResultMessage converts the record into the tool message fed back to the
// model. Failures and timeouts carry their spoken-safe text in Result.
func (r *ToolExecutionRecord) ResultMessage() Message {
	return ToolResultMessage(r.ToolID, r.ToolName, r.Result)
}
