package models

// RunStatus is the state of one remote assistant run. A run processes
// exactly one user turn and moves through these states server-side; the
// local manager only observes and reacts.
type RunStatus string

const (
	RunQueued         RunStatus = "queued"
	RunInProgress     RunStatus = "in_progress"
	RunRequiresAction RunStatus = "requires_action"
	RunCompleted      RunStatus = "completed"
	RunFailed         RunStatus = "failed"
	RunExpired        RunStatus = "expired"
	RunCancelled      RunStatus = "cancelled"
)

// Terminal reports whether the run can no longer make progress.
func (s RunStatus) Terminal() bool {
	switch s {
	case RunCompleted, RunFailed, RunExpired, RunCancelled:
		return true
	}
	return false
}

// AssistantRun mirrors the remote run object.
type AssistantRun struct {
	ID             string          `json:"id"`
	Status         RunStatus       `json:"status"`
	RequiredAction *RequiredAction `json:"required_action,omitempty"`
}

// ToolCalls returns the pending tool calls, empty unless the run is
// waiting in requires_action.
func (r *AssistantRun) ToolCalls() []AssistantToolCall {
	if r.RequiredAction == nil {
		return nil
	}
	return r.RequiredAction.SubmitToolOutputs.ToolCalls
}

// RequiredAction carries the tool calls a run is blocked on.
type RequiredAction struct {
	Type              string `json:"type"`
	SubmitToolOutputs struct {
		ToolCalls []AssistantToolCall `json:"tool_calls"`
	} `json:"submit_tool_outputs"`
}

// AssistantToolCall is one function invocation requested by a run.
type AssistantToolCall struct {
	ID       string `json:"id"`
	Type     string `json:"type"`
	Function struct {
		Name      string `json:"name"`
		Arguments string `json:"arguments"`
	} `json:"function"`
}

// ToolOutput is the serialized result for one tool call, keyed by call id.
type ToolOutput struct {
	ToolCallID string `json:"tool_call_id"`
	Output     string `json:"output"`
}

// ThreadMessage is one message on a remote thread.
type ThreadMessage struct {
	ID      string `json:"id"`
	Role    string `json:"role"`
	Content []struct {
		Type string `json:"type"`
		Text *struct {
			Value string `json:"value"`
		} `json:"text,omitempty"`
	} `json:"content"`
}

// TextValue returns the first text block of the message, if any.
func (m *ThreadMessage) TextValue() (string, bool) {
	for _, c := range m.Content {
		if c.Text != nil {
			return c.Text.Value, true
		}
	}
	return "", false
}

// Session binds a user to their remote conversation thread. ActiveRunID is
// the run currently believed to be in flight, or empty.
type Session struct {
	UserID      string `json:"user_id"`
	ThreadID    string `json:"thread_id"`
	ActiveRunID string `json:"active_run_id,omitempty"`
}
