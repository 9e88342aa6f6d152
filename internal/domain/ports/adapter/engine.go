package adapter

import "context"

// RunState is the coarse execution state reported by the workflow engine.
type RunState string

const (
	RunStateRunning   RunState = "running"
	RunStateCompleted RunState = "completed"
	RunStateFailed    RunState = "failed"
)

// TriggerRequest is the normalized payload forwarded to the engine webhook.
// Exactly one of AccountNames/Hashtags is set.
type TriggerRequest struct {
	SessionName  string   `json:"sessionName"`
	AccountNames []string `json:"accountNames,omitempty"`
	Hashtags     []string `json:"hashtags,omitempty"`
	MaxVideos    int      `json:"maxVideos"`
	UserID       string   `json:"userId"`
	CallbackURL  string   `json:"callbackUrl"`
	Timestamp    string   `json:"timestamp"`
}

// WorkflowEngine is the port for the external n8n workflow engine. Trigger
// makes exactly one outbound HTTP call; retry policy belongs to the caller.
type WorkflowEngine interface {
	Trigger(ctx context.Context, req TriggerRequest) (executionID string, err error)
	ExecutionStatus(ctx context.Context, executionID string) (RunState, error)
}
