package operations

import "context"

// Event type discriminators carried in the "type" field of every progress
// event.
const (
	EventStart             = "start"
	EventOperationStart    = "operation_start"
	EventOperationComplete = "operation_complete"
	EventComplete          = "complete"
)

// StartEvent announces a run and how many operations it will execute.
type StartEvent struct {
	Type    string `json:"type"`
	Total   int    `json:"total"`
	Message string `json:"message"`
}

// OperationStartEvent announces the operation about to execute. Current is
// its 1-based position in the catalog.
type OperationStartEvent struct {
	Type      string `json:"type"`
	Operation string `json:"operation"`
	Current   int    `json:"current"`
	Total     int    `json:"total"`
	Message   string `json:"message"`
}

// OperationCompleteEvent reports a finished operation. Current counts
// operations completed so far. Error carries the full fault condition on
// failure; Message holds a display form truncated for readability.
type OperationCompleteEvent struct {
	Type            string  `json:"type"`
	Operation       string  `json:"operation"`
	Success         bool    `json:"success"`
	Current         int     `json:"current"`
	Total           int     `json:"total"`
	ExecutionTimeMS float64 `json:"execution_time_ms"`
	Error           string  `json:"error,omitempty"`
	Message         string  `json:"message"`
}

// CompleteEvent closes a run with its summary.
type CompleteEvent struct {
	Type    string     `json:"type"`
	Summary RunSummary `json:"summary"`
	Message string     `json:"message"`
}

// Publisher pushes progress events to whoever is watching a run. Delivery is
// fire-and-forget: implementations must never block the run loop, and a
// dropped event is not an error.
type Publisher interface {
	PublishProgress(ctx context.Context, event interface{})
}

// NopPublisher discards every event. It stands in when no streaming sink is
// configured.
type NopPublisher struct{}

// PublishProgress implements Publisher.
func (NopPublisher) PublishProgress(context.Context, interface{}) {}
