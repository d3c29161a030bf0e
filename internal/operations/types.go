package operations

// ExecutionResult records the outcome of a single catalog operation. Results
// are appended in execution order, which is catalog order.
type ExecutionResult struct {
	Operation       string      `json:"operation"`
	Success         bool        `json:"success"`
	Result          interface{} `json:"result,omitempty"`
	Error           string      `json:"error,omitempty"`
	ExecutionTimeMS float64     `json:"execution_time_ms"`
}

// RunSummary aggregates a finished run. Successful plus Failed always equals
// TotalOperations.
type RunSummary struct {
	TotalOperations int     `json:"total_operations"`
	Successful      int     `json:"successful"`
	Failed          int     `json:"failed"`
	TotalTimeMS     float64 `json:"total_time_ms"`
}

// Report is the return value of a completed run: the summary plus one result
// per catalog entry, in order.
type Report struct {
	Summary RunSummary        `json:"summary"`
	Results []ExecutionResult `json:"results"`
}
