package harness

// TraceEvent records one executed step for the trace.
// State and Partner carry labels rather than raw IDs so traces stay stable
// across the content-addressed ID scheme.
type TraceEvent struct {
	Seq     int            `json:"seq"`
	Op      string         `json:"op"`
	Actor   string         `json:"actor,omitempty"`
	State   string         `json:"state,omitempty"`
	Partner string         `json:"partner,omitempty"`
	Params  map[string]any `json:"params,omitempty"`
	Error   string         `json:"error,omitempty"` // engine error code, if the step failed
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass indicates overall scenario success.
	Pass bool `json:"pass"`

	// Trace contains one event per executed step, in order.
	Trace []TraceEvent `json:"trace"`

	// Errors contains step and assertion failure messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// States maps labels to the state IDs the scenario created.
	States map[string]string `json:"states,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
		States: make(map[string]string),
	}
}

// AddError adds a failure message and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddTrace appends a trace event with the next sequence number.
func (r *Result) AddTrace(e TraceEvent) {
	e.Seq = len(r.Trace) + 1
	r.Trace = append(r.Trace, e)
}
