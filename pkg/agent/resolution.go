package agent

// ResolutionKind is the outcome of one tool resolution branch
type ResolutionKind int

const (
	NoSelection ResolutionKind = iota
	Selected
	ExecutionFailed
)

func (k ResolutionKind) String() string {
	switch k {
	case Selected:
		return "selected"
	case ExecutionFailed:
		return "execution_failed"
	default:
		return "no_selection"
	}
}

// Resolution records what a branch picked and what running it produced.
// Tool-level failures stay here and never become turn errors.
type Resolution struct {
	Kind   ResolutionKind
	Tool   string
	Args   map[string]interface{}
	Output string
	Err    error
}

// Text is the tool result as injected into the answer prompt
func (r Resolution) Text(fallback string) string {
	switch r.Kind {
	case Selected:
		return r.Output
	case ExecutionFailed:
		return fallback
	default:
		return ""
	}
}
