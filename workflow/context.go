package workflow

// Step is one planned action: delegate Instruction to the named agent or
// invoke the named tool. Steps are immutable once the plan is produced.
type Step struct {
	Target      string `json:"target"`
	Instruction string `json:"instruction"`
}

// Context keys populated by extraction. The set is fixed; values are only
// ever overwritten with non-empty replacements.
const (
	KeyTrackingID = "trackingId"
	KeyJobID      = "jobId"
	KeyReady      = "ready"
	KeySucceeded  = "succeeded"
	KeyNamespace  = "namespace"
)

// Context is the running key-value memory accumulated across step results.
// Keys are never removed once set.
type Context map[string]any

// NewContext returns an empty workflow context.
func NewContext() Context {
	return Context{}
}

// Merge folds extracted values into the context. Empty strings and nil values
// never overwrite an existing entry; extraction is additive.
func (c Context) Merge(update Context) {
	for key, value := range update {
		if value == nil {
			continue
		}
		if s, ok := value.(string); ok && s == "" {
			continue
		}
		c[key] = value
	}
}

// String returns the string value for key, or empty if absent or non-string.
func (c Context) String(key string) string {
	if v, ok := c[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// Bool returns the bool value for key. The second return reports whether the
// key was present with a bool value.
func (c Context) Bool(key string) (bool, bool) {
	if v, ok := c[key]; ok {
		if b, ok := v.(bool); ok {
			return b, true
		}
	}
	return false, false
}

// Clone returns a shallow copy, used when handing context snapshots to
// template rendering.
func (c Context) Clone() Context {
	out := make(Context, len(c))
	for k, v := range c {
		out[k] = v
	}
	return out
}
