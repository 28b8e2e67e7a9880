package workflow

import (
	"regexp"
	"strings"
)

// Outcome is the classified meaning of a step's result text.
type Outcome string

const (
	OutcomeReady    Outcome = "READY"
	OutcomeNotReady Outcome = "NOT_READY"
	OutcomeSuccess  Outcome = "SUCCESS"
	OutcomeFailure  Outcome = "FAILURE"
	OutcomeUnknown  Outcome = "UNKNOWN"
)

// Extractor pulls structured context values out of free-text step results.
// Text-pattern extraction is a legacy fallback; responses carrying structured
// fields should bypass it behind the same interface.
type Extractor interface {
	Extract(resultText string) Context
}

// Classifier maps a step's result text to an Outcome.
type Classifier interface {
	Classify(resultText string) Outcome
}

var (
	trackingIDPattern = regexp.MustCompile(`\b(INC\d+)\b`)
	jobIDPattern      = regexp.MustCompile("Job ID.*?`(\\d+)`")

	readyKeywords   = []string{"ready", "healthy", "accessible", "available"}
	successKeywords = []string{"successful", "successfully", "completed"}
	failureKeywords = []string{"failed", "error"}
)

// RegexExtractor recognizes tracking identifiers (INC-style incident numbers),
// job identifiers and readiness/success keyword sets in result text.
type RegexExtractor struct{}

var _ Extractor = (*RegexExtractor)(nil)

// Extract returns the context values found in resultText. Absent patterns
// produce no entry, so merging never clobbers earlier finds.
func (e *RegexExtractor) Extract(resultText string) Context {
	out := NewContext()
	if resultText == "" {
		return out
	}

	if m := trackingIDPattern.FindStringSubmatch(strings.ToUpper(resultText)); m != nil {
		out[KeyTrackingID] = m[1]
	}
	if m := jobIDPattern.FindStringSubmatch(resultText); m != nil {
		out[KeyJobID] = m[1]
	}

	lower := strings.ToLower(resultText)

	// Negations first: "not ready" must not register as ready.
	if strings.Contains(lower, "not ready") {
		out[KeyReady] = false
	} else if containsAny(lower, readyKeywords) {
		out[KeyReady] = true
	}

	if containsAny(lower, failureKeywords) {
		out[KeySucceeded] = false
	} else if containsAny(lower, successKeywords) {
		out[KeySucceeded] = true
	}

	return out
}

// KeywordClassifier derives an Outcome from the keyword sets used by
// extraction. Failure keywords dominate success, "not ready" dominates ready.
type KeywordClassifier struct{}

var _ Classifier = (*KeywordClassifier)(nil)

// Classify implements Classifier.
func (c *KeywordClassifier) Classify(resultText string) Outcome {
	lower := strings.ToLower(resultText)

	switch {
	case strings.Contains(lower, "not ready"):
		return OutcomeNotReady
	case containsAny(lower, failureKeywords):
		return OutcomeFailure
	case containsAny(lower, successKeywords):
		return OutcomeSuccess
	case containsAny(lower, readyKeywords):
		return OutcomeReady
	default:
		return OutcomeUnknown
	}
}

// QueryKind distinguishes goals answerable by a single delegation from goals
// requiring a multi-step plan.
type QueryKind string

const (
	QuerySimple       QueryKind = "SIMPLE"
	QueryOrchestrated QueryKind = "ORCHESTRATED"
)

// QueryClassifier decides how an incoming goal is handled.
type QueryClassifier interface {
	ClassifyQuery(goal string) QueryKind
}

var orchestrationKeywords = []string{
	"deploy to",
	"deployment",
	"start deployment",
	"run deployment",
	"deploy monte carlo",
	"monte carlo deploy",
}

// KeywordQueryClassifier routes goals containing deployment phrasing to the
// orchestrated path and everything else to the simple path.
type KeywordQueryClassifier struct{}

var _ QueryClassifier = (*KeywordQueryClassifier)(nil)

// ClassifyQuery implements QueryClassifier.
func (c *KeywordQueryClassifier) ClassifyQuery(goal string) QueryKind {
	if containsAny(strings.ToLower(goal), orchestrationKeywords) {
		return QueryOrchestrated
	}
	return QuerySimple
}

// Ordered most specific first: an explicit "namespace:"/"target:" label beats
// the looser deploy-phrase capture.
var namespacePatterns = []*regexp.Regexp{
	regexp.MustCompile(`namespace[:\s]+(\S+)`),
	regexp.MustCompile(`target[:\s]+(\S+)`),
	regexp.MustCompile(`deploy(?:ment)?\s+(?:to\s+)?(\S+)`),
	regexp.MustCompile(`(?:to|into)\s+(\S+)`),
}

// ExtractNamespace pulls a target namespace out of a deployment goal. It
// first scans for "to/namespace/into <word>" phrasing, then falls back to
// looser regex patterns. Returns "unknown" when nothing matches.
func ExtractNamespace(goal string) string {
	if goal == "" {
		return "unknown"
	}

	words := strings.Fields(strings.ToLower(goal))
	for i, word := range words {
		// "namespace:" must match the same as "namespace".
		token := strings.Trim(word, ".,!?:")
		if (token == "to" || token == "namespace" || token == "into") && i+1 < len(words) {
			return strings.Trim(words[i+1], ".,!?:")
		}
	}

	lower := strings.ToLower(goal)
	for _, pattern := range namespacePatterns {
		if m := pattern.FindStringSubmatch(lower); m != nil {
			return strings.Trim(m[1], ".,!?:")
		}
	}

	return "unknown"
}

func containsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}
