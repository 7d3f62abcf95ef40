// Package stack provides technology stack classification for cloned
// repositories. Detection is read-only and deterministic: it inspects
// marker files, never executes anything found in the tree.
package stack

// =============================================================================
// Stack Enumeration
// =============================================================================

// Stack identifies a supported technology stack. It is a closed set:
// generators switch exhaustively over these values, so adding a stack is
// a compile-time checked extension.
type Stack string

const (
	Node    Stack = "node"
	Python  Stack = "python"
	PHP     Stack = "php"
	Go      Stack = "go"
	Ruby    Stack = "ruby"
	Java    Stack = "java"
	CSharp  Stack = "csharp"
	Rust    Stack = "rust"
	Static  Stack = "static"
	Unknown Stack = "unknown"
)

// detectionOrder is the fixed priority order for tie-breaking between
// equal-confidence candidates.
var detectionOrder = []Stack{Node, Python, PHP, Go, Ruby, Java, CSharp, Rust, Static}

// All returns the supported stacks in detection priority order.
func All() []Stack {
	out := make([]Stack, len(detectionOrder))
	copy(out, detectionOrder)
	return out
}

// Supported reports whether s is a known stack with a template.
func (s Stack) Supported() bool {
	_, ok := templates[s]
	return ok
}

// =============================================================================
// Detection Result
// =============================================================================

// Detection is the immutable result of classifying one repository.
type Detection struct {
	Stack            Stack    `json:"stack"`
	Confidence       int      `json:"confidence_score"`
	MatchedFiles     []string `json:"detected_files"`
	Framework        string   `json:"framework,omitempty"`
	RequiresDatabase bool     `json:"requires_db"`
	InternalPort     int      `json:"internal_port"`
	BuildCommand     string   `json:"build_command,omitempty"`
	RunCommand       string   `json:"run_command,omitempty"`
}

// clampConfidence bounds a raw score to the 0-100 scale.
func clampConfidence(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
