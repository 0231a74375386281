package compile

import "fmt"

// Severity indicates the severity of a diagnostic.
type Severity string

const (
	// SeverityError is a compile error.
	SeverityError Severity = "error"
	// SeverityWarning is a compile warning.
	SeverityWarning Severity = "warning"
)

// String returns the severity name.
func (s Severity) String() string {
	return string(s)
}

// Diagnostic is a compiler-reported problem.
type Diagnostic struct {
	// File is the reporting file. Empty means the main document.
	File string

	// Line is the 1-based line number, 0 if unknown.
	Line int

	// Message is the problem description.
	Message string

	// Severity is error or warning.
	Severity Severity
}

// EditorLine returns the 0-based line used by editors, clamped at 0.
func (d Diagnostic) EditorLine() int {
	return max(0, d.Line-1)
}

// String formats the diagnostic as file:line: severity: message.
func (d Diagnostic) String() string {
	file := d.File
	if file == "" {
		file = "<main>"
	}
	if d.Line > 0 {
		return fmt.Sprintf("%s:%d: %s: %s", file, d.Line, d.Severity, d.Message)
	}
	return fmt.Sprintf("%s: %s: %s", file, d.Severity, d.Message)
}
