package workspace

// DiagnosticSeverity indicates how bad a load-time diagnostic is.
type DiagnosticSeverity int

const (
	DiagnosticSeverityError DiagnosticSeverity = iota
	DiagnosticSeverityWarning
	DiagnosticSeverityInfo
)

func (s DiagnosticSeverity) String() string {
	switch s {
	case DiagnosticSeverityError:
		return "error"
	case DiagnosticSeverityWarning:
		return "warning"
	case DiagnosticSeverityInfo:
		return "info"
	default:
		return "unknown"
	}
}

// Diagnostic records a load-time failure that did not abort the whole load:
// an unreadable project, an unsupported extension, a dropped reference.
// Build-tool failures carry the fixed BuildFailedPrefix in Message so host
// UIs can filter them.
type Diagnostic struct {
	Severity DiagnosticSeverity
	Message  string

	// Path is the offending file, when known.
	Path string
}
