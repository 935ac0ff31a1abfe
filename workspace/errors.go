package workspace

import "fmt"

// BuildFailedPrefix is the fixed marker prepended to diagnostics produced by
// a failing build-tool invocation, so host UIs can filter them reliably.
const BuildFailedPrefix = "build failed: "

// NotFoundError reports a missing solution, project, or document file.
type NotFoundError struct {
	Path string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("not found: %s", e.Path)
}

// UnsupportedFormatError reports a file extension or language the loader does
// not recognize.
type UnsupportedFormatError struct {
	Path     string
	Language string
}

func (e *UnsupportedFormatError) Error() string {
	if e.Language != "" {
		return fmt.Sprintf("unsupported language %q in %s", e.Language, e.Path)
	}
	return fmt.Sprintf("unsupported file format: %s", e.Path)
}

// BuildToolError reports a failure of the external build-system reader
// itself, as opposed to a malformed project.
type BuildToolError struct {
	Path string
	Err  error
}

func (e *BuildToolError) Error() string {
	return fmt.Sprintf("%s%s: %v", BuildFailedPrefix, e.Path, e.Err)
}

func (e *BuildToolError) Unwrap() error { return e.Err }

// UnsupportedChangeError is raised by TryApplyChanges when the candidate
// solution contains a change kind the host has not enabled. It is never
// downgraded to a diagnostic: accepting a partial apply would break the
// all-or-nothing contract.
type UnsupportedChangeError struct {
	Kind ChangeKind
}

func (e *UnsupportedChangeError) Error() string {
	return fmt.Sprintf("changes of kind %s are not supported by this workspace", e.Kind)
}

// IOError reports a locked or unreadable file during text load or apply.
type IOError struct {
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("io error on %s: %v", e.Path, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

// EncodingError reports an invalid or unmapped text encoding. Load paths
// never surface it; they substitute a default encoding instead. It is only
// returned when a caller demands an encoding the host cannot map.
type EncodingError struct {
	Path     string
	Encoding string
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("unknown encoding %q for %s", e.Encoding, e.Path)
}
