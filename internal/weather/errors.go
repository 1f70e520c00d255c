package weather

import "fmt"

// FormatError reports a weather file that cannot be turned into a canonical
// record.
type FormatError struct {
	Path   string
	Line   int // 1-based; 0 when the problem is not tied to a line
	Reason string
}

func (e *FormatError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("weather file %s, line %d: %s", e.Path, e.Line, e.Reason)
	}
	return fmt.Sprintf("weather file %s: %s", e.Path, e.Reason)
}

func formatErrorf(path string, line int, format string, args ...any) *FormatError {
	return &FormatError{Path: path, Line: line, Reason: fmt.Sprintf(format, args...)}
}
