package ot

import (
	"errors"
	"fmt"
)

// Sentinel errors of package ot. Errors returned by Parse and friends wrap one of
// these and may be tested with errors.Is.
var (
	// ErrInvalidFont is returned for every structural decode failure which
	// makes a font unusable.
	ErrInvalidFont = errors.New("invalid font file")
	// ErrUnexpectedEnd is returned when a read would go past the end of data.
	ErrUnexpectedEnd = errors.New("unexpected end of data")
	// ErrNoSuchGlyph is returned for glyph indices outside of the font's glyph count.
	ErrNoSuchGlyph = errors.New("glyph index out of range")
	// ErrInvalidArgument is returned for violations of the calling contract,
	// such as a nil font or a negative size.
	ErrInvalidArgument = errors.New("invalid argument")
)

// ErrorSeverity grades the errors found while parsing a font.
type ErrorSeverity int

const (
	// SeverityCritical makes a font unusable.
	SeverityCritical ErrorSeverity = iota
	// SeverityMajor disables a table or a part of it. The font is still usable.
	SeverityMajor
	// SeverityMinor is a deviation from the format which the parser tolerates.
	SeverityMinor
)

func (s ErrorSeverity) String() string {
	switch s {
	case SeverityCritical:
		return "CRITICAL"
	case SeverityMajor:
		return "MAJOR"
	case SeverityMinor:
		return "MINOR"
	}
	return "UNKNOWN"
}

// FontError is an error found while parsing a font.
// Non-critical errors are accumulated during parsing and can be inspected
// with Font.Errors.
type FontError struct {
	Table    Tag           // table where the error occurred (e.g., "GSUB", "glyf")
	Section  string        // section within the table (e.g., "LookupList", "Coverage")
	Issue    string        // human-readable description
	Severity ErrorSeverity // severity level of the error
	Offset   uint32        // byte offset in the font where the error occurred (0 if unknown)
}

func (e FontError) Error() string {
	if e.Offset > 0 {
		return fmt.Sprintf("[%s] %s/%s at offset %d: %s", e.Severity, e.Table, e.Section, e.Offset, e.Issue)
	}
	return fmt.Sprintf("[%s] %s/%s: %s", e.Severity, e.Table, e.Section, e.Issue)
}

// Unwrap lets critical font errors match ErrInvalidFont.
func (e FontError) Unwrap() error {
	if e.Severity == SeverityCritical {
		return ErrInvalidFont
	}
	return nil
}

// FontWarning is an oddity of a font which does not affect parsing.
type FontWarning struct {
	Table  Tag
	Issue  string
	Offset uint32
}

func (w FontWarning) String() string {
	if w.Offset > 0 {
		return fmt.Sprintf("[WARNING] %s at offset %d: %s", w.Table, w.Offset, w.Issue)
	}
	return fmt.Sprintf("[WARNING] %s: %s", w.Table, w.Issue)
}

// errorCollector gathers the errors and warnings of parsing a font.
type errorCollector struct {
	errors   []FontError
	warnings []FontWarning
}

func (ec *errorCollector) addError(table Tag, section string, issue string, severity ErrorSeverity, offset uint32) {
	ec.errors = append(ec.errors, FontError{
		Table:    table,
		Section:  section,
		Issue:    issue,
		Severity: severity,
		Offset:   offset,
	})
}

func (ec *errorCollector) addWarning(table Tag, issue string, offset uint32) {
	ec.warnings = append(ec.warnings, FontWarning{
		Table:  table,
		Issue:  issue,
		Offset: offset,
	})
}

// critical records a critical error and returns it, wrapped as ErrInvalidFont,
// for immediate return from the parser.
func (ec *errorCollector) critical(table Tag, section string, issue string, offset uint32) error {
	ec.addError(table, section, issue, SeverityCritical, offset)
	return ec.errors[len(ec.errors)-1]
}

func (ec *errorCollector) hasCriticalErrors() bool {
	for _, err := range ec.errors {
		if err.Severity == SeverityCritical {
			return true
		}
	}
	return false
}

// errFontFormat wraps ErrInvalidFont with a message.
func errFontFormat(message string) error {
	return fmt.Errorf("%w: OpenType font format: %s", ErrInvalidFont, message)
}
