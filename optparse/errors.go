package optparse

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinels returned by Parse when a help or version option is matched.
// Parsing stops at that option; rendering the text is the caller's job.
var (
	ErrHelpRequested    = errors.New("help requested")
	ErrVersionRequested = errors.New("version requested")
)

// ErrorType represents error categories for parse failures.
// These categories drive suggestion logic and exit-code mapping (via ExitCodeManager).
type ErrorType string

const (
	ErrorTypeUnknownOption   ErrorType = "unknown_option"
	ErrorTypeAmbiguousOption ErrorType = "ambiguous_option"
	ErrorTypeMissingValue    ErrorType = "missing_value"
	ErrorTypeInvalidValue    ErrorType = "invalid_value"
	ErrorTypeUnexpectedValue ErrorType = "unexpected_value"
	ErrorTypeCallback        ErrorType = "callback"
	ErrorTypeValidation      ErrorType = "validation"
	ErrorTypeInternal        ErrorType = "internal_error"
)

// ParseError describes why an argument vector was rejected.
type ParseError struct {
	Type    ErrorType
	Message string
	Flag    string

	// Value is the offending raw text for ErrorTypeInvalidValue.
	Value string
	// Candidates lists the matching long flags, sorted, for ErrorTypeAmbiguousOption.
	Candidates []string
	// Nargs is the arity that could not be satisfied for ErrorTypeMissingValue.
	Nargs int
	// Suggestion is a close registered spelling for ErrorTypeUnknownOption.
	Suggestion string

	Cause error
}

func (e *ParseError) Error() string {
	return e.Message
}

func (e *ParseError) Unwrap() error {
	return e.Cause
}

// NewParseError creates a new ParseError with the given type and message
func NewParseError(errType ErrorType, message string) *ParseError {
	return &ParseError{
		Type:    errType,
		Message: message,
	}
}

// IsErrorType reports whether err is, or wraps, a *ParseError of type typ.
func IsErrorType(err error, typ ErrorType) bool {
	var pe *ParseError
	return errors.As(err, &pe) && pe.Type == typ
}

func unknownOption(flag string) *ParseError {
	return &ParseError{
		Type:    ErrorTypeUnknownOption,
		Message: "no such option: " + flag,
		Flag:    flag,
	}
}

func ambiguousOption(flag string, candidates []string) *ParseError {
	return &ParseError{
		Type:       ErrorTypeAmbiguousOption,
		Message:    fmt.Sprintf("ambiguous option: %s (%s?)", flag, strings.Join(candidates, ", ")),
		Flag:       flag,
		Candidates: candidates,
	}
}

func missingValue(flag string, nargs int) *ParseError {
	msg := flag + " option requires an argument"
	if nargs > 1 {
		msg = fmt.Sprintf("%s option requires %d arguments", flag, nargs)
	}
	return &ParseError{
		Type:    ErrorTypeMissingValue,
		Message: msg,
		Flag:    flag,
		Nargs:   nargs,
	}
}

func invalidValue(flag, raw, format string, args ...any) *ParseError {
	return &ParseError{
		Type:    ErrorTypeInvalidValue,
		Message: fmt.Sprintf(format, args...),
		Flag:    flag,
		Value:   raw,
	}
}

func unexpectedValue(flag string) *ParseError {
	return &ParseError{
		Type:    ErrorTypeUnexpectedValue,
		Message: flag + " option does not take a value",
		Flag:    flag,
	}
}

// callbackError wraps a callback failure. Parse errors raised by the
// callback itself pass through unchanged, as do the help/version sentinels.
func callbackError(flag string, err error) error {
	var pe *ParseError
	if errors.As(err, &pe) || errors.Is(err, ErrHelpRequested) || errors.Is(err, ErrVersionRequested) {
		return err
	}
	return &ParseError{
		Type:    ErrorTypeCallback,
		Message: fmt.Sprintf("option %s: %v", flag, err),
		Flag:    flag,
		Cause:   err,
	}
}

// SpecError rejects an option declaration.
type SpecError struct {
	Option  string
	Message string
}

func (e *SpecError) Error() string {
	if e.Option == "" {
		return e.Message
	}
	return "option " + e.Option + ": " + e.Message
}

// Conflict names one flag claimed by an already registered option.
type Conflict struct {
	Flag  string
	Owner *Option
}

// ConflictError is returned when a new option reuses flags and the table's
// policy is ConflictPolicyError.
type ConflictError struct {
	Option    string
	Conflicts []Conflict
}

func (e *ConflictError) Error() string {
	flags := make([]string, len(e.Conflicts))
	for i, c := range e.Conflicts {
		flags[i] = c.Flag
	}
	return fmt.Sprintf("option %s: conflicting option string(s): %s", e.Option, strings.Join(flags, ", "))
}
