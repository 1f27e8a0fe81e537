package optparse

import (
	"errors"
	"reflect"

	"github.com/dzonerzy/go-optparse/middleware"
)

// ExitError asks the Program to exit with Code. Err, when set, is reported
// on stderr.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return "exit"
}

func (e *ExitError) Unwrap() error { return e.Err }

// ExitCodeDefaults holds the fallback codes.
type ExitCodeDefaults struct {
	Success         int // 0
	GeneralError    int // 1
	MisusageError   int // 2
	ValidationError int // 3
}

func defaultExitDefaults() ExitCodeDefaults {
	return ExitCodeDefaults{Success: 0, GeneralError: 1, MisusageError: 2, ValidationError: 3}
}

type typedCode struct {
	typ  reflect.Type
	code int
}

// ExitCodeManager maps a run's error to a process exit code.
type ExitCodeManager struct {
	byParse  map[ErrorType]int
	byType   []typedCode
	defaults ExitCodeDefaults
}

// NewExitCodeManager returns a manager where parse errors exit 2,
// validation failures 3 and everything else 1.
func NewExitCodeManager() *ExitCodeManager {
	m := &ExitCodeManager{
		byParse:  make(map[ErrorType]int),
		defaults: defaultExitDefaults(),
	}
	m.byParse[ErrorTypeValidation] = m.defaults.ValidationError
	m.byParse[ErrorTypeInternal] = m.defaults.GeneralError

	m.DefineError(&middleware.ValidationError{}, m.defaults.ValidationError)
	m.DefineError(&middleware.TimeoutError{}, m.defaults.GeneralError)
	m.DefineError(&middleware.RecoveryError{}, m.defaults.GeneralError)
	return m
}

// DefineError maps errors with the dynamic type of err to code. Earlier
// definitions are checked first.
func (m *ExitCodeManager) DefineError(err error, code int) *ExitCodeManager {
	if err == nil {
		return m
	}
	t := reflect.TypeOf(err)
	for i := range m.byType {
		if m.byType[i].typ == t {
			m.byType[i].code = code
			return m
		}
	}
	m.byType = append(m.byType, typedCode{typ: t, code: code})
	return m
}

// DefineParse overrides the code for one parse error category.
func (m *ExitCodeManager) DefineParse(typ ErrorType, code int) *ExitCodeManager {
	m.byParse[typ] = code
	return m
}

// Default replaces the fallback codes.
func (m *ExitCodeManager) Default(d ExitCodeDefaults) *ExitCodeManager {
	m.defaults = d
	return m
}

// Defaults returns the fallback codes.
func (m *ExitCodeManager) Defaults() ExitCodeDefaults { return m.defaults }

// Resolve converts err to an exit code. Precedence:
//  1. nil, help and version requests: Success
//  2. *ExitError: its Code
//  3. *ParseError: the category mapping, else MisusageError
//  4. DefineError mappings in registration order
//  5. GeneralError
func (m *ExitCodeManager) Resolve(err error) int {
	if err == nil || errors.Is(err, ErrHelpRequested) || errors.Is(err, ErrVersionRequested) {
		return m.defaults.Success
	}

	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}

	var pe *ParseError
	if errors.As(err, &pe) {
		if code, ok := m.byParse[pe.Type]; ok {
			return code
		}
		return m.defaults.MisusageError
	}

	for _, tc := range m.byType {
		if errors.As(err, reflect.New(tc.typ).Interface()) {
			return tc.code
		}
	}
	return m.defaults.GeneralError
}
