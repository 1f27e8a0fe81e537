//nolint:testpackage
package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

// MockContext implements Context over a plain map.
type MockContext struct {
	ctx      context.Context
	cancel   context.CancelFunc
	args     []string
	values   map[string]any
	metadata map[string]any
	program  *MockProgram
}

func NewMockContext() *MockContext {
	ctx, cancel := context.WithCancel(context.Background())
	return &MockContext{
		ctx:      ctx,
		cancel:   cancel,
		values:   make(map[string]any),
		metadata: make(map[string]any),
		program:  &MockProgram{name: "test", description: "test program"},
	}
}

func (m *MockContext) Context() context.Context  { return m.ctx }
func (m *MockContext) Done() <-chan struct{}     { return m.ctx.Done() }
func (m *MockContext) Cancel()                   { m.cancel() }
func (m *MockContext) Args() []string            { return m.args }
func (m *MockContext) Set(key string, value any) { m.metadata[key] = value }
func (m *MockContext) Get(key string) any        { return m.metadata[key] }
func (m *MockContext) Program() Program          { return m.program }
func (m *MockContext) Keys() []string            { return slices.Sorted(maps.Keys(m.values)) }

func (m *MockContext) Lookup(dest string) (any, bool) {
	v, ok := m.values[dest]
	return v, ok
}

func (m *MockContext) String(dest string) (string, bool) {
	v, ok := m.values[dest].(string)
	return v, ok
}

func (m *MockContext) Int(dest string) (int, bool) {
	v, ok := m.values[dest].(int)
	return v, ok
}

func (m *MockContext) Float(dest string) (float64, bool) {
	v, ok := m.values[dest].(float64)
	return v, ok
}

func (m *MockContext) Bool(dest string) (bool, bool) {
	v, ok := m.values[dest].(bool)
	return v, ok
}

func (m *MockContext) Strings(dest string) ([]string, bool) {
	v, ok := m.values[dest].([]string)
	return v, ok
}

type MockProgram struct {
	name        string
	description string
}

func (m *MockProgram) Name() string        { return m.name }
func (m *MockProgram) Description() string { return m.description }

func successAction(Context) error { return nil }
func errorAction(Context) error   { return errors.New("test error") }
func panicAction(Context) error   { panic("test panic") }

func slowAction(ctx Context) error {
	select {
	case <-time.After(200 * time.Millisecond):
		return nil
	case <-ctx.Done():
		return ctx.Context().Err()
	}
}

func TestMiddlewareChain(t *testing.T) {
	var order []string
	step := func(name string) Middleware {
		return func(next ActionFunc) ActionFunc {
			return func(ctx Context) error {
				order = append(order, "before"+name)
				err := next(ctx)
				order = append(order, "after"+name)
				return err
			}
		}
	}

	action := Chain(step("1")).Use(step("2")).Apply(func(Context) error {
		order = append(order, "action")
		return nil
	})
	if err := action(NewMockContext()); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	expected := []string{"before1", "before2", "action", "after2", "after1"}
	if !slices.Equal(order, expected) {
		t.Errorf("Expected %v, got %v", expected, order)
	}
}

func TestLogger_Text(t *testing.T) {
	tests := []struct {
		name     string
		level    LogLevel
		action   ActionFunc
		contains []string
		empty    bool
	}{
		{"success", LogLevelInfo, successAction, []string{"SUCCESS", "prog=test", "args=a b"}, false},
		{"error", LogLevelInfo, errorAction, []string{"ERROR", `error="test error"`}, false},
		{"debug start", LogLevelDebug, successAction, []string{"START", "SUCCESS"}, false},
		{"error level hides success", LogLevelError, successAction, nil, true},
		{"none", LogLevelNone, errorAction, nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			ctx := NewMockContext()
			ctx.args = []string{"a", "b"}
			_ = LoggerWithWriter(&buf, WithLogLevel(tt.level))(tt.action)(ctx)
			out := buf.String()
			if tt.empty && out != "" {
				t.Fatalf("Expected no output, got %q", out)
			}
			for _, want := range tt.contains {
				if !strings.Contains(out, want) {
					t.Errorf("Expected %q in %q", want, out)
				}
			}
		})
	}
}

func TestLogger_JSONEscapesAndValues(t *testing.T) {
	var buf bytes.Buffer
	ctx := NewMockContext()
	ctx.args = []string{`a "quoted"`, "line1\nline2"}
	ctx.values["verbose"] = true
	ctx.values["files"] = []any{"x", "y"}

	mw := LoggerWithWriter(&buf, WithLogFormat(LogFormatJSON), WithValues(true))
	if err := mw(errorAction)(ctx); err == nil {
		t.Fatal("Expected the action error to pass through")
	}

	var entry struct {
		Level  string         `json:"level"`
		Prog   string         `json:"prog"`
		Args   []string       `json:"args"`
		Values map[string]any `json:"values"`
		Error  string         `json:"error"`
	}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("Expected one JSON object, got %q: %v", buf.String(), err)
	}
	if entry.Level != "ERROR" || entry.Prog != "test" || entry.Error != "test error" {
		t.Errorf("Unexpected entry: %+v", entry)
	}
	if !slices.Equal(entry.Args, ctx.args) {
		t.Errorf("Expected args %q, got %q", ctx.args, entry.Args)
	}
	if entry.Values["verbose"] != true || len(entry.Values["files"].([]any)) != 2 {
		t.Errorf("Unexpected values: %v", entry.Values)
	}
}

func TestRecovery(t *testing.T) {
	var buf bytes.Buffer
	err := RecoveryWithWriter(&buf)(panicAction)(NewMockContext())

	var rErr *RecoveryError
	if !errors.As(err, &rErr) {
		t.Fatalf("Expected RecoveryError, got %T", err)
	}
	if rErr.Panic != "test panic" || rErr.Program != "test" {
		t.Errorf("Unexpected recovery error: %+v", rErr)
	}
	if buf.Len() != 0 || rErr.Stack != nil {
		t.Error("Expected no stack without WithStackTrace")
	}
	if rErr.Error() != "test: panic: test panic" {
		t.Errorf("Expected message %q, got %q", "test: panic: test panic", rErr.Error())
	}

	buf.Reset()
	err = RecoveryWithWriter(&buf, WithStackTrace(true))(panicAction)(NewMockContext())
	if !errors.As(err, &rErr) || len(rErr.Stack) == 0 {
		t.Fatal("Expected a captured stack")
	}
	if !strings.HasPrefix(buf.String(), "test: panic: test panic\n") {
		t.Errorf("Expected printed panic, got %q", buf.String())
	}
}

func TestRecovery_PassesErrorsThrough(t *testing.T) {
	if err := Recovery()(errorAction)(NewMockContext()); err == nil || err.Error() != "test error" {
		t.Errorf("Expected action error, got %v", err)
	}
}

func TestRecovery_UnwrapsErrorPanics(t *testing.T) {
	sentinel := errors.New("boom")
	err := Recovery()(func(Context) error { panic(sentinel) })(NewMockContext())
	if !errors.Is(err, sentinel) {
		t.Errorf("Expected errors.Is to reach the panic value, got %v", err)
	}
}

func TestSafeRecovery_StoresMetadata(t *testing.T) {
	ctx := NewMockContext()
	err := SafeRecovery()(panicAction)(ctx)
	if err == nil {
		t.Fatal("Expected error")
	}
	if ctx.Get("recovery.panic") != "test panic" {
		t.Errorf("Expected panic value in metadata, got %v", ctx.Get("recovery.panic"))
	}
	if s, _ := ctx.Get("recovery.stack").(string); s == "" {
		t.Error("Expected stack in metadata")
	}
}

func TestRecoveryWithStats(t *testing.T) {
	stats := &RecoveryStats{}
	mw := RecoveryWithStats(stats)
	_ = mw(panicAction)(NewMockContext())
	_ = mw(successAction)(NewMockContext())
	_ = mw(panicAction)(NewMockContext())
	if stats.Total() != 2 || stats.Last() == nil {
		t.Errorf("Expected 2 recorded panics, got %d", stats.Total())
	}
}

func TestRecoveryWithHandler(t *testing.T) {
	want := errors.New("handled")
	mw := RecoveryWithHandler(func(any, string, []byte) error { return want })
	if err := mw(panicAction)(NewMockContext()); !errors.Is(err, want) {
		t.Errorf("Expected handler error, got %v", err)
	}
}

func TestTimeout(t *testing.T) {
	ctx := NewMockContext()
	err := Timeout(10 * time.Millisecond)(slowAction)(ctx)

	var tErr *TimeoutError
	if !errors.As(err, &tErr) {
		t.Fatalf("Expected TimeoutError, got %T (%v)", err, err)
	}
	if tErr.Program != "test" || tErr.Duration != 10*time.Millisecond {
		t.Errorf("Unexpected timeout error: %+v", tErr)
	}
	select {
	case <-ctx.Done():
	default:
		t.Error("Expected the run to be canceled on timeout")
	}
}

func TestTimeout_FastActionAndPanic(t *testing.T) {
	if err := Timeout(time.Second)(successAction)(NewMockContext()); err != nil {
		t.Errorf("Expected no error, got %v", err)
	}
	if err := TimeoutWithDefault()(errorAction)(NewMockContext()); err == nil {
		t.Error("Expected action error")
	}
	var rErr *RecoveryError
	if err := Timeout(time.Second)(panicAction)(NewMockContext()); !errors.As(err, &rErr) {
		t.Errorf("Expected RecoveryError from panicking action, got %v", err)
	}
}

func TestTimeout_ParentCanceled(t *testing.T) {
	ctx := NewMockContext()
	ctx.Cancel()
	err := Timeout(time.Second)(slowAction)(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}

func TestTimeoutWithCallback(t *testing.T) {
	var called atomic.Bool
	mw := TimeoutWithCallback(5*time.Millisecond, func(prog string, _ time.Duration) {
		called.Store(prog == "test")
	})
	_ = mw(slowAction)(NewMockContext())
	if !called.Load() {
		t.Error("Expected timeout callback")
	}
}

func TestTimeoutWithRetry(t *testing.T) {
	var attempts atomic.Int32
	mw := TimeoutWithRetry(5*time.Millisecond, 2)
	err := mw(func(ctx Context) error {
		attempts.Add(1)
		time.Sleep(50 * time.Millisecond)
		return nil
	})(NewMockContext())

	var tErr *TimeoutError
	if !errors.As(err, &tErr) {
		t.Fatalf("Expected TimeoutError, got %v", err)
	}
	if got := attempts.Load(); got != 3 {
		t.Errorf("Expected 3 attempts, got %d", got)
	}

	attempts.Store(0)
	_ = mw(func(Context) error { attempts.Add(1); return errors.New("fatal") })(NewMockContext())
	if got := attempts.Load(); got != 1 {
		t.Errorf("Expected no retry on other errors, got %d attempts", got)
	}
}

func TestDynamicTimeout(t *testing.T) {
	off := DynamicTimeout(func(Context) time.Duration { return 0 })
	if err := off(func(Context) error { time.Sleep(5 * time.Millisecond); return nil })(NewMockContext()); err != nil {
		t.Errorf("Expected no timeout, got %v", err)
	}
	on := DynamicTimeout(func(Context) time.Duration { return time.Millisecond })
	if err := on(slowAction)(NewMockContext()); err == nil {
		t.Error("Expected timeout")
	}
}

func TestTimeoutFromOption(t *testing.T) {
	tests := []struct {
		name        string
		value       any
		wantTimeout bool
	}{
		{"duration string", "5ms", true},
		{"seconds", 0.005, true},
		{"bad string uses default", "soon", false},
		{"missing uses default", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := NewMockContext()
			if tt.value != nil {
				ctx.values["timeout"] = tt.value
			}
			err := TimeoutFromOption("timeout", time.Second)(slowAction)(ctx)
			var tErr *TimeoutError
			if got := errors.As(err, &tErr); got != tt.wantTimeout {
				t.Errorf("Expected timeout=%v, got err %v", tt.wantTimeout, err)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(file, []byte("x"), 0o600); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name      string
		values    map[string]any
		validator NamedValidator
		wantField string
	}{
		{"file ok", map[string]any{"config": file}, File("config"), ""},
		{"file missing", map[string]any{"config": filepath.Join(dir, "nope")}, File("config"), "config"},
		{"file is dir", map[string]any{"config": dir}, File("config"), "config"},
		{"file unset skipped", map[string]any{}, File("config"), ""},
		{"dir ok", map[string]any{"out": dir}, Dir("out"), ""},
		{"dir is file", map[string]any{"out": file}, Dir("out"), "out"},
		{"required present", map[string]any{"name": "x"}, Required("name"), ""},
		{"required zero", map[string]any{"name": "", "n": 0}, Required("name", "n"), "name, n"},
		{"required empty list", map[string]any{"files": []any{}}, Required("files"), "files"},
		{"exclusive ok", map[string]any{"a": true, "b": false}, Custom("x", MutuallyExclusive("a", "b")), ""},
		{"exclusive both", map[string]any{"a": true, "b": 3}, Custom("x", MutuallyExclusive("a", "b")), "a, b"},
		{"plain error wrapped", nil, Custom("port", func(Context) error { return errors.New("bad port") }), "port"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := NewMockContext()
			maps.Copy(ctx.values, tt.values)
			ran := false
			err := Validate(tt.validator)(func(Context) error { ran = true; return nil })(ctx)
			if tt.wantField == "" {
				if err != nil || !ran {
					t.Fatalf("Expected action to run, got %v", err)
				}
				return
			}
			var vErr *ValidationError
			if !errors.As(err, &vErr) {
				t.Fatalf("Expected ValidationError, got %v", err)
			}
			if vErr.Field != tt.wantField {
				t.Errorf("Expected field %q, got %q", tt.wantField, vErr.Field)
			}
			if ran {
				t.Error("Expected action not to run")
			}
		})
	}
}

func TestValidator_NameOrderAndConditional(t *testing.T) {
	var order []string
	record := func(name string) ValidatorFunc {
		return func(Context) error { order = append(order, name); return nil }
	}
	mw := Validator(WithCustomValidators(map[string]ValidatorFunc{
		"b": record("b"), "a": record("a"), "c": record("c"),
	}))
	if err := mw(successAction)(NewMockContext()); err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(order, []string{"a", "b", "c"}) {
		t.Errorf("Expected name order, got %v", order)
	}

	never := func(Context) error { return errors.New("not met") }
	mw = ValidatorWithCustom(map[string]ValidatorFunc{"cond": ConditionalRequired(never, "must")})
	if err := mw(successAction)(NewMockContext()); err != nil {
		t.Errorf("Expected unmet condition to skip, got %v", err)
	}
}

func TestValidationError_Unwrap(t *testing.T) {
	cause := os.ErrNotExist
	err := &ValidationError{Field: "f", Message: "file validation failed", Cause: cause}
	if !errors.Is(err, os.ErrNotExist) {
		t.Error("Expected errors.Is to reach the cause")
	}
	if err.Error() != "file validation failed: "+cause.Error() {
		t.Errorf("Unexpected message %q", err.Error())
	}
}
