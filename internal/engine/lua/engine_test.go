package lua

import (
	"context"
	"strings"
	"testing"
	"time"

	glua "github.com/yuin/gopher-lua"
)

func newTestEngine(t *testing.T, opts ...Option) *Engine {
	t.Helper()
	eng, err := New(opts...)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { _ = eng.Close() })
	return eng
}

func TestIsComplete(t *testing.T) {
	eng := newTestEngine(t)

	tests := []struct {
		name string
		src  string
		want bool
	}{
		{"assignment", "x = 1", true},
		{"expression", "1 + 1", true},
		{"call", "print('hi')", true},
		{"empty chunk", "", true},
		{"open if block", "if x then", false},
		{"open for block", "for i = 1, 3 do", false},
		{"open function", "function f()", false},
		{"unclosed call", "print(", false},
		{"unclosed table", "x = {", false},
		{"dangling operator", "1 +", false},
		{"malformed mid-input", "1abc", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := eng.IsComplete(tt.src)
			if err != nil {
				t.Fatalf("IsComplete(%q) error = %v", tt.src, err)
			}
			if got != tt.want {
				t.Errorf("IsComplete(%q) = %v, want %v", tt.src, got, tt.want)
			}
		})
	}
}

func TestExecutePrintStreamsToSink(t *testing.T) {
	eng := newTestEngine(t)

	var sink strings.Builder
	res, err := eng.Execute(context.Background(), `print("hello", 1)`, &sink)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if res.Raised {
		t.Fatalf("Execute() raised: %s", res.ErrOutput)
	}
	if got, want := sink.String(), "hello\t1\n"; got != want {
		t.Errorf("sink = %q, want %q", got, want)
	}
}

func TestExecuteExpressionEcho(t *testing.T) {
	eng := newTestEngine(t)

	tests := []struct {
		name string
		src  string
		want string
	}{
		{"arithmetic", "1 + 1", "2\n"},
		{"string concat", `"a" .. "b"`, "ab\n"},
		{"multiple values", "1, 2", "1\t2\n"},
		{"boolean", "1 == 1", "true\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var sink strings.Builder
			res, err := eng.Execute(context.Background(), tt.src, &sink)
			if err != nil {
				t.Fatalf("Execute(%q) error = %v", tt.src, err)
			}
			if res.Raised {
				t.Fatalf("Execute(%q) raised: %s", tt.src, res.ErrOutput)
			}
			if res.Output != tt.want {
				t.Errorf("Output = %q, want %q", res.Output, tt.want)
			}
		})
	}
}

func TestExecuteStatementsDoNotEcho(t *testing.T) {
	eng := newTestEngine(t)

	var sink strings.Builder
	res, err := eng.Execute(context.Background(), "x = 5", &sink)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if res.Output != "" || sink.String() != "" {
		t.Errorf("assignment produced output %q / sink %q, want none", res.Output, sink.String())
	}

	// State persists between statements.
	res, err = eng.Execute(context.Background(), "x", &sink)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if got, want := res.Output, "5\n"; got != want {
		t.Errorf("Output = %q, want %q", got, want)
	}
}

func TestExecuteRuntimeFault(t *testing.T) {
	eng := newTestEngine(t)

	var sink strings.Builder
	res, err := eng.Execute(context.Background(), `error("boom")`, &sink)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !res.Raised {
		t.Fatal("Execute() Raised = false, want true")
	}
	if !strings.Contains(res.ErrOutput, "boom") {
		t.Errorf("ErrOutput = %q, want it to contain %q", res.ErrOutput, "boom")
	}

	// The fault leaves the engine usable.
	res, err = eng.Execute(context.Background(), "1 + 1", &sink)
	if err != nil {
		t.Fatalf("Execute() after fault error = %v", err)
	}
	if res.Raised {
		t.Fatalf("Execute() after fault raised: %s", res.ErrOutput)
	}
	if got, want := res.Output, "2\n"; got != want {
		t.Errorf("Output = %q, want %q", got, want)
	}
}

func TestExecuteSyntaxFault(t *testing.T) {
	eng := newTestEngine(t)

	var sink strings.Builder
	res, err := eng.Execute(context.Background(), "1abc", &sink)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !res.Raised {
		t.Fatal("Execute() Raised = false, want true")
	}
	if res.ErrOutput == "" {
		t.Error("ErrOutput is empty, want a diagnostic")
	}
}

func TestExecuteTimeout(t *testing.T) {
	eng := newTestEngine(t, WithTimeout(100*time.Millisecond))

	var sink strings.Builder
	res, err := eng.Execute(context.Background(), "while true do end", &sink)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !res.Raised {
		t.Fatal("Execute() Raised = false, want true")
	}
	if !strings.Contains(res.ErrOutput, "interrupted") {
		t.Errorf("ErrOutput = %q, want it to mention interruption", res.ErrOutput)
	}
}

func TestInterruptAbortsExecution(t *testing.T) {
	// The timeout is a backstop so a broken Interrupt fails the test
	// instead of hanging it.
	eng := newTestEngine(t, WithTimeout(10*time.Second))

	go func() {
		time.Sleep(50 * time.Millisecond)
		eng.Interrupt()
	}()

	var sink strings.Builder
	start := time.Now()
	res, err := eng.Execute(context.Background(), "while true do end", &sink)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !res.Raised {
		t.Fatal("Execute() Raised = false, want true")
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Errorf("interrupt took %v, expected well under the timeout backstop", elapsed)
	}

	// The engine survives the interrupt.
	res, err = eng.Execute(context.Background(), "2 + 2", &sink)
	if err != nil {
		t.Fatalf("Execute() after interrupt error = %v", err)
	}
	if got, want := res.Output, "4\n"; got != want {
		t.Errorf("Output = %q, want %q", got, want)
	}
}

func TestInterruptWhileIdle(t *testing.T) {
	eng := newTestEngine(t)
	eng.Interrupt() // must not panic or poison later executions

	var sink strings.Builder
	res, err := eng.Execute(context.Background(), "1 + 1", &sink)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if got, want := res.Output, "2\n"; got != want {
		t.Errorf("Output = %q, want %q", got, want)
	}
}

func TestReset(t *testing.T) {
	eng := newTestEngine(t)

	var sink strings.Builder
	if _, err := eng.Execute(context.Background(), "x = 42", &sink); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if err := eng.Reset(); err != nil {
		t.Fatalf("Reset() error = %v", err)
	}

	res, err := eng.Execute(context.Background(), "x", &sink)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if got, want := res.Output, "nil\n"; got != want {
		t.Errorf("Output after Reset = %q, want %q", got, want)
	}

	// Libraries survive a reset.
	res, err = eng.Execute(context.Background(), `string.rep("a", 3)`, &sink)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if got, want := res.Output, "aaa\n"; got != want {
		t.Errorf("Output = %q, want %q", got, want)
	}
}

func TestComplete(t *testing.T) {
	eng := newTestEngine(t)

	var sink strings.Builder
	if _, err := eng.Execute(context.Background(), "xylo = 1 xyzzy = 2", &sink); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	got := eng.Complete("xy")
	want := []string{"xylo", "xyzzy"}
	if len(got) != len(want) {
		t.Fatalf("Complete(\"xy\") = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Complete(\"xy\")[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestCompleteDottedPath(t *testing.T) {
	eng := newTestEngine(t)

	got := eng.Complete("string.re")
	if len(got) == 0 {
		t.Fatal("Complete(\"string.re\") returned nothing")
	}
	found := map[string]bool{}
	for _, name := range got {
		found[name] = true
	}
	for _, want := range []string{"string.rep", "string.reverse"} {
		if !found[want] {
			t.Errorf("Complete(\"string.re\") = %v, missing %q", got, want)
		}
	}
}

func TestCompleteUnknownPath(t *testing.T) {
	eng := newTestEngine(t)

	if got := eng.Complete("no.such.table."); got != nil {
		t.Errorf("Complete on missing table = %v, want nil", got)
	}
}

func TestSafeLibrariesExcludeIO(t *testing.T) {
	eng := newTestEngine(t)

	var sink strings.Builder
	res, err := eng.Execute(context.Background(), `io.write("x")`, &sink)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !res.Raised {
		t.Error("io.write succeeded in the safe library set")
	}
}

func TestFullLibrariesRedirectIOWrite(t *testing.T) {
	eng := newTestEngine(t, WithFullLibraries())

	var sink strings.Builder
	res, err := eng.Execute(context.Background(), `io.write("a", "b")`, &sink)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if res.Raised {
		t.Fatalf("Execute() raised: %s", res.ErrOutput)
	}
	if got, want := sink.String(), "ab"; got != want {
		t.Errorf("sink = %q, want %q", got, want)
	}
}

func TestRegisterFunc(t *testing.T) {
	eng := newTestEngine(t)

	err := eng.RegisterFunc("double", func(L *glua.LState) int {
		n := L.CheckNumber(1)
		L.Push(glua.LNumber(2 * n))
		return 1
	})
	if err != nil {
		t.Fatalf("RegisterFunc() error = %v", err)
	}

	var sink strings.Builder
	res, err := eng.Execute(context.Background(), "double(21)", &sink)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if got, want := res.Output, "42\n"; got != want {
		t.Errorf("Output = %q, want %q", got, want)
	}

	// Registered functions survive Reset.
	if err := eng.Reset(); err != nil {
		t.Fatalf("Reset() error = %v", err)
	}
	res, err = eng.Execute(context.Background(), "double(2)", &sink)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if got, want := res.Output, "4\n"; got != want {
		t.Errorf("Output after Reset = %q, want %q", got, want)
	}
}

func TestClosedEngine(t *testing.T) {
	eng, err := New()
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := eng.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if !eng.IsClosed() {
		t.Error("IsClosed() = false after Close")
	}

	if _, err := eng.IsComplete("x = 1"); err != ErrEngineClosed {
		t.Errorf("IsComplete() error = %v, want ErrEngineClosed", err)
	}
	var sink strings.Builder
	if _, err := eng.Execute(context.Background(), "x = 1", &sink); err != ErrEngineClosed {
		t.Errorf("Execute() error = %v, want ErrEngineClosed", err)
	}
	if err := eng.Reset(); err != ErrEngineClosed {
		t.Errorf("Reset() error = %v, want ErrEngineClosed", err)
	}

	// Close is idempotent.
	if err := eng.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
}
