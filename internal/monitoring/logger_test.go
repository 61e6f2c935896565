package monitoring

import (
	"fmt"
	"testing"
)

func captureLogs(t *testing.T) *[]string {
	t.Helper()
	original := Logf
	t.Cleanup(func() { Logf = original })

	var lines []string
	SetLogger(func(format string, v ...interface{}) {
		lines = append(lines, fmt.Sprintf(format, v...))
	})
	return &lines
}

func TestSetLogger(t *testing.T) {
	lines := captureLogs(t)

	Logf("test %d", 1)
	if len(*lines) != 1 || (*lines)[0] != "test 1" {
		t.Fatalf("custom logger got %v", *lines)
	}

	// nil installs a no-op logger
	SetLogger(nil)
	Logf("dropped")
	if len(*lines) != 1 {
		t.Errorf("no-op logger should not reach the previous logger, got %v", *lines)
	}
}

func TestLogf_Default(t *testing.T) {
	if Logf == nil {
		t.Fatal("Logf should not be nil by default")
	}
	defer func() {
		if r := recover(); r != nil {
			t.Errorf("Logf panicked: %v", r)
		}
	}()
	Logf("test message: %s", "value")
}

func TestLogger_Prefix(t *testing.T) {
	lines := captureLogs(t)

	l := NewLogger("job")
	l.Printf("clustered %d points", 12)

	if len(*lines) != 1 || (*lines)[0] != "[job] clustered 12 points" {
		t.Errorf("got %v", *lines)
	}
}

func TestLogger_Verbose(t *testing.T) {
	l := NewLogger("migrate")
	if l.Verbose() {
		t.Error("new logger should not be verbose")
	}
	v := l.WithVerbose(true)
	if !v.Verbose() {
		t.Error("WithVerbose(true) should be verbose")
	}
	if l.Verbose() {
		t.Error("WithVerbose must not modify the receiver")
	}
}
