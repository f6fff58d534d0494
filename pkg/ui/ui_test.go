package ui

import (
	"bytes"
	"strings"
	"testing"
)

func captureOut(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	old := Out
	Out = &buf
	t.Cleanup(func() { Out = old })
	return &buf
}

func TestInfo(t *testing.T) {
	buf := captureOut(t)
	Info("loaded %d documents", 3)
	if !strings.Contains(buf.String(), "loaded 3 documents") {
		t.Errorf("unexpected output: %q", buf.String())
	}
}

func TestKeyValue(t *testing.T) {
	buf := captureOut(t)
	KeyValue("model", "gpt-4")
	out := buf.String()
	if !strings.Contains(out, "model:") || !strings.Contains(out, "gpt-4") {
		t.Errorf("unexpected output: %q", out)
	}
}

func TestWrap(t *testing.T) {
	got := Wrap("one two three four", 9)
	if !strings.Contains(got, "\n") {
		t.Errorf("expected wrapped text, got %q", got)
	}
	if Wrap("abc", 0) != "abc" {
		t.Error("zero width must not wrap")
	}
}
