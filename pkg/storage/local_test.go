package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func testLocal(t *testing.T) *Local {
	t.Helper()
	return NewLocalAt(t.TempDir())
}

func TestWriteRead(t *testing.T) {
	l := testLocal(t)
	ctx := context.Background()

	name, err := l.Write(ctx, "note", []byte("hello"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if name != "note.txt" {
		t.Errorf("expected default extension, got %q", name)
	}

	data, err := l.Read(ctx, "note")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(data) != "hello" {
		t.Errorf("unexpected content: %q", data)
	}
}

func TestWrite_Subdirectory(t *testing.T) {
	l := testLocal(t)
	ctx := context.Background()

	if _, err := l.Write(ctx, "runs/first/result.txt", []byte("x")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	exists, err := l.Exists(ctx, "runs/first/result.txt")
	if err != nil || !exists {
		t.Errorf("expected file to exist, err=%v", err)
	}
}

func TestWriteNew_AutoNumbering(t *testing.T) {
	l := testLocal(t)
	ctx := context.Background()

	first, err := l.WriteNew(ctx, "report.txt", []byte("a"))
	if err != nil {
		t.Fatal(err)
	}
	second, err := l.WriteNew(ctx, "report.txt", []byte("b"))
	if err != nil {
		t.Fatal(err)
	}
	third, err := l.WriteNew(ctx, "report.txt", []byte("c"))
	if err != nil {
		t.Fatal(err)
	}

	if first != "report.txt" || second != "report_1.txt" || third != "report_2.txt" {
		t.Errorf("unexpected names: %q %q %q", first, second, third)
	}

	data, _ := l.Read(ctx, "report.txt")
	if string(data) != "a" {
		t.Errorf("original file was overwritten: %q", data)
	}
}

func TestJSONRoundTrip(t *testing.T) {
	l := testLocal(t)
	ctx := context.Background()

	in := map[string]any{"model": "gpt-4", "tokens": float64(42)}
	name, err := l.WriteJSON(ctx, "result", in)
	if err != nil {
		t.Fatal(err)
	}
	if name != "result.json" {
		t.Errorf("expected result.json, got %q", name)
	}

	var out map[string]any
	if err := l.ReadJSON(ctx, "result", &out); err != nil {
		t.Fatal(err)
	}
	if out["model"] != "gpt-4" || out["tokens"] != float64(42) {
		t.Errorf("unexpected round trip: %v", out)
	}
}

func TestReadText_Fallback(t *testing.T) {
	l := testLocal(t)

	got, err := l.ReadText(context.Background(), "missing", "default")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "default" {
		t.Errorf("expected fallback, got %q", got)
	}
}

func TestDelete_MissingIsFine(t *testing.T) {
	l := testLocal(t)
	if err := l.Delete(context.Background(), "nope.txt"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestList(t *testing.T) {
	l := testLocal(t)
	ctx := context.Background()

	l.Write(ctx, "runs/a.txt", []byte("1"))
	l.Write(ctx, "runs/b.txt", []byte("2"))
	l.Write(ctx, "other.txt", []byte("3"))

	names, err := l.List(ctx, "runs/")
	if err != nil {
		t.Fatal(err)
	}
	if len(names) != 2 {
		t.Errorf("expected 2 files, got %v", names)
	}

	all, err := l.List(ctx, "")
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 3 {
		t.Errorf("expected 3 files, got %v", all)
	}
}

func TestList_MissingRoot(t *testing.T) {
	l := NewLocalAt(filepath.Join(t.TempDir(), "nope"))
	names, err := l.List(context.Background(), "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(names) != 0 {
		t.Errorf("expected empty list, got %v", names)
	}
}

func TestClean(t *testing.T) {
	l := testLocal(t)
	ctx := context.Background()

	l.Write(ctx, "tmp/a.txt", []byte("1"))
	if err := l.Clean("tmp"); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Join(l.root, "tmp")); !os.IsNotExist(err) {
		t.Error("expected tmp to be removed")
	}
}

func TestClean_RejectsEscape(t *testing.T) {
	l := testLocal(t)

	if err := l.Clean(".."); err == nil {
		t.Fatal("expected error for path escaping storage root")
	}
	if err := l.Clean("../outside"); err == nil {
		t.Fatal("expected error for path escaping storage root")
	}
	if err := l.Clean("."); err == nil {
		t.Fatal("expected error for deleting storage root itself")
	}
}
