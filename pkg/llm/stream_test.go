package llm

import (
	"errors"
	"testing"
)

// TestStream_CallbackOrder: оба callback'а видят каждый чанк в порядке
// регистрации, итоговый текст — конкатенация чанков.
func TestStream_CallbackOrder(t *testing.T) {
	chunks := []string{"Hi", " there"}
	var log []string

	first := func(chunk string) error {
		log = append(log, "first:"+chunk)
		return nil
	}
	second := func(chunk string) error {
		log = append(log, "second:"+chunk)
		return nil
	}

	i := 0
	next := func() (string, bool, error) {
		if i >= len(chunks) {
			return "", true, nil
		}
		c := chunks[i]
		i++
		return c, false, nil
	}

	resp, err := CollectStream(next, first, second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.String() != "Hi there" {
		t.Errorf("expected %q, got %q", "Hi there", resp.String())
	}

	want := []string{"first:Hi", "second:Hi", "first: there", "second: there"}
	if len(log) != len(want) {
		t.Fatalf("expected %d callback invocations, got %d: %v", len(want), len(log), log)
	}
	for i := range want {
		if log[i] != want[i] {
			t.Errorf("invocation #%d: expected %q, got %q", i, want[i], log[i])
		}
	}
}

// TestStream_CallbackErrorAborts: ошибка callback'а прерывает стрим
// и поднимается наружу, частичный результат не отдаётся.
func TestStream_CallbackErrorAborts(t *testing.T) {
	boom := errors.New("boom")
	calls := 0

	next := func() (string, bool, error) {
		calls++
		if calls > 10 {
			t.Fatal("stream was not aborted")
		}
		return "chunk", false, nil
	}

	resp, err := CollectStream(next, func(string) error { return boom })
	if !errors.Is(err, boom) {
		t.Fatalf("expected callback error, got %v", err)
	}
	if resp != nil {
		t.Error("expected nil response after abort")
	}
	if calls != 1 {
		t.Errorf("expected stream to stop after first chunk, read %d", calls)
	}
}

// TestStream_EmptyChunksSkipped: пустые чанки не доезжают до callback'ов.
func TestStream_EmptyChunksSkipped(t *testing.T) {
	chunks := []string{"", "a", "", "b"}
	var seen []string

	i := 0
	next := func() (string, bool, error) {
		if i >= len(chunks) {
			return "", true, nil
		}
		c := chunks[i]
		i++
		return c, false, nil
	}

	resp, err := CollectStream(next, func(c string) error {
		seen = append(seen, c)
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if resp.String() != "ab" {
		t.Errorf("expected ab, got %q", resp.String())
	}
	if len(seen) != 2 {
		t.Errorf("expected 2 non-empty chunks, got %v", seen)
	}
}

// TestStream_ProviderErrorPropagates: ошибка источника не глотается.
func TestStream_ProviderErrorPropagates(t *testing.T) {
	failure := errors.New("provider failure")
	next := func() (string, bool, error) { return "", false, failure }

	_, err := CollectStream(next)
	if !errors.Is(err, failure) {
		t.Fatalf("expected provider error, got %v", err)
	}
}

// TestStreamAccumulator_Finalize: choices и usage появляются только
// после конца стрима.
func TestStreamAccumulator_Finalize(t *testing.T) {
	acc := NewStreamAccumulator()
	if err := acc.Push("Hello"); err != nil {
		t.Fatal(err)
	}
	if err := acc.Push(", world"); err != nil {
		t.Fatal(err)
	}

	usage := &Usage{CompletionTokens: 3, TotalTokens: 10}
	resp := acc.Finalize(nil, usage, "stop")

	if resp.String() != "Hello, world" {
		t.Errorf("unexpected text: %q", resp.String())
	}
	if len(resp.Choices) != 1 || resp.Choices[0].FinishReason != "stop" {
		t.Errorf("unexpected choices: %+v", resp.Choices)
	}
	if resp.Usage != usage {
		t.Error("usage not attached")
	}

	// после финализации аккумулятор заморожен
	if err := acc.Push("late"); err != nil {
		t.Fatal(err)
	}
	if acc.Text() != "Hello, world" {
		t.Errorf("accumulator mutated after finalize: %q", acc.Text())
	}
}
