package localfn

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/ilkoid/aicore/pkg/config"
	"github.com/ilkoid/aicore/pkg/llm"
)

func echoCfg(fn config.InferenceFunc) *config.Config {
	return &config.Config{
		LLMAPIType: config.APITypeFunction,
		Inference:  fn,
	}
}

func TestNewClient_RequiresFunc(t *testing.T) {
	_, err := NewClient(&config.Config{LLMAPIType: config.APITypeFunction})
	if err == nil {
		t.Fatal("expected error without INFERENCE_FUNC")
	}
}

func TestGenerate(t *testing.T) {
	var gotPrompt string
	var gotArgs map[string]any
	client, err := NewClient(echoCfg(func(ctx context.Context, prompt string, args map[string]any) (string, error) {
		gotPrompt = prompt
		gotArgs = args
		return strings.ToUpper(prompt), nil
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	temp := 0.5
	resp, err := client.Generate(context.Background(), []llm.Msg{
		llm.SysMsg("be loud"),
		llm.UserMsg("hello"),
	}, llm.Options{Temperature: &temp})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if gotPrompt != "be loud\nhello" {
		t.Errorf("unexpected prompt: %q", gotPrompt)
	}
	if gotArgs["temperature"] != 0.5 {
		t.Errorf("expected temperature in args, got %v", gotArgs)
	}
	if resp.String() != "BE LOUD\nHELLO" {
		t.Errorf("unexpected response: %q", resp.String())
	}
	if len(resp.Choices) != 1 {
		t.Errorf("expected single choice, got %d", len(resp.Choices))
	}
	if resp.Usage != nil {
		t.Errorf("expected nil usage for local function, got %+v", resp.Usage)
	}
}

func TestGenerate_Error(t *testing.T) {
	wantErr := errors.New("model not loaded")
	client, _ := NewClient(echoCfg(func(ctx context.Context, prompt string, args map[string]any) (string, error) {
		return "", wantErr
	}))

	_, err := client.Generate(context.Background(), "hello", llm.Options{})
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected wrapped inference error, got %v", err)
	}
}

func TestGenerate_StreamingDeliversWholeText(t *testing.T) {
	client, _ := NewClient(echoCfg(func(ctx context.Context, prompt string, args map[string]any) (string, error) {
		return "all at once", nil
	}))

	var chunks []string
	resp, err := client.Generate(context.Background(), "hello", llm.Options{
		Callbacks: []llm.Callback{func(chunk string) error {
			chunks = append(chunks, chunk)
			return nil
		}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chunks) != 1 || chunks[0] != "all at once" {
		t.Errorf("unexpected chunks: %v", chunks)
	}
	if resp.String() != "all at once" {
		t.Errorf("unexpected response: %q", resp.String())
	}
}
