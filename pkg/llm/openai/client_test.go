package openai

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ilkoid/aicore/pkg/config"
	"github.com/ilkoid/aicore/pkg/llm"
	goopenai "github.com/sashabaranov/go-openai"
)

// TestNewClient тестирует создание клиента.
func TestNewClient(t *testing.T) {
	tests := []struct {
		name string
		cfg  *config.Config
	}{
		{
			name: "minimal config",
			cfg: &config.Config{
				LLMAPIType: config.APITypeOpenAI,
				LLMAPIKey:  "test-key",
				Model:      "gpt-4",
			},
		},
		{
			name: "with custom base url",
			cfg: &config.Config{
				LLMAPIType: config.APITypeOpenAI,
				LLMAPIKey:  "test-key",
				LLMAPIBase: "https://api.deepinfra.com/v1/openai",
				Model:      "meta-llama/Llama-2-70b-chat-hf",
			},
		},
		{
			name: "azure",
			cfg: &config.Config{
				LLMAPIType:      config.APITypeAzure,
				LLMAPIKey:       "test-key",
				LLMAPIBase:      "https://example.openai.azure.com",
				LLMAPIVersion:   "2023-05-15",
				LLMDeploymentID: "gpt4-deploy",
				Model:           "gpt-4",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := NewClient(tt.cfg)
			if client == nil {
				t.Fatal("expected non-nil client")
			}
			if client.api == nil {
				t.Error("expected non-nil api client")
			}
		})
	}
}

// TestMapMessages тестирует конвертацию сообщений в формат SDK.
func TestMapMessages(t *testing.T) {
	msgs := []llm.Msg{
		llm.SysMsg("You are terse."),
		llm.UserMsg("2+2?"),
	}

	result := mapMessages(msgs)

	if len(result) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(result))
	}
	if result[0].Role != "system" || result[0].Content != "You are terse." {
		t.Errorf("unexpected system message: %+v", result[0])
	}
	if result[1].Role != "user" || result[1].Content != "2+2?" {
		t.Errorf("unexpected user message: %+v", result[1])
	}
}

// TestApplyChatArgs тестирует маппинг passthrough-аргументов.
func TestApplyChatArgs(t *testing.T) {
	args := map[string]any{
		"top_p":   0.9,
		"seed":    float64(42), // как после json.Unmarshal
		"stop":    []any{"END"},
		"unknown": "ignored",
	}

	req := goopenai.ChatCompletionRequest{Model: "gpt-4"}
	applyChatArgs(&req, args)

	if req.TopP != 0.9 {
		t.Errorf("expected top_p 0.9, got %v", req.TopP)
	}
	if req.Seed == nil || *req.Seed != 42 {
		t.Errorf("expected seed 42, got %v", req.Seed)
	}
	if len(req.Stop) != 1 || req.Stop[0] != "END" {
		t.Errorf("expected stop [END], got %v", req.Stop)
	}
}

// TestGenerate_Chat тестирует chat-запрос через фейковый сервер.
func TestGenerate_Chat(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("X-Request-Source"); got != "unit-test" {
			t.Errorf("expected configured header, got %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{
			"choices": [{"index": 0, "message": {"role": "assistant", "content": "3"}, "finish_reason": "stop"}],
			"usage": {"prompt_tokens": 10, "completion_tokens": 1, "total_tokens": 11}
		}`)
	}))
	defer srv.Close()

	cfg := &config.Config{
		LLMAPIType:  config.APITypeOpenAI,
		LLMAPIKey:   "test-key",
		LLMAPIBase:  srv.URL,
		Model:       "gpt-4",
		HTTPHeaders: map[string]string{"X-Request-Source": "unit-test"},
	}
	client := NewClient(cfg)

	resp, err := client.Generate(context.Background(), "1+2?", llm.Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.String() != "3" {
		t.Errorf("expected text %q, got %q", "3", resp.String())
	}
	if len(resp.Choices) != 1 {
		t.Fatalf("expected 1 choice, got %d", len(resp.Choices))
	}
	if resp.Choices[0].FinishReason != "stop" {
		t.Errorf("expected finish_reason stop, got %q", resp.Choices[0].FinishReason)
	}
	if resp.Usage == nil || resp.Usage.TotalTokens != 11 {
		t.Errorf("expected total_tokens 11, got %+v", resp.Usage)
	}
	if resp.GenDuration <= 0 {
		t.Error("expected positive generation duration")
	}
}

// TestGenerate_ChatStream тестирует стриминг: чанки доставляются
// callback'ам по порядку, итоговый текст собирается целиком.
func TestGenerate_ChatStream(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "data: {\"choices\":[{\"index\":0,\"delta\":{\"content\":\"Hi\"}}]}\n\n")
		fmt.Fprint(w, "data: {\"choices\":[{\"index\":0,\"delta\":{\"content\":\" there\"},\"finish_reason\":\"stop\"}]}\n\n")
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	defer srv.Close()

	cfg := &config.Config{
		LLMAPIType: config.APITypeOpenAI,
		LLMAPIKey:  "test-key",
		LLMAPIBase: srv.URL,
		Model:      "gpt-4",
	}
	client := NewClient(cfg)

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
	if len(chunks) != 2 || chunks[0] != "Hi" || chunks[1] != " there" {
		t.Errorf("unexpected chunks: %v", chunks)
	}
	if resp.String() != "Hi there" {
		t.Errorf("expected %q, got %q", "Hi there", resp.String())
	}
}

// TestGenerate_StreamCallbackError тестирует прерывание стрима ошибкой
// callback'а: ошибка поднимается, частичный ответ не возвращается.
func TestGenerate_StreamCallbackError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "data: {\"choices\":[{\"index\":0,\"delta\":{\"content\":\"Hi\"}}]}\n\n")
		fmt.Fprint(w, "data: {\"choices\":[{\"index\":0,\"delta\":{\"content\":\" there\"}}]}\n\n")
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	defer srv.Close()

	cfg := &config.Config{
		LLMAPIType: config.APITypeOpenAI,
		LLMAPIKey:  "test-key",
		LLMAPIBase: srv.URL,
		Model:      "gpt-4",
	}
	client := NewClient(cfg)

	wantErr := fmt.Errorf("sink is full")
	resp, err := client.Generate(context.Background(), "hello", llm.Options{
		Callbacks: []llm.Callback{func(chunk string) error {
			return wantErr
		}},
	})
	if err == nil {
		t.Fatal("expected error from callback, got nil")
	}
	if resp != nil {
		t.Errorf("expected nil response on callback error, got %v", resp)
	}
}

// TestGenerate_Completion тестирует completion-путь для нечатовых моделей.
func TestGenerate_Completion(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{
			"choices": [{"index": 0, "text": "Paris", "finish_reason": "stop"}],
			"usage": {"prompt_tokens": 5, "completion_tokens": 1, "total_tokens": 6}
		}`)
	}))
	defer srv.Close()

	cfg := &config.Config{
		LLMAPIType: config.APITypeOpenAI,
		LLMAPIKey:  "test-key",
		LLMAPIBase: srv.URL,
		Model:      "gpt-3.5-turbo-instruct",
	}
	client := NewClient(cfg)

	resp, err := client.Generate(context.Background(), "Capital of France?", llm.Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.String() != "Paris" {
		t.Errorf("expected %q, got %q", "Paris", resp.String())
	}
}

// TestGenerate_APIError тестирует обработку ошибки API.
//
// Правило 7: ошибка возвращается, а не паникует.
func TestGenerate_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error": {"message": "quota exceeded"}}`, http.StatusTooManyRequests)
	}))
	defer srv.Close()

	cfg := &config.Config{
		LLMAPIType: config.APITypeOpenAI,
		LLMAPIKey:  "test-key",
		LLMAPIBase: srv.URL,
		Model:      "gpt-4",
	}
	client := NewClient(cfg)

	_, err := client.Generate(context.Background(), "hello", llm.Options{})
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}
