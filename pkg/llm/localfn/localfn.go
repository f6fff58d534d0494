// Package localfn реализует llm.Provider поверх пользовательской
// inference-функции (LLM_API_TYPE=function).
//
// Используется для локальных моделей и в тестах: сетевых вызовов нет,
// весь ответ приходит одной строкой и нормализуется как plain-string.
package localfn

import (
	"context"
	"fmt"
	"time"

	"github.com/ilkoid/aicore/pkg/config"
	"github.com/ilkoid/aicore/pkg/llm"
)

// Client оборачивает InferenceFunc в интерфейс llm.Provider.
type Client struct {
	fn  config.InferenceFunc
	cfg *config.Config
}

// NewClient создает провайдер из конфигурации с INFERENCE_FUNC.
func NewClient(cfg *config.Config) (*Client, error) {
	if cfg.Inference == nil {
		return nil, fmt.Errorf("localfn: INFERENCE_FUNC is not configured")
	}
	return &Client{fn: cfg.Inference, cfg: cfg}, nil
}

// Generate вызывает inference-функцию и нормализует её ответ.
//
// Функция отдаёт весь ответ целиком, поэтому при стриминге callback'и
// получают его одним чанком перед финализацией.
func (c *Client) Generate(ctx context.Context, prompt any, opts llm.Options) (*llm.LLMResponse, error) {
	text, err := llm.PreparePrompt(prompt)
	if err != nil {
		return nil, err
	}

	args := map[string]any{}
	for name, value := range opts.Args {
		args[name] = value
	}
	if opts.Model != "" {
		args["model"] = opts.Model
	}
	if opts.Temperature != nil {
		args["temperature"] = *opts.Temperature
	}
	if opts.MaxTokens > 0 {
		args["max_tokens"] = opts.MaxTokens
	}

	startTime := time.Now()
	out, err := c.fn(ctx, text, args)
	if err != nil {
		return nil, fmt.Errorf("inference function error: %w", err)
	}

	if opts.Streaming() {
		acc := llm.NewStreamAccumulator(opts.Callbacks...)
		if err := acc.Push(out); err != nil {
			return nil, err
		}
		resp := acc.Finalize(out, nil, "")
		resp.GenDuration = time.Since(startTime)
		return resp, nil
	}

	resp, err := llm.Adapt(out, llm.KindCompletion)
	if err != nil {
		return nil, err
	}
	resp.GenDuration = time.Since(startTime)
	return resp, nil
}
