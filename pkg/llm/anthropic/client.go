// Package anthropic реализует адаптер LLM провайдера для Anthropic Messages API.
//
// Anthropic не имеет completion-режима и требует отдельного system-поля:
// system-сообщения извлекаются из промпта и склеиваются в него, остальные
// идут в messages. Работает только через интерфейс llm.Provider.
package anthropic

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/ilkoid/aicore/pkg/config"
	"github.com/ilkoid/aicore/pkg/llm"
	"github.com/ilkoid/aicore/pkg/utils"
	anthropic "github.com/liushuangls/go-anthropic/v2"
)

// defaultMaxTokens — Messages API требует max_tokens в каждом запросе.
const defaultMaxTokens = 4096

// Client реализует интерфейс llm.Provider для Anthropic.
type Client struct {
	api *anthropic.Client
	cfg *config.Config
}

type headerTransport struct {
	base    http.RoundTripper
	headers map[string]string
}

func (t *headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	for name, value := range t.headers {
		req.Header.Set(name, value)
	}
	return t.base.RoundTrip(req)
}

// NewClient создает клиент на основе снапшота конфигурации.
func NewClient(cfg *config.Config) *Client {
	var opts []anthropic.ClientOption
	// Дефолтный base конфигурации совпадает с дефолтом SDK,
	// прокидываем только нестандартный endpoint
	if cfg.LLMAPIBase != "" && cfg.LLMAPIBase != "https://api.anthropic.com/" {
		opts = append(opts, anthropic.WithBaseURL(strings.TrimSuffix(cfg.LLMAPIBase, "/")))
	}
	if cfg.LLMAPIVersion != "" {
		opts = append(opts, anthropic.WithAPIVersion(anthropic.APIVersion(cfg.LLMAPIVersion)))
	}
	if headers := cfg.EffectiveHeaders(); len(headers) > 0 {
		opts = append(opts, anthropic.WithHTTPClient(&http.Client{
			Transport: &headerTransport{base: http.DefaultTransport, headers: headers},
		}))
	}

	return &Client{
		api: anthropic.NewClient(cfg.LLMAPIKey, opts...),
		cfg: cfg,
	}
}

// Generate выполняет запрос к Messages API и возвращает нормализованный ответ.
func (c *Client) Generate(ctx context.Context, prompt any, opts llm.Options) (*llm.LLMResponse, error) {
	startTime := time.Now()

	model := opts.Model
	if model == "" {
		model = c.cfg.Model
	}

	req, err := buildRequest(prompt, model, opts)
	if err != nil {
		return nil, err
	}

	utils.Debug("LLM request started",
		"provider", "anthropic",
		"model", model,
		"streaming", opts.Streaming())

	var resp *llm.LLMResponse
	if opts.Streaming() {
		resp, err = c.stream(ctx, req, opts.Callbacks)
	} else {
		resp, err = c.complete(ctx, req)
	}
	if err != nil {
		utils.Error("LLM request failed",
			"provider", "anthropic",
			"model", model,
			"error", err,
			"duration_ms", time.Since(startTime).Milliseconds())
		return nil, err
	}

	resp.GenDuration = time.Since(startTime)
	utils.Info("LLM response received",
		"provider", "anthropic",
		"model", model,
		"content_length", len(resp.String()),
		"duration_ms", resp.GenDuration.Milliseconds())
	return resp, nil
}

func (c *Client) complete(ctx context.Context, req anthropic.MessagesRequest) (*llm.LLMResponse, error) {
	apiResp, err := c.api.CreateMessages(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("anthropic api error: %w", err)
	}
	return llm.Adapt(messagesPayload(apiResp), llm.KindChat)
}

// stream прокачивает ответ через callback'и.
//
// SDK доставляет дельты синхронно на горутине запроса. Ошибка callback'а
// отменяет контекст запроса и поднимается наверх вместо частичного ответа.
func (c *Client) stream(ctx context.Context, req anthropic.MessagesRequest, callbacks []llm.Callback) (*llm.LLMResponse, error) {
	streamCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	acc := llm.NewStreamAccumulator(callbacks...)
	var cbErr error

	apiResp, err := c.api.CreateMessagesStream(streamCtx, anthropic.MessagesStreamRequest{
		MessagesRequest: req,
		OnContentBlockDelta: func(data anthropic.MessagesEventContentBlockDeltaData) {
			if cbErr != nil {
				return
			}
			if data.Delta.Text == nil {
				return
			}
			if err := acc.Push(*data.Delta.Text); err != nil {
				cbErr = err
				cancel()
			}
		},
	})
	if cbErr != nil {
		return nil, cbErr
	}
	if err != nil {
		return nil, fmt.Errorf("anthropic stream error: %w", err)
	}

	usage := &llm.Usage{
		PromptTokens:     apiResp.Usage.InputTokens,
		CompletionTokens: apiResp.Usage.OutputTokens,
		TotalTokens:      apiResp.Usage.InputTokens + apiResp.Usage.OutputTokens,
	}
	return acc.Finalize(apiResp, usage, string(apiResp.StopReason)), nil
}
