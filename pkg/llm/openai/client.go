// Package openai реализует адаптер LLM провайдера для OpenAI-совместимых API.
//
// Один и тот же клиент обслуживает OpenAI, Azure OpenAI и любые
// OpenAI-совместимые endpoint'ы (Anyscale, DeepInfra, локальные серверы)
// через LLM_API_BASE. Наружу отдаётся только интерфейс llm.Provider.
package openai

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ilkoid/aicore/pkg/config"
	"github.com/ilkoid/aicore/pkg/llm"
	"github.com/ilkoid/aicore/pkg/utils"
	openai "github.com/sashabaranov/go-openai"
)

// Client реализует интерфейс llm.Provider для OpenAI-совместимых API.
//
// Поддерживает:
//   - chat и completion запросы (выбор по CHAT_MODE или имени модели)
//   - стриминг с синхронными callback'ами
//   - Azure OpenAI (deployment, api-version)
//   - дополнительные HTTP заголовки из конфигурации
type Client struct {
	api *openai.Client
	cfg *config.Config
}

// headerTransport добавляет сконфигурированные заголовки к каждому запросу.
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
//
// Правило 2: все настройки из конфигурации, никакого хардкода.
func NewClient(cfg *config.Config) *Client {
	var clientCfg openai.ClientConfig
	if cfg.LLMAPIType == config.APITypeAzure {
		clientCfg = openai.DefaultAzureConfig(cfg.LLMAPIKey, cfg.LLMAPIBase)
		clientCfg.APIVersion = cfg.LLMAPIVersion
		// Azure адресует модель по deployment, а не по имени
		deployment := cfg.LLMDeploymentID
		clientCfg.AzureModelMapperFunc = func(model string) string {
			return deployment
		}
	} else {
		clientCfg = openai.DefaultConfig(cfg.LLMAPIKey)
		if cfg.LLMAPIBase != "" {
			clientCfg.BaseURL = cfg.LLMAPIBase
		}
	}

	if headers := cfg.EffectiveHeaders(); len(headers) > 0 {
		clientCfg.HTTPClient = &http.Client{
			Transport: &headerTransport{base: http.DefaultTransport, headers: headers},
		}
	}

	return &Client{
		api: openai.NewClientWithConfig(clientCfg),
		cfg: cfg,
	}
}

// Generate выполняет запрос к API и возвращает нормализованный ответ.
//
// Алгоритм:
//  1. Выбирает модель (опция запроса или MODEL из конфигурации)
//  2. Решает chat vs completion (opts.Kind, иначе CHAT_MODE/эвристика)
//  3. При наличии callback'ов идёт через streaming endpoint
//  4. Нормализует ответ через llm.Adapt
//
// Правило 7: все ошибки возвращаются, никаких panic.
func (c *Client) Generate(ctx context.Context, prompt any, opts llm.Options) (*llm.LLMResponse, error) {
	startTime := time.Now()

	model := opts.Model
	if model == "" {
		model = c.cfg.Model
	}

	kind := llm.KindChat
	if opts.Kind != nil {
		kind = *opts.Kind
	} else if !c.cfg.IsChatModel(model) {
		kind = llm.KindCompletion
	}

	utils.Debug("LLM request started",
		"provider", "openai",
		"model", model,
		"kind", kind.String(),
		"streaming", opts.Streaming())

	var resp *llm.LLMResponse
	var err error
	if kind == llm.KindChat {
		resp, err = c.generateChat(ctx, prompt, model, opts)
	} else {
		resp, err = c.generateCompletion(ctx, prompt, model, opts)
	}
	if err != nil {
		utils.Error("LLM request failed",
			"provider", "openai",
			"model", model,
			"error", err,
			"duration_ms", time.Since(startTime).Milliseconds())
		return nil, err
	}

	resp.GenDuration = time.Since(startTime)
	utils.Info("LLM response received",
		"provider", "openai",
		"model", model,
		"content_length", len(resp.String()),
		"duration_ms", resp.GenDuration.Milliseconds())
	return resp, nil
}

func (c *Client) generateChat(ctx context.Context, prompt any, model string, opts llm.Options) (*llm.LLMResponse, error) {
	msgs, err := llm.PrepareChatMessages(prompt)
	if err != nil {
		return nil, err
	}

	req := openai.ChatCompletionRequest{
		Model:    model,
		Messages: mapMessages(msgs),
	}
	if opts.Temperature != nil {
		req.Temperature = float32(*opts.Temperature)
	}
	if opts.MaxTokens > 0 {
		req.MaxTokens = opts.MaxTokens
	}
	applyChatArgs(&req, opts.Args)

	if opts.Streaming() {
		return c.streamChat(ctx, req, opts.Callbacks)
	}

	apiResp, err := c.api.CreateChatCompletion(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("openai api error: %w", err)
	}
	return llm.Adapt(chatPayload(apiResp), llm.KindChat)
}

func (c *Client) streamChat(ctx context.Context, req openai.ChatCompletionRequest, callbacks []llm.Callback) (*llm.LLMResponse, error) {
	req.Stream = true
	req.StreamOptions = &openai.StreamOptions{IncludeUsage: true}

	stream, err := c.api.CreateChatCompletionStream(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("openai api error: %w", err)
	}
	defer stream.Close()

	acc := llm.NewStreamAccumulator(callbacks...)
	var usage *llm.Usage
	var finishReason string
	for {
		chunk, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("openai stream error: %w", err)
		}
		if chunk.Usage != nil {
			usage = &llm.Usage{
				PromptTokens:     chunk.Usage.PromptTokens,
				CompletionTokens: chunk.Usage.CompletionTokens,
				TotalTokens:      chunk.Usage.TotalTokens,
			}
		}
		if len(chunk.Choices) == 0 {
			continue
		}
		if fr := chunk.Choices[0].FinishReason; fr != "" {
			finishReason = string(fr)
		}
		if err := acc.Push(chunk.Choices[0].Delta.Content); err != nil {
			return nil, err
		}
	}
	return acc.Finalize(nil, usage, finishReason), nil
}

func (c *Client) generateCompletion(ctx context.Context, prompt any, model string, opts llm.Options) (*llm.LLMResponse, error) {
	text, err := llm.PreparePrompt(prompt)
	if err != nil {
		return nil, err
	}

	req := openai.CompletionRequest{
		Model:  model,
		Prompt: text,
	}
	if opts.Temperature != nil {
		req.Temperature = float32(*opts.Temperature)
	}
	if opts.MaxTokens > 0 {
		req.MaxTokens = opts.MaxTokens
	}
	applyCompletionArgs(&req, opts.Args)

	if opts.Streaming() {
		return c.streamCompletion(ctx, req, opts.Callbacks)
	}

	apiResp, err := c.api.CreateCompletion(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("openai api error: %w", err)
	}
	return llm.Adapt(completionPayload(apiResp), llm.KindCompletion)
}

func (c *Client) streamCompletion(ctx context.Context, req openai.CompletionRequest, callbacks []llm.Callback) (*llm.LLMResponse, error) {
	req.Stream = true

	stream, err := c.api.CreateCompletionStream(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("openai api error: %w", err)
	}
	defer stream.Close()

	acc := llm.NewStreamAccumulator(callbacks...)
	var finishReason string
	for {
		chunk, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("openai stream error: %w", err)
		}
		if len(chunk.Choices) == 0 {
			continue
		}
		if fr := chunk.Choices[0].FinishReason; fr != "" {
			finishReason = fr
		}
		if err := acc.Push(chunk.Choices[0].Text); err != nil {
			return nil, err
		}
	}
	return acc.Finalize(nil, nil, finishReason), nil
}
