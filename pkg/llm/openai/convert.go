package openai

import (
	"github.com/ilkoid/aicore/pkg/llm"
	"github.com/ilkoid/aicore/pkg/utils"
	openai "github.com/sashabaranov/go-openai"
)

// Конвертация между нашим форматом и форматом SDK.

// mapMessages конвертирует внутренние сообщения в формат OpenAI SDK.
func mapMessages(msgs []llm.Msg) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, len(msgs))
	for i, m := range msgs {
		out[i] = openai.ChatCompletionMessage{
			Role:    string(m.Role),
			Content: m.Content,
		}
	}
	return out
}

// chatPayload конвертирует ответ SDK в нормализуемый payload.
func chatPayload(resp openai.ChatCompletionResponse) *llm.ChatPayload {
	p := &llm.ChatPayload{
		Choices: make([]llm.ChatChoice, len(resp.Choices)),
		Usage: &llm.Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		},
	}
	for i, ch := range resp.Choices {
		p.Choices[i] = llm.ChatChoice{
			Role:         llm.Role(ch.Message.Role),
			Content:      ch.Message.Content,
			FinishReason: string(ch.FinishReason),
		}
	}
	return p
}

func completionPayload(resp openai.CompletionResponse) *llm.CompletionPayload {
	p := &llm.CompletionPayload{
		Choices: make([]llm.CompletionChoice, len(resp.Choices)),
		Usage: &llm.Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		},
	}
	for i, ch := range resp.Choices {
		p.Choices[i] = llm.CompletionChoice{
			Text:         ch.Text,
			FinishReason: ch.FinishReason,
		}
	}
	return p
}

// applyChatArgs маппит passthrough-аргументы (LLM_DEFAULT_ARGS и WithArg)
// на типизированные поля запроса. SDK типизирован, поэтому поддерживается
// только известный набор; незнакомый аргумент логируется и пропускается.
func applyChatArgs(req *openai.ChatCompletionRequest, args map[string]any) {
	for name, value := range args {
		switch name {
		case "top_p":
			if f, ok := toFloat32(value); ok {
				req.TopP = f
			}
		case "n":
			if n, ok := toInt(value); ok {
				req.N = n
			}
		case "seed":
			if n, ok := toInt(value); ok {
				req.Seed = &n
			}
		case "stop":
			req.Stop = toStringSlice(value)
		case "presence_penalty":
			if f, ok := toFloat32(value); ok {
				req.PresencePenalty = f
			}
		case "frequency_penalty":
			if f, ok := toFloat32(value); ok {
				req.FrequencyPenalty = f
			}
		case "user":
			if s, ok := value.(string); ok {
				req.User = s
			}
		default:
			utils.Debug("skipping unsupported request argument", "name", name)
		}
	}
}

func applyCompletionArgs(req *openai.CompletionRequest, args map[string]any) {
	for name, value := range args {
		switch name {
		case "top_p":
			if f, ok := toFloat32(value); ok {
				req.TopP = f
			}
		case "n":
			if n, ok := toInt(value); ok {
				req.N = n
			}
		case "seed":
			if n, ok := toInt(value); ok {
				req.Seed = &n
			}
		case "stop":
			req.Stop = toStringSlice(value)
		case "presence_penalty":
			if f, ok := toFloat32(value); ok {
				req.PresencePenalty = f
			}
		case "frequency_penalty":
			if f, ok := toFloat32(value); ok {
				req.FrequencyPenalty = f
			}
		case "user":
			if s, ok := value.(string); ok {
				req.User = s
			}
		default:
			utils.Debug("skipping unsupported request argument", "name", name)
		}
	}
}

func toFloat32(v any) (float32, bool) {
	switch n := v.(type) {
	case float64:
		return float32(n), true
	case float32:
		return n, true
	case int:
		return float32(n), true
	default:
		return 0, false
	}
}

func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case float64:
		return int(n), true
	default:
		return 0, false
	}
}

func toStringSlice(v any) []string {
	switch s := v.(type) {
	case []string:
		return s
	case string:
		return []string{s}
	case []any:
		out := make([]string, 0, len(s))
		for _, item := range s {
			if str, ok := item.(string); ok {
				out = append(out, str)
			}
		}
		return out
	default:
		return nil
	}
}
