package anthropic

import (
	"strings"

	"github.com/ilkoid/aicore/pkg/llm"
	"github.com/ilkoid/aicore/pkg/utils"
	anthropic "github.com/liushuangls/go-anthropic/v2"
)

// buildRequest конвертирует промпт и опции в MessagesRequest.
//
// System-сообщения не входят в messages: они извлекаются и склеиваются
// переводами строк в поле System.
func buildRequest(prompt any, model string, opts llm.Options) (anthropic.MessagesRequest, error) {
	msgs, err := llm.PrepareChatMessages(prompt)
	if err != nil {
		return anthropic.MessagesRequest{}, err
	}

	system, mapped := splitSystem(msgs)

	req := anthropic.MessagesRequest{
		Model:     anthropic.Model(model),
		Messages:  mapped,
		System:    system,
		MaxTokens: defaultMaxTokens,
	}
	if opts.MaxTokens > 0 {
		req.MaxTokens = opts.MaxTokens
	}
	if opts.Temperature != nil {
		t := float32(*opts.Temperature)
		req.Temperature = &t
	}
	applyArgs(&req, opts.Args)
	return req, nil
}

// splitSystem отделяет system-сообщения от остального диалога.
func splitSystem(msgs []llm.Msg) (system string, mapped []anthropic.Message) {
	var sysParts []string
	for _, m := range msgs {
		switch m.Role {
		case llm.RoleSystem:
			sysParts = append(sysParts, m.Content)
		case llm.RoleAssistant:
			mapped = append(mapped, anthropic.NewAssistantTextMessage(m.Content))
		default:
			mapped = append(mapped, anthropic.NewUserTextMessage(m.Content))
		}
	}
	return strings.Join(sysParts, "\n"), mapped
}

// applyArgs маппит passthrough-аргументы на поля запроса.
// seed у Anthropic отсутствует и отбрасывается с записью в лог.
func applyArgs(req *anthropic.MessagesRequest, args map[string]any) {
	for name, value := range args {
		switch name {
		case "top_p":
			if f, ok := toFloat32(value); ok {
				req.TopP = &f
			}
		case "top_k":
			if n, ok := toInt(value); ok {
				req.TopK = &n
			}
		case "stop":
			req.StopSequences = toStringSlice(value)
		default:
			utils.Debug("skipping unsupported request argument", "name", name)
		}
	}
}

// messagesPayload конвертирует ответ Messages API в нормализуемый payload.
// Текстовые блоки контента склеиваются в один choice.
func messagesPayload(resp anthropic.MessagesResponse) *llm.ChatPayload {
	var text strings.Builder
	for _, block := range resp.Content {
		if block.Text != nil {
			text.WriteString(*block.Text)
		}
	}
	return &llm.ChatPayload{
		Choices: []llm.ChatChoice{{
			Role:         llm.RoleAssistant,
			Content:      text.String(),
			FinishReason: string(resp.StopReason),
		}},
		Usage: &llm.Usage{
			PromptTokens:     resp.Usage.InputTokens,
			CompletionTokens: resp.Usage.OutputTokens,
			TotalTokens:      resp.Usage.InputTokens + resp.Usage.OutputTokens,
		},
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
