package llm

import "fmt"

// Нормализация ответов провайдеров.
//
// Провайдеры присылают ответы в разных формах: типизированные payload'ы
// (собираются адаптерами в pkg/llm/openai и т.д.), декодированный JSON
// (map[string]any) и голые строки от локальных inference-функций.
// Adapt сводит все варианты к одному LLMResponse.

// ChatChoice — один вариант ответа chat API.
type ChatChoice struct {
	Role         Role
	Content      string
	FinishReason string
}

// ChatPayload — нормализованная форма ответа chat API.
type ChatPayload struct {
	Choices []ChatChoice
	Usage   *Usage
}

// CompletionChoice — один вариант ответа completion API.
type CompletionChoice struct {
	Text         string
	FinishReason string
}

// CompletionPayload — нормализованная форма ответа completion API.
type CompletionPayload struct {
	Choices []CompletionChoice
	Usage   *Usage
}

// Adapt приводит сырой ответ провайдера к LLMResponse.
//
// Поддерживаемые формы raw:
//   - string: единственный синтезированный choice, Usage отсутствует
//   - ChatPayload / *ChatPayload
//   - CompletionPayload / *CompletionPayload
//   - map[string]any: декодированный JSON со структурой {"choices": [...]},
//     интерпретация полей зависит от kind
//
// Пустой choices — *AdapterError, LLMResponse с неопределённым текстом
// не возвращается никогда.
func Adapt(raw any, kind RequestKind) (*LLMResponse, error) {
	switch payload := raw.(type) {
	case string:
		return adaptPlainString(payload)
	case ChatPayload:
		return adaptChat(&payload, raw)
	case *ChatPayload:
		return adaptChat(payload, raw)
	case CompletionPayload:
		return adaptCompletion(&payload, raw)
	case *CompletionPayload:
		return adaptCompletion(payload, raw)
	case map[string]any:
		return adaptGenericMap(payload, kind)
	default:
		return nil, &AdapterError{Msg: fmt.Sprintf("unsupported payload type %T", raw)}
	}
}

func adaptPlainString(text string) (*LLMResponse, error) {
	return newResponse([]Choice{{
		Index: 0,
		Text:  text,
		Role:  RoleAssistant,
	}}, nil, text)
}

func adaptChat(p *ChatPayload, raw any) (*LLMResponse, error) {
	choices := make([]Choice, len(p.Choices))
	for i, c := range p.Choices {
		role := c.Role
		if role == "" {
			role = RoleAssistant
		}
		choices[i] = Choice{
			Index:        i,
			Text:         c.Content,
			Role:         role,
			FinishReason: c.FinishReason,
		}
	}
	return newResponse(choices, p.Usage, raw)
}

func adaptCompletion(p *CompletionPayload, raw any) (*LLMResponse, error) {
	choices := make([]Choice, len(p.Choices))
	for i, c := range p.Choices {
		choices[i] = Choice{
			Index:        i,
			Text:         c.Text,
			FinishReason: c.FinishReason,
		}
	}
	return newResponse(choices, p.Usage, raw)
}

// adaptGenericMap разбирает декодированный JSON в форматe OpenAI-подобных
// API: {"choices": [{"message": {"content": ...}} | {"text": ...}], "usage": {...}}.
func adaptGenericMap(payload map[string]any, kind RequestKind) (*LLMResponse, error) {
	rawChoices, ok := payload["choices"].([]any)
	if !ok {
		return nil, &AdapterError{Msg: "payload has no choices array"}
	}

	choices := make([]Choice, 0, len(rawChoices))
	for i, rc := range rawChoices {
		m, okM := rc.(map[string]any)
		if !okM {
			return nil, &AdapterError{Msg: fmt.Sprintf("choice #%d is not an object", i)}
		}
		choice := Choice{Index: i}
		if fr, okFR := m["finish_reason"].(string); okFR {
			choice.FinishReason = fr
		}
		if kind == KindChat {
			msg, okMsg := m["message"].(map[string]any)
			if !okMsg {
				return nil, &AdapterError{Msg: fmt.Sprintf("chat choice #%d has no message", i)}
			}
			choice.Text, _ = msg["content"].(string)
			if role, okRole := msg["role"].(string); okRole {
				choice.Role = Role(role)
			} else {
				choice.Role = RoleAssistant
			}
		} else {
			choice.Text, _ = m["text"].(string)
		}
		choices = append(choices, choice)
	}

	return newResponse(choices, extractUsage(payload), payload)
}

func extractUsage(payload map[string]any) *Usage {
	u, ok := payload["usage"].(map[string]any)
	if !ok {
		return nil
	}
	toInt := func(key string) int {
		switch v := u[key].(type) {
		case float64:
			return int(v)
		case int:
			return v
		default:
			return 0
		}
	}
	return &Usage{
		PromptTokens:     toInt("prompt_tokens"),
		CompletionTokens: toInt("completion_tokens"),
		TotalTokens:      toInt("total_tokens"),
	}
}
