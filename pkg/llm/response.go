// Package llm предоставляет унифицированный результат запроса к модели.
//
// LLMResponse ведёт себя как строка: String() отдаёт сгенерированный текст,
// поэтому ответ можно сравнивать и конкатенировать как обычный текст.
// Одновременно доступны структурные поля: Choices, Usage, Raw.
package llm

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Choice — один вариант ответа провайдера. Провайдеры могут возвращать
// несколько вариантов при сэмплировании (n > 1).
type Choice struct {
	Index        int
	Text         string
	Role         Role
	FinishReason string
}

// Usage — счётчики токенов из ответа провайдера. Опциональны:
// локальные функции и стриминг-ответы их обычно не присылают.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// LLMResponse — нормализованный ответ языковой модели.
//
// Инвариант: текст всегда детерминированно выводится из Choices[0]
// (или из plain-string ответа провайдера), отдельно не задаётся.
// После конструирования объект не мутируется.
type LLMResponse struct {
	text string

	// Choices — упорядоченные варианты ответа, минимум один.
	Choices []Choice

	// Usage — токены, nil если провайдер не прислал.
	Usage *Usage

	// Raw — непрозрачная ссылка на исходный payload провайдера.
	Raw any

	// Prompt — промпт, породивший ответ (для метрик и логов).
	Prompt any

	// GenDuration — длительность генерации, проставляется фасадом.
	GenDuration time.Duration
}

// newResponse собирает ответ, выводя текст из первого choice.
func newResponse(choices []Choice, usage *Usage, raw any) (*LLMResponse, error) {
	if len(choices) == 0 {
		return nil, errEmptyResponse()
	}
	return &LLMResponse{
		text:    choices[0].Text,
		Choices: choices,
		Usage:   usage,
		Raw:     raw,
	}, nil
}

// String возвращает сгенерированный текст. Благодаря fmt.Stringer
// ответ подставляется в %s/%v и конкатенируется через String().
func (r *LLMResponse) String() string { return r.text }

// Text — синоним String для читаемости в структурном коде.
func (r *LLMResponse) Text() string { return r.text }

// First возвращает первый choice.
func (r *LLMResponse) First() Choice { return r.Choices[0] }

// AsMsg конвертирует ответ в assistant-сообщение для продолжения диалога.
func (r *LLMResponse) AsMsg() Msg { return AssistantMsg(r.text) }

// ParseJSON вынимает JSON из текста ответа и декодирует его в v.
//
// Понимает markdown-ограждения (```json ... ```) и JSON, утопленный
// в пояснительном тексте. Ошибки парсинга — *BadAIAnswerError.
func (r *LLMResponse) ParseJSON(v any) error {
	payload := UnwrapJSONSubstring(r.text)
	if err := json.Unmarshal([]byte(payload), v); err != nil {
		return &BadAIAnswerError{Msg: "invalid JSON in response", Err: err}
	}
	return nil
}

// ParseJSONFields декодирует ответ в map и проверяет наличие
// обязательных полей.
func (r *LLMResponse) ParseJSONFields(required ...string) (map[string]any, error) {
	out := map[string]any{}
	if err := r.ParseJSON(&out); err != nil {
		return nil, err
	}
	for _, f := range required {
		if _, ok := out[f]; !ok {
			return nil, &BadAIAnswerError{Msg: fmt.Sprintf("missing required field %q", f)}
		}
	}
	return out, nil
}

// ParseNumber извлекает последнее число из текста ответа.
// Обычный случай — модель отвечает "Ответ: 42." вместо голого числа.
func (r *LLMResponse) ParseNumber() (float64, error) {
	n, ok := extractLastNumber(r.text)
	if !ok {
		return 0, &BadAIAnswerError{Msg: fmt.Sprintf("no number found in %q", truncate(r.text, 80))}
	}
	return n, nil
}

// UnwrapJSONSubstring вырезает JSON-значение из произвольного текста.
//
// Порядок попыток: снять markdown-ограждение, принять строку как есть,
// найти самый внешний {...} или [...] блок. Если ничего не нашлось —
// возвращается исходная строка (пусть json.Unmarshal отдаст ошибку).
func UnwrapJSONSubstring(s string) string {
	s = strings.TrimSpace(s)

	if strings.HasSuffix(s, "```") {
		for _, prefix := range []string{"```json", "```"} {
			// Ограждения должны быть разными вхождениями: голое "```"
			// совпадает и как префикс, и как суффикс.
			if strings.HasPrefix(s, prefix) && len(s) >= len(prefix)+3 {
				return strings.TrimSpace(s[len(prefix) : len(s)-3])
			}
		}
	}

	for _, pair := range [][2]string{{"{", "}"}, {"[", "]"}, {`"`, `"`}} {
		if strings.HasPrefix(s, pair[0]) && strings.HasSuffix(s, pair[1]) {
			return s
		}
	}
	if s == "true" || s == "false" || s == "null" || isDigits(s) {
		return s
	}

	// JSON внутри пояснительного текста
	objStart, objEnd := strings.Index(s, "{"), strings.LastIndex(s, "}")
	arrStart, arrEnd := strings.Index(s, "["), strings.LastIndex(s, "]")

	hasObj := objStart >= 0 && objEnd > objStart
	hasArr := arrStart >= 0 && arrEnd > arrStart

	switch {
	case hasArr && (!hasObj || (arrStart < objStart && arrEnd > objEnd)):
		return s[arrStart : arrEnd+1]
	case hasObj:
		return s[objStart : objEnd+1]
	default:
		return s
	}
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// extractLastNumber находит последнее число (с опциональной дробной
// частью и знаком) в тексте.
func extractLastNumber(s string) (float64, bool) {
	var (
		found  bool
		result float64
	)
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			continue
		}
		start := i
		if start > 0 && (s[start-1] == '-' || s[start-1] == '+') {
			start--
		}
		end := i
		seenDot := false
		for end < len(s) {
			c := s[end]
			if c >= '0' && c <= '9' {
				end++
				continue
			}
			if c == '.' && !seenDot && end+1 < len(s) && s[end+1] >= '0' && s[end+1] <= '9' {
				seenDot = true
				end++
				continue
			}
			break
		}
		var n float64
		if _, err := fmt.Sscanf(s[start:end], "%g", &n); err == nil {
			result = n
			found = true
		}
		i = end
	}
	return result, found
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
