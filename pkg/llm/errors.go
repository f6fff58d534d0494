package llm

import "fmt"

// AdapterError — пустой или кривой ответ провайдера.
// Фатальная для запроса: частичный LLMResponse наружу не отдаётся.
type AdapterError struct {
	Msg string
}

func (e *AdapterError) Error() string { return "llm: " + e.Msg }

// ErrEmptyResponse возвращается когда провайдер прислал нулевой choices.
func errEmptyResponse() *AdapterError {
	return &AdapterError{Msg: "empty response from provider"}
}

// BadAIAnswerError — ответ получен, но его содержимое не удалось
// распарсить в ожидаемую структуру (JSON, число и т.д.).
type BadAIAnswerError struct {
	Msg string
	Err error
}

func (e *BadAIAnswerError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("llm: bad AI answer: %s: %v", e.Msg, e.Err)
	}
	return "llm: bad AI answer: " + e.Msg
}

func (e *BadAIAnswerError) Unwrap() error { return e.Err }
