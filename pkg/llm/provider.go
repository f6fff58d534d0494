// Интерфейс Провайдера через который работает всё приложение.

package llm

import "context"

// Provider — контракт для любого LLM-сервиса.
//
// Принимает промпт (string, Msg, []Msg, []string или []any) и уже
// разрешённые Options. Если в Options есть Callbacks — провайдер обязан
// использовать потоковый путь с синхронной доставкой чанков.
//
// Реализация не ретраит и не переосмысливает ошибки API: ProviderError
// уходит вызывающему как есть (обёрнутый через %w).
type Provider interface {
	// Generate отправляет запрос и возвращает нормализованный ответ.
	Generate(ctx context.Context, prompt any, opts Options) (*LLMResponse, error)
}
