package aicore

import (
	"context"

	"github.com/ilkoid/aicore/pkg/llm"
)

// Шорткаты уровня пакета: работают с текущим глобальным окружением,
// лениво собирая его при первом обращении.

// Ask выполняет запрос к модели через текущее окружение.
func Ask(ctx context.Context, prompt any, opts ...llm.Option) (*llm.LLMResponse, error) {
	env, err := E()
	if err != nil {
		return nil, err
	}
	return env.Ask(ctx, prompt, opts...)
}

// AskStream выполняет запрос со стримингом через текущее окружение.
func AskStream(ctx context.Context, prompt any, cb llm.Callback, opts ...llm.Option) (*llm.LLMResponse, error) {
	env, err := E()
	if err != nil {
		return nil, err
	}
	return env.AskStream(ctx, prompt, cb, opts...)
}

// AskAsync запускает запрос в фоне через текущее окружение.
// Ошибка конфигурации приходит в канал результата.
func AskAsync(ctx context.Context, prompt any, opts ...llm.Option) <-chan AsyncResult {
	env, err := E()
	if err != nil {
		out := make(chan AsyncResult, 1)
		out <- AsyncResult{Err: err}
		close(out)
		return out
	}
	return env.AskAsync(ctx, prompt, opts...)
}

// AskParallel выполняет пачку запросов через текущее окружение.
func AskParallel(ctx context.Context, prompts []any, opts ...llm.Option) ([]*llm.LLMResponse, error) {
	env, err := E()
	if err != nil {
		return nil, err
	}
	return env.AskParallel(ctx, prompts, opts...)
}

// Tpl рендерит шаблон промпта из PROMPT_TEMPLATES_PATH.
func Tpl(name string, data any) (string, error) {
	env, err := E()
	if err != nil {
		return "", err
	}
	return env.Texts.Render(name, data)
}
