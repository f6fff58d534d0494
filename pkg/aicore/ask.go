package aicore

import (
	"context"
	"sync"

	"github.com/ilkoid/aicore/pkg/llm"
	"github.com/ilkoid/aicore/pkg/utils"
)

// defaultMaxConcurrentTasks применяется, когда MAX_CONCURRENT_TASKS не задан.
const defaultMaxConcurrentTasks = 8

// Ask выполняет запрос к модели.
//
// prompt — string, llm.Msg, []llm.Msg или их комбинация в []any.
// Опции накладываются поверх LLM_DEFAULT_ARGS из конфигурации.
func (e *Env) Ask(ctx context.Context, prompt any, opts ...llm.Option) (*llm.LLMResponse, error) {
	provider, err := e.requireProvider()
	if err != nil {
		return nil, err
	}

	o := llm.BuildOptions(e.Config.LLMDefaultArgs, opts...)
	e.runBefore(prompt, &o)

	if e.limiter != nil {
		if err := e.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	if e.Config.UseLogging {
		utils.Debug("prompt", "text", truncateForLog(prompt))
	}

	resp, err := provider.Generate(ctx, prompt, o)
	if err != nil {
		return nil, err
	}
	resp.Prompt = prompt

	if e.Config.UseLogging {
		utils.Debug("response", "text", truncateForLog(resp.Text()))
	}

	e.runAfter(resp)
	return resp, nil
}

// AskStream выполняет запрос со стримингом: каждый чанк синхронно
// доставляется callback'у до чтения следующего. Ошибка callback'а
// прерывает стрим и возвращается вызывающему.
func (e *Env) AskStream(ctx context.Context, prompt any, cb llm.Callback, opts ...llm.Option) (*llm.LLMResponse, error) {
	return e.Ask(ctx, prompt, append(opts, llm.WithCallback(cb))...)
}

// AsyncResult — результат асинхронного запроса.
type AsyncResult struct {
	Response *llm.LLMResponse
	Err      error
}

// AskAsync запускает запрос в фоне и возвращает канал с единственным
// результатом. Канал буферизован: результат не теряется, даже если
// его никто не ждёт.
func (e *Env) AskAsync(ctx context.Context, prompt any, opts ...llm.Option) <-chan AsyncResult {
	out := make(chan AsyncResult, 1)
	go func() {
		resp, err := e.Ask(ctx, prompt, opts...)
		out <- AsyncResult{Response: resp, Err: err}
		close(out)
	}()
	return out
}

// AskParallel выполняет пачку запросов с ограничением параллелизма
// (MAX_CONCURRENT_TASKS) и общим rate-лимитом.
//
// Результаты возвращаются в порядке промптов. Первая ошибка отменяет
// оставшиеся запросы и возвращается вызывающему.
func (e *Env) AskParallel(ctx context.Context, prompts []any, opts ...llm.Option) ([]*llm.LLMResponse, error) {
	if len(prompts) == 0 {
		return nil, nil
	}

	maxTasks := e.Config.MaxConcurrentTasks
	if maxTasks <= 0 {
		maxTasks = defaultMaxConcurrentTasks
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	results := make([]*llm.LLMResponse, len(prompts))
	sem := make(chan struct{}, maxTasks)

	var wg sync.WaitGroup
	var errOnce sync.Once
	var firstErr error

	for i, p := range prompts {
		wg.Add(1)
		go func(i int, p any) {
			defer wg.Done()

			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				errOnce.Do(func() { firstErr = ctx.Err() })
				return
			}

			resp, err := e.Ask(ctx, p, opts...)
			if err != nil {
				errOnce.Do(func() {
					firstErr = err
					cancel()
				})
				return
			}
			results[i] = resp
		}(i, p)
	}
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	return results, nil
}

// truncateForLog ограничивает длину текста в логе.
func truncateForLog(v any) string {
	const limit = 500
	s, ok := v.(string)
	if !ok {
		if msgs, err := llm.PrepareChatMessages(v); err == nil && len(msgs) > 0 {
			s = msgs[len(msgs)-1].Content
		}
	}
	if len(s) > limit {
		return s[:limit] + "..."
	}
	return s
}
