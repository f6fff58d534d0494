// Package aicore — фасад библиотеки: конфигурация окружения и запросы к LLM.
//
// Окружение (Env) — неизменяемый набор из снапшота конфигурации, провайдера,
// шаблонизатора и хранилища. Глобальный указатель на текущее окружение
// меняется атомарно: Configure при ошибке оставляет прежнее окружение
// нетронутым, запросы в полёте доживают со своим снапшотом.
package aicore

import (
	"fmt"
	"sync"
	"sync/atomic"

	"golang.org/x/time/rate"

	"github.com/ilkoid/aicore/pkg/config"
	"github.com/ilkoid/aicore/pkg/embeddings"
	"github.com/ilkoid/aicore/pkg/factory"
	"github.com/ilkoid/aicore/pkg/llm"
	"github.com/ilkoid/aicore/pkg/storage"
	"github.com/ilkoid/aicore/pkg/tpl"
	"github.com/ilkoid/aicore/pkg/utils"
)

// BeforeHandler вызывается перед каждым запросом к модели.
type BeforeHandler func(prompt any, opts *llm.Options)

// AfterHandler вызывается после каждого успешного ответа.
type AfterHandler func(resp *llm.LLMResponse)

// Env — собранное окружение библиотеки.
type Env struct {
	Config   *config.Config
	Provider llm.Provider
	Texts    *tpl.Engine

	// Store — локальное файловое хранилище (STORAGE_PATH) с расширенными
	// операциями. Blob — бэкенд для обмена с пайплайнами: S3 при заданном
	// S3_ENDPOINT, иначе тот же локальный Store.
	Store *storage.Local
	Blob  storage.Storage

	// Similarity — векторное хранилище, собирается при заданной
	// EMBEDDING_DB_FUNCTION.
	Similarity embeddings.DB

	limiter *rate.Limiter

	handlersMu sync.Mutex
	nextID     int
	before     map[int]BeforeHandler
	after      map[int]AfterHandler
}

var current atomic.Pointer[Env]

// Configure собирает новое окружение из переданных overrides поверх
// переменных окружения и .env файла.
//
// Ошибка конфигурации — всё или ничего: прежнее окружение остаётся
// активным, частично собранное наружу не публикуется.
func Configure(overrides map[string]any, opts ...config.Option) (*Env, error) {
	cfg, err := config.Resolve(overrides, opts...)
	if err != nil {
		return nil, err
	}

	env := &Env{
		Config: cfg,
		Texts:  tpl.New(cfg.PromptTemplatesPath),
		Store:  storage.NewLocal(cfg),
		before: map[int]BeforeHandler{},
		after:  map[int]AfterHandler{},
	}

	env.Blob = env.Store
	if cfg.S3.Configured() {
		blob, err := storage.NewS3(cfg.S3)
		if err != nil {
			return nil, err
		}
		env.Blob = blob
	}

	if cfg.Embedding != nil {
		db, err := embeddings.NewSQLite(cfg)
		if err != nil {
			return nil, err
		}
		env.Similarity = db
	}

	// При ошибке на поздних шагах открытая база векторов закрывается:
	// наружу не публикуется — держать дескриптор некому.
	fail := func(err error) (*Env, error) {
		if env.Similarity != nil {
			env.Similarity.Close()
		}
		return nil, err
	}

	// LLM_API_TYPE=none — окружение без модели (шаблоны и storage работают)
	if cfg.LLMAPIType != config.APITypeNone {
		provider, err := factory.NewLLMProvider(cfg)
		if err != nil {
			return fail(err)
		}
		env.Provider = provider
	}

	if cfg.LLMRateLimit > 0 {
		env.limiter = rate.NewLimiter(rate.Limit(cfg.LLMRateLimit), 1)
	}

	if cfg.UseLogging {
		if err := utils.InitLogger(); err != nil {
			return fail(err)
		}
	}

	current.Store(env)
	return env, nil
}

// E возвращает текущее окружение, лениво собирая его из переменных
// окружения при первом обращении.
func E() (*Env, error) {
	if env := current.Load(); env != nil {
		return env, nil
	}
	return Configure(nil)
}

// Reset сбрасывает глобальное окружение (для тестов и реконфигурации).
func Reset() {
	current.Store(nil)
}

// OnBeforeRequest регистрирует обработчик, вызываемый перед каждым
// запросом. Возвращает функцию отмены регистрации.
func (e *Env) OnBeforeRequest(h BeforeHandler) func() {
	e.handlersMu.Lock()
	defer e.handlersMu.Unlock()
	id := e.nextID
	e.nextID++
	e.before[id] = h
	return func() {
		e.handlersMu.Lock()
		defer e.handlersMu.Unlock()
		delete(e.before, id)
	}
}

// OnAfterResponse регистрирует обработчик успешных ответов.
// Возвращает функцию отмены регистрации.
func (e *Env) OnAfterResponse(h AfterHandler) func() {
	e.handlersMu.Lock()
	defer e.handlersMu.Unlock()
	id := e.nextID
	e.nextID++
	e.after[id] = h
	return func() {
		e.handlersMu.Lock()
		defer e.handlersMu.Unlock()
		delete(e.after, id)
	}
}

func (e *Env) runBefore(prompt any, opts *llm.Options) {
	e.handlersMu.Lock()
	handlers := make([]BeforeHandler, 0, len(e.before))
	for _, h := range e.before {
		handlers = append(handlers, h)
	}
	e.handlersMu.Unlock()
	for _, h := range handlers {
		h(prompt, opts)
	}
}

func (e *Env) runAfter(resp *llm.LLMResponse) {
	e.handlersMu.Lock()
	handlers := make([]AfterHandler, 0, len(e.after))
	for _, h := range e.after {
		handlers = append(handlers, h)
	}
	e.handlersMu.Unlock()
	for _, h := range handlers {
		h(resp)
	}
}

// requireProvider возвращает провайдера или ошибку конфигурации.
func (e *Env) requireProvider() (llm.Provider, error) {
	if e.Provider == nil {
		return nil, fmt.Errorf("LLM is not configured (LLM_API_TYPE=none)")
	}
	return e.Provider, nil
}
