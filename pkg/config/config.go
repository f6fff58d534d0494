// Package config собирает конфигурацию из слоёных источников в один
// неизменяемый снапшот.
//
// Приоритет источников (от младшего к старшему, при коллизии побеждает
// более поздний):
//
//  1. Встроенные дефолты
//  2. Переменные окружения процесса (читаются только известные имена)
//  3. .env файл (если USE_DOT_ENV включен; отсутствие файла — не ошибка)
//  4. Явные overrides, переданные в Resolve
//
// Rule 7: все ошибки возвращаются как *ConfigError, никаких panic.
// Снапшот после Resolve не мутируется — реконфигурация строит новый.
package config

import (
	"context"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// InferenceFunc — локальная функция инференса (LLM_API_TYPE=function).
// Получает подготовленный текст промпта и эффективные аргументы запроса.
type InferenceFunc func(ctx context.Context, prompt string, args map[string]any) (string, error)

// EmbedFunc превращает пачку текстов в векторы для similarity search.
type EmbedFunc func(ctx context.Context, texts []string) ([][]float32, error)

// Config — полностью разрешённый снапшот конфигурации.
//
// После Resolve значения не меняются. Запрос, стартовавший со старым
// снапшотом, доживает с ним до конца — глобальная замена снапшота
// происходит атомарно на уровне pkg/aicore.
type Config struct {
	// Основные настройки LLM
	LLMAPIType      APIType
	LLMAPIKey       string
	LLMAPIBase      string
	LLMAPIVersion   string
	LLMDeploymentID string
	Model           string

	// ChatMode: nil — определяем по имени модели, иначе явное значение
	ChatMode *bool

	// LLMDefaultArgs — дефолтные аргументы API вызовов (temperature и т.д.)
	LLMDefaultArgs map[string]any

	// InitParams — кастомные параметры инициализации клиента провайдера
	InitParams map[string]any

	// HTTPHeaders — дополнительные заголовки для всех запросов к API
	HTTPHeaders map[string]string

	// Inference — функция для LLM_API_TYPE=function (только через overrides)
	Inference InferenceFunc

	// Запасные источники в формате, который ожидают SDK провайдеров
	OpenAIAPIType     string
	OpenAIAPIKey      string
	OpenAIAPIBase     string
	OpenAIAPIVersion  string
	AnthropicAPIKey   string
	AzureDeploymentID string

	// Окружение библиотеки
	UseLogging          bool
	UseDotEnv           bool
	DotEnvFile          string
	PromptTemplatesPath string
	StoragePath         string
	DefaultEncoding     string

	// Similarity search
	EmbeddingDBFolder          string
	EmbeddingDBAllowDuplicates bool
	Embedding                  EmbedFunc

	// Параллельные запросы
	MaxConcurrentTasks int
	LLMRateLimit       float64 // запросов в секунду, 0 = без лимита

	// S3 бэкенд файлового хранилища (опционально)
	S3 S3Config
}

// freeFormPrefix — документированное free-form пространство имён:
// ключи HTTP_HEADER_<NAME> проходят без валидации в HTTPHeaders.
const freeFormPrefix = "HTTP_HEADER_"

// trueValues — значения, которые трактуются как true в bool-опциях.
var trueValues = []string{"1", "TRUE", "YES", "ON", "ENABLED", "Y", "+"}

func parseBool(s string) bool {
	u := strings.ToUpper(strings.TrimSpace(s))
	for _, v := range trueValues {
		if u == v {
			return true
		}
	}
	return false
}

func defaults() *Config {
	return &Config{
		UseDotEnv:           true,
		DotEnvFile:          ".env",
		PromptTemplatesPath: "tpl",
		StoragePath:         "storage",
		DefaultEncoding:     "utf-8",
		EmbeddingDBFolder:   "embedding_db",
		LLMDefaultArgs:      map[string]any{},
		InitParams:          map[string]any{},
		HTTPHeaders:         map[string]string{},
	}
}

// recognizedKeys — полный набор опций, читаемых из окружения и файла.
var recognizedKeys = []string{
	"LLM_API_TYPE", "LLM_API_KEY", "LLM_API_BASE", "LLM_API_VERSION",
	"LLM_DEPLOYMENT_ID", "MODEL", "CHAT_MODE",
	"LLM_DEFAULT_ARGS", "INIT_PARAMS", "HTTP_HEADERS",
	"OPENAI_API_TYPE", "OPENAI_API_KEY", "OPENAI_API_BASE", "OPENAI_API_VERSION",
	"ANTHROPIC_API_KEY", "AZURE_DEPLOYMENT_ID",
	"USE_LOGGING", "USE_DOT_ENV", "DOT_ENV_FILE",
	"PROMPT_TEMPLATES_PATH", "STORAGE_PATH", "DEFAULT_ENCODING",
	"EMBEDDING_DB_FOLDER", "EMBEDDING_DB_ALLOW_DUPLICATES",
	"MAX_CONCURRENT_TASKS", "LLM_RATE_LIMIT",
	"S3_ENDPOINT", "S3_ACCESS_KEY", "S3_SECRET_KEY",
	"S3_BUCKET", "S3_REGION", "S3_USE_SSL",
}

func isRecognized(key string) bool {
	for _, k := range recognizedKeys {
		if k == key {
			return true
		}
	}
	return false
}

// set применяет одно значение опции. Строки парсятся по типу поля,
// нестроковые значения (из overrides) принимаются как есть.
func (c *Config) set(key string, value any) error {
	if strings.HasPrefix(key, freeFormPrefix) {
		name := strings.ReplaceAll(strings.TrimPrefix(key, freeFormPrefix), "_", "-")
		s, ok := value.(string)
		if !ok {
			return errorf("option %s: expected string, got %T", key, value)
		}
		c.HTTPHeaders[name] = s
		return nil
	}

	switch key {
	case "LLM_API_TYPE":
		s, err := asString(key, value)
		if err != nil {
			return err
		}
		c.LLMAPIType = APIType(s)
	case "LLM_API_KEY":
		return setString(&c.LLMAPIKey, key, value)
	case "LLM_API_BASE":
		return setString(&c.LLMAPIBase, key, value)
	case "LLM_API_VERSION":
		return setString(&c.LLMAPIVersion, key, value)
	case "LLM_DEPLOYMENT_ID":
		return setString(&c.LLMDeploymentID, key, value)
	case "MODEL":
		return setString(&c.Model, key, value)
	case "CHAT_MODE":
		b, err := asBool(key, value)
		if err != nil {
			return err
		}
		c.ChatMode = &b
	case "LLM_DEFAULT_ARGS":
		return setMap(&c.LLMDefaultArgs, key, value)
	case "INIT_PARAMS":
		return setMap(&c.InitParams, key, value)
	case "HTTP_HEADERS":
		m := map[string]any{}
		if err := setMap(&m, key, value); err != nil {
			return err
		}
		for k, v := range m {
			s, ok := v.(string)
			if !ok {
				return errorf("option %s: header %q must be a string", key, k)
			}
			c.HTTPHeaders[k] = s
		}
	case "INFERENCE_FUNC":
		fn, ok := value.(InferenceFunc)
		if !ok {
			if raw, okRaw := value.(func(context.Context, string, map[string]any) (string, error)); okRaw {
				fn = raw
			} else {
				return errorf("option %s: expected InferenceFunc, got %T", key, value)
			}
		}
		c.Inference = fn
	case "EMBEDDING_DB_FUNCTION":
		fn, ok := value.(EmbedFunc)
		if !ok {
			if raw, okRaw := value.(func(context.Context, []string) ([][]float32, error)); okRaw {
				fn = raw
			} else {
				return errorf("option %s: expected EmbedFunc, got %T", key, value)
			}
		}
		c.Embedding = fn
	case "OPENAI_API_TYPE":
		return setString(&c.OpenAIAPIType, key, value)
	case "OPENAI_API_KEY":
		return setString(&c.OpenAIAPIKey, key, value)
	case "OPENAI_API_BASE":
		return setString(&c.OpenAIAPIBase, key, value)
	case "OPENAI_API_VERSION":
		return setString(&c.OpenAIAPIVersion, key, value)
	case "ANTHROPIC_API_KEY":
		return setString(&c.AnthropicAPIKey, key, value)
	case "AZURE_DEPLOYMENT_ID":
		return setString(&c.AzureDeploymentID, key, value)
	case "USE_LOGGING":
		return setBool(&c.UseLogging, key, value)
	case "USE_DOT_ENV":
		return setBool(&c.UseDotEnv, key, value)
	case "DOT_ENV_FILE":
		return setString(&c.DotEnvFile, key, value)
	case "PROMPT_TEMPLATES_PATH":
		return setString(&c.PromptTemplatesPath, key, value)
	case "STORAGE_PATH":
		return setString(&c.StoragePath, key, value)
	case "DEFAULT_ENCODING":
		return setString(&c.DefaultEncoding, key, value)
	case "EMBEDDING_DB_FOLDER":
		return setString(&c.EmbeddingDBFolder, key, value)
	case "EMBEDDING_DB_ALLOW_DUPLICATES":
		return setBool(&c.EmbeddingDBAllowDuplicates, key, value)
	case "MAX_CONCURRENT_TASKS":
		return setInt(&c.MaxConcurrentTasks, key, value)
	case "LLM_RATE_LIMIT":
		return setFloat(&c.LLMRateLimit, key, value)
	case "S3_ENDPOINT":
		return setString(&c.S3.Endpoint, key, value)
	case "S3_ACCESS_KEY":
		return setString(&c.S3.AccessKey, key, value)
	case "S3_SECRET_KEY":
		return setString(&c.S3.SecretKey, key, value)
	case "S3_BUCKET":
		return setString(&c.S3.Bucket, key, value)
	case "S3_REGION":
		return setString(&c.S3.Region, key, value)
	case "S3_USE_SSL":
		return setBool(&c.S3.UseSSL, key, value)
	default:
		return errorf("unknown option %s", key)
	}
	return nil
}

// applyEnv вытягивает известные опции из окружения процесса.
// Отсутствующая переменная оставляет дефолт нетронутым.
func (c *Config) applyEnv() error {
	for _, key := range recognizedKeys {
		if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
			if err := c.set(key, v); err != nil {
				return err
			}
		}
	}
	return nil
}

// applyDotEnv читает .env файл. Отсутствие файла — не ошибка,
// ошибка парсинга — фатальный ConfigError.
func (c *Config) applyDotEnv() error {
	if !c.UseDotEnv || c.DotEnvFile == "" {
		return nil
	}
	if _, err := os.Stat(c.DotEnvFile); os.IsNotExist(err) {
		return nil
	}
	vars, err := godotenv.Read(c.DotEnvFile)
	if err != nil {
		return wrapErr(err, "malformed config file %s", c.DotEnvFile)
	}
	for key, value := range vars {
		if !isRecognized(key) && !strings.HasPrefix(key, freeFormPrefix) {
			return errorf("unknown option %s in %s", key, c.DotEnvFile)
		}
		if err := c.set(key, value); err != nil {
			return err
		}
	}
	return nil
}

// Option — опция резолвера (не путать с опциями конфигурации).
type Option func(*Config)

// WithFile задаёт путь к .env файлу.
func WithFile(path string) Option {
	return func(c *Config) {
		c.DotEnvFile = path
		c.UseDotEnv = true
	}
}

// WithoutFile отключает чтение .env файла.
func WithoutFile() Option {
	return func(c *Config) { c.UseDotEnv = false }
}

// Resolve строит снапшот конфигурации из всех источников.
//
// overrides всегда побеждают при коллизии ключей, независимо от
// порядка источников. Ошибка любого источника — всё или ничего:
// частично собранный снапшот наружу не отдаётся.
func Resolve(overrides map[string]any, opts ...Option) (*Config, error) {
	c := defaults()

	if err := c.applyEnv(); err != nil {
		return nil, err
	}
	for _, opt := range opts {
		opt(c)
	}

	// USE_DOT_ENV / DOT_ENV_FILE из overrides нужны до чтения файла
	for _, key := range []string{"USE_DOT_ENV", "DOT_ENV_FILE"} {
		if v, ok := overrides[key]; ok {
			if err := c.set(key, v); err != nil {
				return nil, err
			}
		}
	}

	if err := c.applyDotEnv(); err != nil {
		return nil, err
	}

	for key, value := range overrides {
		if !isRecognized(key) && !strings.HasPrefix(key, freeFormPrefix) &&
			key != "INFERENCE_FUNC" && key != "EMBEDDING_DB_FUNCTION" {
			return nil, errorf("unknown option %s", key)
		}
		if err := c.set(key, value); err != nil {
			return nil, err
		}
	}

	c.applyAPITypeDefaults()

	if err := c.validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// validate проверяет итоговую комбинацию настроек.
func (c *Config) validate() error {
	switch c.LLMAPIType {
	case APITypeNone:
		return nil
	case APITypeFunction:
		if c.Inference == nil {
			return errorf("INFERENCE_FUNC is required for LLM_API_TYPE=function")
		}
		return nil
	case APITypeOpenAI, APITypeAnyscale, APITypeDeepInfra, APITypeAnthropic:
		if c.LLMAPIKey == "" {
			return errorf("LLM_API_KEY is absent")
		}
	case APITypeAzure:
		if c.LLMAPIKey == "" {
			return errorf("LLM_API_KEY is absent")
		}
		if c.LLMAPIBase == "" {
			return errorf("LLM_API_BASE is required for Azure")
		}
		if c.LLMDeploymentID == "" {
			return errorf("LLM_DEPLOYMENT_ID is required for Azure")
		}
		if c.LLMAPIVersion == "" {
			return errorf("LLM_API_VERSION is required for Azure")
		}
	default:
		return errorf("unknown LLM_API_TYPE %q", c.LLMAPIType)
	}
	if c.Inference != nil {
		return errorf("INFERENCE_FUNC should be provided only for local models")
	}
	return nil
}

// IsChatModel решает, работать через chat или completion API.
// Явный CHAT_MODE всегда побеждает эвристику по имени модели.
func (c *Config) IsChatModel(model string) bool {
	if c.ChatMode != nil {
		return *c.ChatMode
	}
	if model == "" {
		model = c.Model
	}
	lower := strings.ToLower(model)
	if strings.Contains(lower, "instruct") || strings.HasPrefix(lower, "text-") {
		return false
	}
	return true
}

// EffectiveHeaders возвращает итоговый набор HTTP заголовков.
//
// Контракт коллизий: HTTP_HEADERS сливается с INIT_PARAMS["extra_headers"],
// при совпадении имени побеждает extra_headers.
func (c *Config) EffectiveHeaders() map[string]string {
	out := make(map[string]string, len(c.HTTPHeaders))
	for k, v := range c.HTTPHeaders {
		out[k] = v
	}
	if raw, ok := c.InitParams["extra_headers"]; ok {
		switch extra := raw.(type) {
		case map[string]string:
			for k, v := range extra {
				out[k] = v
			}
		case map[string]any:
			for k, v := range extra {
				if s, okS := v.(string); okS {
					out[k] = s
				}
			}
		}
	}
	return out
}

// Describe возвращает неформальное описание настроек с замаскированными
// ключами. Для вывода в консоль и логи.
func (c *Config) Describe() map[string]string {
	out := map[string]string{}
	put := func(name, value string) {
		if value != "" {
			out[name] = value
		}
	}
	put("api_type", string(c.LLMAPIType))
	put("api_key", maskSecret(c.LLMAPIKey))
	put("api_base", c.LLMAPIBase)
	put("api_version", c.LLMAPIVersion)
	put("deployment_id", c.LLMDeploymentID)
	put("model", c.Model)
	if c.ChatMode != nil {
		put("chat_mode", strconv.FormatBool(*c.ChatMode))
	}
	if len(c.LLMDefaultArgs) > 0 {
		put("default_args", strconv.Itoa(len(c.LLMDefaultArgs))+" arg(s)")
	}
	if h := c.EffectiveHeaders(); len(h) > 0 {
		put("http_headers", strconv.Itoa(len(h))+" header(s)")
	}
	put("templates_path", c.PromptTemplatesPath)
	put("storage_path", c.StoragePath)
	return out
}

// maskSecret прячет секрет, оставляя пару символов для опознания.
// Короткие значения маскируются полностью.
func maskSecret(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 6 {
		return "****"
	}
	head := 3
	if len(s) <= 12 {
		head = 1
	}
	return s[:head] + "****" + s[len(s)-2:]
}
