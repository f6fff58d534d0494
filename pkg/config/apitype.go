package config

// APIType определяет семейство LLM API.
//
// Для сервисов, которых нет в списке, но которые предоставляют
// OpenAI-совместимый интерфейс, используется APITypeOpenAI + LLM_API_BASE.
type APIType string

const (
	APITypeOpenAI    APIType = "open_ai"
	APITypeAzure     APIType = "azure"
	APITypeAnyscale  APIType = "anyscale"
	APITypeDeepInfra APIType = "deep_infra"
	APITypeAnthropic APIType = "anthropic"

	// APITypeFunction — локальная inference-функция вместо сетевого API.
	APITypeFunction APIType = "function"

	// APITypeNone — LLM не сконфигурирована (только templating/storage).
	APITypeNone APIType = "none"
)

// IsLocal сообщает, что тип не ходит по сети.
func (t APIType) IsLocal() bool {
	return t == APITypeFunction || t == APITypeNone
}

// дефолтные endpoint'ы и модели по типу API
const (
	defaultOpenAIBase    = "https://api.openai.com/v1"
	defaultAnthropicBase = "https://api.anthropic.com/"
	defaultAnyscaleBase  = "https://api.endpoints.anyscale.com/v1"
	defaultDeepInfraBase = "https://api.deepinfra.com/v1/openai"

	defaultOpenAIModel    = "gpt-3.5-turbo"
	defaultAnthropicModel = "claude-3-opus-20240229"
	defaultOSSModel       = "meta-llama/Llama-2-70b-chat-hf"
)

// applyAPITypeDefaults заполняет URL, модель и ключ по выбранному типу API.
// Значения, заданные явно (любым источником), не трогаются.
func (c *Config) applyAPITypeDefaults() {
	if c.Inference != nil && c.LLMAPIType == "" {
		c.LLMAPIType = APITypeFunction
	}
	if c.LLMAPIType.IsLocal() {
		return
	}

	// OPENAI_* переменные окружения — запасной источник для LLM_*
	if c.LLMAPIType == "" {
		if c.OpenAIAPIType != "" {
			c.LLMAPIType = APIType(c.OpenAIAPIType)
		} else {
			c.LLMAPIType = APITypeOpenAI
		}
	}

	switch c.LLMAPIType {
	case APITypeAzure:
		if c.LLMDeploymentID == "" {
			c.LLMDeploymentID = c.AzureDeploymentID
		}
		if c.LLMAPIKey == "" {
			c.LLMAPIKey = c.OpenAIAPIKey
		}
	case APITypeAnthropic:
		if c.LLMAPIBase == "" {
			c.LLMAPIBase = defaultAnthropicBase
		}
		if c.Model == "" {
			c.Model = defaultAnthropicModel
		}
		if c.LLMAPIKey == "" {
			c.LLMAPIKey = c.AnthropicAPIKey
		}
	case APITypeAnyscale:
		if c.LLMAPIBase == "" {
			c.LLMAPIBase = defaultAnyscaleBase
		}
		if c.Model == "" {
			c.Model = defaultOSSModel
		}
	case APITypeDeepInfra:
		if c.LLMAPIBase == "" {
			c.LLMAPIBase = defaultDeepInfraBase
		}
		if c.Model == "" {
			c.Model = defaultOSSModel
		}
	default:
		if c.LLMAPIBase == "" {
			if c.OpenAIAPIBase != "" {
				c.LLMAPIBase = c.OpenAIAPIBase
			} else {
				c.LLMAPIBase = defaultOpenAIBase
			}
		}
		if c.LLMAPIKey == "" {
			c.LLMAPIKey = c.OpenAIAPIKey
		}
		if c.Model == "" {
			c.Model = defaultOpenAIModel
		}
	}
}
