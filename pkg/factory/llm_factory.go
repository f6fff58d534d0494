// Package factory создаёт провайдеров по снапшоту конфигурации.
package factory

import (
	"fmt"

	"github.com/ilkoid/aicore/pkg/config"
	"github.com/ilkoid/aicore/pkg/llm"
	"github.com/ilkoid/aicore/pkg/llm/anthropic"
	"github.com/ilkoid/aicore/pkg/llm/localfn"
	"github.com/ilkoid/aicore/pkg/llm/openai"
)

// NewLLMProvider создает провайдера на основе LLM_API_TYPE.
//
// Anyscale и DeepInfra предоставляют OpenAI-совместимый API и
// обслуживаются тем же клиентом с другим base URL.
func NewLLMProvider(cfg *config.Config) (llm.Provider, error) {
	switch cfg.LLMAPIType {
	case config.APITypeOpenAI, config.APITypeAzure, config.APITypeAnyscale, config.APITypeDeepInfra:
		return openai.NewClient(cfg), nil

	case config.APITypeAnthropic:
		return anthropic.NewClient(cfg), nil

	case config.APITypeFunction:
		return localfn.NewClient(cfg)

	case config.APITypeNone:
		return nil, fmt.Errorf("LLM is not configured (LLM_API_TYPE is empty)")

	default:
		return nil, fmt.Errorf("unknown provider type: %s", cfg.LLMAPIType)
	}
}
