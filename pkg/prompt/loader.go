// Загрузка и Рендер - чтение файла и text/template.

package prompt

import (
	"bytes"
	"fmt"
	"os"
	"text/template"

	"gopkg.in/yaml.v3"

	"github.com/ilkoid/aicore/pkg/llm"
)

// Load загружает и парсит YAML файл промпта
func Load(path string) (*PromptFile, error) {
	// 1. Проверяем наличие
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("prompt file not found: %s", path)
	}

	// 2. Читаем байты
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read error: %w", err)
	}

	// 3. Парсим YAML
	var pf PromptFile
	if err := yaml.Unmarshal(data, &pf); err != nil {
		return nil, fmt.Errorf("yaml parse error: %w", err)
	}

	return &pf, nil
}

// RenderMessages принимает данные (struct или map) и возвращает готовые
// сообщения для llm.Provider, где все {{.Field}} заменены на значения.
func (pf *PromptFile) RenderMessages(data any) ([]llm.Msg, error) {
	rendered := make([]llm.Msg, len(pf.Messages))

	for i, msg := range pf.Messages {
		// Создаем шаблон
		tmpl, err := template.New("msg").Parse(msg.Content)
		if err != nil {
			return nil, fmt.Errorf("template parse error in message #%d (%s): %w", i, msg.Role, err)
		}

		// Рендерим в буфер
		var buf bytes.Buffer
		if err := tmpl.Execute(&buf, data); err != nil {
			return nil, fmt.Errorf("template execute error in message #%d: %w", i, err)
		}

		role := llm.Role(msg.Role)
		if role == "" {
			role = llm.DefaultRole
		}
		rendered[i] = llm.Msg{
			Role:    role,
			Content: buf.String(),
		}
	}

	return rendered, nil
}

// Options конвертирует настройки промпт-файла в опции запроса.
// Незаполненные поля не переопределяют глобальную конфигурацию.
func (pf *PromptFile) Options() []llm.Option {
	var opts []llm.Option
	if pf.Config.Model != "" {
		opts = append(opts, llm.WithModel(pf.Config.Model))
	}
	if pf.Config.Temperature != nil {
		opts = append(opts, llm.WithTemperature(*pf.Config.Temperature))
	}
	if pf.Config.MaxTokens > 0 {
		opts = append(opts, llm.WithMaxTokens(pf.Config.MaxTokens))
	}
	return opts
}
