// Package tpl рендерит текстовые шаблоны промптов из PROMPT_TEMPLATES_PATH.
//
// Шаблоны — стандартный text/template. Engine привязан к директории из
// конфигурации и не кэширует результаты парсинга: промпт-файлы правятся
// чаще, чем перезапускается приложение.
package tpl

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"text/template"

	"github.com/ilkoid/aicore/pkg/utils"
)

// Engine рендерит шаблоны из заданной директории.
type Engine struct {
	dir string
}

// New создает Engine над директорией шаблонов.
func New(dir string) *Engine {
	return &Engine{dir: dir}
}

// Render загружает файл шаблона и рендерит его с данными.
//
// name — путь относительно директории шаблонов (подпапки допустимы).
// data — struct или map со значениями для {{.Field}}.
func (e *Engine) Render(name string, data any) (string, error) {
	path := filepath.Join(e.dir, name)
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("prompt template %s: %w", name, err)
	}
	return e.RenderString(utils.SanitizeUTF8(string(raw)), data)
}

// RenderString рендерит шаблон, переданный строкой.
func (e *Engine) RenderString(text string, data any) (string, error) {
	tmpl, err := template.New("tpl").Option("missingkey=error").Parse(text)
	if err != nil {
		return "", fmt.Errorf("template parse error: %w", err)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("template execute error: %w", err)
	}
	return buf.String(), nil
}
