// Утилиты для очистки текста перед отправкой в модель и после получения.
package utils

import (
	"strings"
	"unicode/utf8"
)

// SanitizeUTF8 заменяет невалидные байты на U+FFFD.
//
// Файлы промптов и документов приходят в произвольных кодировках;
// политика библиотеки — не падать на битом вводе, а чинить его заменой.
func SanitizeUTF8(s string) string {
	if utf8.ValidString(s) {
		return s
	}
	return strings.ToValidUTF8(s, string(utf8.RuneError))
}

// Dedent убирает общий отступ из многострочного текста.
//
// Удобно для промптов, записанных raw-строками в коде: внутренний
// отступ Go-файла не должен утекать в модель.
func Dedent(s string) string {
	lines := strings.Split(s, "\n")

	indent := -1
	for _, line := range lines {
		trimmed := strings.TrimLeft(line, " \t")
		if trimmed == "" {
			continue
		}
		n := len(line) - len(trimmed)
		if indent == -1 || n < indent {
			indent = n
		}
	}
	if indent <= 0 {
		return s
	}

	out := make([]string, len(lines))
	for i, line := range lines {
		if len(line) >= indent {
			out[i] = line[indent:]
		} else {
			out[i] = strings.TrimLeft(line, " \t")
		}
	}
	return strings.Join(out, "\n")
}

// CollapseBlankLines схлопывает подряд идущие пустые строки в одну
// и обрезает пробелы по краям. Финальная очистка текста ответа
// перед показом пользователю.
func CollapseBlankLines(s string) string {
	lines := strings.Split(s, "\n")
	var out []string
	blank := false
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			if !blank && len(out) > 0 {
				out = append(out, "")
			}
			blank = true
			continue
		}
		blank = false
		out = append(out, line)
	}
	// Хвостовая пустая строка не нужна
	for len(out) > 0 && out[len(out)-1] == "" {
		out = out[:len(out)-1]
	}
	return strings.Join(out, "\n")
}
