// Package ui — цветной консольный вывод для CLI и примеров.
//
// Палитра ANSI-256, как и в остальных TUI-частях проекта. Вывод идёт
// в настраиваемый io.Writer, чтобы тесты не цеплялись к стандартным потокам.
package ui

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"
)

// Палитра консольного вывода.
var (
	infoStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("86"))
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("226"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("242"))
	labelStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("252")).Bold(true)
)

// Out — приёмник вывода, по умолчанию stdout.
var Out io.Writer = os.Stdout

// Info печатает информационное сообщение.
func Info(format string, args ...any) {
	fmt.Fprintln(Out, infoStyle.Render(fmt.Sprintf(format, args...)))
}

// Warning печатает предупреждение.
func Warning(format string, args ...any) {
	fmt.Fprintln(Out, warningStyle.Render(fmt.Sprintf(format, args...)))
}

// Error печатает сообщение об ошибке.
func Error(format string, args ...any) {
	fmt.Fprintln(Out, errorStyle.Render(fmt.Sprintf(format, args...)))
}

// Dim печатает приглушённый служебный текст.
func Dim(format string, args ...any) {
	fmt.Fprintln(Out, dimStyle.Render(fmt.Sprintf(format, args...)))
}

// KeyValue печатает пару "ключ: значение" для дампов конфигурации.
func KeyValue(key, value string) {
	fmt.Fprintf(Out, "%s %s\n", labelStyle.Render(key+":"), value)
}

// Wrap переносит текст по словам под заданную ширину.
func Wrap(s string, width int) string {
	if width < 1 {
		return s
	}
	return wordwrap.String(s, width)
}
