// aicore — утилита для проверки и настройки конфигурации LLM.
//
// Использование:
//   aicore ping    — проверить доступность сконфигурированной модели
//   aicore config  — показать текущую конфигурацию (ключи замаскированы)
//   aicore setup   — интерактивная настройка с записью .env файла
//
// Конфигурация берётся из переменных окружения и .env файла
// в текущей директории.
package main

import (
	"context"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/ilkoid/aicore/pkg/aicore"
	"github.com/ilkoid/aicore/pkg/ui"
	"github.com/ilkoid/aicore/pkg/utils"
)

func main() {
	ctx, shutdown := utils.SetupGracefulShutdown()
	defer shutdown()

	cmd := "ping"
	if len(os.Args) > 1 {
		cmd = os.Args[1]
	}

	var err error
	switch cmd {
	case "ping":
		err = runPing(ctx)
	case "config":
		err = runConfig()
	case "setup":
		err = runSetup()
	case "help", "-h", "--help":
		usage()
	default:
		ui.Error("unknown command: %s", cmd)
		usage()
		os.Exit(2)
	}

	if err != nil {
		ui.Error("%v", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Println("Usage: aicore <command>")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  ping    test the configured LLM provider")
	fmt.Println("  config  print resolved configuration")
	fmt.Println("  setup   interactive configuration wizard")
}

// runPing выполняет тестовый запрос к сконфигурированной модели.
func runPing(ctx context.Context) error {
	env, err := aicore.E()
	if err != nil {
		return err
	}

	ui.Dim("Testing %s (%s)...", env.Config.Model, env.Config.LLMAPIType)

	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	start := time.Now()
	resp, err := env.Ask(ctx, "Reply with a single word: pong")
	if err != nil {
		ui.Error("Status: UNAVAILABLE")
		return err
	}

	ui.Info("Status: AVAILABLE")
	ui.KeyValue("model", env.Config.Model)
	ui.KeyValue("latency", fmt.Sprintf("%dms", time.Since(start).Milliseconds()))
	ui.KeyValue("response", resp.Text())
	return nil
}

// runConfig печатает текущую конфигурацию с замаскированными секретами.
func runConfig() error {
	env, err := aicore.E()
	if err != nil {
		return err
	}

	desc := env.Config.Describe()
	keys := make([]string, 0, len(desc))
	for k := range desc {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		ui.KeyValue(k, desc[k])
	}
	return nil
}
