// Graceful shutdown: отмена контекста по SIGINT/SIGTERM.
package utils

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

// SetupGracefulShutdown возвращает контекст, отменяемый по сигналу,
// и функцию очистки для defer в main().
//
// Повторный сигнал завершает процесс немедленно — сигнальный обработчик
// снимается после первой отмены.
func SetupGracefulShutdown() (context.Context, func()) {
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		Info("Received signal, shutting down gracefully", "signal", sig.String())
		signal.Stop(sigChan)
		cancel()
	}()

	return ctx, func() {
		cancel()
		Close()
	}
}
