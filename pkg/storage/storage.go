// Package storage — файловые операции внутри сконфигурированной директории.
//
// Локальный бэкенд покрывает повседневную работу (дампы промптов и ответов,
// JSON-результаты), S3-бэкенд — обмен файлами с пайплайнами. Оба реализуют
// общий интерфейс Storage; расширенные операции есть только у Local.
package storage

import "context"

// Storage — минимальный общий интерфейс файловых бэкендов.
type Storage interface {
	// Write сохраняет данные и возвращает фактическое имя файла.
	Write(ctx context.Context, name string, data []byte) (string, error)

	// Read возвращает содержимое файла.
	Read(ctx context.Context, name string) ([]byte, error)

	// Exists проверяет наличие файла.
	Exists(ctx context.Context, name string) (bool, error)

	// Delete удаляет файл. Отсутствие файла — не ошибка.
	Delete(ctx context.Context, name string) error

	// List возвращает имена файлов по префиксу.
	List(ctx context.Context, prefix string) ([]string, error)
}
