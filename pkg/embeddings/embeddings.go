// Package embeddings — локальное хранилище векторов с similarity search.
//
// Хранилище разбито на коллекции. Векторизация текстов делается через
// EMBEDDING_DB_FUNCTION из конфигурации, сама библиотека модели не грузит.
package embeddings

import "context"

// Record — один сохранённый документ.
type Record struct {
	ID       string
	Text     string
	Metadata map[string]any
}

// SearchResult — документ с дистанцией до запроса.
// Distance — косинусная дистанция, меньше = ближе.
type SearchResult struct {
	ID       string
	Text     string
	Distance float64
	Metadata map[string]any
}

// DB — интерфейс векторного хранилища.
type DB interface {
	// Save сохраняет один текст и возвращает его ID.
	Save(ctx context.Context, collection, text string, metadata map[string]any) (string, error)

	// SaveMany сохраняет пачку текстов за один вызов embedding-функции.
	SaveMany(ctx context.Context, collection string, items []Record) ([]string, error)

	// Search возвращает n ближайших документов к запросу.
	Search(ctx context.Context, collection, query string, n int) ([]SearchResult, error)

	// FindOne возвращает ближайший документ или nil, если коллекция пуста.
	FindOne(ctx context.Context, collection, query string) (*SearchResult, error)

	// GetAll возвращает все документы коллекции.
	GetAll(ctx context.Context, collection string) ([]Record, error)

	// Count возвращает число документов в коллекции.
	Count(ctx context.Context, collection string) (int, error)

	// Delete удаляет документы по ID.
	Delete(ctx context.Context, collection string, ids []string) error

	// Clear удаляет коллекцию целиком.
	Clear(ctx context.Context, collection string) error

	// Close освобождает ресурсы хранилища.
	Close() error
}
