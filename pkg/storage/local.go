package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/ilkoid/aicore/pkg/config"
)

// defaultExt дописывается к именам без расширения.
const defaultExt = ".txt"

// Local — хранилище в STORAGE_PATH.
type Local struct {
	root string
}

// NewLocal создает хранилище над директорией из конфигурации.
func NewLocal(cfg *config.Config) *Local {
	return &Local{root: cfg.StoragePath}
}

// NewLocalAt создает хранилище над произвольной директорией.
func NewLocalAt(root string) *Local {
	return &Local{root: root}
}

var _ Storage = (*Local)(nil)

// normalize дописывает дефолтное расширение к именам без него.
func normalize(name string) string {
	if filepath.Ext(name) == "" {
		return name + defaultExt
	}
	return name
}

func (l *Local) abs(name string) string {
	return filepath.Join(l.root, normalize(name))
}

// Write сохраняет файл, перезаписывая существующий.
func (l *Local) Write(ctx context.Context, name string, data []byte) (string, error) {
	name = normalize(name)
	path := filepath.Join(l.root, name)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", err
	}
	return name, nil
}

// WriteNew сохраняет файл, не перезаписывая существующие: при коллизии
// к имени добавляется счётчик (report.txt → report_1.txt → report_2.txt).
// Возвращает фактически использованное имя.
func (l *Local) WriteNew(ctx context.Context, name string, data []byte) (string, error) {
	name = normalize(name)
	ext := filepath.Ext(name)
	base := strings.TrimSuffix(name, ext)

	candidate := name
	for counter := 1; ; counter++ {
		if _, err := os.Stat(filepath.Join(l.root, candidate)); os.IsNotExist(err) {
			break
		}
		candidate = fmt.Sprintf("%s_%d%s", base, counter, ext)
	}
	return l.Write(ctx, candidate, data)
}

func (l *Local) Read(ctx context.Context, name string) ([]byte, error) {
	return os.ReadFile(l.abs(name))
}

// ReadText читает файл строкой; при отсутствии возвращает fallback.
func (l *Local) ReadText(ctx context.Context, name, fallback string) (string, error) {
	data, err := l.Read(ctx, name)
	if os.IsNotExist(err) {
		return fallback, nil
	}
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// WriteJSON сериализует значение с отступами и сохраняет его.
func (l *Local) WriteJSON(ctx context.Context, name string, v any) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("storage: encode json: %w", err)
	}
	if filepath.Ext(name) == "" {
		name += ".json"
	}
	return l.Write(ctx, name, data)
}

// ReadJSON читает и десериализует JSON файл.
func (l *Local) ReadJSON(ctx context.Context, name string, v any) error {
	if filepath.Ext(name) == "" {
		name += ".json"
	}
	data, err := l.Read(ctx, name)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("storage: decode json %s: %w", name, err)
	}
	return nil
}

func (l *Local) Exists(ctx context.Context, name string) (bool, error) {
	_, err := os.Stat(l.abs(name))
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (l *Local) Delete(ctx context.Context, name string) error {
	err := os.Remove(l.abs(name))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// List возвращает относительные имена всех файлов под префиксом.
func (l *Local) List(ctx context.Context, prefix string) ([]string, error) {
	var names []string
	root := l.root
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) && path == root {
				return fs.SkipAll
			}
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if prefix == "" || strings.HasPrefix(rel, prefix) {
			names = append(names, rel)
		}
		return nil
	})
	return names, err
}

// Clean удаляет поддиректорию хранилища целиком.
// Путь, выводящий за пределы хранилища, отклоняется.
func (l *Local) Clean(path string) error {
	full := filepath.Join(l.root, path)
	rootAbs, err := filepath.Abs(l.root)
	if err != nil {
		return err
	}
	fullAbs, err := filepath.Abs(full)
	if err != nil {
		return err
	}
	if fullAbs == rootAbs || !strings.HasPrefix(fullAbs, rootAbs+string(os.PathSeparator)) {
		return fmt.Errorf("storage: cannot delete directories outside the storage path")
	}
	return os.RemoveAll(fullAbs)
}
