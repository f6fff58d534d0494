package embeddings

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/ilkoid/aicore/pkg/config"
)

// SQLite — реализация DB поверх одного sqlite-файла.
//
// Вектора хранятся BLOB'ами (little-endian float32), дистанция считается
// в Go полным перебором коллекции. Для размеров, на которые рассчитана
// библиотека (тысячи документов), этого достаточно.
type SQLite struct {
	db              *sql.DB
	embed           config.EmbedFunc
	allowDuplicates bool
}

const schema = `
CREATE TABLE IF NOT EXISTS embeddings (
	id         TEXT PRIMARY KEY,
	collection TEXT NOT NULL,
	text       TEXT NOT NULL,
	hash       TEXT NOT NULL,
	vector     BLOB NOT NULL,
	metadata   TEXT
);
CREATE INDEX IF NOT EXISTS idx_embeddings_collection ON embeddings(collection);
CREATE INDEX IF NOT EXISTS idx_embeddings_hash ON embeddings(collection, hash);
`

// NewSQLite открывает (создавая при необходимости) хранилище в
// EMBEDDING_DB_FOLDER. Требует сконфигурированную EMBEDDING_DB_FUNCTION.
func NewSQLite(cfg *config.Config) (*SQLite, error) {
	if cfg.Embedding == nil {
		return nil, fmt.Errorf("embeddings: EMBEDDING_DB_FUNCTION is not configured")
	}
	if err := os.MkdirAll(cfg.EmbeddingDBFolder, 0755); err != nil {
		return nil, fmt.Errorf("embeddings: create folder: %w", err)
	}

	path := filepath.Join(cfg.EmbeddingDBFolder, "embeddings.sqlite")
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("embeddings: open %s: %w", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("embeddings: init schema: %w", err)
	}

	return &SQLite{
		db:              db,
		embed:           cfg.Embedding,
		allowDuplicates: cfg.EmbeddingDBAllowDuplicates,
	}, nil
}

func (s *SQLite) Close() error { return s.db.Close() }

func (s *SQLite) Save(ctx context.Context, collection, text string, metadata map[string]any) (string, error) {
	ids, err := s.SaveMany(ctx, collection, []Record{{Text: text, Metadata: metadata}})
	if err != nil {
		return "", err
	}
	return ids[0], nil
}

func (s *SQLite) SaveMany(ctx context.Context, collection string, items []Record) ([]string, error) {
	if len(items) == 0 {
		return nil, nil
	}

	texts := make([]string, len(items))
	for i, item := range items {
		texts[i] = item.Text
	}
	vectors, err := s.embed(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embeddings: embed: %w", err)
	}
	if len(vectors) != len(items) {
		return nil, fmt.Errorf("embeddings: embed returned %d vectors for %d texts", len(vectors), len(items))
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	ids := make([]string, len(items))
	for i, item := range items {
		hash := textHash(item.Text)

		// Повторный текст не создаёт новую запись, возвращается
		// существующий ID (если дубликаты не разрешены явно)
		if !s.allowDuplicates {
			var existing string
			err := tx.QueryRowContext(ctx,
				`SELECT id FROM embeddings WHERE collection = ? AND hash = ? LIMIT 1`,
				collection, hash).Scan(&existing)
			if err == nil {
				ids[i] = existing
				continue
			}
			if err != sql.ErrNoRows {
				return nil, err
			}
		}

		id := item.ID
		if id == "" {
			id = uuid.New().String()
		}
		meta, err := encodeMetadata(item.Metadata)
		if err != nil {
			return nil, err
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO embeddings (id, collection, text, hash, vector, metadata) VALUES (?, ?, ?, ?, ?, ?)`,
			id, collection, item.Text, hash, encodeVector(vectors[i]), meta); err != nil {
			return nil, fmt.Errorf("embeddings: insert: %w", err)
		}
		ids[i] = id
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return ids, nil
}

func (s *SQLite) Search(ctx context.Context, collection, query string, n int) ([]SearchResult, error) {
	if n <= 0 {
		n = 5
	}
	vectors, err := s.embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("embeddings: embed query: %w", err)
	}
	if len(vectors) != 1 {
		return nil, fmt.Errorf("embeddings: embed returned %d vectors for query", len(vectors))
	}
	queryVec := vectors[0]

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, text, vector, metadata FROM embeddings WHERE collection = ?`, collection)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []SearchResult
	for rows.Next() {
		var id, text string
		var blob []byte
		var meta sql.NullString
		if err := rows.Scan(&id, &text, &blob, &meta); err != nil {
			return nil, err
		}
		metadata, err := decodeMetadata(meta)
		if err != nil {
			return nil, err
		}
		results = append(results, SearchResult{
			ID:       id,
			Text:     text,
			Distance: cosineDistance(queryVec, decodeVector(blob)),
			Metadata: metadata,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sort.Slice(results, func(i, j int) bool { return results[i].Distance < results[j].Distance })
	if len(results) > n {
		results = results[:n]
	}
	return results, nil
}

func (s *SQLite) FindOne(ctx context.Context, collection, query string) (*SearchResult, error) {
	results, err := s.Search(ctx, collection, query, 1)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, nil
	}
	return &results[0], nil
}

func (s *SQLite) GetAll(ctx context.Context, collection string) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, text, metadata FROM embeddings WHERE collection = ? ORDER BY rowid`, collection)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var rec Record
		var meta sql.NullString
		if err := rows.Scan(&rec.ID, &rec.Text, &meta); err != nil {
			return nil, err
		}
		if rec.Metadata, err = decodeMetadata(meta); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func (s *SQLite) Count(ctx context.Context, collection string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM embeddings WHERE collection = ?`, collection).Scan(&n)
	return n, err
}

func (s *SQLite) Delete(ctx context.Context, collection string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	for _, id := range ids {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM embeddings WHERE collection = ? AND id = ?`, collection, id); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *SQLite) Clear(ctx context.Context, collection string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM embeddings WHERE collection = ?`, collection)
	return err
}

func textHash(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

func encodeMetadata(m map[string]any) (sql.NullString, error) {
	if len(m) == 0 {
		return sql.NullString{}, nil
	}
	raw, err := json.Marshal(m)
	if err != nil {
		return sql.NullString{}, fmt.Errorf("embeddings: encode metadata: %w", err)
	}
	return sql.NullString{String: string(raw), Valid: true}, nil
}

func decodeMetadata(s sql.NullString) (map[string]any, error) {
	if !s.Valid || s.String == "" {
		return nil, nil
	}
	var m map[string]any
	if err := json.Unmarshal([]byte(s.String), &m); err != nil {
		return nil, fmt.Errorf("embeddings: decode metadata: %w", err)
	}
	return m, nil
}

// encodeVector пакует вектор в little-endian float32 BLOB.
func encodeVector(v []float32) []byte {
	out := make([]byte, 4*len(v))
	for i, f := range v {
		binary.LittleEndian.PutUint32(out[i*4:], math.Float32bits(f))
	}
	return out
}

func decodeVector(b []byte) []float32 {
	out := make([]float32, len(b)/4)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return out
}

// cosineDistance = 1 - cos(a, b). Разная размерность или нулевой вектор
// дают максимальную дистанцию.
func cosineDistance(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 1
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 1
	}
	return 1 - dot/(math.Sqrt(normA)*math.Sqrt(normB))
}
