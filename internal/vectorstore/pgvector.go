package vectorstore

import (
	"context"
	"fmt"
	"strings"

	"github.com/didi/gendry/builder"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/pgvector/pgvector-go"
)

type pgvectorConfig struct {
	DSN   string `json:"dsn"`
	Table string `json:"table"`
}

// pgvectorStore keeps vectors in a Postgres table with the pgvector
// extension. Cosine distance is used for ranking, mirroring the default
// collection metric of the HTTP backend.
type pgvectorStore struct {
	db    *sqlx.DB
	table string
}

func createPgvectorStore(args interface{}) (Store, error) {
	cfg := &pgvectorConfig{}
	if err := decodeConfig(args, cfg); err != nil {
		return nil, err
	}
	if strings.TrimSpace(cfg.DSN) == "" {
		return nil, fmt.Errorf("pgvector dsn is required")
	}
	table := cfg.Table
	if table == "" {
		table = "knowledge_chunks"
	}
	if !isSafeIdentifier(table) {
		return nil, fmt.Errorf("invalid pgvector table name: %s", table)
	}
	db, err := sqlx.Open("postgres", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	return &pgvectorStore{db: db, table: table}, nil
}

func (s *pgvectorStore) EnsureCollection(ctx context.Context, vectorSize int) error {
	if vectorSize <= 0 {
		return fmt.Errorf("invalid vector size %d", vectorSize)
	}
	if _, err := s.db.ExecContext(ctx, "CREATE EXTENSION IF NOT EXISTS vector"); err != nil {
		return fmt.Errorf("enable pgvector extension: %w", err)
	}
	schema := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		id BIGINT PRIMARY KEY,
		embedding vector(%d) NOT NULL,
		text TEXT NOT NULL,
		source TEXT NOT NULL,
		doc_type TEXT NOT NULL,
		page_info TEXT NOT NULL DEFAULT ''
	)`, s.table, vectorSize)
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create table %s: %w", s.table, err)
	}
	index := fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s_source_idx ON %s (source)", s.table, s.table)
	if _, err := s.db.ExecContext(ctx, index); err != nil {
		return fmt.Errorf("create source index: %w", err)
	}
	return nil
}

func (s *pgvectorStore) Upsert(ctx context.Context, points []Point) error {
	for start := 0; start < len(points); start += UpsertBatchSize {
		end := start + UpsertBatchSize
		if end > len(points) {
			end = len(points)
		}
		rows := make([]map[string]interface{}, 0, end-start)
		for _, p := range points[start:end] {
			rows = append(rows, map[string]interface{}{
				"id":        p.ID,
				"embedding": pgvector.NewVector(p.Vector),
				"text":      p.Payload.Text,
				"source":    p.Payload.Source,
				"doc_type":  p.Payload.Type,
				"page_info": p.Payload.PageInfo,
			})
		}
		query, values, err := builder.BuildInsert(s.table, rows)
		if err != nil {
			return fmt.Errorf("build insert: %w", err)
		}
		// Point IDs are never reused, so a conflicting row is the same chunk
		// written by an earlier interrupted run.
		query = s.db.Rebind(query + " ON CONFLICT (id) DO NOTHING")
		if _, err := s.db.ExecContext(ctx, query, values...); err != nil {
			return fmt.Errorf("upsert points %d-%d: %w", start, end-1, err)
		}
	}
	return nil
}

func (s *pgvectorStore) Query(ctx context.Context, vector []float32, limit int) ([]ScoredPoint, error) {
	if limit <= 0 {
		limit = 5
	}
	query := fmt.Sprintf(`SELECT text, source, doc_type, page_info,
		1 - (embedding <=> $1) AS score
		FROM %s ORDER BY embedding <=> $1 LIMIT $2`, s.table)
	var rows []struct {
		Text     string  `db:"text"`
		Source   string  `db:"source"`
		DocType  string  `db:"doc_type"`
		PageInfo string  `db:"page_info"`
		Score    float32 `db:"score"`
	}
	if err := s.db.SelectContext(ctx, &rows, query, pgvector.NewVector(vector), limit); err != nil {
		return nil, fmt.Errorf("query %s: %w", s.table, err)
	}
	results := make([]ScoredPoint, 0, len(rows))
	for _, r := range rows {
		results = append(results, ScoredPoint{
			Score: r.Score,
			Payload: Payload{
				Text:     r.Text,
				Source:   r.Source,
				Type:     r.DocType,
				PageInfo: r.PageInfo,
			},
		})
	}
	return results, nil
}

func (s *pgvectorStore) DeleteBySource(ctx context.Context, source string) error {
	query, values, err := builder.BuildDelete(s.table, map[string]interface{}{"source": source})
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, s.db.Rebind(query), values...); err != nil {
		return fmt.Errorf("delete source %s: %w", source, err)
	}
	return nil
}

func isSafeIdentifier(name string) bool {
	for i, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r == '_':
		case r >= '0' && r <= '9':
			if i == 0 {
				return false
			}
		default:
			return false
		}
	}
	return len(name) > 0
}

func init() {
	Register("pgvector", createPgvectorStore)
}
