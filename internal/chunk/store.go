package chunk

import (
	"context"
	"database/sql"
	"errors"
)

// PostgresStore implements Store over the chunks table, scoped to one corpus.
type PostgresStore struct {
	db       *sql.DB
	corpusID string
}

func NewPostgresStore(db *sql.DB, corpusID string) *PostgresStore {
	return &PostgresStore{db: db, corpusID: corpusID}
}

func (s *PostgresStore) Put(ctx context.Context, c *Chunk) error {
	query := `INSERT INTO chunks (corpus_id, id, source, page, kind, content, caption, media_path, label_key)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := s.db.ExecContext(ctx, query, s.corpusID, c.ID, c.Source, c.Page, string(c.Kind), c.Content, c.Caption, c.MediaPath, c.LabelKey)
	return err
}

func (s *PostgresStore) Get(ctx context.Context, id int64) (*Chunk, error) {
	c := &Chunk{}
	query := `SELECT id, source, page, kind, content, caption, media_path, label_key FROM chunks WHERE corpus_id = $1 AND id = $2`
	err := s.db.QueryRowContext(ctx, query, s.corpusID, id).
		Scan(&c.ID, &c.Source, &c.Page, &c.Kind, &c.Content, &c.Caption, &c.MediaPath, &c.LabelKey)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (s *PostgresStore) All(ctx context.Context) ([]Chunk, error) {
	query := `SELECT id, source, page, kind, content, caption, media_path, label_key FROM chunks WHERE corpus_id = $1 ORDER BY id ASC`
	rows, err := s.db.QueryContext(ctx, query, s.corpusID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanChunks(rows)
}

func (s *PostgresStore) BySourcePageKind(ctx context.Context, source string, page int, kind Kind) ([]Chunk, error) {
	query := `SELECT id, source, page, kind, content, caption, media_path, label_key FROM chunks
		WHERE corpus_id = $1 AND source = $2 AND page = $3 AND kind = $4 ORDER BY id ASC`
	rows, err := s.db.QueryContext(ctx, query, s.corpusID, source, page, string(kind))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanChunks(rows)
}

func (s *PostgresStore) SetCaption(ctx context.Context, id int64, caption string) error {
	query := `UPDATE chunks SET caption = $1 WHERE corpus_id = $2 AND id = $3`
	res, err := s.db.ExecContext(ctx, query, caption, s.corpusID, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) Purge(ctx context.Context) error {
	query := `DELETE FROM chunks WHERE corpus_id = $1`
	_, err := s.db.ExecContext(ctx, query, s.corpusID)
	return err
}

func (s *PostgresStore) Count(ctx context.Context) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM chunks WHERE corpus_id = $1`
	err := s.db.QueryRowContext(ctx, query, s.corpusID).Scan(&count)
	return count, err
}

func scanChunks(rows *sql.Rows) ([]Chunk, error) {
	var chunks []Chunk
	for rows.Next() {
		var c Chunk
		if err := rows.Scan(&c.ID, &c.Source, &c.Page, &c.Kind, &c.Content, &c.Caption, &c.MediaPath, &c.LabelKey); err != nil {
			return nil, err
		}
		chunks = append(chunks, c)
	}
	return chunks, rows.Err()
}
