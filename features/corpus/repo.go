package corpus

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"
)

type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo {
	return &PostgresRepo{db: db}
}

func (r *PostgresRepo) Save(ctx context.Context, c *Corpus) error {
	query := `INSERT INTO corpora (id, name, status, files, content_hash)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, updated_at`
	return r.db.QueryRowContext(ctx, query,
		c.ID, c.Name, c.Status, pq.Array(c.Files), c.ContentHash,
	).Scan(&c.CreatedAt, &c.UpdatedAt)
}

func (r *PostgresRepo) ExistsByHash(ctx context.Context, hash string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM corpora WHERE content_hash = $1 AND deleted_at IS NULL)`
	err := r.db.QueryRowContext(ctx, query, hash).Scan(&exists)
	if err != nil {
		return false, err
	}
	return exists, nil
}

func (r *PostgresRepo) Get(ctx context.Context, id string) (*Corpus, error) {
	c := &Corpus{}
	var errMsg sql.NullString
	query := `SELECT id, name, status, files, content_hash, error, created_at, updated_at
		FROM corpora WHERE id = $1 AND deleted_at IS NULL`
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&c.ID, &c.Name, &c.Status, pq.Array(&c.Files), &c.ContentHash, &errMsg, &c.CreatedAt, &c.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	c.Error = errMsg.String
	return c, nil
}

func (r *PostgresRepo) List(ctx context.Context, limit, offset int) ([]Corpus, error) {
	query := `SELECT id, name, status, files, error, created_at, updated_at
		FROM corpora WHERE deleted_at IS NULL
		ORDER BY created_at DESC LIMIT $1 OFFSET $2`
	rows, err := r.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var corpora []Corpus
	for rows.Next() {
		var c Corpus
		var errMsg sql.NullString
		if err := rows.Scan(&c.ID, &c.Name, &c.Status, pq.Array(&c.Files), &errMsg, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		c.Error = errMsg.String
		corpora = append(corpora, c)
	}
	return corpora, rows.Err()
}

func (r *PostgresRepo) UpdateStatus(ctx context.Context, id, status, errMsg string) error {
	query := `UPDATE corpora SET status = $1, error = NULLIF($2, ''), updated_at = NOW() WHERE id = $3`
	_, err := r.db.ExecContext(ctx, query, status, errMsg, id)
	return err
}

func (r *PostgresRepo) SoftDelete(ctx context.Context, id string) error {
	query := `UPDATE corpora SET deleted_at = NOW() WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, id)
	return err
}

func (r *PostgresRepo) Count(ctx context.Context) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM corpora WHERE deleted_at IS NULL`
	err := r.db.QueryRowContext(ctx, query).Scan(&count)
	return count, err
}
