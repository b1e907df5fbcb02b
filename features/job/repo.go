package job

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
)

type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo {
	return &PostgresRepo{db: db}
}

func (r *PostgresRepo) Create(ctx context.Context, corpusID string) (string, error) {
	id := uuid.New().String()
	query := `INSERT INTO ingestion_jobs (id, corpus_id, status) VALUES ($1, $2, $3)`
	if _, err := r.db.ExecContext(ctx, query, id, corpusID, StatusPending); err != nil {
		return "", err
	}
	return id, nil
}

func (r *PostgresRepo) Get(ctx context.Context, id string) (*Job, error) {
	j := &Job{}
	var errMsg sql.NullString
	query := `SELECT id, corpus_id, status, error, created_at, updated_at FROM ingestion_jobs WHERE id = $1`
	err := r.db.QueryRowContext(ctx, query, id).Scan(&j.ID, &j.CorpusID, &j.Status, &errMsg, &j.CreatedAt, &j.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	j.Error = errMsg.String
	return j, nil
}

func (r *PostgresRepo) ListByCorpus(ctx context.Context, corpusID string) ([]Job, error) {
	query := `SELECT id, corpus_id, status, error, created_at, updated_at
		FROM ingestion_jobs WHERE corpus_id = $1 ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, query, corpusID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var jobs []Job
	for rows.Next() {
		var j Job
		var errMsg sql.NullString
		if err := rows.Scan(&j.ID, &j.CorpusID, &j.Status, &errMsg, &j.CreatedAt, &j.UpdatedAt); err != nil {
			return nil, err
		}
		j.Error = errMsg.String
		jobs = append(jobs, j)
	}
	return jobs, rows.Err()
}

func (r *PostgresRepo) SetStatus(ctx context.Context, id, status, errMsg string) error {
	query := `UPDATE ingestion_jobs SET status = $1, error = NULLIF($2, ''), updated_at = NOW() WHERE id = $3`
	_, err := r.db.ExecContext(ctx, query, status, errMsg, id)
	return err
}

func (r *PostgresRepo) CountErrored(ctx context.Context) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM ingestion_jobs WHERE status = $1`
	err := r.db.QueryRowContext(ctx, query, StatusError).Scan(&count)
	return count, err
}
