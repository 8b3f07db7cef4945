package repo

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/rogerio-castellano/reorder-signal/internal/models"
)

// PostgresRunRepository persists runs in a single table; the batch records
// and the prediction map are stored as JSONB since a run is always read and
// replaced wholesale.
//
// Schema:
//
//	CREATE TABLE runs (
//	    id          SERIAL PRIMARY KEY,
//	    status      TEXT NOT NULL,
//	    accuracy    DOUBLE PRECISION NOT NULL DEFAULT 0,
//	    error       TEXT NOT NULL DEFAULT '',
//	    records     JSONB NOT NULL,
//	    predictions JSONB NOT NULL,
//	    started_at  TEXT NOT NULL,
//	    finished_at TEXT NOT NULL
//	);
type PostgresRunRepository struct {
	db *sql.DB
}

func NewPostgresRunRepository(db *sql.DB) *PostgresRunRepository {
	return &PostgresRunRepository{db: db}
}

func (r *PostgresRunRepository) Save(run models.Run) (models.Run, error) {
	records, err := json.Marshal(run.Batch.Records)
	if err != nil {
		return models.Run{}, err
	}
	predictions, err := json.Marshal(run.Predictions)
	if err != nil {
		return models.Run{}, err
	}

	query := `INSERT INTO runs (status, accuracy, error, records, predictions, started_at, finished_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	err = r.db.QueryRowContext(ctx, query,
		string(run.Status), run.Accuracy, run.Error, records, predictions, run.StartedAt, run.FinishedAt).
		Scan(&run.ID)
	return run, err
}

func (r *PostgresRunRepository) GetByID(id int) (models.Run, error) {
	query := `SELECT id, status, accuracy, error, records, predictions, started_at, finished_at
		FROM runs WHERE id = $1`
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	return r.scanRun(r.db.QueryRowContext(ctx, query, id))
}

func (r *PostgresRunRepository) Latest() (models.Run, error) {
	query := `SELECT id, status, accuracy, error, records, predictions, started_at, finished_at
		FROM runs ORDER BY id DESC LIMIT 1`
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	return r.scanRun(r.db.QueryRowContext(ctx, query))
}

func (r *PostgresRunRepository) scanRun(row *sql.Row) (models.Run, error) {
	var run models.Run
	var status string
	var records, predictions []byte

	err := row.Scan(&run.ID, &status, &run.Accuracy, &run.Error, &records, &predictions,
		&run.StartedAt, &run.FinishedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Run{}, ErrRunNotFound
	}
	if err != nil {
		return models.Run{}, err
	}

	run.Status = models.RunStatus(status)
	if err := json.Unmarshal(records, &run.Batch.Records); err != nil {
		return models.Run{}, err
	}
	if err := json.Unmarshal(predictions, &run.Predictions); err != nil {
		return models.Run{}, err
	}
	return run, nil
}
