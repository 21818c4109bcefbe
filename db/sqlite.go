package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// PredictionRecord is one answered form submission.
type PredictionRecord struct {
	ID        int64              `json:"id"`
	RequestID string             `json:"request_id"`
	Label     string             `json:"label"`
	Display   string             `json:"display"`
	Score     float64            `json:"score"`
	Features  map[string]float64 `json:"features"`
	CreatedAt time.Time          `json:"created_at"`
}

// Store persists prediction history in SQLite.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the SQLite database at path.
func Open(path string) (*Store, error) {
	if path == "" {
		return nil, errors.New("database path is required")
	}
	database, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	// SQLite allows one writer; a single connection avoids "database is locked".
	database.SetMaxOpenConns(1)

	query := `
    CREATE TABLE IF NOT EXISTS predictions (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        request_id TEXT NOT NULL,
        label TEXT NOT NULL,
        display TEXT NOT NULL,
        score REAL DEFAULT 0,
        features TEXT NOT NULL,
        created_at DATETIME NOT NULL
    );
    CREATE INDEX IF NOT EXISTS idx_predictions_created_at ON predictions(created_at);
    `
	if _, err := database.Exec(query); err != nil {
		database.Close()
		return nil, err
	}
	return &Store{db: database}, nil
}

// SavePrediction inserts rec and returns its row id. A zero CreatedAt is
// set to now.
func (s *Store) SavePrediction(ctx context.Context, rec PredictionRecord) (int64, error) {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	features, err := json.Marshal(rec.Features)
	if err != nil {
		return 0, err
	}
	res, err := s.db.ExecContext(ctx, `
        INSERT INTO predictions (request_id, label, display, score, features, created_at)
        VALUES (?, ?, ?, ?, ?, ?)`,
		rec.RequestID, rec.Label, rec.Display, rec.Score, string(features), rec.CreatedAt)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// RecentPredictions returns up to limit records, newest first.
func (s *Store) RecentPredictions(ctx context.Context, limit int) ([]PredictionRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
        SELECT id, request_id, label, display, score, features, created_at
        FROM predictions
        ORDER BY created_at DESC, id DESC
        LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := make([]PredictionRecord, 0)
	for rows.Next() {
		var rec PredictionRecord
		var features string
		if err := rows.Scan(&rec.ID, &rec.RequestID, &rec.Label, &rec.Display, &rec.Score, &features, &rec.CreatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(features), &rec.Features); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func (s *Store) Close() error {
	return s.db.Close()
}
