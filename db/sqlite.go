package db

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"winequality/pipeline"
)

// writeQueueSize bounds the events waiting for the background writer.
const writeQueueSize = 256

// Store is an append-only log of prediction attempts. Observe hands events to
// a single background writer so requests never wait on the disk.
type Store struct {
	db     *sql.DB
	logger *zap.Logger

	queue  chan pipeline.Event
	done   chan struct{}
	mu     sync.RWMutex
	closed bool
}

// PredictionRow is one logged attempt. Quality is empty for failures.
type PredictionRow struct {
	ID              int64           `json:"id"`
	RequestID       string          `json:"request_id"`
	Quality         string          `json:"quality,omitempty"`
	ProbabilityLow  float64         `json:"probability_low"`
	ProbabilityHigh float64         `json:"probability_high"`
	Confidence      float64         `json:"confidence"`
	Features        json.RawMessage `json:"features,omitempty"`
	Error           string          `json:"error,omitempty"`
	ErrorKind       string          `json:"error_kind,omitempty"`
	LatencyMs       float64         `json:"latency_ms"`
	CreatedAt       time.Time       `json:"created_at"`
}

func Open(path string, logger *zap.Logger) (*Store, error) {
	if path == "" {
		return nil, errors.New("database path is empty")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create database dir: %w", err)
		}
	}

	dsn := path + "?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL"
	database, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// sqlite serializes writers anyway
	database.SetMaxOpenConns(1)

	query := `
    CREATE TABLE IF NOT EXISTS predictions (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        request_id TEXT NOT NULL,
        quality VARCHAR(8),
        probability_low REAL,
        probability_high REAL,
        confidence REAL,
        features TEXT,
        error TEXT,
        error_kind VARCHAR(20),
        latency_ms REAL,
        created_at DATETIME NOT NULL
    );
    CREATE INDEX IF NOT EXISTS idx_predictions_created_at ON predictions(created_at);
    `
	if _, err := database.Exec(query); err != nil {
		database.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	s := &Store{
		db:     database,
		logger: logger,
		queue:  make(chan pipeline.Event, writeQueueSize),
		done:   make(chan struct{}),
	}
	go s.writeLoop()
	return s, nil
}

// Close writes out every queued event, then closes the database.
func (s *Store) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	close(s.queue)
	s.mu.Unlock()

	<-s.done
	return s.db.Close()
}

func (s *Store) SavePrediction(event pipeline.Event) error {
	row := PredictionRow{
		RequestID: event.RequestID,
		Error:     event.Error,
		ErrorKind: event.ErrorKind,
		LatencyMs: event.LatencyMs,
		CreatedAt: event.Timestamp.UTC(),
	}
	var features interface{}
	if event.Result != nil {
		row.Quality = string(event.Result.Quality)
		row.ProbabilityLow = event.Result.ProbabilityLow
		row.ProbabilityHigh = event.Result.ProbabilityHigh
		row.Confidence = event.Result.Confidence
		payload, err := json.Marshal(event.Result.InputFeatures)
		if err != nil {
			return fmt.Errorf("encode features: %w", err)
		}
		features = string(payload)
	}

	_, err := s.db.Exec(`
        INSERT INTO predictions (
            request_id, quality, probability_low, probability_high, confidence,
            features, error, error_kind, latency_ms, created_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
    `, row.RequestID, nullable(row.Quality), row.ProbabilityLow, row.ProbabilityHigh, row.Confidence,
		features, nullable(row.Error), nullable(row.ErrorKind), row.LatencyMs, row.CreatedAt)
	return err
}

// Observe queues event for the writer. Events are dropped, with a warning,
// when the queue is full or the store is closed; a slow or broken database
// never fails or delays a prediction.
func (s *Store) Observe(event pipeline.Event) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		s.logger.Warn("prediction store closed, dropping event", zap.String("request_id", event.RequestID))
		return
	}
	select {
	case s.queue <- event:
	default:
		s.logger.Warn("prediction store queue is full, dropping event", zap.String("request_id", event.RequestID))
	}
}

func (s *Store) writeLoop() {
	defer close(s.done)
	for event := range s.queue {
		if err := s.SavePrediction(event); err != nil {
			s.logger.Error("failed to save prediction",
				zap.String("request_id", event.RequestID),
				zap.Error(err))
		}
	}
}

// Recent returns up to limit rows, newest first.
func (s *Store) Recent(limit int) ([]PredictionRow, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.Query(`
        SELECT id, request_id, quality, probability_low, probability_high, confidence,
               features, error, error_kind, latency_ms, created_at
        FROM predictions
        ORDER BY id DESC
        LIMIT ?
    `, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []PredictionRow
	for rows.Next() {
		var (
			row                        PredictionRow
			quality, errMsg, errorKind sql.NullString
			features                   sql.NullString
		)
		if err := rows.Scan(&row.ID, &row.RequestID, &quality, &row.ProbabilityLow, &row.ProbabilityHigh,
			&row.Confidence, &features, &errMsg, &errorKind, &row.LatencyMs, &row.CreatedAt); err != nil {
			return nil, err
		}
		row.Quality = quality.String
		row.Error = errMsg.String
		row.ErrorKind = errorKind.String
		if features.Valid {
			row.Features = json.RawMessage(features.String)
		}
		result = append(result, row)
	}
	return result, rows.Err()
}

func nullable(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
