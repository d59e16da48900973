package sink

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/windlass-io/windlass/pkg/stream"
)

// PostgresConfig holds Postgres sink configuration
type PostgresConfig struct {
	Host      string
	Port      int
	Database  string
	User      string
	Password  string
	Table     string
	BatchSize int
}

// PostgresSink writes events to a Postgres table in batches. Events
// accumulate in memory until the batch size is reached or Flush is
// called; each batch is one transaction.
type PostgresSink struct {
	db        *sql.DB
	table     string
	batchSize int
	batch     []*stream.Event
	logger    *zap.Logger
}

// NewPostgresSink connects and prepares the target table
func NewPostgresSink(config PostgresConfig, logger *zap.Logger) (*PostgresSink, error) {
	if config.Table == "" {
		return nil, fmt.Errorf("no Postgres table specified")
	}
	if config.BatchSize <= 0 {
		config.BatchSize = 100
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	connStr := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		config.Host, config.Port, config.User, config.Password, config.Database)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open Postgres connection: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping Postgres: %w", err)
	}

	s := &PostgresSink{
		db:        db,
		table:     config.Table,
		batchSize: config.BatchSize,
		batch:     make([]*stream.Event, 0, config.BatchSize),
		logger:    logger,
	}

	if err := s.createTable(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *PostgresSink) createTable() error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			time    TIMESTAMPTZ NOT NULL,
			key     TEXT,
			payload JSONB
		);
		CREATE INDEX IF NOT EXISTS idx_%s_key ON %s (key, time DESC);
	`, s.table, s.table, s.table)

	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("failed to create table: %w", err)
	}

	s.logger.Info("Postgres table ready", zap.String("table", s.table))
	return nil
}

// Write buffers the event, flushing once the batch fills
func (s *PostgresSink) Write(ctx context.Context, event *stream.Event) error {
	s.batch = append(s.batch, event)
	if len(s.batch) >= s.batchSize {
		return s.Flush(ctx)
	}
	return nil
}

// Flush writes the buffered batch in one transaction
func (s *PostgresSink) Flush(ctx context.Context) error {
	if len(s.batch) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf(
		`INSERT INTO %s (time, key, payload) VALUES ($1, $2, $3)`, s.table))
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, event := range s.batch {
		payload := make(map[string]interface{}, len(event.Payload))
		for name, value := range event.Payload {
			payload[name] = value.Interface()
		}
		payloadJSON, err := json.Marshal(payload)
		if err != nil {
			s.logger.Warn("Failed to marshal event payload", zap.Error(err))
			continue
		}

		if _, err := stmt.ExecContext(ctx, event.Time, event.Key, payloadJSON); err != nil {
			return fmt.Errorf("failed to insert event: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.logger.Debug("Batch flushed to Postgres",
		zap.String("table", s.table),
		zap.Int("count", len(s.batch)))

	s.batch = s.batch[:0]
	return nil
}

// Close flushes the remainder and closes the connection
func (s *PostgresSink) Close() error {
	if err := s.Flush(context.Background()); err != nil {
		s.logger.Error("Final flush failed", zap.Error(err))
	}
	return s.db.Close()
}
