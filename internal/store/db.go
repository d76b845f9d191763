// Package store persists analysis jobs and per-call results to Postgres.
// Writes are asynchronous and best-effort: a slow or unreachable database
// must never block or fail an analysis, so operations go through a buffered
// channel drained by a single worker, and queue overflow drops the write
// with a warning.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"
)

// Config holds database connection parameters. An empty Host disables
// persistence entirely.
type Config struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	User         string        `mapstructure:"user"`
	Password     string        `mapstructure:"password"`
	Database     string        `mapstructure:"database"`
	SSLMode      string        `mapstructure:"sslmode"`
	MaxOpenConns int           `mapstructure:"max_open_conns"`
	MaxIdleConns int           `mapstructure:"max_idle_conns"`
	ConnLifetime time.Duration `mapstructure:"conn_lifetime"`
}

// JobRow is one analyzed capture.
type JobRow struct {
	ID             string
	Filename       string
	TotalCalls     int
	BucketPath     string
	OverallVerdict string
}

// CallRow is one analyzed call belonging to a job. Timeline is stored as
// JSONB; AIExplanation may be empty.
type CallRow struct {
	ID                  string
	JobID               string
	CallID              string
	FinalVerdict        string
	Outcome             string
	Reason              string
	RootCause           string
	FailureStage        string
	ProtocolResponsible string
	Timeline            json.RawMessage
	AIExplanation       string
}

type operation struct {
	opType string
	data   interface{}
}

// Store manages database operations. A nil *Store is valid: every write is
// a no-op and reads report not-enabled.
type Store struct {
	db        *sql.DB
	writeChan chan operation
	done      chan struct{}
	log       logrus.FieldLogger
}

// Open connects to Postgres, ensures the schema, and starts the async
// writer. A nil config or empty host returns (nil, nil): persistence is
// simply disabled.
func Open(cfg *Config) (*Store, error) {
	if cfg == nil || cfg.Host == "" {
		return nil, nil
	}

	connStr := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Database, cfg.SSLMode)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := createTables(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	s := &Store{
		db:        db,
		writeChan: make(chan operation, 1000),
		done:      make(chan struct{}),
		log:       logrus.WithField("component", "store"),
	}
	go s.worker()
	return s, nil
}

func createTables(db *sql.DB) error {
	query := `
	CREATE TABLE IF NOT EXISTS pcap_jobs (
		id TEXT PRIMARY KEY,
		filename TEXT NOT NULL,
		total_calls INTEGER NOT NULL DEFAULT 0,
		bucket_path TEXT,
		overall_verdict TEXT,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	);

	CREATE TABLE IF NOT EXISTS sip_calls (
		id TEXT PRIMARY KEY,
		job_id TEXT NOT NULL,
		call_id TEXT NOT NULL,
		final_verdict TEXT,
		outcome TEXT,
		reason TEXT,
		root_cause TEXT,
		failure_stage TEXT,
		protocol_responsible TEXT,
		timeline JSONB,
		ai_explanation TEXT,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_sip_calls_job_id ON sip_calls(job_id);
	CREATE INDEX IF NOT EXISTS idx_pcap_jobs_created_at ON pcap_jobs(created_at);
	`
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	_, err := db.ExecContext(ctx, query)
	return err
}

// InsertJob queues a job row for persistence (async, best-effort).
func (s *Store) InsertJob(row JobRow) {
	s.enqueue(operation{opType: "job", data: row}, row.ID)
}

// InsertCall queues a call row for persistence (async, best-effort).
func (s *Store) InsertCall(row CallRow) {
	s.enqueue(operation{opType: "call", data: row}, row.CallID)
}

func (s *Store) enqueue(op operation, id string) {
	if s == nil {
		return
	}
	select {
	case s.writeChan <- op:
	default:
		// Never block analysis on a slow sink.
		s.log.Warnf("database write queue full, dropping write for %s", id)
	}
}

func (s *Store) worker() {
	defer close(s.done)
	for op := range s.writeChan {
		switch op.opType {
		case "job":
			if row, ok := op.data.(JobRow); ok {
				s.insertJob(row)
			}
		case "call":
			if row, ok := op.data.(CallRow); ok {
				s.insertCall(row)
			}
		}
	}
}

func (s *Store) insertJob(row JobRow) {
	query := `
		INSERT INTO pcap_jobs (id, filename, total_calls, bucket_path, overall_verdict)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			total_calls = EXCLUDED.total_calls,
			overall_verdict = EXCLUDED.overall_verdict
	`
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if _, err := s.db.ExecContext(ctx, query,
		row.ID, row.Filename, row.TotalCalls, row.BucketPath, row.OverallVerdict); err != nil {
		s.log.WithError(err).Warnf("failed to insert job %s", row.ID)
	}
}

func (s *Store) insertCall(row CallRow) {
	query := `
		INSERT INTO sip_calls (id, job_id, call_id, final_verdict, outcome, reason,
			root_cause, failure_stage, protocol_responsible, timeline, ai_explanation)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (id) DO NOTHING
	`
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	timeline := row.Timeline
	if len(timeline) == 0 {
		timeline = json.RawMessage("[]")
	}
	if _, err := s.db.ExecContext(ctx, query,
		row.ID, row.JobID, row.CallID, row.FinalVerdict, row.Outcome, row.Reason,
		row.RootCause, row.FailureStage, row.ProtocolResponsible, []byte(timeline), row.AIExplanation); err != nil {
		s.log.WithError(err).Warnf("failed to insert call %s for job %s", row.CallID, row.JobID)
	}
}

// CallsByJob reads the persisted calls for one job, synchronously. Used by
// the chat endpoint to rebuild context.
func (s *Store) CallsByJob(ctx context.Context, jobID string) ([]CallRow, error) {
	if s == nil {
		return nil, fmt.Errorf("persistence is not enabled")
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, job_id, call_id, final_verdict, outcome, reason, root_cause,
			failure_stage, protocol_responsible, COALESCE(timeline, '[]'::jsonb), COALESCE(ai_explanation, '')
		FROM sip_calls WHERE job_id = $1 ORDER BY created_at, call_id`, jobID)
	if err != nil {
		return nil, fmt.Errorf("query calls for job %s: %w", jobID, err)
	}
	defer rows.Close()

	var out []CallRow
	for rows.Next() {
		var r CallRow
		var timeline []byte
		if err := rows.Scan(&r.ID, &r.JobID, &r.CallID, &r.FinalVerdict, &r.Outcome,
			&r.Reason, &r.RootCause, &r.FailureStage, &r.ProtocolResponsible,
			&timeline, &r.AIExplanation); err != nil {
			return nil, err
		}
		r.Timeline = json.RawMessage(timeline)
		out = append(out, r)
	}
	return out, rows.Err()
}

// Close drains the write queue and closes the connection pool.
func (s *Store) Close() error {
	if s == nil {
		return nil
	}
	close(s.writeChan)
	<-s.done
	return s.db.Close()
}
