package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/quarrylabs/leadharvest/internal/extract"
)

const insertLeadSQL = `
INSERT INTO leads (
	source_url,
	canonical_url,
	website,
	company_name,
	description,
	phones,
	emails,
	addresses,
	social_links,
	scraped_at
) VALUES (
	$1,$2,$3,$4,$5,$6,$7,$8,$9,$10
)`

// beginCloser is the slice of pgxpool.Pool the sink needs, narrowed so
// tests can substitute a mock pool.
type beginCloser interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Close()
}

// PostgresSink stages lead records and writes them to Postgres in one
// transaction per flush.
type PostgresSink struct {
	pool   beginCloser
	logger *zap.Logger

	mu      sync.Mutex
	pending []extract.LeadRecord
}

// NewPostgresSink connects to Postgres and verifies the connection.
func NewPostgresSink(ctx context.Context, dsn string, logger *zap.Logger) (*PostgresSink, error) {
	if dsn == "" {
		return nil, fmt.Errorf("database dsn is required")
	}
	poolCfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return newPostgresSink(pool, logger), nil
}

// NewPostgresSinkWithPool constructs a sink from an existing pool,
// primarily for testing.
func NewPostgresSinkWithPool(pool beginCloser, logger *zap.Logger) (*PostgresSink, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	return newPostgresSink(pool, logger), nil
}

func newPostgresSink(pool beginCloser, logger *zap.Logger) *PostgresSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PostgresSink{pool: pool, logger: logger}
}

// Save stages one record for the next flush.
func (s *PostgresSink) Save(_ context.Context, lead extract.LeadRecord) error {
	if lead.SourceURL == "" {
		return fmt.Errorf("lead record has no source url")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = append(s.pending, lead)
	return nil
}

// Flush writes all staged records in one transaction. Staged records are
// kept on failure so a later flush can retry them.
func (s *PostgresSink) Flush(ctx context.Context) error {
	s.mu.Lock()
	batch := s.pending
	s.pending = nil
	s.mu.Unlock()
	if len(batch) == 0 {
		return nil
	}

	err := s.writeBatch(ctx, batch)
	if err != nil {
		s.mu.Lock()
		s.pending = append(batch, s.pending...)
		s.mu.Unlock()
		return err
	}
	s.logger.Info("persisted lead batch", zap.Int("count", len(batch)))
	return nil
}

// Close releases the pool. Staged but unflushed records are dropped.
func (s *PostgresSink) Close() {
	s.pool.Close()
}

func (s *PostgresSink) writeBatch(ctx context.Context, batch []extract.LeadRecord) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin lead batch: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	now := time.Now().UTC()
	for _, lead := range batch {
		socialJSON, err := json.Marshal(lead.SocialLinks)
		if err != nil {
			return fmt.Errorf("marshal social links for %s: %w", lead.SourceURL, err)
		}
		if _, err := tx.Exec(ctx, insertLeadSQL,
			lead.SourceURL,
			lead.CanonicalURL,
			lead.Website,
			lead.CompanyName,
			lead.Description,
			lead.Phones,
			lead.Emails,
			lead.Addresses,
			socialJSON,
			now,
		); err != nil {
			return fmt.Errorf("insert lead %s: %w", lead.SourceURL, err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit lead batch: %w", err)
	}
	return nil
}
