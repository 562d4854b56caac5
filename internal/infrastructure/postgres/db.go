// Package postgres persists analyzed receipts with pgx.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// Config holds connection pool settings
type Config struct {
	URL             string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
	DialTimeout     time.Duration
}

// Connect opens a pool, pings the server and creates the schema
func Connect(ctx context.Context, cfg Config, logger zerolog.Logger) (*pgxpool.Pool, error) {
	pc, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}

	if cfg.MaxConns > 0 {
		pc.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		pc.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		pc.MaxConnLifetime = cfg.MaxConnLifetime
	}
	pc.ConnConfig.RuntimeParams["application_name"] = "ecoboleta"

	dialTimeout := cfg.DialTimeout
	if dialTimeout <= 0 {
		dialTimeout = 10 * time.Second
	}
	dialCtx, cancel := context.WithTimeout(ctx, dialTimeout)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(dialCtx, pc)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	if err := pool.Ping(dialCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}

	if err := InitSchema(ctx, pool); err != nil {
		pool.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	logger.Info().Int32("max_conns", pc.MaxConns).Msg("connected to postgres")
	return pool, nil
}

// InitSchema creates the receipt tables when missing
func InitSchema(ctx context.Context, pool *pgxpool.Pool) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS receipts (
			id UUID PRIMARY KEY,
			retailer VARCHAR(64) NOT NULL,
			analyzed_at TIMESTAMPTZ NOT NULL,
			total_weight_kg DOUBLE PRECISION NOT NULL DEFAULT 0,
			total_co2 DOUBLE PRECISION NOT NULL DEFAULT 0,
			co2_per_kg DOUBLE PRECISION NOT NULL DEFAULT 0,
			tier VARCHAR(16) NOT NULL,
			low_count INTEGER NOT NULL DEFAULT 0,
			medium_count INTEGER NOT NULL DEFAULT 0,
			high_count INTEGER NOT NULL DEFAULT 0,
			matched_count INTEGER NOT NULL DEFAULT 0,
			unmatched_count INTEGER NOT NULL DEFAULT 0,
			green_points INTEGER NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS receipt_items (
			receipt_id UUID NOT NULL REFERENCES receipts(id) ON DELETE CASCADE,
			line_no INTEGER NOT NULL,
			name TEXT NOT NULL,
			unit_price DOUBLE PRECISION NOT NULL DEFAULT 0,
			quantity DOUBLE PRECISION NOT NULL DEFAULT 0,
			ocr_confidence DOUBLE PRECISION NOT NULL DEFAULT 0,
			matched_name TEXT NOT NULL DEFAULT '',
			canonical_category TEXT NOT NULL,
			canonical_subcategory TEXT NOT NULL DEFAULT '',
			category_confidence DOUBLE PRECISION NOT NULL DEFAULT 0,
			brand_id TEXT NOT NULL DEFAULT '',
			co2_factor DOUBLE PRECISION NOT NULL DEFAULT 0,
			co2_source VARCHAR(32) NOT NULL,
			is_local BOOLEAN NOT NULL DEFAULT FALSE,
			eco_packaging BOOLEAN NOT NULL DEFAULT FALSE,
			confidence DOUBLE PRECISION NOT NULL DEFAULT 0,
			matched BOOLEAN NOT NULL DEFAULT FALSE,
			unit VARCHAR(16) NOT NULL DEFAULT '',
			weight_kg DOUBLE PRECISION NOT NULL DEFAULT 0,
			total_co2 DOUBLE PRECISION NOT NULL DEFAULT 0,
			tier VARCHAR(16) NOT NULL DEFAULT '',
			is_eco BOOLEAN NOT NULL DEFAULT FALSE,
			threshold_low DOUBLE PRECISION NOT NULL DEFAULT 0,
			threshold_medium DOUBLE PRECISION NOT NULL DEFAULT 0,
			threshold_high DOUBLE PRECISION NULL,
			green_points INTEGER NOT NULL DEFAULT 0,
			PRIMARY KEY (receipt_id, line_no)
		)`,
		`CREATE TABLE IF NOT EXISTS recommendations (
			receipt_id UUID NOT NULL,
			item_position INTEGER NOT NULL,
			alt_rank INTEGER NOT NULL,
			name TEXT NOT NULL,
			co2_per_kg DOUBLE PRECISION NOT NULL,
			brand TEXT NOT NULL DEFAULT '',
			category TEXT NOT NULL DEFAULT '',
			source_retailer VARCHAR(64) NOT NULL,
			similarity_score DOUBLE PRECISION NOT NULL DEFAULT 0,
			PRIMARY KEY (receipt_id, item_position, alt_rank),
			FOREIGN KEY (receipt_id, item_position) REFERENCES receipt_items(receipt_id, line_no) ON DELETE CASCADE
		)`,
		`CREATE INDEX IF NOT EXISTS idx_receipts_retailer ON receipts (retailer, analyzed_at DESC)`,
	}

	for _, stmt := range statements {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
