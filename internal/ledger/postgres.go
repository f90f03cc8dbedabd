package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"

	"github.com/google/uuid"
	"github.com/x402rag/gateway/internal/config"
)

// PostgresLedger backs Ledger with a durable chunk_purchases table keyed
// by (wallet, chunk_id), matching the upstream ChunkPurchase model.
type PostgresLedger struct {
	db        *sql.DB
	tableName string
	ownsDB    bool
}

// NewPostgresLedger opens a connection pool and ensures the purchases
// table exists.
func NewPostgresLedger(cfg config.PostgresConfig) (*PostgresLedger, error) {
	db, err := sql.Open("postgres", cfg.ConnString)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	if cfg.MaxOpenConn > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConn)
	}
	if cfg.MaxIdleConn > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConn)
	}
	if cfg.ConnMaxLife.Duration > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLife.Duration)
	} else {
		db.SetConnMaxLifetime(30 * time.Minute)
	}

	tableName := cfg.TableName
	if tableName == "" {
		tableName = "chunk_purchases"
	}

	ledger := &PostgresLedger{db: db, tableName: tableName, ownsDB: true}
	if err := ledger.createTable(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return ledger, nil
}

func (l *PostgresLedger) createTable() error {
	stmt := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			user_address TEXT NOT NULL,
			chunk_id     UUID NOT NULL,
			purchased_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			PRIMARY KEY (user_address, chunk_id)
		)`, l.tableName)
	if _, err := l.db.Exec(stmt); err != nil {
		return fmt.Errorf("create %s table: %w", l.tableName, err)
	}
	return nil
}

// Close releases the underlying connection pool.
func (l *PostgresLedger) Close() error {
	if !l.ownsDB {
		return nil
	}
	return l.db.Close()
}

func (l *PostgresLedger) PaidSubset(ctx context.Context, wallet string, chunkIDs []uuid.UUID) (map[uuid.UUID]bool, error) {
	result := make(map[uuid.UUID]bool)
	if len(chunkIDs) == 0 {
		return result, nil
	}

	placeholders := make([]string, len(chunkIDs))
	args := make([]interface{}, 0, len(chunkIDs)+1)
	args = append(args, wallet)
	for i, id := range chunkIDs {
		placeholders[i] = fmt.Sprintf("$%d", i+2)
		args = append(args, id.String())
	}

	query := fmt.Sprintf(
		"SELECT chunk_id FROM %s WHERE user_address = $1 AND chunk_id IN (%s)",
		l.tableName, strings.Join(placeholders, ", "),
	)

	rows, err := l.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query paid chunks: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var idStr string
		if err := rows.Scan(&idStr); err != nil {
			return nil, fmt.Errorf("scan chunk id: %w", err)
		}
		id, err := uuid.Parse(idStr)
		if err != nil {
			return nil, fmt.Errorf("parse chunk id %q: %w", idStr, err)
		}
		result[id] = true
	}
	return result, rows.Err()
}

func (l *PostgresLedger) Record(ctx context.Context, wallet string, chunkIDs []uuid.UUID) error {
	if len(chunkIDs) == 0 {
		return nil
	}

	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt := fmt.Sprintf(
		"INSERT INTO %s (user_address, chunk_id) VALUES ($1, $2) ON CONFLICT (user_address, chunk_id) DO NOTHING",
		l.tableName,
	)
	for _, id := range chunkIDs {
		if _, err := tx.ExecContext(ctx, stmt, wallet, id.String()); err != nil {
			return fmt.Errorf("record purchase of chunk %s: %w", id, err)
		}
	}

	return tx.Commit()
}

func (l *PostgresLedger) Split(ctx context.Context, wallet string, chunkIDs []uuid.UUID) ([]uuid.UUID, []uuid.UUID, error) {
	paidSet, err := l.PaidSubset(ctx, wallet, chunkIDs)
	if err != nil {
		return nil, nil, err
	}
	unpaid, paid := split(chunkIDs, paidSet)
	return unpaid, paid, nil
}
