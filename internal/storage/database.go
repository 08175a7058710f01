// Package storage persists an order journal through database/sql. The
// journal is best-effort: the in-memory store is authoritative, the
// database is a record the shop can query after a restart.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"printforge/internal/config"
	"printforge/internal/models"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/mattn/go-sqlite3"
)

// Open connects to the configured database for the given driver.
func Open(dbType string, cfg *config.Config) (*sql.DB, error) {
	dbCfg, ok := cfg.Databases[dbType]
	if !ok {
		return nil, fmt.Errorf("database config for %s not found", dbType)
	}

	var (
		db  *sql.DB
		err error
	)

	switch strings.ToLower(dbType) {
	case "sqlite", "sqlite3":
		if dbCfg.DSN == "" {
			return nil, fmt.Errorf("sqlite dsn must be provided")
		}
		db, err = sql.Open("sqlite3", dbCfg.DSN)
		if err != nil {
			return nil, fmt.Errorf("open sqlite database: %w", err)
		}
	case "mysql":
		dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?%s",
			dbCfg.Username,
			dbCfg.Password,
			dbCfg.Host,
			dbCfg.Port,
			dbCfg.DBName,
			dbCfg.Params,
		)
		db, err = sql.Open("mysql", dsn)
		if err != nil {
			return nil, fmt.Errorf("open mysql database: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported driver: %s", dbType)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return db, nil
}

// Migrate ensures the orders journal table is present.
func Migrate(db *sql.DB, driver string) error {
	var stmts []string
	switch strings.ToLower(driver) {
	case "sqlite", "sqlite3":
		stmts = []string{
			`CREATE TABLE IF NOT EXISTS orders (
				id INTEGER PRIMARY KEY,
				customer_name TEXT NOT NULL,
				file_name TEXT NOT NULL,
				file_size_bytes INTEGER NOT NULL,
				special_requests TEXT,
				analysis TEXT NOT NULL,
				pricing TEXT NOT NULL,
				status TEXT NOT NULL,
				created_at DATETIME NOT NULL
			)`,
			`CREATE INDEX IF NOT EXISTS idx_orders_status ON orders(status)`,
		}
	case "mysql":
		stmts = []string{
			`CREATE TABLE IF NOT EXISTS orders (
				id BIGINT UNSIGNED NOT NULL,
				customer_name VARCHAR(255) NOT NULL,
				file_name VARCHAR(255) NOT NULL,
				file_size_bytes BIGINT NOT NULL,
				special_requests TEXT,
				analysis MEDIUMTEXT NOT NULL,
				pricing MEDIUMTEXT NOT NULL,
				status VARCHAR(50) NOT NULL,
				created_at DATETIME NOT NULL,
				PRIMARY KEY (id),
				INDEX idx_orders_status (status)
			) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
		}
	default:
		return fmt.Errorf("unsupported driver for migration: %s", driver)
	}

	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("migrate (%s): %w", driver, err)
		}
	}
	return nil
}

// OrderJournal writes store mutations to the database. It satisfies
// store.Journal.
type OrderJournal struct {
	db *sql.DB
}

func NewOrderJournal(db *sql.DB) *OrderJournal {
	return &OrderJournal{db: db}
}

// AppendOrder records a newly inserted order. Analysis and pricing are
// stored as JSON blobs; the journal is not queried field-by-field.
func (j *OrderJournal) AppendOrder(ctx context.Context, order *models.Order) error {
	analysis, err := json.Marshal(order.Analysis)
	if err != nil {
		return fmt.Errorf("encode analysis: %w", err)
	}
	pricing, err := json.Marshal(order.Pricing)
	if err != nil {
		return fmt.Errorf("encode pricing: %w", err)
	}
	_, err = j.db.ExecContext(ctx,
		`INSERT INTO orders (id, customer_name, file_name, file_size_bytes, special_requests, analysis, pricing, status, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		order.ID, order.CustomerName, order.FileName, order.FileSizeBytes,
		order.SpecialRequests, string(analysis), string(pricing), string(order.Status), order.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert order %d: %w", order.ID, err)
	}
	return nil
}

// UpdateOrderStatus mirrors a status change into the journal.
func (j *OrderJournal) UpdateOrderStatus(ctx context.Context, id int64, status models.Status) error {
	res, err := j.db.ExecContext(ctx, `UPDATE orders SET status = ? WHERE id = ?`, string(status), id)
	if err != nil {
		return fmt.Errorf("update order %d: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err == nil && affected == 0 {
		return fmt.Errorf("order %d missing from journal", id)
	}
	return nil
}
