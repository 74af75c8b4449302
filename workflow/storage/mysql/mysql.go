// Package mysql implements a MySQL worklist storage backend.
package mysql

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/k2field/worklistbroker/workflow"
	"github.com/k2field/worklistbroker/workflow/storage"
)

// Schema contains the MySQL schema for the worklist storage.
//
//go:embed schema.sql
var Schema string

// MySQLStorage implements a storage.Storage using MySQL.
type MySQLStorage struct {
	db *sql.DB
}

type config struct {
	driver string
	dsn    string
	db     *sql.DB
}

// Option allows configuring a MySQLStorage.
type Option func(*config)

// WithDSN sets the storage MySQL data source name.
func WithDSN(dsn string) Option {
	return func(c *config) {
		c.dsn = dsn
	}
}

// WithDriver sets a custom MySQL driver for the storage.
//
// Default driver is "mysql".
// Value is ignored if WithDB is used.
func WithDriver(driver string) Option {
	return func(c *config) {
		c.driver = driver
	}
}

// WithDB sets a custom MySQL *sql.DB to the storage.
//
// If set, driver passed via WithDriver is ignored.
func WithDB(db *sql.DB) Option {
	return func(c *config) {
		c.db = db
	}
}

// New creates and returns a new MySQLStorage.
func New(opts ...Option) (*MySQLStorage, error) {
	cfg := &config{driver: "mysql"}
	for _, opt := range opts {
		opt(cfg)
	}
	var err error
	if cfg.db == nil {
		cfg.db, err = sql.Open(cfg.driver, cfg.dsn)
		if err != nil {
			return nil, err
		}
	}
	if err = cfg.db.Ping(); err != nil {
		return nil, err
	}
	return &MySQLStorage{db: cfg.db}, nil
}

// sqlNullString sets Valid to true of the return value of s is not empty.
func sqlNullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func unmarshalRecord(serialNumber string, raw []byte) (*storage.Record, error) {
	r := new(storage.Record)
	if err := json.Unmarshal(raw, r); err != nil {
		return nil, fmt.Errorf("unmarshal %s: %w", serialNumber, err)
	}
	return r, nil
}

// RetrieveItem returns the record for serialNumber from MySQL.
func (s *MySQLStorage) RetrieveItem(ctx context.Context, serialNumber string) (*storage.Record, error) {
	var raw []byte
	err := s.db.QueryRowContext(
		ctx,
		`SELECT record FROM worklist_items WHERE serial_number = ?;`,
		serialNumber,
	).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", workflow.ErrItemNotFound, serialNumber)
	} else if err != nil {
		return nil, fmt.Errorf("select record %s: %w", serialNumber, err)
	}
	return unmarshalRecord(serialNumber, raw)
}

// RetrieveItems returns all records from MySQL ordered by serial number.
func (s *MySQLStorage) RetrieveItems(ctx context.Context) ([]*storage.Record, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT serial_number, record FROM worklist_items ORDER BY serial_number;`,
	)
	if err != nil {
		return nil, fmt.Errorf("select records: %w", err)
	}
	defer rows.Close()
	var records []*storage.Record
	for rows.Next() {
		var sn string
		var raw []byte
		if err = rows.Scan(&sn, &raw); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		r, err := unmarshalRecord(sn, raw)
		if err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// StoreItem stores r in MySQL.
func (s *MySQLStorage) StoreItem(ctx context.Context, r *storage.Record) error {
	if err := r.Validate(); err != nil {
		return fmt.Errorf("validating record: %w", err)
	}
	raw, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", r.SerialNumber, err)
	}
	_, err = s.db.ExecContext(
		ctx,
		`
INSERT INTO worklist_items
    (serial_number, status, allocated_user, record)
VALUES
    (?, ?, ?, ?) AS new
ON DUPLICATE KEY
UPDATE
    status = new.status,
    allocated_user = new.allocated_user,
    record = new.record;`,
		r.SerialNumber,
		string(r.Status),
		sqlNullString(r.AllocatedUser),
		raw,
	)
	if err != nil {
		return fmt.Errorf("upsert record %s: %w", r.SerialNumber, err)
	}
	return nil
}

// DeleteItem deletes the record for serialNumber from MySQL.
func (s *MySQLStorage) DeleteItem(ctx context.Context, serialNumber string) error {
	res, err := s.db.ExecContext(
		ctx,
		`DELETE FROM worklist_items WHERE serial_number = ?;`,
		serialNumber,
	)
	if err != nil {
		return fmt.Errorf("delete record %s: %w", serialNumber, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	} else if n < 1 {
		return fmt.Errorf("%w: %s", workflow.ErrItemNotFound, serialNumber)
	}
	return nil
}
