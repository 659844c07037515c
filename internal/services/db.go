package services

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/cloudemu/zero/internal/api"
	"github.com/cloudemu/zero/internal/constants"
	apperrors "github.com/cloudemu/zero/internal/errors"
)

// User tables are stored with this prefix so they cannot collide with
// the service metadata tables.
const userTablePrefix = "ddb_"

// DBService implements a document table service: every table maps a
// primary-key string to a JSON item.
type DBService struct {
	db     *sql.DB
	logger *slog.Logger
}

func (s *DBService) migrate(ctx context.Context) error {
	return execAll(ctx, s.db, `CREATE TABLE IF NOT EXISTS db_tables (
		name TEXT PRIMARY KEY,
		pk TEXT NOT NULL
	)`)
}

// CreateTable creates a table. Creating an existing table is a no-op and
// reports the partition key it was first created with.
func (s *DBService) CreateTable(ctx context.Context, name, pk string) (*api.CreateTableResponse, error) {
	if err := validIdentifier("table", name); err != nil {
		return nil, err
	}
	if pk == "" {
		pk = constants.DefaultTablePK
	}

	stmt := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		pk TEXT PRIMARY KEY,
		item_json TEXT NOT NULL
	)`, userTablePrefix+name)
	if _, err := s.db.ExecContext(ctx, stmt); err != nil {
		return nil, internalError("create table "+name, err)
	}

	if _, err := s.db.ExecContext(ctx,
		"INSERT INTO db_tables (name, pk) VALUES (?, ?) ON CONFLICT(name) DO NOTHING", name, pk); err != nil {
		return nil, internalError("register table "+name, err)
	}
	if err := s.db.QueryRowContext(ctx, "SELECT pk FROM db_tables WHERE name = ?", name).Scan(&pk); err != nil {
		return nil, internalError("look up table "+name, err)
	}

	s.logger.Debug("table created", "table", name, "pk", pk)
	return &api.CreateTableResponse{Status: "Created", Name: name, PK: pk}, nil
}

// ListTables returns the names of user tables.
func (s *DBService) ListTables(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT name FROM db_tables ORDER BY name")
	if err != nil {
		return nil, internalError("list tables", err)
	}
	defer func() { _ = rows.Close() }()

	tables := []string{}
	for rows.Next() {
		var name string
		if err = rows.Scan(&name); err != nil {
			return nil, internalError("scan table", err)
		}
		tables = append(tables, name)
	}
	return tables, rows.Err()
}

func (s *DBService) requireTable(ctx context.Context, name string) error {
	if err := validIdentifier("table", name); err != nil {
		return err
	}

	var exists int
	err := s.db.QueryRowContext(ctx, "SELECT 1 FROM db_tables WHERE name = ?", name).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return apperrors.ErrNotFound(fmt.Sprintf("table %s not found", name), nil)
	}
	if err != nil {
		return internalError("look up table "+name, err)
	}
	return nil
}

// PutItem inserts or replaces the item stored under pk.
func (s *DBService) PutItem(ctx context.Context, table, pk string, item json.RawMessage) error {
	if err := s.requireTable(ctx, table); err != nil {
		return err
	}
	if pk == "" {
		return apperrors.ErrValidation("primary key value is required", nil)
	}

	var compact bytes.Buffer
	if err := json.Compact(&compact, item); err != nil {
		return apperrors.ErrValidation("item must be valid JSON", err)
	}

	stmt := fmt.Sprintf("INSERT OR REPLACE INTO %s (pk, item_json) VALUES (?, ?)", userTablePrefix+table)
	if _, err := s.db.ExecContext(ctx, stmt, pk, compact.String()); err != nil {
		return internalError("store item", err)
	}
	return nil
}

// GetItem returns the item stored under pk.
func (s *DBService) GetItem(ctx context.Context, table, pk string) (*api.ItemResponse, error) {
	if err := s.requireTable(ctx, table); err != nil {
		return nil, err
	}

	var item string
	stmt := fmt.Sprintf("SELECT item_json FROM %s WHERE pk = ?", userTablePrefix+table)
	err := s.db.QueryRowContext(ctx, stmt, pk).Scan(&item)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.ErrNotFound(fmt.Sprintf("item %s not found in table %s", pk, table), nil)
	}
	if err != nil {
		return nil, internalError("read item", err)
	}
	return &api.ItemResponse{PK: pk, Item: json.RawMessage(item)}, nil
}
