package store

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/roach88/benchy/internal/aggregator"
	"github.com/roach88/benchy/internal/ir"
	"github.com/roach88/benchy/internal/querysql"
)

// Create creates a table for schema and returns its aggregator. Fails if the
// table already exists.
func (s *Store) Create(ctx context.Context, name string, schema *ir.Schema) (*aggregator.Table, error) {
	table, err := querysql.TableName(name)
	if err != nil {
		return nil, err
	}
	if schema == nil || schema.Len() == 0 {
		return nil, ir.NewInvalidArgumentError("table %s needs at least one variable", table)
	}
	exists, err := s.exists(ctx, table)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ir.NewInvalidArgumentError("table %s already exists", table)
	}

	if _, err := s.db.ExecContext(ctx, querysql.CreateTable(table, schema)); err != nil {
		return nil, ir.WrapStoreError("create table "+table, err)
	}
	slog.Info("table created", "table", table, "columns", schema.Len(), "schema", schema.String())
	return aggregator.New(table, schema, s)
}

// Get returns the aggregator of an existing table, reflecting its schema
// from the column declarations. Fails with TABLE_NOT_FOUND if absent.
func (s *Store) Get(ctx context.Context, name string) (*aggregator.Table, error) {
	table, err := querysql.TableName(name)
	if err != nil {
		return nil, err
	}
	schema, err := s.schemaOf(ctx, table)
	if err != nil {
		return nil, err
	}
	return aggregator.New(table, schema, s)
}

// Drop drops a table. Reports whether there was one to drop.
func (s *Store) Drop(ctx context.Context, name string) (bool, error) {
	table, err := querysql.TableName(name)
	if err != nil {
		return false, err
	}
	exists, err := s.exists(ctx, table)
	if err != nil || !exists {
		return false, err
	}
	if _, err := s.db.ExecContext(ctx, querysql.DropTable(table)); err != nil {
		return false, ir.WrapStoreError("drop table "+table, err)
	}
	slog.Info("table dropped", "table", table)
	return true, nil
}

// ForceCreate drops any existing table of that name, then creates it.
func (s *Store) ForceCreate(ctx context.Context, name string, schema *ir.Schema) (*aggregator.Table, error) {
	if _, err := s.Drop(ctx, name); err != nil {
		return nil, err
	}
	return s.Create(ctx, name, schema)
}

// GetOrCreate returns the existing table if its schema matches, variable
// order and types included, or creates it. A table with a different schema
// fails with SCHEMA_MISMATCH.
func (s *Store) GetOrCreate(ctx context.Context, name string, schema *ir.Schema) (*aggregator.Table, error) {
	existing, err := s.Get(ctx, name)
	if ir.IsCode(err, ir.ErrCodeTableNotFound) {
		return s.Create(ctx, name, schema)
	}
	if err != nil {
		return nil, err
	}
	if !existing.Schema().SameTypes(schema) {
		return nil, schemaConflict(existing.Name(), existing.Schema(), schema)
	}
	return existing, nil
}

// Tables lists the table names, sorted.
func (s *Store) Tables(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, querysql.ListTables())
	if err != nil {
		return nil, ir.WrapStoreError("list tables", err)
	}
	defer rows.Close()

	tables := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, ir.WrapStoreError("list tables", err)
		}
		tables = append(tables, name)
	}
	if err := rows.Err(); err != nil {
		return nil, ir.WrapStoreError("list tables", err)
	}
	return tables, nil
}

func (s *Store) exists(ctx context.Context, table string) (bool, error) {
	tables, err := s.Tables(ctx)
	if err != nil {
		return false, err
	}
	return slices.Contains(tables, table), nil
}

// schemaOf rebuilds a schema from PRAGMA table_info, skipping the surrogate
// key.
func (s *Store) schemaOf(ctx context.Context, table string) (*ir.Schema, error) {
	rows, err := s.db.QueryContext(ctx, querysql.TableInfo(table))
	if err != nil {
		return nil, ir.WrapStoreError("describe "+table, err)
	}
	defer rows.Close()

	schema := ir.NewSchema()
	found := false
	for rows.Next() {
		var (
			cid       int
			name      string
			declType  string
			notNull   int
			dfltValue any
			pk        int
		)
		if err := rows.Scan(&cid, &name, &declType, &notNull, &dfltValue, &pk); err != nil {
			return nil, ir.WrapStoreError("describe "+table, err)
		}
		found = true
		if name == ir.IDColumn {
			continue
		}
		typ, err := ir.FromStorage(declType)
		if err != nil {
			return nil, fmt.Errorf("column %s of %s: %w", name, table, err)
		}
		if _, err := schema.Add(name, typ); err != nil {
			return nil, err
		}
	}
	if err := rows.Err(); err != nil {
		return nil, ir.WrapStoreError("describe "+table, err)
	}
	if !found {
		return nil, ir.NewTableNotFoundError(table)
	}
	return schema, nil
}

func schemaConflict(table string, existing, requested *ir.Schema) error {
	var missing, extra []string
	for _, v := range requested.Variables() {
		if !existing.Has(v) {
			missing = append(missing, v)
		}
	}
	for _, v := range existing.Variables() {
		if !requested.Has(v) {
			extra = append(extra, v)
		}
	}
	e := ir.NewSchemaMismatchError(missing, extra)
	e.Message = fmt.Sprintf("table %s has schema %s, requested %s", table, existing, requested)
	return e
}
