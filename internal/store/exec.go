package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/roach88/benchy/internal/aggregator"
	"github.com/roach88/benchy/internal/ir"
	"github.com/roach88/benchy/internal/querysql"
)

var _ aggregator.Store = (*Store)(nil)

// Insert adds one row of serialized literals.
func (s *Store) Insert(ctx context.Context, table string, columns []aggregator.Column) error {
	names := make([]string, len(columns))
	literals := make([]string, len(columns))
	for i, c := range columns {
		names[i], literals[i] = c.Name, c.Literal
	}
	if _, err := s.db.ExecContext(ctx, querysql.Insert(table, names, literals)); err != nil {
		return fmt.Errorf("insert into %s: %w", table, err)
	}
	return nil
}

// QueryGroupedAggregate returns one literal row per group.
func (s *Store) QueryGroupedAggregate(ctx context.Context, table string, groupVars []string, aggregateExpr, alias, where, orderBy string) ([][]string, error) {
	query := querysql.GroupedAggregate(table, groupVars, aggregateExpr, alias, where, orderBy)
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("grouped aggregate on %s: %w", table, err)
	}
	defer rows.Close()
	return scanLiterals(rows)
}

// QueryDistinct returns the distinct literals of variable.
func (s *Store) QueryDistinct(ctx context.Context, table, variable, where, orderBy string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, querysql.Distinct(table, variable, where, orderBy))
	if err != nil {
		return nil, fmt.Errorf("distinct %s on %s: %w", variable, table, err)
	}
	defer rows.Close()

	all, err := scanLiterals(rows)
	if err != nil {
		return nil, err
	}
	values := make([]string, len(all))
	for i, row := range all {
		values[i] = row[0]
	}
	return values, nil
}

// Delete removes the rows matching where.
func (s *Store) Delete(ctx context.Context, table, where string) error {
	res, err := s.db.ExecContext(ctx, querysql.Delete(table, where))
	if err != nil {
		return fmt.Errorf("delete from %s: %w", table, err)
	}
	if n, err := res.RowsAffected(); err == nil {
		slog.Debug("rows deleted", "table", table, "rows", n)
	}
	return nil
}

func scanLiterals(rows *sql.Rows) ([][]string, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("read columns: %w", err)
	}

	out := [][]string{}
	cells := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range cells {
		ptrs[i] = &cells[i]
	}
	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		row := make([]string, len(cells))
		for i, c := range cells {
			lit, err := literal(c)
			if err != nil {
				return nil, fmt.Errorf("column %s: %w", cols[i], err)
			}
			row[i] = lit
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return out, nil
}

// literal turns a driver value back into an SQL literal. The driver hands
// TIMESTAMP columns back as time.Time.
func literal(v any) (string, error) {
	switch x := v.(type) {
	case nil:
		return aggregator.NullLiteral, nil
	case int64:
		return strconv.FormatInt(x, 10), nil
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64), nil
	case bool:
		if x {
			return "1", nil
		}
		return "0", nil
	case string:
		return ir.QuoteLiteral(x), nil
	case []byte:
		return ir.QuoteLiteral(string(x)), nil
	case time.Time:
		return ir.Timestamp.Serialize(x)
	default:
		return "", fmt.Errorf("unsupported driver value %T", v)
	}
}
