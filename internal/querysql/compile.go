// Package querysql assembles the SQLite statements the store executes.
//
// Assembly is deterministic string concatenation: no planning, no
// rewriting. Conditions and orderings arrive already rendered by queryir,
// with literals serialized by their DataType, so statements carry no
// parameters.
package querysql

import (
	"fmt"
	"strings"

	"github.com/roach88/benchy/internal/ir"
	"github.com/roach88/benchy/internal/queryir"
)

// TableName returns the canonical (upper-case identifier) form of a table
// name.
func TableName(name string) (string, error) {
	t, err := ir.NormalizeVariable(name)
	if err != nil {
		return "", fmt.Errorf("table name: %w", err)
	}
	return t, nil
}

// CreateTable declares one NOT NULL column per schema variable after the
// surrogate key.
//
//	CREATE TABLE T (ID INTEGER PRIMARY KEY AUTOINCREMENT, A INTEGER NOT NULL, ...)
func CreateTable(table string, schema *ir.Schema) string {
	cols := []string{ir.IDColumn + " INTEGER PRIMARY KEY AUTOINCREMENT"}
	for _, v := range schema.Variables() {
		typ, _ := schema.TypeOf(v)
		cols = append(cols, fmt.Sprintf("%s %s NOT NULL", v, typ.StorageDefinition()))
	}
	return fmt.Sprintf("CREATE TABLE %s (%s)", table, strings.Join(cols, ", "))
}

// DropTable drops table.
func DropTable(table string) string {
	return "DROP TABLE " + table
}

// ListTables lists user tables by name.
func ListTables() string {
	return "SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name"
}

// TableInfo reflects the columns of table.
func TableInfo(table string) string {
	return fmt.Sprintf("PRAGMA table_info(%s)", table)
}

// Insert adds one row. columns and literals are parallel.
//
//	INSERT INTO T (A, B) VALUES (1, 'x')
func Insert(table string, columns, literals []string) string {
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		table, strings.Join(columns, ", "), strings.Join(literals, ", "))
}

// GroupedAggregate selects the grouping variables followed by the aggregate
// expression. With no grouping variables it is a grand total.
//
//	SELECT A, B, AVG(X) AS X FROM T WHERE w GROUP BY A, B ORDER BY o
func GroupedAggregate(table string, groupVars []string, aggregateExpr, alias, where, orderBy string) string {
	var b strings.Builder
	b.WriteString("SELECT ")
	for _, v := range groupVars {
		b.WriteString(v)
		b.WriteString(", ")
	}
	fmt.Fprintf(&b, "%s AS %s FROM %s", aggregateExpr, alias, table)
	writeWhere(&b, where)
	if len(groupVars) > 0 {
		b.WriteString(" GROUP BY ")
		b.WriteString(strings.Join(groupVars, ", "))
	}
	writeOrderBy(&b, orderBy)
	return b.String()
}

// Distinct selects the distinct values of variable.
//
//	SELECT DISTINCT V FROM T WHERE w ORDER BY o
func Distinct(table, variable, where, orderBy string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "SELECT DISTINCT %s FROM %s", variable, table)
	writeWhere(&b, where)
	writeOrderBy(&b, orderBy)
	return b.String()
}

// Delete removes the rows matching where.
func Delete(table, where string) string {
	var b strings.Builder
	b.WriteString("DELETE FROM " + table)
	writeWhere(&b, where)
	return b.String()
}

// AggregateColumn renders agg for schema. AVG over an integral variable is
// cast back to INTEGER so the result parses with the variable's type.
func AggregateColumn(agg queryir.Aggregate, schema *ir.Schema) (string, error) {
	expr, err := agg.Render(schema)
	if err != nil {
		return "", err
	}
	typ, err := agg.ResultType(schema)
	if err != nil {
		return "", err
	}
	if agg.Function == queryir.FuncAvg && typ.Kind() == ir.KindInteger {
		return fmt.Sprintf("CAST(%s AS INTEGER)", expr), nil
	}
	return expr, nil
}

func writeWhere(b *strings.Builder, where string) {
	if where != "" {
		b.WriteString(" WHERE ")
		b.WriteString(where)
	}
}

func writeOrderBy(b *strings.Builder, orderBy string) {
	if orderBy != "" {
		b.WriteString(" ORDER BY ")
		b.WriteString(orderBy)
	}
}
