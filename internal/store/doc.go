// Package store provides the SQLite tables behind benchy aggregators.
//
// Each aggregator owns one table: a surrogate ID key followed by one NOT NULL
// column per schema variable, declared with the variable's storage type.
// Table lifecycle (Create, Get, Drop, ForceCreate, GetOrCreate, Tables) lives
// on *Store, which also implements aggregator.Store for the tables it hands
// out.
//
// # Wire Format
//
// Statements carry no parameters. Values go in as the SQL literals their
// DataType serialized, and every result cell comes back as a literal too:
//   - INTEGER cells as bare digits
//   - REAL cells in the shortest form that round-trips
//   - TEXT cells quoted, with embedded quotes doubled
//   - TIMESTAMP cells quoted in ir.TimestampLayout
//   - NULL as aggregator.NullLiteral
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - One open connection: SQLite has a single writer
package store
