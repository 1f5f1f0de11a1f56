// Package queryir provides the filter, order and aggregate algebra used to
// build aggregator queries.
//
// ARCHITECTURE:
//
// queryir sits between the fluent aggregator API and SQL assembly:
//
//	[aggregator.Query] → [queryir Filter/Order/Aggregate] → [querysql]
//
// Every node renders itself against an ir.Schema. The schema supplies the
// DataType used to serialize literals, so the same filter renders as X=5
// against an INTEGER column and as X='5' against a text column. Rendering a
// node that names a variable absent from the schema fails with
// UNKNOWN_VARIABLE.
//
// SEALED INTERFACES:
//
// Filter is a sealed interface using the marker method pattern. Only
// Compare, Composite and the tautology returned by True implement it:
//
//	switch f := filter.(type) {
//	case Compare:
//	    // leaf: VARIABLE <op> literal
//	case Composite:
//	    // AND / OR over children
//	}
//
// All values here are immutable. Constructors copy their slice arguments.
package queryir
