// Package ir provides the typed value model shared by every benchy package.
//
// This package contains the leaf types only. All other internal packages
// import ir; ir imports nothing internal.
//
// Key design constraints:
//   - Variable names are canonical: trimmed, NFC-normalized, upper-cased
//     identifiers (see NormalizeVariable)
//   - Values are plain Go values; each DataType documents its representation
//   - Every value crossing the store boundary is an SQL literal produced by
//     DataType.Serialize and consumed by DataType.Parse
//   - Record and Records carry no internal synchronization; callers that
//     share them across goroutines must lock externally
package ir
