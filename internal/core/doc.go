// Package core provides the business logic for people CSV imports.
//
// This package holds all domain logic independent of the HTTP layer. It can
// be driven by web handlers, the startup auto-import, or tests without
// modification.
//
// # Pipeline
//
// An import streams one file through these stages:
//
//  1. [LineReader] yields normalized lines (BOM, CRLF, invalid UTF-8 handled)
//  2. [NewHeaderIndex] tokenizes the first non-blank line into column names
//  3. [ParseLine] splits every later non-blank line into raw cells
//  4. [MapRow] coerces the cells and builds a [Record], or rejects the row
//  5. [Accumulator] buffers records and hands full batches to a [Sink]
//  6. the optional [Exporter] writes accepted records to a JSON file
//
// [Importer.Import] runs the pipeline and returns a [Summary] with the
// inserted, skipped and total line counts.
//
// # Header Convention
//
// Column names drive where a value lands:
//
//	name.firstName, name.lastName  -> Record.Name ("first last")
//	age                            -> Record.Age (leading integer)
//	address.<path>                 -> Record.Address, nested by dots
//	other.<path>                   -> Record.AdditionalInfo, nested by dots
//	other                          -> Record.AdditionalInfo[other]
//
// Rows missing either name column or a numeric age are skipped.
//
// # Persistence
//
// Each batch is one multi-row INSERT in its own transaction. A failed batch
// is rolled back and aborts the import with a [*PersistenceError]; batches
// committed before it stay committed. [PostgresStore] and [MySQLStore]
// implement [Store].
//
// # Error Handling
//
// Technical errors are mapped to user-friendly messages using [MapError].
// Each category has a code for support reference:
//
//   - FILE001-FILE002: File errors (not found, bad path)
//   - IMP001-IMP005: Import errors (busy, timeout, cancelled, unknown ID, bad request)
//   - DB001-DB008: Database errors (constraints, connections, values)
package core
