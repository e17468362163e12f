// Package mimdb provides a columnar analytical storage engine with a
// compact binary file format and per-column compression.
//
// A table is a set of named columns, each either Int64 or Varchar,
// sharing a single row count. Tables are written column by column in
// fixed-size batches: Int64 batches run through delta encoding, zigzag
// mapping, variable-length byte encoding, then ZSTD; Varchar batches are
// length-prefix framed and compressed into a raw LZ4 block. Reading
// reverses the pipeline one batch at a time: only one batch's compressed
// bytes are held at once, while the decoded values of every column
// accumulate into the returned table.
//
// # Key Packages
//
//	pkg/table       - in-memory table and column model
//	pkg/codec       - Int64 and Varchar batch compression pipelines
//	pkg/format      - file header, metadata layout, and streaming read/write
//	pkg/metrics     - pure functions over a loaded table (averages, ASCII counts)
//	pkg/csvload     - CSV bulk loading with column type inference
//	pkg/metastore   - table name to file path registry
//	pkg/restapi     - REST facade over a table store
//	pkg/apimetrics  - Prometheus instrumentation for the REST facade
//	pkg/mimdberrors - structured error type with a closed kind taxonomy
//	pkg/config      - YAML configuration with ${VAR} environment substitution
//	pkg/logger      - structured logging
//
// # Quick Start
//
//	tbl := table.New()
//	tbl.AddColumn("id", []int64{1, 2, 3})
//	tbl.AddVarcharColumn("name", [][]byte{[]byte("a"), []byte("b"), []byte("c")})
//
//	f, _ := os.Create("events.mimdb")
//	format.Write(f, tbl, 100_000, 3)
//
//	avg, _ := metrics.IntAverage(tbl, "id")
//
// # File Layout
//
// Files open with a 4-byte magic ("MIMD"), a 2-byte version, and a
// 4-byte metadata length, followed by a metadata block describing every
// column's batches and the compressed batch payloads themselves. See
// pkg/format for the exact byte layout.
package mimdb
