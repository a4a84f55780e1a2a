// Package xcdf provides a high-performance, self-describing binary format
// for storing columnar tabular data ("events") made of typed scalar and
// vector fields.
//
// XCDF favors wide, regularly-shaped records over many events: fields are
// stored column-wise in fixed-size blocks, each block bit-packed per field
// to its observed dynamic range, then optionally deflated. A file trailer
// carries per-field global min/max/byte-count statistics and an optional
// block index for O(log n) seeking.
//
// # Core Features
//
//   - Columnar, per-field bit-packed block storage (spec §4.4)
//   - Scalar, vector, and recursive-vector fields with parent relationships
//   - Optional per-frame deflate compression with Adler-32 checksums
//   - A file trailer with seek index, comments, and global field statistics
//   - An infix expression language for derived fields and record filters
//   - Append-in-place writing and crash-tolerant recover-mode reading
//
// # Basic Usage
//
// Writing a file with one scalar and one vector field:
//
//	import "github.com/xcdf-go/xcdf"
//	import "github.com/xcdf-go/xcdf/file"
//
//	sink := file.NewSink(w)
//	eng := xcdf.NewWriter(sink)
//	nHit, _ := eng.AllocateU64Field("nHit", 1, "")
//	charge, _ := eng.AllocateF64Field("charge", 0.01, "nHit")
//	for _, rec := range records {
//	    nHit.Add(rec.NHit)
//	    for _, c := range rec.Charges {
//	        charge.Add(c)
//	    }
//	    eng.Write()
//	}
//	eng.Close()
//
// Reading it back and evaluating a filter expression:
//
//	eng, _ := xcdf.NewReader(file.NewSource(r))
//	pred, _ := xcdf.Compile("nHit > 0 && charge > 0.5", eng.Schema())
//	for {
//	    ok, err := eng.Read()
//	    if !ok { break }
//	    if pass, _ := expr.Passes(pred, eng); pass {
//	        // ...
//	    }
//	}
//
// # Package Structure
//
// This package provides convenient top-level wrappers around the file and
// expr packages, simplifying the most common use cases. For advanced usage
// and fine-grained control (block sizing, recover mode, append streams),
// use those packages directly.
package xcdf

import (
	"io"

	"github.com/xcdf-go/xcdf/expr"
	"github.com/xcdf-go/xcdf/file"
	"github.com/xcdf-go/xcdf/schema"
)

// NewWriter creates a write-mode Engine over sink with an initially empty,
// mutable schema. Call the Allocate*Field methods to build the schema
// before the first Write.
//
// Available options:
//   - file.WithBlockSize(n)
//   - file.WithThresholdByteCount(n)
//   - file.WithZeroAlign(bool)
//   - file.WithDeflate(bool)
//   - file.WithBlockTable(bool)
//
// Example:
//
//	eng := xcdf.NewWriter(sink, file.WithDeflate(true))
func NewWriter(sink file.Sink, opts ...file.EngineOption) *file.Engine {
	return file.Create(sink, opts...)
}

// NewReader opens source for reading, parsing the file header and
// preparing the engine to iterate records via Read.
//
// Pass file.WithRecoverMode() to tolerate a corrupt trailing block instead
// of failing hard; check Engine.RecoveredEventCount afterward.
//
// Example:
//
//	eng, err := xcdf.NewReader(file.NewSource(r))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for {
//	    ok, err := eng.Read()
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    if !ok {
//	        break
//	    }
//	}
func NewReader(source file.Source, opts ...file.EngineOption) (*file.Engine, error) {
	return file.Open(source, opts...)
}

// NewAppender opens rw for read-then-append: it scans the existing file to
// recover its schema and trailer, then positions for writing further
// records with the same schema.
func NewAppender(rw io.ReadWriteSeeker, opts ...file.EngineOption) (*file.Engine, error) {
	return file.OpenAppend(rw, opts...)
}

// Compile parses src as an expression over sch's fields and aliases,
// per the grammar in spec.md §4.6: arithmetic, comparison, bitwise and
// logical operators, scalar/vector broadcasting, and a fixed function
// table (trig, exp/log, rounding, fmod/pow/atan2, unique, rand).
//
// The returned Node is evaluated per record against any expr.Binding,
// typically the *file.Engine positioned at the current record by Read.
//
// Example:
//
//	pred, err := xcdf.Compile("nHit > 0 && charge > 0.5", eng.Schema())
//	ok, err := expr.Passes(pred, eng)
func Compile(src string, sch *schema.Schema) (expr.Node, error) {
	return expr.Compile(src, expr.NewSchemaResolver(sch))
}
