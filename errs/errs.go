// Package errs defines the sentinel errors shared across the xcdf core
// packages. Every exported error kind in the specification maps to exactly
// one sentinel value here; call sites wrap it with additional context via
// fmt.Errorf("...: %w", errs.ErrX) so callers can still use errors.Is.
package errs

import "errors"

// Schema errors.
var (
	// ErrSchemaViolation covers duplicate/missing/incorrectly typed fields,
	// resolution out of bounds, parent misuse, and record entry-count
	// mismatches on Write.
	ErrSchemaViolation = errors.New("xcdf: schema violation")
	// ErrSchemaFrozen is returned when a schema mutation is attempted after
	// the schema has been frozen (first write or any read).
	ErrSchemaFrozen = errors.New("xcdf: schema already frozen")
	// ErrDuplicateField is returned when a field name is declared twice.
	ErrDuplicateField = errors.New("xcdf: duplicate field name")
	// ErrDuplicateAlias is returned when an alias name is declared twice.
	ErrDuplicateAlias = errors.New("xcdf: duplicate alias name")
	// ErrUnknownParent is returned when a parent_name does not name a
	// previously declared field.
	ErrUnknownParent = errors.New("xcdf: unknown parent field")
	// ErrInvalidParent is returned when a parent field fails the parent
	// eligibility rules (must be U64 scalar, resolution 1, no parent of its
	// own).
	ErrInvalidParent = errors.New("xcdf: invalid parent field")
	// ErrInvalidResolution is returned when a declared resolution is out of
	// range for the field's type.
	ErrInvalidResolution = errors.New("xcdf: invalid resolution")
)

// Frame/codec errors.
var (
	// ErrCorruptFrame covers unknown frame type, truncated payload, or bad
	// deflate stream.
	ErrCorruptFrame = errors.New("xcdf: corrupt frame")
	// ErrChecksumMismatch is returned when a frame's Adler-32 does not match
	// its payload.
	ErrChecksumMismatch = errors.New("xcdf: checksum mismatch")
	// ErrCorruptBlock covers block header/data inconsistency or payload
	// underflow during unpack.
	ErrCorruptBlock = errors.New("xcdf: corrupt block")
	// ErrUnderflow is returned when fewer bytes/bits remain than requested.
	ErrUnderflow = errors.New("xcdf: buffer underflow")
)

// I/O errors.
var (
	// ErrIOError wraps an underlying sink/source failure.
	ErrIOError = errors.New("xcdf: I/O error")
	// ErrSeekUnsupported is returned when a random-access operation is
	// requested on a non-seekable source.
	ErrSeekUnsupported = errors.New("xcdf: seek unsupported on this source")
	// ErrEngineClosed is returned when write/read is attempted after Close.
	ErrEngineClosed = errors.New("xcdf: engine closed")
	// ErrEngineFaulted is returned for any operation after a write failure
	// has put the engine in its permanent error state.
	ErrEngineFaulted = errors.New("xcdf: engine in permanent error state")
	// ErrEventOutOfRange is returned by Seek for a target beyond the known
	// event count.
	ErrEventOutOfRange = errors.New("xcdf: event number out of range")
	// ErrConcatenationMismatch is returned when a concatenated segment's
	// header does not match the first segment's header.
	ErrConcatenationMismatch = errors.New("xcdf: concatenated file header mismatch")
)

// Expression-engine errors.
var (
	// ErrTypeError is returned when an expression-engine type rule is
	// violated (e.g. bitwise operator applied to F64 operand).
	ErrTypeError = errors.New("xcdf: expression type error")
	// ErrParseError is returned on expression parse failure.
	ErrParseError = errors.New("xcdf: expression parse error")
	// ErrIncompatibleVectors is returned when a binary node's operands are
	// vectors with distinct parent identities.
	ErrIncompatibleVectors = errors.New("xcdf: incompatible vector operands")
	// ErrUnknownIdentifier is returned when an expression references a name
	// that is not a field, alias, or recognized keyword.
	ErrUnknownIdentifier = errors.New("xcdf: unknown identifier")
	// ErrArityMismatch is returned when a function call supplies the wrong
	// number of arguments.
	ErrArityMismatch = errors.New("xcdf: function arity mismatch")
)
