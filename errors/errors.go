package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Phase indicates which part of the container was being decoded
type Phase string

const (
	PhaseHeader    Phase = "header"    // FOR1/BEAM form header
	PhaseChunk     Phase = "chunk"     // chunk framing
	PhaseAtoms     Phase = "atoms"     // atom table
	PhaseImports   Phase = "imports"   // import table
	PhaseExports   Phase = "exports"   // export and local tables
	PhaseFunctions Phase = "functions" // lambda table
	PhaseLiterals  Phase = "literals"  // compressed literal table
	PhaseCode      Phase = "code"      // code chunk header and instruction stream
	PhaseOperand   Phase = "operand"   // compact operand encoding
	PhaseConfig    Phase = "config"    // CLI configuration
)

// Kind categorizes the error
type Kind string

const (
	KindUnexpectedEOF       Kind = "unexpected_eof"
	KindMalformedMagic      Kind = "malformed_magic"
	KindUnknownChunkTag     Kind = "unknown_chunk_tag"
	KindUnknownOpcode       Kind = "unknown_opcode"
	KindDuplicateLabel      Kind = "duplicate_label"
	KindCorruptLiteralTable Kind = "corrupt_literal_table"
	KindIntegerTooWide      Kind = "integer_too_wide"
	KindMalformedOperand    Kind = "malformed_operand"
	KindTrailingBytes       Kind = "trailing_bytes"
	KindInvalidInput        Kind = "invalid_input"
)

// Error is the structured error type returned by the decoder
type Error struct {
	Value  any
	Cause  error
	Phase  Phase
	Kind   Kind
	Detail string
	Offset int
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if e.Offset > 0 {
		fmt.Fprintf(&b, " at offset %d", e.Offset)
	}

	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error.
// A target with an empty Phase matches on Kind alone.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Phase == "" {
		return e.Kind == t.Kind
	}
	return e.Phase == t.Phase && e.Kind == t.Kind
}

// IsKind reports whether any *Error in err's chain has the given kind.
func IsKind(err error, kind Kind) bool {
	return errors.Is(err, &Error{Kind: kind})
}

// KindOf returns the kind of the first *Error in err's chain, or "" if there is none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
		},
	}
}

// Offset sets the byte offset the error was detected at
func (b *Builder) Offset(off int) *Builder {
	b.err.Offset = off
	return b
}

// Value sets the offending value
func (b *Builder) Value(v any) *Builder {
	b.err.Value = v
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// Convenience constructors for common error patterns

// UnexpectedEOF creates a truncation error for a read of want bytes with have remaining
func UnexpectedEOF(phase Phase, offset, want, have int) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindUnexpectedEOF,
		Offset: offset,
		Detail: fmt.Sprintf("need %d bytes, %d remaining", want, have),
	}
}

// MalformedMagic creates a header mismatch error
func MalformedMagic(phase Phase, offset int, want, got any) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindMalformedMagic,
		Offset: offset,
		Detail: fmt.Sprintf("expected %v, got %v", want, got),
		Value:  got,
	}
}

// UnknownChunkTag creates an unrecognized chunk tag error
func UnknownChunkTag(offset int, tag string) *Error {
	return &Error{
		Phase:  PhaseChunk,
		Kind:   KindUnknownChunkTag,
		Offset: offset,
		Detail: fmt.Sprintf("unrecognized chunk tag %q", tag),
		Value:  tag,
	}
}

// UnknownOpcode creates an unknown opcode error
func UnknownOpcode(offset int, opcode byte, maxOpcode uint32) *Error {
	return &Error{
		Phase:  PhaseCode,
		Kind:   KindUnknownOpcode,
		Offset: offset,
		Detail: fmt.Sprintf("opcode %d outside 1..%d", opcode, maxOpcode),
		Value:  opcode,
	}
}

// DuplicateLabel creates an error for a label id that was already sealed
func DuplicateLabel(offset int, label uint32) *Error {
	return &Error{
		Phase:  PhaseCode,
		Kind:   KindDuplicateLabel,
		Offset: offset,
		Detail: fmt.Sprintf("label %d defined twice", label),
		Value:  label,
	}
}

// CorruptLiteralTable creates a literal table error
func CorruptLiteralTable(detail string, cause error) *Error {
	return &Error{
		Phase:  PhaseLiterals,
		Kind:   KindCorruptLiteralTable,
		Detail: detail,
		Cause:  cause,
	}
}

// IntegerTooWide creates an error for an integer that does not fit the decoder's width
func IntegerTooWide(offset int, detail string) *Error {
	return &Error{
		Phase:  PhaseOperand,
		Kind:   KindIntegerTooWide,
		Offset: offset,
		Detail: detail,
	}
}

// MalformedOperand creates an error for a structurally invalid operand
func MalformedOperand(offset int, detail string) *Error {
	return &Error{
		Phase:  PhaseOperand,
		Kind:   KindMalformedOperand,
		Offset: offset,
		Detail: detail,
	}
}

// TrailingBytes creates an error for unconsumed bytes at the end of a fixed-record chunk
func TrailingBytes(phase Phase, offset, n int) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindTrailingBytes,
		Offset: offset,
		Detail: fmt.Sprintf("%d unread bytes", n),
		Value:  n,
	}
}

// InvalidInput creates an invalid input error
func InvalidInput(phase Phase, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidInput,
		Detail: detail,
	}
}

// Wrap wraps an existing error with additional context
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   kind,
		Detail: detail,
		Cause:  cause,
	}
}
