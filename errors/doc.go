// Package errors provides structured error types for the BEAM decoder.
//
// Errors are categorized by Phase (which part of the container was being
// decoded) and Kind (error category). The Error type carries the byte offset
// at which the problem was detected, a detail message and a cause chain.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseCode, errors.KindUnknownOpcode).
//		Offset(132).
//		Value(opcode).
//		Detail("opcode %d outside 1..%d", opcode, maxOpcode).
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.UnexpectedEOF(errors.PhaseAtoms, off, 4, 1)
//	err := errors.DuplicateLabel(off, 7)
//
// All errors implement the standard error interface and support errors.Is/As.
// A target with no Phase matches any error of the same Kind:
//
//	if errors.IsKind(err, errors.KindUnexpectedEOF) { ... }
package errors
