// Package beamwand decodes compiled Erlang/Elixir modules (.beam files).
//
// A .beam file is an IFF-style FOR1/BEAM container. beamwand turns its bytes
// into a typed tree: atom, import, export, local and lambda tables, the
// inflated literal table, and the Code chunk assembled into label blocks of
// decoded instructions. Nothing is executed.
//
// # Architecture Overview
//
// The module is organized into several packages with distinct responsibilities:
//
//	beamwand/
//	├── beam/            Container framing, chunk bodies, operand and code decoding
//	│   └── internal/binary/  Big-endian cursor and fixture writer
//	├── errors/          Structured error types with phase and kind
//	├── dump/            Text listing and canonical CBOR view of a decoded module
//	├── config/          beamwand.toml loading and validation
//	└── cmd/beamwand/    Command line tool and interactive browser
//
// # Quick Start
//
// Decode a module and walk its code:
//
//	ast, err := beam.Parse(data)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	atoms := ast.Atoms()
//	for _, blk := range ast.Code().Labels.Blocks() {
//	    fmt.Printf("label %d:\n", blk.Label)
//	    for _, in := range blk.Instructions {
//	        fmt.Println("  " + dump.Instruction(in, atoms))
//	    }
//	}
//
// # Errors
//
// Every failure is an *errors.Error carrying the phase it happened in, a
// kind and the absolute byte offset. The first error aborts the parse and no
// partial tree is returned:
//
//	if errors.IsKind(err, errors.KindUnknownChunkTag) {
//	    // not a chunk this decoder understands
//	}
//
// # Thread Safety
//
// Parse keeps no shared state and may be called concurrently. A decoded Ast
// is immutable and safe to share between goroutines.
package beamwand
