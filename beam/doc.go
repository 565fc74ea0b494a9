// Package beam decodes compiled BEAM containers into an Ast.
//
// A container is a big-endian tag-length-value form:
//
//	"FOR1" <u32 form length> "BEAM"
//	{ <4 byte tag> <u32 size> <size bytes> <zero padding to 4> }*
//
// # Parsing
//
//	data, _ := os.ReadFile("lists.beam")
//	ast, err := beam.Parse(data)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// Every chunk is decoded in file order. Atom, import, export, local and
// lambda tables become typed slices, the literal table is inflated and split
// into opaque term blobs, and the code chunk is decoded into label blocks.
// Remaining chunks keep their raw payload.
//
// # Code chunk
//
// The instruction stream is a sequence of opcode bytes, each followed by as
// many compact operands as LookupOpcode reports. Every operand starts with a
// tag byte whose low three bits select u, i, a, x, y, f, h or the extended
// marker z. Integer values use one of three forms:
//
//	vvvv 0 ttt                       value 0..15
//	vvv 01 ttt  <byte>               value 0..2047
//	nnn 11 ttt  <n+2 bytes>          long form, nnn=7 reads the length
//
// Instructions are grouped by the label that precedes them:
//
//	cs := ast.Code()
//	for _, blk := range cs.Labels.Blocks() {
//	    fmt.Println(blk.Label, len(blk.Instructions))
//	}
//
// # Errors
//
// All failures are *errors.Error values from the errors package; use
// errors.IsKind to tell truncation, bad magic, unknown tags or opcodes,
// duplicate labels, corrupt literal tables and oversized integers apart.
package beam
