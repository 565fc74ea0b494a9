// Package dump renders a decoded BEAM Ast for people (Text) and for other
// tools (CBOR).
package dump

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/wippyai/beamwand/beam"
)

// Options controls text rendering.
type Options struct {
	// RawPreview is the number of payload bytes shown for undecoded chunks
	// and literal blobs. Zero hides them.
	RawPreview int
	// Code enables the instruction listing.
	Code bool
}

// DefaultOptions returns the options used by the CLI when nothing is configured.
func DefaultOptions() Options {
	return Options{RawPreview: 16, Code: true}
}

// Text writes a readable listing of ast to w.
func Text(w io.Writer, ast *beam.Ast, opts Options) error {
	bw := bufio.NewWriter(w)
	p := printer{w: bw, atoms: ast.Atoms(), opts: opts}

	fmt.Fprintf(bw, "FOR1/BEAM %d chunks\n", len(ast.Chunks))
	for _, c := range ast.Chunks {
		bw.WriteByte('\n')
		p.chunk(c)
	}
	return bw.Flush()
}

// Chunk writes the listing of a single chunk. Atom operands and table
// entries are resolved against atoms.
func Chunk(w io.Writer, c beam.Chunk, atoms beam.AtomTable, opts Options) error {
	bw := bufio.NewWriter(w)
	p := printer{w: bw, atoms: atoms, opts: opts}
	p.chunk(c)
	return bw.Flush()
}

type printer struct {
	w     *bufio.Writer
	atoms beam.AtomTable
	opts  Options
}

func (p *printer) chunk(c beam.Chunk) {
	fmt.Fprintf(p.w, "%s size=%d", c.Kind.Tag(), c.Size)

	switch body := c.Body.(type) {
	case beam.EmptyBody:
		p.w.WriteString(" empty\n")

	case beam.AtomTable:
		fmt.Fprintf(p.w, " atoms=%d\n", len(body))
		for i, name := range body {
			fmt.Fprintf(p.w, "  %4d %s\n", i+1, name)
		}

	case beam.ImportTable:
		fmt.Fprintf(p.w, " imports=%d\n", len(body))
		for _, imp := range body {
			fmt.Fprintf(p.w, "  %s:%s/%d\n", p.atom(imp.Module), p.atom(imp.Function), imp.Arity)
		}

	case beam.ExportTable:
		fmt.Fprintf(p.w, " functions=%d\n", len(body))
		for _, exp := range body {
			fmt.Fprintf(p.w, "  %s/%d label %d\n", p.atom(exp.Function), exp.Arity, exp.Label)
		}

	case beam.FunctionTable:
		fmt.Fprintf(p.w, " lambdas=%d\n", len(body))
		for _, f := range body {
			fmt.Fprintf(p.w, "  %s/%d label %d index %d free %d uniq %d\n",
				p.atom(f.Function), f.Arity, f.Label, f.Index, f.NumFree, f.OldUniq)
		}

	case beam.LiteralTable:
		fmt.Fprintf(p.w, " literals=%d\n", len(body))
		for i, blob := range body {
			fmt.Fprintf(p.w, "  %4d %d bytes%s\n", i, len(blob), p.preview(blob))
		}

	case *beam.CodeSection:
		fmt.Fprintf(p.w, " max_opcode=%d labels=%d functions=%d blocks=%d\n",
			body.MaxOpcode, body.LabelCount, body.FunctionCount, body.Labels.Len())
		if p.opts.Code {
			p.code(body)
		}

	case beam.RawBody:
		fmt.Fprintf(p.w, " raw%s\n", p.preview(body))
	}
}

func (p *printer) code(cs *beam.CodeSection) {
	for _, blk := range cs.Labels.Blocks() {
		fmt.Fprintf(p.w, "  label %d:\n", blk.Label)
		for _, in := range blk.Instructions {
			p.w.WriteString("    ")
			p.w.WriteString(Instruction(in, p.atoms))
			p.w.WriteByte('\n')
		}
	}
}

func (p *printer) atom(index uint32) string {
	if name, ok := p.atoms.Name(index); ok {
		return name
	}
	return "#" + strconv.FormatUint(uint64(index), 10)
}

func (p *printer) preview(b []byte) string {
	if p.opts.RawPreview <= 0 || len(b) == 0 {
		return ""
	}
	n := min(len(b), p.opts.RawPreview)
	s := " " + fmt.Sprintf("% x", b[:n])
	if n < len(b) {
		s += " ..."
	}
	return s
}

// Instruction renders an instruction with atom operands resolved by name.
func Instruction(in beam.Instruction, atoms beam.AtomTable) string {
	var b strings.Builder
	b.WriteString(in.Name())
	b.WriteByte('(')
	for i, op := range in.Operands {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(Operand(op, atoms))
	}
	b.WriteByte(')')
	return b.String()
}

// Operand renders a single operand. Atom index 0 is the empty list.
func Operand(op beam.Operand, atoms beam.AtomTable) string {
	if op.Tag != beam.TagA {
		return op.String()
	}
	if op.Int == 0 {
		return "nil"
	}
	if op.Int > 0 {
		if name, ok := atoms.Name(uint32(op.Int)); ok {
			return "{atom," + name + "}"
		}
	}
	return op.String()
}
