package dump

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"

	"github.com/wippyai/beamwand/beam"
)

var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("dump: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

// View is the serializable form of an Ast. Instructions are kept as raw
// opcodes and operands so that a consumer can rebuild them without the
// opcode table.
type View struct {
	Chunks []ChunkView `cbor:"1,keyasint"`
}

// ChunkView is one chunk. Exactly one payload field is set, chosen by Tag.
type ChunkView struct {
	Tag       string              `cbor:"1,keyasint"`
	Size      uint32              `cbor:"2,keyasint"`
	Atoms     []string            `cbor:"3,keyasint,omitempty"`
	Imports   []beam.Import       `cbor:"4,keyasint,omitempty"`
	Exports   []beam.Export       `cbor:"5,keyasint,omitempty"`
	Functions []beam.FunctionItem `cbor:"6,keyasint,omitempty"`
	Literals  [][]byte            `cbor:"7,keyasint,omitempty"`
	Code      *CodeView           `cbor:"8,keyasint,omitempty"`
	Raw       []byte              `cbor:"9,keyasint,omitempty"`
}

// CodeView is the Code chunk header plus its label blocks.
type CodeView struct {
	MaxOpcode     uint32      `cbor:"1,keyasint"`
	LabelCount    uint32      `cbor:"2,keyasint"`
	FunctionCount uint32      `cbor:"3,keyasint"`
	Blocks        []BlockView `cbor:"4,keyasint"`
}

// BlockView is one label block.
type BlockView struct {
	Label        uint32            `cbor:"1,keyasint"`
	Instructions []InstructionView `cbor:"2,keyasint"`
}

// InstructionView is one instruction.
type InstructionView struct {
	Opcode   byte          `cbor:"1,keyasint"`
	Operands []OperandView `cbor:"2,keyasint,omitempty"`
}

// OperandView is one operand. Tag uses the names of beam.Tag.String.
type OperandView struct {
	Tag   string           `cbor:"1,keyasint"`
	Int   int64            `cbor:"2,keyasint,omitempty"`
	Float float64          `cbor:"3,keyasint,omitempty"`
	Alloc []beam.AllocItem `cbor:"4,keyasint,omitempty"`
}

// NewView converts a decoded Ast.
func NewView(ast *beam.Ast) View {
	v := View{Chunks: make([]ChunkView, 0, len(ast.Chunks))}
	for _, c := range ast.Chunks {
		cv := ChunkView{Tag: c.Kind.Tag(), Size: c.Size}
		switch body := c.Body.(type) {
		case beam.AtomTable:
			cv.Atoms = body
		case beam.ImportTable:
			cv.Imports = body
		case beam.ExportTable:
			cv.Exports = body
		case beam.FunctionTable:
			cv.Functions = body
		case beam.LiteralTable:
			cv.Literals = body
		case *beam.CodeSection:
			cv.Code = codeView(body)
		case beam.RawBody:
			cv.Raw = body
		}
		v.Chunks = append(v.Chunks, cv)
	}
	return v
}

func codeView(cs *beam.CodeSection) *CodeView {
	out := &CodeView{
		MaxOpcode:     cs.MaxOpcode,
		LabelCount:    cs.LabelCount,
		FunctionCount: cs.FunctionCount,
		Blocks:        make([]BlockView, 0, cs.Labels.Len()),
	}
	for _, blk := range cs.Labels.Blocks() {
		bv := BlockView{Label: blk.Label, Instructions: make([]InstructionView, 0, len(blk.Instructions))}
		for _, in := range blk.Instructions {
			iv := InstructionView{Opcode: in.Opcode}
			for _, op := range in.Operands {
				iv.Operands = append(iv.Operands, OperandView{
					Tag:   op.Tag.String(),
					Int:   op.Int,
					Float: op.Float,
					Alloc: op.Alloc,
				})
			}
			bv.Instructions = append(bv.Instructions, iv)
		}
		out.Blocks = append(out.Blocks, bv)
	}
	return out
}

// CBOR serializes ast in canonical CBOR.
func CBOR(ast *beam.Ast) ([]byte, error) {
	return cborEncMode.Marshal(NewView(ast))
}

// UnmarshalView deserializes a View produced by CBOR.
func UnmarshalView(data []byte) (*View, error) {
	var v View
	if err := cbor.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("dump: unmarshal view: %w", err)
	}
	return &v, nil
}
