package beam

import (
	"fmt"
	"strconv"
	"strings"
)

// Tag identifies the encoding family of an operand.
type Tag uint8

// Base tags occupy the low three bits of an operand's first byte. TagZ marks
// an extended operand and never appears on a decoded Operand; the extended
// sub-formats are reported with the tags that follow it.
const (
	TagU Tag = iota // literal unsigned integer
	TagI            // integer
	TagA            // atom index
	TagX            // x register
	TagY            // y register
	TagF            // label reference
	TagH            // character
	TagZ            // extended marker
	TagFloat
	TagList
	TagFr
	TagAllocList
	TagLiteral
)

func (t Tag) String() string {
	switch t {
	case TagU:
		return "u"
	case TagI:
		return "i"
	case TagA:
		return "a"
	case TagX:
		return "x"
	case TagY:
		return "y"
	case TagF:
		return "f"
	case TagH:
		return "h"
	case TagZ:
		return "z"
	case TagFloat:
		return "float"
	case TagList:
		return "list"
	case TagFr:
		return "fr"
	case TagAllocList:
		return "alloc"
	case TagLiteral:
		return "literal"
	default:
		return fmt.Sprintf("tag(%d)", uint8(t))
	}
}

// Operand is one decoded instruction argument. Tag determines which value
// field is meaningful: Float for TagFloat, Alloc for TagAllocList, Int for
// everything else. An Fr operand keeps the value fields of the operand it
// aliases.
type Operand struct {
	Alloc []AllocItem
	Int   int64
	Float float64
	Tag   Tag
}

func (o Operand) String() string {
	switch o.Tag {
	case TagFloat:
		return "{float," + strconv.FormatFloat(o.Float, 'g', -1, 64) + "}"
	case TagAllocList:
		parts := make([]string, len(o.Alloc))
		for i, it := range o.Alloc {
			parts[i] = fmt.Sprintf("{%s,%d}", it.Kind, it.Count)
		}
		return "{alloc,[" + strings.Join(parts, ",") + "]}"
	case TagX, TagY, TagFr:
		return fmt.Sprintf("%s(%d)", o.Tag, o.Int)
	default:
		return fmt.Sprintf("{%s,%d}", o.Tag, o.Int)
	}
}

// AllocKind is the category of an allocation list entry.
type AllocKind uint8

const (
	AllocWords AllocKind = iota
	AllocFloats
	AllocLiterals
)

func (k AllocKind) String() string {
	switch k {
	case AllocWords:
		return "words"
	case AllocFloats:
		return "floats"
	case AllocLiterals:
		return "literals"
	default:
		return fmt.Sprintf("alloc(%d)", uint8(k))
	}
}

// AllocItem is one entry of an allocation list operand.
type AllocItem struct {
	Count int64
	Kind  AllocKind
}

// Instruction is a decoded opcode with its operands.
type Instruction struct {
	Operands []Operand
	Opcode   byte
}

// Name returns the instruction's mnemonic.
func (i Instruction) Name() string {
	if info, ok := LookupOpcode(i.Opcode); ok {
		return info.Name
	}
	return fmt.Sprintf("op%d", i.Opcode)
}

func (i Instruction) String() string {
	var b strings.Builder
	b.WriteString(i.Name())
	b.WriteByte('(')
	for n, op := range i.Operands {
		if n > 0 {
			b.WriteString(", ")
		}
		b.WriteString(op.String())
	}
	b.WriteByte(')')
	return b.String()
}

// Block is the straight-line instruction sequence following a label.
type Block struct {
	Instructions []Instruction
	Label        uint32
}

// LabelMap holds label blocks in the order their labels were first sealed.
// Label pseudo-instructions are not stored.
type LabelMap struct {
	index  map[uint32]int
	blocks []Block
}

// Len returns the number of blocks.
func (m *LabelMap) Len() int {
	return len(m.blocks)
}

// Blocks returns the blocks in order.
func (m *LabelMap) Blocks() []Block {
	return m.blocks
}

// Get returns the instructions of the block with the given label.
func (m *LabelMap) Get(label uint32) ([]Instruction, bool) {
	i, ok := m.index[label]
	if !ok {
		return nil, false
	}
	return m.blocks[i].Instructions, true
}

// seal records a block. It reports false if label is already present.
func (m *LabelMap) seal(label uint32, instrs []Instruction) bool {
	if m.index == nil {
		m.index = make(map[uint32]int)
	}
	if _, dup := m.index[label]; dup {
		return false
	}
	m.index[label] = len(m.blocks)
	m.blocks = append(m.blocks, Block{Label: label, Instructions: instrs})
	return true
}
