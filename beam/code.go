package beam

import (
	"math"

	"go.uber.org/zap"

	"github.com/wippyai/beamwand/beam/internal/binary"
	"github.com/wippyai/beamwand/errors"
)

// Code chunk header constants.
const (
	CodeInfoSize = 16
	CodeFormat   = 0
)

// DecodeCode decodes a Code chunk payload.
func DecodeCode(data []byte) (*CodeSection, error) {
	return parseCodeChunk(binary.NewReader(data, errors.PhaseCode))
}

func parseCodeChunk(r *binary.Reader) (*CodeSection, error) {
	cs := &CodeSection{}

	off := r.Offset()
	infoSize, err := r.ReadU32()
	if err != nil {
		return nil, err
	}
	if infoSize != CodeInfoSize {
		return nil, errors.MalformedMagic(errors.PhaseCode, off, CodeInfoSize, infoSize)
	}
	cs.InfoSize = infoSize

	off = r.Offset()
	if cs.Format, err = r.ReadU32(); err != nil {
		return nil, err
	}
	if cs.Format != CodeFormat {
		return nil, errors.New(errors.PhaseCode, errors.KindMalformedMagic).
			Offset(off).
			Value(cs.Format).
			Detail("unsupported instruction set format %d", cs.Format).
			Build()
	}
	if cs.MaxOpcode, err = r.ReadU32(); err != nil {
		return nil, err
	}
	if cs.LabelCount, err = r.ReadU32(); err != nil {
		return nil, err
	}
	if cs.FunctionCount, err = r.ReadU32(); err != nil {
		return nil, err
	}

	Logger().Debug("code header",
		zap.Uint32("max_opcode", cs.MaxOpcode),
		zap.Uint32("labels", cs.LabelCount),
		zap.Uint32("functions", cs.FunctionCount))

	asm := labelAssembler{current: 1}
	for r.Remaining() > 0 {
		off := r.Offset()
		inst, err := readInstruction(r, cs.MaxOpcode)
		if err != nil {
			return nil, err
		}
		if inst.Opcode != opLabel {
			asm.add(inst)
			continue
		}
		id, err := labelID(inst, off)
		if err != nil {
			return nil, err
		}
		if err := asm.open(id, off); err != nil {
			return nil, err
		}
	}
	if err := asm.finish(r.Offset()); err != nil {
		return nil, err
	}

	cs.Labels = asm.labels
	return cs, nil
}

func readInstruction(r *binary.Reader, maxOpcode uint32) (Instruction, error) {
	off := r.Offset()
	op, err := r.ReadU8()
	if err != nil {
		return Instruction{}, err
	}
	if op == 0 || uint32(op) > maxOpcode {
		return Instruction{}, errors.UnknownOpcode(off, op, maxOpcode)
	}
	info, ok := LookupOpcode(op)
	if !ok {
		return Instruction{}, errors.New(errors.PhaseCode, errors.KindUnknownOpcode).
			Offset(off).
			Value(op).
			Detail("opcode %d has no known arity", op).
			Build()
	}

	inst := Instruction{Opcode: op}
	if info.Arity > 0 {
		inst.Operands = make([]Operand, info.Arity)
	}
	for i := range inst.Operands {
		if inst.Operands[i], err = readOperand(r, 0); err != nil {
			return Instruction{}, err
		}
	}
	return inst, nil
}

func labelID(inst Instruction, off int) (uint32, error) {
	op := inst.Operands[0]
	if op.Tag != TagU || op.Int <= 0 || op.Int > math.MaxUint32 {
		return 0, errors.New(errors.PhaseCode, errors.KindMalformedOperand).
			Offset(off).
			Value(op).
			Detail("label operand must be a positive u, got %s", op).
			Build()
	}
	return uint32(op.Int), nil
}

// labelAssembler groups a flat instruction stream into label blocks.
// Instructions seen before any label belong to an implicit block 1.
type labelAssembler struct {
	labels  LabelMap
	pending []Instruction
	current uint32
	opened  bool
}

func (a *labelAssembler) add(inst Instruction) {
	a.pending = append(a.pending, inst)
}

func (a *labelAssembler) open(id uint32, off int) error {
	if id == a.current {
		a.opened = true
		return nil
	}
	if a.opened || len(a.pending) > 0 {
		if err := a.seal(off); err != nil {
			return err
		}
	}
	a.current = id
	a.pending = nil
	a.opened = true
	return nil
}

func (a *labelAssembler) finish(off int) error {
	if len(a.pending) == 0 {
		return nil
	}
	return a.seal(off)
}

func (a *labelAssembler) seal(off int) error {
	if !a.labels.seal(a.current, a.pending) {
		return errors.DuplicateLabel(off, a.current)
	}
	Logger().Debug("label sealed",
		zap.Uint32("label", a.current),
		zap.Int("instructions", len(a.pending)))
	return nil
}
