package beam

import (
	"fmt"
	"math"

	"github.com/wippyai/beamwand/beam/internal/binary"
	"github.com/wippyai/beamwand/errors"
)

const (
	// maxNesting bounds both long-form length indirection and Fr aliasing.
	maxNesting = 2
	// maxIntBytes is the widest magnitude that fits an int64 value.
	maxIntBytes = 8
)

// Extended sub-formats, selected by the upper nibble of a Z-tagged byte.
const (
	extFloat     = 0
	extList      = 1
	extFr        = 2
	extAllocList = 3
)

// DecodeOperand decodes a single compact operand from data and reports how
// many bytes it consumed.
func DecodeOperand(data []byte) (Operand, int, error) {
	r := binary.NewReader(data, errors.PhaseOperand)
	op, err := readOperand(r, 0)
	if err != nil {
		return Operand{}, 0, err
	}
	return op, r.Position(), nil
}

func readOperand(r *binary.Reader, depth int) (Operand, error) {
	off := r.Offset()
	b, err := r.ReadU8()
	if err != nil {
		return Operand{}, err
	}

	tag := Tag(b & 0x07)
	if tag != TagZ {
		v, err := readInt(r, b, depth)
		if err != nil {
			return Operand{}, err
		}
		return Operand{Tag: tag, Int: v}, nil
	}

	switch b >> 4 {
	case extFloat:
		bits, err := r.ReadU64()
		if err != nil {
			return Operand{}, err
		}
		return Operand{Tag: TagFloat, Float: math.Float64frombits(bits)}, nil

	case extList:
		// Only the marker is recorded; expanding the list is left to the consumer.
		return Operand{Tag: TagList, Int: int64(b >> 4)}, nil

	case extFr:
		if depth >= maxNesting {
			return Operand{}, errors.IntegerTooWide(off, "fr alias nested too deeply")
		}
		inner, err := readOperand(r, depth+1)
		if err != nil {
			return Operand{}, err
		}
		inner.Tag = TagFr
		return inner, nil

	case extAllocList:
		items, err := readAllocList(r, depth)
		if err != nil {
			return Operand{}, err
		}
		return Operand{Tag: TagAllocList, Alloc: items}, nil

	default:
		v, err := readLong(r, b, off, depth)
		if err != nil {
			return Operand{}, err
		}
		return Operand{Tag: TagLiteral, Int: v}, nil
	}
}

// readNextInt reads a fresh tag byte and decodes its integer value, ignoring
// the tag bits.
func readNextInt(r *binary.Reader, depth int) (int64, error) {
	b, err := r.ReadU8()
	if err != nil {
		return 0, err
	}
	return readInt(r, b, depth)
}

// readInt decodes the integer carried by tag byte b and any bytes following it.
func readInt(r *binary.Reader, b byte, depth int) (int64, error) {
	off := r.Offset() - 1
	if b&0x08 == 0 {
		return int64(b >> 4), nil
	}
	if b&0x10 == 0 {
		lo, err := r.ReadU8()
		if err != nil {
			return 0, err
		}
		return int64(b&0xe0)<<3 | int64(lo), nil
	}
	return readLong(r, b, off, depth)
}

// readLong decodes the long form: the top three bits of b give the magnitude
// length minus two, or 7 when the length is itself encoded in the next byte.
func readLong(r *binary.Reader, b byte, off, depth int) (int64, error) {
	n := int(b >> 5)
	if n == 7 {
		if depth >= maxNesting {
			return 0, errors.IntegerTooWide(off, "length indirection nested too deeply")
		}
		l, err := readNextInt(r, depth+1)
		if err != nil {
			return 0, err
		}
		if l < 0 || l > maxIntBytes {
			return 0, errors.IntegerTooWide(off, fmt.Sprintf("%d byte magnitude", l))
		}
		n = int(l)
	} else {
		n += 2
	}
	if n > maxIntBytes {
		return 0, errors.IntegerTooWide(off, fmt.Sprintf("%d byte magnitude", n))
	}

	mag, err := r.Slice(n)
	if err != nil {
		return 0, err
	}

	// A four byte magnitude is never sign-extended.
	neg := false
	if n != 4 && n > 0 && mag[0]&0x80 != 0 {
		mag[0] &= 0x7f
		neg = true
	}

	var v uint64
	for _, c := range mag {
		v = v<<8 | uint64(c)
	}
	if neg {
		return -int64(v), nil
	}
	return int64(v), nil
}

func readAllocList(r *binary.Reader, depth int) ([]AllocItem, error) {
	off := r.Offset()
	count, err := readNextInt(r, depth)
	if err != nil {
		return nil, err
	}
	// Every entry takes at least two bytes.
	if count < 0 || count > int64(r.Remaining()/2) {
		return nil, errors.MalformedOperand(off, fmt.Sprintf("allocation list of %d entries", count))
	}

	items := make([]AllocItem, 0, count)
	for i := int64(0); i < count; i++ {
		koff := r.Offset()
		kind, err := readNextInt(r, depth)
		if err != nil {
			return nil, err
		}
		if kind < int64(AllocWords) || kind > int64(AllocLiterals) {
			return nil, errors.New(errors.PhaseOperand, errors.KindMalformedOperand).
				Offset(koff).
				Value(kind).
				Detail("unknown allocation kind %d", kind).
				Build()
		}
		n, err := readNextInt(r, depth)
		if err != nil {
			return nil, err
		}
		items = append(items, AllocItem{Kind: AllocKind(kind), Count: n})
	}
	return items, nil
}
