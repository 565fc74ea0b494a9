package binary

import (
	"bytes"
	"encoding/binary"
	"math"
)

// Writer provides big-endian encoding utilities for building BEAM containers.
type Writer struct {
	buf *bytes.Buffer
}

// NewWriter creates a new Writer.
func NewWriter() *Writer {
	return &Writer{buf: &bytes.Buffer{}}
}

// Bytes returns the written bytes.
func (w *Writer) Bytes() []byte {
	return w.buf.Bytes()
}

// Len returns the number of bytes written.
func (w *Writer) Len() int {
	return w.buf.Len()
}

// Byte writes a single byte.
func (w *Writer) Byte(b byte) {
	w.buf.WriteByte(b)
}

// WriteBytes writes a byte slice.
func (w *Writer) WriteBytes(data []byte) {
	w.buf.Write(data)
}

// WriteTag writes a four character ASCII tag.
func (w *Writer) WriteTag(tag string) {
	w.buf.WriteString(tag)
}

// WriteU16 writes a big-endian uint16.
func (w *Writer) WriteU16(v uint16) {
	var buf [2]byte
	binary.BigEndian.PutUint16(buf[:], v)
	w.buf.Write(buf[:])
}

// WriteU32 writes a big-endian uint32.
func (w *Writer) WriteU32(v uint32) {
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], v)
	w.buf.Write(buf[:])
}

// WriteF64 writes a big-endian IEEE-754 double.
func (w *Writer) WriteF64(v float64) {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], math.Float64bits(v))
	w.buf.Write(buf[:])
}

// WriteChunk writes a chunk header, its payload and zero padding up to the
// next four byte boundary.
func (w *Writer) WriteChunk(tag string, payload []byte) {
	w.WriteTag(tag)
	w.WriteU32(uint32(len(payload)))
	w.buf.Write(payload)
	for w.buf.Len()%4 != 0 {
		w.buf.WriteByte(0)
	}
}

// WriteCompact writes v in the compact operand encoding under the given
// three bit tag, picking the shortest form that round-trips.
func (w *Writer) WriteCompact(tag byte, v int64) {
	tag &= 0x07
	switch {
	case v >= 0 && v < 16:
		w.buf.WriteByte(byte(v<<4) | tag)
	case v >= 0 && v < 2048:
		w.buf.WriteByte(byte((v>>3)&0xe0) | 0x08 | tag)
		w.buf.WriteByte(byte(v))
	default:
		w.writeLong(tag, v)
	}
}

func (w *Writer) writeLong(tag byte, v int64) {
	neg := v < 0
	mag := uint64(v)
	if neg {
		mag = uint64(-v)
	}

	n := 1
	for n < 8 && mag>>(8*n) != 0 {
		n++
	}
	// Four byte magnitudes are read unsigned, every other width uses the top
	// bit of the first byte as the sign.
	if n != 4 && mag>>(8*n-1) != 0 {
		n++
	}
	if neg && n == 4 {
		n = 5
	}
	if n < 2 {
		n = 2
	}

	w.buf.WriteByte(byte(n-2)<<5 | 0x18 | tag)
	for i := n - 1; i >= 0; i-- {
		b := byte(mag >> (8 * i))
		if i == n-1 && neg {
			b |= 0x80
		}
		w.buf.WriteByte(b)
	}
}
