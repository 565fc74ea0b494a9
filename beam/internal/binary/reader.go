package binary

import (
	"encoding/binary"

	"github.com/wippyai/beamwand/errors"
)

// Reader is a bounds-checked big-endian cursor over an immutable byte slice.
// Every read either consumes exactly the requested bytes or fails with an
// unexpected_eof error and leaves the position unchanged.
type Reader struct {
	data  []byte
	pos   int
	base  int
	phase errors.Phase
}

// NewReader creates a Reader over data. Errors are attributed to phase.
func NewReader(data []byte, phase errors.Phase) *Reader {
	return &Reader{data: data, phase: phase}
}

// Sub returns a Reader over the next n bytes and advances past them.
// Offsets reported by the sub-reader stay absolute within the outer buffer.
func (r *Reader) Sub(n int, phase errors.Phase) (*Reader, error) {
	if err := r.Ensure(n); err != nil {
		return nil, err
	}
	sub := &Reader{
		data:  r.data[r.pos : r.pos+n : r.pos+n],
		base:  r.Offset(),
		phase: phase,
	}
	r.pos += n
	return sub, nil
}

// SetPhase changes the phase future errors are attributed to.
func (r *Reader) SetPhase(phase errors.Phase) {
	r.phase = phase
}

// Phase returns the phase errors are attributed to.
func (r *Reader) Phase() errors.Phase {
	return r.phase
}

// Position returns the number of bytes consumed from this reader.
func (r *Reader) Position() int {
	return r.pos
}

// Offset returns the absolute offset of the next unread byte.
func (r *Reader) Offset() int {
	return r.base + r.pos
}

// Len returns the total size of the underlying window.
func (r *Reader) Len() int {
	return len(r.data)
}

// Remaining returns the number of unread bytes.
func (r *Reader) Remaining() int {
	return len(r.data) - r.pos
}

// Ensure fails unless at least n bytes remain.
func (r *Reader) Ensure(n int) error {
	if n < 0 || n > r.Remaining() {
		return errors.UnexpectedEOF(r.phase, r.Offset(), n, r.Remaining())
	}
	return nil
}

// ReadU8 reads a single byte.
func (r *Reader) ReadU8() (byte, error) {
	if err := r.Ensure(1); err != nil {
		return 0, err
	}
	b := r.data[r.pos]
	r.pos++
	return b, nil
}

// ReadByte implements io.ByteReader.
func (r *Reader) ReadByte() (byte, error) {
	return r.ReadU8()
}

// ReadU16 reads a big-endian uint16.
func (r *Reader) ReadU16() (uint16, error) {
	if err := r.Ensure(2); err != nil {
		return 0, err
	}
	v := binary.BigEndian.Uint16(r.data[r.pos:])
	r.pos += 2
	return v, nil
}

// ReadU32 reads a big-endian uint32.
func (r *Reader) ReadU32() (uint32, error) {
	if err := r.Ensure(4); err != nil {
		return 0, err
	}
	v := binary.BigEndian.Uint32(r.data[r.pos:])
	r.pos += 4
	return v, nil
}

// ReadU64 reads a big-endian uint64.
func (r *Reader) ReadU64() (uint64, error) {
	if err := r.Ensure(8); err != nil {
		return 0, err
	}
	v := binary.BigEndian.Uint64(r.data[r.pos:])
	r.pos += 8
	return v, nil
}

// PeekTag returns the next four bytes as a string without advancing.
func (r *Reader) PeekTag() (string, error) {
	if err := r.Ensure(4); err != nil {
		return "", err
	}
	return string(r.data[r.pos : r.pos+4]), nil
}

// MatchTag reports whether the next four bytes equal tag. It never advances.
func (r *Reader) MatchTag(tag string) (bool, error) {
	got, err := r.PeekTag()
	if err != nil {
		return false, err
	}
	return got == tag, nil
}

// ExpectTag consumes tag or fails with malformed_magic without advancing.
func (r *Reader) ExpectTag(tag string) error {
	got, err := r.PeekTag()
	if err != nil {
		return err
	}
	if got != tag {
		return errors.MalformedMagic(r.phase, r.Offset(), tag, got)
	}
	r.pos += 4
	return nil
}

// Slice copies the next n bytes and advances past them.
func (r *Reader) Slice(n int) ([]byte, error) {
	if err := r.Ensure(n); err != nil {
		return nil, err
	}
	out := make([]byte, n)
	copy(out, r.data[r.pos:r.pos+n])
	r.pos += n
	return out, nil
}

// ReadRemaining copies all unread bytes.
func (r *Reader) ReadRemaining() ([]byte, error) {
	return r.Slice(r.Remaining())
}

// Skip advances past n bytes.
func (r *Reader) Skip(n int) error {
	if err := r.Ensure(n); err != nil {
		return err
	}
	r.pos += n
	return nil
}

// Align skips to the next multiple of n measured from the start of the
// outermost buffer.
func (r *Reader) Align(n int) error {
	if m := r.Offset() % n; m != 0 {
		return r.Skip(n - m)
	}
	return nil
}

// ExpectEnd fails with trailing_bytes if any input is left unread.
func (r *Reader) ExpectEnd() error {
	if n := r.Remaining(); n != 0 {
		return errors.TrailingBytes(r.phase, r.Offset(), n)
	}
	return nil
}
