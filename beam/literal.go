package beam

import (
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/flate"
	"go.uber.org/zap"

	"github.com/wippyai/beamwand/beam/internal/binary"
	"github.com/wippyai/beamwand/errors"
)

// zlibHeaderSize is the CMF/FLG prefix skipped before the deflate stream.
const zlibHeaderSize = 2

func parseLiteralChunk(r *binary.Reader) (LiteralTable, error) {
	declared, err := r.ReadU32()
	if err != nil {
		return nil, err
	}
	if err := r.Skip(zlibHeaderSize); err != nil {
		return nil, err
	}
	compressed, err := r.ReadRemaining()
	if err != nil {
		return nil, err
	}

	data, err := inflate(compressed, int64(declared))
	if err != nil {
		return nil, errors.CorruptLiteralTable("inflate", err)
	}
	if uint64(len(data)) != uint64(declared) {
		return nil, errors.New(errors.PhaseLiterals, errors.KindCorruptLiteralTable).
			Value(len(data)).
			Detail("inflated %d bytes, header declares %d", len(data), declared).
			Build()
	}

	Logger().Debug("literal table inflated",
		zap.Int("compressed", len(compressed)),
		zap.Uint32("size", declared))

	return parseLiteralEntries(binary.NewReader(data, errors.PhaseLiterals))
}

// inflate decompresses a raw deflate stream, reading at most limit+1 bytes so
// that an oversized stream is detected without being fully materialized.
func inflate(compressed []byte, limit int64) ([]byte, error) {
	fr := flate.NewReader(bytes.NewReader(compressed))
	defer fr.Close()

	var out bytes.Buffer
	if _, err := io.Copy(&out, io.LimitReader(fr, limit+1)); err != nil {
		return nil, fmt.Errorf("deflate stream: %w", err)
	}
	return out.Bytes(), nil
}

func parseLiteralEntries(r *binary.Reader) (LiteralTable, error) {
	count, err := r.ReadU32()
	if err != nil {
		return nil, err
	}

	table := make(LiteralTable, 0, capFor(count, r, 4))
	for i := uint32(0); i < count; i++ {
		n, err := r.ReadU32()
		if err != nil {
			return nil, err
		}
		blob, err := r.Slice(int(n))
		if err != nil {
			return nil, err
		}
		table = append(table, blob)
	}
	return table, nil
}
