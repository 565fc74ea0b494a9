package beam

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/wippyai/beamwand/beam/internal/binary"
	"github.com/wippyai/beamwand/errors"
)

// Container header tags.
const (
	FormTag = "FOR1"
	BeamTag = "BEAM"
)

const chunkHeaderSize = 8

// Parse decodes a BEAM container. On failure no partial Ast is returned.
func Parse(data []byte) (*Ast, error) {
	r := binary.NewReader(data, errors.PhaseHeader)

	if err := r.ExpectTag(FormTag); err != nil {
		return nil, err
	}
	off := r.Offset()
	formLen, err := r.ReadU32()
	if err != nil {
		return nil, err
	}
	if uint64(formLen) > uint64(r.Remaining()) {
		return nil, errors.New(errors.PhaseHeader, errors.KindUnexpectedEOF).
			Offset(off).
			Value(formLen).
			Detail("form length %d exceeds %d available bytes", formLen, r.Remaining()).
			Build()
	}
	if err := r.ExpectTag(BeamTag); err != nil {
		return nil, err
	}

	Logger().Debug("container header", zap.Uint32("form_length", formLen))

	r.SetPhase(errors.PhaseChunk)
	ast := &Ast{}
	for r.Remaining() > 0 {
		chunk, err := parseChunk(r)
		if err != nil {
			return nil, err
		}
		ast.Chunks = append(ast.Chunks, chunk)
	}
	return ast, nil
}

func parseChunk(r *binary.Reader) (Chunk, error) {
	off := r.Offset()
	if err := r.Ensure(chunkHeaderSize); err != nil {
		return Chunk{}, err
	}
	tag, err := r.PeekTag()
	if err != nil {
		return Chunk{}, err
	}
	kind, ok := ChunkKindForTag(tag)
	if !ok {
		return Chunk{}, errors.UnknownChunkTag(off, tag)
	}
	if err := r.Skip(4); err != nil {
		return Chunk{}, err
	}
	size, err := r.ReadU32()
	if err != nil {
		return Chunk{}, err
	}

	Logger().Debug("chunk",
		zap.String("tag", tag),
		zap.Uint32("size", size),
		zap.Int("offset", off))

	payload, err := r.Sub(int(size), phaseFor(kind))
	if err != nil {
		return Chunk{}, err
	}
	body, err := decodeBody(kind, payload)
	if err != nil {
		return Chunk{}, fmt.Errorf("%s chunk: %w", tag, err)
	}
	if err := r.Align(4); err != nil {
		return Chunk{}, err
	}

	return Chunk{Kind: kind, Size: size, Body: body}, nil
}

func decodeBody(kind ChunkKind, r *binary.Reader) (Body, error) {
	if r.Len() == 0 {
		return EmptyBody{}, nil
	}
	switch kind {
	case ChunkAtom:
		return parseAtomChunk(r)
	case ChunkImport:
		return parseImportChunk(r)
	case ChunkExport, ChunkLocal:
		return parseExportChunk(r)
	case ChunkFunction:
		return parseFunctionChunk(r)
	case ChunkLiteral:
		return parseLiteralChunk(r)
	case ChunkCode:
		return parseCodeChunk(r)
	default:
		raw, err := r.ReadRemaining()
		if err != nil {
			return nil, err
		}
		return RawBody(raw), nil
	}
}

func phaseFor(kind ChunkKind) errors.Phase {
	switch kind {
	case ChunkAtom:
		return errors.PhaseAtoms
	case ChunkImport:
		return errors.PhaseImports
	case ChunkExport, ChunkLocal:
		return errors.PhaseExports
	case ChunkFunction:
		return errors.PhaseFunctions
	case ChunkLiteral:
		return errors.PhaseLiterals
	case ChunkCode:
		return errors.PhaseCode
	default:
		return errors.PhaseChunk
	}
}
