package beam

import (
	"github.com/wippyai/beamwand/beam/internal/binary"
)

// capFor bounds a preallocation by what the remaining input could hold.
func capFor(count uint32, r *binary.Reader, recordSize int) int {
	limit := r.Remaining() / recordSize
	if int64(count) < int64(limit) {
		return int(count)
	}
	return limit
}

func parseAtomChunk(r *binary.Reader) (AtomTable, error) {
	count, err := r.ReadU32()
	if err != nil {
		return nil, err
	}

	atoms := make(AtomTable, 0, capFor(count, r, 1))
	for i := uint32(0); i < count; i++ {
		n, err := r.ReadU8()
		if err != nil {
			return nil, err
		}
		name, err := r.Slice(int(n))
		if err != nil {
			return nil, err
		}
		atoms = append(atoms, string(name))
	}
	return atoms, r.ExpectEnd()
}

func parseImportChunk(r *binary.Reader) (ImportTable, error) {
	count, err := r.ReadU32()
	if err != nil {
		return nil, err
	}

	imports := make(ImportTable, 0, capFor(count, r, 12))
	for i := uint32(0); i < count; i++ {
		var imp Import
		if imp.Module, err = r.ReadU32(); err != nil {
			return nil, err
		}
		if imp.Function, err = r.ReadU32(); err != nil {
			return nil, err
		}
		if imp.Arity, err = r.ReadU32(); err != nil {
			return nil, err
		}
		imports = append(imports, imp)
	}
	return imports, r.ExpectEnd()
}

// parseExportChunk decodes both ExpT and LocT, which share a layout.
func parseExportChunk(r *binary.Reader) (ExportTable, error) {
	count, err := r.ReadU32()
	if err != nil {
		return nil, err
	}

	exports := make(ExportTable, 0, capFor(count, r, 12))
	for i := uint32(0); i < count; i++ {
		var exp Export
		if exp.Function, err = r.ReadU32(); err != nil {
			return nil, err
		}
		if exp.Arity, err = r.ReadU32(); err != nil {
			return nil, err
		}
		if exp.Label, err = r.ReadU32(); err != nil {
			return nil, err
		}
		exports = append(exports, exp)
	}
	return exports, r.ExpectEnd()
}

func parseFunctionChunk(r *binary.Reader) (FunctionTable, error) {
	count, err := r.ReadU32()
	if err != nil {
		return nil, err
	}

	funcs := make(FunctionTable, 0, capFor(count, r, 24))
	for i := uint32(0); i < count; i++ {
		var f FunctionItem
		fields := [...]*uint32{&f.Function, &f.Arity, &f.Label, &f.Index, &f.NumFree, &f.OldUniq}
		for _, p := range fields {
			if *p, err = r.ReadU32(); err != nil {
				return nil, err
			}
		}
		funcs = append(funcs, f)
	}
	return funcs, r.ExpectEnd()
}
