package beam_test

import (
	"bytes"
	stderrors "errors"
	"reflect"
	"testing"

	"github.com/wippyai/beamwand/beam"
	"github.com/wippyai/beamwand/beam/internal/binary"
	"github.com/wippyai/beamwand/errors"
)

type chunkDef struct {
	tag     string
	payload []byte
}

func buildContainer(chunks ...chunkDef) []byte {
	body := binary.NewWriter()
	for _, c := range chunks {
		body.WriteChunk(c.tag, c.payload)
	}
	return wrapForm(body.Bytes())
}

func wrapForm(body []byte) []byte {
	w := binary.NewWriter()
	w.WriteTag("FOR1")
	w.WriteU32(uint32(4 + len(body)))
	w.WriteTag("BEAM")
	w.WriteBytes(body)
	return w.Bytes()
}

func atomPayload(names ...string) []byte {
	w := binary.NewWriter()
	w.WriteU32(uint32(len(names)))
	for _, n := range names {
		w.Byte(byte(len(n)))
		w.WriteBytes([]byte(n))
	}
	return w.Bytes()
}

func u32Records(count int, fields ...uint32) []byte {
	w := binary.NewWriter()
	w.WriteU32(uint32(count))
	for _, f := range fields {
		w.WriteU32(f)
	}
	return w.Bytes()
}

func mustParse(t *testing.T, data []byte) *beam.Ast {
	t.Helper()
	ast, err := beam.Parse(data)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return ast
}

func expectKind(t *testing.T, data []byte, kind errors.Kind) {
	t.Helper()
	ast, err := beam.Parse(data)
	if err == nil {
		t.Fatalf("expected %s error, got nil", kind)
	}
	if ast != nil {
		t.Errorf("expected nil Ast on error, got %+v", ast)
	}
	if !errors.IsKind(err, kind) {
		t.Errorf("got %v, want kind %s", err, kind)
	}
}

func TestParseMinimalContainer(t *testing.T) {
	ast := mustParse(t, buildContainer())
	if len(ast.Chunks) != 0 {
		t.Errorf("expected no chunks, got %d", len(ast.Chunks))
	}
}

func TestParseMalformedMagic(t *testing.T) {
	good := buildContainer()

	badForm := bytes.Clone(good)
	copy(badForm, "FOR2")
	expectKind(t, badForm, errors.KindMalformedMagic)

	badBeam := bytes.Clone(good)
	copy(badBeam[8:], "BEEM")
	expectKind(t, badBeam, errors.KindMalformedMagic)
}

func TestParseTruncatedHeader(t *testing.T) {
	expectKind(t, []byte("FOR"), errors.KindUnexpectedEOF)
	expectKind(t, []byte("FOR1\x00\x00"), errors.KindUnexpectedEOF)
	expectKind(t, []byte("FOR1\x00\x00\x00\x04BE"), errors.KindUnexpectedEOF)
}

func TestParseFormLengthExceedsInput(t *testing.T) {
	data := buildContainer()
	data[7] = 0xff
	expectKind(t, data, errors.KindUnexpectedEOF)
}

func TestParseAtomChunk(t *testing.T) {
	ast := mustParse(t, buildContainer(chunkDef{"Atom", atomPayload("ab", "xyz")}))

	if len(ast.Chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(ast.Chunks))
	}
	c := ast.Chunks[0]
	if c.Kind != beam.ChunkAtom || c.Size != 11 {
		t.Errorf("chunk: got kind %s size %d, want atom 11", c.Kind, c.Size)
	}

	atoms := ast.Atoms()
	for i, want := range map[uint32]string{1: "ab", 2: "xyz"} {
		got, ok := atoms.Name(i)
		if !ok || got != want {
			t.Errorf("atom %d: got %q (%v), want %q", i, got, ok, want)
		}
	}
	if _, ok := atoms.Name(0); ok {
		t.Error("atom index 0 should not resolve")
	}
	if _, ok := atoms.Name(3); ok {
		t.Error("atom index 3 should not resolve")
	}
}

func TestParseUTF8AtomTag(t *testing.T) {
	ast := mustParse(t, buildContainer(chunkDef{"AtU8", atomPayload("héllo")}))
	if name, _ := ast.Atoms().Name(1); name != "héllo" {
		t.Errorf("got %q", name)
	}
}

func TestParseFixedRecordTables(t *testing.T) {
	data := buildContainer(
		chunkDef{"Atom", atomPayload("lists", "erlang", "reverse")},
		chunkDef{"ImpT", u32Records(2, 2, 3, 1, 1, 3, 2)},
		chunkDef{"ExpT", u32Records(1, 3, 1, 2)},
		chunkDef{"LocT", u32Records(2, 3, 2, 4, 3, 3, 6)},
		chunkDef{"FunT", u32Records(1, 3, 1, 8, 0, 1, 0xdeadbeef)},
		chunkDef{"StrT", []byte("abc")},
	)
	ast := mustParse(t, data)

	if len(ast.Chunks) != 6 {
		t.Fatalf("expected 6 chunks, got %d", len(ast.Chunks))
	}

	wantKinds := []beam.ChunkKind{
		beam.ChunkAtom, beam.ChunkImport, beam.ChunkExport,
		beam.ChunkLocal, beam.ChunkFunction, beam.ChunkString,
	}
	for i, k := range wantKinds {
		if ast.Chunks[i].Kind != k {
			t.Errorf("chunk %d: got %s, want %s", i, ast.Chunks[i].Kind, k)
		}
	}

	imports := ast.Chunks[1].Body.(beam.ImportTable)
	wantImports := beam.ImportTable{
		{Module: 2, Function: 3, Arity: 1},
		{Module: 1, Function: 3, Arity: 2},
	}
	if !reflect.DeepEqual(imports, wantImports) {
		t.Errorf("imports: got %+v, want %+v", imports, wantImports)
	}

	exports := ast.Chunks[2].Body.(beam.ExportTable)
	if !reflect.DeepEqual(exports, beam.ExportTable{{Function: 3, Arity: 1, Label: 2}}) {
		t.Errorf("exports: got %+v", exports)
	}

	locals := ast.Chunks[3].Body.(beam.ExportTable)
	if len(locals) != 2 || locals[1] != (beam.Export{Function: 3, Arity: 3, Label: 6}) {
		t.Errorf("locals: got %+v", locals)
	}

	funcs := ast.Chunks[4].Body.(beam.FunctionTable)
	wantFun := beam.FunctionItem{Function: 3, Arity: 1, Label: 8, Index: 0, NumFree: 1, OldUniq: 0xdeadbeef}
	if len(funcs) != 1 || funcs[0] != wantFun {
		t.Errorf("funs: got %+v, want %+v", funcs, wantFun)
	}

	raw := ast.Chunks[5].Body.(beam.RawBody)
	if string(raw) != "abc" || ast.Chunks[5].Size != 3 {
		t.Errorf("string chunk: got %q size %d", raw, ast.Chunks[5].Size)
	}
}

func TestParseRawChunkKinds(t *testing.T) {
	tags := map[string]beam.ChunkKind{
		"StrT": beam.ChunkString,
		"Attr": beam.ChunkAttr,
		"CInf": beam.ChunkCInfo,
		"Abst": beam.ChunkAbst,
		"Line": beam.ChunkLine,
		"Trac": beam.ChunkTrace,
	}
	for tag, kind := range tags {
		ast := mustParse(t, buildContainer(chunkDef{tag, []byte{0x83, 0x6a}}))
		c := ast.Chunks[0]
		if c.Kind != kind {
			t.Errorf("%s: got kind %s, want %s", tag, c.Kind, kind)
		}
		if c.Kind.Tag() != tag {
			t.Errorf("%s: Tag() = %s", tag, c.Kind.Tag())
		}
		if raw, ok := c.Body.(beam.RawBody); !ok || !bytes.Equal(raw, []byte{0x83, 0x6a}) {
			t.Errorf("%s: body %#v", tag, c.Body)
		}
	}
}

func TestParseZeroSizeChunkIsEmpty(t *testing.T) {
	for _, tag := range []string{"Atom", "Code", "LitT", "ImpT", "Attr"} {
		ast := mustParse(t, buildContainer(chunkDef{tag, nil}))
		if _, ok := ast.Chunks[0].Body.(beam.EmptyBody); !ok {
			t.Errorf("%s: expected EmptyBody, got %T", tag, ast.Chunks[0].Body)
		}
	}
}

func TestParseConsumesPadding(t *testing.T) {
	// Payload sizes 1..4 exercise every padding length.
	var chunks []chunkDef
	for n := 1; n <= 4; n++ {
		chunks = append(chunks, chunkDef{"StrT", bytes.Repeat([]byte{'x'}, n)})
	}
	ast := mustParse(t, buildContainer(chunks...))
	if len(ast.Chunks) != 4 {
		t.Fatalf("expected 4 chunks, got %d", len(ast.Chunks))
	}
	for i, c := range ast.Chunks {
		if int(c.Size) != i+1 {
			t.Errorf("chunk %d: size %d, want %d", i, c.Size, i+1)
		}
	}
}

func TestParseMissingFinalPadding(t *testing.T) {
	body := binary.NewWriter()
	body.WriteTag("StrT")
	body.WriteU32(3)
	body.WriteBytes([]byte("abc"))
	expectKind(t, wrapForm(body.Bytes()), errors.KindUnexpectedEOF)
}

func TestParseUnknownChunkTag(t *testing.T) {
	data := buildContainer(
		chunkDef{"Atom", atomPayload("m")},
		chunkDef{"Dbgi", []byte{1, 2, 3, 4}},
	)
	expectKind(t, data, errors.KindUnknownChunkTag)
}

func TestParseShortTrailingHeader(t *testing.T) {
	body := binary.NewWriter()
	body.WriteChunk("StrT", []byte("abcd"))
	body.WriteTag("Atom")
	expectKind(t, wrapForm(body.Bytes()), errors.KindUnexpectedEOF)
}

func TestParseChunkSizeExceedsInput(t *testing.T) {
	body := binary.NewWriter()
	body.WriteTag("StrT")
	body.WriteU32(64)
	body.WriteBytes([]byte("abcd"))
	expectKind(t, wrapForm(body.Bytes()), errors.KindUnexpectedEOF)
}

func TestParseAtomTableMustFillChunk(t *testing.T) {
	payload := append(atomPayload("ab"), 0, 0)
	expectKind(t, buildContainer(chunkDef{"Atom", payload}), errors.KindTrailingBytes)
}

func TestParseAtomTableTruncated(t *testing.T) {
	payload := atomPayload("ab", "cd")
	payload[3] = 3
	expectKind(t, buildContainer(chunkDef{"Atom", payload}), errors.KindUnexpectedEOF)

	name := atomPayload("abcdef")
	expectKind(t, buildContainer(chunkDef{"Atom", name[:len(name)-2]}), errors.KindUnexpectedEOF)
}

func TestParseFixedRecordErrorsCarryPhase(t *testing.T) {
	tests := []struct {
		tag   string
		phase errors.Phase
	}{
		{"ImpT", errors.PhaseImports},
		{"ExpT", errors.PhaseExports},
		{"LocT", errors.PhaseExports},
		{"FunT", errors.PhaseFunctions},
	}
	for _, tt := range tests {
		// Count says one record but only one field follows.
		payload := u32Records(1, 7)
		_, err := beam.Parse(buildContainer(chunkDef{tt.tag, payload}))
		if !errors.IsKind(err, errors.KindUnexpectedEOF) {
			t.Errorf("%s: got %v, want unexpected_eof", tt.tag, err)
			continue
		}
		target := &errors.Error{Phase: tt.phase, Kind: errors.KindUnexpectedEOF}
		if !stderrors.Is(err, target) {
			t.Errorf("%s: got %v, want phase %s", tt.tag, err, tt.phase)
		}
	}
}

func TestParseImportTableTrailingSlack(t *testing.T) {
	payload := append(u32Records(1, 1, 2, 3), 0, 0, 0, 0)
	expectKind(t, buildContainer(chunkDef{"ImpT", payload}), errors.KindTrailingBytes)
}

func TestChunkKindForTag(t *testing.T) {
	for _, tag := range []string{"Atom", "ExpT", "ImpT", "Code", "StrT", "LitT", "FunT", "Attr", "CInf", "LocT", "Abst", "Line", "Trac"} {
		k, ok := beam.ChunkKindForTag(tag)
		if !ok {
			t.Errorf("%s not recognized", tag)
			continue
		}
		if k.Tag() != tag {
			t.Errorf("%s round-trips to %s", tag, k.Tag())
		}
	}
	if _, ok := beam.ChunkKindForTag("Docs"); ok {
		t.Error("Docs should not be recognized")
	}
}
