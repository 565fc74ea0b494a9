package beam

import "fmt"

// ChunkKind identifies a container section.
type ChunkKind uint8

// Chunk kinds, one per recognized section tag.
const (
	ChunkAtom ChunkKind = iota + 1
	ChunkExport
	ChunkImport
	ChunkCode
	ChunkString
	ChunkLiteral
	ChunkFunction
	ChunkAttr
	ChunkCInfo
	ChunkLocal
	ChunkAbst
	ChunkLine
	ChunkTrace
)

var chunkTags = map[string]ChunkKind{
	"Atom": ChunkAtom,
	"AtU8": ChunkAtom,
	"ExpT": ChunkExport,
	"ImpT": ChunkImport,
	"Code": ChunkCode,
	"StrT": ChunkString,
	"LitT": ChunkLiteral,
	"FunT": ChunkFunction,
	"Attr": ChunkAttr,
	"CInf": ChunkCInfo,
	"LocT": ChunkLocal,
	"Abst": ChunkAbst,
	"Line": ChunkLine,
	"Trac": ChunkTrace,
}

// ChunkKindForTag maps a four character chunk tag onto its kind.
func ChunkKindForTag(tag string) (ChunkKind, bool) {
	k, ok := chunkTags[tag]
	return k, ok
}

// Tag returns the canonical four character tag for the kind.
func (k ChunkKind) Tag() string {
	switch k {
	case ChunkAtom:
		return "Atom"
	case ChunkExport:
		return "ExpT"
	case ChunkImport:
		return "ImpT"
	case ChunkCode:
		return "Code"
	case ChunkString:
		return "StrT"
	case ChunkLiteral:
		return "LitT"
	case ChunkFunction:
		return "FunT"
	case ChunkAttr:
		return "Attr"
	case ChunkCInfo:
		return "CInf"
	case ChunkLocal:
		return "LocT"
	case ChunkAbst:
		return "Abst"
	case ChunkLine:
		return "Line"
	case ChunkTrace:
		return "Trac"
	default:
		return "????"
	}
}

func (k ChunkKind) String() string {
	switch k {
	case ChunkAtom:
		return "atom"
	case ChunkExport:
		return "export"
	case ChunkImport:
		return "import"
	case ChunkCode:
		return "code"
	case ChunkString:
		return "string"
	case ChunkLiteral:
		return "literal"
	case ChunkFunction:
		return "function"
	case ChunkAttr:
		return "attr"
	case ChunkCInfo:
		return "cinfo"
	case ChunkLocal:
		return "local"
	case ChunkAbst:
		return "abst"
	case ChunkLine:
		return "line"
	case ChunkTrace:
		return "trace"
	default:
		return fmt.Sprintf("chunk(%d)", uint8(k))
	}
}

// Chunk is one decoded container section.
type Chunk struct {
	Body Body
	Kind ChunkKind
	Size uint32 // declared payload size, padding excluded
}

// Body is the decoded payload of a chunk. The set of implementations is closed:
// EmptyBody, AtomTable, ImportTable, ExportTable, FunctionTable, LiteralTable,
// *CodeSection and RawBody.
type Body interface {
	isBody()
}

// EmptyBody is the body of any chunk whose declared size is zero.
type EmptyBody struct{}

// RawBody holds the undecoded payload of chunks that carry external term
// encodings or debug data (StrT, Attr, CInf, Abst, Line, Trac).
type RawBody []byte

// AtomTable holds atom names. Atom indices are 1-based: index 1 is At(0).
type AtomTable []string

// Name returns the atom with the given 1-based index.
func (t AtomTable) Name(index uint32) (string, bool) {
	if index == 0 || int(index) > len(t) {
		return "", false
	}
	return t[index-1], true
}

// Import is one external function reference.
type Import struct {
	Module   uint32 // atom index
	Function uint32 // atom index
	Arity    uint32
}

// ImportTable lists imports in linkage order.
type ImportTable []Import

// Export is one exported or local function entry.
type Export struct {
	Function uint32 // atom index
	Arity    uint32
	Label    uint32
}

// ExportTable lists exported (ExpT) or local (LocT) functions in file order.
type ExportTable []Export

// FunctionItem describes a lambda defined in the module.
type FunctionItem struct {
	Function uint32 // atom index
	Arity    uint32
	Label    uint32
	Index    uint32
	NumFree  uint32
	OldUniq  uint32
}

// FunctionTable lists lambdas in file order.
type FunctionTable []FunctionItem

// LiteralTable holds external term encodings referenced by Literal operands.
// Blobs are not decoded further.
type LiteralTable [][]byte

// CodeSection is the decoded Code chunk.
type CodeSection struct {
	Labels        LabelMap
	InfoSize      uint32
	Format        uint32
	MaxOpcode     uint32
	LabelCount    uint32 // advisory, not validated
	FunctionCount uint32 // advisory, not validated
}

func (EmptyBody) isBody()     {}
func (RawBody) isBody()       {}
func (AtomTable) isBody()     {}
func (ImportTable) isBody()   {}
func (ExportTable) isBody()   {}
func (FunctionTable) isBody() {}
func (LiteralTable) isBody()  {}
func (*CodeSection) isBody()  {}

// Ast is the decoded container: every chunk in file order.
type Ast struct {
	Chunks []Chunk
}

// Chunk returns the first chunk of the given kind.
func (a *Ast) Chunk(kind ChunkKind) (Chunk, bool) {
	for _, c := range a.Chunks {
		if c.Kind == kind {
			return c, true
		}
	}
	return Chunk{}, false
}

// Atoms returns the atom table, or nil if the container has none.
func (a *Ast) Atoms() AtomTable {
	c, ok := a.Chunk(ChunkAtom)
	if !ok {
		return nil
	}
	t, _ := c.Body.(AtomTable)
	return t
}

// Code returns the decoded code section, or nil if the container has none.
func (a *Ast) Code() *CodeSection {
	c, ok := a.Chunk(ChunkCode)
	if !ok {
		return nil
	}
	cs, _ := c.Body.(*CodeSection)
	return cs
}

// Literals returns the literal table, or nil if the container has none.
func (a *Ast) Literals() LiteralTable {
	c, ok := a.Chunk(ChunkLiteral)
	if !ok {
		return nil
	}
	t, _ := c.Body.(LiteralTable)
	return t
}
