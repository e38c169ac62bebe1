// Package wasmtest builds MVP binary modules in memory for tests and tools.
//
// A Builder describes a module declaratively and encodes it with Bytes.
// Sections with no entries are omitted. Raw sections can be injected to
// produce malformed modules.
package wasmtest

import (
	"github.com/wippyai/wasm-linker/wasm"
)

// Import is an import entry. Only the field matching Kind is encoded.
type Import struct {
	Module    string
	Field     string
	Kind      wasm.ExternalKind
	TypeIndex uint32
	Table     wasm.TableType
	Memory    wasm.MemoryType
	Global    wasm.GlobalType
}

// Export is an export entry.
type Export struct {
	Field string
	Kind  wasm.ExternalKind
	Index uint32
}

// Global is a global definition. Init is a complete constant expression
// including its end opcode.
type Global struct {
	Type wasm.GlobalType
	Init []byte
}

// Element is an element segment.
type Element struct {
	Table  uint32
	Offset []byte
	Funcs  []uint32
}

// Data is a data segment.
type Data struct {
	Memory uint32
	Offset []byte
	Bytes  []byte
}

// Locals is a run of Count locals of the same type.
type Locals struct {
	Count uint32
	Type  wasm.ValueType
}

// Body is a function body. Code must end with the end opcode.
type Body struct {
	Locals []Locals
	Code   []byte
}

// Custom is a custom section emitted right after the known section After
// (or directly after the header when After is SectionCustom).
type Custom struct {
	Name    string
	Payload []byte
	After   wasm.SectionID
}

// Builder describes a module.
type Builder struct {
	Types    []wasm.FuncType
	Imports  []Import
	Funcs    []uint32
	Tables   []wasm.TableType
	Memories []wasm.MemoryType
	Globals  []Global
	Exports  []Export
	Start    *uint32
	Elements []Element
	Code     []Body
	Data     []Data
	Customs  []Custom
}

// StartAt returns a pointer for Builder.Start.
func StartAt(idx uint32) *uint32 {
	return &idx
}

// Bytes encodes the module.
func (b *Builder) Bytes() []byte {
	w := &Writer{}
	w.WriteBytes(Header())
	b.customs(w, wasm.SectionCustom)

	b.section(w, wasm.SectionType, len(b.Types), func(s *Writer, i int) {
		writeFuncType(s, b.Types[i])
	})
	b.section(w, wasm.SectionImport, len(b.Imports), func(s *Writer, i int) {
		imp := b.Imports[i]
		s.Name(imp.Module).Name(imp.Field).Byte(imp.Kind)
		switch imp.Kind {
		case wasm.KindFunction:
			s.U32(imp.TypeIndex)
		case wasm.KindTable:
			writeTableType(s, imp.Table)
		case wasm.KindMemory:
			writeLimits(s, imp.Memory)
		case wasm.KindGlobal:
			writeGlobalType(s, imp.Global)
		}
	})
	b.section(w, wasm.SectionFunction, len(b.Funcs), func(s *Writer, i int) {
		s.U32(b.Funcs[i])
	})
	b.section(w, wasm.SectionTable, len(b.Tables), func(s *Writer, i int) {
		writeTableType(s, b.Tables[i])
	})
	b.section(w, wasm.SectionMemory, len(b.Memories), func(s *Writer, i int) {
		writeLimits(s, b.Memories[i])
	})
	b.section(w, wasm.SectionGlobal, len(b.Globals), func(s *Writer, i int) {
		writeGlobalType(s, b.Globals[i].Type)
		s.WriteBytes(b.Globals[i].Init)
	})
	b.section(w, wasm.SectionExport, len(b.Exports), func(s *Writer, i int) {
		e := b.Exports[i]
		s.Name(e.Field).Byte(e.Kind).U32(e.Index)
	})
	if b.Start != nil {
		w.WriteBytes(Section(wasm.SectionStart, wasm.AppendUnsigned(nil, uint64(*b.Start))))
	}
	b.customs(w, wasm.SectionStart)
	b.section(w, wasm.SectionElement, len(b.Elements), func(s *Writer, i int) {
		e := b.Elements[i]
		s.U32(e.Table).WriteBytes(e.Offset).U32(uint32(len(e.Funcs)))
		for _, f := range e.Funcs {
			s.U32(f)
		}
	})
	b.section(w, wasm.SectionCode, len(b.Code), func(s *Writer, i int) {
		s.Vec(EncodeBody(b.Code[i]))
	})
	b.section(w, wasm.SectionData, len(b.Data), func(s *Writer, i int) {
		d := b.Data[i]
		s.U32(d.Memory).WriteBytes(d.Offset).Vec(d.Bytes)
	})
	return w.Bytes()
}

func (b *Builder) section(w *Writer, id wasm.SectionID, n int, entry func(s *Writer, i int)) {
	if n > 0 {
		s := &Writer{}
		s.U32(uint32(n))
		for i := 0; i < n; i++ {
			entry(s, i)
		}
		w.WriteBytes(Section(id, s.Bytes()))
	}
	b.customs(w, id)
}

func (b *Builder) customs(w *Writer, after wasm.SectionID) {
	for _, c := range b.Customs {
		if c.After == after {
			w.WriteBytes(CustomSection(c.Name, c.Payload))
		}
	}
}

// EncodeBody encodes a function body without its size prefix.
func EncodeBody(body Body) []byte {
	s := &Writer{}
	s.U32(uint32(len(body.Locals)))
	for _, l := range body.Locals {
		s.U32(l.Count).Byte(l.Type)
	}
	s.WriteBytes(body.Code)
	return s.Bytes()
}

func writeFuncType(s *Writer, ft wasm.FuncType) {
	s.Byte(wasm.FuncTypeForm).U32(uint32(len(ft.Params))).WriteBytes(ft.Params)
	s.U32(uint32(len(ft.Results))).WriteBytes(ft.Results)
}

func writeLimits(s *Writer, l wasm.Limits) {
	if l.HasMax {
		s.Byte(1).U32(l.Min).U32(l.Max)
		return
	}
	s.Byte(0).U32(l.Min)
}

func writeTableType(s *Writer, t wasm.TableType) {
	elem := t.ElemType
	if elem == 0 {
		elem = wasm.ElemTypeAnyFunc
	}
	s.Byte(elem)
	writeLimits(s, t.Limits)
}

func writeGlobalType(s *Writer, g wasm.GlobalType) {
	mut := byte(0)
	if g.Mutable {
		mut = 1
	}
	s.Byte(g.ValType, mut)
}

// Header returns the 8-byte module header.
func Header() []byte {
	w := &Writer{}
	return w.U32LE(wasm.Magic).U32LE(wasm.Version).Bytes()
}

// Section encodes a known section with the given payload.
func Section(id wasm.SectionID, payload []byte) []byte {
	w := &Writer{}
	return w.Byte(byte(id)).Vec(payload).Bytes()
}

// CustomSection encodes a custom section. The payload length covers the
// name as well as payload.
func CustomSection(name string, payload []byte) []byte {
	body := &Writer{}
	body.Name(name).WriteBytes(payload)
	return Section(wasm.SectionCustom, body.Bytes())
}

// Module concatenates the header and the given encoded sections.
func Module(sections ...[]byte) []byte {
	w := &Writer{}
	w.WriteBytes(Header())
	for _, s := range sections {
		w.WriteBytes(s)
	}
	return w.Bytes()
}
