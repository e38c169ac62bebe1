package linker

import (
	"fmt"

	"github.com/wippyai/wasm-linker/errors"
	"github.com/wippyai/wasm-linker/wasm"
)

// NoIndex marks an absent program-wide index, such as an empty table slot or
// a function whose module declares no memory.
const NoIndex = ^uint32(0)

// Entity is one declaration in an index space: *Function, *Table, *Memory
// or *Global. Entities are compared by identity. Two modules that import the
// same name hold the same Entity.
type Entity interface {
	// Kind returns the index space the entity belongs to.
	Kind() wasm.ExternalKind
	link() *node
}

// node is the identity bookkeeping shared by all entities.
type node struct {
	// forward is set when the entity was merged into another one.
	forward  Entity
	imported bool
	resolved bool
}

func (n *node) link() *node { return n }

// canonical follows merge links to the entity that represents e.
func canonical(e Entity) Entity {
	for {
		next := e.link().forward
		if next == nil {
			return e
		}
		e = next
	}
}

// Function is a function declaration. Locals and Code are set once, by the
// module that defines the body.
type Function struct {
	node

	// Locals lists the type of every declared local, parameters excluded.
	Locals []wasm.ValueType
	// Code is the linearized body.
	Code []byte
	// Module is the name of the module that defined the body.
	Module string

	// Sig is the program-wide signature id.
	Sig uint32
	// Memory and Table are the program-wide indices of the defining module's
	// memory 0 and table 0, or NoIndex.
	Memory uint32
	Table  uint32

	defined bool
}

func newFunction(sig uint32) *Function {
	return &Function{Sig: sig, Memory: NoIndex, Table: NoIndex}
}

// Kind implements Entity.
func (f *Function) Kind() wasm.ExternalKind { return wasm.KindFunction }

// Defined reports whether the body has been set.
func (f *Function) Defined() bool { return f.defined }

// Define sets the locals and body of f. It fails if f already has a body.
func (f *Function) Define(locals []wasm.ValueType, code []byte) error {
	if f.defined {
		return errors.New(errors.PhaseLink, errors.KindInvalidData).
			Detail("function body defined twice").
			Build()
	}
	f.Locals = locals
	f.Code = code
	f.defined = true
	return nil
}

// Table is a table of function references.
type Table struct {
	node

	// Elements holds the function in each slot, nil when empty.
	Elements []*Function
	// Indices holds the program-wide function index of each slot, NoIndex
	// when empty. It is filled once index spaces are merged.
	Indices []uint32

	Type wasm.TableType
}

// Kind implements Entity.
func (t *Table) Kind() wasm.ExternalKind { return wasm.KindTable }

// Memory is a linear memory.
type Memory struct {
	node

	// Data is the initial contents, Type.Min pages long.
	Data []byte

	written []span
	Type    wasm.MemoryType
}

// Kind implements Entity.
func (m *Memory) Kind() wasm.ExternalKind { return wasm.KindMemory }

// sameType reports whether a and b have the same kind and equal types.
func sameType(a, b Entity) bool {
	switch x := a.(type) {
	case *Function:
		y, ok := b.(*Function)
		return ok && x.Sig == y.Sig
	case *Table:
		y, ok := b.(*Table)
		return ok && x.Type == y.Type
	case *Memory:
		y, ok := b.(*Memory)
		return ok && x.Type == y.Type
	case *Global:
		y, ok := b.(*Global)
		return ok && x.Type == y.Type
	}
	return false
}

// assignFrom merges src into dst. dst keeps its identity and storage and
// takes over src's state: a function body, written table slots and memory
// segments, or a global value. src forwards to dst afterwards.
func assignFrom(dst, src Entity) error {
	if dst == src {
		return nil
	}
	if !sameType(dst, src) {
		return errors.New(errors.PhaseLink, errors.KindImportTypeMismatch).
			Detail("%s does not match %s", describe(dst), describe(src)).
			Build()
	}

	switch d := dst.(type) {
	case *Function:
		s := src.(*Function)
		if s.defined {
			if err := d.Define(s.Locals, s.Code); err != nil {
				return err
			}
			d.Module, d.Memory, d.Table = s.Module, s.Memory, s.Table
		}
	case *Table:
		s := src.(*Table)
		for i, f := range s.Elements {
			if f == nil {
				continue
			}
			if d.Elements[i] != nil {
				return errors.New(errors.PhaseLink, errors.KindSegmentOverlap).
					Detail("table slot %d initialized by both declarations", i).
					Build()
			}
			d.Elements[i] = f
		}
	case *Memory:
		s := src.(*Memory)
		for _, sp := range s.written {
			if err := d.InitSegment(uint32(sp.start), s.Data[sp.start:sp.end]); err != nil {
				return err
			}
		}
	case *Global:
		if err := d.absorb(src.(*Global)); err != nil {
			return err
		}
	}

	src.link().forward = dst
	return nil
}

// describe renders the kind and type of e for error messages.
func describe(e Entity) string {
	switch x := e.(type) {
	case *Function:
		return fmt.Sprintf("func (signature %d)", x.Sig)
	case *Table:
		return "table " + limitsString(x.Type.Limits)
	case *Memory:
		return "memory " + limitsString(x.Type)
	case *Global:
		mut := "const"
		if x.Type.Mutable {
			mut = "mut"
		}
		return fmt.Sprintf("global %s %s", mut, wasm.ValueTypeName(x.Type.ValType))
	}
	return fmt.Sprintf("%T", e)
}

func limitsString(l wasm.Limits) string {
	if l.HasMax {
		return fmt.Sprintf("{min %d, max %d}", l.Min, l.Max)
	}
	return fmt.Sprintf("{min %d}", l.Min)
}
