package linker

import (
	"github.com/wippyai/wasm-linker/errors"
	"github.com/wippyai/wasm-linker/linker/internal/intern"
	"github.com/wippyai/wasm-linker/wasm"
)

// Program is the result of linking: one index space per entity kind shared
// by all modules, with every function body rewritten against those spaces.
type Program struct {
	// Exports maps module name and field name to the exported entity.
	Exports map[string]map[string]Entity
	modules map[string]*module

	// Main is the name of the main module.
	Main string
	// Modules lists module names in link order.
	Modules []string

	// Signatures holds the distinct function types. Function.Sig and the
	// type operand of call_indirect index it.
	Signatures []wasm.FuncType
	Functions  []*Function
	Tables     []*Table
	Memories   []*Memory
	Globals    []*Global

	spaces [wasm.NumKinds]*intern.Interner[Entity]

	// Start is the index of the main module's start function.
	Start uint32
}

// Export returns the entity exported as module.field.
func (p *Program) Export(module, field string) (Entity, bool) {
	e, ok := p.Exports[module][field]
	return e, ok
}

// Signature returns the type of f.
func (p *Program) Signature(f *Function) wasm.FuncType {
	return p.Signatures[f.Sig]
}

// StartFunction returns the main module's start function.
func (p *Program) StartFunction() *Function {
	return p.Functions[p.Start]
}

// Index returns the program-wide index of e.
func (p *Program) Index(e Entity) (uint32, bool) {
	return p.spaces[e.Kind()].Lookup(canonical(e))
}

// Resolve translates a module-local index into a program-wide one.
func (p *Program) Resolve(module string, kind wasm.ExternalKind, index uint32) (uint32, error) {
	m, ok := p.modules[module]
	if !ok {
		return 0, errors.New(errors.PhaseLink, errors.KindInvalidData).
			Detail("no module named %q", module).
			Build()
	}
	if kind >= wasm.NumKinds {
		return 0, errors.InvalidExternalKind(errors.PhaseLink, kind)
	}
	ids := m.remap[kind]
	if uint64(index) >= uint64(len(ids)) {
		return 0, errors.WithContext(errors.OutOfRange(errors.PhaseLink, wasm.KindName(kind), index, len(ids)), module, "")
	}
	return ids[index], nil
}
