package linker

import (
	"github.com/wippyai/wasm-linker/errors"
	"github.com/wippyai/wasm-linker/transcoder"
	"github.com/wippyai/wasm-linker/wasm"
)

// module is the per-module link state.
type module struct {
	def *wasm.Module

	// importRefs lists the names this module imports, in file order.
	importRefs []importRef

	// exported holds the field names this module has exported.
	exported map[string]bool

	name string

	// sigs maps type section indices to program-wide signature ids.
	sigs []uint32
	// spaces are the module-local index spaces, imports first.
	spaces [wasm.NumKinds][]Entity
	// remap maps module-local indices to program-wide ones. It is filled
	// by mapModules.
	remap [wasm.NumKinds][]uint32
	// imports counts the imported entities of each kind.
	imports [wasm.NumKinds]uint32

	main bool
}

type importRef struct {
	module, field string
}

func newModule(def *wasm.Module, main bool) *module {
	return &module{
		def:      def,
		name:     def.Name,
		main:     main,
		exported: make(map[string]bool),
	}
}

// entity returns the canonical entity at idx in the kind's index space.
func (m *module) entity(kind wasm.ExternalKind, idx uint32) (Entity, error) {
	space := m.spaces[kind]
	if uint64(idx) >= uint64(len(space)) {
		return nil, errors.OutOfRange(errors.PhaseLink, wasm.KindName(kind), idx, len(space))
	}
	return canonical(space[idx]), nil
}

func (m *module) function(idx uint32) (*Function, error) {
	e, err := m.entity(wasm.KindFunction, idx)
	if err != nil {
		return nil, err
	}
	return e.(*Function), nil
}

func (m *module) table(idx uint32) (*Table, error) {
	e, err := m.entity(wasm.KindTable, idx)
	if err != nil {
		return nil, err
	}
	return e.(*Table), nil
}

func (m *module) memory(idx uint32) (*Memory, error) {
	e, err := m.entity(wasm.KindMemory, idx)
	if err != nil {
		return nil, err
	}
	return e.(*Memory), nil
}

func (m *module) global(idx uint32) (*Global, error) {
	e, err := m.entity(wasm.KindGlobal, idx)
	if err != nil {
		return nil, err
	}
	return e.(*Global), nil
}

// signature returns the program-wide signature id of a type index.
func (m *module) signature(typeIdx uint32) (uint32, error) {
	if uint64(typeIdx) >= uint64(len(m.sigs)) {
		return 0, errors.OutOfRange(errors.PhaseLink, "type", typeIdx, len(m.sigs))
	}
	return m.sigs[typeIdx], nil
}

func (m *module) addImport(e Entity) {
	k := e.Kind()
	m.spaces[k] = append(m.spaces[k], e)
	m.imports[k]++
}

// beginDeclarations checks that only imports precede the first local
// declaration of kind.
func (m *module) beginDeclarations(kind wasm.ExternalKind) error {
	if have := len(m.spaces[kind]); have != int(m.imports[kind]) {
		return errors.New(errors.PhaseLink, errors.KindCountMismatch).
			Detail("%s index space has %d entries before local declarations, want %d imports",
				wasm.KindName(kind), have, m.imports[kind]).
			Build()
	}
	return nil
}

func (m *module) declare(e Entity) {
	k := e.Kind()
	m.spaces[k] = append(m.spaces[k], e)
}

// localFunctions returns the number of functions this module defines.
func (m *module) localFunctions() int {
	return len(m.spaces[wasm.KindFunction]) - int(m.imports[wasm.KindFunction])
}

// transcoderRemap returns the tables used to rewrite this module's code.
func (m *module) transcoderRemap() *transcoder.Remap {
	return &transcoder.Remap{
		Signatures: m.sigs,
		Functions:  m.remap[wasm.KindFunction],
		Tables:     m.remap[wasm.KindTable],
		Memories:   m.remap[wasm.KindMemory],
		Globals:    m.remap[wasm.KindGlobal],
	}
}

// defaultIndex returns the program-wide index of entity 0 of kind, or
// NoIndex when the module has none.
func (m *module) defaultIndex(kind wasm.ExternalKind) uint32 {
	if len(m.remap[kind]) == 0 {
		return NoIndex
	}
	return m.remap[kind][0]
}
