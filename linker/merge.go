package linker

import (
	"go.uber.org/zap"

	"github.com/wippyai/wasm-linker/errors"
	"github.com/wippyai/wasm-linker/linker/internal/intern"
	"github.com/wippyai/wasm-linker/wasm"
)

// mapModules numbers every canonical entity of the program, module by
// module with the main module first, and fills each module's remap tables.
// Table slots are translated to program-wide function indices afterwards,
// since element segments hold entities until the merge is done.
func (l *linker) mapModules() (*Program, error) {
	var spaces [wasm.NumKinds]*intern.Interner[Entity]
	for k := range spaces {
		spaces[k] = intern.New[Entity]()
	}

	for _, m := range l.modules {
		for k, space := range m.spaces {
			ids := make([]uint32, len(space))
			for i, e := range space {
				ids[i] = spaces[k].Intern(canonical(e))
			}
			m.remap[k] = ids
		}
	}

	main := l.modules[0]
	p := &Program{
		Main:    main.name,
		Start:   main.remap[wasm.KindFunction][l.start],
		Exports: make(map[string]map[string]Entity),
		spaces:  spaces,
		modules: l.byName,
	}
	for _, m := range l.modules {
		p.Modules = append(p.Modules, m.name)
	}
	for _, key := range l.sigs.Keys() {
		p.Signatures = append(p.Signatures, key.Signature())
	}
	for _, e := range spaces[wasm.KindFunction].Keys() {
		p.Functions = append(p.Functions, e.(*Function))
	}
	for _, e := range spaces[wasm.KindTable].Keys() {
		p.Tables = append(p.Tables, e.(*Table))
	}
	for _, e := range spaces[wasm.KindMemory].Keys() {
		p.Memories = append(p.Memories, e.(*Memory))
	}
	for _, e := range spaces[wasm.KindGlobal].Keys() {
		p.Globals = append(p.Globals, e.(*Global))
	}

	funcs := spaces[wasm.KindFunction]
	for ti, t := range p.Tables {
		t.Indices = make([]uint32, len(t.Elements))
		for i, f := range t.Elements {
			if f == nil {
				t.Indices[i] = NoIndex
				continue
			}
			id, ok := funcs.Lookup(canonical(f))
			if !ok {
				return nil, errors.New(errors.PhaseLink, errors.KindIndexOutOfRange).
					Detail("table %d slot %d holds a function outside the program", ti, i).
					Build()
			}
			t.Indices[i] = id
		}
	}

	for mod, fields := range l.exports {
		for field, b := range fields {
			if !b.exported {
				continue
			}
			if p.Exports[mod] == nil {
				p.Exports[mod] = make(map[string]Entity)
			}
			p.Exports[mod][field] = canonical(b.entity)
		}
	}

	l.log.Debug("index spaces merged",
		zap.Int("signatures", len(p.Signatures)),
		zap.Int("functions", len(p.Functions)),
		zap.Int("tables", len(p.Tables)),
		zap.Int("memories", len(p.Memories)),
		zap.Int("globals", len(p.Globals)))
	return p, nil
}
