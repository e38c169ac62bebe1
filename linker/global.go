package linker

import (
	"slices"

	"github.com/tetratelabs/wazero/api"

	"github.com/wippyai/wasm-linker/errors"
	"github.com/wippyai/wasm-linker/wasm"
)

// Global is a global variable. Its initial value is set exactly once, either
// from a constant or by copying the value of another global once that one
// is known.
type Global struct {
	node

	// dependents receive this global's value when it is defined.
	dependents []*Global
	// waitingOn is the global this one copies its value from.
	waitingOn *Global

	Type wasm.GlobalType

	bits    uint64
	defined bool
}

// Kind implements Entity.
func (g *Global) Kind() wasm.ExternalKind { return wasm.KindGlobal }

// Defined reports whether the initial value is known.
func (g *Global) Defined() bool { return g.defined }

// Bits returns the raw initial value in wazero's uint64 encoding.
func (g *Global) Bits() (uint64, bool) { return g.bits, g.defined }

// I32 returns the initial value of an i32 global.
func (g *Global) I32() int32 { return api.DecodeI32(g.bits) }

// I64 returns the initial value of an i64 global.
func (g *Global) I64() int64 { return int64(g.bits) }

// F32 returns the initial value of an f32 global.
func (g *Global) F32() float32 { return api.DecodeF32(g.bits) }

// F64 returns the initial value of an f64 global.
func (g *Global) F64() float64 { return api.DecodeF64(g.bits) }

// Define sets the value of g and of every global waiting on it, directly or
// through other globals.
func (g *Global) Define(bits uint64) error {
	if g.defined {
		return errors.MalformedInitializer("global already has a value")
	}
	g.bits, g.defined, g.waitingOn = bits, true, nil

	queue := []*Global{g}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, d := range cur.dependents {
			if d.defined {
				return errors.MalformedInitializer("global already has a value")
			}
			d.bits, d.defined, d.waitingOn = bits, true, nil
			queue = append(queue, d)
		}
		cur.dependents = nil
	}
	return nil
}

// TryDefine applies an evaluated initializer. It reports whether g is now
// defined; when the initializer refers to a global without a value, g is
// registered as its dependent instead.
func (g *Global) TryDefine(v constValue) (bool, error) {
	if v.typ != g.Type.ValType {
		return false, errors.MalformedInitializer("initializer of type %s for global of type %s",
			wasm.ValueTypeName(v.typ), wasm.ValueTypeName(g.Type.ValType))
	}
	if v.ref != nil {
		if err := v.ref.AddDependent(g); err != nil {
			return false, err
		}
		return g.defined, nil
	}
	if err := g.Define(v.bits); err != nil {
		return false, err
	}
	return true, nil
}

// AddDependent makes dep take the value of g. If g is already defined, dep
// is defined immediately.
func (g *Global) AddDependent(dep *Global) error {
	if dep.Type.ValType != g.Type.ValType {
		return errors.MalformedInitializer("global of type %s cannot take the value of a %s global",
			wasm.ValueTypeName(dep.Type.ValType), wasm.ValueTypeName(g.Type.ValType))
	}
	if dep.defined {
		return errors.MalformedInitializer("global already has a value")
	}
	if g.defined {
		return dep.Define(g.bits)
	}
	for cur := g; cur != nil; cur = cur.waitingOn {
		if cur == dep {
			return errors.New(errors.PhaseLink, errors.KindDependencyCycle).
				Detail("global initializers form a cycle").
				Build()
		}
	}
	if dep.waitingOn != nil {
		return errors.MalformedInitializer("global already takes its value from another global")
	}
	dep.waitingOn = g
	g.dependents = append(g.dependents, dep)
	return nil
}

// absorb merges src into g. A value of src becomes the value of g. An
// undefined src hands its dependents and its own source over to g.
func (g *Global) absorb(src *Global) error {
	if src.defined {
		return g.Define(src.bits)
	}

	deps := src.dependents
	src.dependents = nil
	for _, dep := range deps {
		dep.waitingOn = nil
		if err := g.AddDependent(dep); err != nil {
			return err
		}
	}

	if w := src.waitingOn; w != nil {
		w.dependents = slices.DeleteFunc(w.dependents, func(x *Global) bool { return x == src })
		src.waitingOn = nil
		if err := w.AddDependent(g); err != nil {
			return err
		}
	}
	return nil
}

// root returns the global at the end of g's wait chain.
func (g *Global) root() *Global {
	for g.waitingOn != nil {
		g = g.waitingOn
	}
	return g
}
