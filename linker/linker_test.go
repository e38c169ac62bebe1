package linker_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tetratelabs/wazero"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/wippyai/wasm-linker/errors"
	"github.com/wippyai/wasm-linker/linker"
	"github.com/wippyai/wasm-linker/wasm"
	"github.com/wippyai/wasm-linker/wasm/wasmtest"
)

var (
	i32      = []wasm.ValueType{wasm.ValueTypeI32}
	voidType = wasm.FuncType{}
	i32ToI32 = wasm.FuncType{Params: i32, Results: i32}
	constI32 = wasm.GlobalType{ValType: wasm.ValueTypeI32}
	anyfunc  = func(size uint32) wasm.TableType {
		return wasm.TableType{ElemType: wasm.ElemTypeAnyFunc, Limits: wasm.Limits{Min: size}}
	}
)

func endBody() wasmtest.Body {
	return wasmtest.Body{Code: wasmtest.Op(wasm.OpEnd)}
}

// valid encodes b and checks that wazero accepts it.
func valid(t *testing.T, b *wasmtest.Builder) []byte {
	t.Helper()
	bin := b.Bytes()
	ctx := context.Background()
	rt := wazero.NewRuntimeWithConfig(ctx, wazero.NewRuntimeConfigInterpreter())
	defer rt.Close(ctx)
	_, err := rt.CompileModule(ctx, bin)
	require.NoError(t, err, "fixture must be a valid module")
	return bin
}

func link(t *testing.T, opts linker.Options, inputs ...linker.Input) (*linker.Program, error) {
	t.Helper()
	return linker.Link(inputs, opts)
}

func libDouble(t *testing.T) []byte {
	return valid(t, &wasmtest.Builder{
		Types:   []wasm.FuncType{i32ToI32},
		Funcs:   []uint32{0},
		Exports: []wasmtest.Export{{Field: "double", Kind: wasm.KindFunction, Index: 0}},
		Code: []wasmtest.Body{{Code: wasmtest.Code(
			wasmtest.Op(wasm.OpLocalGet, 0),
			wasmtest.Op(wasm.OpLocalGet, 0),
			wasmtest.Op(wasm.OpI32Add),
			wasmtest.Op(wasm.OpEnd),
		)}},
	})
}

func mainCallsDouble(t *testing.T) []byte {
	return valid(t, &wasmtest.Builder{
		Types:   []wasm.FuncType{voidType, i32ToI32},
		Imports: []wasmtest.Import{{Module: "lib", Field: "double", Kind: wasm.KindFunction, TypeIndex: 1}},
		Funcs:   []uint32{0},
		Start:   wasmtest.StartAt(1),
		Code: []wasmtest.Body{{
			Locals: []wasmtest.Locals{{Count: 2, Type: wasm.ValueTypeI64}, {Count: 1, Type: wasm.ValueTypeF32}},
			Code: wasmtest.Code(
				wasmtest.Op(wasm.OpI32Const, 21),
				wasmtest.Op(wasm.OpCall, 0),
				wasmtest.Op(wasm.OpDrop),
				wasmtest.Op(wasm.OpEnd),
			),
		}},
	})
}

func TestLink_TwoModules(t *testing.T) {
	p, err := link(t, linker.DefaultOptions(),
		linker.Input{Name: "main", Data: mainCallsDouble(t)},
		linker.Input{Name: "lib", Data: libDouble(t)},
	)
	require.NoError(t, err)

	require.Equal(t, "main", p.Main)
	require.Equal(t, []string{"main", "lib"}, p.Modules)
	// one function exported by lib plus main's own function
	require.Len(t, p.Functions, 2)
	require.Less(t, int(p.Start), len(p.Functions))
	require.Equal(t, uint32(1), p.Start)
	require.Len(t, p.Signatures, 2)

	start := p.StartFunction()
	require.Equal(t, "main", start.Module)
	require.Equal(t, voidType.Key(), p.Signature(start).Key())
	require.Equal(t, []wasm.ValueType{wasm.ValueTypeI64, wasm.ValueTypeI64, wasm.ValueTypeF32}, start.Locals)
	require.Equal(t, []byte{
		0x41, 21, 0, 0, 0,
		0x10, 0, 0, 0, 0,
		0x1a,
		0x0b,
	}, start.Code)

	double := p.Functions[0]
	require.True(t, double.Defined())
	require.Equal(t, "lib", double.Module)
	require.Equal(t, i32ToI32.Key(), p.Signature(double).Key())
	require.Equal(t, []byte{
		0x20, 0, 0, 0, 0,
		0x20, 0, 0, 0, 0,
		0x6a,
		0x0b,
	}, double.Code)

	exported, ok := p.Export("lib", "double")
	require.True(t, ok)
	require.Same(t, double, exported)

	idx, err := p.Resolve("lib", wasm.KindFunction, 0)
	require.NoError(t, err)
	require.Equal(t, uint32(0), idx)
	got, ok := p.Index(double)
	require.True(t, ok)
	require.Equal(t, uint32(0), got)
}

func TestLink_SharedImportFromLaterModule(t *testing.T) {
	user := valid(t, &wasmtest.Builder{
		Types:   []wasm.FuncType{i32ToI32},
		Imports: []wasmtest.Import{{Module: "lib", Field: "double", Kind: wasm.KindFunction, TypeIndex: 0}},
		Exports: []wasmtest.Export{{Field: "twice", Kind: wasm.KindFunction, Index: 0}},
	})

	p, err := link(t, linker.DefaultOptions(),
		linker.Input{Name: "main", Data: mainCallsDouble(t)},
		linker.Input{Name: "lib", Data: libDouble(t)},
		linker.Input{Name: "user", Data: user},
	)
	require.NoError(t, err)
	require.Len(t, p.Functions, 2)

	double, _ := p.Export("lib", "double")
	twice, _ := p.Export("user", "twice")
	require.Same(t, double, twice)

	for _, mod := range []string{"main", "user"} {
		idx, err := p.Resolve(mod, wasm.KindFunction, 0)
		require.NoError(t, err)
		require.Equal(t, uint32(0), idx, mod)
	}
}

func TestLink_TablesAndCallIndirect(t *testing.T) {
	main := valid(t, &wasmtest.Builder{
		Types:  []wasm.FuncType{voidType},
		Funcs:  []uint32{0, 0},
		Tables: []wasm.TableType{anyfunc(4)},
		Start:  wasmtest.StartAt(0),
		Elements: []wasmtest.Element{
			{Table: 0, Offset: wasmtest.I32Const(1), Funcs: []uint32{1, 0}},
		},
		Code: []wasmtest.Body{
			{Code: wasmtest.Code(
				wasmtest.Op(wasm.OpI32Const, 0),
				wasmtest.Op(wasm.OpCallIndirect, 0, 0),
				wasmtest.Op(wasm.OpEnd),
			)},
			endBody(),
		},
	})

	p, err := link(t, linker.DefaultOptions(), linker.Input{Name: "main", Data: main})
	require.NoError(t, err)
	require.Len(t, p.Tables, 1)
	require.Equal(t, []uint32{linker.NoIndex, 1, 0, linker.NoIndex}, p.Tables[0].Indices)

	fn := p.Functions[0]
	require.Equal(t, uint32(0), fn.Table)
	require.Equal(t, linker.NoIndex, fn.Memory)
	require.Equal(t, []byte{
		0x41, 0, 0, 0, 0,
		0x11, 0, 0, 0, 0, 0, 0, 0, 0,
		0x0b,
	}, fn.Code)
}

func TestLink_SharedMemory(t *testing.T) {
	env := valid(t, &wasmtest.Builder{
		Memories: []wasm.MemoryType{{Min: 1}},
		Exports:  []wasmtest.Export{{Field: "memory", Kind: wasm.KindMemory, Index: 0}},
	})
	importMemory := wasmtest.Import{Module: "env", Field: "memory", Kind: wasm.KindMemory, Memory: wasm.MemoryType{Min: 1}}
	a := valid(t, &wasmtest.Builder{
		Types:   []wasm.FuncType{voidType},
		Imports: []wasmtest.Import{importMemory},
		Funcs:   []uint32{0},
		Start:   wasmtest.StartAt(0),
		Code:    []wasmtest.Body{endBody()},
		Data:    []wasmtest.Data{{Memory: 0, Offset: wasmtest.I32Const(0), Bytes: []byte("hi")}},
	})
	b := func(offset int32) []byte {
		return valid(t, &wasmtest.Builder{
			Imports: []wasmtest.Import{importMemory},
			Data:    []wasmtest.Data{{Memory: 0, Offset: wasmtest.I32Const(offset), Bytes: []byte("yo")}},
		})
	}

	p, err := link(t, linker.DefaultOptions(),
		linker.Input{Name: "a", Data: a},
		linker.Input{Name: "b", Data: b(8)},
		linker.Input{Name: "env", Data: env},
	)
	require.NoError(t, err)
	require.Len(t, p.Memories, 1)

	mem := p.Memories[0]
	require.Equal(t, []byte("hi"), mem.Data[0:2])
	require.Equal(t, []byte("yo"), mem.Data[8:10])
	exported, _ := p.Export("env", "memory")
	require.Same(t, mem, exported)
	for _, mod := range []string{"a", "b", "env"} {
		idx, err := p.Resolve(mod, wasm.KindMemory, 0)
		require.NoError(t, err)
		require.Equal(t, uint32(0), idx)
	}
	require.Equal(t, uint32(0), p.StartFunction().Memory)

	_, err = link(t, linker.DefaultOptions(),
		linker.Input{Name: "a", Data: a},
		linker.Input{Name: "b", Data: b(1)},
		linker.Input{Name: "env", Data: env},
	)
	require.ErrorIs(t, err, errors.ErrSegmentOverlap)
	var e *errors.Error
	require.ErrorAs(t, err, &e)
	require.Equal(t, "b", e.Module)
	require.Equal(t, "Data", e.Section)
}

func globalModules(t *testing.T) (main, env, base, late []byte) {
	importGlobal := func(mod, field string) wasmtest.Import {
		return wasmtest.Import{Module: mod, Field: field, Kind: wasm.KindGlobal, Global: constI32}
	}
	main = valid(t, &wasmtest.Builder{
		Types:   []wasm.FuncType{voidType},
		Imports: []wasmtest.Import{importGlobal("env", "g")},
		Funcs:   []uint32{0},
		Globals: []wasmtest.Global{{Type: constI32, Init: wasmtest.GlobalGet(0)}},
		Start:   wasmtest.StartAt(0),
		Code:    []wasmtest.Body{endBody()},
	})
	env = valid(t, &wasmtest.Builder{
		Imports: []wasmtest.Import{importGlobal("base", "v")},
		Globals: []wasmtest.Global{{Type: constI32, Init: wasmtest.GlobalGet(0)}},
		Exports: []wasmtest.Export{{Field: "g", Kind: wasm.KindGlobal, Index: 1}},
	})
	base = valid(t, &wasmtest.Builder{
		Globals: []wasmtest.Global{{Type: constI32, Init: wasmtest.I32Const(7)}},
		Exports: []wasmtest.Export{{Field: "v", Kind: wasm.KindGlobal, Index: 0}},
	})
	late = valid(t, &wasmtest.Builder{
		Imports: []wasmtest.Import{importGlobal("env", "g")},
		Globals: []wasmtest.Global{{Type: constI32, Init: wasmtest.GlobalGet(0)}},
	})
	return main, env, base, late
}

func TestLink_GlobalInitializersResolveInAnyOrder(t *testing.T) {
	main, env, base, late := globalModules(t)
	p, err := link(t, linker.DefaultOptions(),
		linker.Input{Name: "main", Data: main},
		linker.Input{Name: "env", Data: env},
		linker.Input{Name: "base", Data: base},
		linker.Input{Name: "late", Data: late},
	)
	require.NoError(t, err)

	// main's global was read before any value existed, late's after
	for _, mod := range []string{"main", "late"} {
		idx, err := p.Resolve(mod, wasm.KindGlobal, 1)
		require.NoError(t, err)
		g := p.Globals[idx]
		require.True(t, g.Defined(), mod)
		require.Equal(t, int32(7), g.I32(), mod)
	}
	for _, g := range p.Globals {
		require.True(t, g.Defined())
	}
	require.Len(t, p.Globals, 4)
}

func TestLink_GlobalCycle(t *testing.T) {
	a := valid(t, &wasmtest.Builder{
		Types:   []wasm.FuncType{voidType},
		Imports: []wasmtest.Import{{Module: "b", Field: "y", Kind: wasm.KindGlobal, Global: constI32}},
		Funcs:   []uint32{0},
		Globals: []wasmtest.Global{{Type: constI32, Init: wasmtest.GlobalGet(0)}},
		Exports: []wasmtest.Export{{Field: "x", Kind: wasm.KindGlobal, Index: 1}},
		Start:   wasmtest.StartAt(0),
		Code:    []wasmtest.Body{endBody()},
	})
	b := valid(t, &wasmtest.Builder{
		Imports: []wasmtest.Import{{Module: "a", Field: "x", Kind: wasm.KindGlobal, Global: constI32}},
		Globals: []wasmtest.Global{{Type: constI32, Init: wasmtest.GlobalGet(0)}},
		Exports: []wasmtest.Export{{Field: "y", Kind: wasm.KindGlobal, Index: 1}},
	})

	_, err := link(t, linker.DefaultOptions(),
		linker.Input{Name: "a", Data: a},
		linker.Input{Name: "b", Data: b},
	)
	require.ErrorIs(t, err, errors.ErrDependencyCycle)
}

func TestLink_UnresolvedImports(t *testing.T) {
	main := valid(t, &wasmtest.Builder{
		Types: []wasm.FuncType{voidType},
		Imports: []wasmtest.Import{
			{Module: "host", Field: "log", Kind: wasm.KindFunction, TypeIndex: 0},
			{Module: "host", Field: "seed", Kind: wasm.KindGlobal, Global: constI32},
		},
		Funcs:   []uint32{0},
		Globals: []wasmtest.Global{{Type: constI32, Init: wasmtest.GlobalGet(0)}},
		Start:   wasmtest.StartAt(1),
		Code:    []wasmtest.Body{endBody()},
	})

	_, err := link(t, linker.DefaultOptions(), linker.Input{Name: "main", Data: main})
	require.ErrorIs(t, err, errors.ErrUnresolvedImport)
	var e *errors.Error
	require.ErrorAs(t, err, &e)
	require.Equal(t, "main", e.Module)
	require.Equal(t, []string{"host.log"}, e.Path)

	opts := linker.DefaultOptions()
	opts.RequireResolvedImports = false
	p, err := link(t, opts, linker.Input{Name: "main", Data: main})
	require.NoError(t, err)
	require.False(t, p.Functions[0].Defined())
	require.False(t, p.Globals[1].Defined(), "left for the host to supply")
}

func TestLink_StrictGlobalInitializers(t *testing.T) {
	main := &wasmtest.Builder{
		Types: []wasm.FuncType{voidType},
		Funcs: []uint32{0},
		Globals: []wasmtest.Global{
			{Type: constI32, Init: wasmtest.I32Const(3)},
			{Type: constI32, Init: wasmtest.GlobalGet(0)},
		},
		Start: wasmtest.StartAt(0),
		Code:  []wasmtest.Body{endBody()},
	}

	_, err := link(t, linker.DefaultOptions(), linker.Input{Name: "main", Data: main.Bytes()})
	require.ErrorIs(t, err, errors.ErrMalformedInitializer)

	opts := linker.DefaultOptions()
	opts.StrictGlobalInitializers = false
	p, err := link(t, opts, linker.Input{Name: "main", Data: main.Bytes()})
	require.NoError(t, err)
	require.Equal(t, int32(3), p.Globals[1].I32())
}

func TestLink_SegmentOffsetNeedsValue(t *testing.T) {
	main := valid(t, &wasmtest.Builder{
		Types:    []wasm.FuncType{voidType},
		Imports:  []wasmtest.Import{{Module: "env", Field: "base", Kind: wasm.KindGlobal, Global: constI32}},
		Funcs:    []uint32{0},
		Tables:   []wasm.TableType{anyfunc(2)},
		Start:    wasmtest.StartAt(0),
		Elements: []wasmtest.Element{{Table: 0, Offset: wasmtest.GlobalGet(0), Funcs: []uint32{0}}},
		Code:     []wasmtest.Body{endBody()},
	})
	env := valid(t, &wasmtest.Builder{
		Globals: []wasmtest.Global{{Type: constI32, Init: wasmtest.I32Const(1)}},
		Exports: []wasmtest.Export{{Field: "base", Kind: wasm.KindGlobal, Index: 0}},
	})

	_, err := link(t, linker.DefaultOptions(),
		linker.Input{Name: "main", Data: main},
		linker.Input{Name: "env", Data: env},
	)
	require.ErrorIs(t, err, errors.ErrMalformedInitializer)
	var e *errors.Error
	require.ErrorAs(t, err, &e)
	require.Equal(t, "Element", e.Section)
}

func TestLink_Errors(t *testing.T) {
	// start adds a void type at index 0 and a start function using it
	start := func(b wasmtest.Builder) wasmtest.Builder {
		imported := 0
		for _, imp := range b.Imports {
			if imp.Kind == wasm.KindFunction {
				imported++
			}
		}
		b.Types = append([]wasm.FuncType{voidType}, b.Types...)
		b.Funcs = append(b.Funcs, 0)
		b.Start = wasmtest.StartAt(uint32(imported + len(b.Funcs) - 1))
		b.Code = append(b.Code, endBody())
		return b
	}
	mod := func(b wasmtest.Builder) []byte { return b.Bytes() }

	tests := []struct {
		name   string
		inputs []linker.Input
		want   error
	}{
		{
			name: "no start section",
			inputs: []linker.Input{{Name: "main", Data: mod(wasmtest.Builder{
				Types: []wasm.FuncType{voidType}, Funcs: []uint32{0}, Code: []wasmtest.Body{endBody()},
			})}},
			want: errors.ErrMissingStartFunction,
		},
		{
			name:   "no inputs",
			inputs: nil,
			want:   errors.ErrMissingStartFunction,
		},
		{
			name: "start with parameters",
			inputs: []linker.Input{{Name: "main", Data: mod(wasmtest.Builder{
				Types: []wasm.FuncType{{Params: i32}}, Funcs: []uint32{0},
				Start: wasmtest.StartAt(0), Code: []wasmtest.Body{endBody()},
			})}},
			want: errors.ErrInvalidData,
		},
		{
			name: "import type mismatch",
			inputs: []linker.Input{
				{Name: "main", Data: mod(start(wasmtest.Builder{
					Imports: []wasmtest.Import{{Module: "lib", Field: "double", Kind: wasm.KindFunction, TypeIndex: 0}},
				}))},
				{Name: "lib", Data: libDouble(t)},
			},
			want: errors.ErrImportTypeMismatch,
		},
		{
			name: "imports disagree",
			inputs: []linker.Input{{Name: "main", Data: mod(start(wasmtest.Builder{
				Imports: []wasmtest.Import{
					{Module: "env", Field: "memory", Kind: wasm.KindMemory, Memory: wasm.MemoryType{Min: 1}},
					{Module: "env", Field: "memory", Kind: wasm.KindMemory, Memory: wasm.MemoryType{Min: 2}},
				},
			}))}},
			want: errors.ErrImportTypeMismatch,
		},
		{
			name: "duplicate export",
			inputs: []linker.Input{{Name: "main", Data: mod(start(wasmtest.Builder{
				Exports: []wasmtest.Export{
					{Field: "f", Kind: wasm.KindFunction, Index: 0},
					{Field: "f", Kind: wasm.KindFunction, Index: 0},
				},
			}))}},
			want: errors.ErrDuplicateExport,
		},
		{
			name: "missing body",
			inputs: []linker.Input{{Name: "main", Data: mod(wasmtest.Builder{
				Types: []wasm.FuncType{voidType}, Funcs: []uint32{0, 0},
				Start: wasmtest.StartAt(0), Code: []wasmtest.Body{endBody()},
			})}},
			want: errors.ErrCountMismatch,
		},
		{
			name: "memory too large",
			inputs: []linker.Input{{Name: "main", Data: mod(start(wasmtest.Builder{
				Memories: []wasm.MemoryType{{Min: 5000}},
			}))}},
			want: errors.ErrLimitExceeded,
		},
		{
			name: "element out of bounds",
			inputs: []linker.Input{{Name: "main", Data: mod(start(wasmtest.Builder{
				Tables:   []wasm.TableType{anyfunc(1)},
				Elements: []wasmtest.Element{{Offset: wasmtest.I32Const(1), Funcs: []uint32{0}}},
			}))}},
			want: errors.ErrSegmentOutOfBounds,
		},
		{
			name: "export index out of range",
			inputs: []linker.Input{{Name: "main", Data: mod(start(wasmtest.Builder{
				Exports: []wasmtest.Export{{Field: "g", Kind: wasm.KindGlobal, Index: 0}},
			}))}},
			want: errors.ErrIndexOutOfRange,
		},
		{
			name: "duplicate module name",
			inputs: []linker.Input{
				{Name: "main", Data: mod(start(wasmtest.Builder{}))},
				{Name: "main", Data: mod(wasmtest.Builder{})},
			},
			want: errors.ErrInvalidData,
		},
		{
			name:   "bad header",
			inputs: []linker.Input{{Name: "main", Data: []byte("\x00asm\x02\x00\x00\x00")}},
			want:   errors.ErrBadHeader,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := linker.Link(tt.inputs, linker.DefaultOptions())
			require.ErrorIs(t, err, tt.want)
			require.Nil(t, p)
		})
	}
}

func TestLink_CodeErrorsCarryContext(t *testing.T) {
	main := wasmtest.Builder{
		Types: []wasm.FuncType{voidType},
		Funcs: []uint32{0},
		Start: wasmtest.StartAt(0),
		Code: []wasmtest.Body{{Code: wasmtest.Code(
			wasmtest.Op(wasm.OpCall, 5),
			wasmtest.Op(wasm.OpEnd),
		)}},
	}

	_, err := linker.Link([]linker.Input{{Name: "main", Data: main.Bytes()}}, linker.DefaultOptions())
	require.ErrorIs(t, err, errors.ErrIndexOutOfRange)

	var e *errors.Error
	require.ErrorAs(t, err, &e)
	require.Equal(t, errors.PhaseTranscode, e.Phase)
	require.Equal(t, "main", e.Module)
	require.Equal(t, "Code", e.Section)
	require.Equal(t, "func 0", e.Path[0])
}

func TestLink_LogsIgnoredSections(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	opts := linker.DefaultOptions()
	opts.Logger = zap.New(core)

	lib := valid(t, &wasmtest.Builder{
		Types:   []wasm.FuncType{voidType},
		Funcs:   []uint32{0},
		Start:   wasmtest.StartAt(0),
		Code:    []wasmtest.Body{endBody()},
		Customs: []wasmtest.Custom{{Name: "license", Payload: []byte("MIT")}},
	})
	_, err := link(t, opts,
		linker.Input{Name: "main", Data: mainCallsDouble(t)},
		linker.Input{Name: "lib", Data: libDouble(t)},
		linker.Input{Name: "extra", Data: lib},
	)
	require.NoError(t, err)

	custom := logs.FilterMessage("custom section ignored").All()
	require.Len(t, custom, 1)
	require.Equal(t, "license", custom[0].ContextMap()["section"])
	require.Equal(t, "extra", custom[0].ContextMap()["module"])
	require.Equal(t, 1, logs.FilterMessage("start section of imported module ignored").Len())
}

func TestLinker_Reusable(t *testing.T) {
	lk := linker.NewWithDefaults()
	require.Equal(t, linker.DefaultOptions(), lk.Options())

	inputs := []linker.Input{
		{Name: "main", Data: mainCallsDouble(t)},
		{Name: "lib", Data: libDouble(t)},
	}
	p1, err := lk.Link(inputs)
	require.NoError(t, err)
	p2, err := lk.Link(inputs)
	require.NoError(t, err)
	require.NotSame(t, p1.Functions[0], p2.Functions[0])
	require.Equal(t, p1.Functions[0].Code, p2.Functions[0].Code)
}

func TestProgram_Resolve(t *testing.T) {
	p, err := link(t, linker.DefaultOptions(),
		linker.Input{Name: "main", Data: mainCallsDouble(t)},
		linker.Input{Name: "lib", Data: libDouble(t)},
	)
	require.NoError(t, err)

	_, err = p.Resolve("nope", wasm.KindFunction, 0)
	require.ErrorIs(t, err, errors.ErrInvalidData)
	_, err = p.Resolve("main", wasm.KindFunction, 2)
	require.ErrorIs(t, err, errors.ErrIndexOutOfRange)
	_, err = p.Resolve("main", 9, 0)
	require.ErrorIs(t, err, errors.ErrInvalidExternalKind)

	_, ok := p.Export("lib", "missing")
	require.False(t, ok)
}
