package linker

import (
	"strconv"

	"go.uber.org/zap"

	"github.com/wippyai/wasm-linker/errors"
	"github.com/wippyai/wasm-linker/linker/internal/intern"
	"github.com/wippyai/wasm-linker/wasm"
)

// Input is one binary module and the logical name other modules import it by.
type Input struct {
	Name string
	Data []byte
}

// Linker links sets of modules into programs. A Linker holds only
// configuration, so one value may serve any number of Link calls,
// concurrently included.
type Linker struct {
	options Options
}

// New creates a Linker with the given options.
func New(opts Options) *Linker {
	return &Linker{options: opts}
}

// NewWithDefaults creates a Linker with default options.
func NewWithDefaults() *Linker {
	return New(DefaultOptions())
}

// Options returns the configuration.
func (lk *Linker) Options() Options {
	return lk.options
}

// Link loads and links inputs. The first input is the main module.
func (lk *Linker) Link(inputs []Input) (*Program, error) {
	return Link(inputs, lk.options)
}

// Link loads and links inputs into one program. The first input is the main
// module; it must declare a start function. Any error aborts the link and no
// program is returned.
func Link(inputs []Input, opts Options) (*Program, error) {
	log := logFor(opts)
	mods := make([]*wasm.Module, 0, len(inputs))
	for _, in := range inputs {
		m, err := wasm.LoadModule(in.Name, in.Data)
		if err != nil {
			return nil, err
		}
		log.Debug("module loaded",
			zap.String("module", m.Name),
			zap.Int("bytes", len(in.Data)),
			zap.Strings("sections", m.Names()))
		mods = append(mods, m)
	}
	return LinkModules(mods, opts)
}

// LinkModules links modules that were already split into sections. The
// first module is the main module.
func LinkModules(mods []*wasm.Module, opts Options) (*Program, error) {
	if len(mods) == 0 {
		return nil, errors.New(errors.PhaseLink, errors.KindMissingStartFunction).
			Detail("no main module").
			Build()
	}

	l := &linker{
		opts:    opts,
		log:     logFor(opts),
		sigs:    intern.New[wasm.SignatureKey](),
		exports: make(map[string]map[string]*binding),
		byName:  make(map[string]*module, len(mods)),
	}
	for i, def := range mods {
		if _, dup := l.byName[def.Name]; dup {
			return nil, errors.New(errors.PhaseLink, errors.KindInvalidData).
				Module(def.Name).
				Detail("module name %q used by more than one input", def.Name).
				Build()
		}
		m := newModule(def, i == 0)
		l.modules = append(l.modules, m)
		l.byName[def.Name] = m
	}
	return l.run()
}

// binding is one entry of the shared import/export map.
type binding struct {
	entity    Entity
	importers int
	exported  bool
}

// linker is the state of one Link call.
type linker struct {
	log *zap.Logger

	sigs *intern.Interner[wasm.SignatureKey]
	// exports maps module name and field name to the entity bound to it.
	// Imports and exports share it: whichever side is read first creates
	// the entry.
	exports map[string]map[string]*binding
	byName  map[string]*module
	modules []*module

	opts Options

	// start is the main module's local index of the start function.
	start    uint32
	hasStart bool
}

func (l *linker) run() (*Program, error) {
	for _, m := range l.modules {
		if err := l.declare(m); err != nil {
			return nil, err
		}
	}
	if !l.hasStart {
		return nil, errors.New(errors.PhaseLink, errors.KindMissingStartFunction).
			Module(l.modules[0].name).
			Section("Start").
			Detail("main module has no start section").
			Build()
	}

	if l.opts.RequireResolvedImports {
		if err := l.checkImports(); err != nil {
			return nil, err
		}
	}
	if err := l.checkGlobals(); err != nil {
		return nil, err
	}

	p, err := l.mapModules()
	if err != nil {
		return nil, err
	}

	for _, m := range l.modules {
		if err := l.readCodeSection(m); err != nil {
			return nil, errors.WithContext(err, m.name, "Code")
		}
	}

	l.log.Debug("program linked",
		zap.Int("modules", len(p.Modules)),
		zap.Int("signatures", len(p.Signatures)),
		zap.Int("functions", len(p.Functions)),
		zap.Int("tables", len(p.Tables)),
		zap.Int("memories", len(p.Memories)),
		zap.Int("globals", len(p.Globals)),
		zap.Uint32("start", p.Start))
	return p, nil
}

// declare runs every declaration section of m in file order.
func (l *linker) declare(m *module) error {
	steps := []struct {
		read func(*module, *wasm.Cursor) error
		name string
	}{
		{l.readTypeSection, "Type"},
		{l.readImportSection, "Import"},
		{l.readFunctionSection, "Function"},
		{l.readTableSection, "Table"},
		{l.readMemorySection, "Memory"},
		{l.readGlobalSection, "Global"},
		{l.readExportSection, "Export"},
		{l.readStartSection, "Start"},
		{l.readElementSection, "Element"},
		{l.readDataSection, "Data"},
	}
	for _, step := range steps {
		if err := l.readSection(m, step.name, step.read); err != nil {
			return err
		}
	}

	for _, name := range m.def.CustomNames() {
		l.log.Warn("custom section ignored",
			zap.String("module", m.name),
			zap.String("section", name),
			zap.Int("count", len(m.def.Custom(name))))
	}
	return nil
}

// readSection runs read over the payload of one known section, if present.
// The whole payload must be consumed.
func (l *linker) readSection(m *module, name string, read func(*module, *wasm.Cursor) error) error {
	payload, ok := m.def.Section(name)
	if !ok {
		return nil
	}
	c := wasm.NewCursor(payload)
	if err := read(m, c); err != nil {
		return errors.WithContext(err, m.name, name)
	}
	if c.Remaining() != 0 {
		return errors.New(errors.PhaseLink, errors.KindInvalidData).
			Module(m.name).
			Section(name).
			Detail("%d trailing bytes after section contents", c.Remaining()).
			Build()
	}
	l.log.Debug("section decoded",
		zap.String("module", m.name),
		zap.String("section", name),
		zap.Int("bytes", len(payload)))
	return nil
}

// checkImports fails on the first import no module exported.
func (l *linker) checkImports() error {
	for _, m := range l.modules {
		for _, ref := range m.importRefs {
			if b := l.exports[ref.module][ref.field]; !b.exported {
				return errors.WithContext(unresolvedImport(ref.module, ref.field, b.entity), m.name, "Import")
			}
		}
	}
	return nil
}

// checkGlobals fails when a global is still waiting for its value. With
// RequireResolvedImports off, globals whose value comes from an import no
// module exported are left for the host to supply.
func (l *linker) checkGlobals() error {
	for _, m := range l.modules {
		for i, e := range m.spaces[wasm.KindGlobal] {
			g := canonical(e).(*Global)
			if g.Defined() {
				continue
			}
			r := g.root()
			if !l.opts.RequireResolvedImports && r.imported && !r.resolved {
				continue
			}
			return errors.New(errors.PhaseLink, errors.KindMalformedInitializer).
				Module(m.name).
				Section("Global").
				Path("global " + strconv.Itoa(i)).
				Detail("global initializer refers to a global that never receives a value").
				Build()
		}
	}
	return nil
}
