package linker

import (
	"strconv"

	"go.uber.org/zap"

	"github.com/wippyai/wasm-linker/errors"
	"github.com/wippyai/wasm-linker/wasm"
)

// readCount reads a vector length. Every entry takes at least one byte, so
// a count larger than the rest of the section is truncated input.
func readCount(c *wasm.Cursor) (uint32, error) {
	start := c.Position()
	n, err := c.ReadU32()
	if err != nil {
		return 0, err
	}
	if uint64(n) > uint64(c.Remaining()) {
		return 0, errors.Truncated(start, int(n), c.Remaining())
	}
	return n, nil
}

func (l *linker) readTypeSection(m *module, c *wasm.Cursor) error {
	n, err := readCount(c)
	if err != nil {
		return err
	}
	m.sigs = make([]uint32, 0, n)
	for i := uint32(0); i < n; i++ {
		ft, err := wasm.ReadFuncType(c)
		if err != nil {
			return withPath(err, "type "+strconv.Itoa(int(i)))
		}
		m.sigs = append(m.sigs, l.sigs.Intern(ft.Key()))
	}
	return nil
}

func (l *linker) readImportSection(m *module, c *wasm.Cursor) error {
	n, err := readCount(c)
	if err != nil {
		return err
	}
	for i := uint32(0); i < n; i++ {
		if err := l.readImport(m, c); err != nil {
			return withPath(err, "import "+strconv.Itoa(int(i)))
		}
	}
	return nil
}

func (l *linker) readImport(m *module, c *wasm.Cursor) error {
	mod, err := c.ReadName()
	if err != nil {
		return err
	}
	field, err := c.ReadName()
	if err != nil {
		return err
	}
	kind, err := wasm.ReadExternalKind(c)
	if err != nil {
		return err
	}

	var decl Entity
	switch kind {
	case wasm.KindFunction:
		typeIdx, err := c.ReadU32()
		if err != nil {
			return err
		}
		sig, err := m.signature(typeIdx)
		if err != nil {
			return err
		}
		decl = newFunction(sig)
	case wasm.KindTable:
		tt, err := wasm.ReadTableType(c)
		if err != nil {
			return err
		}
		if decl, err = l.newTable(tt); err != nil {
			return err
		}
	case wasm.KindMemory:
		mt, err := wasm.ReadMemoryType(c)
		if err != nil {
			return err
		}
		if decl, err = l.newMemory(mt); err != nil {
			return err
		}
	case wasm.KindGlobal:
		gt, err := wasm.ReadGlobalType(c)
		if err != nil {
			return err
		}
		decl = &Global{Type: gt}
	}
	decl.link().imported = true

	e, err := l.bindImport(mod, field, decl)
	if err != nil {
		return err
	}
	m.addImport(e)
	m.importRefs = append(m.importRefs, importRef{module: mod, field: field})
	return nil
}

// bindImport returns the entity shared by every import of mod.field. The
// first declaration seen becomes that entity; later ones must match its type.
func (l *linker) bindImport(mod, field string, decl Entity) (Entity, error) {
	fields := l.exports[mod]
	if fields == nil {
		fields = make(map[string]*binding)
		l.exports[mod] = fields
	}

	b, ok := fields[field]
	if !ok {
		fields[field] = &binding{entity: decl, importers: 1}
		l.log.Debug("import declared",
			zap.String("module", mod),
			zap.String("field", field),
			zap.String("kind", wasm.KindName(decl.Kind())))
		return decl, nil
	}

	actual := canonical(b.entity)
	if !sameType(actual, decl) {
		return nil, importMismatch(mod, field, actual, decl)
	}
	b.importers++
	l.log.Debug("import shared",
		zap.String("module", mod),
		zap.String("field", field),
		zap.Int("importers", b.importers),
		zap.Bool("exported", b.exported))
	return actual, nil
}

func (l *linker) readFunctionSection(m *module, c *wasm.Cursor) error {
	if err := m.beginDeclarations(wasm.KindFunction); err != nil {
		return err
	}
	n, err := readCount(c)
	if err != nil {
		return err
	}
	for i := uint32(0); i < n; i++ {
		typeIdx, err := c.ReadU32()
		if err != nil {
			return err
		}
		sig, err := m.signature(typeIdx)
		if err != nil {
			return withPath(err, "func "+strconv.Itoa(int(i)))
		}
		m.declare(newFunction(sig))
	}
	return nil
}

func (l *linker) readTableSection(m *module, c *wasm.Cursor) error {
	if err := m.beginDeclarations(wasm.KindTable); err != nil {
		return err
	}
	n, err := readCount(c)
	if err != nil {
		return err
	}
	for i := uint32(0); i < n; i++ {
		tt, err := wasm.ReadTableType(c)
		if err != nil {
			return err
		}
		t, err := l.newTable(tt)
		if err != nil {
			return withPath(err, "table "+strconv.Itoa(int(i)))
		}
		m.declare(t)
	}
	return nil
}

func (l *linker) readMemorySection(m *module, c *wasm.Cursor) error {
	if err := m.beginDeclarations(wasm.KindMemory); err != nil {
		return err
	}
	n, err := readCount(c)
	if err != nil {
		return err
	}
	for i := uint32(0); i < n; i++ {
		mt, err := wasm.ReadMemoryType(c)
		if err != nil {
			return err
		}
		mem, err := l.newMemory(mt)
		if err != nil {
			return withPath(err, "memory "+strconv.Itoa(int(i)))
		}
		m.declare(mem)
	}
	return nil
}

// readGlobalSection declares globals and evaluates their initializers in
// order, so a later initializer may read an earlier global.
func (l *linker) readGlobalSection(m *module, c *wasm.Cursor) error {
	if err := m.beginDeclarations(wasm.KindGlobal); err != nil {
		return err
	}
	n, err := readCount(c)
	if err != nil {
		return err
	}
	for i := uint32(0); i < n; i++ {
		idx := m.imports[wasm.KindGlobal] + i
		gt, err := wasm.ReadGlobalType(c)
		if err != nil {
			return err
		}
		g := &Global{Type: gt}
		v, err := l.evalConstExpr(c, m)
		if err != nil {
			return withPath(err, "global "+strconv.Itoa(int(idx)))
		}
		if _, err := g.TryDefine(v); err != nil {
			return withPath(err, "global "+strconv.Itoa(int(idx)))
		}
		m.declare(g)
	}
	return nil
}

func (l *linker) readExportSection(m *module, c *wasm.Cursor) error {
	n, err := readCount(c)
	if err != nil {
		return err
	}
	for i := uint32(0); i < n; i++ {
		field, err := c.ReadName()
		if err != nil {
			return err
		}
		kind, err := wasm.ReadExternalKind(c)
		if err != nil {
			return err
		}
		idx, err := c.ReadU32()
		if err != nil {
			return err
		}
		if m.exported[field] {
			return duplicateExport(m.name, field)
		}
		m.exported[field] = true

		if err := l.bindExport(m, field, kind, idx); err != nil {
			return withPath(err, "export "+strconv.Quote(field))
		}
	}
	return nil
}

// bindExport publishes entity idx of m as m.name.field. When an import of
// that name was read earlier, the exported entity is merged into the import
// placeholder, which stays the canonical entity.
func (l *linker) bindExport(m *module, field string, kind wasm.ExternalKind, idx uint32) error {
	local, err := m.entity(kind, idx)
	if err != nil {
		return err
	}

	fields := l.exports[m.name]
	if fields == nil {
		fields = make(map[string]*binding)
		l.exports[m.name] = fields
	}

	b, ok := fields[field]
	if !ok {
		fields[field] = &binding{entity: local, exported: true}
		markResolved(local, local)
		return nil
	}

	placeholder := canonical(b.entity)
	if !sameType(placeholder, local) {
		return importMismatch(m.name, field, local, placeholder)
	}
	if err := assignFrom(placeholder, local); err != nil {
		return err
	}
	m.spaces[kind][idx] = placeholder
	b.exported = true
	markResolved(placeholder, local)

	l.log.Debug("import resolved",
		zap.String("module", m.name),
		zap.String("field", field),
		zap.String("kind", wasm.KindName(kind)),
		zap.Int("importers", b.importers))
	return nil
}

// markResolved records that dst is backed by src. A re-exported import
// stays unresolved until its own source is exported.
func markResolved(dst, src Entity) {
	n := src.link()
	if !n.imported || n.resolved {
		dst.link().resolved = true
	}
}

// readStartSection records the start function of the main module. Start
// sections of other modules are ignored.
func (l *linker) readStartSection(m *module, c *wasm.Cursor) error {
	idx, err := c.ReadU32()
	if err != nil {
		return err
	}
	if !m.main {
		l.log.Warn("start section of imported module ignored",
			zap.String("module", m.name),
			zap.Uint32("function", idx))
		return nil
	}

	fn, err := m.function(idx)
	if err != nil {
		return err
	}
	sig := l.sigs.Key(fn.Sig).Signature()
	if len(sig.Params) != 0 || len(sig.Results) != 0 {
		return errors.New(errors.PhaseLink, errors.KindInvalidData).
			Path("func " + strconv.Itoa(int(idx))).
			Detail("start function has signature %s, want () -> ()", sig).
			Build()
	}
	l.start, l.hasStart = idx, true
	return nil
}

func (l *linker) readElementSection(m *module, c *wasm.Cursor) error {
	n, err := readCount(c)
	if err != nil {
		return err
	}
	for i := uint32(0); i < n; i++ {
		if err := l.readElementSegment(m, c); err != nil {
			return withPath(err, "segment "+strconv.Itoa(int(i)))
		}
	}
	return nil
}

func (l *linker) readElementSegment(m *module, c *wasm.Cursor) error {
	tableIdx, err := c.ReadU32()
	if err != nil {
		return err
	}
	t, err := m.table(tableIdx)
	if err != nil {
		return err
	}
	offset, err := l.evalOffset(c, m)
	if err != nil {
		return err
	}
	n, err := readCount(c)
	if err != nil {
		return err
	}
	funcs := make([]*Function, n)
	for j := range funcs {
		fi, err := c.ReadU32()
		if err != nil {
			return err
		}
		if funcs[j], err = m.function(fi); err != nil {
			return err
		}
	}
	return t.InitSegment(offset, funcs)
}

func (l *linker) readDataSection(m *module, c *wasm.Cursor) error {
	n, err := readCount(c)
	if err != nil {
		return err
	}
	for i := uint32(0); i < n; i++ {
		if err := l.readDataSegment(m, c); err != nil {
			return withPath(err, "segment "+strconv.Itoa(int(i)))
		}
	}
	return nil
}

func (l *linker) readDataSegment(m *module, c *wasm.Cursor) error {
	memIdx, err := c.ReadU32()
	if err != nil {
		return err
	}
	mem, err := m.memory(memIdx)
	if err != nil {
		return err
	}
	offset, err := l.evalOffset(c, m)
	if err != nil {
		return err
	}
	data, err := c.ReadLengthPrefixed()
	if err != nil {
		return err
	}
	return mem.InitSegment(offset, data)
}
