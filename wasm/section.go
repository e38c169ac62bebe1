package wasm

import (
	"github.com/wippyai/wasm-linker/errors"
)

// Module is one binary module split into its sections. Known sections are
// stored by name and appear at most once. Custom sections may repeat; their
// payloads accumulate in file order.
type Module struct {
	Name string
	Data []byte

	known  map[string][]byte
	custom map[string][][]byte
	order  []string
}

// Section returns the payload of the known section with the given name
// ("Type", "Import", ...).
func (m *Module) Section(name string) ([]byte, bool) {
	b, ok := m.known[name]
	return b, ok
}

// SectionByID returns the payload of a known section.
func (m *Module) SectionByID(id SectionID) ([]byte, bool) {
	return m.Section(id.Name())
}

// Custom returns every payload of the custom sections named name, in the
// order they appear in the file.
func (m *Module) Custom(name string) [][]byte {
	return m.custom[name]
}

// Names returns the section names in order of first appearance.
func (m *Module) Names() []string {
	return append([]string(nil), m.order...)
}

// CustomNames returns the names of the custom sections in order of first
// appearance.
func (m *Module) CustomNames() []string {
	var names []string
	for _, n := range m.order {
		if _, ok := m.custom[n]; ok {
			names = append(names, n)
		}
	}
	return names
}

// DecodeHeader verifies the magic number and version at the start of data.
func DecodeHeader(data []byte) error {
	c := NewCursor(data)
	var header struct {
		Magic   uint32
		Version uint32
	}
	if err := c.ReadFixed(&header); err != nil {
		return errors.New(errors.PhaseLoad, errors.KindBadHeader).
			Detail("module is %d bytes, shorter than the header", len(data)).
			Cause(err).
			Build()
	}
	if header.Magic != Magic {
		return errors.New(errors.PhaseLoad, errors.KindBadHeader).
			Detail("magic %#08x, expected %#08x", header.Magic, Magic).
			Value(header.Magic).
			Build()
	}
	if header.Version != Version {
		return errors.New(errors.PhaseLoad, errors.KindBadHeader).
			Detail("version %d, expected %d", header.Version, Version).
			Value(header.Version).
			Build()
	}
	return nil
}

// LoadModule validates the header of data and splits the body into sections.
func LoadModule(name string, data []byte) (*Module, error) {
	if err := DecodeHeader(data); err != nil {
		return nil, errors.WithContext(err, name, "")
	}

	m := &Module{
		Name:   name,
		Data:   data,
		known:  make(map[string][]byte),
		custom: make(map[string][][]byte),
	}

	c := NewCursor(data)
	_ = c.Skip(HeaderSize)

	var last SectionID
	for c.Remaining() > 0 {
		if err := m.readSection(c, &last); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Module) readSection(c *Cursor, last *SectionID) error {
	start := c.Position()
	rawID, err := c.ReadSigned(7)
	if err != nil {
		return errors.WithContext(err, m.Name, "")
	}
	if rawID < 0 || rawID > int64(maxSectionID) {
		return errors.New(errors.PhaseLoad, errors.KindBadSectionID).
			Module(m.Name).
			Detail("section id %d at offset %d", rawID, start).
			Value(rawID).
			Build()
	}
	id := SectionID(rawID)

	size, err := c.ReadU32()
	if err != nil {
		return errors.WithContext(err, m.Name, id.Name())
	}

	if id == SectionCustom {
		return m.readCustomSection(c, int(size))
	}

	name := id.Name()
	if _, dup := m.known[name]; dup {
		return errors.New(errors.PhaseLoad, errors.KindDuplicateSection).
			Module(m.Name).
			Section(name).
			Detail("section %s appears more than once", name).
			Build()
	}
	if id <= *last {
		return errors.New(errors.PhaseLoad, errors.KindSectionOrder).
			Module(m.Name).
			Section(name).
			Detail("section %s follows section %s", name, last.Name()).
			Build()
	}
	*last = id

	payload, err := c.ReadBytes(int(size))
	if err != nil {
		return errors.WithContext(err, m.Name, name)
	}
	m.known[name] = payload
	m.order = append(m.order, name)
	return nil
}

func (m *Module) readCustomSection(c *Cursor, size int) error {
	bodyStart := c.Position()
	name, err := c.ReadName()
	if err != nil {
		return errors.WithContext(err, m.Name, "custom")
	}
	if IsKnownSectionName(name) {
		return errors.New(errors.PhaseLoad, errors.KindInvalidCustomSectionName).
			Module(m.Name).
			Section(name).
			Detail("custom section uses reserved name %q", name).
			Build()
	}

	consumed := c.Position() - bodyStart
	if consumed > size {
		return errors.New(errors.PhaseLoad, errors.KindTruncatedInput).
			Module(m.Name).
			Section(name).
			Detail("custom section name (%d bytes) exceeds payload length %d", consumed, size).
			Build()
	}
	payload, err := c.ReadBytes(size - consumed)
	if err != nil {
		return errors.WithContext(err, m.Name, name)
	}

	if _, seen := m.custom[name]; !seen {
		m.order = append(m.order, name)
	}
	m.custom[name] = append(m.custom[name], payload)
	return nil
}
