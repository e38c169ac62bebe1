package linker

import (
	"strconv"

	"go.uber.org/zap"

	"github.com/wippyai/wasm-linker/errors"
	"github.com/wippyai/wasm-linker/transcoder"
	"github.com/wippyai/wasm-linker/wasm"
)

// maxLocals caps the declared locals of one function.
const maxLocals = 1 << 16

// readCodeSection decodes and finalizes the bodies of m's local functions.
// It runs after mapModules, since bodies are rewritten against the
// program-wide index spaces.
func (l *linker) readCodeSection(m *module) error {
	want := m.localFunctions()
	payload, ok := m.def.Section("Code")
	if !ok {
		if want != 0 {
			return countMismatch(want, 0)
		}
		return nil
	}

	c := wasm.NewCursor(payload)
	n, err := readCount(c)
	if err != nil {
		return err
	}
	if int(n) != want {
		return countMismatch(want, int(n))
	}

	remap := m.transcoderRemap()
	memory := m.defaultIndex(wasm.KindMemory)
	table := m.defaultIndex(wasm.KindTable)
	base := m.imports[wasm.KindFunction]

	for i := uint32(0); i < n; i++ {
		idx := base + i
		fn, err := m.function(idx)
		if err != nil {
			return err
		}
		if err := l.readBody(c, fn, remap); err != nil {
			return withPath(err, "func "+strconv.Itoa(int(idx)))
		}
		fn.Module, fn.Memory, fn.Table = m.name, memory, table

		l.log.Debug("function finalized",
			zap.String("module", m.name),
			zap.Uint32("index", m.remap[wasm.KindFunction][idx]),
			zap.Int("locals", len(fn.Locals)),
			zap.Int("bytes", len(fn.Code)))
	}
	if c.Remaining() != 0 {
		return errors.New(errors.PhaseLink, errors.KindInvalidData).
			Detail("%d trailing bytes after section contents", c.Remaining()).
			Build()
	}
	return nil
}

func (l *linker) readBody(c *wasm.Cursor, fn *Function, remap *transcoder.Remap) error {
	body, err := c.ReadLengthPrefixed()
	if err != nil {
		return err
	}
	bc := wasm.NewCursor(body)
	locals, err := readLocals(bc)
	if err != nil {
		return err
	}
	code, err := transcoder.Finalize(bc.Rest(), remap)
	if err != nil {
		return err
	}
	return fn.Define(locals, code)
}

// readLocals expands the (count, type) groups of a function body into one
// type per local.
func readLocals(c *wasm.Cursor) ([]wasm.ValueType, error) {
	groups, err := readCount(c)
	if err != nil {
		return nil, err
	}

	var locals []wasm.ValueType
	for g := uint32(0); g < groups; g++ {
		n, err := c.ReadU32()
		if err != nil {
			return nil, err
		}
		t, err := wasm.ReadValueType(c)
		if err != nil {
			return nil, err
		}
		if uint64(len(locals))+uint64(n) > maxLocals {
			return nil, errors.New(errors.PhaseLink, errors.KindLimitExceeded).
				Detail("function declares more than %d locals", maxLocals).
				Build()
		}
		for range n {
			locals = append(locals, t)
		}
	}
	return locals, nil
}

func countMismatch(want, have int) error {
	return errors.New(errors.PhaseLink, errors.KindCountMismatch).
		Detail("%d function bodies for %d declared functions", have, want).
		Build()
}
