package linker

import (
	"slices"

	"github.com/wippyai/wasm-linker/errors"
	"github.com/wippyai/wasm-linker/wasm"
)

// maxPages is the largest memory the 32-bit address space can hold.
const maxPages = 65536

// span is a half-open byte range [start, end) written by a data segment.
type span struct {
	start, end uint64
}

func (l *linker) newTable(t wasm.TableType) (*Table, error) {
	if limit := l.opts.MaxTableSize; limit != 0 && t.Limits.Min > limit {
		return nil, errors.New(errors.PhaseLink, errors.KindLimitExceeded).
			Detail("table of %d elements exceeds the limit of %d", t.Limits.Min, limit).
			Value(t.Limits.Min).
			Build()
	}
	return &Table{Type: t, Elements: make([]*Function, t.Limits.Min)}, nil
}

func (l *linker) newMemory(t wasm.MemoryType) (*Memory, error) {
	if t.Min > maxPages || (t.HasMax && t.Max > maxPages) {
		return nil, errors.New(errors.PhaseLink, errors.KindInvalidLimits).
			Detail("memory limits %s exceed %d pages", limitsString(t), maxPages).
			Build()
	}
	if limit := l.opts.MaxMemoryPages; limit != 0 && t.Min > limit {
		return nil, errors.New(errors.PhaseLink, errors.KindLimitExceeded).
			Detail("memory of %d pages exceeds the limit of %d", t.Min, limit).
			Value(t.Min).
			Build()
	}
	return &Memory{Type: t, Data: make([]byte, uint64(t.Min)*wasm.PageSize)}, nil
}

// InitSegment writes funcs into the table starting at offset. Slots written
// by an earlier segment may not be written again.
func (t *Table) InitSegment(offset uint32, funcs []*Function) error {
	end := uint64(offset) + uint64(len(funcs))
	if end > uint64(len(t.Elements)) {
		return errors.New(errors.PhaseLink, errors.KindSegmentOutOfBounds).
			Detail("element segment [%d, %d) exceeds table size %d", offset, end, len(t.Elements)).
			Build()
	}
	for i := range funcs {
		if t.Elements[int(offset)+i] != nil {
			return errors.New(errors.PhaseLink, errors.KindSegmentOverlap).
				Detail("table slot %d already initialized", int(offset)+i).
				Build()
		}
	}
	copy(t.Elements[offset:], funcs)
	return nil
}

// InitSegment copies data into the memory at offset. Byte ranges written by
// an earlier segment may not be written again.
func (m *Memory) InitSegment(offset uint32, data []byte) error {
	s := span{start: uint64(offset), end: uint64(offset) + uint64(len(data))}
	if s.end > uint64(len(m.Data)) {
		return errors.New(errors.PhaseLink, errors.KindSegmentOutOfBounds).
			Detail("data segment [%d, %d) exceeds memory size %d", s.start, s.end, len(m.Data)).
			Build()
	}
	if len(data) == 0 {
		return nil
	}

	// written is sorted by start and its spans never overlap.
	i, _ := slices.BinarySearchFunc(m.written, s.start, func(w span, start uint64) int {
		switch {
		case w.start < start:
			return -1
		case w.start > start:
			return 1
		}
		return 0
	})
	if (i > 0 && m.written[i-1].end > s.start) || (i < len(m.written) && m.written[i].start < s.end) {
		return errors.New(errors.PhaseLink, errors.KindSegmentOverlap).
			Detail("data segment [%d, %d) overlaps an earlier segment", s.start, s.end).
			Build()
	}
	copy(m.Data[offset:], data)
	m.written = slices.Insert(m.written, i, s)
	return nil
}
