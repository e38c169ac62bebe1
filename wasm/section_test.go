package wasm_test

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/wippyai/wasm-linker/errors"
	"github.com/wippyai/wasm-linker/wasm"
	"github.com/wippyai/wasm-linker/wasm/wasmtest"
)

func TestDecodeHeader(t *testing.T) {
	header := wasmtest.Header()
	if err := wasm.DecodeHeader(header); err != nil {
		t.Fatalf("valid header rejected: %v", err)
	}

	for i := 0; i < len(header)*8; i++ {
		corrupt := append([]byte(nil), header...)
		corrupt[i/8] ^= 1 << (i % 8)
		if err := wasm.DecodeHeader(corrupt); !errors.Is(err, errors.ErrBadHeader) {
			t.Errorf("bit %d flipped: expected bad_header, got %v", i, err)
		}
	}

	if err := wasm.DecodeHeader(header[:5]); !errors.Is(err, errors.ErrBadHeader) {
		t.Errorf("short header: expected bad_header, got %v", err)
	}
}

func TestLoadModule_Order(t *testing.T) {
	empty := []byte{0x00}

	t.Run("skipping sections", func(t *testing.T) {
		data := wasmtest.Module(
			wasmtest.Section(wasm.SectionType, empty),
			wasmtest.Section(wasm.SectionFunction, empty),
			wasmtest.Section(wasm.SectionTable, empty),
		)
		m, err := wasm.LoadModule("main", data)
		if err != nil {
			t.Fatal(err)
		}
		if diff := cmp.Diff([]string{"Type", "Function", "Table"}, m.Names()); diff != "" {
			t.Errorf("names mismatch (-want +got):\n%s", diff)
		}
		if _, ok := m.Section("Memory"); ok {
			t.Error("unexpected Memory section")
		}
		if got, ok := m.SectionByID(wasm.SectionFunction); !ok || !cmp.Equal(got, empty) {
			t.Errorf("Function payload = %x, %v", got, ok)
		}
	})

	t.Run("reversed", func(t *testing.T) {
		data := wasmtest.Module(
			wasmtest.Section(wasm.SectionFunction, empty),
			wasmtest.Section(wasm.SectionType, empty),
		)
		_, err := wasm.LoadModule("main", data)
		if !errors.Is(err, errors.ErrSectionOrder) {
			t.Fatalf("expected section_order, got %v", err)
		}
		msg := err.Error()
		if !strings.Contains(msg, "Type") || !strings.Contains(msg, "Function") {
			t.Errorf("error should name both sections: %s", msg)
		}
	})

	t.Run("duplicate", func(t *testing.T) {
		data := wasmtest.Module(
			wasmtest.Section(wasm.SectionType, empty),
			wasmtest.Section(wasm.SectionType, empty),
		)
		_, err := wasm.LoadModule("main", data)
		if !errors.Is(err, errors.ErrDuplicateSection) {
			t.Fatalf("expected duplicate_section, got %v", err)
		}
	})
}

func TestLoadModule_CustomSections(t *testing.T) {
	data := wasmtest.Module(
		wasmtest.CustomSection("license", []byte("MIT")),
		wasmtest.Section(wasm.SectionType, []byte{0x00}),
		wasmtest.CustomSection("producers", nil),
		wasmtest.CustomSection("license", []byte("Apache-2.0")),
	)
	m, err := wasm.LoadModule("lib", data)
	if err != nil {
		t.Fatal(err)
	}

	want := [][]byte{[]byte("MIT"), []byte("Apache-2.0")}
	if diff := cmp.Diff(want, m.Custom("license")); diff != "" {
		t.Errorf("license payloads mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"license", "Type", "producers"}, m.Names()); diff != "" {
		t.Errorf("names mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"license", "producers"}, m.CustomNames()); diff != "" {
		t.Errorf("custom names mismatch (-want +got):\n%s", diff)
	}
	if got := m.Custom("producers"); len(got) != 1 || len(got[0]) != 0 {
		t.Errorf("producers payloads = %v", got)
	}
}

func TestLoadModule_Errors(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want error
	}{
		{
			name: "bad header",
			data: []byte{0x00, 'a', 's', 'm', 0x02, 0, 0, 0},
			want: errors.ErrBadHeader,
		},
		{
			name: "section id too large",
			data: wasmtest.Module([]byte{0x0c, 0x00}),
			want: errors.ErrBadSectionID,
		},
		{
			name: "negative section id",
			data: wasmtest.Module([]byte{0x7f, 0x00}),
			want: errors.ErrBadSectionID,
		},
		{
			name: "custom named like a known section",
			data: wasmtest.Module(wasmtest.CustomSection("Code", nil)),
			want: errors.ErrInvalidCustomSectionName,
		},
		{
			name: "payload past end",
			data: wasmtest.Module([]byte{byte(wasm.SectionType), 0x0a, 0x00}),
			want: errors.ErrTruncatedInput,
		},
		{
			name: "custom name longer than payload",
			data: wasmtest.Module([]byte{0x00, 0x02, 0x05, 'a', 'b', 'c', 'd', 'e'}),
			want: errors.ErrTruncatedInput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := wasm.LoadModule("m", tt.data)
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
			var e *errors.Error
			if errors.As(err, &e) && e.Module != "m" {
				t.Errorf("module context = %q, want m", e.Module)
			}
		})
	}
}
