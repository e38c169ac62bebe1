package wasm

import "github.com/tetratelabs/wazero/api"

// WebAssembly binary format magic number and version.
const (
	// Magic is the WebAssembly binary magic number ("\0asm" in little-endian).
	Magic uint32 = 0x6D736100

	// Version is the supported WebAssembly binary format version.
	Version uint32 = 0x01

	// HeaderSize is the byte length of the magic number plus version.
	HeaderSize = 8
)

// PageSize is the size of one linear memory page.
const PageSize = 65536

// SectionID is the binary identifier of a module section.
type SectionID byte

// Section IDs define the binary identifiers for each module section.
// Known sections must appear in increasing order by ID; custom sections can appear anywhere.
const (
	SectionCustom   SectionID = 0  // Custom section (can appear anywhere)
	SectionType     SectionID = 1  // Type section (function signatures)
	SectionImport   SectionID = 2  // Import section
	SectionFunction SectionID = 3  // Function section (type indices)
	SectionTable    SectionID = 4  // Table section
	SectionMemory   SectionID = 5  // Memory section
	SectionGlobal   SectionID = 6  // Global section
	SectionExport   SectionID = 7  // Export section
	SectionStart    SectionID = 8  // Start section
	SectionElement  SectionID = 9  // Element section
	SectionCode     SectionID = 10 // Code section (function bodies)
	SectionData     SectionID = 11 // Data section

	maxSectionID = SectionData
)

var sectionNames = [...]string{
	SectionCustom:   "",
	SectionType:     "Type",
	SectionImport:   "Import",
	SectionFunction: "Function",
	SectionTable:    "Table",
	SectionMemory:   "Memory",
	SectionGlobal:   "Global",
	SectionExport:   "Export",
	SectionStart:    "Start",
	SectionElement:  "Element",
	SectionCode:     "Code",
	SectionData:     "Data",
}

// Name returns the well-known name of a section, or "" for custom sections.
func (id SectionID) Name() string {
	if id > maxSectionID {
		return ""
	}
	return sectionNames[id]
}

// IsKnownSectionName reports whether name is reserved by a known section.
func IsKnownSectionName(name string) bool {
	for _, n := range sectionNames[1:] {
		if n == name {
			return true
		}
	}
	return false
}

// ExternalKind identifies the kind of an imported or exported entity.
// It doubles as the index of the entity's index space.
type ExternalKind = api.ExternType

// Import/Export descriptor kinds.
const (
	KindFunction ExternalKind = api.ExternTypeFunc
	KindTable    ExternalKind = api.ExternTypeTable
	KindMemory   ExternalKind = api.ExternTypeMemory
	KindGlobal   ExternalKind = api.ExternTypeGlobal

	// NumKinds is the number of index spaces.
	NumKinds = 4
)

// KindName returns the text format name of an external kind.
func KindName(k ExternalKind) string {
	return api.ExternTypeName(k)
}

// ValueType is a numeric value type. Encodings match the binary format
// (0x7F for i32 and so on), which is also how wazero represents them.
type ValueType = api.ValueType

// Value type encodings as defined in the WebAssembly binary format.
const (
	ValueTypeI32 ValueType = api.ValueTypeI32
	ValueTypeI64 ValueType = api.ValueTypeI64
	ValueTypeF32 ValueType = api.ValueTypeF32
	ValueTypeF64 ValueType = api.ValueTypeF64
)

// Type constructors that are not value types.
const (
	ElemTypeAnyFunc byte = 0x70 // table element type
	FuncTypeForm    byte = 0x60 // function signature form
	BlockTypeVoid   byte = 0x40 // empty block signature
)

// ValueTypeName returns the text format name of t.
func ValueTypeName(t ValueType) string {
	return api.ValueTypeName(t)
}

// IsValueType reports whether t is one of the four numeric value types.
func IsValueType(t ValueType) bool {
	switch t {
	case ValueTypeI32, ValueTypeI64, ValueTypeF32, ValueTypeF64:
		return true
	}
	return false
}

// typeCode converts a signed 7-bit type encoding (-0x01 for i32) to its byte form (0x7F).
func typeCode(v int64) byte {
	return byte(v) & 0x7f
}
