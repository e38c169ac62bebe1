// Package wasm provides the low-level pieces of the WebAssembly MVP binary
// format used by the linker.
//
// # Cursor
//
// A Cursor reads primitives from an immutable buffer: bytes, LEB128 integers
// of a given bit width, length-prefixed byte strings and names, and packed
// little-endian records. Reads past the end fail with a truncated_input error.
//
//	c := wasm.NewCursor(payload)
//	count, err := c.ReadU32()
//
// # Sections
//
// LoadModule checks the 8-byte header and splits the body into sections.
// Known sections (Type through Data) appear at most once and in increasing
// id order. Custom sections may repeat anywhere; their payloads accumulate
// per name.
//
//	m, err := wasm.LoadModule("main", data)
//	types, ok := m.Section("Type")
//	licenses := m.Custom("license")
//
// # Types
//
// Value and external kind codes are the wazero api types, so
// wasm.ValueTypeI32 == api.ValueTypeI32. ReadFuncType, ReadLimits,
// ReadTableType, ReadMemoryType and ReadGlobalType decode the type forms that
// appear in Type, Import, Table, Memory and Global sections.
//
// # Opcodes
//
// The opcode constants and the Immediates classification cover the MVP
// instruction set. The transcoder uses them to find the immediate operands
// of each instruction.
package wasm
