// Package linker links WebAssembly MVP modules into a single program.
//
// # Main Types
//
//   - Linker: holds Options; Link builds a Program from raw module bytes
//   - Program: program-wide index spaces, start function and export map
//   - Function, Table, Memory, Global: the entities of those index spaces
//
// # Phases
//
//  1. Declaration: every module, main module first, reads its Type, Import,
//     Function, Table, Memory, Global, Export, Start, Element and Data
//     sections in that order
//  2. Checks: unresolved imports (optional) and globals still waiting for a
//     value
//  3. Merge: canonical entities are numbered by first appearance across
//     modules, and every module gets local-to-program remap tables
//  4. Code: every function body is transcoded and linearized against the
//     program-wide numbering
//
// # Sharing
//
// Imports and exports share one map keyed by module and field name. The
// first declaration of a name creates its entity; every later import of the
// name gets the same instance. An export of a name that was already
// imported merges the exported entity into that instance.
//
// # Example
//
//	p, err := linker.Link([]linker.Input{
//		{Name: "main", Data: mainWasm},
//		{Name: "env", Data: envWasm},
//	}, linker.DefaultOptions())
//	if err != nil {
//		return err
//	}
//	start := p.StartFunction()
package linker
