package linker

import (
	"fmt"

	"github.com/wippyai/wasm-linker/errors"
	"github.com/wippyai/wasm-linker/wasm"
)

// withPath prefixes the path of a structured error with elem. Other errors
// are returned unchanged.
func withPath(err error, elem string) error {
	var e *errors.Error
	if !errors.As(err, &e) {
		return err
	}
	c := *e
	c.Path = append([]string{elem}, e.Path...)
	return &c
}

// importPath renders an import or export name as module.field.
func importPath(module, field string) string {
	return fmt.Sprintf("%s.%s", module, field)
}

func importMismatch(module, field string, want, have Entity) error {
	return errors.New(errors.PhaseLink, errors.KindImportTypeMismatch).
		Path(importPath(module, field)).
		Detail("%s does not match %s", describe(have), describe(want)).
		Build()
}

func unresolvedImport(module, field string, e Entity) error {
	return errors.New(errors.PhaseLink, errors.KindUnresolvedImport).
		Path(importPath(module, field)).
		Detail("%s import is not exported by any loaded module", wasm.KindName(e.Kind())).
		Build()
}

func duplicateExport(module, field string) error {
	return errors.New(errors.PhaseLink, errors.KindDuplicateExport).
		Module(module).
		Section("Export").
		Path(field).
		Detail("field %q exported more than once", field).
		Build()
}
