package wasmlinker

import (
	"fmt"
	"os"

	"github.com/wippyai/wasm-linker/linker"
)

// LinkFiles reads files and links them. The first file is the main module.
func LinkFiles(files []File, opts linker.Options) (*linker.Program, error) {
	inputs := make([]linker.Input, 0, len(files))
	for _, f := range files {
		data, err := os.ReadFile(f.Path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", f.Path, err)
		}
		inputs = append(inputs, linker.Input{Name: f.Name, Data: data})
	}
	return linker.Link(inputs, opts)
}
