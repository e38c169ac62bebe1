package wasmlinker

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

var magic = []byte("\x00asm")

// Import names a module file and the logical name other modules import it
// by. An empty Name means the file name without its extension.
type Import struct {
	Path string
	Name string
}

// File is a discovered module file.
type File struct {
	Path string
	Name string
}

// ParseImport parses "path" or "path=name".
func ParseImport(s string) (Import, error) {
	path, name, found := strings.Cut(s, "=")
	if path == "" {
		return Import{}, fmt.Errorf("import %q: empty path", s)
	}
	if found && name == "" {
		return Import{}, fmt.Errorf("import %q: empty name after '='", s)
	}
	return Import{Path: path, Name: name}, nil
}

// Discover locates the main module and the imports on disk. Each path is
// tried as given and then under every include directory. Candidates that
// are not WebAssembly binaries are skipped and reported in warnings; a name
// with no binary or with two different binaries is an error.
//
// The main module comes first in the result. When the main path is also
// listed as an import, it keeps the import's name.
func Discover(main string, imports []Import, includeDirs []string) ([]File, []string, error) {
	var (
		files    []File
		warnings []string
		seen     = make(map[string]bool)
		mainName = defaultName(main)
		mainIdx  = -1
	)
	for _, imp := range imports {
		name := imp.Name
		if name == "" {
			name = defaultName(imp.Path)
		}
		if seen[name] {
			return nil, nil, fmt.Errorf("module %q imported twice", name)
		}
		seen[name] = true

		path, skipped, err := locate(name, imp.Path, includeDirs)
		if err != nil {
			return nil, nil, err
		}
		warnings = append(warnings, skipped...)
		if imp.Path == main {
			mainIdx = len(files)
		}
		files = append(files, File{Path: path, Name: name})
	}

	if mainIdx < 0 {
		if seen[mainName] {
			return nil, nil, fmt.Errorf("module %q imported twice", mainName)
		}
		path, skipped, err := locate(mainName, main, includeDirs)
		if err != nil {
			return nil, nil, err
		}
		warnings = append(warnings, skipped...)
		return append([]File{{Path: path, Name: mainName}}, files...), warnings, nil
	}

	m := files[mainIdx]
	copy(files[1:mainIdx+1], files[:mainIdx])
	files[0] = m
	return files, warnings, nil
}

func locate(name, path string, includeDirs []string) (string, []string, error) {
	candidates := []string{filepath.Clean(path)}
	if !filepath.IsAbs(path) {
		for _, dir := range includeDirs {
			candidates = append(candidates, filepath.Join(dir, path))
		}
	}

	var found, skipped []string
	visited := make(map[string]bool)
	for _, c := range candidates {
		if visited[c] {
			continue
		}
		visited[c] = true

		ok, err := IsModuleFile(c)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return "", nil, fmt.Errorf("module %q: %w", name, err)
		}
		if ok {
			found = append(found, c)
		} else {
			skipped = append(skipped, c)
		}
	}

	switch len(found) {
	case 0:
		if len(skipped) > 0 {
			return "", nil, fmt.Errorf("module %q: no WebAssembly binary found, not modules: %s",
				name, strings.Join(skipped, ", "))
		}
		return "", nil, fmt.Errorf("module %q: %s: %w", name, path, os.ErrNotExist)
	case 1:
	default:
		return "", nil, fmt.Errorf("module %q: conflicting files %s", name, strings.Join(found, ", "))
	}

	warnings := make([]string, len(skipped))
	for i, s := range skipped {
		warnings[i] = fmt.Sprintf("module %q: ignoring %s, not a WebAssembly binary", name, s)
	}
	return found[0], warnings, nil
}

// IsModuleFile reports whether the file at path starts with the WebAssembly
// magic number. Directories are not modules.
func IsModuleFile(path string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return false, err
	}
	if info.IsDir() {
		return false, nil
	}

	head := make([]byte, len(magic))
	if _, err := io.ReadFull(f, head); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return false, nil
		}
		return false, err
	}
	return bytes.Equal(head, magic), nil
}

func defaultName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
