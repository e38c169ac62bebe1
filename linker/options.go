package linker

import "go.uber.org/zap"

// Options configures linker behavior.
type Options struct {
	// Logger overrides the package logger for one Link call.
	Logger *zap.Logger

	// MaxMemoryPages caps the initial size of any memory, in 64 KiB pages.
	// Zero means no limit below the format maximum.
	MaxMemoryPages uint32

	// MaxTableSize caps the initial size of any table, in elements. Zero
	// means no limit.
	MaxTableSize uint32

	// StrictGlobalInitializers restricts global.get in constant expressions
	// to imported immutable globals. When false, any global already declared
	// in the module may be referenced.
	StrictGlobalInitializers bool

	// RequireResolvedImports fails the link when an import is not exported
	// by any loaded module.
	RequireResolvedImports bool
}

// DefaultOptions returns default linker configuration.
func DefaultOptions() Options {
	return Options{
		MaxMemoryPages:           4096,
		MaxTableSize:             1 << 20,
		StrictGlobalInitializers: true,
		RequireResolvedImports:   true,
	}
}
