package main

import (
	"flag"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"go.uber.org/zap"
	"golang.org/x/term"

	wasmlinker "github.com/wippyai/wasm-linker"
	"github.com/wippyai/wasm-linker/linker"
	"github.com/wippyai/wasm-linker/transcoder"
	"github.com/wippyai/wasm-linker/wasm"
)

type importList []wasmlinker.Import

func (l *importList) String() string {
	parts := make([]string, len(*l))
	for i, imp := range *l {
		parts[i] = imp.Path
		if imp.Name != "" {
			parts[i] += "=" + imp.Name
		}
	}
	return strings.Join(parts, ",")
}

func (l *importList) Set(s string) error {
	imp, err := wasmlinker.ParseImport(s)
	if err != nil {
		return err
	}
	*l = append(*l, imp)
	return nil
}

type dirList []string

func (l *dirList) String() string     { return strings.Join(*l, ",") }
func (l *dirList) Set(s string) error { *l = append(*l, s); return nil }

type config struct {
	main        string
	imports     importList
	includeDirs dirList
	opts        linker.Options
	dump        bool
	funcIdx     int
	interactive bool
	verbose     bool
}

func main() {
	cfg := config{opts: linker.DefaultOptions()}
	var lenient, allowUnresolved bool

	flag.StringVar(&cfg.main, "main", "", "Path to the main module (must declare a start function)")
	flag.Var(&cfg.imports, "import", "Imported module as path or path=name (repeatable)")
	flag.Var(&cfg.includeDirs, "I", "Directory searched for imported modules (repeatable)")
	flag.Func("max-pages", "Largest memory in 64KiB pages, 0 for no limit", func(s string) error {
		return parseUint32(s, &cfg.opts.MaxMemoryPages)
	})
	flag.Func("max-table", "Largest table in elements, 0 for no limit", func(s string) error {
		return parseUint32(s, &cfg.opts.MaxTableSize)
	})
	flag.BoolVar(&lenient, "lenient-globals", false, "Allow global initializers to read any earlier global")
	flag.BoolVar(&allowUnresolved, "allow-unresolved", false, "Do not fail on imports no module exports")
	flag.BoolVar(&cfg.dump, "dump", false, "Disassemble every linked function")
	flag.IntVar(&cfg.funcIdx, "func", -1, "Disassemble only this program-wide function index")
	flag.BoolVar(&cfg.interactive, "i", false, "Interactive mode with TUI")
	flag.BoolVar(&cfg.verbose, "v", false, "Verbose linker logging")
	flag.Parse()

	for _, arg := range flag.Args() {
		if err := cfg.imports.Set(arg); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}

	if cfg.main == "" {
		fmt.Fprintln(os.Stderr, "Usage: wasmlink -main <main.wasm> [-import <lib.wasm>[=name]]... [-I dir]...")
		fmt.Fprintln(os.Stderr, "       wasmlink -main <main.wasm> ... -dump [-func N]")
		fmt.Fprintln(os.Stderr, "       wasmlink -main <main.wasm> ... -i  (interactive mode)")
		os.Exit(1)
	}
	cfg.opts.StrictGlobalInitializers = !lenient
	cfg.opts.RequireResolvedImports = !allowUnresolved

	if err := run(cfg); err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render(fmt.Sprintf("Error: %v", err)))
		os.Exit(1)
	}
}

func parseUint32(s string, dst *uint32) error {
	var v uint32
	if _, err := fmt.Sscan(s, &v); err != nil {
		return fmt.Errorf("invalid value %q", s)
	}
	*dst = v
	return nil
}

func run(cfg config) error {
	stdoutTTY := term.IsTerminal(int(os.Stdout.Fd()))
	if !stdoutTTY {
		lipgloss.SetColorProfile(termenv.Ascii)
	}
	if cfg.interactive && !stdoutTTY {
		return fmt.Errorf("interactive mode needs a terminal")
	}

	log := zap.NewNop()
	if cfg.verbose {
		l, err := zap.NewDevelopment()
		if err != nil {
			return fmt.Errorf("create logger: %w", err)
		}
		log = l
		defer func() { _ = log.Sync() }()
	}
	cfg.opts.Logger = log

	files, warnings, err := wasmlinker.Discover(cfg.main, cfg.imports, cfg.includeDirs)
	if err != nil {
		return fmt.Errorf("discover: %w", err)
	}
	for _, w := range warnings {
		log.Warn("non-module file skipped", zap.String("reason", w))
		fmt.Fprintln(os.Stderr, warnStyle.Render("warning: "+w))
	}

	prog, err := wasmlinker.LinkFiles(files, cfg.opts)
	if err != nil {
		return fmt.Errorf("link: %w", err)
	}

	if cfg.interactive {
		return runInteractive(prog, cfg.main)
	}

	printSummary(prog, files)

	switch {
	case cfg.funcIdx >= 0:
		if cfg.funcIdx >= len(prog.Functions) {
			return fmt.Errorf("function %d out of range, program has %d", cfg.funcIdx, len(prog.Functions))
		}
		return dumpFunction(prog, uint32(cfg.funcIdx))
	case cfg.dump:
		for i := range prog.Functions {
			if err := dumpFunction(prog, uint32(i)); err != nil {
				return err
			}
		}
	}
	return nil
}

func printSummary(p *linker.Program, files []wasmlinker.File) {
	fmt.Println(titleStyle.Render("WASM Linker") + " " + files[0].Path)
	fmt.Println()

	fmt.Println("Modules:")
	for _, f := range files {
		role := ""
		if f.Name == p.Main {
			role = typeStyle.Render(" (main)")
		}
		fmt.Printf("  %s%s  %s\n", funcStyle.Render(f.Name), role, helpStyle.Render(f.Path))
	}

	fmt.Printf("\nSignatures: %d\n", len(p.Signatures))
	fmt.Printf("Functions:  %d\n", len(p.Functions))
	fmt.Printf("Tables:     %d\n", len(p.Tables))
	fmt.Printf("Memories:   %d\n", len(p.Memories))
	fmt.Printf("Globals:    %d\n", len(p.Globals))
	fmt.Printf("Start:      %s\n", funcStyle.Render(fmt.Sprintf("func %d", p.Start)))

	fmt.Printf("\nExports:\n")
	for _, line := range exportLines(p) {
		fmt.Println("  " + line)
	}
}

func exportLines(p *linker.Program) []string {
	var lines []string
	for module, fields := range p.Exports {
		for field, e := range fields {
			idx, _ := p.Index(e)
			lines = append(lines, fmt.Sprintf("%s.%s  %s",
				funcStyle.Render(module), funcStyle.Render(field),
				typeStyle.Render(fmt.Sprintf("%s %d", wasm.KindName(e.Kind()), idx))))
		}
	}
	sort.Strings(lines)
	return lines
}

func describeFunction(p *linker.Program, idx uint32) string {
	f := p.Functions[idx]
	module := f.Module
	if !f.Defined() {
		module = "unresolved"
	}
	return fmt.Sprintf("func %d %s %s", idx, module, p.Signature(f))
}

// disassemble renders the locals and body of one function.
func disassemble(p *linker.Program, idx uint32) (string, error) {
	f := p.Functions[idx]
	if !f.Defined() {
		return "(no body)\n", nil
	}
	text, err := transcoder.Disassemble(f.Code)
	if err != nil {
		return "", fmt.Errorf("disassemble func %d: %w", idx, err)
	}
	if len(f.Locals) == 0 {
		return text, nil
	}
	names := make([]string, len(f.Locals))
	for i, t := range f.Locals {
		names[i] = wasm.ValueTypeName(t)
	}
	return typeStyle.Render("locals "+strings.Join(names, " ")) + "\n" + text, nil
}

func dumpFunction(p *linker.Program, idx uint32) error {
	text, err := disassemble(p, idx)
	if err != nil {
		return err
	}
	fmt.Printf("\n%s\n%s", titleStyle.Render(describeFunction(p, idx)), text)
	return nil
}
