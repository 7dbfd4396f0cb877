package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/kr/pretty"
	"github.com/mattn/go-isatty"

	"velac/internal/cache"
	"velac/internal/diagnostics"
	"velac/internal/layout"
	"velac/internal/lexer"
	"velac/internal/manifest"
	"velac/internal/source"
)

// buildOpts are the flags spec.md §6's CLI surface names: target triple,
// optimization level, target directory, and lib name. Parsed by hand, in
// the teacher's no-flag-library style.
type buildOpts struct {
	dir        string
	targetDir  string
	triple     string
	opt        string
	lib        string
	dumpTokens bool
}

func parseBuildOpts(args []string) buildOpts {
	opts := buildOpts{dir: ".", targetDir: "target"}
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--target":
			i++
			if i < len(args) {
				opts.triple = args[i]
			}
		case "--opt":
			i++
			if i < len(args) {
				opts.opt = args[i]
			}
		case "--lib":
			i++
			if i < len(args) {
				opts.lib = args[i]
			}
		case "--target-dir":
			i++
			if i < len(args) {
				opts.targetDir = args[i]
			}
		case "--dump-tokens":
			opts.dumpTokens = true
		default:
			if len(args[i]) > 0 && args[i][0] != '-' {
				opts.dir = args[i]
			}
		}
	}
	return opts
}

// buildCommand implements the front-end slice of spec.md §6's `build`:
// load the manifest, lex every source file in the library (Components A
// and B; parsing and everything past it is an external collaborator per
// spec.md §1), report diagnostics, and record/validate the file cache.
// Exit code mirrors spec.md §6: 0 on success, non-zero if any diagnostic
// is an error.
func buildCommand(args []string) error {
	opts := parseBuildOpts(args)
	start := time.Now()

	absDir, err := filepath.Abs(opts.dir)
	if err != nil {
		return fmt.Errorf("resolving project path: %w", err)
	}

	m, err := manifest.Load(absDir)
	if err != nil {
		return fmt.Errorf("loading manifest: %w", err)
	}
	if opts.triple != "" {
		m.TargetTriple = opts.triple
	}
	if opts.opt != "" {
		m.OptLevel = opts.opt
	}
	libName := m.Name
	if opts.lib != "" {
		libName = opts.lib
	}

	fmt.Printf("compiling %s v%s (%s, %s)\n", libName, m.Version, m.TargetTriple, m.OptLevel)

	paths, err := discoverSources(absDir)
	if err != nil {
		return fmt.Errorf("discovering source files: %w", err)
	}
	if len(paths) == 0 {
		return fmt.Errorf("no .vl source files found under %s", absDir)
	}

	set := source.NewSet()
	ids, err := source.AddLibraryFiles(set, paths)
	if err != nil {
		return fmt.Errorf("reading source files: %w", err)
	}

	bag := diagnostics.NewBag()
	tokenCount := 0
	for _, id := range ids {
		file := set.Get(id)
		sc := lexer.NewScanner(file, bag)
		toks := sc.ScanTokens()
		tokenCount += len(toks)
		if opts.dumpTokens {
			pretty.Println(toks)
		}
	}

	printDiagnostics(bag)

	cfgHash := cache.CfgHash(map[string]string{"target": m.TargetTriple, "opt": m.OptLevel})
	if err := os.MkdirAll(filepath.Join(absDir, opts.targetDir), 0o755); err != nil {
		return fmt.Errorf("creating target directory: %w", err)
	}
	store, err := cache.Open(filepath.Join(absDir, opts.targetDir), libName, cfgHash)
	if err != nil {
		return fmt.Errorf("opening build cache: %w", err)
	}
	defer store.Close()
	for _, id := range ids {
		file := set.Get(id)
		info, statErr := os.Stat(file.Path)
		if statErr != nil {
			continue
		}
		relPath, relErr := filepath.Rel(absDir, file.Path)
		if relErr != nil {
			relPath = file.Path
		}
		if err := store.Record(relPath, info.ModTime(), []byte(file.Content)); err != nil {
			return fmt.Errorf("recording cache entry for %s: %w", file.Path, err)
		}
	}

	elapsed := time.Since(start)
	errs, warns := bag.Count()
	fmt.Printf("finished in %s: %s files, %s tokens, %d warning(s), %d error(s)\n",
		elapsed.Round(time.Millisecond),
		humanize.Comma(int64(len(paths))),
		humanize.Comma(int64(tokenCount)),
		warns, errs,
	)

	if bag.HasErrors() {
		return fmt.Errorf("build failed: %d error(s)", errs)
	}
	return nil
}

// runCommand builds, then reports that execution is the external backend's
// job (spec.md §1: "the final LLVM lowering... is out of scope"). A
// real driver would hand internal/backend.Module off to codegen here.
func runCommand(args []string) error {
	if err := buildCommand(args); err != nil {
		return err
	}
	return fmt.Errorf("velac has no bundled backend; hand the compiled Module to an external codegen to run it")
}

// lexCommand tokenizes a single file and prints its tokens, useful for
// inspecting the layout lexer's LAYOUT_START/SEP/END insertion in
// isolation.
func lexCommand(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: velac lex <file>")
	}
	content, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("reading %s: %w", args[0], err)
	}

	set := source.NewSet()
	id := set.AddContent(args[0], string(content))
	bag := diagnostics.NewBag()
	sc := lexer.NewScanner(set.Get(id), bag)
	for _, tok := range sc.ScanTokens() {
		fmt.Println(tok.String())
	}
	printDiagnostics(bag)
	if bag.HasErrors() {
		return fmt.Errorf("lexing failed")
	}
	return nil
}

func discoverSources(dir string) ([]string, error) {
	var paths []string
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			if info.Name() == "target" || info.Name() == ".git" {
				return filepath.SkipDir
			}
			return nil
		}
		if filepath.Ext(path) == ".vl" {
			paths = append(paths, path)
		}
		return nil
	})
	return paths, err
}

// printDiagnostics renders every accumulated diagnostic to stderr, with
// ANSI severity coloring only when stderr is a terminal (spec.md §6:
// "Diagnostics go to stderr with primary/secondary annotations referencing
// byte ranges").
func printDiagnostics(bag *diagnostics.Bag) {
	color := isatty.IsTerminal(os.Stderr.Fd())
	for _, d := range bag.All() {
		if color && d.Severity == diagnostics.Error {
			fmt.Fprint(os.Stderr, "\x1b[31m")
		} else if color {
			fmt.Fprint(os.Stderr, "\x1b[33m")
		}
		fmt.Fprint(os.Stderr, d.String())
		if color {
			fmt.Fprint(os.Stderr, "\x1b[0m")
		}
	}
}

// dumpLayout is a test-only helper kept small and unexported (no CLI flag
// calls it): it is only ever called from tests that want a human-readable Layout without
// writing a bespoke String() method for every nested field.
func dumpLayout(l layout.Layout) string {
	return pretty.Sprint(l)
}
