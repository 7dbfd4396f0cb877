package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"velac/internal/layout"
)

func TestParseBuildOptsReadsFlagsAndPositionalDir(t *testing.T) {
	opts := parseBuildOpts([]string{"mylib", "--target", "x86_64-linux", "--opt", "release", "--lib", "core", "--dump-tokens"})
	if opts.dir != "mylib" {
		t.Fatalf("dir = %q, want mylib", opts.dir)
	}
	if opts.triple != "x86_64-linux" || opts.opt != "release" || opts.lib != "core" {
		t.Fatalf("opts = %+v, want triple/opt/lib set", opts)
	}
	if !opts.dumpTokens {
		t.Fatalf("expected --dump-tokens to set dumpTokens")
	}
}

func TestParseBuildOptsDefaultsDirToCurrent(t *testing.T) {
	opts := parseBuildOpts(nil)
	if opts.dir != "." {
		t.Fatalf("default dir = %q, want .", opts.dir)
	}
	if opts.targetDir != "target" {
		t.Fatalf("default targetDir = %q, want target", opts.targetDir)
	}
}

func TestDiscoverSourcesFindsVlFilesAndSkipsTargetDir(t *testing.T) {
	dir := t.TempDir()
	mustWrite(t, filepath.Join(dir, "Main.vl"), "main = 0")
	mustWrite(t, filepath.Join(dir, "README.md"), "not source")
	if err := os.MkdirAll(filepath.Join(dir, "target"), 0o755); err != nil {
		t.Fatal(err)
	}
	mustWrite(t, filepath.Join(dir, "target", "Generated.vl"), "ignored")

	paths, err := discoverSources(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(paths) != 1 || !strings.HasSuffix(paths[0], "Main.vl") {
		t.Fatalf("discoverSources = %v, want just Main.vl", paths)
	}
}

func TestLexCommandRequiresAFileArgument(t *testing.T) {
	if err := lexCommand(nil); err == nil {
		t.Fatalf("expected an error when no file is given")
	}
}

func TestLexCommandTokenizesAFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "Main.vl")
	mustWrite(t, path, "x = 1")

	if err := lexCommand([]string{path}); err != nil {
		t.Fatalf("lexCommand returned an error: %v", err)
	}
}

func TestBuildCommandFailsWithNoSources(t *testing.T) {
	dir := t.TempDir()
	if err := buildCommand([]string{dir}); err == nil {
		t.Fatalf("expected an error for a directory with no .vl files")
	}
}

func TestBuildCommandLexesAndCachesSources(t *testing.T) {
	dir := t.TempDir()
	mustWrite(t, filepath.Join(dir, "Main.vl"), "x = 1")

	if err := buildCommand([]string{dir}); err != nil {
		t.Fatalf("buildCommand returned an error: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "target")); err != nil {
		t.Fatalf("expected a target directory to be created: %v", err)
	}
}

func TestRunCommandReportsMissingBackend(t *testing.T) {
	dir := t.TempDir()
	mustWrite(t, filepath.Join(dir, "Main.vl"), "x = 1")

	err := runCommand([]string{dir})
	if err == nil || !strings.Contains(err.Error(), "backend") {
		t.Fatalf("runCommand error = %v, want a message about the missing backend", err)
	}
}

func TestDumpLayoutRendersAScalar(t *testing.T) {
	l := layout.Layout{Size: 8, Align: 8}
	out := dumpLayout(l)
	if out == "" {
		t.Fatalf("expected a non-empty rendering")
	}
}

func mustWrite(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}
