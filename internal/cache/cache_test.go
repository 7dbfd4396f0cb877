package cache

import (
	"path/filepath"
	"testing"
	"time"
)

func TestCfgHashDeterministicAcrossMapOrder(t *testing.T) {
	a := CfgHash(map[string]string{"target": "x86_64-linux", "opt": "release"})
	b := CfgHash(map[string]string{"opt": "release", "target": "x86_64-linux"})
	if a != b {
		t.Fatalf("CfgHash not order-independent: %q vs %q", a, b)
	}
	if CfgHash(map[string]string{"opt": "debug", "target": "x86_64-linux"}) == a {
		t.Fatalf("CfgHash should differ when an option value changes")
	}
}

func TestStoreRecordAndStale(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir, "mylib", CfgHash(map[string]string{"opt": "debug"}))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()

	mtime := time.Unix(1700000000, 0)
	content := []byte("module Main where\n")

	stale, err := s.Stale("src/Main.vl", mtime, content)
	if err != nil {
		t.Fatalf("Stale (before record): %v", err)
	}
	if !stale {
		t.Fatalf("an unrecorded file must be reported stale")
	}

	if err := s.Record("src/Main.vl", mtime, content); err != nil {
		t.Fatalf("Record: %v", err)
	}

	stale, err = s.Stale("src/Main.vl", mtime, content)
	if err != nil {
		t.Fatalf("Stale (after record): %v", err)
	}
	if stale {
		t.Fatalf("an unchanged recorded file must not be reported stale")
	}

	stale, err = s.Stale("src/Main.vl", mtime.Add(time.Second), content)
	if err != nil {
		t.Fatalf("Stale (touched): %v", err)
	}
	if !stale {
		t.Fatalf("a changed timestamp must invalidate the cache entry")
	}

	stale, err = s.Stale("src/Main.vl", mtime, []byte("module Main where\nfoo = 1\n"))
	if err != nil {
		t.Fatalf("Stale (content changed): %v", err)
	}
	if !stale {
		t.Fatalf("a changed content digest at the same timestamp must invalidate the cache entry")
	}
}

func TestOpenReopenPreservesEntries(t *testing.T) {
	dir := t.TempDir()
	cfgHash := CfgHash(map[string]string{"opt": "debug"})

	s1, err := Open(dir, "mylib", cfgHash)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	mtime := time.Unix(1700000000, 0)
	if err := s1.Record("src/Main.vl", mtime, []byte("x")); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if err := s1.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	s2, err := Open(dir, "mylib", cfgHash)
	if err != nil {
		t.Fatalf("reopen Open: %v", err)
	}
	defer s2.Close()
	stale, err := s2.Stale("src/Main.vl", mtime, []byte("x"))
	if err != nil {
		t.Fatalf("Stale: %v", err)
	}
	if stale {
		t.Fatalf("entry recorded before close should still be valid after reopening")
	}

	wantPath := filepath.Join(dir, MetadataFileName("mylib", cfgHash))
	if s2.path != wantPath {
		t.Fatalf("path = %q, want %q", s2.path, wantPath)
	}
}
