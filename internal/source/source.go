// Package source implements Component A: reading the files that make up a
// library and assigning each a stable FileID. Manifest/workspace loading and
// source-root watching are external collaborators (spec.md §1) — this
// package only turns a list of paths into interned, addressable file
// contents.
package source

import (
	"os"
	"sort"
	"sync"
)

// FileID is a stable, interned identifier for one source file within a
// library. It never changes for the lifetime of a Set.
type FileID uint32

// File holds one library source file's path and byte content.
type File struct {
	ID      FileID
	Path    string
	Content string
}

// Set is the grow-only table of files belonging to one library. Like the
// other interned tables in this compiler (spec.md §5), it is safe for
// concurrent reads once populated and protected by a reader-writer lock
// while files are still being added.
type Set struct {
	mu    sync.RWMutex
	files []File
	byPath map[string]FileID
}

// NewSet returns an empty file set.
func NewSet() *Set {
	return &Set{byPath: make(map[string]FileID)}
}

// AddContent interns path with the given in-memory content, without
// touching the filesystem. Used by tests and by callers that already have
// source text in hand.
func (s *Set) AddContent(path, content string) FileID {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id, ok := s.byPath[path]; ok {
		return id
	}
	id := FileID(len(s.files))
	s.files = append(s.files, File{ID: id, Path: path, Content: content})
	s.byPath[path] = id
	return id
}

// AddFile reads path from disk and interns it.
func (s *Set) AddFile(path string) (FileID, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	return s.AddContent(path, string(data)), nil
}

// AddLibraryFiles reads every path in sorted order and returns their ids in
// that sorted order. Sorting makes a library's FileIDs deterministic
// regardless of directory-walk order.
func AddLibraryFiles(s *Set, paths []string) ([]FileID, error) {
	sorted := append([]string(nil), paths...)
	sort.Strings(sorted)
	ids := make([]FileID, len(sorted))
	for i, p := range sorted {
		id, err := s.AddFile(p)
		if err != nil {
			return nil, err
		}
		ids[i] = id
	}
	return ids, nil
}

// Get returns the file for id. Panics if id is out of range, matching the
// arena convention used elsewhere in this compiler (ids are only ever
// produced by this Set).
func (s *Set) Get(id FileID) File {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.files[id]
}

// Len returns the number of interned files.
func (s *Set) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.files)
}
