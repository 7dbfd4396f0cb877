// Package cache implements the build cache/metadata envelope spec.md §6
// describes: for each library, a versioned file named `<name>-<cfgHash>.metadata`
// mapping source-relative paths to their last build's modification time,
// invalidated wholesale on a schema-version mismatch or any single
// timestamp mismatch. Grounded on the teacher's `internal/build/builder.go`
// checksum idiom (`crypto/sha256` over build inputs to name an artifact)
// for the cfg hash, backed by `modernc.org/sqlite` (pure Go, no cgo) rather
// than a hand-rolled binary envelope, and `golang.org/x/crypto/blake2b` for
// the higher-volume per-file content digest that supplements the
// timestamp check spec.md names.
package cache

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"path/filepath"
	"sort"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/crypto/blake2b"
	_ "modernc.org/sqlite"
)

// SchemaVersion is the metadata file's own format version; a mismatch
// invalidates the whole cache, per spec.md §6's "Version mismatch...
// invalidates the cache."
const SchemaVersion = 1

// CfgHash hashes a set of build config options (target triple, opt level,
// feature flags) into the short identifier spec.md §6 says "participates
// in the metadata filename", sorted for determinism so the same cfg set
// always hashes the same way regardless of map iteration order.
func CfgHash(opts map[string]string) string {
	keys := make([]string, 0, len(opts))
	for k := range opts {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	h := sha256.New()
	for _, k := range keys {
		fmt.Fprintf(h, "%s=%s\n", k, opts[k])
	}
	return hex.EncodeToString(h.Sum(nil))[:16]
}

// MetadataFileName builds the `<name>-<cfgHash>.metadata` filename spec.md
// §6 names.
func MetadataFileName(libName, cfgHash string) string {
	return fmt.Sprintf("%s-%s.metadata", libName, cfgHash)
}

// ContentDigest returns the blake2b-256 digest of content, used to confirm
// a file actually changed when its timestamp alone is ambiguous (e.g. a
// touch with no content change, or a filesystem with coarse mtime
// granularity).
func ContentDigest(content []byte) string {
	sum := blake2b.Sum256(content)
	return hex.EncodeToString(sum[:])
}

// Store is one library's open cache/metadata file.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens (creating if absent) the metadata file for libName under cfg
// cfgHash inside dir, ensuring its schema exists.
func Open(dir, libName, cfgHash string) (*Store, error) {
	path := filepath.Join(dir, MetadataFileName(libName, cfgHash))
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening cache %s", path)
	}
	s := &Store{db: db, path: path}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) ensureSchema() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS meta (key TEXT PRIMARY KEY, value TEXT NOT NULL);
		CREATE TABLE IF NOT EXISTS files (
			path   TEXT PRIMARY KEY,
			mtime  INTEGER NOT NULL,
			digest TEXT NOT NULL
		);
	`)
	if err != nil {
		return errors.Wrap(err, "creating cache schema")
	}

	var storedVersion string
	err = s.db.QueryRow(`SELECT value FROM meta WHERE key = 'version'`).Scan(&storedVersion)
	switch {
	case err == sql.ErrNoRows:
		_, err = s.db.Exec(`INSERT INTO meta (key, value) VALUES ('version', ?)`, fmt.Sprint(SchemaVersion))
		return errors.Wrap(err, "writing cache schema version")
	case err != nil:
		return errors.Wrap(err, "reading cache schema version")
	case storedVersion != fmt.Sprint(SchemaVersion):
		// Version mismatch invalidates the cache wholesale (spec.md §6):
		// drop every tracked file so the next build recompiles everything.
		return s.reset()
	}
	return nil
}

func (s *Store) reset() error {
	_, err := s.db.Exec(`DELETE FROM files; UPDATE meta SET value = ? WHERE key = 'version'`, fmt.Sprint(SchemaVersion))
	return errors.Wrap(err, "resetting cache after version mismatch")
}

// Close releases the underlying database handle.
func (s *Store) Close() error { return s.db.Close() }

// Record stores relPath's last build timestamp and content digest,
// overwriting any previous entry.
func (s *Store) Record(relPath string, mtime time.Time, content []byte) error {
	_, err := s.db.Exec(
		`INSERT INTO files (path, mtime, digest) VALUES (?, ?, ?)
		 ON CONFLICT(path) DO UPDATE SET mtime = excluded.mtime, digest = excluded.digest`,
		relPath, mtime.UnixNano(), ContentDigest(content),
	)
	return errors.Wrapf(err, "recording cache entry for %s", relPath)
}

// Stale reports whether relPath must be rebuilt: absent from the cache,
// its timestamp no longer matches, or (when the timestamp matches but the
// caller supplies content, e.g. under a coarse filesystem clock) its
// content digest no longer matches.
func (s *Store) Stale(relPath string, mtime time.Time, content []byte) (bool, error) {
	var storedNanos int64
	var storedDigest string
	err := s.db.QueryRow(`SELECT mtime, digest FROM files WHERE path = ?`, relPath).Scan(&storedNanos, &storedDigest)
	if err == sql.ErrNoRows {
		return true, nil
	}
	if err != nil {
		return true, errors.Wrapf(err, "looking up cache entry for %s", relPath)
	}
	if storedNanos != mtime.UnixNano() {
		return true, nil
	}
	if content != nil && storedDigest != ContentDigest(content) {
		return true, nil
	}
	return false, nil
}
