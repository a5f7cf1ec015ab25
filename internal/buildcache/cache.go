// Package buildcache is an opt-in, CLI-level content-addressed cache from
// (source hash, optimization level, pragma set) to emitted assembly text,
// backed by a local sqlite database the way the teacher's internal/ext
// cache keys a host binary on a sha256 of its inputs (internal/ext/cache.go)
// - except here the store is a table instead of files under .funxy/, and
// the value is assembly text instead of a binary.
//
// This package is kept apart from the compiler core deliberately: the core
// (internal/pipeline and everything it orchestrates) keeps no state between
// invocations, and this cache is purely pkg/cli plumbing layered on top of
// it, the same way internal/ext's build cache sits outside the funvibe
// interpreter core it accelerates.
package buildcache

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"
)

// Cache is a sqlite-backed store mapping a compilation unit's fingerprint
// to its last compiled assembly text.
type Cache struct {
	db *sql.DB
}

// Open opens (creating if necessary) the sqlite database at path and
// ensures its schema exists.
func Open(path string) (*Cache, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("buildcache: opening %s: %w", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("buildcache: creating schema: %w", err)
	}
	return &Cache{db: db}, nil
}

func (c *Cache) Close() error { return c.db.Close() }

const schema = `
CREATE TABLE IF NOT EXISTS units (
	key  TEXT PRIMARY KEY,
	asm  TEXT NOT NULL,
	src  TEXT NOT NULL
);
`

// Key fingerprints a compilation unit: the exact bytes a caller considers
// its "source" for this unit (for this core, typically the wire JSON body
// internal/compileserver decoded, or a rendered FuncDef), the optimization
// level, and the sorted list of enabled pragma names. Two units with
// identical fingerprints always produce identical assembly, since nothing
// else the pipeline reads varies between runs.
func Key(source []byte, optLevel int, pragmas []string) string {
	h := sha256.New()
	h.Write(source)
	h.Write([]byte("\x00"))
	fmt.Fprintf(h, "opt=%d\x00", optLevel)
	h.Write([]byte(strings.Join(pragmas, ",")))
	return hex.EncodeToString(h.Sum(nil))
}

// Lookup returns the cached assembly text for key, if any.
func (c *Cache) Lookup(key string) (asm string, ok bool, err error) {
	row := c.db.QueryRow(`SELECT asm FROM units WHERE key = ?`, key)
	err = row.Scan(&asm)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("buildcache: looking up %s: %w", key, err)
	}
	return asm, true, nil
}

// Store records a unit's compiled assembly under key, overwriting any
// previous entry. src is kept alongside asm purely for inspection (e.g. a
// future `tolkc cache inspect` subcommand); it plays no role in lookups.
func (c *Cache) Store(key string, asm string, src []byte) error {
	_, err := c.db.Exec(
		`INSERT INTO units (key, asm, src) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET asm = excluded.asm, src = excluded.src`,
		key, asm, string(src),
	)
	if err != nil {
		return fmt.Errorf("buildcache: storing %s: %w", key, err)
	}
	return nil
}

// Clean drops every cached entry.
func (c *Cache) Clean() error {
	_, err := c.db.Exec(`DELETE FROM units`)
	if err != nil {
		return fmt.Errorf("buildcache: cleaning: %w", err)
	}
	return nil
}

// Len reports how many units are currently cached.
func (c *Cache) Len() (int, error) {
	var n int
	err := c.db.QueryRow(`SELECT COUNT(*) FROM units`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("buildcache: counting: %w", err)
	}
	return n, nil
}
