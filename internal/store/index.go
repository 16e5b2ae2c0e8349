package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// indexSchemaVersion is stored in PRAGMA user_version; a mismatch drops
// and recreates the cache.
const indexSchemaVersion = 1

// Index caches validated authorship log bytes by note blob id. Blob ids
// are content addresses, so entries never go stale.
type Index struct {
	db *sql.DB
}

// OpenIndex opens or creates the cache at path. A corrupt or outdated
// file is removed and rebuilt.
func OpenIndex(path string) (*Index, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	ix, err := openIndex(path)
	if err == nil {
		return ix, nil
	}
	_ = os.Remove(path)
	return openIndex(path)
}

func openIndex(path string) (*Index, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		db.Close()
		return nil, fmt.Errorf("read schema version: %w", err)
	}
	if version != indexSchemaVersion {
		if _, err := db.Exec("DROP TABLE IF EXISTS logs"); err != nil {
			db.Close()
			return nil, fmt.Errorf("drop table: %w", err)
		}
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS logs (
			blob TEXT PRIMARY KEY,
			data BLOB NOT NULL
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create table: %w", err)
	}
	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", indexSchemaVersion)); err != nil {
		db.Close()
		return nil, fmt.Errorf("set schema version: %w", err)
	}
	return &Index{db: db}, nil
}

// Get returns the cached bytes for whichever blobs are present.
func (ix *Index) Get(blobs []string) (map[string][]byte, error) {
	out := make(map[string][]byte, len(blobs))
	stmt, err := ix.db.Prepare("SELECT data FROM logs WHERE blob = ?")
	if err != nil {
		return nil, err
	}
	defer stmt.Close()

	for _, b := range blobs {
		var data []byte
		err := stmt.QueryRow(b).Scan(&data)
		if err == sql.ErrNoRows {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("query %s: %w", b, err)
		}
		out[b] = data
	}
	return out, nil
}

// Put stores entries in one transaction.
func (ix *Index) Put(entries map[string][]byte) error {
	if len(entries) == 0 {
		return nil
	}
	tx, err := ix.db.Begin()
	if err != nil {
		return err
	}
	stmt, err := tx.Prepare("INSERT OR REPLACE INTO logs (blob, data) VALUES (?, ?)")
	if err != nil {
		tx.Rollback()
		return err
	}
	defer stmt.Close()

	for blob, data := range entries {
		if _, err := stmt.Exec(blob, data); err != nil {
			tx.Rollback()
			return fmt.Errorf("insert %s: %w", blob, err)
		}
	}
	return tx.Commit()
}

// Len returns the number of cached logs.
func (ix *Index) Len() (int, error) {
	var n int
	err := ix.db.QueryRow("SELECT COUNT(*) FROM logs").Scan(&n)
	return n, err
}

// Close releases the database handle.
func (ix *Index) Close() error {
	return ix.db.Close()
}
