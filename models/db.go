package models

import (
	"database/sql"
	"sync"
	"time"

	_ "github.com/marcboeker/go-duckdb"
	"github.com/rohanthewiz/logger"
	"github.com/rohanthewiz/serr"
)

// settingsKey is the row holding the plugin's settings document
const settingsKey = "settings"

// DDLCreatePluginDataTable holds whole documents keyed by name.
// The document column is a msgpack blob (see EncodeDocument).
const DDLCreatePluginDataTable = `
CREATE TABLE IF NOT EXISTS plugin_data (
    key        VARCHAR PRIMARY KEY,
    doc        BLOB,
    updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);
`

// DDLCreateLocalStorageTable is the host-style lightweight key/value store
const DDLCreateLocalStorageTable = `
CREATE TABLE IF NOT EXISTS local_storage (
    key        VARCHAR PRIMARY KEY,
    value      VARCHAR,
    updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);
`

// DuckStore persists settings and local storage in a DuckDB file.
// It implements both Persister and LocalStorage.
type DuckStore struct {
	db *sql.DB
	mu sync.RWMutex // Serializes writes; DuckDB allows one writer
}

// OpenDuckStore opens (or creates) the database at path.
// An empty path opens an in-memory database.
func OpenDuckStore(path string) (*DuckStore, error) {
	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, serr.Wrap(err, "failed to open duckdb database")
	}

	store := &DuckStore{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, serr.Wrap(err, "failed to migrate duckdb database")
	}

	logger.Debug("Opened settings database", "path", path)
	return store, nil
}

// migrate creates the tables if needed
func (d *DuckStore) migrate() error {
	for _, ddl := range []string{DDLCreatePluginDataTable, DDLCreateLocalStorageTable} {
		if _, err := d.db.Exec(ddl); err != nil {
			return serr.Wrap(err, "failed to create table")
		}
	}
	return nil
}

// Close closes the database connection
func (d *DuckStore) Close() error {
	if d.db == nil {
		return nil
	}
	return d.db.Close()
}

// Load returns the stored settings document, or nil when none is stored
func (d *DuckStore) Load() (Document, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	var blob []byte
	err := d.db.QueryRow("SELECT doc FROM plugin_data WHERE key = ?", settingsKey).Scan(&blob)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, serr.Wrap(err, "failed to read settings document")
	}
	return DecodeDocument(blob)
}

// Save writes the settings document
func (d *DuckStore) Save(doc Document) error {
	blob, err := EncodeDocument(doc)
	if err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	_, err = d.db.Exec(`INSERT OR REPLACE INTO plugin_data (key, doc, updated_at) VALUES (?, ?, ?)`,
		settingsKey, blob, time.Now())
	if err != nil {
		return serr.Wrap(err, "failed to write settings document")
	}
	return nil
}

// Get reads a local storage value; missing keys read as empty
func (d *DuckStore) Get(key string) (string, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	var value sql.NullString
	err := d.db.QueryRow("SELECT value FROM local_storage WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", serr.Wrap(err, "failed to read local storage")
	}
	return value.String, nil
}

// Set writes a local storage value
func (d *DuckStore) Set(key, value string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	_, err := d.db.Exec(`INSERT OR REPLACE INTO local_storage (key, value, updated_at) VALUES (?, ?, ?)`,
		key, value, time.Now())
	return serr.Wrap(err, "failed to write local storage")
}

// Delete removes a local storage value
func (d *DuckStore) Delete(key string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	_, err := d.db.Exec("DELETE FROM local_storage WHERE key = ?", key)
	return serr.Wrap(err, "failed to delete local storage key")
}
