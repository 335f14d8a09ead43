package models

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/rohanthewiz/serr"
)

// Persister loads and saves the settings document
type Persister interface {
	Load() (Document, error)
	Save(doc Document) error
}

// FileStore keeps settings in a host-style data.json file
type FileStore struct {
	Path string
	mu   sync.Mutex
}

// NewFileStore returns a store for the json file at path
func NewFileStore(path string) *FileStore {
	return &FileStore{Path: path}
}

// Load reads the file; a missing file yields a nil document
func (f *FileStore) Load() (Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := os.ReadFile(f.Path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, serr.Wrap(err, "failed to read settings file")
	}
	if len(data) == 0 {
		return nil, nil
	}

	doc := Document{}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, serr.Wrap(err, "failed to parse settings file")
	}
	return doc, nil
}

// Save writes the document atomically through a temp file
func (f *FileStore) Save(doc Document) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(f.Path), 0755); err != nil {
		return serr.Wrap(err, "failed to create settings directory")
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return serr.Wrap(err, "failed to encode settings file")
	}
	tmp := f.Path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return serr.Wrap(err, "failed to write settings file")
	}
	return serr.Wrap(os.Rename(tmp, f.Path), "failed to replace settings file")
}

// MemoryStore is a Persister that keeps the document in memory
type MemoryStore struct {
	mu    sync.Mutex
	doc   Document
	Saves int
}

// NewMemoryStore returns a store seeded with doc (which may be nil)
func NewMemoryStore(doc Document) *MemoryStore {
	return &MemoryStore{doc: doc}
}

func (m *MemoryStore) Load() (Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.doc == nil {
		return nil, nil
	}
	return copyDocument(m.doc), nil
}

func (m *MemoryStore) Save(doc Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.doc = copyDocument(doc)
	m.Saves++
	return nil
}
