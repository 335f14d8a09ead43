package models

import (
	"sync"

	"github.com/rohanthewiz/logger"
)

// LocalStorage is the host's lightweight per-device key/value store
type LocalStorage interface {
	Get(key string) (string, error)
	Set(key, value string) error
	Delete(key string) error
}

// MemoryLocalStorage is an in-process LocalStorage
type MemoryLocalStorage struct {
	mu     sync.RWMutex
	values map[string]string
}

func NewMemoryLocalStorage() *MemoryLocalStorage {
	return &MemoryLocalStorage{values: map[string]string{}}
}

func (m *MemoryLocalStorage) Get(key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.values[key], nil
}

func (m *MemoryLocalStorage) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

func (m *MemoryLocalStorage) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
	return nil
}

// ActiveItemKey is the local storage key of the active item pointer
const ActiveItemKey = "note-toolbar-active-item"

// ActiveItemPointer tracks the uuid of the most recently activated item.
// It outlives any single rendered toolbar.
type ActiveItemPointer struct {
	storage LocalStorage
}

func NewActiveItemPointer(storage LocalStorage) *ActiveItemPointer {
	return &ActiveItemPointer{storage: storage}
}

// Set records uuid as the active item
func (p *ActiveItemPointer) Set(uuid string) {
	if uuid == "" {
		p.Clear()
		return
	}
	if err := p.storage.Set(ActiveItemKey, uuid); err != nil {
		logger.LogErr(err, "failed to store active item", "uuid", uuid)
	}
}

// Get returns the active item uuid, empty when none
func (p *ActiveItemPointer) Get() string {
	v, err := p.storage.Get(ActiveItemKey)
	if err != nil {
		logger.LogErr(err, "failed to read active item")
		return ""
	}
	return v
}

// Clear forgets the active item
func (p *ActiveItemPointer) Clear() {
	if err := p.storage.Delete(ActiveItemKey); err != nil {
		logger.LogErr(err, "failed to clear active item")
	}
}
