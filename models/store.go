package models

import (
	"bytes"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rohanthewiz/logger"
	"github.com/rohanthewiz/serr"
	"github.com/vmihailenco/msgpack/v5"
)

// ChangeKind describes what a store mutation touched
type ChangeKind string

const (
	ChangeSettings ChangeKind = "settings"
	ChangeToolbar  ChangeKind = "toolbar"
	ChangeAdded    ChangeKind = "added"
	ChangeDeleted  ChangeKind = "deleted"
	ChangeRename   ChangeKind = "rename"
)

// ChangeEvent is broadcast to subscribers after every persisted mutation
type ChangeEvent struct {
	Kind     ChangeKind `json:"kind"`
	Toolbars []string   `json:"toolbars,omitempty"` // uuids whose stamp changed
}

// ConfigStore is the single owner of the settings.
// Reads return copies; every write goes through mutate, which stamps changed
// toolbars, persists, then broadcasts.
type ConfigStore struct {
	mu        sync.RWMutex
	settings  *Settings
	persister Persister
	now       func() time.Time

	subMu sync.Mutex
	subs  []func(ChangeEvent)
}

// NewConfigStore wraps already loaded settings
func NewConfigStore(settings *Settings, p Persister) *ConfigStore {
	if settings == nil {
		settings = NewSettings()
	}
	settings.applyDefaults()
	return &ConfigStore{
		settings:  settings,
		persister: p,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// OpenConfigStore loads and migrates settings from p
func OpenConfigStore(p Persister) (*ConfigStore, error) {
	s, err := LoadSettings(p)
	if err != nil {
		return nil, err
	}
	return NewConfigStore(s, p), nil
}

// SetClock replaces the clock used for updated stamps
func (s *ConfigStore) SetClock(now func() time.Time) {
	s.mu.Lock()
	s.now = now
	s.mu.Unlock()
}

// Subscribe registers fn to receive change events
func (s *ConfigStore) Subscribe(fn func(ChangeEvent)) {
	s.subMu.Lock()
	s.subs = append(s.subs, fn)
	s.subMu.Unlock()
}

// Snapshot returns a deep copy of the settings
func (s *ConfigStore) Snapshot() *Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out, err := cloneSettings(s.settings)
	if err != nil {
		logger.LogErr(err, "failed to snapshot settings")
		return NewSettings()
	}
	return out
}

// Toolbar returns a copy of the toolbar with the given uuid
func (s *ConfigStore) Toolbar(uuid string) (*Toolbar, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	tb, ok := s.settings.ToolbarByUUID(uuid)
	if !ok {
		return nil, false
	}
	return s.copyToolbar(tb)
}

// ToolbarByName returns a copy of the toolbar whose name matches
// case-insensitively
func (s *ConfigStore) ToolbarByName(name string) (*Toolbar, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	tb, ok := s.settings.ToolbarByName(name)
	if !ok {
		return nil, false
	}
	return s.copyToolbar(tb)
}

// ToolbarByNameOrUUID looks up by uuid first, then by name
func (s *ConfigStore) ToolbarByNameOrUUID(ref string) (*Toolbar, bool) {
	if tb, ok := s.Toolbar(ref); ok {
		return tb, true
	}
	return s.ToolbarByName(ref)
}

func (s *ConfigStore) copyToolbar(tb *Toolbar) (*Toolbar, bool) {
	out, err := cloneToolbar(tb)
	if err != nil {
		logger.LogErr(err, "failed to copy toolbar", "uuid", tb.UUID)
		return nil, false
	}
	return out, true
}

// FolderMappings returns a copy of the mapping rules in declared order
func (s *ConfigStore) FolderMappings() []FolderMapping {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]FolderMapping, len(s.settings.FolderMappings))
	copy(out, s.settings.FolderMappings)
	return out
}

// ToolbarProp returns the frontmatter key that selects toolbars
func (s *ConfigStore) ToolbarProp() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings.ToolbarProp
}

// ScriptingEnabled reports whether script items may run
func (s *ConfigStore) ScriptingEnabled() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings.ScriptingEnabled
}

// UpdateSettings applies fn to a working copy of the settings.
// Any toolbar whose content changed gets a fresh updated stamp, so callers
// cannot forget to bump it.
func (s *ConfigStore) UpdateSettings(fn func(*Settings) error) error {
	ev, err := s.mutate(ChangeSettings, fn)
	if err != nil {
		return err
	}
	s.broadcast(ev)
	return nil
}

// UpdateToolbar applies fn to the toolbar with the given uuid
func (s *ConfigStore) UpdateToolbar(uuid string, fn func(*Toolbar) error) error {
	ev, err := s.mutate(ChangeToolbar, func(st *Settings) error {
		tb, ok := st.ToolbarByUUID(uuid)
		if !ok {
			return &ConfigurationError{Kind: "toolbar", Ref: uuid}
		}
		return fn(tb)
	})
	if err != nil {
		return err
	}
	s.broadcast(ev)
	return nil
}

// AddToolbar creates an empty toolbar with the given name
func (s *ConfigStore) AddToolbar(name string) (*Toolbar, error) {
	tb := Toolbar{
		UUID:          uuid.New().String(),
		Name:          name,
		Items:         []ToolbarItem{},
		Positions:     Positions{Desktop: PositionProps, Mobile: PositionProps, Tablet: PositionProps},
		DefaultStyles: []string{"border", "even", "sticky"},
		MobileStyles:  []string{},
	}
	ev, err := s.mutate(ChangeAdded, func(st *Settings) error {
		st.Toolbars = append(st.Toolbars, tb)
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.broadcast(ev)
	out, _ := s.Toolbar(tb.UUID)
	return out, nil
}

// DuplicateToolbar copies a toolbar under a new name, giving the copy and
// every item fresh uuids
func (s *ConfigStore) DuplicateToolbar(uuidRef string) (*Toolbar, error) {
	src, ok := s.Toolbar(uuidRef)
	if !ok {
		return nil, &ConfigurationError{Kind: "toolbar", Ref: uuidRef}
	}
	dup := *src
	dup.UUID = uuid.New().String()
	dup.Name = src.Name + " (copy)"
	dup.Updated = ""
	dup.Items = make([]ToolbarItem, len(src.Items))
	for i, it := range src.Items {
		it.UUID = uuid.New().String()
		if it.ScriptConfig != nil {
			cfg := *it.ScriptConfig
			it.ScriptConfig = &cfg
		}
		dup.Items[i] = it
	}
	if src.DefaultItem != "" {
		// Point the default item at the copy's equivalent
		for i, it := range src.Items {
			if it.UUID == src.DefaultItem {
				dup.DefaultItem = dup.Items[i].UUID
			}
		}
	}

	ev, err := s.mutate(ChangeAdded, func(st *Settings) error {
		st.Toolbars = append(st.Toolbars, dup)
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.broadcast(ev)
	out, _ := s.Toolbar(dup.UUID)
	return out, nil
}

// DeleteToolbar removes a toolbar and the folder mappings that point at it
func (s *ConfigStore) DeleteToolbar(uuidRef string) error {
	ev, err := s.mutate(ChangeDeleted, func(st *Settings) error {
		idx := -1
		for i := range st.Toolbars {
			if st.Toolbars[i].UUID == uuidRef {
				idx = i
				break
			}
		}
		if idx < 0 {
			return &ConfigurationError{Kind: "toolbar", Ref: uuidRef}
		}
		st.Toolbars = append(st.Toolbars[:idx], st.Toolbars[idx+1:]...)
		mappings := st.FolderMappings[:0]
		for _, m := range st.FolderMappings {
			if m.ToolbarUUID != uuidRef {
				mappings = append(mappings, m)
			}
		}
		st.FolderMappings = mappings
		return nil
	})
	if err != nil {
		return err
	}
	ev.Toolbars = append(ev.Toolbars, uuidRef)
	s.broadcast(ev)
	return nil
}

// AddItem appends an item, assigning a uuid when missing
func (s *ConfigStore) AddItem(toolbarUUID string, item ToolbarItem) (*ToolbarItem, error) {
	if item.UUID == "" {
		item.UUID = uuid.New().String()
	}
	err := s.UpdateToolbar(toolbarUUID, func(tb *Toolbar) error {
		tb.Items = append(tb.Items, item)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// DeleteItem removes an item from its toolbar
func (s *ConfigStore) DeleteItem(toolbarUUID, itemUUID string) error {
	return s.UpdateToolbar(toolbarUUID, func(tb *Toolbar) error {
		for i := range tb.Items {
			if tb.Items[i].UUID == itemUUID {
				tb.Items = append(tb.Items[:i], tb.Items[i+1:]...)
				if tb.DefaultItem == itemUUID {
					tb.DefaultItem = ""
				}
				return nil
			}
		}
		return &ConfigurationError{Kind: "item", Ref: itemUUID}
	})
}

// RenameReferences rewrites item links and script source files that exactly
// equal oldPath. Returns the number of items changed; nothing is persisted
// when no item matched.
func (s *ConfigStore) RenameReferences(oldPath, newPath string) (int, error) {
	if oldPath == "" || oldPath == newPath {
		return 0, nil
	}
	changed := 0
	ev, err := s.mutate(ChangeRename, func(st *Settings) error {
		for ti := range st.Toolbars {
			for ii := range st.Toolbars[ti].Items {
				it := &st.Toolbars[ti].Items[ii]
				hit := false
				if it.Link == oldPath && linksToPath(it.Type) {
					it.Link = newPath
					hit = true
				}
				if it.ScriptConfig != nil && it.ScriptConfig.SourceFile == oldPath {
					it.ScriptConfig.SourceFile = newPath
					hit = true
				}
				if hit {
					changed++
				}
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	if changed > 0 {
		logger.Info("Updated toolbar references after rename", "from", oldPath, "to", newPath, "items", changed)
		s.broadcast(ev)
	}
	return changed, nil
}

// linksToPath reports whether an item's link can name a vault path.
// Command ids and toolbar uuids never do.
func linksToPath(t ItemType) bool {
	switch t {
	case ItemCommand, ItemMenu, ItemGroup:
		return false
	}
	return true
}

// mutate runs fn on a working copy, stamps every toolbar whose content
// changed, persists, and commits. Nothing is committed if fn or the save
// fails. A mutation that changes nothing is not persisted.
func (s *ConfigStore) mutate(kind ChangeKind, fn func(*Settings) error) (ChangeEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ev := ChangeEvent{Kind: kind}

	work, err := cloneSettings(s.settings)
	if err != nil {
		return ev, err
	}
	before := fingerprints(s.settings)
	beforeAll, err := msgpack.Marshal(s.settings)
	if err != nil {
		return ev, serr.Wrap(err, "failed to fingerprint settings")
	}

	if err := fn(work); err != nil {
		return ev, err
	}

	for i := range work.Toolbars {
		tb := &work.Toolbars[i]
		prev, existed := before[tb.UUID]
		fp := fingerprint(tb)
		if existed && bytes.Equal(prev.content, fp) {
			continue
		}
		tb.Updated = s.nextStamp(prev.updated)
		ev.Toolbars = append(ev.Toolbars, tb.UUID)
	}

	afterAll, err := msgpack.Marshal(work)
	if err != nil {
		return ev, serr.Wrap(err, "failed to fingerprint settings")
	}
	if bytes.Equal(beforeAll, afterAll) {
		return ev, nil
	}

	if s.persister != nil {
		doc, err := DocumentFromSettings(work)
		if err != nil {
			return ev, err
		}
		if err := s.persister.Save(doc); err != nil {
			return ev, serr.Wrap(err, "failed to save settings")
		}
	}
	s.settings = work
	return ev, nil
}

func (s *ConfigStore) broadcast(ev ChangeEvent) {
	s.subMu.Lock()
	subs := make([]func(ChangeEvent), len(s.subs))
	copy(subs, s.subs)
	s.subMu.Unlock()

	for _, fn := range subs {
		fn(ev)
	}
}

// StampLayout is the fixed-width form of updated stamps, so stamps written
// by the store also sort as strings
const StampLayout = "2006-01-02T15:04:05.000Z"

// nextStamp returns a timestamp strictly after prev
func (s *ConfigStore) nextStamp(prev string) string {
	t := s.now().UTC().Truncate(time.Millisecond)
	if prev != "" {
		if pt, err := time.Parse(time.RFC3339Nano, prev); err == nil && !t.After(pt) {
			t = pt.UTC().Truncate(time.Millisecond).Add(time.Millisecond)
		}
	}
	return t.Format(StampLayout)
}

type toolbarPrint struct {
	updated string
	content []byte
}

func fingerprints(st *Settings) map[string]toolbarPrint {
	out := make(map[string]toolbarPrint, len(st.Toolbars))
	for i := range st.Toolbars {
		tb := &st.Toolbars[i]
		out[tb.UUID] = toolbarPrint{updated: tb.Updated, content: fingerprint(tb)}
	}
	return out
}

// fingerprint encodes a toolbar without its stamp
func fingerprint(tb *Toolbar) []byte {
	cp := *tb
	cp.Updated = ""
	b, err := msgpack.Marshal(&cp)
	if err != nil {
		// Unencodable content never compares equal, so it always gets stamped
		return []byte(uuid.New().String())
	}
	return b
}
