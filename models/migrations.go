package models

import (
	"encoding/json"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/rohanthewiz/logger"
	"github.com/rohanthewiz/serr"
)

// Document is the loosely-typed persisted settings blob that migrations
// operate on before it is decoded into Settings
type Document map[string]any

// CurrentVersion is the settings schema version this build writes
const CurrentVersion = 6

// Migration transforms a document at schema version From into From+1.
// Apply must not modify its input, and must fully populate any replacement
// field before returning.
type Migration struct {
	From  int
	Name  string
	Apply func(Document) (Document, error)
}

// Migrations is the ordered list of schema transforms
var Migrations = []Migration{
	{From: 0, Name: "rename item url to link", Apply: migrateURLToLink},
	{From: 1, Name: "item hide flags to visibility", Apply: migrateHideFlags},
	{From: 2, Name: "toolbar position to per-platform positions", Apply: migratePositions},
	{From: 3, Name: "ensure uuids and updated stamps", Apply: migrateIdentity},
	{From: 4, Name: "legacy link type and folder mappings key", Apply: migrateLinkType},
	{From: 5, Name: "script fields to scriptConfig", Apply: migrateScriptConfig},
}

// migrationNow is the clock used when a migration must stamp a timestamp
var migrationNow = func() time.Time { return time.Now().UTC() }

// DocumentVersion returns the stored schema version; missing or unreadable
// means oldest
func DocumentVersion(doc Document) int {
	if doc == nil {
		return 0
	}
	v, ok := asInt(doc["version"])
	if !ok || v < 0 {
		return 0
	}
	return v
}

// Migrate applies every migration from the document's version onwards.
// The returned bool reports whether anything was applied.
func Migrate(doc Document) (Document, bool, error) {
	version := DocumentVersion(doc)
	if version >= CurrentVersion {
		return doc, false, nil
	}

	out := doc
	if out == nil {
		out = Document{}
	}
	for _, m := range Migrations {
		if m.From < version {
			continue
		}
		next, err := m.Apply(out)
		if err != nil {
			return nil, false, serr.Wrap(err, "migration failed: "+m.Name)
		}
		next["version"] = m.From + 1
		logger.Debug("Applied settings migration", "from", m.From, "name", m.Name)
		out = next
	}
	out["version"] = CurrentVersion
	return out, true, nil
}

// DocumentFromSettings converts typed settings into a document
func DocumentFromSettings(s *Settings) (Document, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, serr.Wrap(err, "failed to marshal settings")
	}
	doc := Document{}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, serr.Wrap(err, "failed to unmarshal settings document")
	}
	return doc, nil
}

// SettingsFromDocument decodes a migrated document into settings
func SettingsFromDocument(doc Document) (*Settings, error) {
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, serr.Wrap(err, "failed to marshal settings document")
	}
	s := &Settings{}
	if err := json.Unmarshal(data, s); err != nil {
		return nil, serr.Wrap(err, "failed to decode settings")
	}
	s.applyDefaults()
	return s, nil
}

// LoadSettings loads, migrates and decodes settings from the persister.
// A migrated document is saved back before returning.
func LoadSettings(p Persister) (*Settings, error) {
	doc, err := p.Load()
	if err != nil {
		return nil, serr.Wrap(err, "failed to load settings")
	}
	if doc == nil {
		logger.Info("No stored settings, starting empty")
		return NewSettings(), nil
	}

	migrated, changed, err := Migrate(doc)
	if err != nil {
		return nil, err
	}
	s, err := SettingsFromDocument(migrated)
	if err != nil {
		return nil, err
	}
	if changed {
		logger.Info("Settings migrated", "from", DocumentVersion(doc), "to", CurrentVersion)
		if err := p.Save(migrated); err != nil {
			return nil, serr.Wrap(err, "failed to persist migrated settings")
		}
	}
	return s, nil
}

// IsValidURI reports whether s is an absolute URI with a scheme.
// Single-letter schemes are rejected so Windows drive paths stay paths.
func IsValidURI(s string) bool {
	u, err := url.ParseRequestURI(s)
	if err != nil {
		return false
	}
	if len(u.Scheme) < 2 {
		return false
	}
	return u.Host != "" || u.Opaque != "" || u.Path != ""
}

func migrateURLToLink(in Document) (Document, error) {
	doc := copyDocument(in)
	eachItem(doc, func(item map[string]any) {
		legacy, ok := item["url"]
		if !ok {
			return
		}
		if _, has := item["link"]; !has {
			item["link"] = legacy
		}
		delete(item, "url")
	})
	return doc, nil
}

func migrateHideFlags(in Document) (Document, error) {
	doc := copyDocument(in)
	eachItem(doc, func(item map[string]any) {
		hideDesktop, hasDesktop := item["hideOnDesktop"].(bool)
		hideMobile, hasMobile := item["hideOnMobile"].(bool)
		if _, has := item["visibility"]; !has {
			item["visibility"] = map[string]any{
				"desktop": map[string]any{"hideIcon": hideDesktop, "hideLabel": hideDesktop},
				"mobile":  map[string]any{"hideIcon": hideMobile, "hideLabel": hideMobile},
				"tablet":  map[string]any{"hideIcon": hideMobile, "hideLabel": hideMobile},
			}
		}
		if hasDesktop {
			delete(item, "hideOnDesktop")
		}
		if hasMobile {
			delete(item, "hideOnMobile")
		}
	})
	return doc, nil
}

func migratePositions(in Document) (Document, error) {
	doc := copyDocument(in)
	for _, tb := range toolbarsOf(doc) {
		if _, has := tb["positions"]; has {
			delete(tb, "position")
			continue
		}
		pos, _ := tb["position"].(string)
		if pos == "" {
			pos = string(PositionProps)
		}
		tb["positions"] = map[string]any{"desktop": pos, "mobile": pos, "tablet": pos}
		delete(tb, "position")
	}
	return doc, nil
}

func migrateIdentity(in Document) (Document, error) {
	doc := copyDocument(in)
	stamp := migrationNow().Format(time.RFC3339Nano)
	for _, tb := range toolbarsOf(doc) {
		if id, _ := tb["uuid"].(string); id == "" {
			tb["uuid"] = uuid.New().String()
		}
		if up, _ := tb["updated"].(string); up == "" {
			tb["updated"] = stamp
		}
	}
	eachItem(doc, func(item map[string]any) {
		if id, _ := item["uuid"].(string); id == "" {
			item["uuid"] = uuid.New().String()
		}
	})
	return doc, nil
}

func migrateLinkType(in Document) (Document, error) {
	doc := copyDocument(in)
	eachItem(doc, func(item map[string]any) {
		if t, _ := item["type"].(string); t != "link" {
			return
		}
		link, _ := item["link"].(string)
		if IsValidURI(link) {
			item["type"] = string(ItemURI)
		} else {
			item["type"] = string(ItemFile)
		}
	})
	if legacy, ok := doc["mappings"]; ok {
		if _, has := doc["folderMappings"]; !has {
			doc["folderMappings"] = legacy
		}
		delete(doc, "mappings")
	}
	return doc, nil
}

var legacyScriptFields = []string{"pluginFunction", "expression", "sourceFile", "sourceFunction", "sourceArgs"}

func migrateScriptConfig(in Document) (Document, error) {
	doc := copyDocument(in)
	eachItem(doc, func(item map[string]any) {
		cfg, _ := item["scriptConfig"].(map[string]any)
		moved := false
		for _, field := range legacyScriptFields {
			v, ok := item[field]
			if !ok {
				continue
			}
			if cfg == nil {
				cfg = map[string]any{}
			}
			if _, has := cfg[field]; !has {
				cfg[field] = v
			}
			delete(item, field)
			moved = true
		}
		if moved {
			item["scriptConfig"] = cfg
		}
	})
	return doc, nil
}

func toolbarsOf(doc Document) []map[string]any {
	raw, _ := doc["toolbars"].([]any)
	out := make([]map[string]any, 0, len(raw))
	for _, t := range raw {
		if tb, ok := t.(map[string]any); ok {
			out = append(out, tb)
		}
	}
	return out
}

func eachItem(doc Document, fn func(item map[string]any)) {
	for _, tb := range toolbarsOf(doc) {
		items, _ := tb["items"].([]any)
		for _, it := range items {
			if item, ok := it.(map[string]any); ok {
				fn(item)
			}
		}
	}
}

func copyDocument(in Document) Document {
	if in == nil {
		return Document{}
	}
	return Document(copyValue(map[string]any(in)).(map[string]any))
}

func copyValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = copyValue(val)
		}
		return out
	case Document:
		return copyValue(map[string]any(t))
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = copyValue(val)
		}
		return out
	}
	return v
}

func asInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int8:
		return int(n), true
	case int16:
		return int(n), true
	case int32:
		return int(n), true
	case int64:
		return int(n), true
	case uint8:
		return int(n), true
	case uint16:
		return int(n), true
	case uint32:
		return int(n), true
	case uint64:
		return int(n), true
	case float32:
		return int(n), true
	case float64:
		return int(n), true
	}
	return 0, false
}
