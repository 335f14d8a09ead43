package models

import (
	"sort"
	"strings"
)

// ItemType identifies what a toolbar item does when activated
type ItemType string

const (
	ItemCommand    ItemType = "command"
	ItemFile       ItemType = "file"
	ItemURI        ItemType = "uri"
	ItemMenu       ItemType = "menu"
	ItemGroup      ItemType = "group"
	ItemSeparator  ItemType = "separator"
	ItemBreak      ItemType = "break"
	ItemSpreader   ItemType = "spreader"
	ItemDataview   ItemType = "dataview"
	ItemJavaScript ItemType = "js"
	ItemJsEngine   ItemType = "jsengine"
	ItemTemplater  ItemType = "templater"
)

// IsScript reports whether the type is executed by an external script adapter
func (t ItemType) IsScript() bool {
	switch t {
	case ItemDataview, ItemJavaScript, ItemJsEngine, ItemTemplater:
		return true
	}
	return false
}

// IsSpacer reports whether the type is purely structural (no action, no link)
func (t ItemType) IsSpacer() bool {
	switch t {
	case ItemSeparator, ItemBreak, ItemSpreader:
		return true
	}
	return false
}

// HasLink reports whether the item's link is the target of its action
func (t ItemType) HasLink() bool {
	switch t {
	case ItemCommand, ItemFile, ItemURI, ItemMenu, ItemGroup:
		return true
	}
	return false
}

// PositionType is the anchor location a toolbar renders at
type PositionType string

const (
	PositionTop    PositionType = "top"
	PositionBottom PositionType = "bottom"
	PositionProps  PositionType = "props"
	PositionTabBar PositionType = "tabbar"
	PositionFabL   PositionType = "fabl"
	PositionFabR   PositionType = "fabr"
	PositionHidden PositionType = "hidden"
	// Render-only positions, never stored on a toolbar
	PositionText PositionType = "text"
	PositionMenu PositionType = "menu"
)

// IsFloating reports whether the position floats over the view rather than
// sitting inline in the document
func (p PositionType) IsFloating() bool {
	switch p {
	case PositionFabL, PositionFabR, PositionText:
		return true
	}
	return false
}

// Platform is the device class the host runs on
type Platform string

const (
	PlatformDesktop Platform = "desktop"
	PlatformMobile  Platform = "mobile"
	PlatformTablet  Platform = "tablet"
)

// ViewMode is the live mode of a markdown view
type ViewMode string

const (
	ViewModeSource  ViewMode = "source"
	ViewModePreview ViewMode = "preview"
)

// Positions holds the per-platform placement of a toolbar
type Positions struct {
	Desktop PositionType `json:"desktop"`
	Mobile  PositionType `json:"mobile"`
	Tablet  PositionType `json:"tablet"`
}

// For returns the position configured for the platform, defaulting to props
func (p Positions) For(platform Platform) PositionType {
	var pos PositionType
	switch platform {
	case PlatformMobile:
		pos = p.Mobile
	case PlatformTablet:
		pos = p.Tablet
	default:
		pos = p.Desktop
	}
	if pos == "" {
		return PositionProps
	}
	return pos
}

// ComponentVisibility toggles the two visible parts of an item.
// The zero value shows both.
type ComponentVisibility struct {
	HideIcon  bool `json:"hideIcon,omitempty"`
	HideLabel bool `json:"hideLabel,omitempty"`
}

// Visibility holds per-platform component visibility for an item
type Visibility struct {
	Desktop ComponentVisibility `json:"desktop"`
	Mobile  ComponentVisibility `json:"mobile"`
	Tablet  ComponentVisibility `json:"tablet"`
}

// For returns the component visibility for the platform
func (v Visibility) For(platform Platform) ComponentVisibility {
	switch platform {
	case PlatformMobile:
		return v.Mobile
	case PlatformTablet:
		return v.Tablet
	}
	return v.Desktop
}

// ScriptConfig holds the opaque parameters forwarded to a script adapter
type ScriptConfig struct {
	PluginFunction  string `json:"pluginFunction,omitempty"`
	Expression      string `json:"expression,omitempty"`
	SourceFile      string `json:"sourceFile,omitempty"`
	SourceFunction  string `json:"sourceFunction,omitempty"`
	SourceArgs      string `json:"sourceArgs,omitempty"`
	OutputContainer string `json:"outputContainer,omitempty"`
}

// ToolbarItem is a single entry within a toolbar
type ToolbarItem struct {
	UUID         string        `json:"uuid"`
	Label        string        `json:"label"`
	Tooltip      string        `json:"tooltip"`
	Icon         string        `json:"icon"`
	Link         string        `json:"link"`
	Type         ItemType      `json:"type"`
	Target       string        `json:"target,omitempty"` // "", "tab", "split", "window", "modal"
	Visibility   Visibility    `json:"visibility"`
	ScriptConfig *ScriptConfig `json:"scriptConfig,omitempty"`
	HasCommand   bool          `json:"hasCommand,omitempty"`
}

// Toolbar is a named, ordered collection of items plus placement and styling
type Toolbar struct {
	UUID          string        `json:"uuid"`
	Name          string        `json:"name"`
	Items         []ToolbarItem `json:"items"`
	Positions     Positions     `json:"positions"`
	DefaultStyles []string      `json:"defaultStyles"`
	MobileStyles  []string      `json:"mobileStyles"`
	CustomClasses string        `json:"customClasses,omitempty"`
	DefaultItem   string        `json:"defaultItem,omitempty"`
	Updated       string        `json:"updated"`
}

// Item returns the item with the given uuid
func (t *Toolbar) Item(uuid string) (*ToolbarItem, bool) {
	for i := range t.Items {
		if t.Items[i].UUID == uuid {
			return &t.Items[i], true
		}
	}
	return nil, false
}

// StyleClasses returns the CSS classes derived from the style tags.
// Mobile tags carry an "mbl-" prefix so both sets can coexist.
func (t *Toolbar) StyleClasses() []string {
	classes := make([]string, 0, len(t.DefaultStyles)+len(t.MobileStyles))
	for _, s := range t.DefaultStyles {
		if s = strings.TrimSpace(s); s != "" {
			classes = append(classes, s)
		}
	}
	for _, s := range t.MobileStyles {
		if s = strings.TrimSpace(s); s != "" {
			classes = append(classes, "mbl-"+s)
		}
	}
	return classes
}

// StyleKey is an order-independent key of the toolbar's style classes
func (t *Toolbar) StyleKey() string {
	classes := t.StyleClasses()
	sort.Strings(classes)
	out := classes[:0]
	for i, c := range classes {
		if i > 0 && c == classes[i-1] {
			continue
		}
		out = append(out, c)
	}
	return strings.Join(out, " ")
}

// FolderMapping assigns a default toolbar to notes under a folder.
// Folder is "*" (everything), "/" (vault root only) or a path prefix.
type FolderMapping struct {
	Folder      string `json:"folder"`
	ToolbarUUID string `json:"toolbar"`
}

// File is the subset of a vault file the toolbar engine needs
type File struct {
	Path        string         `json:"path"`
	Name        string         `json:"name"`
	IsFolder    bool           `json:"isFolder,omitempty"`
	Frontmatter map[string]any `json:"-"`
}

// Basename returns the file name without its extension
func (f *File) Basename() string {
	name := f.Name
	if i := strings.LastIndex(name, "."); i > 0 {
		name = name[:i]
	}
	return name
}

// DefaultToolbarProp is the frontmatter key that selects a toolbar by name
const DefaultToolbarProp = "notetoolbar"

// Settings is the whole persisted plugin state
type Settings struct {
	Version           int             `json:"version"`
	Toolbars          []Toolbar       `json:"toolbars"`
	FolderMappings    []FolderMapping `json:"folderMappings"`
	ToolbarProp       string          `json:"toolbarProp"`
	ScriptingEnabled  bool            `json:"scriptingEnabled"`
	ShowEditInFabMenu bool            `json:"showEditInFabMenu"`
	EmptyViewToolbar  string          `json:"emptyViewToolbar,omitempty"`
	TextToolbar       string          `json:"textToolbar,omitempty"`
	Debug             bool            `json:"debug,omitempty"`
}

// ToolbarByUUID finds a toolbar by its uuid
func (s *Settings) ToolbarByUUID(uuid string) (*Toolbar, bool) {
	if uuid == "" {
		return nil, false
	}
	for i := range s.Toolbars {
		if s.Toolbars[i].UUID == uuid {
			return &s.Toolbars[i], true
		}
	}
	return nil, false
}

// ToolbarByName finds a toolbar whose name case-insensitively equals name
func (s *Settings) ToolbarByName(name string) (*Toolbar, bool) {
	for i := range s.Toolbars {
		if strings.EqualFold(s.Toolbars[i].Name, name) {
			return &s.Toolbars[i], true
		}
	}
	return nil, false
}

func (s *Settings) applyDefaults() {
	if s.ToolbarProp == "" {
		s.ToolbarProp = DefaultToolbarProp
	}
	if s.Toolbars == nil {
		s.Toolbars = []Toolbar{}
	}
	if s.FolderMappings == nil {
		s.FolderMappings = []FolderMapping{}
	}
	for i := range s.Toolbars {
		if s.Toolbars[i].Items == nil {
			s.Toolbars[i].Items = []ToolbarItem{}
		}
	}
}

// NewSettings returns empty settings at the current schema version
func NewSettings() *Settings {
	s := &Settings{Version: CurrentVersion}
	s.applyDefaults()
	return s
}
