package views

import (
	"notetoolbar/models"
)

// RenderedItem is one entry of a rendered toolbar, after group splicing
// and variable resolution
type RenderedItem struct {
	UUID    string
	Type    models.ItemType
	Label   string
	Tooltip string
	Link    string
	Icon    string
	Target  string

	// Source strings before variable resolution, kept for the patch pass
	RawLabel   string
	RawTooltip string
	RawLink    string

	Visibility models.Visibility
	// HideIcon and HideLabel apply to the render platform
	HideIcon  bool
	HideLabel bool
	// Hidden means the item is present but not shown: both components are
	// hidden, or a variable link resolved to nothing
	Hidden    bool
	EmptyLink bool
	Disabled  bool

	// GroupUUID is set on items spliced in from a group item
	GroupUUID string
	Depth     int
}

// hasVariables reports whether any text of the item needs resolving
func (it *RenderedItem) hasVariables(rc *RenderContext) bool {
	return rc.hasVariables(it.RawLabel) || rc.hasVariables(it.RawTooltip) || rc.hasVariables(it.RawLink)
}

// Element is a rendered toolbar: the mirror of what was inserted into a view.
// Its data attributes record the configuration it was built from, and Items
// is the structured list the patch pass works on.
type Element struct {
	ToolbarUUID string
	Name        string
	Updated     string
	Position    models.PositionType
	ViewMode    models.ViewMode
	Platform    models.Platform
	StyleKey    string
	Classes     []string
	DefaultItem string

	Items []RenderedItem
	// Style holds layout-dependent inline style (bottom bar centering)
	Style string
}

// HTML returns the markup of the element. It reads the element only, so
// callers holding a Clone may render while the original is patched.
func (e *Element) HTML() string {
	return renderHTML(e)
}

// Clone returns a copy that shares no slices with e
func (e *Element) Clone() *Element {
	if e == nil {
		return nil
	}
	cp := *e
	cp.Classes = append([]string(nil), e.Classes...)
	cp.Items = append([]RenderedItem(nil), e.Items...)
	return &cp
}

// Item returns the rendered item with the given uuid
func (e *Element) Item(uuid string) (*RenderedItem, bool) {
	for i := range e.Items {
		if e.Items[i].UUID == uuid {
			return &e.Items[i], true
		}
	}
	return nil, false
}

// VisibleItems returns the items that are shown
func (e *Element) VisibleItems() []RenderedItem {
	out := make([]RenderedItem, 0, len(e.Items))
	for _, it := range e.Items {
		if !it.Hidden {
			out = append(out, it)
		}
	}
	return out
}

// ItemPatch is an in-place update of one rendered item
type ItemPatch struct {
	UUID     string
	Label    string
	Tooltip  string
	Link     string
	Hidden   bool
	Disabled bool
}

// Patch is a lightweight update of a rendered element
type Patch struct {
	Items []ItemPatch
	// Style replaces the inline style when StyleChanged is set
	Style        string
	StyleChanged bool
}

// Empty reports whether the patch changes nothing
func (p Patch) Empty() bool {
	return len(p.Items) == 0 && !p.StyleChanged
}

// Apply writes a patch into the element
func (e *Element) Apply(p Patch) {
	if p.Empty() {
		return
	}
	for _, ip := range p.Items {
		it, ok := e.Item(ip.UUID)
		if !ok {
			continue
		}
		it.Label = ip.Label
		it.Tooltip = ip.Tooltip
		it.Link = ip.Link
		it.Hidden = ip.Hidden
		it.Disabled = ip.Disabled
	}
	if p.StyleChanged {
		e.Style = p.Style
	}
}

// Diff compares the element's items against freshly resolved ones and
// returns only what changed. Items are matched by uuid; structure is
// assumed equal since any structural change bumps the toolbar's stamp.
func (e *Element) Diff(fresh []RenderedItem) []ItemPatch {
	var out []ItemPatch
	for _, f := range fresh {
		cur, ok := e.Item(f.UUID)
		if !ok {
			continue
		}
		if cur.Label == f.Label && cur.Tooltip == f.Tooltip && cur.Link == f.Link &&
			cur.Hidden == f.Hidden && cur.Disabled == f.Disabled {
			continue
		}
		out = append(out, ItemPatch{
			UUID:     f.UUID,
			Label:    f.Label,
			Tooltip:  f.Tooltip,
			Link:     f.Link,
			Hidden:   f.Hidden,
			Disabled: f.Disabled,
		})
	}
	return out
}
