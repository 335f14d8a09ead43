package memhost

import (
	"sync"

	"notetoolbar/host"
	"notetoolbar/models"
	"notetoolbar/views"
)

// ItemWidth is the width in pixels one visible item measures at
const ItemWidth = 40

// View is an in-memory markdown view. Attached toolbars are kept in
// document order and every mutation is counted.
type View struct {
	mu        sync.Mutex
	h         *Host
	id        string
	path      string
	mode      models.ViewMode
	width     int
	selection string
	detached  bool
	elements  []*views.Element
	siblings  map[*views.Element]host.Sibling

	inserts, removes, patches int

	// OnInsert runs before each insert is applied, outside the view lock
	OnInsert func(el *views.Element)
}

func newView(h *Host, id, p string, mode models.ViewMode) *View {
	if mode == "" {
		mode = models.ViewModeSource
	}
	return &View{h: h, id: id, path: p, mode: mode, width: 800, siblings: map[*views.Element]host.Sibling{}}
}

func (v *View) ID() string { return v.id }

func (v *View) File() *models.File {
	v.mu.Lock()
	p := v.path
	v.mu.Unlock()
	if p == "" {
		return nil
	}
	return v.h.file(p)
}

func (v *View) Mode() models.ViewMode {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.mode
}

func (v *View) Width() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.width
}

func (v *View) Selection() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.selection
}

// SetPath points the view at another note; empty leaves it without a file
func (v *View) SetPath(p string) {
	v.mu.Lock()
	v.path = p
	v.mu.Unlock()
}

// follow moves the view to newPath if it shows oldPath
func (v *View) follow(oldPath, newPath string) {
	v.mu.Lock()
	if v.path == oldPath {
		v.path = newPath
	}
	v.mu.Unlock()
}

// SetMode switches between source and preview
func (v *View) SetMode(mode models.ViewMode) {
	v.mu.Lock()
	v.mode = mode
	v.mu.Unlock()
}

func (v *View) SetWidth(w int) {
	v.mu.Lock()
	v.width = w
	v.mu.Unlock()
}

func (v *View) SetSelection(s string) {
	v.mu.Lock()
	v.selection = s
	v.mu.Unlock()
}

// SetDetached makes the view refuse inserts, as while it has no anchor
func (v *View) SetDetached(on bool) {
	v.mu.Lock()
	v.detached = on
	v.mu.Unlock()
}

// SetSibling overrides what precedes an attached toolbar
func (v *View) SetSibling(el *views.Element, sib host.Sibling) {
	v.mu.Lock()
	v.siblings[el] = sib
	v.mu.Unlock()
}

// Attach adds a toolbar without counting it, as when the host duplicates
// or restores a node on its own
func (v *View) Attach(el *views.Element) {
	v.mu.Lock()
	v.elements = append(v.elements, el)
	v.mu.Unlock()
}

// DetachAll drops every toolbar without counting, as when the host
// rebuilds the view's nodes
func (v *View) DetachAll() {
	v.mu.Lock()
	v.elements = nil
	v.siblings = map[*views.Element]host.Sibling{}
	v.mu.Unlock()
}

// Counts returns the number of inserts, removes and patches so far
func (v *View) Counts() (inserts, removes, patches int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.inserts, v.removes, v.patches
}

func (v *View) Insert(el *views.Element) error {
	if hook := v.OnInsert; hook != nil {
		hook(el)
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.detached {
		return &models.RenderPreconditionError{ViewID: v.id, Reason: "view has no anchor"}
	}
	v.inserts++
	v.elements = append(v.elements, el)
	return nil
}

func (v *View) Remove(el *views.Element) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	for i, x := range v.elements {
		if x == el {
			v.elements = append(v.elements[:i], v.elements[i+1:]...)
			delete(v.siblings, el)
			v.removes++
			return nil
		}
	}
	// Already gone is fine
	return nil
}

func (v *View) Patch(el *views.Element, _ views.Patch) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.patches++
	return nil
}

func (v *View) Elements() []*views.Element {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]*views.Element(nil), v.elements...)
}

func (v *View) PrecedingSibling(el *views.Element) host.Sibling {
	v.mu.Lock()
	defer v.mu.Unlock()
	if sib, ok := v.siblings[el]; ok {
		return sib
	}
	var prev *views.Element
	for _, x := range v.elements {
		if x == el {
			break
		}
		if x.Position == el.Position {
			prev = x
		}
	}
	if prev != nil {
		return host.SiblingToolbar
	}
	switch el.Position {
	case models.PositionTop, models.PositionProps:
		return host.SiblingProperties
	case models.PositionBottom:
		return host.SiblingContent
	}
	return host.SiblingNone
}

func (v *View) MeasureWidth(el *views.Element) int {
	return len(el.VisibleItems()) * ItemWidth
}
