// Package host declares what the toolbar engine needs from the editing
// application it runs inside. The engine never touches host state except
// through these interfaces.
package host

import (
	"context"

	"notetoolbar/models"
	"notetoolbar/views"
)

// Command is a registered host command
type Command struct {
	ID   string
	Name string
}

// Commands is the host command registry
type Commands interface {
	ListCommands() []Command
	// Execute runs a command; unknown ids return an error
	Execute(ctx context.Context, id string) error
	// IsAvailable runs the command's own availability check for a view
	IsAvailable(id string, view View) bool
}

// Point is a screen position, used to anchor menus
type Point struct {
	X, Y int
}

// Sibling names the kind of node directly before a rendered toolbar
type Sibling string

const (
	SiblingNone       Sibling = ""
	SiblingTitle      Sibling = "inline-title"
	SiblingProperties Sibling = "properties"
	SiblingContent    Sibling = "content"
	SiblingToolbar    Sibling = "toolbar"
)

// View is one open markdown view (a pane showing a note)
type View interface {
	ID() string
	File() *models.File
	Mode() models.ViewMode
	// Width is the current content width in pixels
	Width() int
	Selection() string

	// Insert attaches a rendered toolbar at its position's anchor
	Insert(el *views.Element) error
	// Remove detaches a rendered toolbar
	Remove(el *views.Element) error
	// Patch updates a rendered toolbar in place
	Patch(el *views.Element, p views.Patch) error
	// Elements lists every toolbar currently attached under the view's
	// anchor scope, in document order
	Elements() []*views.Element
	// PrecedingSibling reports the node right before an attached toolbar
	PrecedingSibling(el *views.Element) Sibling
	// MeasureWidth returns the rendered width of a toolbar in pixels
	MeasureWidth(el *views.Element) int
}

// Pane is an auxiliary editor opened for a sidebar-triggered activation
type Pane interface {
	View() View
	Close() error
}

// Workspace is the host application around the views
type Workspace interface {
	Platform() models.Platform
	// Views lists every open markdown view
	Views() []View
	ActiveView() View
	ActiveFile() *models.File
	// FileInfo returns the vault entry at path
	FileInfo(path string) (*models.File, bool)

	OpenFile(ctx context.Context, path, target string) error
	OpenModal(ctx context.Context, path string) error
	RevealFolder(ctx context.Context, path string) error
	OpenExternal(ctx context.Context, uri string) error
	SupportsWebViewer() bool
	OpenWebView(ctx context.Context, uri, target string) error
	OpenAuxiliary(ctx context.Context, file *models.File) (Pane, error)
	FocusEditor()
	InsertAtCursor(ctx context.Context, view View, text string) error

	ShowMenu(menu *views.Menu, at Point, focus bool) error
	OpenToolbarSettings(tb *models.Toolbar) error
	// Notice shows a short-lived message to the user
	Notice(msg string)
}

// Floating is a floating or ephemeral toolbar that can be dismissed
type Floating interface {
	Close()
}
