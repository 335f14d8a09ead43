// Package memhost is a headless host: vault entries and views live in
// memory (optionally loaded from a directory on disk) and every side effect
// is recorded so it can be inspected.
package memhost

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"notetoolbar/frontmatter"
	"notetoolbar/host"
	"notetoolbar/models"
	"notetoolbar/views"

	"github.com/rohanthewiz/logger"
	"github.com/rohanthewiz/serr"
)

// Command is a registered command with its behavior
type Command struct {
	host.Command
	Run   func(ctx context.Context) error
	Check func(view host.View) bool
}

// ShownMenu records a menu the host was asked to display
type ShownMenu struct {
	Menu  *views.Menu
	At    host.Point
	Focus bool
}

// Host implements host.Workspace and host.Commands
type Host struct {
	mu        sync.Mutex
	platform  models.Platform
	files     map[string]*models.File
	views     []*View
	active    *View
	commands  map[string]*Command
	webViewer bool
	auxSeq    int

	actions []string
	notices []string
	menus   []ShownMenu
}

// New returns an empty host for the platform
func New(platform models.Platform) *Host {
	if platform == "" {
		platform = models.PlatformDesktop
	}
	return &Host{
		platform: platform,
		files:    map[string]*models.File{},
		commands: map[string]*Command{},
	}
}

// LoadVault adds every folder and markdown note under root
func (h *Host) LoadVault(root string) error {
	return filepath.WalkDir(root, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if rel == "." {
			return nil
		}
		if strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			h.AddFolder(rel)
			return nil
		}
		if !strings.HasSuffix(strings.ToLower(d.Name()), ".md") {
			return nil
		}
		fm, err := frontmatter.ReadFile(p)
		if err != nil {
			// A note with broken frontmatter is still a note
			logger.LogErr(err, "failed to read note frontmatter", "path", rel)
			fm = nil
		}
		h.AddFile(rel, fm)
		return nil
	})
}

// AddFile adds or replaces a note
func (h *Host) AddFile(p string, fm map[string]any) *models.File {
	h.mu.Lock()
	defer h.mu.Unlock()
	f := &models.File{Path: p, Name: path.Base(p), Frontmatter: fm}
	h.files[p] = f
	return copyFile(f)
}

// AddFolder adds a folder entry
func (h *Host) AddFolder(p string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.files[p] = &models.File{Path: p, Name: path.Base(p), IsFolder: true}
}

// SetFrontmatter replaces a note's properties
func (h *Host) SetFrontmatter(p string, fm map[string]any) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if f, ok := h.files[p]; ok {
		f.Frontmatter = fm
	}
}

// RenameFile moves a vault entry; views showing it follow
func (h *Host) RenameFile(oldPath, newPath string) {
	h.mu.Lock()
	f, ok := h.files[oldPath]
	if !ok {
		h.mu.Unlock()
		return
	}
	delete(h.files, oldPath)
	f.Path = newPath
	f.Name = path.Base(newPath)
	h.files[newPath] = f
	open := append([]*View(nil), h.views...)
	h.mu.Unlock()

	// View fields belong to the view's own lock
	for _, v := range open {
		v.follow(oldPath, newPath)
	}
}

// RemoveFile deletes a vault entry
func (h *Host) RemoveFile(p string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.files, p)
}

// Files lists vault paths in sorted order
func (h *Host) Files() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]string, 0, len(h.files))
	for p := range h.files {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

func (h *Host) file(p string) *models.File {
	h.mu.Lock()
	defer h.mu.Unlock()
	f, ok := h.files[p]
	if !ok {
		return nil
	}
	return copyFile(f)
}

func copyFile(f *models.File) *models.File {
	cp := *f
	if f.Frontmatter != nil {
		cp.Frontmatter = make(map[string]any, len(f.Frontmatter))
		for k, v := range f.Frontmatter {
			cp.Frontmatter[k] = v
		}
	}
	return &cp
}

// OpenView opens a view on a note and makes it active
func (h *Host) OpenView(id, p string, mode models.ViewMode) *View {
	v := newView(h, id, p, mode)
	h.mu.Lock()
	h.views = append(h.views, v)
	h.active = v
	h.mu.Unlock()
	return v
}

// CloseView closes a view
func (h *Host) CloseView(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for i, v := range h.views {
		if v.id == id {
			h.views = append(h.views[:i], h.views[i+1:]...)
			if h.active == v {
				h.active = nil
				if len(h.views) > 0 {
					h.active = h.views[len(h.views)-1]
				}
			}
			return
		}
	}
}

// SetActive focuses the view with the given id
func (h *Host) SetActive(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, v := range h.views {
		if v.id == id {
			h.active = v
		}
	}
}

// View returns an open view by id
func (h *Host) View(id string) (*View, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, v := range h.views {
		if v.id == id {
			return v, true
		}
	}
	return nil, false
}

// RegisterCommand adds a command. A nil check means always available.
func (h *Host) RegisterCommand(id, name string, run func(ctx context.Context) error, check func(host.View) bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.commands[id] = &Command{Command: host.Command{ID: id, Name: name}, Run: run, Check: check}
}

// SetWebViewer toggles embedded web view support
func (h *Host) SetWebViewer(on bool) {
	h.mu.Lock()
	h.webViewer = on
	h.mu.Unlock()
}

func (h *Host) record(format string, args ...any) {
	h.mu.Lock()
	h.actions = append(h.actions, fmt.Sprintf(format, args...))
	h.mu.Unlock()
}

// Actions returns the recorded side effects in order
func (h *Host) Actions() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.actions...)
}

// Notices returns the notices shown so far
func (h *Host) Notices() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.notices...)
}

// Menus returns the menus shown so far
func (h *Host) Menus() []ShownMenu {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]ShownMenu(nil), h.menus...)
}

// host.Workspace

func (h *Host) Platform() models.Platform { return h.platform }

func (h *Host) Views() []host.View {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]host.View, len(h.views))
	for i, v := range h.views {
		out[i] = v
	}
	return out
}

func (h *Host) ActiveView() host.View {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.active == nil {
		return nil
	}
	return h.active
}

func (h *Host) ActiveFile() *models.File {
	v := h.ActiveView()
	if v == nil {
		return nil
	}
	return v.File()
}

func (h *Host) FileInfo(p string) (*models.File, bool) {
	f := h.file(strings.TrimSuffix(p, "/"))
	if f == nil {
		// Links may leave off the note extension
		f = h.file(p + ".md")
	}
	return f, f != nil
}

func (h *Host) OpenFile(_ context.Context, p, target string) error {
	h.record("open %s %s", p, target)
	return nil
}

func (h *Host) OpenModal(_ context.Context, p string) error {
	h.record("modal %s", p)
	return nil
}

func (h *Host) RevealFolder(_ context.Context, p string) error {
	h.record("reveal %s", p)
	return nil
}

func (h *Host) OpenExternal(_ context.Context, uri string) error {
	h.record("external %s", uri)
	return nil
}

func (h *Host) SupportsWebViewer() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.webViewer
}

func (h *Host) OpenWebView(_ context.Context, uri, target string) error {
	h.record("webview %s %s", uri, target)
	return nil
}

func (h *Host) OpenAuxiliary(_ context.Context, file *models.File) (host.Pane, error) {
	if file == nil {
		return nil, serr.New("no file for auxiliary pane")
	}
	h.mu.Lock()
	h.auxSeq++
	id := fmt.Sprintf("aux-%d", h.auxSeq)
	h.mu.Unlock()

	v := newView(h, id, file.Path, models.ViewModeSource)
	h.mu.Lock()
	h.views = append(h.views, v)
	h.mu.Unlock()
	h.record("aux-open %s", file.Path)
	return &pane{h: h, view: v}, nil
}

func (h *Host) FocusEditor() {
	h.record("focus")
}

func (h *Host) InsertAtCursor(_ context.Context, view host.View, text string) error {
	id := ""
	if view != nil {
		id = view.ID()
	}
	h.record("insert %s %s", id, text)
	return nil
}

func (h *Host) ShowMenu(menu *views.Menu, at host.Point, focus bool) error {
	h.mu.Lock()
	h.menus = append(h.menus, ShownMenu{Menu: menu, At: at, Focus: focus})
	h.mu.Unlock()
	h.record("menu %s %d,%d", menu.Title, at.X, at.Y)
	return nil
}

func (h *Host) OpenToolbarSettings(tb *models.Toolbar) error {
	h.record("settings %s", tb.Name)
	return nil
}

func (h *Host) Notice(msg string) {
	h.mu.Lock()
	h.notices = append(h.notices, msg)
	h.mu.Unlock()
	logger.Info("Notice", "message", msg)
}

// host.Commands

func (h *Host) ListCommands() []host.Command {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]host.Command, 0, len(h.commands))
	for _, c := range h.commands {
		out = append(out, c.Command)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (h *Host) Execute(ctx context.Context, id string) error {
	h.mu.Lock()
	c, ok := h.commands[id]
	h.mu.Unlock()
	if !ok {
		return serr.New("unknown command: " + id)
	}
	h.record("execute %s", id)
	if c.Run == nil {
		return nil
	}
	return c.Run(ctx)
}

func (h *Host) IsAvailable(id string, view host.View) bool {
	h.mu.Lock()
	c, ok := h.commands[id]
	h.mu.Unlock()
	if !ok {
		return false
	}
	return c.Check == nil || c.Check(view)
}

type pane struct {
	h    *Host
	view *View
}

func (p *pane) View() host.View { return p.view }

func (p *pane) Close() error {
	p.h.CloseView(p.view.id)
	p.h.record("aux-close %s", p.view.path)
	return nil
}
