// Package dispatch runs the action behind an activated toolbar item
package dispatch

import (
	"context"
	"errors"
	"fmt"

	"notetoolbar/adapters"
	"notetoolbar/host"
	"notetoolbar/models"
	"notetoolbar/views"

	"github.com/rohanthewiz/logger"
	"github.com/rohanthewiz/serr"
)

// Store is the part of the config store activation reads
type Store interface {
	Toolbar(uuid string) (*models.Toolbar, bool)
	ToolbarByNameOrUUID(ref string) (*models.Toolbar, bool)
	ScriptingEnabled() bool
}

// Event describes what triggered an activation
type Event struct {
	// View the item was activated from; the active view when nil
	View host.View
	// Modifier is the pane target implied by the click modifier
	// ("tab", "split", "window"), used when the item sets none
	Modifier string
	// Keyboard is set for keyboard activation; opened menus take focus
	Keyboard bool
	// At anchors menus
	At host.Point
	// Floating is the ephemeral toolbar the item was on, if any
	Floating host.Floating
}

// Options are the optional collaborators of the dispatcher
type Options struct {
	Variables views.VariableResolver
	Icons     views.IconLookup
}

// Dispatcher turns item activations into host side effects
type Dispatcher struct {
	ws      host.Workspace
	cmds    host.Commands
	store   Store
	scripts *adapters.Registry
	pointer *models.ActiveItemPointer
	opts    Options
}

func New(ws host.Workspace, cmds host.Commands, store Store, scripts *adapters.Registry,
	pointer *models.ActiveItemPointer, opts Options) *Dispatcher {
	return &Dispatcher{ws: ws, cmds: cmds, store: store, scripts: scripts, pointer: pointer, opts: opts}
}

// Activate runs an item. contextFile is set when the activation came from
// a file menu rather than the open note; when it differs from the active
// note the action runs in an auxiliary pane that is closed afterwards.
// Configuration and adapter problems are shown as notices and returned.
func (d *Dispatcher) Activate(ctx context.Context, item *models.ToolbarItem, ev Event, contextFile *models.File) (err error) {
	if item == nil {
		return nil
	}
	defer func() {
		if rec := recover(); rec != nil {
			err = serr.New(fmt.Sprintf("activation of item %s panicked: %v", item.UUID, rec))
			logger.LogErr(err, "recovered from activation panic")
		}
	}()

	// Record first: the action itself may ask what was just activated
	if d.pointer != nil {
		d.pointer.Set(item.UUID)
	}

	if contextFile != nil && !isActive(d.ws.ActiveFile(), contextFile) {
		return d.report(d.activateInPane(ctx, item, ev, contextFile))
	}

	view := ev.View
	if view == nil {
		view = d.ws.ActiveView()
	}
	file := contextFile
	if file == nil && view != nil {
		file = view.File()
	}
	return d.report(d.activate(ctx, item, ev, view, file))
}

func isActive(active, f *models.File) bool {
	return active != nil && active.Path == f.Path
}

// ActivateByUUID activates an item looked up by toolbar and item uuid
func (d *Dispatcher) ActivateByUUID(ctx context.Context, toolbarUUID, itemUUID string, ev Event) error {
	tb, ok := d.store.Toolbar(toolbarUUID)
	if !ok {
		return d.report(&models.ConfigurationError{Kind: "toolbar", Ref: toolbarUUID})
	}
	item, ok := tb.Item(itemUUID)
	if !ok {
		return d.report(&models.ConfigurationError{Kind: "item", Ref: itemUUID})
	}
	return d.Activate(ctx, item, ev, nil)
}

// activateInPane runs the action against an auxiliary pane showing file,
// then closes the pane and gives focus back to the editor
func (d *Dispatcher) activateInPane(ctx context.Context, item *models.ToolbarItem, ev Event, file *models.File) error {
	pane, err := d.ws.OpenAuxiliary(ctx, file)
	if err != nil {
		return serr.Wrap(err, "failed to open auxiliary pane")
	}
	defer func() {
		if err := pane.Close(); err != nil {
			logger.LogErr(err, "failed to close auxiliary pane", "file", file.Path)
		}
		d.ws.FocusEditor()
	}()

	ev.View = pane.View()
	return d.activate(ctx, item, ev, pane.View(), file)
}

func (d *Dispatcher) activate(ctx context.Context, item *models.ToolbarItem, ev Event, view host.View, file *models.File) error {
	link := d.resolveLink(ctx, item, file)
	if item.Type.HasLink() && link == "" {
		logger.Debug("Item has no link to activate", "item", item.UUID)
		return nil
	}

	action, err := item.Action(link)
	if err != nil {
		return &models.ConfigurationError{Kind: "item", Ref: item.UUID, Cause: err}
	}

	keepFloating := false
	switch a := action.(type) {
	case models.CommandAction:
		err = d.runCommand(ctx, a.CommandID)
	case models.FileAction:
		err = d.openFile(ctx, a.Path, a.Target, ev)
	case models.URIAction:
		err = d.openURI(ctx, a, ev)
	case models.MenuAction:
		// Menus stay up until dismissed, and so does what opened them
		keepFloating = true
		err = d.OpenMenu(ctx, a.ToolbarUUID, ev)
	case models.GroupAction:
		// Groups only expand at render time
		logger.Debug("Group items are not activatable", "item", item.UUID)
	case models.SpacerAction:
	case models.ScriptAction:
		err = d.runScript(ctx, a, view)
	default:
		err = serr.New(fmt.Sprintf("unhandled action %T", action))
	}

	if !keepFloating && ev.Floating != nil {
		ev.Floating.Close()
	}
	return err
}

// resolveLink expands variables in the item's link. On failure the raw link
// is used.
func (d *Dispatcher) resolveLink(ctx context.Context, item *models.ToolbarItem, file *models.File) string {
	vars := d.opts.Variables
	if vars == nil || !vars.HasVariables(item.Link) {
		return item.Link
	}
	link, err := vars.Resolve(ctx, item.Link, file)
	if err != nil {
		logger.LogErr(err, "failed to resolve item link", "item", item.UUID)
		return item.Link
	}
	return link
}

func (d *Dispatcher) runCommand(ctx context.Context, id string) error {
	if !d.hasCommand(id) {
		return &models.ConfigurationError{Kind: "command", Ref: id}
	}
	if err := d.cmds.Execute(ctx, id); err != nil {
		return serr.Wrap(err, "command failed: "+id)
	}
	return nil
}

func (d *Dispatcher) hasCommand(id string) bool {
	if d.cmds == nil {
		return false
	}
	for _, c := range d.cmds.ListCommands() {
		if c.ID == id {
			return true
		}
	}
	return false
}

// openFile reveals folders, opens "modal" notes in an overlay and
// everything else in the requested pane
func (d *Dispatcher) openFile(ctx context.Context, path, target string, ev Event) error {
	if f, ok := d.ws.FileInfo(path); ok {
		if f.IsFolder {
			return d.ws.RevealFolder(ctx, f.Path)
		}
		path = f.Path
	}
	if target == "modal" {
		return d.ws.OpenModal(ctx, path)
	}
	if target == "" {
		target = ev.Modifier
	}
	return d.ws.OpenFile(ctx, path, target)
}

// openURI opens valid URIs externally, or in the web viewer when the item
// asks for a pane and the host has one. Anything else is taken as a path.
func (d *Dispatcher) openURI(ctx context.Context, a models.URIAction, ev Event) error {
	if !models.IsValidURI(a.URI) {
		logger.Debug("Not a URI, opening as file", "link", a.URI)
		return d.openFile(ctx, a.URI, a.Target, ev)
	}
	if a.Target != "" && d.ws.SupportsWebViewer() {
		return d.ws.OpenWebView(ctx, a.URI, a.Target)
	}
	return d.ws.OpenExternal(ctx, a.URI)
}

// OpenMenu shows a toolbar, by uuid or name, as a host menu at the event's
// point. Keyboard events move focus into the menu.
func (d *Dispatcher) OpenMenu(ctx context.Context, ref string, ev Event) error {
	tb, ok := d.store.ToolbarByNameOrUUID(ref)
	if !ok {
		return &models.ConfigurationError{Kind: "toolbar", Ref: ref}
	}
	view := ev.View
	if view == nil {
		view = d.ws.ActiveView()
	}
	menu, err := views.RenderMenu(ctx, tb, d.renderContext(view))
	if err != nil {
		return serr.Wrap(err, "failed to build menu")
	}
	return d.ws.ShowMenu(menu, ev.At, ev.Keyboard)
}

func (d *Dispatcher) renderContext(view host.View) *views.RenderContext {
	rc := &views.RenderContext{
		Platform:  d.ws.Platform(),
		Variables: d.opts.Variables,
		Icons:     d.opts.Icons,
		Toolbars:  d.store,
	}
	if view != nil {
		rc.File = view.File()
		rc.ViewMode = view.Mode()
		rc.ViewID = view.ID()
	} else {
		rc.File = d.ws.ActiveFile()
	}
	if d.cmds != nil {
		rc.Commands = boundCommands{cmds: d.cmds, view: view}
	}
	return rc
}

type boundCommands struct {
	cmds host.Commands
	view host.View
}

func (b boundCommands) IsAvailable(id string) bool {
	return b.cmds.IsAvailable(id, b.view)
}

// runScript forwards the item's script config to its adapter and inserts
// any text it returns at the cursor
func (d *Dispatcher) runScript(ctx context.Context, a models.ScriptAction, view host.View) error {
	if !d.store.ScriptingEnabled() {
		return &models.AdapterUnavailableError{Engine: a.Engine, Reason: "scripting is disabled"}
	}
	if d.scripts == nil {
		return &models.AdapterUnavailableError{Engine: a.Engine, Reason: "not installed"}
	}
	if _, err := d.scripts.Get(a.Engine); err != nil {
		return err
	}
	out, err := d.scripts.Evaluate(ctx, a.Engine, a.Config, adapters.Display)
	if err != nil {
		// Already shown by the registry
		return err
	}
	if out == "" {
		return nil
	}
	return d.ws.InsertAtCursor(ctx, view, out)
}

// report turns user-facing errors into notices
func (d *Dispatcher) report(err error) error {
	if err == nil {
		return nil
	}
	var cfgErr *models.ConfigurationError
	var adErr *models.AdapterUnavailableError
	switch {
	case errors.As(err, &cfgErr):
		d.ws.Notice(cfgErr.Error())
	case errors.As(err, &adErr):
		d.ws.Notice(adErr.Error())
	default:
		logger.LogErr(err, "item activation failed")
	}
	return err
}
