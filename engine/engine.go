package engine

import (
	"context"
	"errors"
	"sync"

	"notetoolbar/host"
	"notetoolbar/models"
	"notetoolbar/resolver"
	"notetoolbar/views"

	"github.com/rohanthewiz/logger"
	"github.com/rohanthewiz/serr"
)

// Store is the read side of the config store the engine uses
type Store interface {
	resolver.Source
	Snapshot() *models.Settings
}

// Options are the optional collaborators of the engine
type Options struct {
	Variables views.VariableResolver
	Icons     views.IconLookup
}

// Engine keeps every view's rendered toolbar in step with configuration
// and note state. The registry of rendered elements is the source of
// truth; the host is only asked about its elements to repair duplicates.
type Engine struct {
	store    Store
	resolver *resolver.Resolver
	ws       host.Workspace
	cmds     host.Commands
	opts     Options
	warner   *missingWarner

	mu      sync.Mutex
	entries map[string]*entry
}

// New returns an engine for the workspace
func New(store Store, ws host.Workspace, cmds host.Commands, opts Options) *Engine {
	return &Engine{
		store:    store,
		resolver: resolver.New(store),
		ws:       ws,
		cmds:     cmds,
		opts:     opts,
		warner:   newMissingWarner(ws.Notice),
		entries:  map[string]*entry{},
	}
}

// Resolver exposes the toolbar resolver the engine uses
func (e *Engine) Resolver() *resolver.Resolver {
	return e.resolver
}

// Reconcile brings the view's toolbar up to date: render when absent,
// rebuild when stale, patch in place when current. A pass arriving while
// another runs for the same view is dropped.
func (e *Engine) Reconcile(ctx context.Context, view host.View, trigger Trigger) (Outcome, error) {
	if view == nil {
		logger.Debug("Nothing to reconcile", "trigger", trigger,
			"reason", (&models.RenderPreconditionError{Reason: "no active view"}).Error())
		return OutcomeNone, nil
	}
	en, ok := e.acquire(view.ID())
	if !ok {
		logger.Debug("Reconcile dropped, pass in flight", "view", view.ID(), "trigger", trigger)
		return OutcomeDropped, nil
	}
	defer e.release(en)

	return e.pass(ctx, view, en, trigger)
}

// Rebuild removes the view's toolbar then reconciles from scratch, as
// after a settings save
func (e *Engine) Rebuild(ctx context.Context, view host.View) (Outcome, error) {
	if view == nil {
		return OutcomeNone, nil
	}
	en, ok := e.acquire(view.ID())
	if !ok {
		return OutcomeDropped, nil
	}
	defer e.release(en)

	if err := e.removeAll(view, en); err != nil {
		return OutcomeNone, err
	}
	return e.pass(ctx, view, en, TriggerSettings)
}

// ReconcileAll runs a pass on every open view. Views are independent, so a
// failure in one is logged and does not stop the others.
func (e *Engine) ReconcileAll(ctx context.Context, trigger Trigger) {
	for _, v := range e.ws.Views() {
		if _, err := e.Reconcile(ctx, v, trigger); err != nil {
			logger.LogErr(err, "reconcile failed", "view", v.ID(), "trigger", trigger)
		}
	}
}

// RebuildAll rebuilds every open view
func (e *Engine) RebuildAll(ctx context.Context) {
	for _, v := range e.ws.Views() {
		if _, err := e.Rebuild(ctx, v); err != nil {
			logger.LogErr(err, "rebuild failed", "view", v.ID())
		}
	}
}

// NoteRenamed carries per-note state over to a renamed path
func (e *Engine) NoteRenamed(oldPath, newPath string) {
	e.warner.rename(oldPath, newPath)
}

func (e *Engine) pass(ctx context.Context, view host.View, en *entry, trigger Trigger) (Outcome, error) {
	had := en.el != nil

	file := view.File()
	if file == nil {
		logger.Debug("View has no file", "view", view.ID())
		if err := e.removeAll(view, en); err != nil {
			return OutcomeNone, err
		}
		return removedOrNone(had), nil
	}

	res := e.resolver.Explain(file.Frontmatter, file.Path)
	e.warner.check(file.Path, res)

	tb := res.Toolbar
	if tb == nil {
		if err := e.removeAll(view, en); err != nil {
			return OutcomeNone, err
		}
		return removedOrNone(had), nil
	}

	pos := tb.Positions.For(e.ws.Platform())
	if pos == models.PositionHidden {
		if err := e.removeAll(view, en); err != nil {
			return OutcomeNone, err
		}
		return removedOrNone(had), nil
	}

	if err := e.enforceSingle(view, en, tb, pos); err != nil {
		return OutcomeNone, err
	}

	rc := e.renderContext(view)

	if en.state == Rendered && en.el != nil {
		reason := staleReason(en.el, tb, pos, view)
		var fresh []views.RenderedItem
		if reason == "" {
			var err error
			fresh, err = views.BuildItems(ctx, tb, rc)
			if err != nil {
				return OutcomeNone, err
			}
			if !sameStructure(en.el.Items, fresh) {
				reason = "item structure"
			}
		}
		if reason == "" {
			if err := e.patch(view, en.el, fresh, pos); err != nil {
				return OutcomeNone, err
			}
			return OutcomePatched, nil
		}

		logger.Debug("Toolbar stale", "view", view.ID(), "toolbar", tb.Name, "reason", reason, "trigger", trigger)
		e.set(en, Stale, en.el)
		if err := e.remove(view, en); err != nil {
			return OutcomeNone, err
		}
		if err := e.render(ctx, view, en, tb, pos, rc); err != nil {
			return OutcomeNone, err
		}
		return settled(en, OutcomeRebuilt, OutcomeRemoved), nil
	}

	if err := e.render(ctx, view, en, tb, pos, rc); err != nil {
		return OutcomeNone, err
	}
	return settled(en, OutcomeRendered, removedOrNone(had)), nil
}

// settled picks the outcome by whether the render actually attached
func settled(en *entry, attached, otherwise Outcome) Outcome {
	if en.el != nil {
		return attached
	}
	return otherwise
}

func removedOrNone(had bool) Outcome {
	if had {
		return OutcomeRemoved
	}
	return OutcomeNone
}

func (e *Engine) renderContext(view host.View) *views.RenderContext {
	rc := &views.RenderContext{
		File:      view.File(),
		Platform:  e.ws.Platform(),
		ViewMode:  view.Mode(),
		ViewID:    view.ID(),
		Variables: e.opts.Variables,
		Icons:     e.opts.Icons,
		Toolbars:  e.store,
	}
	if e.cmds != nil {
		rc.Commands = viewCommands{cmds: e.cmds, view: view}
	}
	return rc
}

// viewCommands binds command availability checks to one view
type viewCommands struct {
	cmds host.Commands
	view host.View
}

func (v viewCommands) IsAvailable(id string) bool {
	return v.cmds.IsAvailable(id, v.view)
}

// render builds and inserts a toolbar. The caller has already removed any
// previous element, so insertion never overlaps a removal.
func (e *Engine) render(ctx context.Context, view host.View, en *entry, tb *models.Toolbar, pos models.PositionType,
	rc *views.RenderContext) error {

	e.set(en, Rendering, nil)
	el, err := views.Render(ctx, tb, pos, rc)
	if err != nil {
		e.set(en, Absent, nil)
		return serr.Wrap(err, "failed to render toolbar")
	}
	if el == nil {
		e.set(en, Absent, nil)
		return nil
	}
	if err := view.Insert(el); err != nil {
		e.set(en, Absent, nil)
		var pre *models.RenderPreconditionError
		if errors.As(err, &pre) {
			logger.Debug("Toolbar not inserted", "view", view.ID(), "reason", pre.Error())
			return nil
		}
		return serr.Wrap(err, "failed to insert toolbar")
	}
	e.set(en, Rendered, el)
	logger.Debug("Rendered toolbar", "view", view.ID(), "toolbar", tb.Name, "position", pos)

	if pos == models.PositionBottom {
		if style := views.CenterStyle(view.Width(), view.MeasureWidth(el)); style != el.Style {
			p := views.Patch{Style: style, StyleChanged: true}
			if err := view.Patch(el, p); err != nil {
				return serr.Wrap(err, "failed to position toolbar")
			}
			e.apply(el, p)
		}
	}
	return nil
}

// patch is the no-rebuild path: it refreshes variable text, empty-link
// hiding, command availability and bottom centering, sending only changes
func (e *Engine) patch(view host.View, el *views.Element, fresh []views.RenderedItem, pos models.PositionType) error {
	p := views.Patch{Items: el.Diff(fresh)}
	if pos == models.PositionBottom {
		if style := views.CenterStyle(view.Width(), view.MeasureWidth(el)); style != el.Style {
			p.Style = style
			p.StyleChanged = true
		}
	}
	if p.Empty() {
		return nil
	}
	if err := view.Patch(el, p); err != nil {
		return serr.Wrap(err, "failed to patch toolbar")
	}
	e.apply(el, p)
	return nil
}

func (e *Engine) remove(view host.View, en *entry) error {
	if en.el == nil {
		e.set(en, Absent, nil)
		return nil
	}
	if err := view.Remove(en.el); err != nil {
		return serr.Wrap(err, "failed to remove toolbar")
	}
	e.set(en, Absent, nil)
	return nil
}

// anchored lists the view's toolbars other than the floating selection
// toolbar, which has its own lifecycle
func anchored(view host.View) []*views.Element {
	all := view.Elements()
	out := all[:0:0]
	for _, el := range all {
		if el.Position != models.PositionText {
			out = append(out, el)
		}
	}
	return out
}

// removeAll clears every anchored toolbar from the view, tracked or not
func (e *Engine) removeAll(view host.View, en *entry) error {
	for _, el := range anchored(view) {
		if err := view.Remove(el); err != nil {
			return serr.Wrap(err, "failed to remove toolbar")
		}
	}
	e.set(en, Absent, nil)
	return nil
}

// enforceSingle repairs the registry against what the view actually holds:
// of all attached toolbars the first one still matching the configuration
// is kept and the rest are removed. A tracked element the host dropped
// resets the view to Absent.
func (e *Engine) enforceSingle(view host.View, en *entry, tb *models.Toolbar, pos models.PositionType) error {
	attached := anchored(view)
	if len(attached) == 1 && attached[0] == en.el {
		return nil
	}
	if len(attached) == 0 {
		if en.el != nil {
			logger.Debug("Tracked toolbar detached by host", "view", view.ID())
		}
		e.set(en, Absent, nil)
		return nil
	}

	var keep *views.Element
	for _, el := range attached {
		if keep == nil && staleReason(el, tb, pos, view) == "" {
			keep = el
			continue
		}
		if err := view.Remove(el); err != nil {
			return serr.Wrap(err, "failed to remove duplicate toolbar")
		}
	}
	if len(attached) > 1 {
		logger.Debug("Removed duplicate toolbars", "view", view.ID(), "found", len(attached), "kept", keep != nil)
	}
	if keep != nil {
		e.set(en, Rendered, keep)
	} else {
		e.set(en, Absent, nil)
	}
	return nil
}

// staleReason compares a rendered element with the configuration and the
// view. Empty means current.
func staleReason(el *views.Element, tb *models.Toolbar, pos models.PositionType, view host.View) string {
	switch {
	case el.ToolbarUUID != tb.UUID:
		return "toolbar"
	case el.Name != tb.Name:
		return "name"
	case el.Updated != tb.Updated:
		return "updated"
	case el.Position != pos:
		return "position"
	case el.ViewMode != view.Mode():
		return "view mode"
	}
	if misplaced(pos, view.PrecedingSibling(el)) {
		return "dom position"
	}
	return ""
}

// misplaced reports a sibling that must never precede a toolbar at pos
func misplaced(pos models.PositionType, sib host.Sibling) bool {
	if sib == host.SiblingToolbar {
		return true
	}
	switch pos {
	case models.PositionTop, models.PositionProps:
		return sib == host.SiblingContent
	}
	return false
}

// sameStructure reports whether two item lists hold the same items in the
// same order with the same fixed parts. Group targets can change without
// the parent's stamp moving.
func sameStructure(a, b []views.RenderedItem) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].UUID != b[i].UUID || a[i].Type != b[i].Type || a[i].Icon != b[i].Icon ||
			a[i].HideIcon != b[i].HideIcon || a[i].HideLabel != b[i].HideLabel {
			return false
		}
	}
	return true
}
