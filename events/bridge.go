// Package events turns host and vault events into reconciliation passes
package events

import (
	"context"
	"time"

	"notetoolbar/engine"
	"notetoolbar/host"
	"notetoolbar/models"

	"github.com/rohanthewiz/logger"
	"github.com/rohanthewiz/serr"
)

// Engine is the part of the reconciliation engine the bridge drives
type Engine interface {
	Reconcile(ctx context.Context, view host.View, trigger engine.Trigger) (engine.Outcome, error)
	ReconcileAll(ctx context.Context, trigger engine.Trigger)
	RebuildAll(ctx context.Context)
	NoteRenamed(oldPath, newPath string)
	Forget(viewID string)
}

// Store is the part of the config store the bridge writes to
type Store interface {
	RenameReferences(oldPath, newPath string) (int, error)
	Subscribe(fn func(models.ChangeEvent))
}

// Bridge receives host events. Metadata changes are debounced per note;
// everything else reconciles right away.
type Bridge struct {
	ctx      context.Context
	eng      Engine
	store    Store
	ws       host.Workspace
	debounce *Debouncer
}

// NewBridge wires a bridge and subscribes it to store changes. ctx bounds
// the passes run from timers and store callbacks.
func NewBridge(ctx context.Context, eng Engine, store Store, ws host.Workspace, wait time.Duration) *Bridge {
	b := &Bridge{ctx: ctx, eng: eng, store: store, ws: ws, debounce: NewDebouncer(wait)}
	store.Subscribe(b.SettingsChanged)
	return b
}

// Close cancels pending debounced passes
func (b *Bridge) Close() {
	b.debounce.Stop()
}

// FileOpen reconciles the active view for a newly opened note
func (b *Bridge) FileOpen(file *models.File) {
	view := b.ws.ActiveView()
	if view == nil {
		return
	}
	if file != nil {
		logger.Debug("File opened", "path", file.Path, "view", view.ID())
	}
	b.reconcile(view, engine.TriggerFileOpen)
}

// MetadataChanged schedules a pass on every view showing the note once its
// properties stop changing
func (b *Bridge) MetadataChanged(file *models.File) {
	if file == nil {
		return
	}
	path := file.Path
	b.debounce.Trigger(path, func() {
		for _, v := range b.viewsOf(path) {
			b.reconcile(v, engine.TriggerMetadata)
		}
	})
}

// ActiveLeafChange reconciles the newly focused view
func (b *Bridge) ActiveLeafChange(view host.View) {
	if view == nil {
		return
	}
	b.reconcile(view, engine.TriggerLeafChange)
}

// LayoutChange reconciles every view; panes may have moved or resized
func (b *Bridge) LayoutChange() {
	b.eng.ReconcileAll(b.ctx, engine.TriggerLayout)
}

// CSSChange reconciles every view after a theme or snippet change
func (b *Bridge) CSSChange() {
	b.eng.ReconcileAll(b.ctx, engine.TriggerCSS)
}

// Rename rewrites item references to the old path, then reconciles views
// now showing the new one. Folder mappings may match differently.
func (b *Bridge) Rename(oldPath, newPath string) error {
	n, err := b.store.RenameReferences(oldPath, newPath)
	if err != nil {
		return serr.Wrap(err, "failed to update references to renamed note")
	}
	logger.Debug("Note renamed", "from", oldPath, "to", newPath, "references", n)
	b.eng.NoteRenamed(oldPath, newPath)
	for _, v := range b.viewsOf(newPath) {
		b.reconcile(v, engine.TriggerMetadata)
	}
	return nil
}

// ViewClosed drops the engine's record of a closed view
func (b *Bridge) ViewClosed(viewID string) {
	b.eng.Forget(viewID)
}

// SettingsChanged rebuilds every view after a configuration save
func (b *Bridge) SettingsChanged(ev models.ChangeEvent) {
	logger.Debug("Settings changed", "kind", ev.Kind, "toolbars", len(ev.Toolbars))
	b.eng.RebuildAll(b.ctx)
}

func (b *Bridge) reconcile(view host.View, trigger engine.Trigger) {
	if _, err := b.eng.Reconcile(b.ctx, view, trigger); err != nil {
		logger.LogErr(err, "reconcile failed", "view", view.ID(), "trigger", trigger)
	}
}

func (b *Bridge) viewsOf(path string) []host.View {
	var out []host.View
	for _, v := range b.ws.Views() {
		if f := v.File(); f != nil && f.Path == path {
			out = append(out, v)
		}
	}
	return out
}
