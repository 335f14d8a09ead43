package engine

import (
	"context"

	"notetoolbar/host"
	"notetoolbar/models"
	"notetoolbar/views"

	"github.com/rohanthewiz/logger"
	"github.com/rohanthewiz/serr"
)

// ShowSelectionToolbar floats the configured text toolbar over a view
// with a selection. Returns nil when no text toolbar is configured.
func (e *Engine) ShowSelectionToolbar(ctx context.Context, view host.View) (*views.Element, error) {
	if view == nil || view.Selection() == "" {
		return nil, nil
	}
	ref := e.store.Snapshot().TextToolbar
	if ref == "" {
		return nil, nil
	}
	tb, ok := e.store.Toolbar(ref)
	if !ok {
		err := &models.ConfigurationError{Kind: "toolbar", Ref: ref}
		logger.LogErr(err, "text toolbar is missing")
		return nil, err
	}

	en, ok := e.acquire(view.ID())
	if !ok {
		return nil, nil
	}
	defer e.release(en)

	if err := e.dropSelection(view, en); err != nil {
		return nil, err
	}
	el, err := views.Render(ctx, tb, models.PositionText, e.renderContext(view))
	if err != nil {
		return nil, serr.Wrap(err, "failed to render text toolbar")
	}
	if err := view.Insert(el); err != nil {
		return nil, serr.Wrap(err, "failed to insert text toolbar")
	}
	e.mu.Lock()
	en.text = el
	e.mu.Unlock()
	return el, nil
}

// HideSelectionToolbar removes the floating text toolbar from a view
func (e *Engine) HideSelectionToolbar(view host.View) error {
	if view == nil {
		return nil
	}
	en, ok := e.acquire(view.ID())
	if !ok {
		return nil
	}
	defer e.release(en)
	return e.dropSelection(view, en)
}

func (e *Engine) dropSelection(view host.View, en *entry) error {
	if en.text == nil {
		return nil
	}
	if err := view.Remove(en.text); err != nil {
		return serr.Wrap(err, "failed to remove text toolbar")
	}
	e.mu.Lock()
	en.text = nil
	e.mu.Unlock()
	return nil
}

// selectionCloser dismisses a view's text toolbar after an activation
type selectionCloser struct {
	e    *Engine
	view host.View
}

func (c selectionCloser) Close() {
	if err := c.e.HideSelectionToolbar(c.view); err != nil {
		logger.LogErr(err, "failed to close text toolbar", "view", c.view.ID())
	}
}

// SelectionCloser returns the Floating handle for a view's text toolbar
func (e *Engine) SelectionCloser(view host.View) host.Floating {
	return selectionCloser{e: e, view: view}
}
