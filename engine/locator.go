package engine

import (
	"notetoolbar/views"
)

// entry is the registry record for one view. Only the pass holding busy
// touches state and el; writes go through Engine.set and Engine.apply so
// Locate can copy them concurrently.
type entry struct {
	state State
	el    *views.Element
	text  *views.Element // floating selection toolbar
	busy  bool
}

// acquire claims the view for a pass. Returns false when a pass for the
// same view is already running; such triggers are dropped, not queued.
func (e *Engine) acquire(viewID string) (*entry, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	en, ok := e.entries[viewID]
	if !ok {
		en = &entry{}
		e.entries[viewID] = en
	}
	if en.busy {
		return nil, false
	}
	en.busy = true
	return en, true
}

func (e *Engine) release(en *entry) {
	e.mu.Lock()
	en.busy = false
	e.mu.Unlock()
}

func (e *Engine) set(en *entry, state State, el *views.Element) {
	e.mu.Lock()
	en.state = state
	en.el = el
	e.mu.Unlock()
}

// apply patches the registered element in place. The element stays the
// same pointer the view holds, so the write happens under the registry lock.
func (e *Engine) apply(el *views.Element, p views.Patch) {
	e.mu.Lock()
	el.Apply(p)
	e.mu.Unlock()
}

// Locate returns a copy of the toolbar the engine last rendered into a
// view. Later passes do not change the copy.
func (e *Engine) Locate(viewID string) (*views.Element, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	en, ok := e.entries[viewID]
	if !ok || en.el == nil {
		return nil, false
	}
	return en.el.Clone(), true
}

// StateOf returns the lifecycle state of a view's toolbar
func (e *Engine) StateOf(viewID string) State {
	e.mu.Lock()
	defer e.mu.Unlock()
	if en, ok := e.entries[viewID]; ok {
		return en.state
	}
	return Absent
}

// Rendered lists view ids that currently show a toolbar
func (e *Engine) Rendered() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	ids := make([]string, 0, len(e.entries))
	for id, en := range e.entries {
		if en.el != nil {
			ids = append(ids, id)
		}
	}
	return ids
}

// Forget drops the registry record of a closed view
func (e *Engine) Forget(viewID string) {
	e.mu.Lock()
	delete(e.entries, viewID)
	e.mu.Unlock()
}
