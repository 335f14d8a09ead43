package adapters

import (
	"context"
	"fmt"
	"sync"

	"notetoolbar/models"

	"github.com/rohanthewiz/logger"
	"github.com/rohanthewiz/serr"
)

// Adapter runs scripts for one third-party scripting engine.
// Use may return empty text for scripts that only have side effects.
type Adapter interface {
	Use(ctx context.Context, cfg models.ScriptConfig) (string, error)
	IsEnabled() bool
}

// ErrorMode decides how a failed evaluation surfaces
type ErrorMode int

const (
	// Display shows a notice and returns the error
	Display ErrorMode = iota
	// Report returns FailedText in place of the output
	Report
	// Ignore returns the error silently so the caller can keep the raw text
	Ignore
)

// FailedText replaces the output of a failed evaluation in Report mode
const FailedText = "failed"

// Noticer shows short-lived messages to the user
type Noticer interface {
	Notice(msg string)
}

// Registry holds the adapters keyed by item type
type Registry struct {
	mu       sync.RWMutex
	adapters map[models.ItemType]Adapter

	scriptingEnabled func() bool
	notices          Noticer
}

// NewRegistry returns an empty registry. scriptingEnabled is read on every
// call so the global switch takes effect without re-registering.
func NewRegistry(scriptingEnabled func() bool, n Noticer) *Registry {
	return &Registry{
		adapters:         map[models.ItemType]Adapter{},
		scriptingEnabled: scriptingEnabled,
		notices:          n,
	}
}

// Register installs the adapter for a script item type
func (r *Registry) Register(engine models.ItemType, a Adapter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.adapters[engine] = a
	logger.Debug("Registered script adapter", "engine", engine)
}

// Unregister removes the adapter for an engine
func (r *Registry) Unregister(engine models.ItemType) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.adapters, engine)
}

// Get returns the adapter for an engine, failing when scripting is off or
// the adapter is absent or disabled
func (r *Registry) Get(engine models.ItemType) (Adapter, error) {
	if r.scriptingEnabled != nil && !r.scriptingEnabled() {
		return nil, &models.AdapterUnavailableError{Engine: engine, Reason: "scripting is disabled"}
	}
	r.mu.RLock()
	a, ok := r.adapters[engine]
	r.mu.RUnlock()
	if !ok {
		return nil, &models.AdapterUnavailableError{Engine: engine, Reason: "not installed"}
	}
	if !a.IsEnabled() {
		return nil, &models.AdapterUnavailableError{Engine: engine, Reason: "not enabled"}
	}
	return a, nil
}

// Use runs a script on its engine's adapter. A panicking adapter is
// reported as an error.
func (r *Registry) Use(ctx context.Context, engine models.ItemType, cfg models.ScriptConfig) (out string, err error) {
	a, err := r.Get(engine)
	if err != nil {
		return "", err
	}
	defer func() {
		if rec := recover(); rec != nil {
			err = serr.New(fmt.Sprintf("%s adapter panicked: %v", engine, rec))
		}
	}()
	out, err = a.Use(ctx, cfg)
	if err != nil {
		return "", serr.Wrap(err, string(engine)+" script failed")
	}
	return out, nil
}

// Evaluate runs a script and applies the error mode to a failure
func (r *Registry) Evaluate(ctx context.Context, engine models.ItemType, cfg models.ScriptConfig, mode ErrorMode) (string, error) {
	out, err := r.Use(ctx, engine, cfg)
	if err == nil {
		return out, nil
	}

	switch mode {
	case Report:
		logger.LogErr(err, "script evaluation failed", "engine", engine)
		return FailedText, nil
	case Ignore:
		logger.Debug("Script evaluation failed", "engine", engine, "error", err.Error())
		return "", err
	}
	if r.notices != nil {
		r.notices.Notice(err.Error())
	}
	return "", err
}

// Func adapts a function into an Adapter
type Func struct {
	Fn      func(ctx context.Context, cfg models.ScriptConfig) (string, error)
	Enabled bool
}

func (f *Func) Use(ctx context.Context, cfg models.ScriptConfig) (string, error) {
	return f.Fn(ctx, cfg)
}

func (f *Func) IsEnabled() bool { return f.Enabled }
