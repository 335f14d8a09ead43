package models

import "fmt"

// ConfigurationError is a user-visible, non-fatal problem with the toolbar
// configuration: a missing toolbar, command or icon.
type ConfigurationError struct {
	Kind  string // "toolbar", "command", "icon", "item"
	Ref   string
	Cause error
}

func (e *ConfigurationError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s not found: %s (%v)", e.Kind, e.Ref, e.Cause)
	}
	return fmt.Sprintf("%s not found: %s", e.Kind, e.Ref)
}

func (e *ConfigurationError) Unwrap() error { return e.Cause }

// AdapterUnavailableError means scripting is disabled or the adapter for a
// script engine is absent
type AdapterUnavailableError struct {
	Engine ItemType
	Reason string
}

func (e *AdapterUnavailableError) Error() string {
	return fmt.Sprintf("%s adapter unavailable: %s", e.Engine, e.Reason)
}

// RenderPreconditionError means there is nowhere to render right now,
// which is expected while views change mode. Logged, never shown.
type RenderPreconditionError struct {
	ViewID string
	Reason string
}

func (e *RenderPreconditionError) Error() string {
	return fmt.Sprintf("cannot render in view %s: %s", e.ViewID, e.Reason)
}
