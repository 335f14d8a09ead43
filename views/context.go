package views

import (
	"context"

	"notetoolbar/models"
)

// VariableResolver expands {{...}} placeholders against a note.
// Resolve must be safe to call concurrently.
type VariableResolver interface {
	HasVariables(s string) bool
	Resolve(ctx context.Context, s string, file *models.File) (string, error)
}

// IconLookup reports whether an icon id exists in the icon set
type IconLookup interface {
	Exists(id string) bool
}

// CommandChecker answers the host's own availability check for a command
// in the current view
type CommandChecker interface {
	IsAvailable(id string) bool
}

// ToolbarLookup finds toolbars referenced by group and menu items
type ToolbarLookup interface {
	Toolbar(uuid string) (*models.Toolbar, bool)
}

// RenderContext carries everything a render pass reads besides the toolbar
type RenderContext struct {
	File     *models.File
	Platform models.Platform
	ViewMode models.ViewMode
	ViewID   string

	Variables VariableResolver
	Icons     IconLookup
	Commands  CommandChecker
	Toolbars  ToolbarLookup
}

func (rc *RenderContext) hasVariables(s string) bool {
	return rc.Variables != nil && s != "" && rc.Variables.HasVariables(s)
}

func (rc *RenderContext) commandAvailable(id string) bool {
	if rc.Commands == nil {
		return true
	}
	return rc.Commands.IsAvailable(id)
}

// iconFor returns the icon id to render, dropping ids the icon set
// doesn't know
func (rc *RenderContext) iconFor(id string) string {
	if id == "" || rc.Icons == nil || rc.Icons.Exists(id) {
		return id
	}
	return ""
}
