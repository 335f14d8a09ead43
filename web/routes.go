package web

import (
	"context"
	"html"
	"net/http"
	"net/url"

	"notetoolbar/dispatch"
	"notetoolbar/engine"
	"notetoolbar/host"
	"notetoolbar/models"
	"notetoolbar/views"

	"github.com/rohanthewiz/element"
	"github.com/rohanthewiz/logger"
	"github.com/rohanthewiz/rweb"
)

// setupRoutes configures all application routes
func setupRoutes(s *rweb.Server, app *App) {
	s.Get("/", app.index)          // Notes with links to their toolbar previews
	s.Get("/health", HealthCheck)  // Liveness
	s.Get("/render", app.render)   // Toolbar preview for one note
	s.Get("/resolve", app.resolve) // Which toolbar applies to a note, and why
	s.Get("/protocol", app.protocolLink)
	s.Post("/activate", app.activate)
}

// HealthCheck returns the health status of the application
func HealthCheck(c rweb.Context) error {
	return c.WriteJSON(map[string]any{
		"status":  "healthy",
		"service": "notetoolbar",
	})
}

func writeError(c rweb.Context, status int, msg string) error {
	c.SetStatus(status)
	return c.WriteJSON(map[string]any{"success": false, "error": msg})
}

// noteIndex lists vault notes
type noteIndex struct {
	paths []string
}

func (n noteIndex) Render(b *element.Builder) (x any) {
	b.DivClass("note-index").R(
		b.H2().T("Notes"),
		b.Ul().R(
			element.ForEach(n.paths, func(p string) {
				b.Li().R(
					b.A("href", "/render?path="+url.QueryEscape(p)).T(html.EscapeString(p)),
				)
			}),
		),
	)
	return
}

func (a *App) index(c rweb.Context) error {
	var notes []string
	for _, p := range a.Host.Files() {
		if f, ok := a.Host.FileInfo(p); ok && !f.IsFolder {
			notes = append(notes, p)
		}
	}
	c.Response().SetHeader("Content-Type", "text/html; charset=utf-8")
	return c.WriteHTML(views.PreviewPage("Note toolbars", noteIndex{paths: notes}))
}

// previewView returns the headless view used to preview a note, creating
// it on first use
func (a *App) previewView(path string, mode models.ViewMode) host.View {
	id := "preview:" + path
	if v, ok := a.Host.View(id); ok {
		v.SetMode(mode)
		return v
	}
	return a.Host.OpenView(id, path, mode)
}

func viewMode(c rweb.Context) models.ViewMode {
	if models.ViewMode(c.Request().QueryParam("mode")) == models.ViewModePreview {
		return models.ViewModePreview
	}
	return models.ViewModeSource
}

func (a *App) render(c rweb.Context) error {
	path := c.Request().QueryParam("path")
	if path == "" {
		return writeError(c, http.StatusBadRequest, "path is required")
	}
	f, ok := a.Host.FileInfo(path)
	if !ok || f.IsFolder {
		return writeError(c, http.StatusNotFound, "note not found")
	}

	view := a.previewView(f.Path, viewMode(c))
	if _, err := a.Engine.Reconcile(context.Background(), view, engine.TriggerManual); err != nil {
		logger.LogErr(err, "failed to render toolbar", "path", f.Path)
		return writeError(c, http.StatusInternalServerError, "failed to render toolbar")
	}
	el, _ := a.Engine.Locate(view.ID())
	res := a.Engine.Resolver().Explain(f.Frontmatter, f.Path)

	c.Response().SetHeader("Content-Type", "text/html; charset=utf-8")
	return c.WriteHTML(views.PreviewPage(f.Path, views.ToolbarPreview{
		NotePath: f.Path,
		Element:  el,
		Reason:   string(res.Kind),
	}))
}

func (a *App) resolve(c rweb.Context) error {
	path := c.Request().QueryParam("path")
	f, ok := a.Host.FileInfo(path)
	if !ok {
		return writeError(c, http.StatusNotFound, "note not found")
	}
	res := a.Engine.Resolver().Explain(f.Frontmatter, f.Path)

	out := map[string]any{
		"success": true,
		"path":    f.Path,
		"kind":    string(res.Kind),
		"values":  res.Values,
		"missing": res.Missing,
	}
	if res.Toolbar != nil {
		out["toolbar"] = res.Toolbar.Name
		out["uuid"] = res.Toolbar.UUID
	}
	if res.Mapping != nil {
		out["folder"] = res.Mapping.Folder
	}
	return c.WriteJSON(out)
}

func (a *App) protocolLink(c rweb.Context) error {
	uri := c.Request().QueryParam("uri")
	if uri == "" {
		return writeError(c, http.StatusBadRequest, "uri is required")
	}
	before := len(a.Host.Actions())
	if err := a.Protocol.Handle(context.Background(), uri); err != nil {
		return writeError(c, http.StatusUnprocessableEntity, err.Error())
	}
	return c.WriteJSON(map[string]any{"success": true, "actions": a.Host.Actions()[before:]})
}

// activate runs a toolbar item as if clicked in the given note's view
func (a *App) activate(c rweb.Context) error {
	tbUUID := c.Request().QueryParam("toolbar")
	itemUUID := c.Request().QueryParam("item")
	if tbUUID == "" || itemUUID == "" {
		return writeError(c, http.StatusBadRequest, "toolbar and item are required")
	}

	ev := dispatch.Event{Modifier: c.Request().QueryParam("target")}
	if path := c.Request().QueryParam("path"); path != "" {
		if _, ok := a.Host.FileInfo(path); !ok {
			return writeError(c, http.StatusNotFound, "note not found")
		}
		ev.View = a.previewView(path, viewMode(c))
	}

	before := len(a.Host.Actions())
	if err := a.Dispatcher.ActivateByUUID(context.Background(), tbUUID, itemUUID, ev); err != nil {
		return writeError(c, http.StatusUnprocessableEntity, err.Error())
	}
	return c.WriteJSON(map[string]any{"success": true, "actions": a.Host.Actions()[before:]})
}
