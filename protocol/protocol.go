// Package protocol handles <scheme>://<plugin-id>?key=value links
package protocol

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"notetoolbar/dispatch"
	"notetoolbar/host"
	"notetoolbar/models"

	"github.com/rohanthewiz/logger"
	"github.com/rohanthewiz/serr"
)

// Key is the action a protocol link asks for
type Key string

const (
	KeyCommand         Key = "command"
	KeyFolder          Key = "folder"
	KeyMenu            Key = "menu"
	KeyToolbarSettings Key = "toolbarsettings"
	KeyImport          Key = "import"
)

// keys maps query parameter names to actions. commandId is the older
// spelling of command.
var keys = map[string]Key{
	"command":         KeyCommand,
	"commandId":       KeyCommand,
	"folder":          KeyFolder,
	"menu":            KeyMenu,
	"toolbarsettings": KeyToolbarSettings,
	"import":          KeyImport,
}

// Request is a parsed protocol link
type Request struct {
	Key   Key
	Value string
}

// UnsupportedError is returned for links that are not exactly one known
// action
type UnsupportedError struct {
	URI    string
	Reason string
}

func (e *UnsupportedError) Error() string {
	return fmt.Sprintf("unsupported link %q: %s", e.URI, e.Reason)
}

// Parse reads a protocol link addressed to pluginID. Query values are
// percent-decoded.
func Parse(uri, pluginID string) (Request, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return Request{}, &UnsupportedError{URI: uri, Reason: "not a URI"}
	}
	if target := strings.Trim(u.Host+u.Path, "/"); target != pluginID {
		return Request{}, &UnsupportedError{URI: uri, Reason: "not addressed to " + pluginID}
	}

	var req Request
	found := 0
	for name, values := range u.Query() {
		key, ok := keys[name]
		if !ok {
			continue
		}
		found++
		req.Key = key
		if len(values) > 0 {
			req.Value = values[0]
		}
	}
	switch {
	case found == 0:
		return Request{}, &UnsupportedError{URI: uri, Reason: "no recognized key"}
	case found > 1:
		return Request{}, &UnsupportedError{URI: uri, Reason: "more than one action"}
	case req.Value == "":
		return Request{}, &UnsupportedError{URI: uri, Reason: "empty " + string(req.Key)}
	}
	return req, nil
}

// Importer turns shared toolbar text into a new toolbar
type Importer interface {
	Import(ctx context.Context, text string) (*models.Toolbar, error)
}

// Store is the part of the config store links read
type Store interface {
	ToolbarByNameOrUUID(ref string) (*models.Toolbar, bool)
}

// MenuOpener shows a toolbar as a menu
type MenuOpener interface {
	OpenMenu(ctx context.Context, ref string, ev dispatch.Event) error
}

// Handler runs protocol links against the host
type Handler struct {
	PluginID string
	Scheme   string // optional; any scheme is accepted when empty

	WS       host.Workspace
	Commands host.Commands
	Store    Store
	Menus    MenuOpener
	Importer Importer // nil disables import
}

// Handle parses and runs a link. Every failure is also shown as a notice.
func (h *Handler) Handle(ctx context.Context, uri string) error {
	req, err := h.parse(uri)
	if err != nil {
		h.WS.Notice(err.Error())
		return err
	}
	logger.Debug("Protocol request", "key", req.Key, "value", req.Value)

	if err := h.run(ctx, req); err != nil {
		h.WS.Notice(err.Error())
		return err
	}
	return nil
}

func (h *Handler) parse(uri string) (Request, error) {
	if h.Scheme != "" && !strings.HasPrefix(uri, h.Scheme+"://") {
		return Request{}, &UnsupportedError{URI: uri, Reason: "scheme is not " + h.Scheme}
	}
	return Parse(uri, h.PluginID)
}

func (h *Handler) run(ctx context.Context, req Request) error {
	switch req.Key {
	case KeyCommand:
		return h.command(ctx, req.Value)
	case KeyFolder:
		f, ok := h.WS.FileInfo(req.Value)
		if !ok || !f.IsFolder {
			return &models.ConfigurationError{Kind: "folder", Ref: req.Value}
		}
		return h.WS.RevealFolder(ctx, f.Path)
	case KeyMenu:
		if h.Menus == nil {
			return serr.New("menus are not available")
		}
		return h.Menus.OpenMenu(ctx, req.Value, dispatch.Event{})
	case KeyToolbarSettings:
		tb, ok := h.Store.ToolbarByNameOrUUID(req.Value)
		if !ok {
			return &models.ConfigurationError{Kind: "toolbar", Ref: req.Value}
		}
		return h.WS.OpenToolbarSettings(tb)
	case KeyImport:
		if h.Importer == nil {
			return serr.New("toolbar import is not available")
		}
		tb, err := h.Importer.Import(ctx, req.Value)
		if err != nil {
			return serr.Wrap(err, "failed to import toolbar")
		}
		h.WS.Notice("Imported toolbar " + tb.Name)
		return nil
	}
	return &UnsupportedError{Reason: "unknown key " + string(req.Key)}
}

func (h *Handler) command(ctx context.Context, id string) error {
	if h.Commands == nil {
		return &models.ConfigurationError{Kind: "command", Ref: id}
	}
	for _, c := range h.Commands.ListCommands() {
		if c.ID == id {
			return h.Commands.Execute(ctx, id)
		}
	}
	return &models.ConfigurationError{Kind: "command", Ref: id}
}
