package cmd

import (
	"path/filepath"

	"notetoolbar/adapters"
	"notetoolbar/config"
	"notetoolbar/dispatch"
	"notetoolbar/engine"
	"notetoolbar/host/memhost"
	"notetoolbar/models"
	"notetoolbar/protocol"
	"notetoolbar/variables"
	"notetoolbar/web"

	"github.com/rohanthewiz/logger"
	"github.com/rohanthewiz/serr"
)

// Runtime is the wired engine every command works against
type Runtime struct {
	Config     *config.Config
	Store      *models.ConfigStore
	Host       *memhost.Host
	Engine     *engine.Engine
	Dispatcher *dispatch.Dispatcher
	Scripts    *adapters.Registry
	Pointer    *models.ActiveItemPointer
	Protocol   *protocol.Handler

	closeStore func() error
}

// Open loads settings and the vault named by cfg and wires the engine
func Open(cfg *config.Config) (*Runtime, error) {
	persister, local, closeStore, err := cfg.Persister()
	if err != nil {
		return nil, err
	}
	store, err := models.OpenConfigStore(persister)
	if err != nil {
		_ = closeStore()
		return nil, err
	}

	h := memhost.New(models.Platform(cfg.Platform))
	if err := h.LoadVault(cfg.Vault); err != nil {
		_ = closeStore()
		return nil, serr.Wrap(err, "failed to load vault "+cfg.Vault)
	}

	vaultPath, err := filepath.Abs(cfg.Vault)
	if err != nil {
		vaultPath = cfg.Vault
	}
	scripts := adapters.NewRegistry(store.ScriptingEnabled, h)
	vars := &variables.Resolver{
		VaultPath: vaultPath,
		Selection: func() string {
			if v := h.ActiveView(); v != nil {
				return v.Selection()
			}
			return ""
		},
		Scripts: scripts,
	}

	pointer := models.NewActiveItemPointer(local)
	eng := engine.New(store, h, h, engine.Options{Variables: vars})
	d := dispatch.New(h, h, store, scripts, pointer, dispatch.Options{Variables: vars})

	rt := &Runtime{
		Config:     cfg,
		Store:      store,
		Host:       h,
		Engine:     eng,
		Dispatcher: d,
		Scripts:    scripts,
		Pointer:    pointer,
		Protocol: &protocol.Handler{
			PluginID: cfg.PluginID,
			Scheme:   cfg.Scheme,
			WS:       h,
			Commands: h,
			Store:    store,
			Menus:    d,
		},
		closeStore: closeStore,
	}
	logger.Debug("Runtime ready", "vault", vaultPath, "files", len(h.Files()))
	return rt, nil
}

// App exposes the runtime to the web handlers
func (r *Runtime) App() *web.App {
	return &web.App{
		Store:      r.Store,
		Host:       r.Host,
		Engine:     r.Engine,
		Dispatcher: r.Dispatcher,
		Protocol:   r.Protocol,
	}
}

// Close releases the settings store
func (r *Runtime) Close() error {
	if r.closeStore == nil {
		return nil
	}
	return r.closeStore()
}
