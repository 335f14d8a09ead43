package web

import (
	"notetoolbar/dispatch"
	"notetoolbar/engine"
	"notetoolbar/host/memhost"
	"notetoolbar/models"
	"notetoolbar/protocol"

	"github.com/rohanthewiz/logger"
	"github.com/rohanthewiz/rweb"
)

// App is everything the web handlers reach into
type App struct {
	Store      *models.ConfigStore
	Host       *memhost.Host
	Engine     *engine.Engine
	Dispatcher *dispatch.Dispatcher
	Protocol   *protocol.Handler
}

// NewServer creates and configures the RWeb server
func NewServer(address string, app *App) *rweb.Server {
	s := rweb.NewServer(rweb.ServerOptions{
		Address: address,
		Verbose: true,
	})

	// Apply middleware
	s.Use(rweb.RequestInfo)          // Logs request info
	s.Use(CorsMiddleware)            // Custom CORS middleware
	s.Use(SecurityHeadersMiddleware) // Security headers
	s.Use(LoggingMiddleware)         // Request logging
	s.Use(RateLimitMiddleware(600))

	setupRoutes(s, app)

	// Server-Sent Events: one message per settings change, so preview
	// pages can reload
	eventsCh := make(chan any, 16)
	app.Store.Subscribe(func(ev models.ChangeEvent) {
		select {
		case eventsCh <- string(ev.Kind):
		default:
			logger.Debug("SSE channel full, dropping change event", "kind", ev.Kind)
		}
	})
	s.Get("/events", func(c rweb.Context) error {
		logger.Info("SSE connection established")
		return s.SetupSSE(c, eventsCh)
	})

	return s
}

// Run starts the server
func Run(s *rweb.Server, address string) error {
	logger.Info("Note toolbar server starting on", "address", address)
	return s.Run()
}
