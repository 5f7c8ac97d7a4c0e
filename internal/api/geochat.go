package api

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/gorilla/handlers"
	"github.com/npezzotti/go-geochat/internal/config"
	"github.com/npezzotti/go-geochat/internal/server"
)

// GeoChatApp is the HTTP surface: the websocket endpoint, the room
// listing, metrics, and the static client.
type GeoChatApp struct {
	log            *log.Logger
	mux            *http.Server
	hub            *server.Hub
	registry       *server.PresenceRegistry
	dir            *server.RoomDirectory
	allowedOrigins []string
	msgRate        float64
	msgBurst       int
}

func NewGeoChatApp(mux *http.ServeMux, logger *log.Logger, hub *server.Hub, registry *server.PresenceRegistry, dir *server.RoomDirectory, cfg *config.Config) *GeoChatApp {
	s := &GeoChatApp{
		log:            logger,
		hub:            hub,
		registry:       registry,
		dir:            dir,
		allowedOrigins: cfg.AllowedOrigins,
		msgRate:        cfg.ClientMessageRate,
		msgBurst:       cfg.ClientMessageBurst,
	}

	mux.HandleFunc("GET /ws", s.serveWs)
	mux.HandleFunc("GET /api/rooms", s.getRooms)
	if cfg.StaticDir != "" {
		mux.Handle("/", http.FileServer(http.Dir(cfg.StaticDir)))
	}

	h := handlers.CORS(
		handlers.MaxAge(3600),
		handlers.AllowedOrigins(cfg.AllowedOrigins),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Origin", "Content-Type", "Accept"}),
	)(mux)

	h = s.errorHandler(handlers.CombinedLoggingHandler(logger.Writer(), h))

	srv := &http.Server{
		Addr:    cfg.ServerAddr,
		Handler: h,
	}

	s.mux = srv
	return s
}

func (s *GeoChatApp) Start() error {
	s.log.Printf("starting server on %s\n", s.mux.Addr)
	return s.mux.ListenAndServe()
}

func (s *GeoChatApp) Shutdown(ctx context.Context) error {
	s.log.Println("shutting down HTTP server...")
	if err := s.mux.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	return nil
}
