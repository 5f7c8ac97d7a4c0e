package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/npezzotti/go-geochat/internal/api"
	"github.com/npezzotti/go-geochat/internal/config"
	"github.com/npezzotti/go-geochat/internal/server"
	"github.com/npezzotti/go-geochat/internal/stats"
)

type stringSliceFlag []string

func (s *stringSliceFlag) String() string {
	return strings.Join(*s, ",")
}

func (s *stringSliceFlag) Set(value string) error {
	*s = append(*s, strings.Split(value, ",")...)
	return nil
}

var (
	addr           string
	staticDir      string
	allowedOrigins stringSliceFlag
	maxRoomSize    int
	proximityMiles float64
	gracePeriod    time.Duration
	roomLifetime   time.Duration
	scrollback     int
	msgRate        float64
	msgBurst       int
)

func main() {
	flag.StringVar(&addr, "addr", "localhost:8000", "server address")
	flag.StringVar(&staticDir, "static-dir", "wwwroot", "directory to serve the client from")
	flag.Var(&allowedOrigins, "allowed-origins", "comma-separated list of allowed origins for CORS")
	flag.IntVar(&maxRoomSize, "max-room-size", config.DefaultMaxRoomSize, "maximum users per room")
	flag.Float64Var(&proximityMiles, "proximity-miles", config.DefaultProximityThresholdMiles, "matching distance threshold in miles")
	flag.DurationVar(&gracePeriod, "grace-period", config.DefaultReconnectGracePeriod, "reconnect grace period")
	flag.DurationVar(&roomLifetime, "room-lifetime", config.DefaultEmptyRoomLifetime, "how long an empty room survives")
	flag.IntVar(&scrollback, "scrollback", config.DefaultScrollbackLimit, "messages of room history kept in memory")
	flag.Float64Var(&msgRate, "message-rate", config.DefaultClientMessageRate, "per-client inbound messages per second")
	flag.IntVar(&msgBurst, "message-burst", config.DefaultClientMessageBurst, "per-client inbound message burst")
	flag.Parse()

	logger := log.New(os.Stderr, "[geochat] ", log.LstdFlags)

	cfg, err := config.NewConfig(addr, staticDir, allowedOrigins)
	if err != nil {
		logger.Fatal("config:", err)
	}

	cfg.MaxRoomSize = maxRoomSize
	cfg.ProximityThresholdMiles = proximityMiles
	cfg.ReconnectGracePeriod = gracePeriod
	cfg.EmptyRoomLifetime = roomLifetime
	cfg.ScrollbackLimit = scrollback
	cfg.ClientMessageRate = msgRate
	cfg.ClientMessageBurst = msgBurst
	if err := cfg.Validate(); err != nil {
		logger.Fatal("config:", err)
	}

	mux := http.NewServeMux()

	statsUpdater := stats.NewStatsUpdater(logger, mux)

	hub := server.NewHub(logger)
	directory := server.NewRoomDirectory(logger, statsUpdater, cfg)
	registry := server.NewPresenceRegistry(logger, hub, directory, statsUpdater, cfg)

	srv := api.NewGeoChatApp(mux, logger, hub, registry, directory, cfg)

	statsUpdater.Run()
	defer statsUpdater.Stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigs:
		logger.Printf("received signal: %s\n", sig)
	case err := <-errCh:
		logger.Println("server:", err)
	}

	shutDownCtx, cancel := context.WithTimeout(
		context.Background(),
		10*time.Second,
	)
	defer cancel()

	if err := srv.Shutdown(shutDownCtx); err != nil {
		logger.Fatalln("HTTP server shutdown:", err)
	}

	logger.Println("closing client connections...")
	hub.Shutdown()

	logger.Println("shutdown complete")
}
