package main

import (
	"os"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	log "github.com/sirupsen/logrus"

	"github.com/Mitul82/websocket-kanban-vitest-playwright-2026/api"
	"github.com/Mitul82/websocket-kanban-vitest-playwright-2026/domain"
	"github.com/Mitul82/websocket-kanban-vitest-playwright-2026/hub"
	"github.com/Mitul82/websocket-kanban-vitest-playwright-2026/storage"
)

func main() {
	logger := log.New()
	if dbg, err := strconv.ParseBool(os.Getenv("DEBUG")); err == nil && dbg {
		log.SetLevel(log.DebugLevel)
		logger.SetLevel(log.DebugLevel)
	}

	corsOrigin := os.Getenv("CORS_ORIGIN")
	if corsOrigin == "" {
		corsOrigin = "*"
	}

	store := storage.New()
	h := hub.New()
	svc := domain.NewService(store, api.NewSnapshotBroadcaster(h, logger))

	e := echo.New()
	e.Use(middleware.CORSWithConfig(corsConfig(corsOrigin)))

	api.Register(e, svc, h, logger)

	listenAddr := ":8080"
	if val, ok := os.LookupEnv("PORT"); ok {
		listenAddr = ":" + val
	}

	e.Logger.Fatal(e.Start(listenAddr))
}

func corsConfig(origin string) middleware.CORSConfig {
	return middleware.CORSConfig{
		AllowOrigins:     []string{origin},
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept},
		AllowCredentials: true,
	}
}
