package main

import (
	"context"
	"net/http"
	"os"
	"slices"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/pablojokanovich/mafiaonline/config"
	"github.com/pablojokanovich/mafiaonline/game"
	"github.com/pablojokanovich/mafiaonline/migrations"
	"github.com/pablojokanovich/mafiaonline/storage"
	"github.com/pablojokanovich/mafiaonline/transport"
)

func CreateServer(allowedOrigins []string) *gin.Engine {
	r := gin.New()
	r.GET("/health", func(ctx *gin.Context) { ctx.String(200, "healthy") })

	r.Use(func(ctx *gin.Context) {
		origin := ctx.Request.Header.Get("Origin")
		if origin == "" || slices.Contains(allowedOrigins, origin) {
			ctx.Next()
			return
		}
		ctx.String(http.StatusForbidden, "forbidden origin")
		ctx.Abort()
	})

	r.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowCredentials: true,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders: []string{
			"Content-Type",
			"Upgrade",
			"Connection",
			"Sec-WebSocket-Key",
			"Sec-WebSocket-Version",
			"Sec-WebSocket-Extensions",
			"Sec-WebSocket-Protocol",
		},
	}))

	return r
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		boot := zerolog.New(os.Stderr)
		boot.Fatal().Err(err).Msg("could not load config")
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	log := zerolog.New(os.Stdout).With().Timestamp().Logger().Level(level)

	var store game.Store
	if cfg.PostgresURL != "" {
		if err := migrations.Migrate(cfg.PostgresURL); err != nil {
			log.Fatal().Err(err).Msg("migrations failed")
		}
		repo, err := storage.NewPostgresRepo(context.Background(), cfg.PostgresURL)
		if err != nil {
			log.Fatal().Err(err).Msg("could not connect to postgres")
		}
		defer repo.Close()
		store = repo
	} else {
		log.Warn().Msg("no postgres url configured, using in-memory store")
		store = storage.NewMemoryStore()
	}

	hub := transport.NewHub(log)
	engine := game.NewEngine(store, hub, game.Options{
		NightDuration: cfg.NightDuration,
		DayDuration:   cfg.DayDuration,
		ResetGrace:    cfg.ResetGrace,
		OperatorToken: cfg.OperatorToken,
		Logger:        log,
	})
	wsHandler := transport.NewHandler(hub, engine, log)

	r := CreateServer(cfg.AllowedOrigins)
	r.GET("/ws", wsHandler.ServeWS)

	log.Info().Str("addr", cfg.ListenAddr).Msg("mafia server listening")
	if err := r.Run(cfg.ListenAddr); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}
