package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/AbdulbariSoylemez/SterkAgents/internal/adapters/backendapi"
	"github.com/AbdulbariSoylemez/SterkAgents/internal/adapters/httpapi"
	"github.com/AbdulbariSoylemez/SterkAgents/internal/adapters/memorybus"
	"github.com/AbdulbariSoylemez/SterkAgents/internal/adapters/sqlite"
	"github.com/AbdulbariSoylemez/SterkAgents/internal/app"
	"github.com/AbdulbariSoylemez/SterkAgents/internal/buildinfo"
	"github.com/AbdulbariSoylemez/SterkAgents/internal/config"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	def := config.Default()
	addr := flag.String("addr", def.Addr, "Adresse d'écoute (ex: 127.0.0.1:8090)")
	dbPath := flag.String("db", def.DBPath, "Chemin SQLite du profil (ex: sterk-session.db)")
	backendURL := flag.String("backend", def.BackendURL, "URL du service SterkAgents (ex: http://127.0.0.1:5001)")
	courseID := flag.String("course", os.Getenv("STERK_COURSE_ID"), "Identifiant du cours à ouvrir au démarrage")
	initialPath := flag.String("video", "", "Chemin de la vidéo initiale (défaut: première de la séquence)")
	flag.Parse()

	logger := zerolog.New(os.Stdout).With().Timestamp().Str("app", "sterk-session").Logger()
	log.Logger = logger

	logger.Info().Interface("build", buildinfo.Current()).Str("db", *dbPath).Str("backend", *backendURL).Msg("starting")

	ctx := context.Background()
	db, err := sqlite.Open(ctx, *dbPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open db")
	}
	defer func() { _ = db.Close() }()

	bus := memorybus.New()
	backend := backendapi.New(*backendURL)
	watchedRepo := sqlite.NewWatchedRepository(db.SQL)

	progress := app.NewProgressService(logger.With().Str("component", "progress").Logger(), watchedRepo, bus)
	prov := app.NewProvisioningService(logger.With().Str("component", "provisioning").Logger(), backend, bus)
	prov.RecheckDelay = def.RecheckDelay
	chat := app.NewChatSession(logger.With().Str("component", "chat").Logger(), backend, prov, bus)
	chat.AskTimeout = def.AskTimeout
	session := app.NewSessionController(logger.With().Str("component", "session").Logger(), backend, progress, prov, chat, bus)

	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Notices "base prête" poussées dans la conversation via le bus.
	notifier := app.NewReadinessNotifier(logger.With().Str("component", "readiness").Logger(), bus, chat)
	go notifier.Run(shutdownCtx)

	if *courseID != "" {
		if err := session.Start(ctx, *courseID, *initialPath); err != nil {
			if errors.Is(err, app.ErrNotFound) {
				// La page repartirait vers le catalogue; ici on s'arrête net.
				logger.Fatal().Str("course_id", *courseID).Msg("course not found in catalog")
			}
			logger.Fatal().Err(err).Msg("failed to start session")
		}
	}

	srv := httpapi.NewServer(logger, session, chat, bus)
	httpServer := &http.Server{
		Addr:              *addr,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", *addr).Msg("listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("http server crashed")
			stop()
		}
	}()

	<-shutdownCtx.Done()
	logger.Info().Msg("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = httpServer.Shutdown(ctx)
	logger.Info().Msg("bye")
}
