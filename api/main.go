package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/todosparaunoSPE/PROFEPA-proyecto-2/internal/classify"
	"github.com/todosparaunoSPE/PROFEPA-proyecto-2/internal/config"
	"github.com/todosparaunoSPE/PROFEPA-proyecto-2/internal/feed"
	"github.com/todosparaunoSPE/PROFEPA-proyecto-2/internal/logger"
	"github.com/todosparaunoSPE/PROFEPA-proyecto-2/internal/ner"
	"github.com/todosparaunoSPE/PROFEPA-proyecto-2/internal/radar"
)

func main() {
	log := logger.New("api")
	if err := config.LoadDotEnv(); err != nil {
		log.Error("load .env", slog.Any("err", err))
		os.Exit(1)
	}
	cfg, err := config.LoadAPI()
	if err != nil {
		log.Error("load config", slog.Any("err", err))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	rec, err := ner.Load(ctx, cfg.Recognizer, log)
	if err != nil {
		log.Error("load entity recognizer", slog.Any("err", err))
		os.Exit(1)
	}
	if c, ok := rec.(interface{ Close() error }); ok {
		defer c.Close()
	}

	classifier, err := classify.New(rec)
	if err != nil {
		log.Error("init classifier", slog.Any("err", err))
		os.Exit(1)
	}
	svc := radar.New(feed.New(cfg.Feed, log), classifier, log)

	srv := &server{log: log, cfg: cfg, search: svc, rec: rec}

	httpServer := &http.Server{
		Addr:              cfg.BindAddr,
		Handler:           srv.routes(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      cfg.SearchTimeout + 5*time.Second,
	}

	go func() {
		log.Info("api server starting",
			slog.String("addr", cfg.BindAddr),
			slog.String("recognizer", cfg.Recognizer.Backend),
		)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server stopped", slog.Any("err", err))
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	log.Info("shutdown signal received")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown", slog.Any("err", err))
	}
}
