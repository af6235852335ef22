package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"gradient-chat/internal/clientapp"
	"gradient-chat/internal/config"
	"gradient-chat/internal/web"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := godotenv.Load(); err != nil {
		log.Printf("warning: loading .env: %v", err)
	}

	cfg, err := config.LoadClientConfig()
	if err != nil {
		panic(err)
	}

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	app, err := clientapp.New(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("client init", zap.Error(err))
	}
	defer app.Close()

	// La sesion persistida se restaura en segundo plano; mientras tanto la guarda responde "loading".
	go func() {
		if err := app.Sessions.Restore(ctx); err != nil {
			logger.Warn("session restore failed", zap.Error(err))
		}
	}()

	handler := web.NewHandler(logger, app.Sessions, app.Chat)
	router := web.NewRouter(logger, handler, app.Sessions)

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Warn("server shutdown", zap.Error(err))
		}
	}()

	logger.Info("starting chat client", zap.String("port", cfg.HTTPPort), zap.String("account_api", cfg.AccountURL))

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("server error", zap.Error(err))
	}
}
