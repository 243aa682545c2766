package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	httpadapter "github.com/PabloGalante/groq-chat/internal/adapters/http"
	"github.com/PabloGalante/groq-chat/internal/app/archive"
	"github.com/PabloGalante/groq-chat/internal/app/conversation"
	"github.com/PabloGalante/groq-chat/internal/bootstrap"
	"github.com/PabloGalante/groq-chat/internal/config"
	"github.com/PabloGalante/groq-chat/internal/observability"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "groqchat-api:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	observability.Configure(cfg.LogLevel, os.Stdout)
	log := observability.Logger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	gateway, err := bootstrap.Gateway(ctx, cfg)
	if err != nil {
		return fmt.Errorf("error initializing LLM gateway: %w", err)
	}
	cat, err := bootstrap.Catalog(cfg)
	if err != nil {
		return err
	}
	store, closeStore, err := bootstrap.Archive(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	sess := conversation.New(gateway, cat)
	handler := httpadapter.NewServer(sess, archive.NewService(store))

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      0, // SSE and websocket responses are long-lived
		IdleTimeout:       120 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("groq-chat API listening", "addr", srv.Addr, "session_id", sess.ID())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
