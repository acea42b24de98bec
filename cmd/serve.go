package cmd

import (
	"context"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/live-labs/tradebutler/internal/server"
)

// Serve runs the local RPC server until the context is cancelled.
// An empty addr falls back to the configured listen address.
func Serve(ctx context.Context, addr string) {
	app := OpenApp()
	defer app.Close()

	if addr == "" {
		addr = app.Options.Addr
	}

	credHandler := &server.CredentialHandler{
		Credentials: app.Credentials,
		Data:        app.DB,
		Sessions:    server.NewSessions(),
	}
	journalHandler := &server.JournalHandler{Journal: app.Journal}

	// A relaunch comes up locked whenever a credential exists
	if err := credHandler.EngageStartupLock(); err != nil {
		app.Close()
		HandleError(err)
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           server.NewRouter(credHandler, journalHandler, app.Log),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	app.Log.Info("server started", zap.String("addr", addr))

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			app.Log.Warn("shutdown failed", zap.Error(err))
		}
		app.Log.Info("server stopped")
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			app.Log.Error("server failed", zap.Error(err))
			app.Close()
			HandleError(err)
		}
	}
}
