package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/nemopss/budgetly/api"
	"github.com/nemopss/budgetly/events"
	"github.com/nemopss/budgetly/session"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const (
	shutdownTimeout = 10 * time.Second
	sweepInterval   = time.Minute
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	var publisher events.Publisher = events.Noop{}
	if cfg.AMQPURL != "" {
		p, err := events.NewAMQPPublisher(cfg.AMQPURL, cfg.AMQPExchange, logger)
		if err != nil {
			return fmt.Errorf("failed to connect to AMQP: %w", err)
		}
		async := events.NewAsync(p, events.DefaultQueueSize, logger)
		defer async.Close()
		publisher = async
	}

	sessions := session.NewManager(cfg.JWTSecret, cfg.SessionTTL, logger)

	gin.SetMode(cfg.GinMode)
	h := api.NewHandler(api.Options{
		Store:          st,
		Sessions:       sessions,
		Publisher:      publisher,
		Logger:         logger,
		LedgerPageSize: cfg.LedgerPageSize,
	})
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           api.NewRouter(h, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting server", "addr", srv.Addr, "backend", cfg.DataBackend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	g.Go(func() error {
		ticker := time.NewTicker(sweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
				if n := sessions.Sweep(); n > 0 {
					logger.Debug("Expired sessions removed", "count", n)
				}
			}
		}
	})

	return g.Wait()
}
