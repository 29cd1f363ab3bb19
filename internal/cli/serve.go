package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/agentlens/agentlens/internal/server"
	"github.com/agentlens/agentlens/pkg/cache"
	"github.com/agentlens/agentlens/pkg/pipeline"
	"github.com/agentlens/agentlens/pkg/store"
)

// serveCommand creates the serve command for running the HTTP API.
func (c *CLI) serveCommand() *cobra.Command {
	cfg := c.Config.Server

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the AgentLens HTTP API",
		Long: `Run the AgentLens HTTP API.

The server stores uploaded execution graphs and renders call-graph views
on demand. Without --mongo graphs are kept in memory; without --redis
pipeline results are cached in the local file cache.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runServe(cmd.Context(), cfg)
		},
	}

	cmd.Flags().StringVar(&cfg.Addr, "addr", cfg.Addr, "listen address")
	cmd.Flags().StringVar(&cfg.RedisURL, "redis", cfg.RedisURL, "redis URL for shared result caching")
	cmd.Flags().StringVar(&cfg.MongoURL, "mongo", cfg.MongoURL, "mongodb URL for graph storage")
	cmd.Flags().StringVar(&cfg.MongoDB, "mongo-db", cfg.MongoDB, "mongodb database name")

	return cmd
}

// runServe wires up storage and caching, then serves until ctx is cancelled.
func (c *CLI) runServe(ctx context.Context, cfg ServerConfig) error {
	graphStore, err := c.newGraphStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer graphStore.Close(context.Background())

	resultCache, err := c.newServerCache(ctx, cfg)
	if err != nil {
		return err
	}
	runner := pipeline.NewRunner(resultCache, nil, c.Logger)
	defer runner.Close()

	srv := server.New(graphStore, runner, c.Logger)
	httpSrv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		c.Logger.Info("listening", "addr", cfg.Addr)
		errCh <- httpSrv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		c.Logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpSrv.Shutdown(shutdownCtx)
	}
}

// newGraphStore picks MongoDB when configured, in-memory otherwise.
func (c *CLI) newGraphStore(ctx context.Context, cfg ServerConfig) (store.GraphStore, error) {
	if cfg.MongoURL == "" {
		c.Logger.Warn("no --mongo configured, storing graphs in memory")
		return store.NewMemoryStore(), nil
	}
	s, err := store.NewMongoStore(ctx, cfg.MongoURL, cfg.MongoDB)
	if err != nil {
		return nil, fmt.Errorf("connect store: %w", err)
	}
	return s, nil
}

// newServerCache picks Redis when configured, the local file cache otherwise.
func (c *CLI) newServerCache(ctx context.Context, cfg ServerConfig) (cache.Cache, error) {
	if cfg.RedisURL == "" {
		return newCache(c.Config.NoCache)
	}
	rc, err := cache.NewRedisCache(ctx, cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("connect cache: %w", err)
	}
	return rc, nil
}
