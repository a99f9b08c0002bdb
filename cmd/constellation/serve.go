package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/kittclouds/constellation/internal/constellation"
	"github.com/kittclouds/constellation/internal/server"
	"github.com/kittclouds/constellation/internal/store"
)

func serveCmd() *cobra.Command {
	var (
		addr          string
		dbPath        string
		autolinkEvery time.Duration
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve /graph/ and /constellation from a local vocabulary database",
		Long: `Runs the local stand-in for the vocabulary backend.

  GET  /api/v1/graph/          nodes and edges for the constellation view
  GET  /api/v1/constellation   weighted word co-occurrence (limit, minWeight, autoLayout)
  POST /api/v1/autolink        link words to the sentences that mention them
  GET  /api/v1/healthz`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if addr == "" {
				addr = cfg.ListenAddr
			}
			if dbPath == "" {
				dbPath = cfg.DBPath
			}
			logger := newLogger()

			st, err := store.NewSQLiteStoreWithDSN(dbPath)
			if err != nil {
				return err
			}
			defer st.Close()

			srv := server.New(st,
				server.WithBasePath("/api/v1"),
				server.WithLogger(logger),
				server.WithToken(cfg.APIToken),
			)

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				return srv.ListenAndServe(gctx, addr)
			})
			if autolinkEvery > 0 {
				g.Go(func() error {
					return autolinkLoop(gctx, st, autolinkEvery)
				})
			}

			fmt.Printf("%s serving %s on http://%s/api/v1\n", good.Sprint(star), dbPath, addr)
			return g.Wait()
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config)")
	cmd.Flags().StringVar(&dbPath, "db", "", "SQLite database path (default from config)")
	cmd.Flags().DurationVar(&autolinkEvery, "autolink-every", 0, "periodically link words found in sentences (0 disables)")
	return cmd
}

func autolinkLoop(ctx context.Context, st store.Storer, every time.Duration) error {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-t.C:
			added, err := constellation.AutoLink(st, now.UnixMilli())
			if err != nil {
				return fmt.Errorf("autolink: %w", err)
			}
			if added > 0 {
				fmt.Printf("  %s auto-linked %d mentions\n", subtle.Sprint("⟳"), added)
			}
		}
	}
}
