package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/kittclouds/constellation/internal/api"
	"github.com/kittclouds/constellation/internal/constellation"
	"github.com/kittclouds/constellation/internal/store"
	"github.com/kittclouds/constellation/pkg/graph"
)

func statsCmd() *cobra.Command {
	var (
		dbPath string
		top    int
	)

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show graph size, clusters and the most connected nodes",
		Long: `Reads the graph from the API, or straight from a database with --db.

  constellation stats
  constellation stats --db constellation.db --top 20`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			var p graph.Payload
			source := cfg.APIURL
			if dbPath != "" {
				st, err := store.NewSQLiteStoreWithDSN(dbPath)
				if err != nil {
					return err
				}
				defer st.Close()
				if p, err = constellation.LoadGraph(st); err != nil {
					return err
				}
				source = dbPath
			} else {
				client := api.NewClient(
					api.WithBaseURL(cfg.APIURL),
					api.WithToken(cfg.APIToken),
					api.WithLogger(newLogger()),
				)
				if p, err = client.GetGraph(cmd.Context()); err != nil {
					return err
				}
			}

			s := constellation.Summarize(p, top)
			banner("graph statistics")
			fmt.Printf("  Source:          %s\n", subtle.Sprint(source))
			fmt.Printf("  Nodes:           %d (%d words, %d sentences)\n", s.Nodes, s.Words, s.Sentences)
			fmt.Printf("  Edges:           %d\n", s.Edges)
			fmt.Printf("  Clusters:        %d (largest %d)\n", s.Components, s.LargestCluster)
			if s.Orphans > 0 {
				fmt.Printf("  Unlinked nodes:  %s\n", warn.Sprint(s.Orphans))
			} else {
				fmt.Printf("  Unlinked nodes:  %s\n", good.Sprint(0))
			}

			if len(s.TopHubs) == 0 {
				return nil
			}
			fmt.Println()
			rows := make([][]string, len(s.TopHubs))
			for i, h := range s.TopHubs {
				rows[i] = []string{strconv.Itoa(i + 1), truncate(h.Label, 40), string(h.Kind), strconv.Itoa(h.Degree)}
			}
			table([]string{"#", "Label", "Type", "Links"}, rows)
			return nil
		},
	}

	cmd.Flags().StringVar(&dbPath, "db", "", "read from a SQLite database instead of the API")
	cmd.Flags().IntVar(&top, "top", 10, "number of hubs to list")
	return cmd
}
