package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/kittclouds/constellation/internal/constellation"
	"github.com/kittclouds/constellation/internal/store"
)

func importCmd() *cobra.Command {
	var (
		dbPath   string
		autolink bool
	)

	cmd := &cobra.Command{
		Use:   "import FILE...",
		Short: "Import YAML vocabulary files into the database",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if dbPath == "" {
				dbPath = cfg.DBPath
			}

			vocabs, err := parseFiles(args)
			if err != nil {
				return err
			}

			st, err := store.NewSQLiteStoreWithDSN(dbPath)
			if err != nil {
				return err
			}
			defer st.Close()

			banner("import")
			now := time.Now().UnixMilli()
			var total constellation.ImportStats
			for i, v := range vocabs {
				s, err := constellation.Import(st, v, now)
				if err != nil {
					return fmt.Errorf("%s: %w", args[i], err)
				}
				total.Words += s.Words
				total.Sentences += s.Sentences
				total.Links += s.Links
				fmt.Printf("  %s %s %s\n", good.Sprint("✓"), args[i],
					subtle.Sprintf("(%d words, %d sentences, %d links)", s.Words, s.Sentences, s.Links))
			}

			if autolink {
				added, err := constellation.AutoLink(st, now)
				if err != nil {
					return err
				}
				total.Links += added
				fmt.Printf("  %s auto-linked %d mentions\n", good.Sprint("✓"), added)
			}

			fmt.Printf("\n  %d words, %d sentences, %d links → %s\n", total.Words, total.Sentences, total.Links, dbPath)
			return nil
		},
	}

	cmd.Flags().StringVar(&dbPath, "db", "", "SQLite database path (default from config)")
	cmd.Flags().BoolVar(&autolink, "autolink", true, "link words to the sentences that mention them")
	return cmd
}

// parseFiles decodes every file concurrently, keeping argument order.
func parseFiles(paths []string) ([]*constellation.Vocabulary, error) {
	out := make([]*constellation.Vocabulary, len(paths))
	var g errgroup.Group
	g.SetLimit(4)
	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			f, err := os.Open(path)
			if err != nil {
				return err
			}
			defer f.Close()
			v, err := constellation.ParseVocabulary(f)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			out[i] = v
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
