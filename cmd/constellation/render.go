package main

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"

	osfs "github.com/hack-pad/hackpadfs/os"
	"github.com/spf13/cobra"

	"github.com/kittclouds/constellation/internal/api"
	"github.com/kittclouds/constellation/internal/view"
	"github.com/kittclouds/constellation/pkg/render"
	"github.com/kittclouds/constellation/pkg/sched"
	"github.com/kittclouds/constellation/pkg/snapshot"
)

func renderCmd() *cobra.Command {
	var (
		out        string
		layoutPath string
		maxVisible int
		maxFrames  int
	)

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Fetch the graph, settle the layout headlessly and export an SVG",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("max-visible") {
				cfg.MaxVisible = maxVisible
			}
			if layoutPath == "" {
				layoutPath = cfg.SnapshotPath
			}
			logger := newLogger()

			client := api.NewClient(
				api.WithBaseURL(cfg.APIURL),
				api.WithToken(cfg.APIToken),
				api.WithLogger(logger),
			)
			v, m, err := view.Settle(cmd.Context(), client, cfg.Width, cfg.Height, maxFrames,
				view.WithMaxVisible(cfg.MaxVisible),
				view.WithLogger(logger),
			)
			if err != nil {
				return err
			}
			defer v.Close()

			frame := v.Frame(sched.NowMillis(m))
			if err := writeSVG(out, frame); err != nil {
				return err
			}
			if err := saveLayout(layoutPath, v.Snapshot()); err != nil {
				return err
			}

			nodes, edges := v.Counts()
			banner("render")
			fmt.Printf("  %s %d of %d nodes, %d links (%d edges total)\n",
				good.Sprint("✓"), len(v.VisibleNodes()), nodes, len(v.VisibleLinks()), edges)
			fmt.Printf("  %s %s\n", subtle.Sprint("svg    "), out)
			fmt.Printf("  %s %s\n", subtle.Sprint("layout "), layoutPath)
			return nil
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "constellation.svg", "SVG output path")
	cmd.Flags().StringVar(&layoutPath, "layout", "", "layout snapshot path (default from config)")
	cmd.Flags().IntVar(&maxVisible, "max-visible", 0, "bound on visible nodes (0 shows all)")
	cmd.Flags().IntVar(&maxFrames, "max-frames", 100000, "give up after this many painted simulation frames")
	return cmd
}

func writeSVG(path string, f render.Frame) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(file)
	if err := render.WriteSVG(w, f); err != nil {
		file.Close()
		return err
	}
	if err := w.Flush(); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

func saveLayout(path string, snap snapshot.Snapshot) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	fsys := osfs.NewFS()
	name, err := fsys.FromOSPath(abs)
	if err != nil {
		return fmt.Errorf("layout path %s: %w", path, err)
	}
	st, err := snapshot.NewStore(fsys, name)
	if err != nil {
		return err
	}
	return st.Save(snap)
}
