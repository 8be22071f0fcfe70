package main

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/nanobeam-data/exitwave/internal/config"
	"github.com/nanobeam-data/exitwave/internal/fsutil"
	"github.com/nanobeam-data/exitwave/internal/measure"
	"github.com/nanobeam-data/exitwave/internal/monitoring"
	"github.com/nanobeam-data/exitwave/internal/render"
	"github.com/nanobeam-data/exitwave/internal/store"
)

// NewExportCommand writes an archived run's measurements to disk as CSV
// files, PNG images and an HTML report.
func NewExportCommand() *cobra.Command {
	var outDir string
	var png bool

	cmd := &cobra.Command{
		Use:   "export <run-id>",
		Short: "Export an archived run to CSV, PNG and an HTML report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}

			db, err := store.Open(cfg.Output.Database)
			if err != nil {
				return err
			}
			defer db.Close()

			dir := outDir
			if dir == "" {
				dir = filepath.Join(cfg.Output.Directory, args[0])
			}

			return exportRun(cmd.Context(), db, fsutil.OSFileSystem{}, args[0], dir, png)
		},
	}

	cmd.Flags().StringVarP(&outDir, "out", "o", "", "output directory (default: output.directory/<run-id>)")
	cmd.Flags().BoolVar(&png, "png", true, "additionally render PNG images")

	return cmd
}

func exportRun(ctx context.Context, db *store.Store, fs fsutil.FileSystem, runID, dir string, png bool) error {
	run, err := db.Run(ctx, runID)
	if err != nil {
		return err
	}
	names, err := db.ListMeasurements(ctx, runID)
	if err != nil {
		return err
	}
	if err := fs.MkdirAll(dir, 0755); err != nil {
		return err
	}

	exported := 0
	ms := make([]*measure.Measurement, 0, len(names))
	for _, name := range names {
		m, err := db.Measurement(ctx, runID, name)
		if err != nil {
			return err
		}
		ms = append(ms, m)

		var buf bytes.Buffer
		if err := m.WriteCSV(&buf); err != nil {
			return fmt.Errorf("export %s: %w", name, err)
		}
		if err := fs.WriteFile(filepath.Join(dir, name+".csv"), buf.Bytes(), 0644); err != nil {
			return err
		}
		exported++

		if !png {
			continue
		}
		pngPath := filepath.Join(dir, name+".png")
		switch m.Dimensions() {
		case 1:
			err = render.SaveLinePNG(m, pngPath)
		case 2:
			err = render.SaveHeatmapPNG(m, pngPath)
		default:
			continue
		}
		if err != nil {
			return fmt.Errorf("export %s: %w", name, err)
		}
		exported++
	}

	var report bytes.Buffer
	if err := render.WriteReport(&report, run.Name, ms); err != nil {
		return err
	}
	if err := fs.WriteFile(filepath.Join(dir, "report.html"), report.Bytes(), 0644); err != nil {
		return err
	}
	exported++

	monitoring.Logf("export: wrote %d files to %s", exported, dir)
	return nil
}
