package main

import (
	"github.com/spf13/cobra"

	"github.com/nanobeam-data/exitwave/internal/monitoring"
	"github.com/nanobeam-data/exitwave/internal/store"
	"github.com/nanobeam-data/exitwave/internal/wave"
)

// NewRunCommand simulates a plane-wave exit wave through the configured
// structure and archives the resulting image and diffraction pattern.
func NewRunCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Propagate a plane wave through the structure and archive the exit wave",
		RunE: func(cmd *cobra.Command, args []string) error {
			sim, err := loadSimulation(configPath)
			if err != nil {
				return err
			}

			pw := &wave.PlaneWave{Energy: sim.cfg.Energy}
			exit, err := pw.Multislice(cmd.Context(), sim.pot)
			if err != nil {
				return err
			}

			db, err := store.Open(sim.cfg.Output.Database)
			if err != nil {
				return err
			}
			defer db.Close()

			cfgText, err := sim.cfg.Marshal()
			if err != nil {
				return err
			}
			run, err := db.CreateRun(cmd.Context(), sim.cfg.Name, cfgText)
			if err != nil {
				return err
			}

			image := exit.ImageMeasurement(0)
			if err := db.SaveMeasurement(cmd.Context(), run.ID, "image", image); err != nil {
				return err
			}
			pattern := exit.DiffractionPattern(0)
			if err := db.SaveMeasurement(cmd.Context(), run.ID, "diffraction", pattern); err != nil {
				return err
			}

			monitoring.Logf("run %s: archived exit wave over %d slices", run.ID, sim.pot.NumSlices())
			cmd.Println(run.ID)
			return nil
		},
	}
}
