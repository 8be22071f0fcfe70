package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nanobeam-data/exitwave/internal/monitoring"
	"github.com/nanobeam-data/exitwave/internal/prism"
	"github.com/nanobeam-data/exitwave/internal/scan"
	"github.com/nanobeam-data/exitwave/internal/store"
	"github.com/nanobeam-data/exitwave/internal/wave"
)

// NewScanCommand runs a STEM scan over the configured structure, either
// by direct probe multislice or through a PRISM scattering matrix.
func NewScanCommand() *cobra.Command {
	var workers int
	var captureWaves bool

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Scan a focused probe over the structure and archive detector signals",
		RunE: func(cmd *cobra.Command, args []string) error {
			sim, err := loadSimulation(configPath)
			if err != nil {
				return err
			}

			detectors, err := sim.cfg.BuildDetectors()
			if err != nil {
				return err
			}
			sc, err := sim.cfg.BuildScan()
			if err != nil {
				return err
			}

			source, err := buildSource(cmd.Context(), sim)
			if err != nil {
				return err
			}

			runner := &scan.Runner{
				Source:       source,
				Detectors:    detectors,
				Workers:      workers,
				CaptureWaves: captureWaves,
				Progress: func(done, total int) {
					if done == total || done%64 == 0 {
						monitoring.Logf("scan: %d/%d positions", done, total)
					}
				},
			}
			results, err := runner.Run(cmd.Context(), sc)
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
			for _, m := range results.Measurements {
				if err := db.SaveMeasurement(cmd.Context(), run.ID, m.Name, m); err != nil {
					return err
				}
			}

			cmd.Println(run.ID)
			return nil
		},
	}

	cmd.Flags().IntVar(&workers, "workers", 0, "concurrent scan workers (0 = one per CPU)")
	cmd.Flags().BoolVar(&captureWaves, "capture-waves", false, "keep the raw exit wave at every position")

	return cmd
}

func buildSource(ctx context.Context, sim *simulation) (scan.Source, error) {
	ctf := sim.cfg.BuildCTF()

	if sim.cfg.Prism.Enabled {
		p := &prism.Prism{
			Gr:              sim.gr,
			Energy:          sim.cfg.Energy,
			SemiangleCutoff: ctf.SemiangleCutoff,
			Interpolation:   sim.cfg.Prism.Interpolation,
		}
		s, err := p.Build()
		if err != nil {
			return nil, err
		}
		monitoring.Logf("scan: propagating %d scattering matrix beams", s.NumBeams())
		if err := s.Multislice(ctx, sim.pot); err != nil {
			return nil, fmt.Errorf("propagate scattering matrix: %w", err)
		}
		return &scan.SMatrixSource{S: s, CTF: &ctf}, nil
	}

	probe := &wave.Probe{Gr: sim.gr, Energy: sim.cfg.Energy, CTF: ctf}
	if err := probe.Validate(); err != nil {
		return nil, err
	}
	return &scan.ProbeSource{Probe: probe, Potential: sim.pot}, nil
}
