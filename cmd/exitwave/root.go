package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nanobeam-data/exitwave/internal/atoms"
	"github.com/nanobeam-data/exitwave/internal/config"
	"github.com/nanobeam-data/exitwave/internal/grid"
	"github.com/nanobeam-data/exitwave/internal/potential"
	"github.com/nanobeam-data/exitwave/internal/version"
)

var configPath = "exitwave.yaml"

// NewRootCommand assembles the exitwave command tree.
func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "exitwave",
		Short:         "exitwave simulates electron scattering through thin specimens",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", "exitwave.yaml", "path to the simulation config")

	cmd.AddCommand(
		NewRunCommand(),
		NewScanCommand(),
		NewExportCommand(),
		NewServeCommand(),
		NewMigrateCommand(),
		NewVersionCommand(),
	)

	return cmd
}

// NewVersionCommand reports the build version.
func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version",
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Printf("exitwave %s (%s, built %s)\n", version.Version, version.GitSHA, version.BuildTime)
		},
	}
}

// simulation bundles the objects every simulation command starts from.
type simulation struct {
	cfg *config.Config
	gr  *grid.Grid
	pot *potential.Potential
}

func loadSimulation(path string) (*simulation, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	a, err := atoms.ReadXYZFile(cfg.Structure)
	if err != nil {
		return nil, fmt.Errorf("read structure: %w", err)
	}

	ext := a.Extent()
	gr, err := cfg.BuildGrid([2]float64{ext[0], ext[1]})
	if err != nil {
		return nil, err
	}

	param, err := potential.ByName(cfg.Potential.Parametrization)
	if err != nil {
		return nil, err
	}
	pot, err := (&potential.Builder{
		Atoms:           a,
		Gpts:            gr.Gpts,
		SliceThickness:  cfg.Potential.SliceThickness,
		Projection:      potential.Projection(cfg.Potential.Projection),
		Parametrization: param,
		CutoffRadius:    cfg.Potential.CutoffRadius,
	}).Build()
	if err != nil {
		return nil, fmt.Errorf("build potential: %w", err)
	}

	return &simulation{cfg: cfg, gr: gr, pot: pot}, nil
}
