package main

import (
	"net/http"

	"github.com/spf13/cobra"

	"github.com/nanobeam-data/exitwave/internal/api"
	"github.com/nanobeam-data/exitwave/internal/config"
	"github.com/nanobeam-data/exitwave/internal/monitoring"
	"github.com/nanobeam-data/exitwave/internal/store"
)

// NewServeCommand serves the run archive over HTTP.
func NewServeCommand() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve archived runs over HTTP",
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

			monitoring.Logf("serving %s on %s", cfg.Output.Database, addr)
			return http.ListenAndServe(addr, api.NewServer(db).ServeMux())
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")

	return cmd
}
