package main

import (
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/stephansanders/citation-overlap/internal/overlap"
	"github.com/stephansanders/citation-overlap/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the overlap engine over HTTP",
	Long: `Start an HTTP server exposing the engine. POST a JSON object
mapping source names to raw CSV text to receive the cleaned per-source
tables and the combined overlaps table as JSON.

Example:
  citov serve --addr :8080
  curl -X POST localhost:8080 -H 'Content-Type: application/json' \
    -d '{"medline": "...csv text...", "embase": "...csv text..."}'`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().String("addr", ":8080", "listen address")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	addr, _ := cmd.Flags().GetString("addr")

	cfg, err := overlap.ConfigFromEnv()
	if err != nil {
		return err
	}
	srv, err := server.New(cfg)
	if err != nil {
		return err
	}
	color.Cyan("Listening on %s", addr)
	return srv.Router().Run(addr)
}
