// Command auditor checks web pages and sites against the structured-web
// compliance rules and serves the same audits over HTTP.
package main

import (
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	version = "1.0.0"
	appName = "auditor"

	configFile string

	colorRed    = color.New(color.FgRed, color.Bold)
	colorGreen  = color.New(color.FgGreen, color.Bold)
	colorYellow = color.New(color.FgYellow)
	colorCyan   = color.New(color.FgCyan)
	colorWhite  = color.New(color.FgWhite)
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		colorRed.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   appName,
	Short: "Structured-web compliance auditor",
	Long: `Audits pages for structured data, trust backlinks, zero-trust hygiene,
load time and semantic alignment, then scores pages and grades sites.

Examples:
  # audit one page
  auditor page example.com/about

  # audit every page in a site's sitemap
  auditor site example.com

  # audit every site listed in the mesh index
  auditor mesh

  # serve the HTTP API
  auditor serve`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default ./config.yaml when present)")
	rootCmd.AddCommand(serveCmd, pageCmd, siteCmd, meshCmd)
}
