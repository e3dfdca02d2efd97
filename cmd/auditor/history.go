package main

import (
	"errors"
	"fmt"
	"net/url"

	"github.com/spf13/cobra"

	"github.com/Bahjat/structured-web-auditor/internal/discovery"
)

var (
	historyLimit int

	errStoreDisabled = errors.New("audit history is disabled; set store.enabled")
)

var historyCmd = &cobra.Command{
	Use:   "history <domain|url>",
	Short: "List stored audits of a site, or of one page when given a URL with a path",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistory,
}

func init() {
	historyCmd.Flags().IntVar(&historyLimit, "limit", 10, "maximum number of runs to list")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.close()

	if a.store == nil {
		return errStoreDisabled
	}

	target, err := discovery.ResolveURL(args[0])
	if err != nil {
		return err
	}
	domain, err := discovery.NormalizeDomain(target)
	if err != nil {
		return err
	}

	if u, _ := url.Parse(target); u.Path != "/" || u.RawQuery != "" {
		rows, err := a.store.PageHistory(cmd.Context(), target, historyLimit)
		if err != nil {
			return err
		}
		printSeparator()
		colorCyan.Printf("Page history: %s\n", target)
		printSeparator()
		for _, r := range rows {
			fmt.Printf("  %s  %-4s  score %3d  violations %d\n",
				r.CreatedAt.Format("2006-01-02 15:04"), r.Status, r.Score, r.Violations)
		}
		return nil
	}

	runs, err := a.store.History(cmd.Context(), domain, historyLimit)
	if err != nil {
		return err
	}
	printSeparator()
	colorCyan.Printf("Site history: %s\n", domain)
	printSeparator()
	for _, r := range runs {
		fmt.Printf("  %s  %s  pages %d  avg %6.2f  ", r.CreatedAt.Format("2006-01-02 15:04"), r.RunID, r.TotalPages, r.AverageScore)
		printGrade(r.Grade)
		fmt.Println()
	}
	return nil
}
