package main

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"os/signal"
	"slices"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Bahjat/structured-web-auditor/internal/analyzer"
	"github.com/Bahjat/structured-web-auditor/internal/discovery"
	"github.com/Bahjat/structured-web-auditor/internal/model"
)

var (
	strictMode bool
	siteURLs   []string

	errAuditFailed = errors.New("one or more pages failed the audit")
)

var pageCmd = &cobra.Command{
	Use:   "page <url>",
	Short: "Audit a single page",
	Args:  cobra.ExactArgs(1),
	RunE:  runPage,
}

var siteCmd = &cobra.Command{
	Use:   "site <domain>",
	Short: "Audit every page of a site",
	Long: `Audits the pages listed in https://<domain>/sitemap.xml, or the pages
given with --url, and grades the site's participation.`,
	Args: cobra.ExactArgs(1),
	RunE: runSite,
}

var meshCmd = &cobra.Command{
	Use:   "mesh",
	Short: "Audit every site listed in the mesh index",
	Args:  cobra.NoArgs,
	RunE:  runMesh,
}

func init() {
	for _, cmd := range []*cobra.Command{pageCmd, siteCmd, meshCmd} {
		cmd.Flags().BoolVar(&strictMode, "strict", false, "exit non-zero when any page fails")
	}
	siteCmd.Flags().StringSliceVar(&siteURLs, "url", nil, "audit these URLs instead of the sitemap (repeatable)")
}

func runPage(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	rep, err := a.service.AuditPage(ctx, args[0])
	if err != nil {
		return err
	}
	path, err := a.writer.WritePage(rep.Result, rep.Score)
	if err != nil {
		return err
	}

	printPage(rep.Result, rep.Score)
	colorCyan.Printf("Report: %s\n", path)

	if strictMode && !rep.Result.Passed() {
		return errAuditFailed
	}
	return nil
}

func runSite(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	rep, err := a.auditSite(ctx, analyzer.SiteRequest{Domain: args[0], URLs: siteURLs})
	if err != nil {
		return err
	}
	if strictMode && rep.Site.PagesFailed > 0 {
		return errAuditFailed
	}
	return nil
}

func runMesh(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	urls, err := a.discoverer.MeshURLs(ctx)
	if err != nil {
		return err
	}

	bySite := make(map[string][]string)
	for _, u := range urls {
		domain, err := discovery.NormalizeDomain(u)
		if err != nil {
			a.logger.Warn("skipping mesh url", "url", u, "error", err)
			continue
		}
		bySite[domain] = append(bySite[domain], u)
	}

	var sites []model.SiteAuditResult
	for _, domain := range slices.Sorted(maps.Keys(bySite)) {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		rep, err := a.auditSite(ctx, analyzer.SiteRequest{Domain: domain, URLs: bySite[domain]})
		if err != nil {
			a.logger.Error("site audit failed", "domain", domain, "error", err)
			continue
		}
		sites = append(sites, rep.Site)
	}

	printMesh(sites)
	if strictMode && slices.ContainsFunc(sites, func(s model.SiteAuditResult) bool { return s.PagesFailed > 0 }) {
		return errAuditFailed
	}
	return nil
}

// auditSite runs one site audit and writes its page and site reports.
func (a *app) auditSite(ctx context.Context, req analyzer.SiteRequest) (*model.SiteReport, error) {
	rep, err := a.service.AuditSite(ctx, req)
	if err != nil {
		return nil, err
	}

	for _, page := range rep.Pages {
		if _, err := a.writer.WritePage(page, a.scorer.Score(page)); err != nil {
			return nil, fmt.Errorf("write page report: %w", err)
		}
	}
	path, err := a.writer.WriteSite(rep)
	if err != nil {
		return nil, fmt.Errorf("write site report: %w", err)
	}

	printSite(rep)
	colorCyan.Printf("Report: %s\n", path)
	return rep, nil
}
