package main

import (
	"fmt"
	"strings"

	"github.com/Bahjat/structured-web-auditor/internal/audit"
	"github.com/Bahjat/structured-web-auditor/internal/model"
)

func printSeparator() {
	colorWhite.Println(strings.Repeat("-", 60))
}

func printStatus(status model.Status) {
	if status == model.StatusPass {
		colorGreen.Print("PASS")
		return
	}
	colorRed.Print("FAIL")
}

func printPage(r *model.PageAuditResult, score int) {
	printSeparator()
	colorCyan.Printf("%s\n", r.URL)
	fmt.Print("  status: ")
	printStatus(r.Status)
	fmt.Printf("  score: %d/100  alignment: %.2f%%\n", score, r.AlignmentPercent)
	if r.LoadTimeMs != nil {
		fmt.Printf("  load time: %d ms\n", *r.LoadTimeMs)
	}
	for _, v := range r.Violations {
		colorYellow.Printf("  - %s\n", v)
	}
}

func printSite(rep *model.SiteReport) {
	site := rep.Site
	printSeparator()
	colorCyan.Printf("Site: %s  (run %s)\n", site.Domain, rep.RunID)
	printSeparator()
	fmt.Printf("  pages: %d  passed: %d  failed: %d\n", site.TotalPages, site.PagesPassed, site.PagesFailed)
	fmt.Printf("  average score: %.2f  mesh health: %.2f%%\n", site.AverageScore, site.AverageAlignment)
	fmt.Printf("  participation: %d/4 ", site.Participation.Total)
	printGrade(site.Participation.Grade)
	fmt.Println()

	for _, page := range rep.Pages {
		fmt.Print("  ")
		printStatus(page.Status)
		fmt.Printf(" %s\n", page.URL)
	}
}

func printMesh(sites []model.SiteAuditResult) {
	printSeparator()
	colorCyan.Printf("Mesh: %d sites\n", len(sites))
	printSeparator()
	for _, s := range sites {
		fmt.Printf("  %-40s %6.2f  ", s.Domain, s.AverageScore)
		printGrade(s.Participation.Grade)
		fmt.Println()
	}
}

func printGrade(grade string) {
	switch grade {
	case audit.GradePerfect, audit.GradeGoodStanding:
		colorGreen.Print(grade)
	case audit.GradeNeedsWork:
		colorYellow.Print(grade)
	default:
		colorRed.Print(grade)
	}
}
