// Package store keeps the history of audit runs in SQLite.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/Bahjat/structured-web-auditor/internal/model"
	"github.com/Bahjat/structured-web-auditor/internal/platform/errs"
)

// SiteRun is one stored site audit. Report holds the full JSON report.
type SiteRun struct {
	ID                 uint   `gorm:"primaryKey"`
	RunID              string `gorm:"size:36;uniqueIndex"`
	Domain             string `gorm:"size:255;index"`
	TotalPages         int
	PagesPassed        int
	PagesFailed        int
	AverageScore       float64
	AverageAlignment   float64
	ParticipationTotal int
	Grade              string `gorm:"size:32"`
	Report             []byte
	Pages              []PageRun `gorm:"foreignKey:SiteRunID;constraint:OnDelete:CASCADE"`
	CreatedAt          time.Time
}

// PageRun is one stored page audit, either part of a site run or standalone.
type PageRun struct {
	ID               uint  `gorm:"primaryKey"`
	SiteRunID        *uint `gorm:"index"`
	URL              string
	Status           string `gorm:"size:8"`
	Score            int
	Violations       int
	AlignmentPercent float64
	BacklinkScore    *int
	LoadTimeMs       *int
	CreatedAt        time.Time
}

// Options configures the database.
type Options struct {
	Path     string
	LogLevel string // silent, error, warn, info
}

// Store persists audit runs.
type Store struct {
	db *gorm.DB
}

// Open creates the database file and its directory when missing and
// migrates the schema.
func Open(opts Options) (*Store, error) {
	if dir := filepath.Dir(opts.Path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("store: create dir %s: %w", dir, err)
		}
	}

	db, err := gorm.Open(sqlite.Open(opts.Path), &gorm.Config{
		Logger:      gormlogger.Default.LogMode(gormLogLevel(opts.LogLevel)),
		PrepareStmt: true,
	})
	if err != nil {
		return nil, fmt.Errorf("store: open sqlite %s: %w", opts.Path, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("store: %w", err)
	}
	// SQLite allows a single writer.
	sqlDB.SetMaxOpenConns(1)

	if err := prepare(db); err != nil {
		_ = sqlDB.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

func prepare(db *gorm.DB) error {
	for _, pragma := range []string{"PRAGMA journal_mode = WAL;", "PRAGMA foreign_keys = ON;"} {
		if err := db.Exec(pragma).Error; err != nil {
			return fmt.Errorf("store: exec %q: %w", pragma, err)
		}
	}
	if err := db.AutoMigrate(&SiteRun{}, &PageRun{}); err != nil {
		return fmt.Errorf("store: migrate: %w", err)
	}
	return nil
}

func gormLogLevel(level string) gormlogger.LogLevel {
	switch strings.ToLower(level) {
	case "silent":
		return gormlogger.Silent
	case "error":
		return gormlogger.Error
	case "info":
		return gormlogger.Info
	default:
		return gormlogger.Warn
	}
}

// SaveSite stores a site report and one row per page in one transaction.
func (s *Store) SaveSite(ctx context.Context, rep *model.SiteReport) error {
	raw, err := json.Marshal(rep)
	if err != nil {
		return fmt.Errorf("store: encode report: %w", err)
	}

	site := rep.Site
	run := SiteRun{
		RunID:              rep.RunID,
		Domain:             strings.ToLower(site.Domain),
		TotalPages:         site.TotalPages,
		PagesPassed:        site.PagesPassed,
		PagesFailed:        site.PagesFailed,
		AverageScore:       site.AverageScore,
		AverageAlignment:   site.AverageAlignment,
		ParticipationTotal: site.Participation.Total,
		Grade:              site.Participation.Grade,
		Report:             raw,
		CreatedAt:          rep.GeneratedAt,
	}
	for i, page := range rep.Pages {
		score := 0
		if i < len(site.PageScores) {
			score = site.PageScores[i]
		}
		run.Pages = append(run.Pages, pageRun(page, score, rep.GeneratedAt))
	}

	if err := s.db.WithContext(ctx).Create(&run).Error; err != nil {
		return fmt.Errorf("store: save site %s: %w", site.Domain, err)
	}
	return nil
}

// SavePage stores a standalone page audit.
func (s *Store) SavePage(ctx context.Context, r *model.PageAuditResult, score int) error {
	row := pageRun(r, score, time.Now().UTC())
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("store: save page %s: %w", r.URL, err)
	}
	return nil
}

func pageRun(r *model.PageAuditResult, score int, at time.Time) PageRun {
	return PageRun{
		URL:              r.URL,
		Status:           string(r.Status),
		Score:            score,
		Violations:       len(r.Violations),
		AlignmentPercent: r.AlignmentPercent,
		BacklinkScore:    r.BacklinkScore,
		LoadTimeMs:       r.LoadTimeMs,
		CreatedAt:        at,
	}
}

// LatestSite returns the most recent report stored for domain.
func (s *Store) LatestSite(ctx context.Context, domain string) (*model.SiteReport, error) {
	var run SiteRun
	err := s.db.WithContext(ctx).
		Where("domain = ?", strings.ToLower(domain)).
		Order("created_at DESC, id DESC").
		First(&run).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &errs.AppError{Kind: errs.NotFound, Message: "No audit has been stored for " + domain + "."}
	}
	if err != nil {
		return nil, fmt.Errorf("store: load site %s: %w", domain, err)
	}

	var rep model.SiteReport
	if err := json.Unmarshal(run.Report, &rep); err != nil {
		return nil, fmt.Errorf("store: decode report %s: %w", run.RunID, err)
	}
	return &rep, nil
}

// History lists the stored runs of domain, newest first, without their pages.
func (s *Store) History(ctx context.Context, domain string, limit int) ([]SiteRun, error) {
	var runs []SiteRun
	q := s.db.WithContext(ctx).
		Omit("report").
		Where("domain = ?", strings.ToLower(domain)).
		Order("created_at DESC, id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&runs).Error; err != nil {
		return nil, fmt.Errorf("store: history %s: %w", domain, err)
	}
	return runs, nil
}

// PageHistory lists the stored audits of one URL, newest first.
func (s *Store) PageHistory(ctx context.Context, url string, limit int) ([]PageRun, error) {
	var rows []PageRun
	q := s.db.WithContext(ctx).Where("url = ?", url).Order("created_at DESC, id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("store: page history %s: %w", url, err)
	}
	return rows, nil
}

// Close releases the database.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
