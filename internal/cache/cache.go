// Package cache keeps the latest site report per domain and fetched
// robots.txt bodies in memcached.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/bradfitz/gomemcache/memcache"

	"github.com/Bahjat/structured-web-auditor/internal/model"
)

// Cache is the read-through store used by the HTTP service and the robots
// filter. Misses and backend errors both report false.
type Cache interface {
	GetSiteReport(domain string) (*model.SiteReport, bool)
	SaveSiteReport(rep *model.SiteReport)
	GetRobotsFile(origin string) ([]byte, bool)
	SaveRobotsFile(origin string, body []byte)
	Close()
}

// Memcached implements Cache on a memcached cluster.
type Memcached struct {
	client *memcache.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewMemcached connects to servers and verifies that every one answers.
func NewMemcached(servers []string, ttl time.Duration, logger *slog.Logger) (*Memcached, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	ss := new(memcache.ServerList)
	if err := ss.SetServers(servers...); err != nil {
		return nil, fmt.Errorf("cache: set servers: %w", err)
	}

	c := &Memcached{client: memcache.NewFromSelector(ss), ttl: ttl, logger: logger}
	if err := c.client.Ping(); err != nil {
		return nil, fmt.Errorf("cache: ping: %w", err)
	}
	logger.Info("connected to memcached", "servers", servers)
	return c, nil
}

func (c *Memcached) GetSiteReport(domain string) (*model.SiteReport, bool) {
	var rep model.SiteReport
	if !c.get(siteKey(domain), &rep) {
		return nil, false
	}
	return &rep, true
}

func (c *Memcached) SaveSiteReport(rep *model.SiteReport) {
	c.set(siteKey(rep.Site.Domain), rep)
}

func (c *Memcached) GetRobotsFile(origin string) ([]byte, bool) {
	var body []byte
	if !c.get(robotsKey(origin), &body) {
		return nil, false
	}
	return body, true
}

func (c *Memcached) SaveRobotsFile(origin string, body []byte) {
	c.set(robotsKey(origin), body)
}

func (c *Memcached) Close() {
	if err := c.client.Close(); err != nil {
		c.logger.Error("failed to close memcached connection", "error", err)
	}
}

func (c *Memcached) get(key string, dst any) bool {
	item, err := c.client.Get(key)
	if err != nil {
		if !errors.Is(err, memcache.ErrCacheMiss) {
			c.logger.Error("cache read failed", "key", key, "error", err)
		}
		return false
	}
	if err := json.Unmarshal(item.Value, dst); err != nil {
		c.logger.Error("cache entry is corrupt", "key", key, "error", err)
		return false
	}
	return true
}

func (c *Memcached) set(key string, value any) {
	data, err := json.Marshal(value)
	if err != nil {
		c.logger.Error("cache encode failed", "key", key, "error", err)
		return
	}
	item := &memcache.Item{Key: key, Value: data, Expiration: int32(c.ttl.Seconds())}
	if err := c.client.Set(item); err != nil {
		c.logger.Error("cache write failed", "key", key, "error", err)
	}
}

// Keys are hashed so arbitrary domains and origins fit memcached's key rules.
func siteKey(domain string) string {
	return hashKey(strings.ToLower(domain)) + "-site-report"
}

func robotsKey(origin string) string {
	return hashKey(strings.ToLower(origin)) + "-robots-txt"
}

func hashKey(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

// Noop is a Cache that stores nothing.
type Noop struct{}

func (Noop) GetSiteReport(string) (*model.SiteReport, bool) { return nil, false }
func (Noop) SaveSiteReport(*model.SiteReport)               {}
func (Noop) GetRobotsFile(string) ([]byte, bool)            { return nil, false }
func (Noop) SaveRobotsFile(string, []byte)                  {}
func (Noop) Close()                                         {}
