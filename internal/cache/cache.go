// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package cache supplies status snapshots to the CLI. A snapshot
// either comes from a local file or from the juju CLI, with the juju
// output cached on disk so repeated queries within the freshness
// window do not shell out again.
package cache

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/juju/clock"
	"github.com/juju/errors"
	"github.com/juju/loggo"

	"github.com/juju/jockey/core/snapshot"
)

var logger = loggo.GetLogger("jockey.cache")

// DefaultMaxAge is how long a cached status document stays fresh.
const DefaultMaxAge = 5 * time.Minute

// cacheFile is the name of the cached document inside the cache dir.
const cacheFile = "status.json"

// FileProvider reads a snapshot from a local JSON file.
type FileProvider struct {
	Path string
}

// Snapshot implements snapshot.Provider.
func (p FileProvider) Snapshot(_ context.Context) (*snapshot.Status, error) {
	data, err := os.ReadFile(p.Path)
	if err != nil {
		return nil, errors.Annotate(err, "reading status file")
	}
	status, err := snapshot.Parse(data)
	return status, errors.Trace(err)
}

// Runner produces a raw status document, normally by running
// "juju status --format=json". Injected so tests never exec anything.
type Runner func(ctx context.Context) ([]byte, error)

// JujuRunner is the default Runner.
func JujuRunner(ctx context.Context) ([]byte, error) {
	cmd := exec.CommandContext(ctx, "juju", "status", "--format", "json")
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, errors.Annotatef(err, "juju status: %s", strings.TrimSpace(stderr.String()))
	}
	return stdout.Bytes(), nil
}

// Provider caches the juju CLI's status output on disk and serves it
// while fresh.
type Provider struct {
	// Dir is the cache directory.
	Dir string

	// MaxAge bounds cache freshness; DefaultMaxAge if zero.
	MaxAge time.Duration

	// ForceRefresh bypasses the cache for this invocation.
	ForceRefresh bool

	// Clock measures cache age; the wall clock if nil.
	Clock clock.Clock

	// Run produces the raw document; JujuRunner if nil.
	Run Runner
}

// NewProvider returns a Provider using the user cache directory, or
// the JOCKEY_CACHE_DIR environment override.
func NewProvider(forceRefresh bool) (*Provider, error) {
	dir := os.Getenv("JOCKEY_CACHE_DIR")
	if dir == "" {
		userCache, err := os.UserCacheDir()
		if err != nil {
			return nil, errors.Annotate(err, "locating cache directory")
		}
		dir = filepath.Join(userCache, "jockey")
	}
	return &Provider{Dir: dir, ForceRefresh: forceRefresh}, nil
}

// Snapshot implements snapshot.Provider.
func (p *Provider) Snapshot(ctx context.Context) (*snapshot.Status, error) {
	path := filepath.Join(p.Dir, cacheFile)
	if !p.ForceRefresh {
		if data, ok := p.cached(path); ok {
			status, err := snapshot.Parse(data)
			if err == nil {
				return status, nil
			}
			logger.Warningf("discarding unreadable cache %s: %v", path, err)
		}
	}

	run := p.Run
	if run == nil {
		run = JujuRunner
	}
	data, err := run(ctx)
	if err != nil {
		return nil, errors.Trace(err)
	}
	status, err := snapshot.Parse(data)
	if err != nil {
		return nil, errors.Trace(err)
	}
	if err := os.MkdirAll(p.Dir, 0755); err != nil {
		logger.Warningf("not caching status: %v", err)
		return status, nil
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		logger.Warningf("not caching status: %v", err)
	}
	return status, nil
}

// cached returns the cache file's contents if it is younger than
// MaxAge.
func (p *Provider) cached(path string) ([]byte, bool) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, false
	}
	clk := p.Clock
	if clk == nil {
		clk = clock.WallClock
	}
	maxAge := p.MaxAge
	if maxAge == 0 {
		maxAge = DefaultMaxAge
	}
	if age := clk.Now().Sub(info.ModTime()); age > maxAge {
		logger.Debugf("cache %s is stale (%v old)", path, age)
		return nil, false
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, false
	}
	return data, true
}
