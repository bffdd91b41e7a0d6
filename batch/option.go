// Package batch walks a directory of Python or Java source files and runs
// pgraph.Build across all of them, fanning work out across goroutines the
// way the teacher's analyzer.AnalyzeDir walks a module and analyses every
// package it finds.
package batch

import (
	"os"
	"path/filepath"

	"github.com/gocodewalk/pgraph"
)

// MatcherFn reports whether a walked file or directory should be visited.
// Returning false for a directory skips its whole subtree.
type MatcherFn func(info os.FileInfo) bool

// PythonFiles matches .py files, skipping common virtualenv/build dirs.
func PythonFiles(info os.FileInfo) bool {
	if info.IsDir() {
		switch info.Name() {
		case "vendor", "node_modules", "build", ".venv", "venv", "__pycache__":
			return false
		}
		return true
	}
	return filepath.Ext(info.Name()) == ".py"
}

// JavaFiles matches .java files, skipping common build/output dirs.
func JavaFiles(info os.FileInfo) bool {
	if info.IsDir() {
		switch info.Name() {
		case "vendor", "node_modules", "target", "build", "out":
			return false
		}
		return true
	}
	return filepath.Ext(info.Name()) == ".java"
}

func defaultMatcher(lang pgraph.Language) MatcherFn {
	if lang == pgraph.Java {
		return JavaFiles
	}
	return PythonFiles
}

// config accumulates the options Walk was called with.
type config struct {
	lang        pgraph.Language
	match       MatcherFn
	concurrency int
	buildOpts   []pgraph.Option
}

// Option configures a Walk call.
type Option func(*config)

// WithMatcher overrides the default language-derived file matcher.
func WithMatcher(m MatcherFn) Option {
	return func(c *config) { c.match = m }
}

// WithConcurrency bounds the number of files built concurrently. The
// default is runtime.GOMAXPROCS(0).
func WithConcurrency(n int) Option {
	return func(c *config) { c.concurrency = n }
}

// WithBuildOptions forwards opts to every per-file pgraph.Build call, e.g.
// WithBuildOptions(pgraph.WithSyntaxErrorPolicy(pgraph.PolicyWarn)).
func WithBuildOptions(opts ...pgraph.Option) Option {
	return func(c *config) { c.buildOpts = append(c.buildOpts, opts...) }
}

func newConfig(lang pgraph.Language, opts ...Option) *config {
	c := &config{lang: lang, match: defaultMatcher(lang)}
	for _, opt := range opts {
		opt(c)
	}
	return c
}
