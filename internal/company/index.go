// Package company maintains the company alias index used to recognise company
// mentions in free text and to compare companies declared by mentors.
package company

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"github.com/hyperjump/mentorlink/pkg/utils"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
	"gopkg.in/yaml.v3"
)

// DefaultTTL is how long a built index is trusted before Warm rebuilds it.
const DefaultTTL = 6 * time.Hour

// Source lists the companies currently declared by mentors.
type Source interface {
	ListCompanies(ctx context.Context) ([]string, error)
}

// snapshot is an immutable lookup table. A rebuild produces a new snapshot
// and swaps the pointer, so readers never observe a half-built map.
type snapshot struct {
	lookup    map[string]string
	canonical map[string]struct{}
	builtAt   time.Time
}

// Index maps normalized company name variants to canonical keys.
type Index struct {
	source    Source
	ttl       time.Duration
	aliasFile string
	logger    *zap.Logger
	now       func() time.Time

	snap  atomic.Pointer[snapshot]
	ready atomic.Bool
	group singleflight.Group
}

// Option configures an Index.
type Option func(*Index)

// WithTTL sets the rebuild interval.
func WithTTL(ttl time.Duration) Option {
	return func(i *Index) {
		if ttl > 0 {
			i.ttl = ttl
		}
	}
}

// WithAliasFile merges canonical → aliases entries from a YAML file into every rebuild.
func WithAliasFile(path string) Option {
	return func(i *Index) { i.aliasFile = path }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(i *Index) { i.logger = utils.OrNop(l) }
}

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(i *Index) { i.now = now }
}

// NewIndex creates an index over the curated alias table. Source may be nil,
// in which case only curated and file aliases are known.
func NewIndex(source Source, opts ...Option) *Index {
	idx := &Index{
		source: source,
		ttl:    DefaultTTL,
		logger: zap.NewNop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(idx)
	}
	idx.snap.Store(buildSnapshot(curatedAliases, nil, time.Time{}))
	return idx
}

// Ready reports whether the index has been warmed and is within its TTL.
func (i *Index) Ready() bool {
	if !i.ready.Load() {
		return false
	}
	return i.now().Sub(i.snap.Load().builtAt) < i.ttl
}

// Warm rebuilds the index when it is absent, invalidated, or older than the TTL.
// Concurrent callers share one rebuild. On failure the previous snapshot stays in use.
func (i *Index) Warm(ctx context.Context) error {
	if i.Ready() {
		return nil
	}
	_, err, _ := i.group.Do("warm", func() (interface{}, error) {
		if i.Ready() {
			return nil, nil
		}
		return nil, i.rebuild(ctx)
	})
	return err
}

// Invalidate forces the next Warm to rebuild.
func (i *Index) Invalidate() {
	i.ready.Store(false)
}

func (i *Index) rebuild(ctx context.Context) error {
	table := curatedAliases
	if i.aliasFile != "" {
		extra, err := loadAliasFile(i.aliasFile)
		if err != nil {
			i.logger.Warn("alias file ignored", zap.String("path", i.aliasFile), zap.Error(err))
		} else {
			table = mergeTables(curatedAliases, extra)
		}
	}
	var declared []string
	if i.source != nil {
		companies, err := i.source.ListCompanies(ctx)
		if err != nil {
			return fmt.Errorf("failed to list mentor companies: %w", err)
		}
		declared = companies
	}
	snap := buildSnapshot(table, declared, i.now())
	i.snap.Store(snap)
	i.ready.Store(true)
	i.logger.Debug("company index rebuilt",
		zap.Int("aliases", len(snap.lookup)),
		zap.Int("canonical", len(snap.canonical)))
	return nil
}

// Lookup returns the canonical key for an already-normalized token or bigram.
func (i *Index) Lookup(normalized string) (string, bool) {
	key, ok := i.snap.Load().lookup[normalized]
	return key, ok
}

// Canonical normalizes a free-text company name and resolves it. Unknown names
// resolve to their normalized form with ok=false.
func (i *Index) Canonical(name string) (string, bool) {
	n := Normalize(name)
	if key, ok := i.Lookup(n); ok {
		return key, true
	}
	return n, false
}

// Size returns the number of entries in the flat lookup.
func (i *Index) Size() int {
	return len(i.snap.Load().lookup)
}

func buildSnapshot(table map[string][]string, declared []string, builtAt time.Time) *snapshot {
	s := &snapshot{
		lookup:    make(map[string]string, len(table)*4),
		canonical: make(map[string]struct{}, len(table)),
		builtAt:   builtAt,
	}
	for key, aliases := range table {
		canon := Normalize(key)
		if canon == "" {
			continue
		}
		s.canonical[canon] = struct{}{}
		s.lookup[canon] = canon
		if compact := strings.ReplaceAll(canon, " ", ""); compact != canon {
			s.lookup[compact] = canon
		}
		for _, alias := range aliases {
			if a := Normalize(alias); a != "" {
				s.lookup[a] = canon
			}
		}
	}
	for _, name := range declared {
		n := Normalize(name)
		if n == "" {
			continue
		}
		if _, ok := s.lookup[n]; ok {
			continue
		}
		s.canonical[n] = struct{}{}
		s.lookup[n] = n
		if compact := strings.ReplaceAll(n, " ", ""); compact != n {
			if _, ok := s.lookup[compact]; !ok {
				s.lookup[compact] = n
			}
		}
	}
	return s
}

func mergeTables(base, extra map[string][]string) map[string][]string {
	out := make(map[string][]string, len(base)+len(extra))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range extra {
		key := Normalize(k)
		out[key] = append(append([]string(nil), out[key]...), v...)
	}
	return out
}

func loadAliasFile(path string) (map[string][]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read alias file: %w", err)
	}
	var table map[string][]string
	if err := yaml.Unmarshal(data, &table); err != nil {
		return nil, fmt.Errorf("failed to parse alias file: %w", err)
	}
	return table, nil
}

// Normalize maps a company name or alias to its lookup form. It matches the
// tokenization applied to question text, so every key is reachable from text.
func Normalize(s string) string {
	return utils.NormalizeText(s)
}
