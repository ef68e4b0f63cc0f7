// Package catalog maps source repositories to the NuGet package id prefixes
// they publish, and classifies package ids against that map.
package catalog

import (
	"slices"
	"sort"
	"strings"
)

// Registry is an immutable source -> prefixes table. Prefix order is kept as
// loaded. The zero value is an empty registry.
type Registry struct {
	sources map[string][]string
}

func New(sources map[string][]string) *Registry {
	copied := make(map[string][]string, len(sources))
	for source, prefixes := range sources {
		copied[source] = slices.Clone(prefixes)
	}
	return &Registry{sources: copied}
}

// Prefixes returns a copy of the prefixes registered for source, or nil when
// the source is unknown.
func (r *Registry) Prefixes(source string) []string {
	prefixes, ok := r.sources[source]
	if !ok {
		return nil
	}
	return slices.Clone(prefixes)
}

func (r *Registry) Sources() []string {
	out := make([]string, 0, len(r.sources))
	for source := range r.sources {
		out = append(out, source)
	}
	sort.Strings(out)
	return out
}

func (r *Registry) Len() int {
	return len(r.sources)
}

// IsTriggered reports whether name is published by source.
func (r *Registry) IsTriggered(name, source string) bool {
	if source == "" {
		return false
	}
	return matchesAny(name, r.sources[source])
}

// IsFamily reports whether name is published by any registered source.
func (r *Registry) IsFamily(name string) bool {
	for _, prefixes := range r.sources {
		if matchesAny(name, prefixes) {
			return true
		}
	}
	return false
}

// Owner returns the first source, in sorted order, whose prefixes match name.
func (r *Registry) Owner(name string) (string, bool) {
	for _, source := range r.Sources() {
		if matchesAny(name, r.sources[source]) {
			return source, true
		}
	}
	return "", false
}

// An empty prefix would match every id, so it never matches.
func matchesAny(name string, prefixes []string) bool {
	for _, prefix := range prefixes {
		if prefix == "" {
			continue
		}
		if strings.HasPrefix(name, prefix) {
			return true
		}
	}
	return false
}
