package nuget

import (
	"fmt"
	"strings"

	"github.com/hashicorp/go-version"
)

// Version is a parsed NuGet version: one to four numeric parts, an optional
// prerelease label after a hyphen and optional build metadata, which takes no
// part in ordering.
type Version struct {
	parsed *version.Version
	raw    string
}

func ParseVersion(raw string) (Version, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return Version{}, fmt.Errorf("parse version %q: empty", raw)
	}

	core, _, _ := strings.Cut(s, "+")
	numeric, label, hasLabel := strings.Cut(core, "-")
	if hasLabel && label == "" {
		return Version{}, fmt.Errorf("parse version %q: empty prerelease label", raw)
	}
	parts := strings.Split(numeric, ".")
	if len(parts) > 4 {
		return Version{}, fmt.Errorf("parse version %q: more than four numeric parts", raw)
	}
	for i, part := range parts {
		if part == "" || strings.Trim(part, "0123456789") != "" {
			return Version{}, fmt.Errorf("parse version %q: part %d is not numeric", raw, i+1)
		}
	}

	// NuGet compares prerelease labels case-insensitively.
	parsed, err := version.NewVersion(strings.ToLower(s))
	if err != nil {
		return Version{}, fmt.Errorf("parse version %q: %w", raw, err)
	}
	return Version{parsed: parsed, raw: s}, nil
}

// IsStable reports whether raw carries no prerelease suffix. Build metadata
// is not a prerelease.
func IsStable(raw string) bool {
	core, _, _ := strings.Cut(raw, "+")
	return !strings.Contains(core, "-")
}

func (v Version) Stable() bool {
	return v.parsed.Prerelease() == ""
}

// Prerelease is the lower-cased prerelease label, empty for releases.
func (v Version) Prerelease() string {
	return v.parsed.Prerelease()
}

func (v Version) String() string {
	return v.raw
}

// Compare orders a and b: numeric parts first, missing parts counting as
// zero, then a release sorts after any prerelease of the same numbers.
func Compare(a, b Version) int {
	return a.parsed.Compare(b.parsed)
}

// Latest picks the highest stable version from versions. Stable entries that
// do not parse still beat prereleases: the last of them is used. Only then
// does the highest prerelease win, and when nothing parses the last entry is
// returned as published.
func Latest(versions []string) (string, bool) {
	if len(versions) == 0 {
		return "", false
	}

	var (
		bestStable, bestAny *Version
		lastStableRaw       string
	)
	for _, raw := range versions {
		stable := IsStable(raw)
		v, err := ParseVersion(raw)
		if err != nil {
			if stable {
				lastStableRaw = strings.TrimSpace(raw)
			}
			continue
		}
		if bestAny == nil || Compare(v, *bestAny) > 0 {
			candidate := v
			bestAny = &candidate
		}
		if stable && (bestStable == nil || Compare(v, *bestStable) > 0) {
			candidate := v
			bestStable = &candidate
		}
	}

	switch {
	case bestStable != nil:
		return bestStable.String(), true
	case lastStableRaw != "":
		return lastStableRaw, true
	case bestAny != nil:
		return bestAny.String(), true
	}
	return versions[len(versions)-1], true
}
