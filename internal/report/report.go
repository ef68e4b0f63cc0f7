// Package report renders the human-readable outcome of a bump run.
package report

import (
	"bytes"
	"fmt"
	"io"

	"github.com/codebeltnet/bump-nuget/internal/manifest"
)

// MaxSkippedShown caps the skipped packages listed by name.
const MaxSkippedShown = 5

type Summary struct {
	Source        string
	Version       string
	RefreshFamily bool
	Changes       []manifest.Decision
	Skipped       []manifest.Decision
	DryRun        bool
	ManifestPath  string
}

// Write renders s to w in one write.
func Write(w io.Writer, s Summary) error {
	var b bytes.Buffer

	fmt.Fprintf(&b, "Trigger: %s @ %s\n", s.Source, s.Version)
	if s.RefreshFamily {
		fmt.Fprintf(&b, "Triggered packages set to %s; other family packages fetched from NuGet.\n", s.Version)
	} else {
		fmt.Fprintf(&b, "Triggered packages set to %s; other packages left unchanged.\n", s.Version)
	}
	b.WriteString("\n")

	if len(s.Changes) > 0 {
		fmt.Fprintf(&b, "Updated %d package(s):\n", len(s.Changes))
		for _, c := range s.Changes {
			b.WriteString(changeLine(c))
		}
	} else {
		b.WriteString("No family packages needed updating.\n")
	}

	if len(s.Skipped) > 0 {
		b.WriteString("\n")
		if s.RefreshFamily {
			fmt.Fprintf(&b, "Skipped %d third-party package(s):\n", len(s.Skipped))
		} else {
			fmt.Fprintf(&b, "Skipped %d package(s):\n", len(s.Skipped))
		}
		for i, d := range s.Skipped {
			if i == MaxSkippedShown {
				fmt.Fprintf(&b, "  ... and %d more\n", len(s.Skipped)-MaxSkippedShown)
				break
			}
			b.WriteString(skipLine(d, s.Source))
		}
	}

	if s.DryRun {
		fmt.Fprintf(&b, "\nDry run: %s not written.\n", s.ManifestPath)
	}

	_, err := w.Write(b.Bytes())
	return err
}

func changeLine(d manifest.Decision) string {
	if d.Origin == manifest.OriginRegistry {
		return fmt.Sprintf("  %s: %s → %s (latest from NuGet)\n", d.Name, d.From, d.To)
	}
	return fmt.Sprintf("  %s: %s → %s\n", d.Name, d.From, d.To)
}

func skipLine(d manifest.Decision, source string) string {
	if d.Origin == manifest.OriginNotTriggered {
		return fmt.Sprintf("  %s (skipped - not from %s)\n", d.Name, source)
	}
	return fmt.Sprintf("  %s (skipped - not a family package)\n", d.Name)
}
