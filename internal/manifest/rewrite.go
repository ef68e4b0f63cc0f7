// Package manifest rewrites PackageVersion pins in a central package
// management file (Directory.Packages.props) without disturbing any other
// byte of the document.
package manifest

import (
	"context"
	"regexp"
	"strings"
)

var (
	// [^>] also matches newlines, so elements may span lines.
	elementPattern = regexp.MustCompile(`<PackageVersion\b[^>]*>`)
	includePattern = regexp.MustCompile(`\bInclude="([^"]+)"`)
	versionPattern = regexp.MustCompile(`\bVersion="([^"]+)"`)
)

// Origin says where a decided version came from.
type Origin string

const (
	OriginTrigger      Origin = "trigger"
	OriginRegistry     Origin = "registry"
	OriginThirdParty   Origin = "third-party"
	OriginUnresolved   Origin = "unresolved"
	// OriginNotTriggered is a family package of another source when only
	// triggered packages are bumped.
	OriginNotTriggered Origin = "not-triggered"
)

// Skips reports whether decisions of this origin are logged as skipped.
func (o Origin) Skips() bool {
	return o == OriginThirdParty || o == OriginNotTriggered
}

// Decision is the outcome for one PackageVersion element. From == To means the
// element is left byte-identical.
type Decision struct {
	Name   string
	From   string
	To     string
	Origin Origin
}

func (d Decision) Changed() bool {
	return d.To != "" && d.To != d.From
}

// Decider chooses the version for one package pin.
type Decider interface {
	Decide(ctx context.Context, name, current string) Decision
}

type DeciderFunc func(ctx context.Context, name, current string) Decision

func (f DeciderFunc) Decide(ctx context.Context, name, current string) Decision {
	return f(ctx, name, current)
}

// Result is the rewritten document plus every decision, partitioned in
// document order.
type Result struct {
	Text      string
	Changes   []Decision
	Skipped   []Decision
	Unchanged []Decision
}

// Count is the number of PackageVersion elements that carried both
// attributes.
func (r Result) Count() int {
	return len(r.Changes) + len(r.Skipped) + len(r.Unchanged)
}

func (r Result) Modified() bool {
	return len(r.Changes) > 0
}

// Rewrite visits every PackageVersion element once, in document order, and
// replaces only the Version attribute value of elements whose decision
// changed. Text between elements is copied unchanged. The context is handed
// to the decider; Rewrite stops early only if it is already cancelled.
func Rewrite(ctx context.Context, text string, decider Decider) (Result, error) {
	var (
		out    strings.Builder
		result Result
		last   int
	)
	out.Grow(len(text))

	for _, loc := range elementPattern.FindAllStringIndex(text, -1) {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}
		element := text[loc[0]:loc[1]]
		out.WriteString(text[last:loc[0]])
		last = loc[1]

		name, current, span, ok := attributes(element)
		if !ok {
			out.WriteString(element)
			continue
		}

		decision := decider.Decide(ctx, name, current)
		decision.Name = name
		decision.From = current

		switch {
		case decision.Changed():
			out.WriteString(element[:span[0]] + decision.To + element[span[1]:])
			result.Changes = append(result.Changes, decision)
		case decision.Origin.Skips():
			decision.To = current
			out.WriteString(element)
			result.Skipped = append(result.Skipped, decision)
		default:
			decision.To = current
			out.WriteString(element)
			result.Unchanged = append(result.Unchanged, decision)
		}
	}
	out.WriteString(text[last:])

	result.Text = out.String()
	return result, nil
}

// attributes extracts the Include and Version values of element and the byte
// span of the Version value within it.
func attributes(element string) (name, version string, span [2]int, ok bool) {
	include := includePattern.FindStringSubmatch(element)
	if include == nil {
		return "", "", span, false
	}
	loc := versionPattern.FindStringSubmatchIndex(element)
	if loc == nil {
		return "", "", span, false
	}
	span = [2]int{loc[2], loc[3]}
	return include[1], element[loc[2]:loc[3]], span, true
}
