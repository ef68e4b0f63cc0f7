package bump

import (
	"context"

	"go.uber.org/zap"

	"github.com/codebeltnet/bump-nuget/internal/catalog"
	"github.com/codebeltnet/bump-nuget/internal/manifest"
)

// Resolver finds the newest published version of a package id.
type Resolver interface {
	LatestStable(ctx context.Context, id string) (string, bool)
}

// Policy decides each package pin: packages of the triggering source get the
// trigger version, other family packages get the latest NuGet version when
// RefreshFamily is set, everything else is skipped.
type Policy struct {
	Registry      *catalog.Registry
	Source        string
	Target        string
	RefreshFamily bool
	Resolver      Resolver
	Logger        *zap.Logger
}

func (p Policy) Decide(ctx context.Context, name, current string) manifest.Decision {
	logger := p.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	if p.Registry.IsTriggered(name, p.Source) {
		logger.Debug("triggered package", zap.String("package", name), zap.String("current", current), zap.String("target", p.Target))
		return manifest.Decision{To: p.Target, Origin: manifest.OriginTrigger}
	}

	if p.RefreshFamily && p.Registry.IsFamily(name) {
		if p.Resolver == nil {
			return manifest.Decision{Origin: manifest.OriginUnresolved}
		}
		latest, ok := p.Resolver.LatestStable(ctx, name)
		if !ok {
			return manifest.Decision{Origin: manifest.OriginUnresolved}
		}
		owner, _ := p.Registry.Owner(name)
		logger.Debug("family package", zap.String("package", name), zap.String("owner", owner), zap.String("current", current), zap.String("latest", latest))
		return manifest.Decision{To: latest, Origin: manifest.OriginRegistry}
	}

	if p.Registry.IsFamily(name) {
		return manifest.Decision{Origin: manifest.OriginNotTriggered}
	}
	return manifest.Decision{Origin: manifest.OriginThirdParty}
}
