package manifest

import (
	"context"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const sampleManifest = `<Project>
  <PropertyGroup>
    <ManagePackageVersionsCentrally>true</ManagePackageVersionsCentrally>
  </PropertyGroup>
  <!-- <PackageVersion Include="Commented.Out" Version="0.0.1" /> is still a match, as in the CI script -->
  <ItemGroup>
    <PackageVersion Include="Cuemon.Core" Version="10.2.1" />
    <PackageVersion Version="10.2.1" Include="Cuemon.Extensions.IO" />
    <PackageVersion
        Include="Codebelt.Extensions.Xunit"
        Version="10.0.0"></PackageVersion>
    <PackageVersion Include="Microsoft.Extensions.Hosting" Version="9.0.13" />
    <PackageVersion Include="BenchmarkDotNet"	Version="0.15.8"/>
    <PackageVersion Include="NoVersion.Here" />
    <PackageReference Include="Cuemon.Core" Version="1.0.0" />
  </ItemGroup>
</Project>
`

// fixedDecider sets trigger-owned ids to target and treats the rest as third party.
func fixedDecider(prefix, target string) Decider {
	return DeciderFunc(func(_ context.Context, name, current string) Decision {
		if strings.HasPrefix(name, prefix) {
			return Decision{To: target, Origin: OriginTrigger}
		}
		return Decision{Origin: OriginThirdParty}
	})
}

func TestRewrite_TriggerScenario(t *testing.T) {
	in := `<PackageVersion Include="Cuemon.Core" Version="10.2.1" />
<PackageVersion Include="Microsoft.Extensions.Hosting" Version="9.0.13" />`

	res, err := Rewrite(context.Background(), in, fixedDecider("Cuemon.", "10.3.0"))
	require.NoError(t, err)

	want := `<PackageVersion Include="Cuemon.Core" Version="10.3.0" />
<PackageVersion Include="Microsoft.Extensions.Hosting" Version="9.0.13" />`
	assert.Equal(t, want, res.Text)
	assert.Equal(t, []Decision{{Name: "Cuemon.Core", From: "10.2.1", To: "10.3.0", Origin: OriginTrigger}}, res.Changes)
	assert.Equal(t, []Decision{{Name: "Microsoft.Extensions.Hosting", From: "9.0.13", To: "9.0.13", Origin: OriginThirdParty}}, res.Skipped)
	assert.Empty(t, res.Unchanged)
	assert.True(t, res.Modified())
}

func TestRewrite_PreservesEverythingElse(t *testing.T) {
	res, err := Rewrite(context.Background(), sampleManifest, fixedDecider("Cuemon.", "10.3.0"))
	require.NoError(t, err)

	want := strings.NewReplacer(
		`Include="Cuemon.Core" Version="10.2.1"`, `Include="Cuemon.Core" Version="10.3.0"`,
		`Version="10.2.1" Include="Cuemon.Extensions.IO"`, `Version="10.3.0" Include="Cuemon.Extensions.IO"`,
	).Replace(sampleManifest)
	if diff := cmp.Diff(want, res.Text); diff != "" {
		t.Fatalf("rewritten manifest mismatch (-want +got):\n%s", diff)
	}

	wantChanges := []Decision{
		{Name: "Cuemon.Core", From: "10.2.1", To: "10.3.0", Origin: OriginTrigger},
		{Name: "Cuemon.Extensions.IO", From: "10.2.1", To: "10.3.0", Origin: OriginTrigger},
	}
	if diff := cmp.Diff(wantChanges, res.Changes); diff != "" {
		t.Fatalf("changes mismatch (-want +got):\n%s", diff)
	}

	var skipped []string
	for _, d := range res.Skipped {
		skipped = append(skipped, d.Name)
	}
	assert.Equal(t, []string{"Commented.Out", "Codebelt.Extensions.Xunit", "Microsoft.Extensions.Hosting", "BenchmarkDotNet"}, skipped)
	assert.Equal(t, 6, res.Count(), "elements without a Version attribute are not counted")
}

func TestRewrite_MultilineElement(t *testing.T) {
	in := "<PackageVersion\n    Include=\"Codebelt.Extensions.Xunit\"\n    Version=\"10.0.0\" />"

	res, err := Rewrite(context.Background(), in, fixedDecider("Codebelt.Extensions.Xunit", "11.0.1"))
	require.NoError(t, err)

	assert.Equal(t, "<PackageVersion\n    Include=\"Codebelt.Extensions.Xunit\"\n    Version=\"11.0.1\" />", res.Text)
}

func TestRewrite_OnlyVersionAttributeIsTouched(t *testing.T) {
	in := `<PackageVersion MinVersion="1.0.0" Include="Cuemon.Core" Version="1.0.0" Condition="'$(Version)' == '1.0.0'" />`

	res, err := Rewrite(context.Background(), in, fixedDecider("Cuemon.", "2.0.0"))
	require.NoError(t, err)

	assert.Equal(t, `<PackageVersion MinVersion="1.0.0" Include="Cuemon.Core" Version="2.0.0" Condition="'$(Version)' == '1.0.0'" />`, res.Text)
}

func TestRewrite_Idempotent(t *testing.T) {
	decider := fixedDecider("Cuemon.", "10.3.0")

	first, err := Rewrite(context.Background(), sampleManifest, decider)
	require.NoError(t, err)
	second, err := Rewrite(context.Background(), first.Text, decider)
	require.NoError(t, err)

	assert.Equal(t, first.Text, second.Text)
	assert.Empty(t, second.Changes)
	assert.Len(t, second.Unchanged, 2)
	assert.Equal(t, first.Count(), second.Count())
}

func TestRewrite_DuplicatesAreIndependent(t *testing.T) {
	in := `<PackageVersion Include="Cuemon.Core" Version="1.0.0" />
<PackageVersion Include="Cuemon.Core" Version="2.0.0" />
<PackageVersion Include="Cuemon.Core" Version="3.0.0" />`

	var seen []string
	decider := DeciderFunc(func(_ context.Context, name, current string) Decision {
		seen = append(seen, current)
		return Decision{To: "2.0.0", Origin: OriginTrigger}
	})

	res, err := Rewrite(context.Background(), in, decider)
	require.NoError(t, err)

	assert.Equal(t, []string{"1.0.0", "2.0.0", "3.0.0"}, seen)
	assert.Len(t, res.Changes, 2)
	assert.Len(t, res.Unchanged, 1)
	assert.Equal(t, strings.Count(res.Text, `Version="2.0.0"`), 3)
}

func TestRewrite_UnresolvedIsNoOp(t *testing.T) {
	in := `<PackageVersion Include="Savvyio.Core" Version="4.0.0" />`
	decider := DeciderFunc(func(context.Context, string, string) Decision {
		return Decision{Origin: OriginUnresolved}
	})

	res, err := Rewrite(context.Background(), in, decider)
	require.NoError(t, err)

	assert.Equal(t, in, res.Text)
	assert.Equal(t, []Decision{{Name: "Savvyio.Core", From: "4.0.0", To: "4.0.0", Origin: OriginUnresolved}}, res.Unchanged)
	assert.False(t, res.Modified())
}

func TestRewrite_NoElements(t *testing.T) {
	in := "<Project>\n  <ItemGroup />\n</Project>\n"
	res, err := Rewrite(context.Background(), in, fixedDecider("Cuemon.", "1.0.0"))
	require.NoError(t, err)
	assert.Equal(t, in, res.Text)
	assert.Zero(t, res.Count())
}

func TestRewrite_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Rewrite(ctx, sampleManifest, fixedDecider("Cuemon.", "1.0.0"))
	require.ErrorIs(t, err, context.Canceled)
}

func TestDecisionChanged(t *testing.T) {
	assert.True(t, Decision{From: "1.0.0", To: "1.1.0"}.Changed())
	assert.False(t, Decision{From: "1.0.0", To: "1.0.0"}.Changed())
	assert.False(t, Decision{From: "1.0.0"}.Changed(), "an empty target never rewrites")
}

func TestRewrite_NotTriggeredIsSkipped(t *testing.T) {
	in := `<PackageVersion Include="Cuemon.Core" Version="10.2.1" />`
	res, err := Rewrite(context.Background(), in, DeciderFunc(func(context.Context, string, string) Decision {
		return Decision{Origin: OriginNotTriggered}
	}))
	require.NoError(t, err)

	assert.Equal(t, in, res.Text)
	assert.Equal(t, []Decision{{Name: "Cuemon.Core", From: "10.2.1", To: "10.2.1", Origin: OriginNotTriggered}}, res.Skipped)
	assert.Empty(t, res.Unchanged)
}

func TestOrigin_Skips(t *testing.T) {
	assert.True(t, OriginThirdParty.Skips())
	assert.True(t, OriginNotTriggered.Skips())
	assert.False(t, OriginUnresolved.Skips())
	assert.False(t, OriginTrigger.Skips())
	assert.False(t, OriginRegistry.Skips())
}
