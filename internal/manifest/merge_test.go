package manifest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMergeSpec_ScalarAndMaps(t *testing.T) {
	base := Spec{
		Dockerfile: "Dockerfile",
		Args:       map[string]string{"A": "1", "B": "2"},
		Images:     map[string]string{"runtime": "alpine:3.20"},
	}
	override := Spec{
		Dockerfile: "Dockerfile.alt",
		Args:       map[string]string{"B": "3", "C": "4"},
	}

	out := MergeSpec(base, override)

	assert.Equal(t, "Dockerfile.alt", out.Dockerfile)
	assert.Equal(t, map[string]string{"A": "1", "B": "3", "C": "4"}, out.Args)
	assert.Equal(t, map[string]string{"runtime": "alpine:3.20"}, out.Images)
}

func TestMergeSpec_EmptyOverrideKeepsBase(t *testing.T) {
	base := Spec{
		Dockerfile:  "Dockerfile",
		PostInstall: []string{"occ upgrade"},
		TLS:         &TLSConfig{Enabled: true, Mode: "self-signed"},
	}

	out := MergeSpec(base, Spec{})

	assert.Equal(t, "Dockerfile", out.Dockerfile)
	assert.Equal(t, []string{"occ upgrade"}, out.PostInstall)
	require.NotNil(t, out.TLS)
	assert.True(t, out.TLS.Enabled)
}

func TestMergeSpec_SourcesMergeFieldWise(t *testing.T) {
	base := Spec{Sources: map[string]Source{
		"core":  {URL: "https://example.com/core.git", Ref: "main"},
		"extra": {URL: "https://example.com/extra.git", Ref: "main"},
	}}
	override := Spec{Sources: map[string]Source{
		"core":   {Ref: "v2.0.0"},
		"plugin": {URL: "https://example.com/plugin.git", Ref: "main"},
	}}

	out := MergeSpec(base, override)

	assert.Equal(t, "https://example.com/core.git", out.Sources["core"].URL)
	assert.Equal(t, "v2.0.0", out.Sources["core"].Ref)
	assert.Equal(t, "main", out.Sources["extra"].Ref)
	assert.Equal(t, "https://example.com/plugin.git", out.Sources["plugin"].URL)
}

func TestMergeSpec_TLSOverridesWholesale(t *testing.T) {
	base := Spec{TLS: &TLSConfig{Enabled: true, Mode: "self-signed"}}
	override := Spec{TLS: &TLSConfig{Enabled: false}}

	out := MergeSpec(base, override)

	require.NotNil(t, out.TLS)
	assert.False(t, out.TLS.Enabled)
	assert.Empty(t, out.TLS.Mode, "TLS replaces as a unit, mode does not survive")

	// The override's TLS config is copied, not aliased.
	override.TLS.Mode = "mutated"
	assert.Empty(t, out.TLS.Mode)
}

func TestMergeSpec_PostInstallReplacesWholesale(t *testing.T) {
	base := Spec{PostInstall: []string{"step-one", "step-two"}}
	override := Spec{PostInstall: []string{"only-step"}}

	out := MergeSpec(base, override)
	assert.Equal(t, []string{"only-step"}, out.PostInstall)
}

func TestMergeDependencies(t *testing.T) {
	base := []Dependency{
		{Service: "base", Version: "1.0.0"},
		{Service: "proxy"},
	}
	override := []Dependency{
		{Service: "proxy", Version: "2.0.0", SinglePlatform: true},
		{Service: "db"},
	}

	out := mergeDependencies(base, override)

	require.Len(t, out, 3)
	assert.Equal(t, "base", out[0].Service)
	// Re-declared service is replaced in place.
	assert.Equal(t, "proxy", out[1].Service)
	assert.Equal(t, "2.0.0", out[1].Version)
	assert.True(t, out[1].SinglePlatform)
	// New entries append after the base order.
	assert.Equal(t, "db", out[2].Service)
}

func TestMergeDependencies_Empty(t *testing.T) {
	assert.Nil(t, mergeDependencies(nil, nil))
	assert.Equal(t, []Dependency{{Service: "base"}}, mergeDependencies(nil, []Dependency{{Service: "base"}}))
}

func TestMergeMaps_BothEmpty(t *testing.T) {
	assert.Nil(t, mergeMaps(nil, map[string]string{}))
}
