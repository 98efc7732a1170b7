package tools_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tonearm/internal/testsupport"
	"tonearm/internal/tools"
)

func TestChainReturnsFirstHit(t *testing.T) {
	first := tools.ResolverFunc(func(name string) (string, bool) {
		if name == "refalac" {
			return "/first/refalac", true
		}
		return "", false
	})
	second := tools.Overrides{"refalac": "/second/refalac", "fdkaac": "/second/fdkaac"}

	chain := tools.Chain{nil, first, second}

	got, ok := chain.Lookup("refalac")
	require.True(t, ok)
	assert.Equal(t, "/first/refalac", got)

	got, ok = chain.Lookup("FDKAAC")
	require.True(t, ok)
	assert.Equal(t, "/second/fdkaac", got)

	_, ok = chain.Lookup("opusenc")
	assert.False(t, ok)
}

func TestSearchDirsFindsExecutables(t *testing.T) {
	testsupport.RequirePOSIXShell(t)
	empty := t.TempDir()
	dir := t.TempDir()
	path := testsupport.WriteTool(t, dir, "wvunpack", "exit 0")

	got, ok := tools.SearchDirs{empty, dir}.Lookup("wvunpack")
	require.True(t, ok)
	assert.Equal(t, path, got)

	_, ok = tools.SearchDirs{empty}.Lookup("wvunpack")
	assert.False(t, ok)
}

func TestNewResolverPrefersRegistryThenConfig(t *testing.T) {
	testsupport.RequirePOSIXShell(t)
	registered := testsupport.WriteTool(t, t.TempDir(), "refalac", "exit 0")
	cfg := testsupport.NewConfig(t, testsupport.WithFakeTool("refalac", "exit 0"), testsupport.WithFakeTool("fdkaac", "exit 0"))
	searchDir := t.TempDir()
	searched := testsupport.WriteTool(t, searchDir, "opusenc", "exit 0")
	cfg.Tools.SearchDirs = []string{searchDir}

	reg := tools.NewRegistry()
	t.Cleanup(func() { _ = reg.Close() })
	require.NoError(t, reg.Register("refalac", registered, 0, ""))

	resolver := tools.NewResolver(cfg, reg)

	got, ok := resolver.Lookup("refalac")
	require.True(t, ok)
	assert.Equal(t, registered, got)

	got, ok = resolver.Lookup("fdkaac")
	require.True(t, ok)
	assert.Equal(t, cfg.Tools.Binaries["fdkaac"], got)

	got, ok = resolver.Lookup("opusenc")
	require.True(t, ok)
	assert.Equal(t, searched, got)
}

func TestRegisterKnownReportsMissing(t *testing.T) {
	testsupport.RequirePOSIXShell(t)
	dir := t.TempDir()
	testsupport.WriteTool(t, dir, "refalac", "exit 0")
	testsupport.WriteTool(t, dir, "fdkaac", "exit 0")

	reg := tools.NewRegistry()
	t.Cleanup(func() { _ = reg.Close() })

	missing, err := tools.RegisterKnown(context.Background(), reg, tools.SearchDirs{dir}, nil)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"wvunpack", "opusenc"}, missing)
	assert.True(t, reg.Check("refalac"))
	assert.True(t, reg.Check("fdkaac"))

	path, ok := reg.Lookup("fdkaac")
	require.True(t, ok)
	assert.Equal(t, filepath.Join(dir, "fdkaac"), path)
}

func TestRegisterKnownRecordsToolVersion(t *testing.T) {
	testsupport.RequirePOSIXShell(t)
	dir := t.TempDir()
	testsupport.WriteTool(t, dir, "fdkaac", `echo "fdkaac 1.0.6"; exit 1`)
	testsupport.WriteTool(t, dir, "opusenc", `echo "no version here"`)

	reg := tools.NewRegistry()
	t.Cleanup(func() { _ = reg.Close() })

	_, err := tools.RegisterKnown(context.Background(), reg, tools.SearchDirs{dir}, tools.QueryVersion, "fdkaac", "opusenc")
	require.NoError(t, err)

	version, tag := reg.Version("fdkaac")
	assert.Equal(t, tools.PackVersion(1, 0, 6), version)
	assert.Equal(t, "fdkaac 1.0.6", tag)
	assert.Equal(t, "1.0.6", tools.FormatVersion(version))

	version, _ = reg.Version("opusenc")
	assert.Zero(t, version)
	assert.Empty(t, tools.FormatVersion(version))
}

func TestParseVersion(t *testing.T) {
	version, tag := tools.ParseVersion([]byte("opusenc opus-tools 0.2 (using libopus 1.3.1)\nCopyright"))
	assert.Equal(t, tools.PackVersion(0, 2, 0), version)
	assert.Equal(t, "opusenc opus-tools 0.2 (using libopus 1.3.1)", tag)
	assert.Empty(t, tools.FormatVersion(tools.UnknownVersion))
}
