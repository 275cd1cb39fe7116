package fetcher

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/devbrain-io/devbrain/internal/config"
)

func TestMatchPath(t *testing.T) {
	tests := []struct {
		name    string
		path    string
		include []string
		exclude []string
		want    bool
	}{
		{name: "no patterns includes all", path: "a/b.go", want: true},
		{name: "include glob matches", path: "internal/app/main.go", include: []string{"**/*.go"}, want: true},
		{name: "include glob misses", path: "web/app.tsx", include: []string{"**/*.go"}, want: false},
		{name: "exclude wins", path: "vendor/lib/a.go", include: []string{"**/*.go"}, exclude: []string{"vendor/**"}, want: false},
		{name: "exclude without include", path: "node_modules/x/y.js", exclude: []string{"node_modules/**"}, want: false},
		{name: "doublestar crosses directories", path: "a/b/c/d.md", include: []string{"a/**/*.md"}, want: true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, matchPath(tc.path, tc.include, tc.exclude))
		})
	}
}

func TestIsBinaryPath(t *testing.T) {
	require.True(t, isBinaryPath("assets/logo.PNG"))
	require.True(t, isBinaryPath("build/app.wasm"))
	require.False(t, isBinaryPath("cmd/main.go"))
	require.False(t, isBinaryPath("README.md"))
}

func TestIsTextContent(t *testing.T) {
	require.True(t, isTextContent([]byte("package main\n")))
	require.False(t, isTextContent(nil))
	require.False(t, isTextContent([]byte{0x00, 0x01, 0x02}))
	require.False(t, isTextContent([]byte{0xff, 0xfe, 0x41}))
}

func TestRegistryRejectsUnknownType(t *testing.T) {
	_, err := New(config.SourceConfig{Type: "ftp", Name: "x"})
	require.Error(t, err)

	_, err = New(config.SourceConfig{Name: "x"})
	require.Error(t, err)
}

func TestLocalFetcherFileURL(t *testing.T) {
	f, err := createLocalFetcher("workspace", map[string]interface{}{"dir": "/tmp/data"})
	require.NoError(t, err)
	require.Equal(t, "file:///tmp/data/docs/readme.md", f.FileURL("docs/readme.md"))
	require.Equal(t, "local", f.SourceType())
	require.Equal(t, "workspace", f.Name())
}
