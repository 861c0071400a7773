package source

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResolve_Stdin(t *testing.T) {
	t.Parallel()

	srcs, err := Resolve(context.Background(), "-", Options{
		StdinReader: strings.NewReader("hello https://example.com"),
	})
	require.NoError(t, err)
	require.Len(t, srcs, 1)
	require.Equal(t, OriginStdin, srcs[0].Origin)
	require.Equal(t, KindPlaintext, srcs[0].Kind)
}

func TestResolve_LocalFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "readme.md")
	require.NoError(t, os.WriteFile(path, []byte("# hi"), 0o600))

	srcs, err := Resolve(context.Background(), path, Options{})
	require.NoError(t, err)
	require.Len(t, srcs, 1)
	require.Equal(t, KindMarkdown, srcs[0].Kind)
}

func TestResolve_MissingFileFatalByDefault(t *testing.T) {
	t.Parallel()

	_, err := Resolve(context.Background(), "/no/such/file.md", Options{})
	require.Error(t, err)
}

func TestResolve_MissingFileSkippedWhenConfigured(t *testing.T) {
	t.Parallel()

	_, err := Resolve(context.Background(), "/no/such/file.md", Options{SkipMissing: true})
	require.Error(t, err)
	var skipped *ErrSkippedInput
	require.ErrorAs(t, err, &skipped)
}

func TestResolve_Glob(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.md"), []byte("a"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.md"), []byte("b"), 0o600))

	srcs, err := Resolve(context.Background(), filepath.Join(dir, "*.md"), Options{})
	require.NoError(t, err)
	require.Len(t, srcs, 2)
}

func TestResolve_RemoteURL(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte("<html></html>"))
	}))
	defer srv.Close()

	srcs, err := Resolve(context.Background(), srv.URL, Options{HTTPClient: srv.Client()})
	require.NoError(t, err)
	require.Len(t, srcs, 1)
	require.Equal(t, OriginRemoteFetched, srcs[0].Origin)
	require.Equal(t, KindHTML, srcs[0].Kind)
}
