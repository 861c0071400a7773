package cmd

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCheckCommand_MarkdownFileAllLinksOk(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	dir := t.TempDir()
	mdPath := filepath.Join(dir, "doc.md")
	content := "[ok](" + srv.URL + ")\n"
	require.NoError(t, os.WriteFile(mdPath, []byte(content), 0o600))

	cmd := newRootCmd()
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"check", "--config", "", mdPath})

	err := cmd.Execute()
	require.NoError(t, err)
	require.Contains(t, buf.String(), "OK:         1")
}

func TestCheckCommand_FailedLinkReturnsExitError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	dir := t.TempDir()
	mdPath := filepath.Join(dir, "doc.md")
	content := "[missing](" + srv.URL + "/gone)\n"
	require.NoError(t, os.WriteFile(mdPath, []byte(content), 0o600))

	cmd := newRootCmd()
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"check", "--config", "", mdPath})

	err := cmd.Execute()
	require.Error(t, err)
	require.Equal(t, 2, exitCodeFor(err))
}

func TestCheckCommand_ExcludeFlagExcludesLink(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	dir := t.TempDir()
	mdPath := filepath.Join(dir, "doc.md")
	content := "[excluded](" + srv.URL + "/gone)\n"
	require.NoError(t, os.WriteFile(mdPath, []byte(content), 0o600))

	cmd := newRootCmd()
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"check", "--config", "", "--exclude", ".*", mdPath})

	err := cmd.Execute()
	require.NoError(t, err)
	require.Contains(t, buf.String(), "Excluded:   1")
}
