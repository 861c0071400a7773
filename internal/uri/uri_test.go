package uri

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCanonicalize_AbsoluteWeb(t *testing.T) {
	t.Parallel()

	got, skip, err := Canonicalize("https://example.com/a?b=1#frag", nil)
	require.NoError(t, err)
	require.Empty(t, skip)
	require.Equal(t, KindWeb, got.Kind)
	require.Equal(t, "example.com", got.Host)
	require.Equal(t, "/a", got.Path)
	require.Equal(t, "b=1", got.Query)
	require.Equal(t, "frag", got.Fragment)
}

func TestCanonicalize_RelativeWithoutBase(t *testing.T) {
	t.Parallel()

	_, skip, err := Canonicalize("./missing", nil)
	require.NoError(t, err)
	require.Equal(t, SkipRelativeWithoutBase, skip)
}

func TestCanonicalize_RelativeWithBase(t *testing.T) {
	t.Parallel()

	base, err := url.Parse("https://example.com/docs/")
	require.NoError(t, err)

	got, skip, err := Canonicalize("../readme.md", base)
	require.NoError(t, err)
	require.Empty(t, skip)
	require.Equal(t, KindWeb, got.Kind)
	require.Equal(t, "/readme.md", got.Path)
}

func TestCanonicalize_FragmentOnly(t *testing.T) {
	t.Parallel()

	_, skip, err := Canonicalize("#section", nil)
	require.NoError(t, err)
	require.Equal(t, SkipFragmentOnly, skip)

	base, _ := url.Parse("https://example.com/")
	_, skip, err = Canonicalize("#top", base)
	require.NoError(t, err)
	require.Equal(t, SkipFragmentOnly, skip)
}

func TestCanonicalize_Mail(t *testing.T) {
	t.Parallel()

	got, skip, err := Canonicalize("mailto:jane@example.com?subject=hi", nil)
	require.NoError(t, err)
	require.Empty(t, skip)
	require.Equal(t, KindMail, got.Kind)
	require.Equal(t, "jane", got.MailLocal)
	require.Equal(t, "example.com", got.MailDomain)

	got, skip, err = Canonicalize("jane@example.com", nil)
	require.NoError(t, err)
	require.Empty(t, skip)
	require.Equal(t, KindMail, got.Kind)
}

func TestCanonicalize_FileRef(t *testing.T) {
	t.Parallel()

	got, skip, err := Canonicalize("/etc/hosts", nil)
	require.NoError(t, err)
	require.Empty(t, skip)
	require.Equal(t, KindFileRef, got.Kind)
	require.Equal(t, "/etc/hosts", got.AbsPath)

	got, skip, err = Canonicalize("file:///tmp/readme.md", nil)
	require.NoError(t, err)
	require.Empty(t, skip)
	require.Equal(t, KindFileRef, got.Kind)
	require.Equal(t, "/tmp/readme.md", got.AbsPath)
}

func TestNormalize_DropsDefaultPortAndFragment(t *testing.T) {
	t.Parallel()

	got, err := Normalize("HTTPS://Example.COM:443/a?z=1&a=2#frag")
	require.NoError(t, err)
	require.Equal(t, "https://example.com/a?a=2&z=1", got)
}
