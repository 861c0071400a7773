package policy

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kimchi-link/kimchi/internal/uri"
)

func mustURI(t *testing.T, raw string) uri.Uri {
	t.Helper()
	u, skip, err := uri.Canonicalize(raw, nil)
	require.NoError(t, err)
	require.Empty(t, skip)
	return u
}

func TestClassify_IncludeHasPrecedenceOverExclude(t *testing.T) {
	t.Parallel()

	cfg := Config{
		Include: []*regexp.Regexp{regexp.MustCompile(`example\.com`)},
		Exclude: []*regexp.Regexp{regexp.MustCompile(`example\.com`)},
	}
	decision := Classify(mustURI(t, "https://example.com/a"), cfg)
	require.True(t, decision.Checked)
}

func TestClassify_NotIncluded(t *testing.T) {
	t.Parallel()

	cfg := Config{Include: []*regexp.Regexp{regexp.MustCompile(`other\.com`)}}
	decision := Classify(mustURI(t, "https://example.com/a"), cfg)
	require.False(t, decision.Checked)
	require.Equal(t, ReasonNotIncluded, decision.Reason)
}

func TestClassify_WrongScheme(t *testing.T) {
	t.Parallel()

	cfg := Config{Scheme: "https"}
	decision := Classify(mustURI(t, "http://example.com/a"), cfg)
	require.Equal(t, ReasonWrongScheme, decision.Reason)
}

func TestClassify_MailDisabled(t *testing.T) {
	t.Parallel()

	decision := Classify(mustURI(t, "mailto:a@b.com"), Config{MailEnabled: false})
	require.Equal(t, ReasonMailDisabled, decision.Reason)
}

func TestClassify_ExcludeLoopback(t *testing.T) {
	t.Parallel()

	cfg := Config{ExcludeLoopback: true}
	decision := Classify(mustURI(t, "http://127.0.0.1/"), cfg)
	require.Equal(t, ReasonPrivateIP, decision.Reason)
}

func TestClassify_ExcludePrivateDoesNotCatchPublicIP(t *testing.T) {
	t.Parallel()

	cfg := Config{ExcludePrivate: true, ExcludeLinkLocal: true, ExcludeLoopback: true}
	decision := Classify(mustURI(t, "http://8.8.8.8/"), cfg)
	require.True(t, decision.Checked)
}

func TestClassify_Idempotent(t *testing.T) {
	t.Parallel()

	cfg := Config{ExcludePrivate: true}
	u := mustURI(t, "http://10.0.0.5/")
	first := Classify(u, cfg)
	second := Classify(u, cfg)
	require.Equal(t, first, second)
}
