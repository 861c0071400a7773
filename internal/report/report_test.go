package report

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kimchi-link/kimchi/internal/checker"
	"github.com/kimchi-link/kimchi/internal/uri"
)

func response(kind checker.StatusKind) checker.Response {
	return checker.Response{
		Uri:    uri.Uri{Kind: uri.KindWeb, Scheme: "https", Host: "example.com"},
		Status: checker.Status{Kind: kind},
	}
}

func TestAggregate_CountsEachKind(t *testing.T) {
	t.Parallel()

	responses := []checker.Response{
		response(checker.StatusOk),
		response(checker.StatusOk),
		response(checker.StatusFailed),
		response(checker.StatusExcluded),
		response(checker.StatusRedirected),
		response(checker.StatusTimeout),
	}

	got := Aggregate(responses)
	require.Equal(t, 6, got.Total)
	require.Equal(t, 2, got.Ok)
	require.Equal(t, 1, got.Failed)
	require.Equal(t, 1, got.Excluded)
	require.Equal(t, 1, got.Redirected)
	require.Equal(t, 1, got.Timeouts)
	require.Len(t, got.PerLink, 6)
}

func TestExitCode_SuccessWhenNoFailuresOrTimeouts(t *testing.T) {
	t.Parallel()

	got := Aggregate([]checker.Response{
		response(checker.StatusOk),
		response(checker.StatusExcluded),
		response(checker.StatusRedirected),
	})
	require.Equal(t, 0, got.ExitCode())
	require.True(t, got.Success())
}

func TestExitCode_FailureOnAnyNonExcludedFailure(t *testing.T) {
	t.Parallel()

	got := Aggregate([]checker.Response{
		response(checker.StatusOk),
		response(checker.StatusFailed),
	})
	require.Equal(t, 2, got.ExitCode())
	require.False(t, got.Success())
}

func TestExitCode_TimeoutCountsAsFailure(t *testing.T) {
	t.Parallel()

	got := Aggregate([]checker.Response{response(checker.StatusTimeout)})
	require.Equal(t, 2, got.ExitCode())
}

func TestRunReport_MarshalsURIsAsStrings(t *testing.T) {
	t.Parallel()

	got := Aggregate([]checker.Response{response(checker.StatusOk)})
	data, err := json.Marshal(got)
	require.NoError(t, err)
	require.Contains(t, string(data), `"https://example.com"`)
}
