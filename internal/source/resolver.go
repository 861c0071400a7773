package source

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

// expandHome resolves a leading "~" the same way a POSIX shell would. Kept
// as a small stdlib helper (os.UserHomeDir) rather than pulling in a
// dedicated library: none of the example repos import one for this, and
// tilde expansion is one line once UserHomeDir is available.
func expandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	if path == "~" {
		return home, nil
	}
	return filepath.Join(home, path[2:]), nil
}

// ErrSkippedInput is returned by Resolve when a missing local path should be
// treated as a soft skip rather than a fatal error (skip_missing_inputs).
type ErrSkippedInput struct {
	Token  string
	Reason string
}

func (e *ErrSkippedInput) Error() string {
	return fmt.Sprintf("skipped input %q: %s", e.Token, e.Reason)
}

// Options configures Resolve's behavior; these fields mirror the relevant
// CheckerConfig options (spec §3), kept free-standing here so this package
// has no dependency on the config package.
type Options struct {
	GlobIgnoreCase bool
	SkipMissing    bool
	BaseURL        *url.URL
	StdinReader    io.Reader
	HTTPClient     *http.Client
}

// Resolve turns a single CLI input token into one or more Sources. A glob
// expands to many Sources; everything else resolves to exactly one.
func Resolve(ctx context.Context, token string, opts Options) ([]Source, error) {
	switch {
	case token == "-":
		return resolveStdin(opts)
	case isAbsoluteURL(token):
		src, err := resolveRemote(ctx, token, opts)
		if err != nil {
			return nil, err
		}
		return []Source{src}, nil
	case containsGlobMeta(token):
		return resolveGlob(token, opts)
	default:
		src, err := resolveLocalFile(token, opts)
		if err != nil {
			if skipErr, ok := err.(*ErrSkippedInput); ok {
				_ = skipErr
				return nil, err
			}
			return nil, err
		}
		return []Source{src}, nil
	}
}

func resolveStdin(opts Options) ([]Source, error) {
	reader := opts.StdinReader
	if reader == nil {
		reader = os.Stdin
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("read stdin: %w", err)
	}
	return []Source{{
		Origin: OriginStdin,
		Token:  "-",
		Bytes:  data,
		Kind:   KindPlaintext,
		Base:   opts.BaseURL,
	}}, nil
}

func resolveRemote(ctx context.Context, token string, opts Options) (Source, error) {
	client := opts.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, token, nil)
	if err != nil {
		return Source{}, fmt.Errorf("build request for %s: %w", token, err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return Source{}, fmt.Errorf("fetch %s: %w", token, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Source{}, fmt.Errorf("read body of %s: %w", token, err)
	}

	base, err := url.Parse(token)
	if err != nil {
		return Source{}, fmt.Errorf("parse fetched url %s: %w", token, err)
	}
	if resp.Request != nil && resp.Request.URL != nil {
		base = resp.Request.URL
	}

	return Source{
		Origin: OriginRemoteFetched,
		Token:  token,
		Bytes:  body,
		Kind:   InferKindFromContentType(resp.Header.Get("Content-Type")),
		Base:   base,
	}, nil
}

func resolveLocalFile(token string, opts Options) (Source, error) {
	expanded, err := expandHome(token)
	if err != nil {
		expanded = token
	}
	data, err := os.ReadFile(expanded)
	if err != nil {
		if os.IsNotExist(err) && opts.SkipMissing {
			return Source{}, &ErrSkippedInput{Token: token, Reason: "missing local input"}
		}
		if os.IsNotExist(err) {
			return Source{}, fmt.Errorf("input %s does not exist: %w", token, err)
		}
		return Source{}, fmt.Errorf("read %s: %w", token, err)
	}
	base := opts.BaseURL
	return Source{
		Origin: OriginLocalFile,
		Token:  token,
		Bytes:  data,
		Kind:   InferKindFromPath(expanded),
		Base:   base,
	}, nil
}

func resolveGlob(pattern string, opts Options) ([]Source, error) {
	expanded, err := expandHome(pattern)
	if err != nil {
		expanded = pattern
	}
	if opts.GlobIgnoreCase {
		expanded = caseInsensitiveGlob(expanded)
	}
	matches, err := filepath.Glob(expanded)
	if err != nil {
		return nil, fmt.Errorf("expand glob %s: %w", pattern, err)
	}
	sources := make([]Source, 0, len(matches))
	for _, m := range matches {
		src, err := resolveLocalFile(m, opts)
		if err != nil {
			if _, ok := err.(*ErrSkippedInput); ok {
				continue
			}
			return nil, err
		}
		sources = append(sources, src)
	}
	return sources, nil
}

// caseInsensitiveGlob rewrites each alphabetic rune in a glob pattern into a
// bracket alternation, e.g. "a" -> "[aA]", so filepath.Glob matches
// case-insensitively on case-sensitive filesystems.
func caseInsensitiveGlob(pattern string) string {
	var b strings.Builder
	inClass := false
	for _, r := range pattern {
		switch {
		case r == '[':
			inClass = true
			b.WriteRune(r)
		case r == ']':
			inClass = false
			b.WriteRune(r)
		case inClass:
			b.WriteRune(r)
		case (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z'):
			lower := strings.ToLower(string(r))
			upper := strings.ToUpper(string(r))
			fmt.Fprintf(&b, "[%s%s]", lower, upper)
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

func isAbsoluteURL(token string) bool {
	u, err := url.Parse(token)
	if err != nil {
		return false
	}
	return u.IsAbs() && (u.Scheme == "http" || u.Scheme == "https")
}

func containsGlobMeta(token string) bool {
	return strings.ContainsAny(token, "*?[")
}
