package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kimchi-link/kimchi/internal/checker"
	"github.com/kimchi-link/kimchi/internal/config"
	"github.com/kimchi-link/kimchi/internal/diagnostics"
	"github.com/kimchi-link/kimchi/internal/extract"
	uuidgen "github.com/kimchi-link/kimchi/internal/id/uuid"
	"github.com/kimchi-link/kimchi/internal/logging"
	"github.com/kimchi-link/kimchi/internal/metrics"
	"github.com/kimchi-link/kimchi/internal/policy"
	"github.com/kimchi-link/kimchi/internal/progress"
	"github.com/kimchi-link/kimchi/internal/progress/sinks"
	"github.com/kimchi-link/kimchi/internal/report"
	"github.com/kimchi-link/kimchi/internal/source"
	"github.com/kimchi-link/kimchi/internal/uri"
)

// runExitError carries a specific process exit code through cobra's error
// return path, per spec §6's three-way exit code contract.
type runExitError struct {
	code int
	err  error
}

func (e *runExitError) Error() string { return e.err.Error() }
func (e *runExitError) Unwrap() error { return e.err }

func exitCodeFor(err error) int {
	if exitErr, ok := err.(*runExitError); ok {
		return exitErr.code
	}
	return 1
}

type checkFlags struct {
	progress         bool
	verbose          bool
	insecure         bool
	skipMissing      bool
	globIgnoreCase   bool
	excludePrivate   bool
	excludeLinkLocal bool
	excludeLoopback  bool
	excludeAllPriv   bool
	accept           string
	baseURL          string
	basicAuth        string
	exclude          []string
	include          []string
	githubToken      string
	headers          []string
	maxConcurrency   int
	maxRedirects     int
	method           string
	scheme           string
	threads          int
	timeoutSeconds   int
	userAgent        string
}

func newCheckCmd() *cobra.Command {
	flags := &checkFlags{}
	cmd := &cobra.Command{
		Use:   "check [inputs...]",
		Short: "Check the links found in the given inputs",
		Long: `Extracts links from one or more inputs (local files, globs, "-" for
stdin, or a fetched URL), canonicalizes and policy-filters them, checks each
with bounded concurrency, and reports a pass/fail summary.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd, args, flags)
		},
	}

	f := cmd.Flags()
	f.Bool("help", false, "help for "+cmd.Name())
	f.BoolVarP(&flags.progress, "progress", "p", false, "print a live progress bar")
	f.BoolVarP(&flags.verbose, "verbose", "v", false, "verbose logging")
	f.BoolVarP(&flags.insecure, "insecure", "i", false, "allow insecure TLS (skip certificate verification)")
	f.BoolVar(&flags.skipMissing, "skip-missing", false, "treat missing local inputs as a warning, not a fatal error")
	f.BoolVar(&flags.globIgnoreCase, "glob-ignore-case", false, "match glob inputs case-insensitively")
	f.BoolVar(&flags.excludePrivate, "exclude-private", false, "exclude private IP ranges")
	f.BoolVar(&flags.excludeLinkLocal, "exclude-link-local", false, "exclude link-local addresses")
	f.BoolVar(&flags.excludeLoopback, "exclude-loopback", false, "exclude loopback addresses")
	f.BoolVarP(&flags.excludeAllPriv, "exclude-all-private", "E", false, "exclude private, link-local, and loopback addresses")
	f.StringVarP(&flags.accept, "accept", "a", "", "comma-separated list of additional accepted status codes")
	f.StringVarP(&flags.baseURL, "base-url", "b", "", "base URL to resolve relative links against")
	f.StringVar(&flags.basicAuth, "basic-auth", "", "basic auth credentials as user:pass")
	f.StringArrayVar(&flags.exclude, "exclude", nil, "regex of links to exclude (repeatable)")
	f.StringArrayVar(&flags.include, "include", nil, "regex of links to include exclusively (repeatable)")
	f.StringVar(&flags.githubToken, "github-token", "", "GitHub API token (env GITHUB_TOKEN)")
	f.StringArrayVarP(&flags.headers, "headers", "h", nil, "extra request header as k:v (repeatable)")
	f.IntVar(&flags.maxConcurrency, "max-concurrency", 0, "maximum number of in-flight checks")
	f.IntVarP(&flags.maxRedirects, "max-redirects", "m", 0, "maximum redirects to follow")
	f.StringVarP(&flags.method, "method", "X", "", "request method: GET or HEAD")
	f.StringVarP(&flags.scheme, "scheme", "s", "", "only check links with this scheme")
	f.IntVarP(&flags.threads, "threads", "T", 0, "worker thread count (defaults to available cores)")
	f.IntVarP(&flags.timeoutSeconds, "timeout", "t", 0, "per-request timeout in seconds")
	f.StringVarP(&flags.userAgent, "user-agent", "u", "", "user agent string")

	return cmd
}

func runCheck(cmd *cobra.Command, args []string, flags *checkFlags) error {
	cfg, _, err := config.Load(cfgFile)
	if err != nil {
		return &runExitError{code: 1, err: fmt.Errorf("load config: %w", err)}
	}
	applyFlagOverrides(cmd, &cfg, flags)

	if token := os.Getenv("GITHUB_TOKEN"); token != "" {
		cfg.GitHubToken = token
	}

	if err := cfg.Validate(); err != nil {
		return &runExitError{code: 1, err: fmt.Errorf("invalid config: %w", err)}
	}

	logger, err := logging.NewFromVerbosity(cfg.Verbose)
	if err != nil {
		return &runExitError{code: 1, err: fmt.Errorf("build logger: %w", err)}
	}
	defer func() { _ = logger.Sync() }()

	inputs := args
	if len(inputs) == 0 {
		inputs = []string{"README.md"}
	}

	if cfg.Threads > 0 {
		runtime.GOMAXPROCS(cfg.Threads)
	}

	metrics.Init()
	if cfg.Verbose {
		diag := diagnostics.New(logger)
		go func() {
			if serveErr := diag.Serve(cmd.Context(), ":8080"); serveErr != nil {
				logger.Warn("diagnostics server stopped", zap.Error(serveErr))
			}
		}()
	}

	runID, err := uuidgen.New().NewRawID()
	if err != nil {
		return &runExitError{code: 1, err: fmt.Errorf("generate run id: %w", err)}
	}

	hub := progress.NewHub(progress.Config{Logger: logger}, buildSinks(cfg, logger)...)
	defer func() { _ = hub.Close(context.Background()) }()
	hub.Emit(progress.Event{RunID: progress.UUIDToBytes(runID), TS: time.Now().UTC(), Stage: progress.StageRunStart})

	resp, runErr := doRun(cmd.Context(), cfg, inputs, logger, hub, runID, flags.progress)
	if runErr != nil {
		hub.Emit(progress.Event{RunID: progress.UUIDToBytes(runID), TS: time.Now().UTC(), Stage: progress.StageRunError, Note: runErr.Error()})
		return &runExitError{code: 1, err: runErr}
	}
	hub.Emit(progress.Event{RunID: progress.UUIDToBytes(runID), TS: time.Now().UTC(), Stage: progress.StageRunDone})

	encoded, _ := json.MarshalIndent(resp, "", "  ")
	if cfg.Verbose {
		fmt.Fprintln(cmd.OutOrStdout(), string(encoded))
	}
	printSummary(cmd, resp)

	status := "success"
	if !resp.Success() {
		status = "failure"
	}
	metrics.ObserveRun(status)

	if !resp.Success() {
		return &runExitError{code: resp.ExitCode(), err: fmt.Errorf("%d link(s) failed", resp.Failed+resp.Timeouts)}
	}
	return nil
}

func doRun(ctx context.Context, cfg config.CheckerConfig, inputs []string, logger *zap.Logger, hub *progress.Hub, runID [16]byte, showProgress bool) (report.RunReport, error) {
	var baseURL *url.URL
	if cfg.BaseURL != "" {
		parsed, err := url.Parse(cfg.BaseURL)
		if err != nil {
			return report.RunReport{}, fmt.Errorf("parse base_url: %w", err)
		}
		baseURL = parsed
	}

	resolverOpts := source.Options{
		GlobIgnoreCase: cfg.GlobIgnoreCase,
		SkipMissing:    cfg.SkipMissingInputs,
		BaseURL:        baseURL,
	}

	var items []checker.Item
	for _, token := range inputs {
		srcs, err := source.Resolve(ctx, token, resolverOpts)
		if err != nil {
			var skipped *source.ErrSkippedInput
			if errors.As(err, &skipped) {
				logger.Warn("skipping missing input", zap.String("input", token))
				continue
			}
			return report.RunReport{}, fmt.Errorf("resolve input %s: %w", token, err)
		}
		for _, src := range srcs {
			rawLinks, err := extract.FromSource(src)
			if err != nil {
				return report.RunReport{}, fmt.Errorf("extract from %s: %w", token, err)
			}
			for _, raw := range rawLinks {
				canon, skip, err := uri.Canonicalize(raw.Raw, raw.Base)
				if skip != "" || err != nil {
					continue
				}
				items = append(items, checker.Item{Uri: canon, Decision: classify(canon, cfg)})
			}
		}
	}

	basicUser, basicPass := splitBasicAuth(cfg)
	checker.WarnIfUnscopedBasicAuth(logger, cfg.BasicAuth != nil, len(cfg.Include) > 0, cfg.Scheme != "")

	c := buildChecker(cfg, logger, basicUser, basicPass)
	if showProgress {
		c.OnProgress(func(done, total int) {
			fmt.Fprintf(os.Stderr, "\rchecked %d/%d", done, total)
		})
	}

	responses := c.Run(ctx, items)
	return report.Aggregate(responses), nil
}

func buildChecker(cfg config.CheckerConfig, logger *zap.Logger, basicUser, basicPass string) *checker.Checker {
	web := checker.NewWebClient(cfg.UserAgent, cfg.AllowInsecureTLS, logger)

	var github *checker.GitHubClient
	if cfg.GitHubToken != "" {
		github = checker.NewGitHubClient(cfg.GitHubToken, time.Duration(cfg.TimeoutSeconds)*time.Second)
	}

	var mail *checker.MailProber
	if cfg.MailEnabled {
		mail = checker.NewMailProber("kimchi", time.Duration(cfg.TimeoutSeconds)*time.Second)
	}

	courtesy := checker.NewCourtesy(2, 4)

	accepted := checker.AcceptedStatus(cfg.AcceptedStatusSet())

	ccfg := checker.Config{
		MaxConcurrency: cfg.MaxConcurrency,
		Accepted:       accepted,
		Schedule:       checker.DefaultSchedule(),
		RequestBuilder: func(u uri.Uri) checker.Request {
			return checker.Request{
				Uri:           u,
				Method:        checker.Method(cfg.Method),
				Headers:       cfg.Headers,
				Timeout:       time.Duration(cfg.TimeoutSeconds) * time.Second,
				MaxRedirects:  cfg.MaxRedirects,
				BasicAuthUser: basicUser,
				BasicAuthPass: basicPass,
				AllowInsecure: cfg.AllowInsecureTLS,
			}
		},
	}
	return checker.New(ccfg, web, github, mail, courtesy, logger)
}

func classify(u uri.Uri, cfg config.CheckerConfig) policy.Decision {
	includes, _ := cfg.CompiledIncludes()
	excludes, _ := cfg.CompiledExcludes()
	return policy.Classify(u, policy.Config{
		Include:          includes,
		Exclude:          excludes,
		Scheme:           cfg.Scheme,
		MailEnabled:      cfg.MailEnabled,
		ExcludePrivate:   cfg.ExcludePrivate,
		ExcludeLinkLocal: cfg.ExcludeLinkLocal,
		ExcludeLoopback:  cfg.ExcludeLoopback,
	})
}

func buildSinks(cfg config.CheckerConfig, logger *zap.Logger) []progress.Sink {
	result := []progress.Sink{sinks.NewLogSink(logger)}
	if promSink, err := sinks.NewPrometheusSink(nil); err == nil {
		result = append(result, promSink)
	}
	return result
}

func splitBasicAuth(cfg config.CheckerConfig) (user, pass string) {
	if cfg.BasicAuth == nil {
		return "", ""
	}
	return cfg.BasicAuth.User, cfg.BasicAuth.Pass
}

func applyFlagOverrides(cmd *cobra.Command, cfg *config.CheckerConfig, flags *checkFlags) {
	f := cmd.Flags()
	if f.Changed("verbose") {
		cfg.Verbose = flags.verbose
	}
	if f.Changed("insecure") {
		cfg.AllowInsecureTLS = flags.insecure
	}
	if f.Changed("skip-missing") {
		cfg.SkipMissingInputs = flags.skipMissing
	}
	if f.Changed("glob-ignore-case") {
		cfg.GlobIgnoreCase = flags.globIgnoreCase
	}
	if f.Changed("exclude-private") {
		cfg.ExcludePrivate = flags.excludePrivate
	}
	if f.Changed("exclude-link-local") {
		cfg.ExcludeLinkLocal = flags.excludeLinkLocal
	}
	if f.Changed("exclude-loopback") {
		cfg.ExcludeLoopback = flags.excludeLoopback
	}
	if flags.excludeAllPriv {
		cfg.ExcludePrivate = true
		cfg.ExcludeLinkLocal = true
		cfg.ExcludeLoopback = true
	}
	if f.Changed("accept") && flags.accept != "" {
		cfg.AcceptedStatus = parseAcceptedStatus(flags.accept)
	}
	if f.Changed("base-url") {
		cfg.BaseURL = flags.baseURL
	}
	if f.Changed("basic-auth") {
		if user, pass, ok := strings.Cut(flags.basicAuth, ":"); ok {
			cfg.BasicAuth = &config.BasicAuth{User: user, Pass: pass}
		}
	}
	if len(flags.exclude) > 0 {
		cfg.Exclude = append(cfg.Exclude, flags.exclude...)
	}
	if len(flags.include) > 0 {
		cfg.Include = append(cfg.Include, flags.include...)
	}
	if f.Changed("github-token") {
		cfg.GitHubToken = flags.githubToken
	}
	if len(flags.headers) > 0 {
		if cfg.Headers == nil {
			cfg.Headers = map[string]string{}
		}
		for _, h := range flags.headers {
			if k, v, ok := strings.Cut(h, ":"); ok {
				cfg.Headers[strings.TrimSpace(k)] = strings.TrimSpace(v)
			}
		}
	}
	if f.Changed("max-concurrency") {
		cfg.MaxConcurrency = flags.maxConcurrency
	}
	if f.Changed("max-redirects") {
		cfg.MaxRedirects = flags.maxRedirects
	}
	if f.Changed("method") {
		cfg.Method = strings.ToUpper(flags.method)
	}
	if f.Changed("scheme") {
		cfg.Scheme = flags.scheme
	}
	if f.Changed("threads") {
		cfg.Threads = flags.threads
	}
	if f.Changed("timeout") {
		cfg.TimeoutSeconds = flags.timeoutSeconds
	}
	if f.Changed("user-agent") {
		cfg.UserAgent = flags.userAgent
	}
}

func parseAcceptedStatus(csv string) []int {
	var codes []int
	for _, part := range strings.Split(csv, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if code, err := strconv.Atoi(part); err == nil {
			codes = append(codes, code)
		}
	}
	return codes
}

func printSummary(cmd *cobra.Command, r report.RunReport) {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "")
	fmt.Fprintln(out, "Summary")
	fmt.Fprintln(out, "-------------------")
	fmt.Fprintf(out, "Total:      %d\n", r.Total)
	fmt.Fprintf(out, "OK:         %d\n", r.Ok)
	fmt.Fprintf(out, "Redirected: %d\n", r.Redirected)
	fmt.Fprintf(out, "Excluded:   %d\n", r.Excluded)
	fmt.Fprintf(out, "Failed:     %d\n", r.Failed)
	fmt.Fprintf(out, "Timeouts:   %d\n", r.Timeouts)
}
