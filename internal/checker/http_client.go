package checker

import (
	"context"
	"crypto/tls"
	"errors"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gocolly/colly/v2"
	"go.uber.org/zap"

	"github.com/kimchi-link/kimchi/internal/uri"
)

// WebClient issues HTTP checks through a shared, connection-pooled Colly
// collector, cloned per request the same way the teacher's fetcher does.
type WebClient struct {
	base   *colly.Collector
	logger *zap.Logger
}

// NewWebClient builds a WebClient sharing one base collector (and therefore
// one underlying transport/connection pool) across every check.
func NewWebClient(userAgent string, allowInsecure bool, logger *zap.Logger) *WebClient {
	base := colly.NewCollector(
		colly.Async(true),
		colly.UserAgent(userAgent),
	)
	base.AllowURLRevisit = true
	// Without this, colly routes every HTTP status >=400 through OnError
	// instead of OnResponse, and the status code never reaches the
	// classifier or the retry schedule.
	base.ParseHTTPErrorResponse = true
	base.WithTransport(&http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		MaxIdleConns:          256,
		MaxIdleConnsPerHost:   64,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ForceAttemptHTTP2:     true,
		TLSClientConfig:       &tls.Config{InsecureSkipVerify: allowInsecure}, //nolint:gosec // opt-in via allow_insecure_tls
		ResponseHeaderTimeout: 30 * time.Second,
	})
	return &WebClient{base: base, logger: logger}
}

// fetchResult carries the outcome of one collector.Request call across the
// callback boundary.
type fetchResult struct {
	statusCode int
	finalURL   string
	redirected bool
	headers    http.Header
	err        error
}

// knownHeadIntolerant lists hosts known to reject HEAD outright rather than
// answering with a clean 405/501, so the transparent HEAD-to-GET escalation
// never has a chance to observe the refusal as a status code.
var knownHeadIntolerant = map[string]struct{}{
	"sourceforge.net": {},
	"crates.io":       {},
}

// initialMethodFor applies the quirks list before ever sending a first
// request: known-intolerant hosts skip straight to GET instead of waiting
// for a 405/501 to trigger the transparent escalation.
func initialMethodFor(method Method, host string) string {
	if method == MethodHead {
		if _, intolerant := knownHeadIntolerant[host]; intolerant {
			return string(MethodGet)
		}
	}
	return string(method)
}

// Do issues req, transparently retrying HEAD as GET on 405/501 per spec.
func (w *WebClient) Do(ctx context.Context, req Request) (Outcome, error) {
	method := initialMethodFor(req.Method, req.Uri.Host)
	result, err := w.doOnce(ctx, req, method)
	if err != nil {
		return outcomeFromErr(req, err), nil
	}
	if method == string(MethodHead) && (result.statusCode == http.StatusMethodNotAllowed || result.statusCode == http.StatusNotImplemented) {
		result, err = w.doOnce(ctx, req, string(MethodGet))
		if err != nil {
			return outcomeFromErr(req, err), nil
		}
	}
	return outcomeFromResult(req, result), nil
}

func (w *WebClient) doOnce(ctx context.Context, req Request, method string) (fetchResult, error) {
	collector := w.base.Clone()
	collector.SetRequestTimeout(req.Timeout)
	collector.SetRedirectHandler(nil)
	if req.MaxRedirects >= 0 {
		collector.SetRedirectHandler(func(r *http.Request, via []*http.Request) error {
			if len(via) >= req.MaxRedirects {
				return http.ErrUseLastResponse
			}
			return nil
		})
	}

	hdr := http.Header{}
	for k, v := range req.Headers {
		hdr.Set(k, v)
	}
	if req.BearerToken != "" {
		hdr.Set("Authorization", "Bearer "+req.BearerToken)
	}

	resultCh := make(chan fetchResult, 1)
	var once sync.Once
	send := func(r fetchResult) { once.Do(func() { resultCh <- r }) }

	// requestedURL is colly's own rendering of the URL it sent, so comparing
	// it with the response URL detects redirects without being fooled by
	// colly normalizing the address (e.g. adding a trailing slash).
	var requestedURL string
	collector.OnRequest(func(r *colly.Request) {
		requestedURL = r.URL.String()
	})
	collector.OnResponse(func(r *colly.Response) {
		headers := http.Header{}
		if r.Headers != nil {
			for k, v := range *r.Headers {
				headers[k] = append([]string{}, v...)
			}
		}
		finalURL := r.Request.URL.String()
		send(fetchResult{
			statusCode: r.StatusCode,
			finalURL:   finalURL,
			redirected: requestedURL != "" && finalURL != requestedURL,
			headers:    headers,
		})
	})
	collector.OnError(func(r *colly.Response, err error) {
		if err == nil {
			err = errors.New("unknown transport error")
		}
		status := 0
		if r != nil {
			status = r.StatusCode
		}
		send(fetchResult{statusCode: status, err: err})
	})

	if req.BasicAuthUser != "" {
		collector.SetRequestTimeout(req.Timeout)
	}

	target := req.Uri.String()
	var visitErr error
	if req.BasicAuthUser != "" || req.BasicAuthPass != "" {
		httpReq, buildErr := http.NewRequestWithContext(ctx, method, target, nil)
		if buildErr != nil {
			return fetchResult{}, buildErr
		}
		httpReq.SetBasicAuth(req.BasicAuthUser, req.BasicAuthPass)
		for k := range hdr {
			httpReq.Header.Set(k, hdr.Get(k))
		}
		visitErr = collector.Request(method, target, nil, nil, httpReq.Header)
	} else {
		visitErr = collector.Request(method, target, nil, nil, hdr)
	}
	if visitErr != nil {
		return fetchResult{}, visitErr
	}
	collector.Wait()

	select {
	case res := <-resultCh:
		return res, res.err
	default:
		return fetchResult{}, errors.New("web client produced no result")
	}
}

func outcomeFromResult(req Request, result fetchResult) Outcome {
	final := req.Uri
	if result.redirected {
		if parsed, _, err := uri.Canonicalize(result.finalURL, nil); err == nil {
			final = parsed
		}
	}
	return Outcome{
		StatusCode: result.statusCode,
		FinalUri:   final,
		Redirected: result.redirected,
		Headers:    result.headers,
	}
}

func outcomeFromErr(req Request, err error) Outcome {
	timedOut := errors.Is(err, context.DeadlineExceeded)
	var netErr interface{ Timeout() bool }
	if errors.As(err, &netErr) {
		timedOut = timedOut || netErr.Timeout()
	}
	return Outcome{FinalUri: req.Uri, Err: err, TimedOut: timedOut}
}

// retryAfter extracts a Retry-After header value as a duration, per spec's
// 429 handling (capped at 30s by the caller).
func retryAfter(h http.Header) time.Duration {
	v := h.Get("Retry-After")
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second
	}
	if when, err := http.ParseTime(v); err == nil {
		return time.Until(when)
	}
	return 0
}
