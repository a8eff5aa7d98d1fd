package fetcher

import (
	"bytes"
	"compress/flate"
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/brotli"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// DefaultUserAgent is a desktop browser string; several of the news sites
// serve reduced pages to unknown agents.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 " +
	"(KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

// Options configures a Fetcher.
type Options struct {
	// Timeout bounds every request, including reading the body.
	Timeout time.Duration
	// RateInterval is the minimum spacing between requests. Zero disables
	// rate limiting.
	RateInterval time.Duration
	UserAgent    string
	// MaxBodySize caps how many bytes of a response body are read. Zero
	// means unlimited.
	MaxBodySize int64
}

// DefaultOptions returns the standard fetch settings: a 10 second timeout and
// one request every 2 seconds.
func DefaultOptions() Options {
	return Options{
		Timeout:      10 * time.Second,
		RateInterval: 2 * time.Second,
		UserAgent:    DefaultUserAgent,
		MaxBodySize:  10 * 1024 * 1024,
	}
}

// Response is a fully read HTTP response.
type Response struct {
	URL        string
	FinalURL   string
	StatusCode int
	Header     http.Header
	Body       []byte
	Duration   time.Duration
}

// Fetcher retrieves pages and feeds with a per-instance rate limit. Each
// scraper owns its own Fetcher so that sources are throttled independently.
type Fetcher struct {
	client  *http.Client
	limiter *rate.Limiter
	opts    Options
	logger  *zap.Logger
}

// New creates a Fetcher. Zero-valued options fall back to DefaultOptions,
// except RateInterval where zero means unlimited.
func New(opts Options, logger *zap.Logger) *Fetcher {
	defaults := DefaultOptions()
	if opts.Timeout <= 0 {
		opts.Timeout = defaults.Timeout
	}
	if opts.UserAgent == "" {
		opts.UserAgent = defaults.UserAgent
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	limit := rate.Inf
	if opts.RateInterval > 0 {
		limit = rate.Every(opts.RateInterval)
	}

	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   opts.Timeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: opts.Timeout,
		DisableCompression:  true, // decoded in decompressReader, including brotli
	}

	return &Fetcher{
		client: &http.Client{
			Transport: transport,
			Timeout:   opts.Timeout,
		},
		limiter: rate.NewLimiter(limit, 1),
		opts:    opts,
		logger:  logger.With(zap.String("component", "fetcher")),
	}
}

// Client returns the underlying HTTP client.
func (f *Fetcher) Client() *http.Client {
	return f.client
}

// wait blocks until the rate limiter admits another request.
func (f *Fetcher) wait(ctx context.Context, url string) error {
	if err := f.limiter.Wait(ctx); err != nil {
		return &FetchError{URL: url, Kind: classify(err), Err: fmt.Errorf("rate limiter: %w", err)}
	}
	return nil
}

// Get performs a rate-limited GET request and reads the whole body.
// Redirects are followed; FinalURL holds the resolved address.
func (f *Fetcher) Get(ctx context.Context, url string) (*Response, error) {
	if err := f.wait(ctx, url); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, f.opts.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &FetchError{URL: url, Kind: KindNetwork, Err: fmt.Errorf("failed to create request: %w", err)}
	}
	f.setHeaders(req)

	start := time.Now()
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &FetchError{URL: url, Kind: classify(err), Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &FetchError{
			URL:        url,
			Kind:       KindHTTPStatus,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("HTTP error: %s", resp.Status),
		}
	}

	var reader io.Reader = resp.Body
	reader, err = decompressReader(resp, reader)
	if err != nil {
		return nil, &FetchError{URL: url, Kind: KindNetwork, Err: fmt.Errorf("failed to decode body: %w", err)}
	}
	if f.opts.MaxBodySize > 0 {
		reader = io.LimitReader(reader, f.opts.MaxBodySize)
	}

	body, err := io.ReadAll(reader)
	if err != nil {
		return nil, &FetchError{URL: url, Kind: classify(err), Err: fmt.Errorf("failed to read body: %w", err)}
	}

	duration := time.Since(start)
	finalURL := url
	if resp.Request != nil && resp.Request.URL != nil {
		finalURL = resp.Request.URL.String()
	}

	f.logger.Debug("fetch complete",
		zap.String("url", url),
		zap.String("final_url", finalURL),
		zap.Int("status", resp.StatusCode),
		zap.Int("size", len(body)),
		zap.Duration("duration", duration),
	)

	return &Response{
		URL:        url,
		FinalURL:   finalURL,
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       body,
		Duration:   duration,
	}, nil
}

// Document fetches a page and parses it as HTML.
func (f *Fetcher) Document(ctx context.Context, url string) (*goquery.Document, error) {
	resp, err := f.Get(ctx, url)
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(resp.Body))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}
	return doc, nil
}

func (f *Fetcher) setHeaders(req *http.Request) {
	req.Header.Set("User-Agent", f.opts.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Accept-Encoding", "gzip, deflate, br")
	req.Header.Set("Referer", "https://www.google.com/")
	req.Header.Set("DNT", "1")
}

// decompressReader wraps a reader with the decoder named by the
// Content-Encoding header.
func decompressReader(resp *http.Response, reader io.Reader) (io.Reader, error) {
	switch resp.Header.Get("Content-Encoding") {
	case "gzip":
		return gzip.NewReader(reader)
	case "deflate":
		return flate.NewReader(reader), nil
	case "br":
		return brotli.NewReader(reader), nil
	default:
		return reader, nil
	}
}

// classify maps a transport error onto an ErrorKind.
func classify(err error) ErrorKind {
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return KindTimeout
	}
	return KindNetwork
}
