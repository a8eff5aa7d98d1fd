package fetcher

import (
	"bytes"
	"context"
	"errors"

	"github.com/mmcdole/gofeed"
	"go.uber.org/zap"
)

// Feed fetches and parses an RSS or Atom feed. The body of the resolved URL
// is parsed first; if that yields no entries the feed is re-read directly by
// URL, since some publishers serve a different document to the second
// request. A feed with no entries after both attempts is a KindNoEntries
// error.
func (f *Fetcher) Feed(ctx context.Context, url string) (*gofeed.Feed, error) {
	resp, err := f.Get(ctx, url)
	if err != nil {
		return nil, err
	}

	parser := gofeed.NewParser()
	feed, parseErr := parser.Parse(bytes.NewReader(resp.Body))
	if parseErr == nil && len(feed.Items) > 0 {
		return feed, nil
	}

	f.logger.Debug("feed body had no entries, parsing by URL",
		zap.String("url", url),
		zap.String("final_url", resp.FinalURL),
		zap.Error(parseErr),
	)

	retry, retryErr := f.parseURL(ctx, resp.FinalURL)
	if retryErr == nil && len(retry.Items) > 0 {
		return retry, nil
	}

	var fe *FetchError
	if errors.As(retryErr, &fe) {
		return nil, fe
	}

	cause := errors.New("feed contained no entries")
	if retryErr != nil {
		cause = errors.Join(cause, retryErr)
	} else if parseErr != nil {
		cause = errors.Join(cause, parseErr)
	}
	return nil, &FetchError{URL: url, Kind: KindNoEntries, Err: cause}
}

// parseURL lets gofeed download and parse the feed itself, sharing the
// Fetcher's client, limiter, and timeout.
func (f *Fetcher) parseURL(ctx context.Context, url string) (*gofeed.Feed, error) {
	if err := f.wait(ctx, url); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, f.opts.Timeout)
	defer cancel()

	parser := gofeed.NewParser()
	parser.Client = f.client
	parser.UserAgent = f.opts.UserAgent

	feed, err := parser.ParseURLWithContext(url, ctx)
	if err != nil {
		var httpErr gofeed.HTTPError
		if errors.As(err, &httpErr) {
			return nil, &FetchError{URL: url, Kind: KindHTTPStatus, StatusCode: httpErr.StatusCode, Err: err}
		}
		if ctx.Err() != nil {
			return nil, &FetchError{URL: url, Kind: classify(ctx.Err()), Err: err}
		}
		// Anything else is a parse failure; the caller reports no_entries.
		return nil, err
	}
	return feed, nil
}
