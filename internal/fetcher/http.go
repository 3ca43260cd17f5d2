// Package fetcher pulls a lead's homepage down to plain text, giving the
// discovery audit and the strategy forge real business context to work
// with. Fetches are rate limited so a discovery batch cannot hammer small
// business sites.
package fetcher

import (
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/sells-group/leadops-cli/internal/resilience"
)

const (
	// maxHomepageBytes limits how much HTML is downloaded per site.
	maxHomepageBytes = 512 * 1024

	// maxTextChars is the truncation limit for extracted text.
	maxTextChars = 16000
)

// Fetcher downloads homepages with a shared rate limit.
type Fetcher struct {
	client  *http.Client
	limiter *rate.Limiter
	retry   resilience.RetryConfig
}

// New creates a fetcher allowing ratePerSec requests per second.
func New(ratePerSec float64) *Fetcher {
	if ratePerSec <= 0 {
		ratePerSec = 2
	}
	return &Fetcher{
		client:  &http.Client{Timeout: 10 * time.Second},
		limiter: rate.NewLimiter(rate.Limit(ratePerSec), 1),
		retry:   resilience.DefaultRetryConfig(),
	}
}

// Homepage fetches the site and returns its visible text, truncated to a
// prompt-friendly size.
func (f *Fetcher) Homepage(ctx context.Context, website string) (string, error) {
	if website == "" {
		return "", eris.New("fetcher: empty website")
	}
	if !strings.HasPrefix(website, "http://") && !strings.HasPrefix(website, "https://") {
		website = "https://" + website
	}

	if err := f.limiter.Wait(ctx); err != nil {
		return "", eris.Wrap(err, "fetcher: rate limit wait")
	}

	return resilience.Retry(ctx, f.retry, func(ctx context.Context) (string, error) {
		return f.fetch(ctx, website)
	})
}

func (f *Fetcher) fetch(ctx context.Context, website string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, website, nil)
	if err != nil {
		return "", eris.Wrap(err, "fetcher: create request")
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; leadops-cli/1.0)")

	resp, err := f.client.Do(req)
	if err != nil {
		return "", eris.Wrap(err, "fetcher: fetch homepage")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode >= 400 {
		err := eris.Errorf("fetcher: homepage returned %d", resp.StatusCode)
		if resilience.RetryableStatus(resp.StatusCode) {
			return "", resilience.Transient(err, resp.StatusCode)
		}
		return "", err
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxHomepageBytes))
	if err != nil {
		return "", eris.Wrap(err, "fetcher: read homepage")
	}

	text := stripHTMLTags(string(body))
	if len(text) > maxTextChars {
		text = text[:maxTextChars]
	}
	return text, nil
}

// stripHTMLTags removes markup for a rough plain-text extraction.
func stripHTMLTags(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	inTag := false
	for _, r := range s {
		switch {
		case r == '<':
			inTag = true
		case r == '>':
			inTag = false
			b.WriteRune(' ')
		case !inTag:
			b.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}
