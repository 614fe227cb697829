package upstream

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/upclookup/backend/internal/domain"
	"golang.org/x/net/html/charset"
)

// ClientConfig holds settings for the lookup source client
type ClientConfig struct {
	BaseURL            string
	SearchPath         string
	UserAgent          string
	Timeout            time.Duration
	InsecureSkipVerify bool
	MaxBodyBytes       int64
}

// Client fetches product search pages from the barcode lookup source
type Client struct {
	httpClient   *http.Client
	baseURL      string
	searchPath   string
	userAgent    string
	maxBodyBytes int64
	debug        bool
}

// NewClient creates a new lookup source client
func NewClient(cfg ClientConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	maxBody := cfg.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = 5 << 20
	}

	if cfg.InsecureSkipVerify {
		log.Warn().
			Str("component", "upstream").
			Str("base_url", cfg.BaseURL).
			Msg("TLS certificate verification is DISABLED for upstream requests")
	}

	return &Client{
		httpClient:   newHTTPClient(timeout, cfg.InsecureSkipVerify),
		baseURL:      strings.TrimRight(cfg.BaseURL, "/"),
		searchPath:   cfg.SearchPath,
		userAgent:    cfg.UserAgent,
		maxBodyBytes: maxBody,
	}
}

// newHTTPClient returns a client with a bounded timeout. Certificate
// verification is only skipped when insecure is set.
func newHTTPClient(timeout time.Duration, insecure bool) *http.Client {
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   5 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   5 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
	if insecure {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec // opt-in development mode
	}

	return &http.Client{
		Transport: transport,
		Timeout:   timeout,
	}
}

// SetDebug enables verbose per-request logging
func (c *Client) SetDebug(debug bool) {
	c.debug = debug
}

// SearchURL builds the lookup URL for a barcode. The barcode is
// percent-encoded as the q parameter.
func (c *Client) SearchURL(barcode string) string {
	params := url.Values{}
	params.Set("q", barcode)
	return fmt.Sprintf("%s%s?%s", c.baseURL, c.searchPath, params.Encode())
}

// Fetch retrieves the search page for a barcode. It makes exactly one
// outbound request and never retries.
func (c *Client) Fetch(ctx context.Context, barcode string) (*domain.RawDocument, error) {
	reqURL := c.SearchURL(barcode)
	c.debugLog("fetching %s", reqURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create request: %v", domain.ErrUpstreamFailure, err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if isTimeout(err) {
			return nil, fmt.Errorf("%w after %s", domain.ErrUpstreamTimeout, c.httpClient.Timeout)
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrUpstreamFailure, err)
	}
	defer resp.Body.Close()

	c.debugLog("status %d in %s", resp.StatusCode, time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Drain a little so the connection can be reused
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
		return nil, fmt.Errorf("%w %d", domain.ErrUpstreamStatus, resp.StatusCode)
	}

	contentType := resp.Header.Get("Content-Type")
	body, err := decodeBody(resp.Body, contentType, c.maxBodyBytes)
	if err != nil {
		if isTimeout(err) {
			return nil, fmt.Errorf("%w while reading body", domain.ErrUpstreamTimeout)
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrUpstreamDecode, err)
	}

	return &domain.RawDocument{
		URL:         reqURL,
		StatusCode:  resp.StatusCode,
		ContentType: contentType,
		Body:        body,
	}, nil
}

// decodeBody reads at most limit bytes and converts them to UTF-8 using
// the charset declared by the response or sniffed from the markup
func decodeBody(r io.Reader, contentType string, limit int64) (string, error) {
	utf8Reader, err := charset.NewReader(io.LimitReader(r, limit), contentType)
	if err != nil {
		return "", err
	}
	body, err := io.ReadAll(utf8Reader)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func (c *Client) debugLog(format string, args ...interface{}) {
	if c.debug {
		log.Debug().Str("component", "upstream").Msgf(format, args...)
	}
}
