package assets

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
)

// Client verifica que una URL de imagen responda con un content-type image/*.
// Se usa al arrancar para avisar si THUMBNAIL_URL no es servible.
type Client struct {
	http      *http.Client
	userAgent string
}

func New(opts ...Option) *Client {
	c := &Client{
		http:      &http.Client{Timeout: 10 * time.Second},
		userAgent: "vouch-bot/1.0",
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Probe hace HEAD sobre la URL. 429 con Retry-After: un reintento.
func (c *Client) Probe(ctx context.Context, rawURL string) error {
	if ValidateThumbnail(rawURL) == "" {
		return errors.Wrapf(ErrNotImage, "invalid thumbnail url %q", rawURL)
	}
	return c.probe(ctx, rawURL, true)
}

func (c *Client) probe(ctx context.Context, rawURL string, retry bool) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, rawURL, nil)
	if err != nil {
		return errors.Wrap(err, "asset request")
	}
	req.Header.Set("User-Agent", c.userAgent)

	res, err := c.http.Do(req)
	if err != nil {
		return errors.Wrap(err, "asset http")
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusTooManyRequests && retry {
		if sec, _ := strconv.Atoi(res.Header.Get("Retry-After")); sec > 0 {
			select {
			case <-time.After(time.Duration(sec) * time.Second):
			case <-ctx.Done():
				return ctx.Err()
			}
			return c.probe(ctx, rawURL, false)
		}
	}
	if res.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return &APIError{Status: res.StatusCode, URL: rawURL}
	}
	ct := strings.ToLower(res.Header.Get("Content-Type"))
	if !strings.HasPrefix(ct, "image/") {
		return errors.Wrapf(ErrNotImage, "content-type %q", ct)
	}
	return nil
}
