package assets

import "net/http"

type Option func(*Client)

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}
