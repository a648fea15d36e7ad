package fetcher

import (
	"context"
	"io"
	"net/url"
)

// Fetcher defines the interface for talking to remote HTTP APIs.
type Fetcher interface {
	// Download fetches the URL and returns the response body.
	Download(ctx context.Context, url string) (io.ReadCloser, error)

	// GetJSON issues a GET with the given query parameters and decodes the JSON body into dst.
	GetJSON(ctx context.Context, url string, params url.Values, dst any) error

	// Post sends body with the given query parameters and returns the response body.
	Post(ctx context.Context, url string, params url.Values, contentType string, body []byte) ([]byte, error)
}
