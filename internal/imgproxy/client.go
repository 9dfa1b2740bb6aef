// Package imgproxy fetches remote catalog images through the server so the
// browser never talks to the upstream host directly.
package imgproxy

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"time"

	"github.com/warungdata/katalog/internal/errs"
)

const defaultTimeout = 30 * time.Second

// idPattern matches upstream file identifiers: word characters and hyphens
// only, long enough to rule out path fragments and junk.
var idPattern = regexp.MustCompile(`^[\w-]{10,}$`)

// Image is one upstream image ready to stream to the client. The caller owns
// Body and must close it.
type Image struct {
	ContentType string
	Body        io.ReadCloser
}

// Client proxies images from a fixed upstream URL template.
type Client struct {
	upstreamBase string
	httpClient   *http.Client
}

// New returns a proxy client that resolves ids against upstreamBase. Requests
// carry a bounded timeout so a stalled upstream cannot pin a handler forever.
func New(upstreamBase string) *Client {
	return &Client{
		upstreamBase: upstreamBase,
		httpClient:   &http.Client{Timeout: defaultTimeout},
	}
}

// Fetch validates id and retrieves the upstream image. Malformed ids fail
// before any network call. Non-2xx upstream responses map to an upstream
// error; a missing upstream content type defaults to image/jpeg.
func (c *Client) Fetch(ctx context.Context, id string) (*Image, error) {
	if !idPattern.MatchString(id) {
		return nil, errs.New(errs.CodeInvalid, "invalid image id")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.upstreamBase+id, nil)
	if err != nil {
		return nil, errs.Wrap(errs.CodeUpstream, "build upstream request", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errs.Wrap(errs.CodeUpstream, "fetch upstream image", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		return nil, errs.New(errs.CodeUpstream, fmt.Sprintf("upstream returned %d", resp.StatusCode))
	}
	ct := resp.Header.Get("Content-Type")
	if ct == "" {
		ct = "image/jpeg"
	}
	return &Image{ContentType: ct, Body: resp.Body}, nil
}
