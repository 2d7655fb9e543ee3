// Package transport builds the outbound HTTP clients shared by the
// REST store, the KV blobs and the media uploader.
package transport

import (
	"log"
	"net/http"
	"time"

	"github.com/motemen/go-loghttp"
)

const DefaultTimeout = 15 * time.Second

// NewClient returns a client with a hard timeout. With verbose set, every
// request and response line is logged.
func NewClient(timeout time.Duration, verbose bool) *http.Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	var rt http.RoundTripper = http.DefaultTransport
	if verbose {
		rt = &loghttp.Transport{
			Transport: http.DefaultTransport,
			LogRequest: func(req *http.Request) {
				log.Printf("--> %s %s", req.Method, req.URL.Redacted())
			},
			LogResponse: func(resp *http.Response) {
				log.Printf("<-- %d %s", resp.StatusCode, resp.Request.URL.Redacted())
			},
		}
	}
	return &http.Client{Transport: rt, Timeout: timeout}
}
