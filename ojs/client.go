// Package ojs calls the gateway plugin of OJS installations.
package ojs

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/wansing/ojsbridge/core"
	"golang.org/x/time/rate"
)

// PluginPath is appended to the OJS base url.
const PluginPath = "/index.php/index/gateway/plugin/FidusWriterGatewayPlugin/"

// maxBody limits the size of responses.
const maxBody = 16 << 20

// Client implements core.Gateway.
//
// Failed requests are retried if the server answered with a 5xx status or did not answer at all.
// Any other status outside of 2xx is terminal.
type Client struct {
	HTTPClient *http.Client
	Retries    int           // after the first attempt
	RetryDelay time.Duration // between attempts
	Limiter    *rate.Limiter // optional, shared by all requests
}

// NewClient returns a client with the given per-request timeout. If rps is positive, the outgoing requests are limited to rps per second.
func NewClient(timeout time.Duration, retries int, retryDelay time.Duration, rps float64) *Client {
	var c = &Client{
		HTTPClient: &http.Client{Timeout: timeout},
		Retries:    retries,
		RetryDelay: retryDelay,
	}
	if rps > 0 {
		c.Limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}
	return c
}

// Endpoint returns the url of a plugin endpoint.
func Endpoint(ojsURL, endpoint string) string {
	return strings.TrimSuffix(ojsURL, "/") + PluginPath + endpoint
}

func (c *Client) Get(ctx context.Context, ojsURL, key, endpoint string) ([]byte, error) {
	return c.do(ctx, endpoint, func() (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodGet, endpointWithKey(ojsURL, key, endpoint), nil)
	})
}

// Post sends the form url-encoded. The key is sent in the query string, like with Get.
func (c *Client) Post(ctx context.Context, ojsURL, key, endpoint string, form url.Values) ([]byte, error) {
	var encoded = form.Encode()
	return c.do(ctx, endpoint, func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpointWithKey(ojsURL, key, endpoint), strings.NewReader(encoded))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		return req, nil
	})
}

func endpointWithKey(ojsURL, key, endpoint string) string {
	return Endpoint(ojsURL, endpoint) + "?" + url.Values{"key": []string{key}}.Encode()
}

// do runs the request until it succeeds, fails terminally, the retries are spent or ctx is done.
func (c *Client) do(ctx context.Context, endpoint string, newRequest func() (*http.Request, error)) ([]byte, error) {

	var log = zerolog.Ctx(ctx)
	var httpClient = c.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	var remoteErr = &core.RemoteError{Endpoint: endpoint}

	for attempt := 0; attempt <= c.Retries; attempt++ {

		if attempt > 0 {
			select {
			case <-ctx.Done():
				remoteErr.Err = ctx.Err()
				return nil, remoteErr
			case <-time.After(c.RetryDelay):
			}
		}

		if c.Limiter != nil {
			if err := c.Limiter.Wait(ctx); err != nil {
				remoteErr.Err = err
				return nil, remoteErr
			}
		}

		req, err := newRequest()
		if err != nil {
			return nil, err // bad url, not worth retrying
		}

		remoteErr.Attempts = attempt + 1

		body, status, err := send(httpClient, req)
		switch {
		case err != nil:
			if ctx.Err() != nil {
				remoteErr.Err = ctx.Err()
				return nil, remoteErr
			}
			remoteErr.Status = 0
			remoteErr.Err = err
			remoteErr.Transient = true
		case status >= 200 && status <= 299:
			if attempt > 0 {
				log.Info().Str("endpoint", endpoint).Int("attempts", attempt+1).Msg("OJS request succeeded after retrying")
			}
			return body, nil
		case status >= 500 && status <= 599:
			remoteErr.Status = status
			remoteErr.Err = nil
			remoteErr.Transient = true
		default:
			// 1xx, 3xx, 4xx and anything out of range
			remoteErr.Status = status
			remoteErr.Err = nil
			remoteErr.Transient = false
			return nil, remoteErr
		}

		log.Warn().Str("endpoint", endpoint).Int("attempt", attempt+1).Int("status", remoteErr.Status).AnErr("transport", remoteErr.Err).Msg("OJS request failed")
	}

	return nil, remoteErr
}

// send executes the request and reads the whole response body.
func send(httpClient *http.Client, req *http.Request) ([]byte, int, error) {
	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, 0, fmt.Errorf("reading response: %w", err)
	}
	return body, resp.StatusCode, nil
}
