package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/sony/gobreaker"
)

// maxErrorBody caps how much of a rejected response ends up in an error message.
const maxErrorBody = 512

type request struct {
	op     string
	method string
	path   string
	query  url.Values
	token  string
	body   any
}

// answeredByPlatform keeps 4xx answers (expired token, unknown device) from
// tripping the breaker: the platform is up, the request was wrong.
func answeredByPlatform(err error) bool {
	if err == nil {
		return true
	}
	var re *RequestError
	if errors.As(err, &re) {
		return re.StatusCode >= 400 && re.StatusCode < 500
	}
	return false
}

// do sends a JSON request through the breaker and decodes the 2xx body into out.
func (c *Client) do(ctx context.Context, r request, out any) error {
	_, err := c.breaker.Execute(func() (interface{}, error) {
		return nil, c.roundTrip(ctx, r, out)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		err = &RequestError{Op: r.op, Err: err}
	}
	if c.observer != nil {
		c.observer.ObservePlatformRequest(r.op, err)
	}
	return err
}

func (c *Client) roundTrip(ctx context.Context, r request, out any) error {
	u := c.baseURL + r.path
	if len(r.query) > 0 {
		u += "?" + r.query.Encode()
	}

	var body io.Reader
	if r.body != nil {
		b, err := json.Marshal(r.body)
		if err != nil {
			return &RequestError{Op: r.op, Err: fmt.Errorf("encode body: %w", err)}
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, r.method, u, body)
	if err != nil {
		return &RequestError{Op: r.op, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if r.token != "" {
		req.Header.Set("X-Authorization", "Bearer "+r.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &RequestError{Op: r.op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &RequestError{
			Op:         r.op,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("%s %s: %s", r.method, r.path, bytes.TrimSpace(snippet)),
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &RequestError{Op: r.op, StatusCode: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}
