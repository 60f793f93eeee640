package gotrue

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/dtroode/qubras-auth/internal/model"
)

const maxResponseBody = 1 << 20

// statusClass groups backend responses by how the caller should react.
type statusClass int

const (
	statusOK statusClass = iota
	statusRejected
	statusTransient
)

func classifyStatus(code int) statusClass {
	switch {
	case code >= 200 && code < 300:
		return statusOK
	case code == http.StatusTooManyRequests:
		return statusTransient
	case code >= 500:
		return statusTransient
	default:
		return statusRejected
	}
}

type errorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
	ErrorCode        string `json:"error_code"`
	Code             any    `json:"code"`
	Msg              string `json:"msg"`
	Message          string `json:"message"`
}

func (e errorResponse) text() string {
	for _, s := range []string{e.ErrorDescription, e.Msg, e.Message, e.Error} {
		if s != "" {
			return s
		}
	}
	return "request failed"
}

func (e errorResponse) code() string {
	if e.ErrorCode != "" {
		return e.ErrorCode
	}
	if s, ok := e.Code.(string); ok {
		return s
	}
	return e.Error
}

func decodeError(status int, body []byte) error {
	var resp errorResponse
	_ = json.Unmarshal(body, &resp)

	if classifyStatus(status) == statusTransient {
		return fmt.Errorf("%w: status %d: %s", model.ErrUnavailable, status, resp.text())
	}

	code := resp.code()
	if code == "invalid_grant" || code == "invalid_credentials" {
		return fmt.Errorf("%w: %s", model.ErrInvalidCredentials, resp.text())
	}

	return &model.ProviderError{Status: status, Code: code, Message: resp.text()}
}

// do sends a JSON request and decodes a JSON response into out when non-nil.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body any, bearer string, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("apikey", c.apiKey)
	}
	if bearer == "" {
		bearer = c.apiKey
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return fmt.Errorf("%w: %s %s: %v", model.ErrUnavailable, method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return fmt.Errorf("%w: read response: %v", model.ErrUnavailable, err)
	}

	if classifyStatus(resp.StatusCode) != statusOK {
		return decodeError(resp.StatusCode, raw)
	}

	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// isRejection reports whether the backend refused the request outright.
func isRejection(err error) bool {
	var providerErr *model.ProviderError
	return errors.As(err, &providerErr) || errors.Is(err, model.ErrInvalidCredentials)
}

func trimBase(base string) string {
	return strings.TrimRight(base, "/")
}
