// Package upload sends data files to the cleaning endpoint and makes sure only
// the newest of overlapping uploads is applied.
package upload

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"mime/multipart"
	"net"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/KaramelBytes/datawash-cli/internal/dataset"
)

// FormField is the multipart field carrying the file.
const FormField = "file"

type Client struct {
	httpClient       *http.Client
	endpoint         string
	retryMaxAttempts int
	retryBaseDelay   time.Duration
	retryMaxDelay    time.Duration
	maxBytes         int64
}

// Stats are the cleaning figures reported by the endpoint.
type Stats struct {
	Rows          int `json:"rows"`
	Cols          int `json:"cols"`
	Duplicates    int `json:"duplicates"`
	MissingFilled int `json:"missing_filled"`
}

// Result is a decoded successful upload.
type Result struct {
	FileName  string
	Rows      []dataset.Row
	Stats     Stats
	RequestID string
}

type response struct {
	Data  json.RawMessage `json:"data"`
	Stats *Stats          `json:"stats"`
	Error string          `json:"error"`
}

// Uploader is what the session needs from a client.
type Uploader interface {
	Upload(ctx context.Context, path string) (*Result, error)
}

// NewClient allows customizing HTTP timeout and retry/backoff behavior.
func NewClient(endpoint string, httpTimeout time.Duration, retryMax int, baseDelay, maxDelay time.Duration) *Client {
	if httpTimeout <= 0 {
		httpTimeout = 60 * time.Second
	}
	if retryMax <= 0 {
		retryMax = 3
	}
	if baseDelay <= 0 {
		baseDelay = 500 * time.Millisecond
	}
	if maxDelay <= 0 {
		maxDelay = 4 * time.Second
	}
	return &Client{
		httpClient:       &http.Client{Timeout: httpTimeout},
		endpoint:         endpoint,
		retryMaxAttempts: retryMax,
		retryBaseDelay:   baseDelay,
		retryMaxDelay:    maxDelay,
	}
}

// WithMaxBytes rejects files larger than n before sending them. Zero disables
// the check.
func (c *Client) WithMaxBytes(n int64) *Client {
	c.maxBytes = n
	return c
}

func (c *Client) Endpoint() string { return c.endpoint }

// Upload reads the file at path and sends it.
func (c *Client) Upload(ctx context.Context, path string) (*Result, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory", path)
	}
	if c.maxBytes > 0 && info.Size() > c.maxBytes {
		return nil, fmt.Errorf("%s is %d bytes, limit is %d", filepath.Base(path), info.Size(), c.maxBytes)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return c.UploadBytes(ctx, filepath.Base(path), data)
}

// UploadBytes sends data as a multipart file named name.
func (c *Client) UploadBytes(ctx context.Context, name string, data []byte) (*Result, error) {
	if c.endpoint == "" {
		return nil, errors.New("upload endpoint is not configured")
	}
	body, contentType, err := multipartBody(name, data)
	if err != nil {
		return nil, err
	}
	maxAttempts := c.retryMaxAttempts
	backoff := c.retryBaseDelay

	var lastErr error
	var out *Result
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}
		reqID := uuid.NewString()
		httpReq.Header.Set("Content-Type", contentType)
		httpReq.Header.Set("Accept", "application/json")
		httpReq.Header.Set("X-Request-Id", reqID)

		resp, err := c.httpClient.Do(httpReq)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			if isRetryableNetErr(err) && attempt < maxAttempts {
				lastErr = err
				if err := sleepCtx(ctx, backoff); err != nil {
					return nil, err
				}
				backoff *= 2
				continue
			}
			return nil, &UnreachableError{Host: hostOf(c.endpoint), Err: err}
		}
		var wait time.Duration
		out, wait, lastErr = c.readResponse(resp, reqID, backoff, attempt < maxAttempts)
		if lastErr == nil {
			out.FileName = name
			return out, nil
		}
		if wait <= 0 {
			break
		}
		if err := sleepCtx(ctx, wait); err != nil {
			return nil, err
		}
		backoff *= 2
	}
	return nil, lastErr
}

// readResponse decodes one HTTP exchange. A positive wait asks the caller to
// retry after that delay.
func (c *Client) readResponse(resp *http.Response, reqID string, backoff time.Duration, canRetry bool) (*Result, time.Duration, error) {
	defer resp.Body.Close()
	if id := extractRequestID(resp); id != "" {
		reqID = id
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 8<<10))
		var raw map[string]any
		_ = json.Unmarshal(body, &raw)
		apiErr := &APIError{StatusCode: resp.StatusCode, Raw: raw, RequestID: reqID}
		switch v := raw["error"].(type) {
		case string:
			apiErr.Message = v
		case map[string]any:
			if msg, ok := v["message"].(string); ok {
				apiErr.Message = msg
			}
		}
		if (resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500) && canRetry {
			// Respect Retry-After header if present (seconds or HTTP date).
			if ra := resp.Header.Get("Retry-After"); ra != "" {
				if secs, err := parseRetryAfterSeconds(ra); err == nil && secs > 0 {
					return nil, time.Duration(secs) * time.Second, &RateLimitError{APIError: apiErr, RetryAfter: time.Duration(secs) * time.Second}
				}
			}
			sleep := withJitter(backoff)
			if c.retryMaxDelay > 0 && sleep > c.retryMaxDelay {
				sleep = c.retryMaxDelay
			}
			return nil, sleep, apiErr
		}
		return nil, 0, classifyAPIError(apiErr, resp)
	}

	var body response
	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	if err := dec.Decode(&body); err != nil {
		return nil, 0, &MalformedResponseError{Reason: "decode body", RequestID: reqID, Err: err}
	}
	if body.Error != "" {
		return nil, 0, &ServiceError{Message: body.Error, RequestID: reqID}
	}
	if len(body.Data) == 0 || bytes.Equal(body.Data, []byte("null")) {
		return nil, 0, &MalformedResponseError{Reason: "missing data array", RequestID: reqID}
	}
	var rows []dataset.Row
	if err := json.Unmarshal(body.Data, &rows); err != nil {
		return nil, 0, &MalformedResponseError{Reason: "data is not an array of objects", RequestID: reqID, Err: err}
	}
	out := &Result{Rows: rows, RequestID: reqID}
	if body.Stats != nil {
		out.Stats = *body.Stats
	} else {
		out.Stats = Stats{Rows: len(rows)}
		if len(rows) > 0 {
			out.Stats.Cols = rows[0].Len()
		}
	}
	return out, 0, nil
}

func multipartBody(name string, data []byte) ([]byte, string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile(FormField, name)
	if err != nil {
		return nil, "", fmt.Errorf("build form: %w", err)
	}
	if _, err := fw.Write(data); err != nil {
		return nil, "", fmt.Errorf("build form: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, "", fmt.Errorf("build form: %w", err)
	}
	return buf.Bytes(), mw.FormDataContentType(), nil
}

func isRetryableNetErr(err error) bool {
	var nerr net.Error
	if errors.As(err, &nerr) && nerr.Timeout() {
		return true
	}
	return errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF)
}

// parseRetryAfterSeconds tries to interpret Retry-After header value as seconds or HTTP date.
func parseRetryAfterSeconds(v string) (int, error) {
	if s, err := strconv.Atoi(v); err == nil {
		return s, nil
	}
	if t, err := http.ParseTime(v); err == nil {
		d := time.Until(t)
		if d < 0 {
			d = 0
		}
		return int(d.Seconds()), nil
	}
	return 0, fmt.Errorf("invalid Retry-After: %q", v)
}

// classifyAPIError maps generic APIError to typed errors.
func classifyAPIError(apiErr *APIError, resp *http.Response) error {
	sc := apiErr.StatusCode
	switch {
	case sc == http.StatusTooManyRequests:
		var ra time.Duration
		if v := resp.Header.Get("Retry-After"); v != "" {
			if secs, err := parseRetryAfterSeconds(v); err == nil && secs > 0 {
				ra = time.Duration(secs) * time.Second
			}
		}
		return &RateLimitError{APIError: apiErr, RetryAfter: ra}
	case sc >= 400 && sc <= 499:
		return &BadRequestError{APIError: apiErr}
	case sc >= 500 && sc <= 599:
		return &ServerError{APIError: apiErr}
	}
	return apiErr
}

// extractRequestID pulls a best-effort request ID from common headers.
func extractRequestID(resp *http.Response) string {
	if resp == nil {
		return ""
	}
	for _, k := range []string{"X-Request-Id", "X-Correlation-Id"} {
		if v := resp.Header.Get(k); v != "" {
			return v
		}
	}
	return ""
}

// withJitter returns a backoff duration with +/- 20% jitter applied.
func withJitter(d time.Duration) time.Duration {
	if d <= 0 {
		return 500 * time.Millisecond
	}
	f := 0.8 + rand.Float64()*0.4
	out := time.Duration(float64(d) * f)
	if out <= 0 {
		return d
	}
	return out
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func hostOf(endpoint string) string {
	u, err := url.Parse(endpoint)
	if err != nil {
		return endpoint
	}
	return u.Host
}
