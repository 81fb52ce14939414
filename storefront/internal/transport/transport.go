package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/Astemirdum/bookstore-storefront/pkg/circuit_breaker"
	"github.com/Astemirdum/bookstore-storefront/storefront/config"
	"github.com/Astemirdum/bookstore-storefront/storefront/internal/errs"
	"github.com/Astemirdum/bookstore-storefront/storefront/internal/metrics"
	"github.com/Astemirdum/bookstore-storefront/storefront/internal/model"
)

const (
	HeaderRequestID   = "X-Request-ID"
	headerContentType = "Content-Type"
	mimeJSON          = "application/json"
	mimeForm          = "application/x-www-form-urlencoded"
	filesField        = "files"
)

// TokenSource yields the current bearer token, empty when logged out.
type TokenSource interface {
	Token() string
}

type TokenFunc func() string

func (f TokenFunc) Token() string { return f() }

// Multipart is sent as multipart/form-data. Files go out as parts named "files".
type Multipart struct {
	Fields url.Values
	Files  []model.File
}

type Request struct {
	Method string
	Path   string
	Query  url.Values
	// Body is encoded by shape: *Multipart, url.Values, []byte as is,
	// anything else as JSON.
	Body   any
	Header http.Header
}

type Client struct {
	log     *zap.Logger
	http    *http.Client
	baseURL string
	tokens  TokenSource
	cb      circuit_breaker.CircuitBreaker
	metrics *metrics.Collector
}

type Option func(*Client)

func WithBreaker(cb circuit_breaker.CircuitBreaker) Option {
	return func(c *Client) { c.cb = cb }
}

func WithMetrics(m *metrics.Collector) Option {
	return func(c *Client) { c.metrics = m }
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func New(log *zap.Logger, cfg config.API, tokens TokenSource, opts ...Option) *Client {
	c := &Client{
		log:     log.Named("transport"),
		http:    &http.Client{Timeout: cfg.Timeout},
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		tokens:  tokens,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Call sends the request, unwraps the response envelope and decodes the
// payload into out when out is not nil.
func (c *Client) Call(ctx context.Context, req Request, out any) error {
	body, err := c.Do(ctx, req)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	payload := Unwrap(body)
	if len(bytes.TrimSpace(payload)) == 0 {
		return nil
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return errors.Wrapf(err, "decode %s %s", req.Method, req.Path)
	}
	return nil
}

// Do sends the request and returns the raw response body. Status >= 400
// yields *errs.APIError.
func (c *Client) Do(ctx context.Context, req Request) ([]byte, error) {
	if c.cb == nil {
		return c.do(ctx, req)
	}
	var (
		body   []byte
		apiErr error
	)
	err := c.cb.Call(func() error {
		b, err := c.do(ctx, req)
		if e, ok := errs.AsAPIError(err); ok && e.StatusCode < http.StatusInternalServerError {
			apiErr = err
			return nil
		}
		body = b
		return err
	})
	if err != nil {
		return nil, err
	}
	return body, apiErr
}

func (c *Client) do(ctx context.Context, r Request) ([]byte, error) {
	u := c.baseURL + r.Path
	if len(r.Query) > 0 {
		u += "?" + r.Query.Encode()
	}
	body, contentType, err := encodeBody(r.Body)
	if err != nil {
		return nil, errors.Wrapf(err, "encode %s %s", r.Method, r.Path)
	}
	req, err := http.NewRequestWithContext(ctx, r.Method, u, body)
	if err != nil {
		return nil, err
	}
	for k, vs := range r.Header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	if contentType != "" {
		if _, multi := r.Body.(*Multipart); multi || req.Header.Get(headerContentType) == "" {
			req.Header.Set(headerContentType, contentType)
		}
	}
	if c.tokens != nil {
		if token := c.tokens.Token(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}
	reqID := uuid.NewString()
	req.Header.Set(HeaderRequestID, reqID)
	req.Header.Set("Accept", mimeJSON)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Debug("request failed",
			zap.String("method", r.Method),
			zap.String("url", u),
			zap.String("request_id", reqID),
			zap.Error(err))
		c.metrics.ObserveRequest(r.Method, r.Path, 0, time.Since(start))
		return nil, errors.Wrapf(err, "%s %s", r.Method, r.Path)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	took := time.Since(start)
	c.metrics.ObserveRequest(r.Method, r.Path, resp.StatusCode, took)
	c.log.Debug("request",
		zap.String("method", r.Method),
		zap.String("url", u),
		zap.Int("status", resp.StatusCode),
		zap.Duration("latency", took),
		zap.String("request_id", reqID))
	if err != nil {
		return nil, errors.Wrapf(err, "read %s %s", r.Method, r.Path)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return nil, &errs.APIError{
			StatusCode: resp.StatusCode,
			Message:    ErrorMessage(data),
			Body:       data,
		}
	}
	return data, nil
}

func encodeBody(v any) (io.Reader, string, error) {
	switch b := v.(type) {
	case nil:
		return http.NoBody, "", nil
	case *Multipart:
		return encodeMultipart(b)
	case url.Values:
		return strings.NewReader(b.Encode()), mimeForm, nil
	case []byte:
		return bytes.NewReader(b), mimeJSON, nil
	case json.RawMessage:
		return bytes.NewReader(b), mimeJSON, nil
	default:
		data, err := json.Marshal(b)
		if err != nil {
			return nil, "", err
		}
		return bytes.NewReader(data), mimeJSON, nil
	}
}

func encodeMultipart(m *Multipart) (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, vs := range m.Fields {
		for _, v := range vs {
			if err := w.WriteField(k, v); err != nil {
				return nil, "", err
			}
		}
	}
	for _, f := range m.Files {
		part, err := w.CreateFormFile(filesField, f.Name)
		if err != nil {
			return nil, "", err
		}
		if _, err := part.Write(f.Content); err != nil {
			return nil, "", err
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}

// Unwrap returns the "response" member of the envelope when it is present
// and not null, otherwise the body itself.
func Unwrap(body []byte) []byte {
	if !gjson.ValidBytes(body) {
		return body
	}
	res := gjson.GetBytes(body, "response")
	if !res.Exists() || res.Type == gjson.Null {
		return body
	}
	return []byte(res.Raw)
}

// ErrorMessage pulls a human readable message out of an error body.
func ErrorMessage(body []byte) string {
	if !gjson.ValidBytes(body) {
		return strings.TrimSpace(string(body))
	}
	for _, path := range []string{"error", "message", "resultMsg", "response.message", "response.resultMsg"} {
		if res := gjson.GetBytes(body, path); res.Exists() && res.Type == gjson.String && res.Str != "" {
			return res.Str
		}
	}
	return ""
}
