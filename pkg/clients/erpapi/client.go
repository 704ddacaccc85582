package erpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/luccibyey/atelier/internal/config"
)

var (
	// ErrMalformedResponse is returned when the API answers with something that is not JSON.
	ErrMalformedResponse = errors.New("malformed api response")
	// ErrUnavailable wraps transport failures such as refused connections or timeouts.
	ErrUnavailable = errors.New("erp api unavailable")
)

// APIError is a non-2xx answer or a `success: false` envelope.
type APIError struct {
	Endpoint   string
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("erp api %s: status %d", e.Endpoint, e.StatusCode)
	}
	return fmt.Sprintf("erp api %s: status %d: %s", e.Endpoint, e.StatusCode, e.Message)
}

// Attachment is a file uploaded alongside a form.
type Attachment struct {
	Field    string
	Filename string
	Reader   io.Reader
}

// APIClient is a resty-backed client of the PHP production API. Mutating calls
// are never retried.
type APIClient struct {
	httpClient *resty.Client
	logger     *zap.Logger
}

// NewClient builds a client from the configured base URL and timeout.
func NewClient(cfg config.ERPAPIConfig, logger *zap.Logger) *APIClient {
	if logger == nil {
		logger = zap.NewNop()
	}

	restyClient := resty.New().
		SetBaseURL(strings.TrimSuffix(cfg.BaseURL, "/")).
		SetHeader("Accept", "application/json").
		SetTimeout(cfg.Timeout).
		SetRetryCount(0)

	return &APIClient{
		httpClient: restyClient,
		logger:     logger,
	}
}

type call struct {
	method   string
	endpoint string
	query    map[string]string
	body     any
	form     map[string]string
	file     *Attachment
	// raw skips envelope unwrapping for endpoints that answer with a bare object.
	raw bool
}

type envelope struct {
	Success *Bool           `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message Text            `json:"message"`
	Error   Text            `json:"error"`
}

func (c *APIClient) do(ctx context.Context, req call) (json.RawMessage, string, error) {
	r := c.httpClient.R().SetContext(ctx)
	if len(req.query) > 0 {
		r.SetQueryParams(req.query)
	}

	switch {
	case req.file != nil:
		field := req.file.Field
		if field == "" {
			field = "image"
		}
		r.SetFormData(req.form).SetFileReader(field, req.file.Filename, req.file.Reader)
	case req.form != nil:
		r.SetFormData(req.form)
	case req.body != nil:
		r.SetHeader("Content-Type", "application/json").SetBody(req.body)
	}

	resp, err := r.Execute(req.method, req.endpoint)
	if err != nil {
		c.logger.Error("erp api request failed",
			zap.String("method", req.method),
			zap.String("endpoint", req.endpoint),
			zap.Error(err))
		return nil, "", fmt.Errorf("%s %s: %w: %w", req.method, req.endpoint, ErrUnavailable, err)
	}

	body := bytes.TrimSpace(resp.Body())
	status := resp.StatusCode()

	if status >= http.StatusBadRequest {
		apiErr := &APIError{Endpoint: req.endpoint, StatusCode: status}
		var env envelope
		if json.Unmarshal(body, &env) == nil {
			apiErr.Message = firstNonEmpty(string(env.Message), string(env.Error))
		}
		c.logger.Warn("erp api error", zap.String("endpoint", req.endpoint), zap.Int("status", status), zap.String("message", apiErr.Message))
		return nil, "", apiErr
	}

	if !json.Valid(body) {
		c.logger.Error("erp api returned non-json body",
			zap.String("endpoint", req.endpoint),
			zap.Int("status", status),
			zap.String("body", truncate(string(body), 512)))
		return nil, "", fmt.Errorf("%w: %s answered status %d", ErrMalformedResponse, req.endpoint, status)
	}

	if req.raw || (len(body) > 0 && body[0] == '[') {
		return json.RawMessage(body), "", nil
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, "", fmt.Errorf("%w: %s: %v", ErrMalformedResponse, req.endpoint, err)
	}

	message := firstNonEmpty(string(env.Message), string(env.Error))
	if env.Success != nil && !bool(*env.Success) {
		return nil, message, &APIError{Endpoint: req.endpoint, StatusCode: status, Message: message}
	}

	if len(env.Data) == 0 || string(env.Data) == "null" {
		return json.RawMessage(body), message, nil
	}
	return env.Data, message, nil
}

func (c *APIClient) get(ctx context.Context, endpoint string, query map[string]string, out any) error {
	data, _, err := c.do(ctx, call{method: http.MethodGet, endpoint: endpoint, query: query})
	if err != nil {
		return err
	}
	return decode(endpoint, data, out)
}

func decode(endpoint string, data json.RawMessage, out any) error {
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%w: decode %s: %v", ErrMalformedResponse, endpoint, err)
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
