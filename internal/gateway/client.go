// Package gateway calls the practice's REST microservices on behalf of the
// signed-in session.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/middleware"

	"github.com/frahmantamala/practice-gateway/internal"
	"github.com/frahmantamala/practice-gateway/internal/session"
)

const (
	ServiceAuth         = "auth"
	ServiceTenant       = "tenant"
	ServiceProcess      = "process"
	ServiceReport       = "report"
	ServiceSearch       = "search"
	ServiceAI           = "ai"
	ServiceNotification = "notification"

	HeaderTenantID = "X-Tenant-ID"
)

var ErrUnknownService = errors.New("gateway: unknown service")

type Endpoint struct {
	BaseURL string
	Timeout time.Duration
}

// UnauthorizedFunc is called when an upstream answers 401 for the session
// carried by ctx.
type UnauthorizedFunc func(ctx context.Context)

// Recorder receives one call per upstream round trip.
type Recorder interface {
	RecordUpstream(service string, status int, elapsed time.Duration)
}

// ServiceError is a non-2xx answer from an upstream.
type ServiceError struct {
	Service string
	Status  int
	Code    string
	Message string
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("%s service returned %d: %s", e.Service, e.Status, e.Message)
}

// apiError is the error body the microservices send.
type apiError struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

type Client struct {
	endpoints      map[string]Endpoint
	http           *http.Client
	logger         *slog.Logger
	onUnauthorized UnauthorizedFunc
	rec            Recorder
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func WithUnauthorizedHandler(fn UnauthorizedFunc) Option {
	return func(c *Client) { c.onUnauthorized = fn }
}

func WithRecorder(r Recorder) Option {
	return func(c *Client) { c.rec = r }
}

func NewClient(endpoints map[string]Endpoint, logger *slog.Logger, opts ...Option) *Client {
	c := &Client{
		endpoints: make(map[string]Endpoint, len(endpoints)),
		http:      &http.Client{},
		logger:    logger,
	}
	for name, ep := range endpoints {
		ep.BaseURL = strings.TrimRight(ep.BaseURL, "/")
		if ep.Timeout <= 0 {
			ep.Timeout = 30 * time.Second
		}
		c.endpoints[name] = ep
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetUnauthorizedHandler installs the forced-logout hook after construction,
// for wiring where the session service is built later.
func (c *Client) SetUnauthorizedHandler(fn UnauthorizedFunc) {
	c.onUnauthorized = fn
}

// Do sends one JSON request to service and decodes the answer into out,
// unwrapping the {data, message, success, timestamp} envelope when present.
// There are no retries. A 401 triggers the unauthorized hook and returns
// an UNAUTHORIZED AppError; other failures return EXTERNAL_ERROR.
func (c *Client) Do(ctx context.Context, service, method, path string, body, out any) error {
	ep, ok := c.endpoints[service]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownService, service)
	}

	ctx, cancel := context.WithTimeout(ctx, ep.Timeout)
	defer cancel()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal %s request: %w", service, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, ep.BaseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build %s request: %w", service, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	ApplyCredentials(ctx, req.Header)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.observe(service, 0, start)
		if ctx.Err() != nil && errors.Is(ctx.Err(), context.Canceled) {
			return ctx.Err()
		}
		c.logger.WarnContext(ctx, "upstream request failed", "service", service, "path", path, "error", err)
		return internal.NewExternalError(fmt.Sprintf("%s service is unavailable", service), err)
	}
	defer resp.Body.Close()
	c.observe(service, resp.StatusCode, start)

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return internal.NewExternalError(fmt.Sprintf("failed to read %s response", service), err)
	}

	if resp.StatusCode == http.StatusUnauthorized {
		c.logger.WarnContext(ctx, "upstream rejected session", "service", service, "path", path)
		if c.onUnauthorized != nil {
			c.onUnauthorized(ctx)
		}
		return internal.ErrUpstreamUnauthorized.WithCause(serviceError(service, resp.StatusCode, raw))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		serr := serviceError(service, resp.StatusCode, raw)
		return internal.NewExternalError(serr.Message, serr).WithDetails(map[string]any{
			"service": service,
			"status":  resp.StatusCode,
			"code":    serr.Code,
		})
	}

	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := DecodeEnvelope(raw, out); err != nil {
		return internal.NewExternalError(fmt.Sprintf("unexpected %s response", service), err)
	}
	return nil
}

// ApplyCredentials copies the session's upstream bearer token, tenant and
// request id into h.
func ApplyCredentials(ctx context.Context, h http.Header) {
	st := session.FromContext(ctx)
	if st.Token != "" {
		h.Set("Authorization", "Bearer "+st.Token)
	} else {
		h.Del("Authorization")
	}
	if tid := st.TenantID(); tid != "" {
		h.Set(HeaderTenantID, tid)
	} else {
		h.Del(HeaderTenantID)
	}
	if reqID := middleware.GetReqID(ctx); reqID != "" {
		h.Set("X-Request-ID", reqID)
	}
}

// DecodeEnvelope accepts either a raw payload or the
// {data, message, success, timestamp} envelope.
func DecodeEnvelope(raw []byte, out any) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err == nil {
		data, hasData := fields["data"]
		_, hasSuccess := fields["success"]
		_, hasTimestamp := fields["timestamp"]
		if hasData && (hasSuccess || hasTimestamp) {
			return json.Unmarshal(data, out)
		}
	}
	return json.Unmarshal(raw, out)
}

func serviceError(service string, status int, raw []byte) *ServiceError {
	serr := &ServiceError{Service: service, Status: status, Message: http.StatusText(status)}
	var body apiError
	if err := json.Unmarshal(raw, &body); err == nil {
		serr.Code = body.Code
		switch {
		case body.Message != "":
			serr.Message = body.Message
		case body.Error != "":
			serr.Message = body.Error
		}
	}
	return serr
}

func (c *Client) observe(service string, status int, start time.Time) {
	if c.rec != nil {
		c.rec.RecordUpstream(service, status, time.Since(start))
	}
}
