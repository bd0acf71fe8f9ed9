// Package stockapi is the HTTP client adapter for the remote stock-admin API.
// Every outbound request passes through the registered request interceptors
// (bearer token, request ID) before it is sent.
package stockapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/boddenberg/stock-admin-panel-go/internal/domain"
	"github.com/boddenberg/stock-admin-panel-go/internal/infra/observability"
	"github.com/boddenberg/stock-admin-panel-go/internal/infra/resilience"
	"github.com/boddenberg/stock-admin-panel-go/internal/port"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("stockapi")

// DefaultCredentialHeader is the header privileged endpoints read the service credential from.
const DefaultCredentialHeader = "token"

const maxLoggedBody = 512

// RequestInterceptor mutates an outbound request before it is sent.
// Returning an error aborts the request.
type RequestInterceptor func(req *http.Request) error

// BearerToken attaches "Authorization: Bearer <token>" when the store holds
// a token. Requests proceed unmodified otherwise.
func BearerToken(store port.SessionStore) RequestInterceptor {
	return func(req *http.Request) error {
		if token, ok := store.Token(); ok {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		return nil
	}
}

// RequestID propagates the inbound request ID (or a fresh one) as X-Request-ID.
func RequestID() RequestInterceptor {
	return func(req *http.Request) error {
		if req.Header.Get(middleware.RequestIDHeader) != "" {
			return nil
		}
		id := middleware.GetReqID(req.Context())
		if id == "" {
			id = uuid.NewString()
		}
		req.Header.Set(middleware.RequestIDHeader, id)
		return nil
	}
}

// CountsAsSuccess tells the circuit breaker which outcomes are healthy:
// only retryable failures (transport, 5xx, 429) count against the upstream.
func CountsAsSuccess(err error) bool {
	return err == nil || !domain.IsRetryable(err)
}

// Client calls the stock API.
type Client struct {
	httpClient       *http.Client
	baseURL          string
	cb               *gobreaker.CircuitBreaker
	bulkhead         *resilience.Bulkhead
	sessions         port.SessionStore
	credentials      port.CredentialSource
	credentialHeader string
	interceptors     []RequestInterceptor
	metrics          *observability.Metrics
	logger           *zap.Logger
}

// NewClient creates a Client. The bearer-token and request-ID interceptors
// are always installed; Use appends more.
func NewClient(
	httpClient *http.Client,
	baseURL string,
	cb *gobreaker.CircuitBreaker,
	bulkhead *resilience.Bulkhead,
	sessions port.SessionStore,
	credentials port.CredentialSource,
	credentialHeader string,
	metrics *observability.Metrics,
	logger *zap.Logger,
) *Client {
	if credentialHeader == "" {
		credentialHeader = DefaultCredentialHeader
	}
	return &Client{
		httpClient:       httpClient,
		baseURL:          strings.TrimRight(baseURL, "/"),
		cb:               cb,
		bulkhead:         bulkhead,
		sessions:         sessions,
		credentials:      credentials,
		credentialHeader: credentialHeader,
		interceptors:     []RequestInterceptor{BearerToken(sessions), RequestID()},
		metrics:          metrics,
		logger:           logger,
	}
}

// Use appends request interceptors, run in registration order.
func (c *Client) Use(interceptors ...RequestInterceptor) {
	c.interceptors = append(c.interceptors, interceptors...)
}

// BreakerState reports the circuit breaker state for health checks.
func (c *Client) BreakerState() gobreaker.State {
	return c.cb.State()
}

// call describes one outbound request.
type call struct {
	operation   string
	method      string
	path        string
	body        []byte
	contentType string
	privileged  bool
	// credentialCheck marks the login call: its 401 rejects the submitted
	// credentials and says nothing about the stored session.
	credentialCheck bool
	out             any
}

func jsonCall(operation, method, path string, in, out any) (call, error) {
	c := call{operation: operation, method: method, path: path, out: out}
	if in != nil {
		body, err := json.Marshal(in)
		if err != nil {
			return call{}, fmt.Errorf("%s: encode body: %w", operation, err)
		}
		c.body = body
		c.contentType = "application/json"
	}
	return c, nil
}

// do runs a call through the bulkhead and circuit breaker, with tracing and metrics.
func (c *Client) do(ctx context.Context, cl call) error {
	ctx, span := tracer.Start(ctx, "StockAPI."+cl.operation)
	defer span.End()
	span.SetAttributes(
		attribute.String("http.method", cl.method),
		attribute.String("stockapi.path", cl.path),
	)

	start := time.Now()
	defer func() {
		c.metrics.RecordUpstream(cl.operation, time.Since(start))
	}()

	if err := c.bulkhead.Acquire(ctx); err != nil {
		return err
	}
	defer c.bulkhead.Release()

	_, err := c.cb.Execute(func() (any, error) {
		return nil, c.send(ctx, cl)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		err = &domain.ErrCircuitOpen{Service: "stock-api"}
	}

	if err != nil {
		kind := string(domain.ErrorKindTerminal)
		if domain.IsRetryable(err) {
			kind = string(domain.ErrorKindRetryable)
		}
		c.metrics.IncrUpstreamError(cl.operation, kind)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

func (c *Client) send(ctx context.Context, cl call) error {
	var body io.Reader
	if cl.body != nil {
		body = bytes.NewReader(cl.body)
	}

	req, err := http.NewRequestWithContext(ctx, cl.method, c.baseURL+cl.path, body)
	if err != nil {
		return fmt.Errorf("%s: build request: %w", cl.operation, err)
	}
	req.Header.Set("Accept", "application/json")
	if cl.contentType != "" {
		req.Header.Set("Content-Type", cl.contentType)
	}

	if cl.privileged {
		token, err := c.credentials.ServiceToken(ctx)
		if err != nil {
			return err
		}
		req.Header.Set(c.credentialHeader, token)
	}

	for _, intercept := range c.interceptors {
		if err := intercept(req); err != nil {
			return fmt.Errorf("%s: interceptor: %w", cl.operation, err)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		c.logger.Error("stockapi: request failed",
			zap.String("operation", cl.operation),
			zap.String("method", cl.method),
			zap.String("path", cl.path),
			zap.Error(err),
		)
		return &domain.ErrExternalService{Service: cl.operation, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return &domain.ErrExternalService{Service: cl.operation, Err: fmt.Errorf("read body: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Warn("stockapi: non-2xx response",
			zap.String("operation", cl.operation),
			zap.String("method", cl.method),
			zap.String("path", cl.path),
			zap.Int("status", resp.StatusCode),
			zap.String("body", truncate(raw)),
		)
		return c.statusError(cl, resp.StatusCode, raw)
	}

	c.logger.Debug("stockapi: request OK",
		zap.String("operation", cl.operation),
		zap.String("path", cl.path),
		zap.Int("status", resp.StatusCode),
	)

	if cl.out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, cl.out); err != nil {
		return &domain.ErrExternalService{
			Service: cl.operation,
			Status:  resp.StatusCode,
			Body:    truncate(raw),
			Err:     fmt.Errorf("decode response: %w", err),
		}
	}
	return nil
}

// statusError maps a non-2xx status to a typed error. A 401 also ends the
// stored session, except on login.
func (c *Client) statusError(cl call, status int, raw []byte) error {
	operation := cl.operation
	msg := remoteMessage(raw)

	switch status {
	case http.StatusUnauthorized:
		if _, had := c.sessions.Token(); had && !cl.credentialCheck {
			if err := c.sessions.ClearToken(); err != nil {
				c.logger.Error("stockapi: failed to clear session after 401", zap.Error(err))
			} else {
				c.metrics.IncrSessionEvent("cleared")
				c.logger.Info("stockapi: session cleared after 401", zap.String("operation", operation))
			}
		}
		if msg == "" {
			msg = "sessão inválida ou expirada"
		}
		return &domain.ErrUnauthorized{Message: msg}
	case http.StatusNotFound:
		return &domain.ErrNotFound{Resource: operation}
	case http.StatusConflict:
		if msg == "" {
			msg = "registro já existe"
		}
		return &domain.ErrConflict{Message: msg}
	}

	inner := fmt.Errorf("stock API returned status %d", status)
	if msg != "" {
		inner = fmt.Errorf("stock API returned status %d: %s", status, msg)
	}
	return &domain.ErrExternalService{
		Service: operation,
		Status:  status,
		Body:    truncate(raw),
		Err:     inner,
	}
}

// remoteMessage extracts {"message": ...} or {"error": ...} from an error body.
func remoteMessage(raw []byte) string {
	var body struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return ""
	}
	if body.Message != "" {
		return body.Message
	}
	return body.Error
}

func truncate(raw []byte) string {
	if len(raw) > maxLoggedBody {
		return string(raw[:maxLoggedBody]) + "…"
	}
	return string(raw)
}
