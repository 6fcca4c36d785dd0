package client

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
	"time"

	"github.com/dmitrijs2005/jobportal/internal/client/models"
	"github.com/dmitrijs2005/jobportal/internal/common"
	"github.com/dmitrijs2005/jobportal/internal/logging"
	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"
)

const (
	refreshPath = "/refresh"
	maxBodySize = 1 << 20
)

var errNoRefreshToken = errors.New("no refresh token")

// HTTPClient is the authenticated request wrapper. It is safe for concurrent
// use.
type HTTPClient struct {
	baseURL      string
	hc           *http.Client
	store        CredentialStore
	limiter      *rate.Limiter
	timeout      time.Duration
	logger       logging.Logger
	onInvalidate func(ctx context.Context)
	refreshGroup singleflight.Group
}

type Option func(*HTTPClient)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *HTTPClient) { c.hc = hc }
}

func WithLogger(l logging.Logger) Option {
	return func(c *HTTPClient) { c.logger = l }
}

// WithRateLimit throttles outbound requests to rps with the given burst.
// rps <= 0 disables throttling.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *HTTPClient) {
		if rps <= 0 {
			c.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithTimeout bounds every single request, including the refresh call.
func WithTimeout(d time.Duration) Option {
	return func(c *HTTPClient) { c.timeout = d }
}

// WithOnInvalidate registers the hook run after a rejected refresh has
// cleared the session, typically a redirect to the login entry point.
func WithOnInvalidate(fn func(ctx context.Context)) Option {
	return func(c *HTTPClient) { c.onInvalidate = fn }
}

func NewHTTPClient(baseURL string, store CredentialStore, opts ...Option) (*HTTPClient, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid base url %q: scheme must be http or https", baseURL)
	}

	c := &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		hc:      &http.Client{},
		store:   store,
		logger:  logging.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Response is a fully read 2xx response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Decode unmarshals the JSON body into v. An empty body leaves v untouched.
func (r *Response) Decode(v any) error {
	if len(bytes.TrimSpace(r.Body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// Do sends a request to path relative to the base URL. body, when not nil,
// is sent as JSON. Non-2xx answers are returned as *Error.
func (c *HTTPClient) Do(ctx context.Context, method, path string, body any, headers http.Header) (*Response, error) {
	return c.do(ctx, method, path, body, headers, true)
}

// DoPublic is Do for endpoints that authenticate by their body (login, OTP,
// password reset). A 401 there means bad input, so it is returned as is
// without touching the session.
func (c *HTTPClient) DoPublic(ctx context.Context, method, path string, body any, headers http.Header) (*Response, error) {
	return c.do(ctx, method, path, body, headers, false)
}

func (c *HTTPClient) do(ctx context.Context, method, path string, body any, headers http.Header, refreshOn401 bool) (*Response, error) {
	payload, err := encodeBody(body)
	if err != nil {
		return nil, err
	}

	token := c.store.AccessToken()
	resp, err := c.send(ctx, method, path, payload, headers, token)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusUnauthorized || !refreshOn401 {
		return result(resp)
	}

	newToken, err := c.refresh(ctx, token)
	if err != nil {
		if errors.Is(err, errNoRefreshToken) {
			return result(resp)
		}
		return nil, err
	}

	// Exactly one retry. A second 401 is returned as is.
	resp, err = c.send(ctx, method, path, payload, headers, newToken)
	if err != nil {
		return nil, err
	}
	return result(resp)
}

// refresh obtains a usable access token after staleToken was rejected.
// Concurrent callers share one refresh call.
func (c *HTTPClient) refresh(ctx context.Context, staleToken string) (string, error) {
	v, err, shared := c.refreshGroup.Do("refresh", func() (any, error) {
		// The refresh outlives a cancelled caller: other requests may wait on
		// it, and a rotated pair must reach durable storage once the server
		// has revoked the old one.
		ctx := context.WithoutCancel(ctx)

		// Another request may have refreshed since staleToken was sent.
		if current := c.store.AccessToken(); current != "" && current != staleToken {
			return current, nil
		}

		refreshToken, err := c.store.RefreshToken(ctx)
		if err != nil {
			c.logger.Warn(ctx, "cannot read refresh token", "error", err)
			return "", errNoRefreshToken
		}
		if refreshToken == "" {
			return "", errNoRefreshToken
		}

		cred, err := c.callRefresh(ctx, refreshToken)
		if err != nil {
			c.invalidate(ctx, err)
			return "", ErrSessionInvalidated
		}

		if err := c.store.UpdateTokens(ctx, cred); err != nil {
			c.logger.Warn(ctx, "refreshed tokens not persisted", "error", err)
		}
		c.logger.Debug(ctx, "access token refreshed")
		return cred.AccessToken, nil
	})
	if err != nil {
		return "", err
	}
	if shared {
		c.logger.Debug(ctx, "joined in-flight token refresh")
	}
	return v.(string), nil
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type refreshResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

func (c *HTTPClient) callRefresh(ctx context.Context, refreshToken string) (models.Credential, error) {
	payload, err := encodeBody(refreshRequest{RefreshToken: refreshToken})
	if err != nil {
		return models.Credential{}, err
	}

	resp, err := c.send(ctx, http.MethodPost, refreshPath, payload, nil, "")
	if err != nil {
		return models.Credential{}, err
	}
	if _, err := result(resp); err != nil {
		return models.Credential{}, err
	}

	var out refreshResponse
	if err := resp.Decode(&out); err != nil {
		return models.Credential{}, err
	}
	if out.AccessToken == "" {
		return models.Credential{}, errors.New("refresh response has no access token")
	}
	if out.RefreshToken == "" {
		out.RefreshToken = refreshToken
	}
	return models.Credential{AccessToken: out.AccessToken, RefreshToken: out.RefreshToken}, nil
}

func (c *HTTPClient) invalidate(ctx context.Context, cause error) {
	c.logger.Warn(ctx, "token refresh rejected, clearing session", "error", cause)
	if err := c.store.Invalidate(ctx); err != nil {
		c.logger.Error(ctx, "failed to clear session", "error", err)
	}
	if c.onInvalidate != nil {
		c.onInvalidate(ctx)
	}
}

func (c *HTTPClient) send(ctx context.Context, method, path string, payload []byte, headers http.Header, token string) (*Response, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("%s %s: %w", method, path, err)
		}
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	for k, vs := range headers {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	requestID := uuid.NewString()
	req.Header.Set(common.RequestIDHeaderName, requestID)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set(common.AuthorizationHeaderName, common.BearerPrefix+token)
	}

	start := time.Now()
	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, c.mapTransportError(ctx, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, c.mapTransportError(ctx, err)
	}

	c.logger.Debug(ctx, "request finished",
		"method", method, "path", path, "status", resp.StatusCode,
		"request_id", requestID, "duration", time.Since(start))

	return &Response{StatusCode: resp.StatusCode, Header: resp.Header, Body: data}, nil
}

func (c *HTTPClient) mapTransportError(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
		return &Error{Message: "request cancelled", Err: ctxErr}
	}
	c.logger.Debug(ctx, "transport error", "error", err)
	return &Error{Message: "service unavailable, check your connection", Err: fmt.Errorf("%w: %v", ErrUnavailable, err)}
}

func result(resp *Response) (*Response, error) {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return resp, nil
	}
	return nil, &Error{
		StatusCode: resp.StatusCode,
		Message:    errorMessage(resp),
		Err:        sentinelFor(resp.StatusCode),
	}
}

// errorMessage extracts {"message": ...} or {"error": ...} from the body,
// falling back to the raw text and then the status text.
func errorMessage(resp *Response) string {
	var body struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(resp.Body, &body); err == nil {
		if body.Message != "" {
			return body.Message
		}
		if body.Error != "" {
			return body.Error
		}
	}
	if text := strings.TrimSpace(string(resp.Body)); text != "" && len(text) < 200 && !strings.HasPrefix(text, "{") {
		return text
	}
	return http.StatusText(resp.StatusCode)
}

func encodeBody(body any) ([]byte, error) {
	if body == nil {
		return nil, nil
	}
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}
	return data, nil
}
