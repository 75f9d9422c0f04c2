// Package remote is the only code that talks to the expense REST API. Each
// Client is bound to one browser session and attaches its credential to
// every call.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"expensetracker/internal/log"
	"expensetracker/internal/session"
)

// maxBodySize bounds how much of a response is read.
const maxBodySize = 10 << 20

// Config locates the API.
type Config struct {
	// BaseURL is the API root, e.g. http://localhost:8080/api.
	BaseURL string
	// Timeout bounds each call; zero leaves it to the transport.
	Timeout time.Duration
}

// UnauthorizedPolicy runs when the API answers 401. The default clears
// the session so the next page load is redirected to sign in.
type UnauthorizedPolicy func(ctx context.Context, sess *session.Session) error

// ClearSession is the default UnauthorizedPolicy.
func ClearSession(ctx context.Context, sess *session.Session) error {
	return sess.Clear(ctx)
}

type Option func(*Client)

func WithUnauthorizedPolicy(p UnauthorizedPolicy) Option {
	return func(c *Client) {
		if p != nil {
			c.onUnauthorized = p
		}
	}
}

// WithHTTPClient shares one transport across the per-session clients.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

func WithLogger(l *log.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l.WithComponent(log.ComponentRemote)
		}
	}
}

// Client calls the expense API on behalf of one session.
type Client struct {
	baseURL        string
	timeout        time.Duration
	http           *http.Client
	session        *session.Session
	onUnauthorized UnauthorizedPolicy
	logger         *log.Logger
}

// New binds a client to sess. A nil session behaves as a signed-out one.
func New(cfg Config, sess *session.Session, opts ...Option) *Client {
	if sess == nil {
		sess = session.New("", nil)
	}
	c := &Client{
		baseURL:        strings.TrimRight(cfg.BaseURL, "/"),
		timeout:        cfg.Timeout,
		http:           &http.Client{},
		session:        sess,
		onUnauthorized: ClearSession,
		logger:         log.FromContext(context.Background()).WithComponent(log.ComponentRemote),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Session returns the session this client acts for.
func (c *Client) Session() *session.Session {
	return c.session
}

type response struct {
	status int
	body   []byte
}

// send performs one round trip. Only failures to get a response are
// reported as errors; status handling is left to the caller.
func (c *Client) send(ctx context.Context, op, method, path string, query url.Values, payload any) (*response, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, newError(ErrTransport, op, 0, "", fmt.Errorf("encode request: %w", err))
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, newError(ErrTransport, op, 0, "", fmt.Errorf("build request: %w", err))
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	cred, hasToken := c.session.Credential()
	if hasToken {
		req.Header.Set("Authorization", cred.AuthorizationHeader())
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.WarnContext(ctx, "API request failed",
			log.NewFields().WithRemoteCall(method, path, 0, time.Since(start), hasToken).WithError(err).ToSlice()...)
		return nil, newError(ErrTransport, op, 0, "", err)
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, newError(ErrTransport, op, resp.StatusCode, "", fmt.Errorf("read response: %w", err))
	}

	c.logger.DebugContext(ctx, "API request completed",
		log.NewFields().WithRemoteCall(method, path, resp.StatusCode, time.Since(start), hasToken).ToSlice()...)

	return &response{status: resp.StatusCode, body: b}, nil
}

// check maps a non-2xx status to a typed error. A 401 runs the
// unauthorized policy first.
func (c *Client) check(ctx context.Context, op string, resp *response) error {
	switch s := resp.status; {
	case s >= 200 && s < 300:
		return nil
	case s == http.StatusUnauthorized:
		if err := c.onUnauthorized(ctx, c.session); err != nil {
			c.logger.WarnContext(ctx, "Unauthorized policy failed", log.FieldOperation, op, log.FieldError, err)
		}
		return newError(ErrAuthorization, op, s, "", nil)
	case s == http.StatusForbidden:
		return newError(ErrAuthorization, op, s, "", nil)
	case s == http.StatusNotFound:
		return newError(ErrNotFound, op, s, serverMessage(resp.body), nil)
	case s == http.StatusBadRequest || s == http.StatusConflict || s == http.StatusUnprocessableEntity:
		return newError(ErrValidation, op, s, serverMessage(resp.body), nil)
	default:
		return newError(ErrTransport, op, s, "", nil)
	}
}

// call sends a request, checks the status and decodes the data member of
// the response envelope into out. out may be nil.
func (c *Client) call(ctx context.Context, method, path string, query url.Values, payload, out any) error {
	op := method + " " + path
	resp, err := c.send(ctx, op, method, path, query, payload)
	if err != nil {
		return err
	}
	if err := c.check(ctx, op, resp); err != nil {
		return err
	}
	data, err := unwrapEnvelope(resp.body)
	if err != nil {
		return newError(ErrTransport, op, resp.status, "", err)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return newError(ErrTransport, op, resp.status, "", fmt.Errorf("decode data: %w", err))
	}
	return nil
}

// unwrapEnvelope returns the data member of {data, responseDate, isSuccess, message}.
func unwrapEnvelope(body []byte) (json.RawMessage, error) {
	var env map[string]json.RawMessage
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("response is not a JSON object: %w", err)
	}
	data, ok := env["data"]
	if !ok {
		return nil, fmt.Errorf("response has no data member")
	}
	return data, nil
}

// serverMessage extracts a human readable reason from an error body. Both
// the envelope and Spring's default error object carry it in message.
func serverMessage(body []byte) string {
	var obj struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &obj); err == nil {
		if obj.Message != "" {
			return obj.Message
		}
		return obj.Error
	}
	text := strings.TrimSpace(string(body))
	if len(text) > 200 || strings.HasPrefix(text, "<") {
		return ""
	}
	return text
}
