// Package authsvc is a client of the admin API of the Identity Store (Supabase GoTrue).
package authsvc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/juju/clock"
	"github.com/juju/retry"
	"github.com/pkg/errors"

	"github.com/Zakaria-Filali-dev/banat-hawaa-school-sub001/core"
	"github.com/Zakaria-Filali-dev/banat-hawaa-school-sub001/core/user"
)

const (
	usersPath   = "/auth/v1/admin/users"
	perPage     = 200
	maxBodySize = 1 << 20
)

type (
	Client struct {
		baseURL    string
		serviceKey string
		httpClient *http.Client
		attempts   int
		delay      time.Duration
		clock      clock.Clock
	}

	Option func(*Client)

	apiError struct {
		status int
		code   string
		msg    string
	}

	listUsersResponse struct {
		Users []user.Identity `json:"users"`
	}
)

var _ user.IdentityStore = (*Client)(nil)

func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) { cl.httpClient = c }
}

// WithRetry sets the attempts and the delay of the idempotent requests.
func WithRetry(attempts int, delay time.Duration, clk clock.Clock) Option {
	return func(cl *Client) {
		if attempts > 0 {
			cl.attempts = attempts
		}
		if delay > 0 {
			cl.delay = delay
		}
		if clk != nil {
			cl.clock = clk
		}
	}
}

func NewClient(conf core.SupabaseConfig, opts ...Option) *Client {
	cl := &Client{
		baseURL:    strings.TrimRight(conf.URL, "/"),
		serviceKey: conf.ServiceKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		attempts:   3,
		delay:      250 * time.Millisecond,
		clock:      clock.WallClock,
	}
	for _, opt := range opts {
		opt(cl)
	}
	return cl
}

func (e apiError) Error() string {
	if e.code != "" {
		return fmt.Sprintf("%d %s: %s", e.status, e.code, e.msg)
	}
	return fmt.Sprintf("%d: %s", e.status, e.msg)
}

// retryable reports whether a failed request may succeed if sent again.
func retryable(err error) bool {
	switch e := errors.Cause(err).(type) {
	case apiError:
		return e.status >= http.StatusInternalServerError || e.status == http.StatusTooManyRequests
	case *core.ConfigError:
		return false
	}
	return true
}

// CreateIdentity creates a confirmed account without password; the user chooses it through the setup link.
func (cl *Client) CreateIdentity(ctx context.Context, email string, metadata map[string]interface{}) (user.Identity, error) {
	body := map[string]interface{}{
		"email":         email,
		"email_confirm": true,
		"user_metadata": metadata,
	}
	var idt user.Identity
	if err := cl.do(ctx, http.MethodPost, usersPath, body, &idt); err != nil {
		return user.Identity{}, cl.mapError("creating identity", err)
	}
	return idt, nil
}

func (cl *Client) GetIdentity(ctx context.Context, filter user.GetFilter) (user.Identity, error) {
	if filter.ID != "" {
		if _, err := uuid.Parse(filter.ID); err != nil {
			return user.Identity{}, user.ErrNotFound
		}
		var idt user.Identity
		err := cl.withRetry(ctx, func() error {
			return cl.do(ctx, http.MethodGet, usersPath+"/"+url.PathEscape(filter.ID), nil, &idt)
		})
		if err != nil {
			return user.Identity{}, cl.mapError("getting identity", err)
		}
		return idt, nil
	}
	if filter.Email == "" {
		return user.Identity{}, user.ErrNotFound
	}
	return cl.findByEmail(ctx, filter.Email)
}

// findByEmail pages through the users, the admin API having no email filter.
func (cl *Client) findByEmail(ctx context.Context, email string) (user.Identity, error) {
	for page := 1; ; page++ {
		q := url.Values{}
		q.Set("page", strconv.Itoa(page))
		q.Set("per_page", strconv.Itoa(perPage))

		var res listUsersResponse
		err := cl.withRetry(ctx, func() error {
			res = listUsersResponse{}
			return cl.do(ctx, http.MethodGet, usersPath+"?"+q.Encode(), nil, &res)
		})
		if err != nil {
			return user.Identity{}, cl.mapError("listing identities", err)
		}
		for _, idt := range res.Users {
			if strings.EqualFold(idt.Email, email) {
				return idt, nil
			}
		}
		if len(res.Users) < perPage {
			return user.Identity{}, user.ErrNotFound
		}
	}
}

func (cl *Client) UpdatePassword(ctx context.Context, id, password string) (user.Identity, error) {
	if _, err := uuid.Parse(id); err != nil {
		return user.Identity{}, user.ErrNotFound
	}
	var idt user.Identity
	if err := cl.do(ctx, http.MethodPut, usersPath+"/"+url.PathEscape(id), map[string]string{"password": password}, &idt); err != nil {
		return user.Identity{}, cl.mapError("updating password", err)
	}
	return idt, nil
}

func (cl *Client) DeleteIdentity(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return user.ErrNotFound
	}
	err := cl.withRetry(ctx, func() error {
		return cl.do(ctx, http.MethodDelete, usersPath+"/"+url.PathEscape(id), nil, nil)
	})
	if err != nil {
		return cl.mapError("deleting identity", err)
	}
	return nil
}

func (cl *Client) withRetry(ctx context.Context, f func() error) error {
	var lastErr error
	err := retry.Call(retry.CallArgs{
		Func: func() error {
			lastErr = f()
			return lastErr
		},
		IsFatalError: func(err error) bool { return !retryable(err) || ctx.Err() != nil },
		Attempts:     cl.attempts,
		Delay:        cl.delay,
		BackoffFunc:  retry.DoubleDelay,
		Clock:        cl.clock,
		Stop:         ctx.Done(),
	})
	if err != nil && lastErr != nil {
		return lastErr
	}
	return err
}

func (cl *Client) mapError(op string, err error) error {
	if _, ok := errors.Cause(err).(*core.ConfigError); ok {
		return err
	}
	apiErr, ok := errors.Cause(err).(apiError)
	if !ok {
		return core.NewUpstreamError("auth", op, err)
	}
	switch {
	case apiErr.status == http.StatusNotFound:
		return user.ErrNotFound
	case apiErr.status == http.StatusUnprocessableEntity &&
		(apiErr.code == "email_exists" || strings.Contains(strings.ToLower(apiErr.msg), "already been registered")):
		return user.ErrEmailExists
	case apiErr.status == http.StatusUnprocessableEntity && apiErr.code == "weak_password":
		return core.NewValidationError(apiErr, core.FieldError{Field: "password", Error: apiErr.msg})
	}
	return core.NewUpstreamError("auth", op, apiErr)
}

func (cl *Client) do(ctx context.Context, method, path string, body, dest interface{}) error {
	if cl.baseURL == "" || cl.serviceKey == "" {
		return core.NewConfigError("SUPABASE_URL", "SUPABASE_SERVICE_ROLE_KEY")
	}

	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return errors.Wrap(err, "encoding request")
		}
		rdr = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, cl.baseURL+path, rdr)
	if err != nil {
		return errors.Wrap(err, "creating request")
	}
	req.Header.Set("apikey", cl.serviceKey)
	req.Header.Set("Authorization", "Bearer "+cl.serviceKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	res, err := cl.httpClient.Do(req)
	if err != nil {
		return errors.Wrapf(err, "%s %s", method, path)
	}
	defer res.Body.Close()
	data, err := io.ReadAll(io.LimitReader(res.Body, maxBodySize))
	if err != nil {
		return errors.Wrap(err, "reading response")
	}

	if res.StatusCode >= http.StatusBadRequest {
		return parseAPIError(res.StatusCode, data)
	}
	if dest != nil && len(data) > 0 {
		if err := json.Unmarshal(data, dest); err != nil {
			return errors.Wrap(err, "decoding response")
		}
	}
	return nil
}

// parseAPIError reads the error payloads of the different GoTrue versions.
func parseAPIError(status int, data []byte) apiError {
	var payload struct {
		ErrorCode        string `json:"error_code"`
		Msg              string `json:"msg"`
		Message          string `json:"message"`
		Error            string `json:"error"`
		ErrorDescription string `json:"error_description"`
	}
	_ = json.Unmarshal(data, &payload)

	apiErr := apiError{status: status, code: payload.ErrorCode}
	for _, msg := range []string{payload.Msg, payload.Message, payload.ErrorDescription, payload.Error} {
		if msg != "" {
			apiErr.msg = msg
			break
		}
	}
	if apiErr.msg == "" {
		apiErr.msg = http.StatusText(status)
	}
	return apiErr
}
