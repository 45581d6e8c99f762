// Package client is the Go counterpart of the browser auth layer: a typed API
// client, a cached auth context and the auto-logout watcher.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"time"

	"github.com/bengaltrails/bengaltrails-go/internal/model"
)

const defaultHTTPTimeout = 10 * time.Second

// APIError is a non-2xx answer from the server.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("request failed with status %d", e.Status)
	}
	return e.Message
}

// IsUnauthorized reports whether err is a 401 from the server.
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized
}

// API talks to the auth routes. The session cookie lives in the HTTP client's
// jar, so one API value is one browser.
type API struct {
	baseURL string
	http    *http.Client
}

// NewAPI creates a client for baseURL. A nil httpClient gets a fresh cookie
// jar; a supplied client without a jar is given one.
func NewAPI(baseURL string, httpClient *http.Client) (*API, error) {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultHTTPTimeout}
	}
	if httpClient.Jar == nil {
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, fmt.Errorf("create cookie jar: %w", err)
		}
		httpClient.Jar = jar
	}

	return &API{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
	}, nil
}

func (a *API) Signup(ctx context.Context, name, email, password string) (model.UserResponse, error) {
	var env model.UserEnvelope
	err := a.do(ctx, http.MethodPost, "/auth/signup", model.SignupRequest{
		Name:     name,
		Email:    email,
		Password: password,
	}, &env)
	return env.User, err
}

func (a *API) Login(ctx context.Context, email, password string) (model.UserResponse, error) {
	var env model.UserEnvelope
	err := a.do(ctx, http.MethodPost, "/auth/login", model.LoginRequest{
		Email:    email,
		Password: password,
	}, &env)
	return env.User, err
}

// Logout ends the server session. reason is optional and only logged.
func (a *API) Logout(ctx context.Context, reason string) error {
	var body any
	if reason != "" {
		body = model.LogoutRequest{Reason: reason}
	}
	return a.do(ctx, http.MethodPost, "/auth/logout", body, &model.OKResponse{})
}

// Profile returns the user of the current session.
func (a *API) Profile(ctx context.Context) (model.UserResponse, error) {
	var env model.UserEnvelope
	err := a.do(ctx, http.MethodGet, "/user/profile", nil, &env)
	return env.User, err
}

func (a *API) UpdateName(ctx context.Context, name string) (model.UserResponse, error) {
	var env model.UserEnvelope
	err := a.do(ctx, http.MethodPost, "/user/update", model.UpdateUserRequest{Name: name}, &env)
	return env.User, err
}

func (a *API) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, a.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := a.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var e struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(io.LimitReader(resp.Body, 1<<16)).Decode(&e)
		return &APIError{Status: resp.StatusCode, Message: e.Error}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
