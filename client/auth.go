package client

import (
	"context"
	"errors"
	"net/http"
)

type credentialsBody struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Email    string `json:"email,omitempty"`
}

type authResult struct {
	Success bool  `json:"success"`
	User    *User `json:"user"`
}

type verifyResult struct {
	Valid bool  `json:"valid"`
	User  *User `json:"user"`
}

// Login authenticates the admin. On success the server's HttpOnly cookie
// lands in the client's jar and Authenticated reports true.
func (c *Client) Login(ctx context.Context, username, password string) (*User, error) {
	var res authResult
	err := c.do(ctx, http.MethodPost, "/api/auth/login", credentialsBody{Username: username, Password: password}, &res)
	if err != nil {
		return nil, c.translateAuthErr(err)
	}
	c.setAuthenticated(true)
	return res.User, nil
}

// Signup creates the admin account while none exists.
func (c *Client) Signup(ctx context.Context, username, email, password string) (*User, error) {
	var res authResult
	err := c.do(ctx, http.MethodPost, "/api/auth/signup", credentialsBody{Username: username, Email: email, Password: password}, &res)
	if err != nil {
		return nil, c.translateAuthErr(err)
	}
	c.setAuthenticated(true)
	return res.User, nil
}

// Verify asks the server whether the session cookie is still good.
//
// The distinction in the return values matters: a 401/403 clears the
// local session state, while a transport failure returns the error and
// leaves the state exactly as it was, so a flaky network never logs the
// admin out.
func (c *Client) Verify(ctx context.Context) (*User, bool, error) {
	var res verifyResult
	err := c.do(ctx, http.MethodPost, "/api/auth/verify", nil, &res)
	if err == nil {
		c.setAuthenticated(true)
		return res.User, true, nil
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		if apiErr.StatusCode == http.StatusUnauthorized || apiErr.StatusCode == http.StatusForbidden {
			c.setAuthenticated(false)
			return nil, false, nil
		}
		return nil, false, err
	}
	// Network failure: state unknown, keep whatever we had.
	return nil, c.Authenticated(), err
}

// Logout clears the server cookie and the local session state. Local
// state clears even when the request fails.
func (c *Client) Logout(ctx context.Context) error {
	err := c.do(ctx, http.MethodPost, "/api/auth/logout", nil, nil)
	c.setAuthenticated(false)
	return err
}

func (c *Client) setAuthenticated(v bool) {
	c.mu.Lock()
	c.authenticated = v
	c.mu.Unlock()
}

// translateAuthErr maps 401/403 API errors onto ErrUnauthorized and
// drops the local session state, mirroring how the admin UI reacts to an
// explicit rejection.
func (c *Client) translateAuthErr(err error) error {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		if apiErr.StatusCode == http.StatusUnauthorized || apiErr.StatusCode == http.StatusForbidden {
			c.setAuthenticated(false)
			return ErrUnauthorized
		}
	}
	return err
}
