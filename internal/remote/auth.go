package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"expensetracker/internal/log"
	"expensetracker/internal/session"
)

type signinRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type signupRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// signinResponse accepts both field spellings the API has used.
type signinResponse struct {
	AccessToken string   `json:"accessToken"`
	Token       string   `json:"token"`
	TokenType   string   `json:"tokenType"`
	Type        string   `json:"type"`
	ID          int64    `json:"id"`
	Username    string   `json:"username"`
	Email       string   `json:"email"`
	Roles       []string `json:"roles"`
}

func (r signinResponse) credential() session.Credential {
	cred := session.Credential{
		Token:     r.AccessToken,
		TokenType: r.TokenType,
		UserID:    r.ID,
		Username:  r.Username,
		Email:     r.Email,
		Roles:     r.Roles,
	}
	if cred.Token == "" {
		cred.Token = r.Token
	}
	if cred.TokenType == "" {
		cred.TokenType = r.Type
	}
	if cred.TokenType == "" {
		cred.TokenType = "Bearer"
	}
	if cred.Roles == nil {
		cred.Roles = []string{}
	}
	return cred
}

// Login exchanges username and password for a token and stores the
// resulting credential in the session. Any failure leaves the session
// signed out.
func (c *Client) Login(ctx context.Context, username, password string) (session.Credential, error) {
	cred, err := c.signin(ctx, username, password)
	if err == nil {
		err = c.session.Authenticate(ctx, cred)
	}
	if err != nil {
		if clearErr := c.session.Clear(ctx); clearErr != nil {
			c.logger.WarnContext(ctx, "Failed to clear session after login failure", log.FieldError, clearErr)
		}
		return session.Credential{}, err
	}
	c.logger.InfoContext(ctx, "User signed in",
		log.NewFields().WithOperation(log.OpLogin).WithUsername(cred.Username).ToSlice()...)
	return cred, nil
}

func (c *Client) signin(ctx context.Context, username, password string) (session.Credential, error) {
	const op = "POST /auth/signin"
	resp, err := c.send(ctx, op, http.MethodPost, "/auth/signin", nil, signinRequest{Username: username, Password: password})
	if err != nil {
		return session.Credential{}, err
	}
	switch resp.status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return session.Credential{}, newError(ErrAuthentication, op, resp.status, "", nil)
	case http.StatusBadRequest:
		return session.Credential{}, newError(ErrAuthentication, op, resp.status, serverMessage(resp.body), nil)
	}
	if err := c.check(ctx, op, resp); err != nil {
		return session.Credential{}, err
	}

	body := json.RawMessage(resp.body)
	if data, err := unwrapEnvelope(resp.body); err == nil && len(data) > 0 && data[0] == '{' {
		body = data
	}
	var decoded signinResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return session.Credential{}, newError(ErrTransport, op, resp.status, "", fmt.Errorf("decode signin response: %w", err))
	}
	cred := decoded.credential()
	if cred.Token == "" {
		return session.Credential{}, newError(ErrAuthentication, op, resp.status, "No token received from server", nil)
	}
	return cred, nil
}

// Signup registers a new account. It does not sign in.
func (c *Client) Signup(ctx context.Context, username, email, password string) error {
	const op = "POST /auth/signup"
	resp, err := c.send(ctx, op, http.MethodPost, "/auth/signup", nil, signupRequest{
		Username: username,
		Email:    email,
		Password: password,
	})
	if err != nil {
		return err
	}
	if err := c.check(ctx, op, resp); err != nil {
		return err
	}
	c.logger.InfoContext(ctx, "User registered",
		log.NewFields().WithOperation(log.OpSignup).WithUsername(username).ToSlice()...)
	return nil
}

// Logout forgets the credential. The API keeps no server side session, so
// nothing is sent.
func (c *Client) Logout(ctx context.Context) error {
	if err := c.session.Clear(ctx); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	return nil
}
