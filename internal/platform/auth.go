package platform

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	loginPath   = "/api/auth/login"
	profilePath = "/api/auth/user"
)

var (
	errEmptyToken       = errors.New("login response carries no token")
	errEmptyCustomer    = errors.New("profile carries no customer id")
	errCachedJWTExpired = errors.New("cached token past its exp claim")
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string `json:"token"`
}

type profileResponse struct {
	CustomerID entityID `json:"customerId"`
}

type entityID struct {
	ID string `json:"id"`
}

// Authenticate reuses the cached session when the platform still accepts it
// and otherwise logs in and caches the new token. A rejected cached session
// never aborts the run on its own; its reason is attached to the error only
// when the fresh login fails too.
func (c *Client) Authenticate(ctx context.Context, username, password string) (Account, error) {
	var cachedErr error
	if s, ok := c.sessions.Load(ctx); ok {
		if tokenExpired(s.Token, c.now()) {
			cachedErr = errCachedJWTExpired
		} else {
			acct, err := c.profile(ctx, s.Token)
			if err == nil {
				return acct, nil
			}
			cachedErr = err
		}
		if c.log != nil {
			c.log.Infow("platform_cached_session_rejected", "err", cachedErr)
		}
	}

	token, err := c.login(ctx, username, password)
	if err != nil {
		return Account{}, &AuthError{Step: "login", Err: err, Cached: cachedErr}
	}
	if err := c.sessions.Save(ctx, token); err != nil && c.log != nil {
		c.log.Warnw("platform_session_cache_failed", "err", err)
	}

	acct, err := c.profile(ctx, token)
	if err != nil {
		return Account{}, &AuthError{Step: "profile", Err: err, Cached: cachedErr}
	}
	return acct, nil
}

func (c *Client) login(ctx context.Context, username, password string) (string, error) {
	var out loginResponse
	err := c.do(ctx, request{
		op:     "login",
		method: http.MethodPost,
		path:   loginPath,
		body:   loginRequest{Username: username, Password: password},
	}, &out)
	if err != nil {
		return "", err
	}
	if out.Token == "" {
		return "", errEmptyToken
	}
	return out.Token, nil
}

func (c *Client) profile(ctx context.Context, token string) (Account, error) {
	var out profileResponse
	err := c.do(ctx, request{
		op:     "profile",
		method: http.MethodGet,
		path:   profilePath,
		token:  token,
	}, &out)
	if err != nil {
		return Account{}, err
	}
	if out.CustomerID.ID == "" {
		return Account{}, errEmptyCustomer
	}
	return Account{Token: token, CustomerID: out.CustomerID.ID}, nil
}

// tokenExpired inspects the exp claim of a JWT without verifying it; the
// platform stays the authority, this only saves a doomed round trip.
// Opaque (non-JWT) tokens are never considered expired here.
func tokenExpired(token string, now time.Time) bool {
	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return false
	}
	return claims.ExpiresAt != nil && !now.Before(claims.ExpiresAt.Time)
}
