package flow

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/google/uuid"

	"github.com/authgate/authgate/internal/telemetry"
	"github.com/authgate/authgate/models"
)

// InteractiveRequest asks for a token through the interactive delegate.
type InteractiveRequest struct {
	Authority string
	Scopes    []string
	Prompt    models.PromptPolicy
	LoginHint string

	// ExpectedHomeAccountID, when set, requires the signed-in identity to
	// match; a different account is an AccountMismatchError.
	ExpectedHomeAccountID string
}

// AcquireInteractive hands the authorization step to the broker/browser
// delegate and exchanges the returned code, with PKCE.
func (c *Client) AcquireInteractive(ctx context.Context, req InteractiveRequest) (*models.TokenResult, error) {
	if c.broker == nil {
		return nil, errors.New("no interactive delegate is configured")
	}

	requestID, finish := c.beginRequest()
	success := false
	defer func() { finish(success) }()

	auth, ep, err := c.resolveAuthority(ctx, requestID, req.Authority)
	if err != nil {
		return nil, err
	}

	pkce, err := generatePKCE()
	if err != nil {
		return nil, err
	}
	state := uuid.NewString()
	authURL := buildAuthorizeURL(ep.AuthorizationEndpoint, c.clientID, c.redirectURI, req, pkce, state)

	c.telemetry.StartEvent(requestID, telemetry.EventUI)
	authResult, err := c.broker.Authorize(ctx, authURL, c.redirectURI)
	c.telemetry.StopEvent(requestID, telemetry.EventUI, nil)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%w: %v", ErrCancelled, ctx.Err())
		}
		return nil, fmt.Errorf("interactive authorization failed: %w", err)
	}
	if authResult.Cancelled {
		return nil, ErrUserCancelled
	}
	if authResult.Code == "" {
		return nil, fmt.Errorf("interactive authorization failed: %s: %s",
			authResult.ErrorCode, authResult.ErrorDescription)
	}

	p := newTokenParams(c.clientID, grantAuthorizationCode, req.Scopes)
	p.code = authResult.Code
	p.redirectURI = c.redirectURI
	p.codeVerifier = pkce.verifier

	resp, err := c.exchange(ctx, requestID, ep.TokenEndpoint, p)
	if err != nil {
		return nil, err
	}

	if err := validateClientInfo(req.ExpectedHomeAccountID, resp); err != nil {
		return nil, err
	}
	if ctx.Err() != nil {
		return nil, fmt.Errorf("%w: %v", ErrCancelled, ctx.Err())
	}

	hs := c.newHookScope()
	defer hs.close()
	result, err := c.writeBack(hs, auth, resp, req.Scopes, "")
	if err != nil {
		return nil, err
	}
	success = true
	return result, nil
}

func buildAuthorizeURL(endpoint, clientID, redirectURI string, req InteractiveRequest, pkce pkceChallenge, state string) string {
	q := url.Values{}
	q.Set("client_id", clientID)
	q.Set("response_type", "code")
	q.Set("redirect_uri", redirectURI)
	q.Set("scope", strings.Join(req.Scopes, " "))
	q.Set("state", state)
	q.Set("code_challenge", pkce.challenge)
	q.Set("code_challenge_method", "S256")
	if req.Prompt != "" {
		q.Set("prompt", string(req.Prompt))
	}
	if req.LoginHint != "" {
		q.Set("login_hint", req.LoginHint)
	}
	return endpoint + "?" + q.Encode()
}
