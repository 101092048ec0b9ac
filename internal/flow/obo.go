package flow

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/authgate/authgate/internal/telemetry"
	"github.com/authgate/authgate/models"
)

// OnBehalfOfRequest asks for a downstream token using an incoming user
// assertion (a middle-tier service acting for its caller).
type OnBehalfOfRequest struct {
	Authority     string
	Scopes        []string
	UserAssertion string
}

// AcquireOnBehalfOf exchanges a user assertion for a downstream token.
// Cached results are keyed by a hash of the assertion rather than an
// account, since the account is not known until the first exchange.
func (c *Client) AcquireOnBehalfOf(ctx context.Context, req OnBehalfOfRequest) (*models.TokenResult, error) {
	if req.UserAssertion == "" {
		return nil, errors.New("a user assertion is required")
	}
	assertionHash := hashAssertion(req.UserAssertion)

	requestID, finish := c.beginRequest()
	success := false
	defer func() { finish(success) }()

	auth, ep, err := c.resolveAuthority(ctx, requestID, req.Authority)
	if err != nil {
		return nil, err
	}

	hs := c.newHookScope()
	defer hs.close()
	if err := hs.before(); err != nil {
		return nil, err
	}

	c.telemetry.StartEvent(requestID, telemetry.EventCache)
	at, atErr := c.cache.ReadAccessTokenByAssertion(assertionHash, ep.Aliases, auth.Tenant, c.clientID, req.Scopes)
	c.telemetry.StopEvent(requestID, telemetry.EventCache, nil)
	if atErr == nil {
		if err := at.Validate(c.clock.Now().Unix()); err == nil {
			result := c.resultFromCachedToken(at, auth, ep.Aliases, false)
			success = true
			return result, nil
		}
	}

	p := newTokenParams(c.clientID, grantJWTBearer, req.Scopes)
	p.assertion = req.UserAssertion
	p.requestedTokenUse = "on_behalf_of"

	resp, err := c.exchange(ctx, requestID, ep.TokenEndpoint, p)
	if err != nil {
		return nil, err
	}
	if ctx.Err() != nil {
		return nil, fmt.Errorf("%w: %v", ErrCancelled, ctx.Err())
	}

	result, err := c.writeBack(hs, auth, resp, req.Scopes, assertionHash)
	if err != nil {
		return nil, err
	}
	success = true
	return result, nil
}

func hashAssertion(assertion string) string {
	sum := sha256.Sum256([]byte(assertion))
	return hex.EncodeToString(sum[:])
}
