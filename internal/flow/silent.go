package flow

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/authgate/authgate/internal/authority"
	"github.com/authgate/authgate/internal/cache"
	"github.com/authgate/authgate/internal/identity"
	"github.com/authgate/authgate/internal/telemetry"
	"github.com/authgate/authgate/internal/transport"
	"github.com/authgate/authgate/models"
)

// SilentRequest asks for a token without user interaction. Either
// HomeAccountID or LoginHint selects the account; with neither set, a cache
// holding exactly one account uses that one.
type SilentRequest struct {
	Authority     string
	Scopes        []string
	HomeAccountID string
	LoginHint     string
}

// AcquireSilent runs the silent flow: cached access token, then refresh
// token exchange (with family and legacy-cache fallbacks), then
// ErrNoTokensFound when nothing usable exists.
func (c *Client) AcquireSilent(ctx context.Context, req SilentRequest) (*models.TokenResult, error) {
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

	homeAccountID, err := c.selectAccount(req)
	if err != nil {
		return nil, err
	}
	now := c.clock.Now().Unix()

	c.telemetry.StartEvent(requestID, telemetry.EventCache)
	at, atErr := c.cache.ReadAccessToken(homeAccountID, ep.Aliases, auth.Tenant, c.clientID, req.Scopes)
	c.telemetry.StopEvent(requestID, telemetry.EventCache, nil)

	// An expired token that is still inside its extended lifetime is kept
	// aside: it is the substitute handed out if the refresh exchange hits a
	// transient server failure.
	var stale *cache.AccessToken
	if atErr == nil {
		if err := at.Validate(now); err == nil {
			result := c.resultFromCachedToken(at, auth, ep.Aliases, false)
			success = true
			return result, nil
		}
		if err := at.ValidateExtended(now); err == nil {
			stale = &at
		}
	}

	rt, rtErr := c.findRefreshToken(homeAccountID, ep.Aliases, auth, req.LoginHint)
	if rtErr != nil {
		return nil, rtErr
	}

	p := newTokenParams(c.clientID, grantRefreshToken, req.Scopes)
	p.refreshToken = rt.Secret

	resp, err := c.exchange(ctx, requestID, ep.TokenEndpoint, p)
	if err != nil {
		if errors.Is(err, ErrCancelled) {
			return nil, err
		}
		var oe *transport.OAuthError
		if errors.As(err, &oe) {
			if stale != nil && (c.resilient.isSet() || oe.IsTransient()) {
				if oe.IsTransient() {
					c.resilient.set()
				}
				c.logger.Warn("refresh exchange failed transiently, serving stale token",
					zap.Int("status", oe.StatusCode))
				result := c.resultFromCachedToken(*stale, auth, ep.Aliases, true)
				success = true
				return result, nil
			}
			return nil, &RefreshError{Underlying: oe}
		}
		return nil, fmt.Errorf("refresh token exchange failed: %w", err)
	}

	// Refresh tokens do not rotate on every exchange; keep the old secret
	// when the server omitted a replacement.
	if resp.RefreshToken == "" {
		resp.RefreshToken = rt.Secret
	}

	if err := validateClientInfo(homeAccountID, resp); err != nil {
		return nil, err
	}
	if ctx.Err() != nil {
		return nil, fmt.Errorf("%w: %v", ErrCancelled, ctx.Err())
	}

	result, err := c.writeBack(hs, auth, resp, req.Scopes, "")
	if err != nil {
		return nil, err
	}
	success = true
	return result, nil
}

// selectAccount resolves which cached account the request is about.
func (c *Client) selectAccount(req SilentRequest) (string, error) {
	if req.HomeAccountID != "" {
		return req.HomeAccountID, nil
	}
	accounts, err := c.cache.AllAccounts()
	if err != nil {
		return "", fmt.Errorf("failed to list accounts: %w", err)
	}
	if req.LoginHint != "" {
		for _, a := range accounts {
			if a.PreferredUsername == req.LoginHint {
				return a.HomeAccountID, nil
			}
		}
		// The hint may still match a legacy-only entry; let the refresh
		// token lookup try the legacy store.
		return "", nil
	}
	if len(accounts) == 1 {
		return accounts[0].HomeAccountID, nil
	}
	return "", nil
}

// findRefreshToken looks in the modern cache first (family token ordering per
// app metadata) and falls back to the legacy store. A miss in both is
// ErrNoTokensFound.
func (c *Client) findRefreshToken(homeAccountID string, envAliases []string, auth authority.Authority, loginHint string) (cache.RefreshToken, error) {
	familyID := ""
	if meta, err := c.cache.ReadAppMetadata(envAliases, c.clientID); err == nil {
		familyID = meta.FamilyID
	}

	rt, err := c.cache.ReadRefreshToken(homeAccountID, envAliases, familyID, c.clientID)
	if err == nil {
		return rt, nil
	}
	if !errors.Is(err, cache.ErrNotFound) {
		return cache.RefreshToken{}, fmt.Errorf("refresh token lookup failed: %w", err)
	}

	if c.legacy != nil {
		upn := loginHint
		uniqueID := ""
		rawClientInfo := ""
		if homeAccountID != "" {
			rawClientInfo = identity.ClientInfoFromHomeAccountID(homeAccountID)
			if acc, accErr := c.cache.ReadAccount(homeAccountID, envAliases, auth.Tenant); accErr == nil {
				if acc.PreferredUsername != "" {
					upn = acc.PreferredUsername
				}
				uniqueID = acc.LocalAccountID
				if acc.RawClientInfo != "" {
					rawClientInfo = acc.RawClientInfo
				}
			}
		}
		if legacyRT := c.legacy.FindEntryForModern(auth.Host, envAliases, c.clientID, upn, uniqueID, rawClientInfo); legacyRT != nil {
			// The narrowing filters are best-effort; a pinned account must
			// never exchange another account's token.
			if homeAccountID != "" && legacyRT.HomeAccountID != "" && legacyRT.HomeAccountID != homeAccountID {
				return cache.RefreshToken{}, ErrNoTokensFound
			}
			c.logger.Debug("using refresh token from legacy cache")
			return *legacyRT, nil
		}
	}
	return cache.RefreshToken{}, ErrNoTokensFound
}

// resultFromCachedToken builds a result from a cache hit, joining the ID
// token and account records when they exist.
func (c *Client) resultFromCachedToken(at cache.AccessToken, auth authority.Authority, envAliases []string, stale bool) *models.TokenResult {
	claims := identity.IDTokenClaims{}
	if it, err := c.cache.ReadIDToken(at.HomeAccountID, envAliases, at.Realm, c.clientID); err == nil {
		if parsed, err := identity.ParseIDToken(it.Secret); err == nil {
			claims = parsed
		}
	}

	account := models.Account{HomeAccountID: at.HomeAccountID, Environment: at.Environment, Realm: at.Realm}
	if acc, err := c.cache.ReadAccount(at.HomeAccountID, envAliases, at.Realm); err == nil {
		account.LocalAccountID = acc.LocalAccountID
		account.Username = acc.PreferredUsername
		account.Name = acc.Name
		account.AuthorityType = acc.AuthorityType
	}

	expiresOn, _ := strconv.ParseInt(at.ExpiresOn, 10, 64)
	if stale {
		expiresOn, _ = strconv.ParseInt(at.ExtendedExpiresOn, 10, 64)
	}

	return &models.TokenResult{
		AccessToken:   at.Secret,
		TokenType:     at.TokenType,
		ExpiresOn:     timeFromUnix(expiresOn),
		GrantedScopes: cache.SplitScopes(at.Scopes),
		TenantID:      at.Realm,
		IDToken:       claimsSurface(claims),
		Account:       account,
		Stale:         stale,
	}
}
