// Package flow is the token acquisition state machine. One shared engine
// resolves the authority, consults the cache, performs the token endpoint
// exchange, validates the returned identity and writes results back; the
// individual flows (silent, interactive, device code, on-behalf-of) differ
// only in how the initial grant is obtained.
package flow

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/authgate/authgate/internal/authority"
	"github.com/authgate/authgate/internal/cache"
	"github.com/authgate/authgate/internal/identity"
	"github.com/authgate/authgate/internal/legacy"
	"github.com/authgate/authgate/internal/telemetry"
	"github.com/authgate/authgate/internal/transport"
	"github.com/authgate/authgate/models"
)

// Client acquires tokens for one application (client id). It is safe for
// concurrent use; the only cross-call state is the resiliency flag, which is
// deliberately client-lifetime.
type Client struct {
	clientID    string
	redirectURI string

	cache     *cache.Manager
	hooks     cache.AccessHooks
	legacy    *legacy.Interop
	resolver  *authority.Resolver
	http      transport.Client
	broker    Broker
	clock     Clock
	telemetry *telemetry.Aggregator
	logger    *zap.Logger

	resilient *resilientFlag
}

// Options wires a Client. ClientID, Cache, Resolver and Transport are
// required; everything else has a working default or is optional.
type Options struct {
	ClientID    string
	RedirectURI string

	Cache     *cache.Manager
	Hooks     cache.AccessHooks
	Legacy    *legacy.Interop
	Resolver  *authority.Resolver
	Transport transport.Client
	Broker    Broker
	Clock     Clock
	Telemetry *telemetry.Aggregator
	Logger    *zap.Logger
}

// NewClient is the constructor for Client.
func NewClient(opts Options) (*Client, error) {
	if opts.ClientID == "" {
		return nil, errors.New("client id is required")
	}
	if opts.Cache == nil {
		return nil, errors.New("a cache manager is required")
	}
	if opts.Resolver == nil {
		return nil, errors.New("an authority resolver is required")
	}
	if opts.Transport == nil {
		return nil, errors.New("a transport client is required")
	}
	if opts.Hooks == nil {
		opts.Hooks = cache.NopHooks{}
	}
	if opts.Clock == nil {
		opts.Clock = RealClock{}
	}
	if opts.Telemetry == nil {
		opts.Telemetry = telemetry.NewAggregator(nil)
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Client{
		clientID:    opts.ClientID,
		redirectURI: opts.RedirectURI,
		cache:       opts.Cache,
		hooks:       opts.Hooks,
		legacy:      opts.Legacy,
		resolver:    opts.Resolver,
		http:        opts.Transport,
		broker:      opts.Broker,
		clock:       opts.Clock,
		telemetry:   opts.Telemetry,
		logger:      opts.Logger,
		resilient:   &resilientFlag{},
	}, nil
}

// Resilient reports whether the stale-token fallback has been armed by a
// previous transient failure. The flag lives as long as the client.
func (c *Client) Resilient() bool { return c.resilient.isSet() }

// hookScope guarantees the before/after cache-access pairing: the after hook
// fires exactly once, on any exit path, if and only if the before hook fired.
type hookScope struct {
	hooks  cache.AccessHooks
	logger *zap.Logger
	fired  bool
	closed bool
}

func (h *hookScope) before() error {
	if h.fired {
		return nil
	}
	if err := h.hooks.BeforeAccess(); err != nil {
		return fmt.Errorf("before-access hook failed: %w", err)
	}
	h.fired = true
	return nil
}

func (h *hookScope) close() {
	if !h.fired || h.closed {
		return
	}
	h.closed = true
	if err := h.hooks.AfterAccess(); err != nil {
		h.logger.Warn("after-access hook failed", zap.Error(err))
	}
}

func (c *Client) newHookScope() *hookScope {
	return &hookScope{hooks: c.hooks, logger: c.logger}
}

// beginRequest tags a logical request and returns the finisher that records
// the API event outcome and flushes the batch.
func (c *Client) beginRequest() (string, func(success bool)) {
	requestID := uuid.NewString()
	c.telemetry.StartEvent(requestID, telemetry.EventAPI)
	return requestID, func(success bool) {
		c.telemetry.StopEvent(requestID, telemetry.EventAPI, map[string]string{
			telemetry.PropertySuccess: strconv.FormatBool(success),
		})
		c.telemetry.Flush(requestID)
	}
}

func (c *Client) resolveAuthority(ctx context.Context, requestID, rawAuthority string) (authority.Authority, authority.Endpoints, error) {
	auth, err := authority.Parse(rawAuthority)
	if err != nil {
		return authority.Authority{}, authority.Endpoints{}, &AuthorityError{Authority: rawAuthority, Underlying: err}
	}

	c.telemetry.StartEvent(requestID, telemetry.EventHTTP)
	ep, err := c.resolver.Resolve(ctx, auth)
	c.telemetry.StopEvent(requestID, telemetry.EventHTTP, nil)
	if err != nil {
		if ctx.Err() != nil {
			return authority.Authority{}, authority.Endpoints{}, fmt.Errorf("%w: %v", ErrCancelled, ctx.Err())
		}
		return authority.Authority{}, authority.Endpoints{}, &AuthorityError{Authority: auth.URL, Underlying: err}
	}
	return auth, ep, nil
}

// exchange posts to the token endpoint, mapping cancellation and tagging the
// round trip in telemetry.
func (c *Client) exchange(ctx context.Context, requestID, endpoint string, p *tokenParams) (*transport.TokenResponse, error) {
	c.telemetry.StartEvent(requestID, telemetry.EventHTTP)
	resp, err := c.http.PostForm(ctx, endpoint, p.Build())
	c.telemetry.StopEvent(requestID, telemetry.EventHTTP, nil)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%w: %v", ErrCancelled, ctx.Err())
		}
		return nil, err
	}
	return resp, nil
}

// validateClientInfo enforces identity consistency: when the caller asked for
// a specific account, the response must decode to the same home account id.
func validateClientInfo(expectedHomeAccountID string, resp *transport.TokenResponse) error {
	if expectedHomeAccountID == "" {
		return nil
	}
	ci, err := identity.DecodeClientInfo(resp.ClientInfo)
	if err != nil {
		return &AccountMismatchError{Expected: expectedHomeAccountID}
	}
	if got := ci.HomeAccountID(); got != expectedHomeAccountID {
		return &AccountMismatchError{Expected: expectedHomeAccountID, Actual: got}
	}
	return nil
}

// writeBack persists a successful exchange into the modern cache and mirrors
// the refresh token into the legacy store when one is configured, then
// builds the caller-facing result. Write-back only runs after terminal
// success; the caller has already checked for cancellation.
func (c *Client) writeBack(hs *hookScope, auth authority.Authority, resp *transport.TokenResponse, scopes []string, assertionHash string) (*models.TokenResult, error) {
	now := c.clock.Now().Unix()

	claims, claimsErr := identity.ParseIDToken(resp.IDToken)
	if claimsErr != nil && resp.IDToken != "" {
		c.logger.Warn("ID token in response was unreadable", zap.Error(claimsErr))
	}
	homeAccountID := identity.DeriveHomeAccountID(resp.ClientInfo, claims.Subject, claims.UPN, claims.Email)

	realm := auth.Tenant
	if claims.TenantID != "" {
		realm = claims.TenantID
	}

	granted := scopes
	if resp.Scope != "" {
		granted = cache.SplitScopes(cache.NormalizeScopes(cache.SplitScopes(resp.Scope)))
	}

	params := cache.WriteParams{
		HomeAccountID:     homeAccountID,
		Environment:       auth.Host,
		Realm:             realm,
		ClientID:          c.clientID,
		Scopes:            granted,
		AccessToken:       resp.AccessToken,
		TokenType:         resp.TokenType,
		CachedAt:          now,
		ExpiresOn:         now + int64(resp.ExpiresIn),
		ExtendedExpiresOn: now + int64(resp.ExtExpiresIn),
		RefreshToken:      resp.RefreshToken,
		FamilyID:          resp.FamilyID,
		RawIDToken:        resp.IDToken,
		RawClientInfo:     resp.ClientInfo,
		UserAssertionHash: assertionHash,
	}
	if params.ExtendedExpiresOn <= params.ExpiresOn {
		params.ExtendedExpiresOn = params.ExpiresOn
	}

	var account *cache.Account
	if !claims.IsZero() {
		acc := cache.NewAccount(homeAccountID, auth.Host, realm, claims.LocalAccountID(),
			accountAuthorityType(auth), claims.DisplayableID())
		acc.Name = claims.Name
		acc.GivenName = claims.GivenName
		acc.FamilyName = claims.FamilyName
		acc.RawClientInfo = resp.ClientInfo
		account = &acc
	}
	params.Account = account

	if err := hs.before(); err != nil {
		return nil, err
	}
	if err := c.cache.Write(params); err != nil {
		return nil, fmt.Errorf("cache write-back failed: %w", err)
	}

	if c.legacy != nil && resp.RefreshToken != "" {
		rt := cache.NewRefreshToken(homeAccountID, auth.Host, c.clientID, resp.RefreshToken, resp.FamilyID, resp.ClientInfo)
		c.legacy.WriteLegacyFromModern(rt, claims, auth.URL, claims.ObjectID, cache.NormalizeScopes(granted))
	}

	result := &models.TokenResult{
		AccessToken:   resp.AccessToken,
		TokenType:     resp.TokenType,
		ExpiresOn:     c.clock.Now().Add(secondsToDuration(int64(resp.ExpiresIn))),
		GrantedScopes: granted,
		TenantID:      realm,
		IDToken:       claimsSurface(claims),
		Account:       accountSurface(account, homeAccountID, auth, realm),
	}
	return result, nil
}

func accountAuthorityType(auth authority.Authority) string {
	switch auth.Type {
	case authority.TypeADFS:
		return cache.AuthorityTypeADFS
	case authority.TypeB2C:
		return cache.AuthorityTypeOther
	default:
		return cache.AuthorityTypeAAD
	}
}

func claimsSurface(claims identity.IDTokenClaims) models.IDTokenClaims {
	return models.IDTokenClaims{
		Subject:           claims.Subject,
		ObjectID:          claims.ObjectID,
		TenantID:          claims.TenantID,
		PreferredUsername: claims.PreferredUsername,
		Name:              claims.Name,
		Email:             claims.Email,
	}
}

func accountSurface(account *cache.Account, homeAccountID string, auth authority.Authority, realm string) models.Account {
	if account == nil {
		return models.Account{HomeAccountID: homeAccountID, Environment: auth.Host, Realm: realm}
	}
	return models.Account{
		HomeAccountID:  account.HomeAccountID,
		Environment:    account.Environment,
		Realm:          account.Realm,
		LocalAccountID: account.LocalAccountID,
		Username:       account.PreferredUsername,
		Name:           account.Name,
		AuthorityType:  account.AuthorityType,
	}
}
