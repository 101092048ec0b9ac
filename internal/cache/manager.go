package cache

import (
	"errors"
	"fmt"
)

// ErrNotFound reports that no cached record matched a lookup. Callers use it
// to distinguish a miss from a repository failure.
var ErrNotFound = errors.New("not found in cache")

// Manager layers the lookup and write-back rules over a dumb Repository: the
// repository hands back every record of a type, the manager filters by
// environment alias, realm, client id and scopes.
type Manager struct {
	repo Repository
}

// NewManager is the constructor for Manager.
func NewManager(repo Repository) *Manager {
	return &Manager{repo: repo}
}

// Repo exposes the underlying repository for maintenance entry points.
func (m *Manager) Repo() Repository { return m.repo }

func checkAlias(alias string, aliases []string) bool {
	for _, v := range aliases {
		if alias == v {
			return true
		}
	}
	return false
}

// ReadAccessToken finds the access token for the key tuple, matching the
// environment against any known alias of the authority and requiring every
// requested scope on the record.
func (m *Manager) ReadAccessToken(homeAccountID string, envAliases []string, realm, clientID string, scopes []string) (AccessToken, error) {
	ats, err := m.repo.AccessTokens()
	if err != nil {
		return AccessToken{}, fmt.Errorf("failed to list access tokens: %w", err)
	}
	for _, at := range ats {
		if at.HomeAccountID == homeAccountID && at.Realm == realm && at.ClientID == clientID {
			if checkAlias(at.Environment, envAliases) && at.MatchesScopes(scopes) {
				return at, nil
			}
		}
	}
	return AccessToken{}, ErrNotFound
}

// ReadAccessTokenByAssertion finds the access token cached for an
// on-behalf-of exchange. The user-assertion hash takes the place of the home
// account id, which is not known until the exchange has happened once.
func (m *Manager) ReadAccessTokenByAssertion(assertionHash string, envAliases []string, realm, clientID string, scopes []string) (AccessToken, error) {
	ats, err := m.repo.AccessTokens()
	if err != nil {
		return AccessToken{}, fmt.Errorf("failed to list access tokens: %w", err)
	}
	for _, at := range ats {
		if at.UserAssertionHash == assertionHash && at.Realm == realm && at.ClientID == clientID {
			if checkAlias(at.Environment, envAliases) && at.MatchesScopes(scopes) {
				return at, nil
			}
		}
	}
	return AccessToken{}, ErrNotFound
}

func matchFamilyRefreshToken(rt RefreshToken, homeAccountID string, envAliases []string) bool {
	return rt.HomeAccountID == homeAccountID && checkAlias(rt.Environment, envAliases) && rt.FamilyID != ""
}

func matchClientRefreshToken(rt RefreshToken, homeAccountID string, envAliases []string, clientID string) bool {
	return rt.HomeAccountID == homeAccountID && checkAlias(rt.Environment, envAliases) && rt.ClientID == clientID
}

// ReadRefreshToken finds a refresh token for the account. When the client is
// known to belong to a token family (familyID != ""), the family token is
// preferred; otherwise the client's own token is tried first and a family
// token is the fallback.
func (m *Manager) ReadRefreshToken(homeAccountID string, envAliases []string, familyID, clientID string) (RefreshToken, error) {
	rts, err := m.repo.RefreshTokens()
	if err != nil {
		return RefreshToken{}, fmt.Errorf("failed to list refresh tokens: %w", err)
	}

	byFamily := func(rt RefreshToken) bool {
		return matchFamilyRefreshToken(rt, homeAccountID, envAliases)
	}
	byClient := func(rt RefreshToken) bool {
		return matchClientRefreshToken(rt, homeAccountID, envAliases, clientID)
	}

	matchers := []func(RefreshToken) bool{byClient, byFamily}
	if familyID != "" {
		matchers = []func(RefreshToken) bool{byFamily, byClient}
	}

	for _, match := range matchers {
		for _, rt := range rts {
			if match(rt) {
				return rt, nil
			}
		}
	}
	return RefreshToken{}, ErrNotFound
}

// ReadIDToken finds the ID token for the account/tenant/client; scopes play
// no part in the lookup.
func (m *Manager) ReadIDToken(homeAccountID string, envAliases []string, realm, clientID string) (IDToken, error) {
	its, err := m.repo.IDTokens()
	if err != nil {
		return IDToken{}, fmt.Errorf("failed to list ID tokens: %w", err)
	}
	for _, it := range its {
		if it.HomeAccountID == homeAccountID && it.Realm == realm && it.ClientID == clientID {
			if checkAlias(it.Environment, envAliases) {
				return it, nil
			}
		}
	}
	return IDToken{}, ErrNotFound
}

// ReadAccount finds the account record for the id in any aliased environment.
func (m *Manager) ReadAccount(homeAccountID string, envAliases []string, realm string) (Account, error) {
	accounts, err := m.repo.Accounts()
	if err != nil {
		return Account{}, fmt.Errorf("failed to list accounts: %w", err)
	}
	for _, a := range accounts {
		if a.HomeAccountID == homeAccountID && checkAlias(a.Environment, envAliases) && a.Realm == realm {
			return a, nil
		}
	}
	return Account{}, ErrNotFound
}

// ReadAppMetadata finds the family metadata for a client in any aliased
// environment. A miss means family membership is unknown.
func (m *Manager) ReadAppMetadata(envAliases []string, clientID string) (AppMetadata, error) {
	metas, err := m.repo.AppMetadata()
	if err != nil {
		return AppMetadata{}, fmt.Errorf("failed to list app metadata: %w", err)
	}
	for _, meta := range metas {
		if checkAlias(meta.Environment, envAliases) && meta.ClientID == clientID {
			return meta, nil
		}
	}
	return AppMetadata{}, ErrNotFound
}

// AllAccounts returns every cached account.
func (m *Manager) AllAccounts() ([]Account, error) {
	return m.repo.Accounts()
}

// RemoveAccount deletes an account and every credential tied to it in any of
// the aliased environments. This is the sign-out path.
func (m *Manager) RemoveAccount(homeAccountID string, envAliases []string) error {
	ats, err := m.repo.AccessTokens()
	if err != nil {
		return fmt.Errorf("failed to list access tokens: %w", err)
	}
	for _, at := range ats {
		if at.HomeAccountID == homeAccountID && checkAlias(at.Environment, envAliases) {
			if err := m.repo.DeleteAccessToken(at.Key()); err != nil {
				return fmt.Errorf("failed to delete access token: %w", err)
			}
		}
	}

	rts, err := m.repo.RefreshTokens()
	if err != nil {
		return fmt.Errorf("failed to list refresh tokens: %w", err)
	}
	for _, rt := range rts {
		if rt.HomeAccountID == homeAccountID && checkAlias(rt.Environment, envAliases) {
			if err := m.repo.DeleteRefreshToken(rt.Key()); err != nil {
				return fmt.Errorf("failed to delete refresh token: %w", err)
			}
		}
	}

	its, err := m.repo.IDTokens()
	if err != nil {
		return fmt.Errorf("failed to list ID tokens: %w", err)
	}
	for _, it := range its {
		if it.HomeAccountID == homeAccountID && checkAlias(it.Environment, envAliases) {
			if err := m.repo.DeleteIDToken(it.Key()); err != nil {
				return fmt.Errorf("failed to delete ID token: %w", err)
			}
		}
	}

	accounts, err := m.repo.Accounts()
	if err != nil {
		return fmt.Errorf("failed to list accounts: %w", err)
	}
	for _, a := range accounts {
		if a.HomeAccountID == homeAccountID && checkAlias(a.Environment, envAliases) {
			if err := m.repo.DeleteAccount(a.Key()); err != nil {
				return fmt.Errorf("failed to delete account: %w", err)
			}
		}
	}
	return nil
}

// WriteParams is everything a successful token-endpoint exchange contributes
// to the cache.
type WriteParams struct {
	HomeAccountID string
	Environment   string
	Realm         string
	ClientID      string
	Scopes        []string

	AccessToken       string
	TokenType         string
	CachedAt          int64
	ExpiresOn         int64
	ExtendedExpiresOn int64

	RefreshToken string
	FamilyID     string

	RawIDToken    string
	RawClientInfo string

	// UserAssertionHash ties the access token to the incoming assertion of
	// an on-behalf-of exchange.
	UserAssertionHash string

	Account *Account
}

// Write persists the results of an exchange. Records are whole-record
// upserts; an exchange that omitted a credential leaves the cached one alone.
func (m *Manager) Write(p WriteParams) error {
	if p.RefreshToken != "" {
		rt := NewRefreshToken(p.HomeAccountID, p.Environment, p.ClientID, p.RefreshToken, p.FamilyID, p.RawClientInfo)
		if err := m.repo.SaveRefreshToken(rt); err != nil {
			return fmt.Errorf("failed to save refresh token: %w", err)
		}
	}

	if p.AccessToken != "" {
		at := NewAccessToken(p.HomeAccountID, p.Environment, p.Realm, p.ClientID,
			p.CachedAt, p.ExpiresOn, p.ExtendedExpiresOn, p.Scopes, p.AccessToken, p.TokenType)
		at.RawClientInfo = p.RawClientInfo
		at.UserAssertionHash = p.UserAssertionHash
		// Only a token that is already usable goes in; writing an invalid
		// one would evict a possibly good record under the same key.
		if err := at.Validate(p.CachedAt); err == nil {
			if err := m.repo.SaveAccessToken(at); err != nil {
				return fmt.Errorf("failed to save access token: %w", err)
			}
		}
	}

	if p.RawIDToken != "" {
		it := NewIDToken(p.HomeAccountID, p.Environment, p.Realm, p.ClientID, p.RawIDToken)
		if err := m.repo.SaveIDToken(it); err != nil {
			return fmt.Errorf("failed to save ID token: %w", err)
		}
	}

	if p.Account != nil {
		if err := m.repo.SaveAccount(*p.Account); err != nil {
			return fmt.Errorf("failed to save account: %w", err)
		}
	}

	meta := NewAppMetadata(p.FamilyID, p.ClientID, p.Environment)
	if err := m.repo.SaveAppMetadata(meta); err != nil {
		return fmt.Errorf("failed to save app metadata: %w", err)
	}
	return nil
}
