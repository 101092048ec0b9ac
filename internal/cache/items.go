package cache

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

const (
	CredentialTypeAccessToken  = "AccessToken"
	CredentialTypeRefreshToken = "RefreshToken"
	CredentialTypeIDToken      = "IdToken"
)

// KeySeparator joins the components of every derived cache key. It is part of
// the on-disk contract and must not change.
const KeySeparator = "-"

// ExpiryMarginSeconds is subtracted from expires_on before a token is
// considered usable, so a token handed to the caller is never about to expire.
const ExpiryMarginSeconds = 300

// AccessToken is a cached access token record. Timestamps are Unix seconds
// serialized as decimal strings, matching the shared cache schema.
type AccessToken struct {
	HomeAccountID     string `json:"home_account_id,omitempty"`
	Environment       string `json:"environment,omitempty"`
	Realm             string `json:"realm,omitempty"`
	CredentialType    string `json:"credential_type,omitempty"`
	ClientID          string `json:"client_id,omitempty"`
	Secret            string `json:"secret,omitempty"`
	Scopes            string `json:"target,omitempty"`
	TokenType         string `json:"token_type,omitempty"`
	CachedAt          string `json:"cached_at,omitempty"`
	ExpiresOn         string `json:"expires_on,omitempty"`
	ExtendedExpiresOn string `json:"extended_expires_on,omitempty"`
	RawClientInfo     string `json:"client_info,omitempty"`
	UserAssertionHash string `json:"user_assertion_hash,omitempty"`
}

// NewAccessToken builds an access token record. Scopes are normalized before
// storage so key derivation is independent of the order the caller used.
func NewAccessToken(homeAccountID, environment, realm, clientID string, cachedAt, expiresOn, extendedExpiresOn int64, scopes []string, secret, tokenType string) AccessToken {
	if tokenType == "" {
		tokenType = "Bearer"
	}
	return AccessToken{
		HomeAccountID:     homeAccountID,
		Environment:       environment,
		Realm:             realm,
		CredentialType:    CredentialTypeAccessToken,
		ClientID:          clientID,
		Secret:            secret,
		Scopes:            NormalizeScopes(scopes),
		TokenType:         tokenType,
		CachedAt:          strconv.FormatInt(cachedAt, 10),
		ExpiresOn:         strconv.FormatInt(expiresOn, 10),
		ExtendedExpiresOn: strconv.FormatInt(extendedExpiresOn, 10),
	}
}

// Key derives the deterministic cache key for this record.
func (a AccessToken) Key() string {
	return strings.ToLower(strings.Join(
		[]string{a.HomeAccountID, a.Environment, a.CredentialType, a.ClientID, a.Realm, a.Scopes},
		KeySeparator,
	))
}

// Validate reports whether the record can be handed to a caller right now.
// A record cached in the future is treated as corrupt, not merely stale.
func (a AccessToken) Validate(now int64) error {
	cachedAt, err := strconv.ParseInt(a.CachedAt, 10, 64)
	if err != nil {
		return fmt.Errorf("access token has an invalid cached_at field: %w", err)
	}
	if cachedAt > now {
		return errors.New("access token was cached at a future time")
	}
	expiresOn, err := strconv.ParseInt(a.ExpiresOn, 10, 64)
	if err != nil {
		return fmt.Errorf("access token has an invalid expires_on field: %w", err)
	}
	if expiresOn-ExpiryMarginSeconds <= now {
		return errors.New("access token is expired")
	}
	return nil
}

// ValidateExtended is the relaxed check used by the stale-token resiliency
// path: the plain window may have passed as long as the extended lifetime has
// not. The future-cached_at guard still applies.
func (a AccessToken) ValidateExtended(now int64) error {
	cachedAt, err := strconv.ParseInt(a.CachedAt, 10, 64)
	if err != nil {
		return fmt.Errorf("access token has an invalid cached_at field: %w", err)
	}
	if cachedAt > now {
		return errors.New("access token was cached at a future time")
	}
	extended, err := strconv.ParseInt(a.ExtendedExpiresOn, 10, 64)
	if err != nil {
		return fmt.Errorf("access token has an invalid extended_expires_on field: %w", err)
	}
	if extended <= now {
		return errors.New("access token is beyond its extended lifetime")
	}
	return nil
}

// MatchesScopes reports whether every requested scope is present on the
// record. Comparison is case-insensitive; the record may carry extra scopes.
func (a AccessToken) MatchesScopes(scopes []string) bool {
	have := make(map[string]struct{})
	for _, s := range SplitScopes(a.Scopes) {
		have[strings.ToLower(s)] = struct{}{}
	}
	for _, s := range scopes {
		if _, ok := have[strings.ToLower(s)]; !ok {
			return false
		}
	}
	return true
}

// RefreshToken is a cached refresh token record. FamilyID marks a family
// refresh token usable across sibling client ids.
type RefreshToken struct {
	HomeAccountID  string `json:"home_account_id,omitempty"`
	Environment    string `json:"environment,omitempty"`
	CredentialType string `json:"credential_type,omitempty"`
	ClientID       string `json:"client_id,omitempty"`
	FamilyID       string `json:"family_id,omitempty"`
	Secret         string `json:"secret,omitempty"`
	Realm          string `json:"realm,omitempty"`
	Target         string `json:"target,omitempty"`
	RawClientInfo  string `json:"client_info,omitempty"`
}

func NewRefreshToken(homeAccountID, environment, clientID, secret, familyID, rawClientInfo string) RefreshToken {
	return RefreshToken{
		HomeAccountID:  homeAccountID,
		Environment:    environment,
		CredentialType: CredentialTypeRefreshToken,
		ClientID:       clientID,
		FamilyID:       familyID,
		Secret:         secret,
		RawClientInfo:  rawClientInfo,
	}
}

// Key derives the refresh token cache key. A family token keys on the family
// id instead of the client id so siblings share a single slot.
func (r RefreshToken) Key() string {
	fourth := r.ClientID
	if r.FamilyID != "" {
		fourth = r.FamilyID
	}
	return strings.ToLower(strings.Join(
		[]string{r.HomeAccountID, r.Environment, r.CredentialType, fourth},
		KeySeparator,
	))
}

// IDToken is a cached raw ID token. One per (account, tenant, client); the
// key carries no scope component so all scopes share it.
type IDToken struct {
	HomeAccountID  string `json:"home_account_id,omitempty"`
	Environment    string `json:"environment,omitempty"`
	Realm          string `json:"realm,omitempty"`
	CredentialType string `json:"credential_type,omitempty"`
	ClientID       string `json:"client_id,omitempty"`
	Secret         string `json:"secret,omitempty"`
}

func NewIDToken(homeAccountID, environment, realm, clientID, rawToken string) IDToken {
	return IDToken{
		HomeAccountID:  homeAccountID,
		Environment:    environment,
		Realm:          realm,
		CredentialType: CredentialTypeIDToken,
		ClientID:       clientID,
		Secret:         rawToken,
	}
}

func (i IDToken) Key() string {
	return strings.ToLower(strings.Join(
		[]string{i.HomeAccountID, i.Environment, i.CredentialType, i.ClientID, i.Realm},
		KeySeparator,
	))
}

// Authority type tags recorded on accounts.
const (
	AuthorityTypeAAD   = "MSSTS"
	AuthorityTypeADFS  = "ADFS"
	AuthorityTypeMSA   = "MSA"
	AuthorityTypeOther = "Other"
)

// Account joins credentials to a human-facing identity.
type Account struct {
	HomeAccountID     string `json:"home_account_id,omitempty"`
	Environment       string `json:"environment,omitempty"`
	Realm             string `json:"realm,omitempty"`
	LocalAccountID    string `json:"local_account_id,omitempty"`
	AuthorityType     string `json:"authority_type,omitempty"`
	PreferredUsername string `json:"username,omitempty"`
	GivenName         string `json:"given_name,omitempty"`
	FamilyName        string `json:"family_name,omitempty"`
	Name              string `json:"name,omitempty"`
	RawClientInfo     string `json:"client_info,omitempty"`
}

func NewAccount(homeAccountID, environment, realm, localAccountID, authorityType, username string) Account {
	return Account{
		HomeAccountID:     homeAccountID,
		Environment:       environment,
		Realm:             realm,
		LocalAccountID:    localAccountID,
		AuthorityType:     authorityType,
		PreferredUsername: username,
	}
}

func (a Account) Key() string {
	return strings.ToLower(strings.Join(
		[]string{a.HomeAccountID, a.Environment, a.Realm},
		KeySeparator,
	))
}

// AppMetadata records the family id a client belongs to in an environment.
// It is consulted to decide whether the family token lookup runs first.
type AppMetadata struct {
	FamilyID    string `json:"family_id,omitempty"`
	ClientID    string `json:"client_id,omitempty"`
	Environment string `json:"environment,omitempty"`
}

func NewAppMetadata(familyID, clientID, environment string) AppMetadata {
	return AppMetadata{
		FamilyID:    familyID,
		ClientID:    clientID,
		Environment: environment,
	}
}

func (m AppMetadata) Key() string {
	return strings.ToLower(strings.Join(
		[]string{"appmetadata", m.Environment, m.ClientID},
		KeySeparator,
	))
}

// NormalizeScopes lower-cases, de-duplicates, sorts and space-joins a scope
// list. The result is the canonical "target" string used in keys.
func NormalizeScopes(scopes []string) string {
	seen := make(map[string]struct{}, len(scopes))
	normalized := make([]string, 0, len(scopes))
	for _, s := range scopes {
		s = strings.ToLower(strings.TrimSpace(s))
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		normalized = append(normalized, s)
	}
	sort.Strings(normalized)
	return strings.Join(normalized, " ")
}

// SplitScopes splits a canonical target string back into a scope list.
func SplitScopes(target string) []string {
	return strings.Fields(target)
}
