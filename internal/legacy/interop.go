package legacy

import (
	"go.uber.org/zap"

	"github.com/authgate/authgate/internal/cache"
	"github.com/authgate/authgate/internal/identity"
)

// Interop translates between the modern multi-credential cache and the
// legacy single-map cache. Every operation is best-effort: a malformed blob,
// a missing precondition or a store failure is logged and swallowed, and the
// operation reports "nothing found". Token acquisition must never fail
// because legacy interop did.
type Interop struct {
	store  BlobStore
	modern *cache.Manager
	logger *zap.Logger
	logPII bool
}

// NewInterop is the constructor for Interop. When logPII is false, usernames
// and account ids never reach the log output.
func NewInterop(store BlobStore, modern *cache.Manager, logger *zap.Logger, logPII bool) *Interop {
	return &Interop{store: store, modern: modern, logger: logger, logPII: logPII}
}

// WriteModernFromLegacy migrates a legacy result into the modern cache.
// Client info, refresh token and ID token are soft preconditions: if any is
// absent the migration is skipped with a log line, not an error.
func (i *Interop) WriteModernFromLegacy(bundle Bundle, now int64) (*cache.AccessToken, *cache.Account) {
	if bundle.RawClientInfo == "" {
		i.logger.Warn("skipping legacy migration: no client info on entry")
		return nil, nil
	}
	if bundle.RefreshToken == "" {
		i.logger.Warn("skipping legacy migration: no refresh token on entry")
		return nil, nil
	}
	if bundle.RawIDToken == "" {
		i.logger.Warn("skipping legacy migration: no ID token on entry")
		return nil, nil
	}

	claims, err := identity.ParseIDToken(bundle.RawIDToken)
	if err != nil {
		i.logger.Warn("skipping legacy migration: ID token unreadable", zap.Error(err))
		return nil, nil
	}
	homeAccountID := identity.DeriveHomeAccountID(bundle.RawClientInfo, claims.Subject, claims.UPN, claims.Email)
	environment := bundle.Environment()

	rt := cache.NewRefreshToken(homeAccountID, environment, bundle.Key.ClientID, bundle.RefreshToken, "", bundle.RawClientInfo)
	if err := i.modern.Repo().SaveRefreshToken(rt); err != nil {
		i.logger.Warn("failed to migrate legacy refresh token", zap.Error(err))
		if i.logPII {
			i.logger.Debug("failed to migrate legacy refresh token",
				zap.String("displayable_id", bundle.Key.DisplayableID),
				zap.String("home_account_id", homeAccountID))
		}
		return nil, nil
	}

	at := cache.NewAccessToken(homeAccountID, environment, claims.TenantID, bundle.Key.ClientID,
		now, bundle.ExpiresOn, bundle.ExpiresOn, []string{bundle.Key.Resource}, bundle.AccessToken, bundle.TokenType)
	at.RawClientInfo = bundle.RawClientInfo

	account := cache.NewAccount(homeAccountID, environment, claims.TenantID,
		claims.LocalAccountID(), cache.AuthorityTypeAAD, claims.DisplayableID())
	account.RawClientInfo = bundle.RawClientInfo
	if err := i.modern.Repo().SaveAccount(account); err != nil {
		i.logger.Warn("failed to write account during legacy migration", zap.Error(err))
		return &at, nil
	}

	if i.logPII {
		i.logger.Debug("migrated legacy entry to modern cache",
			zap.String("displayable_id", bundle.Key.DisplayableID),
			zap.String("home_account_id", homeAccountID))
	}
	return &at, &account
}

// WriteLegacyFromModern mirrors a freshly acquired refresh token into the
// legacy map so an older client generation can pick it up. The requested
// scope is stamped as resource-in-response, which promotes the token to
// multi-resource status for legacy readers.
func (i *Interop) WriteLegacyFromModern(rt cache.RefreshToken, claims identity.IDTokenClaims, authority, uniqueID, scope string) {
	e, err := loadEntries(i.store)
	if err != nil {
		i.logger.Warn("failed to load legacy cache for write-through", zap.Error(err))
		return
	}

	displayableID := claims.DisplayableID()
	if displayableID == "" {
		displayableID = NoGivenUsername
	}

	key := Key{
		Authority:     authority,
		Resource:      scope,
		ClientID:      rt.ClientID,
		SubjectType:   SubjectTypeUser,
		UniqueID:      uniqueID,
		DisplayableID: displayableID,
	}
	e[key.String()] = Bundle{
		Key:                key,
		RefreshToken:       rt.Secret,
		RawIDToken:         claims.Raw,
		RawClientInfo:      rt.RawClientInfo,
		ResourceInResponse: scope,
	}

	if err := storeEntries(i.store, e); err != nil {
		i.logger.Warn("failed to write legacy cache", zap.Error(err))
		if i.logPII {
			i.logger.Debug("failed to write legacy cache",
				zap.String("displayable_id", displayableID),
				zap.String("unique_id", uniqueID))
		}
	}
}

// FindAllEntriesForModern returns legacy refresh tokens usable by the modern
// flow. Entries are filtered by client id and environment alias, then
// progressively narrowed by client-info, UPN and unique id. A narrowing step
// that would yield nothing is skipped: an empty result disables the filter
// instead of emptying the set.
func (i *Interop) FindAllEntriesForModern(envAliases []string, clientID, upn, uniqueID, rawClientInfo string) []cache.RefreshToken {
	e, err := loadEntries(i.store)
	if err != nil {
		i.logger.Warn("failed to load legacy cache", zap.Error(err))
		return nil
	}

	var candidates []Bundle
	for _, b := range e {
		if b.Key.ClientID != clientID || b.RefreshToken == "" {
			continue
		}
		if !containsAlias(envAliases, b.Environment()) {
			continue
		}
		candidates = append(candidates, b)
	}

	if rawClientInfo != "" {
		if wanted, err := identity.DecodeClientInfo(rawClientInfo); err == nil {
			narrowed := filterBundles(candidates, func(b Bundle) bool {
				got, err := identity.DecodeClientInfo(b.RawClientInfo)
				return err == nil && got.HomeAccountID() == wanted.HomeAccountID()
			})
			if len(narrowed) > 0 {
				candidates = narrowed
			}
		}
	}

	if upn != "" {
		narrowed := filterBundles(candidates, func(b Bundle) bool {
			return b.Key.DisplayableID == upn
		})
		if len(narrowed) > 0 {
			candidates = narrowed
		}
	}

	if uniqueID != "" {
		narrowed := filterBundles(candidates, func(b Bundle) bool {
			return b.Key.UniqueID == uniqueID
		})
		if len(narrowed) > 0 {
			candidates = narrowed
		}
	}

	out := make([]cache.RefreshToken, 0, len(candidates))
	for _, b := range candidates {
		homeAccountID := ""
		if ci, err := identity.DecodeClientInfo(b.RawClientInfo); err == nil {
			homeAccountID = ci.HomeAccountID()
		}
		out = append(out, cache.NewRefreshToken(homeAccountID, b.Environment(), b.Key.ClientID, b.RefreshToken, "", b.RawClientInfo))
	}
	return out
}

// FindEntryForModern returns the single best legacy refresh token: one from
// the preferred environment when available, otherwise the first match.
func (i *Interop) FindEntryForModern(preferredEnvironment string, envAliases []string, clientID, upn, uniqueID, rawClientInfo string) *cache.RefreshToken {
	all := i.FindAllEntriesForModern(envAliases, clientID, upn, uniqueID, rawClientInfo)
	if len(all) == 0 {
		return nil
	}
	for idx := range all {
		if all[idx].Environment == preferredEnvironment {
			return &all[idx]
		}
	}
	return &all[0]
}

// RemoveAccount deletes every legacy entry for the account. Displayable ids
// match exactly or through the NoGivenUsername sentinel on either side; the
// entry's derived account identifier must also equal the given one.
func (i *Interop) RemoveAccount(displayableID string, envAliases []string, homeAccountID string) {
	e, err := loadEntries(i.store)
	if err != nil {
		i.logger.Warn("failed to load legacy cache for account removal", zap.Error(err))
		return
	}

	removed := 0
	for k, b := range e {
		if !containsAlias(envAliases, b.Environment()) {
			continue
		}
		if !displayableIDsMatch(b.Key.DisplayableID, displayableID) {
			continue
		}
		ci, err := identity.DecodeClientInfo(b.RawClientInfo)
		if err != nil || ci.HomeAccountID() != homeAccountID {
			continue
		}
		delete(e, k)
		removed++
	}

	if removed == 0 {
		return
	}
	if err := storeEntries(i.store, e); err != nil {
		i.logger.Warn("failed to write legacy cache after account removal", zap.Error(err))
		return
	}
	i.logger.Info("removed legacy cache entries", zap.Int("count", removed))
	if i.logPII {
		i.logger.Debug("removed legacy cache entries",
			zap.String("displayable_id", displayableID),
			zap.String("home_account_id", homeAccountID))
	}
}

// FindModernEntryForLegacy serves the reverse direction: an older client
// asking the modern cache for a refresh token by UPN. Accounts in the given
// environment are joined to refresh tokens by home account id.
func (i *Interop) FindModernEntryForLegacy(environment, clientID, upn string) (*cache.Account, *cache.RefreshToken) {
	accounts, err := i.modern.AllAccounts()
	if err != nil {
		i.logger.Warn("failed to list modern accounts for legacy lookup", zap.Error(err))
		return nil, nil
	}
	for _, a := range accounts {
		if a.Environment != environment || a.PreferredUsername != upn {
			continue
		}
		rt, err := i.modern.ReadRefreshToken(a.HomeAccountID, []string{environment}, "", clientID)
		if err != nil {
			continue
		}
		account := a
		return &account, &rt
	}
	return nil, nil
}

func displayableIDsMatch(a, b string) bool {
	if a == NoGivenUsername || b == NoGivenUsername {
		return true
	}
	return a == b
}

func containsAlias(aliases []string, env string) bool {
	for _, a := range aliases {
		if a == env {
			return true
		}
	}
	return false
}

func filterBundles(in []Bundle, keep func(Bundle) bool) []Bundle {
	var out []Bundle
	for _, b := range in {
		if keep(b) {
			out = append(out, b)
		}
	}
	return out
}
