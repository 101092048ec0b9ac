// Package legacy keeps the older single-map token cache readable and
// writable alongside the modern multi-credential cache, so upgrading or
// downgrading the client library never forces a re-authentication.
package legacy

import (
	"strings"
)

// SubjectTypeUser is the only subject type the interop layer produces.
const SubjectTypeUser = "User"

// NoGivenUsername is the sentinel stored for accounts that have no
// displayable id (B2C-style accounts). Entry matching treats it as a wildcard
// on either side of the comparison.
const NoGivenUsername = "NO_GIVEN_USERNAME"

// keySeparator joins the key tuple in serialized form. Part of the on-disk
// contract with the previous library generation.
const keySeparator = "::"

// Key is the composite key of a legacy cache entry. The field order inside
// the serialized form must not change.
type Key struct {
	Authority     string `json:"authority"`
	Resource      string `json:"resource"`
	ClientID      string `json:"client_id"`
	SubjectType   string `json:"subject_type"`
	UniqueID      string `json:"unique_id"`
	DisplayableID string `json:"displayable_id"`
}

// String renders the tuple in its fixed serialized order.
func (k Key) String() string {
	return strings.Join(
		[]string{k.Authority, k.Resource, k.ClientID, k.SubjectType, k.UniqueID, k.DisplayableID},
		keySeparator,
	)
}

// Bundle is the value side of a legacy entry: an access token result, the
// refresh token secret, and the markers carried alongside them. The key tuple
// is repeated inside the bundle so entries survive being read back without
// string-splitting the map key.
type Bundle struct {
	Key Key `json:"key"`

	AccessToken   string `json:"access_token,omitempty"`
	TokenType     string `json:"token_type,omitempty"`
	ExpiresOn     int64  `json:"expires_on,omitempty"`
	RefreshToken  string `json:"refresh_token,omitempty"`
	RawIDToken    string `json:"id_token,omitempty"`
	RawClientInfo string `json:"client_info,omitempty"`

	// ResourceInResponse retroactively promotes the refresh token to
	// multi-resource status: a non-empty value means the token was accepted
	// for a resource beyond the one it was issued for.
	ResourceInResponse string `json:"resource_in_response,omitempty"`
}

// IsMRRT reports whether the bundled refresh token is known to work across
// resources.
func (b Bundle) IsMRRT() bool { return b.ResourceInResponse != "" }

// Environment returns the host portion of the entry's authority URL.
func (b Bundle) Environment() string {
	return authorityHost(b.Key.Authority)
}

func authorityHost(authority string) string {
	s := authority
	if i := strings.Index(s, "://"); i >= 0 {
		s = s[i+3:]
	}
	if i := strings.IndexAny(s, "/?#"); i >= 0 {
		s = s[:i]
	}
	return strings.ToLower(s)
}
