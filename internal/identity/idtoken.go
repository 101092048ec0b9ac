package identity

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// IDTokenClaims is the subset of ID-token claims the cache and account model
// care about. Tokens are parsed without signature validation -- they come
// straight from the token endpoint over TLS and validation is the transport
// collaborator's concern.
type IDTokenClaims struct {
	Issuer            string `json:"iss,omitempty"`
	Subject           string `json:"sub,omitempty"`
	Audience          string `json:"-"`
	ObjectID          string `json:"oid,omitempty"`
	TenantID          string `json:"tid,omitempty"`
	PreferredUsername string `json:"preferred_username,omitempty"`
	UPN               string `json:"upn,omitempty"`
	Email             string `json:"email,omitempty"`
	Name              string `json:"name,omitempty"`
	GivenName         string `json:"given_name,omitempty"`
	FamilyName        string `json:"family_name,omitempty"`

	Raw string `json:"-"`
}

// ParseIDToken extracts claims from a raw compact JWT without verifying the
// signature.
func ParseIDToken(raw string) (IDTokenClaims, error) {
	if raw == "" {
		return IDTokenClaims{}, fmt.Errorf("ID token is empty")
	}
	parser := jwt.NewParser()
	claims := jwt.MapClaims{}
	if _, _, err := parser.ParseUnverified(raw, claims); err != nil {
		return IDTokenClaims{}, fmt.Errorf("failed to parse ID token: %w", err)
	}

	str := func(key string) string {
		if v, ok := claims[key].(string); ok {
			return v
		}
		return ""
	}

	out := IDTokenClaims{
		Issuer:            str("iss"),
		Subject:           str("sub"),
		ObjectID:          str("oid"),
		TenantID:          str("tid"),
		PreferredUsername: str("preferred_username"),
		UPN:               str("upn"),
		Email:             str("email"),
		Name:              str("name"),
		GivenName:         str("given_name"),
		FamilyName:        str("family_name"),
		Raw:               raw,
	}
	return out, nil
}

// IsZero reports whether no token was parsed.
func (c IDTokenClaims) IsZero() bool { return c.Raw == "" }

// LocalAccountID is the tenant-local identifier: the object id when present,
// else the subject.
func (c IDTokenClaims) LocalAccountID() string {
	if c.ObjectID != "" {
		return c.ObjectID
	}
	return c.Subject
}

// DisplayableID is the best human-facing name for the account.
func (c IDTokenClaims) DisplayableID() string {
	if c.PreferredUsername != "" {
		return c.PreferredUsername
	}
	if c.UPN != "" {
		return c.UPN
	}
	return c.Email
}
