package flow

import (
	"fmt"
	"net/url"
	"strings"
)

// Grant types sent to the token endpoint.
const (
	grantRefreshToken      = "refresh_token"
	grantAuthorizationCode = "authorization_code"
	grantDeviceCode        = "urn:ietf:params:oauth:grant-type:device_code"
	grantJWTBearer         = "urn:ietf:params:oauth:grant-type:jwt-bearer"
)

// tokenParams is the typed builder for token endpoint request bodies. Fixed
// fields cover everything the flows send; anything else goes through
// SetExtra, which refuses keys that would collide with a fixed field or with
// another extra.
type tokenParams struct {
	clientID          string
	grantType         string
	scopes            []string
	refreshToken      string
	code              string
	redirectURI       string
	codeVerifier      string
	deviceCode        string
	assertion         string
	requestedTokenUse string

	extras map[string]string
}

func newTokenParams(clientID, grantType string, scopes []string) *tokenParams {
	return &tokenParams{
		clientID:  clientID,
		grantType: grantType,
		scopes:    scopes,
		extras:    map[string]string{},
	}
}

var fixedParamKeys = map[string]struct{}{
	"client_id":           {},
	"grant_type":          {},
	"scope":               {},
	"refresh_token":       {},
	"code":                {},
	"redirect_uri":        {},
	"code_verifier":       {},
	"device_code":         {},
	"assertion":           {},
	"requested_token_use": {},
	"client_info":         {},
}

// SetExtra adds a free-form parameter. Key collisions are a build-time
// error rather than a silent overwrite.
func (p *tokenParams) SetExtra(key, value string) error {
	if _, fixed := fixedParamKeys[key]; fixed {
		return fmt.Errorf("extra parameter %q collides with a built-in field", key)
	}
	if _, dup := p.extras[key]; dup {
		return fmt.Errorf("duplicate extra parameter %q", key)
	}
	p.extras[key] = value
	return nil
}

// Build renders the form body. All flows request client_info so account
// identity can be validated on the response.
func (p *tokenParams) Build() url.Values {
	v := url.Values{}
	v.Set("client_id", p.clientID)
	v.Set("grant_type", p.grantType)
	v.Set("client_info", "1")
	if len(p.scopes) > 0 {
		v.Set("scope", strings.Join(p.scopes, " "))
	}
	if p.refreshToken != "" {
		v.Set("refresh_token", p.refreshToken)
	}
	if p.code != "" {
		v.Set("code", p.code)
	}
	if p.redirectURI != "" {
		v.Set("redirect_uri", p.redirectURI)
	}
	if p.codeVerifier != "" {
		v.Set("code_verifier", p.codeVerifier)
	}
	if p.deviceCode != "" {
		v.Set("device_code", p.deviceCode)
	}
	if p.assertion != "" {
		v.Set("assertion", p.assertion)
	}
	if p.requestedTokenUse != "" {
		v.Set("requested_token_use", p.requestedTokenUse)
	}
	for k, val := range p.extras {
		v.Set(k, val)
	}
	return v
}
