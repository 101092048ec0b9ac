package models

import "time"

// Account is the caller-facing identity a token was issued to.
type Account struct {
	HomeAccountID  string `json:"homeAccountId" yaml:"homeAccountId"`
	Environment    string `json:"environment" yaml:"environment"`
	Realm          string `json:"realm" yaml:"realm"`
	LocalAccountID string `json:"localAccountId,omitempty" yaml:"localAccountId,omitempty"`
	Username       string `json:"username,omitempty" yaml:"username,omitempty"`
	Name           string `json:"name,omitempty" yaml:"name,omitempty"`
	AuthorityType  string `json:"authorityType,omitempty" yaml:"authorityType,omitempty"`
}

// IDTokenClaims is the claims surface exposed on a token result.
type IDTokenClaims struct {
	Subject           string `json:"sub,omitempty"`
	ObjectID          string `json:"oid,omitempty"`
	TenantID          string `json:"tid,omitempty"`
	PreferredUsername string `json:"preferred_username,omitempty"`
	Name              string `json:"name,omitempty"`
	Email             string `json:"email,omitempty"`
}

// TokenResult is what every acquisition entry point returns.
type TokenResult struct {
	AccessToken   string
	TokenType     string
	ExpiresOn     time.Time
	GrantedScopes []string
	TenantID      string
	IDToken       IDTokenClaims
	Account       Account

	// Stale marks a token served by the resiliency fallback: technically
	// expired but within its extended lifetime.
	Stale bool
}

// DeviceCodeInfo is surfaced to the caller while the device-code flow waits
// for the user to finish signing in on another device.
type DeviceCodeInfo struct {
	UserCode        string
	VerificationURL string
	Message         string
	ExpiresOn       time.Time
	Interval        time.Duration
}

// PromptPolicy controls what the interactive flow asks of the user.
type PromptPolicy string

const (
	PromptSelectAccount PromptPolicy = "select_account"
	PromptLogin         PromptPolicy = "login"
	PromptConsent       PromptPolicy = "consent"
	PromptNone          PromptPolicy = "none"
)
