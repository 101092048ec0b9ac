package transport

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// Seconds decodes an integer count of seconds that some authorities send as
// a JSON number and others as a quoted string.
type Seconds int64

func (s *Seconds) UnmarshalJSON(b []byte) error {
	if len(b) == 0 {
		return nil
	}
	if b[0] == '"' {
		var str string
		if err := json.Unmarshal(b, &str); err != nil {
			return err
		}
		if str == "" {
			*s = 0
			return nil
		}
		n, err := strconv.ParseInt(str, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid seconds value %q: %w", str, err)
		}
		*s = Seconds(n)
		return nil
	}
	var n int64
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*s = Seconds(n)
	return nil
}

// TokenResponse is the parsed success body of a token endpoint exchange.
type TokenResponse struct {
	AccessToken      string  `json:"access_token"`
	RefreshToken     string  `json:"refresh_token"`
	IDToken          string  `json:"id_token"`
	TokenType        string  `json:"token_type"`
	ExpiresIn        Seconds `json:"expires_in"`
	ExtExpiresIn     Seconds `json:"ext_expires_in"`
	Scope            string  `json:"scope"`
	ClientInfo       string  `json:"client_info"`
	FamilyID         string  `json:"foci"`
}

// DeviceCodeResponse is the parsed body of a device authorization request.
type DeviceCodeResponse struct {
	DeviceCode              string  `json:"device_code"`
	UserCode                string  `json:"user_code"`
	VerificationURI         string  `json:"verification_uri"`
	VerificationURIComplete string  `json:"verification_uri_complete"`
	ExpiresIn               Seconds `json:"expires_in"`
	Interval                Seconds `json:"interval"`
	Message                 string  `json:"message"`
}

// OAuth error codes with dedicated handling.
const (
	ErrorCodeAuthorizationPending = "authorization_pending"
	ErrorCodeSlowDown             = "slow_down"
	ErrorCodeInvalidGrant         = "invalid_grant"
)

// OAuthError is a structured token endpoint or discovery failure: the OAuth
// error body when one was sent, plus the HTTP status and raw body for
// diagnostics.
type OAuthError struct {
	Code        string `json:"error"`
	Description string `json:"error_description"`
	StatusCode  int    `json:"-"`
	RetryAfter  time.Duration
	Body        []byte `json:"-"`
}

func (e *OAuthError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("authority returned %q (HTTP %d): %s", e.Code, e.StatusCode, e.Description)
	}
	return fmt.Sprintf("authority returned HTTP %d", e.StatusCode)
}

// IsTransient reports a server-side failure worth substituting a stale token
// for: any 5xx, or a 408 request timeout.
func (e *OAuthError) IsTransient() bool {
	return e.StatusCode >= 500 || e.StatusCode == 408
}

// IsAuthorizationPending reports the device-flow "user has not finished yet"
// condition, which is polled rather than surfaced.
func (e *OAuthError) IsAuthorizationPending() bool {
	return e.Code == ErrorCodeAuthorizationPending
}

// IsSlowDown reports the device-flow request to widen the polling interval.
func (e *OAuthError) IsSlowDown() bool {
	return e.Code == ErrorCodeSlowDown
}
