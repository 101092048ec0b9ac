package flow

import (
	"errors"
	"fmt"

	"github.com/authgate/authgate/internal/transport"
)

// ErrNoTokensFound reports that the silent flow found neither a valid access
// token nor any refresh token; the caller must go interactive.
var ErrNoTokensFound = errors.New("no cached tokens found for the requested account")

// ErrCancelled reports caller-initiated cancellation. No cache write-back has
// happened when this is returned.
var ErrCancelled = errors.New("token acquisition was cancelled")

// ErrUserCancelled reports that the user dismissed the interactive prompt.
var ErrUserCancelled = errors.New("user cancelled the interactive sign-in")

// AccountMismatchError reports that the authority returned tokens for a
// different account than the one requested. It is always fatal: accepting the
// response would hand one account's tokens to another.
type AccountMismatchError struct {
	Expected string
	Actual   string
}

func (e *AccountMismatchError) Error() string {
	return "authority returned tokens for a different account than requested"
}

// RefreshError reports an OAuth failure during refresh-token exchange.
type RefreshError struct {
	Underlying *transport.OAuthError
}

func (e *RefreshError) Error() string {
	return fmt.Sprintf("refresh token exchange failed: %v", e.Underlying)
}

func (e *RefreshError) Unwrap() error { return e.Underlying }

// AuthorityError reports a failed endpoint discovery. Negative results are
// never cached, so the next request re-attempts resolution.
type AuthorityError struct {
	Authority  string
	Underlying error
}

func (e *AuthorityError) Error() string {
	return fmt.Sprintf("failed to resolve authority %s: %v", e.Authority, e.Underlying)
}

func (e *AuthorityError) Unwrap() error { return e.Underlying }
