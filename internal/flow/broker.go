package flow

import (
	"context"
	"time"
)

// AuthorizationResult is what the interactive delegate hands back: an
// authorization code, a user cancellation, or an error from the authority's
// authorize endpoint.
type AuthorizationResult struct {
	Code             string
	RedirectURI      string
	Cancelled        bool
	ErrorCode        string
	ErrorDescription string
}

// Broker is the interactive delegate: a native browser control, a loopback
// web server plus system browser, or an OS broker app. The core treats it as
// opaque -- it gets an authorization URL and the expected redirect URI and
// must come back with a result.
type Broker interface {
	Authorize(ctx context.Context, authURL, redirectURI string) (AuthorizationResult, error)
}

// Clock supplies "now" so expiry logic is deterministic under test.
type Clock interface {
	Now() time.Time
}

// RealClock is the production Clock.
type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now().UTC() }
