package browserutils

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/pkg/browser"
	"go.uber.org/zap"

	"github.com/authgate/authgate/internal/flow"
)

const shutdownGrace = 3 * time.Second

// Opener launches a URL in the user's browser. Swappable under test.
type Opener interface {
	OpenURL(url string) error
}

type SystemOpener struct{}

func (SystemOpener) OpenURL(u string) error { return browser.OpenURL(u) }

// LoopbackBroker implements the interactive delegate with a localhost
// HTTP listener and the system browser. The redirect URI decides the
// address and path the listener binds to.
type LoopbackBroker struct {
	Opener Opener
	Logger *zap.Logger
}

func NewLoopbackBroker(logger *zap.Logger) *LoopbackBroker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LoopbackBroker{Opener: SystemOpener{}, Logger: logger}
}

// Authorize binds the loopback listener, opens the browser at authURL and
// waits for the authority to redirect back with a code or an error.
func (b *LoopbackBroker) Authorize(ctx context.Context, authURL, redirectURI string) (flow.AuthorizationResult, error) {
	var zero flow.AuthorizationResult

	ru, err := url.Parse(redirectURI)
	if err != nil {
		return zero, fmt.Errorf("invalid redirect URI %q: %w", redirectURI, err)
	}
	if ru.Hostname() != "localhost" && ru.Hostname() != "127.0.0.1" {
		return zero, fmt.Errorf("redirect URI %q is not a loopback address", redirectURI)
	}

	expectedState, err := stateFromAuthURL(authURL)
	if err != nil {
		return zero, err
	}

	listener, err := net.Listen("tcp", ru.Host)
	if err != nil {
		return zero, fmt.Errorf("failed to bind callback listener on %s: %w", ru.Host, err)
	}

	type callback struct {
		result flow.AuthorizationResult
		err    error
	}
	done := make(chan callback, 1)

	path := ru.Path
	if path == "" {
		path = "/"
	}

	mux := http.NewServeMux()
	mux.HandleFunc(path, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if state := q.Get("state"); state != expectedState {
			http.Error(w, "state mismatch", http.StatusBadRequest)
			done <- callback{err: errors.New("authorization response state does not match the request")}
			return
		}

		result := flow.AuthorizationResult{
			Code:             q.Get("code"),
			RedirectURI:      redirectURI,
			ErrorCode:        q.Get("error"),
			ErrorDescription: q.Get("error_description"),
		}
		if result.ErrorCode == "access_denied" {
			result.Cancelled = true
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if result.Code != "" {
			fmt.Fprint(w, "<html><body>Sign-in complete. You can close this window.</body></html>")
		} else {
			fmt.Fprint(w, "<html><body>Sign-in failed. You can close this window.</body></html>")
		}
		done <- callback{result: result}
	})

	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		if serveErr := srv.Serve(listener); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			b.Logger.Warn("callback server stopped", zap.Error(serveErr))
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	b.Logger.Info("waiting for browser sign-in", zap.String("listen", ru.Host))
	if err := b.Opener.OpenURL(authURL); err != nil {
		// The listener stays up; the user can still paste the URL manually.
		b.Logger.Warn("failed to open browser, open the URL manually", zap.Error(err))
		fmt.Printf("Open this URL in your browser to sign in:\n\n  %s\n\n", authURL)
	}

	select {
	case cb := <-done:
		return cb.result, cb.err
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

func stateFromAuthURL(authURL string) (string, error) {
	u, err := url.Parse(authURL)
	if err != nil {
		return "", fmt.Errorf("invalid authorization URL: %w", err)
	}
	state := u.Query().Get("state")
	if state == "" {
		return "", errors.New("authorization URL is missing a state parameter")
	}
	return state, nil
}
