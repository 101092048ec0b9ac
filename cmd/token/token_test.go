package token_test

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/authgate/authgate/cmd/token"
	"github.com/authgate/authgate/internal/authority"
	"github.com/authgate/authgate/internal/cache"
	"github.com/authgate/authgate/internal/config"
	"github.com/authgate/authgate/internal/flow"
	mock_authgate "github.com/authgate/authgate/tests/mock"
)

const (
	authorityURL = "https://login.microsoftonline.com/tenant"
	clientID     = "client-1"
	homeID       = "uid.utid"
)

func newRuntime(t *testing.T, ctrl *gomock.Controller) (*token.Runtime, *cache.MemoryStore) {
	t.Helper()

	transport := mock_authgate.NewMockTransportClient(ctrl)
	transport.EXPECT().
		GetJSON(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, out any) error {
			return json.Unmarshal([]byte(`{
				"issuer": "https://login.microsoftonline.com/tenant/v2.0",
				"authorization_endpoint": "https://login.microsoftonline.com/tenant/oauth2/v2.0/authorize",
				"token_endpoint": "https://login.microsoftonline.com/tenant/oauth2/v2.0/token"
			}`), out)
		}).AnyTimes()

	store := cache.NewMemoryStore()
	client, err := flow.NewClient(flow.Options{
		ClientID:    clientID,
		RedirectURI: "http://localhost:8400/callback",
		Cache:       cache.NewManager(store),
		Resolver:    authority.NewResolver(transport, zap.NewNop()),
		Transport:   transport,
	})
	require.NoError(t, err)

	cfg := &config.Config{}
	cfg.Auth.Authority = authorityURL
	cfg.Auth.ClientID = clientID

	return &token.Runtime{Client: client, Config: cfg}, store
}

func seedCredentials(t *testing.T, store *cache.MemoryStore) {
	t.Helper()
	now := time.Now().Unix()
	at := cache.NewAccessToken(homeID, "login.microsoftonline.com", "tenant", clientID,
		now-60, now+3600, now+7200, []string{"openid", "user.read"}, "cached-at", "Bearer")
	require.NoError(t, store.SaveAccessToken(at))
	acc := cache.NewAccount(homeID, "login.microsoftonline.com", "tenant", "oid-1", cache.AuthorityTypeAAD, "user@contoso.com")
	require.NoError(t, store.SaveAccount(acc))
}

func execute(t *testing.T, deps token.Dependencies, args ...string) (string, string, error) {
	t.Helper()
	cmd := token.NewTokenCmd(deps)
	out, errOut := &bytes.Buffer{}, &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

func TestSilentCmd(t *testing.T) {
	t.Run("prints the cached token", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		rt, store := newRuntime(t, ctrl)
		seedCredentials(t, store)

		out, errOut, err := execute(t, token.Dependencies{
			Runtime: func() (*token.Runtime, error) { return rt, nil },
		}, "silent", "--scope", "user.read")
		require.NoError(t, err)
		assert.Contains(t, out, "cached-at")
		assert.Contains(t, errOut, "Signed in as user@contoso.com")
	})

	t.Run("empty cache points at interactive sign-in", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		rt, _ := newRuntime(t, ctrl)

		_, _, err := execute(t, token.Dependencies{
			Runtime: func() (*token.Runtime, error) { return rt, nil },
		}, "silent", "--scope", "user.read")
		require.Error(t, err)
		assert.ErrorIs(t, err, flow.ErrNoTokensFound)
		assert.Contains(t, err.Error(), "authgate token interactive")
	})

	t.Run("scope flag is required", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		rt, _ := newRuntime(t, ctrl)

		_, _, err := execute(t, token.Dependencies{
			Runtime: func() (*token.Runtime, error) { return rt, nil },
		}, "silent")
		assert.ErrorContains(t, err, "scope")
	})

	t.Run("json output carries the full result", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		rt, store := newRuntime(t, ctrl)
		seedCredentials(t, store)

		out, _, err := execute(t, token.Dependencies{
			Runtime: func() (*token.Runtime, error) { return rt, nil },
		}, "silent", "--scope", "user.read", "--json")
		require.NoError(t, err)

		var decoded map[string]any
		require.NoError(t, json.Unmarshal([]byte(out), &decoded))
		assert.Equal(t, "cached-at", decoded["AccessToken"])
	})
}

func TestInteractiveCmdWithoutBroker(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	rt, _ := newRuntime(t, ctrl)

	// No broker is wired, so the flow refuses before reaching the browser.
	_, _, err := execute(t, token.Dependencies{
		Runtime: func() (*token.Runtime, error) { return rt, nil },
	}, "interactive", "--scope", "user.read")
	assert.ErrorContains(t, err, "delegate")
}
