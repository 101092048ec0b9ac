package flow_test

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/url"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/authgate/authgate/internal/authority"
	"github.com/authgate/authgate/internal/cache"
	"github.com/authgate/authgate/internal/flow"
	"github.com/authgate/authgate/internal/identity"
	"github.com/authgate/authgate/internal/legacy"
	"github.com/authgate/authgate/internal/transport"
	"github.com/authgate/authgate/models"
	mock_authgate "github.com/authgate/authgate/tests/mock"
)

const (
	testAuthority = "https://login.microsoftonline.com/tenant"
	testClientID  = "client-1"
	testHomeID    = "uid.utid"
)

var testNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func encodeClientInfo(t *testing.T, uid, utid string) string {
	t.Helper()
	b, err := json.Marshal(map[string]string{"uid": uid, "utid": utid})
	require.NoError(t, err)
	return base64.RawURLEncoding.EncodeToString(b)
}

func encodeJWT(t *testing.T, claims map[string]any) string {
	t.Helper()
	header, err := json.Marshal(map[string]string{"alg": "none", "typ": "JWT"})
	require.NoError(t, err)
	body, err := json.Marshal(claims)
	require.NoError(t, err)
	return base64.RawURLEncoding.EncodeToString(header) + "." +
		base64.RawURLEncoding.EncodeToString(body) + "."
}

func testIDToken(t *testing.T) string {
	return encodeJWT(t, map[string]any{
		"sub":                "subject-1",
		"oid":                "oid-1",
		"tid":                "tenant",
		"preferred_username": "user@contoso.com",
		"name":               "Test User",
	})
}

func successResponse(t *testing.T) *transport.TokenResponse {
	return &transport.TokenResponse{
		AccessToken:  "new-at",
		RefreshToken: "new-rt",
		IDToken:      testIDToken(t),
		TokenType:    "Bearer",
		ExpiresIn:    3600,
		ExtExpiresIn: 7200,
		Scope:        "openid user.read",
		ClientInfo:   encodeClientInfo(t, "uid", "utid"),
	}
}

type testEnv struct {
	transport *mock_authgate.MockTransportClient
	broker    *mock_authgate.MockBroker
	store     *cache.MemoryStore
	manager   *cache.Manager
	legacy    *legacy.Interop
	blobs     *legacy.MemoryBlobStore
}

func expectDiscovery(env *testEnv) {
	env.transport.EXPECT().
		GetJSON(gomock.Any(), testAuthority+"/v2.0/.well-known/openid-configuration", gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, out any) error {
			return json.Unmarshal([]byte(`{
				"issuer": "https://login.microsoftonline.com/tenant/v2.0",
				"authorization_endpoint": "https://login.microsoftonline.com/tenant/oauth2/v2.0/authorize",
				"token_endpoint": "https://login.microsoftonline.com/tenant/oauth2/v2.0/token",
				"device_authorization_endpoint": "https://login.microsoftonline.com/tenant/oauth2/v2.0/devicecode"
			}`), out)
		}).AnyTimes()
}

func newTestEnv(t *testing.T, ctrl *gomock.Controller, mutate func(*flow.Options, *testEnv)) (*flow.Client, *testEnv) {
	t.Helper()

	env := &testEnv{
		transport: mock_authgate.NewMockTransportClient(ctrl),
		broker:    mock_authgate.NewMockBroker(ctrl),
		store:     cache.NewMemoryStore(),
		blobs:     legacy.NewMemoryBlobStore(),
	}
	env.manager = cache.NewManager(env.store)
	env.legacy = legacy.NewInterop(env.blobs, env.manager, zap.NewNop(), false)
	expectDiscovery(env)

	clock := mock_authgate.NewMockClock(ctrl)
	clock.EXPECT().Now().Return(testNow).AnyTimes()

	opts := flow.Options{
		ClientID:    testClientID,
		RedirectURI: "http://localhost:8400/callback",
		Cache:       env.manager,
		Resolver:    authority.NewResolver(env.transport, zap.NewNop()),
		Transport:   env.transport,
		Broker:      env.broker,
		Clock:       clock,
	}
	if mutate != nil {
		mutate(&opts, env)
	}

	client, err := flow.NewClient(opts)
	require.NoError(t, err)
	return client, env
}

func seedAccount(t *testing.T, env *testEnv) {
	t.Helper()
	acc := cache.NewAccount(testHomeID, "login.windows.net", "tenant", "oid-1", cache.AuthorityTypeAAD, "user@contoso.com")
	require.NoError(t, env.store.SaveAccount(acc))
}

func seedAccessToken(t *testing.T, env *testEnv, cachedAt, expiresOn, extExpiresOn int64, secret string) {
	t.Helper()
	at := cache.NewAccessToken(testHomeID, "login.windows.net", "tenant", testClientID,
		cachedAt, expiresOn, extExpiresOn, []string{"openid", "user.read"}, secret, "Bearer")
	require.NoError(t, env.store.SaveAccessToken(at))
}

func seedRefreshToken(t *testing.T, env *testEnv, secret string) {
	t.Helper()
	rt := cache.NewRefreshToken(testHomeID, "login.windows.net", testClientID, secret, "", encodeClientInfo(t, "uid", "utid"))
	require.NoError(t, env.store.SaveRefreshToken(rt))
}

func TestNewClientValidation(t *testing.T) {
	_, err := flow.NewClient(flow.Options{})
	assert.ErrorContains(t, err, "client id")

	_, err = flow.NewClient(flow.Options{ClientID: "x"})
	assert.ErrorContains(t, err, "cache")
}

func TestAcquireSilentCacheHit(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	client, env := newTestEnv(t, ctrl, nil)
	seedAccount(t, env)
	now := testNow.Unix()
	seedAccessToken(t, env, now-60, now+3600, now+7200, "cached-at")

	result, err := client.AcquireSilent(context.Background(), flow.SilentRequest{
		Authority: testAuthority,
		Scopes:    []string{"user.read"},
	})
	require.NoError(t, err)
	assert.Equal(t, "cached-at", result.AccessToken)
	assert.False(t, result.Stale)
	assert.Equal(t, "user@contoso.com", result.Account.Username)
	assert.Equal(t, "tenant", result.TenantID)
}

func TestAcquireSilentRefreshesExpiredToken(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	client, env := newTestEnv(t, ctrl, nil)
	seedAccount(t, env)
	seedRefreshToken(t, env, "old-rt")

	env.transport.EXPECT().
		PostForm(gomock.Any(), "https://login.microsoftonline.com/tenant/oauth2/v2.0/token", gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, form url.Values) (*transport.TokenResponse, error) {
			assert.Equal(t, "refresh_token", form.Get("grant_type"))
			assert.Equal(t, "old-rt", form.Get("refresh_token"))
			assert.Equal(t, "1", form.Get("client_info"))
			return successResponse(t), nil
		})

	result, err := client.AcquireSilent(context.Background(), flow.SilentRequest{
		Authority: testAuthority,
		Scopes:    []string{"user.read", "openid"},
	})
	require.NoError(t, err)
	assert.Equal(t, "new-at", result.AccessToken)
	assert.Equal(t, []string{"openid", "user.read"}, result.GrantedScopes)
	assert.Equal(t, testNow.Add(time.Hour), result.ExpiresOn)

	// The exchange results landed in the cache.
	at, err := env.manager.ReadAccessToken(testHomeID, []string{"login.microsoftonline.com"}, "tenant", testClientID, []string{"openid"})
	require.NoError(t, err)
	assert.Equal(t, "new-at", at.Secret)

	rt, err := env.manager.ReadRefreshToken(testHomeID, []string{"login.microsoftonline.com"}, "", testClientID)
	require.NoError(t, err)
	assert.Equal(t, "new-rt", rt.Secret)
}

func TestAcquireSilentKeepsRefreshTokenWhenNotRotated(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	client, env := newTestEnv(t, ctrl, nil)
	seedAccount(t, env)
	seedRefreshToken(t, env, "old-rt")

	resp := successResponse(t)
	resp.RefreshToken = ""
	env.transport.EXPECT().PostForm(gomock.Any(), gomock.Any(), gomock.Any()).Return(resp, nil)

	_, err := client.AcquireSilent(context.Background(), flow.SilentRequest{
		Authority: testAuthority,
		Scopes:    []string{"openid"},
	})
	require.NoError(t, err)

	rt, err := env.manager.ReadRefreshToken(testHomeID, []string{"login.microsoftonline.com"}, "", testClientID)
	require.NoError(t, err)
	assert.Equal(t, "old-rt", rt.Secret)
}

func TestAcquireSilentNoTokensFound(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	client, _ := newTestEnv(t, ctrl, nil)

	_, err := client.AcquireSilent(context.Background(), flow.SilentRequest{
		Authority: testAuthority,
		Scopes:    []string{"openid"},
	})
	assert.ErrorIs(t, err, flow.ErrNoTokensFound)
}

func TestAcquireSilentStaleTokenFallback(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	client, env := newTestEnv(t, ctrl, nil)
	seedAccount(t, env)
	seedRefreshToken(t, env, "old-rt")
	now := testNow.Unix()
	// Expired, but inside the extended lifetime.
	seedAccessToken(t, env, now-7200, now-100, now+3600, "stale-at")

	env.transport.EXPECT().PostForm(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil, &transport.OAuthError{StatusCode: 503, Code: "temporarily_unavailable"})

	result, err := client.AcquireSilent(context.Background(), flow.SilentRequest{
		Authority: testAuthority,
		Scopes:    []string{"user.read"},
	})
	require.NoError(t, err)
	assert.True(t, result.Stale)
	assert.Equal(t, "stale-at", result.AccessToken)
	assert.Equal(t, time.Unix(now+3600, 0).UTC(), result.ExpiresOn)

	// The transient failure armed the client-lifetime resiliency flag.
	assert.True(t, client.Resilient())

	// With the flag set, even a non-transient failure serves the stale
	// token instead of surfacing the error.
	env.transport.EXPECT().PostForm(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil, &transport.OAuthError{StatusCode: 400, Code: "invalid_grant"})

	result, err = client.AcquireSilent(context.Background(), flow.SilentRequest{
		Authority: testAuthority,
		Scopes:    []string{"user.read"},
	})
	require.NoError(t, err)
	assert.True(t, result.Stale)
}

func TestAcquireSilentNonTransientFailureWithoutFlag(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	client, env := newTestEnv(t, ctrl, nil)
	seedAccount(t, env)
	seedRefreshToken(t, env, "old-rt")
	now := testNow.Unix()
	seedAccessToken(t, env, now-7200, now-100, now+3600, "stale-at")

	env.transport.EXPECT().PostForm(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil, &transport.OAuthError{StatusCode: 400, Code: "invalid_grant"})

	_, err := client.AcquireSilent(context.Background(), flow.SilentRequest{
		Authority: testAuthority,
		Scopes:    []string{"user.read"},
	})

	var re *flow.RefreshError
	require.True(t, errors.As(err, &re))
	assert.Equal(t, "invalid_grant", re.Underlying.Code)
	assert.False(t, client.Resilient())
}

func TestAcquireSilentNoStaleTokenSurfacesTransientFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	client, env := newTestEnv(t, ctrl, nil)
	seedAccount(t, env)
	seedRefreshToken(t, env, "old-rt")

	env.transport.EXPECT().PostForm(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil, &transport.OAuthError{StatusCode: 503})

	_, err := client.AcquireSilent(context.Background(), flow.SilentRequest{
		Authority: testAuthority,
		Scopes:    []string{"user.read"},
	})

	var re *flow.RefreshError
	require.True(t, errors.As(err, &re))
}

func TestAcquireSilentAccountMismatchIsFatal(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	client, env := newTestEnv(t, ctrl, nil)
	seedAccount(t, env)
	seedRefreshToken(t, env, "old-rt")

	resp := successResponse(t)
	resp.ClientInfo = encodeClientInfo(t, "other", "account")
	env.transport.EXPECT().PostForm(gomock.Any(), gomock.Any(), gomock.Any()).Return(resp, nil)

	_, err := client.AcquireSilent(context.Background(), flow.SilentRequest{
		Authority: testAuthority,
		Scopes:    []string{"openid"},
	})

	var mismatch *flow.AccountMismatchError
	require.True(t, errors.As(err, &mismatch))
	assert.Equal(t, testHomeID, mismatch.Expected)
	assert.Equal(t, "other.account", mismatch.Actual)

	// Nothing was written back.
	_, err = env.manager.ReadAccessToken(testHomeID, []string{"login.microsoftonline.com"}, "tenant", testClientID, []string{"openid"})
	assert.ErrorIs(t, err, cache.ErrNotFound)
}

func TestAcquireSilentLegacyFallback(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	client, env := newTestEnv(t, ctrl, func(o *flow.Options, e *testEnv) {
		o.Legacy = e.legacy
	})

	// Only the legacy store knows this user.
	legacyRT := cache.NewRefreshToken(testHomeID, "login.microsoftonline.com", testClientID, "legacy-rt", "", encodeClientInfo(t, "uid", "utid"))
	claims, err := identity.ParseIDToken(testIDToken(t))
	require.NoError(t, err)
	env.legacy.WriteLegacyFromModern(legacyRT, claims, testAuthority, "oid-1", "user.read")

	env.transport.EXPECT().
		PostForm(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, form url.Values) (*transport.TokenResponse, error) {
			assert.Equal(t, "legacy-rt", form.Get("refresh_token"))
			return successResponse(t), nil
		})

	result, err := client.AcquireSilent(context.Background(), flow.SilentRequest{
		Authority: testAuthority,
		Scopes:    []string{"openid"},
		LoginHint: "user@contoso.com",
	})
	require.NoError(t, err)
	assert.Equal(t, "new-at", result.AccessToken)
}

func seedLegacyUser(t *testing.T, env *testEnv, name string) {
	t.Helper()
	rt := cache.NewRefreshToken(name+".utid", "login.microsoftonline.com", testClientID,
		"rt-"+name, "", encodeClientInfo(t, name, "utid"))
	claims, err := identity.ParseIDToken(encodeJWT(t, map[string]any{
		"sub":                "sub-" + name,
		"oid":                "oid-" + name,
		"tid":                "tenant",
		"preferred_username": name + "@contoso.com",
	}))
	require.NoError(t, err)
	env.legacy.WriteLegacyFromModern(rt, claims, testAuthority, "oid-"+name, "user.read")
}

func TestAcquireSilentLegacyFallbackPinnedAccount(t *testing.T) {
	// Several rounds because the legacy store iterates a map: without the
	// home-account narrowing an arbitrary entry wins some of the time.
	for i := 0; i < 8; i++ {
		ctrl := gomock.NewController(t)

		client, env := newTestEnv(t, ctrl, func(o *flow.Options, e *testEnv) {
			o.Legacy = e.legacy
		})
		seedLegacyUser(t, env, "alice")
		seedLegacyUser(t, env, "bob")

		env.transport.EXPECT().
			PostForm(gomock.Any(), gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, _ string, form url.Values) (*transport.TokenResponse, error) {
				assert.Equal(t, "rt-alice", form.Get("refresh_token"))
				resp := successResponse(t)
				resp.ClientInfo = encodeClientInfo(t, "alice", "utid")
				return resp, nil
			})

		result, err := client.AcquireSilent(context.Background(), flow.SilentRequest{
			Authority:     testAuthority,
			Scopes:        []string{"user.read"},
			HomeAccountID: "alice.utid",
		})
		require.NoError(t, err)
		assert.Equal(t, "new-at", result.AccessToken)

		ctrl.Finish()
	}
}

func TestAcquireSilentPinnedAccountAbsentFromLegacy(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	client, env := newTestEnv(t, ctrl, func(o *flow.Options, e *testEnv) {
		o.Legacy = e.legacy
	})
	seedLegacyUser(t, env, "alice")
	seedLegacyUser(t, env, "bob")

	// No PostForm expectation: another account's token must not be exchanged.
	_, err := client.AcquireSilent(context.Background(), flow.SilentRequest{
		Authority:     testAuthority,
		Scopes:        []string{"user.read"},
		HomeAccountID: "carol.utid",
	})
	assert.ErrorIs(t, err, flow.ErrNoTokensFound)
}

func TestAcquireSilentHookPairing(t *testing.T) {
	tests := []struct {
		name string
		fail bool
	}{
		{"hooks pair on success", false},
		{"hooks pair when nothing is found", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			hooks := mock_authgate.NewMockAccessHooks(ctrl)
			gomock.InOrder(
				hooks.EXPECT().BeforeAccess().Return(nil).Times(1),
				hooks.EXPECT().AfterAccess().Return(nil).Times(1),
			)

			client, env := newTestEnv(t, ctrl, func(o *flow.Options, _ *testEnv) {
				o.Hooks = hooks
			})
			if !tt.fail {
				seedAccount(t, env)
				now := testNow.Unix()
				seedAccessToken(t, env, now-60, now+3600, now+7200, "cached-at")
			}

			_, err := client.AcquireSilent(context.Background(), flow.SilentRequest{
				Authority: testAuthority,
				Scopes:    []string{"user.read"},
			})
			if tt.fail {
				assert.ErrorIs(t, err, flow.ErrNoTokensFound)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestAcquireSilentBeforeHookFailureSkipsAfter(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	hooks := mock_authgate.NewMockAccessHooks(ctrl)
	hooks.EXPECT().BeforeAccess().Return(errors.New("lock held elsewhere")).Times(1)
	// No AfterAccess expectation: firing it would fail the test.

	client, _ := newTestEnv(t, ctrl, func(o *flow.Options, _ *testEnv) {
		o.Hooks = hooks
	})

	_, err := client.AcquireSilent(context.Background(), flow.SilentRequest{
		Authority: testAuthority,
		Scopes:    []string{"user.read"},
	})
	assert.ErrorContains(t, err, "lock held elsewhere")
}

func TestAcquireInteractive(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	client, env := newTestEnv(t, ctrl, nil)

	var authorizeURL string
	env.broker.EXPECT().
		Authorize(gomock.Any(), gomock.Any(), "http://localhost:8400/callback").
		DoAndReturn(func(_ context.Context, authURL, redirectURI string) (flow.AuthorizationResult, error) {
			authorizeURL = authURL
			return flow.AuthorizationResult{Code: "auth-code", RedirectURI: redirectURI}, nil
		})

	env.transport.EXPECT().
		PostForm(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, form url.Values) (*transport.TokenResponse, error) {
			assert.Equal(t, "authorization_code", form.Get("grant_type"))
			assert.Equal(t, "auth-code", form.Get("code"))
			assert.NotEmpty(t, form.Get("code_verifier"))
			assert.Equal(t, "http://localhost:8400/callback", form.Get("redirect_uri"))
			return successResponse(t), nil
		})

	result, err := client.AcquireInteractive(context.Background(), flow.InteractiveRequest{
		Authority: testAuthority,
		Scopes:    []string{"openid", "user.read"},
		Prompt:    models.PromptSelectAccount,
		LoginHint: "user@contoso.com",
	})
	require.NoError(t, err)
	assert.Equal(t, "new-at", result.AccessToken)
	assert.Equal(t, "user@contoso.com", result.Account.Username)

	u, err := url.Parse(authorizeURL)
	require.NoError(t, err)
	q := u.Query()
	assert.Equal(t, testClientID, q.Get("client_id"))
	assert.Equal(t, "code", q.Get("response_type"))
	assert.Equal(t, "S256", q.Get("code_challenge_method"))
	assert.NotEmpty(t, q.Get("code_challenge"))
	assert.NotEmpty(t, q.Get("state"))
	assert.Equal(t, "select_account", q.Get("prompt"))
	assert.Equal(t, "user@contoso.com", q.Get("login_hint"))
}

func TestAcquireInteractiveUserCancelled(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	client, env := newTestEnv(t, ctrl, nil)
	env.broker.EXPECT().Authorize(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(flow.AuthorizationResult{Cancelled: true}, nil)

	_, err := client.AcquireInteractive(context.Background(), flow.InteractiveRequest{
		Authority: testAuthority,
		Scopes:    []string{"openid"},
	})
	assert.ErrorIs(t, err, flow.ErrUserCancelled)
}

func TestAcquireInteractiveAuthorizeError(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	client, env := newTestEnv(t, ctrl, nil)
	env.broker.EXPECT().Authorize(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(flow.AuthorizationResult{ErrorCode: "access_denied", ErrorDescription: "admin consent required"}, nil)

	_, err := client.AcquireInteractive(context.Background(), flow.InteractiveRequest{
		Authority: testAuthority,
		Scopes:    []string{"openid"},
	})
	assert.ErrorContains(t, err, "access_denied")
}

func TestAcquireInteractiveExpectedAccountEnforced(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	client, env := newTestEnv(t, ctrl, nil)
	env.broker.EXPECT().Authorize(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(flow.AuthorizationResult{Code: "auth-code"}, nil)
	env.transport.EXPECT().PostForm(gomock.Any(), gomock.Any(), gomock.Any()).Return(successResponse(t), nil)

	_, err := client.AcquireInteractive(context.Background(), flow.InteractiveRequest{
		Authority:             testAuthority,
		Scopes:                []string{"openid"},
		ExpectedHomeAccountID: "someone.else",
	})

	var mismatch *flow.AccountMismatchError
	require.True(t, errors.As(err, &mismatch))
}

func TestAcquireInteractiveWithoutBroker(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	client, _ := newTestEnv(t, ctrl, func(o *flow.Options, _ *testEnv) {
		o.Broker = nil
	})

	_, err := client.AcquireInteractive(context.Background(), flow.InteractiveRequest{
		Authority: testAuthority,
		Scopes:    []string{"openid"},
	})
	assert.ErrorContains(t, err, "delegate")
}

func TestAcquireDeviceCode(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	client, env := newTestEnv(t, ctrl, nil)

	env.transport.EXPECT().
		PostFormJSON(gomock.Any(), "https://login.microsoftonline.com/tenant/oauth2/v2.0/devicecode", gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, form url.Values, out any) error {
			assert.Equal(t, testClientID, form.Get("client_id"))
			return json.Unmarshal([]byte(`{
				"device_code": "dc-1",
				"user_code": "ABCD-EFGH",
				"verification_uri": "https://microsoft.com/devicelogin",
				"expires_in": 60,
				"interval": 1,
				"message": "enter the code"
			}`), out)
		})

	pending := &transport.OAuthError{StatusCode: 400, Code: transport.ErrorCodeAuthorizationPending}
	gomock.InOrder(
		env.transport.EXPECT().PostForm(gomock.Any(), gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, _ string, form url.Values) (*transport.TokenResponse, error) {
				assert.Equal(t, "urn:ietf:params:oauth:grant-type:device_code", form.Get("grant_type"))
				assert.Equal(t, "dc-1", form.Get("device_code"))
				return nil, pending
			}),
		env.transport.EXPECT().PostForm(gomock.Any(), gomock.Any(), gomock.Any()).Return(successResponse(t), nil),
	)

	var info models.DeviceCodeInfo
	result, err := client.AcquireDeviceCode(context.Background(), flow.DeviceCodeRequest{
		Authority: testAuthority,
		Scopes:    []string{"openid"},
		Callback:  func(i models.DeviceCodeInfo) { info = i },
	})
	require.NoError(t, err)
	assert.Equal(t, "new-at", result.AccessToken)
	assert.Equal(t, "ABCD-EFGH", info.UserCode)
	assert.Equal(t, "https://microsoft.com/devicelogin", info.VerificationURL)
	assert.Equal(t, time.Second, info.Interval)
}

func TestAcquireDeviceCodeTerminalError(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	client, env := newTestEnv(t, ctrl, nil)

	env.transport.EXPECT().PostFormJSON(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, _ url.Values, out any) error {
			return json.Unmarshal([]byte(`{"device_code":"dc-1","user_code":"X","expires_in":60,"interval":1}`), out)
		})
	env.transport.EXPECT().PostForm(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil, &transport.OAuthError{StatusCode: 400, Code: "expired_token"})

	_, err := client.AcquireDeviceCode(context.Background(), flow.DeviceCodeRequest{
		Authority: testAuthority,
		Scopes:    []string{"openid"},
	})

	var re *flow.RefreshError
	require.True(t, errors.As(err, &re))
	assert.Equal(t, "expired_token", re.Underlying.Code)
}

func TestAcquireOnBehalfOf(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	client, env := newTestEnv(t, ctrl, nil)

	env.transport.EXPECT().
		PostForm(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, form url.Values) (*transport.TokenResponse, error) {
			assert.Equal(t, "urn:ietf:params:oauth:grant-type:jwt-bearer", form.Get("grant_type"))
			assert.Equal(t, "incoming-assertion", form.Get("assertion"))
			assert.Equal(t, "on_behalf_of", form.Get("requested_token_use"))
			return successResponse(t), nil
		})

	result, err := client.AcquireOnBehalfOf(context.Background(), flow.OnBehalfOfRequest{
		Authority:     testAuthority,
		Scopes:        []string{"openid", "user.read"},
		UserAssertion: "incoming-assertion",
	})
	require.NoError(t, err)
	assert.Equal(t, "new-at", result.AccessToken)

	// A second request with the same assertion is served from the cache;
	// the single PostForm expectation above enforces that.
	result, err = client.AcquireOnBehalfOf(context.Background(), flow.OnBehalfOfRequest{
		Authority:     testAuthority,
		Scopes:        []string{"openid", "user.read"},
		UserAssertion: "incoming-assertion",
	})
	require.NoError(t, err)
	assert.Equal(t, "new-at", result.AccessToken)
}

func TestAcquireOnBehalfOfRequiresAssertion(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	client, _ := newTestEnv(t, ctrl, nil)
	_, err := client.AcquireOnBehalfOf(context.Background(), flow.OnBehalfOfRequest{
		Authority: testAuthority,
		Scopes:    []string{"openid"},
	})
	assert.ErrorContains(t, err, "assertion")
}

func TestWriteBackClampsExtendedExpiry(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	client, env := newTestEnv(t, ctrl, nil)
	seedAccount(t, env)
	seedRefreshToken(t, env, "old-rt")

	resp := successResponse(t)
	resp.ExtExpiresIn = 60 // shorter than expires_in
	env.transport.EXPECT().PostForm(gomock.Any(), gomock.Any(), gomock.Any()).Return(resp, nil)

	_, err := client.AcquireSilent(context.Background(), flow.SilentRequest{
		Authority: testAuthority,
		Scopes:    []string{"openid"},
	})
	require.NoError(t, err)

	at, err := env.manager.ReadAccessToken(testHomeID, []string{"login.microsoftonline.com"}, "tenant", testClientID, []string{"openid"})
	require.NoError(t, err)
	assert.Equal(t, at.ExpiresOn, at.ExtendedExpiresOn)
}

func TestWriteBackMirrorsIntoLegacyCache(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	client, env := newTestEnv(t, ctrl, func(o *flow.Options, e *testEnv) {
		o.Legacy = e.legacy
	})

	seedAccount(t, env)
	seedRefreshToken(t, env, "old-rt")
	env.transport.EXPECT().PostForm(gomock.Any(), gomock.Any(), gomock.Any()).Return(successResponse(t), nil)

	_, err := client.AcquireSilent(context.Background(), flow.SilentRequest{
		Authority: testAuthority,
		Scopes:    []string{"openid", "user.read"},
	})
	require.NoError(t, err)

	found := env.legacy.FindAllEntriesForModern(
		[]string{"login.microsoftonline.com"}, testClientID, "user@contoso.com", "", "")
	require.Len(t, found, 1)
	assert.Equal(t, "new-rt", found[0].Secret)
}
