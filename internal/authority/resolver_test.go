package authority_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/authgate/authgate/internal/authority"
	mock_authgate "github.com/authgate/authgate/tests/mock"
)

func discoveryPayload(issuer, authz, token, device string) func(ctx context.Context, rawURL string, out any) error {
	return func(_ context.Context, _ string, out any) error {
		payload := fmt.Sprintf(`{
			"issuer": %q,
			"authorization_endpoint": %q,
			"token_endpoint": %q,
			"device_authorization_endpoint": %q
		}`, issuer, authz, token, device)
		return json.Unmarshal([]byte(payload), out)
	}
}

func TestResolveCachesSuccess(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	auth, err := authority.Parse("https://login.microsoftonline.com/common")
	require.NoError(t, err)

	client := mock_authgate.NewMockTransportClient(ctrl)
	client.EXPECT().
		GetJSON(gomock.Any(), "https://login.microsoftonline.com/common/v2.0/.well-known/openid-configuration", gomock.Any()).
		DoAndReturn(discoveryPayload(
			"https://login.microsoftonline.com/common/v2.0",
			"https://login.microsoftonline.com/common/oauth2/v2.0/authorize",
			"https://login.microsoftonline.com/common/oauth2/v2.0/token",
			"https://login.microsoftonline.com/common/oauth2/v2.0/devicecode",
		)).
		Times(1)

	r := authority.NewResolver(client, zap.NewNop())

	first, err := r.Resolve(context.Background(), auth)
	require.NoError(t, err)
	assert.Equal(t, "https://login.microsoftonline.com/common/oauth2/v2.0/token", first.TokenEndpoint)
	assert.Contains(t, first.Aliases, "login.windows.net")

	// Second call is served from the cache; the single EXPECT above would
	// fail the test if another round trip happened.
	second, err := r.Resolve(context.Background(), auth)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestResolveDoesNotCacheFailures(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	auth, err := authority.Parse("https://login.microsoftonline.com/common")
	require.NoError(t, err)

	client := mock_authgate.NewMockTransportClient(ctrl)
	gomock.InOrder(
		client.EXPECT().GetJSON(gomock.Any(), gomock.Any(), gomock.Any()).Return(errors.New("network down")),
		client.EXPECT().GetJSON(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(discoveryPayload(
			"issuer", "https://x/authorize", "https://x/token", "",
		)),
	)

	r := authority.NewResolver(client, zap.NewNop())

	_, err = r.Resolve(context.Background(), auth)
	assert.ErrorContains(t, err, "network down")

	ep, err := r.Resolve(context.Background(), auth)
	require.NoError(t, err)
	assert.Equal(t, "https://x/token", ep.TokenEndpoint)
}

func TestResolveRejectsIncompleteDocument(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	auth, err := authority.Parse("https://login.microsoftonline.com/common")
	require.NoError(t, err)

	client := mock_authgate.NewMockTransportClient(ctrl)
	client.EXPECT().GetJSON(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(discoveryPayload(
		"issuer", "", "https://x/token", "",
	))

	r := authority.NewResolver(client, zap.NewNop())
	_, err = r.Resolve(context.Background(), auth)
	assert.ErrorContains(t, err, "incomplete")
}
