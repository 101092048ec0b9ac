package authority

import (
	"context"
	"fmt"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/authgate/authgate/internal/transport"
)

const discoveryTTL = 4 * time.Hour

// discoveryDocument is the subset of the OIDC discovery metadata we consume.
type discoveryDocument struct {
	Issuer                string `json:"issuer"`
	AuthorizationEndpoint string `json:"authorization_endpoint"`
	TokenEndpoint         string `json:"token_endpoint"`
	DeviceCodeEndpoint    string `json:"device_authorization_endpoint"`
}

// Resolver discovers and caches authority endpoints. Successful resolutions
// are cached with a TTL; failures are never cached, so every request after a
// failure re-attempts resolution. Concurrent resolutions of the same
// authority are collapsed into one round trip.
type Resolver struct {
	client transport.Client
	cache  *gocache.Cache
	group  singleflight.Group
	logger *zap.Logger
}

// NewResolver is the constructor for Resolver.
func NewResolver(client transport.Client, logger *zap.Logger) *Resolver {
	return &Resolver{
		client: client,
		cache:  gocache.New(discoveryTTL, 10*time.Minute),
		logger: logger,
	}
}

// Resolve returns the endpoints for an authority, from cache when possible.
func (r *Resolver) Resolve(ctx context.Context, a Authority) (Endpoints, error) {
	if cached, ok := r.cache.Get(a.URL); ok {
		return cached.(Endpoints), nil
	}

	v, err, _ := r.group.Do(a.URL, func() (any, error) {
		ep, err := r.discover(ctx, a)
		if err != nil {
			return Endpoints{}, err
		}
		r.cache.SetDefault(a.URL, ep)
		return ep, nil
	})
	if err != nil {
		return Endpoints{}, err
	}
	return v.(Endpoints), nil
}

func (r *Resolver) discover(ctx context.Context, a Authority) (Endpoints, error) {
	wellKnown := a.URL + "/v2.0/.well-known/openid-configuration"
	var doc discoveryDocument
	if err := r.client.GetJSON(ctx, wellKnown, &doc); err != nil {
		return Endpoints{}, fmt.Errorf("authority resolution failed for %s: %w", a.URL, err)
	}
	if doc.TokenEndpoint == "" || doc.AuthorizationEndpoint == "" {
		return Endpoints{}, fmt.Errorf("authority resolution failed for %s: discovery document is incomplete", a.URL)
	}

	r.logger.Debug("resolved authority endpoints",
		zap.String("authority", a.URL),
		zap.String("token_endpoint", doc.TokenEndpoint))

	return Endpoints{
		Issuer:                doc.Issuer,
		AuthorizationEndpoint: doc.AuthorizationEndpoint,
		TokenEndpoint:         doc.TokenEndpoint,
		DeviceCodeEndpoint:    doc.DeviceCodeEndpoint,
		Aliases:               AliasesFor(a.Host),
	}, nil
}
