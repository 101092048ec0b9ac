package flow

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/authgate/authgate/internal/telemetry"
	"github.com/authgate/authgate/internal/transport"
	"github.com/authgate/authgate/models"
)

const defaultPollInterval = 5 * time.Second

// DeviceCodeRequest asks for a token through the device-code flow. Callback
// receives the user code and verification URL once the flow has started.
type DeviceCodeRequest struct {
	Authority string
	Scopes    []string
	Callback  func(models.DeviceCodeInfo)
}

// pollInterval is a constant backoff whose interval can be widened when the
// server answers slow_down.
type pollInterval struct {
	d time.Duration
}

func (p *pollInterval) NextBackOff() time.Duration { return p.d }
func (p *pollInterval) Reset()                     {}

// AcquireDeviceCode starts the device authorization flow and polls the token
// endpoint at the server-specified interval until the user completes
// sign-in, the flow expires, or the server reports a terminal error.
func (c *Client) AcquireDeviceCode(ctx context.Context, req DeviceCodeRequest) (*models.TokenResult, error) {
	requestID, finish := c.beginRequest()
	success := false
	defer func() { finish(success) }()

	auth, ep, err := c.resolveAuthority(ctx, requestID, req.Authority)
	if err != nil {
		return nil, err
	}
	if ep.DeviceCodeEndpoint == "" {
		return nil, fmt.Errorf("authority %s does not advertise a device authorization endpoint", auth.URL)
	}

	form := url.Values{}
	form.Set("client_id", c.clientID)
	form.Set("scope", strings.Join(req.Scopes, " "))

	var dc transport.DeviceCodeResponse
	c.telemetry.StartEvent(requestID, telemetry.EventHTTP)
	err = c.http.PostFormJSON(ctx, ep.DeviceCodeEndpoint, form, &dc)
	c.telemetry.StopEvent(requestID, telemetry.EventHTTP, nil)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%w: %v", ErrCancelled, ctx.Err())
		}
		return nil, fmt.Errorf("device authorization request failed: %w", err)
	}

	interval := secondsToDuration(int64(dc.Interval))
	if interval <= 0 {
		interval = defaultPollInterval
	}
	deadline := secondsToDuration(int64(dc.ExpiresIn))

	if req.Callback != nil {
		req.Callback(models.DeviceCodeInfo{
			UserCode:        dc.UserCode,
			VerificationURL: dc.VerificationURI,
			Message:         dc.Message,
			ExpiresOn:       c.clock.Now().Add(deadline),
			Interval:        interval,
		})
	}

	poll := &pollInterval{d: interval}
	operation := func() (*transport.TokenResponse, error) {
		p := newTokenParams(c.clientID, grantDeviceCode, req.Scopes)
		p.deviceCode = dc.DeviceCode
		resp, err := c.exchange(ctx, requestID, ep.TokenEndpoint, p)
		if err == nil {
			return resp, nil
		}
		var oe *transport.OAuthError
		if errors.As(err, &oe) {
			if oe.IsAuthorizationPending() {
				if oe.RetryAfter > 0 {
					poll.d = oe.RetryAfter
				}
				return nil, err
			}
			if oe.IsSlowDown() {
				poll.d += defaultPollInterval
				return nil, err
			}
			return nil, backoff.Permanent(err)
		}
		return nil, backoff.Permanent(err)
	}

	resp, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(poll),
		backoff.WithMaxElapsedTime(deadline),
	)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%w: %v", ErrCancelled, ctx.Err())
		}
		var oe *transport.OAuthError
		if errors.As(err, &oe) {
			return nil, &RefreshError{Underlying: oe}
		}
		return nil, fmt.Errorf("device code flow failed: %w", err)
	}

	if ctx.Err() != nil {
		return nil, fmt.Errorf("%w: %v", ErrCancelled, ctx.Err())
	}

	hs := c.newHookScope()
	defer hs.close()
	result, err := c.writeBack(hs, auth, resp, req.Scopes, "")
	if err != nil {
		return nil, err
	}
	success = true
	return result, nil
}
