package strava

import (
	"context"

	"activity-guard/internal/circuitbreaker"
)

// GuardedClient wraps a Client with a circuit breaker so a platform outage
// fails fast instead of tying up webhook deliveries.
type GuardedClient struct {
	client  *Client
	breaker *circuitbreaker.Breaker
}

func NewGuardedClient(client *Client, breaker *circuitbreaker.Breaker) *GuardedClient {
	return &GuardedClient{client: client, breaker: breaker}
}

// AuthorizationURL is local URL construction, no breaker involved.
func (g *GuardedClient) AuthorizationURL() string {
	return g.client.AuthorizationURL()
}

func (g *GuardedClient) ExchangeCode(ctx context.Context, code string) (*TokenExchange, error) {
	result, err := g.breaker.Execute(func() (interface{}, error) {
		return g.client.ExchangeCode(ctx, code)
	})
	if err != nil {
		return nil, err
	}
	return result.(*TokenExchange), nil
}

func (g *GuardedClient) RefreshToken(ctx context.Context, refreshToken string) (*TokenExchange, error) {
	result, err := g.breaker.Execute(func() (interface{}, error) {
		return g.client.RefreshToken(ctx, refreshToken)
	})
	if err != nil {
		return nil, err
	}
	return result.(*TokenExchange), nil
}

func (g *GuardedClient) GetActivity(ctx context.Context, accessToken string, activityID int64) (*Activity, error) {
	result, err := g.breaker.Execute(func() (interface{}, error) {
		return g.client.GetActivity(ctx, accessToken, activityID)
	})
	if err != nil {
		return nil, err
	}
	return result.(*Activity), nil
}

func (g *GuardedClient) HideActivity(ctx context.Context, accessToken string, activityID int64) error {
	_, err := g.breaker.Execute(func() (interface{}, error) {
		return nil, g.client.HideActivity(ctx, accessToken, activityID)
	})
	return err
}
