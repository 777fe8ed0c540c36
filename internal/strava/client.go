// Package strava is the client for the remote platform: the OAuth2 token
// endpoint and the activities resource API. Base URL is configurable so
// tests can point at a local server.
package strava

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"activity-guard/internal/common/errors"
)

// Scope requested during authorization. Reading private activities and
// updating their visibility needs all three.
const authorizationScope = "read_all,activity:read_all,activity:write"

// Config holds the OAuth2 application credentials and endpoints.
type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
	// BaseURL is the platform root, https://www.strava.com in production
	BaseURL string
	// Timeout bounds every outbound call
	Timeout time.Duration
}

// TokenExchange is the result of a token-endpoint call. AthleteID is only
// present on authorization-code exchanges; refresh responses omit the
// athlete object.
type TokenExchange struct {
	AccessToken  string
	RefreshToken string
	// ExpiresAt is absolute Unix seconds, as the platform reports it
	ExpiresAt int64
	AthleteID int64
}

// Activity is the subset of the activity resource the policy rule needs.
type Activity struct {
	ID           int64   `json:"id"`
	Distance     float64 `json:"distance"`
	Type         string  `json:"type"`
	HideFromHome bool    `json:"hide_from_home"`
}

// Client calls the platform with bounded timeouts. It is safe for
// concurrent use.
type Client struct {
	config     Config
	httpClient *http.Client
}

func NewClient(config Config) *Client {
	timeout := config.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// AuthorizationURL builds the consent URL the browser is redirected to.
func (c *Client) AuthorizationURL() string {
	params := url.Values{}
	params.Set("client_id", c.config.ClientID)
	params.Set("response_type", "code")
	params.Set("redirect_uri", c.config.RedirectURI)
	params.Set("scope", authorizationScope)
	params.Set("approval_prompt", "auto")

	return c.config.BaseURL + "/oauth/authorize?" + params.Encode()
}

// ExchangeCode trades an authorization code for a token pair. The athlete id
// in the response identifies the record owner.
func (c *Client) ExchangeCode(ctx context.Context, code string) (*TokenExchange, error) {
	data := url.Values{}
	data.Set("client_id", c.config.ClientID)
	data.Set("client_secret", c.config.ClientSecret)
	data.Set("code", code)
	data.Set("grant_type", "authorization_code")

	var body struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
		ExpiresAt    int64  `json:"expires_at"`
		Athlete      struct {
			ID int64 `json:"id"`
		} `json:"athlete"`
	}
	if err := c.postToken(ctx, data, &body); err != nil {
		return nil, err
	}

	if body.AccessToken == "" || body.Athlete.ID == 0 {
		return nil, errors.RemoteAPIError("token response missing access token or athlete id", nil)
	}

	return &TokenExchange{
		AccessToken:  body.AccessToken,
		RefreshToken: body.RefreshToken,
		ExpiresAt:    body.ExpiresAt,
		AthleteID:    body.Athlete.ID,
	}, nil
}

// RefreshToken trades a refresh token for a new token pair. The platform
// rotates refresh tokens: the returned one fully replaces the input.
func (c *Client) RefreshToken(ctx context.Context, refreshToken string) (*TokenExchange, error) {
	data := url.Values{}
	data.Set("client_id", c.config.ClientID)
	data.Set("client_secret", c.config.ClientSecret)
	data.Set("grant_type", "refresh_token")
	data.Set("refresh_token", refreshToken)

	var body struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
		ExpiresAt    int64  `json:"expires_at"`
	}
	if err := c.postToken(ctx, data, &body); err != nil {
		return nil, err
	}

	if body.AccessToken == "" {
		return nil, errors.RemoteAPIError("token response missing access token", nil)
	}

	return &TokenExchange{
		AccessToken:  body.AccessToken,
		RefreshToken: body.RefreshToken,
		ExpiresAt:    body.ExpiresAt,
	}, nil
}

// postToken makes the actual token-endpoint request
func (c *Client) postToken(ctx context.Context, data url.Values, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, "POST", c.config.BaseURL+"/oauth/token", strings.NewReader(data.Encode()))
	if err != nil {
		return errors.InternalError("failed to create token request", err)
	}

	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.ConnectionError("token request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var errResp struct {
			Message string `json:"message"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&errResp); err == nil && errResp.Message != "" {
			return errors.RemoteAPIError(fmt.Sprintf("token request failed with status %d: %s", resp.StatusCode, errResp.Message), nil)
		}
		return errors.RemoteAPIError(fmt.Sprintf("token request failed with status %d", resp.StatusCode), nil)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.RemoteAPIError("failed to decode token response", err)
	}

	return nil
}

// GetActivity fetches one activity using the owner's access token.
func (c *Client) GetActivity(ctx context.Context, accessToken string, activityID int64) (*Activity, error) {
	endpoint := c.config.BaseURL + "/api/v3/activities/" + strconv.FormatInt(activityID, 10)

	req, err := http.NewRequestWithContext(ctx, "GET", endpoint, nil)
	if err != nil {
		return nil, errors.InternalError("failed to create activity request", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.ConnectionError("activity fetch failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, errors.RemoteAPIError(fmt.Sprintf("activity fetch returned status %d: %s", resp.StatusCode, body), nil)
	}

	var activity Activity
	if err := json.NewDecoder(resp.Body).Decode(&activity); err != nil {
		return nil, errors.RemoteAPIError("failed to decode activity response", err)
	}

	return &activity, nil
}

// HideActivity marks an activity hidden from the public home feed. The
// mutation sets an absolute state, so repeating it is a no-op at the remote
// end.
func (c *Client) HideActivity(ctx context.Context, accessToken string, activityID int64) error {
	endpoint := c.config.BaseURL + "/api/v3/activities/" + strconv.FormatInt(activityID, 10)

	payload, err := json.Marshal(map[string]bool{"hide_from_home": true})
	if err != nil {
		return errors.InternalError("failed to marshal update payload", err)
	}

	req, err := http.NewRequestWithContext(ctx, "PUT", endpoint, bytes.NewReader(payload))
	if err != nil {
		return errors.InternalError("failed to create activity update request", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.ConnectionError("activity update failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return errors.RemoteAPIError(fmt.Sprintf("activity update returned status %d: %s", resp.StatusCode, body), nil)
	}

	return nil
}
