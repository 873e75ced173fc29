package identity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"

	"github.com/socialmatic/socialmatic/internal/models"
	"resty.dev/v3"
)

// ErrNotLinked means the user holds no OAuth grant for the requested
// provider. It is an expected outcome, distinct from lookup failures.
var ErrNotLinked = errors.New("no linked account for provider")

// TokenResolver resolves a delegated publishing credential for a user
// on one platform.
type TokenResolver interface {
	Resolve(ctx context.Context, userID string, platform models.Platform) (*models.OAuthCredential, error)
}

// UserDirectory looks up user profiles for feed enrichment.
type UserDirectory interface {
	GetUsers(ctx context.Context, userIDs []string) ([]*models.UserProfile, error)
}

// Client talks to the external identity provider, which owns user
// records, sessions and the stored OAuth grants.
type Client struct {
	client  *resty.Client
	baseURL string
}

func NewClient(baseURL, apiKey string) *Client {
	client := resty.New().
		SetAuthToken(apiKey)

	return &Client{
		client:  client,
		baseURL: baseURL,
	}
}

func (c *Client) Close() error {
	return c.client.Close()
}

func (c *Client) r(ctx context.Context) *resty.Request {
	return c.client.R().WithContext(ctx)
}

// Resolve fetches the user's OAuth grants for the platform's provider
// key and returns the first one. Multiple linked accounts of the same
// provider are not disambiguated.
func (c *Client) Resolve(ctx context.Context, userID string, platform models.Platform) (*models.OAuthCredential, error) {
	var grants []*models.OAuthCredential

	res, err := c.r(ctx).
		SetResult(&grants).
		Get(fmt.Sprintf("%s/v1/users/%s/oauth_access_tokens/%s", c.baseURL, url.PathEscape(userID), platform.ProviderKey()))
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	if res.IsError() {
		return nil, fmt.Errorf("identity provider returned status %d", res.StatusCode())
	}

	if len(grants) == 0 {
		return nil, ErrNotLinked
	}

	return grants[0], nil
}

// GetUsers fetches profiles for the given user ids. Unknown ids are
// simply absent from the result.
func (c *Client) GetUsers(ctx context.Context, userIDs []string) ([]*models.UserProfile, error) {
	var profiles []*models.UserProfile

	res, err := c.r(ctx).
		SetQueryParamsFromValues(url.Values{
			"user_id": userIDs,
		}).
		SetResult(&profiles).
		Get(c.baseURL + "/v1/users")
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	if res.IsError() {
		return nil, fmt.Errorf("identity provider returned status %d", res.StatusCode())
	}

	return profiles, nil
}
