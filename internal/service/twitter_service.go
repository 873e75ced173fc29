package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/dghubble/oauth1"
	config "github.com/socialmatic/socialmatic/configs"
	"github.com/socialmatic/socialmatic/internal/models"
)

const twitterAPIBaseURL = "https://api.twitter.com"

type TwitterService interface {
	Publisher
}

type twitterService struct {
	cfg     config.Config
	baseURL string
}

func NewTwitterService(cfg config.Config) TwitterService {
	return &twitterService{
		cfg:     cfg,
		baseURL: twitterAPIBaseURL,
	}
}

// Publish creates one tweet on the user's behalf. The request is
// OAuth1-signed with the app key pair plus the user's delegated
// token and secret.
func (s *twitterService) Publish(ctx context.Context, cred *models.OAuthCredential, content string) (string, error) {
	if cred == nil {
		return "", errors.New("missing twitter credential")
	}

	oauthConfig := oauth1.NewConfig(s.cfg.Twitter.AppKey, s.cfg.Twitter.AppSecret)
	token := oauth1.NewToken(cred.Token, cred.TokenSecret)
	httpClient := oauthConfig.Client(ctx, token)

	body, err := json.Marshal(map[string]string{"text": content})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/2/tweets", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := httpClient.Do(req)
	if err != nil {
		slog.Info(err.Error())
		return "", fmt.Errorf("twitter publish failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		slog.Info("twitter publish rejected", "status", resp.StatusCode)
		return "", fmt.Errorf("twitter publish returned status %d", resp.StatusCode)
	}

	var result struct {
		Data struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		slog.Info(err.Error())
		return "", fmt.Errorf("failed to decode tweet response: %w", err)
	}

	return result.Data.ID, nil
}
