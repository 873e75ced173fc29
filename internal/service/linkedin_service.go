package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/socialmatic/socialmatic/internal/models"
	"golang.org/x/oauth2"
)

const linkedinAPIBaseURL = "https://api.linkedin.com"

type LinkedinService interface {
	Publisher
}

type linkedinService struct {
	baseURL string
}

func NewLinkedinService() LinkedinService {
	return &linkedinService{
		baseURL: linkedinAPIBaseURL,
	}
}

// Publish creates one text share on the member's behalf using the
// delegated bearer token. The member urn is resolved first because the
// share payload requires an explicit author.
func (s *linkedinService) Publish(ctx context.Context, cred *models.OAuthCredential, content string) (string, error) {
	if cred == nil {
		return "", errors.New("missing linkedin credential")
	}

	httpClient := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: cred.Token,
	}))

	memberID, err := s.memberID(ctx, httpClient)
	if err != nil {
		return "", err
	}

	share := map[string]interface{}{
		"author":         fmt.Sprintf("urn:li:person:%s", memberID),
		"lifecycleState": "PUBLISHED",
		"specificContent": map[string]interface{}{
			"com.linkedin.ugc.ShareContent": map[string]interface{}{
				"shareCommentary": map[string]string{
					"text": content,
				},
				"shareMediaCategory": "NONE",
			},
		},
		"visibility": map[string]string{
			"com.linkedin.ugc.MemberNetworkVisibility": "PUBLIC",
		},
	}

	body, err := json.Marshal(share)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/v2/ugcPosts", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Restli-Protocol-Version", "2.0.0")

	resp, err := httpClient.Do(req)
	if err != nil {
		slog.Info(err.Error())
		return "", fmt.Errorf("linkedin publish failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		slog.Info("linkedin publish rejected", "status", resp.StatusCode)
		return "", fmt.Errorf("linkedin publish returned status %d", resp.StatusCode)
	}

	var result struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		slog.Info(err.Error())
		return "", fmt.Errorf("failed to decode share response: %w", err)
	}

	return result.ID, nil
}

func (s *linkedinService) memberID(ctx context.Context, httpClient *http.Client) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/v2/me", nil)
	if err != nil {
		return "", err
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		slog.Info(err.Error())
		return "", fmt.Errorf("failed to resolve linkedin member: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("linkedin member lookup returned status %d", resp.StatusCode)
	}

	var result struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		slog.Info(err.Error())
		return "", err
	}

	return result.ID, nil
}
