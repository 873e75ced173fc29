package service

import (
	"context"

	"github.com/socialmatic/socialmatic/internal/models"
)

// Publisher performs the single publish call against one platform's
// content-creation API. No internal retries: re-delivery is owned by
// the queue through the callback's 5xx contract.
type Publisher interface {
	Publish(ctx context.Context, cred *models.OAuthCredential, content string) (string, error)
}
