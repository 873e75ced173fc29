package transfer

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// PostCreation is the post-submission request body.
type PostCreation struct {
	Content   string    `json:"content"`
	PostDate  time.Time `json:"post_date"`
	Platforms []string  `json:"platforms"`
}

// DeliveryBody is the signed callback body the queue delivers at fire
// time. Content is duplicated into it so the callback does not need to
// re-query the store.
type DeliveryBody struct {
	UserID  string `json:"user_id"`
	Content string `json:"content"`
}

type CustomClaims struct {
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}
