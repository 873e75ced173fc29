package models

// OAuthCredential is a delegated grant held by the identity provider
// on the user's behalf. TokenSecret is empty for OAuth2 providers.
type OAuthCredential struct {
	Provider    string `json:"provider"`
	Token       string `json:"token"`
	TokenSecret string `json:"token_secret"`
}

type UserProfile struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	ImageURL string `json:"image_url"`
}

// FeedItem pairs a post with its enriched author for read responses.
type FeedItem struct {
	Post   *Post       `json:"post"`
	Author UserProfile `json:"author"`
}
