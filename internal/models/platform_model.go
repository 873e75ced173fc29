package models

import "fmt"

// Platform is the closed set of publish destinations.
type Platform string

const (
	PlatformTwitter  Platform = "TWITTER"
	PlatformLinkedin Platform = "LINKEDIN"
)

var AllPlatforms = []Platform{PlatformTwitter, PlatformLinkedin}

func ParsePlatform(s string) (Platform, error) {
	switch Platform(s) {
	case PlatformTwitter:
		return PlatformTwitter, nil
	case PlatformLinkedin:
		return PlatformLinkedin, nil
	}
	return "", fmt.Errorf("unknown platform %q", s)
}

// ProviderKey maps a platform to the identity provider's OAuth provider key.
func (p Platform) ProviderKey() string {
	switch p {
	case PlatformTwitter:
		return "oauth_twitter"
	case PlatformLinkedin:
		return "oauth_linkedin"
	}
	return ""
}

// CallbackPath is the fixed delivery endpoint for the platform,
// relative to the configured callback base URL.
func (p Platform) CallbackPath() string {
	switch p {
	case PlatformTwitter:
		return "/callbacks/twitter"
	case PlatformLinkedin:
		return "/callbacks/linkedin"
	}
	return ""
}
