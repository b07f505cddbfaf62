package oauthflow

import "golang.org/x/oauth2"

// Provider describes one OAuth2 authorization-code + PKCE provider.
// Public clients only: no client secret, S256 challenge mandatory.
type Provider struct {
	Name        string
	ClientID    string
	RedirectURI string
	Scopes      []string
	Endpoint    oauth2.Endpoint
}

// Snapchat returns the Snapchat Login Kit provider configuration.
func Snapchat(clientID string) Provider {
	return Provider{
		Name:        "snapchat",
		ClientID:    clientID,
		RedirectURI: "zay://auth/snapchat/callback",
		Scopes: []string{
			"https://auth.snapchat.com/oauth2/api/user.display_name",
			"https://auth.snapchat.com/oauth2/api/user.external_id",
			"https://auth.snapchat.com/oauth2/api/user.bitmoji.avatar",
		},
		Endpoint: oauth2.Endpoint{
			AuthURL:  "https://accounts.snapchat.com/accounts/oauth2/auth",
			TokenURL: "https://accounts.snapchat.com/accounts/oauth2/token",
		},
	}
}

// Instagram returns the Instagram Basic Display provider configuration.
func Instagram(clientID string) Provider {
	return Provider{
		Name:        "instagram",
		ClientID:    clientID,
		RedirectURI: "zay://auth/instagram/callback",
		Scopes:      []string{"user_profile"},
		Endpoint: oauth2.Endpoint{
			AuthURL:  "https://api.instagram.com/oauth/authorize",
			TokenURL: "https://api.instagram.com/oauth/access_token",
		},
	}
}
