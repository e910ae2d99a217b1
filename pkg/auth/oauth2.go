// Package auth obtains and inspects the credentials used in request auth
// fields: OAuth2 access tokens, JWT claims and Basic credentials.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// Supported OAuth2 grant types.
const (
	FlowClientCredentials = "client_credentials"
	FlowPassword          = "password"
)

// OAuth2Params defines the parameters for OAuth2 authentication.
type OAuth2Params struct {
	Flow         string
	TokenURL     string
	ClientID     string
	ClientSecret string
	Scopes       []string
	// Username and Password are required for the password flow
	Username string
	Password string
}

// FetchToken performs the OAuth2 flow named by p.Flow and returns the token.
func FetchToken(ctx context.Context, p OAuth2Params) (*oauth2.Token, error) {
	if p.TokenURL == "" {
		return nil, errors.New("token URL is required")
	}
	if p.ClientID == "" {
		return nil, errors.New("client ID is required")
	}

	switch p.Flow {
	case FlowClientCredentials, "":
		return clientCredentialsFlow(ctx, p)
	case FlowPassword:
		return passwordFlow(ctx, p)
	default:
		return nil, fmt.Errorf("unknown flow '%s' (supported: client_credentials, password)", p.Flow)
	}
}

// clientCredentialsFlow is server-to-server authentication with the
// client's own ID and secret.
func clientCredentialsFlow(ctx context.Context, p OAuth2Params) (*oauth2.Token, error) {
	config := clientcredentials.Config{
		ClientID:     p.ClientID,
		ClientSecret: p.ClientSecret,
		TokenURL:     p.TokenURL,
		Scopes:       p.Scopes,
	}

	token, err := config.Token(ctx)
	if err != nil {
		return nil, fmt.Errorf("OAuth2 client_credentials flow failed: %w", err)
	}
	return token, nil
}

// passwordFlow exchanges a user's credentials for an access token.
func passwordFlow(ctx context.Context, p OAuth2Params) (*oauth2.Token, error) {
	if p.Username == "" || p.Password == "" {
		return nil, errors.New("username and password are required for the password flow")
	}

	config := oauth2.Config{
		ClientID:     p.ClientID,
		ClientSecret: p.ClientSecret,
		Endpoint:     oauth2.Endpoint{TokenURL: p.TokenURL},
		Scopes:       p.Scopes,
	}

	token, err := config.PasswordCredentialsToken(ctx, p.Username, p.Password)
	if err != nil {
		return nil, fmt.Errorf("OAuth2 password flow failed: %w", err)
	}
	return token, nil
}

// FormatToken describes a token for terminal output.
func FormatToken(token *oauth2.Token) string {
	var sb strings.Builder

	sb.WriteString("OAuth2 Authentication Successful!\n\n")
	fmt.Fprintf(&sb, "Access Token: %s\n", token.AccessToken)
	fmt.Fprintf(&sb, "Token Type: %s\n", token.Type())

	if token.RefreshToken != "" {
		fmt.Fprintf(&sb, "Refresh Token: %s\n", token.RefreshToken)
	}
	if !token.Expiry.IsZero() {
		fmt.Fprintf(&sb, "Expires: %s\n", token.Expiry.Format("2006-01-02 15:04:05"))
	}
	return sb.String()
}
