package auth

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	oauth2api "google.golang.org/api/oauth2/v2"
	"google.golang.org/api/option"

	"fintrack/internal/core"
)

// GoogleProvider runs the OAuth2 authorization code flow against Google and
// reads the profile from the userinfo endpoint.
type GoogleProvider struct {
	cfg        *oauth2.Config
	apiOptions []option.ClientOption
}

type GoogleOption func(*GoogleProvider)

// WithEndpoint overrides Google's OAuth endpoints.
func WithEndpoint(ep oauth2.Endpoint) GoogleOption {
	return func(p *GoogleProvider) { p.cfg.Endpoint = ep }
}

// WithAPIOptions adds client options for the userinfo call.
func WithAPIOptions(opts ...option.ClientOption) GoogleOption {
	return func(p *GoogleProvider) { p.apiOptions = append(p.apiOptions, opts...) }
}

func NewGoogleProvider(clientID, clientSecret, redirectURL string, opts ...GoogleOption) *GoogleProvider {
	p := &GoogleProvider{
		cfg: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Endpoint:     google.Endpoint,
			Scopes:       []string{"openid", oauth2api.UserinfoEmailScope, oauth2api.UserinfoProfileScope},
		},
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

func (p *GoogleProvider) AuthCodeURL(state string) string {
	return p.cfg.AuthCodeURL(state, oauth2.SetAuthURLParam("prompt", "select_account"))
}

// Exchange trades code for a token and returns the Google account as a user.
func (p *GoogleProvider) Exchange(ctx context.Context, code string) (core.User, error) {
	if code == "" {
		return core.User{}, errors.New("missing authorization code")
	}
	tok, err := p.cfg.Exchange(ctx, code)
	if err != nil {
		return core.User{}, fmt.Errorf("token exchange: %w", err)
	}

	opts := append([]option.ClientOption{option.WithHTTPClient(p.cfg.Client(ctx, tok))}, p.apiOptions...)
	svc, err := oauth2api.NewService(ctx, opts...)
	if err != nil {
		return core.User{}, fmt.Errorf("userinfo service: %w", err)
	}
	info, err := svc.Userinfo.Get().Context(ctx).Do()
	if err != nil {
		return core.User{}, fmt.Errorf("fetch userinfo: %w", err)
	}
	if info.Id == "" {
		return core.User{}, errors.New("userinfo has no account id")
	}
	return core.User{ID: "google-" + info.Id, Email: info.Email, Name: info.Name}, nil
}
