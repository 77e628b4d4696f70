package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	drive "google.golang.org/api/drive/v3"
)

// ErrNotSignedIn is returned by remote operations before the consent flow
// has completed.
var ErrNotSignedIn = errors.New("store: not signed in to Drive")

// SessionConfig identifies the OAuth application and where to cache tokens.
type SessionConfig struct {
	ClientID     string
	ClientSecret string
	TokenPath    string
}

// Session is the explicit handle for one authenticated Drive link. It is
// created by Authenticate, becomes usable after SignIn, and is invalidated
// by SignOut. There is no ambient singleton; callers own the lifecycle.
type Session struct {
	config    *oauth2.Config
	tokenPath string
	token     *oauth2.Token
}

// Authenticate prepares a session and loads any previously cached token so
// a returning user skips the consent prompt. It never contacts the network.
func Authenticate(cfg SessionConfig) (*Session, error) {
	if cfg.ClientID == "" {
		return nil, fmt.Errorf("store: OAuth client id is required")
	}
	session := &Session{
		config: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Scopes:       []string{drive.DriveFileScope},
			Endpoint:     google.Endpoint,
			RedirectURL:  "urn:ietf:wg:oauth:2.0:oob",
		},
		tokenPath: cfg.TokenPath,
	}
	if cfg.TokenPath != "" {
		if token, err := readToken(cfg.TokenPath); err == nil {
			session.token = token
		}
	}
	return session, nil
}

// SignedIn reports whether the session holds a usable token. An expired
// access token still counts when a refresh token is present.
func (s *Session) SignedIn() bool {
	if s.token == nil {
		return false
	}
	return s.token.Valid() || s.token.RefreshToken != ""
}

// AuthURL returns the consent URL the user must visit to authorize access.
func (s *Session) AuthURL() string {
	return s.config.AuthCodeURL("state-token", oauth2.AccessTypeOffline)
}

// SignIn exchanges the pasted consent code for a token and caches it.
func (s *Session) SignIn(ctx context.Context, code string) error {
	token, err := s.config.Exchange(ctx, code)
	if err != nil {
		return fmt.Errorf("store: exchange consent code: %w", err)
	}
	s.token = token
	if s.tokenPath != "" {
		if err := writeToken(s.tokenPath, token); err != nil {
			return fmt.Errorf("store: cache token: %w", err)
		}
	}
	return nil
}

// SignOut invalidates the session and removes the cached token.
func (s *Session) SignOut() {
	s.token = nil
	if s.tokenPath != "" {
		_ = os.Remove(s.tokenPath)
	}
}

func (s *Session) tokenSource(ctx context.Context) (oauth2.TokenSource, error) {
	if s.token == nil {
		return nil, ErrNotSignedIn
	}
	return s.config.TokenSource(ctx, s.token), nil
}

func readToken(path string) (*oauth2.Token, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var token oauth2.Token
	if err := json.Unmarshal(data, &token); err != nil {
		return nil, err
	}
	return &token, nil
}

func writeToken(path string, token *oauth2.Token) error {
	data, err := json.Marshal(token)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}
