package store

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func TestAuthenticateRequiresClientID(t *testing.T) {
	t.Parallel()

	_, err := Authenticate(SessionConfig{})
	require.Error(t, err)
}

func TestAuthenticateStartsSignedOut(t *testing.T) {
	t.Parallel()

	session, err := Authenticate(SessionConfig{ClientID: "client-id"})
	require.NoError(t, err)
	assert.False(t, session.SignedIn())
	assert.Contains(t, session.AuthURL(), "client-id")
}

func TestAuthenticateRestoresCachedToken(t *testing.T) {
	t.Parallel()

	tokenPath := filepath.Join(t.TempDir(), "token.json")
	cached := oauth2.Token{
		AccessToken:  "access",
		RefreshToken: "refresh",
		Expiry:       time.Now().Add(-time.Hour),
	}
	data, err := json.Marshal(cached)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(tokenPath, data, 0o600))

	session, err := Authenticate(SessionConfig{ClientID: "client-id", TokenPath: tokenPath})
	require.NoError(t, err)
	// Expired access token is still usable through the refresh token.
	assert.True(t, session.SignedIn())
}

func TestSignOutInvalidatesSessionAndDropsToken(t *testing.T) {
	t.Parallel()

	tokenPath := filepath.Join(t.TempDir(), "token.json")
	require.NoError(t, writeToken(tokenPath, &oauth2.Token{AccessToken: "access", RefreshToken: "refresh"}))

	session, err := Authenticate(SessionConfig{ClientID: "client-id", TokenPath: tokenPath})
	require.NoError(t, err)
	require.True(t, session.SignedIn())

	session.SignOut()
	assert.False(t, session.SignedIn())
	_, statErr := os.Stat(tokenPath)
	assert.True(t, os.IsNotExist(statErr), "cached token should be removed on sign-out")
}
