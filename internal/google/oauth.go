package google

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const cacheDirName = "autoschedule"

var accountNamePattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// validateAccountName rejects names that cannot be used as part of a token file name
func validateAccountName(account string) error {
	if account == "" {
		return fmt.Errorf("account name cannot be empty")
	}
	if !accountNamePattern.MatchString(account) {
		return fmt.Errorf("invalid account name %q: only letters, digits, '-' and '_' are allowed", account)
	}
	return nil
}

// getTokenFilePath returns the cache path of the token file for an account
func getTokenFilePath(account string) string {
	return filepath.Join(userCacheDir(), cacheDirName, "google-"+account+".token")
}

// HasTokenForAccount checks if a token file exists for the specified account
func HasTokenForAccount(account string) bool {
	if err := validateAccountName(account); err != nil {
		return false
	}
	_, err := os.Stat(getTokenFilePath(account))
	return err == nil
}

// GetOAuthConfig returns the OAuth2 configuration used to refresh calendar tokens.
// Client credentials come from GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET.
func GetOAuthConfig() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     os.Getenv("GOOGLE_CLIENT_ID"),
		ClientSecret: os.Getenv("GOOGLE_CLIENT_SECRET"),
		Endpoint:     google.Endpoint,
		Scopes:       CalendarScopes,
	}
}

// GetAuthenticationErrorMessage explains how to provide a token for an account
func GetAuthenticationErrorMessage(account string) string {
	return fmt.Sprintf(`Google OAuth token not found for account %q.

Place a token file at:
   %s

The file holds the access token and the refresh token separated by a space.
Set GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET so the token can be refreshed.`, account, getTokenFilePath(account))
}

// ParseToken parses the "<access> <refresh>" token format. The access token
// is marked expired so the first request refreshes it.
func ParseToken(s string) (*oauth2.Token, error) {
	f := strings.Fields(s)
	if len(f) != 2 {
		return nil, fmt.Errorf("invalid token format: expected 2 fields, got %d", len(f))
	}
	return &oauth2.Token{
		AccessToken:  f[0],
		TokenType:    "Bearer",
		RefreshToken: f[1],
		Expiry:       time.Unix(1, 0),
	}, nil
}

func readTokenFile(path string) (*oauth2.Token, error) {
	slurp, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	token, err := ParseToken(string(slurp))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return token, nil
}

// GetTokenSourceForAccount returns an OAuth2 token source for the stored token of an account
func GetTokenSourceForAccount(ctx context.Context, account string) (oauth2.TokenSource, error) {
	if err := validateAccountName(account); err != nil {
		return nil, err
	}

	token, err := readTokenFile(getTokenFilePath(account))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%s", GetAuthenticationErrorMessage(account))
		}
		return nil, fmt.Errorf("failed to read token for account %s: %w", account, err)
	}

	return GetOAuthConfig().TokenSource(ctx, token), nil
}

func userCacheDir() string {
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(homeDir(), "Library", "Caches")
	case "windows":
		for _, ev := range []string{"TEMP", "TMP"} {
			if v := os.Getenv(ev); v != "" {
				return v
			}
		}
		panic("No Windows TEMP or TMP environment variables found")
	}
	if xdg := os.Getenv("XDG_CACHE_HOME"); xdg != "" {
		return xdg
	}
	return filepath.Join(homeDir(), ".cache")
}

func homeDir() string {
	if runtime.GOOS == "windows" {
		return os.Getenv("HOMEDRIVE") + os.Getenv("HOMEPATH")
	}
	return os.Getenv("HOME")
}
