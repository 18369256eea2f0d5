package google

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/oauth2"
)

// TokenProvider hands out the stored OAuth token of a named account.
type TokenProvider interface {
	GetTokenForAccount(ctx context.Context, account string) (*oauth2.Token, error)
	HasTokenForAccount(account string) bool
}

// FileTokenProvider reads "<access> <refresh>" token files from the user
// cache directory, one file per account.
type FileTokenProvider struct{}

// NewFileTokenProvider returns the provider the CLI uses.
func NewFileTokenProvider() *FileTokenProvider {
	return &FileTokenProvider{}
}

// GetTokenForAccount reads the token file of account.
func (p *FileTokenProvider) GetTokenForAccount(_ context.Context, account string) (*oauth2.Token, error) {
	if err := validateAccountName(account); err != nil {
		return nil, err
	}
	token, err := readTokenFile(getTokenFilePath(account))
	if err != nil {
		return nil, fmt.Errorf("failed to get token from file: %w", err)
	}
	return token, nil
}

// HasTokenForAccount reports whether the token file of account exists.
func (p *FileTokenProvider) HasTokenForAccount(account string) bool {
	return HasTokenForAccount(account)
}

// StaticTokenProvider serves tokens held in memory, e.g. one injected by a
// deployment secret instead of a cache file.
type StaticTokenProvider struct {
	mu     sync.RWMutex
	tokens map[string]*oauth2.Token
}

// NewStaticTokenProvider returns an empty provider.
func NewStaticTokenProvider() *StaticTokenProvider {
	return &StaticTokenProvider{tokens: map[string]*oauth2.Token{}}
}

// SetToken stores token for account, replacing any previous one.
func (p *StaticTokenProvider) SetToken(account string, token *oauth2.Token) error {
	if err := validateAccountName(account); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.tokens[account] = token
	return nil
}

// GetTokenForAccount returns a copy of the stored token.
func (p *StaticTokenProvider) GetTokenForAccount(_ context.Context, account string) (*oauth2.Token, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	token, ok := p.tokens[account]
	if !ok {
		return nil, fmt.Errorf("no token for account %q", account)
	}
	copied := *token
	return &copied, nil
}

// HasTokenForAccount reports whether a token is stored for account.
func (p *StaticTokenProvider) HasTokenForAccount(account string) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	_, ok := p.tokens[account]
	return ok
}
