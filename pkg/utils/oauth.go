package utils

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/jakechorley/rotation-control/internal/config"
)

const (
	AuthPort       = 3000
	authTimeout    = 5 * time.Minute
	callbackPath   = "/oauth/callback"
	tokenDirName   = ".rotation-control/tokens"
	tokenFilePerms = 0600
	tokenDirPerms  = 0700
	tokenInfoURL   = "https://oauth2.googleapis.com/tokeninfo"
)

// OAuth scopes for the Google APIs used by the import and digest commands
const (
	ScopeSheetsReadonly = "https://www.googleapis.com/auth/spreadsheets.readonly"
	ScopeGmailSend      = "https://www.googleapis.com/auth/gmail.send"
)

// RequiredScopes returns the scopes needed by the Google integrations enabled in cfg
func RequiredScopes(cfg *config.Config) []string {
	var scopes []string
	if cfg.Sheets != nil {
		scopes = append(scopes, ScopeSheetsReadonly)
	}
	if cfg.Digest != nil {
		scopes = append(scopes, ScopeGmailSend)
	}
	return scopes
}

// GetOAuthConfig creates an OAuth2 config requesting the given scopes
func GetOAuthConfig(oauthCfg *config.OAuthClientConfig, scopes []string) (*oauth2.Config, error) {
	oauthConfigJSON, err := json.Marshal(oauthCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal oauth config: %w", err)
	}

	googleConfig, err := google.ConfigFromJSON(oauthConfigJSON, scopes...)
	if err != nil {
		return nil, fmt.Errorf("failed to create google config: %w", err)
	}

	googleConfig.RedirectURL = fmt.Sprintf("http://localhost:%d%s", AuthPort, callbackPath)

	return googleConfig, nil
}

// TokenStore persists OAuth tokens per environment under Dir
type TokenStore struct {
	Dir string
}

// DefaultTokenStore stores tokens under ~/.rotation-control/tokens
func DefaultTokenStore() (*TokenStore, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get home directory: %w", err)
	}
	return &TokenStore{Dir: filepath.Join(homeDir, tokenDirName)}, nil
}

func (s *TokenStore) path(env string) string {
	if env == "" {
		env = "default"
	}
	return filepath.Join(s.Dir, fmt.Sprintf("token-%s.json", env))
}

// Load returns the stored token for env, or nil when none has been saved yet
func (s *TokenStore) Load(env string) (*oauth2.Token, error) {
	data, err := os.ReadFile(s.path(env))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read token file: %w", err)
	}

	var token oauth2.Token
	if err := json.Unmarshal(data, &token); err != nil {
		return nil, fmt.Errorf("failed to parse token file: %w", err)
	}

	return &token, nil
}

// Save writes token for env with owner-only permissions
func (s *TokenStore) Save(env string, token *oauth2.Token) error {
	if err := os.MkdirAll(s.Dir, tokenDirPerms); err != nil {
		return fmt.Errorf("failed to create token directory: %w", err)
	}

	data, err := json.Marshal(token)
	if err != nil {
		return fmt.Errorf("failed to marshal token: %w", err)
	}

	if err := os.WriteFile(s.path(env), data, tokenFilePerms); err != nil {
		return fmt.Errorf("failed to write token file: %w", err)
	}

	return nil
}

// Delete removes the stored token for env; a missing file is not an error
func (s *TokenStore) Delete(env string) error {
	if err := os.Remove(s.path(env)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete token file: %w", err)
	}
	return nil
}

// Authenticator obtains Google tokens, reusing cached and refreshed tokens where possible.
// Only one OAuth flow runs at a time.
type Authenticator struct {
	oauthConfig *oauth2.Config
	scopes      []string
	store       *TokenStore
	logger      *zap.Logger

	mu    sync.Mutex
	cache *oauth2.Token
}

// NewAuthenticator creates an Authenticator for the given scopes
func NewAuthenticator(oauthConfig *oauth2.Config, scopes []string, store *TokenStore, logger *zap.Logger) *Authenticator {
	return &Authenticator{
		oauthConfig: oauthConfig,
		scopes:      scopes,
		store:       store,
		logger:      logger,
	}
}

// HTTPClient returns an authorised client for the Google API services
func (a *Authenticator) HTTPClient(ctx context.Context, env string) (*http.Client, error) {
	token, err := a.Token(ctx, env)
	if err != nil {
		return nil, err
	}
	return a.oauthConfig.Client(ctx, token), nil
}

// Token returns a valid token for env, running the browser consent flow when needed
func (a *Authenticator) Token(ctx context.Context, env string) (*oauth2.Token, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.cache != nil && a.cache.Valid() {
		return a.cache, nil
	}

	stored, err := a.store.Load(env)
	if err != nil {
		a.logger.Warn("Failed to load stored token", zap.Error(err))
	}

	if stored != nil {
		if token := a.reuse(ctx, env, stored); token != nil {
			a.cache = token
			return token, nil
		}
	}

	a.logger.Info("No valid token found, starting OAuth flow")
	authURL := a.oauthConfig.AuthCodeURL("state", oauth2.AccessTypeOffline)
	fmt.Printf("\nVisit this URL to authorize the application:\n%s\n\n", authURL)

	code, err := listenForAuthCallback(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get authorization code: %w", err)
	}

	token, err := a.oauthConfig.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange code for token: %w", err)
	}

	if err := a.validateScopes(ctx, token); err != nil {
		return nil, fmt.Errorf("token validation failed: %w", err)
	}

	if err := a.store.Save(env, token); err != nil {
		a.logger.Warn("Failed to save token", zap.Error(err))
	}

	a.cache = token
	return token, nil
}

// reuse returns stored, or a refreshed copy of it, when it still grants every scope.
// A token missing scopes is deleted so the next flow asks for consent again.
func (a *Authenticator) reuse(ctx context.Context, env string, stored *oauth2.Token) *oauth2.Token {
	token := stored
	if !stored.Valid() {
		if stored.RefreshToken == "" {
			return nil
		}
		refreshed, err := a.oauthConfig.TokenSource(ctx, stored).Token()
		if err != nil {
			a.logger.Warn("Failed to refresh token", zap.Error(err))
			return nil
		}
		token = refreshed
	}

	if err := a.validateScopes(ctx, token); err != nil {
		a.logger.Warn("Stored token is missing required scopes, deleting it", zap.Error(err))
		if err := a.store.Delete(env); err != nil {
			a.logger.Warn("Failed to delete token", zap.Error(err))
		}
		return nil
	}

	if token != stored {
		a.logger.Info("Token refreshed successfully")
		if err := a.store.Save(env, token); err != nil {
			a.logger.Warn("Failed to save refreshed token", zap.Error(err))
		}
	}

	return token
}

// validateScopes asks Google's tokeninfo endpoint which scopes the token carries
func (a *Authenticator) validateScopes(ctx context.Context, token *oauth2.Token) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, tokenInfoURL+"?access_token="+token.AccessToken, nil)
	if err != nil {
		return fmt.Errorf("failed to create tokeninfo request: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call tokeninfo endpoint: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("tokeninfo request failed with status %d: %s", resp.StatusCode, string(body))
	}

	var tokenInfo struct {
		Scope string `json:"scope"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&tokenInfo); err != nil {
		return fmt.Errorf("failed to decode tokeninfo response: %w", err)
	}

	if missing := missingScopes(strings.Fields(tokenInfo.Scope), a.scopes); len(missing) > 0 {
		return fmt.Errorf("token is missing required scopes: %v", missing)
	}

	return nil
}

func missingScopes(granted, required []string) []string {
	var missing []string
	for _, scope := range required {
		if !slices.Contains(granted, scope) {
			missing = append(missing, scope)
		}
	}
	return missing
}

// listenForAuthCallback serves the OAuth redirect on AuthPort and waits for the code
func listenForAuthCallback(ctx context.Context) (string, error) {
	codeChan := make(chan string, 1)
	errChan := make(chan error, 1)

	mux := http.NewServeMux()
	mux.HandleFunc(callbackPath, func(w http.ResponseWriter, r *http.Request) {
		code := r.URL.Query().Get("code")
		if code == "" {
			select {
			case errChan <- fmt.Errorf("no authorization code received"):
			default:
			}
			http.Error(w, "Authorization failed", http.StatusBadRequest)
			return
		}

		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, `<html><body><h1>Authorization successful!</h1><p>You can close this window.</p></body></html>`)

		select {
		case codeChan <- code:
		default:
		}
	})

	listener, err := net.Listen("tcp", fmt.Sprintf("localhost:%d", AuthPort))
	if err != nil {
		return "", fmt.Errorf("failed to listen for oauth callback: %w", err)
	}

	server := &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			select {
			case errChan <- fmt.Errorf("server error: %w", err):
			default:
			}
		}
	}()

	timeoutCtx, cancel := context.WithTimeout(ctx, authTimeout)
	defer cancel()

	var code string
	var authErr error
	select {
	case code = <-codeChan:
	case authErr = <-errChan:
	case <-timeoutCtx.Done():
		authErr = fmt.Errorf("authorization timeout after %v", authTimeout)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	_ = server.Shutdown(shutdownCtx)

	if authErr != nil {
		return "", authErr
	}
	return code, nil
}
